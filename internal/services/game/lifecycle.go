package game

import (
	"context"
	"log/slog"

	"github.com/mcoot/wordduel/internal/model"
)

// checkGameOver finishes the game once a player reaches RoundsToWin. The
// game-ended event follows after GameEndedDelay so clients can show the last
// round first. Must be called with r.mu held.
func (e *Engine) checkGameOver(r *room) {
	s := r.session
	if s.Status != model.StatusPlaying {
		return
	}
	winner := s.GameWinner()
	if winner == nil {
		return
	}

	s.Status = model.StatusFinished
	e.recordCompletion(s, model.OutcomeCompleted, winner.DisplayName)

	payload := model.GameEndedPayload{Winner: winner.DisplayName, Scores: s.Scores()}
	e.schedule(r, GameEndedDelay, func() {
		e.notifier.Notify(s.Code, model.EventGameEnded, payload)
	})

	e.logger.Info("game finished",
		slog.String("room_code", string(s.Code)),
		slog.String("winner", winner.DisplayName),
		slog.Int("rounds", s.RoundCounter),
	)
}

// StartNextRound begins the next round. Only the creator may call it, and only
// after the current round has ended in a game that is still being played.
func (e *Engine) StartNextRound(ctx context.Context, conn model.ConnID) error {
	r, err := e.lockRoomOf(conn)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	s := r.session
	if s.CreatorID != conn {
		return model.ErrNotCreator
	}
	if s.Status != model.StatusPlaying {
		return model.ErrNotPlaying
	}
	if s.CurrentRound == nil || !s.CurrentRound.HasEnded {
		return model.ErrWrongPhase
	}

	e.startRound(r)
	return nil
}

func (e *Engine) recordCompletion(s *model.Session, outcome model.GameOutcome, winner string) {
	now := e.clock.Now()
	duration := now.Sub(s.CreatedAt)
	if !s.StartedAt.IsZero() {
		duration = now.Sub(s.StartedAt)
	}
	e.auditor.GameCompleted(model.GameCompletionRecord{
		GameID:      s.GameID,
		RoomCode:    s.Code,
		Outcome:     outcome,
		Winner:      winner,
		Scores:      s.Scores(),
		TotalRounds: s.RoundCounter,
		Duration:    duration,
		EndedAt:     now,
	})
}
