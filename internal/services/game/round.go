package game

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mcoot/wordduel/internal/model"
)

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// startRound opens a new round with a fresh coin flip for the letter roles.
// Must be called with r.mu held.
func (e *Engine) startRound(r *room) {
	s := r.session
	if s.Status != model.StatusPlaying || len(s.Players) < model.MaxPlayers {
		return
	}

	first, second := s.Players[0], s.Players[1]
	if e.random.CoinFlip() {
		first, second = second, first
	}

	s.RoundCounter++
	s.CurrentRound = model.NewRound(s.RoundCounter, first.ID, second.ID, e.clock.Now())

	e.logger.Debug("round started",
		slog.String("room_code", string(s.Code)),
		slog.Int("round", s.RoundCounter),
	)
	e.openLetterInput(r)
}

// openLetterInput tells each chooser their role and arms the letter timer.
// Used for the first attempt of a round and for every retry.
func (e *Engine) openLetterInput(r *room) {
	s := r.session
	round := s.CurrentRound

	for _, id := range []model.ConnID{round.StartPlayerID, round.EndPlayerID} {
		role, _ := round.RoleOf(id)
		e.notifier.NotifyOne(id, model.EventRoundStarted, model.RoundStartedPayload{
			Role:        role,
			RoundNumber: round.Number,
			LetterTime:  s.Settings.LetterTimeSeconds,
		})
	}

	e.schedule(r, seconds(s.Settings.LetterTimeSeconds)+NetworkBuffer, func() {
		e.letterTimeout(r, round)
	})
}

// SubmitLetter records the caller's letter for their role. The first letter per
// role sticks; once both are in, the pair is resolved immediately.
func (e *Engine) SubmitLetter(ctx context.Context, conn model.ConnID, letter string) error {
	l, ok := parseLetter(letter)
	if !ok {
		return model.ErrInvalidLetter
	}

	r, err := e.lockRoomOf(conn)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	round := r.session.CurrentRound
	if r.session.Status != model.StatusPlaying || round == nil ||
		round.Phase != model.PhaseLetterInput || round.HasBothLetters() {
		return nil
	}

	role, ok := round.RoleOf(conn)
	if !ok {
		return nil
	}
	switch role {
	case model.RoleStart:
		if round.StartLetter != 0 {
			return nil
		}
		round.StartLetter = l
	case model.RoleEnd:
		if round.EndLetter != 0 {
			return nil
		}
		round.EndLetter = l
	}

	if round.HasBothLetters() {
		e.resolveLetters(r)
	}
	return nil
}

func parseLetter(s string) (rune, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 1 || s[0] < 'A' || s[0] > 'Z' {
		return 0, false
	}
	return rune(s[0]), true
}

func (e *Engine) letterTimeout(r *room, round *model.Round) {
	if r.session.CurrentRound != round || round.Phase != model.PhaseLetterInput || round.HasEnded {
		return
	}
	if round.StartLetter == 0 {
		round.StartLetter = e.random.Letter()
	}
	if round.EndLetter == 0 {
		round.EndLetter = e.random.Letter()
	}
	e.resolveLetters(r)
}

// resolveLetters decides whether the chosen pair is playable. A repeated pair
// (battle-royale) or a pair with no unused words is retried after RetryDelay;
// otherwise the round moves to word input.
func (e *Engine) resolveLetters(r *room) {
	e.cancelTimer(r)

	s := r.session
	round := s.CurrentRound
	pair := round.Pair()
	payload := model.NewLetterPairPayload(pair)

	battleRoyale := s.Settings.Mode == model.ModeBattleRoyale
	switch {
	case battleRoyale && s.IsPairUsed(pair):
		e.notifier.Notify(s.Code, model.EventCombinationUsed, payload)
		e.retryLetters(r)
		return
	case !e.validator.HasAnyValidWord(pair.Start, pair.End, s):
		e.notifier.Notify(s.Code, model.EventNoValidWords, payload)
		e.retryLetters(r)
		return
	}

	if battleRoyale {
		s.UsedLetterPairs[pair] = struct{}{}
	}
	round.PairRetries = 0
	round.Phase = model.PhaseWordInput
	e.notifier.Notify(s.Code, model.EventLettersRevealed, payload)

	if battleRoyale {
		round.CurrentTurnID = round.StartPlayerID
		e.notifyTurn(r)
	}

	e.armWordTimer(r, RevealDelay)
}

func (e *Engine) retryLetters(r *room) {
	round := r.session.CurrentRound
	round.PairRetries++

	e.logger.Debug("letter pair rejected",
		slog.String("room_code", string(r.session.Code)),
		slog.String("pair", round.Pair().String()),
		slog.Int("retries", round.PairRetries),
	)

	if round.PairRetries >= MaxPairRetries {
		e.logger.Warn("giving up on letter selection",
			slog.String("room_code", string(r.session.Code)),
			slog.Int("round", round.Number),
		)
		e.endRound(r, "", "", noPairsReason)
		return
	}

	e.schedule(r, RetryDelay, func() {
		if r.session.CurrentRound != round || round.HasEnded || round.Phase != model.PhaseLetterInput {
			return
		}
		round.ResetLetters()
		e.openLetterInput(r)
	})
}

// armWordTimer (re)starts the word or turn timer. extra is RevealDelay for the
// first timer of a round and zero for battle-royale turn switches.
func (e *Engine) armWordTimer(r *room, extra time.Duration) {
	s := r.session
	round := s.CurrentRound
	turn := round.CurrentTurnID

	e.schedule(r, seconds(s.Settings.WordTimeSeconds)+NetworkBuffer+extra, func() {
		if s.CurrentRound != round || round.HasEnded || round.Phase != model.PhaseWordInput {
			return
		}
		if s.Settings.Mode != model.ModeBattleRoyale {
			e.endRound(r, "", "", "Time's up")
			return
		}
		if round.CurrentTurnID != turn {
			return
		}
		e.endTurnLost(r, turn, "%s ran out of time")
	})
}

func (e *Engine) notifyTurn(r *room) {
	s := r.session
	round := s.CurrentRound
	e.notifier.Notify(s.Code, model.EventTurnUpdate, model.TurnUpdatePayload{
		CurrentTurn:   s.DisplayName(round.CurrentTurnID, fallbackName),
		CurrentTurnID: string(round.CurrentTurnID),
		RoundWords:    round.LogWords(),
	})
}

// endTurnLost ends a battle-royale round against the player whose turn it was
func (e *Engine) endTurnLost(r *room, loser model.ConnID, reasonFormat string) {
	s := r.session
	winner := s.Opponent(loser)
	reason := fmt.Sprintf(reasonFormat, s.DisplayName(loser, fallbackName))
	if winner == nil {
		e.endRound(r, "", "", reason)
		return
	}
	e.endRound(r, winner.ID, "", reason)
}

// SubmitWord handles a word from a player during word input
func (e *Engine) SubmitWord(ctx context.Context, conn model.ConnID, word string) error {
	r, err := e.lockRoomOf(conn)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	s := r.session
	round := s.CurrentRound
	if s.Status != model.StatusPlaying || round == nil || round.HasEnded || round.Phase != model.PhaseWordInput {
		return nil
	}

	battleRoyale := s.Settings.Mode == model.ModeBattleRoyale
	if battleRoyale && round.CurrentTurnID != conn {
		return model.ErrNotYourTurn
	}

	result := e.validator.Validate(word, round.StartLetter, round.EndLetter, s)
	if !result.Valid {
		e.notifier.NotifyOne(conn, model.EventInvalidWord, model.InvalidWordPayload{Reason: result.Message})
		return nil
	}

	s.UsedWords[result.Word] = struct{}{}

	if !battleRoyale {
		e.endRound(r, conn, result.Word, "")
		return nil
	}

	name := s.DisplayName(conn, fallbackName)
	round.WordsLog = append(round.WordsLog, model.WordEntry{PlayerID: conn, Player: name, Word: result.Word})
	e.notifier.Notify(s.Code, model.EventWordAccepted, model.WordAcceptedPayload{
		Word:       result.Word,
		Player:     name,
		RoundWords: round.LogWords(),
	})

	if next := s.Opponent(conn); next != nil {
		round.CurrentTurnID = next.ID
	}
	e.notifyTurn(r)
	e.armWordTimer(r, 0)
	return nil
}

// SkipRound passes on the current round. In normal mode the round is a draw
// once both players pass; in battle-royale the skipper loses the round.
func (e *Engine) SkipRound(ctx context.Context, conn model.ConnID) error {
	r, err := e.lockRoomOf(conn)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	s := r.session
	round := s.CurrentRound
	if s.Status != model.StatusPlaying || round == nil || round.HasEnded || round.Phase != model.PhaseWordInput {
		return nil
	}

	if s.Settings.Mode == model.ModeBattleRoyale {
		if round.CurrentTurnID != conn {
			return model.ErrNotYourTurn
		}
		e.endTurnLost(r, conn, "%s skipped their turn")
		return nil
	}

	round.Skipped[conn] = true
	if len(round.Skipped) >= len(s.Players) {
		e.endRound(r, "", "", "Both players skipped")
	}
	return nil
}

// endRound completes the current round once. Later calls for the same round,
// from a timer or a racing event, do nothing. Must be called with r.mu held.
func (e *Engine) endRound(r *room, winnerID model.ConnID, word, reason string) bool {
	s := r.session
	round := s.CurrentRound
	if round == nil || round.HasEnded {
		return false
	}
	round.HasEnded = true
	e.cancelTimer(r)

	round.Phase = model.PhaseEnded
	round.EndedAt = e.clock.Now()
	round.WinningWord = word
	round.WinningReason = reason

	payload := model.RoundEndedPayload{WinningReason: reason}
	if winner := s.GetPlayer(winnerID); winner != nil {
		round.WinnerID = winner.ID
		winner.Score++
		payload.Winner = &winner.DisplayName
	}
	if word != "" {
		payload.Word = &word
	}
	if s.Settings.Mode == model.ModeBattleRoyale {
		payload.RoundWords = round.LogWords()
	}
	payload.Scores = s.Scores()

	e.notifier.Notify(s.Code, model.EventRoundEnded, payload)
	e.recordRound(s, round)

	e.logger.Info("round ended",
		slog.String("room_code", string(s.Code)),
		slog.Int("round", round.Number),
		slog.String("pair", round.Pair().String()),
		slog.String("winner", s.DisplayName(round.WinnerID, "")),
	)

	e.checkGameOver(r)
	return true
}

func (e *Engine) recordRound(s *model.Session, round *model.Round) {
	var start, end string
	if round.StartLetter != 0 {
		start = string(round.StartLetter)
	}
	if round.EndLetter != 0 {
		end = string(round.EndLetter)
	}

	words := round.LogWords()
	if len(words) == 0 && round.WinningWord != "" {
		words = []model.WordEntry{{
			PlayerID: round.WinnerID,
			Player:   s.DisplayName(round.WinnerID, ""),
			Word:     round.WinningWord,
		}}
	}

	e.auditor.RoundCompleted(model.RoundRecord{
		GameID:        s.GameID,
		RoomCode:      s.Code,
		RoundNumber:   round.Number,
		StartLetter:   start,
		EndLetter:     end,
		Words:         words,
		Winner:        s.DisplayName(round.WinnerID, ""),
		WinningWord:   round.WinningWord,
		WinningReason: round.WinningReason,
		Duration:      round.Duration(),
		EndedAt:       round.EndedAt,
	})
}
