package game

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/wordduel/internal/dependencies/clock"
	"github.com/mcoot/wordduel/internal/dependencies/random"
	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/services/audit"
	"github.com/mcoot/wordduel/internal/services/registry"
	"github.com/mcoot/wordduel/internal/services/validation"
)

// Fixed delays of the round flow
const (
	NetworkBuffer  = 1 * time.Second // Added to every letter and word timer
	RevealDelay    = 2 * time.Second // Client reveal animation, first word timer only
	RetryDelay     = 2 * time.Second // Pause before reselecting a dead or repeated pair
	StartDelay     = 2 * time.Second // Between game-started and the first round
	GameEndedDelay = 3 * time.Second // Between the final round-ended and game-ended
)

// MaxPairRetries caps consecutive dead or repeated pairs within one round
const MaxPairRetries = 26 * 26

const (
	defaultPlayerName = "Player"
	fallbackName      = "A player"
	disconnectedMsg   = "Opponent disconnected"
	noPairsReason     = "no playable letter pairs remain"
)

// Notifier delivers outbound events. Implementations must not block and must
// not call back into the Engine.
type Notifier interface {
	Notify(code model.RoomCode, event model.EventType, payload any)
	NotifyOne(conn model.ConnID, event model.EventType, payload any)
	Subscribe(conn model.ConnID, code model.RoomCode)
	Unsubscribe(code model.RoomCode)
}

// room is a session plus the state needed to drive it. Everything in it is
// guarded by mu. timerSeq changes whenever the pending timer is replaced or
// cancelled, so a callback that lost the race to the lock can tell it is stale.
type room struct {
	mu       sync.Mutex
	session  *model.Session
	timer    clock.Timer
	timerSeq uint64
	closed   bool
}

// Engine runs every room: creation, joining, rounds and teardown
type Engine struct {
	rooms     *registry.Registry[*room]
	validator *validation.Validator
	notifier  Notifier
	auditor   audit.Auditor
	config    model.GameConfig
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger
}

// NewEngine creates a new Engine
func NewEngine(
	validator *validation.Validator,
	notifier Notifier,
	auditor audit.Auditor,
	config model.GameConfig,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		rooms:     registry.New[*room](random),
		validator: validator,
		notifier:  notifier,
		auditor:   auditor,
		config:    config,
		clock:     clock,
		random:    random,
		logger:    logger.With(slog.String("component", "game")),
	}
}

// EngineInterface is the surface the transport drives
type EngineInterface interface {
	CreateGame(ctx context.Context, conn model.ConnID, intent model.CreateGameIntent) (model.RoomCode, error)
	JoinGame(ctx context.Context, conn model.ConnID, intent model.JoinGameIntent) error
	StartGame(ctx context.Context, conn model.ConnID) error
	SubmitLetter(ctx context.Context, conn model.ConnID, letter string) error
	SubmitWord(ctx context.Context, conn model.ConnID, word string) error
	SkipRound(ctx context.Context, conn model.ConnID) error
	StartNextRound(ctx context.Context, conn model.ConnID) error
	LeaveLobby(ctx context.Context, conn model.ConnID) error
	ExitGame(ctx context.Context, conn model.ConnID) error
	Disconnect(ctx context.Context, conn model.ConnID)
	Snapshot(code model.RoomCode) (model.SessionSnapshot, error)
	Opponent(conn model.ConnID) (model.ConnID, bool)
	RoomCount() int
}

var _ EngineInterface = (*Engine)(nil)

func (e *Engine) settingsFor(intent model.CreateGameIntent) model.SessionSettings {
	return model.SessionSettings{
		Mode:              intent.Mode,
		RoundsToWin:       orDefault(intent.RoundsToWin, e.config.DefaultRounds),
		LetterTimeSeconds: orDefault(intent.LetterTime, e.config.DefaultLetterTime),
		WordTimeSeconds:   orDefault(intent.WordTime, e.config.DefaultWordTime),
	}
}

func playerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultPlayerName
	}
	return name
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// CreateGame opens a new room with conn as its creator and only player
func (e *Engine) CreateGame(ctx context.Context, conn model.ConnID, intent model.CreateGameIntent) (model.RoomCode, error) {
	now := e.clock.Now()
	player := &model.Player{ID: conn, DisplayName: playerName(intent.PlayerName), JoinedAt: now}
	settings := e.settingsFor(intent)

	code, r, err := e.rooms.Create(conn, func(code model.RoomCode) *room {
		return &room{session: model.NewSession(code, uuid.NewString(), player, settings, now)}
	})
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", model.ErrRoomNotFound
	}

	e.notifier.Subscribe(conn, code)
	e.notifier.NotifyOne(conn, model.EventGameCreated, model.GameCreatedPayload{
		GameID: code,
		Game:   r.session.Snapshot(),
	})
	e.auditor.PlayerJoined(model.PlayerJoinRecord{
		GameID:     r.session.GameID,
		RoomCode:   code,
		PlayerID:   conn,
		PlayerName: player.DisplayName,
		IsCreator:  true,
		JoinedAt:   now,
	})

	e.logger.Info("room created",
		slog.String("room_code", string(code)),
		slog.String("conn_id", string(conn)),
		slog.String("mode", string(settings.Mode)),
		slog.Int("rounds_to_win", settings.RoundsToWin),
	)
	return code, nil
}

// JoinGame adds conn as the second player of a waiting room
func (e *Engine) JoinGame(ctx context.Context, conn model.ConnID, intent model.JoinGameIntent) error {
	code := model.RoomCode(strings.ToUpper(strings.TrimSpace(string(intent.RoomCode))))

	_, err := e.rooms.Join(code, conn, func(r *room) error {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.closed {
			return model.ErrRoomNotFound
		}
		s := r.session
		if s.IsFull() {
			return model.ErrRoomFull
		}
		if s.Status != model.StatusWaiting {
			return model.ErrGameAlreadyStarted
		}

		now := e.clock.Now()
		player := &model.Player{ID: conn, DisplayName: playerName(intent.PlayerName), JoinedAt: now}
		s.Players = append(s.Players, player)

		e.notifier.Subscribe(conn, code)
		e.notifier.Notify(code, model.EventPlayerJoined, model.RoomUpdatePayload{Game: s.Snapshot()})
		e.auditor.PlayerJoined(model.PlayerJoinRecord{
			GameID:     s.GameID,
			RoomCode:   code,
			PlayerID:   conn,
			PlayerName: player.DisplayName,
			JoinedAt:   now,
		})
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info("player joined",
		slog.String("room_code", string(code)),
		slog.String("conn_id", string(conn)),
	)
	return nil
}

// StartGame moves a full waiting room into play. The first round begins after StartDelay.
func (e *Engine) StartGame(ctx context.Context, conn model.ConnID) error {
	r, err := e.lockRoomOf(conn)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	s := r.session
	if s.CreatorID != conn {
		return model.ErrNotCreator
	}
	if s.Status != model.StatusWaiting || !s.IsFull() {
		return model.ErrCannotStart
	}

	s.Status = model.StatusPlaying
	s.StartedAt = e.clock.Now()

	e.notifier.Notify(s.Code, model.EventGameStarted, model.RoomUpdatePayload{Game: s.Snapshot()})

	names := make([]string, len(s.Players))
	for i, p := range s.Players {
		names[i] = p.DisplayName
	}
	e.auditor.GameStarted(model.GameStartRecord{
		GameID:      s.GameID,
		RoomCode:    s.Code,
		Mode:        s.Settings.Mode,
		RoundsToWin: s.Settings.RoundsToWin,
		LetterTime:  s.Settings.LetterTimeSeconds,
		WordTime:    s.Settings.WordTimeSeconds,
		Players:     names,
		StartedAt:   s.StartedAt,
	})

	e.schedule(r, StartDelay, func() {
		if s.Status == model.StatusPlaying && s.CurrentRound == nil {
			e.startRound(r)
		}
	})

	e.logger.Info("game started", slog.String("room_code", string(s.Code)))
	return nil
}

// LeaveLobby tears down the room of conn, telling the remaining player
func (e *Engine) LeaveLobby(ctx context.Context, conn model.ConnID) error {
	return e.teardown(conn, model.EventPlayerLeftLobby, func(name string) string {
		return fmt.Sprintf("%s has left the lobby.", name)
	})
}

// ExitGame tears down the room of conn during or after play
func (e *Engine) ExitGame(ctx context.Context, conn model.ConnID) error {
	return e.teardown(conn, model.EventGameExited, func(name string) string {
		return fmt.Sprintf("%s has exited the game.", name)
	})
}

// Disconnect tears down the room of a lost connection, if it was in one
func (e *Engine) Disconnect(ctx context.Context, conn model.ConnID) {
	_ = e.teardown(conn, model.EventPlayerDisconnected, func(string) string {
		return disconnectedMsg
	})
}

func (e *Engine) teardown(conn model.ConnID, event model.EventType, message func(name string) string) error {
	code, r, ok := e.rooms.Lookup(conn)
	if !ok {
		return model.ErrNotInRoom
	}
	if _, removed := e.rooms.Remove(code); !removed {
		// Lost the race with another teardown of the same room
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	e.cancelTimer(r)

	s := r.session
	e.notifier.Notify(code, event, model.MessagePayload{Message: message(s.DisplayName(conn, fallbackName))})
	e.notifier.Unsubscribe(code)

	if s.Status == model.StatusPlaying {
		e.recordCompletion(s, model.OutcomeAbandoned, "")
	}

	e.logger.Info("room removed",
		slog.String("room_code", string(code)),
		slog.String("conn_id", string(conn)),
		slog.String("reason", string(event)),
	)
	return nil
}

// Shutdown closes every room without notifying players
func (e *Engine) Shutdown() {
	for _, code := range e.rooms.Codes() {
		r, ok := e.rooms.Remove(code)
		if !ok {
			continue
		}
		r.mu.Lock()
		r.closed = true
		e.cancelTimer(r)
		e.notifier.Unsubscribe(code)
		r.mu.Unlock()
	}
}

// Snapshot returns the client view of a room
func (e *Engine) Snapshot(code model.RoomCode) (model.SessionSnapshot, error) {
	r, ok := e.rooms.Get(code)
	if !ok {
		return model.SessionSnapshot{}, model.ErrRoomNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return model.SessionSnapshot{}, model.ErrRoomNotFound
	}
	return r.session.Snapshot(), nil
}

// Opponent returns the other player in the room of conn
func (e *Engine) Opponent(conn model.ConnID) (model.ConnID, bool) {
	r, err := e.lockRoomOf(conn)
	if err != nil {
		return "", false
	}
	defer r.mu.Unlock()

	if p := r.session.Opponent(conn); p != nil {
		return p.ID, true
	}
	return "", false
}

// RoomCount returns the number of open rooms
func (e *Engine) RoomCount() int {
	return e.rooms.Len()
}

// lockRoomOf returns the locked room of conn. The caller must unlock it.
func (e *Engine) lockRoomOf(conn model.ConnID) (*room, error) {
	_, r, ok := e.rooms.Lookup(conn)
	if !ok {
		return nil, model.ErrNotInRoom
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, model.ErrNotInRoom
	}
	return r, nil
}

// schedule replaces the room's pending timer with fn after d. fn runs with the
// room locked and only if the room is open and no other timer replaced it.
// Must be called with r.mu held.
func (e *Engine) schedule(r *room, d time.Duration, fn func()) {
	e.cancelTimer(r)
	seq := r.timerSeq
	r.timer = e.clock.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed || r.timerSeq != seq {
			return
		}
		r.timer = nil
		fn()
	})
}

// cancelTimer stops the pending timer. Must be called with r.mu held.
func (e *Engine) cancelTimer(r *room) {
	r.timerSeq++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
