package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/storage"
)

const (
	DefaultQueueSize = 256
	DefaultTimeout   = 5 * time.Second
)

// Auditor receives game history records. Calls never block and never fail.
type Auditor interface {
	PlayerJoined(rec model.PlayerJoinRecord)
	GameStarted(rec model.GameStartRecord)
	RoundCompleted(rec model.RoundRecord)
	GameCompleted(rec model.GameCompletionRecord)
}

type job struct {
	kind   string
	gameID string
	write  func(ctx context.Context) error
}

// Recorder writes records to an AuditStore from a single background goroutine.
// When the queue is full, records are dropped with a warning.
type Recorder struct {
	store   storage.AuditStore
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan job
	done   chan struct{}
}

// NewRecorder creates a Recorder and starts its writer goroutine
func NewRecorder(store storage.AuditStore, logger *slog.Logger, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	r := &Recorder{
		store:   store,
		logger:  logger.With(slog.String("component", "audit")),
		timeout: DefaultTimeout,
		queue:   make(chan job, queueSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

var _ Auditor = (*Recorder)(nil)

func (r *Recorder) run() {
	defer close(r.done)
	for j := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := j.write(ctx)
		cancel()
		if err != nil {
			r.logger.Warn("failed to write audit record",
				slog.String("kind", j.kind),
				slog.String("game_id", j.gameID),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (r *Recorder) enqueue(j job) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}
	select {
	case r.queue <- j:
	default:
		r.logger.Warn("audit queue full, dropping record",
			slog.String("kind", j.kind),
			slog.String("game_id", j.gameID),
		)
	}
}

func (r *Recorder) PlayerJoined(rec model.PlayerJoinRecord) {
	r.enqueue(job{kind: "player-join", gameID: rec.GameID, write: func(ctx context.Context) error {
		return r.store.SavePlayerJoin(ctx, &rec)
	}})
}

func (r *Recorder) GameStarted(rec model.GameStartRecord) {
	r.enqueue(job{kind: "game-start", gameID: rec.GameID, write: func(ctx context.Context) error {
		return r.store.SaveGameStart(ctx, &rec)
	}})
}

func (r *Recorder) RoundCompleted(rec model.RoundRecord) {
	r.enqueue(job{kind: "round", gameID: rec.GameID, write: func(ctx context.Context) error {
		return r.store.SaveRound(ctx, &rec)
	}})
}

func (r *Recorder) GameCompleted(rec model.GameCompletionRecord) {
	r.enqueue(job{kind: "game-completion", gameID: rec.GameID, write: func(ctx context.Context) error {
		return r.store.SaveGameCompletion(ctx, &rec)
	}})
}

// Close stops accepting records, drains the queue and closes the store.
// It gives up waiting when ctx is done.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	select {
	case <-r.done:
	case <-ctx.Done():
		r.logger.Warn("audit queue not drained before shutdown", slog.Int("pending", len(r.queue)))
		return ctx.Err()
	}
	return r.store.Close()
}

// Discard is an Auditor that drops everything
type Discard struct{}

var _ Auditor = Discard{}

func (Discard) PlayerJoined(model.PlayerJoinRecord)      {}
func (Discard) GameStarted(model.GameStartRecord)        {}
func (Discard) RoundCompleted(model.RoundRecord)         {}
func (Discard) GameCompleted(model.GameCompletionRecord) {}
