package memory

import (
	"context"
	"sync"

	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/storage"
)

// Storage is an in-memory implementation of the audit store
type Storage struct {
	mu sync.RWMutex

	joins       []model.PlayerJoinRecord
	starts      []model.GameStartRecord
	rounds      map[string][]model.RoundRecord
	completions map[string]model.GameCompletionRecord
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		rounds:      make(map[string][]model.RoundRecord),
		completions: make(map[string]model.GameCompletionRecord),
	}
}

// Ensure Storage implements the interface
var _ storage.AuditStore = (*Storage)(nil)

func (s *Storage) SavePlayerJoin(ctx context.Context, rec *model.PlayerJoinRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joins = append(s.joins, *rec)
	return nil
}

func (s *Storage) SaveGameStart(ctx context.Context, rec *model.GameStartRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts = append(s.starts, *rec)
	return nil
}

func (s *Storage) SaveRound(ctx context.Context, rec *model.RoundRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[rec.GameID] = append(s.rounds[rec.GameID], *rec)
	return nil
}

func (s *Storage) SaveGameCompletion(ctx context.Context, rec *model.GameCompletionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions[rec.GameID] = *rec
	return nil
}

func (s *Storage) Close() error {
	return nil
}

// Read accessors, used by tests and the in-process audit backend

// PlayerJoins returns every join record in write order
func (s *Storage) PlayerJoins() []model.PlayerJoinRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.PlayerJoinRecord, len(s.joins))
	copy(out, s.joins)
	return out
}

// GameStarts returns every game start record in write order
func (s *Storage) GameStarts() []model.GameStartRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.GameStartRecord, len(s.starts))
	copy(out, s.starts)
	return out
}

// Rounds returns the round records for a game in write order
func (s *Storage) Rounds(gameID string) []model.RoundRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.RoundRecord, len(s.rounds[gameID]))
	copy(out, s.rounds[gameID])
	return out
}

// GameCompletion returns the completion record for a game
func (s *Storage) GameCompletion(gameID string) (model.GameCompletionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.completions[gameID]
	return rec, ok
}
