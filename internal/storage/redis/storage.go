package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/storage"
)

// Storage is a Redis-backed audit store. Every record is appended to one
// stream and also folded into per-game keys that expire after GameTTL.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.AuditStore = (*Storage)(nil)

func (s *Storage) appendEvent(ctx context.Context, pipe redis.Pipeliner, eventType, gameID string, data []byte) {
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey(),
		MaxLen: s.cfg.StreamMaxLen,
		Values: map[string]interface{}{
			"type":    eventType,
			"game_id": gameID,
			"data":    string(data),
		},
	})
}

func (s *Storage) expire(ctx context.Context, pipe redis.Pipeliner, keys ...string) {
	if s.cfg.GameTTL <= 0 {
		return
	}
	for _, key := range keys {
		pipe.Expire(ctx, key, s.cfg.GameTTL)
	}
}

func (s *Storage) SavePlayerJoin(ctx context.Context, rec *model.PlayerJoinRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	s.appendEvent(ctx, pipe, eventPlayerJoin, rec.GameID, data)
	pipe.RPush(ctx, gamePlayersKey(rec.GameID), data)
	if rec.IsCreator {
		pipe.HSet(ctx, gameKey(rec.GameID),
			"room_code", string(rec.RoomCode),
			"created_at", rec.JoinedAt.UTC().Format(time.RFC3339Nano),
		)
	}
	s.expire(ctx, pipe, gamePlayersKey(rec.GameID), gameKey(rec.GameID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) SaveGameStart(ctx context.Context, rec *model.GameStartRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	s.appendEvent(ctx, pipe, eventGameStart, rec.GameID, data)
	pipe.HSet(ctx, gameKey(rec.GameID),
		"room_code", string(rec.RoomCode),
		"mode", string(rec.Mode),
		"rounds_to_win", rec.RoundsToWin,
		"letter_time", rec.LetterTime,
		"word_time", rec.WordTime,
		"started_at", rec.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	s.expire(ctx, pipe, gameKey(rec.GameID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) SaveRound(ctx context.Context, rec *model.RoundRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	s.appendEvent(ctx, pipe, eventRound, rec.GameID, data)
	pipe.RPush(ctx, gameRoundsKey(rec.GameID), data)
	pipe.HSet(ctx, gameKey(rec.GameID), "rounds_played", rec.RoundNumber)
	s.expire(ctx, pipe, gameRoundsKey(rec.GameID), gameKey(rec.GameID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) SaveGameCompletion(ctx context.Context, rec *model.GameCompletionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	scores, err := json.Marshal(rec.Scores)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	s.appendEvent(ctx, pipe, eventGameCompletion, rec.GameID, data)
	pipe.HSet(ctx, gameKey(rec.GameID),
		"outcome", string(rec.Outcome),
		"winner", rec.Winner,
		"scores", string(scores),
		"total_rounds", rec.TotalRounds,
		"duration_ms", rec.Duration.Milliseconds(),
		"ended_at", rec.EndedAt.UTC().Format(time.RFC3339Nano),
	)
	s.expire(ctx, pipe, gameKey(rec.GameID))
	_, err = pipe.Exec(ctx)
	return err
}
