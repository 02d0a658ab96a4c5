package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Storage is a SQLite-backed audit store
type Storage struct {
	db *sql.DB
}

// New opens (creating if missing) the database at path and applies migrations
func New(ctx context.Context, path string) (*Storage, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// The audit recorder is the only writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Storage{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlText, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(sqlText)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
	}
	return nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.AuditStore = (*Storage)(nil)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (s *Storage) SavePlayerJoin(ctx context.Context, rec *model.PlayerJoinRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_joins (game_id, room_code, player_id, player_name, is_creator, joined_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.GameID, string(rec.RoomCode), string(rec.PlayerID), rec.PlayerName, rec.IsCreator, formatTime(rec.JoinedAt),
	)
	return err
}

func (s *Storage) SaveGameStart(ctx context.Context, rec *model.GameStartRecord) error {
	players, err := json.Marshal(rec.Players)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO games (game_id, room_code, mode, rounds_to_win, letter_time, word_time, players, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET started_at = excluded.started_at`,
		rec.GameID, string(rec.RoomCode), string(rec.Mode), rec.RoundsToWin, rec.LetterTime, rec.WordTime,
		string(players), formatTime(rec.StartedAt),
	)
	return err
}

func (s *Storage) SaveRound(ctx context.Context, rec *model.RoundRecord) error {
	words, err := json.Marshal(rec.Words)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rounds (game_id, round_number, start_letter, end_letter, words, winner, winning_word, winning_reason, duration_ms, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.GameID, rec.RoundNumber, rec.StartLetter, rec.EndLetter, string(words),
		nullable(rec.Winner), nullable(rec.WinningWord), nullable(rec.WinningReason),
		rec.Duration.Milliseconds(), formatTime(rec.EndedAt),
	)
	return err
}

// SaveGameCompletion fills in the result columns of a started game. A game
// abandoned before it started has no row, so one is created from the record.
func (s *Storage) SaveGameCompletion(ctx context.Context, rec *model.GameCompletionRecord) error {
	scores, err := json.Marshal(rec.Scores)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO games (game_id, room_code, mode, rounds_to_win, letter_time, word_time, players, started_at,
		                   outcome, winner, scores, total_rounds, duration_ms, ended_at)
		VALUES (?, ?, '', 0, 0, 0, '[]', '', ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET
			outcome = excluded.outcome,
			winner = excluded.winner,
			scores = excluded.scores,
			total_rounds = excluded.total_rounds,
			duration_ms = excluded.duration_ms,
			ended_at = excluded.ended_at`,
		rec.GameID, string(rec.RoomCode),
		string(rec.Outcome), nullable(rec.Winner), string(scores), rec.TotalRounds,
		rec.Duration.Milliseconds(), formatTime(rec.EndedAt),
	)
	return err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
