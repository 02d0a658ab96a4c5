package storage

import (
	"context"

	"github.com/mcoot/wordduel/internal/model"
)

// AuditStore persists historical game records. The game engine only ever
// writes to it; nothing in play depends on what was stored.
type AuditStore interface {
	SavePlayerJoin(ctx context.Context, rec *model.PlayerJoinRecord) error
	SaveGameStart(ctx context.Context, rec *model.GameStartRecord) error
	SaveRound(ctx context.Context, rec *model.RoundRecord) error
	SaveGameCompletion(ctx context.Context, rec *model.GameCompletionRecord) error

	Close() error
}
