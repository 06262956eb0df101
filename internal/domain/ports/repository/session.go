package repository

import (
	"context"
	"time"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/model"
)

// SessionRepository is the port for in-flight checkout sessions.
type SessionRepository interface {
	Save(ctx context.Context, tx Tx, session *model.PaymentSession) error
	// ListActive returns sessions whose local expiry is at or after cutoff.
	// Older rows are presumed already swept.
	ListActive(ctx context.Context, tx Tx, cutoff time.Time) ([]*model.PaymentSession, error)
	// ListByGuild returns every tracked session for a guild.
	ListByGuild(ctx context.Context, tx Tx, guildID string) ([]*model.PaymentSession, error)
	// UpdateStatus persists a status change together with the raw payload and
	// the poll timestamp.
	UpdateStatus(ctx context.Context, tx Tx, id, status string, payload map[string]any, checkedAt time.Time) error
	// Touch records a poll that observed no change.
	Touch(ctx context.Context, tx Tx, id string, checkedAt time.Time) error
	Delete(ctx context.Context, tx Tx, id string) error
}
