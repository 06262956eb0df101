package repository

import (
	"context"
	"time"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/model"
)

// SubscriptionRepository is the port for granted entitlements.
type SubscriptionRepository interface {
	// Upsert inserts or, on (guild, user, profile) conflict, overwrites role,
	// expiry and webhook and clears last_notified_at.
	Upsert(ctx context.Context, tx Tx, sub *model.Subscription) error
	// FindExpiring returns subscriptions expiring within [now, now+window]
	// whose last notification is unset or older than the debounce.
	FindExpiring(ctx context.Context, tx Tx, now time.Time, window, debounce time.Duration) ([]*model.Subscription, error)
	// FindExpired returns subscriptions whose expiry is at or before now.
	FindExpired(ctx context.Context, tx Tx, now time.Time) ([]*model.Subscription, error)
	MarkNotified(ctx context.Context, tx Tx, id string, at time.Time) error
	ListByProfile(ctx context.Context, tx Tx, profileID string) ([]*model.Subscription, error)
	ListByGuild(ctx context.Context, tx Tx, guildID string) ([]*model.Subscription, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
