// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/model"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/adapter"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/repository"
	"github.com/Ran-Mewo/CatPaymentBot/internal/infra/metrics"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase owns the entitlement side of the lifecycle: the
// periodic sweep that warns about expiring subscriptions and revokes lapsed
// ones.
type SubscriptionUseCase interface {
	// Sweep runs one watchdog cycle and returns how many subscriptions were
	// warned and how many were revoked.
	Sweep(ctx context.Context) (notified, revoked int, err error)
	// List returns every active subscription in a guild.
	List(ctx context.Context, guildID string) ([]*model.Subscription, error)
}

type subscriptionUC struct {
	subs     repository.SubscriptionRepository
	chat     adapter.ChatAdapter
	notifier NotificationUseCase
	window   time.Duration
	debounce time.Duration
	log      *zerolog.Logger
}

func NewSubscriptionUseCase(
	subs repository.SubscriptionRepository,
	chat adapter.ChatAdapter,
	notifier NotificationUseCase,
	expiringWindow, notifyDebounce time.Duration,
	logger *zerolog.Logger,
) *subscriptionUC {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{
		subs:     subs,
		chat:     chat,
		notifier: notifier,
		window:   expiringWindow,
		debounce: notifyDebounce,
		log:      &l,
	}
}

func (u *subscriptionUC) List(ctx context.Context, guildID string) ([]*model.Subscription, error) {
	if guildID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.subs.ListByGuild(ctx, repository.NoTX, guildID)
}

func (u *subscriptionUC) Sweep(ctx context.Context) (int, int, error) {
	now := time.Now().UTC()

	notified, err := u.sweepExpiring(ctx, now)
	if err != nil {
		return notified, 0, err
	}
	revoked, err := u.sweepExpired(ctx, now)
	return notified, revoked, err
}

func (u *subscriptionUC) sweepExpiring(ctx context.Context, now time.Time) (int, error) {
	expiring, err := u.subs.FindExpiring(ctx, repository.NoTX, now, u.window, u.debounce)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	notified := 0
	for _, sub := range expiring {
		if ctx.Err() != nil {
			return notified, ctx.Err()
		}
		u.notifier.NotifyExpiring(ctx, sub)
		// MarkNotified debounces the warning; a failure here only means the
		// same warning may repeat next cycle.
		if err := u.subs.MarkNotified(ctx, repository.NoTX, sub.ID, now); err != nil {
			u.log.Warn().Err(err).Str("subscription_id", sub.ID).Msg("failed to mark subscription notified")
			continue
		}
		metrics.IncSubscriptionNotified()
		notified++
	}
	return notified, nil
}

func (u *subscriptionUC) sweepExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := u.subs.FindExpired(ctx, repository.NoTX, now)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	revoked := 0
	for _, sub := range expired {
		if ctx.Err() != nil {
			return revoked, ctx.Err()
		}
		if sub.RoleID != "" &&
			u.chat.RoleExists(ctx, sub.GuildID, sub.RoleID) &&
			u.chat.MemberExists(ctx, sub.GuildID, sub.UserID) {
			if err := u.chat.RevokeRole(ctx, sub.GuildID, sub.UserID, sub.RoleID, "subscription expired"); err != nil {
				u.log.Error().Err(err).
					Str("guild_id", sub.GuildID).
					Str("user_id", sub.UserID).
					Str("role_id", sub.RoleID).
					Msg("failed to revoke role")
			}
		}
		u.notifier.NotifyExpired(ctx, sub)
		// Deletion last: a crash before this point re-runs revocation, which
		// is idempotent, instead of leaving a role behind.
		if err := u.subs.Delete(ctx, repository.NoTX, sub.ID); err != nil {
			u.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("failed to delete expired subscription")
			continue
		}
		u.log.Info().
			Str("guild_id", sub.GuildID).
			Str("user_id", sub.UserID).
			Str("subscription_id", sub.ID).
			Msg("subscription expired and revoked")
		revoked++
	}
	if revoked > 0 {
		metrics.IncSubscriptionsExpired(revoked)
	}
	return revoked, nil
}
