// File: internal/usecase/profile_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/model"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/adapter"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/repository"
)

// Compile-time check
var _ ProfileUseCase = (*profileUC)(nil)

// ProfileUseCase manages the named payment templates of a guild.
type ProfileUseCase interface {
	// Create registers a new template. Fails with ErrGuildNotConfigured when
	// the guild has no payout settings and ErrAlreadyExists on a duplicate
	// name (names compare case-insensitively).
	Create(ctx context.Context, guildID, name, roleID string, durationDays int, params map[string]any) (*model.PaymentProfile, error)
	Get(ctx context.Context, guildID, name string) (*model.PaymentProfile, error)
	List(ctx context.Context, guildID string) ([]*model.PaymentProfile, error)
	// Delete removes the template and best-effort revokes the role from every
	// subscriber before the store cascades their subscriptions away.
	Delete(ctx context.Context, guildID, name string) error
}

type profileUC struct {
	profiles repository.ProfileRepository
	settings repository.GuildSettingsRepository
	subs     repository.SubscriptionRepository
	txm      repository.TransactionManager
	chat     adapter.ChatAdapter
	log      *zerolog.Logger
}

func NewProfileUseCase(
	profiles repository.ProfileRepository,
	settings repository.GuildSettingsRepository,
	subs repository.SubscriptionRepository,
	txm repository.TransactionManager,
	chat adapter.ChatAdapter,
	logger *zerolog.Logger,
) *profileUC {
	l := logger.With().Str("component", "ProfileUC").Logger()
	return &profileUC{
		profiles: profiles,
		settings: settings,
		subs:     subs,
		txm:      txm,
		chat:     chat,
		log:      &l,
	}
}

func (u *profileUC) Create(ctx context.Context, guildID, name, roleID string, durationDays int, params map[string]any) (*model.PaymentProfile, error) {
	name = strings.TrimSpace(name)
	if guildID == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	if durationDays < 0 {
		return nil, domain.ErrInvalidArgument
	}

	if _, err := u.settings.FindByGuild(ctx, repository.NoTX, guildID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrGuildNotConfigured
		}
		return nil, err
	}

	existing, err := u.profiles.FindByName(ctx, repository.NoTX, guildID, name)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAlreadyExists
	}

	profile, err := model.NewPaymentProfile(uuid.NewString(), guildID, name, roleID, durationDays, params)
	if err != nil {
		return nil, err
	}
	if err := u.profiles.Save(ctx, repository.NoTX, profile); err != nil {
		return nil, err
	}
	u.log.Info().
		Str("guild_id", guildID).
		Str("profile", name).
		Int("duration_days", durationDays).
		Msg("payment profile created")
	return profile, nil
}

func (u *profileUC) Get(ctx context.Context, guildID, name string) (*model.PaymentProfile, error) {
	return u.profiles.FindByName(ctx, repository.NoTX, guildID, name)
}

func (u *profileUC) List(ctx context.Context, guildID string) ([]*model.PaymentProfile, error) {
	return u.profiles.ListByGuild(ctx, repository.NoTX, guildID)
}

func (u *profileUC) Delete(ctx context.Context, guildID, name string) error {
	profile, err := u.profiles.FindByName(ctx, repository.NoTX, guildID, name)
	if err != nil {
		return err
	}

	// Snapshot the subscribers and delete in one transaction so the cascade
	// cannot race a concurrent grant.
	var subscribers []*model.Subscription
	err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		subs, err := u.subs.ListByProfile(ctx, tx, profile.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		subscribers = subs
		return u.profiles.Delete(ctx, tx, profile.ID)
	})
	if err != nil {
		return err
	}

	for _, sub := range subscribers {
		if sub.RoleID == "" {
			continue
		}
		if !u.chat.RoleExists(ctx, sub.GuildID, sub.RoleID) || !u.chat.MemberExists(ctx, sub.GuildID, sub.UserID) {
			continue
		}
		if err := u.chat.RevokeRole(ctx, sub.GuildID, sub.UserID, sub.RoleID, "payment profile deleted"); err != nil {
			u.log.Error().Err(err).
				Str("guild_id", sub.GuildID).
				Str("user_id", sub.UserID).
				Str("role_id", sub.RoleID).
				Msg("failed to revoke role after profile delete")
		}
	}

	u.log.Info().Str("guild_id", guildID).Str("profile", name).Msg("payment profile deleted")
	return nil
}
