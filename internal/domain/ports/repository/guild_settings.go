package repository

import (
	"context"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/model"
)

// GuildSettingsRepository is the port for per-guild payout configuration.
type GuildSettingsRepository interface {
	// Upsert overwrites the full row for the guild.
	Upsert(ctx context.Context, tx Tx, settings *model.GuildSettings) error
	FindByGuild(ctx context.Context, tx Tx, guildID string) (*model.GuildSettings, error)
}
