package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/model"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/repository"
)

// Ensure guildSettingsRepo implements repository.GuildSettingsRepository
var _ repository.GuildSettingsRepository = (*guildSettingsRepo)(nil)

type guildSettingsRepo struct {
	pool *pgxpool.Pool
}

func NewGuildSettingsRepo(pool *pgxpool.Pool) *guildSettingsRepo {
	return &guildSettingsRepo{pool: pool}
}

func (r *guildSettingsRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.GuildSettings) error {
	const q = `
INSERT INTO guild_settings (guild_id, payout_address, ticker_to, network_to, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (guild_id) DO UPDATE SET
  payout_address=$2, ticker_to=$3, network_to=$4, updated_at=$6;`

	_, err := execSQL(ctx, r.pool, tx, q, s.GuildID, s.PayoutAddress, s.TickerTo, s.NetworkTo, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *guildSettingsRepo) FindByGuild(ctx context.Context, tx repository.Tx, guildID string) (*model.GuildSettings, error) {
	const q = `
SELECT guild_id, payout_address, ticker_to, network_to, created_at, updated_at
  FROM guild_settings
 WHERE guild_id=$1;`

	row, err := pickRow(ctx, r.pool, tx, q, guildID)
	if err != nil {
		return nil, err
	}
	s := &model.GuildSettings{}
	if err := row.Scan(&s.GuildID, &s.PayoutAddress, &s.TickerTo, &s.NetworkTo, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}
