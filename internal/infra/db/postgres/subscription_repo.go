package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/model"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

func (r *subscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	// Renewal overwrites expiry and clears the notification marker so the
	// expiring-soon warning can fire again for the new period.
	const q = `
INSERT INTO subscriptions (id, guild_id, user_id, profile_id, role_id, expires_at, created_at, last_notified_at, webhook_url)
VALUES ($1,$2,$3,$4,$5,$6,$7,NULL,$8)
ON CONFLICT (guild_id, user_id, profile_id) DO UPDATE SET
  role_id=$5, expires_at=$6, last_notified_at=NULL, webhook_url=$8;`

	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.GuildID, s.UserID, s.ProfileID, s.RoleID, s.ExpiresAt, s.CreatedAt, s.WebhookURL)
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

func (r *subscriptionRepo) FindExpiring(ctx context.Context, tx repository.Tx, now time.Time, window, debounce time.Duration) ([]*model.Subscription, error) {
	const q = selectSubscription + `
 WHERE expires_at > $1
   AND expires_at <= $2
   AND (last_notified_at IS NULL OR last_notified_at <= $3)
 ORDER BY expires_at ASC;`

	return r.queryMany(ctx, tx, q, now, now.Add(window), now.Add(-debounce))
}

func (r *subscriptionRepo) FindExpired(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.Subscription, error) {
	const q = selectSubscription + `
 WHERE expires_at <= $1
 ORDER BY expires_at ASC;`

	return r.queryMany(ctx, tx, q, now)
}

func (r *subscriptionRepo) MarkNotified(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	const q = `UPDATE subscriptions SET last_notified_at=$2 WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *subscriptionRepo) ListByProfile(ctx context.Context, tx repository.Tx, profileID string) ([]*model.Subscription, error) {
	const q = selectSubscription + `
 WHERE profile_id=$1
 ORDER BY created_at ASC;`

	return r.queryMany(ctx, tx, q, profileID)
}

func (r *subscriptionRepo) ListByGuild(ctx context.Context, tx repository.Tx, guildID string) ([]*model.Subscription, error) {
	const q = selectSubscription + `
 WHERE guild_id=$1
 ORDER BY expires_at ASC;`

	return r.queryMany(ctx, tx, q, guildID)
}

func (r *subscriptionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM subscriptions WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id)
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

const selectSubscription = `
SELECT id, guild_id, user_id, profile_id, role_id, expires_at, created_at, last_notified_at, webhook_url
  FROM subscriptions`

func (r *subscriptionRepo) queryMany(ctx context.Context, tx repository.Tx, sql string, args ...any) ([]*model.Subscription, error) {
	rows, err := queryRows(ctx, r.pool, tx, sql, args...)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	var out []*model.Subscription
	for rows.Next() {
		s := &model.Subscription{}
		if err := rows.Scan(&s.ID, &s.GuildID, &s.UserID, &s.ProfileID, &s.RoleID, &s.ExpiresAt, &s.CreatedAt, &s.LastNotifiedAt, &s.WebhookURL); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
