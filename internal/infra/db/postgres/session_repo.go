package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/model"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/repository"
)

// Ensure sessionRepo implements repository.SessionRepository
var _ repository.SessionRepository = (*sessionRepo)(nil)

type sessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *sessionRepo {
	return &sessionRepo{pool: pool}
}

func (r *sessionRepo) Save(ctx context.Context, tx repository.Tx, s *model.PaymentSession) error {
	payload, err := json.Marshal(s.LastPayload)
	if err != nil {
		return domain.ErrInvalidArgument
	}

	const q = `
INSERT INTO payment_sessions (
  id, guild_id, user_id, profile_id, gateway_id, status, status_url, checkout_url,
  webhook_url, expires_at, created_at, last_checked_at, last_status, last_payload
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (id) DO UPDATE SET
  status=$6, last_checked_at=$12, last_status=$13, last_payload=$14;`

	_, err = execSQL(ctx, r.pool, tx, q,
		s.ID, s.GuildID, s.UserID, s.ProfileID, s.GatewayID, s.Status, s.StatusURL, s.CheckoutURL,
		s.WebhookURL, s.ExpiresAt, s.CreatedAt, s.LastCheckedAt, s.LastStatus, payload)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			// gateway_id is unique; a second row for the same reference is a bug.
			if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
				return domain.ErrAlreadyExists
			}
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *sessionRepo) ListActive(ctx context.Context, tx repository.Tx, cutoff time.Time) ([]*model.PaymentSession, error) {
	const q = selectSession + `
 WHERE expires_at >= $1
 ORDER BY created_at ASC;`

	rows, err := queryRows(ctx, r.pool, tx, q, cutoff)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	var out []*model.PaymentSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *sessionRepo) ListByGuild(ctx context.Context, tx repository.Tx, guildID string) ([]*model.PaymentSession, error) {
	const q = selectSession + `
 WHERE guild_id = $1
 ORDER BY created_at ASC;`

	rows, err := queryRows(ctx, r.pool, tx, q, guildID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	var out []*model.PaymentSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *sessionRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id, status string, payload map[string]any, checkedAt time.Time) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
UPDATE payment_sessions
   SET status=$2, last_status=$2, last_payload=$3, last_checked_at=$4
 WHERE id=$1;`

	tag, err := execSQL(ctx, r.pool, tx, q, id, status, raw, checkedAt)
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

func (r *sessionRepo) Touch(ctx context.Context, tx repository.Tx, id string, checkedAt time.Time) error {
	const q = `UPDATE payment_sessions SET last_checked_at=$2 WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, checkedAt)
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

func (r *sessionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM payment_sessions WHERE id=$1;`
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

const selectSession = `
SELECT id, guild_id, user_id, profile_id, gateway_id, status, status_url, checkout_url,
       webhook_url, expires_at, created_at, last_checked_at, last_status, last_payload
  FROM payment_sessions`

func scanSession(row pgx.Row) (*model.PaymentSession, error) {
	s := &model.PaymentSession{}
	var payload []byte
	if err := row.Scan(&s.ID, &s.GuildID, &s.UserID, &s.ProfileID, &s.GatewayID, &s.Status, &s.StatusURL, &s.CheckoutURL,
		&s.WebhookURL, &s.ExpiresAt, &s.CreatedAt, &s.LastCheckedAt, &s.LastStatus, &payload); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &s.LastPayload); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return s, nil
}
