package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/model"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/repository"
)

// Ensure profileRepo implements repository.ProfileRepository
var _ repository.ProfileRepository = (*profileRepo)(nil)

type profileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *profileRepo {
	return &profileRepo{pool: pool}
}

func (r *profileRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentProfile) error {
	params, err := json.Marshal(p.Parameters)
	if err != nil {
		return domain.ErrInvalidArgument
	}

	const q = `
INSERT INTO payment_profiles (id, guild_id, name, role_id, duration_days, parameters, donation, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  name=$3, role_id=$4, duration_days=$5, parameters=$6, donation=$7, updated_at=$9;`

	_, err = execSQL(ctx, r.pool, tx, q, p.ID, p.GuildID, p.Name, p.RoleID, p.DurationDays, params, p.DonationMode, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
				return domain.ErrAlreadyExists
			}
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *profileRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentProfile, error) {
	const q = selectProfile + ` WHERE id=$1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *profileRepo) FindByName(ctx context.Context, tx repository.Tx, guildID, name string) (*model.PaymentProfile, error) {
	const q = selectProfile + ` WHERE guild_id=$1 AND LOWER(name)=LOWER($2);`
	return r.queryOne(ctx, tx, q, guildID, name)
}

func (r *profileRepo) ListByGuild(ctx context.Context, tx repository.Tx, guildID string) ([]*model.PaymentProfile, error) {
	const q = selectProfile + ` WHERE guild_id=$1 ORDER BY LOWER(name) ASC;`
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
	var out []*model.PaymentProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *profileRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM payment_profiles WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
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

const selectProfile = `
SELECT id, guild_id, name, role_id, duration_days, parameters, donation, created_at, updated_at
  FROM payment_profiles`

func (r *profileRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.PaymentProfile, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanProfile(row)
}

func scanProfile(row pgx.Row) (*model.PaymentProfile, error) {
	p := &model.PaymentProfile{}
	var params []byte
	if err := row.Scan(&p.ID, &p.GuildID, &p.Name, &p.RoleID, &p.DurationDays, &params, &p.DonationMode, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p.Parameters); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	if p.Parameters == nil {
		p.Parameters = make(map[string]any)
	}
	return p, nil
}
