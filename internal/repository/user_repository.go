package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farconnect/attestation-service/internal/domain"
)

// UserRepository defines persistence access for Farcaster-identified users.
type UserRepository interface {
	GetByFID(ctx context.Context, fid int64) (*domain.User, error)
	Upsert(ctx context.Context, input domain.UserUpsert) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByFID(ctx context.Context, fid int64) (*domain.User, error) {
	const query = `
        SELECT id, fid, username, display_name, pfp_url, zupass_verified, created_at, updated_at
        FROM users WHERE fid=$1`

	var user domain.User
	if err := r.pool.QueryRow(ctx, query, fid).Scan(
		&user.ID,
		&user.FID,
		&user.Username,
		&user.DisplayName,
		&user.PfpURL,
		&user.ZupassVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

// Upsert creates or updates a user keyed on FID. Missing optional fields keep
// the stored value on update and fall back to fid-derived defaults on insert.
func (r *userRepository) Upsert(ctx context.Context, input domain.UserUpsert) (*domain.User, error) {
	const query = `
        INSERT INTO users (fid, username, display_name, pfp_url, zupass_verified)
        VALUES ($1, COALESCE($2, 'user_' || $1), COALESCE($3, 'User ' || $1), $4, COALESCE($5, FALSE))
        ON CONFLICT (fid) DO UPDATE SET
            username        = COALESCE($2, users.username),
            display_name    = COALESCE($3, users.display_name),
            pfp_url         = COALESCE($4, users.pfp_url),
            zupass_verified = COALESCE($5, users.zupass_verified),
            updated_at      = NOW()
        RETURNING id, fid, username, display_name, pfp_url, zupass_verified, created_at, updated_at`

	var user domain.User
	if err := r.pool.QueryRow(ctx, query,
		input.FID,
		input.Username,
		input.DisplayName,
		input.PfpURL,
		input.Verified,
	).Scan(
		&user.ID,
		&user.FID,
		&user.Username,
		&user.DisplayName,
		&user.PfpURL,
		&user.ZupassVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
