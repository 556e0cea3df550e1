package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

const uniqueViolationCode = "23505"

type UserRepo struct {
	pool *pgxpool.Pool
}

type UserRecord struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash *string
	GoogleID     *string
	Role         string
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash string) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || passwordHash == "" {
		return UserRecord{}, fmt.Errorf("invalid user payload")
	}

	var user UserRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (name, email, password_hash, role, created_at)
VALUES ($1, LOWER($2), $3, 'user', NOW())
RETURNING id, name, email, password_hash, google_id, role
`, strings.TrimSpace(name), strings.TrimSpace(email), passwordHash).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.GoogleID,
		&user.Role,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return UserRecord{}, ErrEmailTaken
		}
		return UserRecord{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(email) == "" {
		return UserRecord{}, fmt.Errorf("email is required")
	}

	return r.queryOne(ctx, `
SELECT id, name, email, password_hash, google_id, role
FROM users
WHERE email = LOWER($1)
`, strings.TrimSpace(email))
}

func (r *UserRepo) FindByID(ctx context.Context, userID int64) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return UserRecord{}, fmt.Errorf("invalid user id")
	}

	return r.queryOne(ctx, `
SELECT id, name, email, password_hash, google_id, role
FROM users
WHERE id = $1
`, userID)
}

// GetOrCreateByGoogleID upserts a federated identity. Such accounts carry
// no password hash.
func (r *UserRepo) GetOrCreateByGoogleID(ctx context.Context, googleID, email, name string) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(googleID) == "" || strings.TrimSpace(email) == "" {
		return UserRecord{}, fmt.Errorf("invalid federated identity payload")
	}

	var user UserRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (google_id, email, name, role, created_at)
VALUES ($1, LOWER($2), $3, 'user', NOW())
ON CONFLICT (google_id) DO UPDATE SET
	name = EXCLUDED.name
RETURNING id, name, email, password_hash, google_id, role
`, strings.TrimSpace(googleID), strings.TrimSpace(email), strings.TrimSpace(name)).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.GoogleID,
		&user.Role,
	)
	if err != nil {
		return UserRecord{}, fmt.Errorf("get or create user by google_id: %w", err)
	}

	return user, nil
}

func (r *UserRepo) queryOne(ctx context.Context, query string, args ...interface{}) (UserRecord, error) {
	var user UserRecord
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.GoogleID,
		&user.Role,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}
