package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/salonikashyap7899/IG-Clone/internal/models"
	"github.com/salonikashyap7899/IG-Clone/internal/repository"
)

// Postgres error code for unique_violation.
const uniqueViolation = "23505"

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Create inserts a new user row. Uniqueness of username and email is
// enforced by case-insensitive unique indexes; a violation is mapped to the
// matching sentinel error by constraint name.
func (s *UserStore) Create(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, username, email, password_hash, bio, avatar_url, created_at`

	var u models.User
	err := s.pool.QueryRow(ctx, query, username, email, passwordHash).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Bio,
		&u.AvatarURL,
		&u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return nil, repository.ErrDuplicateEmail
			}
			return nil, repository.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getOne(ctx, `WHERE id = $1`, id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, `WHERE lower(email) = lower($1)`, email)
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getOne(ctx, `WHERE lower(username) = lower($1)`, username)
}

func (s *UserStore) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, bio, avatar_url, created_at
		FROM users ` + where

	var u models.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Bio,
		&u.AvatarURL,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// UpdateProfile replaces the bio unconditionally; the avatar only changes
// when avatarURL is non-empty, so a bio-only edit can't wipe the picture.
func (s *UserStore) UpdateProfile(ctx context.Context, id uuid.UUID, bio, avatarURL string) (*models.User, error) {
	query := `
		UPDATE users
		SET bio = $2,
		    avatar_url = COALESCE(NULLIF($3, ''), avatar_url)
		WHERE id = $1
		RETURNING id, username, email, password_hash, bio, avatar_url, created_at`

	var u models.User
	err := s.pool.QueryRow(ctx, query, id, bio, avatarURL).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Bio,
		&u.AvatarURL,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &u, nil
}

func (s *UserStore) Search(ctx context.Context, q string, limit int) ([]models.User, error) {
	// ILIKE substring match. The pattern is a bind parameter, so a query
	// containing % or _ matches literally oddly but can't inject anything.
	query := `
		SELECT id, username, email, password_hash, bio, avatar_url, created_at
		FROM users
		WHERE username ILIKE '%' || $1 || '%'
		ORDER BY username
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, q, limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID,
			&u.Username,
			&u.Email,
			&u.PasswordHash,
			&u.Bio,
			&u.AvatarURL,
			&u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}
