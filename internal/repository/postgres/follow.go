package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/salonikashyap7899/IG-Clone/internal/models"
)

type FollowStore struct {
	pool *pgxpool.Pool
}

func NewFollowStore(pool *pgxpool.Pool) *FollowStore {
	return &FollowStore{pool: pool}
}

// Toggle flips the follow edge inside one transaction. The check and the
// write see the same snapshot, so two rapid toggles from the same user
// serialize instead of double-applying against stale state.
func (s *FollowStore) Toggle(ctx context.Context, followerID, followeeID uuid.UUID) (bool, int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("begin toggle follow: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM follows
			WHERE follower_id = $1 AND followee_id = $2
		)`, followerID, followeeID).Scan(&exists)
	if err != nil {
		return false, 0, fmt.Errorf("check follow: %w", err)
	}

	if exists {
		_, err = tx.Exec(ctx, `
			DELETE FROM follows
			WHERE follower_id = $1 AND followee_id = $2`, followerID, followeeID)
	} else {
		// ON CONFLICT DO NOTHING keeps a concurrent identical toggle from
		// failing on the primary key.
		_, err = tx.Exec(ctx, `
			INSERT INTO follows (follower_id, followee_id)
			VALUES ($1, $2)
			ON CONFLICT (follower_id, followee_id) DO NOTHING`, followerID, followeeID)
	}
	if err != nil {
		return false, 0, fmt.Errorf("toggle follow: %w", err)
	}

	var followers int
	err = tx.QueryRow(ctx, `
		SELECT count(*) FROM follows WHERE followee_id = $1`, followeeID).Scan(&followers)
	if err != nil {
		return false, 0, fmt.Errorf("count followers: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, 0, fmt.Errorf("commit toggle follow: %w", err)
	}
	return !exists, followers, nil
}

func (s *FollowStore) Followers(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.password_hash, u.bio, u.avatar_url, u.created_at
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = $1
		ORDER BY f.created_at DESC`
	return s.listUsers(ctx, query, userID)
}

func (s *FollowStore) Following(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.password_hash, u.bio, u.avatar_url, u.created_at
		FROM follows f
		JOIN users u ON u.id = f.followee_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC`
	return s.listUsers(ctx, query, userID)
}

func (s *FollowStore) listUsers(ctx context.Context, query string, userID uuid.UUID) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list follow edge: %w", err)
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
