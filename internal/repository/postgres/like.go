package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LikeStore struct {
	pool *pgxpool.Pool
}

func NewLikeStore(pool *pgxpool.Pool) *LikeStore {
	return &LikeStore{pool: pool}
}

// Toggle flips the viewer's like on a post inside one transaction, same
// shape as FollowStore.Toggle: the membership check and the write can't be
// split by a concurrent toggle from the same user.
func (s *LikeStore) Toggle(ctx context.Context, postID, userID uuid.UUID) (bool, int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("begin toggle like: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM likes
			WHERE post_id = $1 AND user_id = $2
		)`, postID, userID).Scan(&exists)
	if err != nil {
		return false, 0, fmt.Errorf("check like: %w", err)
	}

	if exists {
		_, err = tx.Exec(ctx, `
			DELETE FROM likes
			WHERE post_id = $1 AND user_id = $2`, postID, userID)
	} else {
		_, err = tx.Exec(ctx, `
			INSERT INTO likes (post_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT (post_id, user_id) DO NOTHING`, postID, userID)
	}
	if err != nil {
		return false, 0, fmt.Errorf("toggle like: %w", err)
	}

	var likes int
	err = tx.QueryRow(ctx, `
		SELECT count(*) FROM likes WHERE post_id = $1`, postID).Scan(&likes)
	if err != nil {
		return false, 0, fmt.Errorf("count likes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, 0, fmt.Errorf("commit toggle like: %w", err)
	}
	return !exists, likes, nil
}

func (s *LikeStore) List(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT user_id FROM likes
		WHERE post_id = $1
		ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("list likes: %w", err)
	}
	defer rows.Close()

	users := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		users = append(users, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate likes: %w", err)
	}

	return users, nil
}
