package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/salonikashyap7899/IG-Clone/internal/models"
)

type CommentStore struct {
	pool *pgxpool.Pool
}

func NewCommentStore(pool *pgxpool.Pool) *CommentStore {
	return &CommentStore{pool: pool}
}

func (s *CommentStore) Create(ctx context.Context, postID, userID uuid.UUID, username, text string) (*models.Comment, error) {
	query := `
		INSERT INTO comments (post_id, user_id, username, body, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, post_id, user_id, username, body, created_at`

	var cm models.Comment
	err := s.pool.QueryRow(ctx, query, postID, userID, username, text).Scan(
		&cm.ID,
		&cm.PostID,
		&cm.UserID,
		&cm.Username,
		&cm.Text,
		&cm.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &cm, nil
}

func (s *CommentStore) GetByID(ctx context.Context, commentID int64) (*models.Comment, error) {
	query := `
		SELECT id, post_id, user_id, username, body, created_at
		FROM comments
		WHERE id = $1`

	var cm models.Comment
	err := s.pool.QueryRow(ctx, query, commentID).Scan(
		&cm.ID,
		&cm.PostID,
		&cm.UserID,
		&cm.Username,
		&cm.Text,
		&cm.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &cm, nil
}

func (s *CommentStore) ListByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	// Oldest first: bigserial id order is insertion order.
	query := `
		SELECT id, post_id, user_id, username, body, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		var cm models.Comment
		if err := rows.Scan(
			&cm.ID,
			&cm.PostID,
			&cm.UserID,
			&cm.Username,
			&cm.Text,
			&cm.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

func (s *CommentStore) Delete(ctx context.Context, commentID int64) error {
	// DELETE is idempotent: a second delete of the same id removes zero
	// rows without erroring.
	_, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
