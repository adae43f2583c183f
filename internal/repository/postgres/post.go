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

type PostStore struct {
	pool *pgxpool.Pool
}

func NewPostStore(pool *pgxpool.Pool) *PostStore {
	return &PostStore{pool: pool}
}

// postColumns is shared by every post query: the row plus the computed
// likes/comments counts and whether the viewer ($viewer arg) liked it.
const postColumns = `
	p.id, p.user_id, p.username, p.caption, p.image_url, p.created_at,
	(SELECT count(*) FROM likes l WHERE l.post_id = p.id) AS likes_count,
	(SELECT count(*) FROM comments c WHERE c.post_id = p.id) AS comments_count,
	EXISTS (SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = $1) AS liked`

func (s *PostStore) Create(ctx context.Context, userID uuid.UUID, username, caption, imageURL string) (*models.Post, error) {
	query := `
		INSERT INTO posts (user_id, username, caption, image_url, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, user_id, username, caption, image_url, created_at`

	var p models.Post
	err := s.pool.QueryRow(ctx, query, userID, username, caption, imageURL).Scan(
		&p.ID,
		&p.UserID,
		&p.Username,
		&p.Caption,
		&p.ImageURL,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return &p, nil
}

func (s *PostStore) GetByID(ctx context.Context, postID, viewerID uuid.UUID) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.id = $2`

	var p models.Post
	err := s.pool.QueryRow(ctx, query, viewerID, postID).Scan(
		&p.ID,
		&p.UserID,
		&p.Username,
		&p.Caption,
		&p.ImageURL,
		&p.CreatedAt,
		&p.LikesCount,
		&p.CommentsCount,
		&p.Liked,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &p, nil
}

// List returns the feed, newest first, keyset-paginated. The cursor is a
// post id: pass the last id from the previous page and you get strictly
// older posts.
func (s *PostStore) List(ctx context.Context, viewerID uuid.UUID, before uuid.UUID, limit int) ([]models.Post, error) {
	var query string
	var args []any

	if before != uuid.Nil {
		query = `
			SELECT ` + postColumns + `
			FROM posts p
			WHERE (p.created_at, p.id) < (SELECT created_at, id FROM posts WHERE id = $2)
			ORDER BY p.created_at DESC, p.id DESC
			LIMIT $3`
		args = []any{viewerID, before, limit}
	} else {
		query = `
			SELECT ` + postColumns + `
			FROM posts p
			ORDER BY p.created_at DESC, p.id DESC
			LIMIT $2`
		args = []any{viewerID, limit}
	}

	return s.listPosts(ctx, query, args...)
}

func (s *PostStore) ListByUser(ctx context.Context, userID, viewerID uuid.UUID) ([]models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		WHERE p.user_id = $2
		ORDER BY p.created_at DESC, p.id DESC`
	return s.listPosts(ctx, query, viewerID, userID)
}

func (s *PostStore) listPosts(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.Username,
			&p.Caption,
			&p.ImageURL,
			&p.CreatedAt,
			&p.LikesCount,
			&p.CommentsCount,
			&p.Liked,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}
