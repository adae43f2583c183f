package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/salonikashyap7899/IG-Clone/internal/models"
)

type ChatStore struct {
	pool *pgxpool.Pool
}

func NewChatStore(pool *pgxpool.Pool) *ChatStore {
	return &ChatStore{pool: pool}
}

// ListByUser returns the caller's inbox, most recently active first. The
// membership predicate runs before LIMIT, so unrelated busy chats can never
// crowd the caller's own chats out of the window.
func (s *ChatStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Chat, error) {
	query := `
		SELECT id, user_a, user_b, username_a, username_b, last_message, last_sent
		FROM chats
		WHERE user_a = $1 OR user_b = $1
		ORDER BY last_sent DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	chats := make([]models.Chat, 0)
	for rows.Next() {
		var ch models.Chat
		if err := rows.Scan(
			&ch.ID,
			&ch.UserA,
			&ch.UserB,
			&ch.UsernameA,
			&ch.UsernameB,
			&ch.LastMessage,
			&ch.LastSent,
		); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}

	return chats, nil
}
