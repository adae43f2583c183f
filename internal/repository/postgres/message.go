package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/salonikashyap7899/IG-Clone/internal/models"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

// Send upserts the chat summary and appends the message in one transaction.
// The chat row goes first (the message references it); the upsert also
// refreshes the denormalized username snapshots, so a rename heals on the
// next send. A crash can't leave the log and the inbox disagreeing: the
// transaction either commits both writes or neither.
func (s *MessageStore) Send(ctx context.Context, chat *models.Chat, senderID uuid.UUID, senderUsername, text string) (*models.Message, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin send: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO chats (id, user_a, user_b, username_a, username_b, last_message, last_sent)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id) DO UPDATE SET
			username_a = EXCLUDED.username_a,
			username_b = EXCLUDED.username_b,
			last_message = EXCLUDED.last_message,
			last_sent = EXCLUDED.last_sent`,
		chat.ID, chat.UserA, chat.UserB, chat.UsernameA, chat.UsernameB, text)
	if err != nil {
		return nil, fmt.Errorf("upsert chat: %w", err)
	}

	var msg models.Message
	err = tx.QueryRow(ctx, `
		INSERT INTO messages (chat_id, sender_id, sender_username, body, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, chat_id, sender_id, sender_username, body, created_at`,
		chat.ID, senderID, senderUsername, text).Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.SenderID,
		&msg.SenderUsername,
		&msg.Text,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit send: %w", err)
	}
	return &msg, nil
}

// ListByChat reads the log forward: ascending id, strictly after the cursor.
// after=0 starts from the beginning. Ascending matches display order, and
// the websocket backlog uses the same read before switching to live events.
func (s *MessageStore) ListByChat(ctx context.Context, chatID string, after int64, limit int) ([]models.Message, error) {
	query := `
		SELECT id, chat_id, sender_id, sender_username, body, created_at
		FROM messages
		WHERE chat_id = $1 AND id > $2
		ORDER BY id
		LIMIT $3`

	rows, err := s.pool.Query(ctx, query, chatID, after, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.SenderID,
			&msg.SenderUsername,
			&msg.Text,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}
