package db

import (
	"context"
	"fmt"
)

// Every statement is idempotent (IF NOT EXISTS), so Migrate is safe to run
// on every startup. Schema notes:
//
//   - following/followers are NOT stored as mirrored arrays on the user row.
//     The follows join table makes a follow a single atomic insert, so the
//     graph can never go asymmetric because one half of a dual-write failed.
//   - likes has a composite primary key: true set semantics, a like from the
//     same user twice is one row, and concurrent likes from different users
//     never clobber each other.
//   - chats is keyed by the deterministic pair id (sorted uids joined by
//     "_"), guaranteeing exactly one chat per unordered pair.
//   - messages and comments use bigserial ids: a single insert sequence,
//     naturally ordered, cheap cursor for pagination.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		username text NOT NULL,
		email text NOT NULL,
		password_hash text NOT NULL,
		bio text NOT NULL DEFAULT '',
		avatar_url text NOT NULL DEFAULT '',
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_username_key ON users (lower(username))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (lower(email))`,

	`CREATE TABLE IF NOT EXISTS follows (
		follower_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		followee_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at timestamptz NOT NULL DEFAULT now(),
		PRIMARY KEY (follower_id, followee_id),
		CHECK (follower_id <> followee_id)
	)`,
	`CREATE INDEX IF NOT EXISTS follows_followee_idx ON follows (followee_id)`,

	`CREATE TABLE IF NOT EXISTS posts (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		username text NOT NULL,
		caption text NOT NULL DEFAULT '',
		image_url text NOT NULL DEFAULT '',
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS posts_created_idx ON posts (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS posts_user_idx ON posts (user_id)`,

	`CREATE TABLE IF NOT EXISTS likes (
		post_id uuid NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at timestamptz NOT NULL DEFAULT now(),
		PRIMARY KEY (post_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS comments (
		id bigserial PRIMARY KEY,
		post_id uuid NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		username text NOT NULL,
		body text NOT NULL,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS comments_post_idx ON comments (post_id, id)`,

	`CREATE TABLE IF NOT EXISTS chats (
		id text PRIMARY KEY,
		user_a uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		user_b uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		username_a text NOT NULL,
		username_b text NOT NULL,
		last_message text NOT NULL DEFAULT '',
		last_sent timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS chats_user_a_idx ON chats (user_a, last_sent DESC)`,
	`CREATE INDEX IF NOT EXISTS chats_user_b_idx ON chats (user_b, last_sent DESC)`,

	`CREATE TABLE IF NOT EXISTS messages (
		id bigserial PRIMARY KEY,
		chat_id text NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
		sender_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		sender_username text NOT NULL,
		body text NOT NULL,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS messages_chat_idx ON messages (chat_id, id)`,
}

// Migrate applies the embedded schema.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	db.logger.Info("schema up to date")
	return nil
}
