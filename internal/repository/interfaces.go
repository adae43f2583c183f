package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/salonikashyap7899/IG-Clone/internal/models"
)

// Conventions shared by every repository:
//
//   - context.Context first on every method; all of these hit the network.
//   - "nil, nil" means not found. Handlers translate that to a 404; only a
//     real failure comes back as an error.
//   - List methods return make([]T, 0), never nil, so JSON gives [] not null.

// Sentinel errors surfaced by Create-style methods when a unique constraint
// trips. The database enforces uniqueness, not a pre-flight scan, so two
// concurrent signups with the same name can't both win.
var (
	ErrDuplicateUsername = errors.New("username already taken")
	ErrDuplicateEmail    = errors.New("email already registered")
)

// UserRepository handles accounts and profile lookups.
type UserRepository interface {
	// Create inserts a new user. Returns ErrDuplicateUsername or
	// ErrDuplicateEmail when the case-insensitive unique indexes reject it.
	Create(ctx context.Context, username, email, passwordHash string) (*models.User, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail looks up a user for login. Case-insensitive.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByUsername resolves profile URLs. Case-insensitive.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// UpdateProfile replaces the bio and, when avatarURL is non-empty, the
	// avatar. Returns the updated user.
	UpdateProfile(ctx context.Context, id uuid.UUID, bio, avatarURL string) (*models.User, error)

	// Search matches usernames by case-insensitive substring.
	Search(ctx context.Context, q string, limit int) ([]models.User, error)
}

// FollowRepository owns the follow graph.
type FollowRepository interface {
	// Toggle follows followeeID if no edge exists, unfollows otherwise,
	// in a single transaction. Returns the resulting state and the
	// followee's new follower count.
	Toggle(ctx context.Context, followerID, followeeID uuid.UUID) (following bool, followers int, err error)

	// Followers returns the users following userID.
	Followers(ctx context.Context, userID uuid.UUID) ([]models.User, error)

	// Following returns the users userID follows.
	Following(ctx context.Context, userID uuid.UUID) ([]models.User, error)
}

// PostRepository handles feed entries.
type PostRepository interface {
	Create(ctx context.Context, userID uuid.UUID, username, caption, imageURL string) (*models.Post, error)

	// GetByID returns one post with counts computed for viewerID.
	GetByID(ctx context.Context, postID, viewerID uuid.UUID) (*models.Post, error)

	// List returns the feed newest first. before is a keyset cursor: the id
	// of the oldest post from the previous page, or uuid.Nil for the first.
	List(ctx context.Context, viewerID uuid.UUID, before uuid.UUID, limit int) ([]models.Post, error)

	// ListByUser returns one user's posts, newest first.
	ListByUser(ctx context.Context, userID, viewerID uuid.UUID) ([]models.Post, error)
}

// LikeRepository owns the per-post like sets.
type LikeRepository interface {
	// Toggle likes the post if viewer hasn't, unlikes otherwise, in a
	// single transaction. The authoritative check-and-write lives in the
	// database, so a stale client can't double-toggle.
	Toggle(ctx context.Context, postID, userID uuid.UUID) (liked bool, likes int, err error)

	// List returns the uids that like a post.
	List(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error)
}

// CommentRepository handles the comment log under each post.
type CommentRepository interface {
	Create(ctx context.Context, postID, userID uuid.UUID, username, text string) (*models.Comment, error)

	GetByID(ctx context.Context, commentID int64) (*models.Comment, error)

	// ListByPost returns comments oldest first (display order).
	ListByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error)

	Delete(ctx context.Context, commentID int64) error
}

// ChatRepository handles inbox summaries.
type ChatRepository interface {
	// ListByUser returns the caller's chats, most recently active first.
	// Membership is filtered in the query; the cap applies after it, so a
	// busy system can't push a user's own chats out of their inbox.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Chat, error)
}

// MessageRepository handles the per-chat message logs.
type MessageRepository interface {
	// Send appends a message and upserts the parent chat summary
	// (last_message, last_sent, username snapshots) in one transaction.
	// Either both land or neither does; the inbox can't go stale against
	// the log.
	Send(ctx context.Context, chat *models.Chat, senderID uuid.UUID, senderUsername, text string) (*models.Message, error)

	// ListByChat returns messages ascending by id. after is a cursor: only
	// messages with a larger id are returned, 0 means from the beginning.
	ListByChat(ctx context.Context, chatID string, after int64, limit int) ([]models.Message, error)
}
