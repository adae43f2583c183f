package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account holder. PasswordHash never leaves the server: json:"-".
// Email is for the account owner only: public reads clear it before
// responding, and omitempty keeps the cleared field out of the JSON.
//
// Following/Followers are not columns; they are derived from the follows
// join table and only populated on the profile endpoints that need them.
// Storing the graph once (instead of two mirrored arrays) means a follow is
// a single atomic write and the two sides can never disagree.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Bio          string    `json:"bio"`
	AvatarURL    string    `json:"avatar_url"`
	CreatedAt    time.Time `json:"created_at"`

	Following []string `json:"following,omitempty"`
	Followers []string `json:"followers,omitempty"`
}

// Post is a feed entry. Username is a snapshot of the owner's name at post
// time; a later rename doesn't rewrite history.
//
// LikesCount, CommentsCount and Liked are computed per query, never stored;
// Liked is relative to the requesting user.
type Post struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Caption   string    `json:"caption"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	LikesCount    int  `json:"likes_count"`
	CommentsCount int  `json:"comments_count"`
	Liked         bool `json:"liked"`
}

// Comment hangs off a post. Append-only except for deletion by its author or
// the post owner. Timestamps are server-assigned, so comment ordering and
// message ordering come off the same clock.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Chat is the container for a two-party message thread, keyed by the
// deterministic pair id. UserA/UserB are stored sorted (same order as the
// id), each with a denormalized username so the inbox renders without a join.
type Chat struct {
	ID          string    `json:"id"`
	UserA       uuid.UUID `json:"user_a"`
	UserB       uuid.UUID `json:"user_b"`
	UsernameA   string    `json:"username_a"`
	UsernameB   string    `json:"username_b"`
	LastMessage string    `json:"last_message"`
	LastSent    time.Time `json:"last_sent"`
}

// Message is one entry in a chat's append-only log. bigserial id: ascending
// id order is ascending time order.
type Message struct {
	ID             int64     `json:"id"`
	ChatID         string    `json:"chat_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

// ChatID derives the chat key for an unordered user pair: the two uids in
// sorted order joined by "_". ChatID(a, b) == ChatID(b, a) for every pair,
// so there is exactly one chat per pair no matter who opens it.
func ChatID(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if x > y {
		x, y = y, x
	}
	return x + "_" + y
}

// ChatUsers returns the pair in the same sorted order ChatID uses.
func ChatUsers(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if strings.Compare(a.String(), b.String()) > 0 {
		return b, a
	}
	return a, b
}
