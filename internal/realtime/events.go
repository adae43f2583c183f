package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Topic names. Feed events share one topic; each chat gets its own, keyed by
// the deterministic chat id.
const (
	TopicFeed       = "feed"
	topicChatPrefix = "chat:"
)

// Event types carried on the topics.
const (
	EventPostCreated  = "post.created"
	EventPostLiked    = "post.liked"
	EventCommentAdded = "comment.added"
	EventMessage      = "message"
)

func ChatTopic(chatID string) string {
	return topicChatPrefix + chatID
}

// Event is the wire format for everything pushed to subscribers: a type tag
// plus the entity it concerns, already marshaled the same way the REST
// responses marshal it.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Publisher is what handlers publish through. The Redis bus implements it in
// production; tests substitute an in-memory recorder.
type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) error
}

// Bus fans events out through Redis pub/sub. Publishing through Redis rather
// than straight into the local hub means every instance of the service sees
// every event, whichever instance accepted the write.
type Bus struct {
	rdb *redis.Client
}

func NewBus(rdb *redis.Client) *Bus {
	return &Bus{rdb: rdb}
}

func (b *Bus) Publish(ctx context.Context, topic string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.rdb.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
