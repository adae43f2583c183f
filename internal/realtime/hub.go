package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// writeWait bounds how long a single frame write may block on a slow
	// client before the connection is dropped.
	writeWait = 10 * time.Second

	// sendBuffer is per-client. When it fills the client is considered
	// stuck and gets unsubscribed rather than stalling the broadcast.
	sendBuffer = 64
)

// Client is one websocket subscriber on one topic.
type Client struct {
	topic string
	conn  *websocket.Conn
	send  chan []byte
	once  sync.Once
}

// Hub routes events to websocket subscribers, keyed by topic. Local
// subscriptions live in memory; events arrive over Redis pub/sub so that
// every process in the deployment delivers every event.
type Hub struct {
	rdb    *redis.Client
	logger *zap.Logger

	mu     sync.RWMutex
	topics map[string]map[*Client]struct{}
}

func NewHub(rdb *redis.Client, logger *zap.Logger) *Hub {
	return &Hub{
		rdb:    rdb,
		logger: logger,
		topics: make(map[string]map[*Client]struct{}),
	}
}

// Subscribe attaches a websocket connection to a topic and starts its write
// pump. The caller keeps ownership of the read side (to see the close).
func (h *Hub) Subscribe(topic string, conn *websocket.Conn) *Client {
	client := &Client{
		topic: topic,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Client]struct{})
		h.topics[topic] = subs
	}
	subs[client] = struct{}{}
	h.mu.Unlock()

	go client.writePump(h)
	return client
}

// Unsubscribe detaches a client and closes its connection. Safe to call more
// than once; the write pump and the read loop both funnel through it.
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	if subs, ok := h.topics[client.topic]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.topics, client.topic)
		}
	}
	h.mu.Unlock()

	// Closing send stops the write pump, which sends the close frame and
	// then closes the connection. Closing the conn here instead would race
	// the frame out of existence.
	client.once.Do(func() {
		close(client.send)
	})
}

// Broadcast delivers a payload to every local subscriber of a topic. A
// client whose buffer is full is dropped: one stuck reader must not hold up
// the rest.
func (h *Hub) Broadcast(topic string, payload []byte) {
	h.mu.RLock()
	stuck := make([]*Client, 0)
	for client := range h.topics[topic] {
		select {
		case client.send <- payload:
		default:
			stuck = append(stuck, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stuck {
		h.logger.Warn("dropping slow websocket subscriber", zap.String("topic", topic))
		h.Unsubscribe(client)
	}
}

// Run bridges Redis pub/sub into local broadcasts until ctx is cancelled.
// PSubscribe covers the feed topic and every chat topic in one subscription.
func (h *Hub) Run(ctx context.Context) {
	pubsub := h.rdb.PSubscribe(ctx, TopicFeed, topicChatPrefix+"*")
	defer pubsub.Close()

	h.logger.Info("realtime bridge running")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.Broadcast(msg.Channel, []byte(msg.Payload))
		}
	}
}

// Subscribers reports the current local subscriber count for a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (c *Client) writePump(h *Hub) {
	defer func() {
		h.Unsubscribe(c)
		c.conn.Close()
	}()

	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	// send was closed by Unsubscribe: tell the peer before the conn closes.
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
