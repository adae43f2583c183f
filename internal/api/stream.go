package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/salonikashyap7899/IG-Clone/internal/middleware"
	"github.com/salonikashyap7899/IG-Clone/internal/models"
	"github.com/salonikashyap7899/IG-Clone/internal/realtime"
	"github.com/salonikashyap7899/IG-Clone/internal/repository"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Token auth already ran in the middleware; origin is not checked.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamBacklogLimit bounds the history replayed on connect before the
// stream goes live.
const streamBacklogLimit = 500

// StreamHandler serves the websocket endpoints. Clients authenticate with
// ?token= (AuthMiddleware reads the query string for these routes).
type StreamHandler struct {
	hub      *realtime.Hub
	messages repository.MessageRepository
	users    repository.UserRepository
	logger   *zap.Logger
}

func NewStreamHandler(
	hub *realtime.Hub,
	messages repository.MessageRepository,
	users repository.UserRepository,
	logger *zap.Logger,
) *StreamHandler {
	return &StreamHandler{
		hub:      hub,
		messages: messages,
		users:    users,
		logger:   logger,
	}
}

// Feed handles GET /api/ws/feed: a live stream of post/like/comment events.
func (h *StreamHandler) Feed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := h.hub.Subscribe(realtime.TopicFeed, conn)
	h.readUntilClose(conn, client)
}

// Chat handles GET /api/ws/chats/:userID: the chat's backlog in ascending
// order, then every new message as it lands.
func (h *StreamHandler) Chat(c *gin.Context) {
	target, ok := h.resolveTarget(c)
	if !ok {
		return
	}
	chatID := models.ChatID(middleware.GetUserID(c), target.ID)

	// Backlog is read before the upgrade so a failure can still produce a
	// plain HTTP error response.
	backlog, err := h.messages.ListByChat(c.Request.Context(), chatID, 0, streamBacklogLimit)
	if err != nil {
		h.logger.Error("failed to read message backlog", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open stream"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	// Replay, then subscribe. A message sent in the gap between the
	// backlog read and the subscription is the one delivery this stream
	// can miss; the client's next connect replays it.
	for _, msg := range backlog {
		payload, err := json.Marshal(realtime.Event{Type: realtime.EventMessage, Data: msg})
		if err != nil {
			h.logger.Error("failed to marshal backlog message", zap.Error(err))
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			return
		}
	}

	client := h.hub.Subscribe(realtime.ChatTopic(chatID), conn)
	h.readUntilClose(conn, client)
}

// resolveTarget reuses ChatHandler's :userID resolution for the stream
// routes, so both surfaces reject the same bad inputs the same way.
func (h *StreamHandler) resolveTarget(c *gin.Context) (*models.User, bool) {
	ch := ChatHandler{users: h.users, logger: h.logger}
	return ch.resolveTarget(c)
}

// readUntilClose drains the connection until the peer goes away, then tears
// the subscription down. Inbound frames are ignored; these streams are
// server-to-client only.
func (h *StreamHandler) readUntilClose(conn *websocket.Conn, client *realtime.Client) {
	defer h.hub.Unsubscribe(client)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
