package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/salonikashyap7899/IG-Clone/internal/middleware"
	"github.com/salonikashyap7899/IG-Clone/internal/models"
	"github.com/salonikashyap7899/IG-Clone/internal/realtime"
	"github.com/salonikashyap7899/IG-Clone/internal/repository"
	"go.uber.org/zap"
)

// chatListLimit caps the inbox. The cap applies after the membership filter,
// so it can't hide a user's own chats.
const chatListLimit = 50

// ChatHandler covers direct messages: the inbox, sending, and history.
// The chat id is never supplied by the client; it is derived from the
// caller and the :userID path parameter, so a request can only ever touch a
// chat the caller is a participant of.
type ChatHandler struct {
	chats    repository.ChatRepository
	messages repository.MessageRepository
	users    repository.UserRepository
	bus      realtime.Publisher
	logger   *zap.Logger
}

func NewChatHandler(
	chats repository.ChatRepository,
	messages repository.MessageRepository,
	users repository.UserRepository,
	bus realtime.Publisher,
	logger *zap.Logger,
) *ChatHandler {
	return &ChatHandler{
		chats:    chats,
		messages: messages,
		users:    users,
		bus:      bus,
		logger:   logger,
	}
}

// List handles GET /api/chats: the caller's inbox, most recently active
// first.
func (h *ChatHandler) List(c *gin.Context) {
	chats, err := h.chats.ListByUser(c.Request.Context(), middleware.GetUserID(c), chatListLimit)
	if err != nil {
		h.logger.Error("failed to list chats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list chats"})
		return
	}

	c.JSON(http.StatusOK, chats)
}

type sendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// Send handles POST /api/chats/:userID/messages
//
// The first message to a user creates the chat; there is no separate
// "open chat" call. The repository commits the message and the inbox
// summary atomically, then the event goes out on the chat topic.
func (h *ChatHandler) Send(c *gin.Context) {
	target, ok := h.resolveTarget(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message text is required"})
		return
	}

	callerID := middleware.GetUserID(c)
	callerName := middleware.GetUsername(c)

	userA, userB := models.ChatUsers(callerID, target.ID)
	chat := &models.Chat{
		ID:    models.ChatID(callerID, target.ID),
		UserA: userA,
		UserB: userB,
	}
	if userA == callerID {
		chat.UsernameA, chat.UsernameB = callerName, target.Username
	} else {
		chat.UsernameA, chat.UsernameB = target.Username, callerName
	}

	msg, err := h.messages.Send(c.Request.Context(), chat, callerID, callerName, req.Text)
	if err != nil {
		h.logger.Error("failed to send message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}

	if err := h.bus.Publish(c.Request.Context(), realtime.ChatTopic(chat.ID), realtime.Event{
		Type: realtime.EventMessage,
		Data: msg,
	}); err != nil {
		h.logger.Warn("failed to publish message event", zap.Error(err))
	}

	c.JSON(http.StatusCreated, msg)
}

// ListMessages handles GET /api/chats/:userID/messages?after=<id>&limit=
//
// Ascending by id, display order for an append-only log. "after" resumes
// from the last message the client has seen.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	target, ok := h.resolveTarget(c)
	if !ok {
		return
	}

	var after int64
	if a := c.Query("after"); a != "" {
		var err error
		after, err = strconv.ParseInt(a, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'after' parameter"})
			return
		}
	}

	limit, ok := limitParam(c, 100, 500)
	if !ok {
		return
	}

	chatID := models.ChatID(middleware.GetUserID(c), target.ID)
	messages, err := h.messages.ListByChat(c.Request.Context(), chatID, after, limit)
	if err != nil {
		h.logger.Error("failed to list messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

// resolveTarget parses :userID and rejects a caller messaging themselves.
func (h *ChatHandler) resolveTarget(c *gin.Context) (*models.User, bool) {
	targetID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return nil, false
	}
	if targetID == middleware.GetUserID(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot message yourself"})
		return nil, false
	}

	target, err := h.users.GetByID(c.Request.Context(), targetID)
	if err != nil {
		h.logger.Error("failed to get chat target", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve user"})
		return nil, false
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return nil, false
	}
	return target, true
}
