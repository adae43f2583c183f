package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/salonikashyap7899/IG-Clone/internal/middleware"
	"github.com/salonikashyap7899/IG-Clone/internal/realtime"
	"github.com/salonikashyap7899/IG-Clone/internal/repository"
	"go.uber.org/zap"
)

// CommentHandler covers the comment log under each post.
type CommentHandler struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	bus      realtime.Publisher
	logger   *zap.Logger
}

func NewCommentHandler(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	bus realtime.Publisher,
	logger *zap.Logger,
) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		posts:    posts,
		bus:      bus,
		logger:   logger,
	}
}

type createCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// Create handles POST /api/posts/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "comment text is required"})
		return
	}

	post, err := h.posts.GetByID(c.Request.Context(), postID, middleware.GetUserID(c))
	if err != nil {
		h.logger.Error("failed to get post", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add comment"})
		return
	}
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	comment, err := h.comments.Create(
		c.Request.Context(),
		postID,
		middleware.GetUserID(c),
		middleware.GetUsername(c),
		req.Text,
	)
	if err != nil {
		h.logger.Error("failed to add comment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add comment"})
		return
	}

	if err := h.bus.Publish(c.Request.Context(), realtime.TopicFeed, realtime.Event{
		Type: realtime.EventCommentAdded,
		Data: comment,
	}); err != nil {
		h.logger.Warn("failed to publish comment event", zap.Error(err))
	}

	c.JSON(http.StatusCreated, comment)
}

// List handles GET /api/posts/:id/comments, oldest first.
func (h *CommentHandler) List(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	comments, err := h.comments.ListByPost(c.Request.Context(), postID)
	if err != nil {
		h.logger.Error("failed to list comments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list comments"})
		return
	}

	c.JSON(http.StatusOK, comments)
}

// Delete handles DELETE /api/posts/:id/comments/:commentID
//
// Allowed for the comment author or the owner of the post it sits under;
// anyone else gets 403.
func (h *CommentHandler) Delete(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}
	commentID, err := strconv.ParseInt(c.Param("commentID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}

	callerID := middleware.GetUserID(c)

	comment, err := h.comments.GetByID(c.Request.Context(), commentID)
	if err != nil {
		h.logger.Error("failed to get comment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete comment"})
		return
	}
	if comment == nil || comment.PostID != postID {
		c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
		return
	}

	if comment.UserID != callerID {
		post, err := h.posts.GetByID(c.Request.Context(), postID, callerID)
		if err != nil {
			h.logger.Error("failed to get post", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete comment"})
			return
		}
		if post == nil || post.UserID != callerID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to delete this comment"})
			return
		}
	}

	if err := h.comments.Delete(c.Request.Context(), commentID); err != nil {
		h.logger.Error("failed to delete comment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete comment"})
		return
	}

	c.Status(http.StatusNoContent)
}
