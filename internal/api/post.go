package api

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/salonikashyap7899/IG-Clone/internal/middleware"
	"github.com/salonikashyap7899/IG-Clone/internal/realtime"
	"github.com/salonikashyap7899/IG-Clone/internal/repository"
	"go.uber.org/zap"
)

// PostHandler covers the feed: creating posts, reading them, and the like
// toggle. Real-time feed events go out through the bus after each write.
type PostHandler struct {
	posts    repository.PostRepository
	likes    repository.LikeRepository
	bus      realtime.Publisher
	mediaDir string
	logger   *zap.Logger
}

func NewPostHandler(
	posts repository.PostRepository,
	likes repository.LikeRepository,
	bus realtime.Publisher,
	mediaDir string,
	logger *zap.Logger,
) *PostHandler {
	return &PostHandler{
		posts:    posts,
		likes:    likes,
		bus:      bus,
		mediaDir: mediaDir,
		logger:   logger,
	}
}

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type createPostRequest struct {
	Caption  string `json:"caption"`
	ImageURL string `json:"image_url"`
}

// Create handles POST /api/posts
//
// Two body shapes: multipart with an "image" file plus a "caption" field
// (the upload path), or JSON {caption, image_url} for pre-hosted images.
// A post needs at least one of caption or image.
func (h *PostHandler) Create(c *gin.Context) {
	var caption, imageURL string

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		caption = c.PostForm("caption")

		if file, err := c.FormFile("image"); err == nil {
			ext := strings.ToLower(filepath.Ext(file.Filename))
			if !allowedImageExts[ext] {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
				return
			}
			// Server-chosen name: the client's filename never touches disk.
			name := uuid.NewString() + ext
			if err := c.SaveUploadedFile(file, filepath.Join(h.mediaDir, name)); err != nil {
				h.logger.Error("failed to store image", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store image"})
				return
			}
			imageURL = "/media/" + name
		}
	} else {
		var req createPostRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		caption, imageURL = req.Caption, req.ImageURL
	}

	if strings.TrimSpace(caption) == "" && imageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post needs a caption or an image"})
		return
	}

	post, err := h.posts.Create(
		c.Request.Context(),
		middleware.GetUserID(c),
		middleware.GetUsername(c),
		caption,
		imageURL,
	)
	if err != nil {
		h.logger.Error("failed to create post", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create post"})
		return
	}

	h.publish(c, realtime.EventPostCreated, post)
	c.JSON(http.StatusCreated, post)
}

// List handles GET /api/posts?before=<post id>&limit=
//
// "before" is a keyset cursor: the id of the oldest post the client already
// has. Keyset survives concurrent inserts where offset pagination skips.
func (h *PostHandler) List(c *gin.Context) {
	before := uuid.Nil
	if b := c.Query("before"); b != "" {
		var err error
		before, err = uuid.Parse(b)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'before' parameter"})
			return
		}

		// A cursor naming a nonexistent post would otherwise match nothing
		// and come back as a silent empty page.
		anchor, err := h.posts.GetByID(c.Request.Context(), before, middleware.GetUserID(c))
		if err != nil {
			h.logger.Error("failed to resolve cursor", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list posts"})
			return
		}
		if anchor == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown 'before' post"})
			return
		}
	}

	limit, ok := limitParam(c, 20, 100)
	if !ok {
		return
	}

	posts, err := h.posts.List(c.Request.Context(), middleware.GetUserID(c), before, limit)
	if err != nil {
		h.logger.Error("failed to list posts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list posts"})
		return
	}

	c.JSON(http.StatusOK, posts)
}

// GetByID handles GET /api/posts/:id: the post with its full likes list.
func (h *PostHandler) GetByID(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	post, err := h.posts.GetByID(c.Request.Context(), postID, middleware.GetUserID(c))
	if err != nil {
		h.logger.Error("failed to get post", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get post"})
		return
	}
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	likes, err := h.likes.List(c.Request.Context(), postID)
	if err != nil {
		h.logger.Error("failed to list likes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post, "likes": likes})
}

// ToggleLike handles POST /api/posts/:id/like
func (h *PostHandler) ToggleLike(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	viewerID := middleware.GetUserID(c)

	post, err := h.posts.GetByID(c.Request.Context(), postID, viewerID)
	if err != nil {
		h.logger.Error("failed to get post", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle like"})
		return
	}
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	liked, likes, err := h.likes.Toggle(c.Request.Context(), postID, viewerID)
	if err != nil {
		h.logger.Error("failed to toggle like", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle like"})
		return
	}

	h.publish(c, realtime.EventPostLiked, gin.H{
		"post_id":     postID,
		"user_id":     viewerID,
		"liked":       liked,
		"likes_count": likes,
	})
	c.JSON(http.StatusOK, gin.H{"liked": liked, "likes_count": likes})
}

// publish pushes a feed event; delivery is best-effort and must not fail the
// request that already committed.
func (h *PostHandler) publish(c *gin.Context, eventType string, data any) {
	err := h.bus.Publish(c.Request.Context(), realtime.TopicFeed, realtime.Event{
		Type: eventType,
		Data: data,
	})
	if err != nil {
		h.logger.Warn("failed to publish feed event", zap.String("type", eventType), zap.Error(err))
	}
}

// limitParam reads ?limit= with a default and a cap, answering 400 itself
// on garbage input.
func limitParam(c *gin.Context, def, max int) (int, bool) {
	limit := def
	if l := c.Query("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' parameter"})
			return 0, false
		}
		limit = parsed
	}
	if limit > max {
		limit = max
	}
	return limit, true
}
