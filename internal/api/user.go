package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/salonikashyap7899/IG-Clone/internal/middleware"
	"github.com/salonikashyap7899/IG-Clone/internal/models"
	"github.com/salonikashyap7899/IG-Clone/internal/repository"
	"go.uber.org/zap"
)

// UserHandler covers profiles, search and the follow graph. Every public
// surface clears the email before responding; only GetMe returns it.
type UserHandler struct {
	users    repository.UserRepository
	follows  repository.FollowRepository
	posts    repository.PostRepository
	mediaDir string
	logger   *zap.Logger
}

func NewUserHandler(
	users repository.UserRepository,
	follows repository.FollowRepository,
	posts repository.PostRepository,
	mediaDir string,
	logger *zap.Logger,
) *UserHandler {
	return &UserHandler{
		users:    users,
		follows:  follows,
		posts:    posts,
		mediaDir: mediaDir,
		logger:   logger,
	}
}

// GetMe handles GET /api/users/me: the caller's own profile, with the
// following/followers uid lists attached.
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
		return
	}
	if user == nil {
		// Token holder without a row: stale token after account removal.
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if err := h.attachGraph(c, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

type updateProfileRequest struct {
	Bio       string `json:"bio" binding:"max=500"`
	AvatarURL string `json:"avatar_url"`
}

// UpdateMe handles PUT /api/users/me
//
// Two body shapes, like post creation: multipart with an "avatar" file plus
// a "bio" field, or JSON {bio, avatar_url}. An empty avatar leaves the
// current one in place.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var bio, avatarURL string

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		bio = c.PostForm("bio")
		if len(bio) > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bio too long"})
			return
		}

		if file, err := c.FormFile("avatar"); err == nil {
			ext := strings.ToLower(filepath.Ext(file.Filename))
			if !allowedImageExts[ext] {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
				return
			}
			name := uuid.NewString() + ext
			if err := c.SaveUploadedFile(file, filepath.Join(h.mediaDir, name)); err != nil {
				h.logger.Error("failed to store avatar", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store avatar"})
				return
			}
			avatarURL = "/media/" + name
		}
	} else {
		var req updateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		bio, avatarURL = req.Bio, req.AvatarURL
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), bio, avatarURL)
	if err != nil {
		h.logger.Error("failed to update profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// Search handles GET /api/users/search?q=
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusOK, []models.User{})
		return
	}

	users, err := h.users.Search(c.Request.Context(), q, 20)
	if err != nil {
		h.logger.Error("failed to search users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search users"})
		return
	}

	c.JSON(http.StatusOK, redactEmails(users))
}

// GetProfile handles GET /api/users/:username: public profile plus the
// user's posts, newest first.
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.logger.Error("failed to get profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if err := h.attachGraph(c, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}
	user.Email = ""

	posts, err := h.posts.ListByUser(c.Request.Context(), user.ID, middleware.GetUserID(c))
	if err != nil {
		h.logger.Error("failed to list user posts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "posts": posts})
}

// ToggleFollow handles POST /api/users/:username/follow
//
// One call follows, the next unfollows; the repository resolves the current
// state and the write in a single transaction, so both directions of the
// graph always move together.
func (h *UserHandler) ToggleFollow(c *gin.Context) {
	target, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.logger.Error("failed to get follow target", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to follow"})
		return
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	callerID := middleware.GetUserID(c)
	if target.ID == callerID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot follow yourself"})
		return
	}

	following, followers, err := h.follows.Toggle(c.Request.Context(), callerID, target.ID)
	if err != nil {
		h.logger.Error("failed to toggle follow", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to follow"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"following": following, "followers_count": followers})
}

// ListFollowers handles GET /api/users/:username/followers
func (h *UserHandler) ListFollowers(c *gin.Context) {
	user, ok := h.resolveUsername(c)
	if !ok {
		return
	}

	users, err := h.follows.Followers(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to list followers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list followers"})
		return
	}
	c.JSON(http.StatusOK, redactEmails(users))
}

// ListFollowing handles GET /api/users/:username/following
func (h *UserHandler) ListFollowing(c *gin.Context) {
	user, ok := h.resolveUsername(c)
	if !ok {
		return
	}

	users, err := h.follows.Following(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to list following", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list following"})
		return
	}
	c.JSON(http.StatusOK, redactEmails(users))
}

// resolveUsername looks up the :username path parameter, writing the error
// response itself when the lookup fails or misses.
func (h *UserHandler) resolveUsername(c *gin.Context) (*models.User, bool) {
	user, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.logger.Error("failed to resolve username", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve user"})
		return nil, false
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return nil, false
	}
	return user, true
}

// redactEmails strips the email from a user list before it goes out on a
// public endpoint.
func redactEmails(users []models.User) []models.User {
	for i := range users {
		users[i].Email = ""
	}
	return users
}

// attachGraph fills the derived Following/Followers uid lists on a profile.
func (h *UserHandler) attachGraph(c *gin.Context, user *models.User) error {
	following, err := h.follows.Following(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to load following", zap.Error(err))
		return err
	}
	followers, err := h.follows.Followers(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to load followers", zap.Error(err))
		return err
	}

	user.Following = make([]string, 0, len(following))
	for _, u := range following {
		user.Following = append(user.Following, u.ID.String())
	}
	user.Followers = make([]string, 0, len(followers))
	for _, u := range followers {
		user.Followers = append(user.Followers, u.ID.String())
	}
	return nil
}
