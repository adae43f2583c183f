package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/salonikashyap7899/IG-Clone/internal/middleware"
	"github.com/salonikashyap7899/IG-Clone/internal/models"
	"github.com/salonikashyap7899/IG-Clone/internal/realtime"
	"github.com/salonikashyap7899/IG-Clone/internal/repository"
	"go.uber.org/zap"
)

// memStore holds in-memory state for the handler tests. The per-interface
// view types below (memUsers, memPosts, ...) expose it through the
// repository interfaces, so one store can back every handler in a scenario.
type memStore struct {
	mu sync.Mutex

	users   map[uuid.UUID]*models.User
	follows map[uuid.UUID]map[uuid.UUID]bool // follower -> followees

	posts []*models.Post
	likes map[uuid.UUID]map[uuid.UUID]bool // post -> likers

	comments    []*models.Comment
	nextComment int64

	chats    map[string]*models.Chat
	messages map[string][]models.Message
	nextMsg  int64
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uuid.UUID]*models.User),
		follows:  make(map[uuid.UUID]map[uuid.UUID]bool),
		likes:    make(map[uuid.UUID]map[uuid.UUID]bool),
		chats:    make(map[string]*models.Chat),
		messages: make(map[string][]models.Message),
	}
}

type (
	memUsers    struct{ *memStore }
	memFollows  struct{ *memStore }
	memPosts    struct{ *memStore }
	memLikes    struct{ *memStore }
	memComments struct{ *memStore }
	memChats    struct{ *memStore }
	memMessages struct{ *memStore }
)

var (
	_ repository.UserRepository    = memUsers{}
	_ repository.FollowRepository  = memFollows{}
	_ repository.PostRepository    = memPosts{}
	_ repository.LikeRepository    = memLikes{}
	_ repository.CommentRepository = memComments{}
	_ repository.ChatRepository    = memChats{}
	_ repository.MessageRepository = memMessages{}
)

// --- users ---

func (m memUsers) Create(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			return nil, repository.ErrDuplicateUsername
		}
		if strings.EqualFold(u.Email, email) {
			return nil, repository.ErrDuplicateEmail
		}
	}
	u := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	out := *u
	return &out, nil
}

func (m memUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (m memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (m memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (m memUsers) UpdateProfile(ctx context.Context, id uuid.UUID, bio, avatarURL string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	u.Bio = bio
	if avatarURL != "" {
		u.AvatarURL = avatarURL
	}
	out := *u
	return &out, nil
}

func (m memUsers) Search(ctx context.Context, q string, limit int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0)
	for _, u := range m.users {
		if len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(q)) {
			out = append(out, *u)
		}
	}
	return out, nil
}

// --- follows ---

func (m memFollows) Toggle(ctx context.Context, followerID, followeeID uuid.UUID) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	edges := m.follows[followerID]
	if edges == nil {
		edges = make(map[uuid.UUID]bool)
		m.follows[followerID] = edges
	}
	following := !edges[followeeID]
	if following {
		edges[followeeID] = true
	} else {
		delete(edges, followeeID)
	}
	followers := 0
	for _, e := range m.follows {
		if e[followeeID] {
			followers++
		}
	}
	return following, followers, nil
}

func (m memFollows) Followers(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0)
	for follower, edges := range m.follows {
		if edges[userID] {
			if u, ok := m.users[follower]; ok {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

func (m memFollows) Following(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0)
	for followee := range m.follows[userID] {
		if u, ok := m.users[followee]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

// --- posts ---

func (m memPosts) Create(ctx context.Context, userID uuid.UUID, username, caption, imageURL string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Post{
		ID:        uuid.New(),
		UserID:    userID,
		Username:  username,
		Caption:   caption,
		ImageURL:  imageURL,
		CreatedAt: time.Now(),
	}
	m.posts = append(m.posts, p)
	out := *p
	return &out, nil
}

func (m memPosts) GetByID(ctx context.Context, postID, viewerID uuid.UUID) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.ID == postID {
			out := m.projectPost(p, viewerID)
			return &out, nil
		}
	}
	return nil, nil
}

func (m memPosts) List(ctx context.Context, viewerID uuid.UUID, before uuid.UUID, limit int) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Post, 0)
	collecting := before == uuid.Nil
	for i := len(m.posts) - 1; i >= 0 && len(out) < limit; i-- {
		p := m.posts[i]
		if !collecting {
			if p.ID == before {
				collecting = true
			}
			continue
		}
		out = append(out, m.projectPost(p, viewerID))
	}
	return out, nil
}

func (m memPosts) ListByUser(ctx context.Context, userID, viewerID uuid.UUID) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Post, 0)
	for i := len(m.posts) - 1; i >= 0; i-- {
		if m.posts[i].UserID == userID {
			out = append(out, m.projectPost(m.posts[i], viewerID))
		}
	}
	return out, nil
}

// projectPost computes the per-viewer fields. Caller holds the lock.
func (m *memStore) projectPost(p *models.Post, viewerID uuid.UUID) models.Post {
	out := *p
	out.LikesCount = len(m.likes[p.ID])
	out.Liked = m.likes[p.ID][viewerID]
	for _, cm := range m.comments {
		if cm.PostID == p.ID {
			out.CommentsCount++
		}
	}
	return out
}

// --- likes ---

func (m memLikes) Toggle(ctx context.Context, postID, userID uuid.UUID) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.likes[postID]
	if set == nil {
		set = make(map[uuid.UUID]bool)
		m.likes[postID] = set
	}
	liked := !set[userID]
	if liked {
		set[userID] = true
	} else {
		delete(set, userID)
	}
	return liked, len(set), nil
}

func (m memLikes) List(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uuid.UUID, 0)
	for id := range m.likes[postID] {
		out = append(out, id)
	}
	return out, nil
}

// --- comments ---

func (m memComments) Create(ctx context.Context, postID, userID uuid.UUID, username, text string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextComment++
	cm := &models.Comment{
		ID:        m.nextComment,
		PostID:    postID,
		UserID:    userID,
		Username:  username,
		Text:      text,
		CreatedAt: time.Now(),
	}
	m.comments = append(m.comments, cm)
	out := *cm
	return &out, nil
}

func (m memComments) GetByID(ctx context.Context, commentID int64) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cm := range m.comments {
		if cm.ID == commentID {
			out := *cm
			return &out, nil
		}
	}
	return nil, nil
}

func (m memComments) ListByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Comment, 0)
	for _, cm := range m.comments {
		if cm.PostID == postID {
			out = append(out, *cm)
		}
	}
	return out, nil
}

func (m memComments) Delete(ctx context.Context, commentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, cm := range m.comments {
		if cm.ID == commentID {
			m.comments = append(m.comments[:i], m.comments[i+1:]...)
			return nil
		}
	}
	return nil
}

// --- chats ---

func (m memChats) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Chat, 0)
	for _, ch := range m.chats {
		if ch.UserA == userID || ch.UserB == userID {
			out = append(out, *ch)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- messages ---

func (m memMessages) Send(ctx context.Context, chat *models.Chat, senderID uuid.UUID, senderUsername, text string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextMsg++
	msg := models.Message{
		ID:             m.nextMsg,
		ChatID:         chat.ID,
		SenderID:       senderID,
		SenderUsername: senderUsername,
		Text:           text,
		CreatedAt:      time.Now(),
	}
	stored := *chat
	stored.LastMessage = text
	stored.LastSent = msg.CreatedAt
	m.chats[chat.ID] = &stored
	m.messages[chat.ID] = append(m.messages[chat.ID], msg)
	out := msg
	return &out, nil
}

func (m memMessages) ListByChat(ctx context.Context, chatID string, after int64, limit int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Message, 0)
	for _, msg := range m.messages[chatID] {
		if msg.ID > after && len(out) < limit {
			out = append(out, msg)
		}
	}
	return out, nil
}

// memBus records published events instead of touching Redis.
type memBus struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	topic string
	event realtime.Event
}

func (b *memBus) Publish(ctx context.Context, topic string, event realtime.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, publishedEvent{topic: topic, event: event})
	return nil
}

func (b *memBus) published() []publishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]publishedEvent(nil), b.events...)
}

// authAs stands in for AuthMiddleware: it stamps the request context with a
// fixed identity so handlers behave as if that user sent the request.
func authAs(userID uuid.UUID, username string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
		c.Set(middleware.ContextKeyUsername, username)
	}
}

// testEnv wires every handler against one shared memStore.
type testEnv struct {
	store *memStore
	bus   *memBus

	auth     *AuthHandler
	users    *UserHandler
	posts    *PostHandler
	comments *CommentHandler
	chats    *ChatHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	bus := &memBus{}
	logger := zap.NewNop()
	mediaDir := t.TempDir()

	return &testEnv{
		store:    store,
		bus:      bus,
		auth:     NewAuthHandler(memUsers{store}, "test-secret", logger),
		users:    NewUserHandler(memUsers{store}, memFollows{store}, memPosts{store}, mediaDir, logger),
		posts:    NewPostHandler(memPosts{store}, memLikes{store}, bus, mediaDir, logger),
		comments: NewCommentHandler(memComments{store}, memPosts{store}, bus, logger),
		chats:    NewChatHandler(memChats{store}, memMessages{store}, memUsers{store}, bus, logger),
	}
}

// routerFor registers the full authenticated route table with the given
// identity injected, mirroring the wiring in cmd/server.
func (e *testEnv) routerFor(user *models.User) *gin.Engine {
	r := gin.New()
	r.POST("/api/auth/signup", e.auth.Signup)
	r.POST("/api/auth/login", e.auth.Login)
	r.GET("/api/users/search", e.users.Search)
	r.GET("/api/users/:username/followers", e.users.ListFollowers)
	r.GET("/api/users/:username/following", e.users.ListFollowing)

	authed := r.Group("/api")
	if user != nil {
		authed.Use(authAs(user.ID, user.Username))
	}
	authed.GET("/users/me", e.users.GetMe)
	authed.PUT("/users/me", e.users.UpdateMe)
	authed.GET("/users/:username", e.users.GetProfile)
	authed.POST("/users/:username/follow", e.users.ToggleFollow)
	authed.POST("/posts", e.posts.Create)
	authed.GET("/posts", e.posts.List)
	authed.GET("/posts/:id", e.posts.GetByID)
	authed.POST("/posts/:id/like", e.posts.ToggleLike)
	authed.POST("/posts/:id/comments", e.comments.Create)
	authed.GET("/posts/:id/comments", e.comments.List)
	authed.DELETE("/posts/:id/comments/:commentID", e.comments.Delete)
	authed.GET("/chats", e.chats.List)
	authed.POST("/chats/:userID/messages", e.chats.Send)
	authed.GET("/chats/:userID/messages", e.chats.ListMessages)
	return r
}

// addUser seeds an account directly in the store.
func (e *testEnv) addUser(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := memUsers{e.store}.Create(context.Background(), username, username+"@example.com", "x")
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

// do runs a request against a router and decodes the JSON response into out
// (skipped when out is nil).
func do(t *testing.T, r *gin.Engine, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if out != nil && w.Code < 300 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w
}
