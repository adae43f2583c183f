package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/salonikashyap7899/IG-Clone/internal/models"
	"github.com/salonikashyap7899/IG-Clone/internal/realtime"
)

func createPost(t *testing.T, env *testEnv, user *models.User, caption string) models.Post {
	t.Helper()
	var post models.Post
	w := do(t, env.routerFor(user), http.MethodPost, "/api/posts", map[string]string{"caption": caption}, &post)
	if w.Code != http.StatusCreated {
		t.Fatalf("create post status = %d: %s", w.Code, w.Body.String())
	}
	return post
}

func TestCreatePostSnapshotsUsername(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")

	post := createPost(t, env, alice, "hello world")
	if post.Username != "alice" {
		t.Errorf("post.username = %q, want alice", post.Username)
	}
	if post.UserID != alice.ID {
		t.Errorf("post.user_id = %s, want %s", post.UserID, alice.ID)
	}

	events := env.bus.published()
	if len(events) != 1 || events[0].event.Type != realtime.EventPostCreated {
		t.Fatalf("published events = %+v, want one post.created", events)
	}
	if events[0].topic != realtime.TopicFeed {
		t.Errorf("event topic = %q, want feed", events[0].topic)
	}
}

func TestCreatePostRequiresContent(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")

	w := do(t, env.routerFor(alice), http.MethodPost, "/api/posts", map[string]string{"caption": "   "}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank post status = %d, want 400", w.Code)
	}
}

func TestToggleLikeRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")
	post := createPost(t, env, alice, "hello")

	asBob := env.routerFor(bob)
	likePath := fmt.Sprintf("/api/posts/%s/like", post.ID)

	var res struct {
		Liked      bool `json:"liked"`
		LikesCount int  `json:"likes_count"`
	}
	do(t, asBob, http.MethodPost, likePath, nil, &res)
	if !res.Liked || res.LikesCount != 1 {
		t.Fatalf("like = %+v, want liked=true count=1", res)
	}

	// Toggling again restores the original empty set.
	do(t, asBob, http.MethodPost, likePath, nil, &res)
	if res.Liked || res.LikesCount != 0 {
		t.Fatalf("unlike = %+v, want liked=false count=0", res)
	}
}

func TestToggleLikeUnknownPost(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")

	w := do(t, env.routerFor(alice), http.MethodPost, "/api/posts/a2f1bb8e-0000-4000-8000-000000000000/like", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("like unknown post status = %d, want 404", w.Code)
	}
}

func TestFeedIsNewestFirstAndPaginated(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")

	first := createPost(t, env, alice, "first")
	second := createPost(t, env, alice, "second")
	third := createPost(t, env, alice, "third")

	r := env.routerFor(alice)
	var feed []models.Post
	do(t, r, http.MethodGet, "/api/posts?limit=2", nil, &feed)
	if len(feed) != 2 || feed[0].ID != third.ID || feed[1].ID != second.ID {
		t.Fatalf("first page = %v, want [third, second]", captions(feed))
	}

	var rest []models.Post
	do(t, r, http.MethodGet, "/api/posts?limit=2&before="+second.ID.String(), nil, &rest)
	if len(rest) != 1 || rest[0].ID != first.ID {
		t.Fatalf("second page = %v, want [first]", captions(rest))
	}
}

func TestFeedRejectsUnknownCursor(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")
	createPost(t, env, alice, "only post")

	w := do(t, env.routerFor(alice), http.MethodGet,
		"/api/posts?before=a2f1bb8e-0000-4000-8000-000000000000", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown cursor status = %d, want 400: %s", w.Code, w.Body.String())
	}
}

func captions(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Caption
	}
	return out
}

func TestCommentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")
	carol := env.addUser(t, "carol")
	post := createPost(t, env, alice, "hello")

	commentsPath := fmt.Sprintf("/api/posts/%s/comments", post.ID)

	// Blank comments are rejected before any write.
	w := do(t, env.routerFor(bob), http.MethodPost, commentsPath, map[string]string{"text": "  "}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank comment status = %d, want 400", w.Code)
	}

	var comment models.Comment
	w = do(t, env.routerFor(bob), http.MethodPost, commentsPath, map[string]string{"text": "nice"}, &comment)
	if w.Code != http.StatusCreated {
		t.Fatalf("comment status = %d: %s", w.Code, w.Body.String())
	}
	if comment.Username != "bob" {
		t.Errorf("comment.username = %q, want bob", comment.Username)
	}

	deletePath := fmt.Sprintf("%s/%d", commentsPath, comment.ID)

	// A bystander can't delete it.
	w = do(t, env.routerFor(carol), http.MethodDelete, deletePath, nil, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("bystander delete status = %d, want 403", w.Code)
	}

	// The post owner can.
	w = do(t, env.routerFor(alice), http.MethodDelete, deletePath, nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("owner delete status = %d, want 204", w.Code)
	}

	var remaining []models.Comment
	do(t, env.routerFor(alice), http.MethodGet, commentsPath, nil, &remaining)
	if len(remaining) != 0 {
		t.Errorf("comments after delete = %d, want 0", len(remaining))
	}
}
