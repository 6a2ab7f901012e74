package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"snapfeed/pkg/logger"
	"snapfeed/pkg/models"
	"snapfeed/pkg/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger.Init()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	srv := httptest.NewServer(Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = store.Close()
	})
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Posts   json.RawMessage `json:"posts"`
	Stories json.RawMessage `json:"stories"`
}

type itemView struct {
	ImageID   string `json:"imageId"`
	Image     string `json:"image"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Username  string `json:"username"`
}

func postJSON(t *testing.T, url string, body interface{}) envelope {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST %s: status %d, want 200", url, resp.StatusCode)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func getJSON(t *testing.T, url string) envelope {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d, want 200", url, resp.StatusCode)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func register(t *testing.T, srv *httptest.Server, username, sessionID string) envelope {
	t.Helper()
	return postJSON(t, srv.URL+"/api/register", map[string]string{
		"username":  username,
		"sessionId": sessionID,
	})
}

func upload(t *testing.T, srv *httptest.Server, sessionID, imageID, typ string, ts int64) envelope {
	t.Helper()
	return postJSON(t, srv.URL+"/api/upload", map[string]interface{}{
		"sessionId": sessionID,
		"imageId":   imageID,
		"image":     "data:image/png;base64,iVBORw0KGgo=",
		"type":      typ,
		"timestamp": ts,
	})
}

func TestRegister(t *testing.T) {
	srv := newTestServer(t)

	env := register(t, srv, "Alice", "s1")
	if !env.Success || env.Message != "Username registered successfully" {
		t.Fatalf("unexpected register response: %+v", env)
	}

	// usernames are case-insensitive
	env = register(t, srv, "ALICE", "s2")
	if env.Success || env.Message != "Username already taken" {
		t.Fatalf("expected duplicate rejection, got %+v", env)
	}

	env = postJSON(t, srv.URL+"/api/register", map[string]string{"username": "bob"})
	if env.Success || env.Message != "Username and session ID required" {
		t.Fatalf("expected validation failure, got %+v", env)
	}
}

func TestUploadValidation(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "alice", "s1")

	env := postJSON(t, srv.URL+"/api/upload", map[string]interface{}{
		"sessionId": "s1",
		"imageId":   "img1",
	})
	if env.Success || env.Message != "Missing required fields" {
		t.Fatalf("expected missing-fields failure, got %+v", env)
	}

	env = upload(t, srv, "unknown", "img1", models.TypePost, time.Now().UnixMilli())
	if env.Success || env.Message != "User not found" {
		t.Fatalf("expected unknown-session failure, got %+v", env)
	}

	env = upload(t, srv, "s1", "img1", "reel", time.Now().UnixMilli())
	if env.Success || env.Message != "Upload failed" {
		t.Fatalf("expected type rejection, got %+v", env)
	}
}

func TestContentFlow(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "alice", "s1")
	register(t, srv, "bob", "s2")

	now := time.Now().UnixMilli()
	if env := upload(t, srv, "s1", "img1", models.TypePost, now-2000); !env.Success {
		t.Fatalf("upload img1: %+v", env)
	}
	if env := upload(t, srv, "s1", "img2", models.TypeStory, now-1000); !env.Success {
		t.Fatalf("upload img2: %+v", env)
	}
	if env := upload(t, srv, "s2", "img3", models.TypePost, now); !env.Success {
		t.Fatalf("upload img3: %+v", env)
	}

	env := getJSON(t, srv.URL+"/api/content")
	if !env.Success {
		t.Fatalf("list content: %+v", env)
	}
	var posts, stories []itemView
	if err := json.Unmarshal(env.Posts, &posts); err != nil {
		t.Fatalf("decode posts: %v", err)
	}
	if err := json.Unmarshal(env.Stories, &stories); err != nil {
		t.Fatalf("decode stories: %v", err)
	}
	if len(posts) != 2 || len(stories) != 1 {
		t.Fatalf("expected 2 posts / 1 story, got %d / %d", len(posts), len(stories))
	}
	// newest first across all users
	if posts[0].ImageID != "img3" || posts[1].ImageID != "img1" {
		t.Fatalf("posts not sorted newest first: %+v", posts)
	}
	if posts[0].Username != "bob" || posts[1].Username != "alice" {
		t.Fatalf("expected uploader usernames on the global listing: %+v", posts)
	}
	if stories[0].ImageID != "img2" || stories[0].Username != "alice" {
		t.Fatalf("unexpected story view: %+v", stories)
	}

	// own listing carries both types, no username
	env = getJSON(t, srv.URL+"/api/user-posts?sessionId=s1")
	if !env.Success {
		t.Fatalf("user-posts: %+v", env)
	}
	var own []itemView
	if err := json.Unmarshal(env.Posts, &own); err != nil {
		t.Fatalf("decode user posts: %v", err)
	}
	if len(own) != 2 {
		t.Fatalf("expected 2 own items, got %+v", own)
	}
	for _, it := range own {
		if it.Username != "" {
			t.Fatalf("own listing must not carry username: %+v", it)
		}
	}

	// delete-one, then verify it is gone
	denv := postJSON(t, srv.URL+"/api/delete", map[string]string{"sessionId": "s1", "imageId": "img1"})
	if !denv.Success || denv.Message != "Content deleted successfully" {
		t.Fatalf("delete: %+v", denv)
	}
	env = getJSON(t, srv.URL+"/api/content")
	if err := json.Unmarshal(env.Posts, &posts); err != nil {
		t.Fatalf("decode posts: %v", err)
	}
	if len(posts) != 1 || posts[0].ImageID != "img3" {
		t.Fatalf("expected img1 deleted, got %+v", posts)
	}

	// deleting an id that no longer exists is still a success
	denv = postJSON(t, srv.URL+"/api/delete", map[string]string{"sessionId": "s1", "imageId": "img1"})
	if !denv.Success {
		t.Fatalf("repeat delete should succeed: %+v", denv)
	}
}

func TestContentEmptyListsAreArrays(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/content")
	if err != nil {
		t.Fatalf("GET /api/content: %v", err)
	}
	defer resp.Body.Close()
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, field := range []string{"posts", "stories"} {
		if string(raw[field]) != "[]" {
			t.Fatalf("expected %s to be an empty array, got %s", field, raw[field])
		}
	}
}

func TestContentSweepsExpiredItems(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "alice", "s1")

	now := time.Now().UnixMilli()
	// write an already-expired item directly into the partition
	partition, err := store.EnsurePartition("alice")
	if err != nil {
		t.Fatalf("EnsurePartition: %v", err)
	}
	stale := models.ContentItem{
		ImageID:   "stale",
		Image:     "d",
		Type:      models.TypePost,
		Timestamp: now - (25 * time.Hour).Milliseconds(),
		Username:  "alice",
	}
	if err := store.SaveContent(partition, stale); err != nil {
		t.Fatalf("SaveContent: %v", err)
	}
	if env := upload(t, srv, "s1", "fresh", models.TypePost, now); !env.Success {
		t.Fatalf("upload fresh: %+v", env)
	}

	env := getJSON(t, srv.URL+"/api/content")
	var posts []itemView
	if err := json.Unmarshal(env.Posts, &posts); err != nil {
		t.Fatalf("decode posts: %v", err)
	}
	if len(posts) != 1 || posts[0].ImageID != "fresh" {
		t.Fatalf("expected the expired item swept on read, got %+v", posts)
	}
	// and it is gone from the store, not just filtered from the view
	items, err := store.ListContent(partition)
	if err != nil {
		t.Fatalf("ListContent: %v", err)
	}
	if len(items) != 1 || items[0].ImageID != "fresh" {
		t.Fatalf("expected stale item deleted, got %+v", items)
	}
}

func TestUserPostsValidation(t *testing.T) {
	srv := newTestServer(t)

	env := getJSON(t, srv.URL+"/api/user-posts")
	if env.Success || env.Message != "Session ID required" {
		t.Fatalf("expected missing-session failure, got %+v", env)
	}
	env = getJSON(t, srv.URL+"/api/user-posts?sessionId=ghost")
	if env.Success || env.Message != "User not found" {
		t.Fatalf("expected unknown-session failure, got %+v", env)
	}
}

func TestDeleteValidation(t *testing.T) {
	srv := newTestServer(t)

	env := postJSON(t, srv.URL+"/api/delete", map[string]string{"sessionId": "s1"})
	if env.Success || env.Message != "Session ID and image ID required" {
		t.Fatalf("expected validation failure, got %+v", env)
	}
	env = postJSON(t, srv.URL+"/api/delete", map[string]string{"sessionId": "ghost", "imageId": "x"})
	if env.Success || env.Message != "User not found" {
		t.Fatalf("expected unknown-session failure, got %+v", env)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	env := getJSON(t, srv.URL+"/api/health")
	if !env.Success || env.Message != "Server is running" {
		t.Fatalf("unexpected health response: %+v", env)
	}
}
