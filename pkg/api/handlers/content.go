package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"snapfeed/internal/retention"
	"snapfeed/pkg/logger"
	"snapfeed/pkg/models"
	"snapfeed/pkg/store"
	"snapfeed/pkg/validation"
)

// RegisterContent registers the content store routes.
func RegisterContent(r *mux.Router) {
	r.HandleFunc("/api/upload", uploadContent).Methods(http.MethodPost)
	r.HandleFunc("/api/content", listAllContent).Methods(http.MethodGet)
	r.HandleFunc("/api/user-posts", listUserPosts).Methods(http.MethodGet)
	r.HandleFunc("/api/delete", deleteContent).Methods(http.MethodPost)
}

// uploadContent handles POST /api/upload: resolve the session, then append
// the item to the owner's partition.
func uploadContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
		ImageID   string `json:"imageId"`
		Image     string `json:"image"`
		Type      string `json:"type"`
		Timestamp int64  `json:"timestamp"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	if req.SessionID == "" || req.ImageID == "" || req.Image == "" || req.Type == "" || req.Timestamp == 0 {
		fail(w, "Missing required fields")
		return
	}

	user, err := store.FindUserBySession(req.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			fail(w, "User not found")
			return
		}
		logger.Error("upload_session_lookup_failed", "error", err)
		fail(w, "Upload failed")
		return
	}

	item := models.ContentItem{
		ImageID:   req.ImageID,
		Image:     req.Image,
		Type:      req.Type,
		Timestamp: req.Timestamp,
		SessionID: req.SessionID,
		Username:  user.Username,
	}
	if err := validation.ValidateContent(item); err != nil {
		logger.Warn("upload_invalid_content", "username", user.Username, "error", err)
		fail(w, "Upload failed")
		return
	}

	partition, err := store.EnsurePartition(user.Username)
	if err != nil {
		logger.Error("upload_partition_failed", "username", user.Username, "error", err)
		fail(w, "Upload failed")
		return
	}
	if err := store.SaveContent(partition, item); err != nil {
		logger.Error("upload_save_failed", "partition", partition, "error", err)
		fail(w, "Upload failed")
		return
	}

	ok(w, "Content uploaded successfully")
}

// listAllContent handles GET /api/content. A retention sweep is awaited
// first so a listing just before the hourly tick still honors the policy;
// then every user's partition is read, split by type and sorted newest
// first. A failure reading one partition is logged and skipped.
func listAllContent(w http.ResponseWriter, r *http.Request) {
	if err := retention.RunImmediate(); err != nil {
		logger.Error("content_sweep_failed", "error", err)
	}

	users, err := store.ListUsers()
	if err != nil {
		logger.Error("content_list_users_failed", "error", err)
		fail(w, "Failed to fetch content")
		return
	}

	posts := []ContentView{}
	stories := []ContentView{}
	for _, u := range users {
		partition := store.DerivePartitionName(u.Username)
		items, err := store.ListContent(partition)
		if err != nil {
			logger.Error("content_list_partition_failed", "partition", partition, "username", u.Username, "error", err)
			continue
		}
		for _, item := range items {
			view := ContentView{
				ImageID:   item.ImageID,
				Image:     item.Image,
				Type:      item.Type,
				Timestamp: item.Timestamp,
				Username:  u.Username,
			}
			switch item.Type {
			case models.TypePost:
				posts = append(posts, view)
			case models.TypeStory:
				stories = append(stories, view)
			}
		}
	}

	// newest first
	sort.Slice(posts, func(i, j int) bool { return posts[i].Timestamp > posts[j].Timestamp })
	sort.Slice(stories, func(i, j int) bool { return stories[i].Timestamp > stories[j].Timestamp })

	_ = jsonOK(w, struct {
		Success bool          `json:"success"`
		Posts   []ContentView `json:"posts"`
		Stories []ContentView `json:"stories"`
	}{Success: true, Posts: posts, Stories: stories})
}

// listUserPosts handles GET /api/user-posts: everything in the caller's own
// partition, posts and stories both, without the denormalized username.
func listUserPosts(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		fail(w, "Session ID required")
		return
	}

	user, err := store.FindUserBySession(sessionID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			fail(w, "User not found")
			return
		}
		logger.Error("user_posts_session_lookup_failed", "error", err)
		fail(w, "Failed to fetch posts")
		return
	}

	partition := store.DerivePartitionName(user.Username)
	items, err := store.ListContent(partition)
	if err != nil {
		logger.Error("user_posts_list_failed", "partition", partition, "error", err)
		fail(w, "Failed to fetch posts")
		return
	}

	posts := []ContentView{}
	for _, item := range items {
		posts = append(posts, ContentView{
			ImageID:   item.ImageID,
			Image:     item.Image,
			Type:      item.Type,
			Timestamp: item.Timestamp,
		})
	}

	_ = jsonOK(w, struct {
		Success bool          `json:"success"`
		Posts   []ContentView `json:"posts"`
	}{Success: true, Posts: posts})
}

// deleteContent handles POST /api/delete: delete-one by image id within the
// caller's partition. A missing image id is a successful no-op.
func deleteContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
		ImageID   string `json:"imageId"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	if req.SessionID == "" || req.ImageID == "" {
		fail(w, "Session ID and image ID required")
		return
	}

	user, err := store.FindUserBySession(req.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			fail(w, "User not found")
			return
		}
		logger.Error("delete_session_lookup_failed", "error", err)
		fail(w, "Failed to delete content")
		return
	}

	partition := store.DerivePartitionName(user.Username)
	if err := store.DeleteContentByImageID(partition, req.ImageID); err != nil {
		logger.Error("delete_failed", "partition", partition, "image_id", req.ImageID, "error", err)
		fail(w, "Failed to delete content")
		return
	}

	ok(w, "Content deleted successfully")
}
