package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"snapfeed/pkg/logger"
	"snapfeed/pkg/models"
	"snapfeed/pkg/store"
)

// RegisterAccounts registers the identity registry routes.
func RegisterAccounts(r *mux.Router) {
	r.HandleFunc("/api/register", registerAccount).Methods(http.MethodPost)
}

// registerAccount handles POST /api/register. Usernames are case-normalized
// to lowercase; the session id becomes the bearer credential for every
// later call. The caller's content partition is provisioned eagerly.
func registerAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username"`
		SessionID string `json:"sessionId"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.SessionID) == "" {
		fail(w, "Username and session ID required")
		return
	}

	u := models.User{
		Username:  strings.ToLower(req.Username),
		SessionID: req.SessionID,
		CreatedAt: time.Now().UTC().UnixMilli(),
	}
	if err := store.CreateUser(u); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			fail(w, "Username already taken")
			return
		}
		logger.Error("registration_failed", "username", u.Username, "error", err)
		fail(w, "Registration failed")
		return
	}

	// Eager partition provisioning; content is only written on first upload.
	if _, err := store.EnsurePartition(u.Username); err != nil {
		logger.Error("partition_provision_failed", "username", u.Username, "error", err)
	}

	ok(w, "Username registered successfully")
}
