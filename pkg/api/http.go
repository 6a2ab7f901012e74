package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"snapfeed/pkg/api/handlers"
)

// Handler returns the API router with all /api endpoints registered:
// - POST /api/register: claim a username for a session id
// - POST /api/upload: store a post or story in the caller's partition
// - GET  /api/content: sweep, then list all posts and stories
// - GET  /api/user-posts?sessionId=<id>: list the caller's own items
// - POST /api/delete: delete one item by image id
// - GET  /api/health: static liveness check
func Handler() http.Handler {
	r := mux.NewRouter()
	handlers.RegisterAccounts(r)
	handlers.RegisterContent(r)
	handlers.RegisterHealth(r)
	return r
}
