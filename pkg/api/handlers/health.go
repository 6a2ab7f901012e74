package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterHealth registers the static liveness route.
func RegisterHealth(r *mux.Router) {
	r.HandleFunc("/api/health", health).Methods(http.MethodGet)
}

func health(w http.ResponseWriter, r *http.Request) {
	ok(w, "Server is running")
}
