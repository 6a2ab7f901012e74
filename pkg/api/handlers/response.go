package handlers

import (
	"net/http"

	"snapfeed/pkg/utils"
)

// Every endpoint answers HTTP 200 with a success flag in the body; failures
// are carried in the envelope, never in the status code. Existing clients
// rely on this.

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ContentView is the read shape of a content item. Username is set on
// global listings and omitted from the caller's own listing.
type ContentView struct {
	ImageID   string `json:"imageId"`
	Image     string `json:"image"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Username  string `json:"username,omitempty"`
}

func jsonOK(w http.ResponseWriter, v interface{}) error {
	return utils.JSONWrite(w, http.StatusOK, v)
}

func ok(w http.ResponseWriter, message string) {
	_ = utils.JSONWrite(w, http.StatusOK, statusResponse{Success: true, Message: message})
}

func fail(w http.ResponseWriter, message string) {
	_ = utils.JSONWrite(w, http.StatusOK, statusResponse{Success: false, Message: message})
}
