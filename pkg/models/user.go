package models

// User maps a registered username to the session identifier issued at
// registration. The session id is a bearer credential; it is not required
// to be unique across users.
type User struct {
	Username  string `json:"username"`
	SessionID string `json:"sessionId"`
	// CreatedAt is the registration time in epoch milliseconds.
	CreatedAt int64 `json:"createdAt,omitempty"`
}
