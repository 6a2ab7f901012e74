package models

// Content type values accepted on upload.
const (
	TypePost  = "post"
	TypeStory = "story"
)

// ContentItem is one uploaded post or story. The image payload is carried
// as an opaque encoded string (typically base64) and never inspected.
type ContentItem struct {
	ImageID string `json:"imageId"`
	Image   string `json:"image"`
	Type    string `json:"type"`
	// Timestamp is the caller-supplied creation time in epoch milliseconds.
	Timestamp int64  `json:"timestamp"`
	SessionID string `json:"sessionId,omitempty"`
	// Username is denormalized into read results so listings carry the owner.
	Username string `json:"username,omitempty"`
}

// PartitionInfo is the registry record for one per-user content partition.
// It keeps the owning username next to the derived partition name so a
// derivation collision between two usernames is at least observable.
type PartitionInfo struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	// CreatedTS is the provisioning time in epoch milliseconds.
	CreatedTS int64 `json:"created_ts,omitempty"`
}
