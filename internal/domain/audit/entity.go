package audit

import "time"

// Event records the outcome of one analyze request. It never carries image
// bytes or caption text.
type Event struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	StatusCode int       `json:"status_code"`
	ErrorClass string    `json:"error_class,omitempty"` // empty on success
	Fallback   bool      `json:"fallback"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
