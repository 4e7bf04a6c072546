package service

// Session event types pushed to WebSocket subscribers
const (
	EventSessionUpdated    = "session_updated"
	EventSubmissionStarted = "submission_started"
	EventPromptReady       = "prompt_ready"
	EventSubmissionFailed  = "submission_failed"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToSession(sessionID string, msgType string, payload interface{})
}
