package service

// Progress message types sent to a client's event stream
const (
	EventDiagnosisStarted   = "diagnosis_started"
	EventDiagnosisCached    = "diagnosis_cached"
	EventDiagnosisCompleted = "diagnosis_completed"
	EventDiagnosisFailed    = "diagnosis_failed"
)

// Broadcaster interface for WebSocket progress events (avoids import cycle)
type Broadcaster interface {
	SendToClient(clientID string, msgType string, payload interface{})
}

// ProgressEvent is the payload of every progress message
type ProgressEvent struct {
	RequestID string `json:"request_id,omitempty"`
	ImageHash string `json:"image_hash"`
	Language  string `json:"language"`
	Severity  string `json:"severity,omitempty"`
	Error     string `json:"error,omitempty"`
}
