package store

import "time"

// Request statuses.
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusAbandoned = "abandoned"
)

// RequestRecord is one journalled request to the editor.
type RequestRecord struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Command      string    `json:"command"`
	Script       string    `json:"script"` // redacted
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	LatencyMs    int       `json:"latency_ms"`
	Payloads     int       `json:"payloads"`
	ResponseSize int       `json:"response_size"`
	CreatedAt    time.Time `json:"created_at"`
}

// RequestFilter specifies query parameters for listing request records.
type RequestFilter struct {
	Command *string    `json:"command,omitempty"`
	Status  *string    `json:"status,omitempty"`
	After   *time.Time `json:"after,omitempty"`
	Before  *time.Time `json:"before,omitempty"`
	Limit   int        `json:"limit"`
	Offset  int        `json:"offset"`
}

// RequestStats holds aggregate statistics over request records.
type RequestStats struct {
	TotalRequests  int     `json:"total_requests"`
	SuccessCount   int     `json:"success_count"`
	ErrorCount     int     `json:"error_count"`
	AbandonedCount int     `json:"abandoned_count"`
	AvgLatencyMs   float64 `json:"avg_latency_ms"`
	BytesReceived  int64   `json:"bytes_received"`
}

// Export is an image sent from the editor into a host input.
type Export struct {
	ID        string    `json:"id"`
	Workflow  string    `json:"workflow"`
	Target    string    `json:"target"`
	Name      string    `json:"name"`
	MIME      string    `json:"mime"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Size      int       `json:"size"`
	Sealed    bool      `json:"sealed"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ExportFilter specifies query parameters for listing exports.
type ExportFilter struct {
	Workflow *string `json:"workflow,omitempty"`
	Target   *string `json:"target,omitempty"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
}
