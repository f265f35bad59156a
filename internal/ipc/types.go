package ipc

import "time"

// Event and status names used on the wire.
const (
	EventProgress = "progress"

	StatusReady   = "ready"
	StatusSuccess = "success"
	StatusError   = "error"

	// OperationInit labels errors raised before the operation is known.
	OperationInit = "init"
)

const timestampLayout = "2006-01-02T15:04:05.000000Z"

// ReadyEvent answers an empty request.
type ReadyEvent struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ProgressEvent reports a per-item transition. Index is 1-based.
type ProgressEvent struct {
	Event       string `json:"event"`
	Operation   string `json:"operation"`
	Status      string `json:"status"`
	Index       int    `json:"index"`
	Total       int    `json:"total"`
	File        string `json:"file"`
	Destination string `json:"destination"`
}

// ErrorBody is the machine-readable error payload.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Response is the terminal event.
type Response struct {
	Status        string     `json:"status"`
	Operation     string     `json:"operation"`
	OperationType string     `json:"operation_type"`
	Message       string     `json:"message"`
	Outputs       []string   `json:"outputs"`
	Data          any        `json:"data,omitempty"`
	Error         *ErrorBody `json:"error,omitempty"`
	Timestamp     string     `json:"timestamp"`
}

func timestamp(now time.Time) string {
	return now.UTC().Format(timestampLayout)
}
