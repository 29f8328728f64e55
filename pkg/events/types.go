// Package events defines the dispatch event emitted for every delegation attempt and its publishers.
package events

// DispatchEvent records one delegation attempt and its outcome.
type DispatchEvent struct {
	RequestID  string                 `json:"requestId"`
	Agent      string                 `json:"agent"`
	Tool       string                 `json:"tool"`
	Args       map[string]interface{} `json:"args,omitempty"`
	Transport  string                 `json:"transport,omitempty"`
	Endpoint   string                 `json:"endpoint,omitempty"`
	Status     string                 `json:"status"`
	Code       string                 `json:"code,omitempty"`
	Message    string                 `json:"message,omitempty"`
	DurationMs int64                  `json:"durationMs"`
	Timestamp  string                 `json:"timestamp"`
}
