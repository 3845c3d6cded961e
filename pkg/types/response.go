package types

// DataEnvelope wraps every 2xx body: {"data": ...}.
type DataEnvelope struct {
	Data any `json:"data"`
}

// ErrorBody is the client-facing error. RequestID echoes X-Request-Id so a
// support ticket can be matched to the server log entry.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// ErrorEnvelope wraps every non-2xx body: {"error": {...}}.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}
