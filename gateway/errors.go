package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// GenericMessage is shown when neither the payload nor the status tells us more.
	GenericMessage = "An unexpected error occurred"
	// NetworkMessage is shown when no response was received.
	NetworkMessage = "Network error. Please check your connection."
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Method string
	Path   string
	Status int
	// PayloadMessage is the message the server sent, empty when it sent none.
	PayloadMessage string
	Body           []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message())
}

// Message is the user-facing message: the server's message, or GenericMessage.
func (e *APIError) Message() string {
	if e.PayloadMessage != "" {
		return e.PayloadMessage
	}
	return GenericMessage
}

// NetworkError means the request never produced a response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// UserMessage derives the notification text for any gateway error.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	if IsNetwork(err) {
		return NetworkMessage
	}
	return GenericMessage
}

// payloadMessage extracts "message" (a string or a list of strings), falling
// back to "error".
func payloadMessage(body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if msg := rawText(payload.Message); msg != "" {
		return msg
	}
	return rawText(payload.Error)
}

func rawText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.TrimSpace(strings.Join(list, ", "))
	}
	return ""
}
