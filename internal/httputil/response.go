package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// Envelope is the uniform wrapper every API response is nested inside.
// The HTTP status code is mirrored in the body.
type Envelope struct {
	JSONData any    `json:"json_data"`
	Success  bool   `json:"success"`
	Status   int    `json:"status"`
	Message  string `json:"message"`
}

// ValidationEnvelope is the 422 shape for field-level validation failures.
// It carries a plural "messages" object keyed by field instead of the
// singular "message" string; API consumers rely on this asymmetry.
type ValidationEnvelope struct {
	JSONData any               `json:"json_data"`
	Success  bool              `json:"success"`
	Status   int               `json:"status"`
	Messages map[string]string `json:"messages"`
}

// WithSuccess sends a success envelope with HTTP 200.
func WithSuccess(w http.ResponseWriter, data any, message string) {
	respond(w, Envelope{
		JSONData: orEmpty(data),
		Success:  true,
		Status:   http.StatusOK,
		Message:  message,
	}, http.StatusOK)
}

// WithError sends an error envelope with HTTP 400.
func WithError(w http.ResponseWriter, message string) {
	WithErrorStatus(w, message, http.StatusBadRequest)
}

// WithErrorStatus sends an error envelope with the given status code.
func WithErrorStatus(w http.ResponseWriter, message string, status int) {
	respond(w, Envelope{
		JSONData: orEmpty(nil),
		Success:  false,
		Status:   status,
		Message:  message,
	}, status)
}

// WithValidationError sends the field-keyed 422 envelope.
func WithValidationError(w http.ResponseWriter, messages map[string]string) {
	respond(w, ValidationEnvelope{
		JSONData: orEmpty(nil),
		Success:  false,
		Status:   http.StatusUnprocessableEntity,
		Messages: messages,
	}, http.StatusUnprocessableEntity)
}

// RespondJSON writes an arbitrary JSON body, bypassing the envelope.
// Only operational endpoints (health) use this.
func RespondJSON(w http.ResponseWriter, body any, status int) {
	respond(w, body, status)
}

func respond(w http.ResponseWriter, body any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// orEmpty keeps json_data an object ({}) rather than null when there is
// no payload.
func orEmpty(data any) any {
	if data == nil {
		return struct{}{}
	}
	return data
}
