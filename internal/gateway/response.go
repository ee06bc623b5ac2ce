package gateway

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/wardensec/warden/internal/log"
)

// errorBody is the wire shape of a gateway error.
type errorBody struct {
	Message   string `json:"message"`
	Code      string `json:"code"`
	Status    int    `json:"status"`
	Component string `json:"component,omitempty"`
}

// errorEnvelope wraps errorBody under the fixed "error" key.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
// Uses buffer-first strategy to ensure headers are only sent after successful
// encoding. This allows returning a proper 500 error if encoding fails.
func writeJSON(w http.ResponseWriter, status int, data any, logger log.Logger) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		logger.Error("encoding JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Client disconnects are common and expected.
		logger.Debug("writing response body", "error", err)
	}
}

// writeError renders an *Error as the fixed error envelope. Rate-limit
// errors additionally carry a Retry-After header (whole seconds, rounded up).
func writeError(w http.ResponseWriter, gerr *Error, logger log.Logger) {
	if gerr.RetryAfter > 0 {
		secs := int(math.Ceil(gerr.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	writeJSON(w, gerr.Status, errorEnvelope{Error: errorBody{
		Message:   gerr.Message,
		Code:      gerr.Code,
		Status:    gerr.Status,
		Component: gerr.Component,
	}}, logger)
}
