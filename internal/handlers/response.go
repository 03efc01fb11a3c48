package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/AnshRaj112/travelstory-backend/internal/services"
)

const maxJSONBody = 1 << 20

// MessageResponse is the envelope shared by every response.
type MessageResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️  Failed to write response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, isError bool, message string) {
	writeJSON(w, status, MessageResponse{Error: isError, Message: message})
}

// writeError maps service errors onto status codes. Unknown errors are
// logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		writeMessage(w, statusFor(svcErr.Kind), true, svcErr.Message)
		return
	}
	if errors.Is(err, services.ErrUnauthorized) {
		writeMessage(w, http.StatusUnauthorized, true, "Unauthorized")
		return
	}
	log.Printf("❌ %s %s: %v", r.Method, r.URL.Path, err)
	writeMessage(w, http.StatusInternalServerError, true, "Internal Server Error")
}

func statusFor(kind error) int {
	switch kind {
	case services.ErrValidation, services.ErrConflict:
		return http.StatusBadRequest
	case services.ErrAuth, services.ErrUnauthorized:
		return http.StatusUnauthorized
	case services.ErrNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a single JSON object, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, true, decodeMessage(err))
		return false
	}
	if dec.More() {
		writeMessage(w, http.StatusBadRequest, true, "Invalid request body: unexpected data after JSON object")
		return false
	}
	return true
}

func decodeMessage(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return "Request body too large"
	case errors.As(err, &syntaxErr):
		return "Invalid request body: malformed JSON"
	case errors.As(err, &typeErr):
		return fmt.Sprintf("Invalid request body: %s has the wrong type", typeErr.Field)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return "Invalid request body: unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	}
	var fieldErr *fieldError
	if errors.As(err, &fieldErr) {
		return fieldErr.Error()
	}
	return "Invalid request body"
}

type fieldError struct {
	msg string
}

func (e *fieldError) Error() string {
	return e.msg
}

// EpochMillis accepts epoch milliseconds as a JSON number or a numeric
// string. An empty string counts as absent.
type EpochMillis struct {
	Value int64
	Set   bool
}

func (m *EpochMillis) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return &fieldError{msg: "visitedDate must be epoch milliseconds"}
		}
		s = strings.TrimSpace(unquoted)
		if s == "" {
			return nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		m.Value, m.Set = n, true
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return &fieldError{msg: "visitedDate must be epoch milliseconds"}
	}
	m.Value, m.Set = int64(f), true
	return nil
}

func (m EpochMillis) ptr() *int64 {
	if !m.Set {
		return nil
	}
	v := m.Value
	return &v
}
