package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Failure kinds. Match them with errors.Is.
var (
	ErrNetwork = errors.New("network failure")
	ErrStatus  = errors.New("unexpected status")
	ErrDecode  = errors.New("malformed response body")
)

// Error is returned for every failed backend call.
type Error struct {
	Method     string
	Path       string
	StatusCode int    // zero unless Kind is ErrStatus or ErrDecode
	Message    string // server-provided message for ErrStatus, if any
	Kind       error
	Err        error // underlying cause, may be nil
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %v", e.Method, e.Path, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.StatusCode == http.StatusUnauthorized
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var te *Error
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}

const maxMessageLen = 200

// errorMessage extracts a human-readable message from an error body.
// The backend answers with {"message": ...} or {"mensagem": ...}; anything else is
// returned as trimmed text.
func errorMessage(body []byte) string {
	var structured map[string]any
	if err := json.Unmarshal(body, &structured); err == nil {
		for _, key := range []string{"message", "mensagem", "error", "erro"} {
			if s, ok := structured[key].(string); ok && s != "" {
				return s
			}
		}
	}
	msg := strings.TrimSpace(string(body))
	return truncate(msg, maxMessageLen)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
