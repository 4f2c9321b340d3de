// package shared defines shared helpers
package shared

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]. Standard output is reserved for command results.
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// GenerateState returns an opaque OAuth state token.
func GenerateState() string {
	return strings.ReplaceAll(GenerateID(), "-", "")
}

// MarshalJSON encodes data, indenting with two spaces when pretty is set.
//
// HTML characters such as & and < are written as is.
func MarshalJSON(data any, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}

	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// NormalizeCookie turns a credential into a Cookie header value.
//
// A bare value without any "name=value" pair is treated as Bandcamp's identity cookie.
func NormalizeCookie(cookie string) string {
	cookie = strings.TrimSpace(cookie)
	if cookie == "" || strings.Contains(cookie, "=") {
		return cookie
	}
	return "identity=" + cookie
}
