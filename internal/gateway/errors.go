package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Every *Error matches exactly one of these with errors.Is.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrProtocol       = errors.New("unexpected response")
	ErrTransient      = errors.New("service temporarily unavailable")
)

// ErrCircuitOpen is wrapped by transient errors returned without contacting the service.
var ErrCircuitOpen = errors.New("circuit open")

// Error is returned by every gateway operation.
type Error struct {
	Kind    error               // one of the Err* kinds above
	Op      string              // gateway operation, e.g. "getAnalysis"
	Status  int                 // HTTP status, 0 when no response was received
	Message string              // server-provided message, if any
	Fields  map[string][]string // field-level validation messages
	Err     error               // underlying cause, if any
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	sb.WriteString(": ")
	sb.WriteString(e.Kind.Error())
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	} else if len(e.Fields) > 0 {
		sb.WriteString(": ")
		sb.WriteString(e.fieldSummary())
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func (e *Error) fieldSummary() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return strings.Join(parts, "; ")
}

// FieldErrors returns the field-level messages carried by err, if any.
func FieldErrors(err error) map[string][]string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Fields
	}
	return nil
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Status
	}
	return 0
}

// Detail returns the most specific text err carries: the server message,
// else its field messages, else "".
func Detail(err error) string {
	var ge *Error
	if !errors.As(err, &ge) {
		return ""
	}
	if ge.Message != "" {
		return ge.Message
	}
	return ge.fieldSummary()
}

// Validation builds a local validation error (no request was made).
func Validation(op, field, msg string) *Error {
	return &Error{
		Kind:    ErrValidation,
		Op:      op,
		Message: msg,
		Fields:  map[string][]string{field: {msg}},
	}
}

func kindForStatus(status int) error {
	switch {
	case status == 401 || status == 403:
		return ErrAuthentication
	case status == 404:
		return ErrNotFound
	case status == 400 || status == 409 || status == 422:
		return ErrValidation
	case status == 429 || status >= 500:
		return ErrTransient
	default:
		return ErrProtocol
	}
}

// messageKeys are the top-level keys that carry a human-readable message, in
// the order they win when a body has several.
var messageKeys = []string{"error", "detail", "message", "non_field_errors"}

// parseErrorBody extracts a message and field errors from the service's error
// documents: {"error": "..."}, {"detail": "..."}, {"message": "..."},
// {"errors": [...]}, {"non_field_errors": [...]} or {"<field>": ["..."]}.
func parseErrorBody(body []byte) (string, map[string][]string) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return strings.TrimSpace(truncate(string(body), 200)), nil
	}

	fields := make(map[string][]string)
	for k, raw := range doc {
		switch k {
		case "error", "detail", "message":
			continue
		}
		if vals := decodeMessages(raw); len(vals) > 0 {
			fields[k] = vals
		}
	}

	var msg string
	for _, k := range messageKeys {
		if vals := decodeMessages(doc[k]); len(vals) > 0 {
			msg = vals[0]
			break
		}
	}
	if len(fields) == 0 {
		fields = nil
	}
	return msg, fields
}

func decodeMessages(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, v := range list {
			switch x := v.(type) {
			case string:
				out = append(out, x)
			default:
				b, _ := json.Marshal(x)
				out = append(out, string(b))
			}
		}
		return out
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func protocolError(op string, status int, err error) *Error {
	return &Error{Kind: ErrProtocol, Op: op, Status: status, Err: fmt.Errorf("decode: %w", err)}
}
