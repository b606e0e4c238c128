package entry

import (
	"errors"
	"fmt"
	"strings"
)

// Construction errors. They indicate a defect in the instruction-set
// description and are never patched around.
var (
	ErrAmbiguousEncoding  = errors.New("ambiguous encoding")
	ErrIncompleteCoverage = errors.New("incomplete coverage")
	ErrMalformedExclusion = errors.New("malformed exclusion")
	ErrUnsupportedInput   = errors.New("unsupported input")
	ErrBudgetExceeded     = errors.New("budget exceeded")
)

// Error is a construction error that names the entries involved.
type Error struct {
	Kind    error
	Entries []*DecodeEntry
	Detail  string
}

// NewError creates an error of the given kind.
func NewError(kind error, detail string, entries ...*DecodeEntry) *Error {
	return &Error{Kind: kind, Entries: entries, Detail: detail}
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if len(e.Entries) > 0 {
		sb.WriteString(" [")
		sb.WriteString(strings.Join(Names(e.Entries), ", "))
		sb.WriteString("]")
	}
	return sb.String()
}

// Unwrap returns the sentinel kind so errors.Is matches it.
func (e *Error) Unwrap() error {
	return e.Kind
}

// Names returns the names of the entries in order.
func Names(entries []*DecodeEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names
}

// Entries extracts the offending entries from a construction error chain.
func Entries(err error) []*DecodeEntry {
	var e *Error
	if errors.As(err, &e) {
		return e.Entries
	}
	return nil
}

func errorf(kind error, entries []*DecodeEntry, format string, args ...any) *Error {
	return NewError(kind, fmt.Sprintf(format, args...), entries...)
}
