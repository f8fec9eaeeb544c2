// Package diag holds the error taxonomy and warning sink shared by every
// pass of the backend. There is no logging library in play: diagnostics are
// plain io.Writer sinks threaded explicitly through the pipeline.
package diag

import (
	"errors"
	"fmt"
	"io"
)

// Kind identifies a class of hard error, independent of the object or pass
// that raised it.
type Kind int

const (
	KindConstruction Kind = iota
	KindDuplicateName
	KindNotFound
	KindUnnamed
	KindInvalidStorageClass
	KindInvalidMode
	KindInvalidWidth
	KindEmptyRoutine
	KindEmptyBlock
	KindUnknownOpcode
	KindBadCast
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindConstruction:
		return "ConstructionError"
	case KindDuplicateName:
		return "DuplicateName"
	case KindNotFound:
		return "NotFound"
	case KindUnnamed:
		return "Unnamed"
	case KindInvalidStorageClass:
		return "InvalidStorageClass"
	case KindInvalidMode:
		return "InvalidMode"
	case KindInvalidWidth:
		return "InvalidWidth"
	case KindEmptyRoutine:
		return "EmptyRoutine"
	case KindEmptyBlock:
		return "EmptyBlock"
	case KindUnknownOpcode:
		return "UnknownOpcode"
	case KindBadCast:
		return "BadCast"
	default:
		return "InternalError"
	}
}

// Error is a structured failure surfaced from the top-level entry point.
// It names the pass and the offending object so a caller can report both
// without re-deriving them from a plain error string.
type Error struct {
	Kind   Kind
	Pass   string
	Object string
	msg    string
	err    error
}

func (e *Error) Error() string {
	loc := e.Pass
	if e.Object != "" {
		loc = fmt.Sprintf("%s: %s", e.Pass, e.Object)
	}
	if e.msg != "" {
		return fmt.Sprintf("%s: %s: %s", loc, e.Kind, e.msg)
	}
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", loc, e.Kind, e.err)
	}
	return fmt.Sprintf("%s: %s", loc, e.Kind)
}

func (e *Error) Unwrap() error { return e.err }

// New builds a hard error with a formatted message.
func New(kind Kind, pass, object, format string, args ...any) *Error {
	return &Error{Kind: kind, Pass: pass, Object: object, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches pass/object context to an underlying error.
func Wrap(kind Kind, pass, object string, err error) *Error {
	return &Error{Kind: kind, Pass: pass, Object: object, err: err}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Sink carries the warning and trace writers for one compilation. Warnings
// are reported but never abort the pipeline; -q silences them.
type Sink struct {
	Warn  io.Writer
	Trace io.Writer // optional .dbg trace writer; nil when -d is not set
	Quiet bool

	warnings int
}

// NewSink builds a Sink. warn may be io.Discard; trace may be nil.
func NewSink(warn, trace io.Writer, quiet bool) *Sink {
	return &Sink{Warn: warn, Trace: trace, Quiet: quiet}
}

// Warnf reports a non-fatal diagnostic. It never returns an error.
func (s *Sink) Warnf(pass, object, format string, args ...any) {
	s.warnings++
	if s.Quiet || s.Warn == nil {
		return
	}
	loc := pass
	if object != "" {
		loc = fmt.Sprintf("%s: %s", pass, object)
	}
	fmt.Fprintf(s.Warn, "warning: %s: %s\n", loc, fmt.Sprintf(format, args...))
}

// Tracef writes one line to the debug trace, if one was requested.
func (s *Sink) Tracef(format string, args ...any) {
	if s.Trace == nil {
		return
	}
	fmt.Fprintf(s.Trace, format+"\n", args...)
}

// Warnings reports how many warnings have been issued so far.
func (s *Sink) Warnings() int { return s.warnings }
