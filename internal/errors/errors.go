// Package errors implements the VM's closed error-kind set (spec §7):
// a typed RVMError carrying a kind, position, source line, info/tip
// lines, and a front-first trace of frame descriptions, plus Go-level
// cause wrapping via github.com/pkg/errors so an OS/IO/driver failure
// stays inspectable (errors.Cause) without overloading Trace, which is
// reserved for VM frame descriptions.
package errors

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Kind is the VM's closed error-kind set.
type Kind string

const (
	SyntaxError    Kind = "SyntaxError"
	RuntimeError   Kind = "RuntimeError"
	IOError        Kind = "IOError"
	TypeError      Kind = "TypeError"
	ValueError     Kind = "ValueError"
	RangeError     Kind = "RangeError"
	IDError        Kind = "IDError"
	KeyError       Kind = "KeyError"
	FileError      Kind = "FileError"
	ArgumentError  Kind = "ArgumentError"
	MemoryError    Kind = "MemoryError"
	FieldError     Kind = "FieldError"
	RecursionError Kind = "RecursionError"
	LinkError      Kind = "LinkError"
	UnknownError   Kind = "UnknownError"
	CustomError    Kind = "CustomError"
)

var knownKinds = map[Kind]bool{
	SyntaxError: true, RuntimeError: true, IOError: true, TypeError: true,
	ValueError: true, RangeError: true, IDError: true, KeyError: true,
	FileError: true, ArgumentError: true, MemoryError: true, FieldError: true,
	RecursionError: true, LinkError: true, UnknownError: true, CustomError: true,
}

// RVMError is the Go-level carrier for a VM error (spec §7: "Each
// carries: kind-name, position string, source-line string, info
// lines, repair tips, and an ordered trace").
type RVMError struct {
	Kind     Kind
	Position string
	Source   string
	Info     []string
	Tips     []string
	Trace    []string // front-first: Trace[0] is the outermost frame
	cause    error
}

// New builds an RVMError with no position/source/cause attached yet;
// callers fill those in as the error crosses frame boundaries.
func New(kind Kind, info ...string) *RVMError {
	return &RVMError{Kind: kind, Info: info}
}

// Wrap builds an RVMError whose cause is a Go-level error (an OS
// failure, a closed fd, a driver error), preserving it via
// github.com/pkg/errors so errors.Cause(...) still recovers the
// original value and its stack.
func Wrap(kind Kind, cause error, info ...string) *RVMError {
	return &RVMError{Kind: kind, Info: info, cause: pkgerrors.WithStack(cause)}
}

func (e *RVMError) WithPosition(pos string) *RVMError {
	e.Position = pos
	return e
}

func (e *RVMError) WithSource(line string) *RVMError {
	e.Source = line
	return e
}

func (e *RVMError) WithTips(tips ...string) *RVMError {
	e.Tips = append(e.Tips, tips...)
	return e
}

// PushTrace prepends frame to e's trace, front-first, so printing the
// slice in order reads root-to-leaf (spec §4.8's Trace convention).
func (e *RVMError) PushTrace(frame string) *RVMError {
	e.Trace = append([]string{frame}, e.Trace...)
	return e
}

func (e *RVMError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	if len(e.Info) > 0 {
		sb.WriteString(": ")
		sb.WriteString(strings.Join(e.Info, "; "))
	}
	if e.Position != "" {
		fmt.Fprintf(&sb, " at %s", e.Position)
	}
	if e.cause != nil {
		fmt.Fprintf(&sb, ": %v", e.cause)
	}
	return sb.String()
}

// Unwrap exposes the wrapped Go-level cause, if any, to errors.Is/As
// and to github.com/pkg/errors.Cause.
func (e *RVMError) Unwrap() error { return e.cause }

// PushTraceOn prepends frame to err's trace if err is (or wraps) an
// *RVMError; otherwise it returns err unchanged. engine.RunSet calls
// this on every Errored status it passes out of an instruction set,
// building the ordered trace spec §7 requires without every call site
// needing to type-assert.
func PushTraceOn(err error, frame string) error {
	if rv, ok := AsRVMError(err); ok {
		rv.PushTrace(frame)
		return rv
	}
	return err
}

// AsRVMError recovers the *RVMError at the root of err's chain, if any.
func AsRVMError(err error) (*RVMError, bool) {
	for err != nil {
		if rv, ok := err.(*RVMError); ok {
			return rv, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// KindOf recovers an error's Kind. Most of the codebase predates this
// package and still raises plain errors via fmt.Errorf("Kind: msg",
// ...) — KindOf parses that leading "Kind:" token so those errors
// still render correctly through internal/diagnostic, without every
// call site needing to be migrated to New/Wrap.
func KindOf(err error) Kind {
	if err == nil {
		return UnknownError
	}
	if rv, ok := AsRVMError(err); ok {
		return rv.Kind
	}
	msg := err.Error()
	if i := strings.Index(msg, ":"); i > 0 {
		candidate := Kind(msg[:i])
		if knownKinds[candidate] {
			return candidate
		}
	}
	return UnknownError
}

// Normalize converts any error into an *RVMError, parsing a leading
// "Kind:" token from plain errors (see KindOf) and preserving the
// original error as the Go-level cause.
func Normalize(err error) *RVMError {
	if err == nil {
		return nil
	}
	if rv, ok := AsRVMError(err); ok {
		return rv
	}
	kind := KindOf(err)
	msg := err.Error()
	if i := strings.Index(msg, ":"); i > 0 && Kind(msg[:i]) == kind {
		msg = strings.TrimSpace(msg[i+1:])
	}
	return &RVMError{Kind: kind, Info: []string{msg}, cause: err}
}
