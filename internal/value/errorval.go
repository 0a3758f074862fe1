package value

import (
	"fmt"
	"strings"

	"ravm/internal/ident"
)

// Error is the first-class error value (spec §3.2), constructible
// directly or thrown via THROW. It carries the same structured fields
// internal/errors.RVMError carries at the Go level, so a caught error
// can be inspected from source (kind/position/message) or re-wrapped
// into a Go error when it escapes the engine uncaught.
type Error struct {
	id       ident.Identifier
	Kind     string
	Position string
	Line     string
	Messages []string
}

func NewError(kind, position, line string, messages []string) *Error {
	return &Error{id: ident.New(ident.CategoryInstance), Kind: kind, Position: position, Line: line, Messages: messages}
}

func (e *Error) TypeName() string            { return "error" }
func (e *Error) TypeID() ident.TypeIdentifier { return typeError }
func (e *Error) InstanceID() ident.Identifier { return e.id }

func (e *Error) ValueStr() string {
	return fmt.Sprintf("%s: %s", e.Kind, strings.Join(e.Messages, "; "))
}

func (e *Error) EscapedStr() string { return e.ValueStr() }
func (e *Error) ToBool() bool       { return true }

func (e *Error) Copy() Value {
	msgs := append([]string{}, e.Messages...)
	return NewError(e.Kind, e.Position, e.Line, msgs)
}

func (e *Error) UpdateFrom(other Value) bool {
	o, ok := other.(*Error)
	if !ok {
		return false
	}
	e.Kind, e.Position, e.Line = o.Kind, o.Position, o.Line
	e.Messages = append([]string{}, o.Messages...)
	return true
}

func (e *Error) Compare(other Value, relational Relational) (bool, error) {
	o, ok := other.(*Error)
	switch relational {
	case RT:
		return true, nil
	case RF:
		return false, nil
	case RE:
		return ok && e.Kind == o.Kind && e.ValueStr() == o.ValueStr(), nil
	case RNE:
		return !ok || e.Kind != o.Kind || e.ValueStr() != o.ValueStr(), nil
	}
	return false, errIncompatible("compare", "error", other.TypeName())
}
