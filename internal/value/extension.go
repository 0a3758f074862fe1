package value

import (
	"fmt"

	"ravm/internal/ident"
)

// Extension is a loaded external module (spec §3.2): identified by an
// identifier string (see SPEC_FULL.md §4.2b — generated with
// google/uuid at load time, not the process Identifier counter) and a
// path, owning a set of exported bindings.
//
// Extension stores its exports as a plain name→Value map rather than a
// *scope.Scope, to avoid value↔scope import cycle (scope depends on
// value, not the reverse). No scope.Scope is built from Exports: GET_AT
// and `@` access read them from this map, and the scope an EXT block
// pushes starts empty.
type Extension struct {
	id         ident.Identifier
	IdentStr   string
	Path       string
	Exports    map[string]Value
}

func NewExtension(identStr, path string) *Extension {
	return &Extension{
		id:       ident.New(ident.CategoryInstance),
		IdentStr: identStr,
		Path:     path,
		Exports:  make(map[string]Value),
	}
}

func (e *Extension) TypeName() string            { return "extension" }
func (e *Extension) TypeID() ident.TypeIdentifier { return typeExtension }
func (e *Extension) InstanceID() ident.Identifier { return e.id }
func (e *Extension) ValueStr() string             { return fmt.Sprintf("<extension %s %s>", e.IdentStr, e.Path) }
func (e *Extension) EscapedStr() string           { return e.ValueStr() }
func (e *Extension) ToBool() bool                 { return true }

func (e *Extension) Copy() Value {
	cp := NewExtension(e.IdentStr, e.Path)
	for k, v := range e.Exports {
		cp.Exports[k] = v
	}
	return cp
}

func (e *Extension) UpdateFrom(other Value) bool {
	o, ok := other.(*Extension)
	if !ok {
		return false
	}
	e.IdentStr, e.Path, e.Exports = o.IdentStr, o.Path, o.Exports
	return true
}

func (e *Extension) Compare(other Value, relational Relational) (bool, error) {
	o, ok := other.(*Extension)
	switch relational {
	case RT:
		return true, nil
	case RF:
		return false, nil
	case RE:
		return ok && e.IdentStr == o.IdentStr, nil
	case RNE:
		return !ok || e.IdentStr != o.IdentStr, nil
	}
	return false, errIncompatible("compare", "extension", other.TypeName())
}
