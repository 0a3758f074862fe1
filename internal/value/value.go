// Package value implements RVM's tagged-variant value model (spec §3.2,
// §4.2). Every value is a closed sum dispatched by type switch — never
// an open class hierarchy (spec §9 "Dynamic dispatch on value kind").
package value

import (
	"fmt"

	"ravm/internal/ident"
)

// Relational enumerates the comparison/combination relations values
// support through Compare (spec §4.2).
type Relational int

const (
	RG  Relational = iota // greater
	RGE                   // greater-or-equal
	RNE                   // not-equal
	RE                    // equal
	RAE                   // approximately-equal (kept for Float tolerance)
	RLE                   // less-or-equal
	RL                    // less
	RT                    // unary truth
	RF                    // unary falsity
	AND                   // boolean AND of truthiness
	OR                    // boolean OR of truthiness
)

func (r Relational) String() string {
	switch r {
	case RG:
		return "RG"
	case RGE:
		return "RGE"
	case RNE:
		return "RNE"
	case RE:
		return "RE"
	case RAE:
		return "RAE"
	case RLE:
		return "RLE"
	case RL:
		return "RL"
	case RT:
		return "RT"
	case RF:
		return "RF"
	case AND:
		return "AND"
	case OR:
		return "OR"
	default:
		return "R?"
	}
}

// Value is the uniform contract every variant implements (spec §4.2).
type Value interface {
	// TypeName is the human-readable type name ("int", "list", ...).
	TypeName() string
	// TypeID is the stable type identifier for this value's type.
	TypeID() ident.TypeIdentifier
	// InstanceID is the identity assigned at construction, used for
	// identity comparisons and debug display.
	InstanceID() ident.Identifier
	// ValueStr is the value's display string.
	ValueStr() string
	// EscapedStr is the value's string form with escape sequences
	// applied where relevant (used as the Dict key-stringification
	// rule, spec §4.2).
	EscapedStr() string
	// ToBool reports this value's truthiness.
	ToBool() bool
	// Copy returns a structural shallow clone: children are shared,
	// not deep-copied.
	Copy() Value
	// UpdateFrom replaces this value's contents in place from other,
	// if other is the same type or coercible; returns false (and
	// leaves the receiver unchanged) otherwise.
	UpdateFrom(other Value) bool
	// Compare evaluates a Relational between this value and other.
	Compare(other Value, relational Relational) (bool, error)
}

// registry of well-known, process-wide type identifiers for the built-in
// kinds. These are created once, at package init, so that repeated
// TypeID() calls for e.g. every Int return the *same* TypeIdentifier
// (spec: TypeId carries a stable cross-module identity string).
var (
	typeNull      = ident.NewType("null", nil)
	typeInt       = ident.NewType("int", nil)
	typeFloat     = ident.NewType("float", nil)
	typeBool      = ident.NewType("bool", nil)
	typeChar      = ident.NewType("char", nil)
	typeString    = ident.NewType("str", nil)
	typeList      = ident.NewType("list", nil)
	typeDict      = ident.NewType("dict", nil)
	typeSeries    = ident.NewType("series", nil)
	typePair      = ident.NewType("pair", nil)
	typeGroup     = ident.NewType("compare_group", nil)
	typeFunc      = ident.NewType("func", nil)
	typeRetFunc   = ident.NewType("ret_func", nil)
	typeQuote     = ident.NewType("qot", nil)
	typeFile      = ident.NewType("file", nil)
	typeTime      = ident.NewType("time", nil)
	typeError     = ident.NewType("error", nil)
	typeExtension = ident.NewType("extension", nil)
	typeCustom    = ident.NewType("custom_type", nil)
	typeCustomI   = ident.NewType("custom_inst", nil)
)

// BuiltinTypeBindings returns the preset `tp-*` global bindings spec
// §6.3 requires: one binding per built-in type whose value is the
// stringified type id.
func BuiltinTypeBindings() map[string]string {
	return map[string]string{
		"tp-int":    typeInt.IdentityString(),
		"tp-float":  typeFloat.IdentityString(),
		"tp-char":   typeChar.IdentityString(),
		"tp-bool":   typeBool.IdentityString(),
		"tp-str":    typeString.IdentityString(),
		"tp-null":   typeNull.IdentityString(),
		"tp-list":   typeList.IdentityString(),
		"tp-dict":   typeDict.IdentityString(),
		"tp-series": typeSeries.IdentityString(),
		"tp-pair":   typePair.IdentityString(),
		"tp-time":   typeTime.IdentityString(),
		"tp-error":  typeError.IdentityString(),
		"tp-qot":    typeQuote.IdentityString(),
		"tp-file":   typeFile.IdentityString(),
	}
}

// errIncompatible is the shared error shape for a failed UpdateFrom or
// Compare across incompatible variants.
func errIncompatible(op, selfType, otherType string) error {
	return fmt.Errorf("TypeError: cannot %s %s with %s", op, selfType, otherType)
}

// ----------------------------------------------------------------------
// Null

// Null is the unit value. Truthy-false per spec §3.2.
type Null struct {
	id ident.Identifier
}

// NewNull constructs a fresh Null value.
func NewNull() *Null { return &Null{id: ident.New(ident.CategoryInstance)} }

func (n *Null) TypeName() string               { return "null" }
func (n *Null) TypeID() ident.TypeIdentifier    { return typeNull }
func (n *Null) InstanceID() ident.Identifier    { return n.id }
func (n *Null) ValueStr() string                { return "null" }
func (n *Null) EscapedStr() string              { return "null" }
func (n *Null) ToBool() bool                    { return false }
func (n *Null) Copy() Value                     { return NewNull() }

func (n *Null) UpdateFrom(other Value) bool {
	_, ok := other.(*Null)
	return ok
}

func (n *Null) Compare(other Value, relational Relational) (bool, error) {
	_, ok := other.(*Null)
	switch relational {
	case RE:
		return ok, nil
	case RNE:
		return !ok, nil
	case RT:
		return n.ToBool(), nil
	case RF:
		return !n.ToBool(), nil
	case AND:
		return n.ToBool() && other.ToBool(), nil
	case OR:
		return n.ToBool() || other.ToBool(), nil
	default:
		return false, errIncompatible(relational.String(), "null", other.TypeName())
	}
}
