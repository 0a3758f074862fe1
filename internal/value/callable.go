package value

import (
	"fmt"

	"ravm/internal/ident"
)

// Param describes one formal parameter of a Function/ReturnFunction.
type Param struct {
	Name    string
	Default Value // nil if no default
}

// Body is an opaque reference to the callable's instruction set; the
// value package does not depend on internal/instruction to avoid an
// import cycle (engine depends on both value and instruction). Callers
// (internal/engine) type-assert Body back to *instruction.InstructionSet.
type Body interface{}

// Function is a callable that does not yield a value to the caller
// (spec §3.2); control returns via Return/Break/Continue semantics but
// no value flows back through SR unless the body opcodes choose to
// set it themselves.
type Function struct {
	id     ident.Identifier
	Name   string
	Params []Param
	Body   Body
}

func NewFunction(name string, params []Param, body Body) *Function {
	return &Function{id: ident.New(ident.CategoryInstance), Name: name, Params: params, Body: body}
}

func (f *Function) TypeName() string            { return "func" }
func (f *Function) TypeID() ident.TypeIdentifier { return typeFunc }
func (f *Function) InstanceID() ident.Identifier { return f.id }
func (f *Function) ValueStr() string             { return fmt.Sprintf("<func %s/%d>", f.Name, len(f.Params)) }
func (f *Function) EscapedStr() string           { return f.ValueStr() }
func (f *Function) ToBool() bool                 { return true }
func (f *Function) Copy() Value                  { return NewFunction(f.Name, f.Params, f.Body) }

func (f *Function) UpdateFrom(other Value) bool {
	o, ok := other.(*Function)
	if !ok {
		return false
	}
	f.Name, f.Params, f.Body = o.Name, o.Params, o.Body
	return true
}

func (f *Function) Compare(other Value, relational Relational) (bool, error) {
	o, ok := other.(*Function)
	switch relational {
	case RT:
		return true, nil
	case RF:
		return false, nil
	case RE:
		return ok && f.id.Equal(o.id), nil
	case RNE:
		return !ok || !f.id.Equal(o.id), nil
	}
	return false, errIncompatible("compare", "func", other.TypeName())
}

// ReturnFunction is a callable that yields a value to the caller (spec §3.2).
type ReturnFunction struct {
	id     ident.Identifier
	Name   string
	Params []Param
	Body   Body
}

func NewReturnFunction(name string, params []Param, body Body) *ReturnFunction {
	return &ReturnFunction{id: ident.New(ident.CategoryInstance), Name: name, Params: params, Body: body}
}

func (f *ReturnFunction) TypeName() string            { return "ret_func" }
func (f *ReturnFunction) TypeID() ident.TypeIdentifier { return typeRetFunc }
func (f *ReturnFunction) InstanceID() ident.Identifier { return f.id }
func (f *ReturnFunction) ValueStr() string {
	return fmt.Sprintf("<ret_func %s/%d>", f.Name, len(f.Params))
}
func (f *ReturnFunction) EscapedStr() string { return f.ValueStr() }
func (f *ReturnFunction) ToBool() bool       { return true }
func (f *ReturnFunction) Copy() Value        { return NewReturnFunction(f.Name, f.Params, f.Body) }

func (f *ReturnFunction) UpdateFrom(other Value) bool {
	o, ok := other.(*ReturnFunction)
	if !ok {
		return false
	}
	f.Name, f.Params, f.Body = o.Name, o.Params, o.Body
	return true
}

func (f *ReturnFunction) Compare(other Value, relational Relational) (bool, error) {
	o, ok := other.(*ReturnFunction)
	switch relational {
	case RT:
		return true, nil
	case RF:
		return false, nil
	case RE:
		return ok && f.id.Equal(o.id), nil
	case RNE:
		return !ok || !f.id.Equal(o.id), nil
	}
	return false, errIncompatible("compare", "ret_func", other.TypeName())
}
