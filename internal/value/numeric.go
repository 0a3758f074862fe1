package value

import (
	"fmt"
	"math"
	"strconv"

	"ravm/internal/ident"
)

// Numeric is implemented by every numeric variant (Int, Float, Bool,
// Char) and adds the algebra operations spec §3.2/§4.2 require beyond
// the base Value contract.
type Numeric interface {
	Value
	AsFloat() float64
	AsInt() int64
	Add(other Numeric) (Numeric, error)
	Sub(other Numeric) (Numeric, error)
	Mul(other Numeric) (Numeric, error)
	Div(other Numeric) (Numeric, error)
	Mod(other Numeric) (Numeric, error)
	Pow(other Numeric) (Numeric, error)
	Root(other Numeric) (Numeric, error)
	Neg() Numeric
}

// promote decides whether an operation between a and b should be
// carried out in Float (if either operand is Float) or Int (otherwise).
// Bool and Char are semantically integers (spec §3.2).
func promote(a, b Numeric) bool {
	_, af := a.(*Float)
	_, bf := b.(*Float)
	return af || bf
}

// ----------------------------------------------------------------------
// Int

type Int struct {
	id  ident.Identifier
	Val int64
}

func NewInt(v int64) *Int { return &Int{id: ident.New(ident.CategoryInstance), Val: v} }

func (n *Int) TypeName() string            { return "int" }
func (n *Int) TypeID() ident.TypeIdentifier { return typeInt }
func (n *Int) InstanceID() ident.Identifier { return n.id }
func (n *Int) ValueStr() string             { return strconv.FormatInt(n.Val, 10) }
func (n *Int) EscapedStr() string           { return n.ValueStr() }
func (n *Int) ToBool() bool                 { return n.Val != 0 }
func (n *Int) Copy() Value                  { return NewInt(n.Val) }
func (n *Int) AsFloat() float64             { return float64(n.Val) }
func (n *Int) AsInt() int64                 { return n.Val }

func (n *Int) UpdateFrom(other Value) bool {
	o, ok := other.(Numeric)
	if !ok {
		return false
	}
	n.Val = o.AsInt()
	return true
}

func (n *Int) Compare(other Value, relational Relational) (bool, error) {
	return numericCompare(n, other, relational)
}

func (n *Int) Add(o Numeric) (Numeric, error)  { return numericArith(n, o, "add") }
func (n *Int) Sub(o Numeric) (Numeric, error)  { return numericArith(n, o, "sub") }
func (n *Int) Mul(o Numeric) (Numeric, error)  { return numericArith(n, o, "mul") }
func (n *Int) Div(o Numeric) (Numeric, error)  { return numericArith(n, o, "div") }
func (n *Int) Mod(o Numeric) (Numeric, error)  { return numericArith(n, o, "mod") }
func (n *Int) Pow(o Numeric) (Numeric, error)  { return numericArith(n, o, "pow") }
func (n *Int) Root(o Numeric) (Numeric, error) { return numericArith(n, o, "root") }
func (n *Int) Neg() Numeric                    { return NewInt(-n.Val) }

// ----------------------------------------------------------------------
// Float

type Float struct {
	id  ident.Identifier
	Val float64
}

func NewFloat(v float64) *Float { return &Float{id: ident.New(ident.CategoryInstance), Val: v} }

func (n *Float) TypeName() string            { return "float" }
func (n *Float) TypeID() ident.TypeIdentifier { return typeFloat }
func (n *Float) InstanceID() ident.Identifier { return n.id }
func (n *Float) ValueStr() string             { return strconv.FormatFloat(n.Val, 'g', -1, 64) }
func (n *Float) EscapedStr() string           { return n.ValueStr() }
func (n *Float) ToBool() bool                 { return n.Val != 0 }
func (n *Float) Copy() Value                  { return NewFloat(n.Val) }
func (n *Float) AsFloat() float64             { return n.Val }
func (n *Float) AsInt() int64                 { return int64(n.Val) }

func (n *Float) UpdateFrom(other Value) bool {
	o, ok := other.(Numeric)
	if !ok {
		return false
	}
	n.Val = o.AsFloat()
	return true
}

func (n *Float) Compare(other Value, relational Relational) (bool, error) {
	return numericCompare(n, other, relational)
}

func (n *Float) Add(o Numeric) (Numeric, error)  { return numericArith(n, o, "add") }
func (n *Float) Sub(o Numeric) (Numeric, error)  { return numericArith(n, o, "sub") }
func (n *Float) Mul(o Numeric) (Numeric, error)  { return numericArith(n, o, "mul") }
func (n *Float) Div(o Numeric) (Numeric, error)  { return numericArith(n, o, "div") }
func (n *Float) Mod(o Numeric) (Numeric, error)  { return numericArith(n, o, "mod") }
func (n *Float) Pow(o Numeric) (Numeric, error)  { return numericArith(n, o, "pow") }
func (n *Float) Root(o Numeric) (Numeric, error) { return numericArith(n, o, "root") }
func (n *Float) Neg() Numeric                    { return NewFloat(-n.Val) }

// ----------------------------------------------------------------------
// Bool — semantically an integer (spec §3.2), prints as true/false.

type Bool struct {
	id  ident.Identifier
	Val bool
}

func NewBool(v bool) *Bool { return &Bool{id: ident.New(ident.CategoryInstance), Val: v} }

func (n *Bool) TypeName() string            { return "bool" }
func (n *Bool) TypeID() ident.TypeIdentifier { return typeBool }
func (n *Bool) InstanceID() ident.Identifier { return n.id }
func (n *Bool) ValueStr() string {
	if n.Val {
		return "true"
	}
	return "false"
}
func (n *Bool) EscapedStr() string { return n.ValueStr() }
func (n *Bool) ToBool() bool       { return n.Val }
func (n *Bool) Copy() Value        { return NewBool(n.Val) }
func (n *Bool) AsFloat() float64 {
	if n.Val {
		return 1
	}
	return 0
}
func (n *Bool) AsInt() int64 {
	if n.Val {
		return 1
	}
	return 0
}

func (n *Bool) UpdateFrom(other Value) bool {
	o, ok := other.(Numeric)
	if !ok {
		return false
	}
	n.Val = o.AsInt() != 0
	return true
}

func (n *Bool) Compare(other Value, relational Relational) (bool, error) {
	return numericCompare(n, other, relational)
}

func (n *Bool) Add(o Numeric) (Numeric, error)  { return numericArith(n, o, "add") }
func (n *Bool) Sub(o Numeric) (Numeric, error)  { return numericArith(n, o, "sub") }
func (n *Bool) Mul(o Numeric) (Numeric, error)  { return numericArith(n, o, "mul") }
func (n *Bool) Div(o Numeric) (Numeric, error)  { return numericArith(n, o, "div") }
func (n *Bool) Mod(o Numeric) (Numeric, error)  { return numericArith(n, o, "mod") }
func (n *Bool) Pow(o Numeric) (Numeric, error)  { return numericArith(n, o, "pow") }
func (n *Bool) Root(o Numeric) (Numeric, error) { return numericArith(n, o, "root") }
func (n *Bool) Neg() Numeric                    { return NewInt(-n.AsInt()) }

// ----------------------------------------------------------------------
// Char — semantically an integer (spec §3.2), prints as its character.

type Char struct {
	id  ident.Identifier
	Val byte
}

func NewChar(v byte) *Char { return &Char{id: ident.New(ident.CategoryInstance), Val: v} }

func (n *Char) TypeName() string            { return "char" }
func (n *Char) TypeID() ident.TypeIdentifier { return typeChar }
func (n *Char) InstanceID() ident.Identifier { return n.id }
func (n *Char) ValueStr() string             { return string(rune(n.Val)) }
func (n *Char) EscapedStr() string           { return n.ValueStr() }
func (n *Char) ToBool() bool                 { return n.Val != 0 }
func (n *Char) Copy() Value                  { return NewChar(n.Val) }
func (n *Char) AsFloat() float64             { return float64(n.Val) }
func (n *Char) AsInt() int64                 { return int64(n.Val) }

func (n *Char) UpdateFrom(other Value) bool {
	o, ok := other.(Numeric)
	if !ok {
		return false
	}
	n.Val = byte(o.AsInt())
	return true
}

func (n *Char) Compare(other Value, relational Relational) (bool, error) {
	return numericCompare(n, other, relational)
}

func (n *Char) Add(o Numeric) (Numeric, error)  { return numericArith(n, o, "add") }
func (n *Char) Sub(o Numeric) (Numeric, error)  { return numericArith(n, o, "sub") }
func (n *Char) Mul(o Numeric) (Numeric, error)  { return numericArith(n, o, "mul") }
func (n *Char) Div(o Numeric) (Numeric, error)  { return numericArith(n, o, "div") }
func (n *Char) Mod(o Numeric) (Numeric, error)  { return numericArith(n, o, "mod") }
func (n *Char) Pow(o Numeric) (Numeric, error)  { return numericArith(n, o, "pow") }
func (n *Char) Root(o Numeric) (Numeric, error) { return numericArith(n, o, "root") }
func (n *Char) Neg() Numeric                    { return NewInt(-n.AsInt()) }

// ----------------------------------------------------------------------
// shared numeric machinery

func numericCompare(a Numeric, other Value, relational Relational) (bool, error) {
	switch relational {
	case RT:
		return a.ToBool(), nil
	case RF:
		return !a.ToBool(), nil
	case AND:
		return a.ToBool() && other.ToBool(), nil
	case OR:
		return a.ToBool() || other.ToBool(), nil
	}
	b, ok := other.(Numeric)
	if !ok {
		if relational == RNE {
			return true, nil
		}
		if relational == RE {
			return false, nil
		}
		return false, errIncompatible("compare", a.TypeName(), other.TypeName())
	}
	if promote(a, b) {
		af, bf := a.AsFloat(), b.AsFloat()
		switch relational {
		case RG:
			return af > bf, nil
		case RGE:
			return af >= bf, nil
		case RL:
			return af < bf, nil
		case RLE:
			return af <= bf, nil
		case RE:
			return af == bf, nil
		case RNE:
			return af != bf, nil
		case RAE:
			return math.Abs(af-bf) < 1e-9, nil
		}
	}
	ai, bi := a.AsInt(), b.AsInt()
	switch relational {
	case RG:
		return ai > bi, nil
	case RGE:
		return ai >= bi, nil
	case RL:
		return ai < bi, nil
	case RLE:
		return ai <= bi, nil
	case RE:
		return ai == bi, nil
	case RNE:
		return ai != bi, nil
	case RAE:
		return ai == bi, nil
	}
	return false, errIncompatible("compare", a.TypeName(), other.TypeName())
}

// numericArith implements add/sub/mul/div/mod/pow/root with the mixed
// Int+Float→Float promotion rule spec §3.2/§4.2 mandates. `mod` on
// Float operands uses truncation-remainder semantics (math.Mod) — see
// SPEC_FULL.md §3's resolution of the corresponding Open Question.
func numericArith(a, b Numeric, op string) (Numeric, error) {
	if promote(a, b) {
		af, bf := a.AsFloat(), b.AsFloat()
		switch op {
		case "add":
			return NewFloat(af + bf), nil
		case "sub":
			return NewFloat(af - bf), nil
		case "mul":
			return NewFloat(af * bf), nil
		case "div":
			if bf == 0 {
				return nil, fmt.Errorf("RuntimeError: division by zero")
			}
			return NewFloat(af / bf), nil
		case "mod":
			if bf == 0 {
				return nil, fmt.Errorf("RuntimeError: division by zero")
			}
			return NewFloat(math.Mod(af, bf)), nil
		case "pow":
			return NewFloat(math.Pow(af, bf)), nil
		case "root":
			if bf == 0 {
				return nil, fmt.Errorf("RuntimeError: zeroth root is undefined")
			}
			return NewFloat(math.Pow(af, 1/bf)), nil
		}
	}
	ai, bi := a.AsInt(), b.AsInt()
	switch op {
	case "add":
		return NewInt(ai + bi), nil
	case "sub":
		return NewInt(ai - bi), nil
	case "mul":
		return NewInt(ai * bi), nil
	case "div":
		if bi == 0 {
			return nil, fmt.Errorf("RuntimeError: division by zero")
		}
		if ai%bi == 0 {
			return NewInt(ai / bi), nil
		}
		return NewFloat(float64(ai) / float64(bi)), nil
	case "mod":
		if bi == 0 {
			return nil, fmt.Errorf("RuntimeError: division by zero")
		}
		return NewInt(ai % bi), nil
	case "pow":
		return NewFloat(math.Pow(float64(ai), float64(bi))), nil
	case "root":
		if bi == 0 {
			return nil, fmt.Errorf("RuntimeError: zeroth root is undefined")
		}
		return NewFloat(math.Pow(float64(ai), 1/float64(bi))), nil
	}
	return nil, fmt.Errorf("RuntimeError: unknown numeric operation %q", op)
}
