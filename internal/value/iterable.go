package value

import (
	"fmt"
	"strings"

	"ravm/internal/ident"
)

// Cursor is the per-value stateful iteration cursor spec §4.2 describes:
// begin resets to 0, end is size, next returns-then-advances. Cursors
// are stored on the value itself; nested same-value iteration is
// undefined unless callers use BeginIter (see iter.go) to get an
// independent cursor instead.
type Cursor struct {
	pos int
	end int
}

func (c *Cursor) Begin(size int) { c.pos, c.end = 0, size }
func (c *Cursor) End(size int)   { c.pos, c.end = size, size }
func (c *Cursor) AtEnd() bool    { return c.pos >= c.end }
func (c *Cursor) Advance()       { c.pos++ }
func (c *Cursor) Pos() int       { return c.pos }

// Iterable is implemented by String, List, Dict, Series.
type Iterable interface {
	Value
	Size() int
	At(index int) (Value, error)
	Insert(index int, v Value) error
	DeleteAt(index int) error
	SubRange(from, to int) (Iterable, error)
	Append(v Value) error
	Splice(other Iterable) error
	Contains(v Value) bool
	Begin()
	End()
	Next() Value
}

// ----------------------------------------------------------------------
// String

type String struct {
	id     ident.Identifier
	Val    string
	cursor Cursor
}

func NewString(s string) *String { return &String{id: ident.New(ident.CategoryInstance), Val: s} }

func (s *String) TypeName() string            { return "str" }
func (s *String) TypeID() ident.TypeIdentifier { return typeString }
func (s *String) InstanceID() ident.Identifier { return s.id }
func (s *String) ValueStr() string             { return s.Val }
func (s *String) EscapedStr() string           { return escapeString(s.Val) }
func (s *String) ToBool() bool                 { return s.Val != "" }
func (s *String) Copy() Value                  { return NewString(s.Val) }

func (s *String) UpdateFrom(other Value) bool {
	o, ok := other.(*String)
	if !ok {
		return false
	}
	s.Val = o.Val
	return true
}

func (s *String) Compare(other Value, relational Relational) (bool, error) {
	if relational == RT {
		return s.ToBool(), nil
	}
	if relational == RF {
		return !s.ToBool(), nil
	}
	if relational == AND {
		return s.ToBool() && other.ToBool(), nil
	}
	if relational == OR {
		return s.ToBool() || other.ToBool(), nil
	}
	o, ok := other.(*String)
	if !ok {
		if relational == RNE {
			return true, nil
		}
		if relational == RE {
			return false, nil
		}
		return false, errIncompatible("compare", "str", other.TypeName())
	}
	switch relational {
	case RE:
		return s.Val == o.Val, nil
	case RNE:
		return s.Val != o.Val, nil
	case RG:
		return s.Val > o.Val, nil
	case RGE:
		return s.Val >= o.Val, nil
	case RL:
		return s.Val < o.Val, nil
	case RLE:
		return s.Val <= o.Val, nil
	}
	return false, errIncompatible("compare", "str", other.TypeName())
}

func (s *String) Size() int { return len(s.Val) }

func (s *String) At(index int) (Value, error) {
	if index < 0 || index >= len(s.Val) {
		return nil, fmt.Errorf("RangeError: string index %d out of range", index)
	}
	return NewChar(s.Val[index]), nil
}

func (s *String) Insert(index int, v Value) error {
	ch, ok := v.(Numeric)
	if !ok {
		return fmt.Errorf("TypeError: cannot insert %s into str", v.TypeName())
	}
	if index < 0 || index > len(s.Val) {
		return fmt.Errorf("RangeError: string index %d out of range", index)
	}
	piece := string(rune(byte(ch.AsInt())))
	s.Val = s.Val[:index] + piece + s.Val[index:]
	return nil
}

func (s *String) DeleteAt(index int) error {
	if index < 0 || index >= len(s.Val) {
		return fmt.Errorf("RangeError: string index %d out of range", index)
	}
	s.Val = s.Val[:index] + s.Val[index+1:]
	return nil
}

func (s *String) SubRange(from, to int) (Iterable, error) {
	if from < 0 || to > len(s.Val) || from > to {
		return nil, fmt.Errorf("RangeError: invalid string subrange [%d:%d]", from, to)
	}
	return NewString(s.Val[from:to]), nil
}

func (s *String) Append(v Value) error {
	o, ok := v.(*String)
	if !ok {
		return fmt.Errorf("TypeError: cannot append %s to str", v.TypeName())
	}
	s.Val += o.Val
	return nil
}

func (s *String) Splice(other Iterable) error {
	o, ok := other.(*String)
	if !ok {
		return fmt.Errorf("TypeError: cannot splice %s into str", other.TypeName())
	}
	s.Val += o.Val
	return nil
}

func (s *String) Contains(v Value) bool {
	o, ok := v.(*String)
	if !ok {
		return false
	}
	return strings.Contains(s.Val, o.Val)
}

func (s *String) Begin() { s.cursor.Begin(len(s.Val)) }
func (s *String) End()   { s.cursor.End(len(s.Val)) }
func (s *String) Next() Value {
	if s.cursor.AtEnd() {
		return NewNull()
	}
	v := NewChar(s.Val[s.cursor.Pos()])
	s.cursor.Advance()
	return v
}

func escapeString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// ----------------------------------------------------------------------
// List

type List struct {
	id     ident.Identifier
	Items  []Value
	cursor Cursor
}

func NewList(items []Value) *List {
	if items == nil {
		items = []Value{}
	}
	return &List{id: ident.New(ident.CategoryInstance), Items: items}
}

func (l *List) TypeName() string            { return "list" }
func (l *List) TypeID() ident.TypeIdentifier { return typeList }
func (l *List) InstanceID() ident.Identifier { return l.id }

func (l *List) ValueStr() string {
	parts := make([]string, len(l.Items))
	for i, v := range l.Items {
		parts[i] = v.ValueStr()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *List) EscapedStr() string {
	parts := make([]string, len(l.Items))
	for i, v := range l.Items {
		parts[i] = v.EscapedStr()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *List) ToBool() bool { return len(l.Items) > 0 }

func (l *List) Copy() Value {
	cp := make([]Value, len(l.Items))
	copy(cp, l.Items)
	return NewList(cp)
}

func (l *List) UpdateFrom(other Value) bool {
	o, ok := other.(*List)
	if !ok {
		return false
	}
	l.Items = append([]Value{}, o.Items...)
	return true
}

func (l *List) Compare(other Value, relational Relational) (bool, error) {
	if relational == RT {
		return l.ToBool(), nil
	}
	if relational == RF {
		return !l.ToBool(), nil
	}
	if relational == AND {
		return l.ToBool() && other.ToBool(), nil
	}
	if relational == OR {
		return l.ToBool() || other.ToBool(), nil
	}
	o, ok := other.(*List)
	if relational == RE {
		return ok && l.listEqual(o), nil
	}
	if relational == RNE {
		return !ok || !l.listEqual(o), nil
	}
	return false, errIncompatible("compare", "list", other.TypeName())
}

func (l *List) listEqual(o *List) bool {
	if len(l.Items) != len(o.Items) {
		return false
	}
	for i := range l.Items {
		eq, err := l.Items[i].Compare(o.Items[i], RE)
		if err != nil || !eq {
			return false
		}
	}
	return true
}

func (l *List) Size() int { return len(l.Items) }

func (l *List) At(index int) (Value, error) {
	if index < 0 || index >= len(l.Items) {
		return nil, fmt.Errorf("RangeError: list index %d out of range", index)
	}
	return l.Items[index], nil
}

func (l *List) SetAt(index int, v Value) error {
	if index < 0 || index >= len(l.Items) {
		return fmt.Errorf("RangeError: list index %d out of range", index)
	}
	l.Items[index] = v
	return nil
}

func (l *List) Insert(index int, v Value) error {
	if index < 0 || index > len(l.Items) {
		return fmt.Errorf("RangeError: list index %d out of range", index)
	}
	l.Items = append(l.Items, nil)
	copy(l.Items[index+1:], l.Items[index:])
	l.Items[index] = v
	return nil
}

func (l *List) DeleteAt(index int) error {
	if index < 0 || index >= len(l.Items) {
		return fmt.Errorf("RangeError: list index %d out of range", index)
	}
	l.Items = append(l.Items[:index], l.Items[index+1:]...)
	return nil
}

func (l *List) SubRange(from, to int) (Iterable, error) {
	if from < 0 || to > len(l.Items) || from > to {
		return nil, fmt.Errorf("RangeError: invalid list subrange [%d:%d]", from, to)
	}
	cp := make([]Value, to-from)
	copy(cp, l.Items[from:to])
	return NewList(cp), nil
}

func (l *List) Append(v Value) error {
	l.Items = append(l.Items, v)
	return nil
}

func (l *List) Splice(other Iterable) error {
	o, ok := other.(*List)
	if !ok {
		return fmt.Errorf("TypeError: cannot splice %s into list", other.TypeName())
	}
	l.Items = append(l.Items, o.Items...)
	return nil
}

func (l *List) Contains(v Value) bool {
	for _, item := range l.Items {
		if eq, err := item.Compare(v, RE); err == nil && eq {
			return true
		}
	}
	return false
}

func (l *List) Begin() { l.cursor.Begin(len(l.Items)) }
func (l *List) End()   { l.cursor.End(len(l.Items)) }
func (l *List) Next() Value {
	if l.cursor.AtEnd() {
		return NewNull()
	}
	v := l.Items[l.cursor.Pos()]
	l.cursor.Advance()
	return v
}

// ----------------------------------------------------------------------
// Series — an ordered, immutable view over a List (spec §3.2).

type Series struct {
	id     ident.Identifier
	backing []Value
	cursor  Cursor
}

// NewSeries snapshots the current items of a List into an immutable view.
func NewSeries(l *List) *Series {
	cp := make([]Value, len(l.Items))
	copy(cp, l.Items)
	return &Series{id: ident.New(ident.CategoryInstance), backing: cp}
}

func (s *Series) TypeName() string            { return "series" }
func (s *Series) TypeID() ident.TypeIdentifier { return typeSeries }
func (s *Series) InstanceID() ident.Identifier { return s.id }

func (s *Series) ValueStr() string {
	parts := make([]string, len(s.backing))
	for i, v := range s.backing {
		parts[i] = v.ValueStr()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (s *Series) EscapedStr() string { return s.ValueStr() }
func (s *Series) ToBool() bool       { return len(s.backing) > 0 }

func (s *Series) Copy() Value {
	cp := make([]Value, len(s.backing))
	copy(cp, s.backing)
	return &Series{id: ident.New(ident.CategoryInstance), backing: cp}
}

// UpdateFrom always fails: a Series is immutable once constructed.
func (s *Series) UpdateFrom(other Value) bool { return false }

func (s *Series) Compare(other Value, relational Relational) (bool, error) {
	if relational == RT {
		return s.ToBool(), nil
	}
	if relational == RF {
		return !s.ToBool(), nil
	}
	o, ok := other.(*Series)
	if relational == RE {
		if !ok || len(s.backing) != len(o.backing) {
			return false, nil
		}
		for i := range s.backing {
			eq, err := s.backing[i].Compare(o.backing[i], RE)
			if err != nil || !eq {
				return false, nil
			}
		}
		return true, nil
	}
	if relational == RNE {
		eq, err := s.Compare(other, RE)
		return !eq, err
	}
	return false, errIncompatible("compare", "series", other.TypeName())
}

func (s *Series) Size() int { return len(s.backing) }

func (s *Series) At(index int) (Value, error) {
	if index < 0 || index >= len(s.backing) {
		return nil, fmt.Errorf("RangeError: series index %d out of range", index)
	}
	return s.backing[index], nil
}

var errSeriesImmutable = fmt.Errorf("ModificationError: series is an immutable view")

func (s *Series) Insert(int, Value) error          { return errSeriesImmutable }
func (s *Series) DeleteAt(int) error                { return errSeriesImmutable }
func (s *Series) Append(Value) error                { return errSeriesImmutable }
func (s *Series) Splice(Iterable) error              { return errSeriesImmutable }

func (s *Series) SubRange(from, to int) (Iterable, error) {
	if from < 0 || to > len(s.backing) || from > to {
		return nil, fmt.Errorf("RangeError: invalid series subrange [%d:%d]", from, to)
	}
	cp := make([]Value, to-from)
	copy(cp, s.backing[from:to])
	return &Series{id: ident.New(ident.CategoryInstance), backing: cp}, nil
}

func (s *Series) Contains(v Value) bool {
	for _, item := range s.backing {
		if eq, err := item.Compare(v, RE); err == nil && eq {
			return true
		}
	}
	return false
}

func (s *Series) Begin() { s.cursor.Begin(len(s.backing)) }
func (s *Series) End()   { s.cursor.End(len(s.backing)) }
func (s *Series) Next() Value {
	if s.cursor.AtEnd() {
		return NewNull()
	}
	v := s.backing[s.cursor.Pos()]
	s.cursor.Advance()
	return v
}
