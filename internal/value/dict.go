package value

import (
	"fmt"
	"strings"

	"ravm/internal/ident"
)

// Dict preserves insertion order of keys (spec §3.2). Any value used as
// a key is stringified via EscapedStr(); key equality therefore reduces
// to string equality of the escaped form. Insertion order survives
// deletion of other keys.
type Dict struct {
	id     ident.Identifier
	keys   []string
	values map[string]Value
	cursor Cursor
}

func NewDict() *Dict {
	return &Dict{
		id:     ident.New(ident.CategoryInstance),
		keys:   []string{},
		values: make(map[string]Value),
	}
}

func (d *Dict) TypeName() string            { return "dict" }
func (d *Dict) TypeID() ident.TypeIdentifier { return typeDict }
func (d *Dict) InstanceID() ident.Identifier { return d.id }

func (d *Dict) ValueStr() string {
	parts := make([]string, 0, len(d.keys))
	for _, k := range d.keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, d.values[k].ValueStr()))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (d *Dict) EscapedStr() string { return d.ValueStr() }
func (d *Dict) ToBool() bool       { return len(d.keys) > 0 }

func (d *Dict) Copy() Value {
	cp := NewDict()
	cp.keys = append([]string{}, d.keys...)
	for k, v := range d.values {
		cp.values[k] = v
	}
	return cp
}

func (d *Dict) UpdateFrom(other Value) bool {
	o, ok := other.(*Dict)
	if !ok {
		return false
	}
	d.keys = append([]string{}, o.keys...)
	d.values = make(map[string]Value, len(o.values))
	for k, v := range o.values {
		d.values[k] = v
	}
	return true
}

func (d *Dict) Compare(other Value, relational Relational) (bool, error) {
	if relational == RT {
		return d.ToBool(), nil
	}
	if relational == RF {
		return !d.ToBool(), nil
	}
	o, ok := other.(*Dict)
	if relational == RE {
		if !ok || len(d.keys) != len(o.keys) {
			return false, nil
		}
		for _, k := range d.keys {
			ov, present := o.values[k]
			if !present {
				return false, nil
			}
			eq, err := d.values[k].Compare(ov, RE)
			if err != nil || !eq {
				return false, nil
			}
		}
		return true, nil
	}
	if relational == RNE {
		eq, err := d.Compare(other, RE)
		return !eq, err
	}
	return false, errIncompatible("compare", "dict", other.TypeName())
}

// keyString stringifies any hashable Value into the Dict key rule.
func keyString(key Value) string { return key.EscapedStr() }

// Get retrieves the value bound to key, and whether it was present.
func (d *Dict) Get(key Value) (Value, bool) {
	v, ok := d.values[keyString(key)]
	return v, ok
}

// Set binds key to v, appending to the insertion-order key list only
// if key is new.
func (d *Dict) Set(key, v Value) {
	k := keyString(key)
	if _, exists := d.values[k]; !exists {
		d.keys = append(d.keys, k)
	}
	d.values[k] = v
}

// Remove deletes key; survivors keep their relative insertion order.
func (d *Dict) Remove(key Value) bool {
	k := keyString(key)
	if _, ok := d.values[k]; !ok {
		return false
	}
	delete(d.values, k)
	for i, existing := range d.keys {
		if existing == k {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order (as raw escaped-string keys).
func (d *Dict) Keys() []string { return append([]string{}, d.keys...) }

func (d *Dict) Size() int { return len(d.keys) }

// At is positional access over the insertion-ordered key list, to
// satisfy the Iterable contract; dict indexed access by key uses
// Get/Set above, which the SET_AT/GET_AT opcodes dispatch to directly.
func (d *Dict) At(index int) (Value, error) {
	if index < 0 || index >= len(d.keys) {
		return nil, fmt.Errorf("RangeError: dict index %d out of range", index)
	}
	k := d.keys[index]
	return NewList([]Value{NewString(k), d.values[k]}), nil
}

func (d *Dict) Insert(index int, v Value) error {
	pair, ok := v.(*KeyValuePair)
	if !ok {
		return fmt.Errorf("TypeError: dict insert requires a key-value pair")
	}
	d.Set(pair.Key, pair.Val)
	return nil
}

func (d *Dict) DeleteAt(index int) error {
	if index < 0 || index >= len(d.keys) {
		return fmt.Errorf("RangeError: dict index %d out of range", index)
	}
	k := d.keys[index]
	delete(d.values, k)
	d.keys = append(d.keys[:index], d.keys[index+1:]...)
	return nil
}

func (d *Dict) SubRange(from, to int) (Iterable, error) {
	if from < 0 || to > len(d.keys) || from > to {
		return nil, fmt.Errorf("RangeError: invalid dict subrange [%d:%d]", from, to)
	}
	cp := NewDict()
	for _, k := range d.keys[from:to] {
		cp.keys = append(cp.keys, k)
		cp.values[k] = d.values[k]
	}
	return cp, nil
}

func (d *Dict) Append(v Value) error {
	pair, ok := v.(*KeyValuePair)
	if !ok {
		return fmt.Errorf("TypeError: dict append requires a key-value pair")
	}
	d.Set(pair.Key, pair.Val)
	return nil
}

func (d *Dict) Splice(other Iterable) error {
	o, ok := other.(*Dict)
	if !ok {
		return fmt.Errorf("TypeError: cannot splice %s into dict", other.TypeName())
	}
	for _, k := range o.keys {
		if _, exists := d.values[k]; !exists {
			d.keys = append(d.keys, k)
		}
		d.values[k] = o.values[k]
	}
	return nil
}

func (d *Dict) Contains(v Value) bool {
	_, ok := d.values[keyString(v)]
	return ok
}

func (d *Dict) Begin() { d.cursor.Begin(len(d.keys)) }
func (d *Dict) End()   { d.cursor.End(len(d.keys)) }
func (d *Dict) Next() Value {
	if d.cursor.AtEnd() {
		return NewNull()
	}
	k := d.keys[d.cursor.Pos()]
	d.cursor.Advance()
	return NewList([]Value{NewString(k), d.values[k]})
}
