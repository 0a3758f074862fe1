package value

import (
	"fmt"

	"ravm/internal/ident"
)

// ----------------------------------------------------------------------
// KeyValuePair

type KeyValuePair struct {
	id  ident.Identifier
	Key Value
	Val Value
}

func NewKeyValuePair(key, val Value) *KeyValuePair {
	return &KeyValuePair{id: ident.New(ident.CategoryInstance), Key: key, Val: val}
}

func (p *KeyValuePair) TypeName() string            { return "pair" }
func (p *KeyValuePair) TypeID() ident.TypeIdentifier { return typePair }
func (p *KeyValuePair) InstanceID() ident.Identifier { return p.id }
func (p *KeyValuePair) ValueStr() string {
	return fmt.Sprintf("%s: %s", p.Key.ValueStr(), p.Val.ValueStr())
}
func (p *KeyValuePair) EscapedStr() string { return p.ValueStr() }
func (p *KeyValuePair) ToBool() bool       { return true }
func (p *KeyValuePair) Copy() Value        { return NewKeyValuePair(p.Key, p.Val) }

func (p *KeyValuePair) UpdateFrom(other Value) bool {
	o, ok := other.(*KeyValuePair)
	if !ok {
		return false
	}
	p.Key, p.Val = o.Key, o.Val
	return true
}

func (p *KeyValuePair) Compare(other Value, relational Relational) (bool, error) {
	o, ok := other.(*KeyValuePair)
	switch relational {
	case RT:
		return true, nil
	case RF:
		return false, nil
	case RE:
		if !ok {
			return false, nil
		}
		keq, _ := p.Key.Compare(o.Key, RE)
		veq, _ := p.Val.Compare(o.Val, RE)
		return keq && veq, nil
	case RNE:
		eq, err := p.Compare(other, RE)
		return !eq, err
	}
	return false, errIncompatible("compare", "pair", other.TypeName())
}

// ----------------------------------------------------------------------
// CompareGroup — pairs two instance ids for relational comparison ops
// that need to remember which two operands produced a result.

type CompareGroup struct {
	id      ident.Identifier
	LeftID  ident.Identifier
	RightID ident.Identifier
}

func NewCompareGroup(left, right ident.Identifier) *CompareGroup {
	return &CompareGroup{id: ident.New(ident.CategoryInstance), LeftID: left, RightID: right}
}

func (g *CompareGroup) TypeName() string            { return "compare_group" }
func (g *CompareGroup) TypeID() ident.TypeIdentifier { return typeGroup }
func (g *CompareGroup) InstanceID() ident.Identifier { return g.id }
func (g *CompareGroup) ValueStr() string {
	return fmt.Sprintf("(%s, %s)", g.LeftID.String(), g.RightID.String())
}
func (g *CompareGroup) EscapedStr() string { return g.ValueStr() }
func (g *CompareGroup) ToBool() bool       { return true }
func (g *CompareGroup) Copy() Value        { return NewCompareGroup(g.LeftID, g.RightID) }

func (g *CompareGroup) UpdateFrom(other Value) bool {
	o, ok := other.(*CompareGroup)
	if !ok {
		return false
	}
	g.LeftID, g.RightID = o.LeftID, o.RightID
	return true
}

func (g *CompareGroup) Compare(other Value, relational Relational) (bool, error) {
	o, ok := other.(*CompareGroup)
	switch relational {
	case RT:
		return true, nil
	case RF:
		return false, nil
	case RE:
		return ok && g.LeftID.Equal(o.LeftID) && g.RightID.Equal(o.RightID), nil
	case RNE:
		eq, err := g.Compare(other, RE)
		return !eq, err
	}
	return false, errIncompatible("compare", "compare_group", other.TypeName())
}

// ----------------------------------------------------------------------
// CustomType

// CustomType stores a type name, an optional parent, type-level fields
// (name → value, class-shared state), instance-field templates
// (name → default), and a set of method field names (spec §3.3).
type CustomType struct {
	id               ident.Identifier
	typeIdentifier   ident.TypeIdentifier
	Name             string
	Parent           *CustomType
	typeFields       map[string]Value
	instanceDefaults map[string]Value
	methodFields     map[string]bool
}

// NewCustomType constructs a CustomType. parent may be nil for a root
// type. Construction checks the parent chain is acyclic (spec §3.2
// ownership note) by walking it once; a CustomType is built bottom-up
// so a cycle could only occur if a caller later rewires Parent, which
// this package does not expose a way to do.
func NewCustomType(name string, parent *CustomType) (*CustomType, error) {
	if err := checkAcyclic(name, parent); err != nil {
		return nil, err
	}
	var parentTypeID *ident.TypeIdentifier
	if parent != nil {
		parentTypeID = &parent.typeIdentifier
	}
	return &CustomType{
		id:               ident.New(ident.CategoryInstance),
		typeIdentifier:   ident.NewType(name, parentTypeID),
		Name:             name,
		Parent:           parent,
		typeFields:       make(map[string]Value),
		instanceDefaults: make(map[string]Value),
		methodFields:     make(map[string]bool),
	}, nil
}

func checkAcyclic(name string, parent *CustomType) error {
	seen := map[string]bool{name: true}
	for p := parent; p != nil; p = p.Parent {
		if seen[p.Name] {
			return fmt.Errorf("TypeError: cyclic parent chain detected at %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

func (t *CustomType) TypeName() string            { return t.Name }
func (t *CustomType) TypeID() ident.TypeIdentifier { return t.typeIdentifier }
func (t *CustomType) InstanceID() ident.Identifier { return t.id }
func (t *CustomType) ValueStr() string             { return fmt.Sprintf("<type %s>", t.Name) }
func (t *CustomType) EscapedStr() string           { return t.ValueStr() }
func (t *CustomType) ToBool() bool                 { return true }

func (t *CustomType) Copy() Value {
	// Structural shallow clone: field maps are fresh, values shared.
	cp := &CustomType{
		id:               ident.New(ident.CategoryInstance),
		typeIdentifier:   t.typeIdentifier,
		Name:             t.Name,
		Parent:           t.Parent,
		typeFields:       make(map[string]Value, len(t.typeFields)),
		instanceDefaults: make(map[string]Value, len(t.instanceDefaults)),
		methodFields:     make(map[string]bool, len(t.methodFields)),
	}
	for k, v := range t.typeFields {
		cp.typeFields[k] = v
	}
	for k, v := range t.instanceDefaults {
		cp.instanceDefaults[k] = v
	}
	for k, v := range t.methodFields {
		cp.methodFields[k] = v
	}
	return cp
}

func (t *CustomType) UpdateFrom(other Value) bool {
	o, ok := other.(*CustomType)
	if !ok || o.Name != t.Name {
		return false
	}
	t.typeFields = o.typeFields
	t.instanceDefaults = o.instanceDefaults
	t.methodFields = o.methodFields
	return true
}

func (t *CustomType) Compare(other Value, relational Relational) (bool, error) {
	o, ok := other.(*CustomType)
	switch relational {
	case RT:
		return true, nil
	case RF:
		return false, nil
	case RE:
		return ok && t.id.Equal(o.id), nil
	case RNE:
		return !ok || !t.id.Equal(o.id), nil
	}
	return false, errIncompatible("compare", t.Name, other.TypeName())
}

// AddTypeField adds or overwrites a type-level (class-shared) field.
// Unconditional per spec §4.2.
func (t *CustomType) AddTypeField(name string, def Value) { t.typeFields[name] = def }

// SetTypeField mutates an existing type-level field's shared value.
func (t *CustomType) SetTypeField(name string, v Value) bool {
	if _, ok := t.typeFields[name]; !ok {
		return false
	}
	t.typeFields[name] = v
	return true
}

// TypeField reads a type-level field.
func (t *CustomType) TypeField(name string) (Value, bool) {
	v, ok := t.typeFields[name]
	return v, ok
}

// AddInstanceFieldDefault records a default usable by future
// CustomInst creations (may be Null).
func (t *CustomType) AddInstanceFieldDefault(name string, def Value) {
	t.instanceDefaults[name] = def
}

// InstanceFieldDefaults returns a copy of the instance-field template.
func (t *CustomType) InstanceFieldDefaults() map[string]Value {
	cp := make(map[string]Value, len(t.instanceDefaults))
	for k, v := range t.instanceDefaults {
		cp[k] = v
	}
	return cp
}

// MarkMethod records name as a method field.
func (t *CustomType) MarkMethod(name string) { t.methodFields[name] = true }

// IsMethod reports whether name is a method field on this type.
func (t *CustomType) IsMethod(name string) bool { return t.methodFields[name] }

// WalkParents walks the chain leaf-to-root, calling fn on each type
// including the receiver, until fn returns false.
func (t *CustomType) WalkParents(fn func(*CustomType) bool) {
	for cur := t; cur != nil; cur = cur.Parent {
		if !fn(cur) {
			return
		}
	}
}

// CheckBelongsTo walks the parent chain looking for other.
func (t *CustomType) CheckBelongsTo(other *CustomType) bool {
	found := false
	t.WalkParents(func(cur *CustomType) bool {
		if cur.typeIdentifier.IdentityString() == other.typeIdentifier.IdentityString() {
			found = true
			return false
		}
		return true
	})
	return found
}

// ----------------------------------------------------------------------
// CustomInst

// CustomInst stores a reference to its defining CustomType plus a
// two-level map: type-identity-string → field-name → value, one entry
// per type in the inheritance chain (spec §3.3).
type CustomInst struct {
	id     ident.Identifier
	Type   *CustomType
	levels map[string]map[string]Value
}

// NewCustomInst constructs an instance of t, seeding one field level
// per type in the chain from that type's instance-field defaults.
func NewCustomInst(t *CustomType) *CustomInst {
	inst := &CustomInst{
		id:     ident.New(ident.CategoryInstance),
		Type:   t,
		levels: make(map[string]map[string]Value),
	}
	t.WalkParents(func(cur *CustomType) bool {
		level := make(map[string]Value, len(cur.instanceDefaults))
		for k, v := range cur.instanceDefaults {
			level[k] = v
		}
		inst.levels[cur.typeIdentifier.IdentityString()] = level
		return true
	})
	return inst
}

func (c *CustomInst) TypeName() string            { return c.Type.Name }
func (c *CustomInst) TypeID() ident.TypeIdentifier { return c.Type.typeIdentifier }
func (c *CustomInst) InstanceID() ident.Identifier { return c.id }
func (c *CustomInst) ValueStr() string             { return fmt.Sprintf("<%s instance>", c.Type.Name) }
func (c *CustomInst) EscapedStr() string           { return c.ValueStr() }
func (c *CustomInst) ToBool() bool                 { return true }

func (c *CustomInst) Copy() Value {
	cp := &CustomInst{id: ident.New(ident.CategoryInstance), Type: c.Type, levels: make(map[string]map[string]Value, len(c.levels))}
	for tid, level := range c.levels {
		nl := make(map[string]Value, len(level))
		for k, v := range level {
			nl[k] = v
		}
		cp.levels[tid] = nl
	}
	return cp
}

func (c *CustomInst) UpdateFrom(other Value) bool {
	o, ok := other.(*CustomInst)
	if !ok || o.Type.typeIdentifier.IdentityString() != c.Type.typeIdentifier.IdentityString() {
		return false
	}
	c.levels = o.levels
	return true
}

func (c *CustomInst) Compare(other Value, relational Relational) (bool, error) {
	o, ok := other.(*CustomInst)
	switch relational {
	case RT:
		return true, nil
	case RF:
		return false, nil
	case RE:
		return ok && c.id.Equal(o.id), nil
	case RNE:
		return !ok || !c.id.Equal(o.id), nil
	}
	return false, errIncompatible("compare", c.Type.Name, other.TypeName())
}

// Field reads a field, walking the chain leaf-to-root.
func (c *CustomInst) Field(name string) (Value, bool) {
	var found Value
	var ok bool
	c.Type.WalkParents(func(cur *CustomType) bool {
		level := c.levels[cur.typeIdentifier.IdentityString()]
		if v, present := level[name]; present {
			found, ok = v, true
			return false
		}
		return true
	})
	return found, ok
}

// SetField writes a field at the most specific level that declares it,
// or at an explicit type level when explicitType is non-nil.
func (c *CustomInst) SetField(name string, v Value, explicitType *CustomType) error {
	if explicitType != nil {
		level, ok := c.levels[explicitType.typeIdentifier.IdentityString()]
		if !ok {
			return fmt.Errorf("FieldError: %s is not in the inheritance chain of %s", explicitType.Name, c.Type.Name)
		}
		level[name] = v
		return nil
	}
	var target string
	c.Type.WalkParents(func(cur *CustomType) bool {
		tid := cur.typeIdentifier.IdentityString()
		if _, present := c.levels[tid][name]; present {
			target = tid
			return false
		}
		return true
	})
	if target == "" {
		// Not declared anywhere yet: write at the most specific (leaf) level.
		target = c.Type.typeIdentifier.IdentityString()
	}
	c.levels[target][name] = v
	return nil
}
