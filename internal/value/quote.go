package value

import (
	"fmt"

	"ravm/internal/ident"
)

// Resolver is the minimal surface of the memory manager a Quote needs
// to resolve its alias. internal/memory implements this; value does
// not import memory directly to avoid an import cycle (memory stores
// Values, Values reference Resolver only as an interface).
type Resolver interface {
	FindDataByID(id ident.DataIdentifier) (Value, error)
	UpdateDataByID(id ident.DataIdentifier, v Value) error
}

// Quote is a first-class alias to a DataId in some scope (spec §3.2,
// §9 "Quotes and weak refs"). It stores only the DataId — never a
// strong reference to the aliased value — and resolves at each access
// against the Resolver supplied by the caller (normally the engine's
// memory manager).
type Quote struct {
	id     ident.Identifier
	Target ident.DataIdentifier
}

func NewQuote(target ident.DataIdentifier) *Quote {
	return &Quote{id: ident.New(ident.CategoryInstance), Target: target}
}

func (q *Quote) TypeName() string            { return "qot" }
func (q *Quote) TypeID() ident.TypeIdentifier { return typeQuote }
func (q *Quote) InstanceID() ident.Identifier { return q.id }
func (q *Quote) ValueStr() string             { return fmt.Sprintf("<qot %s>", q.Target.String()) }
func (q *Quote) EscapedStr() string           { return q.ValueStr() }
func (q *Quote) ToBool() bool                 { return true }
func (q *Quote) Copy() Value                  { return NewQuote(q.Target) }

func (q *Quote) UpdateFrom(other Value) bool {
	o, ok := other.(*Quote)
	if !ok {
		return false
	}
	q.Target = o.Target
	return true
}

func (q *Quote) Compare(other Value, relational Relational) (bool, error) {
	o, ok := other.(*Quote)
	switch relational {
	case RT:
		return true, nil
	case RF:
		return false, nil
	case RE:
		return ok && q.Target.Equal(o.Target.Identifier), nil
	case RNE:
		return !ok || !q.Target.Equal(o.Target.Identifier), nil
	}
	return false, errIncompatible("compare", "qot", other.TypeName())
}

// Read resolves the aliased DataId through r and returns its current
// value. Fails with IDError (per spec §4.2) if the target no longer
// exists.
func (q *Quote) Read(r Resolver) (Value, error) {
	v, err := r.FindDataByID(q.Target)
	if err != nil {
		return nil, fmt.Errorf("IDError: quote target %s no longer exists: %w", q.Target.String(), err)
	}
	return v, nil
}

// Write delegates to update_data_by_id on the aliased target.
func (q *Quote) Write(r Resolver, v Value) error {
	if err := r.UpdateDataByID(q.Target, v); err != nil {
		return fmt.Errorf("IDError: quote target %s no longer exists: %w", q.Target.String(), err)
	}
	return nil
}
