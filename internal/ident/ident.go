// Package ident implements the VM's process-wide identifier service.
//
// Every heap value, scope, instruction, opcode and instruction set is
// tagged with an Identifier: a single-character category sign plus a
// monotonically increasing, never-reused counter. Identity comparisons
// across the whole runtime reduce to comparing the counter (uid).
package ident

import (
	"fmt"
	"sync/atomic"
)

// Category distinguishes the kind of thing an Identifier names.
type Category int

const (
	CategoryInstance Category = iota
	CategoryType
	CategoryData
	CategoryInstruction
	CategoryOpcode
	CategoryInstructionSet
)

// sign returns the single-character category tag used in the string form.
func (c Category) sign() byte {
	switch c {
	case CategoryInstance:
		return 'i'
	case CategoryType:
		return 't'
	case CategoryData:
		return 'd'
	case CategoryInstruction:
		return 'n'
	case CategoryOpcode:
		return 'o'
	case CategoryInstructionSet:
		return 's'
	default:
		return '?'
	}
}

func (c Category) String() string {
	switch c {
	case CategoryInstance:
		return "InstanceId"
	case CategoryType:
		return "TypeId"
	case CategoryData:
		return "DataId"
	case CategoryInstruction:
		return "InstructionId"
	case CategoryOpcode:
		return "OpcodeId"
	case CategoryInstructionSet:
		return "InstructionSetId"
	default:
		return "UnknownId"
	}
}

// counter is the single process-wide source of uids. Allocation is the
// only thread-safe operation in the identifier service; everything else
// about an Identifier is immutable once constructed.
var counter int64

// Identifier is the base identity shared by every tagged kind in the
// system. Identity is by uid alone — two Identifiers with the same uid
// are the same identifier even if constructed independently (which
// should never happen, since uids are never reused).
type Identifier struct {
	category Category
	uid      int64
}

// New allocates a fresh, never-reused Identifier in the given category.
func New(category Category) Identifier {
	uid := atomic.AddInt64(&counter, 1)
	return Identifier{category: category, uid: uid}
}

// Category reports the identifier's category.
func (id Identifier) Category() Category { return id.category }

// Sign reports the identifier's single-character category tag.
func (id Identifier) Sign() byte { return id.category.sign() }

// UID reports the process-unique, monotonically increasing counter value.
func (id Identifier) UID() int64 { return id.uid }

// DisplayID is an alias for UID, kept distinct for readability at call
// sites that print the id to a user rather than compare it.
func (id Identifier) DisplayID() int64 { return id.uid }

// String renders the identifier's short form: <sign>x<6-digit-uid>.
func (id Identifier) String() string {
	return fmt.Sprintf("%cx%06d", id.Sign(), id.uid)
}

// Detail renders the identifier wrapped as <detail: form>, e.g. for
// debug printing where the category name should accompany the id.
func (id Identifier) Detail() string {
	return fmt.Sprintf("<%s: %s>", id.category, id.String())
}

// Equal reports whether two identifiers name the same entity.
func (id Identifier) Equal(other Identifier) bool {
	return id.uid == other.uid
}

// TypeIdentifier extends Identifier with the extra bookkeeping a
// user-defined or built-in type needs: a human name, an optional single
// parent (by index into a type registry, per spec §9's "arena, not
// owning pointers" note), and a stable cross-module identity string.
type TypeIdentifier struct {
	Identifier
	Name       string
	ParentUID  int64 // 0 means "no parent"
	hasParent  bool
	identityID string
}

// NewType allocates a fresh TypeIdentifier. parent, if non-nil, becomes
// this type's single parent in the inheritance chain.
func NewType(name string, parent *TypeIdentifier) TypeIdentifier {
	t := TypeIdentifier{
		Identifier: New(CategoryType),
		Name:       name,
	}
	if parent != nil {
		t.ParentUID = parent.UID()
		t.hasParent = true
	}
	t.identityID = fmt.Sprintf("%s#%s", name, t.Identifier.String())
	return t
}

// HasParent reports whether this type has a parent in the chain.
func (t TypeIdentifier) HasParent() bool { return t.hasParent }

// IdentityString is the type's identity string (spec §3.1): its name
// joined with its own id string, fixed for the lifetime of the
// TypeIdentifier and shared by every value holding it. Two separately
// allocated TypeIdentifiers never share it, even when their names match.
func (t TypeIdentifier) IdentityString() string { return t.identityID }

// DataIdentifier extends Identifier with the extra fields a named
// scope binding needs: its display name, the name of the scope that
// owns it, and a monotonically increasing per-scope index.
type DataIdentifier struct {
	Identifier
	Name      string
	ScopeName string
	Index     int
}

// NewData allocates a fresh DataIdentifier for a binding named `name`
// in the scope `scopeName`, at position `index` within that scope.
func NewData(name, scopeName string, index int) DataIdentifier {
	return DataIdentifier{
		Identifier: New(CategoryData),
		Name:       name,
		ScopeName:  scopeName,
		Index:      index,
	}
}

// String renders the full DataId form:
// <scope_name>::<name>::<index>-<id-string>
func (d DataIdentifier) String() string {
	return fmt.Sprintf("%s::%s::%d-%s", d.ScopeName, d.Name, d.Index, d.Identifier.String())
}
