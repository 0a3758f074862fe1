// Package scope implements the VM's Scope type (spec §3.4, §4.3): a
// named, lifetimed table of name→binding→value, guarded by permission
// flags.
package scope

import (
	"fmt"

	"ravm/internal/ident"
	"ravm/internal/value"
)

// OpMode enumerates the kinds of mutation a permission flag can gate.
type OpMode int

const (
	OpAdd OpMode = iota
	OpUpdate
	OpDelete
	OpFind
	OpRemove
)

func (m OpMode) String() string {
	switch m {
	case OpAdd:
		return "add"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpFind:
		return "find"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Permissions holds the five flags spec §3.4 lists.
type Permissions struct {
	Addable   bool
	Updatable bool
	Deletable bool
	Findable  bool
	Removable bool
}

// DefaultPermissions returns a fully-open permission set, the default
// for ordinary scopes pushed by the engine.
func DefaultPermissions() Permissions {
	return Permissions{Addable: true, Updatable: true, Deletable: true, Findable: true, Removable: true}
}

// ModificationError is raised when a mutation violates the scope's
// permission flags (spec §4.3).
type ModificationError struct {
	Op         OpMode
	ScopeName  string
	Name       string
	RepairHint string
}

func (e *ModificationError) Error() string {
	return fmt.Sprintf("ModificationError: %s denied on %q in scope %q (%s)", e.Op, e.Name, e.ScopeName, e.RepairHint)
}

// DuplicateKeyError is raised by AddByName when name is already present.
type DuplicateKeyError struct {
	ScopeName string
	Name      string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("DuplicateKeyError: %q already exists in scope %q", e.Name, e.ScopeName)
}

// Scope owns name→DataId and DataId.idstring→value maps, plus
// permission flags (spec §3.4).
type Scope struct {
	id          ident.Identifier
	Name        string
	perms       Permissions
	nameToData  map[string]ident.DataIdentifier
	dataToValue map[string]value.Value
	nextIndex   int
}

// New constructs an empty scope named name with the given permissions.
// Construction is exposed for internal/memory's free-pool expansion;
// ordinary callers go through the memory manager's AcquireScope.
func New(name string, perms Permissions) *Scope {
	return &Scope{
		id:          ident.New(ident.CategoryInstance),
		Name:        name,
		perms:       perms,
		nameToData:  make(map[string]ident.DataIdentifier),
		dataToValue: make(map[string]value.Value),
	}
}

func (s *Scope) InstanceID() ident.Identifier { return s.id }

// Permissions returns the current permission flags.
func (s *Scope) Permissions() Permissions { return s.perms }

// SetPermissions replaces the permission flags wholesale.
func (s *Scope) SetPermissions(p Permissions) { s.perms = p }

// OpPermission reports whether a single OpMode is currently allowed.
func (s *Scope) OpPermission(op OpMode) bool {
	switch op {
	case OpAdd:
		return s.perms.Addable
	case OpUpdate:
		return s.perms.Updatable
	case OpDelete:
		return s.perms.Deletable
	case OpFind:
		return s.perms.Findable
	case OpRemove:
		return s.perms.Removable
	default:
		return false
	}
}

// Size reports the number of bindings currently in the scope.
func (s *Scope) Size() int { return len(s.nameToData) }

// Empty reports whether the scope currently holds no bindings.
func (s *Scope) Empty() bool { return len(s.nameToData) == 0 }

// Clear removes every binding, resetting the scope to its just-acquired
// state (but keeping its name and permissions — the memory manager
// reassigns those on reacquisition).
func (s *Scope) Clear() {
	s.nameToData = make(map[string]ident.DataIdentifier)
	s.dataToValue = make(map[string]value.Value)
	s.nextIndex = 0
}

// AddByName binds name to v, allocating a fresh DataId. Fails with
// ModificationError if adding is disallowed, or DuplicateKeyError if
// name is already bound.
func (s *Scope) AddByName(name string, v value.Value) (ident.DataIdentifier, error) {
	if !s.perms.Addable {
		return ident.DataIdentifier{}, &ModificationError{Op: OpAdd, ScopeName: s.Name, Name: name, RepairHint: "scope does not allow adding bindings"}
	}
	if _, exists := s.nameToData[name]; exists {
		return ident.DataIdentifier{}, &DuplicateKeyError{ScopeName: s.Name, Name: name}
	}
	id := ident.NewData(name, s.Name, s.nextIndex)
	s.nextIndex++
	s.nameToData[name] = id
	s.dataToValue[id.String()] = v
	return id, nil
}

// AddByID binds an already-allocated DataId directly, used when the
// engine needs to preserve a DataId across a rebind (e.g. restoring a
// quote target). Same permission/duplicate rules as AddByName.
func (s *Scope) AddByID(id ident.DataIdentifier, v value.Value) error {
	if !s.perms.Addable {
		return &ModificationError{Op: OpAdd, ScopeName: s.Name, Name: id.Name, RepairHint: "scope does not allow adding bindings"}
	}
	if _, exists := s.nameToData[id.Name]; exists {
		return &DuplicateKeyError{ScopeName: s.Name, Name: id.Name}
	}
	s.nameToData[id.Name] = id
	s.dataToValue[id.String()] = v
	return nil
}

// FindByName looks up a binding by name. Fails with ModificationError
// if finding is disallowed.
func (s *Scope) FindByName(name string) (value.Value, bool, error) {
	if !s.perms.Findable {
		return nil, false, &ModificationError{Op: OpFind, ScopeName: s.Name, Name: name, RepairHint: "scope does not allow lookups"}
	}
	id, ok := s.nameToData[name]
	if !ok {
		return nil, false, nil
	}
	v, ok := s.dataToValue[id.String()]
	return v, ok, nil
}

// FindByID looks up a binding by its full DataId.
func (s *Scope) FindByID(id ident.DataIdentifier) (value.Value, bool, error) {
	if !s.perms.Findable {
		return nil, false, &ModificationError{Op: OpFind, ScopeName: s.Name, Name: id.Name, RepairHint: "scope does not allow lookups"}
	}
	v, ok := s.dataToValue[id.String()]
	return v, ok, nil
}

// FindByIDString looks up a binding by the raw DataId string form.
func (s *Scope) FindByIDString(idString string) (value.Value, bool) {
	v, ok := s.dataToValue[idString]
	return v, ok
}

// GetDataIDByName returns the DataId bound to name, if any.
func (s *Scope) GetDataIDByName(name string) (ident.DataIdentifier, bool) {
	id, ok := s.nameToData[name]
	return id, ok
}

// UpdateByName replaces the value bound to name in place.
func (s *Scope) UpdateByName(name string, v value.Value) error {
	if !s.perms.Updatable {
		return &ModificationError{Op: OpUpdate, ScopeName: s.Name, Name: name, RepairHint: "scope does not allow updates"}
	}
	id, ok := s.nameToData[name]
	if !ok {
		return fmt.Errorf("KeyError: %q not found in scope %q", name, s.Name)
	}
	s.dataToValue[id.String()] = v
	return nil
}

// UpdateByID replaces the value bound to id in place.
func (s *Scope) UpdateByID(id ident.DataIdentifier, v value.Value) error {
	if !s.perms.Updatable {
		return &ModificationError{Op: OpUpdate, ScopeName: s.Name, Name: id.Name, RepairHint: "scope does not allow updates"}
	}
	if _, ok := s.dataToValue[id.String()]; !ok {
		return fmt.Errorf("IDError: %s not found in scope %q", id.String(), s.Name)
	}
	s.dataToValue[id.String()] = v
	return nil
}

// RemoveByName deletes a binding by name.
func (s *Scope) RemoveByName(name string) error {
	if !s.perms.Removable {
		return &ModificationError{Op: OpRemove, ScopeName: s.Name, Name: name, RepairHint: "scope does not allow removal"}
	}
	id, ok := s.nameToData[name]
	if !ok {
		return fmt.Errorf("KeyError: %q not found in scope %q", name, s.Name)
	}
	delete(s.nameToData, name)
	delete(s.dataToValue, id.String())
	return nil
}

// RemoveByID deletes a binding by DataId.
func (s *Scope) RemoveByID(id ident.DataIdentifier) error {
	if !s.perms.Removable {
		return &ModificationError{Op: OpRemove, ScopeName: s.Name, Name: id.Name, RepairHint: "scope does not allow removal"}
	}
	if _, ok := s.dataToValue[id.String()]; !ok {
		return fmt.Errorf("IDError: %s not found in scope %q", id.String(), s.Name)
	}
	delete(s.dataToValue, id.String())
	delete(s.nameToData, id.Name)
	return nil
}

// Names returns every bound name, in no particular order (a Scope is
// not itself insertion-ordered; value.Dict is, for user-visible maps).
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.nameToData))
	for name := range s.nameToData {
		names = append(names, name)
	}
	return names
}
