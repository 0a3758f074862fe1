// Package memory implements the VM's memory manager (spec §3.5, §4.4):
// a pool of reusable scopes, an active scope stack, a global scope, a
// named-scope index, and a small recent-access cache — all behind a
// single mutex, per spec §5's "shared-resource policy".
package memory

import (
	"fmt"
	"sync"

	"ravm/internal/ident"
	"ravm/internal/scope"
	"ravm/internal/value"
)

// InitialPoolSize is how many scopes AcquireScope allocates at once
// when the free pool runs dry (spec §4.4).
const InitialPoolSize = 16

const globalScopeName = "GlobalScope"

// cacheEntry is the recent-access cache's per-name record: the DataId
// it resolved to. The value itself is not held; a hit re-reads it from
// the owning scope, and the cache is invalidated explicitly on every
// mutation that could shadow or remove the name instead of relying on
// a live/dead check.
type cacheEntry struct {
	id ident.DataIdentifier
}

// Manager is the memory manager singleton type. A process normally
// constructs exactly one, but tests construct isolated instances
// freely (spec §9 "Global state": explicitly-initialized context
// objects, not hidden globals).
type Manager struct {
	mu sync.Mutex

	freePool   []*scope.Scope
	active     []*scope.Scope
	namedIndex map[string]*scope.Scope
	global     *scope.Scope
	cache      map[string]cacheEntry

	anonCounter int
}

// NewManager constructs a fresh memory manager with its global scope
// already in place.
func NewManager() *Manager {
	m := &Manager{
		namedIndex: make(map[string]*scope.Scope),
		cache:      make(map[string]cacheEntry),
	}
	m.global = scope.New(globalScopeName, scope.DefaultPermissions())
	m.namedIndex[globalScopeName] = m.global
	m.expandPoolNoLock(InitialPoolSize)
	return m
}

func (m *Manager) expandPoolNoLock(n int) {
	for i := 0; i < n; i++ {
		m.freePool = append(m.freePool, scope.New("", scope.DefaultPermissions()))
	}
}

// AcquireScope takes a scope from the free pool (expanding it if empty),
// assigns it a name (prefix<next-default-id> if name is ""), pushes it
// onto the active list, and registers it in the named-scope index.
func (m *Manager) AcquireScope(prefix, name string) *scope.Scope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquireScopeNoLock(prefix, name)
}

func (m *Manager) acquireScopeNoLock(prefix, name string) *scope.Scope {
	if len(m.freePool) == 0 {
		m.expandPoolNoLock(InitialPoolSize)
	}
	s := m.freePool[len(m.freePool)-1]
	m.freePool = m.freePool[:len(m.freePool)-1]

	if name == "" {
		m.anonCounter++
		name = fmt.Sprintf("%s%d", prefix, m.anonCounter)
	}
	s.Name = name
	s.SetPermissions(scope.DefaultPermissions())

	m.active = append(m.active, s)
	m.namedIndex[name] = s
	return s
}

// ReleaseScope pops the top of the active list (or, if target is
// non-nil, locates and removes that specific scope), clears it, returns
// it to the free pool, and removes it from the named-scope index.
func (m *Manager) ReleaseScope(target *scope.Scope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseScopeNoLock(target)
}

func (m *Manager) releaseScopeNoLock(target *scope.Scope) {
	if len(m.active) == 0 {
		return
	}
	var released *scope.Scope
	if target == nil {
		released = m.active[len(m.active)-1]
		m.active = m.active[:len(m.active)-1]
	} else {
		for i := len(m.active) - 1; i >= 0; i-- {
			if m.active[i] == target {
				released = m.active[i]
				m.active = append(m.active[:i], m.active[i+1:]...)
				break
			}
		}
		if released == nil {
			return
		}
	}
	delete(m.namedIndex, released.Name)
	for name, entry := range m.cache {
		if entry.id.ScopeName == released.Name {
			delete(m.cache, name)
		}
	}
	released.Clear()
	m.freePool = append(m.freePool, released)
}

// currentScopeNoLock returns the top of the active list, or the global
// scope if the active list is empty.
func (m *Manager) currentScopeNoLock() *scope.Scope {
	if len(m.active) == 0 {
		return m.global
	}
	return m.active[len(m.active)-1]
}

// CurrentScope returns the top of the active list (or global, if empty).
func (m *Manager) CurrentScope() *scope.Scope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentScopeNoLock()
}

// Global returns the process-wide global scope, which persists across
// active-list transitions.
func (m *Manager) Global() *scope.Scope { return m.global }

// scopeByNameNoLock resolves a scope by name: current scope if empty,
// else the global scope for GlobalScope, else a named-index lookup.
func (m *Manager) scopeByNameNoLock(name string) (*scope.Scope, error) {
	if name == "" {
		return m.currentScopeNoLock(), nil
	}
	if s, ok := m.namedIndex[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("KeyError: no scope named %q is active", name)
}

// AddData resolves the target scope by name (current scope if scopeName
// is empty) and adds name→v there.
func (m *Manager) AddData(name string, v value.Value, scopeName string) (ident.DataIdentifier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.scopeByNameNoLock(scopeName)
	if err != nil {
		return ident.DataIdentifier{}, err
	}
	id, err := s.AddByName(name, v)
	if err != nil {
		return ident.DataIdentifier{}, err
	}
	delete(m.cache, name)
	return id, nil
}

// AddGlobalData adds name→v directly to the global scope.
func (m *Manager) AddGlobalData(name string, v value.Value) (ident.DataIdentifier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, err := m.global.AddByName(name, v)
	if err != nil {
		return ident.DataIdentifier{}, err
	}
	delete(m.cache, name)
	return id, nil
}

// AddGlobalDataBatch adds several name→v pairs to the global scope in
// one call (used at engine startup for the preset bindings, spec §6.3).
func (m *Manager) AddGlobalDataBatch(bindings map[string]value.Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, v := range bindings {
		if _, err := m.global.AddByName(name, v); err != nil {
			return err
		}
		delete(m.cache, name)
	}
	return nil
}

// FindDataByName consults the recent-access cache first; on a miss it
// walks the active list top-down, then the global scope, populating
// the cache on hit (spec §4.4).
func (m *Manager) FindDataByName(name string) (value.Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.cache[name]; ok {
		if s, ok := m.namedIndex[entry.id.ScopeName]; ok {
			if v, found, _ := s.FindByID(entry.id); found {
				return v, nil
			}
		}
		delete(m.cache, name)
	}

	for i := len(m.active) - 1; i >= 0; i-- {
		if v, found, err := m.active[i].FindByName(name); err != nil {
			return nil, err
		} else if found {
			id, _ := m.active[i].GetDataIDByName(name)
			m.cache[name] = cacheEntry{id: id}
			return v, nil
		}
	}
	if v, found, err := m.global.FindByName(name); err != nil {
		return nil, err
	} else if found {
		id, _ := m.global.GetDataIDByName(name)
		m.cache[name] = cacheEntry{id: id}
		return v, nil
	}
	return nil, fmt.Errorf("KeyError: %q is not bound in any active scope", name)
}

// FindDataByID looks a binding up directly via the DataId's own scope
// name, satisfying value.Resolver for Quote resolution.
func (m *Manager) FindDataByID(id ident.DataIdentifier) (value.Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.scopeByNameNoLock(id.ScopeName)
	if err != nil {
		return nil, err
	}
	v, found, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("IDError: %s no longer exists", id.String())
	}
	return v, nil
}

// UpdateDataByID dispatches an in-place update to the id's owning scope.
func (m *Manager) UpdateDataByID(id ident.DataIdentifier, v value.Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.scopeByNameNoLock(id.ScopeName)
	if err != nil {
		return err
	}
	if err := s.UpdateByID(id, v); err != nil {
		return err
	}
	delete(m.cache, id.Name)
	return nil
}

// UpdateDataByName walks the active stack (then global) and mutates the
// first scope that contains name; if that scope does not allow updates,
// its ModificationError is returned and no outer scope is tried.
func (m *Manager) UpdateDataByName(name string, v value.Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.active) - 1; i >= 0; i-- {
		if err := tryUpdate(m.active[i], name, v); err == nil {
			delete(m.cache, name)
			return nil
		} else if _, ok := err.(notFoundErr); !ok {
			return err
		}
	}
	if err := tryUpdate(m.global, name, v); err == nil {
		delete(m.cache, name)
		return nil
	} else if _, ok := err.(notFoundErr); !ok {
		return err
	}
	return fmt.Errorf("KeyError: %q is not bound in any active scope", name)
}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "not found" }

func tryUpdate(s *scope.Scope, name string, v value.Value) error {
	if _, ok := s.GetDataIDByName(name); !ok {
		return notFoundErr{}
	}
	return s.UpdateByName(name, v)
}

// RemoveDataByName removes name from the first scope (top-down, then
// global) that contains it.
func (m *Manager) RemoveDataByName(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.active) - 1; i >= 0; i-- {
		if _, ok := m.active[i].GetDataIDByName(name); ok {
			delete(m.cache, name)
			return m.active[i].RemoveByName(name)
		}
	}
	if _, ok := m.global.GetDataIDByName(name); ok {
		delete(m.cache, name)
		return m.global.RemoveByName(name)
	}
	return fmt.Errorf("KeyError: %q is not bound in any active scope", name)
}

// RemoveDataByID removes a binding via its own scope name.
func (m *Manager) RemoveDataByID(id ident.DataIdentifier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.scopeByNameNoLock(id.ScopeName)
	if err != nil {
		return err
	}
	delete(m.cache, id.Name)
	return s.RemoveByID(id)
}

// SetCurrentScopeByName raises the named scope to the top of the
// active list (used for method-dispatch style rebinding, spec §4.4).
func (m *Manager) SetCurrentScopeByName(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.namedIndex[name]
	if !ok {
		return fmt.Errorf("KeyError: no scope named %q is active", name)
	}
	for i, cur := range m.active {
		if cur == s {
			m.active = append(m.active[:i], m.active[i+1:]...)
			break
		}
	}
	m.active = append(m.active, s)
	return nil
}

// ClearAllScopes performs a full reset: every active scope is released
// back to the pool and the global scope is cleared.
func (m *Manager) ClearAllScopes() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.active) > 0 {
		m.releaseScopeNoLock(nil)
	}
	m.global.Clear()
	m.cache = make(map[string]cacheEntry)
}

// ActiveDepth reports the number of scopes currently on the active
// list (diagnostic/debug use, e.g. recursion-depth checks).
func (m *Manager) ActiveDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// FreePoolSize reports the number of scopes currently idle in the free
// pool (diagnostic use).
func (m *Manager) FreePoolSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.freePool)
}
