// Package opcode implements the VM's built-in opcode table (spec
// §4.9): a static map from opcode name to an executor, each opcode
// carrying metadata the parser and engine both consult (whether it
// opens a scope, whether that scope is delayed-release, its arity).
package opcode

import (
	"fmt"

	"ravm/internal/instruction"
	"ravm/internal/value"
)

// Arity describes how many arguments an opcode accepts.
type Arity struct {
	Min      int
	Max      int // -1 means variadic
}

func fixed(n int) Arity    { return Arity{Min: n, Max: n} }
func atLeast(n int) Arity  { return Arity{Min: n, Max: -1} }
func between(a, b int) Arity { return Arity{Min: a, Max: b} }

func (a Arity) Accepts(n int) bool {
	if n < a.Min {
		return false
	}
	return a.Max == -1 || n <= a.Max
}

// Status is the engine's unified control-flow result (spec §4.8 /
// §9's "Exceptions for control flow" design note): every opcode
// executor returns one, rather than panicking or returning a sentinel
// error for ordinary control flow. Kind distinguishes which case is
// populated.
type StatusKind int

const (
	Normal StatusKind = iota
	Jumped
	Break
	Continue
	Return
	Errored
)

// Status is returned by every opcode executor and by the engine's own
// step function.
type Status struct {
	Kind      StatusKind
	JumpTo    int
	Value     value.Value
	Err       error
}

func NormalStatus() Status             { return Status{Kind: Normal} }
func JumpStatus(to int) Status         { return Status{Kind: Jumped, JumpTo: to} }
func BreakStatus() Status              { return Status{Kind: Break} }
func ContinueStatus() Status           { return Status{Kind: Continue} }
func ReturnStatus(v value.Value) Status { return Status{Kind: Return, Value: v} }
func ErrorStatus(err error) Status     { return Status{Kind: Errored, Err: err} }

// Context is the minimal surface an executor needs from the engine:
// reading/resolving the current instruction's child set, binding
// names in the current scope, recursively executing a child set, and
// reporting the instruction's own position for error construction.
// internal/engine implements this; opcode never imports engine, so
// there is no import cycle (mirrors value.Resolver's shape).
type Context interface {
	CurrentScopeName() string
	Bind(name string, v value.Value) error
	Lookup(name string) (value.Value, error)
	Assign(name string, v value.Value) error
	PushScope(prefix string) (release func())
	RunSet(set *instruction.InstructionSet) Status
	Position() instruction.Position
	SetLastReturn(v value.Value)
	SetLastError(v value.Value)
	RaiseDetect(errVal value.Value) Status

	// DeferScopeRelease stashes release instead of invoking it now,
	// honoring a delayed-release scope's extended lifetime on normal
	// exit (spec §9 / SPEC_FULL.md §3: the flag is honored on normal
	// exit, ignored during error unwind). The scope is released later
	// by the matching construct's ReleaseDeferredScope call — e.g.
	// FINALLY releasing the scope DETECT left open.
	DeferScopeRelease(release func())
	// ReleaseDeferredScope releases the most recently deferred scope,
	// if one is pending, and reports whether it found one.
	ReleaseDeferredScope() bool

	// Write sends a chunk to the configured output sink (spec §5 point
	// 1), used by PRINT rather than writing to stdout directly so the
	// engine stays agnostic of the concrete sink.
	Write(chunk string) error

	// LoadExtension resolves an EXT path. isDB reports whether path
	// carried a recognized DB DSN scheme (SPEC_FULL.md §4.2a); when
	// true, ext is a *value.Extension value (possibly with
	// connected=false) even when err != nil — a failed handshake
	// doesn't lose the extension value, only its live connection.
	// When isDB is false, path is an ordinary non-DB extension path
	// and the caller falls back to binding it as a plain string,
	// since that path isn't backed by a concrete loader in this
	// implemented subset (SPEC_FULL.md §4.9a).
	LoadExtension(path string) (ext value.Value, isDB bool, err error)
}

// Executor is the signature every opcode's implementation satisfies.
type Executor func(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status

// Meta is one opcode's static metadata entry.
type Meta struct {
	Name           string
	ScopeOpening   bool
	DelayedRelease bool
	Arity          Arity
	Exec           Executor
}

// Table is the name→Meta dispatch map plus a deterministic index
// (spec §4.7's "opcode index into a deterministic table" for the
// binary codec). Index order is fixed at construction (registration
// order), matching what Debug/Testing/Release archives wrote.
type Table struct {
	byName  map[string]Meta
	byIndex []string
}

// NewTable constructs the builtin dispatch table (spec §4.9a's
// implemented subset).
func NewTable() *Table {
	t := &Table{byName: make(map[string]Meta)}
	for _, m := range builtins() {
		t.register(m)
	}
	return t
}

func (t *Table) register(m Meta) {
	t.byIndex = append(t.byIndex, m.Name)
	t.byName[m.Name] = m
}

// Lookup returns an opcode's metadata, or an error if it is not a
// known opcode (spec §4.9: "Invalid opcode in source → SyntaxError at
// parse time").
func (t *Table) Lookup(name string) (Meta, error) {
	m, ok := t.byName[name]
	if !ok {
		return Meta{}, fmt.Errorf("SyntaxError: unknown opcode %q", name)
	}
	return m, nil
}

// IsScopeOpening reports whether name is a registered scope-opening
// opcode (SET/END are handled by the parser itself and are never
// registered here).
func (t *Table) IsScopeOpening(name string) bool {
	m, ok := t.byName[name]
	return ok && m.ScopeOpening
}

// IndexOf and NameOf satisfy codec.OpcodeTable.
func (t *Table) IndexOf(name string) (int, error) {
	for i, n := range t.byIndex {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("LinkError: opcode %q missing from deterministic table", name)
}

func (t *Table) NameOf(index int) (string, error) {
	if index < 0 || index >= len(t.byIndex) {
		return "", fmt.Errorf("LinkError: opcode index %d out of range", index)
	}
	return t.byIndex[index], nil
}

// Names lists every registered opcode, in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.byIndex))
	copy(out, t.byIndex)
	return out
}
