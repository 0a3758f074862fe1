// Package engine implements the VM's execution engine (spec §4.8): a
// PC-stepping loop over an instruction set, scope-opening bookkeeping,
// and a unified ExecutionStatus sum type shared with internal/opcode.
package engine

import (
	"fmt"
	"os"

	"ravm/internal/database"
	rvmerrors "ravm/internal/errors"
	"ravm/internal/instruction"
	"ravm/internal/iosink"
	"ravm/internal/memory"
	"ravm/internal/opcode"
	"ravm/internal/value"
)

// MaxRecursionDepth bounds FUNC-call nesting (spec §4.8: "Recursion
// depth is bounded (implementer chooses; exceeding → RecursionError)").
const MaxRecursionDepth = 2000

// Engine steps an instruction set, implementing opcode.Context so the
// built-in opcode table's executors can bind/lookup names, push
// scopes, and recurse into child sets without depending on this
// package directly.
type Engine struct {
	Mem       *memory.Manager
	Table     *opcode.Table
	Out       iosink.OutputSink
	pos       instruction.Position
	callDepth int
	trace     []string
	// pendingDelayed holds release closures stashed by DeferScopeRelease
	// for delayed-release scopes (spec §9 / SPEC_FULL §3) — a LIFO queue
	// since the construct meant to release one (e.g. FINALLY) is always
	// the most recently deferred.
	pendingDelayed []func()
}

// New constructs an engine over a fresh memory manager, with the
// preset global bindings (spec §6.3) already installed and PRINT
// wired to a console sink over stdout. Callers (cmd/ravm) that need a
// different sink can overwrite Out before calling Execute.
func New(table *opcode.Table) *Engine {
	e := &Engine{Mem: memory.NewManager(), Table: table, Out: iosink.NewConsoleSink(os.Stdout)}
	e.installPresets()
	return e
}

func (e *Engine) installPresets() {
	bindings := map[string]value.Value{
		"SR":   value.NewNull(),
		"SN":   value.NewNull(),
		"SE":   value.NewNull(),
		"SS":    value.NewNull(),
		"true":  value.NewBool(true),
		"false": value.NewBool(false),
		"null":  value.NewNull(),
	}
	for name, typeStr := range value.BuiltinTypeBindings() {
		bindings[name] = value.NewString(typeStr)
	}
	if err := e.Mem.AddGlobalDataBatch(bindings); err != nil {
		panic(fmt.Sprintf("engine: failed to install preset globals: %v", err))
	}
}

// --- opcode.Context -----------------------------------------------------

func (e *Engine) CurrentScopeName() string { return e.Mem.CurrentScope().Name }

func (e *Engine) Bind(name string, v value.Value) error {
	_, err := e.Mem.AddData(name, v, "")
	return err
}

func (e *Engine) Lookup(name string) (value.Value, error) {
	return e.Mem.FindDataByName(name)
}

func (e *Engine) Assign(name string, v value.Value) error {
	return e.Mem.UpdateDataByName(name, v)
}

func (e *Engine) PushScope(prefix string) (release func()) {
	s := e.Mem.AcquireScope(prefix, "")
	e.trace = append([]string{fmt.Sprintf("%s (%s)", s.Name, e.pos.String())}, e.trace...)
	return func() {
		e.Mem.ReleaseScope(s)
		if len(e.trace) > 0 {
			e.trace = e.trace[1:]
		}
	}
}

func (e *Engine) Position() instruction.Position { return e.pos }

// DeferScopeRelease implements opcode.Context: stash release instead of
// invoking it now, so a later construct releases the scope instead
// (spec §9 / SPEC_FULL §3's honored-on-normal-exit resolution).
func (e *Engine) DeferScopeRelease(release func()) {
	e.pendingDelayed = append(e.pendingDelayed, release)
}

// ReleaseDeferredScope implements opcode.Context: release the most
// recently deferred scope, if any is pending.
func (e *Engine) ReleaseDeferredScope() bool {
	if len(e.pendingDelayed) == 0 {
		return false
	}
	release := e.pendingDelayed[len(e.pendingDelayed)-1]
	e.pendingDelayed = e.pendingDelayed[:len(e.pendingDelayed)-1]
	release()
	return true
}

func (e *Engine) SetLastReturn(v value.Value) {
	_ = e.Mem.UpdateDataByName("SR", v)
}

func (e *Engine) SetLastError(v value.Value) {
	_ = e.Mem.UpdateDataByName("SE", v)
}

func (e *Engine) Write(chunk string) error { return e.Out.Write(chunk) }

// Close flushes and releases the engine's output sink. Callers should
// invoke it once after Execute returns, whether or not it errored.
func (e *Engine) Close() error { return e.Out.Close() }

// RaiseDetect resumes normal execution after a DETECT handler has
// caught and recorded an error (spec §4.8: the block "transfers to the
// FINALLY sibling ... and binds the error value"; the engine's own job
// is only to stop propagating the Errored status past the DETECT).
func (e *Engine) RaiseDetect(errVal value.Value) opcode.Status {
	return opcode.NormalStatus()
}

// LoadExtension implements opcode.Context, delegating DB-scheme EXT
// paths to internal/database (SPEC_FULL.md §4.2a). A failed handshake
// is not itself a propagating engine error: it is reported through
// the extension's own connected export, with the underlying cause
// also recorded to SE so VM code can inspect it.
func (e *Engine) LoadExtension(path string) (value.Value, bool, error) {
	if !database.IsDBDSN(path) {
		return nil, false, nil
	}
	ext, err := database.Load(path)
	if err != nil {
		e.SetLastError(value.NewError(string(rvmerrors.KindOf(err)), e.pos.String(), "", []string{err.Error()}))
	}
	if ext == nil {
		return nil, true, err
	}
	return ext, true, err
}

// RunSet steps set's instructions with a mutable PC, dispatching each
// through the opcode table (spec §4.8's pseudocode). Break/Continue/
// Return/Errored propagate to the caller; only loop/iteration
// executors (REPEAT, ITER_TRAV, ...) intercept Break/Continue
// themselves, by calling RunSet on their own child set.
func (e *Engine) RunSet(set *instruction.InstructionSet) opcode.Status {
	pc := 0
	for pc < set.Size() {
		ins, err := set.At(pc)
		if err != nil {
			return opcode.ErrorStatus(err)
		}
		e.pos = ins.Pos

		meta, err := e.Table.Lookup(ins.Opcode)
		if err != nil {
			return opcode.ErrorStatus(err)
		}
		if meta.Name == "CALL" {
			if err := e.enterCall(); err != nil {
				return opcode.ErrorStatus(err)
			}
		}
		status := meta.Exec(e, ins, ins.Args)
		if meta.Name == "CALL" {
			e.exitCall()
		}

		switch status.Kind {
		case opcode.Normal:
			pc++
		case opcode.Jumped:
			pc = status.JumpTo
		case opcode.Errored:
			frame := fmt.Sprintf("%s (%s)", e.CurrentScopeName(), e.pos.String())
			return opcode.ErrorStatus(rvmerrors.PushTraceOn(status.Err, frame))
		default:
			return status
		}
	}
	return opcode.NormalStatus()
}

func (e *Engine) enterCall() error {
	e.callDepth++
	if e.callDepth > MaxRecursionDepth {
		e.callDepth--
		return rvmerrors.New(rvmerrors.RecursionError, fmt.Sprintf("call depth exceeded %d", MaxRecursionDepth)).
			WithPosition(e.pos.String())
	}
	return nil
}

func (e *Engine) exitCall() { e.callDepth-- }

// Trace returns the live scope-frame trace: one entry per scope pushed
// through PushScope and not yet released, most recently pushed first,
// so printing reads leaf-to-root. An error's own Trace, built by RunSet
// through PushTraceOn, reads root-to-leaf.
func (e *Engine) Trace() []string {
	out := make([]string, len(e.trace))
	copy(out, e.trace)
	return out
}

// Execute runs root to completion (or to its first uncaught error),
// returning the final status. The caller (cmd/ravm) renders an
// uncaught Errored status via internal/diagnostic.
func (e *Engine) Execute(root *instruction.InstructionSet) opcode.Status {
	return e.RunSet(root)
}
