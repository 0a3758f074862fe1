package opcode

import (
	"fmt"
	"strconv"

	"ravm/internal/instruction"
	"ravm/internal/lexer"
	"ravm/internal/value"
)

// resolveArg turns a classified argument into a Value: literals
// construct directly, identifiers resolve through ctx.Lookup, and the
// handful of literal keywords (true/false/null) construct their
// singleton value.
func resolveArg(ctx Context, a instruction.Arg) (value.Value, error) {
	switch a.Kind {
	case instruction.KindString:
		return value.NewString(a.Text), nil
	case instruction.KindNumber:
		if isInt, i, f, err := parseNumber(a.Text); err == nil {
			if isInt {
				return value.NewInt(i), nil
			}
			return value.NewFloat(f), nil
		} else {
			return nil, err
		}
	case instruction.KindKeyword:
		switch a.Text {
		case "true":
			return value.NewBool(true), nil
		case "false":
			return value.NewBool(false), nil
		case "null":
			return value.NewNull(), nil
		default:
			return value.NewString(a.Text), nil
		}
	case instruction.KindIdentifier:
		return ctx.Lookup(a.Text)
	case instruction.KindContainer:
		switch a.Text {
		case "dict":
			return value.NewDict(), nil
		case "list":
			return value.NewList(nil), nil
		default:
			return nil, fmt.Errorf("SyntaxError: unknown container literal %q", a.Text)
		}
	case instruction.KindExpr:
		return resolveExpr(ctx, a.Text)
	default:
		return nil, fmt.Errorf("SyntaxError: cannot resolve argument %q", a.Text)
	}
}

// resolveExpr evaluates a KindExpr argument's raw text against the
// current scope: either a member-access form (`d@"k"`, spec §8
// scenario 3's `PRINT: d@"k"`) or an inline binary arithmetic
// expression (`x*x`, scenario 4's `RET: x*x`). The lexer already
// validated the shape at parse time; this re-derives the same split at
// evaluation time since the operands may be identifiers that only
// exist once the engine is running.
func resolveExpr(ctx Context, text string) (value.Value, error) {
	if container, key, ok := lexer.SplitAccessExpr(text); ok {
		return resolveAccess(ctx, container, key)
	}
	if left, op, right, ok := lexer.SplitInlineArithExpr(text); ok {
		return resolveInlineArith(ctx, left, op, right)
	}
	return nil, fmt.Errorf("SyntaxError: cannot resolve expression %q", text)
}

func resolveAccess(ctx Context, containerText, keyText string) (value.Value, error) {
	containerVal, err := ctx.Lookup(containerText)
	if err != nil {
		return nil, err
	}
	keyKind, keyResolved, err := lexer.Classify(keyText)
	if err != nil {
		return nil, err
	}
	keyVal, err := resolveArg(ctx, instruction.Arg{Kind: keyKind, Text: keyResolved})
	if err != nil {
		return nil, err
	}
	switch c := containerVal.(type) {
	case *value.Dict:
		v, ok := c.Get(keyVal)
		if !ok {
			return value.NewNull(), nil
		}
		return v, nil
	case *value.List:
		idx, ok := keyVal.(*value.Int)
		if !ok {
			return nil, fmt.Errorf("TypeError: list index must be int, got %s", keyVal.TypeName())
		}
		return c.At(int(idx.AsInt()))
	case *value.Extension:
		v, ok := c.Exports[keyVal.ValueStr()]
		if !ok {
			return nil, fmt.Errorf("KeyError: extension %s has no export %q", c.IdentStr, keyVal.ValueStr())
		}
		return v, nil
	default:
		return nil, fmt.Errorf("TypeError: %s does not support @ access", containerVal.TypeName())
	}
}

func resolveInlineArith(ctx Context, leftText, op, rightText string) (value.Value, error) {
	leftKind, leftResolved, err := lexer.Classify(leftText)
	if err != nil {
		return nil, err
	}
	left, err := resolveArg(ctx, instruction.Arg{Kind: leftKind, Text: leftResolved})
	if err != nil {
		return nil, err
	}
	rightKind, rightResolved, err := lexer.Classify(rightText)
	if err != nil {
		return nil, err
	}
	right, err := resolveArg(ctx, instruction.Arg{Kind: rightKind, Text: rightResolved})
	if err != nil {
		return nil, err
	}
	ln, ok := left.(value.Numeric)
	if !ok {
		return nil, fmt.Errorf("TypeError: expression operand %q is not numeric", left.ValueStr())
	}
	rn, ok := right.(value.Numeric)
	if !ok {
		return nil, fmt.Errorf("TypeError: expression operand %q is not numeric", right.ValueStr())
	}
	return arith(ln, rn, op)
}

func parseNumber(text string) (bool, int64, float64, error) {
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return true, i, 0, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return false, 0, 0, fmt.Errorf("SyntaxError: malformed number %q", text)
	}
	return false, 0, f, nil
}

func builtins() []Meta {
	return []Meta{
		{Name: "VAR", Arity: fixed(2), Exec: execVar},
		{Name: "OPT", Arity: fixed(4), Exec: execOpt},
		{Name: "PRINT", Arity: atLeast(1), Exec: execPrint},
		{Name: "IF", ScopeOpening: true, Arity: between(1, 3), Exec: execIf},
		{Name: "REPEAT", ScopeOpening: true, Arity: between(0, 1), Exec: execRepeat},
		{Name: "UNTIL", Arity: fixed(1), Exec: execUntil},
		{Name: "BREAK", Arity: fixed(0), Exec: execBreak},
		{Name: "CONTINUE", Arity: fixed(0), Exec: execContinue},
		{Name: "SET_AT", Arity: fixed(3), Exec: execSetAt},
		{Name: "GET_AT", Arity: fixed(3), Exec: execGetAt},
		{Name: "FUNC", ScopeOpening: true, Arity: atLeast(1), Exec: execFunc},
		{Name: "RET", Arity: between(0, 1), Exec: execRet},
		{Name: "CALL", Arity: atLeast(1), Exec: execCall},
		{Name: "DETECT", ScopeOpening: true, DelayedRelease: true, Arity: fixed(1), Exec: execDetect},
		{Name: "FINALLY", ScopeOpening: true, Arity: fixed(0), Exec: execFinally},
		{Name: "THROW", Arity: atLeast(1), Exec: execThrow},
		{Name: "SRC", ScopeOpening: true, Arity: fixed(1), Exec: execSrc},
		{Name: "EXT", ScopeOpening: true, Arity: fixed(2), Exec: execExt},
		{Name: "SP_NEW", ScopeOpening: true, Arity: fixed(0), Exec: execSpNew},
		{Name: "ITER_TRAV", ScopeOpening: true, Arity: fixed(2), Exec: execIterTrav},
		{Name: "ITER_REV_TRAV", ScopeOpening: true, Arity: fixed(2), Exec: execIterRevTrav},
	}
}

func execVar(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	v, err := resolveArg(ctx, args[1])
	if err != nil {
		return ErrorStatus(err)
	}
	if err := ctx.Bind(args[0].Text, v); err != nil {
		return ErrorStatus(err)
	}
	return NormalStatus()
}

// OPT computes a binary arithmetic or relational operation over two
// operands and binds the result to dest: `OPT: dest, a, b, op` (spec
// §8 scenarios 1/2). op is read as a raw token, never resolved through
// ctx — it names an arithmetic symbol (+ - * / % ^ root) or one of the
// relational keywords value.Relational already enumerates (RG RGE RNE
// RE RAE RLE RL RT RF AND OR). dest is assigned if it already exists
// in scope (e.g. accumulating a loop counter), else newly bound.
func execOpt(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	a, err := resolveArg(ctx, args[1])
	if err != nil {
		return ErrorStatus(err)
	}
	b, err := resolveArg(ctx, args[2])
	if err != nil {
		return ErrorStatus(err)
	}
	op := args[3].Text

	var result value.Value
	if rel, ok := relationalFromToken(op); ok {
		ok, err := a.Compare(b, rel)
		if err != nil {
			return ErrorStatus(err)
		}
		result = value.NewBool(ok)
	} else {
		an, ok := a.(value.Numeric)
		if !ok {
			return ErrorStatus(fmt.Errorf("TypeError: OPT operand %q is not numeric", a.ValueStr()))
		}
		bn, ok := b.(value.Numeric)
		if !ok {
			return ErrorStatus(fmt.Errorf("TypeError: OPT operand %q is not numeric", b.ValueStr()))
		}
		r, err := arith(an, bn, op)
		if err != nil {
			return ErrorStatus(err)
		}
		result = r
	}

	if err := ctx.Assign(args[0].Text, result); err != nil {
		if err := ctx.Bind(args[0].Text, result); err != nil {
			return ErrorStatus(err)
		}
	}
	return NormalStatus()
}

func arith(a, b value.Numeric, op string) (value.Numeric, error) {
	switch op {
	case "+":
		return a.Add(b)
	case "-":
		return a.Sub(b)
	case "*":
		return a.Mul(b)
	case "/":
		return a.Div(b)
	case "%":
		return a.Mod(b)
	case "^":
		return a.Pow(b)
	case "root":
		return a.Root(b)
	default:
		return nil, fmt.Errorf("SyntaxError: unknown OPT operator %q", op)
	}
}

func relationalFromToken(tok string) (value.Relational, bool) {
	switch tok {
	case "RG":
		return value.RG, true
	case "RGE":
		return value.RGE, true
	case "RNE":
		return value.RNE, true
	case "RE":
		return value.RE, true
	case "RAE":
		return value.RAE, true
	case "RLE":
		return value.RLE, true
	case "RL":
		return value.RL, true
	case "RT":
		return value.RT, true
	case "RF":
		return value.RF, true
	case "AND":
		return value.AND, true
	case "OR":
		return value.OR, true
	default:
		return 0, false
	}
}

func execPrint(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	for _, a := range args {
		v, err := resolveArg(ctx, a)
		if err != nil {
			return ErrorStatus(err)
		}
		if err := ctx.Write(v.ValueStr() + "\n"); err != nil {
			return ErrorStatus(err)
		}
	}
	return NormalStatus()
}

// releaseScope disposes of a scope-opening instruction's pushed scope
// according to its own IsDelayedReleaseScope flag (spec §9 / SPEC_FULL
// §3's resolution of the Open Question): on error unwind the scope is
// always released immediately, regardless of the flag, since an error
// has already broken the structured lifetime the flag was meant to
// extend; on any other exit, a delayed scope is handed to
// ctx.DeferScopeRelease for a later construct (e.g. FINALLY) to
// release instead of being released here.
func releaseScope(ctx Context, ins *instruction.Instruction, release func(), status Status) {
	if status.Kind == Errored || !ins.IsDelayedReleaseScope {
		release()
		return
	}
	ctx.DeferScopeRelease(release)
}

// IF with one argument tests its truthiness directly; with three
// (`IF: a, b, REL`, spec §8 scenario 2) it compares a REL b.
func execIf(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	cond, err := evalIfCondition(ctx, args)
	if err != nil {
		return ErrorStatus(err)
	}
	if !cond || ins.ScopeInsSet == nil {
		return NormalStatus()
	}
	release := ctx.PushScope("IF-")
	status := ctx.RunSet(ins.ScopeInsSet)
	releaseScope(ctx, ins, release, status)
	return status
}

func evalIfCondition(ctx Context, args []instruction.Arg) (bool, error) {
	if len(args) >= 3 {
		a, err := resolveArg(ctx, args[0])
		if err != nil {
			return false, err
		}
		b, err := resolveArg(ctx, args[1])
		if err != nil {
			return false, err
		}
		rel, ok := relationalFromToken(args[2].Text)
		if !ok {
			return false, fmt.Errorf("SyntaxError: unknown IF relational %q", args[2].Text)
		}
		return a.Compare(b, rel)
	}
	cond, err := resolveArg(ctx, args[0])
	if err != nil {
		return false, err
	}
	return cond.ToBool(), nil
}

// REPEAT runs its child set either a bounded number of passes (spec §8
// scenario 2's literal `REPEAT: 10`) or, with no count argument, until
// the child's own UNTIL instruction (the last instruction in the set,
// by the parser's construction) signals termination — since UNTIL's
// own executor cannot reach back into REPEAT's loop, REPEAT re-runs the
// whole child set and re-checks the condition bound by UNTIL into a
// well-known scratch name after each pass. Both forms honor an inner
// BREAK.
func execRepeat(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	if ins.ScopeInsSet == nil {
		return NormalStatus()
	}
	count := -1 // unbounded: terminated by BREAK or UNTIL only
	if len(args) == 1 {
		n, err := resolveArg(ctx, args[0])
		if err != nil {
			return ErrorStatus(err)
		}
		nn, ok := n.(value.Numeric)
		if !ok {
			return ErrorStatus(fmt.Errorf("TypeError: REPEAT count %q is not numeric", n.ValueStr()))
		}
		count = int(nn.AsInt())
	}

	for pass := 0; count < 0 || pass < count; pass++ {
		release := ctx.PushScope("REPEAT-")
		status := ctx.RunSet(ins.ScopeInsSet)
		// UNTIL binds __until__ in this pass's scope, so it is read
		// before the scope is released.
		done, lookupErr := ctx.Lookup("__until__")
		release()

		switch status.Kind {
		case Break:
			return NormalStatus()
		case Return, Errored:
			return status
		}

		if lookupErr == nil && done.ToBool() {
			return NormalStatus()
		}
	}
	return NormalStatus()
}

// UNTIL evaluates its condition and stashes the result where the
// enclosing REPEAT checks it after each pass.
func execUntil(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	cond, err := resolveArg(ctx, args[0])
	if err != nil {
		return ErrorStatus(err)
	}
	if err := ctx.Assign("__until__", cond); err != nil {
		_ = ctx.Bind("__until__", cond)
	}
	return NormalStatus()
}

func execBreak(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	return BreakStatus()
}

func execContinue(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	return ContinueStatus()
}

func execSetAt(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	container, err := resolveArg(ctx, args[0])
	if err != nil {
		return ErrorStatus(err)
	}
	key, err := resolveArg(ctx, args[1])
	if err != nil {
		return ErrorStatus(err)
	}
	val, err := resolveArg(ctx, args[2])
	if err != nil {
		return ErrorStatus(err)
	}
	switch c := container.(type) {
	case *value.Dict:
		c.Set(key, val)
	case *value.List:
		idx, ok := key.(*value.Int)
		if !ok {
			return ErrorStatus(fmt.Errorf("TypeError: list index must be int, got %s", key.TypeName()))
		}
		if err := c.SetAt(int(idx.AsInt()), val); err != nil {
			return ErrorStatus(err)
		}
	default:
		return ErrorStatus(fmt.Errorf("TypeError: %s does not support indexed assignment", container.TypeName()))
	}
	return NormalStatus()
}

func execGetAt(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	container, err := resolveArg(ctx, args[0])
	if err != nil {
		return ErrorStatus(err)
	}
	key, err := resolveArg(ctx, args[1])
	if err != nil {
		return ErrorStatus(err)
	}
	var result value.Value
	switch c := container.(type) {
	case *value.Dict:
		v, ok := c.Get(key)
		if !ok {
			result = value.NewNull()
		} else {
			result = v
		}
	case *value.List:
		idx, ok := key.(*value.Int)
		if !ok {
			return ErrorStatus(fmt.Errorf("TypeError: list index must be int, got %s", key.TypeName()))
		}
		v, err := c.At(int(idx.AsInt()))
		if err != nil {
			return ErrorStatus(err)
		}
		result = v
	case *value.Extension:
		v, ok := c.Exports[key.ValueStr()]
		if !ok {
			return ErrorStatus(fmt.Errorf("KeyError: extension %s has no export %q", c.IdentStr, key.ValueStr()))
		}
		result = v
	default:
		return ErrorStatus(fmt.Errorf("TypeError: %s does not support indexed access", container.TypeName()))
	}
	if err := ctx.Bind(args[2].Text, result); err != nil {
		if aerr := ctx.Assign(args[2].Text, result); aerr != nil {
			return ErrorStatus(err)
		}
	}
	return NormalStatus()
}

// FUNC declares a function value bound to its first argument's name;
// remaining args are parameter names. The body executes later, on CALL.
func execFunc(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	params := make([]value.Param, 0, len(args)-1)
	for _, a := range args[1:] {
		params = append(params, value.Param{Name: a.Text})
	}
	fn := value.NewFunction(args[0].Text, params, ins.ScopeInsSet)
	if err := ctx.Bind(args[0].Text, fn); err != nil {
		return ErrorStatus(err)
	}
	return NormalStatus()
}

func execRet(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	if len(args) == 0 {
		return ReturnStatus(value.NewNull())
	}
	v, err := resolveArg(ctx, args[0])
	if err != nil {
		return ErrorStatus(err)
	}
	return ReturnStatus(v)
}

// CALL invokes a bound Function by name, binding positional arguments
// into a fresh FUNC-prefixed scope, executing the body, and stashing
// the return value into SR. Every argument after the function name is
// a parameter value; CALL does not bind the return value to any
// destination name.
func execCall(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	fnVal, err := ctx.Lookup(args[0].Text)
	if err != nil {
		return ErrorStatus(err)
	}
	fn, ok := fnVal.(*value.Function)
	if !ok {
		return ErrorStatus(fmt.Errorf("TypeError: %q is not callable", args[0].Text))
	}
	body, ok := fn.Body.(*instruction.InstructionSet)
	if !ok {
		return ErrorStatus(fmt.Errorf("RuntimeError: function %q has no body", fn.Name))
	}

	callArgs := args[1:]
	release := ctx.PushScope("FUNC-" + fn.Name + "-")
	defer release()

	for i, p := range fn.Params {
		var v value.Value
		if i < len(callArgs) {
			v, err = resolveArg(ctx, callArgs[i])
			if err != nil {
				return ErrorStatus(err)
			}
		} else if p.Default != nil {
			v = p.Default
		} else {
			v = value.NewNull()
		}
		if err := ctx.Bind(p.Name, v); err != nil {
			return ErrorStatus(err)
		}
	}

	status := ctx.RunSet(body)
	switch status.Kind {
	case Return:
		ctx.SetLastReturn(status.Value)
		return NormalStatus()
	case Errored:
		return status
	default:
		ctx.SetLastReturn(value.NewNull())
		return NormalStatus()
	}
}

// DETECT installs an error handler: the body runs; if it errors, the
// error value is bound to the well-known name SE in the enclosing
// scope and control resumes normally rather than propagating (spec
// §4.8's "binds the error value to a well-known name in the enclosing
// scope"). DETECT's scope is marked delayed-release (spec §9 /
// SPEC_FULL §3): on normal exit releaseScope hands it to
// ctx.DeferScopeRelease so a following FINALLY can still see it; on
// error unwind it is released immediately regardless.
func execDetect(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	if ins.ScopeInsSet == nil {
		return NormalStatus()
	}
	release := ctx.PushScope("DETECT-")
	status := ctx.RunSet(ins.ScopeInsSet)
	releaseScope(ctx, ins, release, status)

	if status.Kind == Errored {
		errVal := value.NewError("RuntimeError", ctx.Position().String(), "", []string{status.Err.Error()})
		ctx.SetLastError(errVal)
		return ctx.RaiseDetect(errVal)
	}
	return status
}

// FINALLY always runs its body, regardless of whether the preceding
// DETECT caught anything, and is the "later construct" that releases
// any scope a preceding delayed-release DETECT left open (spec §9 /
// SPEC_FULL §3).
func execFinally(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	defer ctx.ReleaseDeferredScope()
	if ins.ScopeInsSet == nil {
		return NormalStatus()
	}
	release := ctx.PushScope("FINALLY-")
	status := ctx.RunSet(ins.ScopeInsSet)
	releaseScope(ctx, ins, release, status)
	return status
}

func execThrow(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	msgs := make([]string, 0, len(args))
	for _, a := range args {
		v, err := resolveArg(ctx, a)
		if err != nil {
			return ErrorStatus(err)
		}
		msgs = append(msgs, v.ValueStr())
	}
	kind := "CustomError"
	if len(args) > 0 && args[0].Kind == instruction.KindKeyword {
		kind = args[0].Text
	}
	errVal := value.NewError(kind, ctx.Position().String(), "", msgs)
	ctx.SetLastError(errVal)
	return ErrorStatus(fmt.Errorf("%s: %v", kind, msgs))
}

// SRC statically links another instruction set's body into a fresh
// scope at this point (the actual splice happened at parse/link time
// via InsertInsSet; here the engine just runs the already-spliced
// child under its own scope).
func execSrc(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	if ins.ScopeInsSet == nil {
		return NormalStatus()
	}
	release := ctx.PushScope("SRC-")
	status := ctx.RunSet(ins.ScopeInsSet)
	releaseScope(ctx, ins, release, status)
	return status
}

// EXT loads an extension (spec §3.2 Extension; SPEC_FULL §4.2a routes
// DB-scheme DSNs through internal/database). The opcode table itself
// has no dependency on internal/database — the engine wires the actual
// loader in via Context, keeping this executor a thin dispatcher.
// EXT binds args[0] to the loaded extension in the CURRENT scope (so
// it survives past this block, the way `conn` in `conn::connected`
// implies — SPEC_FULL.md §8 scenario 7) before opening its own child
// scope for the block body. A DB-scheme DSN resolves to a
// *value.Extension via ctx.LoadExtension; its exports (connected,
// driver, dsn, ...) are then readable with GET_AT like a dict. A
// failed handshake surfaces through the connected export and SE, not
// an Errored status.
func execExt(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	dsn, err := resolveArg(ctx, args[1])
	if err != nil {
		return ErrorStatus(err)
	}

	ext, isDB, _ := ctx.LoadExtension(dsn.ValueStr())
	bound := ext
	if !isDB {
		bound = value.NewString(dsn.ValueStr())
	}
	if err := ctx.Bind(args[0].Text, bound); err != nil {
		return ErrorStatus(err)
	}

	release := ctx.PushScope("EXT-")
	status := NormalStatus()
	if ins.ScopeInsSet != nil {
		status = ctx.RunSet(ins.ScopeInsSet)
	}
	releaseScope(ctx, ins, release, status)
	return status
}

func execSpNew(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	if ins.ScopeInsSet == nil {
		return NormalStatus()
	}
	release := ctx.PushScope("SP-")
	status := ctx.RunSet(ins.ScopeInsSet)
	releaseScope(ctx, ins, release, status)
	return status
}

func execIterTrav(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	return iterate(ctx, ins, args, false)
}

func execIterRevTrav(ctx Context, ins *instruction.Instruction, args []instruction.Arg) Status {
	return iterate(ctx, ins, args, true)
}

func iterate(ctx Context, ins *instruction.Instruction, args []instruction.Arg, reverse bool) Status {
	src, err := resolveArg(ctx, args[0])
	if err != nil {
		return ErrorStatus(err)
	}
	iterable, ok := src.(value.Iterable)
	if !ok {
		return ErrorStatus(fmt.Errorf("TypeError: %s is not iterable", src.TypeName()))
	}
	var state *value.IterState
	if reverse {
		state = value.BeginReverseIter(iterable)
	} else {
		state = value.BeginIter(iterable)
	}

	for !state.AtEnd() {
		item := state.Next()
		release := ctx.PushScope("ITER-")
		if err := ctx.Bind(args[1].Text, item); err != nil {
			release()
			return ErrorStatus(err)
		}
		var status Status
		if ins.ScopeInsSet != nil {
			status = ctx.RunSet(ins.ScopeInsSet)
		}
		release()

		switch status.Kind {
		case Break:
			return NormalStatus()
		case Return, Errored:
			return status
		}
	}
	return NormalStatus()
}
