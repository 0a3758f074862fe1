package engine

import (
	"bytes"
	"testing"

	"ravm/internal/codec"
	"ravm/internal/opcode"
	"ravm/internal/parser"
	"ravm/internal/value"
)

func run(t *testing.T, src string) *Engine {
	t.Helper()
	table := opcode.NewTable()
	p := parser.New(table)
	root, err := p.Parse(src, "t.ra")
	if err != nil {
		t.Fatal(err)
	}
	e := New(table)
	status := e.Execute(root)
	if status.Kind == opcode.Errored {
		t.Fatalf("unexpected error: %v", status.Err)
	}
	return e
}

func TestVarAndPrint(t *testing.T) {
	e := run(t, `
VAR: x, 10
PRINT: x
`)
	v, err := e.Lookup("x")
	if err != nil {
		t.Fatal(err)
	}
	if v.ValueStr() != "10" {
		t.Fatalf("expected 10, got %s", v.ValueStr())
	}
}

func TestOptAddsAndPrints(t *testing.T) {
	e := run(t, `
VAR: a, 2
VAR: b, 3
OPT: c, a, b, +
PRINT: c
`)
	c, err := e.Lookup("c")
	if err != nil {
		t.Fatal(err)
	}
	if c.ValueStr() != "5" {
		t.Fatalf("expected 5, got %s", c.ValueStr())
	}
}

// TestRepeatWithCountBreaksAtFive runs spec §8 scenario 2 as written:
// a counted REPEAT with no UNTIL, bounded only by the count and an
// inner BREAK.
func TestRepeatWithCountBreaksAtFive(t *testing.T) {
	e := run(t, `
VAR: i, 0
REPEAT: 10
OPT: i, i, 1, +
IF: i, 5, RE
BREAK
END
END
PRINT: i
`)
	i, err := e.Lookup("i")
	if err != nil {
		t.Fatal(err)
	}
	if i.ValueStr() != "5" {
		t.Fatalf("expected 5, got %s", i.ValueStr())
	}
}

// TestRepeatWithUntilAndNoCountRunsUntilConditionTrue covers the other
// REPEAT form (no count, terminated by a sibling UNTIL), which must
// keep working alongside the counted form.
func TestRepeatWithUntilAndNoCountRunsUntilConditionTrue(t *testing.T) {
	e := run(t, `
VAR: i, 0
VAR: going, false
REPEAT
OPT: i, i, 1, +
OPT: going, i, 5, RE
UNTIL: going
END
PRINT: i
`)
	i, err := e.Lookup("i")
	if err != nil {
		t.Fatal(err)
	}
	if i.ValueStr() != "5" {
		t.Fatalf("expected 5, got %s", i.ValueStr())
	}
}

// TestDictLiteralAndAccessExprRoundTrip runs spec §8 scenario 3 as
// written: a bare `{}` literal and a `d@"k"` access expression.
func TestDictLiteralAndAccessExprRoundTrip(t *testing.T) {
	e := run(t, `
VAR: d, {}
SET_AT: d, "k", 42
PRINT: d@"k"
`)
	d, err := e.Lookup("d")
	if err != nil {
		t.Fatal(err)
	}
	dict, ok := d.(*value.Dict)
	if !ok {
		t.Fatalf("expected d to be a dict, got %T", d)
	}
	v, ok := dict.Get(value.NewString("k"))
	if !ok || v.ValueStr() != "42" {
		t.Fatalf("expected d[\"k\"]=42, got %v (ok=%v)", v, ok)
	}
}

// TestRetWithInlineArithExprSquaresArg runs the squaring function of
// spec §8 scenario 4 (`RET: x*x` inside a function body), calling it as
// `CALL: square, n` and reading the result from SR, since CALL binds no
// destination name.
func TestRetWithInlineArithExprSquaresArg(t *testing.T) {
	e := run(t, `
FUNC: square, x
RET: x*x
END
VAR: n, 7
CALL: square, n
`)
	sr, err := e.Lookup("SR")
	if err != nil {
		t.Fatal(err)
	}
	if sr.ValueStr() != "49" {
		t.Fatalf("expected SR=49, got %s", sr.ValueStr())
	}
}

func TestIfRunsBodyWhenTrue(t *testing.T) {
	e := run(t, `
VAR: flag, true
VAR: hit, false
IF: flag
OPT: hit, flag, true, AND
END
`)
	v, err := e.Lookup("hit")
	if err != nil {
		t.Fatal(err)
	}
	if v.ValueStr() != "true" {
		t.Fatalf("expected true, got %s", v.ValueStr())
	}
}

func TestFuncCallBindsReturnToSR(t *testing.T) {
	e := run(t, `
FUNC: double, n
VAR: result, n
RET: result
END
VAR: n, 21
CALL: double, n
`)
	sr, err := e.Lookup("SR")
	if err != nil {
		t.Fatal(err)
	}
	if sr.ValueStr() != "21" {
		t.Fatalf("expected SR=21, got %s", sr.ValueStr())
	}
}

func TestIterTravRunsBodyPerElementAndReleasesLoopScope(t *testing.T) {
	table := opcode.NewTable()
	p := parser.New(table)
	root, err := p.Parse(`
ITER_TRAV: items, item
VAR: seen_inside, item
END
`, "t.ra")
	if err != nil {
		t.Fatal(err)
	}

	e := New(table)
	if err := e.Bind("items", value.NewList([]value.Value{value.NewInt(1), value.NewInt(2), value.NewInt(3)})); err != nil {
		t.Fatal(err)
	}
	status := e.Execute(root)
	if status.Kind == opcode.Errored {
		t.Fatalf("unexpected error: %v", status.Err)
	}

	if _, err := e.Lookup("item"); err == nil {
		t.Fatal("expected loop variable to not leak past its per-iteration scope")
	}
	if _, err := e.Lookup("seen_inside"); err == nil {
		t.Fatal("expected body-local binding to not leak past its per-iteration scope")
	}
}

func TestSetAtGetAtRoundTripsThroughDict(t *testing.T) {
	table := opcode.NewTable()
	p := parser.New(table)
	root, err := p.Parse(`
SET_AT: d, "k", 42
GET_AT: d, "k", v
PRINT: v
`, "t.ra")
	if err != nil {
		t.Fatal(err)
	}

	e := New(table)
	if err := e.Bind("d", value.NewDict()); err != nil {
		t.Fatal(err)
	}
	status := e.Execute(root)
	if status.Kind == opcode.Errored {
		t.Fatalf("unexpected error: %v", status.Err)
	}
	v, err := e.Lookup("v")
	if err != nil {
		t.Fatal(err)
	}
	if v.ValueStr() != "42" {
		t.Fatalf("expected 42, got %s", v.ValueStr())
	}
}

func TestDictAccessSurvivesReleaseProfileReserialization(t *testing.T) {
	table := opcode.NewTable()
	p := parser.New(table)
	root, err := p.Parse(`
SET_AT: d, "k", 42
GET_AT: d, "k", v
`, "t.ra")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := codec.Encode(&buf, codec.Release, codec.Manifest{}, root, table); err != nil {
		t.Fatal(err)
	}
	_, decoded, err := codec.Decode(&buf, codec.Release, table)
	if err != nil {
		t.Fatal(err)
	}

	e := New(table)
	if err := e.Bind("d", value.NewDict()); err != nil {
		t.Fatal(err)
	}
	status := e.Execute(decoded)
	if status.Kind == opcode.Errored {
		t.Fatalf("unexpected error after re-running reserialized set: %v", status.Err)
	}
	v, err := e.Lookup("v")
	if err != nil {
		t.Fatal(err)
	}
	if v.ValueStr() != "42" {
		t.Fatalf("expected 42 after Release round-trip, got %s", v.ValueStr())
	}
}

// TestDetectScopeSurvivesIntoFinallyThenReleases exercises SPEC_FULL
// §3's resolution of the delayed-release Open Question: on normal
// exit, DETECT's scope stays live through a following FINALLY (so
// FINALLY can still see names DETECT bound), and is released once
// FINALLY itself completes.
func TestDetectScopeSurvivesIntoFinallyThenReleases(t *testing.T) {
	e := run(t, `
VAR: seen, 0
DETECT: err
VAR: x, 99
END
FINALLY
VAR: y, x
OPT: seen, y, 0, +
END
`)
	seen, err := e.Lookup("seen")
	if err != nil {
		t.Fatal(err)
	}
	if seen.ValueStr() != "99" {
		t.Fatalf("expected FINALLY to see DETECT's still-open scope (seen=99), got %s", seen.ValueStr())
	}
	if _, err := e.Lookup("x"); err == nil {
		t.Fatal("expected DETECT's scope to be released once FINALLY completes")
	}
	if _, err := e.Lookup("y"); err == nil {
		t.Fatal("expected FINALLY's own scope to be released normally")
	}
}

// TestDetectScopeReleasedImmediatelyOnError exercises the other half of
// the Open Question resolution: a delayed-release scope is released
// unconditionally during error unwind, never deferred.
func TestDetectScopeReleasedImmediatelyOnError(t *testing.T) {
	e := run(t, `
DETECT: err
VAR: x, 1
THROW: "boom"
END
`)
	if _, err := e.Lookup("x"); err == nil {
		t.Fatal("expected DETECT's scope to be released immediately on error unwind")
	}
}

func TestThrowCaughtByDetect(t *testing.T) {
	e := run(t, `
DETECT: err
THROW: "boom"
END
`)
	se, err := e.Lookup("SE")
	if err != nil {
		t.Fatal(err)
	}
	if se.ValueStr() == "" {
		t.Fatal("expected SE to be populated after caught throw")
	}
}

func TestExtLoadsSQLiteDSNAndGetAtReadsConnected(t *testing.T) {
	e := run(t, `
EXT: conn, "sqlite::memory:"
END
GET_AT: conn, "connected", ok
`)
	ok, err := e.Lookup("ok")
	if err != nil {
		t.Fatal(err)
	}
	if ok.ValueStr() != "true" {
		t.Fatalf("expected connected=true, got %s", ok.ValueStr())
	}
}

func TestExtUnrecognizedSchemeFallsBackToPlainBinding(t *testing.T) {
	e := run(t, `
EXT: lib, "helper.ra"
END
PRINT: lib
`)
	lib, err := e.Lookup("lib")
	if err != nil {
		t.Fatal(err)
	}
	if lib.ValueStr() != "helper.ra" {
		t.Fatalf("expected non-DB extension path bound as plain string, got %s", lib.ValueStr())
	}
}

func TestUncaughtThrowPropagatesAsErrored(t *testing.T) {
	table := opcode.NewTable()
	p := parser.New(table)
	root, err := p.Parse("THROW: \"fatal\"\n", "t.ra")
	if err != nil {
		t.Fatal(err)
	}
	e := New(table)
	status := e.Execute(root)
	if status.Kind != opcode.Errored {
		t.Fatalf("expected Errored status, got %v", status.Kind)
	}
}
