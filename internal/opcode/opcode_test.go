package opcode

import "testing"

func TestLookupUnknownOpcodeFails(t *testing.T) {
	table := NewTable()
	if _, err := table.Lookup("NOPE"); err == nil {
		t.Fatal("expected SyntaxError for unknown opcode")
	}
}

func TestScopeOpeningFlagsMatchSpec(t *testing.T) {
	table := NewTable()
	scopeOpening := []string{"IF", "REPEAT", "FUNC", "DETECT", "FINALLY", "SRC", "EXT", "SP_NEW", "ITER_TRAV", "ITER_REV_TRAV"}
	for _, name := range scopeOpening {
		if !table.IsScopeOpening(name) {
			t.Fatalf("expected %s to be scope-opening", name)
		}
	}
	notScopeOpening := []string{"VAR", "PRINT", "BREAK", "CONTINUE", "RET", "CALL", "THROW"}
	for _, name := range notScopeOpening {
		if table.IsScopeOpening(name) {
			t.Fatalf("expected %s to not be scope-opening", name)
		}
	}
}

func TestIndexOfAndNameOfRoundTrip(t *testing.T) {
	table := NewTable()
	for _, name := range table.Names() {
		idx, err := table.IndexOf(name)
		if err != nil {
			t.Fatal(err)
		}
		back, err := table.NameOf(idx)
		if err != nil {
			t.Fatal(err)
		}
		if back != name {
			t.Fatalf("expected round-trip %s, got %s", name, back)
		}
	}
}

func TestArityAccepts(t *testing.T) {
	if !fixed(2).Accepts(2) || fixed(2).Accepts(3) {
		t.Fatal("fixed arity mismatch")
	}
	if !atLeast(1).Accepts(5) || atLeast(1).Accepts(0) {
		t.Fatal("variadic arity mismatch")
	}
}
