package memory

import (
	"testing"

	"ravm/internal/value"
)

func TestAcquireReleaseReturnsScopeToPool(t *testing.T) {
	m := NewManager()
	before := m.FreePoolSize()

	s := m.AcquireScope("BlockScope", "")
	if s == nil {
		t.Fatal("expected non-nil scope")
	}
	if m.ActiveDepth() != 1 {
		t.Fatalf("expected active depth 1, got %d", m.ActiveDepth())
	}

	m.ReleaseScope(nil)
	if m.ActiveDepth() != 0 {
		t.Fatalf("expected active depth 0 after release, got %d", m.ActiveDepth())
	}
	if m.FreePoolSize() != before {
		t.Fatalf("expected free pool to return to %d, got %d", before, m.FreePoolSize())
	}
}

func TestFindDataByNameWalksActiveStackTopDown(t *testing.T) {
	m := NewManager()
	m.AddGlobalData("x", value.NewInt(1))

	inner := m.AcquireScope("BlockScope", "")
	inner.AddByName("x", value.NewInt(2))

	v, err := m.FindDataByName("x")
	if err != nil {
		t.Fatal(err)
	}
	if v.ValueStr() != "2" {
		t.Fatalf("expected shadowed value 2, got %s", v.ValueStr())
	}

	m.ReleaseScope(nil)
	v, err = m.FindDataByName("x")
	if err != nil {
		t.Fatal(err)
	}
	if v.ValueStr() != "1" {
		t.Fatalf("expected global value 1 after release, got %s", v.ValueStr())
	}
}

func TestQuoteResolvesThroughManager(t *testing.T) {
	m := NewManager()
	id, err := m.AddGlobalData("x", value.NewInt(10))
	if err != nil {
		t.Fatal(err)
	}

	q := value.NewQuote(id)
	v, err := q.Read(m)
	if err != nil {
		t.Fatal(err)
	}
	if v.ValueStr() != "10" {
		t.Fatalf("expected 10, got %s", v.ValueStr())
	}

	if err := q.Write(m, value.NewInt(20)); err != nil {
		t.Fatal(err)
	}
	v2, err := m.FindDataByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if v2.ValueStr() != "20" {
		t.Fatalf("expected 20 after quote write, got %s", v2.ValueStr())
	}
}

func TestClearAllScopesResetsEverything(t *testing.T) {
	m := NewManager()
	m.AddGlobalData("g", value.NewInt(1))
	m.AcquireScope("BlockScope", "")
	m.AcquireScope("BlockScope", "")

	m.ClearAllScopes()
	if m.ActiveDepth() != 0 {
		t.Fatalf("expected active depth 0, got %d", m.ActiveDepth())
	}
	if _, err := m.FindDataByName("g"); err == nil {
		t.Fatal("expected global binding to be cleared")
	}
}

func TestSetCurrentScopeByNameRaisesScope(t *testing.T) {
	m := NewManager()
	first := m.AcquireScope("BlockScope", "First")
	first.AddByName("only", value.NewInt(1))
	m.AcquireScope("BlockScope", "Second")

	if err := m.SetCurrentScopeByName("First"); err != nil {
		t.Fatal(err)
	}
	if m.CurrentScope().Name != "First" {
		t.Fatalf("expected First to be current, got %s", m.CurrentScope().Name)
	}
}
