package instruction

import "testing"

func TestSetLabelAndGetLabel(t *testing.T) {
	s := NewSet("IF-", "IF:x, RG", Position{File: "t.ra", Line: 1, Col: 1})
	s.AddIns(New(Position{File: "t.ra", Line: 2, Col: 1}, "PRINT: 1", "PRINT", nil))
	s.SetLabel("IF-END", 1)

	idx, err := s.GetLabel("IF-END")
	if err != nil {
		t.Fatal(err)
	}
	if idx != 1 {
		t.Fatalf("expected 1, got %d", idx)
	}

	if _, err := s.GetLabel("missing"); err == nil {
		t.Fatal("expected LinkError for undefined label")
	}
}

func TestInsertInsSetShiftsLabels(t *testing.T) {
	base := NewSet("ROOT-", "ROOT", Position{})
	base.AddIns(New(Position{}, "PRINT: 1", "PRINT", nil))

	linked := NewSet("LINK-", "LINK", Position{})
	linked.AddIns(New(Position{}, "PRINT: 2", "PRINT", nil))
	linked.AddIns(New(Position{}, "PRINT: 3", "PRINT", nil))
	linked.SetLabel("LINK-END", 1)

	base.InsertInsSet(linked)

	if base.Size() != 3 {
		t.Fatalf("expected 3 instructions after splice, got %d", base.Size())
	}
	idx, err := base.GetLabel("LINK-END")
	if err != nil {
		t.Fatal(err)
	}
	if idx != 2 {
		t.Fatalf("expected shifted label index 2, got %d", idx)
	}
	if base.End != 2 {
		t.Fatalf("expected end pointer 2, got %d", base.End)
	}
}

func TestAtOutOfRange(t *testing.T) {
	s := NewSet("X-", "X", Position{})
	if _, err := s.At(0); err == nil {
		t.Fatal("expected RangeError on empty set")
	}
}
