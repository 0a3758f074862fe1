package scope

import (
	"testing"

	"ravm/internal/value"
)

func TestFindByIDMatchesFindByName(t *testing.T) {
	s := New("TestScope", DefaultPermissions())
	id, err := s.AddByName("x", value.NewInt(7))
	if err != nil {
		t.Fatal(err)
	}

	byName, ok, err := s.FindByName("x")
	if err != nil || !ok {
		t.Fatalf("FindByName failed: ok=%v err=%v", ok, err)
	}
	byID, ok, err := s.FindByID(id)
	if err != nil || !ok {
		t.Fatalf("FindByID failed: ok=%v err=%v", ok, err)
	}
	if byName.ValueStr() != byID.ValueStr() {
		t.Fatalf("FindByName and FindByID disagree: %v vs %v", byName, byID)
	}
}

func TestAddDuplicateNameFails(t *testing.T) {
	s := New("TestScope", DefaultPermissions())
	if _, err := s.AddByName("x", value.NewInt(1)); err != nil {
		t.Fatal(err)
	}
	_, err := s.AddByName("x", value.NewInt(2))
	if err == nil {
		t.Fatal("expected DuplicateKeyError")
	}
	if _, ok := err.(*DuplicateKeyError); !ok {
		t.Fatalf("expected *DuplicateKeyError, got %T", err)
	}
}

func TestPermissionDeniedRaisesModificationError(t *testing.T) {
	perms := DefaultPermissions()
	perms.Addable = false
	s := New("Locked", perms)
	_, err := s.AddByName("x", value.NewInt(1))
	if err == nil {
		t.Fatal("expected ModificationError")
	}
	if _, ok := err.(*ModificationError); !ok {
		t.Fatalf("expected *ModificationError, got %T", err)
	}
}

func TestClearEmptiesScope(t *testing.T) {
	s := New("TestScope", DefaultPermissions())
	s.AddByName("x", value.NewInt(1))
	s.AddByName("y", value.NewInt(2))
	s.Clear()
	if s.Size() != 0 || !s.Empty() {
		t.Fatalf("expected empty scope after Clear, got size=%d", s.Size())
	}
}
