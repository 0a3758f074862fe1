package errors

import (
	"fmt"
	"testing"
)

func TestKindOfParsesLegacyPrefixedErrors(t *testing.T) {
	err := fmt.Errorf("RangeError: index 3 out of range")
	if got := KindOf(err); got != RangeError {
		t.Fatalf("expected RangeError, got %s", got)
	}
}

func TestKindOfFallsBackToUnknown(t *testing.T) {
	err := fmt.Errorf("something went wrong")
	if got := KindOf(err); got != UnknownError {
		t.Fatalf("expected UnknownError, got %s", got)
	}
}

func TestPushTraceOnBuildsFrontFirstTrace(t *testing.T) {
	err := New(TypeError, "bad operand")
	wrapped := PushTraceOn(err, "inner")
	wrapped = PushTraceOn(wrapped, "outer")

	rv, ok := AsRVMError(wrapped)
	if !ok {
		t.Fatal("expected *RVMError")
	}
	if len(rv.Trace) != 2 || rv.Trace[0] != "outer" || rv.Trace[1] != "inner" {
		t.Fatalf("expected front-first trace [outer inner], got %v", rv.Trace)
	}
}

func TestNormalizePreservesCauseForLegacyErrors(t *testing.T) {
	original := fmt.Errorf("IOError: disk full")
	rv := Normalize(original)
	if rv.Kind != IOError {
		t.Fatalf("expected IOError, got %s", rv.Kind)
	}
	if rv.Unwrap() != original {
		t.Fatalf("expected cause to be the original error")
	}
}

func TestWrapPreservesCauseChain(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	rv := Wrap(FileError, cause, "cannot open archive")
	if rv.Unwrap() == nil {
		t.Fatal("expected wrapped cause to be retrievable")
	}
}
