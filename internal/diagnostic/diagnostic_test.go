package diagnostic

import (
	"strings"
	"testing"

	"ravm/internal/codec"
	rvmerrors "ravm/internal/errors"
)

func TestRenderDebugIncludesTraceSourceAndTips(t *testing.T) {
	err := rvmerrors.New(rvmerrors.RuntimeError, "division by zero").
		WithPosition("main.ra:4").
		WithSource(`OPT: c, a, b, "/"`).
		WithTips("check the divisor before dividing")
	err.PushTrace("FUNC-divide-1 (main.ra:4)")

	out := Render(err, codec.Debug, nil, false)
	if !strings.Contains(out, "RuntimeError") {
		t.Fatalf("expected header to contain RuntimeError, got %q", out)
	}
	if !strings.Contains(out, "FUNC-divide-1") {
		t.Fatalf("expected trace frame in output, got %q", out)
	}
	if !strings.Contains(out, "check the divisor") {
		t.Fatalf("expected tip in output, got %q", out)
	}
}

func TestRenderReleaseOmitsTraceSourceAndTips(t *testing.T) {
	err := rvmerrors.New(rvmerrors.RuntimeError, "division by zero").
		WithSource(`OPT: c, a, b, "/"`).
		WithTips("check the divisor before dividing")
	err.PushTrace("FUNC-divide-1")

	out := Render(err, codec.Release, nil, false)
	if strings.Contains(out, "FUNC-divide-1") {
		t.Fatalf("expected no trace under Release profile, got %q", out)
	}
	if strings.Contains(out, "check the divisor") {
		t.Fatalf("expected no tips under Release profile, got %q", out)
	}
	if !strings.Contains(out, "division by zero") {
		t.Fatalf("expected info line to survive under Release profile, got %q", out)
	}
}

func TestRenderFallsBackToEngineTraceWhenErrorHasNone(t *testing.T) {
	err := rvmerrors.New(rvmerrors.TypeError, "bad operand")
	out := Render(err, codec.Debug, []string{"IF-3 (main.ra:2)"}, false)
	if !strings.Contains(out, "IF-3") {
		t.Fatalf("expected engine trace fallback in output, got %q", out)
	}
}
