package lexer

import (
	"testing"

	"ravm/internal/instruction"
)

func TestSplitColonIgnoresColonInsideQuotes(t *testing.T) {
	opcode, rest, ok := SplitColon(`PRINT: "ratio 3:1"`)
	if !ok {
		t.Fatal("expected colon found")
	}
	if opcode != "PRINT" {
		t.Fatalf("expected PRINT, got %q", opcode)
	}
	if rest != `"ratio 3:1"` {
		t.Fatalf("expected quoted arg preserved, got %q", rest)
	}
}

func TestSplitArgsQuoteAwareCommas(t *testing.T) {
	args := SplitArgs(`"a, b", x, "c"`)
	want := []string{`"a, b"`, "x", `"c"`}
	if len(args) != len(want) {
		t.Fatalf("expected %v, got %v", want, args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, args)
		}
	}
}

func TestClassifyString(t *testing.T) {
	kind, resolved, err := Classify(`"hi\nthere"`)
	if err != nil {
		t.Fatal(err)
	}
	if kind != instruction.KindString {
		t.Fatalf("expected string kind, got %v", kind)
	}
	if resolved != "hi\nthere" {
		t.Fatalf("expected escaped newline, got %q", resolved)
	}
}

func TestClassifyNumber(t *testing.T) {
	kind, _, err := Classify("-3.5")
	if err != nil {
		t.Fatal(err)
	}
	if kind != instruction.KindNumber {
		t.Fatalf("expected number kind, got %v", kind)
	}
}

func TestClassifyKeyword(t *testing.T) {
	kind, _, err := Classify("RE")
	if err != nil {
		t.Fatal(err)
	}
	if kind != instruction.KindKeyword {
		t.Fatalf("expected keyword kind, got %v", kind)
	}
}

func TestClassifyIdentifier(t *testing.T) {
	kind, _, err := Classify("my_var1")
	if err != nil {
		t.Fatal(err)
	}
	if kind != instruction.KindIdentifier {
		t.Fatalf("expected identifier kind, got %v", kind)
	}
}

func TestClassifyUnknownFails(t *testing.T) {
	if _, _, err := Classify("1abc"); err == nil {
		t.Fatal("expected SyntaxError for malformed token")
	}
}

// TestClassifyArithOperatorIsKeyword covers spec §8 scenario 1's bare
// `OPT: c, a, b, +` operator argument.
func TestClassifyArithOperatorIsKeyword(t *testing.T) {
	for _, op := range []string{"+", "-", "*", "/", "%", "^", "root"} {
		kind, resolved, err := Classify(op)
		if err != nil {
			t.Fatalf("Classify(%q): %v", op, err)
		}
		if kind != instruction.KindKeyword {
			t.Fatalf("Classify(%q): expected keyword kind, got %v", op, kind)
		}
		if resolved != op {
			t.Fatalf("Classify(%q): expected token preserved, got %q", op, resolved)
		}
	}
}

// TestClassifyContainerLiteral covers scenario 3's bare `{}`.
func TestClassifyContainerLiteral(t *testing.T) {
	kind, resolved, err := Classify("{}")
	if err != nil {
		t.Fatal(err)
	}
	if kind != instruction.KindContainer {
		t.Fatalf("expected container kind, got %v", kind)
	}
	if resolved != "dict" {
		t.Fatalf("expected normalized \"dict\", got %q", resolved)
	}
}

// TestClassifyAccessExpr covers scenario 3's `d@"k"`.
func TestClassifyAccessExpr(t *testing.T) {
	kind, resolved, err := Classify(`d@"k"`)
	if err != nil {
		t.Fatal(err)
	}
	if kind != instruction.KindExpr {
		t.Fatalf("expected expr kind, got %v", kind)
	}
	if resolved != `d@"k"` {
		t.Fatalf("expected raw text preserved for later re-split, got %q", resolved)
	}
	container, key, ok := SplitAccessExpr(resolved)
	if !ok || container != "d" || key != `"k"` {
		t.Fatalf("expected split d / \"k\", got %q / %q (ok=%v)", container, key, ok)
	}
}

// TestClassifyInlineArithExpr covers scenario 4's `x*x`.
func TestClassifyInlineArithExpr(t *testing.T) {
	kind, resolved, err := Classify("x*x")
	if err != nil {
		t.Fatal(err)
	}
	if kind != instruction.KindExpr {
		t.Fatalf("expected expr kind, got %v", kind)
	}
	left, op, right, ok := SplitInlineArithExpr(resolved)
	if !ok || left != "x" || op != "*" || right != "x" {
		t.Fatalf("expected split x / * / x, got %q / %q / %q (ok=%v)", left, op, right, ok)
	}
}

func TestParseNumberRoutesIntFirst(t *testing.T) {
	isInt, i, _, err := ParseNumber("42")
	if err != nil {
		t.Fatal(err)
	}
	if !isInt || i != 42 {
		t.Fatalf("expected int 42, got isInt=%v i=%d", isInt, i)
	}

	isInt, _, f, err := ParseNumber("3.5")
	if err != nil {
		t.Fatal(err)
	}
	if isInt || f != 3.5 {
		t.Fatalf("expected float 3.5, got isInt=%v f=%v", isInt, f)
	}
}
