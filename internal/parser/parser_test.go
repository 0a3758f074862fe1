package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"ravm/internal/codec"
	"ravm/internal/opcode"
)

type memLoader struct {
	files map[string]string
}

func (m memLoader) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file %q", path)
	}
	return []byte(data), nil
}

func TestParseSimpleProgram(t *testing.T) {
	p := New(opcode.NewTable())
	src := `
VAR: x, 1
PRINT: x
`
	set, err := p.Parse(src, "t.ra")
	if err != nil {
		t.Fatal(err)
	}
	if set.Size() != 2 {
		t.Fatalf("expected 2 instructions, got %d", set.Size())
	}
	ins, _ := set.At(0)
	if ins.Opcode != "VAR" {
		t.Fatalf("expected VAR, got %s", ins.Opcode)
	}
}

func TestContinuationLineMerges(t *testing.T) {
	p := New(opcode.NewTable())
	src := "PRINT: \"hello\"\n~ \" world\"\n"
	_, err := p.Parse(src, "t.ra")
	if err != nil {
		t.Fatal(err)
	}
}

func TestCommentsStripped(t *testing.T) {
	p := New(opcode.NewTable())
	src := "; a comment\nVAR: x, 1 ; trailing comment\n"
	set, err := p.Parse(src, "t.ra")
	if err != nil {
		t.Fatal(err)
	}
	if set.Size() != 1 {
		t.Fatalf("expected 1 instruction, got %d", set.Size())
	}
}

func TestScopeOpeningOpcodeAssemblesChildSet(t *testing.T) {
	p := New(opcode.NewTable())
	src := `
IF: true
PRINT: "yes"
END
`
	set, err := p.Parse(src, "t.ra")
	if err != nil {
		t.Fatal(err)
	}
	ins, _ := set.At(0)
	if ins.Opcode != "IF" {
		t.Fatalf("expected IF, got %s", ins.Opcode)
	}
	if ins.ScopeInsSet == nil || ins.ScopeInsSet.Size() != 1 {
		t.Fatalf("expected child set with 1 instruction, got %v", ins.ScopeInsSet)
	}
}

func TestUnmatchedEndFails(t *testing.T) {
	p := New(opcode.NewTable())
	if _, err := p.Parse("END\n", "t.ra"); err == nil {
		t.Fatal("expected SyntaxError for unmatched END")
	}
}

func TestUnclosedScopeFails(t *testing.T) {
	p := New(opcode.NewTable())
	if _, err := p.Parse("IF: true\nPRINT: \"x\"\n", "t.ra"); err == nil {
		t.Fatal("expected SyntaxError for unclosed scope")
	}
}

func TestUnknownOpcodeFailsAtParseTime(t *testing.T) {
	p := New(opcode.NewTable())
	if _, err := p.Parse("NOPE: 1\n", "t.ra"); err == nil {
		t.Fatal("expected SyntaxError for unknown opcode")
	}
}

func TestLinkSplicesRaFile(t *testing.T) {
	p := New(opcode.NewTable())
	p.Loader = memLoader{files: map[string]string{
		"lib.ra": "PRINT: \"from lib\"\n",
	}}
	set, err := p.Parse("LINK: \"lib.ra\"\nPRINT: \"main\"\n", "main.ra")
	if err != nil {
		t.Fatal(err)
	}
	if set.Size() != 2 {
		t.Fatalf("expected 2 instructions after splice, got %d", set.Size())
	}
}

func TestPrecompileLinkWritesReleaseArchiveAlongsideSplice(t *testing.T) {
	table := opcode.NewTable()
	p := New(table)
	p.PrecompileDir = t.TempDir()
	p.Loader = memLoader{files: map[string]string{
		"lib.ra": "FUNC: greet\nPRINT: \"hi from lib\"\nEND\n",
	}}

	set, err := p.Parse("LINK: \"lib.ra\"\nCALL: greet\n", "main.ra")
	if err != nil {
		t.Fatal(err)
	}
	if set.Size() != 2 {
		t.Fatalf("expected FUNC + CALL after splice, got %d", set.Size())
	}

	archivePath := filepath.Join(p.PrecompileDir, "lib.rsi")
	f, err := os.Open(archivePath)
	if err != nil {
		t.Fatalf("expected precompiled archive at %s: %v", archivePath, err)
	}
	defer f.Close()

	_, decoded, err := codec.Decode(f, codec.Release, table)
	if err != nil {
		t.Fatal(err)
	}
	ins, err := decoded.At(0)
	if err != nil {
		t.Fatal(err)
	}
	if ins.Opcode != "FUNC" {
		t.Fatalf("expected FUNC as first instruction in precompiled lib, got %s", ins.Opcode)
	}
}
