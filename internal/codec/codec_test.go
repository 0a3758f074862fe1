package codec

import (
	"bytes"
	"fmt"
	"testing"

	"ravm/internal/instruction"
)

type fakeTable struct {
	names []string
}

func (t *fakeTable) IndexOf(name string) (int, error) {
	for i, n := range t.names {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown opcode %q", name)
}

func (t *fakeTable) NameOf(index int) (string, error) {
	if index < 0 || index >= len(t.names) {
		return "", fmt.Errorf("opcode index %d out of range", index)
	}
	return t.names[index], nil
}

func buildSet() *instruction.InstructionSet {
	root := instruction.NewSet("ROOT-", "Root", instruction.Position{File: "t.ra", Line: 1, Col: 1})
	ins := instruction.New(
		instruction.Position{File: "t.ra", Line: 2, Col: 1},
		`PRINT: "hi"`,
		"PRINT",
		[]instruction.Arg{{Pos: instruction.Position{File: "t.ra", Line: 2, Col: 8}, Kind: instruction.KindString, Text: "hi"}},
	)
	root.AddIns(ins)
	root.SetLabel("ROOT-END", 0)
	return root
}

func TestEncodeDecodeRoundTripDebugProfile(t *testing.T) {
	table := &fakeTable{names: []string{"PRINT"}}
	root := buildSet()

	var buf bytes.Buffer
	if err := Encode(&buf, Debug, Manifest{ModuleIdentities: []string{"mod1"}}, root, table); err != nil {
		t.Fatal(err)
	}

	manifest, decoded, err := Decode(&buf, Debug, table)
	if err != nil {
		t.Fatal(err)
	}
	if len(manifest.ModuleIdentities) != 1 || manifest.ModuleIdentities[0] != "mod1" {
		t.Fatalf("manifest mismatch: %v", manifest.ModuleIdentities)
	}
	if decoded.Size() != 1 {
		t.Fatalf("expected 1 instruction, got %d", decoded.Size())
	}
	ins, _ := decoded.At(0)
	if ins.Opcode != "PRINT" || ins.RawCode != `PRINT: "hi"` {
		t.Fatalf("round-trip mismatch: %+v", ins)
	}
	if ins.Args[0].Text != "hi" {
		t.Fatalf("expected arg text 'hi', got %q", ins.Args[0].Text)
	}
}

func TestReleaseProfileOmitsRawLineAndPositions(t *testing.T) {
	table := &fakeTable{names: []string{"PRINT"}}
	root := buildSet()

	var buf bytes.Buffer
	if err := Encode(&buf, Release, Manifest{}, root, table); err != nil {
		t.Fatal(err)
	}
	_, decoded, err := Decode(&buf, Release, table)
	if err != nil {
		t.Fatal(err)
	}
	ins, _ := decoded.At(0)
	if ins.RawCode != "" {
		t.Fatalf("expected raw code elided under Release profile, got %q", ins.RawCode)
	}
	if ins.Pos.Line != 0 {
		t.Fatalf("expected position elided under Release profile, got %+v", ins.Pos)
	}
}

func TestBadMagicFailsDecode(t *testing.T) {
	table := &fakeTable{names: []string{"PRINT"}}
	buf := bytes.NewBufferString("NOTRSI\x00\x00\x00\x00\x00\x00")
	if _, _, err := Decode(buf, Debug, table); err == nil {
		t.Fatal("expected error on bad magic")
	}
}
