// Package parser implements the VM's line-oriented parser/assembler
// (spec §4.6): preprocessing, per-line opcode/argument splitting,
// scope-stack-based instruction tree assembly, and eager LINK
// resolution.
package parser

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ravm/internal/codec"
	rvmerrors "ravm/internal/errors"
	"ravm/internal/instruction"
	"ravm/internal/lexer"
	"ravm/internal/opcode"
)

// FileLoader abstracts reading linked source/archive files, so tests
// can supply an in-memory loader instead of touching disk.
type FileLoader interface {
	ReadFile(path string) ([]byte, error)
}

// OSLoader reads files directly from disk.
type OSLoader struct{}

func (OSLoader) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// Parser holds the configuration shared across one parse (and its
// recursive LINK sub-parses).
type Parser struct {
	Table         *opcode.Table
	Loader        FileLoader
	PrecompileDir string // non-empty enables spec §4.6's "precompile link" mode
}

// New constructs a Parser against table, reading linked files from disk.
func New(table *opcode.Table) *Parser {
	return &Parser{Table: table, Loader: OSLoader{}}
}

type rawLine struct {
	text string
	row  int
}

// Parse runs the full pipeline over source read from filename and
// returns the assembled root instruction set.
func (p *Parser) Parse(source, filename string) (*instruction.InstructionSet, error) {
	lines, err := preprocess(source)
	if err != nil {
		return nil, err
	}
	return p.assemble(lines, filename)
}

// preprocess normalizes line endings, trims, merges `~` continuations,
// strips `;` comments outside quotes, and drops blank lines — spec
// §4.6 step 1.
func preprocess(source string) ([]rawLine, error) {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	rawRows := strings.Split(source, "\n")

	var out []rawLine
	for i, row := range rawRows {
		row = stripComment(row)
		trimmed := strings.TrimRight(row, " \t")
		leading := strings.TrimLeft(trimmed, " \t")
		if leading == "" {
			continue
		}
		if strings.HasPrefix(leading, "~") {
			if len(out) == 0 {
				return nil, rvmerrors.New(rvmerrors.SyntaxError, "continuation line with no preceding line").
					WithPosition(fmt.Sprintf("row %d", i+1))
			}
			out[len(out)-1].text += strings.TrimPrefix(leading, "~")
			continue
		}
		out = append(out, rawLine{text: leading, row: i + 1})
	}
	return out, nil
}

// stripComment removes a `;`-started comment, respecting quoted strings.
func stripComment(line string) string {
	inQuote := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '"' && (i == 0 || line[i-1] != '\\') {
			inQuote = !inQuote
		}
		if c == ';' && !inQuote {
			return line[:i]
		}
	}
	return line
}

// frame is one level of the parser's scope stack (spec §4.6 step 4).
type frame struct {
	set          *instruction.InstructionSet
	opcode       string
	delayedScope bool
}

func (p *Parser) assemble(lines []rawLine, filename string) (*instruction.InstructionSet, error) {
	root := instruction.NewSet("ROOT-", filename, instruction.Position{File: filename, Line: 0, Col: 1})
	stack := []*frame{{set: root, opcode: "ROOT"}}

	for _, rl := range lines {
		top := stack[len(stack)-1]

		opname, argStr, hasColon := lexer.SplitColon(rl.text)
		if opname == "END" {
			if len(stack) == 1 {
				return nil, rvmerrors.New(rvmerrors.SyntaxError, "unmatched END").
					WithPosition(fmt.Sprintf("%s:%d", filename, rl.row))
			}
			closed := stack[len(stack)-1]
			closed.set.End = closed.set.Size() - 1
			closed.set.SetLabel(closed.set.Prefix+"END-END", closed.set.Size())
			stack = stack[:len(stack)-1]
			continue
		}
		if opname == "SET" {
			label := strings.TrimSpace(argStr)
			top.set.SetLabel(label, top.set.Size())
			continue
		}
		if opname == "LINK" {
			path := strings.Trim(strings.TrimSpace(argStr), `"`)
			linked, err := p.resolveLink(path, rl.row, filename)
			if err != nil {
				return nil, err
			}
			top.set.InsertInsSet(linked)
			continue
		}

		args, err := p.classifyArgs(argStr, filename, rl.row)
		if err != nil {
			return nil, err
		}
		if !hasColon && len(args) > 0 {
			return nil, rvmerrors.New(rvmerrors.SyntaxError, "missing ':' before arguments").
				WithPosition(fmt.Sprintf("%s:%d", filename, rl.row))
		}

		meta, err := p.Table.Lookup(opname)
		if err != nil {
			return nil, rvmerrors.Normalize(err).WithPosition(fmt.Sprintf("%s:%d", filename, rl.row))
		}
		if !meta.Arity.Accepts(len(args)) {
			return nil, rvmerrors.New(rvmerrors.SyntaxError, fmt.Sprintf(
				"%s takes %d-%v args, got %d", opname, meta.Arity.Min, maxDisplay(meta.Arity.Max), len(args))).
				WithPosition(fmt.Sprintf("%s:%d", filename, rl.row))
		}

		ins := instruction.New(instruction.Position{File: filename, Line: rl.row, Col: 1}, rl.text, opname, args)
		ins.IsDelayedReleaseScope = meta.DelayedRelease
		top.set.AddIns(ins)

		if meta.ScopeOpening {
			child := instruction.NewSet(opname+"-", opname, ins.Pos)
			ins.ScopeInsSet = child
			stack = append(stack, &frame{set: child, opcode: opname, delayedScope: meta.DelayedRelease})
		}
	}

	if len(stack) != 1 {
		return nil, rvmerrors.New(rvmerrors.SyntaxError,
			fmt.Sprintf("%d unclosed scope(s) at end of %s", len(stack)-1, filename))
	}
	root.End = root.Size() - 1
	return root, nil
}

func maxDisplay(max int) interface{} {
	if max == -1 {
		return "unbounded"
	}
	return max
}

func (p *Parser) classifyArgs(argStr, filename string, row int) ([]instruction.Arg, error) {
	pieces := lexer.SplitArgs(argStr)
	args := make([]instruction.Arg, 0, len(pieces))
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		kind, resolved, err := lexer.Classify(piece)
		if err != nil {
			return nil, rvmerrors.Normalize(err).WithPosition(fmt.Sprintf("%s:%d", filename, row))
		}
		args = append(args, instruction.Arg{
			Pos:  instruction.Position{File: filename, Line: row, Col: 1},
			Kind: kind,
			Text: resolved,
		})
	}
	return args, nil
}

// resolveLink implements spec §4.6's eager LINK resolution: a `.ra`
// path re-enters the parser recursively; a `.rsi` path is deserialized
// via internal/codec. In precompile-link mode, a resolved `.ra` is
// additionally compiled to a `.rsi` under PrecompileDir as a side
// effect.
func (p *Parser) resolveLink(path string, row int, fromFile string) (*instruction.InstructionSet, error) {
	data, err := p.Loader.ReadFile(path)
	if err != nil {
		return nil, rvmerrors.Wrap(rvmerrors.IOError, err,
			fmt.Sprintf("failed to read linked file %q (from %s:%d)", path, fromFile, row))
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".rsi":
		_, set, err := codec.Decode(bytes.NewReader(data), codec.Debug, p.Table)
		if err != nil {
			return nil, rvmerrors.Wrap(rvmerrors.LinkError, err, fmt.Sprintf("failed to deserialize %q", path))
		}
		return set, nil
	case ".ra":
		set, err := p.Parse(string(data), path)
		if err != nil {
			return nil, err
		}
		if p.PrecompileDir != "" {
			if err := p.precompile(path, set); err != nil {
				return nil, err
			}
		}
		return set, nil
	default:
		return nil, rvmerrors.New(rvmerrors.LinkError, fmt.Sprintf("unrecognized link extension for %q", path))
	}
}

func (p *Parser) precompile(sourcePath string, set *instruction.InstructionSet) error {
	outPath := filepath.Join(p.PrecompileDir, strings.TrimSuffix(filepath.Base(sourcePath), ".ra")+".rsi")
	f, err := os.Create(outPath)
	if err != nil {
		return rvmerrors.Wrap(rvmerrors.IOError, err, fmt.Sprintf("failed to create precompiled archive %q", outPath))
	}
	defer f.Close()
	return codec.Encode(f, codec.Release, codec.Manifest{}, set, p.Table)
}
