// Package instruction implements the VM's instruction model (spec §3.6,
// §4.5): a single parsed line of source, and the ordered, labeled tree
// those lines assemble into.
package instruction

import (
	"fmt"

	"ravm/internal/ident"
)

// Position pinpoints a source location as file:line:col, carried on
// every Instruction and argument for diagnostics (spec §4.6).
type Position struct {
	File string
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// ArgKind classifies a parsed argument token (spec §4.6).
type ArgKind int

const (
	KindUnknown ArgKind = iota
	KindIdentifier
	KindKeyword
	KindNumber
	KindString
	// KindContainer classifies a literal container form (`{}`, `[]`) —
	// spec §8 scenario 3's `VAR: d, {}`. Text is normalized to the
	// container's type name ("dict" or "list").
	KindContainer
	// KindExpr classifies a composite argument the lexer recognizes by
	// shape rather than by a single token: a member-access form
	// (`d@"k"`, scenario 3's `PRINT: d@"k"`) or an inline binary
	// arithmetic expression (`x*x`, scenario 4's `RET: x*x`). Text keeps
	// the original, unresolved source text; resolveArg re-splits it at
	// evaluation time.
	KindExpr
)

func (k ArgKind) String() string {
	switch k {
	case KindIdentifier:
		return "identifier"
	case KindKeyword:
		return "keyword"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindContainer:
		return "container"
	case KindExpr:
		return "expr"
	default:
		return "unknown"
	}
}

// Arg is one classified, positioned argument token.
type Arg struct {
	Pos  Position
	Kind ArgKind
	Text string
}

// Instruction is a single parsed line: a position, the raw source text
// (written to archives only under the Debug codec profile), an opcode name, an
// argument vector, and — for scope-opening opcodes — a child
// instruction set plus the delayed-release marker copied from the
// opcode's static metadata.
type Instruction struct {
	id                    ident.Identifier
	Pos                   Position
	RawCode               string
	Opcode                string
	Args                  []Arg
	ScopeInsSet           *InstructionSet
	IsDelayedReleaseScope bool
}

// New constructs an instruction at pos for opcode with the given args.
func New(pos Position, rawCode, opcode string, args []Arg) *Instruction {
	return &Instruction{
		id:      ident.New(ident.CategoryInstruction),
		Pos:     pos,
		RawCode: rawCode,
		Opcode:  opcode,
		Args:    args,
	}
}

func (i *Instruction) InstanceID() ident.Identifier { return i.id }

// InstructionSet is an ordered, labeled, nestable sequence of
// instructions (spec §3.6): a prefix distinguishing this block's labels
// from its siblings', the owning scope's leader string (for
// diagnostics), the ordered instructions themselves, a name→index label
// table resolved at parse time, an end pointer set when the block
// closes, and a delayed-release flag copied from the opening opcode.
type InstructionSet struct {
	id             ident.Identifier
	Prefix         string
	Leader         string
	LeaderPos      Position
	Instructions   []*Instruction
	labels         map[string]int
	End            int
	DelayedRelease bool
}

// NewSet constructs an empty instruction set with the given prefix and
// scope-leader label.
func NewSet(prefix, leader string, leaderPos Position) *InstructionSet {
	return &InstructionSet{
		id:        ident.New(ident.CategoryInstructionSet),
		Prefix:    prefix,
		Leader:    leader,
		LeaderPos: leaderPos,
		labels:    make(map[string]int),
		End:       -1,
	}
}

func (s *InstructionSet) InstanceID() ident.Identifier { return s.id }

// AddIns appends ins to the set and returns its index.
func (s *InstructionSet) AddIns(ins *Instruction) int {
	s.Instructions = append(s.Instructions, ins)
	return len(s.Instructions) - 1
}

// SetLabel records name→index in the label table, overwriting any
// prior binding (re-declaring SET:label at a later point is legal and
// simply moves the target, per the teacher's assembler behavior).
func (s *InstructionSet) SetLabel(name string, index int) {
	s.labels[name] = index
}

// GetLabel resolves name to an instruction index, or an error if the
// label was never declared in this set.
func (s *InstructionSet) GetLabel(name string) (int, error) {
	idx, ok := s.labels[name]
	if !ok {
		return 0, fmt.Errorf("LinkError: undefined label %q in set %q", name, s.Prefix)
	}
	return idx, nil
}

// HasLabel reports whether name is a declared label.
func (s *InstructionSet) HasLabel(name string) bool {
	_, ok := s.labels[name]
	return ok
}

// Labels returns a copy of the label table, for diagnostic listing.
func (s *InstructionSet) Labels() map[string]int {
	out := make(map[string]int, len(s.labels))
	for k, v := range s.labels {
		out[k] = v
	}
	return out
}

// InsertInsSet splices other's instructions onto the end of s,
// index-shifting other's label table before merging it into s's own
// (spec §4.6's LINK resolution: "splice instructions and labels from
// another set; index-shift its label table").
func (s *InstructionSet) InsertInsSet(other *InstructionSet) {
	shift := len(s.Instructions)
	s.Instructions = append(s.Instructions, other.Instructions...)
	for name, idx := range other.labels {
		s.labels[name] = idx + shift
	}
	s.End = len(s.Instructions) - 1
}

// Size reports the number of top-level instructions in the set.
func (s *InstructionSet) Size() int { return len(s.Instructions) }

// At returns the instruction at index, or an error if out of range.
func (s *InstructionSet) At(index int) (*Instruction, error) {
	if index < 0 || index >= len(s.Instructions) {
		return nil, fmt.Errorf("RangeError: instruction index %d out of range [0,%d)", index, len(s.Instructions))
	}
	return s.Instructions[index], nil
}
