// Package codec implements the VM's binary archive format (spec §4.7):
// a 12-byte header, four serialization profiles gating which fields are
// written, and a recursive instruction-set wire encoding.
package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	rvmerrors "ravm/internal/errors"
	"ravm/internal/instruction"
)

// Profile selects which optional fields an archive carries.
type Profile uint16

const (
	Debug Profile = iota
	Testing
	Release
	Minified
)

func (p Profile) String() string {
	switch p {
	case Debug:
		return "Debug"
	case Testing:
		return "Testing"
	case Release:
		return "Release"
	case Minified:
		return "Minified"
	default:
		return "Unknown"
	}
}

func (p Profile) writePositions() bool { return p == Debug || p == Testing }
func (p Profile) writeRawLine() bool   { return p == Debug }
func (p Profile) writeHeader() bool    { return p != Minified }

// Magic is the archive's file signature: "RSI" followed by 0x1A.
var Magic = [4]byte{'R', 'S', 'I', 0x1A}

// VMVersion is the running VM's own version, used to reject archives
// written by a newer VM than this one (spec §4.7).
var VMVersion = Version{Major: 1, Minor: 0, Patch: 0}

// Version is a 3-part major/minor/patch triple, each stored as a
// 16-bit field in the header.
type Version struct {
	Major uint16
	Minor uint16
	Patch uint16
}

func (v Version) exceeds(other Version) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor > other.Minor
	}
	return v.Patch > other.Patch
}

// Header is the archive's fixed 12-byte preamble.
type Header struct {
	Version Version
	Profile Profile
}

// Manifest lists the identity strings of every statically-linked
// module baked into the archive (spec §4.7), read before the root
// instruction set.
type Manifest struct {
	ModuleIdentities []string
}

// OpcodeTable maps opcode names to a deterministic index (spec §4.7's
// "opcode index into a deterministic table") and back. The caller
// supplies it — internal/opcode owns the canonical table — so codec
// has no dependency on the opcode package.
type OpcodeTable interface {
	IndexOf(name string) (int, error)
	NameOf(index int) (string, error)
}

// Encode writes manifest and root as an archive to w under profile.
func Encode(w io.Writer, profile Profile, manifest Manifest, root *instruction.InstructionSet, table OpcodeTable) error {
	bw := bufio.NewWriter(w)
	if profile.writeHeader() {
		if err := writeHeader(bw, Header{Version: VMVersion, Profile: profile}); err != nil {
			return err
		}
	}
	if err := writeManifest(bw, manifest); err != nil {
		return err
	}
	if err := writeInstructionSet(bw, root, profile, table); err != nil {
		return err
	}
	return bw.Flush()
}

// Decode reads an archive from r, validating the header against the
// running VM's own version (spec §4.7: "major/minor/patch must not
// exceed the running VM"). assumedProfile tells Decode whether to
// expect a header at all: pass Minified for a headerless archive (the
// caller must already know this, typically from the file extension or
// a link-time manifest entry — a Minified archive's profile cannot be
// synthesized from content alone); any other value reads and validates
// a real header, whose own Profile field then governs the rest of the
// stream. A magic mismatch on an expected header is fatal.
func Decode(r io.Reader, assumedProfile Profile, table OpcodeTable) (*Manifest, *instruction.InstructionSet, error) {
	br := bufio.NewReader(r)
	profile := assumedProfile

	if assumedProfile != Minified {
		hdr, err := readHeader(br)
		if err != nil {
			return nil, nil, err
		}
		if hdr.Version.exceeds(VMVersion) {
			return nil, nil, rvmerrors.New(rvmerrors.LinkError, fmt.Sprintf(
				"archive version %d.%d.%d exceeds running VM %d.%d.%d",
				hdr.Version.Major, hdr.Version.Minor, hdr.Version.Patch,
				VMVersion.Major, VMVersion.Minor, VMVersion.Patch))
		}
		profile = hdr.Profile
	}

	manifest, err := readManifest(br)
	if err != nil {
		return nil, nil, err
	}
	root, err := readInstructionSet(br, profile, table)
	if err != nil {
		return nil, nil, err
	}
	return &manifest, root, nil
}

func writeHeader(w io.Writer, h Header) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	for _, field := range []uint16{h.Version.Major, h.Version.Minor, h.Version.Patch, uint16(h.Profile)} {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return err
		}
	}
	return nil
}

func readHeader(r io.Reader) (Header, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return Header{}, rvmerrors.Wrap(rvmerrors.IOError, err, "failed to read archive header")
	}
	if magic != Magic {
		return Header{}, rvmerrors.New(rvmerrors.FileError, "Invalid file format")
	}
	var major, minor, patch, profile uint16
	for _, dst := range []*uint16{&major, &minor, &patch, &profile} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return Header{}, rvmerrors.Wrap(rvmerrors.IOError, err, "failed to read archive header")
		}
	}
	return Header{Version: Version{Major: major, Minor: minor, Patch: patch}, Profile: Profile(profile)}, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", fmt.Errorf("IOError: failed to read string length: %w", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("IOError: failed to read string body: %w", err)
	}
	return string(buf), nil
}

func writeManifest(w io.Writer, m Manifest) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(m.ModuleIdentities))); err != nil {
		return err
	}
	for _, id := range m.ModuleIdentities {
		if err := writeString(w, id); err != nil {
			return err
		}
	}
	return nil
}

func readManifest(r io.Reader) (Manifest, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return Manifest{}, fmt.Errorf("IOError: failed to read manifest length: %w", err)
	}
	m := Manifest{ModuleIdentities: make([]string, 0, n)}
	for i := uint64(0); i < n; i++ {
		id, err := readString(r)
		if err != nil {
			return Manifest{}, err
		}
		m.ModuleIdentities = append(m.ModuleIdentities, id)
	}
	return m, nil
}

func writePosition(w io.Writer, pos instruction.Position) error {
	if err := writeString(w, pos.File); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int64(pos.Line)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, int64(pos.Col))
}

func readPosition(r io.Reader) (instruction.Position, error) {
	file, err := readString(r)
	if err != nil {
		return instruction.Position{}, err
	}
	var line, col int64
	if err := binary.Read(r, binary.LittleEndian, &line); err != nil {
		return instruction.Position{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &col); err != nil {
		return instruction.Position{}, err
	}
	return instruction.Position{File: file, Line: int(line), Col: int(col)}, nil
}

func writeInstructionSet(w io.Writer, set *instruction.InstructionSet, profile Profile, table OpcodeTable) error {
	if err := writeString(w, set.Prefix); err != nil {
		return err
	}
	if profile.writePositions() {
		if err := writeString(w, set.Leader); err != nil {
			return err
		}
		if err := writePosition(w, set.LeaderPos); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(set.Size())); err != nil {
		return err
	}
	for i := 0; i < set.Size(); i++ {
		ins, _ := set.At(i)
		if err := writeInstruction(w, ins, profile, table); err != nil {
			return err
		}
	}
	return writeLabels(w, set)
}

func writeInstruction(w io.Writer, ins *instruction.Instruction, profile Profile, table OpcodeTable) error {
	if profile.writePositions() {
		if err := writePosition(w, ins.Pos); err != nil {
			return err
		}
	}
	if profile.writeRawLine() {
		if err := writeString(w, ins.RawCode); err != nil {
			return err
		}
	}
	idx, err := table.IndexOf(ins.Opcode)
	if err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(idx)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(ins.Args))); err != nil {
		return err
	}
	for _, a := range ins.Args {
		if profile.writePositions() {
			if err := writePosition(w, a.Pos); err != nil {
				return err
			}
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(a.Kind)); err != nil {
			return err
		}
		if err := writeString(w, a.Text); err != nil {
			return err
		}
	}
	hasChild := ins.ScopeInsSet != nil
	if err := binary.Write(w, binary.LittleEndian, hasChild); err != nil {
		return err
	}
	if hasChild {
		if err := writeInstructionSet(w, ins.ScopeInsSet, profile, table); err != nil {
			return err
		}
	}
	return nil
}

func writeLabels(w io.Writer, set *instruction.InstructionSet) error {
	labels := set.Labels()
	if err := binary.Write(w, binary.LittleEndian, uint64(len(labels))); err != nil {
		return err
	}
	for name, idx := range labels {
		if err := writeString(w, name); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(idx)); err != nil {
			return err
		}
	}
	return nil
}

func readInstructionSet(r io.Reader, profile Profile, table OpcodeTable) (*instruction.InstructionSet, error) {
	prefix, err := readString(r)
	if err != nil {
		return nil, err
	}
	var leader string
	var leaderPos instruction.Position
	if profile.writePositions() {
		if leader, err = readString(r); err != nil {
			return nil, err
		}
		if leaderPos, err = readPosition(r); err != nil {
			return nil, err
		}
	}
	set := instruction.NewSet(prefix, leader, leaderPos)

	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("IOError: failed to read instruction count: %w", err)
	}
	for i := uint64(0); i < count; i++ {
		ins, err := readInstruction(r, profile, table)
		if err != nil {
			return nil, err
		}
		set.AddIns(ins)
	}
	if err := readLabels(r, set); err != nil {
		return nil, err
	}
	set.End = set.Size() - 1
	return set, nil
}

func readInstruction(r io.Reader, profile Profile, table OpcodeTable) (*instruction.Instruction, error) {
	var pos instruction.Position
	var err error
	if profile.writePositions() {
		if pos, err = readPosition(r); err != nil {
			return nil, err
		}
	}
	var raw string
	if profile.writeRawLine() {
		if raw, err = readString(r); err != nil {
			return nil, err
		}
	}
	var opIdx uint64
	if err := binary.Read(r, binary.LittleEndian, &opIdx); err != nil {
		return nil, fmt.Errorf("IOError: failed to read opcode index: %w", err)
	}
	opcode, err := table.NameOf(int(opIdx))
	if err != nil {
		return nil, err
	}
	var argCount uint64
	if err := binary.Read(r, binary.LittleEndian, &argCount); err != nil {
		return nil, fmt.Errorf("IOError: failed to read arg count: %w", err)
	}
	args := make([]instruction.Arg, 0, argCount)
	for i := uint64(0); i < argCount; i++ {
		var apos instruction.Position
		if profile.writePositions() {
			if apos, err = readPosition(r); err != nil {
				return nil, err
			}
		}
		var kind uint64
		if err := binary.Read(r, binary.LittleEndian, &kind); err != nil {
			return nil, fmt.Errorf("IOError: failed to read arg kind: %w", err)
		}
		text, err := readString(r)
		if err != nil {
			return nil, err
		}
		args = append(args, instruction.Arg{Pos: apos, Kind: instruction.ArgKind(kind), Text: text})
	}
	ins := instruction.New(pos, raw, opcode, args)

	var hasChild bool
	if err := binary.Read(r, binary.LittleEndian, &hasChild); err != nil {
		return nil, fmt.Errorf("IOError: failed to read child-set marker: %w", err)
	}
	if hasChild {
		child, err := readInstructionSet(r, profile, table)
		if err != nil {
			return nil, err
		}
		ins.ScopeInsSet = child
	}
	return ins, nil
}

func readLabels(r io.Reader, set *instruction.InstructionSet) error {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("IOError: failed to read label count: %w", err)
	}
	for i := uint64(0); i < n; i++ {
		name, err := readString(r)
		if err != nil {
			return err
		}
		var idx uint64
		if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
			return fmt.Errorf("IOError: failed to read label index: %w", err)
		}
		set.SetLabel(name, int(idx))
	}
	return nil
}
