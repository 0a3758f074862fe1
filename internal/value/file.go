package value

import (
	"fmt"

	"ravm/internal/ident"
)

// FileMode enumerates the open modes a File value supports (spec §3.2).
type FileMode int

const (
	FileRead FileMode = iota
	FileWrite
	FileAppend
	FileReadWrite
	FileReadAppend
	FileWriteAppend
)

func (m FileMode) String() string {
	switch m {
	case FileRead:
		return "read"
	case FileWrite:
		return "write"
	case FileAppend:
		return "append"
	case FileReadWrite:
		return "read_write"
	case FileReadAppend:
		return "read_append"
	case FileWriteAppend:
		return "write_append"
	default:
		return "unknown"
	}
}

// File is a path + mode value (spec §3.2). Opening/reading/writing the
// underlying OS file is an opcode concern (internal/opcode), not part
// of the value's own contract — the value only carries the descriptor.
type File struct {
	id   ident.Identifier
	Path string
	Mode FileMode
}

func NewFile(path string, mode FileMode) *File {
	return &File{id: ident.New(ident.CategoryInstance), Path: path, Mode: mode}
}

func (f *File) TypeName() string            { return "file" }
func (f *File) TypeID() ident.TypeIdentifier { return typeFile }
func (f *File) InstanceID() ident.Identifier { return f.id }
func (f *File) ValueStr() string             { return fmt.Sprintf("<file %s:%s>", f.Path, f.Mode) }
func (f *File) EscapedStr() string           { return f.ValueStr() }
func (f *File) ToBool() bool                 { return f.Path != "" }
func (f *File) Copy() Value                  { return NewFile(f.Path, f.Mode) }

func (f *File) UpdateFrom(other Value) bool {
	o, ok := other.(*File)
	if !ok {
		return false
	}
	f.Path, f.Mode = o.Path, o.Mode
	return true
}

func (f *File) Compare(other Value, relational Relational) (bool, error) {
	o, ok := other.(*File)
	switch relational {
	case RT:
		return f.ToBool(), nil
	case RF:
		return !f.ToBool(), nil
	case RE:
		return ok && f.Path == o.Path && f.Mode == o.Mode, nil
	case RNE:
		return !ok || f.Path != o.Path || f.Mode != o.Mode, nil
	}
	return false, errIncompatible("compare", "file", other.TypeName())
}
