package value

// IterState is an independent iteration cursor over an Iterable,
// created by BeginIter. Per spec §9's preferred resolution of "cursor
// state on iterables", nested control blocks that need to walk the
// same value concurrently should use BeginIter twice rather than share
// the value's own built-in Cursor (Begin/End/Next on the Iterable
// itself), which remains for the simple, non-nested case and for
// opcode bodies that only ever iterate one value at a time.
type IterState struct {
	target Iterable
	pos    int
	end    int
	rev    bool
}

// BeginIter starts an independent forward cursor over target.
func BeginIter(target Iterable) *IterState {
	return &IterState{target: target, pos: 0, end: target.Size()}
}

// BeginReverseIter starts an independent reverse cursor over target.
func BeginReverseIter(target Iterable) *IterState {
	return &IterState{target: target, pos: target.Size() - 1, end: -1, rev: true}
}

// Next returns the current element and advances, or Null at the end.
func (s *IterState) Next() Value {
	if s.AtEnd() {
		return NewNull()
	}
	v, err := s.target.At(s.pos)
	if err != nil {
		return NewNull()
	}
	if s.rev {
		s.pos--
	} else {
		s.pos++
	}
	return v
}

// AtEnd reports whether the cursor has been exhausted.
func (s *IterState) AtEnd() bool {
	if s.rev {
		return s.pos <= s.end
	}
	return s.pos >= s.end
}
