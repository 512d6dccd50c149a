package protocol

// Range is a half-open transfer range [Start, End) over the chip's address
// space. Both ends validate a range against the same rules before any data
// moves: Start < MemSize, End <= MemSize, Start < End.
type Range struct {
	// Start is the first address transferred
	Start uint32

	// End is one past the last address transferred
	End uint32
}

// Len returns the number of bytes covered by the range.
// Meaningful only for a valid range.
func (r Range) Len() int {
	return int(r.End) - int(r.Start)
}

// Validate checks the range against the protocol's bounds rules.
// The returned error, if any, is a *RangeError whose Error text is the exact
// message the device reports on the wire for the same violation. Checks are
// ordered start bound, end bound, ordering, matching the device's dispatch.
func (r Range) Validate() error {
	if r.Start >= MemSize {
		return &RangeError{Kind: RangeStartOutOfBounds, Range: r}
	}
	if r.End > MemSize {
		return &RangeError{Kind: RangeEndOutOfBounds, Range: r}
	}
	if r.Start >= r.End {
		return &RangeError{Kind: RangeOutOfOrder, Range: r}
	}
	return nil
}
