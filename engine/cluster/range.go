package cluster

import "math"

// InclusiveRange is a [Start, End] pair of tile or bin indices where both ends are included.
// A range is empty when End < Start.
type InclusiveRange struct {
	Start int16
	End   int16
}

// EmptyRange returns the canonical empty range. Expanding or merging into it yields exactly the
// other operand.
func EmptyRange() InclusiveRange {
	return InclusiveRange{Start: math.MaxInt16, End: math.MinInt16}
}

// IsEmpty reports whether the range contains no index.
func (r InclusiveRange) IsEmpty() bool {
	return r.End < r.Start
}

// Contains reports whether i lies inside the range.
func (r InclusiveRange) Contains(i int) bool {
	return i >= int(r.Start) && i <= int(r.End)
}

// Expand grows the range so it contains i.
func (r *InclusiveRange) Expand(i int16) {
	r.Start = min(r.Start, i)
	r.End = max(r.End, i)
}

// Merge grows the range so it contains every index of o. Gaps between the two are filled.
func (r *InclusiveRange) Merge(o InclusiveRange) {
	if o.IsEmpty() {
		return
	}
	r.Start = min(r.Start, o.Start)
	r.End = max(r.End, o.End)
}

// Len returns the number of indices in the range.
func (r InclusiveRange) Len() int {
	if r.IsEmpty() {
		return 0
	}
	return int(r.End) - int(r.Start) + 1
}
