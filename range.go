package ledmatrix

import (
	"fmt"
	"math"
)

// Range is an inclusive range of pixel indices. Reversed ranges are accepted
// and normalized before use.
type Range struct {
	First int
	Last  int
}

// Full addresses every pixel of a strip.
var Full = Range{First: 0, Last: math.MaxInt}

// Span returns the range [first, last].
func Span(first, last int) Range {
	return Range{First: first, Last: last}
}

// Single returns the range holding only i.
func Single(i int) Range {
	return Range{First: i, Last: i}
}

// Len returns the number of indices in r, assuming r is normalized.
func (r Range) Len() int {
	if r.Last < r.First {
		return 0
	}
	return r.Last - r.First + 1
}

func (r Range) String() string {
	if r == Full {
		return "[full]"
	}
	return fmt.Sprintf("[%d, %d]", r.First, r.Last)
}

// normalize swaps a reversed range and clamps it to [0, n-1]. ok is false if
// nothing remains.
func (r Range) normalize(n int) (_ Range, ok bool) {
	if r.First > r.Last {
		r.First, r.Last = r.Last, r.First
	}
	if r.Last > n-1 {
		r.Last = n - 1
	}
	if r.First < 0 {
		r.First = 0
	}
	return r, r.First <= r.Last
}
