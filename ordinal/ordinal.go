// Package ordinal provides a 1-based ordinal value type for numbering retry
// attempts in human-readable output ("1st", "2nd", "3rd", ...).
package ordinal

import (
	"fmt"
	"iter"
	"strconv"
)

// Ordinal is a 1-based position. The zero value is not a valid Ordinal;
// construct one with Of or FromIndex.
type Ordinal int

// First is the first ordinal.
const First Ordinal = 1

// Of returns the n-th Ordinal.
// It panics if n < 1.
func Of(n int) Ordinal {
	if n < 1 {
		panic(fmt.Sprintf("ordinal: %d is not a valid 1-based ordinal", n))
	}
	return Ordinal(n)
}

// FromIndex returns the Ordinal corresponding to the 0-based index i,
// that is, Of(i + 1).
// It panics if i < 0.
func FromIndex(i int) Ordinal {
	if i < 0 {
		panic(fmt.Sprintf("ordinal: negative index %d", i))
	}
	return Ordinal(i + 1)
}

// ToIndex returns the 0-based index of o, that is, int(o) - 1.
func (o Ordinal) ToIndex() int {
	return int(o) - 1
}

// Next returns the ordinal after o.
func (o Ordinal) Next() Ordinal {
	return o + 1
}

// Compare orders ordinals numerically.
func (o Ordinal) Compare(other Ordinal) int {
	switch {
	case o < other:
		return -1
	case o > other:
		return 1
	default:
		return 0
	}
}

// String renders o with its English ordinal suffix: 1st, 2nd, 3rd, 4th, ...
// The teens (11th, 12th, 13th) take "th" despite their last digit.
func (o Ordinal) String() string {
	n := int(o)
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// Natural yields 1st, 2nd, 3rd, ... without bound. Callers limit the
// iteration themselves.
func Natural() iter.Seq[Ordinal] {
	return func(yield func(Ordinal) bool) {
		for o := First; ; o++ {
			if !yield(o) {
				return
			}
		}
	}
}
