package patch

import (
	"fmt"
	"iter"
	stdbits "math/bits"
	"strconv"
	"strings"

	"github.com/epics-base/pvdata/internal/bits"
)

const wordBits = 64

// Set is a set of field offsets. The zero value is an empty Set ready to use.
// A Set is not safe for concurrent use.
type Set struct {
	words []uint64
}

// NewSet returns a Set holding offsets.
func NewSet(offsets ...int) *Set {
	s := &Set{}
	for _, off := range offsets {
		s.Add(off)
	}
	return s
}

func checkOffset(off int) {
	if off < 0 {
		panic(fmt.Sprintf("patch: negative offset %d", off))
	}
}

// Add adds off to the set. It panics if off is negative.
func (s *Set) Add(off int) *Set {
	checkOffset(off)
	w := off / wordBits
	for len(s.words) <= w {
		s.words = append(s.words, 0)
	}
	s.words[w] = bits.SetBit(s.words[w], uint8(off%wordBits), true)
	return s
}

// Remove removes off from the set.
func (s *Set) Remove(off int) *Set {
	checkOffset(off)
	w := off / wordBits
	if w < len(s.words) {
		s.words[w] = bits.SetBit(s.words[w], uint8(off%wordBits), false)
	}
	return s
}

// Has reports if off is in the set.
func (s *Set) Has(off int) bool {
	if off < 0 {
		return false
	}
	w := off / wordBits
	if w >= len(s.words) {
		return false
	}
	return bits.GetBit(s.words[w], uint8(off%wordBits))
}

// Next returns the lowest offset in the set that is >= from, or -1.
func (s *Set) Next(from int) int {
	if from < 0 {
		from = 0
	}
	w := from / wordBits
	if w >= len(s.words) {
		return -1
	}
	word := s.words[w] >> (from % wordBits)
	if word != 0 {
		return from + stdbits.TrailingZeros64(word)
	}
	for w++; w < len(s.words); w++ {
		if s.words[w] != 0 {
			return w*wordBits + stdbits.TrailingZeros64(s.words[w])
		}
	}
	return -1
}

// Len is the number of offsets in the set.
func (s *Set) Len() int {
	n := 0
	for _, w := range s.words {
		n += stdbits.OnesCount64(w)
	}
	return n
}

// Empty reports if the set holds nothing.
func (s *Set) Empty() bool {
	return s.Next(0) < 0
}

// Clear removes every offset.
func (s *Set) Clear() {
	s.words = s.words[:0]
}

// All iterates over the offsets in increasing order.
func (s *Set) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		for off := s.Next(0); off >= 0; off = s.Next(off + 1) {
			if !yield(off) {
				return
			}
		}
	}
}

// Union adds every offset in o to s.
func (s *Set) Union(o *Set) *Set {
	for len(s.words) < len(o.words) {
		s.words = append(s.words, 0)
	}
	for i, w := range o.words {
		s.words[i] |= w
	}
	return s
}

// Clone returns a copy of s.
func (s *Set) Clone() *Set {
	return &Set{words: append([]uint64(nil), s.words...)}
}

// Equal reports if s and o hold the same offsets.
func (s *Set) Equal(o *Set) bool {
	a, b := trim(s.words), trim(o.words)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func leadingZeros(w uint64) int {
	return stdbits.LeadingZeros64(w)
}

func trim(words []uint64) []uint64 {
	for len(words) > 0 && words[len(words)-1] == 0 {
		words = words[:len(words)-1]
	}
	return words
}

// Words returns the set as 64 bit words, lowest offsets first, without trailing zero words.
// Offset n is bit n%64 of word n/64.
func (s *Set) Words() []uint64 {
	return append([]uint64(nil), trim(s.words)...)
}

// FromWords is the reverse of Words.
func FromWords(words []uint64) *Set {
	return &Set{words: append([]uint64(nil), words...)}
}

// String formats the set as "{1, 5, 6}".
func (s *Set) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for off := range s.All() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(strconv.Itoa(off))
	}
	sb.WriteByte('}')
	return sb.String()
}
