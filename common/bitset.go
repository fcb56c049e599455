package common

import "math/bits"

// WordBits is the number of item bits stored in one bitmask word uploaded to the GPU.
const WordBits = 32

// WordsFor returns the number of 32-bit words needed to hold n bits.
func WordsFor(n int) int {
	return (n + WordBits - 1) / WordBits
}

// Bitset32 is a fixed-capacity bitset backed by 32-bit words, matching the layout the shaders
// read. It is a view: it never grows and writes go straight to the backing slice, so several
// bitsets can share one flat upload buffer.
type Bitset32 []uint32

// Set sets bit i. The caller guarantees i < len(b)*32.
func (b Bitset32) Set(i int) {
	b[i>>5] |= 1 << (uint(i) & 31)
}

// Test reports whether bit i is set.
func (b Bitset32) Test(i int) bool {
	return b[i>>5]&(1<<(uint(i)&31)) != 0
}

// Count returns the number of set bits.
func (b Bitset32) Count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount32(w)
	}
	return n
}

// Clear zeroes every word.
func (b Bitset32) Clear() {
	clear(b)
}

// Words exposes the raw backing words for bulk upload.
func (b Bitset32) Words() []uint32 {
	return b
}
