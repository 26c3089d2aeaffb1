package bits

import "math/bits"

// This package implements a fixed-size set of one-bit flags packed into bytes.
//
// Bit ordering matches the claim bitmap wire layout: flag i lives in byte i/8,
// at bit position i%8 counted from the least-significant bit.
//
//	flag:  7 6 5 4 3 2 1 0 | 15 14 ... 8
//	byte:  [      0       ] [     1    ]

// Array is a container for the underlying byte slice that holds the flags.
// It never grows: a flag beyond 8*len(Bytes) is out of range.
type Array struct {
	Bytes []byte
}

// Locate returns the byte index and single-bit mask addressing flag i.
func Locate(i uint32) (byteIdx uint32, mask byte) {
	return i / 8, byte(1) << (i % 8)
}

// Len returns the number of flags the array can hold.
func (a Array) Len() int {
	return len(a.Bytes) * 8
}

// InRange reports whether flag i falls inside the array.
func (a Array) InRange(i uint32) bool {
	byteIdx, _ := Locate(i)
	return uint64(byteIdx) < uint64(len(a.Bytes))
}

// Get reports whether flag i is set. Out-of-range flags read as unset.
func (a Array) Get(i uint32) bool {
	if !a.InRange(i) {
		return false
	}
	byteIdx, mask := Locate(i)
	return a.Bytes[byteIdx]&mask != 0
}

// Set raises flag i and reports whether it was inside the array.
// Setting an already-set flag is a no-op.
func (a Array) Set(i uint32) bool {
	if !a.InRange(i) {
		return false
	}
	byteIdx, mask := Locate(i)
	a.Bytes[byteIdx] |= mask
	return true
}

// Count returns the number of set flags.
func (a Array) Count() int {
	n := 0
	for _, b := range a.Bytes {
		n += bits.OnesCount8(b)
	}
	return n
}
