package fast

import (
	"encoding/binary"
	"errors"

	"github.com/holiman/uint256"
)

// buffer.go provides a lightweight, non-thread-safe wrapper around byte slices
// for fixed-width little-endian records and instruction payloads.
//
// Purpose:
// - Every on-wire value in the vault has a fixed width, so a cursor over a slice is all we need.
// - The Writer simply appends to a slice; the Reader increments an integer index.
// - Unlike a plain cursor, the Reader never panics on truncated input. The first short read
//   latches ErrUnexpectedEnd, every later read returns zero values, and the caller checks Err() once.

// ErrUnexpectedEnd is latched by a Reader when a read runs past the end of its buffer.
var ErrUnexpectedEnd = errors.New("unexpected end of buffer")

type Reader struct {
	// buf is the underlying data source.
	buf []byte
	// offset tracks the current reading position (cursor).
	offset int
	// err is the first error encountered; once set, reads return zero values.
	err error
}

type Writer struct {
	// buf is the accumulating byte slice.
	buf []byte
}

// NewReader creates a Reader to consume the provided byte slice.
func NewReader(bb []byte) *Reader {
	return &Reader{
		buf:    bb,
		offset: 0,
	}
}

// NewWriter creates a Writer that appends to the provided initial slice.
// Often called with `make([]byte, 0, capacity)` to pre-allocate memory.
func NewWriter(bb []byte) *Writer {
	return &Writer{
		buf: bb,
	}
}

// WriteByte appends a single byte to the buffer.
func (b *Writer) WriteByte(v byte) {
	b.buf = append(b.buf, v)
}

// Write appends a slice of bytes (bulk write) to the buffer.
func (b *Writer) Write(v []byte) {
	b.buf = append(b.buf, v...)
}

// Zeros appends n zero bytes (record padding).
func (b *Writer) Zeros(n int) {
	for i := 0; i < n; i++ {
		b.buf = append(b.buf, 0)
	}
}

// U16 appends v as 2 little-endian bytes.
func (b *Writer) U16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

// U32 appends v as 4 little-endian bytes.
func (b *Writer) U32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

// U64 appends v as 8 little-endian bytes.
func (b *Writer) U64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

// U128 appends the low 128 bits of v as 16 little-endian bytes.
// uint256.Int stores its limbs least-significant first, so limb 0 goes first.
func (b *Writer) U128(v *uint256.Int) {
	b.U64(v[0])
	b.U64(v[1])
}

// Bytes returns the accumulated content of the Writer.
func (b *Writer) Bytes() []byte {
	return b.buf
}

// take returns the next n bytes, or nil once the reader has failed.
func (b *Reader) take(n int) []byte {
	if b.err != nil {
		return nil
	}
	if n < 0 || b.offset+n > len(b.buf) {
		b.err = ErrUnexpectedEnd
		return nil
	}
	res := b.buf[b.offset : b.offset+n]
	b.offset += n
	return res
}

// Read consumes and returns the next 'n' bytes from the buffer.
//
// Note: It returns a slice that *shares memory* with the original buffer.
// Modifying the returned slice will modify the original buffer.
func (b *Reader) Read(n int) []byte {
	return b.take(n)
}

// ReadInto fills dst from the buffer (used for fixed arrays such as keys and hashes).
func (b *Reader) ReadInto(dst []byte) {
	copy(dst, b.take(len(dst)))
}

// ReadByte consumes and returns a single byte.
func (b *Reader) ReadByte() byte {
	res := b.take(1)
	if res == nil {
		return 0
	}
	return res[0]
}

// U16 reads 2 little-endian bytes.
func (b *Reader) U16() uint16 {
	res := b.take(2)
	if res == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(res)
}

// U32 reads 4 little-endian bytes.
func (b *Reader) U32() uint32 {
	res := b.take(4)
	if res == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(res)
}

// U64 reads 8 little-endian bytes.
func (b *Reader) U64() uint64 {
	res := b.take(8)
	if res == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(res)
}

// U128 reads 16 little-endian bytes into a 256-bit integer with the top limbs zero.
func (b *Reader) U128() uint256.Int {
	lo := b.U64()
	hi := b.U64()
	return uint256.Int{lo, hi, 0, 0}
}

// Skip advances the cursor by n bytes without returning them.
func (b *Reader) Skip(n int) {
	b.take(n)
}

// Err returns the first error the reader hit, if any.
func (b *Reader) Err() error {
	return b.err
}

// Position returns the current cursor index of the Reader.
// Useful for determining how many bytes have been consumed.
func (b *Reader) Position() int {
	return b.offset
}

// Remaining returns the number of unread bytes.
func (b *Reader) Remaining() int {
	return len(b.buf) - b.offset
}

// Bytes returns the entire underlying buffer of the Reader.
func (b *Reader) Bytes() []byte {
	return b.buf
}

// Empty checks if the Reader has reached the end of the buffer.
// Returns true if there are no more bytes to read.
func (b *Reader) Empty() bool {
	return len(b.buf) == b.offset
}
