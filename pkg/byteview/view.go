// Package byteview provides an endianness-aware, bounds-checked window over a
// byte slice with typed integer, bit and ASCII access.
//
// A View never copies: writes go straight to the underlying slice, so every
// View (and every window derived from it) observes them immediately.
package byteview

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"
)

// Endian selects the byte order used for multi-byte integers.
type Endian int

const (
	BigEndian Endian = iota
	LittleEndian
)

func (e Endian) String() string {
	if e == LittleEndian {
		return "little-endian"
	}
	return "big-endian"
}

// MaxIntSize is the widest integer, in bytes, a View can read or write.
const MaxIntSize = 8

// View is a window [start, start+length) over a shared byte slice.
type View struct {
	data   []byte
	start  int
	length int
	endian Endian
}

// New returns a View covering all of data.
func New(data []byte, endian Endian) *View {
	return &View{data: data, length: len(data), endian: endian}
}

// Make returns a View over a fresh zero-filled buffer of size bytes.
func Make(size int, endian Endian) *View {
	return New(make([]byte, size), endian)
}

// NewWindow returns a View over data[offset:offset+length].
func NewWindow(data []byte, endian Endian, offset, length int) (*View, error) {
	if offset < 0 || length < 0 || offset+length > len(data) {
		return nil, fmt.Errorf("window [%d, %d) over %d bytes: %w", offset, offset+length, len(data), ErrOutOfBounds)
	}
	return &View{data: data, start: offset, length: length, endian: endian}, nil
}

// Window returns a sub-view relative to this view's start.
func (v *View) Window(offset, length int) (*View, error) {
	if err := v.check(offset, length); err != nil {
		return nil, err
	}
	return &View{data: v.data, start: v.start + offset, length: length, endian: v.endian}, nil
}

// Len returns the window length.
func (v *View) Len() int { return v.length }

// Endian returns the byte order of the view.
func (v *View) Endian() Endian { return v.endian }

// Bytes returns the window as a slice sharing the underlying storage.
func (v *View) Bytes() []byte { return v.data[v.start : v.start+v.length] }

// Contains reports whether [offset, offset+size) lies inside the window.
func (v *View) Contains(offset, size int) bool {
	return offset >= 0 && size >= 0 && offset+size <= v.length
}

func (v *View) check(offset, size int) error {
	if !v.Contains(offset, size) {
		return fmt.Errorf("access [%d, %d) in a %d byte view: %w", offset, offset+size, v.length, ErrOutOfBounds)
	}
	return nil
}

func checkIntSize(size int) error {
	if size < 0 || size > MaxIntSize {
		return fmt.Errorf("integer size %d not in 0..%d: %w", size, MaxIntSize, ErrInvalidSize)
	}
	return nil
}

// BitMask returns a value with the n low-order bits set.
func BitMask(n int) uint64 {
	if n <= 0 {
		return 0
	}
	if n >= 64 {
		return math.MaxUint64
	}
	return 1<<uint(n) - 1
}

// ReadUint reads size bytes at offset as an unsigned integer.
func (v *View) ReadUint(offset, size int) (uint64, error) {
	if err := checkIntSize(size); err != nil {
		return 0, err
	}
	if err := v.check(offset, size); err != nil {
		return 0, err
	}
	if size == 0 {
		return 0, nil
	}
	abs := v.start + offset
	stream := kaitai.NewStream(bytes.NewReader(v.data[abs : abs+size]))
	var (
		val uint64
		err error
	)
	if v.endian == LittleEndian {
		val, err = stream.ReadBitsIntLe(size * 8)
	} else {
		val, err = stream.ReadBitsIntBe(size * 8)
	}
	if err != nil {
		return 0, fmt.Errorf("read %d bytes at %d: %w", size, offset, err)
	}
	return val, nil
}

// ReadInt reads size bytes at offset, sign-extending when signed is set and
// the most significant bit of the value is 1.
func (v *View) ReadInt(offset, size int, signed bool) (int64, error) {
	u, err := v.ReadUint(offset, size)
	if err != nil {
		return 0, err
	}
	if signed && size > 0 && size < MaxIntSize && u&(1<<uint(size*8-1)) != 0 {
		u |= ^BitMask(size * 8)
	}
	return int64(u), nil
}

// ReadIntNarrow is ReadInt for values used as offsets, counts and sizes.
func (v *View) ReadIntNarrow(offset, size int, signed bool) (int32, error) {
	val, err := v.ReadInt(offset, size, signed)
	if err != nil {
		return 0, err
	}
	if !signed && size == MaxIntSize && val < 0 {
		return 0, fmt.Errorf("%d does not fit in 32 bits: %w", uint64(val), ErrRange)
	}
	if val < math.MinInt32 || val > math.MaxInt32 {
		return 0, fmt.Errorf("%d does not fit in 32 bits: %w", val, ErrRange)
	}
	return int32(val), nil
}

// FitsInt reports whether value can be stored in size bytes, either as an
// unsigned or as a two's complement signed quantity.
func FitsInt(size int, value int64) bool {
	switch {
	case size <= 0:
		return value == 0
	case size >= MaxIntSize:
		return true
	}
	bits := uint(size * 8)
	return value >= -(1<<(bits-1)) && value <= 1<<bits-1
}

// FitsUnsigned reports whether value lies in [0, 2^(8*size)-1].
func FitsUnsigned(size int, value int64) bool {
	switch {
	case value < 0:
		return false
	case size <= 0:
		return value == 0
	case size >= MaxIntSize:
		return true
	}
	return uint64(value) <= BitMask(size*8)
}

// FitsSigned reports whether value is representable as a size-byte two's
// complement quantity.
func FitsSigned(size int, value int64) bool {
	switch {
	case size <= 0:
		return value == 0
	case size >= MaxIntSize:
		return true
	}
	bits := uint(size * 8)
	return value >= -(1<<(bits-1)) && value <= 1<<(bits-1)-1
}

// WriteInt stores value in size bytes at offset. Nothing is written when the
// value does not fit.
func (v *View) WriteInt(offset, size int, value int64) error {
	if err := checkIntSize(size); err != nil {
		return err
	}
	if !FitsInt(size, value) {
		return fmt.Errorf("%d (0x%X) into %d bytes: %w", value, uint64(value), size, ErrValueTooLarge)
	}
	return v.WriteUint(offset, size, uint64(value)&BitMask(size*8))
}

// WriteUint stores value in size bytes at offset.
func (v *View) WriteUint(offset, size int, value uint64) error {
	if err := checkIntSize(size); err != nil {
		return err
	}
	if value&^BitMask(size*8) != 0 {
		return fmt.Errorf("0x%X into %d bytes: %w", value, size, ErrValueTooLarge)
	}
	if err := v.check(offset, size); err != nil {
		return err
	}
	abs := v.start + offset
	for i := 0; i < size; i++ {
		b := byte(value >> (8 * uint(i)))
		if v.endian == LittleEndian {
			v.data[abs+i] = b
		} else {
			v.data[abs+size-1-i] = b
		}
	}
	return nil
}

// Byte returns the byte at offset.
func (v *View) Byte(offset int) (byte, error) {
	if err := v.check(offset, 1); err != nil {
		return 0, err
	}
	return v.data[v.start+offset], nil
}

// SetByte overwrites the byte at offset.
func (v *View) SetByte(offset int, b byte) error {
	if err := v.check(offset, 1); err != nil {
		return err
	}
	v.data[v.start+offset] = b
	return nil
}

func checkBitRange(start, count int) error {
	if start < 0 || start > 7 || count < 0 || start+count > 8 {
		return fmt.Errorf("bits [%d, %d) do not fit in one byte: %w", start, start+count, ErrInvalidSize)
	}
	return nil
}

// ReadBits returns count bits of the byte at offset, starting at bit start
// where bit 0 is the least significant.
func (v *View) ReadBits(offset, start, count int) (uint8, error) {
	if err := checkBitRange(start, count); err != nil {
		return 0, err
	}
	b, err := v.Byte(offset)
	if err != nil {
		return 0, err
	}
	return uint8((uint64(b) >> uint(start)) & BitMask(count)), nil
}

// WriteBits replaces count bits of the byte at offset, leaving the rest untouched.
func (v *View) WriteBits(offset, start, count int, value uint8) error {
	if err := checkBitRange(start, count); err != nil {
		return err
	}
	mask := BitMask(count)
	if uint64(value)&^mask != 0 {
		return fmt.Errorf("0x%X into %d bits: %w", value, count, ErrValueTooLarge)
	}
	b, err := v.Byte(offset)
	if err != nil {
		return err
	}
	cleared := uint64(b) &^ (mask << uint(start))
	return v.SetByte(offset, byte(cleared|uint64(value)<<uint(start)))
}

// Bit returns a single bit of the byte at offset.
func (v *View) Bit(offset, bit int) (bool, error) {
	val, err := v.ReadBits(offset, bit, 1)
	return val == 1, err
}

// SetBit sets or clears a single bit of the byte at offset.
func (v *View) SetBit(offset, bit int, set bool) error {
	var val uint8
	if set {
		val = 1
	}
	return v.WriteBits(offset, bit, 1, val)
}

// BitAt addresses bits linearly from the start of the view: bit n lives in
// byte n/8 at position n%8.
func (v *View) BitAt(n int) (bool, error) {
	if n < 0 {
		return false, fmt.Errorf("bit %d: %w", n, ErrOutOfBounds)
	}
	return v.Bit(n/8, n%8)
}

func printable(b byte) bool { return b >= 0x20 && b <= 0x7E }

// ReadASCII returns the size bytes at offset twice: lossy keeps only
// printable ASCII (0x20-0x7E), raw keeps every byte so len(raw) == size.
func (v *View) ReadASCII(offset, size int) (lossy, raw string, err error) {
	if err := v.check(offset, size); err != nil {
		return "", "", err
	}
	b := v.data[v.start+offset : v.start+offset+size]
	var sb strings.Builder
	for _, c := range b {
		if printable(c) {
			sb.WriteByte(c)
		}
	}
	return sb.String(), string(b), nil
}

// WriteASCII copies s byte for byte to offset.
func (v *View) WriteASCII(offset int, s string) error {
	if err := v.check(offset, len(s)); err != nil {
		return err
	}
	copy(v.data[v.start+offset:], s)
	return nil
}
