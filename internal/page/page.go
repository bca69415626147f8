// Package page implements the fixed-size columnar storage unit the engine
// builds everything else on top of: a 4096-byte payload of up to 512
// little-endian 64-bit integers, preceded by an 8-byte slot-count header.
package page

import (
	"encoding/binary"
	"fmt"
)

// Size is the page payload size in bytes (4 KB).
const Size = 4096

// IntSize is the width of a single stored value.
const IntSize = 8

// HeaderSize is the width of the on-disk slot-count header.
const HeaderSize = 8

// Capacity is the maximum number of int64 slots a page can hold.
const Capacity = Size / IntSize

// FileSize is the exact on-disk size of a page file: header ‖ payload.
const FileSize = HeaderSize + Size

// Page is a fixed-capacity container of 64-bit integers with a byte-exact
// on-disk layout: an 8-byte little-endian count followed by up to Capacity
// little-endian int64 slots, with any unused tail bytes left zero.
type Page struct {
	count uint64
	data  [Size]byte
}

// New returns an empty page ready to accept writes.
func New() *Page {
	return &Page{}
}

// Count returns the number of occupied slots.
func (p *Page) Count() int {
	return int(p.count)
}

// HasCapacity reports whether another value can be appended.
func (p *Page) HasCapacity() bool {
	return p.count < Capacity
}

// Write appends value as the next slot, encoding it unsigned. Returns false
// if the page is already full.
func (p *Page) Write(value int64) bool {
	if !p.HasCapacity() {
		return false
	}
	off := p.count * IntSize
	binary.LittleEndian.PutUint64(p.data[off:off+IntSize], uint64(value))
	p.count++
	return true
}

// Read returns the value stored at slot i. i must be in [0, Count()).
func (p *Page) Read(i int) int64 {
	if i < 0 || uint64(i) >= p.count {
		panic(fmt.Sprintf("page: read index %d out of bounds (count %d)", i, p.count))
	}
	off := i * IntSize
	return int64(binary.LittleEndian.Uint64(p.data[off : off+IntSize]))
}

// Update overwrites slot i in place with a signed-encoded value, so
// negative sentinels round-trip correctly. Valid only for i < Count(); it
// never extends the page. Returns false if i is out of range.
func (p *Page) Update(i int, value int64) bool {
	if i < 0 || uint64(i) >= p.count {
		return false
	}
	off := i * IntSize
	binary.LittleEndian.PutUint64(p.data[off:off+IntSize], uint64(value))
	return true
}

// ToBytes serializes the page into its exact on-disk representation:
// HeaderSize bytes of little-endian count followed by Size bytes of payload.
func (p *Page) ToBytes() []byte {
	out := make([]byte, FileSize)
	binary.LittleEndian.PutUint64(out[:HeaderSize], p.count)
	copy(out[HeaderSize:], p.data[:])
	return out
}

// FromBytes deserializes a page from its exact on-disk representation. raw
// must be exactly FileSize bytes; any other length is rejected.
func FromBytes(raw []byte) (*Page, error) {
	if len(raw) != FileSize {
		return nil, fmt.Errorf("page: expected %d bytes, got %d", FileSize, len(raw))
	}
	p := &Page{
		count: binary.LittleEndian.Uint64(raw[:HeaderSize]),
	}
	copy(p.data[:], raw[HeaderSize:])
	return p, nil
}
