// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package archive implements Module B of the mesh design: a two-pass
// typed binary stream over a caller-owned byte buffer. A first pass
// against a nil/zero-length buffer counts the bytes a write would need
// by tracking overflow; the caller allocates a real buffer of that size
// and serializes again to fill it. This is the only sizing path — no
// variable-length framing is introduced (spec.md §9).
//
// Primitive numbers are written in host byte order with their natural
// width, matching the teacher ecosystem's "peers share an architecture
// within one MPI job" assumption; this package fixes little-endian
// explicitly so wire bytes are reproducible across test runs on any
// host, which is a strictly stronger guarantee than the spec requires.
package archive

import (
	"encoding/binary"
	"math"
)

// Archive is a SerializeArchive: either counting (Buf == nil) or backed
// by a real buffer, always moving forward via Pos.
type Archive struct {
	Buf     []byte // nil during the dry-run counting pass
	Pos     int    // current read/write cursor
	counted int    // bytes that would have been written/read so far
	failed  bool   // status word: set on overflow (write) or short read
}

// NewCounting returns an Archive in dry-run mode: every Write* call
// advances the byte counter without touching any buffer.
func NewCounting() *Archive {
	return &Archive{}
}

// NewWriter returns an Archive that writes into buf starting at offset 0.
func NewWriter(buf []byte) *Archive {
	return &Archive{Buf: buf}
}

// NewReader returns an Archive that reads from buf starting at offset 0.
func NewReader(buf []byte) *Archive {
	return &Archive{Buf: buf}
}

// Overflow reports whether a write did not fit in Buf (or the archive is
// in counting mode, where every byte is "overflow" by construction) or a
// read ran past the end of Buf.
func (a *Archive) Overflow() bool { return a.failed || (a.Counting() && a.counted > 0) }

// OverflowSize returns the number of bytes a full write would require;
// valid after a complete counting-mode serialize() pass.
func (a *Archive) OverflowSize() int { return a.counted }

// Counting reports whether this archive has no backing buffer.
func (a *Archive) Counting() bool { return a.Buf == nil }

// ensure reserves n bytes at the cursor. In counting mode it only
// advances the counter. In buffered mode it marks failed and returns
// false if the write would run past len(Buf) — deserialize loops check
// Overflow() after every container iteration and abort early per §4.B.
func (a *Archive) ensure(n int) bool {
	a.counted += n
	if a.Counting() {
		return true
	}
	if a.Pos+n > len(a.Buf) {
		a.failed = true
		return false
	}
	return true
}

func (a *Archive) WriteUint8(v uint8) {
	if !a.ensure(1) {
		return
	}
	if !a.Counting() {
		a.Buf[a.Pos] = v
		a.Pos++
	}
}

func (a *Archive) ReadUint8() uint8 {
	if a.Pos+1 > len(a.Buf) {
		a.failed = true
		return 0
	}
	v := a.Buf[a.Pos]
	a.Pos++
	return v
}

func (a *Archive) WriteBool(v bool) {
	if v {
		a.WriteUint8(1)
	} else {
		a.WriteUint8(0)
	}
}

func (a *Archive) ReadBool() bool { return a.ReadUint8() != 0 }

func (a *Archive) WriteInt32(v int32) { a.writeFixed(4, func(b []byte) { binary.LittleEndian.PutUint32(b, uint32(v)) }) }
func (a *Archive) ReadInt32() int32   { return int32(a.readFixed(4, leUint32)) }

func (a *Archive) WriteUint32(v uint32) { a.writeFixed(4, func(b []byte) { binary.LittleEndian.PutUint32(b, v) }) }
func (a *Archive) ReadUint32() uint32   { return uint32(a.readFixed(4, leUint32)) }

// leUint32 widens binary.LittleEndian.Uint32 to readFixed's decoder type.
func leUint32(b []byte) uint64 { return uint64(binary.LittleEndian.Uint32(b)) }

func (a *Archive) WriteInt64(v int64) { a.writeFixed(8, func(b []byte) { binary.LittleEndian.PutUint64(b, uint64(v)) }) }
func (a *Archive) ReadInt64() int64   { return int64(a.readFixed(8, binary.LittleEndian.Uint64)) }

func (a *Archive) WriteUint64(v uint64) { a.writeFixed(8, func(b []byte) { binary.LittleEndian.PutUint64(b, v) }) }
func (a *Archive) ReadUint64() uint64   { return a.readFixed(8, binary.LittleEndian.Uint64) }

func (a *Archive) WriteFloat32(v float32) { a.WriteUint32(math.Float32bits(v)) }
func (a *Archive) ReadFloat32() float32   { return math.Float32frombits(a.ReadUint32()) }

func (a *Archive) WriteFloat64(v float64) { a.WriteUint64(math.Float64bits(v)) }
func (a *Archive) ReadFloat64() float64   { return math.Float64frombits(a.ReadUint64()) }

// writeFixed reserves n bytes and, when buffered, asks fn to encode v
// into them; in counting mode fn is never called.
func (a *Archive) writeFixed(n int, fn func([]byte)) {
	if !a.ensure(n) {
		return
	}
	if !a.Counting() {
		fn(a.Buf[a.Pos : a.Pos+n])
		a.Pos += n
	}
}

// readFixed reads n bytes via fn; marks failed and returns the zero
// value of the underlying type if the buffer is exhausted.
func (a *Archive) readFixed(n int, fn func([]byte) uint64) uint64 {
	if a.Pos+n > len(a.Buf) {
		a.failed = true
		return 0
	}
	v := fn(a.Buf[a.Pos : a.Pos+n])
	a.Pos += n
	return v
}

// WriteString writes s as raw bytes padded or truncated to exactly
// width bytes (spec.md §4.B: fixed declared length, no terminator
// required).
func (a *Archive) WriteString(s string, width int) {
	if !a.ensure(width) {
		return
	}
	if a.Counting() {
		return
	}
	n := copy(a.Buf[a.Pos:a.Pos+width], s)
	for i := n; i < width; i++ {
		a.Buf[a.Pos+i] = 0
	}
	a.Pos += width
}

// ReadString reads exactly width bytes and trims trailing NUL padding.
func (a *Archive) ReadString(width int) string {
	if a.Pos+width > len(a.Buf) {
		a.failed = true
		return ""
	}
	raw := a.Buf[a.Pos : a.Pos+width]
	a.Pos += width
	end := len(raw)
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	return string(raw[:end])
}

// WriteTerminated writes s followed by a NUL terminator, padding to
// width bytes total — the "convenience operator" of spec.md §4.B.
func (a *Archive) WriteTerminated(s string, width int) {
	if width > 0 && len(s) >= width {
		s = s[:width-1]
	}
	a.WriteString(s, width)
}

// Serializable is implemented by every composite object carried over the
// wire: it is responsible for prefixing counts before element sequences,
// matching UdmISerializable's serialize/deserialize pair.
type Serializable interface {
	Serialize(a *Archive)
	Deserialize(a *Archive)
}

// Size runs s.Serialize against a fresh counting archive and returns the
// number of bytes a real write would need — the "dry-run -> allocate"
// half of the usage pattern in spec.md §4.B.
func Size(s Serializable) int {
	a := NewCounting()
	s.Serialize(a)
	return a.OverflowSize()
}

// Marshal allocates a buffer of the right size, serializes s into it,
// and returns the bytes ready to send.
func Marshal(s Serializable) []byte {
	buf := make([]byte, Size(s))
	a := NewWriter(buf)
	s.Serialize(a)
	return buf
}

// Unmarshal deserializes buf into s (a pointer to the destination type).
func Unmarshal(buf []byte, s Serializable) {
	a := NewReader(buf)
	s.Deserialize(a)
}
