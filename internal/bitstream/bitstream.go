// seehuhn.de/go/pdfpage - resource caching and mesh decoding for PDF pages
// Copyright (C) 2025  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package bitstream reads unsigned integers of arbitrary bit width from a
// byte slice.
package bitstream

// Reader extracts bit fields from a byte buffer, most significant bit first.
//
// The reader does not copy or modify the buffer.
type Reader struct {
	buf []byte
	pos uint64 // position in bits
}

// NewReader returns a reader positioned at the first bit of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// ReadBits returns the next n bits (0 <= n <= 32) as an unsigned integer and
// advances the cursor by n.
//
// Bits past the end of the buffer read as zero.  Use [Reader.BitsLeft] or
// [Reader.AtEnd] to detect exhaustion.
func (r *Reader) ReadBits(n int) uint32 {
	if n <= 0 {
		return 0
	}
	if n > 32 {
		panic("bitstream: cannot read more than 32 bits at once")
	}

	var v uint64
	need := n
	pos := r.pos
	for need > 0 {
		byteIdx := pos / 8
		bitOff := int(pos % 8)
		avail := 8 - bitOff
		take := min(avail, need)

		var b byte
		if byteIdx < uint64(len(r.buf)) {
			b = r.buf[byteIdx]
		}
		chunk := (b >> (avail - take)) & byte(1<<take-1)
		v = v<<take | uint64(chunk)

		need -= take
		pos += uint64(take)
	}
	r.pos = pos
	return uint32(v)
}

// ByteAlign advances the cursor to the next byte boundary.
// If the cursor already is at a byte boundary, this is a no-op.
func (r *Reader) ByteAlign() {
	r.pos = (r.pos + 7) &^ 7
}

// BitsLeft returns the number of unread bits in the buffer.
func (r *Reader) BitsLeft() uint64 {
	total := uint64(len(r.buf)) * 8
	if r.pos >= total {
		return 0
	}
	return total - r.pos
}

// AtEnd reports whether all bits of the buffer have been consumed.
func (r *Reader) AtEnd() bool {
	return r.pos >= uint64(len(r.buf))*8
}

// Pos returns the current cursor position, in bits.
func (r *Reader) Pos() uint64 {
	return r.pos
}
