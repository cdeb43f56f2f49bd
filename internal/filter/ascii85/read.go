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

// Package ascii85 implements the ASCII85Decode filter.
package ascii85

import (
	"bufio"
	"errors"
	"io"
)

// Decode returns a reader for the binary data encoded in r.
//
// A leading "<~" is skipped.  Decoding stops at the end-of-data marker
// "~>", or at the end of r if the marker is missing.
func Decode(r io.Reader) io.Reader {
	return &reader{r: bufio.NewReader(r), atStart: true}
}

type reader struct {
	r *bufio.Reader

	atStart bool
	v       uint32
	k       int // number of digits in v
	out     [4]byte
	pending []byte
	err     error
}

func (r *reader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.pending) > 0 {
			k := copy(p[n:], r.pending)
			r.pending = r.pending[k:]
			n += k
			continue
		}
		if r.err != nil {
			break
		}
		r.step()
	}

	if n > 0 {
		return n, nil
	}
	return 0, r.err
}

// step consumes input until at least one output byte is available, or
// until an error or the end of data is reached.
func (r *reader) step() {
	for r.err == nil && len(r.pending) == 0 {
		c, err := r.r.ReadByte()
		if err == io.EOF {
			r.finish()
			return
		} else if err != nil {
			r.err = err
			return
		}

		if r.atStart {
			r.atStart = false
			if c == '<' {
				if next, err := r.r.ReadByte(); err != nil || next != '~' {
					r.err = errInvalid
					return
				}
				continue
			}
		}

		switch {
		case c >= '!' && c < '!'+85:
			r.v = r.v*85 + uint32(c-'!')
			r.k++
			if r.k == 5 {
				r.emit(4)
			}
		case c == 'z' && r.k == 0:
			r.emit(4)
		case c == '~':
			if next, err := r.r.ReadByte(); err == nil && next != '>' {
				r.err = errInvalid
				return
			}
			r.finish()
			return
		case isSpace(c):
			// pass
		default:
			r.err = errInvalid
			return
		}
	}
}

// finish flushes a final, partial group.
func (r *reader) finish() {
	switch r.k {
	case 0:
		r.err = io.EOF
	case 1:
		r.err = errors.New("ascii85: incomplete final group")
	default:
		n := r.k - 1
		for r.k < 5 {
			r.v = r.v*85 + 84
			r.k++
		}
		r.emit(n)
		r.err = io.EOF
	}
}

// emit makes the first n bytes of the current group available.
func (r *reader) emit(n int) {
	r.out[0] = byte(r.v >> 24)
	r.out[1] = byte(r.v >> 16)
	r.out[2] = byte(r.v >> 8)
	r.out[3] = byte(r.v)
	r.pending = r.out[:n]
	r.v = 0
	r.k = 0
}

var errInvalid = errors.New("ascii85: invalid data")

func isSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}
