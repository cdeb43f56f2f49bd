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

// Package asciihex implements the ASCIIHexDecode filter.
package asciihex

import (
	"bufio"
	"fmt"
	"io"
)

// Decode returns a reader for the binary data encoded in r.
//
// Decoding stops at the end-of-data marker '>'.  If the marker is missing,
// the data up to the end of r is used.  A final odd digit is completed
// with a zero.
func Decode(r io.Reader) io.Reader {
	return &reader{r: bufio.NewReader(r)}
}

type reader struct {
	r *bufio.Reader

	high    byte
	hasHigh bool
	err     error
}

func (r *reader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && r.err == nil {
		c, err := r.r.ReadByte()
		if err == io.EOF || err == nil && c == '>' {
			if r.hasHigh {
				p[n] = r.high << 4
				n++
				r.hasHigh = false
			}
			r.err = io.EOF
			break
		} else if err != nil {
			r.err = err
			break
		}

		var b byte
		switch {
		case '0' <= c && c <= '9':
			b = c - '0'
		case 'A' <= c && c <= 'F':
			b = c - 'A' + 10
		case 'a' <= c && c <= 'f':
			b = c - 'a' + 10
		case isSpace(c):
			continue
		default:
			r.err = fmt.Errorf("asciihex: invalid character %q", c)
			continue
		}

		if r.hasHigh {
			p[n] = r.high<<4 | b
			n++
			r.hasHigh = false
		} else {
			r.high = b
			r.hasHigh = true
		}
	}

	if n > 0 {
		return n, nil
	}
	return 0, r.err
}

func isSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}
