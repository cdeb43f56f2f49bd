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

package predict

import (
	"fmt"
	"io"
)

// NewReader returns a reader which undoes the predictor described by p on
// the data read from r.  For predictor 1, r is returned unchanged.
func NewReader(r io.ReadCloser, p *Params) (io.ReadCloser, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Predictor == 1 {
		return r, nil
	}

	n := p.rowBytes()
	res := &reader{
		r:      r,
		params: p,
		prev:   make([]byte, n),
		row:    make([]byte, n),
	}
	if p.Predictor >= 10 {
		res.in = make([]byte, n+1) // tag byte and row
	} else {
		res.in = make([]byte, n)
	}
	return res, nil
}

type reader struct {
	r      io.ReadCloser
	params *Params

	in   []byte // encoded row, as read from r
	prev []byte // previous decoded row
	row  []byte // current decoded row
	out  []byte // part of row not yet returned
	err  error
}

func (r *reader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.out) > 0 {
			k := copy(p[n:], r.out)
			r.out = r.out[k:]
			n += k
			continue
		}
		if r.err != nil {
			break
		}

		k, err := io.ReadFull(r.r, r.in)
		if err == io.ErrUnexpectedEOF {
			// A truncated last row is decoded as far as possible.
			err = io.EOF
		}
		if err != nil {
			r.err = err
		}
		if k == 0 {
			continue
		}

		var row []byte
		if r.params.Predictor == 2 {
			row = r.decodeTIFF(r.in[:k])
		} else {
			row, err = r.decodePNG(r.in[:k])
			if err != nil {
				r.err = err
				continue
			}
		}
		r.out = row
	}

	if n > 0 {
		return n, nil
	}
	return 0, r.err
}

func (r *reader) Close() error {
	return r.r.Close()
}

// decodePNG undoes the PNG filter of one row.  The first byte of in is
// the filter type.
func (r *reader) decodePNG(in []byte) ([]byte, error) {
	tag, data := in[0], in[1:]
	row := r.row[:len(data)]
	bpp := r.params.pixelBytes()

	for i, x := range data {
		var left, up, upLeft byte
		if i >= bpp {
			left = row[i-bpp]
			upLeft = r.prev[i-bpp]
		}
		up = r.prev[i]

		switch tag {
		case 0: // None
		case 1: // Sub
			x += left
		case 2: // Up
			x += up
		case 3: // Average
			x += byte((int(left) + int(up)) / 2)
		case 4: // Paeth
			x += paeth(left, up, upLeft)
		default:
			return nil, fmt.Errorf("predictor: invalid PNG filter type %d", tag)
		}
		row[i] = x
	}

	copy(r.prev, row)
	return row, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := dist(p, a), dist(p, b), dist(p, c)
	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func dist(p int, x byte) int {
	d := p - int(x)
	if d < 0 {
		return -d
	}
	return d
}

// decodeTIFF undoes TIFF horizontal differencing for one row.  Each
// component is stored as the difference to the same component of the
// pixel to its left.
func (r *reader) decodeTIFF(in []byte) []byte {
	row := r.row[:len(in)]
	copy(row, in)

	colors := r.params.Colors
	switch bpc := r.params.BitsPerComponent; bpc {
	case 8:
		for i := colors; i < len(row); i++ {
			row[i] += row[i-colors]
		}
	case 16:
		for i := 2 * colors; i+1 < len(row); i += 2 {
			j := i - 2*colors
			v := uint16(row[i])<<8 | uint16(row[i+1])
			v += uint16(row[j])<<8 | uint16(row[j+1])
			row[i], row[i+1] = byte(v>>8), byte(v)
		}
	default:
		mask := byte(1<<bpc - 1)
		get := func(k int) byte {
			shift := 8 - bpc - (k*bpc)%8
			return row[k*bpc/8] >> shift & mask
		}
		set := func(k int, v byte) {
			shift := 8 - bpc - (k*bpc)%8
			idx := k * bpc / 8
			row[idx] = row[idx]&^(mask<<shift) | (v&mask)<<shift
		}
		n := min(colors*r.params.Columns, len(row)*8/bpc)
		for k := colors; k < n; k++ {
			set(k, get(k)+get(k-colors))
		}
	}
	return row
}
