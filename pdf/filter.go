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

package pdf

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"seehuhn.de/go/pdfpage/internal/filter/ascii85"
	"seehuhn.de/go/pdfpage/internal/filter/asciihex"
	"seehuhn.de/go/pdfpage/internal/filter/predict"
)

// FilterInfo describes one entry of the /Filter array of a stream.
type FilterInfo struct {
	Name  Name
	Parms Dict
}

// Filters extracts the information contained in the /Filter and /DecodeParms
// entries of the stream dictionary.
func (x *Stream) Filters(r Getter) ([]*FilterInfo, error) {
	parms, err := Resolve(r, x.Dict["DecodeParms"])
	if err != nil {
		return nil, err
	}
	filter, err := Resolve(r, x.Dict["Filter"])
	if err != nil {
		return nil, err
	}

	var filters []*FilterInfo
	switch f := filter.(type) {
	case nil:
		// pass
	case Name:
		pDict, _ := parms.(Dict)
		filters = append(filters, &FilterInfo{Name: f, Parms: pDict})
	case Array:
		pa, _ := parms.(Array)
		for i, fi := range f {
			name, err := GetName(r, fi)
			if err != nil {
				return nil, err
			}
			var pDict Dict
			if i < len(pa) {
				pDict, err = GetDict(r, pa[i])
				if err != nil {
					return nil, err
				}
			}
			filters = append(filters, &FilterInfo{Name: name, Parms: pDict})
		}
	default:
		return nil, Errorf("invalid /Filter entry %s", Format(filter))
	}
	return filters, nil
}

// DecodeStream returns a reader for the decoded stream data.
// If numFilters is positive, only the first numFilters filters are applied.
func DecodeStream(r Getter, x *Stream, numFilters int) (io.ReadCloser, error) {
	if x == nil || x.R == nil {
		return nil, ErrSourceUnavailable
	}
	if s, ok := x.R.(io.Seeker); ok {
		_, err := s.Seek(0, io.SeekStart)
		if err != nil {
			return nil, err
		}
	}

	filters, err := x.Filters(r)
	if err != nil {
		return nil, err
	}
	if numFilters > 0 && numFilters < len(filters) {
		filters = filters[:numFilters]
	}

	var closers []io.Closer
	in := x.R
	for _, fi := range filters {
		out, err := fi.decode(in)
		if err != nil {
			for _, c := range closers {
				c.Close()
			}
			return nil, err
		}
		if c, ok := out.(io.Closer); ok {
			closers = append(closers, c)
		}
		in = out
	}
	return &decodedStream{Reader: in, closers: closers}, nil
}

// ReadAll returns the complete, decoded contents of the stream obj.
// This is the stream accessor used for shadings, ICC profiles and
// embedded font files.
//
// The expected size, if positive, is used to preallocate the buffer.
// If obj is null or not a stream, an error wrapping [ErrSourceUnavailable]
// is returned.
func ReadAll(r Getter, obj Object, expectedSize int) ([]byte, error) {
	stm, err := GetStream(r, obj)
	if err != nil {
		return nil, err
	} else if stm == nil {
		return nil, fmt.Errorf("missing stream: %w", ErrSourceUnavailable)
	}

	body, err := DecodeStream(r, stm, 0)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	buf := bytes.NewBuffer(make([]byte, 0, max(expectedSize, 0)))
	_, err = buf.ReadFrom(body)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type decodedStream struct {
	io.Reader
	closers []io.Closer
}

func (d *decodedStream) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i].Close())
	}
	d.closers = nil
	return errors.Join(errs...)
}

func (fi *FilterInfo) decode(r io.Reader) (io.Reader, error) {
	switch fi.Name {
	case "FlateDecode", "Fl":
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, &MalformedFileError{Err: err, Loc: []string{"FlateDecode"}}
		}
		params, err := fi.predictorParams()
		if err != nil {
			zr.Close()
			return nil, err
		}
		pr, err := predict.NewReader(zr, params)
		if err != nil {
			zr.Close()
			return nil, &MalformedFileError{Err: err, Loc: []string{"DecodeParms"}}
		}
		return pr, nil
	case "ASCIIHexDecode", "AHx":
		return asciihex.Decode(r), nil
	case "ASCII85Decode", "A85":
		return ascii85.Decode(r), nil
	default:
		return nil, Errorf("unsupported filter %q", fi.Name)
	}
}

func (fi *FilterInfo) predictorParams() (*predict.Params, error) {
	params := predict.DefaultParams()
	fields := []struct {
		key Name
		val *int
	}{
		{"Predictor", &params.Predictor},
		{"Colors", &params.Colors},
		{"BitsPerComponent", &params.BitsPerComponent},
		{"Columns", &params.Columns},
	}
	for _, f := range fields {
		switch x := fi.Parms[f.key].(type) {
		case nil:
			// use the default
		case Integer:
			*f.val = int(x)
		default:
			return nil, Errorf("invalid /%s in /DecodeParms", f.key)
		}
	}
	return params, nil
}
