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

package font

import (
	"bytes"
	"fmt"

	"seehuhn.de/go/pdfpage/pdf"
	"seehuhn.de/go/sfnt"
)

// File is the decoded contents of an embedded font file stream.
type File struct {
	// Data is the decoded font program.
	Data []byte

	// Subtype is the /Subtype of the stream (only used for FontFile3
	// streams), for example "Type1C" or "OpenType".
	Subtype pdf.Name
}

// ReadFile reads an embedded font file stream.
//
// The /Length1, /Length2 and /Length3 entries of the stream dictionary are
// used as a hint for the size of the decoded data.
func ReadFile(r pdf.Getter, obj pdf.Object) (*File, error) {
	stm, err := pdf.GetStream(r, obj)
	if err != nil {
		return nil, err
	} else if stm == nil {
		return nil, fmt.Errorf("font file: %w", pdf.ErrSourceUnavailable)
	}

	data, err := pdf.ReadAll(r, stm, sizeHint(r, stm.Dict))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty font file: %w", pdf.ErrSourceUnavailable)
	}

	subtype, _ := pdf.GetName(r, stm.Dict["Subtype"])
	return &File{Data: data, Subtype: subtype}, nil
}

func sizeHint(r pdf.Getter, dict pdf.Dict) int {
	var total pdf.Integer
	for _, key := range []pdf.Name{"Length1", "Length2", "Length3"} {
		n, _ := pdf.GetInteger(r, dict[key])
		total += n
	}
	return int(max(total, 0))
}

// IsSFNT reports whether the file, found under the given key of a font
// descriptor, holds a TrueType or OpenType font program.
func (f *File) IsSFNT(key pdf.Name) bool {
	switch key {
	case "FontFile2":
		return true
	case "FontFile3":
		return f.Subtype == "OpenType"
	default:
		return false
	}
}

// SFNT parses the file as a TrueType or OpenType font.
func (f *File) SFNT() (*sfnt.Font, error) {
	font, err := sfnt.Read(bytes.NewReader(f.Data))
	if err != nil {
		return nil, &pdf.MalformedFileError{Err: err, Loc: []string{"font file"}}
	}
	return font, nil
}
