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
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/exp/maps"
	"golang.org/x/text/encoding/charmap"
	"seehuhn.de/go/pdfpage/pdf"
	"seehuhn.de/go/postscript/psenc"
)

// Names of the predefined simple-font encodings.
const (
	StandardEncoding  pdf.Name = "StandardEncoding"
	WinAnsiEncoding   pdf.Name = "WinAnsiEncoding"
	MacRomanEncoding  pdf.Name = "MacRomanEncoding"
	MacExpertEncoding pdf.Name = "MacExpertEncoding"
)

// Encoding describes the /Encoding entry of a simple font.
//
// A nil *Encoding stands for the built-in encoding of the font.
type Encoding struct {
	// Base is the base encoding.  The empty name denotes the font's
	// built-in encoding.
	Base pdf.Name

	// Differences maps character codes to glyph names, overriding
	// the base encoding.
	Differences map[byte]pdf.Name
}

// ReadEncoding reads the /Encoding entry of a simple font.
// If obj is null, nil is returned.
func ReadEncoding(r pdf.Getter, obj pdf.Object) (*Encoding, error) {
	obj, err := pdf.Resolve(r, obj)
	if err != nil {
		return nil, err
	}

	switch obj := obj.(type) {
	case nil:
		return nil, nil
	case pdf.Name:
		if !isBaseEncoding(obj) {
			return nil, pdf.Errorf("unknown encoding %q", obj)
		}
		return &Encoding{Base: obj}, nil
	case pdf.Dict:
		enc := &Encoding{}
		base, err := pdf.GetName(r, obj["BaseEncoding"])
		if err != nil {
			return nil, pdf.Wrap(err, "BaseEncoding")
		}
		if base != "" && !isBaseEncoding(base) {
			return nil, pdf.Errorf("unknown base encoding %q", base)
		}
		enc.Base = base

		diff, err := pdf.GetArray(r, obj["Differences"])
		if err != nil {
			return nil, pdf.Wrap(err, "Differences")
		}
		code := -1
		for _, elem := range diff {
			elem, err := pdf.Resolve(r, elem)
			if err != nil {
				return nil, err
			}
			switch elem := elem.(type) {
			case pdf.Integer:
				code = int(elem)
			case pdf.Name:
				if code < 0 || code > 255 {
					return nil, pdf.Errorf("invalid code %d in /Differences", code)
				}
				if enc.Differences == nil {
					enc.Differences = make(map[byte]pdf.Name)
				}
				enc.Differences[byte(code)] = elem
				code++
			default:
				return nil, pdf.Errorf("unexpected %T in /Differences", elem)
			}
		}
		return enc, nil
	default:
		return nil, pdf.Errorf("invalid /Encoding %s", pdf.Format(obj))
	}
}

func isBaseEncoding(name pdf.Name) bool {
	switch name {
	case StandardEncoding, WinAnsiEncoding, MacRomanEncoding, MacExpertEncoding:
		return true
	default:
		return false
	}
}

// IsIdentical reports whether two encodings map all codes in the same way.
func (e *Encoding) IsIdentical(other *Encoding) bool {
	if e.isBuiltin() || other.isBuiltin() {
		return e.isBuiltin() && other.isBuiltin()
	}
	return e.Base == other.Base && maps.Equal(e.Differences, other.Differences)
}

func (e *Encoding) isBuiltin() bool {
	return e == nil || e.Base == "" && len(e.Differences) == 0
}

// AsPDF returns the encoding in the form used for a font dictionary.
// If the encoding is nil, nil is returned.
func (e *Encoding) AsPDF() pdf.Object {
	if e == nil {
		return nil
	}
	if len(e.Differences) == 0 {
		if e.Base == "" {
			return nil
		}
		return e.Base
	}

	var diff pdf.Array
	prev := -2
	codes := maps.Keys(e.Differences)
	slices.Sort(codes)
	for _, code := range codes {
		if int(code) != prev+1 {
			diff = append(diff, pdf.Integer(code))
		}
		diff = append(diff, e.Differences[code])
		prev = int(code)
	}
	dict := pdf.Dict{
		"Type":        pdf.Name("Encoding"),
		"Differences": diff,
	}
	if e.Base != "" {
		dict["BaseEncoding"] = e.Base
	}
	return dict
}

// GlyphName returns the glyph name for a character code.
// The empty string is returned if the name cannot be determined
// without the font program.
func (e *Encoding) GlyphName(code byte) string {
	if e == nil {
		return ""
	}
	if name, ok := e.Differences[code]; ok {
		return string(name)
	}
	if e.Base == StandardEncoding {
		name := psenc.StandardEncoding[code]
		if name == ".notdef" {
			return ""
		}
		return name
	}
	return ""
}

// Decode converts a string of character codes into text.
//
// Codes which are not remapped by /Differences are decoded using the
// base encoding.  Fonts without a base encoding are treated like
// WinAnsiEncoding.
func (e *Encoding) Decode(s []byte) string {
	cm := charmap.Windows1252
	if e != nil && e.Base == MacRomanEncoding {
		cm = charmap.Macintosh
	}

	var b strings.Builder
	for _, c := range s {
		if e != nil {
			if name, ok := e.Differences[c]; ok {
				b.WriteRune(glyphRune(string(name)))
				continue
			}
			if e.Base == StandardEncoding {
				b.WriteRune(glyphRune(psenc.StandardEncoding[c]))
				continue
			}
		}
		b.WriteRune(cm.DecodeByte(c))
	}
	return b.String()
}

// glyphRune guesses the character represented by a glyph name.
func glyphRune(name string) rune {
	if r, size := utf8.DecodeRuneInString(name); size == len(name) && r != utf8.RuneError {
		return r
	}
	var hex string
	switch {
	case strings.HasPrefix(name, "uni") && len(name) == 7:
		hex = name[3:]
	case strings.HasPrefix(name, "u") && len(name) >= 5 && len(name) <= 7:
		hex = name[1:]
	}
	if hex != "" {
		if x, err := strconv.ParseUint(hex, 16, 32); err == nil && utf8.ValidRune(rune(x)) {
			return rune(x)
		}
	}
	if r, ok := latinGlyphs[name]; ok {
		return r
	}
	return utf8.RuneError
}

// latinGlyphs maps the ASCII glyph names of the standard encoding to Unicode.
var latinGlyphs = func() map[string]rune {
	m := map[string]rune{
		"quoteright": '’',
		"quoteleft":  '‘',
	}
	for code, name := range psenc.StandardEncoding {
		if name == ".notdef" || code >= 0x80 {
			continue
		}
		if _, ok := m[name]; !ok {
			m[name] = rune(code)
		}
	}
	return m
}()
