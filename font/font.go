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

// Package font reads PDF font dictionaries and embedded font files.
//
// Only the information needed to identify and share fonts is extracted.
// Glyph outlines and metrics are left to the font program, which can be
// obtained via [File].
package font

import (
	"errors"
	"fmt"

	"seehuhn.de/go/pdfpage/pdf"
	"seehuhn.de/go/sfnt"
)

// FileLoader gives access to embedded font files.
type FileLoader interface {
	// FontFile returns the decoded font file stored in the stream obj.
	FontFile(obj pdf.Object) (*File, error)
}

// Font holds the information from a PDF font dictionary.
type Font struct {
	// Dict is the font dictionary.
	Dict pdf.Dict

	Subtype  pdf.Name
	BaseFont pdf.Name

	// Encoding is the encoding of a simple font.  This is nil for composite
	// fonts, and for simple fonts which use the built-in encoding of the
	// font program.
	Encoding *Encoding

	// Embedded is true if the font program is contained in the PDF file.
	// Type 3 fonts are always considered embedded.
	Embedded bool

	// HasWidths is true if the font dictionary has a /Widths array.
	HasWidths bool

	// FileObj is the font file stream, if the font is embedded.
	FileObj pdf.Object

	// File is the decoded font file.  This is nil if the font is not
	// embedded, if no FileLoader was given, or if the font file could not
	// be read.
	File *File

	// Program is the parsed font program, for embedded TrueType and
	// OpenType fonts.  This is nil if the font file is not in sfnt format
	// or could not be parsed.
	Program *sfnt.Font
}

var fontFileKeys = []pdf.Name{"FontFile", "FontFile2", "FontFile3"}

// Load reads a font dictionary.
//
// If files is not nil and the font is embedded, the font file is obtained
// from files.  The caller is responsible for giving the font file back
// when the font is discarded.
func Load(r pdf.Getter, files FileLoader, obj pdf.Object) (*Font, error) {
	fontDict, err := pdf.GetDictTyped(r, obj, "Font")
	if err != nil {
		return nil, err
	} else if fontDict == nil {
		return nil, fmt.Errorf("font: %w", pdf.ErrSourceUnavailable)
	}

	subtype, err := pdf.GetName(r, fontDict["Subtype"])
	if err != nil {
		return nil, pdf.Wrap(err, "Subtype")
	}
	baseFont, err := pdf.GetName(r, fontDict["BaseFont"])
	if err != nil {
		return nil, pdf.Wrap(err, "BaseFont")
	}

	f := &Font{
		Dict:      fontDict,
		Subtype:   subtype,
		BaseFont:  baseFont,
		HasWidths: fontDict["Widths"] != nil,
	}

	var descObj pdf.Object
	var fileKey pdf.Name
	switch subtype {
	case "Type1", "MMType1", "TrueType":
		if baseFont == "" {
			return nil, pdf.Errorf("missing /BaseFont in %s font", subtype)
		}
		f.Encoding, err = ReadEncoding(r, fontDict["Encoding"])
		if err != nil {
			return nil, pdf.Wrap(err, "Encoding")
		}
		descObj = fontDict["FontDescriptor"]

	case "Type3":
		f.Encoding, err = ReadEncoding(r, fontDict["Encoding"])
		if err != nil {
			return nil, pdf.Wrap(err, "Encoding")
		}
		f.Embedded = true

	case "Type0":
		a, err := pdf.GetArray(r, fontDict["DescendantFonts"])
		if err != nil {
			return nil, pdf.Wrap(err, "DescendantFonts")
		} else if len(a) < 1 {
			return nil, &pdf.MalformedFileError{
				Err: errors.New("composite font with no descendant fonts"),
			}
		}
		cidFont, err := pdf.GetDictTyped(r, a[0], "Font")
		if err != nil {
			return nil, pdf.Wrap(err, "DescendantFonts")
		} else if cidFont == nil {
			return nil, pdf.Errorf("missing descendant font")
		}
		descObj = cidFont["FontDescriptor"]

	default:
		return nil, pdf.Errorf("unsupported font type %q", subtype)
	}

	if descObj != nil {
		desc, err := pdf.GetDictTyped(r, descObj, "FontDescriptor")
		if err != nil {
			return nil, pdf.Wrap(err, "FontDescriptor")
		}
		for _, key := range fontFileKeys {
			if fileObj := desc[key]; fileObj != nil {
				f.Embedded = true
				f.FileObj = fileObj
				fileKey = key
				break
			}
		}
	}

	if f.FileObj != nil && files != nil {
		// A broken font file does not prevent the font from being used
		// for text extraction.
		file, err := files.FontFile(f.FileObj)
		if err == nil {
			f.File = file
		} else {
			f.FileObj = nil
		}
	}
	if f.File != nil && f.File.IsSFNT(fileKey) {
		f.Program, _ = f.File.SFNT()
	}

	return f, nil
}

// IsStandard reports whether f is a non-embedded Type 1 font without
// explicit glyph widths, using the given name.  If enc is not nil, the
// font must also use this encoding.
// Such fonts can be shared between all requests for the same standard font.
func (f *Font) IsStandard(name pdf.Name, enc *Encoding) bool {
	return f.Subtype == "Type1" &&
		!f.Embedded &&
		!f.HasWidths &&
		f.BaseFont == name &&
		(enc == nil || f.Encoding.IsIdentical(enc))
}

// StandardDict returns a font dictionary for a non-embedded Type 1 font.
func StandardDict(name pdf.Name, enc *Encoding) pdf.Dict {
	dict := pdf.Dict{
		"Type":     pdf.Name("Font"),
		"Subtype":  pdf.Name("Type1"),
		"BaseFont": name,
	}
	if encObj := enc.AsPDF(); encObj != nil {
		dict["Encoding"] = encObj
	}
	return dict
}

func (f *Font) String() string {
	if f.BaseFont == "" {
		return fmt.Sprintf("%s font", f.Subtype)
	}
	return fmt.Sprintf("%s font %s", f.Subtype, f.BaseFont)
}
