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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/font/gofont/goregular"
	"seehuhn.de/go/pdfpage/pdf"
)

type fileRecorder struct {
	r     pdf.Getter
	calls int
}

func (fr *fileRecorder) FontFile(obj pdf.Object) (*File, error) {
	fr.calls++
	return ReadFile(fr.r, obj)
}

func TestReadEncoding(t *testing.T) {
	data := pdf.NewData()
	encDict := pdf.Dict{
		"Type":         pdf.Name("Encoding"),
		"BaseEncoding": pdf.Name("WinAnsiEncoding"),
		"Differences": pdf.Array{
			pdf.Integer(65), pdf.Name("B"), pdf.Name("uni263A"),
			pdf.Integer(200), pdf.Name("quoteright"),
		},
	}
	enc, err := ReadEncoding(data, data.Add(encDict))
	if err != nil {
		t.Fatal(err)
	}

	want := &Encoding{
		Base: WinAnsiEncoding,
		Differences: map[byte]pdf.Name{
			65:  "B",
			66:  "uni263A",
			200: "quoteright",
		},
	}
	if d := cmp.Diff(want, enc); d != "" {
		t.Fatal(d)
	}
	if d := cmp.Diff(encDict, enc.AsPDF()); d != "" {
		t.Errorf("AsPDF: %s", d)
	}

	text := enc.Decode([]byte{'A', 'B', 'C', 200, 0x80})
	if text != "B☺C’€" {
		t.Errorf("Decode: got %q", text)
	}
}

func TestStandardEncoding(t *testing.T) {
	enc := &Encoding{Base: StandardEncoding}
	if name := enc.GlyphName('A'); name != "A" {
		t.Errorf("GlyphName('A') = %q", name)
	}
	if name := enc.GlyphName(0x27); name != "quoteright" {
		t.Errorf("GlyphName(0x27) = %q", name)
	}
	if text := enc.Decode([]byte("it's")); text != "it’s" {
		t.Errorf("Decode: got %q", text)
	}

	mac := &Encoding{Base: MacRomanEncoding}
	if text := mac.Decode([]byte{0x8A}); text != "ä" {
		t.Errorf("MacRoman: got %q", text)
	}
}

func TestIsIdentical(t *testing.T) {
	a := &Encoding{Base: WinAnsiEncoding, Differences: map[byte]pdf.Name{1: "x"}}
	b := &Encoding{Base: WinAnsiEncoding, Differences: map[byte]pdf.Name{1: "x"}}
	c := &Encoding{Base: WinAnsiEncoding}

	if !a.IsIdentical(b) {
		t.Error("a and b should be identical")
	}
	if a.IsIdentical(c) {
		t.Error("a and c should differ")
	}
	var nilEnc *Encoding
	if !nilEnc.IsIdentical(&Encoding{}) {
		t.Error("an empty encoding should match the built-in encoding")
	}
	if nilEnc.IsIdentical(c) {
		t.Error("nil should not match WinAnsiEncoding")
	}
}

func TestLoadStandard(t *testing.T) {
	data := pdf.NewData()
	enc := &Encoding{Base: WinAnsiEncoding}
	ref := data.Add(StandardDict("Helvetica", enc))

	f, err := Load(data, nil, ref)
	if err != nil {
		t.Fatal(err)
	}
	if !f.IsStandard("Helvetica", enc) {
		t.Errorf("%s is not a standard font", f)
	}
	if !f.IsStandard("Helvetica", nil) {
		t.Error("a nil encoding must match any encoding")
	}
	if f.IsStandard("Helvetica", &Encoding{Base: MacRomanEncoding}) ||
		f.IsStandard("Helvetica", &Encoding{}) ||
		f.IsStandard("Times-Roman", enc) {
		t.Error("wrong match")
	}
}

func TestLoadEmbedded(t *testing.T) {
	data := pdf.NewData()
	fileRef := data.AddStream(pdf.Dict{
		"Length1": pdf.Integer(len(goregular.TTF)),
	}, goregular.TTF)
	descRef := data.Add(pdf.Dict{
		"Type":      pdf.Name("FontDescriptor"),
		"FontName":  pdf.Name("GoRegular"),
		"FontFile2": fileRef,
	})
	fontRef := data.Add(pdf.Dict{
		"Type":           pdf.Name("Font"),
		"Subtype":        pdf.Name("TrueType"),
		"BaseFont":       pdf.Name("GoRegular"),
		"FirstChar":      pdf.Integer(32),
		"LastChar":       pdf.Integer(32),
		"Widths":         pdf.Array{pdf.Integer(250)},
		"FontDescriptor": descRef,
	})

	files := &fileRecorder{r: data}
	f, err := Load(data, files, fontRef)
	if err != nil {
		t.Fatal(err)
	}
	if !f.Embedded || !f.HasWidths || f.FileObj != fileRef || files.calls != 1 {
		t.Fatalf("unexpected font %+v", f)
	}
	if f.IsStandard("GoRegular", nil) {
		t.Error("embedded font must not be a standard font")
	}

	if f.Program == nil {
		t.Fatal("font program not parsed")
	}
	if f.Program.FamilyName != "Go" {
		t.Errorf("FamilyName = %q", f.Program.FamilyName)
	}
}

func TestLoadBrokenProgram(t *testing.T) {
	data := pdf.NewData()
	fileRef := data.AddStream(pdf.Dict{"Subtype": pdf.Name("OpenType")},
		[]byte("not a font"))
	descRef := data.Add(pdf.Dict{
		"Type":      pdf.Name("FontDescriptor"),
		"FontFile3": fileRef,
	})
	fontRef := data.Add(pdf.Dict{
		"Type":           pdf.Name("Font"),
		"Subtype":        pdf.Name("Type1"),
		"BaseFont":       pdf.Name("Broken"),
		"FontDescriptor": descRef,
	})

	files := &fileRecorder{r: data}
	f, err := Load(data, files, fontRef)
	if err != nil {
		t.Fatal(err)
	}
	// The font file is still held, so that it can be given back later.
	if f.File == nil || f.FileObj != fileRef {
		t.Errorf("unexpected font %+v", f)
	}
	if f.Program != nil {
		t.Error("invalid font program was accepted")
	}
	if _, err := f.File.SFNT(); !pdf.IsMalformed(err) {
		t.Errorf("SFNT: got %v", err)
	}
}

func TestIsSFNT(t *testing.T) {
	cases := []struct {
		key     pdf.Name
		subtype pdf.Name
		want    bool
	}{
		{"FontFile", "", false},
		{"FontFile2", "", true},
		{"FontFile3", "Type1C", false},
		{"FontFile3", "OpenType", true},
	}
	for _, c := range cases {
		f := &File{Subtype: c.subtype}
		if got := f.IsSFNT(c.key); got != c.want {
			t.Errorf("%s/%s: got %t", c.key, c.subtype, got)
		}
	}
}

func TestLoadComposite(t *testing.T) {
	data := pdf.NewData()
	desc := data.Add(pdf.Dict{
		"Type":      pdf.Name("FontDescriptor"),
		"FontFile2": data.Alloc(),
	})
	cidFont := data.Add(pdf.Dict{
		"Type":           pdf.Name("Font"),
		"Subtype":        pdf.Name("CIDFontType2"),
		"BaseFont":       pdf.Name("Go"),
		"FontDescriptor": desc,
	})
	ref := data.Add(pdf.Dict{
		"Type":            pdf.Name("Font"),
		"Subtype":         pdf.Name("Type0"),
		"BaseFont":        pdf.Name("Go"),
		"Encoding":        pdf.Name("Identity-H"),
		"DescendantFonts": pdf.Array{cidFont},
	})

	files := &fileRecorder{r: data}
	f, err := Load(data, files, ref)
	if err != nil {
		t.Fatal(err)
	}
	// The font file is missing, so the font is embedded but has no data.
	if !f.Embedded || f.File != nil || f.FileObj != nil || files.calls != 1 {
		t.Errorf("unexpected font %+v", f)
	}
	if f.Encoding != nil {
		t.Errorf("composite font has simple encoding %v", f.Encoding)
	}
}

func TestLoadInvalid(t *testing.T) {
	data := pdf.NewData()
	cases := []pdf.Object{
		pdf.Dict{"Type": pdf.Name("XObject")},
		pdf.Dict{"Subtype": pdf.Name("Type1")},
		pdf.Dict{"Subtype": pdf.Name("Type42"), "BaseFont": pdf.Name("X")},
		pdf.Dict{"Subtype": pdf.Name("Type0"), "DescendantFonts": pdf.Array{}},
		pdf.Dict{"Subtype": pdf.Name("Type1"), "BaseFont": pdf.Name("X"),
			"Encoding": pdf.Name("KlingonEncoding")},
	}
	for i, obj := range cases {
		_, err := Load(data, nil, obj)
		if !pdf.IsMalformed(err) {
			t.Errorf("%d: expected a malformed file error, got %v", i, err)
		}
	}

	_, err := Load(data, nil, nil)
	if !errors.Is(err, pdf.ErrSourceUnavailable) {
		t.Errorf("null font: got %v", err)
	}
}

func TestReadFileSizeHint(t *testing.T) {
	data := pdf.NewData()
	dict := pdf.Dict{
		"Length1": pdf.Integer(10),
		"Length2": pdf.Integer(-5),
		"Length3": pdf.Integer(3),
	}
	if n := sizeHint(data, dict); n != 8 {
		t.Errorf("sizeHint = %d, want 8", n)
	}
	dict["Length1"] = pdf.Integer(1)
	if n := sizeHint(data, dict); n != 0 {
		t.Errorf("negative total: sizeHint = %d, want 0", n)
	}

	ref := data.AddStream(pdf.Dict{"Length1": pdf.Integer(-1)}, nil)
	_, err := ReadFile(data, ref)
	if !errors.Is(err, pdf.ErrSourceUnavailable) {
		t.Errorf("empty font file: got %v", err)
	}
}
