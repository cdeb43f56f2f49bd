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

package pdfpage

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/font/gofont/goregular"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/icc"
	"seehuhn.de/go/pdfpage/font"
	"seehuhn.de/go/pdfpage/graphics/color"
	"seehuhn.de/go/pdfpage/graphics/pattern"
	"seehuhn.de/go/pdfpage/pdf"
)

var whitePoint = pdf.Array{pdf.Real(0.9505), pdf.Integer(1), pdf.Real(1.089)}

func countingFonts(calls *int) *Options {
	return &Options{
		LoadFont: func(r pdf.Getter, files font.FileLoader, obj pdf.Object) (*font.Font, error) {
			*calls++
			return font.Load(r, files, obj)
		},
	}
}

func TestRefCount(t *testing.T) {
	data := pdf.NewData()
	ref := data.Add(font.StandardDict("Courier", nil))

	calls := 0
	c := New(data, countingFonts(&calls))
	id := pdf.IdentityOf(ref)

	const n = 5
	var first *font.Font
	for i := range n {
		f, err := c.Font(ref)
		if err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			first = f
		} else if f != first {
			t.Fatal("font not shared")
		}
	}
	if calls != 1 {
		t.Errorf("font loaded %d times", calls)
	}
	if count, _ := c.fonts.RefCount(id); count != n+1 {
		t.Errorf("count = %d, want %d", count, n+1)
	}

	// After all callers are done, the cache still holds the font.
	for range n {
		c.ReleaseFont(ref)
	}
	if count, ok := c.fonts.RefCount(id); !ok || count != 1 {
		t.Errorf("count = %d, %t", count, ok)
	}
	if f, ok := c.FindFont(ref); !ok || f != first {
		t.Error("FindFont did not find the font")
	} else {
		c.ReleaseFont(ref)
	}

	if n := c.Clear(false); n != 1 {
		t.Errorf("Clear discarded %d objects", n)
	}
	if !c.fonts.Has(id) || c.fonts.Live() != 0 {
		t.Error("bookkeeping entry lost or font still alive")
	}
	if _, ok := c.FindFont(ref); ok {
		t.Error("FindFont must not reload fonts")
	}

	_, err := c.Font(ref)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("font loaded %d times, want 2", calls)
	}
}

func TestReleasePolicy(t *testing.T) {
	data := pdf.NewData()
	csRef := data.Add(pdf.Array{pdf.Name("CalGray"), pdf.Dict{"WhitePoint": whitePoint}})
	patRef := data.AddStream(pdf.Dict{
		"PatternType": pdf.Integer(1),
		"PaintType":   pdf.Integer(1),
		"TilingType":  pdf.Integer(1),
		"BBox":        pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(1), pdf.Integer(1)},
		"XStep":       pdf.Integer(1),
		"YStep":       pdf.Integer(1),
	}, nil)
	c := New(data, nil)

	_, err := c.ColorSpace(csRef, nil)
	if err != nil {
		t.Fatal(err)
	}
	c.ReleaseColorSpace(csRef, nil)
	c.ReleaseColorSpace(csRef, nil)
	if !c.colorSpaces.Has(pdf.IdentityOf(csRef)) || c.colorSpaces.Live() != 0 {
		t.Error("color space entry must survive the last release")
	}

	_, err = c.Pattern(patRef, false, matrix.Identity)
	if err != nil {
		t.Fatal(err)
	}
	c.ReleasePattern(patRef)
	if c.patterns.Live() != 1 {
		t.Error("pattern discarded too early")
	}
	c.ReleasePattern(patRef)
	if c.patterns.Has(pdf.IdentityOf(patRef)) {
		t.Error("pattern entry must be erased by the last release")
	}
}

func TestFactoryFailure(t *testing.T) {
	data := pdf.NewData()
	ref := data.Add(pdf.Dict{"Type": pdf.Name("Font")})

	boom := errors.New("boom")
	c := New(data, &Options{
		LoadFont: func(pdf.Getter, font.FileLoader, pdf.Object) (*font.Font, error) {
			return nil, boom
		},
	})

	_, err := c.Font(ref)
	var fe *FactoryError
	if !errors.As(err, &fe) || fe.Kind != KindFont || !errors.Is(err, boom) {
		t.Errorf("unexpected error %v", err)
	}
	if c.fonts.Len() != 0 {
		t.Error("failed load must not create an entry")
	}

	for _, obj := range []pdf.Object{nil, pdf.Integer(1)} {
		_, err := c.Font(obj)
		if !errors.Is(err, pdf.ErrSourceUnavailable) {
			t.Errorf("%v: got %v", obj, err)
		}
	}
}

func rgbProfile(version icc.Version) []byte {
	p := &icc.Profile{
		Version:    version,
		Class:      icc.DisplayDeviceProfile,
		ColorSpace: icc.RGBSpace,
		PCS:        icc.CIEXYZSpace,
	}
	return p.Encode()
}

func TestICCDeduplication(t *testing.T) {
	data := pdf.NewData()
	ref1 := data.AddStream(pdf.Dict{"N": pdf.Integer(3)}, rgbProfile(icc.Version2_1_0))
	ref2 := data.AddStream(pdf.Dict{"N": pdf.Integer(3)}, rgbProfile(icc.Version2_1_0))
	ref3 := data.AddStream(pdf.Dict{"N": pdf.Integer(3)}, rgbProfile(icc.Version4_4_0))

	calls := 0
	c := New(data, &Options{
		NewICCProfile: func(data []byte) (*color.ICCProfile, error) {
			calls++
			return color.NewICCProfile(data)
		},
	})

	p1, err := c.ICCProfile(ref1)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := c.ICCProfile(ref2)
	if err != nil {
		t.Fatal(err)
	}
	p3, err := c.ICCProfile(ref3)
	if err != nil {
		t.Fatal(err)
	}

	if p1 != p2 {
		t.Error("identical profiles are not shared")
	}
	if p1 == p3 {
		t.Error("different profiles are shared")
	}
	if calls != 2 {
		t.Errorf("%d profiles constructed, want 2", calls)
	}

	stats := c.Stats()[KindICCProfile]
	if d := cmp.Diff(TableStats{Entries: 3, Live: 2}, stats); d != "" {
		t.Error(d)
	}
	if count, _ := c.profiles.RefCount(pdf.IdentityOf(ref2)); count != 3 {
		t.Errorf("shared count = %d, want 3", count)
	}

	// An ICCBased color space using the second stream shares the profile.
	cs, err := c.ColorSpace(pdf.Array{pdf.Name("ICCBased"), ref2}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cs.(*color.SpaceICCBased).Profile != p1 {
		t.Error("color space does not use the shared profile")
	}

	c.ReleaseICCProfile(p1)
	c.ReleaseICCProfile(p2)
	c.ReleaseICCProfile(p3)
	c.Clear(false)
	if c.profiles.Live() != 1 {
		t.Errorf("%d live profiles, want 1", c.profiles.Live())
	}
}

func TestClearAndClose(t *testing.T) {
	data := pdf.NewData()
	fontRef := data.Add(font.StandardDict("Helvetica", nil))
	csRef := data.Add(pdf.Array{pdf.Name("CalRGB"), pdf.Dict{"WhitePoint": whitePoint}})
	imgRef := data.AddStream(pdf.Dict{
		"Subtype":          pdf.Name("Image"),
		"Width":            pdf.Integer(1),
		"Height":           pdf.Integer(1),
		"ColorSpace":       csRef,
		"BitsPerComponent": pdf.Integer(8),
	}, []byte{1, 2, 3})

	c := New(data, nil)
	if _, err := c.Font(fontRef); err != nil {
		t.Fatal(err)
	}
	img, err := c.Image(imgRef)
	if err != nil {
		t.Fatal(err)
	}
	if img.ColorSpace.Family() != color.FamilyCalRGB {
		t.Errorf("image color space %s", img.ColorSpace.Family())
	}

	// Everything is still in use.
	if n := c.Clear(false); n != 0 {
		t.Errorf("Clear(false) discarded %d objects", n)
	}

	// The font, the image and the image's color space.
	if n := c.Clear(true); n != 3 {
		t.Errorf("Clear(true) discarded %d objects", n)
	}
	stats := c.Stats()
	for kind, s := range stats {
		if s.Live != 0 {
			t.Errorf("%s: %d live objects", kind, s.Live)
		}
	}
	if stats[KindFont].Entries != 1 || stats[KindColorSpace].Entries != 1 {
		t.Errorf("bookkeeping entries lost: %v", stats)
	}

	// Late releases after a forced clear are harmless.
	c.ReleaseFont(fontRef)
	c.ReleaseImage(imgRef)

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	for kind, s := range c.Stats() {
		if s.Entries != 0 {
			t.Errorf("%s: %d entries after Close", kind, s.Entries)
		}
	}
	if _, err := c.Font(fontRef); err == nil {
		t.Error("closed cache returned a font")
	}
}

func TestStandardFont(t *testing.T) {
	data := pdf.NewData()
	c := New(data, nil)

	winAnsi := &font.Encoding{Base: font.WinAnsiEncoding}
	f1, ref1, err := c.StandardFont("Helvetica", winAnsi)
	if err != nil {
		t.Fatal(err)
	}
	f2, ref2, err := c.StandardFont("Helvetica", &font.Encoding{Base: font.WinAnsiEncoding})
	if err != nil {
		t.Fatal(err)
	}
	if f1 != f2 || ref1 != ref2 {
		t.Error("standard font not shared")
	}
	if count, _ := c.fonts.RefCount(pdf.IdentityOf(ref1)); count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	// Without an encoding, any font with the right name will do.
	numObjects := len(data.Refs())
	f3, ref3, err := c.StandardFont("Helvetica", nil)
	if err != nil {
		t.Fatal(err)
	}
	if f3 != f1 || ref3 != ref1 {
		t.Error("font without encoding not shared")
	}
	if n := len(data.Refs()); n != numObjects {
		t.Errorf("%d objects added to the document", n-numObjects)
	}
	if count, _ := c.fonts.RefCount(pdf.IdentityOf(ref1)); count != 4 {
		t.Errorf("count = %d, want 4", count)
	}

	// A font using the built-in encoding does not match an explicit encoding.
	_, courier, err := c.StandardFont("Courier", nil)
	if err != nil {
		t.Fatal(err)
	}
	_, courierWin, err := c.StandardFont("Courier", winAnsi)
	if err != nil {
		t.Fatal(err)
	}
	if courier == courierWin {
		t.Error("fonts with different encodings must not be shared")
	}

	numObjects = len(data.Refs())
	_, _, err = c.StandardFont("", nil)
	if !errors.Is(err, pdf.ErrSourceUnavailable) {
		t.Errorf("empty name: got %v", err)
	}
	if n := len(data.Refs()); n != numObjects {
		t.Error("font dictionary added for an empty name")
	}

	dict, err := pdf.GetDict(data, ref1)
	if err != nil {
		t.Fatal(err)
	}
	want := pdf.Dict{
		"Type":     pdf.Name("Font"),
		"Subtype":  pdf.Name("Type1"),
		"BaseFont": pdf.Name("Helvetica"),
		"Encoding": pdf.Name("WinAnsiEncoding"),
	}
	if d := cmp.Diff(want, dict); d != "" {
		t.Error(d)
	}

	// An embedded font with the same name is never used.
	fileRef := data.AddStream(nil, goregular.TTF)
	descRef := data.Add(pdf.Dict{"Type": pdf.Name("FontDescriptor"), "FontFile2": fileRef})
	embRef := data.Add(pdf.Dict{
		"Type":           pdf.Name("Font"),
		"Subtype":        pdf.Name("Type1"),
		"BaseFont":       pdf.Name("Times-Roman"),
		"FontDescriptor": descRef,
	})
	if _, err := c.Font(embRef); err != nil {
		t.Fatal(err)
	}
	_, ref4, err := c.StandardFont("Times-Roman", nil)
	if err != nil {
		t.Fatal(err)
	}
	if ref4 == embRef {
		t.Error("embedded font returned as standard font")
	}
}

func TestFontFileReleasedWithFont(t *testing.T) {
	data := pdf.NewData()
	fileRef := data.AddStream(pdf.Dict{"Length1": pdf.Integer(len(goregular.TTF))}, goregular.TTF)
	descRef := data.Add(pdf.Dict{"Type": pdf.Name("FontDescriptor"), "FontFile2": fileRef})
	fontRef := data.Add(pdf.Dict{
		"Type":           pdf.Name("Font"),
		"Subtype":        pdf.Name("TrueType"),
		"BaseFont":       pdf.Name("Go-Regular"),
		"FontDescriptor": descRef,
	})

	c := New(data, nil)
	f, err := c.Font(fontRef)
	if err != nil {
		t.Fatal(err)
	}
	if f.File == nil || len(f.File.Data) != len(goregular.TTF) {
		t.Fatal("font file not loaded")
	}

	// A second user of the font file.
	file, err := c.FontFile(fileRef)
	if err != nil {
		t.Fatal(err)
	}
	if file != f.File {
		t.Error("font file not shared")
	}

	c.ReleaseFont(fontRef)
	c.Clear(false)
	if c.fonts.Live() != 0 || c.fontFiles.Live() != 0 {
		t.Error("font file must be discarded together with the font")
	}
	c.ReleaseFontFile(fileRef, false)
}

func TestColorSpaceArrays(t *testing.T) {
	data := pdf.NewData()
	c := New(data, nil)

	_, err := c.ColorSpace(pdf.Array{}, nil)
	if !pdf.IsMalformed(err) {
		t.Errorf("empty array: got %v", err)
	}
	_, err = c.ColorSpace(nil, nil)
	if !errors.Is(err, pdf.ErrSourceUnavailable) {
		t.Errorf("null: got %v", err)
	}

	cs, err := c.ColorSpace(pdf.Array{pdf.Name("DeviceCMYK")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cs != color.SpaceDeviceCMYK {
		t.Errorf("got %v", cs)
	}
	if c.colorSpaces.Len() != 0 {
		t.Error("device color spaces must not be cached")
	}
}

func TestNamedColorSpace(t *testing.T) {
	data := pdf.NewData()
	csRef := data.Add(pdf.Array{
		pdf.Name("Indexed"), pdf.Name("DeviceRGB"), pdf.Integer(1),
		pdf.String("\x00\x00\x00\xff\xff\xff"),
	})
	resources := pdf.Dict{
		"ColorSpace": pdf.Dict{"CS0": csRef},
	}
	c := New(data, nil)

	cs1, err := c.ColorSpace(pdf.Name("CS0"), resources)
	if err != nil {
		t.Fatal(err)
	}
	cs2, err := c.ColorSpace(csRef, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cs1 != cs2 {
		t.Error("named color space not shared")
	}

	if copied, ok := c.CopiedColorSpace(csRef); !ok || copied != cs1 {
		t.Error("CopiedColorSpace failed")
	}
	if _, ok := c.CopiedColorSpace(data.Alloc()); ok {
		t.Error("CopiedColorSpace must not load color spaces")
	}

	_, err = c.ColorSpace(pdf.Name("CS1"), resources)
	if !errors.Is(err, pdf.ErrSourceUnavailable) {
		t.Errorf("missing name: got %v", err)
	}

	c.ReleaseColorSpace(pdf.Name("CS0"), resources)
	c.ReleaseColorSpace(csRef, nil)
	c.ReleaseColorSpace(csRef, nil)
	if count, _ := c.colorSpaces.RefCount(pdf.IdentityOf(csRef)); count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestDefaultColorSpace(t *testing.T) {
	data := pdf.NewData()
	calRGB := data.Add(pdf.Array{pdf.Name("CalRGB"), pdf.Dict{"WhitePoint": whitePoint}})
	calGray := data.Add(pdf.Array{pdf.Name("CalGray"), pdf.Dict{"WhitePoint": whitePoint}})
	resources := pdf.Dict{
		"ColorSpace": pdf.Dict{
			"DefaultRGB":  calRGB,
			"DefaultCMYK": calGray, // wrong number of components
		},
	}
	c := New(data, nil)

	cs, err := c.ColorSpace(pdf.Name("DeviceRGB"), resources)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cs.(*color.SpaceCalRGB); !ok {
		t.Errorf("DeviceRGB not replaced: %v", cs)
	}
	c.ReleaseColorSpace(pdf.Name("DeviceRGB"), resources)
	if count, _ := c.colorSpaces.RefCount(pdf.IdentityOf(calRGB)); count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	cs, err = c.ColorSpace(pdf.Name("DeviceCMYK"), resources)
	if err != nil {
		t.Fatal(err)
	}
	if cs != color.SpaceDeviceCMYK {
		t.Errorf("invalid default used: %v", cs)
	}
	c.ReleaseColorSpace(pdf.Name("DeviceCMYK"), resources)
	if count, _ := c.colorSpaces.RefCount(pdf.IdentityOf(calGray)); count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	cs, err = c.ColorSpace(pdf.Name("DeviceGray"), resources)
	if err != nil {
		t.Fatal(err)
	}
	if cs != color.SpaceDeviceGray {
		t.Errorf("got %v", cs)
	}
}

func TestDependentRelease(t *testing.T) {
	data := pdf.NewData()
	baseRef := data.Add(pdf.Array{pdf.Name("CalRGB"), pdf.Dict{"WhitePoint": whitePoint}})
	idxRef := data.Add(pdf.Array{
		pdf.Name("Indexed"), baseRef, pdf.Integer(0), pdf.String("\x00\x00\x00"),
	})
	c := New(data, nil)

	_, err := c.ColorSpace(idxRef, nil)
	if err != nil {
		t.Fatal(err)
	}
	if count, _ := c.colorSpaces.RefCount(pdf.IdentityOf(baseRef)); count != 2 {
		t.Errorf("base count = %d, want 2", count)
	}

	c.ReleaseColorSpace(idxRef, nil)
	c.Clear(false)
	if c.colorSpaces.Live() != 1 {
		t.Fatalf("%d live color spaces, want 1", c.colorSpaces.Live())
	}
	if count, _ := c.colorSpaces.RefCount(pdf.IdentityOf(baseRef)); count != 1 {
		t.Errorf("base count = %d, want 1", count)
	}
	c.Clear(false)
	if c.colorSpaces.Live() != 0 {
		t.Error("base color space not discarded")
	}
}

func TestSelfReference(t *testing.T) {
	data := pdf.NewData()
	ref := data.Alloc()
	data.Put(ref, pdf.Array{
		pdf.Name("Indexed"), ref, pdf.Integer(0), pdf.String("\x00"),
	})
	c := New(data, nil)

	_, err := c.ColorSpace(ref, nil)
	if err == nil {
		t.Error("self-referential color space accepted")
	}
	if c.colorSpaces.Live() != 0 {
		t.Error("partial color space left in the cache")
	}
}

func TestShadingPattern(t *testing.T) {
	data := pdf.NewData()
	csRef := data.Add(pdf.Array{pdf.Name("CalRGB"), pdf.Dict{"WhitePoint": whitePoint}})
	shRef := data.Add(pdf.Dict{
		"ShadingType": pdf.Integer(2),
		"ColorSpace":  csRef,
		"Coords":      pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(1), pdf.Integer(0)},
		"Function": pdf.Dict{
			"FunctionType": pdf.Integer(2),
			"Domain":       pdf.Array{pdf.Integer(0), pdf.Integer(1)},
			"N":            pdf.Integer(1),
		},
	})
	c := New(data, nil)

	M := matrix.Translate(10, 20)
	p, err := c.Pattern(shRef, true, M)
	if err != nil {
		t.Fatal(err)
	}
	sp := p.(*pattern.ShadingPattern)
	if sp.Matrix != M || !sp.IsShadingObject {
		t.Errorf("unexpected pattern %v", sp)
	}
	if c.colorSpaces.Live() != 1 {
		t.Error("shading color space not cached")
	}

	c.ReleasePattern(shRef)
	c.ReleasePattern(shRef)
	c.Clear(false)
	if c.colorSpaces.Live() != 0 {
		t.Error("color space of discarded pattern still held")
	}
}

func TestDirectPatternUnpinned(t *testing.T) {
	data := pdf.NewData()
	sh := pdf.Dict{
		"ShadingType": pdf.Integer(2),
		"ColorSpace":  pdf.Name("DeviceGray"),
		"Coords":      pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(1), pdf.Integer(0)},
		"Function": pdf.Dict{
			"FunctionType": pdf.Integer(2),
			"Domain":       pdf.Array{pdf.Integer(0), pdf.Integer(1)},
			"N":            pdf.Integer(1),
		},
	}
	id := pdf.IdentityOf(sh)
	c := New(data, nil)

	if _, err := c.Pattern(sh, true, matrix.Identity); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.pins[id]; !ok {
		t.Fatal("direct shading not pinned")
	}

	// Clear keeps the bookkeeping entry, and with it the pin.
	c.Clear(true)
	if _, ok := c.pins[id]; !ok || !c.patterns.Has(id) {
		t.Error("pin dropped while the entry is still present")
	}

	if _, err := c.Pattern(sh, true, matrix.Identity); err != nil {
		t.Fatal(err)
	}
	c.ReleasePattern(sh)
	c.ReleasePattern(sh)
	if c.patterns.Has(id) {
		t.Error("pattern entry not erased")
	}
	if _, ok := c.pins[id]; ok {
		t.Error("pin outlives the erased pattern entry")
	}
}
