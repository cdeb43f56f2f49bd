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

package pattern

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdfpage/graphics/color"
	"seehuhn.de/go/pdfpage/graphics/shading"
	"seehuhn.de/go/pdfpage/pdf"
)

func rect(x ...float64) pdf.Array {
	res := make(pdf.Array, len(x))
	for i, xi := range x {
		res[i] = pdf.Number(xi)
	}
	return res
}

var axial = pdf.Dict{
	"ShadingType": pdf.Integer(2),
	"ColorSpace":  pdf.Name("DeviceRGB"),
	"Coords":      rect(0, 0, 1, 0),
	"Function": pdf.Dict{
		"FunctionType": pdf.Integer(2),
		"Domain":       rect(0, 1),
		"N":            pdf.Integer(1),
	},
}

func TestTiling(t *testing.T) {
	data := pdf.NewData()
	ref := data.AddStream(pdf.Dict{
		"PatternType": pdf.Integer(1),
		"PaintType":   pdf.Integer(2),
		"TilingType":  pdf.Integer(1),
		"BBox":        rect(0, 0, 10, 10),
		"XStep":       pdf.Integer(10),
		"YStep":       pdf.Integer(12),
		"Matrix":      rect(1, 0, 0, 1, 5, 5),
		"Resources":   pdf.Dict{},
	}, []byte("0 0 5 5 re f"))

	parent := matrix.Matrix{2, 0, 0, 2, 0, 0}
	p, err := Load(data, color.Standalone{R: data}, ref, false, parent)
	if err != nil {
		t.Fatal(err)
	}
	tp, ok := p.(*Tiling)
	if !ok {
		t.Fatalf("got %T, want *Tiling", p)
	}
	if tp.PatternType() != 1 || tp.IsColored() {
		t.Errorf("wrong pattern kind: %d %t", tp.PatternType(), tp.IsColored())
	}
	if tp.XStep != 10 || tp.YStep != 12 {
		t.Errorf("step = (%g, %g)", tp.XStep, tp.YStep)
	}
	want := matrix.Matrix{2, 0, 0, 2, 10, 10}
	if d := cmp.Diff(want, tp.Matrix); d != "" {
		t.Error(d)
	}
}

func TestShadingPattern(t *testing.T) {
	data := pdf.NewData()
	ref := data.Add(pdf.Dict{
		"PatternType": pdf.Integer(2),
		"Shading":     axial,
	})

	p, err := Load(data, color.Standalone{R: data}, ref, false, matrix.Identity)
	if err != nil {
		t.Fatal(err)
	}
	sp, ok := p.(*ShadingPattern)
	if !ok {
		t.Fatalf("got %T, want *ShadingPattern", p)
	}
	if sp.Shading.Type != shading.Axial || sp.IsShadingObject {
		t.Errorf("unexpected shading pattern %v", sp)
	}
	if sp.Matrix != matrix.Identity {
		t.Errorf("Matrix = %v", sp.Matrix)
	}
}

func TestShadingOperand(t *testing.T) {
	data := pdf.NewData()
	ref := data.Add(axial)

	M := matrix.Matrix{1, 0, 0, 1, 3, 4}
	p, err := Load(data, color.Standalone{R: data}, ref, true, M)
	if err != nil {
		t.Fatal(err)
	}
	sp := p.(*ShadingPattern)
	if !sp.IsShadingObject || sp.Matrix != M {
		t.Errorf("unexpected shading pattern %v", sp)
	}
}

func TestLoadInvalid(t *testing.T) {
	data := pdf.NewData()
	res := color.Standalone{R: data}

	cases := []pdf.Object{
		pdf.Dict{"PatternType": pdf.Integer(3)},
		pdf.Dict{"PatternType": pdf.Integer(1)},
		pdf.Dict{"PatternType": pdf.Integer(2)},
		&pdf.Stream{Dict: pdf.Dict{
			"PatternType": pdf.Integer(1),
			"PaintType":   pdf.Integer(1),
			"TilingType":  pdf.Integer(1),
			"BBox":        rect(0, 0, 10, 10),
			"XStep":       pdf.Integer(0),
			"YStep":       pdf.Integer(1),
		}},
		pdf.Name("P0"),
	}
	for i, obj := range cases {
		p, err := Load(data, res, obj, false, matrix.Identity)
		if err == nil {
			t.Errorf("%d: expected an error, got %v", i, p)
		}
	}
}
