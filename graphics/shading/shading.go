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

// Package shading reads PDF shading dictionaries and decodes the vertex
// data of mesh-based shadings.
//
// The following shading types are supported:
//   - Type 1: Function-based shadings
//   - Type 2: Axial shadings
//   - Type 3: Radial shadings
//   - Type 4: Free-form Gouraud-shaded triangle meshes
//   - Type 5: Lattice-form Gouraud-shaded triangle meshes
//   - Type 6: Coons patch meshes
//   - Type 7: Tensor-product patch meshes
//
// For types 4 to 7, the vertex data is stored in the shading stream, packed
// at bit widths given in the shading dictionary.  Use [Shading.OpenMesh] or
// [NewMeshStream] to decode this data.
package shading

import (
	"fmt"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdfpage/graphics/color"
	"seehuhn.de/go/pdfpage/pdf"
)

// Type is the shading type, as given by the /ShadingType entry.
type Type int

// These are the shading types defined by PDF.
const (
	FunctionBased Type = 1
	Axial         Type = 2
	Radial        Type = 3
	FreeForm      Type = 4
	Lattice       Type = 5
	Coons         Type = 6
	Tensor        Type = 7
)

func (tp Type) String() string {
	switch tp {
	case FunctionBased:
		return "function-based"
	case Axial:
		return "axial"
	case Radial:
		return "radial"
	case FreeForm:
		return "free-form triangle mesh"
	case Lattice:
		return "lattice-form triangle mesh"
	case Coons:
		return "Coons patch mesh"
	case Tensor:
		return "tensor-product patch mesh"
	default:
		return fmt.Sprintf("shading type %d", int(tp))
	}
}

// IsMesh reports whether the vertex data for shadings of this type is
// stored in the shading stream.
func (tp Type) IsMesh() bool {
	return tp >= FreeForm && tp <= Tensor
}

// Shading represents a PDF shading dictionary.
type Shading struct {
	Type Type

	// ColorSpace is the color space in which color values are expressed.
	ColorSpace color.Space

	// ColorSpaceObj is the PDF object the color space was read from.
	ColorSpaceObj pdf.Object

	// Background (optional) gives the color for areas outside the shading,
	// when used in a shading pattern.
	Background []float64

	// BBox (optional) is the bounding box of the shading.
	BBox *pdf.Rectangle

	AntiAlias bool

	// Function is the shading function (a function dictionary, a stream, or
	// an array of functions).  This is required for types 1 to 3 and
	// optional for the mesh types.
	Function pdf.Object

	// Domain gives the parametric domain for types 1 to 3.
	Domain []float64

	// Coords gives the axis or circle coordinates for types 2 and 3.
	Coords []float64

	// Extend specifies whether types 2 and 3 extend beyond the
	// starting and ending points.
	Extend [2]bool

	// Matrix maps the domain of a type 1 shading into the shading space.
	Matrix matrix.Matrix

	// VerticesPerRow is the number of vertices in each row of a type 5
	// shading.
	VerticesPerRow int

	// Stream holds the vertex data for the mesh types.
	Stream *pdf.Stream
}

// Load reads a shading dictionary or stream.
//
// The color space of the shading is obtained through res.  When the shading
// is no longer needed, [Shading.Release] must be called to give the color
// space back.
func Load(r pdf.Getter, res color.Resolver, obj pdf.Object) (*Shading, error) {
	obj, err := pdf.Resolve(r, obj)
	if err != nil {
		return nil, err
	}

	var dict pdf.Dict
	var stm *pdf.Stream
	switch obj := obj.(type) {
	case pdf.Dict:
		dict = obj
	case *pdf.Stream:
		dict = obj.Dict
		stm = obj
	case nil:
		return nil, fmt.Errorf("shading: %w", pdf.ErrSourceUnavailable)
	default:
		return nil, pdf.Errorf("shading must be a dictionary or stream, not %T", obj)
	}

	st, err := pdf.GetInteger(r, dict["ShadingType"])
	if err != nil {
		return nil, pdf.Wrap(err, "ShadingType")
	}
	tp := Type(st)
	if tp < FunctionBased || tp > Tensor {
		return nil, pdf.Errorf("unsupported shading type %d", st)
	}
	if tp.IsMesh() && stm == nil {
		return nil, pdf.Errorf("%s shading must be a stream", tp)
	}

	s := &Shading{
		Type:   tp,
		Stream: stm,
		Matrix: matrix.Identity,
	}
	if err := s.readCommon(r, dict); err != nil {
		return nil, err
	}

	csObj := dict["ColorSpace"]
	if csObj == nil {
		return nil, pdf.Errorf("missing /ColorSpace entry")
	}
	cs, err := res.ColorSpace(csObj, nil)
	if err != nil {
		return nil, pdf.Wrap(err, "ColorSpace")
	}
	s.ColorSpace = cs
	s.ColorSpaceObj = csObj

	if cs.Family() == color.FamilyPattern || cs.Channels() == 0 {
		s.Release(res)
		return nil, pdf.Errorf("invalid color space %s for shading", cs.Family())
	}
	if len(s.Background) != cs.Channels() {
		s.Background = nil
	}
	return s, nil
}

func (s *Shading) readCommon(r pdf.Getter, dict pdf.Dict) error {
	var err error

	s.Background, err = pdf.GetFloatArray(r, dict["Background"])
	if err != nil {
		return pdf.Wrap(err, "Background")
	}
	s.BBox, err = pdf.GetRectangle(r, dict["BBox"])
	if err != nil {
		return pdf.Wrap(err, "BBox")
	}
	aa, err := pdf.GetBoolean(r, dict["AntiAlias"])
	if err != nil {
		return pdf.Wrap(err, "AntiAlias")
	}
	s.AntiAlias = bool(aa)

	s.Function, err = pdf.Resolve(r, dict["Function"])
	if err != nil {
		return pdf.Wrap(err, "Function")
	}
	if a, ok := s.Function.(pdf.Array); ok && len(a) == 0 {
		s.Function = nil
	}
	if s.Function == nil && !s.Type.IsMesh() {
		return pdf.Errorf("missing /Function entry")
	}

	switch s.Type {
	case FunctionBased:
		s.Domain, err = pdf.GetFloatArray(r, dict["Domain"])
		if err != nil {
			return pdf.Wrap(err, "Domain")
		}
		if s.Domain == nil {
			s.Domain = []float64{0, 1, 0, 1}
		} else if len(s.Domain) != 4 {
			return pdf.Errorf("invalid /Domain for %s shading", s.Type)
		}
		s.Matrix, err = pdf.GetMatrix(r, dict["Matrix"])
		if err != nil {
			return pdf.Wrap(err, "Matrix")
		}

	case Axial, Radial:
		s.Coords, err = pdf.GetFloatArray(r, dict["Coords"])
		if err != nil {
			return pdf.Wrap(err, "Coords")
		}
		want := 4
		if s.Type == Radial {
			want = 6
		}
		if len(s.Coords) != want {
			return pdf.Errorf("expected %d coordinates for %s shading, got %d",
				want, s.Type, len(s.Coords))
		}
		s.Domain, err = pdf.GetFloatArray(r, dict["Domain"])
		if err != nil {
			return pdf.Wrap(err, "Domain")
		}
		if s.Domain == nil {
			s.Domain = []float64{0, 1}
		} else if len(s.Domain) != 2 {
			return pdf.Errorf("invalid /Domain for %s shading", s.Type)
		}
		ext, err := pdf.GetArray(r, dict["Extend"])
		if err != nil {
			return pdf.Wrap(err, "Extend")
		}
		if len(ext) == 2 {
			for i := range 2 {
				b, err := pdf.GetBoolean(r, ext[i])
				if err != nil {
					return pdf.Wrap(err, "Extend")
				}
				s.Extend[i] = bool(b)
			}
		}

	case Lattice:
		n, err := pdf.GetInteger(r, dict["VerticesPerRow"])
		if err != nil {
			return pdf.Wrap(err, "VerticesPerRow")
		}
		if n < 2 {
			return pdf.Errorf("invalid /VerticesPerRow %d", n)
		}
		s.VerticesPerRow = int(n)
	}

	return nil
}

// Release gives back the color space obtained when the shading was loaded.
func (s *Shading) Release(res color.Resolver) {
	if s.ColorSpaceObj != nil {
		res.ReleaseColorSpace(s.ColorSpaceObj)
		s.ColorSpaceObj = nil
	}
}
