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

package shading

import (
	"fmt"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdfpage/graphics/color"
	"seehuhn.de/go/pdfpage/internal/bitstream"
	"seehuhn.de/go/pdfpage/pdf"
)

// MaxComponents is the maximal number of color components per vertex.
const MaxComponents = 8

// Vertex is a decoded mesh vertex.
type Vertex struct {
	X, Y float64

	// Color holds the color components, already mapped into the ranges
	// given by the /Decode array.  If the shading has a function, this is a
	// single parametric value.
	Color []float64
}

// meshLayout describes the binary layout of the vertex data for one shading
// type.
type meshLayout struct {
	hasFlag     bool // each vertex or patch starts with an edge flag
	alignVertex bool // each vertex starts at a byte boundary
	alignRow    bool // each row of vertices starts at a byte boundary
	alignPatch  bool // each patch starts at a byte boundary

	// number of control points and corner colors for a patch with flag 0,
	// and for a patch which continues the previous one
	points, pointsContinued int
	colors, colorsContinued int
}

var meshLayouts = map[Type]meshLayout{
	FreeForm: {hasFlag: true, alignVertex: true},
	Lattice:  {alignRow: true},
	Coons: {hasFlag: true, alignPatch: true,
		points: 12, pointsContinued: 8, colors: 4, colorsContinued: 2},
	Tensor: {hasFlag: true, alignPatch: true,
		points: 16, pointsContinued: 12, colors: 4, colorsContinued: 2},
}

// MeshStream decodes the vertex data of a mesh shading.
//
// A MeshStream reads from an in-memory copy of the decoded stream data.
// It is not safe for concurrent use.
type MeshStream struct {
	Type Type

	BitsPerCoordinate int
	BitsPerComponent  int
	BitsPerFlag       int

	// NumComponents is the number of color components per vertex.
	// This is 1 if the shading has a function.
	NumComponents int

	// VerticesPerRow is the row length for lattice-form meshes.
	VerticesPerRow int

	ColorSpace color.Space
	Function   pdf.Object

	xMin, xMax float64
	yMin, yMax float64
	cMin, cMax [MaxComponents]float64

	layout meshLayout
	bits   *bitstream.Reader

	release func()
}

// NewMeshStream loads the mesh shading obj and prepares its vertex data for
// decoding.  The color space of the shading is obtained through res, and is
// given back when the MeshStream is closed.
//
// If the shading dictionary is malformed, a [*pdf.MalformedFileError] is
// returned.  If the stream data is not available, the error wraps
// [pdf.ErrSourceUnavailable].
func NewMeshStream(r pdf.Getter, res color.Resolver, obj pdf.Object) (*MeshStream, error) {
	s, err := Load(r, res, obj)
	if err != nil {
		return nil, err
	}
	m, err := s.OpenMesh(r)
	if err != nil {
		s.Release(res)
		return nil, err
	}
	m.release = func() { s.Release(res) }
	return m, nil
}

// OpenMesh prepares the vertex data of a mesh shading for decoding.
// The returned MeshStream uses the color space of s.
func (s *Shading) OpenMesh(r pdf.Getter) (*MeshStream, error) {
	layout, ok := meshLayouts[s.Type]
	if !ok || s.Stream == nil {
		return nil, pdf.Errorf("%s shading has no vertex data", s.Type)
	}
	dict := s.Stream.Dict

	m := &MeshStream{
		Type:           s.Type,
		VerticesPerRow: s.VerticesPerRow,
		ColorSpace:     s.ColorSpace,
		Function:       s.Function,
		layout:         layout,
	}

	var err error
	m.BitsPerCoordinate, err = getBits(r, dict, "BitsPerCoordinate", 1, 2, 4, 8, 12, 16, 24, 32)
	if err != nil {
		return nil, err
	}
	m.BitsPerComponent, err = getBits(r, dict, "BitsPerComponent", 1, 2, 4, 8, 12, 16, 24, 32)
	if err != nil {
		return nil, err
	}
	if layout.hasFlag {
		m.BitsPerFlag, err = getBits(r, dict, "BitsPerFlag", 2, 4, 8)
		if err != nil {
			return nil, err
		}
	}

	if s.Function != nil {
		m.NumComponents = 1
	} else if s.ColorSpace != nil {
		m.NumComponents = s.ColorSpace.Channels()
	}
	if m.NumComponents < 1 || m.NumComponents > MaxComponents {
		return nil, pdf.Errorf("invalid number of color components %d", m.NumComponents)
	}

	decode, err := pdf.GetFloatArray(r, dict["Decode"])
	if err != nil {
		return nil, pdf.Wrap(err, "Decode")
	}
	if need := 4 + 2*m.NumComponents; len(decode) < need {
		return nil, pdf.Errorf("/Decode array too short: need %d entries, got %d",
			need, len(decode))
	}
	m.xMin, m.xMax = decode[0], decode[1]
	m.yMin, m.yMax = decode[2], decode[3]
	for i := range m.NumComponents {
		m.cMin[i] = decode[4+2*i]
		m.cMax[i] = decode[5+2*i]
	}

	data, err := pdf.ReadAll(r, s.Stream, 0)
	if err != nil {
		return nil, err
	}
	m.bits = bitstream.NewReader(data)

	return m, nil
}

func getBits(r pdf.Getter, dict pdf.Dict, key pdf.Name, allowed ...int) (int, error) {
	obj, ok := dict[key]
	if !ok {
		return 0, pdf.Errorf("missing /%s entry", key)
	}
	x, err := pdf.GetInteger(r, obj)
	if err != nil {
		return 0, pdf.Wrap(err, string(key))
	}
	for _, a := range allowed {
		if int(x) == a {
			return a, nil
		}
	}
	return 0, pdf.Errorf("invalid /%s %d", key, x)
}

// Close gives back the resources held by the MeshStream.
func (m *MeshStream) Close() {
	if m.release != nil {
		m.release()
		m.release = nil
	}
}

// ReadFlag reads an edge flag.
func (m *MeshStream) ReadFlag() uint32 {
	return m.bits.ReadBits(m.BitsPerFlag)
}

// ReadCoords reads a pair of coordinates and maps them into the ranges
// given by the /Decode array.
func (m *MeshStream) ReadCoords() (x, y float64) {
	rawX := m.bits.ReadBits(m.BitsPerCoordinate)
	rawY := m.bits.ReadBits(m.BitsPerCoordinate)
	x = rescale(rawX, m.BitsPerCoordinate, m.xMin, m.xMax)
	y = rescale(rawY, m.BitsPerCoordinate, m.yMin, m.yMax)
	return x, y
}

// ReadColor reads the color components of one vertex and maps them into the
// ranges given by the /Decode array.
func (m *MeshStream) ReadColor() []float64 {
	res := make([]float64, m.NumComponents)
	for i := range res {
		raw := m.bits.ReadBits(m.BitsPerComponent)
		res[i] = rescale(raw, m.BitsPerComponent, m.cMin[i], m.cMax[i])
	}
	return res
}

func (m *MeshStream) canRead(bits int) bool {
	return m.bits.BitsLeft() >= uint64(bits)
}

func (m *MeshStream) pointBits() int {
	return 2*m.BitsPerCoordinate + m.NumComponents*m.BitsPerComponent
}

// AtEnd reports whether all vertex data has been consumed.
func (m *MeshStream) AtEnd() bool {
	return m.bits.AtEnd()
}

// NextVertex reads the next vertex, preceded by its edge flag if the
// shading type has flags.  The vertex coordinates are transformed by M.
//
// If the remaining data is too short for a complete vertex, ok is false
// and the remaining bits are discarded.
func (m *MeshStream) NextVertex(M matrix.Matrix) (flag uint32, v Vertex, ok bool) {
	need := m.pointBits()
	if m.layout.hasFlag {
		need += m.BitsPerFlag
	}
	if !m.canRead(need) {
		return 0, Vertex{}, false
	}

	if m.layout.hasFlag {
		flag = m.ReadFlag()
	}
	v = m.readVertex(M)
	if m.layout.alignVertex {
		m.bits.ByteAlign()
	}
	return flag, v, true
}

// NextVertexRow reads a row of count vertices, without edge flags.
// The vertex coordinates are transformed by M.
//
// If the data runs out before the row is complete, the vertices read so far
// are returned and ok is false.
func (m *MeshStream) NextVertexRow(count int, M matrix.Matrix) (vertices []Vertex, ok bool) {
	need := m.pointBits()
	vertices = make([]Vertex, 0, count)
	for range count {
		if !m.canRead(need) {
			return vertices, false
		}
		vertices = append(vertices, m.readVertex(M))
	}
	if m.layout.alignRow {
		m.bits.ByteAlign()
	}
	return vertices, true
}

func (m *MeshStream) readVertex(M matrix.Matrix) Vertex {
	x, y := M.Apply(m.ReadCoords())
	return Vertex{
		X:     x,
		Y:     y,
		Color: m.ReadColor(),
	}
}

// rescale maps a raw value in the range [0, 2^bits-1] linearly onto the
// interval [lo, hi].  The end points of the range map to exactly lo and hi.
func rescale(raw uint32, bits int, lo, hi float64) float64 {
	if bits <= 0 || lo == hi {
		return lo
	}
	maxRaw := uint64(1)<<bits - 1
	switch uint64(raw) {
	case 0:
		return lo
	case maxRaw:
		return hi
	}
	return lo + float64(raw)*(hi-lo)/float64(maxRaw)
}

func (m *MeshStream) String() string {
	return fmt.Sprintf("%s mesh, %d/%d/%d bits, %d components",
		m.Type, m.BitsPerCoordinate, m.BitsPerComponent, m.BitsPerFlag, m.NumComponents)
}
