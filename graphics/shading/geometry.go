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
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
)

// Triangle is a Gouraud-shaded triangle.
type Triangle [3]Vertex

// Patch is a Coons patch or a tensor-product patch.
type Patch struct {
	// Flag is the edge flag the patch was stored with.
	Flag uint32

	// Points holds the control points, in the order in which they
	// appear in the stream.  Coons patches use the first 12 entries.
	Points [16]vec.Vec2

	// Colors holds the colors of the four corners.
	Colors [4][]float64
}

// edgeConnection describes which control points and corner colors a patch
// inherits from the previous patch.
type edgeConnection struct {
	points [4]int
	colors [2]int
}

// edgeConnections is indexed by the edge flag.
var edgeConnections = [4]edgeConnection{
	1: {[4]int{3, 4, 5, 6}, [2]int{1, 2}},
	2: {[4]int{6, 7, 8, 9}, [2]int{2, 3}},
	3: {[4]int{9, 10, 11, 0}, [2]int{3, 0}},
}

// ReadTriangles decodes all triangles of a free-form triangle mesh.
// The vertex coordinates are transformed by M.
//
// A vertex with flag 0 starts a new triangle, which is completed by the two
// following vertices.  A vertex with flag 1 forms a triangle with the last
// two vertices of the previous triangle, a vertex with flag 2 forms a
// triangle with the first and last vertex of the previous triangle.
func (m *MeshStream) ReadTriangles(M matrix.Matrix) []Triangle {
	var res []Triangle
	var tri Triangle
	var have bool
	for {
		flag, v, ok := m.NextVertex(M)
		if !ok {
			return res
		}

		switch {
		case flag == 0:
			tri[0] = v
			for i := 1; i < 3; i++ {
				_, v, ok := m.NextVertex(M)
				if !ok {
					return res
				}
				tri[i] = v
			}
		case !have:
			// continuation without a previous triangle
			continue
		case flag == 1:
			tri[0] = tri[1]
			tri[1] = tri[2]
			tri[2] = v
		default:
			tri[1] = tri[2]
			tri[2] = v
		}
		res = append(res, tri)
		have = true
	}
}

// ReadLattice decodes all triangles of a lattice-form triangle mesh.
// The vertex coordinates are transformed by M.
//
// Each pair of adjacent rows is split into triangles.  An incomplete final
// row is ignored.
func (m *MeshStream) ReadLattice(M matrix.Matrix) []Triangle {
	n := m.VerticesPerRow
	if n < 2 {
		return nil
	}

	var res []Triangle
	prev, ok := m.NextVertexRow(n, M)
	if !ok {
		return nil
	}
	for {
		row, ok := m.NextVertexRow(n, M)
		if !ok {
			return res
		}
		for i := 0; i+1 < n; i++ {
			res = append(res,
				Triangle{prev[i], prev[i+1], row[i]},
				Triangle{prev[i+1], row[i+1], row[i]})
		}
		prev = row
	}
}

// NextPatch reads the control points and colors of the next patch.
// Data inherited from the previous patch, as indicated by the edge flag,
// is not filled in.  The return value np is the number of points read.
//
// If the remaining data is too short for a complete patch, ok is false.
func (m *MeshStream) NextPatch(M matrix.Matrix) (p Patch, np int, ok bool) {
	if !m.canRead(m.BitsPerFlag) {
		return Patch{}, 0, false
	}
	flag := m.ReadFlag()

	np, nc := m.layout.points, m.layout.colors
	if flag != 0 {
		np, nc = m.layout.pointsContinued, m.layout.colorsContinued
	}
	need := np*2*m.BitsPerCoordinate + nc*m.NumComponents*m.BitsPerComponent
	if np == 0 || !m.canRead(need) {
		return Patch{}, 0, false
	}

	p.Flag = flag
	first := 0
	if flag != 0 {
		first = 4
	}
	for i := range np {
		x, y := M.Apply(m.ReadCoords())
		p.Points[first+i] = vec.Vec2{X: x, Y: y}
	}
	firstColor := 4 - nc
	for i := range nc {
		p.Colors[firstColor+i] = m.ReadColor()
	}
	if m.layout.alignPatch {
		m.bits.ByteAlign()
	}
	return p, np, true
}

// ReadPatches decodes all patches of a Coons or tensor-product patch mesh.
// The control point coordinates are transformed by M.
//
// Patches with a non-zero edge flag inherit one edge and two corner colors
// from the previous patch.  Such patches are skipped if there is no
// previous patch, or if the flag is invalid.
func (m *MeshStream) ReadPatches(M matrix.Matrix) []Patch {
	var res []Patch
	var prev *Patch
	for {
		p, _, ok := m.NextPatch(M)
		if !ok {
			return res
		}
		if p.Flag != 0 {
			if prev == nil || p.Flag >= uint32(len(edgeConnections)) {
				continue
			}
			conn := edgeConnections[p.Flag]
			for i, idx := range conn.points {
				p.Points[i] = prev.Points[idx]
			}
			for i, idx := range conn.colors {
				p.Colors[i] = prev.Colors[idx]
			}
		}
		res = append(res, p)
		prev = &res[len(res)-1]
	}
}
