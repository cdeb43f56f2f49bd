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

// Package pattern reads PDF tiling and shading patterns.
package pattern

import (
	"fmt"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdfpage/graphics/color"
	"seehuhn.de/go/pdfpage/graphics/shading"
	"seehuhn.de/go/pdfpage/pdf"
)

// Pattern is a tiling pattern or a shading pattern.
type Pattern interface {
	// PatternType returns 1 for tiling patterns and 2 for shading patterns.
	PatternType() int
}

// Tiling represents a tiling pattern.
type Tiling struct {
	// PaintType is 1 for colored and 2 for uncolored patterns.
	PaintType int

	// TilingType controls the adjustment of tile spacing to the device
	// pixel grid.
	TilingType int

	// BBox is the pattern cell's bounding box.
	BBox *pdf.Rectangle

	XStep, YStep float64

	// Matrix maps pattern space to the default coordinate space of the
	// pattern's parent content stream.
	Matrix matrix.Matrix

	// Resources is the resource dictionary of the pattern cell.
	Resources pdf.Dict

	// Content is the content stream of the pattern cell.
	Content *pdf.Stream
}

// PatternType implements the [Pattern] interface.
func (p *Tiling) PatternType() int {
	return 1
}

// IsColored reports whether the pattern specifies its own colors.
func (p *Tiling) IsColored() bool {
	return p.PaintType == 1
}

// ShadingPattern represents a shading pattern, or a shading painted
// directly with the sh operator.
type ShadingPattern struct {
	Shading *shading.Shading

	// Matrix maps pattern space to the default coordinate space of the
	// pattern's parent content stream.
	Matrix matrix.Matrix

	// ExtGState (optional) is a graphics state parameter dictionary.
	ExtGState pdf.Dict

	// IsShadingObject is true if the pattern was created from a shading
	// dictionary, rather than from a pattern dictionary.
	IsShadingObject bool
}

// PatternType implements the [Pattern] interface.
func (p *ShadingPattern) PatternType() int {
	return 2
}

// Load reads a pattern.
//
// If isShading is set, obj is a shading dictionary (as used with the sh
// operator) rather than a pattern dictionary.  The pattern matrix is
// combined with parent, the matrix of the parent content stream.
//
// Color spaces are obtained through res.  [Release] must be called when the
// pattern is no longer needed.
func Load(r pdf.Getter, res color.Resolver, obj pdf.Object, isShading bool, parent matrix.Matrix) (Pattern, error) {
	if isShading {
		sh, err := shading.Load(r, res, obj)
		if err != nil {
			return nil, err
		}
		return &ShadingPattern{
			Shading:         sh,
			Matrix:          parent,
			IsShadingObject: true,
		}, nil
	}

	resolved, err := pdf.Resolve(r, obj)
	if err != nil {
		return nil, err
	}

	var dict pdf.Dict
	switch resolved := resolved.(type) {
	case pdf.Dict:
		dict = resolved
	case *pdf.Stream:
		dict = resolved.Dict
	case nil:
		return nil, fmt.Errorf("pattern: %w", pdf.ErrSourceUnavailable)
	default:
		return nil, pdf.Errorf("pattern must be dictionary or stream, not %T", resolved)
	}

	patternType, err := pdf.GetInteger(r, dict["PatternType"])
	if err != nil {
		return nil, pdf.Wrap(err, "PatternType")
	}
	M, err := pdf.GetMatrix(r, dict["Matrix"])
	if err != nil {
		return nil, pdf.Wrap(err, "Matrix")
	}
	M = M.Mul(parent)

	switch patternType {
	case 1:
		stm, ok := resolved.(*pdf.Stream)
		if !ok {
			return nil, pdf.Errorf("tiling pattern must be a stream")
		}
		return loadTiling(r, stm, M)

	case 2:
		sh, err := shading.Load(r, res, dict["Shading"])
		if err != nil {
			return nil, pdf.Wrap(err, "Shading")
		}
		gs, err := pdf.GetDict(r, dict["ExtGState"])
		if err != nil {
			sh.Release(res)
			return nil, pdf.Wrap(err, "ExtGState")
		}
		return &ShadingPattern{
			Shading:   sh,
			Matrix:    M,
			ExtGState: gs,
		}, nil

	default:
		return nil, pdf.Errorf("unsupported pattern type %d", patternType)
	}
}

func loadTiling(r pdf.Getter, stm *pdf.Stream, M matrix.Matrix) (*Tiling, error) {
	dict := stm.Dict

	paintType, err := pdf.GetInteger(r, dict["PaintType"])
	if err != nil {
		return nil, pdf.Wrap(err, "PaintType")
	} else if paintType != 1 && paintType != 2 {
		return nil, pdf.Errorf("invalid PaintType %d", paintType)
	}

	tilingType, err := pdf.GetInteger(r, dict["TilingType"])
	if err != nil {
		return nil, pdf.Wrap(err, "TilingType")
	} else if tilingType < 1 || tilingType > 3 {
		return nil, pdf.Errorf("invalid TilingType %d", tilingType)
	}

	bbox, err := pdf.GetRectangle(r, dict["BBox"])
	if err != nil {
		return nil, pdf.Wrap(err, "BBox")
	} else if bbox == nil || bbox.IsZero() {
		return nil, pdf.Errorf("missing /BBox in tiling pattern")
	}

	xStep, err := pdf.GetNumber(r, dict["XStep"])
	if err != nil {
		return nil, pdf.Wrap(err, "XStep")
	}
	yStep, err := pdf.GetNumber(r, dict["YStep"])
	if err != nil {
		return nil, pdf.Wrap(err, "YStep")
	}
	if xStep == 0 || yStep == 0 {
		return nil, pdf.Errorf("invalid pattern step (%g, %g)", xStep, yStep)
	}

	resources, err := pdf.GetDict(r, dict["Resources"])
	if err != nil {
		return nil, pdf.Wrap(err, "Resources")
	}

	return &Tiling{
		PaintType:  int(paintType),
		TilingType: int(tilingType),
		BBox:       bbox,
		XStep:      float64(xStep),
		YStep:      float64(yStep),
		Matrix:     M,
		Resources:  resources,
		Content:    stm,
	}, nil
}

// Release gives back the color space held by a shading pattern.
// For tiling patterns, this does nothing.
func Release(p Pattern, res color.Resolver) {
	if sp, ok := p.(*ShadingPattern); ok && sp.Shading != nil {
		sp.Shading.Release(res)
	}
}
