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

// Package predict undoes the TIFF and PNG predictors which can be applied
// to the data of FlateDecode streams.
package predict

import (
	"errors"
	"fmt"
)

const maxColumns = 1 << 20

// Params holds the predictor entries of a /DecodeParms dictionary.
type Params struct {
	// Predictor selects the algorithm: 1 for no prediction, 2 for TIFF
	// horizontal differencing, and 10 to 15 for the PNG filters.
	Predictor int

	// Colors is the number of components per pixel.
	Colors int

	// BitsPerComponent is one of 1, 2, 4, 8 or 16.
	BitsPerComponent int

	// Columns is the number of pixels per row.
	Columns int
}

// DefaultParams returns the values which apply when the corresponding
// /DecodeParms entries are missing.
func DefaultParams() *Params {
	return &Params{
		Predictor:        1,
		Colors:           1,
		BitsPerComponent: 8,
		Columns:          1,
	}
}

// Validate checks that the parameters describe a supported predictor.
func (p *Params) Validate() error {
	switch {
	case p.Predictor == 1:
		return nil
	case p.Predictor == 2:
		if p.Colors < 1 || p.Colors > 60 {
			return fmt.Errorf("predictor: invalid number of colors %d", p.Colors)
		}
	case p.Predictor >= 10 && p.Predictor <= 15:
		if p.Colors < 1 || p.Colors > 256 {
			return fmt.Errorf("predictor: invalid number of colors %d", p.Colors)
		}
	default:
		return fmt.Errorf("predictor: unsupported predictor %d", p.Predictor)
	}

	switch p.BitsPerComponent {
	case 1, 2, 4, 8, 16:
	default:
		return fmt.Errorf("predictor: invalid BitsPerComponent %d", p.BitsPerComponent)
	}

	maxCols := min(maxColumns, (1<<31-1)/p.bitsPerPixel())
	if p.Columns < 1 || p.Columns > maxCols {
		return errors.New("predictor: invalid number of columns")
	}
	return nil
}

func (p *Params) bitsPerPixel() int {
	return p.Colors * p.BitsPerComponent
}

func (p *Params) rowBytes() int {
	return (p.bitsPerPixel()*p.Columns + 7) / 8
}

// pixelBytes is the distance used by the PNG filters to find the
// corresponding byte of the previous pixel.
func (p *Params) pixelBytes() int {
	return (p.bitsPerPixel() + 7) / 8
}
