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

package color

import (
	"errors"
	"fmt"

	"seehuhn.de/go/pdfpage/pdf"
)

var (
	// WhitePointD65 represents the D65 whitepoint.
	// The given values are CIE 1931 XYZ coordinates.
	WhitePointD65 = []float64{0.95047, 1.0, 1.08883}

	// WhitePointD50 represents the D50 whitepoint.
	// The given values are CIE 1931 XYZ coordinates.
	WhitePointD50 = []float64{0.964212, 1.0, 0.8251883}
)

// == CalGray ================================================================

// SpaceCalGray represents a CalGray color space.
type SpaceCalGray struct {
	WhitePoint []float64
	BlackPoint []float64
	Gamma      float64
}

// CalGray returns a new CalGray color space.
//
// WhitePoint is the diffuse white point in CIE 1931 XYZ coordinates.  This
// must be a slice of length 3, with positive entries, and Y=1.
//
// BlackPoint (optional) is the diffuse black point in the CIE 1931 XYZ
// coordinates.  If non-nil, this must be a slice of three non-negative
// numbers.  The default is [0 0 0].
//
// The gamma parameter is a positive number (usually greater than or equal to 1).
func CalGray(whitePoint, blackPoint []float64, gamma float64) (*SpaceCalGray, error) {
	if !isValidWhitePoint(whitePoint) {
		return nil, errors.New("CalGray: invalid white point")
	}
	if blackPoint == nil {
		blackPoint = []float64{0, 0, 0}
	} else if !isValidBlackPoint(blackPoint) {
		return nil, errors.New("CalGray: invalid black point")
	}
	if gamma <= 0 {
		return nil, fmt.Errorf("CalGray: expected gamma > 0, got %f", gamma)
	}
	return &SpaceCalGray{
		WhitePoint: whitePoint,
		BlackPoint: blackPoint,
		Gamma:      gamma,
	}, nil
}

// Family implements the [Space] interface.
func (s *SpaceCalGray) Family() pdf.Name {
	return FamilyCalGray
}

// Channels implements the [Space] interface.
func (s *SpaceCalGray) Channels() int {
	return 1
}

// == CalRGB =================================================================

// SpaceCalRGB represents a CalRGB color space.
type SpaceCalRGB struct {
	WhitePoint []float64
	BlackPoint []float64
	Gamma      []float64
	Matrix     []float64
}

// CalRGB returns a new CalRGB color space.
//
// The gamma values default to 1, and the matrix defaults to the identity
// matrix.
func CalRGB(whitePoint, blackPoint, gamma, matrix []float64) (*SpaceCalRGB, error) {
	if !isValidWhitePoint(whitePoint) {
		return nil, errors.New("CalRGB: invalid white point")
	}
	if blackPoint == nil {
		blackPoint = []float64{0, 0, 0}
	} else if !isValidBlackPoint(blackPoint) {
		return nil, errors.New("CalRGB: invalid black point")
	}
	if gamma == nil {
		gamma = []float64{1, 1, 1}
	} else if len(gamma) != 3 || gamma[0] <= 0 || gamma[1] <= 0 || gamma[2] <= 0 {
		return nil, errors.New("CalRGB: invalid gamma")
	}
	if matrix == nil {
		matrix = []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	} else if len(matrix) != 9 {
		return nil, errors.New("CalRGB: invalid matrix")
	}
	return &SpaceCalRGB{
		WhitePoint: whitePoint,
		BlackPoint: blackPoint,
		Gamma:      gamma,
		Matrix:     matrix,
	}, nil
}

// Family implements the [Space] interface.
func (s *SpaceCalRGB) Family() pdf.Name {
	return FamilyCalRGB
}

// Channels implements the [Space] interface.
func (s *SpaceCalRGB) Channels() int {
	return 3
}

// == Lab ====================================================================

// SpaceLab represents a CIE 1976 L*a*b* color space.
type SpaceLab struct {
	WhitePoint []float64
	BlackPoint []float64

	// Ranges gives the minimum and maximum values of the a* and b*
	// components, in the form [amin amax bmin bmax].
	Ranges []float64
}

// Lab returns a new CIE 1976 L*a*b* color space.
// The ranges default to [-100 100 -100 100].
func Lab(whitePoint, blackPoint, ranges []float64) (*SpaceLab, error) {
	if !isValidWhitePoint(whitePoint) {
		return nil, errors.New("Lab: invalid white point")
	}
	if blackPoint == nil {
		blackPoint = []float64{0, 0, 0}
	} else if !isValidBlackPoint(blackPoint) {
		return nil, errors.New("Lab: invalid black point")
	}
	if ranges == nil {
		ranges = []float64{-100, 100, -100, 100}
	} else if len(ranges) != 4 || ranges[0] > ranges[1] || ranges[2] > ranges[3] {
		return nil, errors.New("Lab: invalid ranges")
	}
	return &SpaceLab{
		WhitePoint: whitePoint,
		BlackPoint: blackPoint,
		Ranges:     ranges,
	}, nil
}

// Family implements the [Space] interface.
func (s *SpaceLab) Family() pdf.Name {
	return FamilyLab
}

// Channels implements the [Space] interface.
func (s *SpaceLab) Channels() int {
	return 3
}
