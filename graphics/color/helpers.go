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
	"math"

	"seehuhn.de/go/pdfpage/pdf"
)

func getNames(r pdf.Getter, obj pdf.Object) ([]pdf.Name, error) {
	a, err := pdf.GetArray(r, obj)
	if err != nil {
		return nil, err
	}
	res := make([]pdf.Name, len(a))
	for i, obj := range a {
		name, err := pdf.GetName(r, obj)
		if err != nil {
			return nil, err
		}
		res[i] = name
	}
	return res, nil
}

// getArrayN reads an array of n numbers.
// If obj is null, nil is returned.
func getArrayN(r pdf.Getter, obj pdf.Object, n int) ([]float64, error) {
	x, err := pdf.GetFloatArray(r, obj)
	if err != nil || x == nil {
		return nil, err
	}
	if len(x) != n {
		return nil, pdf.Errorf("expected %d numbers, got %d", n, len(x))
	}
	return x, nil
}

func isValidWhitePoint(x []float64) bool {
	return len(x) == 3 &&
		x[0] > 0 &&
		math.Abs(x[1]-1) <= ε &&
		x[2] > 0
}

func isValidBlackPoint(x []float64) bool {
	return len(x) == 3 && x[0] >= 0 && x[1] >= 0 && x[2] >= 0
}

const ε = 1e-6
