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

package pdf

import (
	"errors"
	"fmt"
	"math"

	"seehuhn.de/go/geom/matrix"
)

// Getter gives access to the indirect objects of a PDF document.
type Getter interface {
	Get(Reference) (Object, error)
}

// Document is a PDF document which can be extended with new indirect
// objects.
type Document interface {
	Getter

	// Alloc allocates a new object number for an indirect object.
	Alloc() Reference

	// Put stores obj as the indirect object ref.
	Put(ref Reference, obj Object) error
}

// Resolve resolves references to indirect objects.
//
// If obj is a [Reference], the function reads the corresponding object from
// the file and returns the result.  If obj is not a [Reference], it is
// returned unchanged.  The function recursively follows chains of references
// until it resolves to a non-reference object.
//
// If a reference loop is encountered, the function returns an error of type
// [MalformedFileError].
func Resolve(r Getter, obj Object) (Object, error) {
	origObj := obj

	count := 0
	for {
		ref, isReference := obj.(Reference)
		if !isReference {
			break
		}
		count++
		if count > 16 {
			return nil, &MalformedFileError{
				Err: errors.New("too many levels of indirection"),
				Loc: []string{"object " + origObj.(Reference).String()},
			}
		}

		var err error
		obj, err = r.Get(ref)
		if err != nil {
			return nil, err
		}
	}

	return obj, nil
}

func resolveAndCast[T Object](r Getter, obj Object) (x T, err error) {
	obj, err = Resolve(r, obj)
	if err != nil {
		return x, err
	}

	if obj == nil {
		return x, nil
	}

	var isCorrectType bool
	x, isCorrectType = obj.(T)
	if isCorrectType {
		return x, nil
	}

	return x, &MalformedFileError{
		Err: fmt.Errorf("expected %T but got %T", x, obj),
	}
}

// Helper functions for getting objects of a specific type.  Each of these
// functions calls Resolve on the object before attempting to convert it to the
// desired type.  If the object is `null`, a zero object is returned without
// error.  If the object is of the wrong type, an error is returned.
var (
	GetArray   = resolveAndCast[Array]
	GetBoolean = resolveAndCast[Bool]
	GetDict    = resolveAndCast[Dict]
	GetInteger = resolveAndCast[Integer]
	GetName    = resolveAndCast[Name]
	GetStream  = resolveAndCast[*Stream]
	GetString  = resolveAndCast[String]
)

// GetNumber is a helper function for reading numeric values from a PDF file.
// This resolves indirect references and makes sure the resulting object is an
// Integer or a Real.
func GetNumber(r Getter, obj Object) (Number, error) {
	obj, err := Resolve(r, obj)
	if err != nil {
		return 0, err
	}
	switch x := obj.(type) {
	case Integer:
		return Number(x), nil
	case Real:
		return Number(x), nil
	case Number:
		return x, nil
	default:
		return 0, &MalformedFileError{
			Err: fmt.Errorf("expected number but got %T", obj),
		}
	}
}

// GetFloatArray resolves obj and converts it to a slice of float64 values.
// If the object is null, nil is returned.
func GetFloatArray(r Getter, obj Object) ([]float64, error) {
	a, err := GetArray(r, obj)
	if err != nil || a == nil {
		return nil, err
	}

	res := make([]float64, len(a))
	for i, elem := range a {
		x, err := GetNumber(r, elem)
		if err != nil {
			return nil, err
		}
		res[i] = float64(x)
	}
	return res, nil
}

// Rectangle represents a PDF rectangle.
type Rectangle struct {
	LLx, LLy, URx, URy float64
}

// GetRectangle resolves references to indirect objects and makes sure the
// resulting object is a PDF rectangle object.
// If the object is null, nil is returned.
func GetRectangle(r Getter, obj Object) (*Rectangle, error) {
	a, err := GetFloatArray(r, obj)
	if err != nil || a == nil {
		return nil, err
	}
	if len(a) != 4 {
		return nil, Errorf("expected 4 rectangle coordinates, got %d", len(a))
	}
	rect := &Rectangle{
		LLx: math.Min(a[0], a[2]),
		LLy: math.Min(a[1], a[3]),
		URx: math.Max(a[0], a[2]),
		URy: math.Max(a[1], a[3]),
	}
	return rect, nil
}

// IsZero is true if the rectangle is the zero rectangle object.
func (rect Rectangle) IsZero() bool {
	return rect.LLx == 0 && rect.LLy == 0 && rect.URx == 0 && rect.URy == 0
}

// GetMatrix resolves obj and converts it to a transformation matrix.
// If the object is null, the identity matrix is returned.
func GetMatrix(r Getter, obj Object) (matrix.Matrix, error) {
	a, err := GetFloatArray(r, obj)
	if err != nil {
		return matrix.Identity, err
	}
	if a == nil {
		return matrix.Identity, nil
	}
	if len(a) != 6 {
		return matrix.Identity, Errorf("expected 6 matrix entries, got %d", len(a))
	}
	var M matrix.Matrix
	copy(M[:], a)
	return M, nil
}

// GetDictTyped resolves obj to a dictionary and checks the /Type entry,
// if present.  Streams are accepted and their dictionary is returned.
func GetDictTyped(r Getter, obj Object, tp Name) (Dict, error) {
	obj, err := Resolve(r, obj)
	if err != nil {
		return nil, err
	}
	var dict Dict
	switch obj := obj.(type) {
	case nil:
		return nil, nil
	case Dict:
		dict = obj
	case *Stream:
		dict = obj.Dict
	default:
		return nil, Errorf("expected /%s dictionary but got %T", tp, obj)
	}
	if have, ok := dict["Type"].(Name); ok && have != tp {
		return nil, Errorf("expected dictionary type %q, got %q", tp, have)
	}
	return dict, nil
}
