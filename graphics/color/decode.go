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
	"fmt"

	"seehuhn.de/go/pdfpage/pdf"
)

// Load reads a color space from a PDF file.
//
// The argument desc is a color space name or a color space array, typically
// a value in the ColorSpace sub-dictionary of a Resources dictionary.  Names
// other than the family names are not looked up; this is the job of the
// caller.  Sub-objects like base color spaces and ICC profiles are obtained
// through res.
//
// An empty array is not a valid color space.  A single-element array is
// treated like its only element.
func Load(r pdf.Getter, res Resolver, desc pdf.Object) (Space, error) {
	d := newDecoder(r, desc)
	if d.err != nil {
		return nil, d.err
	}

	var cs Space
	switch d.name {
	case FamilyDeviceGray, FamilyDeviceRGB, FamilyDeviceCMYK, "G", "RGB", "CMYK":
		cs = DeviceSpace(d.name)

	case "CalCMYK": // deprecated
		cs = SpaceDeviceCMYK

	case FamilyPattern:
		if len(d.args) == 0 {
			cs = SpacePatternColored
			break
		}
		base, err := res.ColorSpace(d.args[0], nil)
		if err != nil {
			d.SetError(pdf.Wrap(err, "base color space"))
			break
		}
		if base.Family() == FamilyPattern {
			res.ReleaseColorSpace(d.args[0])
			d.MarkAsInvalid()
			break
		}
		cs = &SpacePattern{Base: base, BaseObj: d.args[0]}

	case FamilyCalGray:
		whitePoint := d.getArrayN("WhitePoint", 3)
		blackPoint := d.getArrayN("BlackPoint", 3)
		gamma := d.getOptionalNumber("Gamma", 1.0)
		if d.err != nil {
			break
		}
		s, err := CalGray(whitePoint, blackPoint, gamma)
		if err != nil {
			d.SetError(&pdf.MalformedFileError{Err: err})
			break
		}
		cs = s

	case FamilyCalRGB:
		whitePoint := d.getArrayN("WhitePoint", 3)
		blackPoint := d.getArrayN("BlackPoint", 3)
		gamma := d.getArrayN("Gamma", 3)
		matrix := d.getArrayN("Matrix", 9)
		if d.err != nil {
			break
		}
		s, err := CalRGB(whitePoint, blackPoint, gamma, matrix)
		if err != nil {
			d.SetError(&pdf.MalformedFileError{Err: err})
			break
		}
		cs = s

	case FamilyLab:
		whitePoint := d.getArrayN("WhitePoint", 3)
		blackPoint := d.getArrayN("BlackPoint", 3)
		ranges := d.getArrayN("Range", 4)
		if d.err != nil {
			break
		}
		s, err := Lab(whitePoint, blackPoint, ranges)
		if err != nil {
			d.SetError(&pdf.MalformedFileError{Err: err})
			break
		}
		cs = s

	case FamilyICCBased:
		if len(d.args) == 0 || d.dict == nil {
			d.MarkAsInvalid()
			break
		}
		cs = loadICCBased(d, res)

	case FamilyIndexed, "I":
		cs = loadIndexed(d, res)

	case FamilySeparation:
		cs = loadSeparation(d, res)

	case FamilyDeviceN:
		cs = loadDeviceN(d, res)

	default:
		d.MarkAsInvalid()
	}

	if d.err != nil {
		return nil, d.err
	}
	return cs, nil
}

// decoder holds the parts of a color space description while it is
// being read.
type decoder struct {
	r   pdf.Getter
	obj pdf.Object

	name pdf.Name
	args []pdf.Object

	// dict is the dictionary argument of the CIE-based families,
	// or the stream dictionary for ICCBased.
	dict pdf.Dict

	err error
}

func newDecoder(r pdf.Getter, obj pdf.Object) *decoder {
	d := &decoder{
		r:   r,
		obj: obj,
	}

	x, err := pdf.Resolve(r, obj)
	if err != nil {
		d.err = err
		return d
	}
	d.obj = x

	// A single-element array stands for its element.
	if a, ok := x.(pdf.Array); ok && len(a) == 1 {
		x, err = pdf.Resolve(r, a[0])
		if err != nil {
			d.err = err
			return d
		}
		d.obj = x
	}

	switch x := x.(type) {
	case pdf.Name:
		d.name = x
	case pdf.Array:
		if len(x) == 0 {
			d.MarkAsInvalid()
			break
		}
		name, err := pdf.GetName(r, x[0])
		if err != nil {
			d.SetError(err)
			break
		}
		d.name = name
		d.args = x[1:]

		if len(d.args) == 0 {
			break
		}
		y, err := pdf.Resolve(r, d.args[0])
		if err != nil {
			d.SetError(err)
			break
		}
		switch y := y.(type) {
		case pdf.Dict:
			d.dict = y
		case *pdf.Stream:
			d.dict = y.Dict
		}

	case nil:
		d.err = fmt.Errorf("color space: %w", pdf.ErrSourceUnavailable)

	default:
		d.MarkAsInvalid()
	}

	return d
}

func (d *decoder) SetError(err error) {
	if err == nil {
		panic("invalid error")
	}

	switch {
	case d.err == nil:
		d.err = err
	case pdf.IsMalformed(d.err) && !pdf.IsMalformed(err):
		// read errors take priority over file format errors
		d.err = err
	default:
		// keep the original read error
	}
}

func (d *decoder) MarkAsInvalid() {
	var desc string
	switch d.obj.(type) {
	case *pdf.Stream:
		desc = "stream"
	default:
		desc = pdf.Format(d.obj)
	}
	if len(desc) > 40 {
		desc = desc[:32] + "..." + desc[len(desc)-5:]
	}

	d.SetError(&pdf.MalformedFileError{
		Err: fmt.Errorf("invalid color space: %s", desc),
	})
}

func (d *decoder) getArrayN(key pdf.Name, n int) []float64 {
	if d.err != nil {
		return nil
	}
	x, err := getArrayN(d.r, d.dict[key], n)
	if err != nil {
		d.SetError(pdf.Wrap(err, string(key)))
		return nil
	}
	return x
}

func (d *decoder) getOptionalNumber(key pdf.Name, defValue float64) float64 {
	if d.err != nil {
		return defValue
	}
	obj, ok := d.dict[key]
	if !ok {
		return defValue
	}
	x, err := pdf.GetNumber(d.r, obj)
	if err != nil {
		d.SetError(pdf.Wrap(err, string(key)))
		return defValue
	}
	return float64(x)
}
