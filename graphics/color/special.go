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
	"seehuhn.de/go/pdfpage/pdf"
)

// == Pattern ================================================================

// SpacePattern represents a Pattern color space.
//
// For colored patterns, Base is nil.  For uncolored tiling patterns, Base is
// the underlying color space used to specify the pattern color.
type SpacePattern struct {
	Base    Space
	BaseObj pdf.Object
}

// Family implements the [Space] interface.
func (s *SpacePattern) Family() pdf.Name {
	return FamilyPattern
}

// Channels returns the number of components of the underlying color space,
// or 0 for colored patterns.
func (s *SpacePattern) Channels() int {
	if s.Base == nil {
		return 0
	}
	return s.Base.Channels()
}

// == Indexed ================================================================

// SpaceIndexed represents an indexed color space.
type SpaceIndexed struct {
	Base    Space
	BaseObj pdf.Object

	// HiVal is the maximum valid index value.
	HiVal int

	// Lookup contains (HiVal+1)*Base.Channels() bytes.
	Lookup []byte
}

// Family implements the [Space] interface.
func (s *SpaceIndexed) Family() pdf.Name {
	return FamilyIndexed
}

// Channels implements the [Space] interface.
func (s *SpaceIndexed) Channels() int {
	return 1
}

// Entry returns the base color components for the given index, scaled to
// the range [0, 1].  Out-of-range indices are clamped.
func (s *SpaceIndexed) Entry(idx int) []float64 {
	idx = max(0, min(idx, s.HiVal))
	n := s.Base.Channels()
	res := make([]float64, n)
	for i := range n {
		res[i] = float64(s.Lookup[idx*n+i]) / 255
	}
	return res
}

func loadIndexed(d *decoder, res Resolver) Space {
	if len(d.args) < 3 {
		d.MarkAsInvalid()
		return nil
	}

	hiVal, err := pdf.GetInteger(d.r, d.args[1])
	if err != nil {
		d.SetError(pdf.Wrap(err, "high value"))
		return nil
	}
	hiVal = max(0, min(hiVal, 255))

	lookupObj, err := pdf.Resolve(d.r, d.args[2])
	if err != nil {
		d.SetError(pdf.Wrap(err, "lookup table"))
		return nil
	}
	var lookup []byte
	switch obj := lookupObj.(type) {
	case pdf.String:
		lookup = []byte(obj)
	case *pdf.Stream:
		lookup, err = pdf.ReadAll(d.r, obj, 0)
		if err != nil {
			d.SetError(pdf.Wrap(err, "lookup table"))
			return nil
		}
	default:
		d.MarkAsInvalid()
		return nil
	}

	base, err := res.ColorSpace(d.args[0], nil)
	if err != nil {
		d.SetError(pdf.Wrap(err, "base color space"))
		return nil
	}
	switch base.Family() {
	case FamilyIndexed, FamilyPattern:
		res.ReleaseColorSpace(d.args[0])
		d.SetError(pdf.Errorf("invalid base color space %s for Indexed", base.Family()))
		return nil
	}

	need := (int(hiVal) + 1) * base.Channels()
	if len(lookup) < need {
		padded := make([]byte, need)
		copy(padded, lookup)
		lookup = padded
	}

	return &SpaceIndexed{
		Base:    base,
		BaseObj: d.args[0],
		HiVal:   int(hiVal),
		Lookup:  lookup[:need],
	}
}

// == Separation =============================================================

// SpaceSeparation represents a Separation color space.
type SpaceSeparation struct {
	Colorant     pdf.Name
	Alternate    Space
	AlternateObj pdf.Object

	// TintTransform is the function object which maps tint values
	// to the alternate color space.
	TintTransform pdf.Object
}

// Family implements the [Space] interface.
func (s *SpaceSeparation) Family() pdf.Name {
	return FamilySeparation
}

// Channels implements the [Space] interface.
func (s *SpaceSeparation) Channels() int {
	return 1
}

// == DeviceN ================================================================

// SpaceDeviceN represents a DeviceN color space.
type SpaceDeviceN struct {
	Colorants     []pdf.Name
	Alternate     Space
	AlternateObj  pdf.Object
	TintTransform pdf.Object
	Attributes    pdf.Dict
}

// Family implements the [Space] interface.
func (s *SpaceDeviceN) Family() pdf.Name {
	return FamilyDeviceN
}

// Channels implements the [Space] interface.
func (s *SpaceDeviceN) Channels() int {
	return len(s.Colorants)
}

func loadSeparation(d *decoder, res Resolver) Space {
	if len(d.args) < 3 {
		d.MarkAsInvalid()
		return nil
	}

	colorant, err := pdf.GetName(d.r, d.args[0])
	if err != nil {
		d.SetError(pdf.Wrap(err, "colorant name"))
		return nil
	}
	trfm, err := pdf.Resolve(d.r, d.args[2])
	if err != nil {
		d.SetError(pdf.Wrap(err, "tint transform"))
		return nil
	} else if trfm == nil {
		d.MarkAsInvalid()
		return nil
	}

	alternate, err := loadAlternate(d.args[1], res)
	if err != nil {
		d.SetError(err)
		return nil
	}

	return &SpaceSeparation{
		Colorant:      colorant,
		Alternate:     alternate,
		AlternateObj:  d.args[1],
		TintTransform: trfm,
	}
}

func loadDeviceN(d *decoder, res Resolver) Space {
	if len(d.args) < 3 {
		d.MarkAsInvalid()
		return nil
	}

	colorants, err := getNames(d.r, d.args[0])
	if err != nil {
		d.SetError(pdf.Wrap(err, "colorant names"))
		return nil
	}
	if len(colorants) == 0 || len(colorants) > MaxComponents {
		d.MarkAsInvalid()
		return nil
	}

	trfm, err := pdf.Resolve(d.r, d.args[2])
	if err != nil {
		d.SetError(pdf.Wrap(err, "tint transform"))
		return nil
	} else if trfm == nil {
		d.MarkAsInvalid()
		return nil
	}

	var attr pdf.Dict
	if len(d.args) >= 4 {
		attr, err = pdf.GetDict(d.r, d.args[3])
		if err != nil {
			d.SetError(pdf.Wrap(err, "attributes"))
			return nil
		}
	}

	alternate, err := loadAlternate(d.args[1], res)
	if err != nil {
		d.SetError(err)
		return nil
	}

	return &SpaceDeviceN{
		Colorants:     colorants,
		Alternate:     alternate,
		AlternateObj:  d.args[1],
		TintTransform: trfm,
		Attributes:    attr,
	}
}

func loadAlternate(obj pdf.Object, res Resolver) (Space, error) {
	alternate, err := res.ColorSpace(obj, nil)
	if err != nil {
		return nil, pdf.Wrap(err, "alternate color space")
	}
	if IsSpecial(alternate) {
		res.ReleaseColorSpace(obj)
		return nil, pdf.Errorf("invalid alternate color space %s", alternate.Family())
	}
	return alternate, nil
}

// Dependencies returns the PDF objects of the color spaces which s holds a
// reference to, as obtained through a [Resolver].
func Dependencies(s Space) []pdf.Object {
	switch s := s.(type) {
	case *SpacePattern:
		if s.BaseObj != nil {
			return []pdf.Object{s.BaseObj}
		}
	case *SpaceIndexed:
		return []pdf.Object{s.BaseObj}
	case *SpaceICCBased:
		if s.AlternateObj != nil {
			return []pdf.Object{s.AlternateObj}
		}
	case *SpaceSeparation:
		return []pdf.Object{s.AlternateObj}
	case *SpaceDeviceN:
		return []pdf.Object{s.AlternateObj}
	}
	return nil
}
