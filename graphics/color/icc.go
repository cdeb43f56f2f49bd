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
	"bytes"
	"errors"
	"fmt"

	"seehuhn.de/go/icc"
	"seehuhn.de/go/pdfpage/pdf"
)

// ICCProfile is a decoded ICC color profile.
//
// Profiles are immutable once created and can be shared between several
// ICCBased color spaces.
type ICCProfile struct {
	// Data is the raw profile data.
	Data []byte

	// ColorSpace is the data color space of the profile.
	ColorSpace icc.ColorSpace

	// N is the number of color components.
	N int

	// Ranges gives the minimum and maximum value for each component.
	Ranges []float64

	Version icc.Version
	Class   icc.ProfileClass
}

// NewICCProfile decodes an ICC profile.
func NewICCProfile(data []byte) (*ICCProfile, error) {
	if len(data) == 0 {
		return nil, errors.New("ICC profile: missing data")
	}

	// Decode clears the profile ID fields of its argument.
	p, err := icc.Decode(bytes.Clone(data))
	if err != nil {
		return nil, &pdf.MalformedFileError{Err: err}
	}

	n := p.ColorSpace.NumComponents()
	if n != 1 && n != 3 && n != 4 {
		return nil, pdf.Errorf("ICC profile: invalid number of components %d", n)
	}

	var ranges []float64
	switch p.ColorSpace {
	case icc.GraySpace:
		ranges = []float64{0, 1}
	case icc.RGBSpace:
		ranges = []float64{0, 1, 0, 1, 0, 1}
	case icc.CMYKSpace:
		ranges = []float64{0, 1, 0, 1, 0, 1, 0, 1}
	case icc.CIELabSpace:
		ranges = []float64{0, 100, -128, 127, -128, 127}
	default:
		return nil, pdf.Errorf("ICC profile: unsupported color space %v", p.ColorSpace)
	}

	return &ICCProfile{
		Data:       data,
		ColorSpace: p.ColorSpace,
		N:          n,
		Ranges:     ranges,
		Version:    p.Version,
		Class:      p.Class,
	}, nil
}

// SpaceICCBased represents an ICC-based color space.
type SpaceICCBased struct {
	// Profile is the ICC profile.  This is nil if the profile could not be
	// used, in which case the alternate space applies.
	Profile *ICCProfile

	// ProfileObj is the stream the profile was read from.
	ProfileObj pdf.Object

	// N is the number of color components.
	N int

	// Ranges gives the minimum and maximum value for each component.
	Ranges []float64

	// Alternate is the color space to use if the profile cannot be used.
	Alternate Space

	// AlternateObj is the PDF object Alternate was read from,
	// or nil if the alternate space was derived from N.
	AlternateObj pdf.Object
}

// Family implements the [Space] interface.
func (s *SpaceICCBased) Family() pdf.Name {
	return FamilyICCBased
}

// Channels implements the [Space] interface.
func (s *SpaceICCBased) Channels() int {
	return s.N
}

func loadICCBased(d *decoder, res Resolver) Space {
	n := 0
	if obj, ok := d.dict["N"]; ok {
		nn, err := pdf.GetInteger(d.r, obj)
		if err != nil {
			d.SetError(pdf.Wrap(err, "N"))
			return nil
		}
		n = int(nn)
	}

	profile, err := res.ICCProfile(d.args[0])
	if err != nil {
		if !pdf.IsMalformed(err) && !errors.Is(err, pdf.ErrSourceUnavailable) {
			d.SetError(pdf.Wrap(err, "ICC profile"))
			return nil
		}
		profile = nil
	} else if n != 0 && profile.N != n {
		// The profile contradicts /N, use the alternate space instead.
		res.ReleaseICCProfile(profile)
		profile = nil
	}

	s := &SpaceICCBased{
		Profile:    profile,
		ProfileObj: d.args[0],
	}
	if profile != nil {
		n = profile.N
		s.Ranges = profile.Ranges
	}

	fail := func(err error) Space {
		if s.Profile != nil {
			res.ReleaseICCProfile(s.Profile)
		}
		if s.AlternateObj != nil {
			res.ReleaseColorSpace(s.AlternateObj)
		}
		d.SetError(err)
		return nil
	}

	if altObj, ok := d.dict["Alternate"]; ok {
		alt, err := res.ColorSpace(altObj, nil)
		if err != nil {
			return fail(pdf.Wrap(err, "alternate color space"))
		}
		s.Alternate = alt
		s.AlternateObj = altObj
		if n == 0 {
			n = alt.Channels()
		}
	}
	if s.Alternate == nil {
		switch n {
		case 1:
			s.Alternate = SpaceDeviceGray
		case 3:
			s.Alternate = SpaceDeviceRGB
		case 4:
			s.Alternate = SpaceDeviceCMYK
		}
	}
	if n < 1 || n > MaxComponents || s.Alternate == nil || s.Alternate.Channels() != n {
		return fail(pdf.Errorf("ICCBased: cannot determine the number of components"))
	}

	s.N = n
	if s.Ranges == nil {
		if rr, err := getArrayN(d.r, d.dict["Range"], 2*n); err == nil && rr != nil {
			s.Ranges = rr
		} else {
			s.Ranges = make([]float64, 2*n)
			for i := range n {
				s.Ranges[2*i+1] = 1
			}
		}
	}
	return s
}

func (p *ICCProfile) String() string {
	return fmt.Sprintf("ICC profile (%v, %d bytes)", p.ColorSpace, len(p.Data))
}
