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

// Package color implements PDF color spaces.
//
// Color spaces are read from PDF objects using [Load].  Color spaces which
// refer to other color spaces or to ICC profiles obtain these through a
// [Resolver], so that a document-wide cache can share the sub-objects
// between several color spaces.
package color

import "seehuhn.de/go/pdfpage/pdf"

// Space represents a PDF color space.
type Space interface {
	// Family returns the family of the color space.
	Family() pdf.Name

	// Channels returns the number of color components used to specify
	// a color in this space.
	Channels() int
}

// Resolver gives access to shared sub-objects of color spaces.
type Resolver interface {
	// ColorSpace returns the color space described by obj.
	// If resources is not nil, names are looked up in its
	// /ColorSpace sub-dictionary.
	ColorSpace(obj pdf.Object, resources pdf.Dict) (Space, error)

	// ICCProfile returns the ICC profile stored in the stream obj.
	ICCProfile(obj pdf.Object) (*ICCProfile, error)

	// ReleaseColorSpace gives back a color space obtained from ColorSpace.
	ReleaseColorSpace(obj pdf.Object)

	// ReleaseICCProfile gives back a profile obtained from ICCProfile.
	ReleaseICCProfile(p *ICCProfile)
}

// Standalone is a [Resolver] which does not share any objects.
// Every request loads a new object, and releases are ignored.
type Standalone struct {
	R pdf.Getter
}

// ColorSpace implements the [Resolver] interface.
func (s Standalone) ColorSpace(obj pdf.Object, resources pdf.Dict) (Space, error) {
	if name, isName := obj.(pdf.Name); isName && resources != nil {
		if dev := DeviceSpace(name); dev == nil && name != FamilyPattern {
			csDict, err := pdf.GetDict(s.R, resources["ColorSpace"])
			if err != nil {
				return nil, err
			}
			obj = csDict[name]
		}
	}
	return Load(s.R, s, obj)
}

// ICCProfile implements the [Resolver] interface.
func (s Standalone) ICCProfile(obj pdf.Object) (*ICCProfile, error) {
	data, err := pdf.ReadAll(s.R, obj, 0)
	if err != nil {
		return nil, err
	}
	return NewICCProfile(data)
}

// ReleaseColorSpace implements the [Resolver] interface.
func (s Standalone) ReleaseColorSpace(pdf.Object) {}

// ReleaseICCProfile implements the [Resolver] interface.
func (s Standalone) ReleaseICCProfile(*ICCProfile) {}

// Color space families supported by PDF.
const (
	FamilyDeviceGray pdf.Name = "DeviceGray"
	FamilyDeviceRGB  pdf.Name = "DeviceRGB"
	FamilyDeviceCMYK pdf.Name = "DeviceCMYK"
	FamilyCalGray    pdf.Name = "CalGray"
	FamilyCalRGB     pdf.Name = "CalRGB"
	FamilyLab        pdf.Name = "Lab"
	FamilyICCBased   pdf.Name = "ICCBased"
	FamilyPattern    pdf.Name = "Pattern"
	FamilyIndexed    pdf.Name = "Indexed"
	FamilySeparation pdf.Name = "Separation"
	FamilyDeviceN    pdf.Name = "DeviceN"
)

// MaxComponents is the largest number of color components supported
// for any color space.
const MaxComponents = 32

// Singleton objects for the color spaces which do not require any parameters.
var (
	SpaceDeviceGray     Space = spaceDevice{family: FamilyDeviceGray, n: 1}
	SpaceDeviceRGB      Space = spaceDevice{family: FamilyDeviceRGB, n: 3}
	SpaceDeviceCMYK     Space = spaceDevice{family: FamilyDeviceCMYK, n: 4}
	SpacePatternColored Space = &SpacePattern{}
)

type spaceDevice struct {
	family pdf.Name
	n      int
}

func (s spaceDevice) Family() pdf.Name {
	return s.family
}

func (s spaceDevice) Channels() int {
	return s.n
}

// IsDevice reports whether s is one of the three device color spaces.
func IsDevice(s Space) bool {
	_, ok := s.(spaceDevice)
	return ok
}

// IsSpecial reports whether the color space is a special color space.
// The special color spaces are Pattern, Indexed, Separation, and DeviceN.
func IsSpecial(s Space) bool {
	switch s.Family() {
	case FamilyPattern, FamilyIndexed, FamilySeparation, FamilyDeviceN:
		return true
	default:
		return false
	}
}

// DeviceSpace returns the device color space with the given family name.
// The abbreviated names used in inline images are also recognized.
// If name does not denote a device color space, nil is returned.
func DeviceSpace(name pdf.Name) Space {
	switch name {
	case FamilyDeviceGray, "G":
		return SpaceDeviceGray
	case FamilyDeviceRGB, "RGB":
		return SpaceDeviceRGB
	case FamilyDeviceCMYK, "CMYK":
		return SpaceDeviceCMYK
	default:
		return nil
	}
}

// DefaultKey returns the name of the resource-dictionary entry which can
// override the device color space s, for example "DefaultRGB" for DeviceRGB.
// For other color spaces the empty name is returned.
func DefaultKey(s Space) pdf.Name {
	if !IsDevice(s) {
		return ""
	}
	switch s.Family() {
	case FamilyDeviceGray:
		return "DefaultGray"
	case FamilyDeviceRGB:
		return "DefaultRGB"
	case FamilyDeviceCMYK:
		return "DefaultCMYK"
	}
	return ""
}
