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

package pdfpage

import (
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdfpage/font"
	"seehuhn.de/go/pdfpage/graphics/color"
	"seehuhn.de/go/pdfpage/graphics/image"
	"seehuhn.de/go/pdfpage/graphics/pattern"
	"seehuhn.de/go/pdfpage/pdf"
)

// Options control the construction of resources by a [Cache].
//
// Every field is optional.  Nil fields are replaced by the loaders from the
// font and graphics packages.
type Options struct {
	LoadFont       func(r pdf.Getter, files font.FileLoader, obj pdf.Object) (*font.Font, error)
	LoadColorSpace func(r pdf.Getter, res color.Resolver, obj pdf.Object) (color.Space, error)
	LoadPattern    func(r pdf.Getter, res color.Resolver, obj pdf.Object, isShading bool, M matrix.Matrix) (pattern.Pattern, error)
	LoadImage      func(r pdf.Getter, res color.Resolver, obj pdf.Object) (*image.Image, error)

	// NewICCProfile constructs a profile from the decoded profile data.
	NewICCProfile func(data []byte) (*color.ICCProfile, error)

	// ReadFontFile reads an embedded font file stream.
	ReadFontFile func(r pdf.Getter, obj pdf.Object) (*font.File, error)
}

var defaultOptions = Options{
	LoadFont:       font.Load,
	LoadColorSpace: color.Load,
	LoadPattern:    pattern.Load,
	LoadImage:      image.Load,
	NewICCProfile:  color.NewICCProfile,
	ReadFontFile:   font.ReadFile,
}

func (opt *Options) withDefaults() Options {
	res := defaultOptions
	if opt == nil {
		return res
	}
	if opt.LoadFont != nil {
		res.LoadFont = opt.LoadFont
	}
	if opt.LoadColorSpace != nil {
		res.LoadColorSpace = opt.LoadColorSpace
	}
	if opt.LoadPattern != nil {
		res.LoadPattern = opt.LoadPattern
	}
	if opt.LoadImage != nil {
		res.LoadImage = opt.LoadImage
	}
	if opt.NewICCProfile != nil {
		res.NewICCProfile = opt.NewICCProfile
	}
	if opt.ReadFontFile != nil {
		res.ReadFontFile = opt.ReadFontFile
	}
	return res
}
