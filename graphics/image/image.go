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

// Package image reads PDF image XObjects.
package image

import (
	"fmt"

	"seehuhn.de/go/pdfpage/graphics/color"
	"seehuhn.de/go/pdfpage/pdf"
)

// Image represents an image XObject.
type Image struct {
	// Width is the width of the image in pixels.
	Width int

	// Height is the height of the image in pixels.
	Height int

	// ColorSpace is the color space in which image samples are specified.
	// This is nil for image masks, and for JPXDecode images which do not
	// specify a color space.
	ColorSpace color.Space

	// ColorSpaceObj is the PDF object the color space was read from.
	ColorSpaceObj pdf.Object

	// BitsPerComponent is the number of bits used to represent each color
	// component.
	BitsPerComponent int

	// ImageMask is true if the image is a stencil mask.
	ImageMask bool

	// Decode (optional) maps image samples into the range of values
	// appropriate for the color space.
	Decode []float64

	Interpolate bool

	// Mask and SMask are the (unresolved) mask entries of the image.
	Mask  pdf.Object
	SMask pdf.Object

	// Stream is the image stream.
	Stream *pdf.Stream

	// Filters lists the filters of the image stream.
	Filters []*pdf.FilterInfo
}

// Load reads an image XObject.
//
// The color space of the image is obtained through res.  [Image.Release]
// must be called when the image is no longer needed.
func Load(r pdf.Getter, res color.Resolver, obj pdf.Object) (*Image, error) {
	stm, err := pdf.GetStream(r, obj)
	if err != nil {
		return nil, err
	} else if stm == nil {
		return nil, fmt.Errorf("image: %w", pdf.ErrSourceUnavailable)
	}
	dict := stm.Dict
	if tp, _ := dict["Subtype"].(pdf.Name); tp != "" && tp != "Image" {
		return nil, pdf.Errorf("expected image XObject, got subtype %q", tp)
	}

	img := &Image{Stream: stm}

	width, err := pdf.GetInteger(r, dict["Width"])
	if err != nil {
		return nil, pdf.Wrap(err, "Width")
	}
	height, err := pdf.GetInteger(r, dict["Height"])
	if err != nil {
		return nil, pdf.Wrap(err, "Height")
	}
	if width <= 0 || height <= 0 {
		return nil, pdf.Errorf("invalid image size %dx%d", width, height)
	}
	img.Width = int(width)
	img.Height = int(height)

	img.Filters, err = stm.Filters(r)
	if err != nil {
		return nil, err
	}
	isJPX := false
	for _, f := range img.Filters {
		if f.Name == "JPXDecode" {
			isJPX = true
		}
	}

	mask, err := pdf.GetBoolean(r, dict["ImageMask"])
	if err != nil {
		return nil, pdf.Wrap(err, "ImageMask")
	}
	img.ImageMask = bool(mask)

	bpc, err := pdf.GetInteger(r, dict["BitsPerComponent"])
	if err != nil {
		return nil, pdf.Wrap(err, "BitsPerComponent")
	}
	switch {
	case img.ImageMask && (bpc == 0 || bpc == 1):
		bpc = 1
	case bpc == 0 && isJPX:
		// determined by the JPEG 2000 data
	case bpc == 1 || bpc == 2 || bpc == 4 || bpc == 8 || bpc == 16:
		// pass
	default:
		return nil, pdf.Errorf("invalid BitsPerComponent %d", bpc)
	}
	img.BitsPerComponent = int(bpc)

	img.Decode, err = pdf.GetFloatArray(r, dict["Decode"])
	if err != nil {
		return nil, pdf.Wrap(err, "Decode")
	}
	interp, err := pdf.GetBoolean(r, dict["Interpolate"])
	if err != nil {
		return nil, pdf.Wrap(err, "Interpolate")
	}
	img.Interpolate = bool(interp)
	img.Mask = dict["Mask"]
	img.SMask = dict["SMask"]

	csObj := dict["ColorSpace"]
	switch {
	case img.ImageMask:
		// stencil masks have no color space
	case csObj == nil && isJPX:
		// the color space is specified in the JPEG 2000 data
	case csObj == nil:
		return nil, pdf.Errorf("missing /ColorSpace for image")
	default:
		cs, err := res.ColorSpace(csObj, nil)
		if err != nil {
			return nil, pdf.Wrap(err, "ColorSpace")
		}
		img.ColorSpace = cs
		img.ColorSpaceObj = csObj
		if cs.Family() == color.FamilyPattern {
			img.Release(res)
			return nil, pdf.Errorf("Pattern color space not allowed for images")
		}
		if img.Decode != nil && len(img.Decode) != 2*cs.Channels() {
			img.Decode = nil
		}
	}

	return img, nil
}

// RowBytes returns the number of bytes per row of image data.
func (img *Image) RowBytes() int {
	n := 1
	if img.ColorSpace != nil {
		n = img.ColorSpace.Channels()
	}
	return (img.Width*n*img.BitsPerComponent + 7) / 8
}

// ReadData returns the decoded image samples.
func (img *Image) ReadData(r pdf.Getter) ([]byte, error) {
	return pdf.ReadAll(r, img.Stream, img.RowBytes()*img.Height)
}

// Release gives back the color space obtained when the image was loaded.
func (img *Image) Release(res color.Resolver) {
	if img.ColorSpaceObj != nil {
		res.ReleaseColorSpace(img.ColorSpaceObj)
		img.ColorSpaceObj = nil
	}
}
