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
	"errors"
	"fmt"

	"seehuhn.de/go/pdfpage/pdf"
)

// Kind identifies one of the resource tables of a [Cache].
type Kind int

// These are the resource kinds managed by a [Cache].
const (
	KindFont Kind = iota
	KindColorSpace
	KindPattern
	KindImage
	KindICCProfile
	KindFontFile
	numKinds
)

func (k Kind) String() string {
	switch k {
	case KindFont:
		return "font"
	case KindColorSpace:
		return "color space"
	case KindPattern:
		return "pattern"
	case KindImage:
		return "image"
	case KindICCProfile:
		return "ICC profile"
	case KindFontFile:
		return "font file"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// FactoryError is returned when a resource could not be constructed.
// The underlying error can be obtained using errors.Unwrap, and
// [pdf.IsMalformed] can be used to detect malformed source objects.
type FactoryError struct {
	Kind Kind
	ID   pdf.Identity
	Err  error
}

func (err *FactoryError) Error() string {
	return fmt.Sprintf("cannot load %s %s: %v", err.Kind, err.ID, err.Err)
}

func (err *FactoryError) Unwrap() error {
	return err.Err
}

// ErrNoIdentity is returned when a resource is requested for an object
// which cannot be used as a cache key, for example a null object.
var ErrNoIdentity = fmt.Errorf("object has no identity: %w", pdf.ErrSourceUnavailable)

// errClosed is returned when a closed cache is used.
var errClosed = errors.New("cache is closed")
