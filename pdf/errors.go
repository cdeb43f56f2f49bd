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
	"strings"
)

// ErrSourceUnavailable indicates that the object a resource should be
// constructed from is null, missing, or has no data.
var ErrSourceUnavailable = errors.New("source object unavailable")

// MalformedFileError indicates that a PDF file could not be parsed,
// or that an object in the file does not have the expected structure.
type MalformedFileError struct {
	Err error
	Loc []string
}

func (err *MalformedFileError) Error() string {
	parts := []string{"not a valid PDF file"}
	for i := len(err.Loc) - 1; i >= 0; i-- {
		parts = append(parts, err.Loc[i])
	}
	if err.Err != nil {
		parts = append(parts, err.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (err *MalformedFileError) Unwrap() error {
	return err.Err
}

// Errorf returns a new [MalformedFileError] with the given message.
func Errorf(format string, args ...any) error {
	return &MalformedFileError{
		Err: fmt.Errorf(format, args...),
	}
}

// Wrap adds location information to a MalformedFileError.
// Errors of other types are wrapped using fmt.Errorf.
// If err is nil, nil is returned.
func Wrap(err error, loc string) error {
	if err == nil {
		return nil
	}
	var m *MalformedFileError
	if errors.As(err, &m) {
		return &MalformedFileError{
			Err: m.Err,
			Loc: append(append([]string{}, m.Loc...), loc),
		}
	}
	return fmt.Errorf("%s: %w", loc, err)
}

// IsMalformed reports whether err indicates a malformed PDF object.
func IsMalformed(err error) bool {
	var m *MalformedFileError
	return errors.As(err, &m)
}
