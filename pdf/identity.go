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
	"fmt"
	"reflect"
)

// Identity identifies a PDF object for the purpose of interning resources.
//
// Two identities are equal if they refer to the same indirect object, or to
// the same in-memory direct object.  Identities never compare object values:
// two distinct dictionaries with identical contents have different
// identities.
//
// The zero Identity identifies no object.
type Identity struct {
	ref  Reference
	addr uintptr
	n    int
}

// IdentityOf returns the identity of obj.
//
// References identify the indirect object they point to.  Dictionaries,
// arrays and streams are identified by their location in memory.  Other
// objects, and null, have the zero identity.
func IdentityOf(obj Object) Identity {
	switch x := obj.(type) {
	case Reference:
		return Identity{ref: x}
	case *Stream:
		if x != nil {
			return Identity{addr: reflect.ValueOf(x).Pointer()}
		}
	case Dict:
		if x != nil {
			return Identity{addr: reflect.ValueOf(x).Pointer()}
		}
	case Array:
		if len(x) > 0 {
			return Identity{addr: reflect.ValueOf(x).Pointer(), n: len(x)}
		}
	}
	return Identity{}
}

// IsZero reports whether id identifies no object.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// Reference returns the indirect object identified by id, if any.
func (id Identity) Reference() (Reference, bool) {
	return id.ref, id.ref != 0
}

func (id Identity) String() string {
	switch {
	case id.ref != 0:
		return id.ref.String()
	case id.addr != 0:
		return fmt.Sprintf("direct@%#x", id.addr)
	default:
		return "<none>"
	}
}
