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
	"bytes"
	"io"
	"slices"

	"golang.org/x/exp/maps"
)

// Data is an in-memory representation of a PDF document.
//
// This type implements the [Document] interface.
type Data struct {
	objects map[Reference]Object
	lastRef uint32
}

// NewData returns a new, empty in-memory document.
func NewData() *Data {
	return &Data{
		objects: map[Reference]Object{},
	}
}

// Alloc allocates a new object number for an indirect object.
func (d *Data) Alloc() Reference {
	for {
		d.lastRef++
		ref := NewReference(d.lastRef, 0)
		if _, ok := d.objects[ref]; !ok {
			return ref
		}
	}
}

// Get returns the indirect object ref.  Missing objects are returned as
// null, without an error.
//
// If the object is a stream with seekable data, the stream is rewound
// so that it can be read again.
func (d *Data) Get(ref Reference) (Object, error) {
	obj := d.objects[ref]
	if s, ok := obj.(*Stream); ok {
		if ss, ok := s.R.(io.Seeker); ok {
			_, err := ss.Seek(0, io.SeekStart)
			if err != nil {
				return nil, err
			}
		}
	}
	return obj, nil
}

// Put stores obj as the indirect object ref.
// Storing null removes the object.
func (d *Data) Put(ref Reference, obj Object) error {
	if obj == nil {
		delete(d.objects, ref)
	} else {
		d.objects[ref] = obj
	}
	return nil
}

// Add allocates a new reference and stores obj under it.
func (d *Data) Add(obj Object) Reference {
	ref := d.Alloc()
	d.objects[ref] = obj
	return ref
}

// AddStream stores a stream with the given dictionary and (already encoded)
// data, and returns a reference to it.
func (d *Data) AddStream(dict Dict, data []byte) Reference {
	if dict == nil {
		dict = Dict{}
	}
	dict["Length"] = Integer(len(data))
	return d.Add(&Stream{Dict: dict, R: bytes.NewReader(data)})
}

// Refs returns the references of all objects in the document, in increasing
// order.
func (d *Data) Refs() []Reference {
	refs := maps.Keys(d.objects)
	slices.Sort(refs)
	return refs
}
