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
	"compress/zlib"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/matrix"
)

func TestIdentity(t *testing.T) {
	d1 := Dict{"A": Integer(1)}
	d2 := Dict{"A": Integer(1)}
	a := Array{Integer(1), Integer(2)}
	ref := NewReference(7, 0)

	if IdentityOf(d1) != IdentityOf(d1) {
		t.Error("identity of a dictionary is not stable")
	}
	if IdentityOf(d1) == IdentityOf(d2) {
		t.Error("distinct dictionaries share an identity")
	}
	if IdentityOf(a) == IdentityOf(a[:1]) {
		t.Error("array prefix shares the identity of the array")
	}
	if IdentityOf(ref) != IdentityOf(NewReference(7, 0)) {
		t.Error("references to the same object differ")
	}
	if r, ok := IdentityOf(ref).Reference(); !ok || r != ref {
		t.Error("Reference() failed")
	}

	for _, obj := range []Object{nil, Integer(1), Name("X"), Array{}, Dict(nil)} {
		if !IdentityOf(obj).IsZero() {
			t.Errorf("%v has an identity", obj)
		}
	}
}

func TestData(t *testing.T) {
	data := NewData()
	ref1 := data.Add(Integer(1))
	ref2 := data.AddStream(Dict{"Type": Name("Test")}, []byte("hello"))
	ref3 := data.Alloc()

	if d := cmp.Diff([]Reference{ref1, ref2}, data.Refs()); d != "" {
		t.Error(d)
	}

	obj, err := data.Get(ref3)
	if obj != nil || err != nil {
		t.Errorf("missing object: got %v, %v", obj, err)
	}

	// Streams can be read repeatedly.
	for range 2 {
		body, err := ReadAll(data, ref2, 5)
		if err != nil {
			t.Fatal(err)
		}
		if string(body) != "hello" {
			t.Errorf("got %q", body)
		}
	}

	if err := data.Put(ref1, nil); err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]Reference{ref2}, data.Refs()); d != "" {
		t.Error(d)
	}
}

func TestFilters(t *testing.T) {
	want := []byte("resource caching for PDF pages")

	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	zw.Write(want)
	zw.Close()

	cases := []struct {
		name string
		dict Dict
		body []byte
	}{
		{"none", Dict{}, want},
		{"flate", Dict{"Filter": Name("FlateDecode")}, zbuf.Bytes()},
		{"hex", Dict{"Filter": Name("ASCIIHexDecode")},
			[]byte("7265736f757263652063616368696e6720666f7220 504446207061676573>")},
		{"ascii85", Dict{"Filter": Name("A85")},
			[]byte("<~Eb0<1F`Lu'+CehiBPD?s+D,P4+AbHq+E1b%ATI~>")},
		{"chain", Dict{"Filter": Array{Name("AHx"), Name("Fl")}},
			hexEncode(zbuf.Bytes())},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := NewData()
			ref := data.AddStream(tc.dict, tc.body)
			got, err := ReadAll(data, ref, 0)
			if err != nil {
				t.Fatal(err)
			}
			if d := cmp.Diff(want, got); d != "" {
				t.Error(d)
			}
		})
	}
}

func hexEncode(b []byte) []byte {
	const digits = "0123456789abcdef"
	out := make([]byte, 0, 2*len(b)+1)
	for _, c := range b {
		out = append(out, digits[c>>4], digits[c&15])
	}
	return append(out, '>')
}

func TestPNGPredictor(t *testing.T) {
	// two rows of three bytes: "Sub" filter, then "Up" filter
	raw := []byte{
		1, 10, 5, 5,
		2, 1, 1, 1,
	}
	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	zw.Write(raw)
	zw.Close()

	data := NewData()
	ref := data.AddStream(Dict{
		"Filter":      Name("FlateDecode"),
		"DecodeParms": Dict{"Predictor": Integer(12), "Columns": Integer(3)},
	}, zbuf.Bytes())

	got, err := ReadAll(data, ref, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{10, 15, 20, 11, 16, 21}
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}
}

func TestTIFFPredictor(t *testing.T) {
	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	zw.Write([]byte{10, 1, 1, 200, 100, 0})
	zw.Close()

	data := NewData()
	ref := data.AddStream(Dict{
		"Filter": Name("FlateDecode"),
		"DecodeParms": Dict{
			"Predictor": Integer(2),
			"Colors":    Integer(1),
			"Columns":   Integer(3),
		},
	}, zbuf.Bytes())

	got, err := ReadAll(data, ref, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{10, 11, 12, 200, 44, 44}
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}
}

func TestInvalidDecodeParms(t *testing.T) {
	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	zw.Write([]byte{1, 2, 3})
	zw.Close()

	parms := []Dict{
		{"Predictor": Integer(3)},
		{"Predictor": Integer(12), "Columns": Integer(0)},
		{"Predictor": Integer(12), "BitsPerComponent": Integer(5)},
		{"Predictor": Name("PNG")},
	}
	for i, p := range parms {
		data := NewData()
		ref := data.AddStream(Dict{
			"Filter":      Name("FlateDecode"),
			"DecodeParms": p,
		}, zbuf.Bytes())
		_, err := ReadAll(data, ref, 0)
		if !IsMalformed(err) {
			t.Errorf("%d: got %v", i, err)
		}
	}
}

func TestReadAllErrors(t *testing.T) {
	data := NewData()

	_, err := ReadAll(data, data.Alloc(), 0)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("missing stream: got %v", err)
	}

	ref := data.AddStream(Dict{"Filter": Name("LZWDecode")}, []byte{0})
	_, err = ReadAll(data, ref, 0)
	if !IsMalformed(err) {
		t.Errorf("unsupported filter: got %v", err)
	}
}

func TestGetters(t *testing.T) {
	data := NewData()
	ref := data.Add(Array{Integer(2), Real(0), Integer(0), Integer(2), Integer(5), Real(6.5)})

	M, err := GetMatrix(data, ref)
	if err != nil {
		t.Fatal(err)
	}
	if M != (matrix.Matrix{2, 0, 0, 2, 5, 6.5}) {
		t.Errorf("got %v", M)
	}

	rect, err := GetRectangle(data, Array{Integer(4), Integer(3), Integer(1), Integer(0)})
	if err != nil {
		t.Fatal(err)
	}
	if *rect != (Rectangle{LLx: 1, LLy: 0, URx: 4, URy: 3}) {
		t.Errorf("got %v", rect)
	}

	_, err = GetDictTyped(data, Dict{"Type": Name("Font")}, "Pattern")
	if !IsMalformed(err) {
		t.Errorf("wrong type: got %v", err)
	}

	loop := data.Alloc()
	data.Put(loop, loop)
	_, err = Resolve(data, loop)
	if !IsMalformed(err) {
		t.Errorf("reference loop: got %v", err)
	}

	err = Wrap(Errorf("bad"), "Key")
	if err.Error() != "not a valid PDF file: Key: bad" {
		t.Errorf("got %q", err.Error())
	}
}
