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

// Package pdfpage implements a per-document cache for the resources used by
// PDF page content streams.
//
// A [Cache] shares fonts, color spaces, patterns, images, ICC profiles and
// embedded font files between all users of a document.  Resources are keyed
// by the identity of the PDF object they were read from (see
// [pdf.IdentityOf]), never by their contents.  The only exception are ICC
// profiles: byte-identical profiles stored in different streams are
// represented by a single [color.ICCProfile].
//
// Every resource obtained from the cache must be given back using the
// corresponding Release method.  The cache keeps one reference of its own
// to every resource, so that resources survive until [Cache.Clear] is
// called or the cache is closed.
//
// Shading meshes are decoded by package
// [seehuhn.de/go/pdfpage/graphics/shading], using color spaces obtained from
// the cache.
package pdfpage
