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

// Package cache implements a reference-counted interning table.
//
// A [Table] maps keys to shared objects.  Every object in the table carries a
// use count.  A newly created object starts with a count of two: one for the
// table itself and one for the caller which requested the object.  Each
// lookup increments the count, each release decrements it, and when the count
// reaches zero the object is discarded.
//
// After an object has been discarded, the bookkeeping entry for its key may
// either stay in the table (so that a later lookup for the same key simply
// recreates the object), or be erased.  This is controlled by
// [Options.EraseOnRelease].
//
// Tables are not safe for concurrent use.
package cache

import (
	"slices"

	"golang.org/x/exp/maps"
)

// Options control the behaviour of a [Table].
type Options[K comparable, T any] struct {
	// EraseOnRelease, if set, causes the bookkeeping entry for a key to be
	// removed when its object is released for the last time.
	// [Table.Clear] never removes entries.
	EraseOnRelease bool

	// Discard, if not nil, is called exactly once for every object which
	// leaves the table.  The table is in a consistent state when Discard is
	// called, and Discard may call methods on this or other tables.
	Discard func(key K, obj T)
}

// Table is a reference-counted map from keys to objects.
//
// Several keys can share one entry, see [Table.Link].
type Table[K comparable, T any] struct {
	entries map[K]*entry[T]
	seq     uint64
	opt     Options[K, T]
}

type entry[T any] struct {
	obj   T
	live  bool
	count uint32
	seq   uint64
}

// New returns a new, empty table.
// If opt is nil, default options are used.
func New[K comparable, T any](opt *Options[K, T]) *Table[K, T] {
	t := &Table[K, T]{
		entries: make(map[K]*entry[T]),
	}
	if opt != nil {
		t.opt = *opt
	}
	return t
}

// Get returns the object for key.
//
// If the table holds a live object for key, its count is incremented and the
// object is returned.  Otherwise, create is called to construct the object.
// On success the object is stored with a count of two.  If create fails, the
// table is left unchanged and the error is returned.
func (t *Table[K, T]) Get(key K, create func() (T, error)) (T, error) {
	e := t.entries[key]
	if e != nil && e.live {
		e.count++
		return e.obj, nil
	}

	obj, err := create()
	if err != nil {
		var zero T
		return zero, err
	}

	// The constructor may have modified the table.
	e = t.entries[key]
	if e == nil {
		e = &entry[T]{}
		t.entries[key] = e
	}
	if e.live {
		// A nested call has stored an object for the same key.  Keep the
		// existing one, so that all callers share the same object.
		e.count++
		if t.opt.Discard != nil {
			t.opt.Discard(key, obj)
		}
		return e.obj, nil
	}
	t.seq++
	e.obj = obj
	e.live = true
	e.count = 2
	e.seq = t.seq
	return obj, nil
}

// Find returns the live object for key, if any.
// If an object is found, its count is incremented.
// Find never constructs new objects.
func (t *Table[K, T]) Find(key K) (T, bool) {
	e := t.entries[key]
	if e == nil || !e.live {
		var zero T
		return zero, false
	}
	e.count++
	return e.obj, true
}

// Peek returns the live object for key without changing its count.
func (t *Table[K, T]) Peek(key K) (T, bool) {
	e := t.entries[key]
	if e == nil || !e.live {
		var zero T
		return zero, false
	}
	return e.obj, true
}

// Incref increments the count of the live object for key.
// The return value indicates whether a live object was found.
func (t *Table[K, T]) Incref(key K) bool {
	e := t.entries[key]
	if e == nil || !e.live {
		return false
	}
	e.count++
	return true
}

// Link makes alias refer to the same entry as target, and increments the
// count of the shared object.  Both keys stay registered until the table is
// closed, and a release through either key decrements the shared count.
//
// Link fails if target has no live object, or if alias already refers to a
// live object.
func (t *Table[K, T]) Link(alias, target K) (T, bool) {
	var zero T
	e := t.entries[target]
	if e == nil || !e.live {
		return zero, false
	}
	if old := t.entries[alias]; old != nil && old.live && old != e {
		return zero, false
	}
	t.entries[alias] = e
	e.count++
	return e.obj, true
}

// Release decrements the count of the object for key.
//
// When the count reaches zero, or if force is set, the object is discarded.
// If the table was created with EraseOnRelease, the bookkeeping entry is then
// removed as well.  The return value indicates whether the object was
// discarded.
func (t *Table[K, T]) Release(key K, force bool) bool {
	e := t.entries[key]
	if e == nil || !e.live {
		return false
	}
	if e.count > 0 {
		e.count--
	}
	if e.count > 0 && !force {
		return false
	}
	if t.opt.EraseOnRelease {
		t.unlink(e)
	}
	t.destroy(key, e)
	return true
}

// Clear discards every live object with a count below two, and if force is
// set, every live object.  Bookkeeping entries are kept.
// Clear returns the number of objects discarded.
func (t *Table[K, T]) Clear(force bool) int {
	n := 0
	for _, key := range t.keys() {
		e := t.entries[key]
		if e == nil || !e.live {
			continue
		}
		if force || e.count < 2 {
			t.destroy(key, e)
			n++
		}
	}
	return n
}

// Close discards all remaining objects and removes all bookkeeping entries.
// This is equivalent to calling Clear(false), then Clear(true), and then
// removing all entries.
func (t *Table[K, T]) Close() {
	t.Clear(false)
	t.Clear(true)
	clear(t.entries)
}

// Range calls yield for every live object, in the order in which the objects
// were created.  Range stops if yield returns false.
// The counts of the objects are not changed.
func (t *Table[K, T]) Range(yield func(key K, obj T) bool) {
	for _, key := range t.keys() {
		e := t.entries[key]
		if e == nil || !e.live {
			continue
		}
		if !yield(key, e.obj) {
			return
		}
	}
}

// RefCount returns the count of the live object for key.
func (t *Table[K, T]) RefCount(key K) (uint32, bool) {
	e := t.entries[key]
	if e == nil || !e.live {
		return 0, false
	}
	return e.count, true
}

// Has reports whether the table has a bookkeeping entry for key.
// The entry may or may not hold a live object.
func (t *Table[K, T]) Has(key K) bool {
	_, ok := t.entries[key]
	return ok
}

// Len returns the number of keys in the table.
func (t *Table[K, T]) Len() int {
	return len(t.entries)
}

// Live returns the number of live objects in the table.
// Objects shared between several keys are counted once.
func (t *Table[K, T]) Live() int {
	seen := make(map[*entry[T]]bool)
	for _, e := range t.entries {
		if e.live {
			seen[e] = true
		}
	}
	return len(seen)
}

func (t *Table[K, T]) destroy(key K, e *entry[T]) {
	obj := e.obj
	var zero T
	e.obj = zero
	e.live = false
	e.count = 0
	if t.opt.Discard != nil {
		t.opt.Discard(key, obj)
	}
}

// unlink removes all keys which refer to e.
func (t *Table[K, T]) unlink(e *entry[T]) {
	for key, other := range t.entries {
		if other == e {
			delete(t.entries, key)
		}
	}
}

// keys returns the keys of the table, sorted by the creation order of their
// entries.
func (t *Table[K, T]) keys() []K {
	keys := maps.Keys(t.entries)
	slices.SortStableFunc(keys, func(a, b K) int {
		sa, sb := t.entries[a].seq, t.entries[b].seq
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		default:
			return 0
		}
	})
	return keys
}
