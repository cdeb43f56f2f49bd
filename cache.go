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
	"crypto/sha1"
	"errors"
	"fmt"
	"sync"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdfpage/cache"
	"seehuhn.de/go/pdfpage/font"
	"seehuhn.de/go/pdfpage/graphics/color"
	"seehuhn.de/go/pdfpage/graphics/image"
	"seehuhn.de/go/pdfpage/graphics/pattern"
	"seehuhn.de/go/pdfpage/pdf"
)

type digest [sha1.Size]byte

// Cache holds the shared resources of one PDF document.
//
// All methods are safe for concurrent use.  A single mutex guards
// all tables.
type Cache struct {
	r   pdf.Document
	opt Options
	res resolver

	mu     sync.Mutex
	closed bool

	fonts       *cache.Table[pdf.Identity, *font.Font]
	colorSpaces *cache.Table[pdf.Identity, color.Space]
	patterns    *cache.Table[pdf.Identity, pattern.Pattern]
	images      *cache.Table[uint32, *image.Image]
	profiles    *cache.Table[pdf.Identity, *color.ICCProfile]
	fontFiles   *cache.Table[pdf.Identity, *font.File]

	byDigest  map[digest]pdf.Identity
	digestOf  map[*color.ICCProfile]digest
	profileID map[*color.ICCProfile]pdf.Identity

	// loading holds the color spaces currently under construction.
	loading map[pdf.Identity]bool

	// pins keeps direct objects used as keys reachable, so that their
	// addresses are not reused while the cache refers to them.
	pins map[pdf.Identity]pdf.Object
}

// New creates an empty cache for the document doc.
//
// Synthesized objects, like the font dictionaries created by
// [Cache.StandardFont], are added to doc.  If opt is nil, the default
// loaders are used.
func New(doc pdf.Document, opt *Options) *Cache {
	c := &Cache{
		r:         doc,
		opt:       opt.withDefaults(),
		byDigest:  make(map[digest]pdf.Identity),
		digestOf:  make(map[*color.ICCProfile]digest),
		profileID: make(map[*color.ICCProfile]pdf.Identity),
		loading:   make(map[pdf.Identity]bool),
		pins:      make(map[pdf.Identity]pdf.Object),
	}
	c.res = resolver{c: c}

	c.fonts = cache.New(&cache.Options[pdf.Identity, *font.Font]{
		Discard: c.discardFont,
	})
	c.colorSpaces = cache.New(&cache.Options[pdf.Identity, color.Space]{
		Discard: c.discardColorSpace,
	})
	c.patterns = cache.New(&cache.Options[pdf.Identity, pattern.Pattern]{
		EraseOnRelease: true,
		Discard:        c.discardPattern,
	})
	c.images = cache.New(&cache.Options[uint32, *image.Image]{
		EraseOnRelease: true,
		Discard:        c.discardImage,
	})
	c.profiles = cache.New(&cache.Options[pdf.Identity, *color.ICCProfile]{
		Discard: c.discardProfile,
	})
	c.fontFiles = cache.New(&cache.Options[pdf.Identity, *font.File]{
		Discard: func(id pdf.Identity, _ *font.File) {
			Logger().Debug("discarding font file", "id", id.String())
		},
	})
	return c
}

// Font returns the font described by the font dictionary obj.
// The font must be given back using [Cache.ReleaseFont].
func (c *Cache) Font(obj pdf.Object) (*font.Font, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errClosed
	}
	return c.font(obj)
}

func (c *Cache) font(obj pdf.Object) (*font.Font, error) {
	id := pdf.IdentityOf(obj)
	if id.IsZero() {
		return nil, ErrNoIdentity
	}
	f, err := c.fonts.Get(id, func() (*font.Font, error) {
		return c.opt.LoadFont(c.r, c.res, obj)
	})
	if err != nil {
		return nil, c.failed(KindFont, id, err)
	}
	c.pin(id, obj)
	return f, nil
}

// FindFont returns the font for obj, if it is already in the cache.
// FindFont never loads new fonts.  If a font is returned, it must be
// given back using [Cache.ReleaseFont].
func (c *Cache) FindFont(obj pdf.Object) (*font.Font, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fonts.Find(pdf.IdentityOf(obj))
}

// StandardFont returns a non-embedded Type 1 font with the given name and
// encoding.  If enc is nil, any cached font with this name is acceptable,
// and a newly created font uses the built-in encoding of the font.
//
// If the cache already holds a matching font, this font is returned.
// Otherwise a new font dictionary is added to the document.  The second
// return value is the reference of the font dictionary.  The font must be
// given back by passing this reference to [Cache.ReleaseFont].
func (c *Cache) StandardFont(name pdf.Name, enc *font.Encoding) (*font.Font, pdf.Reference, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, 0, errClosed
	}
	if name == "" {
		return nil, 0, fmt.Errorf("standard font: %w", pdf.ErrSourceUnavailable)
	}

	var found *font.Font
	var foundRef pdf.Reference
	c.fonts.Range(func(id pdf.Identity, f *font.Font) bool {
		ref, isRef := id.Reference()
		if isRef && f.IsStandard(name, enc) {
			found, foundRef = f, ref
			return false
		}
		return true
	})
	if found != nil {
		c.fonts.Incref(pdf.IdentityOf(foundRef))
		return found, foundRef, nil
	}

	ref := c.r.Alloc()
	err := c.r.Put(ref, font.StandardDict(name, enc))
	if err != nil {
		return nil, 0, err
	}
	Logger().Debug("synthesized standard font", "name", string(name), "ref", ref.String())
	f, err := c.font(ref)
	if err != nil {
		return nil, 0, err
	}
	return f, ref, nil
}

// ReleaseFont gives back a font obtained from the cache.
func (c *Cache) ReleaseFont(obj pdf.Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fonts.Release(pdf.IdentityOf(obj), false)
}

// ColorSpace returns the color space described by obj.
//
// If obj is a name and resources is not nil, the name is looked up in the
// /ColorSpace sub-dictionary of resources.  Device color space names are
// replaced by the /DefaultGray, /DefaultRGB and /DefaultCMYK entries of this
// dictionary, where present.  The color space must be given back using
// [Cache.ReleaseColorSpace] with the same arguments.
func (c *Cache) ColorSpace(obj pdf.Object, resources pdf.Dict) (color.Space, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errClosed
	}
	return c.colorSpace(obj, resources)
}

func (c *Cache) colorSpace(obj pdf.Object, resources pdf.Dict) (color.Space, error) {
	target, stock, err := c.resolveColorSpace(obj, resources)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return c.cachedColorSpace(target)
	}

	if defObj := c.defaultTarget(stock, resources); defObj != nil {
		s, err := c.cachedColorSpace(defObj)
		if err == nil {
			if isValidDefault(stock, s) {
				return s, nil
			}
			c.colorSpaces.Release(pdf.IdentityOf(defObj), false)
		}
		Logger().Warn("ignoring invalid default color space",
			"family", string(stock.Family()))
	}
	return stock, nil
}

// resolveColorSpace maps obj to either a stock color space, which is not
// cached, or to the object a cached color space is read from.
func (c *Cache) resolveColorSpace(obj pdf.Object, resources pdf.Dict) (pdf.Object, color.Space, error) {
	resolved, err := pdf.Resolve(c.r, obj)
	if err != nil {
		return nil, nil, err
	}
	if a, isArray := resolved.(pdf.Array); isArray {
		switch len(a) {
		case 0:
			return nil, nil, pdf.Errorf("empty color space array")
		case 1:
			elem, err := pdf.Resolve(c.r, a[0])
			if err != nil {
				return nil, nil, err
			}
			if name, isName := elem.(pdf.Name); isName {
				resolved = name
			}
		}
	}

	name, isName := resolved.(pdf.Name)
	if !isName {
		if resolved == nil {
			return nil, nil, fmt.Errorf("color space: %w", pdf.ErrSourceUnavailable)
		}
		return obj, nil, nil
	}
	if dev := color.DeviceSpace(name); dev != nil {
		return nil, dev, nil
	}
	if name == color.FamilyPattern {
		return nil, color.SpacePatternColored, nil
	}
	if resources == nil {
		return nil, nil, pdf.Errorf("unknown color space %q", name)
	}

	csDict, err := pdf.GetDict(c.r, resources["ColorSpace"])
	if err != nil {
		return nil, nil, pdf.Wrap(err, "ColorSpace")
	}
	target := csDict[name]
	if target == nil {
		return nil, nil, fmt.Errorf("color space %q: %w", name, pdf.ErrSourceUnavailable)
	}
	// Entries of the resource dictionary must not refer to other names.
	return c.resolveColorSpace(target, nil)
}

// defaultTarget returns the object of the default color space which
// replaces the device space dev, or nil if there is none.
func (c *Cache) defaultTarget(dev color.Space, resources pdf.Dict) pdf.Object {
	key := color.DefaultKey(dev)
	if key == "" || resources == nil {
		return nil
	}
	csDict, err := pdf.GetDict(c.r, resources["ColorSpace"])
	if err != nil || csDict[key] == nil {
		return nil
	}
	target, stock, err := c.resolveColorSpace(csDict[key], nil)
	if err != nil || stock != nil {
		return nil
	}
	return target
}

func isValidDefault(dev, s color.Space) bool {
	switch s.Family() {
	case color.FamilyLab, color.FamilyIndexed, color.FamilyPattern:
		return false
	}
	return s.Channels() == dev.Channels()
}

func (c *Cache) cachedColorSpace(obj pdf.Object) (color.Space, error) {
	id := pdf.IdentityOf(obj)
	if id.IsZero() {
		return nil, ErrNoIdentity
	}
	if c.loading[id] {
		return nil, pdf.Errorf("color space %s refers to itself", id)
	}
	s, err := c.colorSpaces.Get(id, func() (color.Space, error) {
		c.loading[id] = true
		defer delete(c.loading, id)
		return c.opt.LoadColorSpace(c.r, c.res, obj)
	})
	if err != nil {
		return nil, c.failed(KindColorSpace, id, err)
	}
	c.pin(id, obj)
	return s, nil
}

// CopiedColorSpace returns the color space for obj, if it is already in the
// cache.  CopiedColorSpace never loads new color spaces.  If a color space
// is returned, it must be given back using [Cache.ReleaseColorSpace].
func (c *Cache) CopiedColorSpace(obj pdf.Object) (color.Space, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.colorSpaces.Find(pdf.IdentityOf(obj))
}

// ReleaseColorSpace gives back a color space obtained from the cache.
// The arguments must be the same as for the call to [Cache.ColorSpace].
func (c *Cache) ReleaseColorSpace(obj pdf.Object, resources pdf.Dict) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseColorSpace(obj, resources)
}

func (c *Cache) releaseColorSpace(obj pdf.Object, resources pdf.Dict) {
	target, stock, err := c.resolveColorSpace(obj, resources)
	if err != nil {
		return
	}
	if stock != nil {
		target = c.defaultTarget(stock, resources)
		if target == nil {
			return
		}
		s, ok := c.colorSpaces.Peek(pdf.IdentityOf(target))
		if !ok || !isValidDefault(stock, s) {
			return
		}
	}
	c.colorSpaces.Release(pdf.IdentityOf(target), false)
}

// Pattern returns the pattern described by obj.
//
// If isShading is set, obj is a shading dictionary used with the sh
// operator.  M is the matrix of the parent content stream.  Both values
// are only used when the pattern is first loaded.  The pattern must be
// given back using [Cache.ReleasePattern].
func (c *Cache) Pattern(obj pdf.Object, isShading bool, M matrix.Matrix) (pattern.Pattern, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errClosed
	}

	id := pdf.IdentityOf(obj)
	if id.IsZero() {
		return nil, ErrNoIdentity
	}
	p, err := c.patterns.Get(id, func() (pattern.Pattern, error) {
		return c.opt.LoadPattern(c.r, c.res, obj, isShading, M)
	})
	if err != nil {
		return nil, c.failed(KindPattern, id, err)
	}
	c.pin(id, obj)
	return p, nil
}

// ReleasePattern gives back a pattern obtained from the cache.
func (c *Cache) ReleasePattern(obj pdf.Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patterns.Release(pdf.IdentityOf(obj), false)
}

// Image returns the image XObject ref.
// Images are identified by their object number.  The image must be given
// back using [Cache.ReleaseImage].
func (c *Cache) Image(ref pdf.Reference) (*image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errClosed
	}
	if ref == 0 {
		return nil, ErrNoIdentity
	}

	img, err := c.images.Get(ref.Number(), func() (*image.Image, error) {
		return c.opt.LoadImage(c.r, c.res, ref)
	})
	if err != nil {
		return nil, c.failed(KindImage, pdf.IdentityOf(ref), err)
	}
	return img, nil
}

// ReleaseImage gives back an image obtained from the cache.
func (c *Cache) ReleaseImage(ref pdf.Reference) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images.Release(ref.Number(), false)
}

// ICCProfile returns the ICC profile stored in the stream obj.
//
// Byte-identical profiles are shared, even if they are stored in different
// streams.  The profile must be given back using [Cache.ReleaseICCProfile].
func (c *Cache) ICCProfile(obj pdf.Object) (*color.ICCProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errClosed
	}
	return c.iccProfile(obj)
}

func (c *Cache) iccProfile(obj pdf.Object) (*color.ICCProfile, error) {
	id := pdf.IdentityOf(obj)
	if id.IsZero() {
		return nil, ErrNoIdentity
	}
	if p, ok := c.profiles.Find(id); ok {
		return p, nil
	}

	data, err := pdf.ReadAll(c.r, obj, 0)
	if err != nil {
		return nil, c.failed(KindICCProfile, id, err)
	}
	sum := digest(sha1.Sum(data))
	if other, ok := c.byDigest[sum]; ok && other != id {
		if p, ok := c.profiles.Link(id, other); ok {
			c.pin(id, obj)
			Logger().Debug("sharing ICC profile",
				"id", id.String(), "with", other.String())
			return p, nil
		}
	}

	p, err := c.profiles.Get(id, func() (*color.ICCProfile, error) {
		return c.opt.NewICCProfile(data)
	})
	if err != nil {
		return nil, c.failed(KindICCProfile, id, err)
	}
	c.pin(id, obj)
	if _, known := c.profileID[p]; !known {
		c.byDigest[sum] = id
		c.digestOf[p] = sum
		c.profileID[p] = id
	}
	return p, nil
}

// ReleaseICCProfile gives back a profile obtained from the cache.
func (c *Cache) ReleaseICCProfile(p *color.ICCProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseICCProfile(p)
}

func (c *Cache) releaseICCProfile(p *color.ICCProfile) {
	id, ok := c.profileID[p]
	if !ok {
		return
	}
	c.profiles.Release(id, false)
}

// FontFile returns the decoded contents of the font file stream obj.
// The data must be given back using [Cache.ReleaseFontFile].
func (c *Cache) FontFile(obj pdf.Object) (*font.File, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errClosed
	}
	return c.fontFile(obj)
}

func (c *Cache) fontFile(obj pdf.Object) (*font.File, error) {
	id := pdf.IdentityOf(obj)
	if id.IsZero() {
		return nil, ErrNoIdentity
	}
	f, err := c.fontFiles.Get(id, func() (*font.File, error) {
		return c.opt.ReadFontFile(c.r, obj)
	})
	if err != nil {
		return nil, c.failed(KindFontFile, id, err)
	}
	c.pin(id, obj)
	return f, nil
}

// ReleaseFontFile gives back font file data obtained from the cache.
// If force is set, the data is discarded even if there are other users.
func (c *Cache) ReleaseFontFile(obj pdf.Object, force bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fontFiles.Release(pdf.IdentityOf(obj), force)
}

// Clear discards all resources which are only held by the cache itself.
// If force is set, all resources are discarded, even if they are still in
// use.  Bookkeeping entries are kept, so that resources which are requested
// again are reloaded.  Clear returns the number of resources discarded.
func (c *Cache) Clear(force bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clear(force)
}

func (c *Cache) clear(force bool) int {
	n := 0
	for _, t := range c.tables() {
		n += t.Clear(force)
	}
	if n > 0 {
		Logger().Debug("cache cleared", "force", force, "discarded", n)
	}
	return n
}

// Close discards all resources and bookkeeping entries.
// The cache cannot be used after Close has been called.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}

	c.clear(false)
	c.clear(true)
	for _, t := range c.tables() {
		t.Close()
	}
	clear(c.byDigest)
	clear(c.digestOf)
	clear(c.profileID)
	clear(c.pins)
	c.closed = true
	return nil
}

// TableStats describes the contents of one resource table.
type TableStats struct {
	// Entries is the number of keys in the table.
	Entries int

	// Live is the number of resources currently held.
	Live int
}

// Stats returns the number of entries and live resources for every kind
// of resource.
func (c *Cache) Stats() map[Kind]TableStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := make(map[Kind]TableStats, numKinds)
	for kind, t := range c.tables() {
		res[Kind(kind)] = TableStats{Entries: t.Len(), Live: t.Live()}
	}
	return res
}

type sweeper interface {
	Clear(force bool) int
	Close()
	Len() int
	Live() int
}

// tables lists the resource tables, indexed by Kind.
func (c *Cache) tables() []sweeper {
	return []sweeper{
		KindFont:       c.fonts,
		KindColorSpace: c.colorSpaces,
		KindPattern:    c.patterns,
		KindImage:      c.images,
		KindICCProfile: c.profiles,
		KindFontFile:   c.fontFiles,
	}
}

func (c *Cache) failed(kind Kind, id pdf.Identity, err error) error {
	var fe *FactoryError
	if !errors.As(err, &fe) {
		Logger().Warn("cannot load resource",
			"kind", kind.String(), "id", id.String(), "error", err)
	}
	return &FactoryError{Kind: kind, ID: id, Err: err}
}

func (c *Cache) pin(id pdf.Identity, obj pdf.Object) {
	if _, isRef := obj.(pdf.Reference); !isRef {
		c.pins[id] = obj
	}
}

func (c *Cache) discardFont(id pdf.Identity, f *font.Font) {
	Logger().Debug("discarding font", "id", id.String(), "font", f.String())
	if f.FileObj != nil {
		c.fontFiles.Release(pdf.IdentityOf(f.FileObj), true)
	}
}

func (c *Cache) discardColorSpace(id pdf.Identity, s color.Space) {
	Logger().Debug("discarding color space",
		"id", id.String(), "family", string(s.Family()))
	for _, dep := range color.Dependencies(s) {
		c.releaseColorSpace(dep, nil)
	}
	if icc, ok := s.(*color.SpaceICCBased); ok && icc.Profile != nil {
		c.releaseICCProfile(icc.Profile)
	}
}

func (c *Cache) discardPattern(id pdf.Identity, p pattern.Pattern) {
	Logger().Debug("discarding pattern", "id", id.String())
	if !c.patterns.Has(id) {
		delete(c.pins, id)
	}
	pattern.Release(p, c.res)
}

func (c *Cache) discardImage(num uint32, img *image.Image) {
	Logger().Debug("discarding image", "object", num)
	img.Release(c.res)
}

func (c *Cache) discardProfile(id pdf.Identity, p *color.ICCProfile) {
	Logger().Debug("discarding ICC profile", "id", id.String())
	if sum, ok := c.digestOf[p]; ok && c.byDigest[sum] == c.profileID[p] {
		delete(c.byDigest, sum)
	}
	delete(c.digestOf, p)
	delete(c.profileID, p)
}

// resolver gives the loaders access to the cache while the cache mutex is
// held.
type resolver struct {
	c *Cache
}

func (r resolver) ColorSpace(obj pdf.Object, resources pdf.Dict) (color.Space, error) {
	return r.c.colorSpace(obj, resources)
}

func (r resolver) ICCProfile(obj pdf.Object) (*color.ICCProfile, error) {
	return r.c.iccProfile(obj)
}

func (r resolver) ReleaseColorSpace(obj pdf.Object) {
	r.c.releaseColorSpace(obj, nil)
}

func (r resolver) ReleaseICCProfile(p *color.ICCProfile) {
	r.c.releaseICCProfile(p)
}

func (r resolver) FontFile(obj pdf.Object) (*font.File, error) {
	return r.c.fontFile(obj)
}

var (
	_ color.Resolver  = resolver{}
	_ font.FileLoader = resolver{}
)
