// Copyright 2018 Fabian Wenzelmann
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package photomosaic

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

var (
	// ImageCacheSize is the size of images caches. Composing a mosaic that uses
	// the same tile more than once is much faster if resized tiles are cached.
	// This variable controls the size of such caches, it must be a number ≥ 1.
	ImageCacheSize = 15
)

// ResizeStrategy is a function that scales an image (img) to an image of
// exactly the size defined by tileWidth and tileHeight.
// This is used to compose the mosaic when the selected catalog images must be
// resized to fit in the tiles.
//
// The difference between ResizeStrategy and ImageResizer is that we think of
// an ImageResizer as an "engine", for example a libarary, that performs the
// of scaling an image exactly to a specific width and height.
// A ResizeStrategy might first resize an image to some other size and then
// return a subimage.
type ResizeStrategy func(resizer ImageResizer, tileWidth, tileHeight uint, img image.Image) image.Image

// ForceResize is a resize strategy that resizes to the given width and height,
// ignoring the ration of the original image.
func ForceResize(resizer ImageResizer, tileWidth, tileHeight uint, img image.Image) image.Image {
	return resizer.Resize(tileWidth, tileHeight, img)
}

// CropResize first crops the centered square of img and then resizes it.
// Archive tiles are square already, but it keeps non-square tiles from being
// distorted.
func CropResize(resizer ImageResizer, tileWidth, tileHeight uint, img image.Image) image.Image {
	return resizer.Resize(tileWidth, tileHeight, CropSquare(img))
}

// ImageCache is used to cache resized versions of tiles during mosaic
// composition. If duplicates are allowed the same tile might appear often in a
// mosaic. This and the fact that resizing an image is not very fast makes it
// useful to cache the images. The cache has a fixed size, the oldest entry is
// removed first.
//
// Caches are safe for concurrent use.
type ImageCache struct {
	m           *sync.Mutex
	size        int
	content     map[string]image.Image
	insertOrder []string
}

// NewImageCache returns an empty image cache. size is the number of images that
// will be cached. size must be ≥ 1.
func NewImageCache(size int) *ImageCache {
	if size <= 0 {
		size = 1
	}
	var m sync.Mutex
	return &ImageCache{
		m:           &m,
		size:        size,
		content:     make(map[string]image.Image, size),
		insertOrder: make([]string, 0, size),
	}
}

func (cache *ImageCache) keyFormat(id ImageID, size int, rotated bool) string {
	return fmt.Sprintf("%d-%d-%v", id, size, rotated)
}

func (cache *ImageCache) lookup(key string) image.Image {
	if img, has := cache.content[key]; has {
		return img
	}
	return nil
}

// Put adds an image to the cache. Usually Put is called after Get: If the
// image was not found in the cache it is scaled and then added to the cache via
// Put.
func (cache *ImageCache) Put(id ImageID, size int, rotated bool, img image.Image) {
	cache.m.Lock()
	defer cache.m.Unlock()
	keyFmt := cache.keyFormat(id, size, rotated)
	// first check if image already in cache, if yes do nothing
	if lookup := cache.lookup(keyFmt); lookup != nil {
		return
	}
	if len(cache.insertOrder) >= cache.size {
		// cache full, remove first element form cache
		fst := cache.insertOrder[0]
		cache.insertOrder = cache.insertOrder[1:]
		delete(cache.content, fst)
	}
	cache.insertOrder = append(cache.insertOrder, keyFmt)
	cache.content[keyFmt] = img
}

// Get returns the image from the cache. If the return value is nil the image
// was not found in the cache and should be added to the cache by Put.
func (cache *ImageCache) Get(id ImageID, size int, rotated bool) image.Image {
	cache.m.Lock()
	defer cache.m.Unlock()
	return cache.lookup(cache.keyFormat(id, size, rotated))
}

// Len returns the number of cached images.
func (cache *ImageCache) Len() int {
	cache.m.Lock()
	defer cache.m.Unlock()
	return len(cache.insertOrder)
}

// Compositor draws the tiles of a placement onto a canvas.
type Compositor struct {
	Storage  ImageStorage
	Resizer  ImageResizer
	Strategy ResizeStrategy
	Cache    *ImageCache
}

// NewCompositor returns a compositor using ForceResize and a cache of
// ImageCacheSize tiles.
func NewCompositor(storage ImageStorage, resizer ImageResizer) *Compositor {
	return &Compositor{
		Storage:  storage,
		Resizer:  resizer,
		Strategy: ForceResize,
		Cache:    NewImageCache(ImageCacheSize),
	}
}

// CompositionInput describes what should be drawn.
type CompositionInput struct {
	Plan      *LayoutPlan
	Placement *Placement
	// Origin is the image used for OriginalImage cells, usually the centered
	// square of the unrotated source. It must be set if the placement contains
	// such a cell.
	Origin image.Image
	// Reference is the working image resized to the grid size, tiles are
	// blended with the corresponding area. Only required if Blend > 0.
	Reference image.Image
	// Blend is the weight of the reference in percent (0 to 100).
	Blend int
	// Rotated means that all tiles are rotated by 90 degrees counter-clockwise.
	Rotated bool
}

// NewCanvas returns a white image of the canvas size of plan.
func NewCanvas(plan *LayoutPlan) *image.RGBA {
	canvas := image.NewRGBA(plan.CanvasRect())
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return canvas
}

// loadTile returns the resized (and rotated) image for a cell.
func (c *Compositor) loadTile(choice TileChoice, size int, in CompositionInput) (image.Image, error) {
	var id ImageID
	switch choice := choice.(type) {
	case CatalogTile:
		id = ImageID(choice.Index)
	case OriginalImage:
		if in.Origin == nil {
			return nil, errors.New("No origin image given for original cell")
		}
		img := c.Strategy(c.Resizer, uint(size), uint(size), in.Origin)
		if in.Rotated {
			img = imaging.Rotate90(img)
		}
		return img, nil
	default:
		return nil, fmt.Errorf("Unknown tile choice %T", choice)
	}
	if c.Cache != nil {
		if img := c.Cache.Get(id, size, in.Rotated); img != nil {
			return img, nil
		}
	}
	img, err := c.Storage.LoadImage(id)
	if err != nil {
		return nil, err
	}
	img = c.Strategy(c.Resizer, uint(size), uint(size), img)
	if in.Rotated {
		img = imaging.Rotate90(img)
	}
	if c.Cache != nil {
		c.Cache.Put(id, size, in.Rotated, img)
	}
	return img, nil
}

// Compose creates the canvas and draws all tiles in placement order.
// The canvas is owned by the caller afterwards.
func (c *Compositor) Compose(in CompositionInput) (*image.RGBA, error) {
	plan, placement := in.Plan, in.Placement
	if placement.XD != plan.XD || placement.YD != plan.YD {
		return nil, errors.Wrapf(ErrDimensionMismatch, "Placement for %dx%d grid, layout for %dx%d grid",
			placement.XD, placement.YD, plan.XD, plan.YD)
	}
	if in.Blend < 0 || in.Blend > 100 {
		return nil, fmt.Errorf("Blend must be between 0 and 100, got %d", in.Blend)
	}
	if in.Blend > 0 && in.Reference == nil {
		return nil, errors.New("Blending requires a reference image")
	}
	canvas := NewCanvas(plan)
	offset := image.Pt(plan.Left, plan.Top)
	opacity := float64(in.Blend) / 100.0
	for _, cell := range placement.Order {
		choice := placement.At(cell)
		tile, err := c.loadTile(choice, plan.TilePixels, in)
		if err != nil {
			return nil, errors.Wrapf(err, "Composing cell %s", cell)
		}
		area := plan.CellRect(cell)
		if in.Blend > 0 {
			// the reference is aligned with the grid, not the canvas
			reference := imaging.Crop(in.Reference, area.Sub(offset).Add(in.Reference.Bounds().Min))
			tile = imaging.Overlay(tile, reference, tile.Bounds().Min, opacity)
		}
		insertTile(canvas, area, tile)
	}
	return canvas, nil
}

// insertTile draws tile into the area of canvas, the tile must have the size
// of the area.
func insertTile(into *image.RGBA, area image.Rectangle, tile image.Image) {
	if Debug {
		if tile.Bounds().Size() != area.Size() {
			log.WithFields(log.Fields{
				"tile": tile.Bounds().Size(),
				"area": area.Size(),
			}).Warn("Tile size doesn't match area")
		}
	}
	draw.Draw(into, area, tile, tile.Bounds().Min, draw.Src)
}
