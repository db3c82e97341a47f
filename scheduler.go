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
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// TileChoice is the content of one grid cell: either a CatalogTile or the
// OriginalImage.
type TileChoice interface {
	isTileChoice()
}

// CatalogTile is a tile from the catalog, Distance is the signature distance
// to the sampled cell.
type CatalogTile struct {
	Index    int
	Distance float64
}

// OriginalImage means that the cell shows the (cropped) source image itself.
type OriginalImage struct{}

func (CatalogTile) isTileChoice()   {}
func (OriginalImage) isTileChoice() {}

// Placement is the result of scheduling: a choice for each cell of an
// xd × yd grid, stored row by row (Cells[row][col]), together with the order
// in which the cells were filled.
type Placement struct {
	XD, YD int
	Cells  [][]TileChoice
	Order  []GridCell
}

func newPlacement(xd, yd int) *Placement {
	cells := make([][]TileChoice, yd)
	for row := range cells {
		cells[row] = make([]TileChoice, xd)
	}
	return &Placement{XD: xd, YD: yd, Cells: cells, Order: make([]GridCell, 0, xd*yd)}
}

// At returns the choice for cell.
func (p *Placement) At(cell GridCell) TileChoice {
	return p.Cells[cell.Row][cell.Col]
}

func (p *Placement) set(cell GridCell, choice TileChoice) {
	p.Cells[cell.Row][cell.Col] = choice
	p.Order = append(p.Order, cell)
}

// Distances returns the distances of all catalog tiles in placement order.
func (p *Placement) Distances() []float64 {
	res := make([]float64, 0, len(p.Order))
	for _, cell := range p.Order {
		if tile, ok := p.At(cell).(CatalogTile); ok {
			res = append(res, tile.Distance)
		}
	}
	return res
}

// DistanceStats returns mean and standard deviation of the distances of all
// placed catalog tiles. Both are 0 if no catalog tile was placed.
func (p *Placement) DistanceStats() (mean, stdDev float64) {
	distances := p.Distances()
	switch len(distances) {
	case 0:
		return 0, 0
	case 1:
		return distances[0], 0
	default:
		return stat.MeanStdDev(distances, nil)
	}
}

// Scheduler assigns tiles to the cells of a grid. Cells are visited in
// SpiralOrder, so the center of the image gets the best matching tiles if
// duplicates are not allowed.
type Scheduler struct {
	Matcher *TileMatcher
	// Dim is the grid dimension of the catalog.
	Dim int
	// AllowDuplicates allows a tile to be used in more than one cell.
	AllowDuplicates bool
	// Origin is the cell showing the source image, or NoOriginCell.
	Origin GridCell
	// Validate is called once for each tile before it is used for the first
	// time (may be nil). If it returns an error the tile is never chosen and
	// the next best tile is used.
	Validate func(index int) error
	// NumRoutines is the number of go routines used for matching if
	// duplicates are allowed. Without duplicates matching is sequential.
	NumRoutines int
	// Progress is called after each placed cell (may be nil).
	Progress ProgressFunc
	// Logger is used for all log messages, if nil the standard logger is used.
	Logger *log.Entry
}

// NewScheduler returns a sequential scheduler without origin cell.
func NewScheduler(matcher *TileMatcher, allowDuplicates bool) *Scheduler {
	return &Scheduler{
		Matcher:         matcher,
		Dim:             matcher.Catalog.Dim,
		AllowDuplicates: allowDuplicates,
		Origin:          NoOriginCell,
		NumRoutines:     1,
	}
}

func (s *Scheduler) logger() *log.Entry {
	if s.Logger != nil {
		return s.Logger
	}
	return log.NewEntry(log.StandardLogger())
}

// CheckCapacity returns an error wrapping ErrNotEnoughTiles if duplicates are
// not allowed and the grid has more cells than the catalog has tiles.
func (s *Scheduler) CheckCapacity(xd, yd int) error {
	if !s.AllowDuplicates && xd*yd > s.Matcher.Catalog.Len() {
		return errors.Wrapf(ErrNotEnoughTiles,
			"Need %d tiles for %dx%d grid but catalog has only %d tiles and duplicates are not allowed",
			xd*yd, xd, yd, s.Matcher.Catalog.Len())
	}
	return nil
}

// validationCache remembers the result of Validate for each tile.
type validationCache struct {
	mutex    sync.Mutex
	validate func(index int) error
	results  map[int]error
}

func newValidationCache(validate func(index int) error) *validationCache {
	return &validationCache{validate: validate, results: make(map[int]error)}
}

func (c *validationCache) check(index int) error {
	if c.validate == nil {
		return nil
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err, has := c.results[index]; has {
		return err
	}
	err := c.validate(index)
	c.results[index] = err
	return err
}

// match finds the best valid tile for sig. Tiles failing validation are added
// to rejected and matching is repeated.
func (s *Scheduler) match(sig ColorSignature, used, rejected *UsedSet, cache *validationCache, cell GridCell) (CatalogTile, error) {
	for {
		index, dist, err := s.Matcher.BestMatch(sig, used, s.AllowDuplicates, rejected)
		if err != nil {
			return CatalogTile{}, errors.Wrapf(err, "Matching cell %s", cell)
		}
		if validErr := cache.check(index); validErr != nil {
			s.logger().WithFields(log.Fields{
				log.ErrorKey: validErr,
				"tile":       s.Matcher.Catalog.Entries[index].Identifier,
				"cell":       cell.String(),
			}).Warn("Rejecting unreadable tile")
			rejected.Add(index)
			continue
		}
		return CatalogTile{Index: index, Distance: dist}, nil
	}
}

// Place assigns a tile to each cell of a grid with xd columns and yd rows.
// sample must be the source image resized to Dim·xd × Dim·yd pixels, the
// signature of a cell is taken with SampleSignature.
//
// It returns the placement and the number of different catalog tiles used.
// Before placing anything CheckCapacity is called.
func (s *Scheduler) Place(sample image.Image, xd, yd int) (*Placement, int, error) {
	if xd <= 0 || yd <= 0 {
		return nil, 0, errors.Wrapf(ErrInvalidLayout, "Invalid grid %dx%d", xd, yd)
	}
	if s.Dim != s.Matcher.Catalog.Dim {
		return nil, 0, errors.Wrapf(ErrDimensionMismatch,
			"Scheduler for dimension %d but catalog has dimension %d", s.Dim, s.Matcher.Catalog.Dim)
	}
	bounds := sample.Bounds()
	if bounds.Dx() != s.Dim*xd || bounds.Dy() != s.Dim*yd {
		return nil, 0, errors.Wrapf(ErrDimensionMismatch,
			"Sample image has size %dx%d, expected %dx%d", bounds.Dx(), bounds.Dy(), s.Dim*xd, s.Dim*yd)
	}
	if err := s.CheckCapacity(xd, yd); err != nil {
		return nil, 0, err
	}
	order := SpiralOrder(xd, yd)
	if s.AllowDuplicates && s.NumRoutines > 1 {
		return s.placeConcurrent(sample, xd, yd, order)
	}
	return s.placeSequential(sample, xd, yd, order)
}

func (s *Scheduler) record(res *Placement, used *UsedSet, cell GridCell, choice TileChoice, num int) {
	res.set(cell, choice)
	if tile, ok := choice.(CatalogTile); ok {
		used.Add(tile.Index)
		if Debug {
			s.logger().WithFields(log.Fields{
				"cell":     cell.String(),
				"tile":     s.Matcher.Catalog.Entries[tile.Index].Identifier,
				"distance": fmt.Sprintf("%.3f", tile.Distance),
			}).Debug("Placed tile")
		}
	}
	if s.Progress != nil {
		s.Progress(num)
	}
}

func (s *Scheduler) placeSequential(sample image.Image, xd, yd int, order []GridCell) (*Placement, int, error) {
	res := newPlacement(xd, yd)
	used := NewUsedSet(len(order))
	rejected := NewUsedSet(0)
	cache := newValidationCache(s.Validate)
	for num, cell := range order {
		if cell == s.Origin {
			s.record(res, used, cell, OriginalImage{}, num)
			continue
		}
		sig := SampleSignature(sample, cell.Row, cell.Col, s.Dim)
		tile, err := s.match(sig, used, rejected, cache, cell)
		if err != nil {
			return nil, 0, err
		}
		s.record(res, used, cell, tile, num)
	}
	return res, used.Len(), nil
}

// placeConcurrent is only used if duplicates are allowed: the choice for a
// cell does not depend on other cells then, so the cells can be matched in
// any order. The results are still recorded in spiral order.
func (s *Scheduler) placeConcurrent(sample image.Image, xd, yd int, order []GridCell) (*Placement, int, error) {
	choices := make([]TileChoice, len(order))
	cache := newValidationCache(s.Validate)
	var group errgroup.Group
	group.SetLimit(s.NumRoutines)
	for i, cell := range order {
		i, cell := i, cell
		if cell == s.Origin {
			choices[i] = OriginalImage{}
			continue
		}
		group.Go(func() error {
			sig := SampleSignature(sample, cell.Row, cell.Col, s.Dim)
			tile, err := s.match(sig, nil, NewUsedSet(0), cache, cell)
			if err != nil {
				return err
			}
			choices[i] = tile
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, 0, err
	}
	res := newPlacement(xd, yd)
	used := NewUsedSet(len(order))
	for num, cell := range order {
		s.record(res, used, cell, choices[num], num)
	}
	return res, used.Len(), nil
}
