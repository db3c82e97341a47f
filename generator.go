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
	"runtime"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// MosaicOptions contains all parameters of a mosaic run.
type MosaicOptions struct {
	// Dim is the grid dimension, it must be the dimension of the catalog.
	Dim  int
	Page PageSize
	// TileMM is the edge length of a tile in millimeters.
	TileMM float64
	// MarginMM is the white border on each side in millimeters.
	MarginMM        float64
	AllowDuplicates bool
	// Blend is the weight of the source in each tile in percent.
	Blend int
	DPI   int
	// Banner enables the description in the bottom margin.
	Banner bool
	// FontPath is a TrueType font for the banner, the built-in font is used if
	// empty.
	FontPath string
	// OriginTile places the cropped source into the bottom left cell.
	OriginTile    bool
	ThumbSize     int
	MaxAxisPixels int
	// NumRoutines is used for matching if duplicates are allowed.
	NumRoutines int
	CacheSize   int
	// Metric is the name of a registered vector metric, empty means the
	// euclidean signature distance.
	Metric  string
	Resizer ImageResizer
	// ValidateTiles decodes tiles before they're used (see Scheduler).
	ValidateTiles bool
	// Score computes the similarity of the grid and the source.
	Score bool
	// Progress is called after each placed cell (may be nil).
	Progress ProgressFunc
	// ProgressStep logs the placement progress every ProgressStep cells if
	// Progress is nil. 0 disables logging.
	ProgressStep int
	// Now returns the date printed in the banner, time.Now if nil.
	Now func() time.Time
}

// DefaultMosaicOptions returns the options of a typical A1 print.
func DefaultMosaicOptions() MosaicOptions {
	return MosaicOptions{
		Dim:             2,
		Page:            PageSizes["A1"],
		TileMM:          10,
		MarginMM:        20,
		AllowDuplicates: false,
		Blend:           0,
		DPI:             DefaultDPI,
		Banner:          true,
		OriginTile:      true,
		ThumbSize:       ThumbSize,
		MaxAxisPixels:   MaxAxisPixels,
		NumRoutines:     runtime.NumCPU(),
		CacheSize:       ImageCacheSize,
		Metric:          "",
		Resizer:         DefaultResizer,
		ValidateTiles:   true,
		Score:           true,
	}
}

// Validate checks the options that don't depend on the layout.
func (opts MosaicOptions) Validate() error {
	switch {
	case opts.Dim < 1:
		return errors.Wrapf(ErrInvalidLayout, "Grid dimension must be at least 1, got %d", opts.Dim)
	case opts.Blend < 0 || opts.Blend > 100:
		return errors.Wrapf(ErrInvalidLayout, "Blend must be between 0 and 100, got %d", opts.Blend)
	case opts.DPI < MinDPI:
		return errors.Wrapf(ErrInvalidLayout, "DPI must be at least %d, got %d", MinDPI, opts.DPI)
	case opts.TileMM <= 0:
		return errors.Wrapf(ErrInvalidLayout, "Tile size must be positive, got %g", opts.TileMM)
	case opts.MarginMM < 0 || 2*opts.MarginMM >= float64(IntMin(opts.Page.Width, opts.Page.Height)):
		return errors.Wrapf(ErrInvalidLayout, "Margin %gmm invalid for page %s", opts.MarginMM, opts.Page)
	case opts.Page.Width > opts.Page.Height:
		return errors.Wrapf(ErrInvalidLayout, "Page %s must be in portrait orientation", opts.Page)
	}
	if opts.Metric != "" {
		if _, has := GetVectorMetric(opts.Metric); !has {
			return fmt.Errorf("Unknown metric \"%s\"", opts.Metric)
		}
	}
	return nil
}

// MosaicResult is the outcome of GenerateMosaic.
type MosaicResult struct {
	RunID     string
	Image     *image.RGBA
	Plan      *LayoutPlan
	Placement *Placement
	// Working is the source image in the orientation used for the grid.
	Working   image.Image
	Rotated   bool
	TilesUsed int
	// Banner is the banner text, empty if no banner was drawn.
	Banner string
	// Similarity is the score of the grid in percent, -1 if not computed.
	Similarity     float64
	DistanceMean   float64
	DistanceStdDev float64
}

// GridImage returns the part of the mosaic covered by tiles (no margins, no
// banner).
func (r *MosaicResult) GridImage() image.Image {
	return r.Image.SubImage(r.Plan.GridRect())
}

// Score computes the Similarity of the grid and the working image.
func (r *MosaicResult) Score(resizer ImageResizer) (float64, error) {
	return Similarity(r.Working, r.GridImage(), resizer)
}

// GenerateMosaic creates a mosaic of source from the tiles in catalog.
// storage must contain the tile images in catalog order (see
// NewCatalogImageDB).
//
// Landscape sources are rotated by 90 degrees, so the grid is always built in
// portrait orientation. The mosaic is not written anywhere, see SaveImage.
func GenerateMosaic(source image.Image, catalog *Catalog, storage ImageStorage, opts MosaicOptions) (*MosaicResult, error) {
	runID := uuid.New().String()
	logger := log.WithFields(log.Fields{"run": runID})
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if catalog.Dim != opts.Dim {
		return nil, errors.Wrapf(ErrDimensionMismatch,
			"Catalog has dimension %d, mosaic requires dimension %d", catalog.Dim, opts.Dim)
	}
	if int(storage.NumImages()) != catalog.Len() {
		return nil, fmt.Errorf("Storage contains %d images, catalog %d tiles",
			storage.NumImages(), catalog.Len())
	}
	resizer := opts.Resizer
	if resizer == nil {
		resizer = DefaultResizer
	}

	working := source
	rotated := IsLandscape(source)
	if rotated {
		working = imaging.Rotate90(source)
		logger.Info("Rotating landscape image to portrait")
	}
	workBounds := working.Bounds()

	plan, planErr := PlanLayout(LayoutRequest{
		Canvas:        opts.Page,
		MarginMM:      opts.MarginMM,
		TileMM:        opts.TileMM,
		SourceWidth:   workBounds.Dx(),
		SourceHeight:  workBounds.Dy(),
		DPI:           opts.DPI,
		ThumbSize:     opts.ThumbSize,
		MaxAxisPixels: opts.MaxAxisPixels,
	})
	if planErr != nil {
		return nil, planErr
	}
	logger.WithFields(log.Fields{
		"grid":   fmt.Sprintf("%dx%d", plan.XD, plan.YD),
		"tile":   plan.TilePixels,
		"canvas": fmt.Sprintf("%dx%d", plan.CanvasWidth, plan.CanvasHeight),
		"mm":     fmt.Sprintf("%dx%d", plan.WidthMM, plan.HeightMM),
	}).Info("Computed layout")

	matcher := NewTileMatcher(catalog)
	if opts.Metric != "" {
		matcher.Metric, _ = GetVectorMetric(opts.Metric)
	}
	scheduler := NewScheduler(matcher, opts.AllowDuplicates)
	scheduler.NumRoutines = opts.NumRoutines
	scheduler.Logger = logger
	scheduler.Progress = opts.Progress
	if scheduler.Progress == nil && opts.ProgressStep > 0 {
		scheduler.Progress = LoggerProgressFunc("Placing tiles", plan.XD*plan.YD, opts.ProgressStep)
	}
	if opts.OriginTile {
		scheduler.Origin = plan.OriginCell(rotated)
	}
	if opts.ValidateTiles {
		scheduler.Validate = func(index int) error {
			return ValidateTile(storage, ImageID(index))
		}
	}
	if err := scheduler.CheckCapacity(plan.XD, plan.YD); err != nil {
		return nil, err
	}

	start := time.Now()
	sampleW, sampleH := plan.SampleSize(opts.Dim)
	sample := resizer.Resize(uint(sampleW), uint(sampleH), working)
	placement, tilesUsed, placeErr := scheduler.Place(sample, plan.XD, plan.YD)
	if placeErr != nil {
		return nil, placeErr
	}
	mean, stdDev := placement.DistanceStats()
	logger.WithFields(log.Fields{
		"cells":   plan.XD * plan.YD,
		"used":    tilesUsed,
		"mean":    fmt.Sprintf("%.2f", mean),
		"stddev":  fmt.Sprintf("%.2f", stdDev),
		"elapsed": time.Since(start),
	}).Info("Placed tiles")

	in := CompositionInput{
		Plan:      plan,
		Placement: placement,
		Blend:     opts.Blend,
		Rotated:   rotated,
	}
	if opts.OriginTile {
		in.Origin = CropSquare(source)
	}
	if opts.Blend > 0 {
		in.Reference = resizer.Resize(uint(plan.GridWidth()), uint(plan.GridHeight()), working)
	}
	compositor := NewCompositor(storage, resizer)
	compositor.Cache = NewImageCache(opts.CacheSize)
	start = time.Now()
	canvas, composeErr := compositor.Compose(in)
	if composeErr != nil {
		return nil, composeErr
	}
	logger.WithField("elapsed", time.Since(start)).Info("Composed mosaic")

	res := &MosaicResult{
		RunID:          runID,
		Image:          canvas,
		Plan:           plan,
		Placement:      placement,
		Working:        working,
		Rotated:        rotated,
		TilesUsed:      tilesUsed,
		Similarity:     -1,
		DistanceMean:   mean,
		DistanceStdDev: stdDev,
	}
	if opts.Score {
		score, scoreErr := res.Score(resizer)
		if scoreErr != nil {
			return nil, scoreErr
		}
		res.Similarity = score
		logger.WithField("similarity", fmt.Sprintf("%.2f%%", score)).Info("Computed similarity")
	}
	if !opts.Banner || opts.MarginMM == 0 {
		logger.Info("Skipping banner")
		return res, nil
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	text := BannerInfo{
		XD:              plan.XD,
		YD:              plan.YD,
		ArchiveSize:     catalog.Len(),
		Dim:             opts.Dim,
		TileMM:          opts.TileMM,
		AllowDuplicates: opts.AllowDuplicates,
		Blend:           opts.Blend,
		DPI:             opts.DPI,
		TilesUsed:       tilesUsed,
		Rotated:         rotated,
		Date:            now(),
	}.Text()
	logger.Info(text)
	if DrawBanner(canvas, plan, text, BannerFace(opts.FontPath), rotated) {
		res.Banner = text
	}
	return res, nil
}
