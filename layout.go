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
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	// MMPerInch is the number of millimeters in an inch.
	MMPerInch = 25.4

	// DefaultDPI is the resolution used if nothing else is configured.
	DefaultDPI = 300

	// MinDPI is the smallest supported resolution. For DPI >= MinDPI a pixel is
	// smaller than half a millimeter, so converting millimeters to pixels and
	// back always yields the original (integer) millimeters.
	MinDPI = 72

	// ThumbSize is the size of the square tiles in a prepared archive. Tiles
	// are never scaled above this size. 840 is divisible by 2, ..., 8.
	ThumbSize = 840

	// MaxAxisPixels is the default limit for the width and height of a mosaic
	// in pixels. It's the largest size a JPEG image can have.
	MaxAxisPixels = 65535

	// BannerBufferMM is the space between the mosaic and the banner.
	BannerBufferMM = 12
)

// MMToPixels converts mm millimeters to pixels for the given resolution.
// The result is rounded half away from zero, this is the only rounding rule
// used for unit conversions.
func MMToPixels(mm float64, dpi int) int {
	return int(math.Round(mm * float64(dpi) / MMPerInch))
}

// PixelsToMM converts pixels to millimeters, rounded like MMToPixels.
func PixelsToMM(pixels, dpi int) int {
	return int(math.Round(float64(pixels) * MMPerInch / float64(dpi)))
}

// PageSize is the physical size of the canvas in millimeters, always in
// portrait orientation (Width <= Height).
type PageSize struct {
	Name          string
	Width, Height int
}

func (p PageSize) String() string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// PageSizes contains the named page sizes.
var PageSizes = map[string]PageSize{
	"A1": {Name: "A1", Width: 594, Height: 841},
	"A0": {Name: "A0", Width: 841, Height: 1189},
	"B1": {Name: "B1", Width: 707, Height: 1000},
	"B0": {Name: "B0", Width: 1000, Height: 1414},
}

// PageSizeNames returns the sorted names of all entries in PageSizes.
func PageSizeNames() []string {
	res := make([]string, 0, len(PageSizes))
	for name := range PageSizes {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// ParsePageSize parses either the name of a page size (like "A1", case does
// not matter) or a custom size "WxH" in millimeters. Width must not be greater
// than height.
func ParsePageSize(s string) (PageSize, error) {
	if page, has := PageSizes[strings.ToUpper(strings.TrimSpace(s))]; has {
		return page, nil
	}
	w, h, err := ParseDimensions(s)
	if err != nil {
		return PageSize{}, fmt.Errorf("Unknown page size \"%s\", use one of %s or WxH: %s",
			s, strings.Join(PageSizeNames(), ", "), err.Error())
	}
	if w > h {
		return PageSize{}, fmt.Errorf("Width must be less than or equal to height for custom page size, got %s", s)
	}
	return PageSize{Width: w, Height: h}, nil
}

// LayoutRequest contains everything needed to compute a LayoutPlan.
type LayoutRequest struct {
	Canvas PageSize
	// MarginMM is the white border on each side of the canvas.
	MarginMM float64
	// TileMM is the requested edge length of a tile.
	TileMM float64
	// SourceWidth and SourceHeight are the size of the (possibly rotated)
	// source image, only the ratio is used.
	SourceWidth, SourceHeight int
	DPI                       int
	// ThumbSize is the upper bound for the tile size in pixels, ThumbSize if 0.
	ThumbSize int
	// MaxAxisPixels is the upper bound for the grid width and height in pixels,
	// MaxAxisPixels if 0.
	MaxAxisPixels int
}

// LayoutPlan is the geometry of a mosaic. The grid consists of XD × YD square
// tiles of TilePixels pixels and is placed on a canvas of CanvasWidth ×
// CanvasHeight pixels at offset (Left, Top).
type LayoutPlan struct {
	XD, YD                    int
	TilePixels                int
	CanvasWidth, CanvasHeight int
	// Left and Top are the margin on the left and top side. The margins on the
	// right and bottom are Left + ExtraX and Top + ExtraY, ExtraX and ExtraY are
	// 0 or 1.
	Left, Top      int
	ExtraX, ExtraY int
	DPI            int
	Canvas         PageSize
	// WidthMM and HeightMM are the physical size of the canvas, computed from
	// the pixel sizes.
	WidthMM, HeightMM int
}

// PlanLayout computes the layout of a mosaic.
//
// The printable area is the canvas minus the margins. The maximal number of
// tiles in each direction is the printable size divided by the tile size. If
// the source is narrower than this area the number of rows is the maximum and
// the number of columns follows from the source ratio, otherwise the number of
// columns is the maximum.
//
// The tile size in pixels is the tile size converted with the DPI, but at most
// ThumbSize and at most what fits into the printable area. If the grid would
// be larger than MaxAxisPixels in one direction the tiles are shrunk. The remaining canvas pixels are the margin, an odd
// pixel is added on the right / bottom.
func PlanLayout(req LayoutRequest) (*LayoutPlan, error) {
	if req.ThumbSize <= 0 {
		req.ThumbSize = ThumbSize
	}
	if req.MaxAxisPixels <= 0 {
		req.MaxAxisPixels = MaxAxisPixels
	}
	switch {
	case req.DPI < MinDPI:
		return nil, errors.Wrapf(ErrInvalidLayout, "DPI must be at least %d, got %d", MinDPI, req.DPI)
	case req.Canvas.Width <= 0 || req.Canvas.Height <= 0:
		return nil, errors.Wrapf(ErrInvalidLayout, "Invalid canvas %s", req.Canvas)
	case req.Canvas.Width > req.Canvas.Height:
		return nil, errors.Wrapf(ErrInvalidLayout, "Canvas %s is not in portrait orientation", req.Canvas)
	case req.TileMM <= 0:
		return nil, errors.Wrapf(ErrInvalidLayout, "Tile size must be positive, got %g", req.TileMM)
	case req.MarginMM < 0:
		return nil, errors.Wrapf(ErrInvalidLayout, "Margin must not be negative, got %g", req.MarginMM)
	case req.SourceWidth <= 0 || req.SourceHeight <= 0:
		return nil, errors.Wrapf(ErrInvalidLayout, "Invalid source size %dx%d", req.SourceWidth, req.SourceHeight)
	}
	pageW := float64(req.Canvas.Width) - 2*req.MarginMM
	pageH := float64(req.Canvas.Height) - 2*req.MarginMM
	if pageW <= 0 || pageH <= 0 {
		return nil, errors.Wrapf(ErrInvalidLayout,
			"Margin %gmm leaves no space on canvas %s", req.MarginMM, req.Canvas)
	}

	outX, outY := pageW/req.TileMM, pageH/req.TileMM
	outRatio := outX / outY
	srcRatio := float64(req.SourceWidth) / float64(req.SourceHeight)
	var xd, yd int
	if srcRatio < outRatio {
		xd = int(outY * srcRatio)
		yd = int(outY)
	} else {
		xd = int(outX)
		yd = int(outX / srcRatio)
	}
	if xd < 1 || yd < 1 {
		return nil, errors.Wrapf(ErrInvalidLayout,
			"Tiles of %gmm don't fit on canvas %s (grid %dx%d)", req.TileMM, req.Canvas, xd, yd)
	}

	tilePixels := IntMin(req.ThumbSize, MMToPixels(req.TileMM, req.DPI))
	// rounding the tile up must not push the grid into the margins
	printW := int(pageW * float64(req.DPI) / MMPerInch)
	printH := int(pageH * float64(req.DPI) / MMPerInch)
	tilePixels = IntMin(tilePixels, IntMin(printW/xd, printH/yd))
	if xd*tilePixels > req.MaxAxisPixels || yd*tilePixels > req.MaxAxisPixels {
		tilePixels = req.MaxAxisPixels / IntMax(xd, yd)
	}
	if tilePixels < 1 {
		return nil, errors.Wrapf(ErrInvalidLayout, "Tile size of %gmm is less than a pixel", req.TileMM)
	}

	canvasW := MMToPixels(float64(req.Canvas.Width), req.DPI)
	canvasH := MMToPixels(float64(req.Canvas.Height), req.DPI)
	gridW, gridH := xd*tilePixels, yd*tilePixels
	fillX, fillY := canvasW-gridW, canvasH-gridH
	if fillX < 0 || fillY < 0 {
		return nil, errors.Wrapf(ErrCanvasOverflow,
			"Grid of %dx%d pixels doesn't fit on canvas of %dx%d pixels", gridW, gridH, canvasW, canvasH)
	}
	res := &LayoutPlan{
		XD:           xd,
		YD:           yd,
		TilePixels:   tilePixels,
		CanvasWidth:  canvasW,
		CanvasHeight: canvasH,
		Left:         fillX / 2,
		Top:          fillY / 2,
		ExtraX:       fillX % 2,
		ExtraY:       fillY % 2,
		DPI:          req.DPI,
		Canvas:       req.Canvas,
		WidthMM:      PixelsToMM(canvasW, req.DPI),
		HeightMM:     PixelsToMM(canvasH, req.DPI),
	}
	if res.WidthMM > req.Canvas.Width || res.HeightMM > req.Canvas.Height {
		return nil, errors.Wrapf(ErrCanvasOverflow,
			"Canvas of %dx%dmm exceeds requested canvas %s", res.WidthMM, res.HeightMM, req.Canvas)
	}
	return res, nil
}

// GridWidth returns the width of the tile grid in pixels.
func (p *LayoutPlan) GridWidth() int {
	return p.XD * p.TilePixels
}

// GridHeight returns the height of the tile grid in pixels.
func (p *LayoutPlan) GridHeight() int {
	return p.YD * p.TilePixels
}

// GridRect returns the area of the tile grid on the canvas.
func (p *LayoutPlan) GridRect() image.Rectangle {
	return image.Rect(p.Left, p.Top, p.Left+p.GridWidth(), p.Top+p.GridHeight())
}

// CanvasRect returns the bounds of the canvas.
func (p *LayoutPlan) CanvasRect() image.Rectangle {
	return image.Rect(0, 0, p.CanvasWidth, p.CanvasHeight)
}

// CellRect returns the area of cell on the canvas.
func (p *LayoutPlan) CellRect(cell GridCell) image.Rectangle {
	x0 := p.Left + cell.Col*p.TilePixels
	y0 := p.Top + cell.Row*p.TilePixels
	return image.Rect(x0, y0, x0+p.TilePixels, y0+p.TilePixels)
}

// SampleSize returns the size the source must be resized to for sampling
// with grid dimension d.
func (p *LayoutPlan) SampleSize(d int) (int, int) {
	return d * p.XD, d * p.YD
}

// OriginCell returns the cell that shows the source image: the bottom left
// cell, or the bottom right cell if the grid is rotated (in which case it is
// the bottom left cell once the print is turned).
func (p *LayoutPlan) OriginCell(rotated bool) GridCell {
	if rotated {
		return GridCell{Row: p.YD - 1, Col: p.XD - 1}
	}
	return GridCell{Row: p.YD - 1, Col: 0}
}

// BannerTop returns the y coordinate of the banner below the grid.
func (p *LayoutPlan) BannerTop() int {
	return p.Top + p.GridHeight() + MMToPixels(BannerBufferMM, p.DPI)
}
