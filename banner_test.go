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
	"image"
	"image/color"
	"testing"
	"time"

	"golang.org/x/image/font/basicfont"
)

func TestBannerText(t *testing.T) {
	date := time.Date(2018, time.June, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		info     BannerInfo
		expected string
	}{
		{
			BannerInfo{XD: 5, YD: 13, ArchiveSize: 12345, Dim: 2, TileMM: 10, DPI: 300, TilesUsed: 65, Date: date},
			"Mosaic consists of 65 tiles (width 5 and height 13) from archive of 12,345 photos. " +
				"Colour table dimension 2. Tile size 10mm. Duplicate tiles not allowed. " +
				"Tile blending not used. Resolution 300 dpi. Generated on 2018-06-01.",
		},
		{
			BannerInfo{XD: 80, YD: 53, ArchiveSize: 900, Dim: 3, TileMM: 7.5, AllowDuplicates: true,
				Blend: 20, DPI: 150, TilesUsed: 1234, Rotated: true, Date: date},
			"Mosaic consists of 4,240 tiles (width 53 and height 80) from archive of 900 photos. " +
				"Colour table dimension 3. Tile size 7.5mm. Duplicate tiles allowed. " +
				"Tile blending set at 20%. Resolution 150 dpi. Total unique tiles used 1,234. " +
				"Generated on 2018-06-01.",
		},
	}
	for _, tc := range tests {
		if got := tc.info.Text(); got != tc.expected {
			t.Errorf("Expected\n%s\ngot\n%s", tc.expected, got)
		}
	}
}

func bannerPlan() *LayoutPlan {
	return &LayoutPlan{
		XD: 2, YD: 2,
		TilePixels:  10,
		CanvasWidth: 300, CanvasHeight: 200,
		Left: 50, Top: 20,
		DPI: 72,
	}
}

// inkColumns returns the smallest and largest x coordinate of a non white
// pixel in canvas, -1 if there is none.
func inkColumns(canvas *image.RGBA) (int, int) {
	min, max := -1, -1
	bounds := canvas.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if canvas.RGBAAt(x, y) != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
				if min < 0 || x < min {
					min = x
				}
				if x > max {
					max = x
				}
			}
		}
	}
	return min, max
}

func TestDrawBanner(t *testing.T) {
	plan := bannerPlan()
	canvas := NewCanvas(plan)
	if !DrawBanner(canvas, plan, "Hello", basicfont.Face7x13, false) {
		t.Fatal("Expected banner to be drawn")
	}
	min, max := inkColumns(canvas)
	if min < 75 || max >= 75+5*7 {
		t.Errorf("Expected text between x=75 and x=110, got %d to %d", min, max)
	}

	canvas = NewCanvas(plan)
	if !DrawBanner(canvas, plan, "Hello", basicfont.Face7x13, true) {
		t.Fatal("Expected banner to be drawn")
	}
	min, max = inkColumns(canvas)
	if min < 300-75-5*7 || max > 300-75 {
		t.Errorf("Expected turned text between x=190 and x=225, got %d to %d", min, max)
	}
}

func TestDrawBannerSkipped(t *testing.T) {
	plan := bannerPlan()
	plan.Left = 0
	if DrawBanner(NewCanvas(plan), plan, "Hello", basicfont.Face7x13, false) {
		t.Error("Expected banner to be skipped without margin")
	}
	plan = bannerPlan()
	plan.CanvasHeight = 80
	if DrawBanner(NewCanvas(plan), plan, "Hello", basicfont.Face7x13, false) {
		t.Error("Expected banner to be skipped if it doesn't fit")
	}
}

func TestBannerFace(t *testing.T) {
	if face := BannerFace(""); face != basicfont.Face7x13 {
		t.Error("Expected default font for empty path")
	}
	if face := BannerFace("/does/not/exist.ttf"); face != basicfont.Face7x13 {
		t.Error("Expected default font for missing file")
	}
}
