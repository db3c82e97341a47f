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
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BannerFontSize is the size of the banner text in pixels.
const BannerFontSize = 40

// BannerInfo contains the facts printed in the banner.
type BannerInfo struct {
	// XD and YD are the grid dimensions as computed by the layout.
	XD, YD          int
	ArchiveSize     int
	Dim             int
	TileMM          float64
	AllowDuplicates bool
	Blend           int
	DPI             int
	TilesUsed       int
	// Rotated swaps XD and YD in the text, the mosaic is hung in landscape
	// orientation then.
	Rotated bool
	Date    time.Time
}

// Text returns the banner text.
func (info BannerInfo) Text() string {
	p := message.NewPrinter(language.English)
	xd, yd := info.XD, info.YD
	if info.Rotated {
		xd, yd = yd, xd
	}
	var b strings.Builder
	b.WriteString(p.Sprintf("Mosaic consists of %d tiles ", xd*yd))
	b.WriteString(fmt.Sprintf("(width %d and height %d) ", xd, yd))
	b.WriteString(p.Sprintf("from archive of %d photos. ", info.ArchiveSize))
	b.WriteString(fmt.Sprintf("Colour table dimension %d. Tile size %smm. ",
		info.Dim, strconv.FormatFloat(info.TileMM, 'f', -1, 64)))
	if info.AllowDuplicates {
		b.WriteString("Duplicate tiles allowed.")
	} else {
		b.WriteString("Duplicate tiles not allowed.")
	}
	if info.Blend > 0 {
		b.WriteString(fmt.Sprintf(" Tile blending set at %d%%.", info.Blend))
	} else {
		b.WriteString(" Tile blending not used.")
	}
	b.WriteString(fmt.Sprintf(" Resolution %d dpi.", info.DPI))
	if info.AllowDuplicates {
		b.WriteString(p.Sprintf(" Total unique tiles used %d.", info.TilesUsed))
	}
	b.WriteString(" Generated on " + info.Date.Format("2006-01-02") + ".")
	return b.String()
}

// LoadBannerFont parses the TrueType font in path and returns a face of the
// given size in pixels.
func LoadBannerFont(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ttf, err := truetype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// BannerFace returns the face for the banner. If path is empty or the font
// can't be loaded basicfont.Face7x13 is returned.
func BannerFace(path string) font.Face {
	if path == "" {
		log.Info("Using the default font for the banner")
		return basicfont.Face7x13
	}
	face, err := LoadBannerFont(path, BannerFontSize)
	if err != nil {
		log.WithFields(log.Fields{
			log.ErrorKey: err,
			"font":       path,
		}).Warn("Font not found, using the default font")
		return basicfont.Face7x13
	}
	return face
}

// DrawBanner writes text in black into the bottom margin of canvas: it starts
// at one and a half times the left margin, BannerBufferMM below the grid.
// If rotated is true the strip containing the text is turned by 180 degrees.
//
// The banner is only drawn if it fits into the bottom margin, the result is
// false if it was skipped.
func DrawBanner(canvas *image.RGBA, plan *LayoutPlan, text string, face font.Face, rotated bool) bool {
	metrics := face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Ceil()
	left := plan.Left * 3 / 2
	top := plan.BannerTop()
	if plan.Left == 0 || top+height > canvas.Bounds().Max.Y {
		log.WithFields(log.Fields{
			"top":    top,
			"height": height,
			"canvas": canvas.Bounds().Dy(),
		}).Warn("Banner doesn't fit into margin, skipping banner")
		return false
	}
	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(left, top+metrics.Ascent.Ceil()),
	}
	drawer.DrawString(text)
	if rotated {
		strip := image.Rect(canvas.Bounds().Min.X, top, canvas.Bounds().Max.X, top+height)
		turned := imaging.Rotate180(canvas.SubImage(strip))
		draw.Draw(canvas, strip, turned, turned.Bounds().Min, draw.Src)
	}
	return true
}
