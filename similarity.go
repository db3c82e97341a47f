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
	"math"

	"github.com/pkg/errors"
)

// maxColorDistance is the euclidean distance between black and white.
var maxColorDistance = math.Sqrt(3 * 255 * 255)

// Similarity compares a mosaic with its source. The source is resized to the
// size of the mosaic, then the euclidean distance of each pair of pixels is
// divided by the distance between black and white. The result is
// (1 - average distance) · 100, so identical images have a similarity of 100.
//
// If the source is larger than the mosaic in one direction an error wrapping
// ErrSourceTooLarge is returned.
func Similarity(source, mosaic image.Image, resizer ImageResizer) (float64, error) {
	srcBounds, mosaicBounds := source.Bounds(), mosaic.Bounds()
	width, height := mosaicBounds.Dx(), mosaicBounds.Dy()
	if srcBounds.Dx() > width || srcBounds.Dy() > height {
		return -1.0, errors.Wrapf(ErrSourceTooLarge, "Source %dx%d, mosaic %dx%d",
			srcBounds.Dx(), srcBounds.Dy(), width, height)
	}
	if width == 0 || height == 0 {
		return -1.0, errors.New("Can't compare empty images")
	}
	if resizer == nil {
		resizer = DefaultResizer
	}
	resized := resizer.Resize(uint(width), uint(height), source)
	resBounds := resized.Bounds()
	var sum float64
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c1 := ConvertRGB(resized.At(resBounds.Min.X+x, resBounds.Min.Y+y))
			c2 := ConvertRGB(mosaic.At(mosaicBounds.Min.X+x, mosaicBounds.Min.Y+y))
			sum += rgbDistance(c1, c2) / maxColorDistance
		}
	}
	avg := sum / float64(width*height)
	return (1.0 - avg) * 100.0, nil
}

// rgbDistance is EuclideanDistance on two colors without allocating vectors.
func rgbDistance(a, b RGB) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}
