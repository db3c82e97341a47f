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

	"github.com/pkg/errors"
)

// ColorSignature is the summary of an image: the average color of each cell
// in a d×d grid.
//
// Cells are stored column by column: the entry for the cell in column x and
// row y is at position x * d + y. A signature for dimension d always has
// d² entries.
type ColorSignature []RGB

// SignatureDim returns d for a signature of length d². If the length is not
// a square number the second return value is false.
func SignatureDim(numCells int) (int, bool) {
	d := int(math.Sqrt(float64(numCells)))
	for d*d > numCells {
		d--
	}
	for (d+1)*(d+1) <= numCells {
		d++
	}
	return d, d*d == numCells
}

// Dim returns the grid dimension d of the signature.
func (sig ColorSignature) Dim() int {
	d, _ := SignatureDim(len(sig))
	return d
}

// Equals returns true if both signatures have the same length and colors.
func (sig ColorSignature) Equals(other ColorSignature) bool {
	if len(sig) != len(other) {
		return false
	}
	for i, c := range sig {
		if c != other[i] {
			return false
		}
	}
	return true
}

func roundMean(sum uint64, n uint64) uint8 {
	return uint8(math.Round(float64(sum) / float64(n)))
}

// Summarize computes the signature of img for grid dimension d.
//
// Cell x (horizontal) starts at pixel floor(x * width / d) and is
// floor(width / d) pixels wide, the same holds for the height. If width or
// height is not a multiple of d the remaining pixels are never visited.
// The mean of each channel is rounded to the nearest integer.
//
// An error is returned if d < 1 or the image is smaller than d in one
// direction.
func Summarize(img image.Image, d int) (ColorSignature, error) {
	if d < 1 {
		return nil, fmt.Errorf("Invalid grid dimension %d, must be >= 1", d)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	spanX, spanY := width/d, height/d
	if spanX == 0 || spanY == 0 {
		return nil, errors.Wrapf(ErrDimensionMismatch,
			"Image of size %dx%d too small for grid dimension %d", width, height, d)
	}
	numPixels := uint64(spanX * spanY)
	res := make(ColorSignature, 0, d*d)
	for x := 0; x < d; x++ {
		offsetX := bounds.Min.X + (x*width)/d
		for y := 0; y < d; y++ {
			offsetY := bounds.Min.Y + (y*height)/d
			var r, g, b uint64
			for i := 0; i < spanX; i++ {
				for j := 0; j < spanY; j++ {
					rgb := ConvertRGB(img.At(offsetX+i, offsetY+j))
					r += uint64(rgb.R)
					g += uint64(rgb.G)
					b += uint64(rgb.B)
				}
			}
			res = append(res, RGB{
				R: roundMean(r, numPixels),
				G: roundMean(g, numPixels),
				B: roundMean(b, numPixels),
			})
		}
	}
	return res, nil
}

// SampleSignature builds the signature of one grid cell of an image that was
// resized to d pixels per cell: the cell in the given row and column covers the
// d×d pixel block starting at (col * d, row * d) and every pixel of that block
// is one entry of the signature. The order is the same as in Summarize.
func SampleSignature(img image.Image, row, col, d int) ColorSignature {
	bounds := img.Bounds()
	res := make(ColorSignature, 0, d*d)
	for fx := 0; fx < d; fx++ {
		for fy := 0; fy < d; fy++ {
			c := img.At(bounds.Min.X+col*d+fx, bounds.Min.Y+row*d+fy)
			res = append(res, ConvertRGB(c))
		}
	}
	return res
}

// SignatureDistance returns the euclidean distance of the two signatures,
// averaged over all cells. It is the same as SignatureDistanceMetric with
// EuclideanDistance but does not allocate.
func SignatureDistance(a, b ColorSignature) (float64, error) {
	if len(a) != len(b) {
		return -1.0, errors.Wrapf(ErrDimensionMismatch,
			"Can't compare signatures of length %d and %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0.0, nil
	}
	var sum float64
	for i, c := range a {
		sum += rgbDistance(c, b[i])
	}
	return sum / float64(len(a)), nil
}

// SignatureDistanceMetric applies metric to each pair of cells, sums the
// results and divides by the number of cells. Both signatures must have the
// same length, otherwise ErrDimensionMismatch is returned.
func SignatureDistanceMetric(a, b ColorSignature, metric VectorMetric) (float64, error) {
	if len(a) != len(b) {
		return -1.0, errors.Wrapf(ErrDimensionMismatch,
			"Can't compare signatures of length %d and %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0.0, nil
	}
	var sum float64
	for i, c := range a {
		sum += c.Dist(b[i], metric)
	}
	return sum / float64(len(a)), nil
}
