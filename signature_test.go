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
	"math"
	"testing"

	"github.com/pkg/errors"
)

// quadrants returns a 2w × 2h image with the four given colors: top left,
// top right, bottom left, bottom right.
func quadrants(w, h int, tl, tr, bl, br color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2*w, 2*h))
	for y := 0; y < 2*h; y++ {
		for x := 0; x < 2*w; x++ {
			var c color.Color
			switch {
			case x < w && y < h:
				c = tl
			case y < h:
				c = tr
			case x < w:
				c = bl
			default:
				c = br
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestSummarizeUniform(t *testing.T) {
	img := uniformImage(12, 12, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	for _, d := range []int{1, 2, 3, 5} {
		sig, err := Summarize(img, d)
		if err != nil {
			t.Fatalf("d=%d: %v", d, err)
		}
		if len(sig) != d*d {
			t.Fatalf("d=%d: Expected %d cells, got %d", d, d*d, len(sig))
		}
		for i, c := range sig {
			if c != NewRGB(10, 20, 30) {
				t.Errorf("d=%d: Expected (10, 20, 30) in cell %d, got %s", d, i, c)
			}
		}
	}
}

func TestSummarizeColumnMajor(t *testing.T) {
	tl, tr := gray(10), gray(20)
	bl, br := gray(30), gray(40)
	sig, err := Summarize(quadrants(3, 3, tl, tr, bl, br), 2)
	if err != nil {
		t.Fatal(err)
	}
	// index x * d + y: (0,0) (0,1) (1,0) (1,1)
	expected := ColorSignature{NewRGB(10, 10, 10), NewRGB(30, 30, 30), NewRGB(20, 20, 20), NewRGB(40, 40, 40)}
	if !sig.Equals(expected) {
		t.Errorf("Expected %v, got %v", expected, sig)
	}
}

func TestSummarizeRounding(t *testing.T) {
	// one cell with values 0 and 1: mean 0.5 is rounded up
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, gray(0))
	img.Set(1, 0, gray(1))
	sig, err := Summarize(img, 1)
	if err != nil {
		t.Fatal(err)
	}
	if sig[0] != NewRGB(1, 1, 1) {
		t.Errorf("Expected mean 0.5 to be rounded to 1, got %s", sig[0])
	}
}

func TestSummarizeDropsRemainder(t *testing.T) {
	// 5 pixels wide, d = 2: cells are 2 pixels wide starting at 0 and 2,
	// the last column is never visited
	img := uniformImage(5, 4, gray(100))
	for y := 0; y < 4; y++ {
		img.Set(4, y, gray(255))
	}
	sig, err := Summarize(img, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range sig {
		if c != NewRGB(100, 100, 100) {
			t.Errorf("Expected cell %d to ignore the last column, got %s", i, c)
		}
	}
}

func TestSummarizeBoundsOffset(t *testing.T) {
	img := quadrants(2, 2, gray(1), gray(2), gray(3), gray(4))
	sub := img.SubImage(image.Rect(2, 2, 4, 4))
	sig, err := Summarize(sub, 1)
	if err != nil {
		t.Fatal(err)
	}
	if sig[0] != NewRGB(4, 4, 4) {
		t.Errorf("Expected color of bottom right quadrant, got %s", sig[0])
	}
}

func TestSummarizeErrors(t *testing.T) {
	img := uniformImage(3, 3, gray(0))
	if _, err := Summarize(img, 0); err == nil {
		t.Error("Expected error for d = 0")
	}
	if _, err := Summarize(img, 4); errors.Cause(err) != ErrDimensionMismatch {
		t.Errorf("Expected ErrDimensionMismatch for image smaller than d, got %v", err)
	}
}

func TestSampleSignature(t *testing.T) {
	// 2 × 1 grid with d = 2: cell (0, 1) covers x in [2, 4)
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, gray(uint8(10*x+y)))
		}
	}
	sig := SampleSignature(img, 0, 1, 2)
	expected := ColorSignature{NewRGB(20, 20, 20), NewRGB(21, 21, 21), NewRGB(30, 30, 30), NewRGB(31, 31, 31)}
	if !sig.Equals(expected) {
		t.Errorf("Expected %v, got %v", expected, sig)
	}
	// must agree with Summarize on the cell
	summarized, err := Summarize(img.SubImage(image.Rect(2, 0, 4, 2)), 2)
	if err != nil {
		t.Fatal(err)
	}
	if !summarized.Equals(sig) {
		t.Errorf("Sample %v differs from summary %v", sig, summarized)
	}
}

func TestSignatureDim(t *testing.T) {
	tests := []struct {
		n     int
		d     int
		valid bool
	}{
		{1, 1, true},
		{4, 2, true},
		{9, 3, true},
		{10, 3, false},
		{0, 0, true},
	}
	for _, tc := range tests {
		d, valid := SignatureDim(tc.n)
		if d != tc.d || valid != tc.valid {
			t.Errorf("SignatureDim(%d): Expected (%d, %v), got (%d, %v)", tc.n, tc.d, tc.valid, d, valid)
		}
	}
}

func TestSignatureDistance(t *testing.T) {
	a := ColorSignature{NewRGB(0, 0, 0), NewRGB(10, 10, 10)}
	b := ColorSignature{NewRGB(3, 4, 0), NewRGB(10, 10, 10)}
	tests := []struct {
		a, b     ColorSignature
		expected float64
	}{
		{a, a, 0},
		{a, b, 2.5},
		{ColorSignature{NewRGB(0, 0, 0)}, ColorSignature{NewRGB(255, 255, 255)}, math.Sqrt(3 * 255 * 255)},
	}
	for _, tc := range tests {
		dist, err := SignatureDistance(tc.a, tc.b)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(dist-tc.expected) > 1e-9 {
			t.Errorf("Expected distance %f between %v and %v, got %f", tc.expected, tc.a, tc.b, dist)
		}
		viaMetric, metricErr := SignatureDistanceMetric(tc.a, tc.b, EuclideanDistance)
		if metricErr != nil {
			t.Fatal(metricErr)
		}
		if math.Abs(dist-viaMetric) > 1e-9 {
			t.Errorf("SignatureDistance %f and SignatureDistanceMetric %f differ", dist, viaMetric)
		}
	}
	if _, err := SignatureDistance(a, a[:1]); errors.Cause(err) != ErrDimensionMismatch {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
}
