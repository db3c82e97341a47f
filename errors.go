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
	"github.com/pkg/errors"
)

// Errors that abort a mosaic run. Functions wrap them with some context, use
// errors.Cause to compare.
var (
	// ErrDimensionMismatch is returned if signatures or catalogs of different
	// grid dimensions are mixed.
	ErrDimensionMismatch = errors.New("Grid dimension mismatch")

	// ErrNotEnoughTiles is returned before scheduling if duplicates are not
	// allowed and the grid has more cells than the catalog has tiles.
	ErrNotEnoughTiles = errors.New("Not enough tiles in catalog")

	// ErrNoCandidate is returned by the matcher if no tile can be chosen.
	ErrNoCandidate = errors.New("No candidate tile left")

	// ErrCanvasOverflow is returned if the computed canvas exceeds the
	// requested canvas.
	ErrCanvasOverflow = errors.New("Computed canvas exceeds requested canvas")

	// ErrSourceTooLarge is returned by the similarity metric if the source is
	// larger than the mosaic.
	ErrSourceTooLarge = errors.New("Source image larger than mosaic")

	// ErrInvalidLayout is returned for layout parameters that can't describe
	// a mosaic (empty page, bad DPI etc.).
	ErrInvalidLayout = errors.New("Invalid layout")
)
