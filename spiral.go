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

import "fmt"

// GridCell is a position in the tile grid of a mosaic. Row 0 is the top row,
// column 0 the leftmost column.
type GridCell struct {
	Row, Col int
}

// NoOriginCell is used if no cell should show the source image.
var NoOriginCell = GridCell{Row: -1, Col: -1}

func (c GridCell) String() string {
	return fmt.Sprintf("(%d, %d)", c.Row, c.Col)
}

// In returns true if the cell is part of a grid with xd columns and yd rows.
func (c GridCell) In(xd, yd int) bool {
	return c.Row >= 0 && c.Row < yd && c.Col >= 0 && c.Col < xd
}

// SpiralOrder returns all cells of a grid with xd columns and yd rows,
// starting at the center and moving outwards in a square spiral.
//
// The spiral walks the coordinates (x, y) relative to the center cell
// ((xd-1)/2, (yd-1)/2), starting with the direction (0, -1). A position is part
// of the grid iff -xd < 2x <= xd and -yd < 2y <= yd. After each step the
// direction is turned if x == y, x < 0 && x == -y or x > 0 && x == 1-y.
// max(xd, yd)² steps cover the whole grid, each cell is returned exactly once.
func SpiralOrder(xd, yd int) []GridCell {
	if xd <= 0 || yd <= 0 {
		return nil
	}
	ic, jc := (xd-1)/2, (yd-1)/2
	res := make([]GridCell, 0, xd*yd)
	x, y := 0, 0
	dx, dy := 0, -1
	n := IntMax(xd, yd)
	for i := 0; i < n*n; i++ {
		if -xd < 2*x && 2*x <= xd && -yd < 2*y && 2*y <= yd {
			res = append(res, GridCell{Row: jc + y, Col: ic + x})
		}
		if x == y || (x < 0 && x == -y) || (x > 0 && x == 1-y) {
			dx, dy = -dy, dx
		}
		x, y = x+dx, y+dy
	}
	return res
}
