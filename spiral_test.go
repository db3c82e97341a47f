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
	"reflect"
	"testing"
)

func TestSpiralOrderSmall(t *testing.T) {
	tests := []struct {
		xd, yd   int
		expected []GridCell
	}{
		{1, 1, []GridCell{{0, 0}}},
		{2, 2, []GridCell{{0, 0}, {0, 1}, {1, 1}, {1, 0}}},
		{2, 3, []GridCell{{1, 0}, {1, 1}, {2, 1}, {2, 0}, {0, 0}, {0, 1}}},
		{3, 1, []GridCell{{0, 1}, {0, 2}, {0, 0}}},
		{0, 3, nil},
	}
	for _, tc := range tests {
		got := SpiralOrder(tc.xd, tc.yd)
		if !reflect.DeepEqual(got, tc.expected) {
			t.Errorf("SpiralOrder(%d, %d): Expected %v, got %v", tc.xd, tc.yd, tc.expected, got)
		}
	}
}

func TestSpiralOrderCoversGrid(t *testing.T) {
	for xd := 1; xd <= 9; xd++ {
		for yd := 1; yd <= 9; yd++ {
			order := SpiralOrder(xd, yd)
			if len(order) != xd*yd {
				t.Errorf("SpiralOrder(%d, %d): Expected %d cells, got %d", xd, yd, xd*yd, len(order))
				continue
			}
			seen := make(map[GridCell]bool, len(order))
			for _, cell := range order {
				if !cell.In(xd, yd) {
					t.Errorf("SpiralOrder(%d, %d): Cell %s outside of grid", xd, yd, cell)
				}
				if seen[cell] {
					t.Errorf("SpiralOrder(%d, %d): Cell %s visited twice", xd, yd, cell)
				}
				seen[cell] = true
			}
			center := GridCell{Row: (yd - 1) / 2, Col: (xd - 1) / 2}
			if order[0] != center {
				t.Errorf("SpiralOrder(%d, %d): Expected to start at %s, got %s", xd, yd, center, order[0])
			}
		}
	}
}

func TestGridCellIn(t *testing.T) {
	if NoOriginCell.In(3, 3) {
		t.Error("NoOriginCell must not be part of a grid")
	}
	if !(GridCell{Row: 2, Col: 0}).In(1, 3) || (GridCell{Row: 0, Col: 1}).In(1, 3) {
		t.Error("Rows and columns mixed up")
	}
}
