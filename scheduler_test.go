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
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

func TestPlaceWithoutDuplicates(t *testing.T) {
	catalog := grayCatalog(0, 10, 20, 30, 40, 50)
	scheduler := NewScheduler(NewTileMatcher(catalog), false)
	placement, used, err := scheduler.Place(uniformImage(2, 2, gray(12)), 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if used != 4 {
		t.Errorf("Expected 4 different tiles, got %d", used)
	}
	// cells are filled in spiral order, each one gets the best remaining tile
	expected := map[GridCell]int{{0, 0}: 1, {0, 1}: 2, {1, 1}: 0, {1, 0}: 3}
	seen := make(map[int]bool)
	for cell, index := range expected {
		tile, ok := placement.At(cell).(CatalogTile)
		if !ok {
			t.Fatalf("Expected catalog tile in %s, got %v", cell, placement.At(cell))
		}
		if tile.Index != index {
			t.Errorf("Expected tile %d in %s, got %d", index, cell, tile.Index)
		}
		if seen[tile.Index] {
			t.Errorf("Tile %d used twice", tile.Index)
		}
		seen[tile.Index] = true
	}
	if !reflect.DeepEqual(placement.Order, SpiralOrder(2, 2)) {
		t.Errorf("Expected spiral order, got %v", placement.Order)
	}
}

func TestPlaceWithDuplicates(t *testing.T) {
	catalog := grayCatalog(0, 10, 20)
	scheduler := NewScheduler(NewTileMatcher(catalog), true)
	placement, used, err := scheduler.Place(uniformImage(3, 2, gray(12)), 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if used != 1 {
		t.Errorf("Expected 1 different tile, got %d", used)
	}
	for _, cell := range placement.Order {
		if tile := placement.At(cell).(CatalogTile); tile.Index != 1 {
			t.Errorf("Expected tile 1 in %s, got %d", cell, tile.Index)
		}
	}
}

func TestPlaceNotEnoughTiles(t *testing.T) {
	scheduler := NewScheduler(NewTileMatcher(grayCatalog(0, 10, 20)), false)
	if _, _, err := scheduler.Place(uniformImage(2, 2, gray(12)), 2, 2); errors.Cause(err) != ErrNotEnoughTiles {
		t.Errorf("Expected ErrNotEnoughTiles, got %v", err)
	}
	scheduler.AllowDuplicates = true
	if _, _, err := scheduler.Place(uniformImage(2, 2, gray(12)), 2, 2); err != nil {
		t.Errorf("Expected no error with duplicates, got %v", err)
	}
}

func TestPlaceOrigin(t *testing.T) {
	catalog := grayCatalog(0, 10, 20, 30)
	for _, duplicates := range []bool{false, true} {
		scheduler := NewScheduler(NewTileMatcher(catalog), duplicates)
		scheduler.Origin = GridCell{Row: 1, Col: 0}
		placement, used, err := scheduler.Place(uniformImage(2, 2, gray(12)), 2, 2)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := placement.At(scheduler.Origin).(OriginalImage); !ok {
			t.Errorf("Expected original image in origin cell, got %v", placement.At(scheduler.Origin))
		}
		if !duplicates && used != 3 {
			t.Errorf("Expected 3 different tiles, got %d", used)
		}
		if len(placement.Distances()) != 3 {
			t.Errorf("Expected 3 distances, got %d", len(placement.Distances()))
		}
	}
}

func TestPlaceRejectsInvalidTiles(t *testing.T) {
	catalog := grayCatalog(0, 10, 20, 30)
	calls := make(map[int]int)
	scheduler := NewScheduler(NewTileMatcher(catalog), true)
	scheduler.Validate = func(index int) error {
		calls[index]++
		if index == 1 {
			return fmt.Errorf("Broken tile %d", index)
		}
		return nil
	}
	placement, _, err := scheduler.Place(uniformImage(2, 1, gray(12)), 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, cell := range placement.Order {
		if tile := placement.At(cell).(CatalogTile); tile.Index != 2 {
			t.Errorf("Expected tile 2 in %s, got %d", cell, tile.Index)
		}
	}
	for index, num := range calls {
		if num != 1 {
			t.Errorf("Expected tile %d to be validated once, got %d", index, num)
		}
	}
	scheduler.Validate = func(index int) error {
		return fmt.Errorf("Broken tile %d", index)
	}
	if _, _, err := scheduler.Place(uniformImage(2, 1, gray(12)), 2, 1); errors.Cause(err) != ErrNoCandidate {
		t.Errorf("Expected ErrNoCandidate if all tiles are broken, got %v", err)
	}
}

func TestPlaceConcurrent(t *testing.T) {
	values := make([]uint8, 0, 26)
	for v := 0; v <= 250; v += 10 {
		values = append(values, uint8(v))
	}
	catalog := grayCatalog(values...)
	sample := uniformImage(7, 5, gray(0))
	for x := 0; x < 7; x++ {
		for y := 0; y < 5; y++ {
			sample.Set(x, y, gray(uint8(7*x+5*y)))
		}
	}
	sequential := NewScheduler(NewTileMatcher(catalog), true)
	sequential.Origin = GridCell{Row: 4, Col: 0}
	expected, expectedUsed, err := sequential.Place(sample, 7, 5)
	if err != nil {
		t.Fatal(err)
	}
	concurrent := NewScheduler(NewTileMatcher(catalog), true)
	concurrent.Origin = sequential.Origin
	concurrent.NumRoutines = 4
	got, gotUsed, err := concurrent.Place(sample, 7, 5)
	if err != nil {
		t.Fatal(err)
	}
	if gotUsed != expectedUsed || !reflect.DeepEqual(got, expected) {
		t.Errorf("Concurrent placement differs from sequential placement")
	}
}

func TestPlaceErrors(t *testing.T) {
	scheduler := NewScheduler(NewTileMatcher(grayCatalog(0, 10, 20, 30)), true)
	if _, _, err := scheduler.Place(uniformImage(3, 3, gray(0)), 2, 2); errors.Cause(err) != ErrDimensionMismatch {
		t.Errorf("Expected ErrDimensionMismatch for wrong sample size, got %v", err)
	}
	if _, _, err := scheduler.Place(uniformImage(2, 2, gray(0)), 0, 2); errors.Cause(err) != ErrInvalidLayout {
		t.Errorf("Expected ErrInvalidLayout for empty grid, got %v", err)
	}
	scheduler.Dim = 2
	if _, _, err := scheduler.Place(uniformImage(4, 4, gray(0)), 2, 2); errors.Cause(err) != ErrDimensionMismatch {
		t.Errorf("Expected ErrDimensionMismatch for wrong dimension, got %v", err)
	}
}

func TestDistanceStats(t *testing.T) {
	p := newPlacement(2, 2)
	if mean, std := p.DistanceStats(); mean != 0 || std != 0 {
		t.Errorf("Expected zero stats for empty placement, got %f %f", mean, std)
	}
	p.set(GridCell{0, 0}, CatalogTile{Index: 0, Distance: 2})
	p.set(GridCell{0, 1}, OriginalImage{})
	if mean, std := p.DistanceStats(); mean != 2 || std != 0 {
		t.Errorf("Expected 2 and 0, got %f %f", mean, std)
	}
	p.set(GridCell{1, 0}, CatalogTile{Index: 1, Distance: 4})
	p.set(GridCell{1, 1}, CatalogTile{Index: 2, Distance: 6})
	mean, std := p.DistanceStats()
	if !approxEqual(mean, 4) || !approxEqual(std, 2) {
		t.Errorf("Expected mean 4 and standard deviation 2, got %f %f", mean, std)
	}
}
