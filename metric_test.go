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
	"math"
	"testing"
)

func TestVectorMetrics(t *testing.T) {
	p := []float64{1, 2, 3}
	q := []float64{4, 0, 3}
	tests := []struct {
		name     string
		expected float64
	}{
		{"manhattan", 5},
		{"euclid", math.Sqrt(13)},
		{"chessboard", 3},
		{"canberra", 3.0/5.0 + 1.0},
	}
	for _, tc := range tests {
		metric, has := GetVectorMetric(tc.name)
		if !has {
			t.Fatalf("Metric %s not registered", tc.name)
		}
		if got := metric(p, q); math.Abs(got-tc.expected) > 1e-9 {
			t.Errorf("%s: Expected %f, got %f", tc.name, tc.expected, got)
		}
	}
}

func TestCanberraZero(t *testing.T) {
	if got := CanberraDistance([]float64{0, 0}, []float64{0, 0}); got != 0 {
		t.Errorf("Expected 0 for zero vectors, got %f", got)
	}
}

func TestMetricRegistry(t *testing.T) {
	names := GetVectorMetricNames()
	expected := []string{"canberra", "chessboard", "euclid", "manhattan"}
	if len(names) < len(expected) {
		t.Fatalf("Expected at least %v, got %v", expected, names)
	}
	if _, has := GetVectorMetric("EUCLID"); !has {
		t.Error("Metric names should be case insensitive")
	}
	if RegisterVectorMetric("euclid", Manhattan) {
		t.Error("Registering an existing name must fail")
	}
	if _, has := GetVectorMetric(DefaultMetricName); !has {
		t.Error("Default metric not registered")
	}
}
