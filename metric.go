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
	"sort"
	"strings"
)

// VectorMetric is a function that takes two vectors of the same length and
// returns a metric value ("distance") of the two.
//
// Signatures are compared cell by cell, each cell being a vector of length 3
// (see RGB.Vector).
type VectorMetric func(p, q []float64) float64

// Manhattan returns the manhattan distance of two vectors, that is
// |p1 - q1| + ... + |pn - qn|.
func Manhattan(p, q []float64) float64 {
	var result float64
	for i, e1 := range p {
		result += math.Abs(e1 - q[i])
	}
	return result
}

// EuclideanDistance returns the euclidean distance of two
// vectors, that is sqrt( (p1 - q1)² + ... + (pn - qn)² ).
func EuclideanDistance(p, q []float64) float64 {
	var sum float64
	for i, e1 := range p {
		e2 := q[i]
		diff := (e1 - e2)
		sum += (diff * diff)
	}
	return math.Sqrt(sum)
}

// ChessboardDistance is the max over all absolute distances,
// see https://reference.wolfram.com/language/ref/ChessboardDistance.html
func ChessboardDistance(p, q []float64) float64 {
	res := 0.0
	for i, e1 := range p {
		e2 := q[i]
		res = math.Max(res, math.Abs(e1-e2))
	}
	return res
}

// CanberraDistance is a weighted version of the manhattan
// distance, see https://en.wikipedia.org/wiki/Canberra_distance
// Components where both values are zero contribute nothing.
func CanberraDistance(p, q []float64) float64 {
	res := 0.0
	for i, e1 := range p {
		e2 := q[i]
		denominator := math.Abs(e1) + math.Abs(e2)
		if denominator == 0.0 {
			continue
		}
		res += math.Abs(e1-e2) / denominator
	}
	return res
}

// DefaultMetricName is the name of the metric used if nothing else is
// configured. Catalog distances are defined in terms of this metric.
const DefaultMetricName = "euclid"

// vectorMetrics is initialized before any init function runs, so the names
// can be used in init functions of this package.
var vectorMetrics = map[string]VectorMetric{
	"manhattan":  Manhattan,
	"euclid":     EuclideanDistance,
	"chessboard": ChessboardDistance,
	"canberra":   CanberraDistance,
}

// RegisterVectorMetric is used to register a named vector metric. It will
// only add the metric if the name does not exist yet. The result is true if
// the metric was successfully registered and false otherwise.
// All names are transformed to lowercase.
//
// All metrics should be registered by an init method.
func RegisterVectorMetric(name string, metric VectorMetric) bool {
	name = strings.ToLower(name)
	if _, has := vectorMetrics[name]; has {
		return false
	}
	vectorMetrics[name] = metric
	return true
}

// GetVectorMetricNames returns a sorted list of all registered metric names.
func GetVectorMetricNames() []string {
	res := make([]string, 0, len(vectorMetrics))
	for key := range vectorMetrics {
		res = append(res, key)
	}
	sort.Strings(res)
	return res
}

// GetVectorMetric returns a registered metric and true, or nil and false if
// there is no metric with that name.
func GetVectorMetric(name string) (VectorMetric, bool) {
	name = strings.ToLower(name)
	if metric, has := vectorMetrics[name]; has {
		return metric, true
	}
	return nil, false
}
