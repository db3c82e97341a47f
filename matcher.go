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

// UsedSet is a set of catalog indices. The scheduler uses one to remember the
// tiles already placed and another one for tiles that turned out to be
// unreadable.
//
// A UsedSet is not safe for concurrent use.
type UsedSet struct {
	m map[int]struct{}
}

// NewUsedSet returns an empty set.
func NewUsedSet(capacity int) *UsedSet {
	if capacity < 0 {
		capacity = 0
	}
	return &UsedSet{m: make(map[int]struct{}, capacity)}
}

// Add adds index to the set.
func (s *UsedSet) Add(index int) {
	s.m[index] = struct{}{}
}

// Has returns true if index is in the set. A nil set is empty.
func (s *UsedSet) Has(index int) bool {
	if s == nil {
		return false
	}
	_, has := s.m[index]
	return has
}

// Len returns the number of indices in the set.
func (s *UsedSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.m)
}

// TileMatcher finds the catalog entry closest to a signature.
type TileMatcher struct {
	Catalog *Catalog
	// Metric compares two cells, if nil SignatureDistance is used.
	Metric VectorMetric
}

// NewTileMatcher returns a matcher on catalog using SignatureDistance.
func NewTileMatcher(catalog *Catalog) *TileMatcher {
	return &TileMatcher{Catalog: catalog}
}

func (m *TileMatcher) distance(a, b ColorSignature) (float64, error) {
	if m.Metric == nil {
		return SignatureDistance(a, b)
	}
	return SignatureDistanceMetric(a, b, m.Metric)
}

// BestMatch returns the index and distance of the catalog entry with the
// smallest distance to sig.
//
// Candidates are all entries not in rejected and, if allowDuplicates is false,
// not in used. Both sets may be nil. Entries are scanned in catalog order and
// only a strictly smaller distance replaces the current best, so of several
// entries with the same distance the one with the smallest index wins.
//
// If there is no candidate an error wrapping ErrNoCandidate is returned.
func (m *TileMatcher) BestMatch(sig ColorSignature, used *UsedSet, allowDuplicates bool, rejected *UsedSet) (int, float64, error) {
	if len(sig) != m.Catalog.Dim*m.Catalog.Dim {
		return -1, -1.0, errors.Wrapf(ErrDimensionMismatch,
			"Signature with %d cells for catalog of dimension %d", len(sig), m.Catalog.Dim)
	}
	found := false
	bestIndex, bestDist := -1, 0.0
	for i, entry := range m.Catalog.Entries {
		if rejected.Has(i) || (!allowDuplicates && used.Has(i)) {
			continue
		}
		dist, err := m.distance(sig, entry.Signature)
		if err != nil {
			return -1, -1.0, errors.Wrap(err, entry.Identifier)
		}
		if !found || dist < bestDist {
			bestIndex, bestDist = i, dist
			found = true
		}
	}
	if !found {
		return -1, -1.0, errors.Wrapf(ErrNoCandidate,
			"All %d tiles are used or rejected", m.Catalog.Len())
	}
	return bestIndex, bestDist, nil
}
