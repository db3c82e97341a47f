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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func testCatalog() *Catalog {
	return &Catalog{Dim: 2, Entries: []CatalogEntry{
		{Identifier: "a.jpg", Signature: ColorSignature{
			NewRGB(0, 1, 2), NewRGB(3, 4, 5), NewRGB(6, 7, 8), NewRGB(9, 10, 11)}},
		{Identifier: "dir/b.png", Signature: ColorSignature{
			NewRGB(255, 255, 255), NewRGB(0, 0, 0), NewRGB(128, 64, 32), NewRGB(1, 1, 1)}},
	}}
}

func catalogsEqual(a, b *Catalog) bool {
	if a.Dim != b.Dim || len(a.Entries) != len(b.Entries) {
		return false
	}
	for i, entry := range a.Entries {
		other := b.Entries[i]
		if entry.Identifier != other.Identifier || !entry.Signature.Equals(other.Signature) {
			return false
		}
	}
	return true
}

func TestCatalogWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := testCatalog().WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	expected := "a.jpg 0 1 2 3 4 5 6 7 8 9 10 11\n" +
		"dir/b.png 255 255 255 0 0 0 128 64 32 1 1 1\n"
	if buf.String() != expected {
		t.Errorf("Expected\n%s\ngot\n%s", expected, buf.String())
	}
}

func TestCatalogWriteTextIdentifiers(t *testing.T) {
	for _, id := range []string{"", "with space.jpg", "tab\tname.jpg"} {
		catalog := &Catalog{Dim: 1, Entries: []CatalogEntry{{Identifier: id, Signature: ColorSignature{{}}}}}
		var buf bytes.Buffer
		if err := catalog.WriteText(&buf); err == nil {
			t.Errorf("Expected error for identifier %q", id)
		}
	}
}

func TestReadCatalogText(t *testing.T) {
	content := "a.jpg 0 1 2 3 4 5 6 7 8 9 10 11\n\n" +
		"dir/b.png 255 255 255 0 0 0 128 64 32 1 1 1\n"
	for _, dim := range []int{2, 0} {
		catalog, err := ReadCatalogText(strings.NewReader(content), dim)
		if err != nil {
			t.Fatalf("dim=%d: %v", dim, err)
		}
		if !catalogsEqual(catalog, testCatalog()) {
			t.Errorf("dim=%d: Expected %v, got %v", dim, testCatalog(), catalog)
		}
	}
}

func TestReadCatalogTextErrors(t *testing.T) {
	tests := []struct {
		content  string
		dim      int
		mismatch bool
	}{
		// grid dimension 1 in file, 2 requested
		{"a.jpg 1 2 3\n", 2, true},
		// too few values
		{"a.jpg 0 1 2 3 4 5 6 7 8 9 10\n", 2, true},
		// second line with other dimension
		{"a.jpg 1 2 3\nb.jpg 1 2 3 4 5 6 7 8 9 10 11 12\n", 0, true},
		// not a square number of cells
		{"a.jpg 1 2 3 4 5 6\n", 0, true},
		// empty file without dimension
		{"", 0, true},
		{"a.jpg 1 2 256\n", 1, false},
		{"a.jpg 1 -2 3\n", 1, false},
		{"a.jpg 1 x 3\n", 1, false},
	}
	for _, tc := range tests {
		_, err := ReadCatalogText(strings.NewReader(tc.content), tc.dim)
		if err == nil {
			t.Errorf("Expected error for %q", tc.content)
			continue
		}
		if tc.mismatch && errors.Cause(err) != ErrDimensionMismatch {
			t.Errorf("Expected ErrDimensionMismatch for %q, got %v", tc.content, err)
		}
	}
}

func TestCatalogFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"tiles.txt", "tiles", "tiles.cat", "tiles.gob", "tiles.json",
		"tiles.txt.zst", "tiles.gob.zst", "tiles.json.zst"} {
		path := filepath.Join(dir, name)
		if err := testCatalog().WriteFile(path); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		read, err := ReadCatalogFile(path, 2)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !catalogsEqual(read, testCatalog()) {
			t.Errorf("%s: Expected %v, got %v", name, testCatalog(), read)
		}
		if _, err := ReadCatalogFile(path, 3); errors.Cause(err) != ErrDimensionMismatch {
			t.Errorf("%s: Expected ErrDimensionMismatch for wrong dimension, got %v", name, err)
		}
	}
	if err := testCatalog().WriteFile(filepath.Join(dir, "tiles.csv")); err == nil {
		t.Error("Expected error for unknown extension")
	}
}

func TestCatalogCompressed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiles.txt.zst")
	if err := testCatalog().WriteFile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// zstd magic number
	if len(data) < 4 || !bytes.Equal(data[:4], []byte{0x28, 0xB5, 0x2F, 0xFD}) {
		t.Errorf("Expected zstd frame, got % x", data[:4])
	}
}

func TestCatalogCheckData(t *testing.T) {
	catalog := testCatalog()
	if err := catalog.CheckData(); err != nil {
		t.Errorf("Expected valid catalog, got %v", err)
	}
	catalog.Entries[1].Signature = catalog.Entries[1].Signature[:3]
	if err := catalog.CheckData(); errors.Cause(err) != ErrDimensionMismatch {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
}

func TestCreateCatalog(t *testing.T) {
	storage := memStorage{
		uniformImage(4, 4, gray(10)),
		uniformImage(1, 1, gray(20)),
		quadrants(2, 2, gray(1), gray(2), gray(3), gray(4)),
	}
	for _, routines := range []int{1, 3} {
		catalog, err := CreateCatalog(storage, 2, routines, nil)
		if err != nil {
			t.Fatal(err)
		}
		// the 1x1 image is too small for dimension 2 and skipped
		if catalog.Len() != 2 || catalog.Dim != 2 {
			t.Fatalf("Expected 2 entries of dimension 2, got %d of dimension %d", catalog.Len(), catalog.Dim)
		}
		if catalog.Entries[0].Identifier != "tile-0" || catalog.Entries[1].Identifier != "tile-2" {
			t.Errorf("Expected storage order, got %s and %s", catalog.Entries[0].Identifier, catalog.Entries[1].Identifier)
		}
		expected := ColorSignature{NewRGB(1, 1, 1), NewRGB(3, 3, 3), NewRGB(2, 2, 2), NewRGB(4, 4, 4)}
		if !catalog.Entries[1].Signature.Equals(expected) {
			t.Errorf("Expected %v, got %v", expected, catalog.Entries[1].Signature)
		}
	}
	if _, err := CreateCatalog(storage, 0, 1, nil); err == nil {
		t.Error("Expected error for dimension 0")
	}
}

func TestCatalogFileName(t *testing.T) {
	if got := CatalogFileName(3, ".gob"); got != "catalog-3.gob" {
		t.Errorf("Expected catalog-3.gob, got %s", got)
	}
}
