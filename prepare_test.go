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
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
)

func TestPrepareArchive(t *testing.T) {
	source := filepath.Join(t.TempDir(), "photos")
	writePNG(t, filepath.Join(source, "a.png"), uniformImage(12, 6, gray(10)))
	writePNG(t, filepath.Join(source, "c.png"), uniformImage(12, 6, gray(10)))
	writePNG(t, filepath.Join(source, "sub", "b.png"), uniformImage(5, 9, gray(20)))
	if err := os.WriteFile(filepath.Join(source, "broken.jpg"), []byte("no image"), 0644); err != nil {
		t.Fatal(err)
	}
	target := t.TempDir()
	opts := DefaultPrepareOptions()
	opts.Size = 8
	var mutex sync.Mutex
	calls := 0
	opts.Progress = func(num int) {
		mutex.Lock()
		defer mutex.Unlock()
		calls++
	}
	stats, err := PrepareArchive([]string{source}, target, opts)
	if err != nil {
		t.Fatal(err)
	}
	expected := PrepareStats{Found: 4, Written: 2, Duplicates: 1, Errors: 1}
	if stats != expected {
		t.Errorf("Expected %s, got %s", expected, stats)
	}
	if calls != 3 {
		t.Errorf("Expected progress for 3 images, got %d", calls)
	}
	for _, name := range []string{"a.jpg", filepath.Join("sub", "b.jpg")} {
		img, openErr := imaging.Open(filepath.Join(target, "photos", name))
		if openErr != nil {
			t.Errorf("%s: %v", name, openErr)
			continue
		}
		if size := img.Bounds().Size(); size.X != 8 || size.Y != 8 {
			t.Errorf("%s: Expected 8x8 thumbnail, got %v", name, size)
		}
	}
	if _, statErr := os.Stat(filepath.Join(target, "photos", "c.jpg")); !os.IsNotExist(statErr) {
		t.Error("Expected duplicate to be skipped")
	}
}

func TestPrepareArchiveNonRecursive(t *testing.T) {
	source := filepath.Join(t.TempDir(), "photos")
	writePNG(t, filepath.Join(source, "a.png"), uniformImage(4, 4, gray(10)))
	writePNG(t, filepath.Join(source, "sub", "b.png"), uniformImage(4, 4, gray(20)))
	opts := DefaultPrepareOptions()
	opts.Size = 2
	opts.Format = "png"
	opts.Recursive = false
	stats, err := PrepareArchive([]string{source}, t.TempDir(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Found != 1 || stats.Written != 1 {
		t.Errorf("Expected one image, got %s", stats)
	}
}

func TestPrepareOptionsValidate(t *testing.T) {
	tests := []struct {
		size   int
		format string
		valid  bool
	}{
		{8, "jpg", true},
		{8, "png", true},
		{0, "jpg", false},
		{8, "gif", false},
	}
	for _, tc := range tests {
		opts := DefaultPrepareOptions()
		opts.Size, opts.Format = tc.size, tc.format
		if err := opts.Validate(); (err == nil) != tc.valid {
			t.Errorf("Size %d, format %s: Unexpected result %v", tc.size, tc.format, err)
		}
	}
	if _, err := PrepareArchive([]string{"/does/not/exist"}, t.TempDir(), DefaultPrepareOptions()); err == nil {
		t.Error("Expected error for missing source")
	}
}
