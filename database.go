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
	"image"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// FSImageDB implements ImageStorage. It uses images stored on the filesystem
// and opens them on demand, a file is closed again as soon as it is decoded.
//
// Paths are either absolute or relative to Root.
type FSImageDB struct {
	Root  string
	Paths []string
}

// NewFSImageDB returns an empty database with the given root.
func NewFSImageDB(root string) *FSImageDB {
	return &FSImageDB{Root: root, Paths: nil}
}

// NewCatalogImageDB returns a database with one image for each catalog entry,
// in catalog order. The identifiers are used as paths, relative identifiers are
// resolved against root.
func NewCatalogImageDB(root string, catalog *Catalog) *FSImageDB {
	res := &FSImageDB{Root: root, Paths: make([]string, len(catalog.Entries))}
	for i, entry := range catalog.Entries {
		res.Paths[i] = entry.Identifier
	}
	return res
}

// GetPath returns the path of the image with the given id.
func (db *FSImageDB) GetPath(id ImageID) string {
	p := db.Paths[id]
	if filepath.IsAbs(p) || db.Root == "" {
		return p
	}
	return filepath.Join(db.Root, p)
}

// Identifier implements NamedStorage, it's the same as GetPath.
func (db *FSImageDB) Identifier(id ImageID) string {
	return db.GetPath(id)
}

// NumImages returns the number of paths in the database.
func (db *FSImageDB) NumImages() ImageID {
	return ImageID(len(db.Paths))
}

// Clear removes all images.
func (db *FSImageDB) Clear() {
	db.Paths = nil
}

func (db *FSImageDB) checkID(id ImageID) error {
	if id < 0 || id >= db.NumImages() {
		return fmt.Errorf("Invalid image id: Not associated with an image %d", id)
	}
	return nil
}

// LoadImage opens and decodes the image.
func (db *FSImageDB) LoadImage(id ImageID) (image.Image, error) {
	if err := db.checkID(id); err != nil {
		return nil, err
	}
	// open file
	file := db.GetPath(id)
	r, openErr := os.Open(file)
	if openErr != nil {
		return nil, openErr
	}
	defer r.Close()
	img, _, decodeErr := image.Decode(r)
	if decodeErr != nil {
		return nil, errors.Wrap(decodeErr, file)
	}
	return img, nil
}

// ValidateTile checks that the tile with the given id can be opened and
// decoded completely and is not empty. A header alone is not enough: a
// truncated file has a valid header but fails to decode later.
func ValidateTile(storage ImageStorage, id ImageID) error {
	img, err := storage.LoadImage(id)
	if err != nil {
		return err
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return fmt.Errorf("Tile %d has empty dimensions %dx%d", id, bounds.Dx(), bounds.Dy())
	}
	return nil
}

// GenFSDatabase creates a database containing all supported images in root.
// If recursive is true all subdirectories are scanned as well. The paths are
// stored relative to the absolute root and sorted, so the order is the same
// each time the function is called on an unchanged directory.
//
// If filter is nil SupportedImage is used.
func GenFSDatabase(root string, recursive bool, filter SupportedImageFunc) (*FSImageDB, error) {
	root, absErr := filepath.Abs(root)
	if absErr != nil {
		return nil, absErr
	}
	if filter == nil {
		filter = SupportedImage
	}
	var res *FSImageDB
	var err error
	if recursive {
		res, err = genFSDBRecursive(root, filter)
	} else {
		res, err = genFSDBNonRecursive(root, filter)
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(res.Paths)
	return res, nil
}

func genFSDBRecursive(root string, filter SupportedImageFunc) (*FSImageDB, error) {
	result := NewFSImageDB(root)
	walkFunc := func(path string, info os.FileInfo, err error) error {
		switch {
		case err != nil:
			return err
		case !info.IsDir() && filter(filepath.Ext(path)):
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}
			result.Paths = append(result.Paths, rel)
			return nil
		default:
			return nil
		}
	}
	if err := filepath.Walk(root, walkFunc); err != nil {
		return nil, err
	}
	return result, nil
}

func genFSDBNonRecursive(root string, filter SupportedImageFunc) (*FSImageDB, error) {
	result := NewFSImageDB(root)
	files, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if !file.IsDir() && filter(filepath.Ext(file.Name())) {
			result.Paths = append(result.Paths, file.Name())
		}
	}
	return result, nil
}
