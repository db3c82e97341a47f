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
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// CatalogEntry is a tile identifier (usually the path of the tile image)
// together with the signature of the tile.
type CatalogEntry struct {
	Identifier string
	Signature  ColorSignature
}

// Catalog is the ordered list of all tiles that can be used in a mosaic.
// All signatures are computed for the same grid dimension Dim.
//
// A catalog is created once (CreateCatalog or one of the read functions) and
// is not modified afterwards, it is safe to share it between go routines.
type Catalog struct {
	Dim     int
	Entries []CatalogEntry
}

// NewCatalog returns an empty catalog for the grid dimension dim.
func NewCatalog(dim, capacity int) *Catalog {
	if capacity < 0 {
		capacity = 100
	}
	return &Catalog{Dim: dim, Entries: make([]CatalogEntry, 0, capacity)}
}

// Len returns the number of tiles in the catalog.
func (c *Catalog) Len() int {
	return len(c.Entries)
}

// CheckData verifies that each entry has a signature of length Dim².
// If the returned error is nil the check passed, otherwise it describes all
// failed entries.
func (c *Catalog) CheckData() error {
	if c.Dim < 1 {
		return errors.Wrapf(ErrDimensionMismatch, "Invalid catalog dimension %d", c.Dim)
	}
	expected := c.Dim * c.Dim
	errs := make([]string, 0)
	for _, entry := range c.Entries {
		if len(entry.Signature) != expected {
			errs = append(errs, fmt.Sprintf("Error in signature for %s: Expected %d cells, got %d",
				entry.Identifier, expected, len(entry.Signature)))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Wrap(ErrDimensionMismatch, strings.Join(errs, "\n"))
}

// CreateCatalog computes the signatures of all images in storage. The work
// is distributed among numRoutines go routines, the order of the catalog is
// the order of the images in storage.
//
// Images that can't be loaded are skipped and logged, they don't appear in
// the catalog. progress is called after each image (may be nil).
func CreateCatalog(storage NamedStorage, dim, numRoutines int, progress ProgressFunc) (*Catalog, error) {
	if dim < 1 {
		return nil, fmt.Errorf("Invalid grid dimension %d, must be >= 1", dim)
	}
	if numRoutines <= 0 {
		numRoutines = 1
	}
	ids := IDList(storage)
	numImages := len(ids)

	// struct that we use for the channel
	type job struct {
		pos int
		id  ImageID
	}

	signatures := make([]ColorSignature, numImages)
	jobs := make(chan job, BufferSize)
	errorChan := make(chan error, BufferSize)
	for w := 0; w < numRoutines; w++ {
		go func() {
			for next := range jobs {
				img, imageErr := storage.LoadImage(next.id)
				if imageErr != nil {
					errorChan <- imageErr
					continue
				}
				sig, sigErr := Summarize(img, dim)
				if sigErr != nil {
					errorChan <- errors.Wrap(sigErr, storage.Identifier(next.id))
					continue
				}
				signatures[next.pos] = sig
				errorChan <- nil
			}
		}()
	}

	go func() {
		for i, id := range ids {
			jobs <- job{pos: i, id: id}
		}
		close(jobs)
	}()

	skipped := 0
	for i := 0; i < numImages; i++ {
		nextErr := <-errorChan
		if nextErr != nil {
			skipped++
			log.WithFields(log.Fields{
				log.ErrorKey: nextErr,
			}).Warn("Skipping image in catalog")
		}
		if progress != nil {
			progress(i)
		}
	}

	res := NewCatalog(dim, numImages-skipped)
	for i, id := range ids {
		if signatures[i] == nil {
			continue
		}
		res.Entries = append(res.Entries, CatalogEntry{
			Identifier: storage.Identifier(id),
			Signature:  signatures[i],
		})
	}
	log.WithFields(log.Fields{
		"dim":     dim,
		"tiles":   res.Len(),
		"skipped": skipped,
	}).Info("Catalog created")
	return res, nil
}

// WriteText writes the catalog as a text table: one line per tile containing
// the identifier followed by r g b for each cell, separated by spaces.
// Identifiers must not contain whitespace.
func (c *Catalog) WriteText(w io.Writer) error {
	buf := bufio.NewWriter(w)
	for _, entry := range c.Entries {
		if entry.Identifier == "" || strings.IndexFunc(entry.Identifier, unicode.IsSpace) >= 0 {
			return fmt.Errorf("Can't write identifier \"%s\" to text catalog: Must be non-empty and not contain whitespace",
				entry.Identifier)
		}
		if _, err := buf.WriteString(entry.Identifier); err != nil {
			return err
		}
		for _, rgb := range entry.Signature {
			if _, err := fmt.Fprintf(buf, " %d %d %d", rgb.R, rgb.G, rgb.B); err != nil {
				return err
			}
		}
		if err := buf.WriteByte('\n'); err != nil {
			return err
		}
	}
	return buf.Flush()
}

func parseChannel(s string) (uint8, error) {
	val, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if val < 0 || val > 255 {
		return 0, fmt.Errorf("Color value %d out of range [0, 255]", val)
	}
	return uint8(val), nil
}

// ReadCatalogText reads a catalog in the text format written by WriteText.
// Each line must contain exactly 1 + 3·dim² fields, otherwise an error
// wrapping ErrDimensionMismatch is returned. If dim <= 0 the dimension is
// derived from the first line. Empty lines are ignored.
func ReadCatalogText(r io.Reader, dim int) (*Catalog, error) {
	res := NewCatalog(dim, -1)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if res.Dim <= 0 {
			values := len(fields) - 1
			d, ok := SignatureDim(values / 3)
			if values%3 != 0 || !ok || d < 1 {
				return nil, errors.Wrapf(ErrDimensionMismatch,
					"Line %d: Can't derive grid dimension from %d values", lineNum, values)
			}
			res.Dim = d
		}
		expected := 1 + 3*res.Dim*res.Dim
		if len(fields) != expected {
			return nil, errors.Wrapf(ErrDimensionMismatch,
				"Line %d: Expected %d fields for dimension %d, got %d",
				lineNum, expected, res.Dim, len(fields))
		}
		sig := make(ColorSignature, res.Dim*res.Dim)
		for i := range sig {
			var rgb [3]uint8
			for k := 0; k < 3; k++ {
				val, parseErr := parseChannel(fields[1+3*i+k])
				if parseErr != nil {
					return nil, errors.Wrapf(parseErr, "Line %d", lineNum)
				}
				rgb[k] = val
			}
			sig[i] = RGB{R: rgb[0], G: rgb[1], B: rgb[2]}
		}
		res.Entries = append(res.Entries, CatalogEntry{Identifier: fields[0], Signature: sig})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if res.Dim <= 0 {
		return nil, errors.Wrap(ErrDimensionMismatch, "Empty catalog and no dimension given")
	}
	return res, nil
}

// CatalogFile is the self describing form of a catalog used for gob and json
// files. Version is set to Version when writing.
type CatalogFile struct {
	Version string
	Dim     int
	Entries []CatalogEntry
}

const (
	catalogText = "text"
	catalogGob  = "gob"
	catalogJSON = "json"
)

// catalogFormat returns the encoding and if the file is zstd compressed.
// "tiles.txt", "tiles.cat" and "tiles" are text, "tiles.json.zst" is zstd
// compressed json.
func catalogFormat(path string) (string, bool, error) {
	ext := strings.ToLower(filepath.Ext(path))
	compressed := false
	if ext == ".zst" {
		compressed = true
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))))
	}
	switch ext {
	case "", ".txt", ".cat":
		return catalogText, compressed, nil
	case ".gob":
		return catalogGob, compressed, nil
	case ".json":
		return catalogJSON, compressed, nil
	default:
		return "", false, fmt.Errorf("Unkown file extension for catalog file: %s. Should be \".txt\", \".gob\" or \".json\" (optionally followed by \".zst\")", ext)
	}
}

func (c *Catalog) encode(w io.Writer, format string) error {
	switch format {
	case catalogText:
		return c.WriteText(w)
	case catalogGob:
		return gob.NewEncoder(w).Encode(CatalogFile{Version: Version, Dim: c.Dim, Entries: c.Entries})
	default:
		enc := json.NewEncoder(w)
		return enc.Encode(CatalogFile{Version: Version, Dim: c.Dim, Entries: c.Entries})
	}
}

func decodeCatalog(r io.Reader, format string, dim int) (*Catalog, error) {
	if format == catalogText {
		return ReadCatalogText(r, dim)
	}
	var file CatalogFile
	var err error
	if format == catalogGob {
		err = gob.NewDecoder(r).Decode(&file)
	} else {
		err = json.NewDecoder(r).Decode(&file)
	}
	if err != nil {
		return nil, err
	}
	if dim > 0 && file.Dim != dim {
		return nil, errors.Wrapf(ErrDimensionMismatch,
			"Catalog has dimension %d, expected %d", file.Dim, dim)
	}
	res := &Catalog{Dim: file.Dim, Entries: file.Entries}
	if checkErr := res.CheckData(); checkErr != nil {
		return nil, checkErr
	}
	return res, nil
}

// WriteFile writes the catalog to path. The encoding depends on the file
// extension, see ReadCatalogFile.
func (c *Catalog) WriteFile(path string) (err error) {
	format, compressed, formatErr := catalogFormat(path)
	if formatErr != nil {
		return formatErr
	}
	f, createErr := os.Create(path)
	if createErr != nil {
		return createErr
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	if !compressed {
		return c.encode(f, format)
	}
	enc, encErr := zstd.NewWriter(f)
	if encErr != nil {
		return encErr
	}
	if err = c.encode(enc, format); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadCatalogFile reads a catalog from path. The extension selects the
// encoding: ".gob" and ".json" are self describing files, everything else
// (".txt", ".cat", no extension) is the text table. An additional ".zst"
// extension means the file is zstd compressed, for example "tiles.txt.zst".
//
// dim is the expected grid dimension, if it is > 0 and the file was created
// for another dimension an error wrapping ErrDimensionMismatch is returned.
func ReadCatalogFile(path string, dim int) (*Catalog, error) {
	format, compressed, formatErr := catalogFormat(path)
	if formatErr != nil {
		return nil, formatErr
	}
	f, openErr := os.Open(path)
	if openErr != nil {
		return nil, openErr
	}
	defer f.Close()
	var r io.Reader = f
	if compressed {
		dec, decErr := zstd.NewReader(f)
		if decErr != nil {
			return nil, decErr
		}
		defer dec.Close()
		r = dec
	}
	res, err := decodeCatalog(r, format, dim)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return res, nil
}

// CatalogFileName returns the proposed file name for a catalog of the given
// dimension, for example "catalog-2.txt".
func CatalogFileName(dim int, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return fmt.Sprintf("catalog-%d.%s", dim, ext)
}
