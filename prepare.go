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
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// PrepareOptions controls how an archive is prepared.
type PrepareOptions struct {
	// Size is the edge length of the square thumbnails in pixels.
	Size int
	// Format is the output format, "jpg" or "png".
	Format    string
	Recursive bool
	// JPGQuality is used if Format is "jpg".
	JPGQuality  int
	NumRoutines int
	Progress    ProgressFunc
}

// DefaultPrepareOptions returns options creating jpg thumbnails of ThumbSize.
func DefaultPrepareOptions() PrepareOptions {
	return PrepareOptions{
		Size:        ThumbSize,
		Format:      "jpg",
		Recursive:   true,
		JPGQuality:  95,
		NumRoutines: 4,
	}
}

// Validate checks size and format.
func (opts PrepareOptions) Validate() error {
	if opts.Size < 1 {
		return fmt.Errorf("Thumbnail size must be positive, got %d", opts.Size)
	}
	switch opts.Format {
	case "jpg", "png":
		return nil
	default:
		return fmt.Errorf("Unsupported thumbnail format \"%s\", expected jpg or png", opts.Format)
	}
}

// PrepareStats summarizes a PrepareArchive run.
type PrepareStats struct {
	Found, Written, Duplicates, Errors int
}

func (stats PrepareStats) String() string {
	return fmt.Sprintf("found %d, written %d, duplicates %d, errors %d",
		stats.Found, stats.Written, stats.Duplicates, stats.Errors)
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hash := md5.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", errors.Wrap(err, path)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

type prepareJob struct {
	src, dst string
}

// CreateThumb writes a size × size thumbnail of the centered square of src to
// dst. The format is determined by the extension of dst.
func CreateThumb(src, dst string, size, jpgQuality int) error {
	img, err := imaging.Open(src)
	if err != nil {
		return errors.Wrap(err, src)
	}
	thumb := imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)
	if mkErr := os.MkdirAll(filepath.Dir(dst), 0755); mkErr != nil {
		return mkErr
	}
	return imaging.Save(thumb, dst, imaging.JPEGQuality(jpgQuality))
}

// PrepareArchive creates square thumbnails for all images in the source
// directories and writes them to target, keeping the directory layout of each
// source. Files with the same content as a file seen before are skipped.
//
// Images that can't be converted are logged and counted in Errors, only
// errors while scanning the sources abort the preparation.
func PrepareArchive(sources []string, target string, opts PrepareOptions) (PrepareStats, error) {
	var stats PrepareStats
	if err := opts.Validate(); err != nil {
		return stats, err
	}
	if opts.NumRoutines <= 0 {
		opts.NumRoutines = 1
	}
	seen := make(map[string]string)
	jobs := make([]prepareJob, 0)
	for _, source := range sources {
		db, dbErr := GenFSDatabase(source, opts.Recursive, SupportedImage)
		if dbErr != nil {
			return stats, dbErr
		}
		stats.Found += len(db.Paths)
		for i, rel := range db.Paths {
			src := db.GetPath(ImageID(i))
			digest, digestErr := fileDigest(src)
			if digestErr != nil {
				stats.Errors++
				log.WithFields(log.Fields{log.ErrorKey: digestErr}).Warn("Can't read image")
				continue
			}
			if first, has := seen[digest]; has {
				stats.Duplicates++
				log.WithFields(log.Fields{
					"file":     src,
					"original": first,
				}).Debug("Skipping duplicate")
				continue
			}
			seen[digest] = src
			dstName := strings.TrimSuffix(rel, filepath.Ext(rel)) + "." + opts.Format
			dst := filepath.Join(target, filepath.Base(db.Root), dstName)
			jobs = append(jobs, prepareJob{src: src, dst: dst})
		}
	}

	var mutex sync.Mutex
	var group errgroup.Group
	group.SetLimit(opts.NumRoutines)
	for num, job := range jobs {
		num, job := num, job
		group.Go(func() error {
			err := CreateThumb(job.src, job.dst, opts.Size, opts.JPGQuality)
			mutex.Lock()
			defer mutex.Unlock()
			if err != nil {
				stats.Errors++
				log.WithFields(log.Fields{log.ErrorKey: err}).Warn("Can't create thumbnail")
			} else {
				stats.Written++
			}
			if opts.Progress != nil {
				opts.Progress(num)
			}
			return nil
		})
	}
	// jobs never return an error
	_ = group.Wait()
	log.WithFields(log.Fields{
		"found":      stats.Found,
		"written":    stats.Written,
		"duplicates": stats.Duplicates,
		"errors":     stats.Errors,
	}).Info("Archive prepared")
	return stats, nil
}
