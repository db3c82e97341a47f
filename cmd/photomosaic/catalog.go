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

package main

import (
	"time"

	photomosaic "github.com/bobapow/PhotoMosaic"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog <dir> <out>",
	Short: "Create a catalog of all images in a directory",
	Long: `Computes the color signature of each image in dir and writes the catalog
to out. The format is determined by the extension of out: .txt (default), .gob
or .json, optionally followed by .zst for a compressed file.`,
	Args: cobra.ExactArgs(2),
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	dir, dirErr := expandPath(args[0])
	if dirErr != nil {
		return dirErr
	}
	out, outErr := expandPath(args[1])
	if outErr != nil {
		return outErr
	}
	dim := viper.GetInt("dim")
	db, dbErr := photomosaic.GenFSDatabase(dir, viper.GetBool("recursive"), photomosaic.SupportedImage)
	if dbErr != nil {
		return dbErr
	}
	log.WithFields(log.Fields{
		"dir":    dir,
		"images": db.NumImages(),
		"dim":    dim,
	}).Info("Creating catalog")
	start := time.Now()
	catalog, catalogErr := photomosaic.CreateCatalog(db, dim, viper.GetInt("routines"), progress(int(db.NumImages())))
	if catalogErr != nil {
		return catalogErr
	}
	if writeErr := catalog.WriteFile(out); writeErr != nil {
		return writeErr
	}
	log.WithFields(log.Fields{
		"file":    out,
		"tiles":   catalog.Len(),
		"elapsed": time.Since(start),
	}).Info("Catalog written")
	return nil
}
