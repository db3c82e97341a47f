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
	"fmt"
	"path/filepath"
	"time"

	photomosaic "github.com/bobapow/PhotoMosaic"
	"github.com/disintegration/imaging"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var mosaicCmd = &cobra.Command{
	Use:   "mosaic <in> <out>",
	Short: "Create a mosaic of an image",
	Long: `Creates a mosaic of in with the tiles of a catalog and writes it to out
(.png or .jpg). The grid is computed from the page size, the margin and the
tile size. Landscape images are rotated, the print is in portrait orientation.`,
	Args: cobra.ExactArgs(2),
	RunE: runMosaic,
}

func init() {
	rootCmd.AddCommand(mosaicCmd)
	defaults := photomosaic.DefaultMosaicOptions()

	flags := mosaicCmd.Flags()
	flags.StringP("catalog", "c", "", "catalog file (required)")
	flags.StringP("page", "p", "A1", fmt.Sprintf("page size (%v or WxH in mm)", photomosaic.PageSizeNames()))
	flags.Float64P("tile", "t", defaults.TileMM, "tile size in mm")
	flags.Float64P("margin", "m", defaults.MarginMM, "margin in mm")
	flags.Bool("dups", defaults.AllowDuplicates, "allow tiles to be used more than once")
	flags.IntP("blend", "b", defaults.Blend, "blend percentage of the source (0 to 100)")
	flags.Int("dpi", defaults.DPI, "print resolution")
	flags.Bool("banner", defaults.Banner, "print a description in the bottom margin")
	flags.String("font", "", "TrueType font for the banner")
	flags.String("metric", photomosaic.DefaultMetricName, fmt.Sprintf("color distance (%v)", photomosaic.GetVectorMetricNames()))
	flags.Bool("origin", defaults.OriginTile, "show the source image in the bottom left tile")
	flags.Int("max-pixels", defaults.MaxAxisPixels, "maximal number of pixels per axis of the grid")
	flags.Int("cache", defaults.CacheSize, "number of resized tiles to cache")
	flags.Bool("score", defaults.Score, "compute the similarity of mosaic and source")

	for _, name := range []string{"catalog", "page", "tile", "margin", "dups", "blend", "dpi",
		"banner", "font", "metric", "origin", "max-pixels", "cache", "score"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

func mosaicOptions() (photomosaic.MosaicOptions, error) {
	opts := photomosaic.DefaultMosaicOptions()
	page, pageErr := photomosaic.ParsePageSize(viper.GetString("page"))
	if pageErr != nil {
		return opts, pageErr
	}
	opts.Dim = viper.GetInt("dim")
	opts.Page = page
	opts.TileMM = viper.GetFloat64("tile")
	opts.MarginMM = viper.GetFloat64("margin")
	opts.AllowDuplicates = viper.GetBool("dups")
	opts.Blend = viper.GetInt("blend")
	opts.DPI = viper.GetInt("dpi")
	opts.Banner = viper.GetBool("banner")
	if font := viper.GetString("font"); font != "" {
		fontPath, fontErr := expandPath(font)
		if fontErr != nil {
			return opts, fontErr
		}
		opts.FontPath = fontPath
	}
	if metric := viper.GetString("metric"); metric != photomosaic.DefaultMetricName {
		opts.Metric = metric
	}
	opts.OriginTile = viper.GetBool("origin")
	opts.ThumbSize = viper.GetInt("thumb")
	opts.MaxAxisPixels = viper.GetInt("max-pixels")
	opts.CacheSize = viper.GetInt("cache")
	opts.NumRoutines = viper.GetInt("routines")
	opts.Score = viper.GetBool("score")
	opts.Resizer = resizer()
	opts.ProgressStep = 1000
	return opts, opts.Validate()
}

func runMosaic(cmd *cobra.Command, args []string) error {
	start := time.Now()
	opts, optsErr := mosaicOptions()
	if optsErr != nil {
		return optsErr
	}
	if viper.GetString("catalog") == "" {
		return fmt.Errorf("No catalog given, use --catalog")
	}
	catalogPath, catalogPathErr := expandPath(viper.GetString("catalog"))
	if catalogPathErr != nil {
		return catalogPathErr
	}
	in, inErr := expandPath(args[0])
	if inErr != nil {
		return inErr
	}
	out, outErr := expandPath(args[1])
	if outErr != nil {
		return outErr
	}
	if !photomosaic.JPGAndPNG(filepath.Ext(out)) {
		return fmt.Errorf("Supported output files are .jpg and .png, got file %s", out)
	}

	catalog, catalogErr := photomosaic.ReadCatalogFile(catalogPath, opts.Dim)
	if catalogErr != nil {
		return catalogErr
	}
	storage := photomosaic.NewCatalogImageDB(filepath.Dir(catalogPath), catalog)
	source, sourceErr := imaging.Open(in)
	if sourceErr != nil {
		return sourceErr
	}
	res, mosaicErr := photomosaic.GenerateMosaic(source, catalog, storage, opts)
	if mosaicErr != nil {
		return mosaicErr
	}
	if saveErr := photomosaic.SaveImage(out, res.Image, res.Plan.DPI, viper.GetInt("quality")); saveErr != nil {
		return saveErr
	}
	fields := log.Fields{
		"run":     res.RunID,
		"file":    out,
		"grid":    fmt.Sprintf("%dx%d", res.Plan.XD, res.Plan.YD),
		"size":    fmt.Sprintf("%dx%dmm", res.Plan.WidthMM, res.Plan.HeightMM),
		"tiles":   res.TilesUsed,
		"elapsed": time.Since(start),
	}
	if res.Similarity >= 0 {
		fields["similarity"] = fmt.Sprintf("%.2f%%", res.Similarity)
	}
	log.WithFields(fields).Info("Mosaic saved")
	return nil
}
