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
	"os"
	"path/filepath"
	"runtime"
	"strings"

	photomosaic "github.com/bobapow/PhotoMosaic"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/nfnt/resize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "photomosaic",
	Short: "Create printable photo mosaics from an archive of images",
	Long: `photomosaic recreates an image from thousands of small square images.

First create a catalog of your archive, then create mosaics from it.

Examples:
  # Create square thumbnails of all images in ~/Pictures
  photomosaic prepare ~/tiles ~/Pictures

  # Create a catalog with grid dimension 2
  photomosaic catalog ~/tiles ~/tiles/catalog-2.txt --dim 2

  # Create an A1 mosaic with 10mm tiles
  photomosaic mosaic input.jpg mosaic.png --catalog ~/tiles/catalog-2.txt --page A1 --tile 10

  # Compare a mosaic with its source
  photomosaic score input.jpg mosaic.png

All flags can also be set in $HOME/.photomosaic.yaml or with environment
variables prefixed by MOSAIC_, for example MOSAIC_FONT=/path/to/font.ttf.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if photomosaic.Debug || viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute runs the root command and exits with status 1 on errors.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.photomosaic.yaml)")
	flags.IntP("dim", "d", 2, "grid dimension of the signatures")
	flags.IntP("routines", "r", runtime.NumCPU(), "number of go routines")
	flags.BoolP("verbose", "v", false, "print debug output")
	flags.Uint("interp", 3, "resize interpolation (0 nearest neighbor to 5 Lanczos3)")
	flags.Int("thumb", photomosaic.ThumbSize, "maximal tile size in pixels")
	flags.Int("quality", 100, "jpeg quality (1 to 100)")
	flags.Bool("recursive", true, "scan directories recursively")

	for _, name := range []string{"dim", "routines", "verbose", "interp", "thumb", "quality", "recursive"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".photomosaic")
	}
	viper.SetEnvPrefix("MOSAIC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.WithField("file", viper.ConfigFileUsed()).Debug("Using config file")
	}
}

// expandPath expands ~ and returns an absolute path.
func expandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}

func resizer() photomosaic.ImageResizer {
	return photomosaic.NewNfntResizer(interpolation())
}

func interpolation() resize.InterpolationFunction {
	return photomosaic.GetInterP(viper.GetUint("interp"))
}

func progress(max int) photomosaic.ProgressFunc {
	if max <= 0 {
		return nil
	}
	return photomosaic.LoggerProgressFunc("", max, photomosaic.IntMax(1, max/10))
}
