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
	photomosaic "github.com/bobapow/PhotoMosaic"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <target> <dir>...",
	Short: "Create square thumbnails of all images in the directories",
	Long: `Creates a square thumbnail (size given by --thumb) of the centered square
of each image and writes it to target, keeping the directory structure. Files
with identical content are only converted once.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runPrepare,
}

func init() {
	rootCmd.AddCommand(prepareCmd)
	prepareCmd.Flags().String("format", "jpg", "thumbnail format (jpg or png)")
	viper.BindPFlag("format", prepareCmd.Flags().Lookup("format"))
}

func runPrepare(cmd *cobra.Command, args []string) error {
	target, targetErr := expandPath(args[0])
	if targetErr != nil {
		return targetErr
	}
	sources := make([]string, 0, len(args)-1)
	for _, arg := range args[1:] {
		source, sourceErr := expandPath(arg)
		if sourceErr != nil {
			return sourceErr
		}
		sources = append(sources, source)
	}
	opts := photomosaic.DefaultPrepareOptions()
	opts.Size = viper.GetInt("thumb")
	opts.Format = viper.GetString("format")
	opts.Recursive = viper.GetBool("recursive")
	opts.JPGQuality = viper.GetInt("quality")
	opts.NumRoutines = viper.GetInt("routines")
	stats, err := photomosaic.PrepareArchive(sources, target, opts)
	if err != nil {
		return err
	}
	log.WithField("target", target).Info(stats.String())
	return nil
}
