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

	photomosaic "github.com/bobapow/PhotoMosaic"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score <source> <mosaic>",
	Short: "Print the similarity of a mosaic and its source in percent",
	Long: `Compares the source with the mosaic, the source is resized to the size
of the mosaic first. It must not be larger than the mosaic.`,
	Args: cobra.ExactArgs(2),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	sourcePath, sourcePathErr := expandPath(args[0])
	if sourcePathErr != nil {
		return sourcePathErr
	}
	mosaicPath, mosaicPathErr := expandPath(args[1])
	if mosaicPathErr != nil {
		return mosaicPathErr
	}
	source, sourceErr := imaging.Open(sourcePath)
	if sourceErr != nil {
		return sourceErr
	}
	mosaic, mosaicErr := imaging.Open(mosaicPath)
	if mosaicErr != nil {
		return mosaicErr
	}
	score, scoreErr := photomosaic.Similarity(source, mosaic, resizer())
	if scoreErr != nil {
		return scoreErr
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%.2f%%\n", score)
	return nil
}
