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
	"io"
	"os"

	photomosaic "github.com/bobapow/PhotoMosaic"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive shell",
	Long: `Starts a shell to load images and catalogs and create mosaics. Type
"help" for a list of commands. The variables of the shell are initialized with
the flags and the config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		photomosaic.Execute(replHandler{}, photomosaic.DefaultCommands)
		return nil
	},
}

var scriptCmd = &cobra.Command{
	Use:   "script <file> [args...]",
	Short: "Execute the commands in a script file",
	Long: `Executes a script with one shell command per line and stops on the first
error. Placeholders $1, $2 ... are replaced by args. Instead of a file one of
the predefined scripts simple, catalog or prepare can be used:

  photomosaic script simple ~/tiles input.jpg mosaic.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(scriptCmd)
}

// initState applies the command line configuration to a new shell state.
func initState(state *photomosaic.ExecutorState) {
	state.NumRoutines = viper.GetInt("routines")
	state.InterP = interpolation()
	if quality := viper.GetInt("quality"); quality >= 1 && quality <= 100 {
		state.JPGQuality = quality
	}
	opts, err := mosaicOptions()
	if err != nil {
		log.WithFields(log.Fields{log.ErrorKey: err}).Warn("Ignoring invalid mosaic options")
		return
	}
	state.Options = opts
}

type replHandler struct {
	photomosaic.ReplHandler
}

func (h replHandler) Init() *photomosaic.ExecutorState {
	state := h.ReplHandler.Init()
	initState(state)
	return state
}

type scriptHandler struct {
	photomosaic.ScriptHandler
}

func (h scriptHandler) Init() *photomosaic.ExecutorState {
	state := h.ScriptHandler.Init()
	initState(state)
	return state
}

func runScript(cmd *cobra.Command, args []string) error {
	var source io.Reader
	if predefined, has := photomosaic.PredefinedScripts[args[0]]; has {
		if _, statErr := os.Stat(args[0]); statErr != nil {
			source = photomosaic.ParameterizedFromStrings([]string{predefined}, args[1:]...)
		}
	}
	if source == nil {
		path, pathErr := expandPath(args[0])
		if pathErr != nil {
			return pathErr
		}
		f, openErr := os.Open(path)
		if openErr != nil {
			return openErr
		}
		defer f.Close()
		var paramErr error
		if source, paramErr = photomosaic.Parameterized(f, args[1:]...); paramErr != nil {
			return paramErr
		}
	}
	handler := photomosaic.NewScriptHandler(source)
	handler.Out = cmd.OutOrStdout()
	photomosaic.Execute(scriptHandler{handler}, photomosaic.DefaultCommands)
	if *handler.Err != nil {
		return fmt.Errorf("Script failed: %s", (*handler.Err).Error())
	}
	return nil
}
