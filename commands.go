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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

var (
	// ErrCmdSyntaxErr is returned by a CommandFunc if the syntax for the command
	// is invalid.
	ErrCmdSyntaxErr = errors.New("Invalid command syntax")
)

// ExecutorState is the state during a CommandHandler execution, see that
// type for more details of the workflow.
//
// The variables in the state are shared among the executions of the command
// functions.
type ExecutorState struct {
	// WorkingDir is the current directory. It must always be an absolute path.
	WorkingDir string

	// ImgStorage contains the tile images. After a catalog has been loaded or
	// created it contains exactly the images of the catalog, in the same order.
	ImgStorage *FSImageDB

	// Catalog contains the signatures of the images in ImgStorage. Whenever
	// new images are loaded the catalog becomes invalid (set to nil again) and
	// must be reloaded / created.
	Catalog *Catalog

	// NumRoutines is the number of go routines used for different tasks during
	// mosaic generation.
	NumRoutines int

	// Verbose is true if detailed output should be generated.
	Verbose bool

	// In is the source to read commands from (line by line).
	In io.Reader

	// Out is used to write state information.
	Out io.Writer

	// Option / config part

	// JPGQuality is the quality between 1 and 100 used when storing images.
	// The higher the value the better the quality. We use a default quality of
	// 100.
	JPGQuality int

	// InterP is the interpolation functions used when resizing the images.
	InterP resize.InterpolationFunction

	// Options are the mosaic options changed with set. The resizer, cache
	// size and number of routines are taken from the state.
	Options MosaicOptions
}

// NewExecutorState returns the initial state with the current directory as
// working directory that reads commands from in.
// This method might panic if something with filepath is wrong, this should
// however usually not be the case.
func NewExecutorState(in io.Reader, out io.Writer) *ExecutorState {
	// seems reasonable
	initialRoutines := runtime.NumCPU() * 2
	if initialRoutines <= 0 {
		initialRoutines = 4
	}
	dir, err := filepath.Abs(".")
	if err != nil {
		panic(fmt.Errorf("Unable to retrieve path: %s", err.Error()))
	}
	return &ExecutorState{
		WorkingDir:  dir,
		ImgStorage:  NewFSImageDB(dir),
		Catalog:     nil,
		NumRoutines: initialRoutines,
		Verbose:     true,
		In:          in,
		Out:         out,
		JPGQuality:  100,
		InterP:      resize.Lanczos3,
		Options:     DefaultMosaicOptions(),
	}
}

// GetPath returns the absolute path given some other path.
// The idea is the following: If the user inputs a path we have two cases:
// The user used an absolute path, in this case we use this absolute path
// to perform tasks with.
// If it is a relative path we join the working directory with this path
// and thus retrieve the absolute path we work on.
//
// The home directory can be used like on Unix: ~/Pictures is the Pictures
// directory in the home directory of the user.
func (state *ExecutorState) GetPath(path string) (string, error) {
	res, pathErr := homedir.Expand(path)
	if pathErr != nil {
		return "", pathErr
	}
	if !filepath.IsAbs(res) {
		res = filepath.Join(state.WorkingDir, res)
	}
	return filepath.Abs(res)
}

// MosaicOptions returns the options for GenerateMosaic.
func (state *ExecutorState) MosaicOptions() MosaicOptions {
	opts := state.Options
	opts.NumRoutines = state.NumRoutines
	opts.Resizer = NewNfntResizer(state.InterP)
	opts.ProgressStep = 0
	if state.Verbose {
		opts.ProgressStep = 500
	}
	return opts
}

// CommandFunc is a function that is applied to the current states and
// arguments to that command.
type CommandFunc func(state *ExecutorState, args ...string) error

// Command a command consists of a function to actually execute the command
// and some information about the command.
type Command struct {
	Exec        CommandFunc
	Usage       string
	Description string
}

// CommandMap maps command names to Commands.
type CommandMap map[string]Command

// DefaultCommands contains all commands of the mosaic shell.
var DefaultCommands CommandMap

// CommandHandler together with Execute implements a high-level command
// execution loop. CommandFuncs are applied to the current state until there
// are no more commands to execute (no more input).
//
// A command has the form "COMMAND ARG1 ... ARGN" where COMMAND is the command
// name and ARG1 to ARGN are the arguments for the command.
//
// Execute first creates an initial state by calling Init and then calls
// Start. For each line read from the state's reader Before is called, the
// line is parsed and the command is looked up in the command map. Parse
// errors are reported to OnParseErr, unknown commands to OnInvalidCmd and
// failed commands to OnError, each returns true if the execution should
// continue. Successful commands are reported to OnSuccess. After is called
// once the line has been handled.
// Commands should return ErrCmdSyntaxErr if the syntax of the command is
// incorrect (for example invalid number of arguments) and OnError can do
// special handling in this case.
// OnScanErr is called if there is an error while reading a command line from
// the state's reader.
type CommandHandler interface {
	Init() *ExecutorState
	Start(s *ExecutorState)
	Before(s *ExecutorState)
	After(s *ExecutorState)
	OnParseErr(s *ExecutorState, err error) bool
	OnInvalidCmd(s *ExecutorState, cmd string) bool
	OnSuccess(s *ExecutorState, cmd Command)
	OnError(s *ExecutorState, err error, cmd Command) bool
	OnScanErr(s *ExecutorState, err error)
}

// Execute implements the high-level execution loop as described in the
// documentation of CommandHandler. commandMap is used to lookup commands.
func Execute(handler CommandHandler, commandMap CommandMap) {
	state := handler.Init()
	handler.Start(state)
	scanner := bufio.NewScanner(state.In)
	for scanner.Scan() {
		handler.Before(state)
		if !executeLine(handler, commandMap, state, scanner.Text()) {
			return
		}
		handler.After(state)
	}
	if scanErr := scanner.Err(); scanErr != nil {
		handler.OnScanErr(state, scanErr)
	}
}

// executeLine runs a single line, it returns false if execution should stop.
func executeLine(handler CommandHandler, commandMap CommandMap, state *ExecutorState, line string) bool {
	parsedCmd, parseErr := ParseCommand(line)
	if parseErr != nil {
		return handler.OnParseErr(state, parseErr)
	}
	// empty lines and comments
	if len(parsedCmd) == 0 || strings.HasPrefix(parsedCmd[0], "#") {
		return true
	}
	cmd := parsedCmd[0]
	nextCmd, ok := commandMap[cmd]
	if !ok {
		return handler.OnInvalidCmd(state, cmd)
	}
	if execErr := nextCmd.Exec(state, parsedCmd[1:]...); execErr != nil {
		return handler.OnError(state, execErr, nextCmd)
	}
	handler.OnSuccess(state, nextCmd)
	return true
}

func isEOF(r []rune, i int) bool {
	return i == len(r)
}

// ParseCommand parses a command of the form "COMMAND ARG1 ... ARGN".
// Examples:
//
// foo bar is the command "foo" with argument "bar". Arguments might also
// be enclosed in quotes, so foo "bar bar" is parsed as command foo with
// argument bar bar (a single argument). Inside and outside of quotes \" and \\
// escape a quote and a backslash.
func ParseCommand(s string) ([]string, error) {
	parseErr := errors.New("Error parsing command line")
	res := make([]string, 0)
	// basically this is an deterministic automaton with five states:
	// 0: between arguments
	// 1: inside an argument without quotes
	// 2: after a \ in state 1
	// 3: inside an argument enclosed in ""
	// 4: after a \ in state 3
	r := []rune(s)
	state, i := 0, 0
	currentArg := make([]rune, 0)
L:
	for ; i <= len(r); i++ {
		switch state {
		case 0:
			if isEOF(r, i) {
				break L
			}
			switch r[i] {
			case ' ', '\t':
				// do nothing, just remain in state
			case '\\':
				state = 2
			case '"':
				state = 3
			default:
				currentArg = append(currentArg, r[i])
				state = 1
			}
		case 1:
			if isEOF(r, i) {
				break L
			}
			switch r[i] {
			case ' ', '\t':
				res = append(res, string(currentArg))
				currentArg = nil
				state = 0
			case '\\':
				state = 2
			case '"':
				return nil, parseErr
			default:
				currentArg = append(currentArg, r[i])
			}
		case 2:
			if isEOF(r, i) {
				return nil, parseErr
			}
			switch r[i] {
			case '\\', '"':
				currentArg = append(currentArg, r[i])
				state = 1
			default:
				return nil, parseErr
			}
		case 3:
			if isEOF(r, i) {
				return nil, parseErr
			}
			switch r[i] {
			case '"':
				res = append(res, string(currentArg))
				currentArg = nil
				state = 0
			case '\\':
				state = 4
			default:
				currentArg = append(currentArg, r[i])
			}
		case 4:
			if isEOF(r, i) {
				return nil, parseErr
			}
			switch r[i] {
			case '\\', '"':
				currentArg = append(currentArg, r[i])
				state = 3
			default:
				return nil, parseErr
			}
		}
	}
	// the last argument is not terminated by a space
	if len(currentArg) > 0 {
		res = append(res, string(currentArg))
	}
	return res, nil
}

// PwdCommand is a command that prints the current working directory.
func PwdCommand(state *ExecutorState, args ...string) error {
	fmt.Fprintln(state.Out, state.WorkingDir)
	return nil
}

// stateVariables returns the printable values of all variables.
func stateVariables(state *ExecutorState) map[string]interface{} {
	opts := state.Options
	font := opts.FontPath
	if font == "" {
		font = "<builtin>"
	}
	metric := opts.Metric
	if metric == "" {
		metric = DefaultMetricName
	}
	return map[string]interface{}{
		"routines":     state.NumRoutines,
		"verbose":      state.Verbose,
		"jpeg-quality": state.JPGQuality,
		"interp":       InterPString(state.InterP),
		"cache":        opts.CacheSize,
		"dim":          opts.Dim,
		"page":         opts.Page.String(),
		"tile":         strconv.FormatFloat(opts.TileMM, 'f', -1, 64),
		"margin":       strconv.FormatFloat(opts.MarginMM, 'f', -1, 64),
		"dups":         opts.AllowDuplicates,
		"blend":        fmt.Sprintf("%d%%", opts.Blend),
		"dpi":          opts.DPI,
		"banner":       opts.Banner,
		"font":         font,
		"metric":       metric,
		"origin":       opts.OriginTile,
		"thumb":        opts.ThumbSize,
		"max-pixels":   opts.MaxAxisPixels,
	}
}

// StatsCommand is a command that prints variable / value pairs.
func StatsCommand(state *ExecutorState, args ...string) error {
	m := stateVariables(state)
	if len(args) == 1 {
		// print specific value
		val, has := m[args[0]]
		if !has {
			return fmt.Errorf("Unkown variable %s", args[0])
		}
		fmt.Fprintf(state.Out, "%s ==> %v\n", args[0], val)
		return nil
	}
	// keep order deterministic
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, variable := range keys {
		fmt.Fprintf(state.Out, "%s ==> %v\n", variable, m[variable])
	}
	return nil
}

func parsePositiveInt(name, s string) (int, error) {
	val, parseErr := strconv.Atoi(s)
	if parseErr != nil {
		return 0, fmt.Errorf("Invalid value for %s (must be positive int): %s", name, parseErr.Error())
	}
	if val <= 0 {
		return 0, fmt.Errorf("Invalid value for %s (must be positive int): %d", name, val)
	}
	return val, nil
}

func parseBoolVar(name, s string) (bool, error) {
	val, parseErr := strconv.ParseBool(s)
	if parseErr != nil {
		return false, fmt.Errorf("Invalid value for %s (must be true or false): %s", name, parseErr.Error())
	}
	return val, nil
}

func parseMM(name, s string) (float64, error) {
	val, parseErr := strconv.ParseFloat(s, 64)
	if parseErr != nil {
		return 0, fmt.Errorf("Invalid value for %s (must be a size in mm): %s", name, parseErr.Error())
	}
	if val < 0 {
		return 0, fmt.Errorf("Invalid value for %s (must not be negative): %s", name, s)
	}
	return val, nil
}

// SetVarCommand sets a variable to a new value.
func SetVarCommand(state *ExecutorState, args ...string) error {
	if len(args) != 2 {
		return errors.New("Invalid set syntax: Requires variable and value. For a list of variables use \"stats\"")
	}
	name, valueStr := args[0], args[1]
	opts := &state.Options
	var err error
	switch name {
	case "routines":
		state.NumRoutines, err = parsePositiveInt(name, valueStr)
	case "verbose":
		state.Verbose, err = parseBoolVar(name, valueStr)
	case "jpeg-quality":
		val, parseErr := parsePositiveInt(name, valueStr)
		if parseErr != nil || val > 100 {
			return fmt.Errorf("Invalid value for jpeg-quality (must be int between 1 and 100): %s", valueStr)
		}
		state.JPGQuality = val
	case "interp":
		val, parseErr := strconv.Atoi(valueStr)
		if parseErr != nil || val < 0 {
			return fmt.Errorf("Invalid value for interpolation function, must be integer >= 0: %s", valueStr)
		}
		state.InterP = GetInterP(uint(val))
	case "cache":
		opts.CacheSize, err = parsePositiveInt(name, valueStr)
	case "dim":
		var dim int
		if dim, err = parsePositiveInt(name, valueStr); err == nil {
			opts.Dim = dim
			if state.Catalog != nil && state.Catalog.Dim != dim {
				fmt.Fprintf(state.Out, "Loaded catalog has dimension %d, create or load a catalog for dimension %d\n",
					state.Catalog.Dim, dim)
			}
		}
	case "page":
		opts.Page, err = ParsePageSize(valueStr)
	case "tile":
		var tile float64
		if tile, err = parseMM(name, valueStr); err == nil && tile == 0 {
			err = errors.New("Invalid value for tile: must be positive")
		}
		if err == nil {
			opts.TileMM = tile
		}
	case "margin":
		opts.MarginMM, err = parseMM(name, valueStr)
	case "dups":
		opts.AllowDuplicates, err = parseBoolVar(name, valueStr)
	case "blend":
		opts.Blend, err = ParsePercent(valueStr)
	case "dpi":
		var dpi int
		if dpi, err = parsePositiveInt(name, valueStr); err == nil && dpi < MinDPI {
			err = fmt.Errorf("Invalid value for dpi: must be at least %d", MinDPI)
		}
		if err == nil {
			opts.DPI = dpi
		}
	case "banner":
		opts.Banner, err = parseBoolVar(name, valueStr)
	case "font":
		if valueStr == "" || valueStr == "-" {
			opts.FontPath = ""
			return nil
		}
		opts.FontPath, err = state.GetPath(valueStr)
	case "metric":
		if _, has := GetVectorMetric(valueStr); !has {
			return fmt.Errorf("Unknown metric \"%s\", valid metrics: %s", valueStr,
				strings.Join(GetVectorMetricNames(), " "))
		}
		if valueStr == DefaultMetricName {
			valueStr = ""
		}
		opts.Metric = valueStr
	case "origin":
		opts.OriginTile, err = parseBoolVar(name, valueStr)
	case "thumb":
		opts.ThumbSize, err = parsePositiveInt(name, valueStr)
	case "max-pixels":
		opts.MaxAxisPixels, err = parsePositiveInt(name, valueStr)
	default:
		return fmt.Errorf("Invalid variable \"%s\". For a list use \"stats\"", name)
	}
	return err
}

// CdCommand is a command that changes the current directory.
func CdCommand(state *ExecutorState, args ...string) error {
	if len(args) != 1 {
		return ErrCmdSyntaxErr
	}
	path, pathErr := state.GetPath(args[0])
	if pathErr != nil {
		return fmt.Errorf("Changing directory failed: %s", pathErr.Error())
	}
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("Changing directory failed: %s", err.Error())
	}
	if !fi.IsDir() {
		return fmt.Errorf("Changing directory failed: \"%s\" is not a directory", path)
	}
	state.WorkingDir = path
	return nil
}

// ImageStorageCommand is a command that controls the tile images.
// This command without arguments just prints the number of images in the
// storage.
// With the single argument "list" it prints the path of each image in the
// storage.
// With the argument "load" an optional second argument "DIR" is accepted, this
// will load all images from the directory (working directory by default). If
// a third argument is provided this must be a bool that is true if the
// directory should be scanned recursively. The default is not to scan
// recursively.
func ImageStorageCommand(state *ExecutorState, args ...string) error {
	switch {
	case len(args) == 0:
		fmt.Fprintln(state.Out, "Number of tile images:", state.ImgStorage.NumImages())
		return nil
	case args[0] == "list":
		for _, id := range IDList(state.ImgStorage) {
			fmt.Fprintf(state.Out, "  %s\n", state.ImgStorage.GetPath(id))
		}
		fmt.Fprintln(state.Out, "Total:", state.ImgStorage.NumImages())
		return nil
	case args[0] == "load":
		dir := state.WorkingDir
		recursive := false
		if len(args) > 2 {
			var boolErr error
			if recursive, boolErr = strconv.ParseBool(args[2]); boolErr != nil {
				return boolErr
			}
		}
		if len(args) > 1 {
			var pathErr error
			if dir, pathErr = state.GetPath(args[1]); pathErr != nil {
				return pathErr
			}
		}
		fmt.Fprintln(state.Out, "Loading images from", dir)
		if recursive {
			fmt.Fprintln(state.Out, "Recursive mode enabled")
		}
		db, loadErr := GenFSDatabase(dir, recursive, SupportedImage)
		if loadErr != nil {
			return loadErr
		}
		state.ImgStorage = db
		// the catalog belongs to the old images
		state.Catalog = nil
		fmt.Fprintln(state.Out, "Successfully read", db.NumImages(), "images")
		fmt.Fprintln(state.Out, "Don't forget to create or load a catalog!")
		return nil
	default:
		return ErrCmdSyntaxErr
	}
}

// CatalogCommand can create a catalog for all images in storage, save, load
// and list catalogs.
func CatalogCommand(state *ExecutorState, args ...string) error {
	switch {
	case len(args) == 0:
		if state.Catalog == nil {
			fmt.Fprintln(state.Out, "No catalog loaded")
		} else {
			fmt.Fprintf(state.Out, "Catalog with %d tiles of dimension %d\n", state.Catalog.Len(), state.Catalog.Dim)
		}
		return nil
	case args[0] == "create":
		dim := state.Options.Dim
		if len(args) > 1 {
			var parseErr error
			if dim, parseErr = parsePositiveInt("dim", args[1]); parseErr != nil {
				return parseErr
			}
		}
		numImages := int(state.ImgStorage.NumImages())
		if numImages == 0 {
			return errors.New("No images in storage, use \"storage load\"")
		}
		fmt.Fprintf(state.Out, "Creating catalog for all images in storage with dimension %d\n", dim)
		var progress ProgressFunc
		if state.Verbose {
			progress = StdProgressFunc(state.Out, "", numImages, IntMax(1, IntMin(100, numImages/10)))
		}
		start := time.Now()
		catalog, catalogErr := CreateCatalog(state.ImgStorage, dim, state.NumRoutines, progress)
		if catalogErr != nil {
			return catalogErr
		}
		state.Catalog = catalog
		// only images with a signature remain in the storage
		state.ImgStorage = NewCatalogImageDB("", catalog)
		state.Options.Dim = dim
		fmt.Fprintf(state.Out, "Computed %d signatures in %v\n", catalog.Len(), time.Since(start))
		return nil
	case args[0] == "save":
		if state.Catalog == nil {
			return errors.New("No catalog loaded yet")
		}
		if len(args) < 2 {
			return ErrCmdSyntaxErr
		}
		path, pathErr := state.GetPath(args[1])
		if pathErr != nil {
			return pathErr
		}
		// an existing directory gets the default name
		if fi, fiErr := os.Stat(path); fiErr == nil && fi.IsDir() {
			path = filepath.Join(path, CatalogFileName(state.Catalog.Dim, "txt"))
		}
		if saveErr := state.Catalog.WriteFile(path); saveErr != nil {
			return saveErr
		}
		fmt.Fprintln(state.Out, "Successfully wrote", state.Catalog.Len(), "signatures to", path)
		return nil
	case args[0] == "load":
		if len(args) < 2 {
			return ErrCmdSyntaxErr
		}
		path, pathErr := state.GetPath(args[1])
		if pathErr != nil {
			return pathErr
		}
		dim := 0
		if len(args) > 2 {
			var parseErr error
			if dim, parseErr = parsePositiveInt("dim", args[2]); parseErr != nil {
				return parseErr
			}
		}
		catalog, readErr := ReadCatalogFile(path, dim)
		if readErr != nil {
			return readErr
		}
		state.Catalog = catalog
		state.ImgStorage = NewCatalogImageDB(filepath.Dir(path), catalog)
		state.Options.Dim = catalog.Dim
		fmt.Fprintf(state.Out, "Read %d signatures of dimension %d\n", catalog.Len(), catalog.Dim)
		return nil
	case args[0] == "list":
		if state.Catalog == nil {
			return errors.New("No catalog loaded yet")
		}
		for i, entry := range state.Catalog.Entries {
			fmt.Fprintf(state.Out, "  %d %s\n", i, entry.Identifier)
		}
		fmt.Fprintln(state.Out, "Total:", state.Catalog.Len())
		return nil
	default:
		return ErrCmdSyntaxErr
	}
}

// MosaicCommand creates a mosaic image with the current options.
// Usage example: mosaic in.jpg out.png
func MosaicCommand(state *ExecutorState, args ...string) error {
	if len(args) != 2 {
		return ErrCmdSyntaxErr
	}
	if state.Catalog == nil {
		return errors.New("No catalog loaded, use \"catalog create\" or \"catalog load\"")
	}
	inPath, inErr := state.GetPath(args[0])
	if inErr != nil {
		return inErr
	}
	outPath, outErr := state.GetPath(args[1])
	if outErr != nil {
		return outErr
	}
	if !JPGAndPNG(filepath.Ext(outPath)) {
		return fmt.Errorf("Supported output files are .jpg and .png, got file %s", outPath)
	}
	start := time.Now()
	if state.Verbose {
		fmt.Fprintln(state.Out, "Reading image", inPath)
	}
	img, readErr := imaging.Open(inPath)
	if readErr != nil {
		return readErr
	}
	res, mosaicErr := GenerateMosaic(img, state.Catalog, state.ImgStorage, state.MosaicOptions())
	if mosaicErr != nil {
		return mosaicErr
	}
	if writeErr := SaveImage(outPath, res.Image, res.Plan.DPI, state.JPGQuality); writeErr != nil {
		return writeErr
	}
	fmt.Fprintln(state.Out, "Mosaic saved to", outPath)
	if state.Verbose {
		fmt.Fprintf(state.Out, "Grid: %dx%d tiles, %d different tiles\n", res.Plan.XD, res.Plan.YD, res.TilesUsed)
		fmt.Fprintf(state.Out, "Size: %dx%d mm at %d dpi\n", res.Plan.WidthMM, res.Plan.HeightMM, res.Plan.DPI)
		if res.Similarity >= 0 {
			fmt.Fprintf(state.Out, "Similarity: %.2f%%\n", res.Similarity)
		}
		fmt.Fprintln(state.Out, "Total creation time:", time.Since(start))
	}
	return nil
}

// ScoreCommand prints the similarity of an image and a mosaic.
func ScoreCommand(state *ExecutorState, args ...string) error {
	if len(args) != 2 {
		return ErrCmdSyntaxErr
	}
	paths := make([]string, len(args))
	for i, arg := range args {
		var pathErr error
		if paths[i], pathErr = state.GetPath(arg); pathErr != nil {
			return pathErr
		}
	}
	source, sourceErr := imaging.Open(paths[0])
	if sourceErr != nil {
		return sourceErr
	}
	mosaic, mosaicErr := imaging.Open(paths[1])
	if mosaicErr != nil {
		return mosaicErr
	}
	score, scoreErr := Similarity(source, mosaic, NewNfntResizer(state.InterP))
	if scoreErr != nil {
		return scoreErr
	}
	fmt.Fprintf(state.Out, "Similarity: %.2f%%\n", score)
	return nil
}

// PrepareCommand creates thumbnails of one or more directories.
// Usage: prepare <target> <dir>...
func PrepareCommand(state *ExecutorState, args ...string) error {
	if len(args) < 2 {
		return ErrCmdSyntaxErr
	}
	target, targetErr := state.GetPath(args[0])
	if targetErr != nil {
		return targetErr
	}
	sources := make([]string, 0, len(args)-1)
	for _, arg := range args[1:] {
		source, pathErr := state.GetPath(arg)
		if pathErr != nil {
			return pathErr
		}
		sources = append(sources, source)
	}
	opts := DefaultPrepareOptions()
	opts.Size = state.Options.ThumbSize
	opts.NumRoutines = state.NumRoutines
	opts.JPGQuality = state.JPGQuality
	stats, err := PrepareArchive(sources, target, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(state.Out, "Prepared archive:", stats)
	return nil
}

// HelpCommand prints the usage of all commands or a single command.
func HelpCommand(state *ExecutorState, args ...string) error {
	if len(args) > 0 {
		cmd, has := DefaultCommands[args[0]]
		if !has {
			return fmt.Errorf("Unknown command \"%s\"", args[0])
		}
		fmt.Fprintln(state.Out, "Usage:", cmd.Usage)
		fmt.Fprintln(state.Out)
		fmt.Fprintln(state.Out, cmd.Description)
		return nil
	}
	names := make([]string, 0, len(DefaultCommands))
	for name := range DefaultCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(state.Out, "  %s\n", DefaultCommands[name].Usage)
	}
	return nil
}

func init() {
	DefaultCommands = make(map[string]Command, 20)
	DefaultCommands["pwd"] = Command{
		Exec:        PwdCommand,
		Usage:       "pwd",
		Description: "Show current working directory.",
	}
	DefaultCommands["stats"] = Command{
		Exec:        StatsCommand,
		Usage:       "stats [var]",
		Description: "Show value of variables that can be changed via set, if var is given only value of that variable",
	}
	DefaultCommands["set"] = Command{
		Exec:  SetVarCommand,
		Usage: "set <variable> <value>",
		Description: "Set value for a variable. Variables are routines, verbose," +
			" jpeg-quality, interp, cache, dim, page (A0, A1, B0, B1 or WxH in mm)," +
			" tile (mm), margin (mm), dups, blend (percent), dpi, banner, font," +
			" metric, origin, thumb and max-pixels.",
	}
	DefaultCommands["cd"] = Command{
		Exec:        CdCommand,
		Usage:       "cd <dir>",
		Description: "Change working directory to the specified directory",
	}
	DefaultCommands["storage"] = Command{
		Exec:  ImageStorageCommand,
		Usage: "storage [list] or storage load [dir] [recursive]",
		Description: "This command controls the tile images. If \"list\" is used a" +
			" list of all images will be printed, note that this can be quite large.\n\n" +
			"If load is used the image storage will be initialized with images from" +
			" the directory (working directory if no directory is provided). All" +
			" previously loaded images and the catalog will be removed.",
	}
	DefaultCommands["catalog"] = Command{
		Exec:  CatalogCommand,
		Usage: "catalog create [dim] or catalog load <file> [dim] or catalog save <file> or catalog list",
		Description: "Used to administrate the catalog of tile signatures.\n\n" +
			"\"create\" computes the signatures of all images in storage with the" +
			" given grid dimension. \"load\" reads a catalog and uses its images as" +
			" storage, relative identifiers are resolved against the directory of" +
			" the file. The file format is determined by the extension: .txt," +
			" .gob or .json, optionally followed by .zst for compressed files.",
	}
	DefaultCommands["mosaic"] = Command{
		Exec:  MosaicCommand,
		Usage: "mosaic <in> <out>",
		Description: "Creates a mosaic of the image in and writes it to out (.jpg" +
			" or .png). The layout is controlled by the variables page, tile," +
			" margin, dpi and dim, see \"stats\". Valid metrics for \"set metric\": " +
			strings.Join(GetVectorMetricNames(), " "),
	}
	DefaultCommands["score"] = Command{
		Exec:        ScoreCommand,
		Usage:       "score <source> <mosaic>",
		Description: "Prints the similarity of source and mosaic in percent.",
	}
	DefaultCommands["prepare"] = Command{
		Exec:  PrepareCommand,
		Usage: "prepare <target> <dir>...",
		Description: "Creates square thumbnails of size thumb for all images in the" +
			" directories (recursively) and writes them to target. Files with" +
			" identical content are only used once.",
	}
	DefaultCommands["help"] = Command{
		Exec:        HelpCommand,
		Usage:       "help [command]",
		Description: "Show all commands or the description of a command.",
	}
}

// ReplHandler implements CommandHandler by reading commands from stdin and
// writing output to stdout.
type ReplHandler struct{}

// Init creates an initial ExecutorState reading from stdin.
func (h ReplHandler) Init() *ExecutorState {
	return NewExecutorState(os.Stdin, os.Stdout)
}

func (h ReplHandler) Start(s *ExecutorState) {
	fmt.Println("Welcome to the photo mosaic generator, type \"help\" for a list of commands")
	fmt.Print(">>> ")
}

func (h ReplHandler) Before(s *ExecutorState) {}

func (h ReplHandler) After(s *ExecutorState) {
	fmt.Print(">>> ")
}

func (h ReplHandler) OnParseErr(s *ExecutorState, err error) bool {
	fmt.Println("Syntax error", err)
	return true
}

func (h ReplHandler) OnInvalidCmd(s *ExecutorState, cmd string) bool {
	fmt.Printf("Invalid command \"%s\"\n", cmd)
	return true
}

func (h ReplHandler) OnSuccess(s *ExecutorState, cmd Command) {}

func (h ReplHandler) OnError(s *ExecutorState, err error, cmd Command) bool {
	if err == ErrCmdSyntaxErr {
		fmt.Println("Invalid syntax for command.")
		fmt.Println("Usage:", cmd.Usage)
	} else {
		fmt.Println("Error while executing command:", err.Error())
	}
	return true
}

func (h ReplHandler) OnScanErr(s *ExecutorState, err error) {
	fmt.Println("Error while reading:", err.Error())
}

// ScriptHandler implements CommandHandler. It writes the output to Out
// and reads from a specified reader. It stops whenever an error is enountered,
// the error is stored in Err.
type ScriptHandler struct {
	Source io.Reader
	Out    io.Writer
	Err    *error
}

// NewScriptHandler returns a new script handler that reads input from the given
// source and writes to stdout.
func NewScriptHandler(source io.Reader) ScriptHandler {
	var err error
	return ScriptHandler{Source: source, Out: os.Stdout, Err: &err}
}

func (h ScriptHandler) setErr(err error) {
	if h.Err != nil {
		*h.Err = err
	}
}

// Init creates an initial ExecutorState reading from the script source.
func (h ScriptHandler) Init() *ExecutorState {
	out := h.Out
	if out == nil {
		out = os.Stdout
	}
	return NewExecutorState(h.Source, out)
}

func (h ScriptHandler) Start(s *ExecutorState) {}

func (h ScriptHandler) Before(s *ExecutorState) {}

func (h ScriptHandler) After(s *ExecutorState) {}

func (h ScriptHandler) OnParseErr(s *ExecutorState, err error) bool {
	fmt.Fprintln(os.Stderr, "Syntax error:", err)
	h.setErr(err)
	return false
}

func (h ScriptHandler) OnInvalidCmd(s *ExecutorState, cmd string) bool {
	fmt.Fprintf(os.Stderr, "Invalid command \"%s\"\n", cmd)
	h.setErr(fmt.Errorf("Invalid command \"%s\"", cmd))
	return false
}

func (h ScriptHandler) OnSuccess(s *ExecutorState, cmd Command) {}

func (h ScriptHandler) OnError(s *ExecutorState, err error, cmd Command) bool {
	if err == ErrCmdSyntaxErr {
		fmt.Fprintln(os.Stderr, "Error: Invalid syntax for command.")
		fmt.Fprintln(os.Stderr, "Usage:", cmd.Usage)
	} else {
		fmt.Fprintln(os.Stderr, "Error while executing command:", err.Error())
	}
	h.setErr(err)
	return false
}

func (h ScriptHandler) OnScanErr(s *ExecutorState, err error) {
	fmt.Fprintln(os.Stderr, "Error while reading:", err.Error())
	h.setErr(err)
}

// ScriptHandlerFromCmds is a function to create a script handler from
// a predefined set of lines. This allows us for easy execution of predefined
// scripts.
func ScriptHandlerFromCmds(lines []string) ScriptHandler {
	return NewScriptHandler(ReaderFromCmdLines(lines))
}

// ReaderFromCmdLines returns a reader for a script source that reads the
// content of the combined lines.
func ReaderFromCmdLines(lines []string) io.Reader {
	combined := strings.Join(lines, "\n")
	return strings.NewReader(combined)
}

// argsReplacer returns a replacer that replaces each $i by args[i-1]. The
// highest numbers come first, so $10 is not replaced by the value of $1.
func argsReplacer(args []string) *strings.Replacer {
	replaceArgs := make([]string, 0, 2*len(args))
	for i := len(args) - 1; i >= 0; i-- {
		replaceArgs = append(replaceArgs, fmt.Sprintf("$%d", i+1), args[i])
	}
	return strings.NewReplacer(replaceArgs...)
}

// Parameterized is used to transform parameterized commands into executable
// commands, that means replacing variables $i with the provided argument.
// Example:
// The command "catalog load $1" can be called with one argument that will
// replace the placeholder $1.
//
// The current implementation works by reading the whole original reader and
// then transforming the elements, given that scripts are not too long the
// overhead should be manageable.
func Parameterized(r io.Reader, args ...string) (io.Reader, error) {
	replacer := argsReplacer(args)
	lines := make([]string, 0, 20)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, replacer.Replace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ReaderFromCmdLines(lines), nil
}

// ParameterizedFromStrings returns a reader for commands (each entry is
// considered to be a command) with placeholders replaced by args.
// For placeholder details see Parameterized.
func ParameterizedFromStrings(commands []string, args ...string) io.Reader {
	replacer := argsReplacer(args)
	lines := make([]string, 0, len(commands))
	for _, line := range commands {
		lines = append(lines, replacer.Replace(line))
	}
	return ReaderFromCmdLines(lines)
}
