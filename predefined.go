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

// This file contains some predefined scripts that can be executed. This way
// we have some easy way to create mosaics without requiring the user to know
// any details.

var (
	// RunSimple contains script code that when executed loads images from a
	// directory, creates the catalog and then creates the mosaic. The catalog
	// is not stored on the filesystem.
	// It is parameterized by three parameters: First the directory containing
	// the tile images, second the name of the input file and third the name of
	// the output file.
	//
	// It is the easiest way to create a mosaic, but it can be very slow if the
	// archive is large because all signatures are computed.
	//
	// Example usage: RunSimple ~/Pictures/ input.jpg output.png
	RunSimple = `storage load $1 true
catalog create
mosaic $2 $3`

	// RunCatalog creates a mosaic from a catalog file: The first parameter is
	// the catalog, second and third are input and output.
	//
	// Example usage: RunCatalog ~/tiles/catalog-2.txt input.jpg output.png
	RunCatalog = `catalog load $1
mosaic $2 $3`

	// RunPrepare creates thumbnails of the directory $2 in $1 and a catalog
	// file $3 for them.
	//
	// Example usage: RunPrepare ~/tiles ~/Pictures ~/tiles/catalog-2.txt
	RunPrepare = `prepare $1 $2
storage load $1 true
catalog create
catalog save $3`
)

// PredefinedScripts maps the names of the predefined scripts to their source.
var PredefinedScripts = map[string]string{
	"simple":  RunSimple,
	"catalog": RunCatalog,
	"prepare": RunPrepare,
}
