// Package photomosaic creates photo mosaics for print: a source image is
// recreated from a large archive of small square images (tiles).
//
// The archive is summarized once in a Catalog, each tile is reduced to a
// ColorSignature, the average colors of a d × d grid. To create a mosaic the
// source is divided into a grid of cells whose size follows from a page size,
// margins and the physical tile size (see PlanLayout). Each cell is matched
// against the catalog, cells are filled in a spiral starting at the center so
// that the center gets the best tiles if no tile may be used twice.
//
// GenerateMosaic runs the whole pipeline, SaveImage writes the result with the
// print resolution. The cmd/photomosaic executable and the command shell
// (see Execute) expose these functions.
package photomosaic
