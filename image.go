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
	"fmt"
	"image"
	"image/color"
	"reflect"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// SupportedImageFunc is a function that takes a file extension and decides if
// this file extension is supported. Usually our library should support jpg
// and png files, but this may change depending on what image protocols are
// loaded.
//
// The extension passed to this function could be for example ".txt" or ".jpg".
// JPGAndPNG is an implementation accepting jpg and png files.
type SupportedImageFunc func(ext string) bool

// JPGAndPNG is an implementation of SupportedImageFunc accepting jpg and png
// file extensions.
func JPGAndPNG(ext string) bool {
	ext = strings.ToLower(ext)
	switch ext {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}

// SupportedImage accepts everything JPGAndPNG accepts plus gif and tiff files.
// The decoders for gif and tiff must be registered by the program (the
// photomosaic executable does this).
func SupportedImage(ext string) bool {
	if JPGAndPNG(ext) {
		return true
	}
	switch strings.ToLower(ext) {
	case ".gif", ".tif", ".tiff":
		return true
	default:
		return false
	}
}

// RGB is a color containing r, g and b components.
type RGB struct {
	R, G, B uint8
}

// NewRGB returns a new RGB color.
func NewRGB(r, g, b uint8) RGB {
	return RGB{R: r, G: g, B: b}
}

// ConvertRGB converts a generic color into the internal RGB representation.
// The alpha channel is dropped.
func ConvertRGB(c color.Color) RGB {
	// convert to rgba model
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	// convert to internal rgb representation
	return RGB{R: rgba.R, G: rgba.G, B: rgba.B}
}

// Vector returns the color as a float vector of length 3, this is the form
// vector metrics work on.
func (c RGB) Vector() []float64 {
	return []float64{float64(c.R), float64(c.G), float64(c.B)}
}

// Dist returns the distance between the two colors given the metric for the
// component vectors.
func (c RGB) Dist(other RGB, metric VectorMetric) float64 {
	return metric(c.Vector(), other.Vector())
}

func (c RGB) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.R, c.G, c.B)
}

// SubImager is a type that can produce a sub image from an original image.
type SubImager interface {
	SubImage(r image.Rectangle) image.Image
}

// SubImage returns a subimage of img given the boundaries r.
// The rectangle should be a valid area in the image. If the image type does
// not have a sub image method an error is returned.
func SubImage(img image.Image, r image.Rectangle) (image.Image, error) {
	imager, ok := img.(SubImager)
	if !ok {
		return nil, fmt.Errorf("Can't create sub image from type %v", reflect.TypeOf(img))
	}
	return imager.SubImage(r), nil
}

// CropSquare returns the largest centered square of img. Square images are
// returned unchanged. For odd differences the extra pixel is cut from the
// right / bottom.
func CropSquare(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	switch {
	case w < h:
		offset := (h - w) / 2
		return imaging.Crop(img, image.Rect(bounds.Min.X, bounds.Min.Y+offset,
			bounds.Max.X, bounds.Min.Y+offset+w))
	case w > h:
		offset := (w - h) / 2
		return imaging.Crop(img, image.Rect(bounds.Min.X+offset, bounds.Min.Y,
			bounds.Min.X+offset+h, bounds.Max.Y))
	default:
		return img
	}
}

// IsLandscape returns true if img is wider than high.
func IsLandscape(img image.Image) bool {
	bounds := img.Bounds()
	return bounds.Dx() > bounds.Dy()
}

// ImageResizer resizes an image to the given width and height.
type ImageResizer interface {
	Resize(width, height uint, img image.Image) image.Image
}

// NfntResizer uses the nfnt/resize package to resize an image.
type NfntResizer struct {
	// InterP is the interpolation function to use.
	InterP resize.InterpolationFunction
}

// NewNfntResizer returns a new resizer given the interpolation function.
func NewNfntResizer(interP resize.InterpolationFunction) NfntResizer {
	return NfntResizer{interP}
}

// GetInterP returns an interpolation function given a desired quality.
// The higher the quality the better the interpolation should be, but execution
// time is higher. Currently supported are values between 0 and 4, each
// selecting a different interpolation function. Values greater than 4 are
// treated as 5 (Lanczos3).
func GetInterP(quality uint) resize.InterpolationFunction {
	switch quality {
	case 0:
		return resize.NearestNeighbor
	case 1:
		return resize.Bilinear
	case 2:
		return resize.Bicubic
	case 3:
		return resize.MitchellNetravali
	case 4:
		return resize.Lanczos2
	default:
		return resize.Lanczos3
	}
}

// InterPString returns a human readable name of an interpolation function.
func InterPString(interP resize.InterpolationFunction) string {
	switch interP {
	case resize.NearestNeighbor:
		return "NearestNeighbor"
	case resize.Bilinear:
		return "Bilinear"
	case resize.Bicubic:
		return "Bicubic"
	case resize.MitchellNetravali:
		return "MitchellNetravali"
	case resize.Lanczos2:
		return "Lanczos2"
	case resize.Lanczos3:
		return "Lanczos3"
	default:
		return "UnknownInterpolation"
	}
}

var (
	// DefaultResizer is the resizer that is used by default, if you're
	// looking for a resizer default argument this seems useful.
	DefaultResizer = NewNfntResizer(resize.MitchellNetravali)
)

// Resize calls nfnt/resize methods. If the image already has the requested
// size it is returned without resampling.
func (resizer NfntResizer) Resize(width, height uint, img image.Image) image.Image {
	bounds := img.Bounds()
	if uint(bounds.Dx()) == width && uint(bounds.Dy()) == height {
		return img
	}
	return resize.Resize(width, height, img, resizer.InterP)
}

// ImageID is used to unambiguously identify an image.
type ImageID int

const (
	// NoImageID is used to signal errors etc. on images.
	NoImageID ImageID = -1
)

// ImageStorage is used to administrate a collection or database of images.
// Images are not stored in memory but are identified by an id and can be loaded
// into memory when required.
// A storage has a maximal id and can be used to access images with ids smaller
// than the the number of images.
// The access methods should return an error if the image id is not associated
// with any image data or if there is an error reading the image (e.g. from
// the filesystem).
//
// Implementations must be safe for concurrent use.
type ImageStorage interface {
	// NumImages returns the number of images in the storage as an ImageID.
	// All ids < than NumImages are considered valid and can be retrieved via
	// LoadImage.
	NumImages() ImageID

	// LoadImage loads an image into memory.
	LoadImage(id ImageID) (image.Image, error)
}

// NamedStorage is an ImageStorage that can name its images. The name is the
// identifier written to a catalog.
type NamedStorage interface {
	ImageStorage
	Identifier(id ImageID) string
}

// IDList returns the list [0, 1, ..., storage.NumImages - 1].
func IDList(storage ImageStorage) []ImageID {
	numImages := storage.NumImages()
	res := make([]ImageID, numImages)
	var i ImageID
	for ; i < numImages; i++ {
		res[i] = i
	}
	return res
}
