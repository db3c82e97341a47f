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
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	// pngHeaderLen is the length of the PNG signature and the IHDR chunk, the
	// pHYs chunk is inserted right after it.
	pngHeaderLen = 8 + 4 + 4 + 13 + 4
	// jpegSOILen is the length of the start of image marker.
	jpegSOILen = 2
)

// pngPhysChunk returns a pHYs chunk with dpi converted to pixels per meter.
func pngPhysChunk(dpi int) []byte {
	ppm := uint32(math.Round(float64(dpi) / (MMPerInch / 1000.0)))
	data := make([]byte, 9)
	binary.BigEndian.PutUint32(data[0:4], ppm)
	binary.BigEndian.PutUint32(data[4:8], ppm)
	data[8] = 1 // unit is meter
	chunk := make([]byte, 0, 4+4+len(data)+4)
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(data)))
	chunk = append(chunk, "pHYs"...)
	chunk = append(chunk, data...)
	crc := crc32.ChecksumIEEE(chunk[4:])
	return binary.BigEndian.AppendUint32(chunk, crc)
}

// jfifSegment returns a JFIF APP0 segment with the density set to dpi.
func jfifSegment(dpi int) []byte {
	density := uint16(IntMin(dpi, math.MaxUint16))
	seg := []byte{0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x01}
	seg = binary.BigEndian.AppendUint16(seg, density)
	seg = binary.BigEndian.AppendUint16(seg, density)
	return append(seg, 0x00, 0x00)
}

func insertAt(data []byte, pos int, insert []byte) []byte {
	res := make([]byte, 0, len(data)+len(insert))
	res = append(res, data[:pos]...)
	res = append(res, insert...)
	return append(res, data[pos:]...)
}

// EncodePNG encodes img as PNG with a pHYs chunk describing the resolution.
func EncodePNG(img image.Image, dpi int) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	data := buf.Bytes()
	if len(data) < pngHeaderLen || string(data[12:16]) != "IHDR" {
		return nil, errors.New("Unexpected PNG header")
	}
	return insertAt(data, pngHeaderLen, pngPhysChunk(dpi)), nil
}

// EncodeJPEG encodes img as JPEG with a JFIF segment describing the
// resolution.
func EncodeJPEG(img image.Image, dpi, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	data := buf.Bytes()
	if len(data) < jpegSOILen || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, errors.New("Unexpected JPEG header")
	}
	return insertAt(data, jpegSOILen, jfifSegment(dpi)), nil
}

// SaveImage writes img to file, the format is chosen by the file extension
// (.png, .jpg or .jpeg). The resolution dpi is stored in the file.
// jpgQuality is only used for JPEG files.
func SaveImage(file string, img image.Image, dpi, jpgQuality int) error {
	var data []byte
	var encErr error
	ext := filepath.Ext(file)
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		data, encErr = EncodeJPEG(img, dpi, jpgQuality)
	case ".png":
		data, encErr = EncodePNG(img, dpi)
	default:
		return fmt.Errorf("Unsupported file type: %s, expected .jpg or .png", ext)
	}
	if encErr != nil {
		return errors.Wrap(encErr, file)
	}
	return os.WriteFile(file, data, 0644)
}
