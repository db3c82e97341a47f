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
	"hash/crc32"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestEncodePNG(t *testing.T) {
	img := uniformImage(3, 2, gray(100))
	data, err := EncodePNG(img, 300)
	if err != nil {
		t.Fatal(err)
	}
	chunk := data[33:]
	if length := binary.BigEndian.Uint32(chunk[0:4]); length != 9 || string(chunk[4:8]) != "pHYs" {
		t.Fatalf("Expected pHYs chunk after IHDR, got %q with length %d", chunk[4:8], length)
	}
	x, y := binary.BigEndian.Uint32(chunk[8:12]), binary.BigEndian.Uint32(chunk[12:16])
	if x != 11811 || y != 11811 || chunk[16] != 1 {
		t.Errorf("Expected 11811 pixels per meter, got %d x %d (unit %d)", x, y, chunk[16])
	}
	if crc := binary.BigEndian.Uint32(chunk[17:21]); crc != crc32.ChecksumIEEE(chunk[4:17]) {
		t.Error("Invalid chunk checksum")
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds() != img.Bounds() || ConvertRGB(decoded.At(2, 1)) != NewRGB(100, 100, 100) {
		t.Error("Decoded image differs")
	}
}

func TestEncodeJPEG(t *testing.T) {
	img := uniformImage(16, 8, gray(100))
	data, err := EncodeJPEG(img, 150, 90)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data[2:4], []byte{0xFF, 0xE0}) || string(data[6:11]) != "JFIF\x00" {
		t.Fatalf("Expected JFIF segment after SOI, got % x", data[:12])
	}
	if data[13] != 1 || binary.BigEndian.Uint16(data[14:16]) != 150 || binary.BigEndian.Uint16(data[16:18]) != 150 {
		t.Errorf("Expected density of 150 dpi, got % x", data[13:18])
	}
	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("Expected bounds %v, got %v", img.Bounds(), decoded.Bounds())
	}
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	img := uniformImage(4, 4, gray(0))
	for _, name := range []string{"out.png", "out.JPG", "out.jpeg"} {
		path := filepath.Join(dir, name)
		if err := SaveImage(path, img, 72, 90); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		_, _, decodeErr := image.Decode(f)
		f.Close()
		if decodeErr != nil {
			t.Errorf("%s: %v", name, decodeErr)
		}
	}
	if err := SaveImage(filepath.Join(dir, "out.gif"), img, 72, 90); err == nil {
		t.Error("Expected error for unsupported format")
	}
}
