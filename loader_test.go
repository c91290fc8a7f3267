// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ecpd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/ecpd"
	"github.com/google/ecpd/sim"
)

// Four bytes at 0x0000 and two at 0x0100.
const testHex = ":0400000001020304F2\n:02010000AABB98\n:00000001FF\n"

func TestLoadImageRaw(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	img, err := ecpd.LoadImageIo(bytes.NewReader(data), false)
	if err != nil {
		t.Fatalf("LoadImageIo failed: %v", err)
	}
	if len(img.Segments) != 1 || img.Segments[0].Address != 0 || !bytes.Equal(img.Segments[0].Data, data) {
		t.Errorf("Unexpected image %+v", img)
	}
	if img.Size() != 5 {
		t.Errorf("Unexpected size %d", img.Size())
	}
}

func TestLoadImageIntelHex(t *testing.T) {
	img, err := ecpd.LoadImageIo(strings.NewReader(testHex), true)
	if err != nil {
		t.Fatalf("LoadImageIo failed: %v", err)
	}
	if len(img.Segments) != 2 {
		t.Fatalf("Expected 2 segments, got %+v", img.Segments)
	}
	if s := img.Segments[1]; s.Address != 0x100 || !bytes.Equal(s.Data, []byte{0xaa, 0xbb}) {
		t.Errorf("Unexpected segment %+v", s)
	}
}

func TestLoadImageBadIntelHex(t *testing.T) {
	if _, err := ecpd.LoadImageIo(strings.NewReader(":0400000001020304FF\n"), true); err == nil {
		t.Errorf("Bad checksum accepted")
	}
}

func TestLoadImageByExtension(t *testing.T) {
	dir := t.TempDir()
	hexFile := filepath.Join(dir, "app.HEX")
	binFile := filepath.Join(dir, "app.bin")
	if err := os.WriteFile(hexFile, []byte(testHex), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(binFile, []byte(testHex), 0644); err != nil {
		t.Fatal(err)
	}
	img, err := ecpd.LoadImage(hexFile)
	if err != nil || len(img.Segments) != 2 {
		t.Errorf("LoadImage(hex) = %+v, %v", img, err)
	}
	img, err = ecpd.LoadImage(binFile)
	if err != nil || img.Size() != len(testHex) {
		t.Errorf("LoadImage(bin) = %+v, %v", img, err)
	}
	if _, err = ecpd.LoadImage(filepath.Join(dir, "missing.bin")); err == nil {
		t.Errorf("LoadImage of a missing file succeeded")
	}
}

func TestUploadPlacesSegments(t *testing.T) {
	target := sim.NewTarget()
	u := ecpd.NewUserRegister(target, nil)
	img, err := ecpd.LoadImageIo(strings.NewReader(testHex), true)
	if err != nil {
		t.Fatalf("LoadImageIo failed: %v", err)
	}
	if err = u.Upload(0x2000, img); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if got := target.Memory(0x2000, 4); !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("Unexpected memory at 0x2000: % x", got)
	}
	// Zero padded to a whole word.
	if got := target.Memory(0x2100, 4); !bytes.Equal(got, []byte{0xaa, 0xbb, 0, 0}) {
		t.Errorf("Unexpected memory at 0x2100: % x", got)
	}
}
