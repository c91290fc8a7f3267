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

// Program image upload and application start.
package ecpd

import (
	"encoding/binary"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/marcinbor85/gohex"
)

type Segment struct {
	Address uint32
	Data    []byte
}

// A program image as a list of segments relative to the upload address.
type Image struct {
	Segments []Segment
}

// Total number of data bytes in the image.
func (img *Image) Size() int {
	n := 0
	for _, s := range img.Segments {
		n += len(s.Data)
	}
	return n
}

// Loads an image from the local filesystem. Files with a .hex extension are
// parsed as Intel-hex; anything else is a raw binary placed at offset 0.
func LoadImage(filename string) (*Image, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return LoadImageIo(file, strings.EqualFold(filepath.Ext(filename), ".hex"))
}

func LoadImageIo(r io.Reader, intelHex bool) (*Image, error) {
	if !intelHex {
		data, err := ioutil.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return &Image{[]Segment{{0, data}}}, nil
	}

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, err
	}
	img := &Image{}
	for _, s := range mem.GetDataSegments() {
		img.Segments = append(img.Segments, Segment{s.Address, s.Data})
	}
	if len(img.Segments) == 0 {
		return nil, fmt.Errorf("Intel-hex image has no data segments")
	}
	return img, nil
}

// Zero-pads data to a whole number of words.
func padToWords(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	padded := make([]byte, (len(data)+3)&^3)
	copy(padded, data)
	return padded
}

// Writes every segment of img to target memory at addr + segment address.
func (u *UserRegister) Upload(addr uint32, img *Image) error {
	glog.Infof("Uploading %d bytes in %d segment(s) to %08x",
		img.Size(), len(img.Segments), addr)
	for _, s := range img.Segments {
		if err := u.WriteMemory(addr+s.Address, padToWords(s.Data)); err != nil {
			return fmt.Errorf("Upload of segment at %08x failed: %v", s.Address, err)
		}
	}
	return nil
}

// Start-up handshake with the target boot code. The run address and Magic are
// written to MagicAddress while the CPU is held in reset.
type RunConfig struct {
	MagicAddress uint32
	Magic        uint32
	// Control scalar values that hold and release the CPU reset.
	ResetHold    uint8
	ResetRelease uint8
}

var DefaultRunConfig = RunConfig{
	MagicAddress: 0x0000FFF8,
	Magic:        0x1571BABE,
	ResetHold:    0x80,
	ResetRelease: 0x00,
}

func (u *UserRegister) RunApplication(addr uint32) error {
	var err error
	glog.Infof("Starting application at %08x", addr)
	if _, err = u.SetIO(u.run.ResetHold); err != nil {
		return fmt.Errorf("RunApplication reset failed: %v", err)
	}
	magic := make([]byte, 8)
	binary.LittleEndian.PutUint32(magic[0:4], addr)
	binary.LittleEndian.PutUint32(magic[4:8], u.run.Magic)
	if err = u.WriteMemory(u.run.MagicAddress, magic); err != nil {
		return fmt.Errorf("RunApplication magic write failed: %v", err)
	}
	if _, err = u.SetIO(u.run.ResetRelease); err != nil {
		return fmt.Errorf("RunApplication release failed: %v", err)
	}
	return nil
}
