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

// Interfaces shared by the device programmers.
package programmer

import (
	"errors"
	"fmt"
	"io"
)

// Returned when read-back contents differ from the image.
var ErrVerify = errors.New("verification failed")

// Returned when an image does not fit below FlashAddressLimit.
var ErrRange = errors.New("outside the flash address range")

// SPI NOR commands carry 24 address bits.
const FlashAddressLimit = 1 << 24

// Reports whether size bytes at offset are addressable.
func FlashRange(offset, size int) error {
	if offset < 0 || size < 0 || offset+size > FlashAddressLimit {
		return fmt.Errorf("%d bytes at %#x: %w", size, offset, ErrRange)
	}
	return nil
}

type FlashOptions struct {
	// Clears the flash block protection bits before erasing.
	DisableProtect bool
	// Skips erasing. Pages must already be blank.
	DontErase bool
	// Erases the whole chip instead of the covered blocks.
	BulkErase bool
	// 4, 32 or 64 KiB.
	EraseBlockSize int
	Offset         int
}

var DefaultFlashOptions = FlashOptions{
	DisableProtect: true,
	EraseBlockSize: 64 << 10,
}

//go:generate mockgen -destination=mocks/programmer.go -package=mocks github.com/google/ecpd/programmer ProgrammerInterface
type ProgrammerInterface interface {
	ReadIdCode() (uint32, error)
	ReadUniqueId() (uint64, error)
	// Loads a bitstream into configuration SRAM.
	ProgramSram(bitstream io.Reader) error
	// Takes the configuration engine offline and enables SPI background
	// access. Must precede ProgramFlash and VerifyFlash.
	InitFlashMode() error
	// Writes image to flash. progress is called after every page.
	ProgramFlash(image io.Reader, opts FlashOptions, progress func()) error
	VerifyFlash(image io.Reader, offset int) error
}
