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

package util

import (
	"fmt"
	"io"

	"github.com/google/ecpd/programmer"

	"github.com/golang/glog"
)

// Writes image to the configuration flash at opts.Offset.
// Switches the FPGA to flash mode, programs, rewinds the image and verifies
// the result. A failed verification wraps programmer.ErrVerify.
func ProgramFlash(prog programmer.ProgrammerInterface, image io.ReadSeeker, opts programmer.FlashOptions, progress func()) error {
	var err error
	glog.Info("Entering flash mode")
	if err = prog.InitFlashMode(); err != nil {
		return fmt.Errorf("Failed to enter flash mode: %v", err)
	}
	glog.Info("Programming flash")
	if err = prog.ProgramFlash(image, opts, progress); err != nil {
		return fmt.Errorf("Failed to write to flash: %w", err)
	}
	if _, err = image.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("Failed to rewind image: %v", err)
	}
	glog.Info("Verifying contents")
	if err = prog.VerifyFlash(image, opts.Offset); err != nil {
		return fmt.Errorf("Flash verification failed: %w", err)
	}
	glog.Info("Flash programmed successfully")
	return nil
}

// Counts programmed pages and calls notify on every nth.
type PageCounter struct {
	Every  int
	Notify func()
	pages  int
}

func (c *PageCounter) Page() {
	c.pages++
	if c.Every > 0 && c.pages%c.Every == 0 && c.Notify != nil {
		c.Notify()
	}
}

func (c *PageCounter) Pages() int {
	return c.pages
}
