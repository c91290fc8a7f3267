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

package sim

import (
	"github.com/golang/glog"
)

// SPI NOR commands.
const (
	spiWriteEnable  = 0x06
	spiWriteDisable = 0x04
	spiReadStatus   = 0x05
	spiWriteStatus  = 0x01
	spiPageProgram  = 0x02
	spiRead         = 0x03
	spiErase4k      = 0x20
	spiErase32k     = 0x52
	spiErase64k     = 0xD8
	spiChipErase    = 0xC7
	spiJedecId      = 0x9F

	statusBusy = 0x01
	statusWel  = 0x02
)

var jedecId = []byte{0xEF, 0x40, 0x18}

// A sparse SPI NOR flash. Unwritten bytes read as 0xFF.
type spiFlash struct {
	data   map[uint32]byte
	status byte
	// Current transaction.
	active bool
	cmd    byte
	n      int
	addr   uint32
}

func newSpiFlash() *spiFlash {
	return &spiFlash{data: map[uint32]byte{}}
}

func (f *spiFlash) begin() {
	f.active = true
	f.n = 0
}

func (f *spiFlash) end() {
	if !f.active {
		return
	}
	f.active = false
	if f.n == 0 {
		return
	}
	switch f.cmd {
	case spiWriteEnable:
		f.status |= statusWel
	case spiWriteDisable:
		f.status &^= statusWel
	case spiPageProgram, spiWriteStatus:
		f.status &^= statusWel
	case spiChipErase:
		if f.status&statusWel != 0 {
			f.data = map[uint32]byte{}
			glog.V(1).Infof("[sim-flash]: chip erase")
		}
		f.status &^= statusWel
	case spiErase4k, spiErase32k, spiErase64k:
		if f.n >= 4 && f.status&statusWel != 0 {
			size := map[byte]uint32{spiErase4k: 4 << 10, spiErase32k: 32 << 10, spiErase64k: 64 << 10}[f.cmd]
			base := f.addr &^ (size - 1)
			for a := range f.data {
				if a >= base && a < base+size {
					delete(f.data, a)
				}
			}
			glog.V(1).Infof("[sim-flash]: erased %d bytes at %06x", size, base)
		}
		f.status &^= statusWel
	}
}

func (f *spiFlash) read(addr uint32) byte {
	if v, ok := f.data[addr]; ok {
		return v
	}
	return 0xFF
}

// Clocks one byte of the current transaction.
func (f *spiFlash) transfer(in byte) byte {
	if !f.active {
		return 0xFF
	}
	n := f.n
	f.n++
	if n == 0 {
		f.cmd = in
		f.addr = 0
		return 0xFF
	}
	switch f.cmd {
	case spiReadStatus:
		return f.status
	case spiJedecId:
		if n-1 < len(jedecId) {
			return jedecId[n-1]
		}
	case spiWriteStatus:
		if n == 1 && f.status&statusWel != 0 {
			f.status = f.status&(statusWel|statusBusy) | in&^(statusWel|statusBusy)
		}
	case spiErase4k, spiErase32k, spiErase64k:
		if n <= 3 {
			f.addr = f.addr<<8 | uint32(in)
		}
	case spiPageProgram:
		if n <= 3 {
			f.addr = f.addr<<8 | uint32(in)
			return 0xFF
		}
		if f.status&statusWel != 0 {
			// Programming wraps within the 256-byte page and only clears bits.
			a := f.addr&^0xff | (f.addr+uint32(n-4))&0xff
			f.data[a] = f.read(a) & in
		}
	case spiRead:
		if n <= 3 {
			f.addr = f.addr<<8 | uint32(in)
			return 0xFF
		}
		return f.read(f.addr + uint32(n-4))
	}
	return 0xFF
}
