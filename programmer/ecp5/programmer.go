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

// Programs ECP5 configuration SRAM and the SPI configuration flash over JTAG.
package ecp5

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/ecpd"
	"github.com/google/ecpd/programmer"

	"github.com/golang/glog"
)

// Implements programmer.ProgrammerInterface
type Programmer struct {
	tap  ecpd.TapInterface
	chip *ChipProperties
	// Flash operations poll the busy bit at most this long.
	BusyTimeout time.Duration
}

const (
	instReadId     = 0xE0
	instUidCode    = 0x19
	instReadStatus = 0x3C
	instIscEnable  = 0xC6
	instIscErase   = 0x0E
	instIscDisable = 0x26
	instResetCrc   = 0x3B
	instRefresh    = 0x79
	instBurst      = 0x7A
	instProgSpi    = 0x3A

	statusDone = 1 << 8

	// Largest single Shift-DR issued to the driver.
	chunkSize = 4096
	pageSize  = 256
)

// SPI NOR commands.
const (
	flashWriteEnable = 0x06
	flashReadStatus  = 0x05
	flashWriteStatus = 0x01
	flashErase4k     = 0x20
	flashErase32k    = 0x52
	flashErase64k    = 0xD8
	flashChipErase   = 0xC7
	flashPageProgram = 0x02
	flashRead        = 0x03
	flashJedecId     = 0x9F

	flashStatusBusy = 0x01
)

type ChipProperties struct {
	Name   string
	IdCode uint32
}

var SupportedChips = map[string]ChipProperties{
	"LFE5U-12":    {"LFE5U-12", 0x21111043},
	"LFE5U-25":    {"LFE5U-25", 0x41111043},
	"LFE5U-45":    {"LFE5U-45", 0x41112043},
	"LFE5U-85":    {"LFE5U-85", 0x41113043},
	"LFE5UM-25":   {"LFE5UM-25", 0x01111043},
	"LFE5UM-45":   {"LFE5UM-45", 0x01112043},
	"LFE5UM-85":   {"LFE5UM-85", 0x01113043},
	"LFE5UM5G-25": {"LFE5UM5G-25", 0x81111043},
	"LFE5UM5G-45": {"LFE5UM5G-45", 0x81112043},
	"LFE5UM5G-85": {"LFE5UM5G-85", 0x81113043},
}

// Does not take ownership of tap.
func NewProgrammer(tap ecpd.TapInterface) (*Programmer, error) {
	p := &Programmer{tap: tap, BusyTimeout: 30 * time.Second}
	var err error
	if p.chip, err = p.findChip(); err != nil {
		return nil, fmt.Errorf("Failed to find chip: %v", err)
	}
	glog.V(1).Infof("Found supported chip %v", p.chip.Name)
	return p, nil
}

func (p *Programmer) Chip() *ChipProperties {
	return p.chip
}

func (p *Programmer) findChip() (*ChipProperties, error) {
	id, err := p.ReadIdCode()
	if err != nil {
		return nil, err
	}
	for _, chip := range SupportedChips {
		if chip.IdCode == id {
			return &chip, nil
		}
	}
	return nil, fmt.Errorf("Unsupported chip. IDCODE: %08x", id)
}

// Loads an instruction and returns to Run-Test/Idle.
func (p *Programmer) command(inst uint8) error {
	glog.V(2).Infof("[ecp5-cmd]: %02x", inst)
	if err := p.tap.GoToState(ecpd.StateShiftIR); err != nil {
		return err
	}
	if _, err := p.tap.Shift([]byte{inst}, 8, true); err != nil {
		return err
	}
	return p.tap.GoToState(ecpd.StateRunTestIdle)
}

func (p *Programmer) command8(inst, param uint8) error {
	if err := p.command(inst); err != nil {
		return err
	}
	_, err := p.shiftData([]byte{param}, 8)
	return err
}

func (p *Programmer) shiftData(data []byte, bits int) ([]byte, error) {
	if err := p.tap.GoToState(ecpd.StateShiftDR); err != nil {
		return nil, err
	}
	out, err := p.tap.Shift(data, bits, true)
	if err != nil {
		return nil, err
	}
	return out, p.tap.GoToState(ecpd.StateRunTestIdle)
}

func (p *Programmer) readRegister(inst uint8, bits int) ([]byte, error) {
	if err := p.command(inst); err != nil {
		return nil, err
	}
	out, err := p.shiftData(make([]byte, bits/8), bits)
	if err != nil {
		return nil, err
	}
	glog.V(2).Infof("[ecp5-read]: %02x:\n%s", inst, hex.Dump(out))
	return out, nil
}

func (p *Programmer) ReadIdCode() (uint32, error) {
	out, err := p.readRegister(instReadId, 32)
	if err != nil {
		return 0, fmt.Errorf("ReadIdCode failed: %v", err)
	}
	return binary.LittleEndian.Uint32(out), nil
}

func (p *Programmer) ReadUniqueId() (uint64, error) {
	out, err := p.readRegister(instUidCode, 64)
	if err != nil {
		return 0, fmt.Errorf("ReadUniqueId failed: %v", err)
	}
	return binary.LittleEndian.Uint64(out), nil
}

func (p *Programmer) readStatus() (uint32, error) {
	out, err := p.readRegister(instReadStatus, 32)
	if err != nil {
		return 0, fmt.Errorf("readStatus failed: %v", err)
	}
	return binary.LittleEndian.Uint32(out), nil
}

// Puts the configuration engine in programming mode with SRAM cleared.
func (p *Programmer) enterProgramming() error {
	for _, inst := range []uint8{instIscEnable, instIscErase, instResetCrc} {
		if err := p.command8(inst, 0); err != nil {
			return fmt.Errorf("Instruction %02x failed: %v", inst, err)
		}
	}
	return nil
}

func (p *Programmer) ProgramSram(bitstream io.Reader) error {
	data, err := io.ReadAll(bitstream)
	if err != nil {
		return fmt.Errorf("Failed to read bitstream: %v", err)
	}
	glog.Infof("Loading %d byte bitstream into SRAM", len(data))
	if err = p.command(instRefresh); err != nil {
		return fmt.Errorf("Refresh failed: %v", err)
	}
	if err = p.enterProgramming(); err != nil {
		return err
	}
	if err = p.command(instBurst); err != nil {
		return fmt.Errorf("Burst failed: %v", err)
	}
	if err = p.tap.GoToState(ecpd.StateShiftDR); err != nil {
		return err
	}
	// Configuration data is shifted MSB first.
	buf := make([]byte, chunkSize)
	for n := 0; n < len(data); n += chunkSize {
		chunk := data[n:]
		if len(chunk) > chunkSize {
			chunk = chunk[:chunkSize]
		}
		for i, b := range chunk {
			buf[i] = reverseBits(b)
		}
		if _, err = p.tap.Shift(buf[:len(chunk)], 8*len(chunk), n+len(chunk) == len(data)); err != nil {
			return fmt.Errorf("Bitstream shift at %d failed: %v", n, err)
		}
	}
	if err = p.tap.GoToState(ecpd.StateRunTestIdle); err != nil {
		return err
	}
	if err = p.command(instIscDisable); err != nil {
		return fmt.Errorf("Disable failed: %v", err)
	}
	status, err := p.readStatus()
	if err != nil {
		return err
	}
	if status&statusDone == 0 {
		return fmt.Errorf("DONE not set after configuration, status %08x: %w", status, programmer.ErrVerify)
	}
	glog.Info("SRAM configured")
	return nil
}

func (p *Programmer) InitFlashMode() error {
	if err := p.enterProgramming(); err != nil {
		return err
	}
	if err := p.command(instIscDisable); err != nil {
		return fmt.Errorf("Disable failed: %v", err)
	}
	// Background SPI access is unlocked by a key on the first DR shift.
	if err := p.command(instProgSpi); err != nil {
		return fmt.Errorf("ProgSpi failed: %v", err)
	}
	if _, err := p.shiftData([]byte{0xFE, 0x68}, 16); err != nil {
		return fmt.Errorf("SPI unlock failed: %v", err)
	}
	// Leaves continuous read modes.
	if _, err := p.xfer(bytes.Repeat([]byte{0xFF}, 8)); err != nil {
		return fmt.Errorf("Flash reset failed: %v", err)
	}
	id, err := p.xfer([]byte{flashJedecId, 0, 0, 0})
	if err != nil {
		return fmt.Errorf("Flash id failed: %v", err)
	}
	glog.Infof("Flash JEDEC id %02x %02x %02x", id[1], id[2], id[3])
	return nil
}

// One SPI transaction. The chip select spans the Shift-DR visit.
func (p *Programmer) xfer(data []byte) ([]byte, error) {
	buf := make([]byte, len(data))
	for i, b := range data {
		buf[i] = reverseBits(b)
	}
	out, err := p.shiftData(buf, 8*len(buf))
	if err != nil {
		return nil, err
	}
	for i, b := range out {
		out[i] = reverseBits(b)
	}
	return out, nil
}

func (p *Programmer) flashStatus() (uint8, error) {
	out, err := p.xfer([]byte{flashReadStatus, 0})
	if err != nil {
		return 0, err
	}
	return out[1], nil
}

func (p *Programmer) waitBusy() error {
	deadline := time.Now().Add(p.BusyTimeout)
	for {
		status, err := p.flashStatus()
		if err != nil {
			return fmt.Errorf("Flash status failed: %v", err)
		}
		if status&flashStatusBusy == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("Flash busy after %v", p.BusyTimeout)
		}
	}
}

// Sends data after a write enable and waits for completion.
func (p *Programmer) flashWrite(data []byte) error {
	if _, err := p.xfer([]byte{flashWriteEnable}); err != nil {
		return fmt.Errorf("Write enable failed: %v", err)
	}
	if _, err := p.xfer(data); err != nil {
		return err
	}
	return p.waitBusy()
}

func addressed(cmd uint8, addr int) []byte {
	return []byte{cmd, byte(addr >> 16), byte(addr >> 8), byte(addr)}
}

func eraseCommand(blockSize int) (uint8, error) {
	switch blockSize {
	case 4 << 10:
		return flashErase4k, nil
	case 32 << 10:
		return flashErase32k, nil
	case 64 << 10:
		return flashErase64k, nil
	}
	return 0, fmt.Errorf("Unsupported erase block size %d", blockSize)
}

func (p *Programmer) erase(opts programmer.FlashOptions, size int) error {
	if opts.BulkErase {
		glog.Info("Erasing flash")
		if err := p.flashWrite([]byte{flashChipErase}); err != nil {
			return fmt.Errorf("Chip erase failed: %v", err)
		}
		return nil
	}
	cmd, err := eraseCommand(opts.EraseBlockSize)
	if err != nil {
		return err
	}
	start := opts.Offset &^ (opts.EraseBlockSize - 1)
	end := (opts.Offset + size + opts.EraseBlockSize - 1) &^ (opts.EraseBlockSize - 1)
	for addr := start; addr < end; addr += opts.EraseBlockSize {
		glog.V(1).Infof("Erasing %d KiB at %06x", opts.EraseBlockSize>>10, addr)
		if err = p.flashWrite(addressed(cmd, addr)); err != nil {
			return fmt.Errorf("Erase at %06x failed: %v", addr, err)
		}
	}
	return nil
}

func (p *Programmer) ProgramFlash(image io.Reader, opts programmer.FlashOptions, progress func()) error {
	data, err := io.ReadAll(image)
	if err != nil {
		return fmt.Errorf("Failed to read image: %v", err)
	}
	if err = programmer.FlashRange(opts.Offset, len(data)); err != nil {
		return err
	}
	if opts.EraseBlockSize == 0 {
		opts.EraseBlockSize = programmer.DefaultFlashOptions.EraseBlockSize
	}
	if opts.DisableProtect {
		if err = p.flashWrite([]byte{flashWriteStatus, 0x00}); err != nil {
			return fmt.Errorf("Disable protection failed: %v", err)
		}
	}
	if !opts.DontErase {
		if err = p.erase(opts, len(data)); err != nil {
			return err
		}
	}
	glog.Infof("Programming %d bytes at %06x", len(data), opts.Offset)
	for n := 0; n < len(data); {
		// Pages never cross a 256 byte boundary.
		size := pageSize - (opts.Offset+n)%pageSize
		if size > len(data)-n {
			size = len(data) - n
		}
		cmd := append(addressed(flashPageProgram, opts.Offset+n), data[n:n+size]...)
		if err = p.flashWrite(cmd); err != nil {
			return fmt.Errorf("Page program at %06x failed: %v", opts.Offset+n, err)
		}
		n += size
		if progress != nil {
			progress()
		}
	}
	return nil
}

func (p *Programmer) VerifyFlash(image io.Reader, offset int) error {
	data, err := io.ReadAll(image)
	if err != nil {
		return fmt.Errorf("Failed to read image: %v", err)
	}
	if err = programmer.FlashRange(offset, len(data)); err != nil {
		return err
	}
	glog.Infof("Verifying %d bytes at %06x", len(data), offset)
	for n := 0; n < len(data); n += chunkSize {
		want := data[n:]
		if len(want) > chunkSize {
			want = want[:chunkSize]
		}
		out, err := p.xfer(append(addressed(flashRead, offset+n), make([]byte, len(want))...))
		if err != nil {
			return fmt.Errorf("Flash read at %06x failed: %v", offset+n, err)
		}
		got := out[4:]
		for i := range want {
			if got[i] != want[i] {
				return fmt.Errorf("Mismatch at %06x: got %02x, want %02x: %w",
					offset+n+i, got[i], want[i], programmer.ErrVerify)
			}
		}
	}
	glog.Info("Flash verified")
	return nil
}

func reverseBits(b byte) byte {
	b = b>>4 | b<<4
	b = (b&0xcc)>>2 | (b&0x33)<<2
	b = (b&0xaa)>>1 | (b&0x55)<<1
	return b
}
