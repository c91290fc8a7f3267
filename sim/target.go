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

// Package sim emulates an ECP5 target behind a JTAG TAP: the USER1/USER2
// debug block of the soft CPU design, the configuration engine and the SPI
// flash reachable in background mode.
package sim

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/ecpd"

	"github.com/golang/glog"
)

// ECP5 instructions understood by the simulator.
const (
	instReadId      = 0xE0
	instUidCode     = 0x19
	instReadStatus  = 0x3C
	instIscEnable   = 0xC6
	instIscErase    = 0x0E
	instIscDisable  = 0x26
	instResetCrc    = 0x3B
	instRefresh     = 0x79
	instBurst       = 0x7A
	instProgSpi     = 0x3A
	instUser1       = 0x32
	instUser2       = 0x38
	instBypass      = 0xFF
	statusDone      = 1 << 8
	statusIscEnable = 1 << 9
)

// Same values as the selectors in ecpd.
const (
	selIdentify = 0
	selSetIO    = 2
	selDebug    = 3
	selFifo     = 4
	selAddress  = 5
	selWrite    = 6
	selConsoleA = 10
	selConsoleB = 11
)

const lastByteMarker = 0xF0

// Implements ecpd.TapInterface.
type Target struct {
	// Returned by the user identify selector.
	UserId   uint32
	Debug    uint32
	IdCode   uint32
	UniqueId uint64
	// Largest count reported by a FIFO or console probe, at most 255.
	FifoBurst int
	// When non-zero, a memory read latch queues at most this many bytes.
	ReadLimit int

	mu      sync.Mutex
	state   ecpd.TapState
	ir      uint8
	sel     uint8
	control uint8
	mem     map[uint32]byte
	io      map[uint32]byte
	fifo    []byte
	console [2][]byte

	writeAddr uint32
	ioAddr    uint32
	ioLast    byte
	// Shifts since the controller entered Shift-DR.
	phase int

	status     uint32
	bitstream  []byte
	configured []byte
	spiUnlock  bool
	flash      *spiFlash
}

func NewTarget() *Target {
	return &Target{
		UserId:    0xdead1541,
		IdCode:    0x41111043,
		UniqueId:  0x0123456789abcdef,
		FifoBurst: 255,
		state:     ecpd.StateTestLogicReset,
		mem:       map[uint32]byte{},
		io:        map[uint32]byte{},
		flash:     newSpiFlash(),
	}
}

func (t *Target) GoToState(state ecpd.TapState) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	// A transaction spans one visit to Shift-DR.
	if t.state == ecpd.StateExit1DR || (t.state == ecpd.StateShiftDR && state != ecpd.StateShiftDR) {
		t.endDR()
	}
	if state == ecpd.StateShiftDR && t.state != ecpd.StateShiftDR {
		t.phase = 0
		if t.ir == instProgSpi && t.spiUnlock {
			t.flash.begin()
		}
	}
	t.state = state
	return nil
}

func (t *Target) endDR() {
	if t.ir == instProgSpi && t.spiUnlock {
		t.flash.end()
	}
}

func (t *Target) Shift(tdi []byte, bits int, last bool) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	in := make([]byte, (bits+7)/8)
	copy(in, tdi)

	var out []byte
	var err error
	switch t.state {
	case ecpd.StateShiftIR:
		if bits != 8 {
			return nil, fmt.Errorf("sim: %d-bit IR shift", bits)
		}
		t.ir = in[0]
		t.onInstruction()
		out = []byte{0x01}
	case ecpd.StateShiftDR:
		out, err = t.shiftDR(in, bits)
		t.phase++
	default:
		return nil, fmt.Errorf("sim: Shift in state %v", t.state)
	}
	if err != nil {
		return nil, err
	}
	if last {
		t.state = ecpd.NextTapState(t.state, true)
	}
	return out, nil
}

// Instructions that act on Update-IR.
func (t *Target) onInstruction() {
	switch t.ir {
	case instIscEnable:
		t.status |= statusIscEnable
	case instIscErase:
		t.status &^= statusDone
		t.configured = nil
	case instResetCrc:
		t.bitstream = nil
	case instIscDisable:
		t.status &^= statusIscEnable
		if len(t.bitstream) > 0 {
			t.configured = t.bitstream
			t.bitstream = nil
			t.status |= statusDone
		}
	case instRefresh:
		t.status &^= statusDone
		t.configured = nil
	case instProgSpi:
		t.spiUnlock = false
	}
}

func (t *Target) shiftDR(in []byte, bits int) ([]byte, error) {
	switch t.ir {
	case instReadId:
		return le32(t.IdCode), nil
	case instUidCode:
		out := make([]byte, 8)
		binary.LittleEndian.PutUint64(out, t.UniqueId)
		return out, nil
	case instReadStatus:
		return le32(t.status), nil
	case instIscEnable, instIscErase, instResetCrc, instIscDisable, instRefresh, instBypass:
		return make([]byte, len(in)), nil
	case instBurst:
		for _, b := range in {
			t.bitstream = append(t.bitstream, reverse(b))
		}
		return make([]byte, len(in)), nil
	case instProgSpi:
		if !t.spiUnlock {
			if bits == 16 && in[0] == 0xFE && in[1] == 0x68 {
				t.spiUnlock = true
				glog.V(1).Infof("[sim]: SPI background mode enabled")
			}
			return make([]byte, len(in)), nil
		}
		out := make([]byte, len(in))
		for i, b := range in {
			out[i] = reverse(t.flash.transfer(reverse(b)))
		}
		return out, nil
	case instUser1:
		if in[0]>>4 != in[0]&0x0f {
			return nil, fmt.Errorf("sim: malformed selector %#02x", in[0])
		}
		prev := t.sel
		t.sel = in[0] & 0x0f
		return []byte{prev | prev<<4}, nil
	case instUser2:
		return t.userData(in, bits)
	}
	return nil, fmt.Errorf("sim: DR shift under unknown instruction %#02x", t.ir)
}

func (t *Target) userData(in []byte, bits int) ([]byte, error) {
	switch t.sel {
	case selIdentify:
		return le32(t.UserId), nil
	case selDebug:
		return le32(t.Debug), nil
	case selSetIO:
		prev := t.control
		t.control = in[0]
		return []byte{prev}, nil
	case selAddress:
		return t.address(in, bits)
	case selWrite:
		for _, b := range in {
			t.mem[t.writeAddr] = b
			t.writeAddr++
		}
		return make([]byte, len(in)), nil
	case selFifo:
		return t.burst(&t.fifo, in, bits)
	case selConsoleA:
		return t.burst(&t.console[0], in, bits)
	case selConsoleB:
		return t.burst(&t.console[1], in, bits)
	}
	return nil, fmt.Errorf("sim: USER2 shift under selector %d", t.sel)
}

func (t *Target) address(in []byte, bits int) ([]byte, error) {
	switch bits {
	case 80:
		addr := uint32(in[0]) | uint32(in[2])<<8 | uint32(in[4])<<16 | uint32(in[6])<<24
		if in[1] != 0x04 || in[3] != 0x05 || in[5] != 0x06 || in[7] != 0x07 {
			return nil, fmt.Errorf("sim: malformed memory command % x", in)
		}
		switch in[9] {
		case 0x03:
			n := 4 * (int(in[8]) + 1)
			if t.ReadLimit > 0 && n > t.ReadLimit {
				n = t.ReadLimit
			}
			for i := 0; i < n; i++ {
				t.fifo = append(t.fifo, t.mem[addr+uint32(i)])
			}
		case 0x01:
			if in[8] != 0x80 {
				return nil, fmt.Errorf("sim: bad write tag %#02x", in[8])
			}
			t.writeAddr = addr
		default:
			return nil, fmt.Errorf("sim: unknown memory op %#02x", in[9])
		}
		return make([]byte, len(in)), nil
	case 48:
		if in[1] != 0x04 || in[3] != 0x05 || in[5] != 0x06 {
			return nil, fmt.Errorf("sim: malformed io command % x", in)
		}
		t.ioAddr = uint32(in[0]) | uint32(in[2])<<8 | uint32(in[4])<<16
		return make([]byte, len(in)), nil
	case 16:
		out := []byte{t.ioLast, 0}
		switch in[1] {
		case 0x0D:
			t.ioLast = t.io[t.ioAddr]
			t.fifo = append(t.fifo, t.ioLast)
		case 0x0F:
			t.io[t.ioAddr] = in[0]
			t.ioLast = in[0]
		default:
			return nil, fmt.Errorf("sim: unknown io op %#02x", in[1])
		}
		t.ioAddr++
		return out, nil
	}
	return nil, fmt.Errorf("sim: %d-bit shift under address selector", bits)
}

// Probe on the first shift of a Shift-DR visit, data afterwards.
func (t *Target) burst(q *[]byte, in []byte, bits int) ([]byte, error) {
	if t.phase == 0 {
		if bits != 8 {
			return nil, fmt.Errorf("sim: %d-bit probe", bits)
		}
		n := len(*q)
		if n > t.FifoBurst {
			n = t.FifoBurst
		}
		if n > 255 {
			n = 255
		}
		return []byte{uint8(n)}, nil
	}
	n := bits / 8
	if n > len(*q) {
		return nil, fmt.Errorf("sim: drain of %d bytes with %d queued", n, len(*q))
	}
	if in[n-1] != lastByteMarker {
		return nil, fmt.Errorf("sim: last drained byte carries %#02x, not the marker", in[n-1])
	}
	out := append([]byte(nil), (*q)[:n]...)
	*q = (*q)[n:]
	return out, nil
}

func le32(v uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return out
}

func reverse(b byte) byte {
	b = b>>4 | b<<4
	b = (b&0xcc)>>2 | (b&0x33)<<2
	b = (b&0xaa)>>1 | (b&0x55)<<1
	return b
}
