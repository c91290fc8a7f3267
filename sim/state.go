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
	"github.com/google/ecpd"
)

// Reads n bytes of target memory.
func (t *Target) Memory(addr uint32, n int) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]byte, n)
	for i := range out {
		out[i] = t.mem[addr+uint32(i)]
	}
	return out
}

func (t *Target) SetMemory(addr uint32, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, b := range data {
		t.mem[addr+uint32(i)] = b
	}
}

func (t *Target) IORegisters(addr uint32, n int) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]byte, n)
	for i := range out {
		out[i] = t.io[addr+uint32(i)]
	}
	return out
}

func (t *Target) SetIORegisters(addr uint32, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, b := range data {
		t.io[addr+uint32(i)] = b
	}
}

// Queues output on a console stream.
func (t *Target) WriteConsole(c ecpd.Console, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.console[c] = append(t.console[c], data...)
}

// Bytes still queued in the target FIFO.
func (t *Target) FifoLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.fifo)
}

func (t *Target) Control() uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.control
}

// The bitstream loaded by the last successful SRAM configuration.
func (t *Target) Configured() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.configured
}

func (t *Target) Flash(addr uint32, n int) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]byte, n)
	for i := range out {
		out[i] = t.flash.read(addr + uint32(i))
	}
	return out
}

// Overwrites flash contents, bypassing the SPI protocol.
func (t *Target) SetFlash(addr uint32, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, b := range data {
		t.flash.data[addr+uint32(i)] = b
	}
}
