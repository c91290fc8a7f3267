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

package ecpd

import (
	"bytes"
	"testing"
)

// Loops TDI back to TDO and follows the TAP state on every rising TCK edge.
type loopbackDriver struct {
	pins   GpioPins
	levels map[uint8]bool
	state  TapState
	clocks int
}

func newLoopbackDriver(pins GpioPins) *loopbackDriver {
	return &loopbackDriver{pins: pins, levels: map[uint8]bool{}}
}

func (l *loopbackDriver) write(pin uint8, high bool) {
	if pin == l.pins.TCK && high && !l.levels[pin] {
		l.state = NextTapState(l.state, l.levels[l.pins.TMS])
		l.clocks++
	}
	l.levels[pin] = high
}

func (l *loopbackDriver) read(pin uint8) bool {
	if pin == l.pins.TDO {
		return l.levels[l.pins.TDI]
	}
	return false
}

func newLoopbackDevice() (*GpioDevice, *loopbackDriver) {
	conf := DefaultGpioConfig
	conf.Delay = 0
	drv := newLoopbackDriver(conf.Pins)
	return newGpioDevice(&conf, drv), drv
}

func TestGpioGoToState(t *testing.T) {
	d, drv := newLoopbackDevice()
	for _, s := range []TapState{StateRunTestIdle, StateShiftIR, StateExit1IR, StateShiftDR, StateTestLogicReset} {
		if err := d.GoToState(s); err != nil {
			t.Fatalf("GoToState(%v) failed: %v", s, err)
		}
		if drv.state != s {
			t.Errorf("Controller in %v after GoToState(%v)", drv.state, s)
		}
	}
}

func TestGpioShiftLoopback(t *testing.T) {
	d, drv := newLoopbackDevice()
	if err := d.GoToState(StateShiftDR); err != nil {
		t.Fatalf("GoToState failed: %v", err)
	}
	tdi := []byte{0xa5, 0x3c, 0x05}
	out, err := d.Shift(tdi, 19, true)
	if err != nil {
		t.Fatalf("Shift failed: %v", err)
	}
	if !bytes.Equal(out, tdi) {
		t.Errorf("Unexpected TDO % x", out)
	}
	if drv.state != StateExit1DR || d.state != StateExit1DR {
		t.Errorf("Unexpected states %v/%v after last bit", drv.state, d.state)
	}
}

func TestGpioShiftStaysInShift(t *testing.T) {
	d, drv := newLoopbackDevice()
	d.GoToState(StateShiftIR)
	before := drv.clocks
	if _, err := d.Shift([]byte{0xff}, 8, false); err != nil {
		t.Fatalf("Shift failed: %v", err)
	}
	if drv.clocks-before != 8 {
		t.Errorf("Expected 8 clocks, got %d", drv.clocks-before)
	}
	if drv.state != StateShiftIR {
		t.Errorf("Controller left Shift-IR: %v", drv.state)
	}
}
