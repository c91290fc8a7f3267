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

// JTAG by bit-banging Raspberry Pi GPIO pins.
package ecpd

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/stianeikeland/go-rpio/v4"
)

// BCM pin numbers of the JTAG signals.
type GpioPins struct {
	TCK uint8
	TMS uint8
	TDI uint8
	TDO uint8
}

type GpioConfig struct {
	Pins GpioPins
	// Half period of TCK.
	Delay time.Duration
}

var DefaultGpioConfig = GpioConfig{
	Pins:  GpioPins{TCK: 11, TMS: 25, TDI: 10, TDO: 9},
	Delay: time.Microsecond,
}

// Pin access used by the bit-bang engine.
type gpioDriver interface {
	write(pin uint8, high bool)
	read(pin uint8) bool
}

type rpioDriver struct{}

func (rpioDriver) write(pin uint8, high bool) {
	if high {
		rpio.Pin(pin).High()
	} else {
		rpio.Pin(pin).Low()
	}
}

func (rpioDriver) read(pin uint8) bool {
	return rpio.Pin(pin).Read() == rpio.High
}

// Implements TapInterface.
type GpioDevice struct {
	conf  GpioConfig
	drv   gpioDriver
	state TapState
}

func OpenGpioDevice(conf *GpioConfig) (*GpioDevice, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpio.Open failed: %v", err)
	}
	d := newGpioDevice(conf, rpioDriver{})
	p := d.conf.Pins
	for _, pin := range []uint8{p.TCK, p.TMS, p.TDI} {
		rpio.Pin(pin).Output()
		rpio.Pin(pin).PullOff()
	}
	rpio.Pin(p.TDO).Input()
	rpio.Pin(p.TDO).PullUp()
	d.drv.write(p.TCK, false)
	d.drv.write(p.TMS, true)

	if err := d.GoToState(StateTestLogicReset); err != nil {
		d.Close()
		return nil, err
	}
	glog.Infof("Opened GPIO JTAG on pins %+v", p)
	return d, nil
}

func newGpioDevice(conf *GpioConfig, drv gpioDriver) *GpioDevice {
	d := &GpioDevice{conf: DefaultGpioConfig, drv: drv, state: StateTestLogicReset}
	if conf != nil {
		d.conf = *conf
	}
	return d
}

func (d *GpioDevice) Close() error {
	glog.V(1).Infof("Closing GPIO JTAG")
	if _, ok := d.drv.(rpioDriver); ok {
		p := d.conf.Pins
		for _, pin := range []uint8{p.TCK, p.TMS, p.TDI} {
			rpio.Pin(pin).Input()
		}
		return rpio.Close()
	}
	return nil
}

// One TCK cycle. TDO is sampled before the rising edge.
func (d *GpioDevice) clock(tms, tdi bool) bool {
	p := d.conf.Pins
	d.drv.write(p.TMS, tms)
	d.drv.write(p.TDI, tdi)
	tdo := d.drv.read(p.TDO)
	d.drv.write(p.TCK, true)
	time.Sleep(d.conf.Delay)
	d.drv.write(p.TCK, false)
	time.Sleep(d.conf.Delay)
	return tdo
}

func (d *GpioDevice) GoToState(state TapState) error {
	for _, tms := range TmsPath(d.state, state) {
		d.clock(tms, false)
	}
	d.state = state
	return nil
}

func (d *GpioDevice) Shift(tdi []byte, bits int, last bool) ([]byte, error) {
	in := make([]byte, bitBytes(bits))
	copy(in, tdi)
	out := make([]byte, len(in))
	for i := 0; i < bits; i++ {
		tms := last && i == bits-1
		setBit(out, i, d.clock(tms, bitAt(in, i)))
	}
	if last && bits > 0 {
		d.state = NextTapState(d.state, true)
	}
	return out, nil
}
