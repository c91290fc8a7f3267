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

// JTAG over an FTDI MPSSE adapter (FT2232H/FT4232H/FT232H).
// Based on the MPSSE command processor described in FTDI AN_108.
package ecpd

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/google/gousb"
)

const (
	// FTDI vendor requests.
	sioReset      = 0x00
	sioSetLatency = 0x09
	sioSetBitmode = 0x0B

	sioResetSio     = 0
	sioResetPurgeRx = 1
	sioResetPurgeTx = 2

	bitmodeReset = 0x00
	bitmodeMpsse = 0x02

	// MPSSE opcodes. Data goes out on the falling edge and is sampled on
	// the rising edge, LSB first.
	mpsseTmsOut      = 0x4B
	mpsseTmsInOut    = 0x6B
	mpsseBytesInOut  = 0x39
	mpsseBitsInOut   = 0x3B
	mpsseSetLow      = 0x80
	mpsseSetDivisor  = 0x86
	mpsseFlush       = 0x87
	mpsseDisableDiv5 = 0x8A
	mpsseNoAdaptive  = 0x97
	mpsseLoopbackOff = 0x85

	// ADBUS: TCK=0, TDI=1, TDO=2, TMS=3.
	pinsValue     = 0x08
	pinsDirection = 0x0B

	// Bytes per MPSSE data command.
	mpsseChunk = 4096
	// Status bytes prefixed to every bulk-in packet.
	ftdiStatusLen = 2
)

const (
	rTypeVendorOut uint8 = gousb.ControlOut | gousb.ControlVendor | gousb.ControlDevice
)

type FtdiConfig struct {
	Vid gousb.ID
	Pid gousb.ID
	// Channel A is 0.
	Interface int
	// TCK = 30MHz / (Divisor+1).
	Divisor uint16
	Timeout time.Duration
}

var DefaultFtdiConfig = FtdiConfig{
	Vid:       0x0403,
	Pid:       0x6010,
	Interface: 0,
	Divisor:   4,
	Timeout:   time.Second,
}

// Implements TapInterface.
type FtdiDevice struct {
	conf      FtdiConfig
	ctx       *gousb.Context
	dev       *gousb.Device
	cfg       *gousb.Config
	intf      *gousb.Interface
	epOut     *gousb.OutEndpoint
	epIn      *gousb.InEndpoint
	state     TapState
	packetLen int
}

func OpenFtdiDevice(conf *FtdiConfig) (*FtdiDevice, error) {
	var err error
	d := &FtdiDevice{conf: DefaultFtdiConfig, state: StateTestLogicReset}
	if conf != nil {
		d.conf = *conf
	}
	d.ctx = gousb.NewContext()

	d.dev, err = d.ctx.OpenDeviceWithVIDPID(d.conf.Vid, d.conf.Pid)
	if d.dev == nil && err == nil {
		d.Close()
		return nil, fmt.Errorf("FTDI device %v:%v not found", d.conf.Vid, d.conf.Pid)
	}
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("Opening FTDI device: %v", err)
	}
	if err = d.dev.SetAutoDetach(true); err != nil {
		d.Close()
		return nil, fmt.Errorf("SetAutoDetach failed: %v", err)
	}

	if d.cfg, err = d.dev.Config(1); err != nil {
		d.Close()
		return nil, fmt.Errorf("Selecting config: %v", err)
	}
	if d.intf, err = d.cfg.Interface(d.conf.Interface, 0); err != nil {
		d.Close()
		return nil, fmt.Errorf("Claiming interface %d: %v", d.conf.Interface, err)
	}
	// Channel n uses OUT endpoint 2n+2 and IN endpoint 2n+1.
	if d.epOut, err = d.intf.OutEndpoint(2*d.conf.Interface + 2); err != nil {
		d.Close()
		return nil, fmt.Errorf("Opening output endpoint: %v", err)
	}
	if d.epIn, err = d.intf.InEndpoint(2*d.conf.Interface + 1); err != nil {
		d.Close()
		return nil, fmt.Errorf("Opening input endpoint: %v", err)
	}
	d.packetLen = d.epIn.Desc.MaxPacketSize

	if err = d.initMpsse(); err != nil {
		d.Close()
		return nil, fmt.Errorf("MPSSE init failed: %v", err)
	}
	if err = d.GoToState(StateTestLogicReset); err != nil {
		d.Close()
		return nil, fmt.Errorf("TAP reset failed: %v", err)
	}
	glog.Infof("Opened FTDI adapter %v:%v channel %d", d.conf.Vid, d.conf.Pid, d.conf.Interface)
	return d, nil
}

func (d *FtdiDevice) Close() error {
	glog.V(1).Infof("Closing FTDI device")
	if d.dev != nil && d.intf != nil {
		d.control(sioSetBitmode, bitmodeReset<<8)
	}
	if d.intf != nil {
		d.intf.Close()
		d.intf = nil
	}
	if d.cfg != nil {
		d.cfg.Close()
		d.cfg = nil
	}
	if d.dev != nil {
		d.dev.Close()
		d.dev = nil
	}
	if d.ctx != nil {
		d.ctx.Close()
		d.ctx = nil
	}
	return nil
}

func (d *FtdiDevice) control(request uint8, val uint16) error {
	idx := uint16(d.conf.Interface + 1)
	if _, err := d.dev.Control(rTypeVendorOut, request, val, idx, nil); err != nil {
		return fmt.Errorf("dev.Control(%#02x, %#04x) failed: %v", request, val, err)
	}
	return nil
}

func (d *FtdiDevice) initMpsse() error {
	var err error
	for _, req := range []struct {
		request uint8
		val     uint16
	}{
		{sioReset, sioResetSio},
		{sioSetLatency, 1},
		{sioSetBitmode, bitmodeReset << 8},
		{sioSetBitmode, bitmodeMpsse<<8 | pinsDirection},
		{sioReset, sioResetPurgeRx},
		{sioReset, sioResetPurgeTx},
	} {
		if err = d.control(req.request, req.val); err != nil {
			return err
		}
	}
	return d.write([]byte{
		mpsseDisableDiv5, mpsseNoAdaptive, mpsseLoopbackOff,
		mpsseSetDivisor, uint8(d.conf.Divisor), uint8(d.conf.Divisor >> 8),
		mpsseSetLow, pinsValue, pinsDirection,
	})
}

func (d *FtdiDevice) write(cmd []byte) error {
	n, err := d.epOut.Write(cmd)
	glog.V(2).Infof("[mpsse OUT]: wrote %d bytes:\n%s", n, hex.Dump(cmd))
	if err != nil {
		return fmt.Errorf("bulk write failed: %v", err)
	}
	if n != len(cmd) {
		return fmt.Errorf("Failed to write entire buffer %v vs %v", n, len(cmd))
	}
	return nil
}

// Reads n payload bytes, dropping the status header of each packet.
func (d *FtdiDevice) read(n int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.conf.Timeout)
	defer cancel()

	data := make([]byte, 0, n)
	buf := make([]byte, 8*d.packetLen)
	for len(data) < n {
		r, err := d.epIn.ReadContext(ctx, buf)
		if err != nil {
			return nil, fmt.Errorf("bulk read failed after %d of %d bytes: %v", len(data), n, err)
		}
		for i := 0; i < r; i += d.packetLen {
			end := i + d.packetLen
			if end > r {
				end = r
			}
			if end-i > ftdiStatusLen {
				data = append(data, buf[i+ftdiStatusLen:end]...)
			}
		}
	}
	if len(data) != n {
		return nil, fmt.Errorf("Unexpected read length %v vs %v", len(data), n)
	}
	glog.V(2).Infof("[mpsse IN]: read %d bytes:\n%s", n, hex.Dump(data))
	return data, nil
}

func (d *FtdiDevice) GoToState(state TapState) error {
	path := TmsPath(d.state, state)
	for len(path) > 0 {
		n := len(path)
		if n > 7 {
			n = 7
		}
		var tms uint8
		for i, b := range path[:n] {
			if b {
				tms |= 1 << uint(i)
			}
		}
		if err := d.write([]byte{mpsseTmsOut, uint8(n - 1), tms}); err != nil {
			return err
		}
		path = path[n:]
	}
	d.state = state
	return nil
}

func (d *FtdiDevice) Shift(tdi []byte, bits int, last bool) ([]byte, error) {
	var err error
	in := make([]byte, bitBytes(bits))
	copy(in, tdi)
	out := make([]byte, len(in))
	if bits == 0 {
		return out, nil
	}

	n := bits
	if last {
		n--
	}
	whole, rem := n/8, n%8

	for off := 0; off < whole; off += mpsseChunk {
		c := whole - off
		if c > mpsseChunk {
			c = mpsseChunk
		}
		cmd := append([]byte{mpsseBytesInOut, uint8(c - 1), uint8((c - 1) >> 8)}, in[off:off+c]...)
		if err = d.write(append(cmd, mpsseFlush)); err != nil {
			return nil, err
		}
		var resp []byte
		if resp, err = d.read(c); err != nil {
			return nil, err
		}
		copy(out[off:], resp)
	}

	var cmd []byte
	expect := 0
	if rem > 0 {
		cmd = append(cmd, mpsseBitsInOut, uint8(rem-1), in[whole])
		expect++
	}
	if last {
		// One TMS-high clock carries the final TDI bit in bit 7.
		v := uint8(0x01)
		if bitAt(in, bits-1) {
			v |= 0x80
		}
		cmd = append(cmd, mpsseTmsInOut, 0x00, v)
		expect++
	}
	if expect == 0 {
		return out, nil
	}
	if err = d.write(append(cmd, mpsseFlush)); err != nil {
		return nil, err
	}
	var resp []byte
	if resp, err = d.read(expect); err != nil {
		return nil, err
	}
	// Partial reads shift in from the MSB.
	if rem > 0 {
		out[whole] = resp[0] >> uint(8-rem)
	}
	if last {
		setBit(out, bits-1, resp[expect-1]&0x80 != 0)
		d.state = NextTapState(d.state, true)
	}
	return out, nil
}
