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

// Virtual bus access through the ECP5 USER1/USER2 scan chains.
// USER1 holds a 4-bit selector for the operation that the following USER2
// data shift addresses; USER2 carries the operation payload.
package ecpd

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/golang/glog"
)

const (
	lscUser1 = 0x32
	lscUser2 = 0x38

	// Words per read-memory pass; the target FIFO holds one block.
	maxReadBlockWords = 256

	memOpRead   = 0x03
	memOpWrite  = 0x01
	memTagWrite = 0x80

	ioOpRead  = 0x0D
	ioOpWrite = 0x0F
)

type UserIR uint8

const (
	UserIRIdentify UserIR = 0
	UserIRSignals  UserIR = 1
	UserIRSetIO    UserIR = 2
	UserIRDebug    UserIR = 3
	UserIRFifo     UserIR = 4
	UserIRAddress  UserIR = 5
	UserIRWrite    UserIR = 6
	UserIRConsoleA UserIR = 10
	UserIRConsoleB UserIR = 11
)

var userIRNames = map[UserIR]string{
	UserIRIdentify: "Identify",
	UserIRSignals:  "Signals",
	UserIRSetIO:    "SetIO",
	UserIRDebug:    "Debug",
	UserIRFifo:     "Fifo",
	UserIRAddress:  "Address",
	UserIRWrite:    "Write",
	UserIRConsoleA: "ConsoleA",
	UserIRConsoleB: "ConsoleB",
}

func (ir UserIR) String() string {
	if name, ok := userIRNames[ir]; ok {
		return name
	}
	return fmt.Sprintf("UserIR(%d)", uint8(ir))
}

//go:generate mockgen -destination=mocks/user_register.go -package=mocks github.com/google/ecpd UserRegisterInterface
type UserRegisterInterface interface {
	ReadID() (uint32, error)
	ReadDebug() (uint32, error)
	// Writes the control scalar and returns its previous value.
	SetIO(value uint8) (uint8, error)
	// Returns the bytes actually transferred, which may be fewer than
	// 4*words if the target FIFO runs dry.
	ReadMemory(addr uint32, words int) ([]byte, error)
	WriteMemory(addr uint32, data []byte) error
	ReadIORegisters(addr uint32, count int) ([]byte, error)
	WriteIORegisters(addr uint32, data []byte) error
	// Reads at most capacity-1 bytes of buffered console output.
	ReadConsole(c Console, capacity int) ([]byte, error)
	Upload(addr uint32, img *Image) error
	RunApplication(addr uint32) error
}

// Implements UserRegisterInterface.
type UserRegister struct {
	tap TapInterface
	run RunConfig
}

func NewUserRegister(tap TapInterface, run *RunConfig) *UserRegister {
	u := &UserRegister{tap, DefaultRunConfig}
	if run != nil {
		u.run = *run
	}
	return u
}

// Shifts an 8-bit instruction into IR and returns to Run-Test-Idle.
func (u *UserRegister) shiftIR(inst uint8) error {
	var err error
	if err = u.tap.GoToState(StateShiftIR); err != nil {
		return fmt.Errorf("GoToState(ShiftIR) failed: %v", err)
	}
	if _, err = u.tap.Shift([]byte{inst}, 8, true); err != nil {
		return fmt.Errorf("Shift IR %#02x failed: %v", inst, err)
	}
	return nil
}

// Latches the user selector through USER1.
func (u *UserRegister) selectIR(ir UserIR) error {
	var err error
	if err = u.shiftIR(lscUser1); err != nil {
		return err
	}
	if err = u.tap.GoToState(StateShiftDR); err != nil {
		return fmt.Errorf("GoToState(ShiftDR) failed: %v", err)
	}
	v := uint8(ir) & 0x0f
	if _, err = u.tap.Shift([]byte{v | v<<4}, 8, true); err != nil {
		return fmt.Errorf("Shift selector %v failed: %v", ir, err)
	}
	if err = u.tap.GoToState(StateRunTestIdle); err != nil {
		return fmt.Errorf("GoToState(RunTestIdle) failed: %v", err)
	}
	return nil
}

// Selects USER2 and leaves the controller in Shift-DR.
func (u *UserRegister) beginData() error {
	var err error
	if err = u.shiftIR(lscUser2); err != nil {
		return err
	}
	if err = u.tap.GoToState(StateShiftDR); err != nil {
		return fmt.Errorf("GoToState(ShiftDR) failed: %v", err)
	}
	return nil
}

func (u *UserRegister) idle() error {
	if err := u.tap.GoToState(StateRunTestIdle); err != nil {
		return fmt.Errorf("GoToState(RunTestIdle) failed: %v", err)
	}
	return nil
}

// Runs one complete USER2 shift under selector ir and returns the
// captured bits.
func (u *UserRegister) exchange(ir UserIR, data []byte, bits int) ([]byte, error) {
	var err error
	glog.V(2).Infof("[user-exchange]: ir = %v, bits = %v", ir, bits)
	if err = u.selectIR(ir); err != nil {
		return nil, err
	}
	if err = u.beginData(); err != nil {
		return nil, err
	}
	var out []byte
	if out, err = u.tap.Shift(data, bits, true); err != nil {
		return nil, fmt.Errorf("Shift USER2 failed: %v", err)
	}
	if err = u.idle(); err != nil {
		return nil, err
	}
	return out, nil
}

func (u *UserRegister) readWord(ir UserIR) (uint32, error) {
	out, err := u.exchange(ir, make([]byte, 4), 32)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(out), nil
}

func (u *UserRegister) ReadID() (uint32, error) {
	id, err := u.readWord(UserIRIdentify)
	if err != nil {
		return 0, fmt.Errorf("ReadID failed: %v", err)
	}
	glog.V(1).Infof("[user-id]: %08x", id)
	return id, nil
}

func (u *UserRegister) ReadDebug() (uint32, error) {
	dbg, err := u.readWord(UserIRDebug)
	if err != nil {
		return 0, fmt.Errorf("ReadDebug failed: %v", err)
	}
	glog.V(1).Infof("[user-debug]: %08x", dbg)
	return dbg, nil
}

func (u *UserRegister) SetIO(value uint8) (uint8, error) {
	glog.V(1).Infof("[user-set-io]: value = %02x", value)
	out, err := u.exchange(UserIRSetIO, []byte{value}, 8)
	if err != nil {
		return 0, fmt.Errorf("SetIO failed: %v", err)
	}
	glog.V(1).Infof("[user-set-io]: previous = %02x", out[0])
	return out[0], nil
}

// Spreads the address bytes over the even slots of a command template.
func addressCommand(addr uint32, tmpl []byte) []byte {
	cmd := make([]byte, len(tmpl))
	copy(cmd, tmpl)
	for i := 0; i < len(cmd)/2 && i < 4; i++ {
		cmd[2*i] = uint8(addr >> (8 * uint(i)))
	}
	return cmd
}

func memoryCommand(addr uint32, tag, op uint8) []byte {
	return addressCommand(addr, []byte{0x00, 0x04, 0x00, 0x05, 0x00, 0x06, 0x00, 0x07, tag, op})
}

func ioCommand(addr uint32) []byte {
	return addressCommand(addr, []byte{0x00, 0x04, 0x00, 0x05, 0x00, 0x06})
}

func (u *UserRegister) ReadMemory(addr uint32, words int) ([]byte, error) {
	var err error
	glog.V(1).Infof("[user-mem-read]: addr = %08x, words = %v", addr, words)
	data := make([]byte, 0, 4*words)
	for words > 0 {
		now := words
		if now > maxReadBlockWords {
			now = maxReadBlockWords
		}
		cmd := memoryCommand(addr, uint8(now-1), memOpRead)
		if _, err = u.exchange(UserIRAddress, cmd, 8*len(cmd)); err != nil {
			return data, fmt.Errorf("ReadMemory address latch failed: %v", err)
		}
		var block []byte
		if block, err = u.drainFifo(4 * now); err != nil {
			return data, fmt.Errorf("ReadMemory drain failed: %v", err)
		}
		data = append(data, block...)
		if len(block) < 4*now {
			glog.Warningf("[user-mem-read]: short transfer at %08x, got %d of %d bytes",
				addr, len(block), 4*now)
			break
		}
		addr += uint32(4 * now)
		words -= now
	}
	return data, nil
}

// Writes data, which must be a whole number of words, in a single pass.
func (u *UserRegister) WriteMemory(addr uint32, data []byte) error {
	var err error
	if len(data)%4 != 0 {
		return fmt.Errorf("WriteMemory length %v is not a multiple of 4", len(data))
	}
	glog.V(1).Infof("[user-mem-write]: addr = %08x, dlen = %v", addr, len(data))
	cmd := memoryCommand(addr, memTagWrite, memOpWrite)
	if _, err = u.exchange(UserIRAddress, cmd, 8*len(cmd)); err != nil {
		return fmt.Errorf("WriteMemory address latch failed: %v", err)
	}
	if len(data) == 0 {
		return nil
	}
	if _, err = u.exchange(UserIRWrite, data, 8*len(data)); err != nil {
		return fmt.Errorf("WriteMemory data failed: %v", err)
	}
	return nil
}

// Latches an I/O address and clocks one {data, op} exchange per register.
// Each exchange captures the result of the previous one, so the captured
// values are not used; read results are queued in the target FIFO.
func (u *UserRegister) ioTransfer(addr uint32, data []byte, count int, op uint8) error {
	var err error
	cmd := ioCommand(addr)
	if _, err = u.exchange(UserIRAddress, cmd, 8*len(cmd)); err != nil {
		return fmt.Errorf("io address latch failed: %v", err)
	}
	if err = u.beginData(); err != nil {
		return err
	}
	xfer := []byte{0, op}
	for i := 0; i < count; i++ {
		if data != nil {
			xfer[0] = data[i]
		}
		if _, err = u.tap.Shift(xfer, 16, false); err != nil {
			return fmt.Errorf("io exchange %d failed: %v", i, err)
		}
	}
	return u.idle()
}

func (u *UserRegister) ReadIORegisters(addr uint32, count int) ([]byte, error) {
	glog.V(1).Infof("[user-io-read]: addr = %06x, count = %v", addr, count)
	if err := u.ioTransfer(addr, nil, count, ioOpRead); err != nil {
		return nil, fmt.Errorf("ReadIORegisters failed: %v", err)
	}
	data, err := u.drainFifo(count)
	if err != nil {
		return data, fmt.Errorf("ReadIORegisters drain failed: %v", err)
	}
	glog.V(2).Infof("[user-io-read]: data =\n%s", hex.Dump(data))
	return data, nil
}

func (u *UserRegister) WriteIORegisters(addr uint32, data []byte) error {
	glog.V(1).Infof("[user-io-write]: addr = %06x, data =\n%s", addr, hex.Dump(data))
	if err := u.ioTransfer(addr, data, len(data), ioOpWrite); err != nil {
		return fmt.Errorf("WriteIORegisters failed: %v", err)
	}
	return nil
}
