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

package ecpd_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/ecpd"
	"github.com/google/ecpd/mocks"
	"github.com/google/ecpd/sim"

	"github.com/golang/mock/gomock"
)

// Expected calls for selecting ir through USER1.
func expectSelect(tap *mocks.MockTapInterface, ir uint8) []*gomock.Call {
	return []*gomock.Call{
		tap.EXPECT().GoToState(ecpd.StateShiftIR).Return(nil),
		tap.EXPECT().Shift([]byte{0x32}, 8, true).Return([]byte{0x01}, nil),
		tap.EXPECT().GoToState(ecpd.StateShiftDR).Return(nil),
		tap.EXPECT().Shift([]byte{ir | ir<<4}, 8, true).Return([]byte{0x00}, nil),
		tap.EXPECT().GoToState(ecpd.StateRunTestIdle).Return(nil),
	}
}

func expectData(tap *mocks.MockTapInterface) []*gomock.Call {
	return []*gomock.Call{
		tap.EXPECT().GoToState(ecpd.StateShiftIR).Return(nil),
		tap.EXPECT().Shift([]byte{0x38}, 8, true).Return([]byte{0x01}, nil),
		tap.EXPECT().GoToState(ecpd.StateShiftDR).Return(nil),
	}
}

func TestReadID(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	tap := mocks.NewMockTapInterface(mockCtrl)
	calls := expectSelect(tap, 0)
	calls = append(calls, expectData(tap)...)
	calls = append(calls,
		tap.EXPECT().Shift([]byte{0, 0, 0, 0}, 32, true).Return([]byte{0x41, 0x15, 0xad, 0xde}, nil),
		tap.EXPECT().GoToState(ecpd.StateRunTestIdle).Return(nil),
	)
	gomock.InOrder(calls...)

	u := ecpd.NewUserRegister(tap, nil)
	id, err := u.ReadID()
	if err != nil {
		t.Errorf("ReadID failed: %v", err)
	}
	if id != 0xdead1541 {
		t.Errorf("Unexpected id %08x", id)
	}
}

func TestSetIOSelector(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	tap := mocks.NewMockTapInterface(mockCtrl)
	calls := expectSelect(tap, 2)
	calls = append(calls, expectData(tap)...)
	calls = append(calls,
		tap.EXPECT().Shift([]byte{0x80}, 8, true).Return([]byte{0x00}, nil),
		tap.EXPECT().GoToState(ecpd.StateRunTestIdle).Return(nil),
	)
	gomock.InOrder(calls...)

	u := ecpd.NewUserRegister(tap, nil)
	if _, err := u.SetIO(0x80); err != nil {
		t.Errorf("SetIO failed: %v", err)
	}
}

func TestWriteMemoryCommand(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	data := []byte{0xaa, 0xbb, 0xcc, 0xdd}
	tap := mocks.NewMockTapInterface(mockCtrl)
	calls := expectSelect(tap, 5)
	calls = append(calls, expectData(tap)...)
	calls = append(calls,
		// Address latch
		tap.EXPECT().Shift([]byte{0x44, 0x04, 0x33, 0x05, 0x22, 0x06, 0x11, 0x07, 0x80, 0x01}, 80, true).
			Return(make([]byte, 10), nil),
		tap.EXPECT().GoToState(ecpd.StateRunTestIdle).Return(nil),
	)
	calls = append(calls, expectSelect(tap, 6)...)
	calls = append(calls, expectData(tap)...)
	calls = append(calls,
		tap.EXPECT().Shift(data, 32, true).Return(make([]byte, 4), nil),
		tap.EXPECT().GoToState(ecpd.StateRunTestIdle).Return(nil),
	)
	gomock.InOrder(calls...)

	u := ecpd.NewUserRegister(tap, nil)
	if err := u.WriteMemory(0x11223344, data); err != nil {
		t.Errorf("WriteMemory failed: %v", err)
	}
}

func TestReadMemoryFailsIfShiftFails(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	tap := mocks.NewMockTapInterface(mockCtrl)
	gomock.InOrder(
		tap.EXPECT().GoToState(ecpd.StateShiftIR).Return(nil),
		tap.EXPECT().Shift(gomock.Any(), 8, true).Return(nil, fmt.Errorf("cable unplugged")),
	)

	u := ecpd.NewUserRegister(tap, nil)
	_, err := u.ReadMemory(0, 1)
	if err == nil || !strings.Contains(err.Error(), "cable unplugged") {
		t.Errorf("ReadMemory did not fail as expected. Err: %v", err)
	}
}

func TestWriteMemoryRejectsPartialWords(t *testing.T) {
	u := ecpd.NewUserRegister(sim.NewTarget(), nil)
	if err := u.WriteMemory(0, []byte{1, 2, 3}); err == nil {
		t.Errorf("WriteMemory accepted 3 bytes")
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	target := sim.NewTarget()
	u := ecpd.NewUserRegister(target, nil)

	// More than one read block.
	data := make([]byte, 4*600)
	rand.New(rand.NewSource(1)).Read(data)
	const addr = 0x00010000
	if err := u.WriteMemory(addr, data); err != nil {
		t.Fatalf("WriteMemory failed: %v", err)
	}
	if got := target.Memory(addr, len(data)); !bytes.Equal(got, data) {
		t.Errorf("Target memory differs from written data")
	}
	out, err := u.ReadMemory(addr, 600)
	if err != nil {
		t.Fatalf("ReadMemory failed: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("Unexpected data returned (%d bytes)", len(out))
	}
}

func TestReadMemoryDrainsInBursts(t *testing.T) {
	target := sim.NewTarget()
	target.FifoBurst = 200
	data := make([]byte, 1024)
	for i := range data {
		data[i] = byte(i)
	}
	target.SetMemory(0x100, data)

	u := ecpd.NewUserRegister(target, nil)
	out, err := u.ReadMemory(0x100, 256)
	if err != nil {
		t.Fatalf("ReadMemory failed: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("Unexpected data returned (%d bytes)", len(out))
	}
	if n := target.FifoLen(); n != 0 {
		t.Errorf("%d bytes left in FIFO", n)
	}
}

func TestReadMemoryShortTransfer(t *testing.T) {
	target := sim.NewTarget()
	target.ReadLimit = 100
	u := ecpd.NewUserRegister(target, nil)
	out, err := u.ReadMemory(0, 64)
	if err != nil {
		t.Fatalf("ReadMemory failed: %v", err)
	}
	if len(out) != 100 {
		t.Errorf("Expected 100 bytes, got %d", len(out))
	}
}

func TestReadMemoryZeroWords(t *testing.T) {
	u := ecpd.NewUserRegister(sim.NewTarget(), nil)
	out, err := u.ReadMemory(0, 0)
	if err != nil || len(out) != 0 {
		t.Errorf("ReadMemory(0 words) = %v, %v", out, err)
	}
}

func TestIORegistersRoundTrip(t *testing.T) {
	target := sim.NewTarget()
	u := ecpd.NewUserRegister(target, nil)
	data := []byte{0x11, 0x22, 0x33, 0x44, 0x55}
	if err := u.WriteIORegisters(0x100200, data); err != nil {
		t.Fatalf("WriteIORegisters failed: %v", err)
	}
	if got := target.IORegisters(0x100200, len(data)); !bytes.Equal(got, data) {
		t.Errorf("Unexpected target registers % x", got)
	}
	out, err := u.ReadIORegisters(0x100200, len(data))
	if err != nil {
		t.Fatalf("ReadIORegisters failed: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("Unexpected data returned % x", out)
	}
}

func TestSetIOReturnsPrevious(t *testing.T) {
	target := sim.NewTarget()
	u := ecpd.NewUserRegister(target, nil)
	if prev, err := u.SetIO(0x80); err != nil || prev != 0 {
		t.Errorf("SetIO(0x80) = %02x, %v", prev, err)
	}
	if prev, err := u.SetIO(0x01); err != nil || prev != 0x80 {
		t.Errorf("SetIO(0x01) = %02x, %v", prev, err)
	}
	if c := target.Control(); c != 0x01 {
		t.Errorf("Unexpected control %02x", c)
	}
}

func TestReadDebug(t *testing.T) {
	target := sim.NewTarget()
	target.Debug = 0x12345678
	u := ecpd.NewUserRegister(target, nil)
	if v, err := u.ReadDebug(); err != nil || v != 0x12345678 {
		t.Errorf("ReadDebug() = %08x, %v", v, err)
	}
}

func TestConsoleRead(t *testing.T) {
	target := sim.NewTarget()
	target.WriteConsole(ecpd.ConsoleA, []byte("hello"))
	target.WriteConsole(ecpd.ConsoleB, []byte("other"))
	u := ecpd.NewUserRegister(target, nil)

	out, err := u.ReadConsole(ecpd.ConsoleA, 1019)
	if err != nil {
		t.Fatalf("ReadConsole failed: %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("Unexpected console output %q", out)
	}
	// Drained.
	if out, err = u.ReadConsole(ecpd.ConsoleA, 1019); err != nil || len(out) != 0 {
		t.Errorf("Second ReadConsole = %q, %v", out, err)
	}
	if out, err = u.ReadConsole(ecpd.ConsoleB, 1019); err != nil || string(out) != "other" {
		t.Errorf("ReadConsole(B) = %q, %v", out, err)
	}
}

func TestConsoleReadKeepsOneSlot(t *testing.T) {
	target := sim.NewTarget()
	target.WriteConsole(ecpd.ConsoleA, []byte("0123456789"))
	u := ecpd.NewUserRegister(target, nil)

	out, err := u.ReadConsole(ecpd.ConsoleA, 4)
	if err != nil {
		t.Fatalf("ReadConsole failed: %v", err)
	}
	if string(out) != "012" {
		t.Errorf("Unexpected console output %q", out)
	}
	if out, err = u.ReadConsole(ecpd.ConsoleA, 1); err != nil || len(out) != 0 {
		t.Errorf("ReadConsole(capacity 1) = %q, %v", out, err)
	}
}

func TestRunApplication(t *testing.T) {
	target := sim.NewTarget()
	u := ecpd.NewUserRegister(target, nil)
	if err := u.RunApplication(0x00020000); err != nil {
		t.Fatalf("RunApplication failed: %v", err)
	}
	want := make([]byte, 8)
	binary.LittleEndian.PutUint32(want, 0x00020000)
	binary.LittleEndian.PutUint32(want[4:], 0x1571BABE)
	if got := target.Memory(0xFFF8, 8); !bytes.Equal(got, want) {
		t.Errorf("Unexpected handshake % x", got)
	}
	if c := target.Control(); c != 0 {
		t.Errorf("CPU left in reset, control %02x", c)
	}
}

func TestRunApplicationCustomHandshake(t *testing.T) {
	target := sim.NewTarget()
	run := ecpd.RunConfig{MagicAddress: 0x100, Magic: 0xcafef00d, ResetHold: 0x81, ResetRelease: 0x01}
	u := ecpd.NewUserRegister(target, &run)
	if err := u.RunApplication(0x4000); err != nil {
		t.Fatalf("RunApplication failed: %v", err)
	}
	if got := binary.LittleEndian.Uint32(target.Memory(0x104, 4)); got != 0xcafef00d {
		t.Errorf("Unexpected magic %08x", got)
	}
	if c := target.Control(); c != 0x01 {
		t.Errorf("Unexpected control %02x", c)
	}
}
