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

// JTAG test access port abstraction.
package ecpd

import (
	"fmt"
)

// TapState is one of the 16 IEEE 1149.1 TAP controller states.
type TapState uint8

const (
	StateTestLogicReset TapState = iota
	StateRunTestIdle
	StateSelectDRScan
	StateCaptureDR
	StateShiftDR
	StateExit1DR
	StatePauseDR
	StateExit2DR
	StateUpdateDR
	StateSelectIRScan
	StateCaptureIR
	StateShiftIR
	StateExit1IR
	StatePauseIR
	StateExit2IR
	StateUpdateIR
)

var tapStateNames = [...]string{
	"TestLogicReset", "RunTestIdle",
	"SelectDRScan", "CaptureDR", "ShiftDR", "Exit1DR", "PauseDR", "Exit2DR", "UpdateDR",
	"SelectIRScan", "CaptureIR", "ShiftIR", "Exit1IR", "PauseIR", "Exit2IR", "UpdateIR",
}

func (s TapState) String() string {
	if int(s) < len(tapStateNames) {
		return tapStateNames[s]
	}
	return fmt.Sprintf("TapState(%d)", s)
}

//go:generate mockgen -destination=mocks/tap.go -package=mocks github.com/google/ecpd TapInterface
type TapInterface interface {
	// Walks the TAP controller to state.
	GoToState(state TapState) error
	// Clocks bits of tdi (LSB of tdi[0] first) through the selected
	// register and returns the bits captured from TDO in the same layout.
	// When last is set the final bit is clocked with TMS high, leaving the
	// controller in Exit1-DR/IR.
	Shift(tdi []byte, bits int, last bool) ([]byte, error)
}

// Next state for each state, indexed by TMS value.
var tapTransitions = [16][2]TapState{
	StateTestLogicReset: {StateRunTestIdle, StateTestLogicReset},
	StateRunTestIdle:    {StateRunTestIdle, StateSelectDRScan},
	StateSelectDRScan:   {StateCaptureDR, StateSelectIRScan},
	StateCaptureDR:      {StateShiftDR, StateExit1DR},
	StateShiftDR:        {StateShiftDR, StateExit1DR},
	StateExit1DR:        {StatePauseDR, StateUpdateDR},
	StatePauseDR:        {StatePauseDR, StateExit2DR},
	StateExit2DR:        {StateShiftDR, StateUpdateDR},
	StateUpdateDR:       {StateRunTestIdle, StateSelectDRScan},
	StateSelectIRScan:   {StateCaptureIR, StateTestLogicReset},
	StateCaptureIR:      {StateShiftIR, StateExit1IR},
	StateShiftIR:        {StateShiftIR, StateExit1IR},
	StateExit1IR:        {StatePauseIR, StateUpdateIR},
	StatePauseIR:        {StatePauseIR, StateExit2IR},
	StateExit2IR:        {StateShiftIR, StateUpdateIR},
	StateUpdateIR:       {StateRunTestIdle, StateSelectDRScan},
}

// NextTapState returns the state reached from s after one TCK with the given TMS.
func NextTapState(s TapState, tms bool) TapState {
	if tms {
		return tapTransitions[s][1]
	}
	return tapTransitions[s][0]
}

// TmsPath returns the shortest TMS sequence that walks the controller from
// one state to another. Test-Logic-Reset is always reached with five ones, so
// the sequence is valid even when the current state is unknown.
func TmsPath(from, to TapState) []bool {
	if to == StateTestLogicReset {
		return []bool{true, true, true, true, true}
	}
	if from == to {
		return nil
	}
	type step struct {
		prev TapState
		tms  bool
	}
	var seen [16]bool
	var via [16]step
	queue := []TapState{from}
	seen[from] = true
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, tms := range []bool{false, true} {
			n := NextTapState(s, tms)
			if seen[n] {
				continue
			}
			seen[n] = true
			via[n] = step{s, tms}
			if n == to {
				var path []bool
				for c := to; c != from; c = via[c].prev {
					path = append([]bool{via[c].tms}, path...)
				}
				return path
			}
			queue = append(queue, n)
		}
	}
	// Every state is reachable from every other state.
	panic(fmt.Sprintf("no TAP path from %v to %v", from, to))
}

// Returns bit i of an LSB-first bit vector.
func bitAt(data []byte, i int) bool {
	return data[i/8]&(1<<uint(i%8)) != 0
}

func setBit(data []byte, i int, v bool) {
	if v {
		data[i/8] |= 1 << uint(i%8)
	} else {
		data[i/8] &^= 1 << uint(i%8)
	}
}

// Number of bytes needed to hold bits.
func bitBytes(bits int) int {
	return (bits + 7) / 8
}
