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

// Package daemon serves the ECP5 debug protocol over TCP.
//
// A frame starts with the sync byte and a command byte, followed by a
// command specific payload. Every command is answered by exactly one
// terminal reply that starts with {status, command}; program-flash may
// precede it with any number of {StatusProgress, CmdProgramFlash} frames.
// After an error reply the daemon closes the connection.
package daemon

import (
	"fmt"
)

const (
	SyncByte = 0xCC

	VersionMajor = 1
	VersionMinor = 0

	// Exclusive upper bounds for request lengths.
	MaxMemoryWords = 1 << 20
	MaxIORegisters = 256
	// Console bytes per reply.
	ConsoleCapacity = 1019
	// Programmed pages per progress notification.
	ProgressPages = 4
)

type Command uint8

const (
	CmdReadId       Command = 0x01
	CmdReadMemory   Command = 0x02
	CmdWriteMemory  Command = 0x03
	CmdReadIO       Command = 0x04
	CmdWriteIO      Command = 0x05
	CmdSetIO        Command = 0x06
	CmdReadConsoleA Command = 0x07
	CmdUpload       Command = 0x08
	CmdRun          Command = 0x09
	CmdReadDebug    Command = 0x0A
	CmdReadConsoleB Command = 0x0B
	CmdLoadSram     Command = 0x21
	CmdProgramFlash Command = 0x22
	CmdReadIdCode   Command = 0x23
	CmdReadUniqueId Command = 0x24
	CmdClearFpga    Command = 0x25
	CmdIdentify     Command = 0x41
)

var commandNames = map[Command]string{
	CmdReadId:       "read-id",
	CmdReadMemory:   "read-memory",
	CmdWriteMemory:  "write-memory",
	CmdReadIO:       "read-io",
	CmdWriteIO:      "write-io",
	CmdSetIO:        "set-io",
	CmdReadConsoleA: "read-console-a",
	CmdUpload:       "upload",
	CmdRun:          "run",
	CmdReadDebug:    "read-debug",
	CmdReadConsoleB: "read-console-b",
	CmdLoadSram:     "load-sram",
	CmdProgramFlash: "program-flash",
	CmdReadIdCode:   "read-idcode",
	CmdReadUniqueId: "read-unique-id",
	CmdClearFpga:    "clear-fpga",
	CmdIdentify:     "identify",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%#02x)", uint8(c))
}

type Status uint8

const (
	StatusOkay           Status = 0x00
	StatusProgress       Status = 0xBF
	StatusFifoError      Status = 0xE9
	StatusVerifyError    Status = 0xEA
	StatusFileNotFound   Status = 0xEB
	StatusBadParams      Status = 0xEC
	StatusUnknownCommand Status = 0xED
	StatusBadSync        Status = 0xEE
)

var statusNames = map[Status]string{
	StatusOkay:           "OKAY",
	StatusProgress:       "PROGRESS",
	StatusFifoError:      "FIFO_ERROR",
	StatusVerifyError:    "VERIFY_ERROR",
	StatusFileNotFound:   "FILE_NOT_FOUND",
	StatusBadParams:      "BAD_PARAMS",
	StatusUnknownCommand: "UNKNOWN_COMMAND",
	StatusBadSync:        "BAD_SYNC",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%#02x)", uint8(s))
}

// A failed command. Status is sent to the client before the connection
// is closed.
type Error struct {
	Status Status
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.Status, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(status Status, format string, args ...interface{}) *Error {
	return &Error{status, fmt.Errorf(format, args...)}
}
