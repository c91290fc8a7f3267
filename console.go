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

// Target console streams.
package ecpd

import (
	"fmt"
)

type Console uint8

const (
	ConsoleA Console = iota
	ConsoleB
)

func (c Console) ir() UserIR {
	if c == ConsoleB {
		return UserIRConsoleB
	}
	return UserIRConsoleA
}

func (c Console) String() string {
	if c == ConsoleB {
		return "console-b"
	}
	return "console-a"
}

// Reads one burst of buffered console output. One slot of capacity is kept
// in reserve, so at most capacity-1 bytes are returned.
func (u *UserRegister) ReadConsole(c Console, capacity int) ([]byte, error) {
	data, err := u.burst(c.ir(), capacity-1)
	if err != nil {
		return nil, fmt.Errorf("ReadConsole %v failed: %v", c, err)
	}
	return data, nil
}
