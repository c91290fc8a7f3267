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

package client_test

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/google/ecpd"
	"github.com/google/ecpd/client"
	"github.com/google/ecpd/daemon"
)

// Runs a scripted daemon on one end of a pipe: it reads len(request) bytes,
// checks them and writes reply.
func scripted(t *testing.T, request, reply []byte) *client.Client {
	t.Helper()
	local, remote := net.Pipe()
	go func() {
		defer remote.Close()
		got := make([]byte, len(request))
		if _, err := io.ReadFull(remote, got); err != nil {
			t.Errorf("Reading request failed: %v", err)
			return
		}
		if !bytes.Equal(got, request) {
			t.Errorf("Unexpected request % x, want % x", got, request)
		}
		remote.Write(reply)
	}()
	c := client.NewClient(local)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestIdentify(t *testing.T) {
	c := scripted(t, []byte{0xCC, 0x41}, []byte{0x00, 0x41, 0x01, 0x00})
	major, minor, err := c.Identify()
	if err != nil || major != 1 || minor != 0 {
		t.Errorf("Identify() = %d, %d, %v", major, minor, err)
	}
}

func TestProgressIsNotTerminal(t *testing.T) {
	request := []byte{0xCC, 0x22, 0x00, 0x10, 0x00, 0x00, 0x05, 'a', '.', 'b', 'i', 't'}
	c := scripted(t, request, []byte{0xBF, 0x22, 0xBF, 0x22, 0x00, 0x22})
	progress := 0
	c.Progress = func() { progress++ }
	if err := c.ProgramFlash(0x1000, "a.bit"); err != nil {
		t.Errorf("ProgramFlash failed: %v", err)
	}
	if progress != 2 {
		t.Errorf("Expected 2 progress notifications, got %d", progress)
	}
}

func TestErrorStatus(t *testing.T) {
	request := []byte{0xCC, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00}
	c := scripted(t, request, []byte{0xEC, 0x02})
	_, err := c.ReadMemory(0, 1<<20)
	var se *client.StatusError
	if !errors.As(err, &se) || se.Status != daemon.StatusBadParams || se.Command != daemon.CmdReadMemory {
		t.Errorf("Expected BAD_PARAMS, got %v", err)
	}
}

func TestReadConsole(t *testing.T) {
	c := scripted(t, []byte{0xCC, 0x0B}, []byte{0x00, 0x0B, 0x02, 0x00, 'o', 'k'})
	data, err := c.ReadConsole(ecpd.ConsoleB)
	if err != nil || string(data) != "ok" {
		t.Errorf("ReadConsole() = %q, %v", data, err)
	}
}

func TestReadUniqueId(t *testing.T) {
	c := scripted(t, []byte{0xCC, 0x24}, []byte{0x00, 0x24, 0, 0, 8, 7, 6, 5, 4, 3, 2, 1})
	id, err := c.ReadUniqueId()
	if err != nil || id != 0x0102030405060708 {
		t.Errorf("ReadUniqueId() = %016x, %v", id, err)
	}
}

func TestMismatchedReply(t *testing.T) {
	c := scripted(t, []byte{0xCC, 0x01}, []byte{0x00, 0x0A, 0, 0, 0, 0, 0, 0})
	if _, err := c.ReadId(); err == nil {
		t.Errorf("Reply for another command accepted")
	}
}

func TestWriteMemoryRejectsPartialWords(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()
	c := client.NewClient(local)
	defer c.Close()
	if err := c.WriteMemory(0, []byte{1, 2}); err == nil {
		t.Errorf("WriteMemory accepted 2 bytes")
	}
}
