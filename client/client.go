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

// Package client talks to an ecpd daemon.
package client

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/ecpd"
	"github.com/google/ecpd/daemon"

	"github.com/golang/glog"
)

// A non-OKAY reply. The daemon has closed the connection.
type StatusError struct {
	Command daemon.Command
	Status  daemon.Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v failed with %v", e.Command, e.Status)
}

// Not safe for concurrent use.
type Client struct {
	conn net.Conn
	// Called for every progress notification of a flash programming command.
	Progress func()
}

func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("Dial %v failed: %v", addr, err)
	}
	return NewClient(conn), nil
}

// Takes ownership of conn.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) request(cmd daemon.Command, params []byte) error {
	frame := append([]byte{daemon.SyncByte, byte(cmd)}, params...)
	glog.V(2).Infof("[client OUT]:\n%s", hex.Dump(frame))
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("Write %v failed: %v", cmd, err)
	}
	return nil
}

// Waits for the terminal reply to cmd and reads n payload bytes.
func (c *Client) reply(cmd daemon.Command, n int) ([]byte, error) {
	hdr := make([]byte, 2)
	for {
		if _, err := io.ReadFull(c.conn, hdr); err != nil {
			return nil, fmt.Errorf("Read %v reply failed: %v", cmd, err)
		}
		if daemon.Status(hdr[0]) != daemon.StatusProgress {
			break
		}
		if c.Progress != nil {
			c.Progress()
		}
	}
	status := daemon.Status(hdr[0])
	if status == daemon.StatusBadSync {
		return nil, &StatusError{cmd, status}
	}
	if daemon.Command(hdr[1]) != cmd {
		return nil, fmt.Errorf("Reply for %v while waiting for %v", daemon.Command(hdr[1]), cmd)
	}
	if status != daemon.StatusOkay {
		return nil, &StatusError{cmd, status}
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(c.conn, payload); err != nil {
		return nil, fmt.Errorf("Read %v payload failed: %v", cmd, err)
	}
	return payload, nil
}

func (c *Client) call(cmd daemon.Command, params []byte, n int) ([]byte, error) {
	if err := c.request(cmd, params); err != nil {
		return nil, err
	}
	return c.reply(cmd, n)
}

// Returns the daemon protocol version.
func (c *Client) Identify() (uint8, uint8, error) {
	out, err := c.call(daemon.CmdIdentify, nil, 2)
	if err != nil {
		return 0, 0, err
	}
	return out[0], out[1], nil
}

func (c *Client) readWord(cmd daemon.Command) (uint32, error) {
	out, err := c.call(cmd, nil, 6)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(out[2:]), nil
}

func (c *Client) ReadId() (uint32, error) {
	return c.readWord(daemon.CmdReadId)
}

func (c *Client) ReadDebug() (uint32, error) {
	return c.readWord(daemon.CmdReadDebug)
}

func (c *Client) ReadIdCode() (uint32, error) {
	return c.readWord(daemon.CmdReadIdCode)
}

func (c *Client) ReadUniqueId() (uint64, error) {
	out, err := c.call(daemon.CmdReadUniqueId, nil, 10)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(out[2:]), nil
}

func addressLength(addr uint32, n int) []byte {
	params := make([]byte, 8)
	binary.LittleEndian.PutUint32(params, addr)
	binary.LittleEndian.PutUint32(params[4:], uint32(int32(n)))
	return params
}

func (c *Client) ReadMemory(addr uint32, words int) ([]byte, error) {
	return c.call(daemon.CmdReadMemory, addressLength(addr, words), 4*words)
}

// data must be a whole number of words.
func (c *Client) WriteMemory(addr uint32, data []byte) error {
	if len(data)%4 != 0 {
		return fmt.Errorf("WriteMemory length %d is not a multiple of 4", len(data))
	}
	_, err := c.call(daemon.CmdWriteMemory, append(addressLength(addr, len(data)/4), data...), 0)
	return err
}

func (c *Client) ReadIO(addr uint32, count int) ([]byte, error) {
	return c.call(daemon.CmdReadIO, addressLength(addr, count), count)
}

func (c *Client) WriteIO(addr uint32, data []byte) error {
	_, err := c.call(daemon.CmdWriteIO, append(addressLength(addr, len(data)), data...), 0)
	return err
}

func (c *Client) SetIO(value uint8) error {
	params := make([]byte, 4)
	binary.LittleEndian.PutUint32(params, uint32(value))
	_, err := c.call(daemon.CmdSetIO, params, 0)
	return err
}

func (c *Client) ReadConsole(console ecpd.Console) ([]byte, error) {
	cmd := daemon.CmdReadConsoleA
	if console == ecpd.ConsoleB {
		cmd = daemon.CmdReadConsoleB
	}
	out, err := c.call(cmd, nil, 2)
	if err != nil {
		return nil, err
	}
	data := make([]byte, binary.LittleEndian.Uint16(out))
	if _, err = io.ReadFull(c.conn, data); err != nil {
		return nil, fmt.Errorf("Read console data failed: %v", err)
	}
	return data, nil
}

func (c *Client) fileCommand(cmd daemon.Command, addr uint32, name string) error {
	if len(name) == 0 || len(name) > 255 {
		return fmt.Errorf("File name length %d out of range", len(name))
	}
	params := make([]byte, 5, 5+len(name))
	binary.LittleEndian.PutUint32(params, addr)
	params[4] = uint8(len(name))
	_, err := c.call(cmd, append(params, name...), 0)
	return err
}

// Uploads a file from the daemon's filesystem into target memory.
func (c *Client) Upload(addr uint32, name string) error {
	return c.fileCommand(daemon.CmdUpload, addr, name)
}

func (c *Client) Run(addr uint32) error {
	params := make([]byte, 4)
	binary.LittleEndian.PutUint32(params, addr)
	_, err := c.call(daemon.CmdRun, params, 0)
	return err
}

func (c *Client) LoadSram(name string) error {
	return c.fileCommand(daemon.CmdLoadSram, 0, name)
}

func (c *Client) ProgramFlash(offset uint32, name string) error {
	return c.fileCommand(daemon.CmdProgramFlash, offset, name)
}

func (c *Client) ClearFpga() error {
	_, err := c.call(daemon.CmdClearFpga, nil, 0)
	return err
}
