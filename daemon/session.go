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

package daemon

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/google/ecpd"
	"github.com/google/ecpd/programmer"
	"github.com/google/ecpd/util"

	"github.com/golang/glog"
)

type session struct {
	server *Server
	conn   net.Conn
	// Set when a progress notification could not be sent.
	progressErr error
	// Waiting for the next frame. Guarded by server.mu.
	idle bool
}

func (ss *session) deadline() time.Time {
	if t := ss.server.conf.ReadTimeout; t > 0 {
		return time.Now().Add(t)
	}
	return time.Time{}
}

// Reads exactly n bytes of the current frame.
func (ss *session) read(n int) ([]byte, error) {
	if err := ss.conn.SetReadDeadline(ss.deadline()); err != nil {
		glog.Warningf("Setting read deadline failed: %v", err)
	}
	return ss.readFull(n)
}

func (ss *session) readFull(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(ss.conn, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (ss *session) write(frame []byte) error {
	glog.V(2).Infof("[daemon OUT]: %d bytes:\n%s", len(frame), hex.Dump(frame))
	if _, err := ss.conn.Write(frame); err != nil {
		return fmt.Errorf("Write to client failed: %v", err)
	}
	return nil
}

// Marks the session idle and arms the deadline for the next frame header.
// Returns false once the server is shutting down.
func (ss *session) awaitFrame() bool {
	ss.server.mu.Lock()
	defer ss.server.mu.Unlock()
	if ss.server.closing {
		return false
	}
	ss.idle = true
	if err := ss.conn.SetReadDeadline(ss.deadline()); err != nil {
		glog.Warningf("Setting read deadline failed: %v", err)
	}
	return true
}

func (ss *session) busy() {
	ss.server.mu.Lock()
	ss.idle = false
	ss.server.mu.Unlock()
}

// Serves frames until the client hangs up, a command fails or the server
// shuts down. Returns nil on a clean hang up or shutdown.
func (ss *session) run() error {
	for {
		if !ss.awaitFrame() {
			return nil
		}
		hdr, err := ss.readFull(2)
		ss.busy()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			ss.server.mu.Lock()
			closing := ss.server.closing
			ss.server.mu.Unlock()
			if closing {
				glog.Info("Session interrupted by shutdown")
				return nil
			}
			return fmt.Errorf("Read frame failed: %v", err)
		}
		glog.V(1).Infof("[daemon IN]: %02x %02x", hdr[0], hdr[1])
		if hdr[0] != SyncByte {
			if werr := ss.write([]byte{byte(StatusBadSync), hdr[0]}); werr != nil {
				glog.Warningf("Bad sync reply failed: %v", werr)
			}
			return fmt.Errorf("Bad sync byte %#02x", hdr[0])
		}

		cmd := Command(hdr[1])
		reply, err := ss.dispatch(cmd)
		if err != nil {
			var de *Error
			if !errors.As(err, &de) {
				de = &Error{StatusFifoError, err}
			}
			glog.Warningf("Command %v failed: %v", cmd, err)
			ss.server.recordCommand(cmd, de.Status)
			if werr := ss.write([]byte{byte(de.Status), byte(cmd)}); werr != nil {
				return werr
			}
			return err
		}
		ss.server.recordCommand(cmd, StatusOkay)
		if err = ss.write(append([]byte{byte(StatusOkay), byte(cmd)}, reply...)); err != nil {
			return err
		}
	}
}

func (ss *session) dispatch(cmd Command) ([]byte, error) {
	user := ss.server.user
	switch cmd {
	case CmdIdentify:
		return []byte{VersionMajor, VersionMinor}, nil
	case CmdReadId:
		return ss.readWord(user.ReadID)
	case CmdReadDebug:
		return ss.readWord(user.ReadDebug)
	case CmdReadMemory:
		return ss.readMemory()
	case CmdWriteMemory:
		return nil, ss.writeMemory()
	case CmdReadIO:
		return ss.readIO()
	case CmdWriteIO:
		return nil, ss.writeIO()
	case CmdSetIO:
		return nil, ss.setIO()
	case CmdReadConsoleA:
		return ss.readConsole(ecpd.ConsoleA)
	case CmdReadConsoleB:
		return ss.readConsole(ecpd.ConsoleB)
	case CmdUpload:
		return nil, ss.upload()
	case CmdRun:
		return nil, ss.runApplication()
	}
	if ss.server.prog == nil {
		return nil, newError(StatusUnknownCommand, "unknown command %v", cmd)
	}
	switch cmd {
	case CmdLoadSram:
		return nil, ss.loadSram()
	case CmdProgramFlash:
		return nil, ss.programFlash()
	case CmdReadIdCode:
		return ss.readWord(ss.server.prog.ReadIdCode)
	case CmdReadUniqueId:
		id, err := ss.server.prog.ReadUniqueId()
		if err != nil {
			return nil, &Error{StatusFifoError, err}
		}
		reply := make([]byte, 10)
		binary.LittleEndian.PutUint64(reply[2:], id)
		return reply, nil
	case CmdClearFpga:
		if err := ss.server.prog.InitFlashMode(); err != nil {
			return nil, &Error{StatusVerifyError, err}
		}
		return nil, nil
	}
	return nil, newError(StatusUnknownCommand, "unknown command %v", cmd)
}

// Replies with two bytes of padding and a 32-bit value.
func (ss *session) readWord(read func() (uint32, error)) ([]byte, error) {
	v, err := read()
	if err != nil {
		return nil, &Error{StatusFifoError, err}
	}
	reply := make([]byte, 6)
	binary.LittleEndian.PutUint32(reply[2:], v)
	return reply, nil
}

func (ss *session) readParams(n int) ([]byte, error) {
	params, err := ss.read(n)
	if err != nil {
		return nil, newError(StatusBadParams, "short parameters: %v", err)
	}
	return params, nil
}

// Reads an address followed by a signed length in [0, limit).
func (ss *session) readAddressLength(limit int) (uint32, int, error) {
	params, err := ss.readParams(8)
	if err != nil {
		return 0, 0, err
	}
	addr := binary.LittleEndian.Uint32(params)
	n := int32(binary.LittleEndian.Uint32(params[4:]))
	if n < 0 || int(n) >= limit {
		return 0, 0, newError(StatusBadParams, "length %d out of range", n)
	}
	return addr, int(n), nil
}

func (ss *session) readMemory() ([]byte, error) {
	addr, words, err := ss.readAddressLength(MaxMemoryWords)
	if err != nil {
		return nil, err
	}
	data, err := ss.server.user.ReadMemory(addr, words)
	if err != nil {
		return nil, &Error{StatusFifoError, err}
	}
	if len(data) != 4*words {
		return nil, newError(StatusFifoError, "read %d of %d bytes", len(data), 4*words)
	}
	return data, nil
}

func (ss *session) writeMemory() error {
	addr, words, err := ss.readAddressLength(MaxMemoryWords)
	if err != nil {
		return err
	}
	glog.V(1).Infof("Reading %d bytes from socket", 4*words)
	data, err := ss.readParams(4 * words)
	if err != nil {
		return err
	}
	if err = ss.server.user.WriteMemory(addr, data); err != nil {
		return &Error{StatusFifoError, err}
	}
	return nil
}

func (ss *session) readIO() ([]byte, error) {
	addr, count, err := ss.readAddressLength(MaxIORegisters)
	if err != nil {
		return nil, err
	}
	data, err := ss.server.user.ReadIORegisters(addr, count)
	if err != nil {
		return nil, &Error{StatusFifoError, err}
	}
	if len(data) != count {
		return nil, newError(StatusFifoError, "read %d of %d registers", len(data), count)
	}
	return data, nil
}

func (ss *session) writeIO() error {
	addr, count, err := ss.readAddressLength(MaxIORegisters)
	if err != nil {
		return err
	}
	data, err := ss.readParams(count)
	if err != nil {
		return err
	}
	if err = ss.server.user.WriteIORegisters(addr, data); err != nil {
		return &Error{StatusFifoError, err}
	}
	return nil
}

func (ss *session) setIO() error {
	params, err := ss.readParams(4)
	if err != nil {
		return err
	}
	value := uint8(binary.LittleEndian.Uint32(params))
	if _, err = ss.server.user.SetIO(value); err != nil {
		return &Error{StatusFifoError, err}
	}
	return nil
}

// Collects console bursts until one comes back empty or the reply is full.
func (ss *session) readConsole(c ecpd.Console) ([]byte, error) {
	data := make([]byte, 0, ConsoleCapacity)
	for {
		chunk, err := ss.server.user.ReadConsole(c, ConsoleCapacity-len(data))
		if err != nil {
			return nil, &Error{StatusFifoError, err}
		}
		if len(chunk) == 0 {
			break
		}
		data = append(data, chunk...)
		if len(data) >= ConsoleCapacity {
			data = data[:ConsoleCapacity]
			break
		}
	}
	reply := make([]byte, 2, 2+len(data))
	binary.LittleEndian.PutUint16(reply, uint16(len(data)))
	return append(reply, data...), nil
}

func (ss *session) runApplication() error {
	params, err := ss.readParams(4)
	if err != nil {
		return err
	}
	if err = ss.server.user.RunApplication(binary.LittleEndian.Uint32(params)); err != nil {
		return &Error{StatusFifoError, err}
	}
	return nil
}

// Reads an address, a name length and the file name.
func (ss *session) readFileRequest() (uint32, string, error) {
	params, err := ss.readParams(5)
	if err != nil {
		return 0, "", err
	}
	addr := binary.LittleEndian.Uint32(params)
	if params[4] == 0 {
		return 0, "", newError(StatusBadParams, "empty file name")
	}
	name, err := ss.readParams(int(params[4]))
	if err != nil {
		return 0, "", err
	}
	// Names are NUL terminated when shorter than the length byte says.
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	path, err := ss.server.resolve(string(name))
	if err != nil {
		return 0, "", err
	}
	return addr, path, nil
}

// Maps a client supplied name to a local path.
func (s *Server) resolve(name string) (string, error) {
	if name == "" {
		return "", newError(StatusBadParams, "empty file name")
	}
	if s.conf.ImageDir == "" {
		return name, nil
	}
	// Rooting the name first keeps ".." from climbing out of the directory.
	rel := filepath.Clean("/" + name)
	if rel == "/" {
		return "", newError(StatusFileNotFound, "%q names the image directory", name)
	}
	return filepath.Join(s.conf.ImageDir, rel), nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{StatusFileNotFound, err}
	}
	return data, nil
}

func (ss *session) upload() error {
	addr, path, err := ss.readFileRequest()
	if err != nil {
		return err
	}
	glog.Infof("Uploading %v to %08x", path, addr)
	img, err := ecpd.LoadImage(path)
	if err != nil {
		return &Error{StatusFileNotFound, err}
	}
	ss.server.publish("upload", path, "")
	if err = ss.server.user.Upload(addr, img); err != nil {
		return &Error{StatusFifoError, err}
	}
	return nil
}

func (ss *session) loadSram() error {
	_, path, err := ss.readFileRequest()
	if err != nil {
		return err
	}
	data, err := readFile(path)
	if err != nil {
		return err
	}
	glog.Infof("Loading %v into SRAM", path)
	ss.server.publish("load-sram", path, "")
	if err = ss.server.prog.ProgramSram(bytes.NewReader(data)); err != nil {
		return &Error{StatusVerifyError, err}
	}
	return nil
}

// Sent from inside the programming loop, so a failed write is recorded
// and reported once programming returns.
func (ss *session) progress() {
	if ss.progressErr != nil {
		return
	}
	ss.progressErr = ss.write([]byte{byte(StatusProgress), byte(CmdProgramFlash)})
}

func (ss *session) programFlash() error {
	offset, path, err := ss.readFileRequest()
	if err != nil {
		return err
	}
	data, err := readFile(path)
	if err != nil {
		return err
	}
	if err = programmer.FlashRange(int(offset), len(data)); err != nil {
		return &Error{StatusBadParams, err}
	}
	glog.Infof("Programming %v into flash at %06x", path, offset)
	ss.server.publish("program-flash", path, "")

	opts := ss.server.conf.Flash
	opts.Offset = int(offset)
	ss.progressErr = nil
	pages := util.PageCounter{Every: ProgressPages, Notify: ss.progress}
	err = util.ProgramFlash(ss.server.prog, bytes.NewReader(data), opts, pages.Page)
	if ss.progressErr != nil {
		return ss.progressErr
	}
	glog.V(1).Infof("Programmed %d pages", pages.Pages())
	if err != nil {
		return &Error{StatusVerifyError, err}
	}
	return nil
}
