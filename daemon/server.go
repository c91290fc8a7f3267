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
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/ecpd"
	"github.com/google/ecpd/programmer"
	"github.com/google/ecpd/util"

	"github.com/golang/glog"
)

type Config struct {
	// First port tried. Zero binds an ephemeral port.
	Port int
	// Consecutive ports tried when the port is taken.
	BindAttempts int
	// Bounds the wait for each frame. Zero waits forever.
	ReadTimeout time.Duration
	// When set, file names are resolved inside this directory and may not
	// leave it.
	ImageDir string
	Flash    programmer.FlashOptions
}

var DefaultConfig = Config{
	Port:         5000,
	BindAttempts: 20,
	ReadTimeout:  5 * time.Minute,
	Flash:        programmer.DefaultFlashOptions,
}

type Stats struct {
	Port        int       `json:"port"`
	Started     time.Time `json:"started"`
	Sessions    int       `json:"sessions"`
	Commands    int       `json:"commands"`
	Errors      int       `json:"errors"`
	Client      string    `json:"client,omitempty"`
	LastCommand string    `json:"last_command,omitempty"`
	LastStatus  string    `json:"last_status,omitempty"`
}

// Serves one client at a time. The user register and programmer are only
// used from the session goroutine.
type Server struct {
	conf   Config
	user   ecpd.UserRegisterInterface
	prog   programmer.ProgrammerInterface
	broker *util.Broker

	listener net.Listener
	mu       sync.Mutex
	stats    Stats
	// Guarded by mu.
	active  *session
	closing bool
}

// prog and broker may be nil. Without a programmer the programming
// commands are rejected as unknown.
func NewServer(conf Config, user ecpd.UserRegisterInterface, prog programmer.ProgrammerInterface, broker *util.Broker) *Server {
	if conf.BindAttempts <= 0 {
		conf.BindAttempts = 1
	}
	return &Server{conf: conf, user: user, prog: prog, broker: broker}
}

// Binds the first free port of Config.Port .. Config.Port+BindAttempts-1.
func (s *Server) Listen() error {
	var err error
	for i := 0; i < s.conf.BindAttempts; i++ {
		port := s.conf.Port + i
		glog.V(1).Infof("Bind attempt to port number %d", port)
		var l net.Listener
		if l, err = net.Listen("tcp", fmt.Sprintf(":%d", port)); err == nil {
			s.listener = l
			bound := l.Addr().(*net.TCPAddr).Port
			s.mu.Lock()
			s.stats.Port = bound
			s.stats.Started = time.Now()
			s.mu.Unlock()
			glog.Infof("Listening to port %d", bound)
			return nil
		}
		if s.conf.Port == 0 {
			break
		}
	}
	return fmt.Errorf("Bind failed: %v", err)
}

func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Accepts and serves connections until ctx is done. A command in progress
// is completed before Serve returns; a client waiting between frames is
// disconnected.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.listener.Close()
			s.stop()
		case <-done:
		}
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				glog.Info("Listener closed")
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				glog.Warningf("Accept failed: %v", err)
				continue
			}
			return fmt.Errorf("Accept failed: %v", err)
		}
		s.serveConn(conn)
	}
}

// Ends the active session at its next frame boundary.
func (s *Server) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closing = true
	if s.active != nil && s.active.idle {
		if err := s.active.conn.SetReadDeadline(time.Now()); err != nil {
			glog.Warningf("Interrupting idle session failed: %v", err)
		}
	}
}

func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Server) publish(kind, detail, status string) {
	if s.broker != nil {
		s.broker.Publish(util.Event{Kind: kind, Detail: detail, Status: status})
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	client := conn.RemoteAddr().String()
	glog.Infof("Accepted connection from %v", client)
	s.mu.Lock()
	s.stats.Sessions++
	s.stats.Client = client
	ss := &session{server: s, conn: conn}
	s.active = ss
	s.mu.Unlock()
	s.publish("connect", client, "")

	if err := ss.run(); err != nil {
		glog.Warningf("Session %v ended: %v", client, err)
	} else {
		glog.Infof("Client %v hung up", client)
	}

	s.mu.Lock()
	s.stats.Client = ""
	s.active = nil
	s.mu.Unlock()
	s.publish("disconnect", client, "")
}

func (s *Server) recordCommand(cmd Command, status Status) {
	s.mu.Lock()
	s.stats.Commands++
	if status != StatusOkay {
		s.stats.Errors++
	}
	s.stats.LastCommand = cmd.String()
	s.stats.LastStatus = status.String()
	s.mu.Unlock()
	s.publish("command", cmd.String(), status.String())
}
