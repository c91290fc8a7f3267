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

// Package status serves daemon statistics and activity over HTTP.
package status

import (
	"context"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/google/ecpd/daemon"
	"github.com/google/ecpd/util"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"
	"github.com/labstack/echo"
)

type StatsSource interface {
	Stats() daemon.Stats
}

type Server struct {
	Addr string
	// Longest a waiting request is held open.
	PollTimeout time.Duration

	e        *echo.Echo
	stats    StatsSource
	events   *util.Broker
	imageDir string
	// Image directory change notifications.
	dirBroker *util.Broker
}

// events may be nil. An empty imageDir disables /images.
func NewServer(addr string, stats StatsSource, events *util.Broker, imageDir string) *Server {
	s := &Server{
		Addr:        addr,
		PollTimeout: 5 * time.Minute,
		e:           echo.New(),
		stats:       stats,
		events:      events,
		imageDir:    imageDir,
		dirBroker:   util.NewBroker(),
	}
	s.e.HideBanner = true
	go s.dirBroker.Start()

	// Returns a snapshot of the daemon statistics.
	s.e.GET("/status", func(c echo.Context) error {
		return c.JSON(http.StatusOK, s.stats.Stats())
	})

	// Returns the next daemon event, or 204 if none arrived in time.
	s.e.GET("/events", func(c echo.Context) error {
		if s.events == nil {
			return c.NoContent(http.StatusNoContent)
		}
		ev, ok := s.wait(c, s.events)
		if !ok {
			return c.NoContent(http.StatusNoContent)
		}
		return c.JSON(http.StatusOK, ev)
	})

	// Returns the image file names. With wait=true, after the next change.
	s.e.GET("/images", func(c echo.Context) error {
		if s.imageDir == "" {
			return c.String(http.StatusNotFound, "No image directory")
		}
		if c.QueryParam("wait") == "true" {
			s.wait(c, s.dirBroker)
		}
		files, err := s.images()
		if err != nil {
			glog.Errorf("Listing images failed: %v", err)
			return err
		}
		return c.JSON(http.StatusOK, files)
	})
	return s
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Close() {
	s.dirBroker.Stop()
}

func (s *Server) images() ([]string, error) {
	entries, err := os.ReadDir(s.imageDir)
	if err != nil {
		return nil, err
	}
	files := []string{}
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Blocks until broker publishes, the client goes away or the poll times out.
func (s *Server) wait(c echo.Context, broker *util.Broker) (util.Event, bool) {
	timedOut := time.NewTimer(s.PollTimeout)
	defer timedOut.Stop()
	ch := broker.Subscribe()
	defer broker.Unsubscribe(ch)

	select {
	case <-timedOut.C:
		glog.V(1).Infof("Timed out")
	case <-c.Request().Context().Done():
		glog.V(1).Infof("Client disconnected")
	case ev := <-ch:
		return ev, true
	}
	return util.Event{}, false
}

// Publishes image directory changes until ctx is done.
func (s *Server) watchDirectoryChanges(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		glog.Errorf("NewWatcher failed: %v", err)
		return
	}
	defer watcher.Close()

	if err = watcher.Add(s.imageDir); err != nil {
		glog.Errorf("watcher.Add failed: %v", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				glog.Warning("watcher.Events is not ok. Aborting")
				return
			}
			glog.V(1).Infof("Watcher event: %v", event)
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				s.dirBroker.Publish(util.Event{Kind: "image", Detail: event.Name, Status: event.Op.String()})
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				glog.Warning("watcher.Errors is not ok. Aborting")
				return
			}
			glog.Warningf("Watcher error: %v", err)
		}
	}
}

// Serves until ctx is done, then releases the server.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()
	if s.imageDir != "" {
		go s.watchDirectoryChanges(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.e.Start(s.Addr)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
