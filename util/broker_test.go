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

package util_test

import (
	"testing"
	"time"

	"github.com/google/ecpd/util"
)

func TestBrokerDeliversToSubscribers(t *testing.T) {
	b := util.NewBroker()
	go b.Start()
	defer b.Stop()

	first := b.Subscribe()
	second := b.Subscribe()
	// Subscriptions are processed asynchronously.
	time.Sleep(10 * time.Millisecond)
	b.Publish(util.Event{Kind: "command", Detail: "read-id"})

	for _, ch := range []chan util.Event{first, second} {
		select {
		case ev := <-ch:
			if ev.Kind != "command" || ev.Detail != "read-id" || ev.Time.IsZero() {
				t.Errorf("Unexpected event %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("No event delivered")
		}
	}
}

func TestBrokerPublishNeverBlocks(t *testing.T) {
	b := util.NewBroker()
	// Not started: the queue fills and further events are dropped.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(util.Event{Kind: "command"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Errorf("Publish blocked")
	}
}
