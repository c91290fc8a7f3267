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

package util

import (
	"time"
)

// A daemon activity notification.
type Event struct {
	Time time.Time `json:"time"`
	Kind string    `json:"kind"`
	// Command or file the event refers to.
	Detail string `json:"detail,omitempty"`
	Status string `json:"status,omitempty"`
}

// Broadcasts events from publishers to multiple subscribers.
// https://stackoverflow.com/questions/36417199/how-to-broadcast-message-using-channel
type Broker struct {
	stopCh    chan struct{}
	publishCh chan Event
	subCh     chan chan Event
	unsubCh   chan chan Event
}

func NewBroker() *Broker {
	return &Broker{
		stopCh:    make(chan struct{}),
		publishCh: make(chan Event, 16),
		subCh:     make(chan chan Event, 1),
		unsubCh:   make(chan chan Event, 1),
	}
}

func (b *Broker) Start() {
	subs := map[chan Event]struct{}{}
	for {
		select {
		case <-b.stopCh:
			return
		case msgCh := <-b.subCh:
			subs[msgCh] = struct{}{}
		case msgCh := <-b.unsubCh:
			delete(subs, msgCh)
		case msg := <-b.publishCh:
			for msgCh := range subs {
				// msgCh is buffered, use non-blocking send to protect the broker:
				select {
				case msgCh <- msg:
				default:
				}
			}
		}
	}
}

func (b *Broker) Stop() {
	close(b.stopCh)
}

func (b *Broker) Subscribe() chan Event {
	msgCh := make(chan Event, 5)
	b.subCh <- msgCh
	return msgCh
}

func (b *Broker) Unsubscribe(msgCh chan Event) {
	b.unsubCh <- msgCh
}

// Never blocks the publisher. Events are dropped while the queue is full.
func (b *Broker) Publish(msg Event) {
	if msg.Time.IsZero() {
		msg.Time = time.Now()
	}
	select {
	case b.publishCh <- msg:
	default:
	}
}
