// Copyright 2025 Arcade Team
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

package event

import (
	"sync"

	"github.com/go-arcade/modhub/pkg/safe"
)

type Event interface {
	EventName() string
}

type EventHandler interface {
	Handle(event Event)
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(event Event)

func (f HandlerFunc) Handle(event Event) {
	f(event)
}

// Subscription is returned by Subscribe and detaches one handler.
type Subscription struct {
	bus  *EventBus
	name string
	id   uint64
	once sync.Once
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.remove(s.name, s.id)
	})
}

type entry struct {
	id      uint64
	handler EventHandler
}

// EventBus is a synchronous in-process publish/subscribe bus. A panicking
// handler is recovered and does not stop delivery to the others.
type EventBus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string][]entry
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string][]entry),
	}
}

func (eb *EventBus) Subscribe(eventName string, handler EventHandler) *Subscription {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.nextID++
	eb.handlers[eventName] = append(eb.handlers[eventName], entry{id: eb.nextID, handler: handler})
	return &Subscription{bus: eb, name: eventName, id: eb.nextID}
}

func (eb *EventBus) remove(eventName string, id uint64) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	list := eb.handlers[eventName]
	for i, e := range list {
		if e.id == id {
			eb.handlers[eventName] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(eb.handlers[eventName]) == 0 {
		delete(eb.handlers, eventName)
	}
}

func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	list := append([]entry(nil), eb.handlers[event.EventName()]...)
	eb.mu.RUnlock()

	for _, e := range list {
		_ = safe.Do(func() { e.handler.Handle(event) })
	}
}

// Len returns the number of handlers across all events.
func (eb *EventBus) Len() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	n := 0
	for _, list := range eb.handlers {
		n += len(list)
	}
	return n
}
