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

package statemachine

import (
	"errors"
	"fmt"
	"slices"
)

// Event represents an event that triggers a state transition.
type Event string

// ErrInvalidTransition is returned when no transition exists for (state, event).
var ErrInvalidTransition = errors.New("invalid transition")

type transitionKey[T comparable] struct {
	From  T
	Event Event
}

// Table is an event driven transition table. Once built it is read-only,
// so Next is a pure function of its arguments and safe for concurrent use.
type Table[T comparable] struct {
	transitions map[transitionKey[T]]T
	terminal    map[T]bool
	order       []transitionKey[T]
}

// NewTable creates an empty transition table.
func NewTable[T comparable]() *Table[T] {
	return &Table[T]{
		transitions: make(map[transitionKey[T]]T),
		terminal:    make(map[T]bool),
	}
}

// On registers from --event--> to.
func (t *Table[T]) On(from T, event Event, to T) *Table[T] {
	key := transitionKey[T]{From: from, Event: event}
	if _, ok := t.transitions[key]; !ok {
		t.order = append(t.order, key)
	}
	t.transitions[key] = to
	return t
}

// Terminal marks states that accept no further events.
func (t *Table[T]) Terminal(states ...T) *Table[T] {
	for _, s := range states {
		t.terminal[s] = true
	}
	return t
}

// IsTerminal reports whether state was marked terminal.
func (t *Table[T]) IsTerminal(state T) bool {
	return t.terminal[state]
}

// Next returns the state reached from `from` on `event`.
func (t *Table[T]) Next(from T, event Event) (T, error) {
	if t.terminal[from] {
		var zero T
		return zero, fmt.Errorf("%w: %v is terminal", ErrInvalidTransition, from)
	}
	to, ok := t.transitions[transitionKey[T]{From: from, Event: event}]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: no transition from %v on %q", ErrInvalidTransition, from, event)
	}
	return to, nil
}

// Events returns the events accepted in state, in registration order.
func (t *Table[T]) Events(from T) []Event {
	if t.terminal[from] {
		return nil
	}
	var events []Event
	for _, key := range t.order {
		if key.From == from && !slices.Contains(events, key.Event) {
			events = append(events, key.Event)
		}
	}
	return events
}

// ToDot exports the table as a Graphviz DOT graph.
func (t *Table[T]) ToDot(name string) string {
	out := fmt.Sprintf("digraph %q {\n", name)
	for state := range t.terminal {
		out += fmt.Sprintf("  %q [shape=doublecircle];\n", fmt.Sprint(state))
	}
	for _, key := range t.order {
		out += fmt.Sprintf("  %q -> %q [label=%q];\n", fmt.Sprint(key.From), fmt.Sprint(t.transitions[key]), key.Event)
	}
	return out + "}\n"
}
