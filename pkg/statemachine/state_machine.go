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
	"fmt"
	"sync"
	"time"
)

// TransitionHook is triggered after a state transition has been applied.
type TransitionHook[T comparable] func(from, to T, event Event) error

// StateHook is triggered when entering a state.
type StateHook[T comparable] func(state T) error

// TransitionValidator may veto a transition before it is applied.
type TransitionValidator[T comparable] func(from, to T, event Event) error

// TransitionRecord records a state transition in the FSM history.
type TransitionRecord[T comparable] struct {
	From      T
	To        T
	Event     Event
	Timestamp time.Time
	Error     error
}

// StateMachine tracks the current state of one entity over a shared Table.
// It is thread-safe.
type StateMachine[T comparable] struct {
	mu sync.Mutex

	table   *Table[T]
	current T

	history        []TransitionRecord[T]
	maxHistorySize int

	validators   []TransitionValidator[T]
	onTransition []TransitionHook[T]
	onEnter      map[T][]StateHook[T]
}

// New creates a StateMachine positioned at initial.
func New[T comparable](table *Table[T], initial T) *StateMachine[T] {
	return &StateMachine[T]{
		table:          table,
		current:        initial,
		maxHistorySize: 100,
		onEnter:        make(map[T][]StateHook[T]),
	}
}

// Current returns the current state.
func (sm *StateMachine[T]) Current() T {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.current
}

// Can reports whether event is accepted in the current state.
func (sm *StateMachine[T]) Can(event Event) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	_, err := sm.table.Next(sm.current, event)
	return err == nil
}

// AddValidator adds a validator that checks if a transition is allowed.
func (sm *StateMachine[T]) AddValidator(v TransitionValidator[T]) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.validators = append(sm.validators, v)
	return sm
}

// OnTransition registers a hook that is called after any state transition.
func (sm *StateMachine[T]) OnTransition(h TransitionHook[T]) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onTransition = append(sm.onTransition, h)
	return sm
}

// OnEnter registers a hook that is called when entering state.
func (sm *StateMachine[T]) OnEnter(state T, h StateHook[T]) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onEnter[state] = append(sm.onEnter[state], h)
	return sm
}

// Fire applies event to the current state. Validators run before the state
// changes; hooks run after, and a failing hook does not roll the state back.
func (sm *StateMachine[T]) Fire(event Event) (T, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	from := sm.current
	to, err := sm.table.Next(from, event)
	if err != nil {
		sm.record(from, from, event, err)
		return from, err
	}
	for _, v := range sm.validators {
		if err := v(from, to, event); err != nil {
			err = fmt.Errorf("validation failed: %w", err)
			sm.record(from, to, event, err)
			return from, err
		}
	}

	sm.current = to
	sm.record(from, to, event, nil)

	for _, h := range sm.onTransition {
		if err := h(from, to, event); err != nil {
			return to, fmt.Errorf("transition hook failed: %w", err)
		}
	}
	for _, h := range sm.onEnter[to] {
		if err := h(to); err != nil {
			return to, fmt.Errorf("enter hook failed for state %v: %w", to, err)
		}
	}
	return to, nil
}

// History returns a copy of the transition history.
func (sm *StateMachine[T]) History() []TransitionRecord[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	out := make([]TransitionRecord[T], len(sm.history))
	copy(out, sm.history)
	return out
}

func (sm *StateMachine[T]) record(from, to T, event Event, err error) {
	sm.history = append(sm.history, TransitionRecord[T]{
		From:      from,
		To:        to,
		Event:     event,
		Timestamp: time.Now(),
		Error:     err,
	})
	if len(sm.history) > sm.maxHistorySize {
		sm.history = sm.history[len(sm.history)-sm.maxHistorySize:]
	}
}
