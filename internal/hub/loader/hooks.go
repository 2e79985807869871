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

package loader

import (
	"context"
)

// Host events seen by modules and clients of a session.
const (
	EventTeardown = "module.teardown"
)

// HostEvent is an event on a session bus.
type HostEvent struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload,omitempty"`
}

func (e HostEvent) EventName() string { return e.Name }

// HookInvoker runs the teardown hook of an unmounted component.
type HookInvoker interface {
	Teardown(ctx context.Context, s *Session, c *Component) error
}

// BusHooks asks the session client to run the hook by publishing a
// module.teardown event naming it.
type BusHooks struct{}

func (BusHooks) Teardown(_ context.Context, s *Session, c *Component) error {
	s.Bus().Publish(HostEvent{Name: EventTeardown, Payload: map[string]any{
		"moduleId": c.ModuleId,
		"version":  c.Version,
		"scope":    c.Scope,
		"hook":     c.Teardown,
	}})
	return nil
}
