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
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/internal/hub/slot"
	"github.com/go-arcade/modhub/pkg/log"
	"golang.org/x/mod/semver"
)

// Container is the federation entry document a bundle publishes.
type Container struct {
	Name       string               `json:"name"`
	Exposes    map[string]string    `json:"exposes"`
	Shared     map[string]SharedDep `json:"shared"`
	Runtime    string               `json:"runtime,omitempty"`
	Widgets    []WidgetSpec         `json:"widgets,omitempty"`
	Teardown   string               `json:"teardown,omitempty"`
	Subscribes []string             `json:"subscribes,omitempty"`
	// RefreshInterval asks the host for a periodic module.refresh event, e.g. "30s".
	RefreshInterval string `json:"refreshInterval,omitempty"`
}

type SharedDep struct {
	Singleton       bool   `json:"singleton"`
	External        bool   `json:"external"`
	RequiredVersion string `json:"requiredVersion,omitempty"`
}

type WidgetSpec struct {
	Id       string         `json:"id"`
	Slot     string         `json:"slot"`
	Priority int            `json:"priority"`
	When     string         `json:"when,omitempty"`
	Props    map[string]any `json:"props,omitempty"`
}

// Component is a resolved module ready to mount.
type Component struct {
	ModuleId string
	Version  string
	Kind     string
	Scope    string
	Entry    string
	// Exposed is the module path the container maps the exposed name to.
	Exposed         string
	RuntimeIdentity string
	Widgets         []slot.Widget
	Teardown        string
	Subscribes      []string
	RefreshInterval time.Duration
}

// Resolver turns a fetched bundle into a Component.
type Resolver interface {
	Resolve(m *model.MarketplaceModule, bundle []byte, rt Runtime) (*Component, error)
}

// Resolvers dispatches on the bundle kind.
type Resolvers map[string]Resolver

func DefaultResolvers() Resolvers {
	return Resolvers{model.KindFederation: FederationResolver{}}
}

func (rs Resolvers) For(m *model.MarketplaceModule) (Resolver, error) {
	kind := m.Kind
	if kind == "" {
		kind = model.KindFederation
	}
	r, ok := rs[kind]
	if !ok {
		return nil, loadError(m, fmt.Sprintf("no resolver for bundle kind %q", kind), nil)
	}
	return r, nil
}

type FederationResolver struct{}

func (FederationResolver) Resolve(m *model.MarketplaceModule, bundle []byte, rt Runtime) (*Component, error) {
	var c Container
	if err := sonic.Unmarshal(bundle, &c); err != nil {
		return nil, loadError(m, "malformed container", err)
	}
	exposed, ok := c.Exposes[m.ExposedModule]
	if !ok {
		return nil, loadError(m, fmt.Sprintf("container does not expose %s", m.ExposedModule), nil)
	}
	if reason := checkShared(c.Shared, rt); reason != "" {
		return nil, loadError(m, reason, nil)
	}

	comp := &Component{
		ModuleId:        m.ModuleId,
		Version:         m.Version,
		Kind:            model.KindFederation,
		Scope:           m.Scope,
		Entry:           m.RemoteEntryURL,
		Exposed:         exposed,
		RuntimeIdentity: c.Runtime,
		Teardown:        c.Teardown,
		Subscribes:      c.Subscribes,
	}
	if c.RefreshInterval != "" {
		d, err := time.ParseDuration(c.RefreshInterval)
		if err != nil || d < time.Second {
			return nil, loadError(m, fmt.Sprintf("invalid refresh interval %q", c.RefreshInterval), err)
		}
		comp.RefreshInterval = d
	}
	comp.Widgets = widgetsOf(m, c.Widgets)
	return comp, nil
}

// checkShared returns why the bundle would carry its own copy of a host
// package, or "" when every host package is a singleton external.
func checkShared(shared map[string]SharedDep, rt Runtime) string {
	for _, name := range rt.Shared {
		dep, ok := shared[name]
		if !ok {
			return fmt.Sprintf("%s is not declared shared, the bundle would embed its own copy", name)
		}
		if !dep.Singleton || !dep.External {
			return fmt.Sprintf("%s must be shared as a singleton external", name)
		}
		if name == rt.Name && !satisfiesMajor(dep.RequiredVersion, rt.Version) {
			return fmt.Sprintf("%s %s is required, host runs %s", name, dep.RequiredVersion, rt.Version)
		}
	}
	return ""
}

// satisfiesMajor accepts caret, tilde and exact requirements on the same
// major version. Other range syntaxes are not checked.
func satisfiesMajor(required, have string) bool {
	req := strings.TrimLeft(strings.TrimSpace(required), "^~=")
	if req == "" || !semver.IsValid("v"+req) {
		return true
	}
	return semver.Major("v"+req) == semver.Major("v"+have)
}

// widgetsOf maps declared widgets to slot registrations. A container without
// widgets contributes its exposed module once to every slot it targets.
func widgetsOf(m *model.MarketplaceModule, specs []WidgetSpec) []slot.Widget {
	if len(specs) == 0 {
		id := strings.TrimPrefix(m.ExposedModule, "./")
		for _, s := range m.Slots {
			specs = append(specs, WidgetSpec{Id: id, Slot: s})
		}
	}
	out := make([]slot.Widget, 0, len(specs))
	for _, spec := range specs {
		if !m.TargetsSlot(spec.Slot) {
			log.Warnw("[Loader] widget targets an undeclared slot, skipped",
				"moduleId", m.ModuleId,
				"widgetId", spec.Id,
				"slot", spec.Slot,
			)
			continue
		}
		out = append(out, slot.Widget{
			ModuleId: m.ModuleId,
			WidgetId: spec.Id,
			Slot:     spec.Slot,
			Priority: spec.Priority,
			When:     spec.When,
			Props:    spec.Props,
		})
	}
	return out
}

func loadError(m *model.MarketplaceModule, reason string, cause error) *errs.RuntimeLoadError {
	return &errs.RuntimeLoadError{ModuleId: m.ModuleId, Version: m.Version, Reason: reason, Cause: cause}
}
