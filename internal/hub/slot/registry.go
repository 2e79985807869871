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

// Package slot composes module widgets into the named regions of the host UI.
package slot

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/pkg/log"
	"github.com/pkg/errors"
)

// Well known slots of the host shell.
const (
	EntityTree   = "entity-tree"
	MapLayer     = "map-layer"
	ContextPanel = "context-panel"
	Toolbar      = "toolbar"
)

// ViewContext is what predicates see, e.g. {"entity": {"type": "AgriParcel"}}.
type ViewContext map[string]any

// Widget is one contribution of a module to a slot.
type Widget struct {
	ModuleId string         `json:"moduleId"`
	WidgetId string         `json:"widgetId"`
	Slot     string         `json:"slot"`
	Priority int            `json:"priority"`
	When     string         `json:"when,omitempty"`
	Props    map[string]any `json:"props,omitempty"`
}

type key struct {
	moduleId string
	widgetId string
}

type entry struct {
	widget  Widget
	program *vm.Program
}

// Registry holds the widgets of one session.
type Registry struct {
	mu      sync.RWMutex
	entries map[key]*entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[key]*entry)}
}

// Register adds w, replacing an earlier registration with the same module
// and widget id. The predicate is compiled here so a broken one is refused
// up front.
func (r *Registry) Register(w Widget) error {
	if w.ModuleId == "" || w.WidgetId == "" || w.Slot == "" {
		return errors.Wrap(errs.ErrInvalidArgument, "widget needs a module id, widget id and slot")
	}
	e := &entry{widget: w}
	if when := strings.TrimSpace(w.When); when != "" {
		program, err := expr.Compile(when, expr.AsBool(), expr.AllowUndefinedVariables())
		if err != nil {
			return errors.Wrapf(errs.ErrInvalidArgument, "compile predicate of %s/%s: %v", w.ModuleId, w.WidgetId, err)
		}
		e.program = program
	}

	r.mu.Lock()
	r.entries[key{w.ModuleId, w.WidgetId}] = e
	r.mu.Unlock()
	return nil
}

// Unregister removes one widget. Unknown widgets are ignored.
func (r *Registry) Unregister(moduleId, widgetId string) {
	r.mu.Lock()
	delete(r.entries, key{moduleId, widgetId})
	r.mu.Unlock()
}

// UnregisterModule removes every widget of moduleId and returns how many there were.
func (r *Registry) UnregisterModule(moduleId string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k := range r.entries {
		if k.moduleId == moduleId {
			delete(r.entries, k)
			n++
		}
	}
	return n
}

// Compose returns the widgets of slot whose predicate holds for view,
// ordered by priority, then module id, then widget id.
func (r *Registry) Compose(slot string, view ViewContext) []Widget {
	r.mu.RLock()
	candidates := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.widget.Slot == slot {
			candidates = append(candidates, e)
		}
	}
	r.mu.RUnlock()

	env := map[string]any(view)
	if env == nil {
		env = map[string]any{}
	}
	out := make([]Widget, 0, len(candidates))
	for _, e := range candidates {
		if e.program != nil && !holds(e, env) {
			continue
		}
		out = append(out, e.widget)
	}
	slices.SortFunc(out, func(a, b Widget) int {
		return cmp.Or(
			cmp.Compare(a.Priority, b.Priority),
			strings.Compare(a.ModuleId, b.ModuleId),
			strings.Compare(a.WidgetId, b.WidgetId),
		)
	})
	return out
}

// Len returns the number of registered widgets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func holds(e *entry, env map[string]any) bool {
	out, err := expr.Run(e.program, env)
	if err != nil {
		log.Debugw("[SlotRegistry] predicate failed, widget hidden",
			"moduleId", e.widget.ModuleId,
			"widgetId", e.widget.WidgetId,
			"error", err,
		)
		return false
	}
	ok, isBool := out.(bool)
	if !isBool {
		log.Debugw("[SlotRegistry] predicate is not boolean", "widget", fmt.Sprintf("%s/%s", e.widget.ModuleId, e.widget.WidgetId))
	}
	return ok
}
