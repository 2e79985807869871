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
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/internal/hub/slot"
	"github.com/go-arcade/modhub/pkg/event"
	"github.com/go-arcade/modhub/pkg/log"
	"github.com/go-arcade/modhub/pkg/metrics"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	inboxSize    = 64
	maxParallel  = 4
	refreshEvent = "module.refresh"
)

// Composition is the rendered content of one slot.
type Composition struct {
	Slot     string        `json:"slot"`
	Widgets  []slot.Widget `json:"widgets"`
	Failures []LoadFailure `json:"failures,omitempty"`
}

// LoadFailure is a module left out of a composition.
type LoadFailure struct {
	ModuleId string `json:"moduleId"`
	Version  string `json:"version"`
	Error    string `json:"error"`
}

type mount struct {
	key       string
	component *Component
	subs      []*event.Subscription
	stop      []func()

	// removed counts the widgets taken out of the registry on detach
	removed int

	mu    sync.Mutex
	inbox []HostEvent
}

func (mt *mount) deliver(e HostEvent) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if len(mt.inbox) == inboxSize {
		mt.inbox = mt.inbox[1:]
	}
	mt.inbox = append(mt.inbox, e)
}

// Session is the loader state of one user in one tenant. Nothing in it is
// shared with other sessions.
type Session struct {
	Id        string
	TenantId  string
	Principal model.Principal
	OpenedAt  time.Time

	runtime   Runtime
	source    BundleSource
	resolvers Resolvers
	hooks     HookInvoker
	metrics   *metrics.HubMetrics
	registry  *slot.Registry
	bus       *event.EventBus
	flight    singleflight.Group

	mu        sync.Mutex
	available map[string]*model.MarketplaceModule
	disabled  map[string]bool
	cache     map[string]*Component
	mounted   map[string]*mount
	closed    bool
}

func newSession(sessionId string, principal model.Principal, deps *Manager) *Session {
	return &Session{
		Id:        sessionId,
		TenantId:  principal.TenantId,
		Principal: principal,
		OpenedAt:  time.Now(),
		runtime:   deps.runtime,
		source:    deps.source,
		resolvers: deps.resolvers,
		hooks:     deps.hooks,
		metrics:   deps.metrics,
		registry:  slot.NewRegistry(),
		bus:       event.NewEventBus(),
		available: make(map[string]*model.MarketplaceModule),
		disabled:  make(map[string]bool),
		cache:     make(map[string]*Component),
		mounted:   make(map[string]*mount),
	}
}

func cacheKey(moduleId, version string) string {
	return moduleId + "@" + version
}

func (s *Session) Registry() *slot.Registry { return s.registry }

func (s *Session) Bus() *event.EventBus { return s.bus }

// SetModules replaces the modules the session may load. Modules that left
// the set or changed version are unmounted and their cached components dropped.
func (s *Session) SetModules(ctx context.Context, modules []model.MarketplaceModule) {
	next := make(map[string]*model.MarketplaceModule, len(modules))
	for i := range modules {
		m := &modules[i]
		if !s.permits(m) {
			continue
		}
		next[m.ModuleId] = m
	}

	s.mu.Lock()
	var stale []*mount
	for moduleId, mt := range s.mounted {
		m, ok := next[moduleId]
		if !ok || mt.key != cacheKey(m.ModuleId, m.Version) {
			stale = append(stale, s.detach(moduleId))
		}
	}
	for key, c := range s.cache {
		if m, ok := next[c.ModuleId]; !ok || key != cacheKey(m.ModuleId, m.Version) {
			delete(s.cache, key)
		}
	}
	s.available = next
	s.mu.Unlock()

	for _, mt := range stale {
		s.unmount(ctx, mt)
	}
}

// permits applies required_roles: the principal needs one of them.
func (s *Session) permits(m *model.MarketplaceModule) bool {
	if len(m.RequiredRoles) == 0 || s.Principal.IsPlatformAdmin() {
		return true
	}
	return s.Principal.HasAnyRole(m.RequiredRoles...)
}

// SlotVisible mounts the modules targeting slotName that are not mounted
// yet and composes the slot for view. Modules are fetched only here. A module that fails to
// load is reported in the composition and left out.
func (s *Session) SlotVisible(ctx context.Context, slotName string, view slot.ViewContext) *Composition {
	s.mu.Lock()
	var pending []*model.MarketplaceModule
	for moduleId, m := range s.available {
		if s.disabled[moduleId] || s.mounted[moduleId] != nil || !m.TargetsSlot(slotName) {
			continue
		}
		pending = append(pending, m)
	}
	s.mu.Unlock()

	comp := &Composition{Slot: slotName}
	var failMu sync.Mutex
	var g errgroup.Group
	g.SetLimit(maxParallel)
	for _, m := range pending {
		g.Go(func() error {
			if err := s.ensureMounted(ctx, m); err != nil {
				s.metrics.ObserveLoad("failed")
				log.Warnw("[Loader] module load failed",
					"sessionId", s.Id,
					"moduleId", m.ModuleId,
					"version", m.Version,
					"error", err,
				)
				failMu.Lock()
				comp.Failures = append(comp.Failures, LoadFailure{ModuleId: m.ModuleId, Version: m.Version, Error: err.Error()})
				failMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(comp.Failures, func(a, b LoadFailure) int {
		return cmp.Compare(a.ModuleId, b.ModuleId)
	})
	comp.Widgets = s.registry.Compose(slotName, view)
	return comp
}

func (s *Session) ensureMounted(ctx context.Context, m *model.MarketplaceModule) error {
	c, err := s.load(ctx, m)
	if err != nil {
		return err
	}
	return s.mount(m, c)
}

// load returns the component of m from the session cache, fetching it once
// for all concurrent callers.
func (s *Session) load(ctx context.Context, m *model.MarketplaceModule) (*Component, error) {
	key := cacheKey(m.ModuleId, m.Version)
	s.mu.Lock()
	c, ok := s.cache[key]
	s.mu.Unlock()
	if ok {
		s.metrics.ObserveLoad("cached")
		return c, nil
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		resolver, err := s.resolvers.For(m)
		if err != nil {
			return nil, err
		}
		bundle, err := s.source.Fetch(ctx, m)
		if err != nil {
			return nil, loadError(m, "fetch entry bundle", err)
		}
		c, err := resolver.Resolve(m, bundle, s.runtime)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		// 拉取期间版本被替换的组件不再入缓存
		if current, ok := s.available[m.ModuleId]; ok && current.Version == m.Version {
			s.cache[key] = c
		}
		s.mu.Unlock()
		s.metrics.ObserveLoad("fetched")
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Component), nil
}

// mount registers the widgets of c and acquires its host resources. A module
// disabled or replaced while its fetch was in flight is not mounted.
func (s *Session) mount(m *model.MarketplaceModule, c *Component) error {
	if c.RuntimeIdentity != "" && !s.runtime.Accepts(c.RuntimeIdentity) {
		return loadError(m, "component was built against "+c.RuntimeIdentity+", host runs "+s.runtime.Identity, nil)
	}
	key := cacheKey(m.ModuleId, m.Version)

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.available[m.ModuleId]
	if s.closed || s.disabled[m.ModuleId] || !ok || cacheKey(current.ModuleId, current.Version) != key {
		return nil
	}
	if existing := s.mounted[m.ModuleId]; existing != nil && existing.key == key {
		return nil
	}

	for _, w := range c.Widgets {
		if err := s.registry.Register(w); err != nil {
			s.registry.UnregisterModule(m.ModuleId)
			return loadError(m, "register widget "+w.WidgetId, err)
		}
	}
	mt := &mount{key: key, component: c}
	for _, name := range c.Subscribes {
		mt.subs = append(mt.subs, s.bus.Subscribe(name, event.HandlerFunc(func(e event.Event) {
			if he, ok := e.(HostEvent); ok {
				mt.deliver(he)
			}
		})))
	}
	if c.RefreshInterval > 0 {
		mt.stop = append(mt.stop, s.startRefresh(m.ModuleId, c.RefreshInterval))
	}
	s.mounted[m.ModuleId] = mt
	s.metrics.ObserveLoad("mounted")
	log.Infow("[Loader] module mounted",
		"sessionId", s.Id,
		"moduleId", m.ModuleId,
		"version", m.Version,
		"widgets", len(c.Widgets),
	)
	return nil
}

func (s *Session) startRefresh(moduleId string, every time.Duration) func() {
	ticker := time.NewTicker(every)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.bus.Publish(HostEvent{Name: refreshEvent, Payload: map[string]any{"moduleId": moduleId}})
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

// Disable unmounts moduleId for the rest of the session. A fetch in flight
// still completes and fills the cache.
func (s *Session) Disable(ctx context.Context, moduleId string) bool {
	s.mu.Lock()
	s.disabled[moduleId] = true
	mt := s.detach(moduleId)
	s.mu.Unlock()
	if mt == nil {
		return false
	}
	s.unmount(ctx, mt)
	return true
}

// Remove forgets moduleId after it was uninstalled or disabled for the tenant.
func (s *Session) Remove(ctx context.Context, moduleId string) {
	s.mu.Lock()
	delete(s.available, moduleId)
	mt := s.detach(moduleId)
	s.mu.Unlock()
	if mt != nil {
		s.unmount(ctx, mt)
	}
}

// detach takes moduleId out of the mounted set and the slot registry in one
// step, so a newer mount registered afterwards keeps its widgets. Callers hold s.mu.
func (s *Session) detach(moduleId string) *mount {
	mt := s.mounted[moduleId]
	if mt == nil {
		return nil
	}
	delete(s.mounted, moduleId)
	mt.removed = s.registry.UnregisterModule(moduleId)
	return mt
}

// unmount runs the teardown of a detached mount and releases its host resources.
func (s *Session) unmount(ctx context.Context, mt *mount) {
	c := mt.component
	if c.Teardown == "" {
		log.Warnw("[Loader] unmount without teardown", "sessionId", s.Id, "warning", (&errs.TeardownWarning{ModuleId: c.ModuleId}).Error())
	} else if err := s.hooks.Teardown(ctx, s, c); err != nil {
		log.Warnw("[Loader] teardown hook failed", "sessionId", s.Id, "warning", (&errs.TeardownWarning{ModuleId: c.ModuleId, Cause: err}).Error())
	}
	for _, sub := range mt.subs {
		sub.Unsubscribe()
	}
	for _, stop := range mt.stop {
		stop()
	}
	log.Infow("[Loader] module unmounted",
		"sessionId", s.Id,
		"moduleId", c.ModuleId,
		"version", c.Version,
		"widgets", mt.removed,
	)
}

// Emit publishes a host event to the modules subscribed to it.
func (s *Session) Emit(name string, payload map[string]any) {
	s.bus.Publish(HostEvent{Name: name, Payload: payload})
}

// Inbox returns the host events delivered to a mounted module.
func (s *Session) Inbox(moduleId string) []HostEvent {
	s.mu.Lock()
	mt := s.mounted[moduleId]
	s.mu.Unlock()
	if mt == nil {
		return nil
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return slices.Clone(mt.inbox)
}

// Mounted lists the mounted module ids in order.
func (s *Session) Mounted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.mounted))
	for moduleId := range s.mounted {
		out = append(out, moduleId)
	}
	slices.Sort(out)
	return out
}

// Cached reports whether the component of moduleId@version is in the session cache.
func (s *Session) Cached(moduleId, version string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cache[cacheKey(moduleId, version)]
	return ok
}

// Close unmounts every module. Later loads are not mounted.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	mounts := make([]*mount, 0, len(s.mounted))
	for moduleId := range s.mounted {
		mounts = append(mounts, s.detach(moduleId))
	}
	s.mu.Unlock()

	for _, mt := range mounts {
		s.unmount(ctx, mt)
	}
	log.Infow("[Loader] session closed", "sessionId", s.Id, "tenantId", s.TenantId)
}
