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
	"time"

	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/internal/hub/slot"
	"github.com/go-arcade/modhub/pkg/id"
	"github.com/go-arcade/modhub/pkg/log"
	"github.com/go-arcade/modhub/pkg/metrics"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
)

// ModuleSource lists the installed, enabled and active modules of a tenant.
type ModuleSource interface {
	ActiveModules(ctx context.Context, tenantId string) ([]model.MarketplaceModule, error)
}

// Manager keeps the open sessions. Idle sessions expire after the
// configured TTL and are closed on eviction.
type Manager struct {
	runtime   Runtime
	source    BundleSource
	resolvers Resolvers
	hooks     HookInvoker
	modules   ModuleSource
	metrics   *metrics.HubMetrics
	sessions  *cache.Cache
}

func NewManager(conf Config, source BundleSource, modules ModuleSource, m *metrics.HubMetrics) *Manager {
	ttl := conf.SessionTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	mgr := &Manager{
		runtime:   NewRuntime(conf),
		source:    source,
		resolvers: DefaultResolvers(),
		hooks:     BusHooks{},
		modules:   modules,
		metrics:   m,
		sessions:  cache.New(ttl, cleanupInterval(ttl)),
	}
	mgr.sessions.OnEvicted(func(sessionId string, v any) {
		if s, ok := v.(*Session); ok {
			s.Close(context.Background())
			mgr.metrics.SessionClosed()
		}
	})
	return mgr
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl < 2*time.Minute {
		return ttl / 2
	}
	return time.Minute
}

// SetHooks replaces the teardown hook invoker.
func (mgr *Manager) SetHooks(h HookInvoker) {
	mgr.hooks = h
}

// Runtime returns the host runtime sessions mount into.
func (mgr *Manager) Runtime() Runtime {
	return mgr.runtime
}

// Open starts a session for the principal's tenant.
func (mgr *Manager) Open(ctx context.Context, principal model.Principal) (*Session, error) {
	if principal.TenantId == "" {
		return nil, errors.Wrap(errs.ErrInvalidArgument, "a session needs a tenant")
	}
	modules, err := mgr.modules.ActiveModules(ctx, principal.TenantId)
	if err != nil {
		return nil, err
	}
	s := newSession(id.GetUUID(), principal, mgr)
	s.SetModules(ctx, modules)
	mgr.sessions.Set(s.Id, s, cache.DefaultExpiration)
	mgr.metrics.SessionOpened()
	log.Infow("[Loader] session opened",
		"sessionId", s.Id,
		"tenantId", s.TenantId,
		"userId", principal.UserId,
		"modules", len(modules),
	)
	return s, nil
}

// Get returns a session owned by principal and renews its idle timer.
func (mgr *Manager) Get(principal model.Principal, sessionId string) (*Session, error) {
	v, ok := mgr.sessions.Get(sessionId)
	if !ok {
		return nil, errors.Wrapf(errs.ErrNotFound, "session %s", sessionId)
	}
	s := v.(*Session)
	if s.Principal.UserId != principal.UserId && !principal.IsPlatformAdmin() {
		return nil, errors.Wrapf(errs.ErrForbidden, "session %s", sessionId)
	}
	mgr.sessions.Set(sessionId, s, cache.DefaultExpiration)
	return s, nil
}

// ShowSlot refreshes the session's module list and composes slotName.
func (mgr *Manager) ShowSlot(ctx context.Context, principal model.Principal, sessionId, slotName string, view slot.ViewContext) (*Composition, error) {
	s, err := mgr.Get(principal, sessionId)
	if err != nil {
		return nil, err
	}
	modules, err := mgr.modules.ActiveModules(ctx, s.TenantId)
	if err != nil {
		return nil, err
	}
	s.SetModules(ctx, modules)
	return s.SlotVisible(ctx, slotName, view), nil
}

// DisableModule unmounts moduleId in one session.
func (mgr *Manager) DisableModule(ctx context.Context, principal model.Principal, sessionId, moduleId string) (bool, error) {
	s, err := mgr.Get(principal, sessionId)
	if err != nil {
		return false, err
	}
	return s.Disable(ctx, moduleId), nil
}

// Close ends a session. Its modules are unmounted by the eviction callback.
func (mgr *Manager) Close(principal model.Principal, sessionId string) error {
	if _, err := mgr.Get(principal, sessionId); err != nil {
		return err
	}
	mgr.sessions.Delete(sessionId)
	return nil
}

// ModuleRemoved unmounts moduleId in every session of tenantId.
func (mgr *Manager) ModuleRemoved(tenantId, moduleId string) {
	ctx := context.Background()
	for _, item := range mgr.sessions.Items() {
		if s, ok := item.Object.(*Session); ok && s.TenantId == tenantId {
			s.Remove(ctx, moduleId)
		}
	}
}

// Len returns the number of open sessions.
func (mgr *Manager) Len() int {
	return mgr.sessions.ItemCount()
}

// Shutdown closes every session.
func (mgr *Manager) Shutdown() {
	for sessionId := range mgr.sessions.Items() {
		mgr.sessions.Delete(sessionId)
	}
}
