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

// Package install manages which marketplace modules each tenant has installed.
package install

import (
	"context"
	"time"

	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/internal/hub/repo"
	"github.com/go-arcade/modhub/internal/hub/service/marketplace"
	"github.com/go-arcade/modhub/pkg/log"
	"github.com/go-arcade/modhub/pkg/metrics"
	"github.com/google/wire"
	"github.com/pkg/errors"
)

var ProviderSet = wire.NewSet(NewService)

// Notifier is told when a tenant's module set changes so open sessions can follow.
type Notifier interface {
	ModuleRemoved(tenantId, moduleId string)
}

type Service struct {
	installs    repo.IInstallationRepository
	marketplace *marketplace.Service
	metrics     *metrics.HubMetrics
	notifier    Notifier
}

func NewService(installs repo.IInstallationRepository, mp *marketplace.Service, m *metrics.HubMetrics) *Service {
	return &Service{installs: installs, marketplace: mp, metrics: m}
}

// SetNotifier registers the session listener. It is set after construction
// because the loader depends on this service.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Install re-checks eligibility and upserts the installation. Installing an
// installed module succeeds and re-enables it.
func (s *Service) Install(ctx context.Context, principal model.Principal, tenantId, moduleId string) (*model.TenantInstalledModule, error) {
	if !principal.CanManage(tenantId) {
		return nil, errors.Wrapf(errs.ErrForbidden, "install into tenant %s", tenantId)
	}
	decision, err := s.marketplace.CanInstall(ctx, principal, tenantId, moduleId)
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		log.Infow("[InstallService] install refused",
			"tenantId", tenantId,
			"moduleId", moduleId,
			"rule", decision.Rule,
		)
		return nil, err
	}

	row := &model.TenantInstalledModule{
		TenantId:    tenantId,
		ModuleId:    moduleId,
		Enabled:     true,
		InstalledAt: time.Now(),
		InstalledBy: principal.UserId,
	}
	if err := s.installs.Upsert(ctx, row); err != nil {
		return nil, err
	}
	s.metrics.ObserveInstall("install")
	log.Infow("[InstallService] module installed",
		"tenantId", tenantId,
		"moduleId", moduleId,
		"by", principal.UserId,
	)
	return s.installs.Get(ctx, tenantId, moduleId)
}

// Uninstall deletes the installation; a missing row is not an error.
func (s *Service) Uninstall(ctx context.Context, principal model.Principal, tenantId, moduleId string) error {
	if !principal.CanManage(tenantId) {
		return errors.Wrapf(errs.ErrForbidden, "uninstall from tenant %s", tenantId)
	}
	if err := s.installs.Delete(ctx, tenantId, moduleId); err != nil {
		return err
	}
	s.metrics.ObserveInstall("uninstall")
	s.notifyRemoved(tenantId, moduleId)
	return nil
}

// SetEnabled toggles an installation without deleting it.
func (s *Service) SetEnabled(ctx context.Context, principal model.Principal, tenantId, moduleId string, enabled bool) error {
	if !principal.CanManage(tenantId) {
		return errors.Wrapf(errs.ErrForbidden, "change modules of tenant %s", tenantId)
	}
	if err := s.installs.SetEnabled(ctx, tenantId, moduleId, enabled); err != nil {
		return err
	}
	if !enabled {
		s.notifyRemoved(tenantId, moduleId)
	}
	return nil
}

// ListForTenant returns installations whose module is still active.
func (s *Service) ListForTenant(ctx context.Context, principal model.Principal, tenantId string) ([]model.InstalledModule, error) {
	if !principal.CanSee(tenantId) {
		return nil, errors.Wrapf(errs.ErrForbidden, "list modules of tenant %s", tenantId)
	}
	return s.installed(ctx, tenantId, false)
}

// ActiveModules returns the enabled, active modules of a tenant for the loader.
func (s *Service) ActiveModules(ctx context.Context, tenantId string) ([]model.MarketplaceModule, error) {
	rows, err := s.installed(ctx, tenantId, true)
	if err != nil {
		return nil, err
	}
	modules := make([]model.MarketplaceModule, 0, len(rows))
	for _, r := range rows {
		modules = append(modules, r.Module)
	}
	return modules, nil
}

func (s *Service) installed(ctx context.Context, tenantId string, enabledOnly bool) ([]model.InstalledModule, error) {
	rows, err := s.installs.ListByTenant(ctx, tenantId)
	if err != nil {
		return nil, err
	}
	byModule := make(map[string]model.TenantInstalledModule, len(rows))
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if enabledOnly && !r.Enabled {
			continue
		}
		byModule[r.ModuleId] = r
		ids = append(ids, r.ModuleId)
	}
	modules, err := s.marketplace.ListByIds(ctx, ids, true)
	if err != nil {
		return nil, err
	}
	result := make([]model.InstalledModule, 0, len(modules))
	for _, m := range modules {
		result = append(result, model.InstalledModule{Installation: byModule[m.ModuleId], Module: m})
	}
	return result, nil
}

func (s *Service) notifyRemoved(tenantId, moduleId string) {
	if s.notifier != nil {
		s.notifier.ModuleRemoved(tenantId, moduleId)
	}
}
