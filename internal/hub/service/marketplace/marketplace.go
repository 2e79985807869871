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

// Package marketplace serves the published module catalog and install eligibility.
package marketplace

import (
	"context"
	"fmt"
	"time"

	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/internal/hub/manifest"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/internal/hub/repo"
	"github.com/go-arcade/modhub/pkg/cache"
	"github.com/go-arcade/modhub/pkg/log"
	"github.com/google/wire"
	"github.com/pkg/errors"
)

var ProviderSet = wire.NewSet(
	NewCachedPlans,
	wire.Bind(new(PlanProvider), new(*CachedPlans)),
	NewService,
)

type Config struct {
	// MaxModulesPerTenant caps installations for tenants without their own cap, 0 disables it.
	MaxModulesPerTenant int           `mapstructure:"maxModulesPerTenant"`
	CacheTTL            time.Duration `mapstructure:"cacheTTL" default:"5m"`
}

// Eligibility rules, evaluated in this order.
const (
	RuleActive = "module_active"
	RulePlan   = "plan_tier"
	RuleCap    = "module_cap"
)

// Decision is the answer of CanInstall.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Rule    string `json:"rule,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func refuse(rule, format string, args ...any) Decision {
	return Decision{Rule: rule, Reason: fmt.Sprintf(format, args...)}
}

// Err returns the decision as an *errs.IneligibleError, nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &errs.IneligibleError{Rule: d.Rule, Reason: d.Reason}
}

type Service struct {
	modules  repo.IMarketplaceRepository
	installs repo.IInstallationRepository
	plans    PlanProvider
	conf     Config
	byId     *cache.CachedQuery[model.MarketplaceModule]
}

func NewService(modules repo.IMarketplaceRepository, installs repo.IInstallationRepository, plans PlanProvider, c cache.ICache, conf Config) *Service {
	return &Service{
		modules:  modules,
		installs: installs,
		plans:    plans,
		conf:     conf,
		byId: cache.NewCachedQuery[model.MarketplaceModule](c,
			func(params ...any) string { return fmt.Sprintf("modhub:module:%v", params[0]) },
			cache.WithTTL[model.MarketplaceModule](conf.CacheTTL),
			cache.WithLogPrefix[model.MarketplaceModule]("[Marketplace]"),
		),
	}
}

// List orders modules by display name, then module id.
func (s *Service) List(ctx context.Context, filter repo.ModuleFilter) ([]model.MarketplaceModule, error) {
	return s.modules.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, moduleId string) (*model.MarketplaceModule, error) {
	m, err := s.byId.Get(ctx, func(ctx context.Context) (model.MarketplaceModule, error) {
		m, err := s.modules.Get(ctx, moduleId)
		if err != nil {
			return model.MarketplaceModule{}, err
		}
		return *m, nil
	}, moduleId)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByIds returns the modules among moduleIds, optionally active only.
func (s *Service) ListByIds(ctx context.Context, moduleIds []string, activeOnly bool) ([]model.MarketplaceModule, error) {
	return s.modules.ListByIds(ctx, moduleIds, activeOnly)
}

// SetActive toggles catalog visibility. Installations are left untouched.
func (s *Service) SetActive(ctx context.Context, principal model.Principal, moduleId string, active bool) error {
	if !principal.IsPlatformAdmin() {
		return errors.Wrap(errs.ErrForbidden, "activation requires a platform administrator")
	}
	if err := s.modules.SetActive(ctx, moduleId, active); err != nil {
		return err
	}
	_ = s.byId.Invalidate(ctx, moduleId)
	log.Infow("[Marketplace] module activation changed",
		"moduleId", moduleId,
		"active", active,
		"by", principal.UserId,
	)
	return nil
}

// Publish records a published version. Versions not newer than the current
// row leave it unchanged and report false.
func (s *Service) Publish(ctx context.Context, m *model.MarketplaceModule) (bool, error) {
	current, err := s.modules.Get(ctx, m.ModuleId)
	switch {
	case err == nil:
		if manifest.CompareVersions(m.Version, current.Version) <= 0 {
			log.Warnw("[Marketplace] published version is not newer, catalog unchanged",
				"moduleId", m.ModuleId,
				"version", m.Version,
				"current", current.Version,
			)
			return false, nil
		}
	case !errors.Is(err, errs.ErrNotFound):
		return false, err
	}
	if err := s.modules.Upsert(ctx, m); err != nil {
		return false, err
	}
	_ = s.byId.Invalidate(ctx, m.ModuleId)
	return true, nil
}

// CanInstall evaluates the eligibility rules in order and returns the first
// refusal. Platform admins skip the plan tier rule only.
func (s *Service) CanInstall(ctx context.Context, principal model.Principal, tenantId, moduleId string) (Decision, error) {
	if !principal.CanSee(tenantId) {
		return Decision{}, errors.Wrapf(errs.ErrForbidden, "tenant %s", tenantId)
	}
	m, err := s.Get(ctx, moduleId)
	if err != nil {
		return Decision{}, err
	}

	if !m.IsActive {
		return refuse(RuleActive, "module %s is not active", moduleId), nil
	}

	if m.RequiredPlanType != model.PlanBasic && !principal.IsPlatformAdmin() {
		plan, err := s.plans.PlanType(ctx, tenantId)
		if err != nil {
			return Decision{}, fmt.Errorf("lookup plan of tenant %s: %w", tenantId, err)
		}
		if !plan.Covers(m.RequiredPlanType) {
			return refuse(RulePlan, "module %s requires the %s plan, tenant is on %s", moduleId, m.RequiredPlanType, plan), nil
		}
	}

	limit, err := s.plans.ModuleCap(ctx, tenantId)
	if err != nil {
		return Decision{}, fmt.Errorf("lookup module cap of tenant %s: %w", tenantId, err)
	}
	if limit == 0 {
		limit = s.conf.MaxModulesPerTenant
	}
	if limit > 0 {
		if _, err := s.installs.Get(ctx, tenantId, moduleId); err == nil {
			return allow(), nil
		} else if !errors.Is(err, errs.ErrNotFound) {
			return Decision{}, err
		}
		count, err := s.installs.Count(ctx, tenantId)
		if err != nil {
			return Decision{}, err
		}
		if count >= int64(limit) {
			return refuse(RuleCap, "tenant %s reached its limit of %d modules", tenantId, limit), nil
		}
	}
	return allow(), nil
}
