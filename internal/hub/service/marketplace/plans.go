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

package marketplace

import (
	"context"
	"fmt"

	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/internal/hub/repo"
	"github.com/go-arcade/modhub/pkg/cache"
	"github.com/pkg/errors"
)

// PlanProvider answers the plan questions asked by the eligibility rules.
type PlanProvider interface {
	PlanType(ctx context.Context, tenantId string) (model.PlanType, error)
	// ModuleCap returns the tenant's installation cap, 0 when unset.
	ModuleCap(ctx context.Context, tenantId string) (int, error)
}

// CachedPlans reads tenant plans cache-aside. Tenants without a plan row are basic.
type CachedPlans struct {
	repo  repo.IPlanRepository
	query *cache.CachedQuery[model.TenantPlan]
}

func NewCachedPlans(r repo.IPlanRepository, c cache.ICache, conf Config) *CachedPlans {
	return &CachedPlans{
		repo: r,
		query: cache.NewCachedQuery[model.TenantPlan](c,
			func(params ...any) string { return fmt.Sprintf("modhub:plan:%v", params[0]) },
			cache.WithTTL[model.TenantPlan](conf.CacheTTL),
			cache.WithLogPrefix[model.TenantPlan]("[TenantPlan]"),
		),
	}
}

func (p *CachedPlans) get(ctx context.Context, tenantId string) (model.TenantPlan, error) {
	return p.query.Get(ctx, func(ctx context.Context) (model.TenantPlan, error) {
		plan, err := p.repo.Get(ctx, tenantId)
		if errors.Is(err, errs.ErrNotFound) {
			return model.TenantPlan{TenantId: tenantId, PlanType: model.PlanBasic}, nil
		}
		if err != nil {
			return model.TenantPlan{}, err
		}
		return *plan, nil
	}, tenantId)
}

func (p *CachedPlans) PlanType(ctx context.Context, tenantId string) (model.PlanType, error) {
	plan, err := p.get(ctx, tenantId)
	if err != nil {
		return "", err
	}
	return plan.PlanType, nil
}

func (p *CachedPlans) ModuleCap(ctx context.Context, tenantId string) (int, error) {
	plan, err := p.get(ctx, tenantId)
	if err != nil {
		return 0, err
	}
	return plan.ModuleCap, nil
}

// SetPlan stores a tenant plan and drops the cached copy.
func (p *CachedPlans) SetPlan(ctx context.Context, plan *model.TenantPlan) error {
	if !plan.PlanType.Valid() {
		return errors.Wrapf(errs.ErrInvalidArgument, "unknown plan type %q", plan.PlanType)
	}
	if err := p.repo.Upsert(ctx, plan); err != nil {
		return err
	}
	_ = p.query.Invalidate(ctx, plan.TenantId)
	return nil
}
