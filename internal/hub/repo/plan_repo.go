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

package repo

import (
	"context"

	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/pkg/database"
	"gorm.io/gorm/clause"
)

type IPlanRepository interface {
	Get(ctx context.Context, tenantId string) (*model.TenantPlan, error)
	Upsert(ctx context.Context, plan *model.TenantPlan) error
}

type PlanRepo struct {
	db        database.IDatabase
	planModel model.TenantPlan
}

func NewPlanRepo(db database.IDatabase) IPlanRepository {
	return &PlanRepo{db: db, planModel: model.TenantPlan{}}
}

func (r *PlanRepo) Get(ctx context.Context, tenantId string) (*model.TenantPlan, error) {
	var plan model.TenantPlan
	err := r.db.Database().WithContext(ctx).Table(r.planModel.TableName()).
		Where("tenant_id = ?", tenantId).
		First(&plan).Error
	if err != nil {
		return nil, wrap(err)
	}
	return &plan, nil
}

func (r *PlanRepo) Upsert(ctx context.Context, plan *model.TenantPlan) error {
	err := r.db.Database().WithContext(ctx).Table(r.planModel.TableName()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"plan_type", "module_cap", "updated_at"}),
		}).
		Create(plan).Error
	return wrap(err)
}
