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
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ModuleFilter narrows marketplace listings.
type ModuleFilter struct {
	Category   string
	ActiveOnly bool
}

type IMarketplaceRepository interface {
	Get(ctx context.Context, moduleId string) (*model.MarketplaceModule, error)
	List(ctx context.Context, filter ModuleFilter) ([]model.MarketplaceModule, error)
	ListByIds(ctx context.Context, moduleIds []string, activeOnly bool) ([]model.MarketplaceModule, error)
	// Upsert creates the row or replaces the published version of an
	// existing one, keeping its activation flag.
	Upsert(ctx context.Context, m *model.MarketplaceModule) error
	SetActive(ctx context.Context, moduleId string, active bool) error
}

type MarketplaceRepo struct {
	db          database.IDatabase
	moduleModel model.MarketplaceModule
}

func NewMarketplaceRepo(db database.IDatabase) IMarketplaceRepository {
	return &MarketplaceRepo{db: db, moduleModel: model.MarketplaceModule{}}
}

func (r *MarketplaceRepo) Get(ctx context.Context, moduleId string) (*model.MarketplaceModule, error) {
	var m model.MarketplaceModule
	err := r.db.Database().WithContext(ctx).Table(r.moduleModel.TableName()).
		Where("module_id = ?", moduleId).
		First(&m).Error
	if err != nil {
		return nil, wrap(err)
	}
	return &m, nil
}

func (r *MarketplaceRepo) List(ctx context.Context, filter ModuleFilter) ([]model.MarketplaceModule, error) {
	var modules []model.MarketplaceModule
	query := database.ReadDB(r.db.Database().WithContext(ctx)).Table(r.moduleModel.TableName())
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("display_name ASC, module_id ASC").Find(&modules).Error
	return modules, wrap(err)
}

func (r *MarketplaceRepo) ListByIds(ctx context.Context, moduleIds []string, activeOnly bool) ([]model.MarketplaceModule, error) {
	if len(moduleIds) == 0 {
		return nil, nil
	}
	var modules []model.MarketplaceModule
	query := r.db.Database().WithContext(ctx).Table(r.moduleModel.TableName()).
		Where("module_id IN ?", moduleIds)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("display_name ASC, module_id ASC").Find(&modules).Error
	return modules, wrap(err)
}

func (r *MarketplaceRepo) Upsert(ctx context.Context, m *model.MarketplaceModule) error {
	err := r.db.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.MarketplaceModule
		err := tx.Table(r.moduleModel.TableName()).Where("module_id = ?", m.ModuleId).First(&existing).Error
		switch {
		case err == nil:
			m.ID = existing.ID
			m.CreatedAt = existing.CreatedAt
			m.IsActive = existing.IsActive
			return tx.Table(r.moduleModel.TableName()).Save(m).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Table(r.moduleModel.TableName()).Create(m).Error
		default:
			return err
		}
	})
	return wrap(err)
}

func (r *MarketplaceRepo) SetActive(ctx context.Context, moduleId string, active bool) error {
	if _, err := r.Get(ctx, moduleId); err != nil {
		return err
	}
	err := r.db.Database().WithContext(ctx).Table(r.moduleModel.TableName()).
		Where("module_id = ?", moduleId).
		Update("is_active", active).Error
	return wrap(err)
}
