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
	"time"

	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/pkg/database"
	"gorm.io/gorm/clause"
)

type IInstallationRepository interface {
	// Upsert inserts the installation or re-enables the existing row.
	Upsert(ctx context.Context, row *model.TenantInstalledModule) error
	Delete(ctx context.Context, tenantId, moduleId string) error
	Get(ctx context.Context, tenantId, moduleId string) (*model.TenantInstalledModule, error)
	ListByTenant(ctx context.Context, tenantId string) ([]model.TenantInstalledModule, error)
	SetEnabled(ctx context.Context, tenantId, moduleId string, enabled bool) error
	Count(ctx context.Context, tenantId string) (int64, error)
}

type InstallationRepo struct {
	db                database.IDatabase
	installationModel model.TenantInstalledModule
}

func NewInstallationRepo(db database.IDatabase) IInstallationRepository {
	return &InstallationRepo{db: db, installationModel: model.TenantInstalledModule{}}
}

func (r *InstallationRepo) Upsert(ctx context.Context, row *model.TenantInstalledModule) error {
	if row.InstalledAt.IsZero() {
		row.InstalledAt = time.Now()
	}
	err := r.db.Database().WithContext(ctx).Table(r.installationModel.TableName()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "module_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
		}).
		Create(row).Error
	return wrap(err)
}

// Delete 物理删除，不存在时同样返回成功
func (r *InstallationRepo) Delete(ctx context.Context, tenantId, moduleId string) error {
	err := r.db.Database().WithContext(ctx).Table(r.installationModel.TableName()).
		Where("tenant_id = ? AND module_id = ?", tenantId, moduleId).
		Delete(&model.TenantInstalledModule{}).Error
	return wrap(err)
}

func (r *InstallationRepo) Get(ctx context.Context, tenantId, moduleId string) (*model.TenantInstalledModule, error) {
	var row model.TenantInstalledModule
	err := r.db.Database().WithContext(ctx).Table(r.installationModel.TableName()).
		Where("tenant_id = ? AND module_id = ?", tenantId, moduleId).
		First(&row).Error
	if err != nil {
		return nil, wrap(err)
	}
	return &row, nil
}

func (r *InstallationRepo) ListByTenant(ctx context.Context, tenantId string) ([]model.TenantInstalledModule, error) {
	var rows []model.TenantInstalledModule
	err := r.db.Database().WithContext(ctx).Table(r.installationModel.TableName()).
		Where("tenant_id = ?", tenantId).
		Order("module_id ASC").
		Find(&rows).Error
	return rows, wrap(err)
}

func (r *InstallationRepo) SetEnabled(ctx context.Context, tenantId, moduleId string, enabled bool) error {
	if _, err := r.Get(ctx, tenantId, moduleId); err != nil {
		return err
	}
	err := r.db.Database().WithContext(ctx).Table(r.installationModel.TableName()).
		Where("tenant_id = ? AND module_id = ?", tenantId, moduleId).
		Update("enabled", enabled).Error
	return wrap(err)
}

func (r *InstallationRepo) Count(ctx context.Context, tenantId string) (int64, error) {
	var count int64
	err := r.db.Database().WithContext(ctx).Table(r.installationModel.TableName()).
		Where("tenant_id = ?", tenantId).
		Count(&count).Error
	return count, wrap(err)
}
