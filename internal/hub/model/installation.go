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

package model

import "time"

// TenantInstalledModule 租户安装记录，(tenant_id, module_id) 唯一
type TenantInstalledModule struct {
	BaseModel
	TenantId    string    `gorm:"column:tenant_id;size:64;uniqueIndex:uk_tenant_module,priority:1" json:"tenantId"`
	ModuleId    string    `gorm:"column:module_id;size:128;uniqueIndex:uk_tenant_module,priority:2" json:"moduleId"`
	Enabled     bool      `gorm:"column:enabled" json:"enabled"`
	InstalledAt time.Time `gorm:"column:installed_at" json:"installedAt"`
	InstalledBy string    `gorm:"column:installed_by;size:64" json:"installedBy"`
}

func (TenantInstalledModule) TableName() string {
	return "t_tenant_installed_module"
}

// InstalledModule joins an installation with its marketplace entry.
type InstalledModule struct {
	Installation TenantInstalledModule `json:"installation"`
	Module       MarketplaceModule     `json:"module"`
}

// TenantPlan 租户套餐，远程套餐服务的本地替身
type TenantPlan struct {
	BaseModel
	TenantId  string   `gorm:"column:tenant_id;size:64;uniqueIndex" json:"tenantId"`
	PlanType  PlanType `gorm:"column:plan_type;size:32" json:"planType"`
	ModuleCap int      `gorm:"column:module_cap" json:"moduleCap"` // 0 表示使用全局默认
}

func (TenantPlan) TableName() string {
	return "t_tenant_plan"
}
