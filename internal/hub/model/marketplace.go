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

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

// MarketplaceModule 市场模块，每个模块只保留最新发布版本，永不物理删除
type MarketplaceModule struct {
	BaseModel
	ModuleId         string                      `gorm:"column:module_id;size:128;uniqueIndex" json:"moduleId"`
	Name             string                      `gorm:"column:name" json:"name"`
	DisplayName      string                      `gorm:"column:display_name;index" json:"displayName"`
	Version          string                      `gorm:"column:version;size:64" json:"version"`
	ModuleType       ModuleType                  `gorm:"column:module_type;size:32" json:"moduleType"`
	RequiredPlanType PlanType                    `gorm:"column:required_plan_type;size:32" json:"requiredPlanType"`
	RequiredRoles    datatypes.JSONSlice[string] `gorm:"column:required_roles" json:"requiredRoles"`
	RoutePath        string                      `gorm:"column:route_path" json:"routePath"`
	Kind             string                      `gorm:"column:kind;size:32" json:"kind"`
	RemoteEntryURL   string                      `gorm:"column:remote_entry_url" json:"remoteEntryUrl"`
	Scope            string                      `gorm:"column:scope" json:"scope"`
	ExposedModule    string                      `gorm:"column:exposed_module" json:"exposedModule"`
	Slots            datatypes.JSONSlice[string] `gorm:"column:slots" json:"slots"`
	ApiAccess        datatypes.JSONSlice[string] `gorm:"column:api_access" json:"apiAccess"`
	Category         string                      `gorm:"column:category;size:64;index" json:"category"`
	Icon             string                      `gorm:"column:icon" json:"icon"`
	Description      string                      `gorm:"column:description;type:text" json:"description"`
	Author           string                      `gorm:"column:author" json:"author"`
	Organization     string                      `gorm:"column:organization" json:"organization"`
	IsActive         bool                        `gorm:"column:is_active" json:"isActive"`
	Validated        bool                        `gorm:"column:validated" json:"validated"`
	UploadId         string                      `gorm:"column:upload_id;size:64" json:"uploadId"`
	AssetPath        string                      `gorm:"column:asset_path" json:"assetPath"` // modules/<id>/<version>/
	PublishedAt      time.Time                   `gorm:"column:published_at" json:"publishedAt"`
}

func (MarketplaceModule) TableName() string {
	return "t_marketplace_module"
}

// TargetsSlot reports whether the module contributes to slot. No declared
// slots means every slot.
func (m *MarketplaceModule) TargetsSlot(slot string) bool {
	if len(m.Slots) == 0 {
		return true
	}
	return slices.Contains(m.Slots, slot)
}

// NewMarketplaceModule mirrors a published manifest.
func NewMarketplaceModule(m Manifest, uploadId, entryURL, assetPath string) *MarketplaceModule {
	return &MarketplaceModule{
		ModuleId:         m.Id,
		Name:             m.Name,
		DisplayName:      m.DisplayName,
		Version:          m.Version,
		ModuleType:       m.ModuleType,
		RequiredPlanType: m.RequiredPlanType,
		RequiredRoles:    datatypes.NewJSONSlice(m.RequiredRoles),
		RoutePath:        m.RoutePath,
		Kind:             m.BuildConfig.ResolvedKind(),
		RemoteEntryURL:   entryURL,
		Scope:            m.BuildConfig.Scope,
		ExposedModule:    m.BuildConfig.ExposedModule,
		Slots:            datatypes.NewJSONSlice(m.BuildConfig.Slots),
		ApiAccess:        datatypes.NewJSONSlice(m.Permissions.ApiAccess),
		Category:         m.Metadata.Category,
		Icon:             m.Metadata.Icon,
		Description:      m.Metadata.Description,
		Author:           m.Metadata.Author,
		Organization:     m.Metadata.Organization,
		IsActive:         true,
		Validated:        true,
		UploadId:         uploadId,
		AssetPath:        assetPath,
		PublishedAt:      time.Now(),
	}
}
