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

import "slices"

// ModuleType classifies a marketplace module commercially.
type ModuleType string

const (
	ModuleTypeCore       ModuleType = "CORE"
	ModuleTypeAddonFree  ModuleType = "ADDON_FREE"
	ModuleTypeAddonPaid  ModuleType = "ADDON_PAID"
	ModuleTypeEnterprise ModuleType = "ENTERPRISE"
)

func (t ModuleType) Valid() bool {
	switch t {
	case ModuleTypeCore, ModuleTypeAddonFree, ModuleTypeAddonPaid, ModuleTypeEnterprise:
		return true
	}
	return false
}

// PlanType is a tenant subscription tier. Tiers are totally ordered.
type PlanType string

const (
	PlanBasic      PlanType = "basic"
	PlanPremium    PlanType = "premium"
	PlanEnterprise PlanType = "enterprise"
)

// Ordinal returns the tier rank, -1 for unknown tiers.
func (p PlanType) Ordinal() int {
	switch p {
	case PlanBasic:
		return 0
	case PlanPremium:
		return 1
	case PlanEnterprise:
		return 2
	}
	return -1
}

func (p PlanType) Valid() bool {
	return p.Ordinal() >= 0
}

// Covers reports whether a tenant on p may use a module requiring required.
func (p PlanType) Covers(required PlanType) bool {
	return p.Ordinal() >= required.Ordinal()
}

// UploadStatus is the publication state of one upload.
type UploadStatus string

const (
	StatusUploaded               UploadStatus = "uploaded"
	StatusValidating             UploadStatus = "validating"
	StatusValidatedWaitingReview UploadStatus = "validated_waiting_review"
	StatusRejected               UploadStatus = "rejected"
	StatusPublished              UploadStatus = "published"
)

func (s UploadStatus) Terminal() bool {
	return s == StatusRejected || s == StatusPublished
}

// Role names carried in the bearer token.
const (
	RolePlatformAdmin  = "platform_admin"
	RoleModuleReviewer = "module_reviewer"
	RoleTenantAdmin    = "tenant_admin"
	RoleDeveloper      = "developer"
)

// Principal is the authenticated caller.
type Principal struct {
	UserId   string   `json:"userId"`
	TenantId string   `json:"tenantId"`
	Roles    []string `json:"roles"`
}

// SystemPrincipal acts for automated review policies.
var SystemPrincipal = Principal{UserId: "system", Roles: []string{RolePlatformAdmin}}

func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

func (p Principal) HasAnyRole(roles ...string) bool {
	return slices.ContainsFunc(roles, p.HasRole)
}

func (p Principal) IsPlatformAdmin() bool {
	return p.HasRole(RolePlatformAdmin)
}

// CanReview reports the module-review privilege.
func (p Principal) CanReview() bool {
	return p.HasAnyRole(RoleModuleReviewer, RolePlatformAdmin)
}

// CanSee reports whether p may read data of tenantId.
func (p Principal) CanSee(tenantId string) bool {
	return p.IsPlatformAdmin() || (tenantId != "" && p.TenantId == tenantId)
}

// CanManage reports whether p may change installations of tenantId.
func (p Principal) CanManage(tenantId string) bool {
	if p.IsPlatformAdmin() {
		return true
	}
	return p.TenantId == tenantId && tenantId != "" && p.HasRole(RoleTenantAdmin)
}
