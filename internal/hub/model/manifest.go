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
	"net/url"
	"path"
	"strings"
)

// KindFederation is the default bundle kind.
const KindFederation = "federation"

// Manifest is the module descriptor shipped inside every package.
type Manifest struct {
	Id               string      `json:"id"`
	Name             string      `json:"name"`
	DisplayName      string      `json:"display_name"`
	Version          string      `json:"version"`
	ModuleType       ModuleType  `json:"module_type"`
	RequiredPlanType PlanType    `json:"required_plan_type"`
	RoutePath        string      `json:"route_path"`
	RequiredRoles    []string    `json:"required_roles,omitempty"`
	BuildConfig      BuildConfig `json:"build_config"`
	Permissions      Permissions `json:"permissions,omitempty"`
	Metadata         Metadata    `json:"metadata,omitempty"`
}

type BuildConfig struct {
	// Kind selects the loader resolver, empty means federation
	Kind           string   `json:"kind,omitempty"`
	RemoteEntryURL string   `json:"remote_entry_url"`
	Scope          string   `json:"scope"`
	ExposedModule  string   `json:"exposed_module"`
	BuildCommand   string   `json:"build_command,omitempty"`
	InstallCommand string   `json:"install_command,omitempty"`
	OutputDir      string   `json:"output_dir,omitempty"`
	Slots          []string `json:"slots,omitempty"`
}

type Permissions struct {
	ApiAccess []string `json:"api_access,omitempty"`
}

type Metadata struct {
	Icon         string   `json:"icon,omitempty"`
	Screenshots  []string `json:"screenshots,omitempty"`
	Category     string   `json:"category,omitempty"`
	Description  string   `json:"description,omitempty"`
	Author       string   `json:"author,omitempty"`
	Organization string   `json:"organization,omitempty"`
}

func (b BuildConfig) ResolvedKind() string {
	if b.Kind == "" {
		return KindFederation
	}
	return b.Kind
}

// EntryFile is the basename of the remote entry URL path.
func (b BuildConfig) EntryFile() string {
	p := b.RemoteEntryURL
	if u, err := url.Parse(p); err == nil && u.Path != "" {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}
