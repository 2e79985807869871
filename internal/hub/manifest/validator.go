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

package manifest

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/internal/hub/model"
	"golang.org/x/mod/semver"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// KnownKinds are the bundle kinds the loader can resolve.
var KnownKinds = []string{model.KindFederation}

// VersionChecker reports whether another upload already uses id+version.
type VersionChecker interface {
	VersionTaken(ctx context.Context, moduleId, version, excludeUploadId string) (bool, error)
}

// Validator runs the field checks and the cross-upload uniqueness check.
type Validator struct {
	versions VersionChecker
}

func NewValidator(versions VersionChecker) *Validator {
	return &Validator{versions: versions}
}

// Validate returns the first *errs.SchemaError found, or a wrapped lookup
// error when uniqueness could not be checked.
func (v *Validator) Validate(ctx context.Context, m *model.Manifest, declaredId, uploadId string) error {
	if err := Check(m, declaredId); err != nil {
		return err
	}
	if v.versions == nil {
		return nil
	}
	taken, err := v.versions.VersionTaken(ctx, m.Id, m.Version, uploadId)
	if err != nil {
		return fmt.Errorf("check version uniqueness: %w", err)
	}
	if taken {
		return &errs.SchemaError{Field: "version", Message: fmt.Sprintf("%s@%s was already uploaded", m.Id, m.Version)}
	}
	return nil
}

// Check runs the offline field checks. An empty declaredId skips the id match.
func Check(m *model.Manifest, declaredId string) error {
	if m == nil {
		return &errs.SchemaError{Message: "empty manifest"}
	}
	required := []struct {
		field string
		value string
	}{
		{"id", m.Id},
		{"name", m.Name},
		{"display_name", m.DisplayName},
		{"version", m.Version},
		{"module_type", string(m.ModuleType)},
		{"required_plan_type", string(m.RequiredPlanType)},
		{"route_path", m.RoutePath},
		{"build_config.remote_entry_url", m.BuildConfig.RemoteEntryURL},
		{"build_config.scope", m.BuildConfig.Scope},
		{"build_config.exposed_module", m.BuildConfig.ExposedModule},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &errs.SchemaError{Field: r.field, Message: "is required"}
		}
	}

	if !slugPattern.MatchString(m.Id) {
		return &errs.SchemaError{Field: "id", Message: "must be a lowercase slug"}
	}
	if declaredId != "" && m.Id != declaredId {
		return &errs.SchemaError{Field: "id", Message: fmt.Sprintf("%q does not match the archive id %q", m.Id, declaredId)}
	}
	if !ValidVersion(m.Version) {
		return &errs.SchemaError{Field: "version", Message: fmt.Sprintf("%q is not a semantic version", m.Version)}
	}
	if !strings.HasPrefix(m.RoutePath, "/") {
		return &errs.SchemaError{Field: "route_path", Message: "must start with /"}
	}
	if !m.ModuleType.Valid() {
		return &errs.SchemaError{Field: "module_type", Message: fmt.Sprintf("unknown module type %q", m.ModuleType)}
	}
	if !m.RequiredPlanType.Valid() {
		return &errs.SchemaError{Field: "required_plan_type", Message: fmt.Sprintf("unknown plan type %q", m.RequiredPlanType)}
	}
	if !slices.Contains(KnownKinds, m.BuildConfig.ResolvedKind()) {
		return &errs.SchemaError{Field: "build_config.kind", Message: fmt.Sprintf("unknown bundle kind %q", m.BuildConfig.Kind)}
	}
	if m.BuildConfig.EntryFile() == "" {
		return &errs.SchemaError{Field: "build_config.remote_entry_url", Message: "does not name an entry file"}
	}
	if out := m.BuildConfig.OutputDir; out != "" {
		clean := path.Clean(out)
		if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
			return &errs.SchemaError{Field: "build_config.output_dir", Message: "must be a relative path inside the package"}
		}
	}
	return nil
}

// ValidVersion accepts full MAJOR.MINOR.PATCH versions without a "v" prefix.
func ValidVersion(v string) bool {
	if v == "" || v[0] == 'v' {
		return false
	}
	sv := "v" + v
	if !semver.IsValid(sv) {
		return false
	}
	return semver.Canonical(sv) == strings.SplitN(sv, "+", 2)[0]
}

// CompareVersions orders two manifest versions like semver.Compare.
func CompareVersions(a, b string) int {
	return semver.Compare("v"+a, "v"+b)
}
