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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weatherLiteJSON = `{
  "id": "weather-lite",
  "name": "weather-lite",
  "display_name": "Weather Lite",
  "version": "1.0.0",
  "module_type": "ADDON_FREE",
  "required_plan_type": "basic",
  "route_path": "/weather",
  "required_roles": ["farmer"],
  "build_config": {
    "remote_entry_url": "/modules/weather-lite/1.0.0/remoteEntry.json",
    "scope": "weatherLite",
    "exposed_module": "./WeatherPanel",
    "slots": ["context-panel"]
  },
  "metadata": {"category": "weather", "author": "Acme"}
}`

const weatherLiteYAML = `
id: weather-lite
name: weather-lite
display_name: Weather Lite
version: 1.0.0
module_type: ADDON_FREE
required_plan_type: basic
route_path: /weather
build_config:
  remote_entry_url: https://cdn.example.com/weather-lite/remoteEntry.json
  scope: weatherLite
  exposed_module: ./WeatherPanel
`

func validManifest() *model.Manifest {
	m, err := Parse([]byte(weatherLiteJSON))
	if err != nil {
		panic(err)
	}
	return m
}

func TestParse(t *testing.T) {
	m, err := Parse([]byte(weatherLiteJSON))
	require.NoError(t, err)
	assert.Equal(t, "weather-lite", m.Id)
	assert.Equal(t, model.ModuleTypeAddonFree, m.ModuleType)
	assert.Equal(t, []string{"context-panel"}, m.BuildConfig.Slots)
	assert.Equal(t, "remoteEntry.json", m.BuildConfig.EntryFile())

	y, err := Parse([]byte(weatherLiteYAML))
	require.NoError(t, err)
	assert.Equal(t, "Weather Lite", y.DisplayName)
	assert.Equal(t, "remoteEntry.json", y.BuildConfig.EntryFile())

	_, err = Parse([]byte("{not json"))
	var se *errs.SchemaError
	assert.ErrorAs(t, err, &se)
}

func TestFind(t *testing.T) {
	t.Run("root", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "manifest.json"), []byte(weatherLiteJSON), 0o644))
		p, dir, err := Find(root)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "manifest.json"), p)
		assert.Equal(t, root, dir)
	})

	t.Run("single top-level directory", func(t *testing.T) {
		root := t.TempDir()
		sub := filepath.Join(root, "weather-lite")
		require.NoError(t, os.MkdirAll(sub, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(sub, "manifest.yaml"), []byte(weatherLiteYAML), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(root, ".DS_Store"), nil, 0o644))

		assert.Equal(t, "weather-lite", TopLevelDir(root))
		m, dir, err := Load(root)
		require.NoError(t, err)
		assert.Equal(t, sub, dir)
		assert.Equal(t, "weather-lite", m.Id)
	})

	t.Run("missing", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "a"), 0o755))
		require.NoError(t, os.MkdirAll(filepath.Join(root, "b"), 0o755))
		assert.Empty(t, TopLevelDir(root))
		_, _, err := Find(root)
		var se *errs.SchemaError
		assert.ErrorAs(t, err, &se)
	})
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(m *model.Manifest)
		declared string
		field    string
	}{
		{name: "valid", mutate: func(*model.Manifest) {}, declared: "weather-lite"},
		{name: "valid without declared id", mutate: func(*model.Manifest) {}},
		{name: "missing id", mutate: func(m *model.Manifest) { m.Id = "" }, field: "id"},
		{name: "missing display name", mutate: func(m *model.Manifest) { m.DisplayName = "" }, field: "display_name"},
		{name: "missing scope", mutate: func(m *model.Manifest) { m.BuildConfig.Scope = " " }, field: "build_config.scope"},
		{name: "missing exposed module", mutate: func(m *model.Manifest) { m.BuildConfig.ExposedModule = "" }, field: "build_config.exposed_module"},
		{name: "bad slug", mutate: func(m *model.Manifest) { m.Id = "Weather_Lite" }, field: "id"},
		{name: "declared id mismatch", mutate: func(*model.Manifest) {}, declared: "weather-pro", field: "id"},
		{name: "not semver", mutate: func(m *model.Manifest) { m.Version = "1.0" }, field: "version"},
		{name: "v prefix", mutate: func(m *model.Manifest) { m.Version = "v1.0.0" }, field: "version"},
		{name: "route without slash", mutate: func(m *model.Manifest) { m.RoutePath = "weather" }, field: "route_path"},
		{name: "unknown module type", mutate: func(m *model.Manifest) { m.ModuleType = "PLUGIN" }, field: "module_type"},
		{name: "unknown plan", mutate: func(m *model.Manifest) { m.RequiredPlanType = "gold" }, field: "required_plan_type"},
		{name: "unknown kind", mutate: func(m *model.Manifest) { m.BuildConfig.Kind = "iframe" }, field: "build_config.kind"},
		{name: "output dir escapes", mutate: func(m *model.Manifest) { m.BuildConfig.OutputDir = "../dist" }, field: "build_config.output_dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validManifest()
			tt.mutate(m)
			err := Check(m, tt.declared)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var se *errs.SchemaError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.field, se.Field)
		})
	}
}

func TestCheck_FirstErrorWins(t *testing.T) {
	m := validManifest()
	m.Name = ""
	m.Version = "latest"
	var se *errs.SchemaError
	require.ErrorAs(t, Check(m, ""), &se)
	assert.Equal(t, "name", se.Field)
}

type versionsFunc func(ctx context.Context, moduleId, version, excludeUploadId string) (bool, error)

func (f versionsFunc) VersionTaken(ctx context.Context, moduleId, version, excludeUploadId string) (bool, error) {
	return f(ctx, moduleId, version, excludeUploadId)
}

func TestValidator_Uniqueness(t *testing.T) {
	taken := NewValidator(versionsFunc(func(_ context.Context, id, v, exclude string) (bool, error) {
		assert.Equal(t, "weather-lite", id)
		assert.Equal(t, "1.0.0", v)
		assert.Equal(t, "up-1", exclude)
		return true, nil
	}))
	var se *errs.SchemaError
	require.ErrorAs(t, taken.Validate(t.Context(), validManifest(), "", "up-1"), &se)
	assert.Equal(t, "version", se.Field)

	boom := errors.New("db down")
	failing := NewValidator(versionsFunc(func(context.Context, string, string, string) (bool, error) {
		return false, boom
	}))
	err := failing.Validate(t.Context(), validManifest(), "", "up-1")
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.As(err, &se))

	called := false
	skipped := NewValidator(versionsFunc(func(context.Context, string, string, string) (bool, error) {
		called = true
		return false, nil
	}))
	m := validManifest()
	m.Version = ""
	require.Error(t, skipped.Validate(t.Context(), m, "", "up-1"))
	assert.False(t, called)
}

func TestVersions(t *testing.T) {
	assert.True(t, ValidVersion("1.0.0"))
	assert.True(t, ValidVersion("2.1.0-beta.1"))
	assert.True(t, ValidVersion("1.0.0+build.7"))
	assert.False(t, ValidVersion("1"))
	assert.False(t, ValidVersion(""))

	assert.Equal(t, 1, CompareVersions("1.10.0", "1.9.0"))
	assert.Equal(t, -1, CompareVersions("1.0.0-rc.1", "1.0.0"))
	assert.Equal(t, 0, CompareVersions("1.0.0", "1.0.0"))
}
