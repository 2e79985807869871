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

package main

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validManifest = `id: weather-lite
name: weather-lite
display_name: Weather Lite
version: 1.0.0
module_type: ADDON_FREE
required_plan_type: basic
route_path: /weather
build_config:
  remote_entry_url: /modules/weather-lite/1.0.0/remoteEntry.json
  scope: weatherLite
  exposed_module: ./WeatherPanel
  slots: [context-panel]
`

func moduleDir(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(body), 0o644))
	return dir
}

func TestRunValidate_Directory(t *testing.T) {
	var out bytes.Buffer
	err := runValidate(t.Context(), &out, moduleDir(t, validManifest), &validateOptions{output: "yaml"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "weather-lite@1.0.0 is valid")
	assert.Contains(t, out.String(), "display_name: Weather Lite")
}

func TestRunValidate_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		moduleId string
		wantErr  string
	}{
		{name: "missing display name", body: strings.Replace(validManifest, "display_name: Weather Lite\n", "", 1), wantErr: "display_name"},
		{name: "id mismatch", body: validManifest, moduleId: "weather-pro", wantErr: "weather-pro"},
		{name: "bad version", body: strings.Replace(validManifest, "version: 1.0.0", "version: latest", 1), wantErr: "semantic version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runValidate(t.Context(), &out, moduleDir(t, tt.body), &validateOptions{moduleId: tt.moduleId})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, out.String())
		})
	}
}

func TestRunValidate_Archive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather-lite.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("weather-lite/manifest.yaml")
	require.NoError(t, err)
	_, err = w.Write([]byte(validManifest))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	var out bytes.Buffer
	require.NoError(t, runValidate(t.Context(), &out, path, &validateOptions{output: "json", maxSize: 1 << 20}))
	assert.Contains(t, out.String(), `"scope": "weatherLite"`)

	err = runValidate(t.Context(), &out, filepath.Join(t.TempDir(), "absent.zip"), &validateOptions{})
	assert.Error(t, err)
}
