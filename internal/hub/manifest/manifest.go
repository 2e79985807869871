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

// Package manifest locates, parses and validates module manifests.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/internal/hub/model"
	"sigs.k8s.io/yaml"
)

// FileNames are the accepted manifest document names, in lookup order.
var FileNames = []string{"manifest.json", "manifest.yaml", "manifest.yml"}

// Parse decodes a JSON or YAML manifest document.
func Parse(data []byte) (*model.Manifest, error) {
	var m model.Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &errs.SchemaError{Message: fmt.Sprintf("invalid manifest document: %v", err)}
	}
	return &m, nil
}

// Find returns the manifest path and the module root inside an unpacked
// archive. The manifest is looked up at root first, then under the single
// top-level directory.
func Find(root string) (manifestPath, moduleDir string, err error) {
	if p := lookup(root); p != "" {
		return p, root, nil
	}
	if top := TopLevelDir(root); top != "" {
		dir := filepath.Join(root, top)
		if p := lookup(dir); p != "" {
			return p, dir, nil
		}
	}
	return "", "", &errs.SchemaError{Message: "manifest.json or manifest.yaml not found at archive root"}
}

// Load finds and parses the manifest under root.
func Load(root string) (*model.Manifest, string, error) {
	p, dir, err := Find(root)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, "", fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, "", err
	}
	return m, dir, nil
}

// TopLevelDir returns the name of the only directory at root, ignoring
// hidden entries and archiver metadata. It returns "" when root holds files
// or several directories.
func TopLevelDir(root string) string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return ""
	}
	var dir string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || name == "__MACOSX" {
			continue
		}
		if !e.IsDir() || dir != "" {
			return ""
		}
		dir = name
	}
	return dir
}

func lookup(dir string) string {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if st, err := os.Stat(p); err == nil && st.Mode().IsRegular() {
			return p
		}
	}
	return ""
}
