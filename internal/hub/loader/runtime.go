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

// Package loader fetches, resolves and mounts the modules of a tenant session.
package loader

import (
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

type Config struct {
	SessionTTL       time.Duration `mapstructure:"sessionTTL" default:"30m"`
	FetchTimeout     time.Duration `mapstructure:"fetchTimeout" default:"10s"`
	FetchRetries     int           `mapstructure:"fetchRetries" default:"2"`
	BundleCacheBytes int           `mapstructure:"bundleCacheBytes" default:"33554432"`
	BundleCacheTTL   time.Duration `mapstructure:"bundleCacheTTL" default:"1h"`
	RuntimeName      string        `mapstructure:"runtimeName" default:"react"`
	RuntimeVersion   string        `mapstructure:"runtimeVersion" default:"18.3.1"`
	// SharedDeps are the packages every bundle must take from the host
	SharedDeps []string `mapstructure:"sharedDeps" default:"[\"react\",\"react-dom\"]"`
}

// Runtime describes the host runtime bundles are mounted into.
type Runtime struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	// Identity is name@version of the host, see Accepts.
	Identity string   `json:"identity"`
	Shared   []string `json:"shared"`
}

func NewRuntime(conf Config) Runtime {
	shared := conf.SharedDeps
	if len(shared) == 0 {
		shared = []string{conf.RuntimeName}
	}
	return Runtime{
		Name:     conf.RuntimeName,
		Version:  conf.RuntimeVersion,
		Identity: conf.RuntimeName + "@" + conf.RuntimeVersion,
		Shared:   shared,
	}
}

// Accepts reports whether a component built against identity ("name@version")
// can run on this host: same runtime name and same major version.
func (rt Runtime) Accepts(identity string) bool {
	i := strings.LastIndex(identity, "@")
	if i <= 0 || identity[:i] != rt.Name {
		return false
	}
	version := "v" + identity[i+1:]
	if !semver.IsValid(version) {
		return false
	}
	return semver.Major(version) == semver.Major("v"+rt.Version)
}
