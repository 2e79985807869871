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

package loader

import (
	"github.com/go-arcade/modhub/internal/hub/service/install"
	"github.com/go-arcade/modhub/pkg/metrics"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	NewFetcher,
	ProvideManager,
	wire.Bind(new(BundleSource), new(*Fetcher)),
)

// ProvideManager builds the session manager and subscribes it to install
// changes so uninstalled modules leave open sessions.
func ProvideManager(conf Config, source BundleSource, installs *install.Service, m *metrics.HubMetrics) (*Manager, func()) {
	mgr := NewManager(conf, source, installs, m)
	installs.SetNotifier(mgr)
	return mgr, mgr.Shutdown
}
