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

package upload

import (
	"context"

	"github.com/go-arcade/modhub/internal/hub/build"
	"github.com/go-arcade/modhub/internal/hub/repo"
	"github.com/go-arcade/modhub/pkg/log"
	"github.com/go-arcade/modhub/pkg/metrics"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	NewWorkspace,
	NewPublisher,
	PolicyFromConfig,
	ProvideOutputDir,
	ProvideService,
	wire.Bind(new(Builder), new(*build.Runner)),
)

// ProvideOutputDir resolves bundle directories the same way the build runner does.
func ProvideOutputDir(r *build.Runner) OutputDirFunc {
	return r.OutputDir
}

// ProvideService starts the pipeline workers and resumes uploads left in
// flight. The cleanup drains the queue.
func ProvideService(
	conf Config,
	uploads repo.IUploadRepository,
	builder Builder,
	ws *Workspace,
	policy ReviewPolicy,
	approver Approver,
	m *metrics.HubMetrics,
) (*Service, func()) {
	svc := NewService(conf, uploads, builder, ws, policy, approver, m)
	if err := svc.Recover(context.Background()); err != nil {
		log.Warnw("[UploadService] recover in-flight uploads failed", "error", err)
	}
	return svc, svc.Close
}
