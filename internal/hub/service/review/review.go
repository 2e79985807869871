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

// Package review moves validated uploads to published or rejected.
package review

import (
	"context"
	"strings"

	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/internal/hub/repo"
	"github.com/go-arcade/modhub/internal/hub/service/marketplace"
	"github.com/go-arcade/modhub/internal/hub/service/upload"
	"github.com/go-arcade/modhub/pkg/log"
	"github.com/go-arcade/modhub/pkg/metrics"
	"github.com/google/wire"
	"github.com/pkg/errors"
)

var ProviderSet = wire.NewSet(
	NewGate,
	wire.Bind(new(upload.Approver), new(*Gate)),
	wire.Bind(new(AssetPublisher), new(*upload.Publisher)),
	wire.Bind(new(Catalog), new(*marketplace.Service)),
)

// AssetPublisher copies an upload's bundle to static serving.
type AssetPublisher interface {
	Publish(ctx context.Context, u *model.Upload) (*model.MarketplaceModule, error)
}

// Catalog records published versions.
type Catalog interface {
	Publish(ctx context.Context, m *model.MarketplaceModule) (bool, error)
}

type Gate struct {
	uploads   repo.IUploadRepository
	assets    AssetPublisher
	catalog   Catalog
	workspace *upload.Workspace
	metrics   *metrics.HubMetrics
}

func NewGate(uploads repo.IUploadRepository, assets AssetPublisher, catalog Catalog, ws *upload.Workspace, m *metrics.HubMetrics) *Gate {
	return &Gate{uploads: uploads, assets: assets, catalog: catalog, workspace: ws, metrics: m}
}

// Approve publishes a validated upload. A failed asset copy leaves the
// upload waiting so the approval can be retried.
func (g *Gate) Approve(ctx context.Context, principal model.Principal, uploadId string) (*model.Upload, error) {
	if !principal.CanReview() {
		return nil, errors.Wrap(errs.ErrForbidden, "approving uploads requires the module-review privilege")
	}
	u, err := g.uploads.Get(ctx, uploadId)
	if err != nil {
		return nil, err
	}
	to, err := upload.Transition(u.Status, upload.EventApprove)
	if err != nil {
		return nil, err
	}

	row, err := g.assets.Publish(ctx, u)
	if err != nil {
		return nil, err
	}
	bumped, err := g.catalog.Publish(ctx, row)
	if err != nil {
		return nil, err
	}

	from := u.Status
	u.Status = to
	u.ReviewedBy = principal.UserId
	if err := g.uploads.Transition(ctx, u, from); err != nil {
		return nil, err
	}
	g.cleanup(uploadId)
	g.metrics.ObserveUpload(string(to))
	log.Infow("[ReviewGate] upload published",
		"uploadId", uploadId,
		"moduleId", u.ModuleId,
		"version", u.Version,
		"reviewer", principal.UserId,
		"catalogUpdated", bumped,
	)
	return u, nil
}

// Reject ends a validated upload with the reviewer's reason.
func (g *Gate) Reject(ctx context.Context, principal model.Principal, uploadId, reason string) (*model.Upload, error) {
	if !principal.CanReview() {
		return nil, errors.Wrap(errs.ErrForbidden, "rejecting uploads requires the module-review privilege")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errors.Wrap(errs.ErrInvalidArgument, "a rejection reason is required")
	}
	u, err := g.uploads.Get(ctx, uploadId)
	if err != nil {
		return nil, err
	}
	to, err := upload.Transition(u.Status, upload.EventReject)
	if err != nil {
		return nil, err
	}

	rejection := &errs.ReviewRejection{Reviewer: principal.UserId, Reason: reason}
	from := u.Status
	u.Status = to
	u.ReviewedBy = principal.UserId
	u.RejectionReason = &rejection.Reason
	if err := g.uploads.Transition(ctx, u, from); err != nil {
		return nil, err
	}
	g.cleanup(uploadId)
	g.metrics.ObserveUpload(string(to))
	log.Infow("[ReviewGate] upload rejected",
		"uploadId", uploadId,
		"moduleId", u.ModuleId,
		"rejection", rejection.Error(),
	)
	return u, nil
}

func (g *Gate) cleanup(uploadId string) {
	if g.workspace == nil {
		return
	}
	if err := g.workspace.Remove(uploadId); err != nil {
		log.Warnw("[ReviewGate] remove work dir failed", "uploadId", uploadId, "error", err)
	}
}
