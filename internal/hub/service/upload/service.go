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

// Package upload accepts module packages and drives them through validation and build.
package upload

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/gammazero/workerpool"
	"github.com/go-arcade/modhub/internal/hub/build"
	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/internal/hub/manifest"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/internal/hub/repo"
	"github.com/go-arcade/modhub/pkg/id"
	"github.com/go-arcade/modhub/pkg/log"
	"github.com/go-arcade/modhub/pkg/metrics"
	"github.com/go-arcade/modhub/pkg/safe"
	"github.com/go-arcade/modhub/pkg/statemachine"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
)

// Builder runs the isolated build of a validated package.
type Builder interface {
	Run(ctx context.Context, req build.Request) (*build.Result, error)
}

// SubmitRequest is one archive handed in by a developer.
type SubmitRequest struct {
	Principal model.Principal
	FileName  string
	// ModuleId is the id the submitter declares for the archive, optional.
	ModuleId string
	Body     io.Reader
}

type Service struct {
	conf      Config
	uploads   repo.IUploadRepository
	validator *manifest.Validator
	builder   Builder
	ws        *Workspace
	pool      *workerpool.WorkerPool
	policy    ReviewPolicy
	approver  Approver
	metrics   *metrics.HubMetrics
}

func NewService(
	conf Config,
	uploads repo.IUploadRepository,
	builder Builder,
	ws *Workspace,
	policy ReviewPolicy,
	approver Approver,
	m *metrics.HubMetrics,
) *Service {
	workers := conf.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		conf:      conf,
		uploads:   uploads,
		validator: manifest.NewValidator(uploads),
		builder:   builder,
		ws:        ws,
		pool:      workerpool.New(workers),
		policy:    policy,
		approver:  approver,
		metrics:   m,
	}
}

// Close waits for queued pipelines to finish.
func (s *Service) Close() {
	s.pool.StopWait()
}

// Submit stores and unpacks the archive, records the upload as validating
// and queues its pipeline. Unreadable archives are recorded as rejected.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*model.Upload, error) {
	if !req.Principal.HasAnyRole(model.RoleDeveloper, model.RolePlatformAdmin) {
		return nil, errors.Wrap(errs.ErrForbidden, "uploading modules requires the developer role")
	}
	uploadId := id.GetUlid()
	archivePath := s.ws.ArchivePath(uploadId)

	digest, size, err := receive(archivePath, req.Body, s.conf.MaxArchiveSize)
	if err == nil {
		_, err = sniff(archivePath)
	}
	if err != nil {
		_ = s.ws.Remove(uploadId)
		return nil, err
	}

	u := &model.Upload{
		UploadId:      uploadId,
		ModuleId:      req.ModuleId,
		DeclaredId:    req.ModuleId,
		Status:        model.StatusUploaded,
		ArchiveName:   filepath.Base(req.FileName),
		ArchiveDigest: digest,
		SubmittedBy:   req.Principal.UserId,
	}
	u.SetResults(model.ValidationResults{})
	if err := s.uploads.Create(ctx, u); err != nil {
		_ = s.ws.Remove(uploadId)
		return nil, err
	}
	log.Infow("[UploadService] archive received",
		"uploadId", uploadId,
		"archive", u.ArchiveName,
		"size", size,
		"digest", digest,
	)

	if err := s.startValidation(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) startValidation(ctx context.Context, u *model.Upload) error {
	next, err := Transition(u.Status, EventStartValidation)
	if err != nil {
		return err
	}
	src := s.ws.SourceDir(u.UploadId)
	unpackErr := unpack(ctx, s.ws.ArchivePath(u.UploadId), src, s.conf.MaxUnpackedSize)
	if unpackErr == nil {
		if u.DeclaredId == "" {
			u.DeclaredId = manifest.TopLevelDir(src)
		}
		if m, _, err := manifest.Load(src); err == nil {
			u.ModuleId = m.Id
			u.Version = m.Version
		} else if u.ModuleId == "" {
			u.ModuleId = u.DeclaredId
		}
	}

	from := u.Status
	u.Status = next
	if err := s.uploads.Transition(ctx, u, from); err != nil {
		return err
	}
	if unpackErr != nil {
		s.reject(ctx, u, EventSchemaFailed, unpackErr.Error(), model.ValidationResults{Schema: failed(unpackErr)})
		return nil
	}
	s.enqueue(u.UploadId)
	return nil
}

func (s *Service) enqueue(uploadId string) {
	s.pool.Submit(func() {
		if err := safe.Do(func() { s.process(context.Background(), uploadId) }); err != nil {
			log.Errorw("[UploadService] pipeline panicked", "uploadId", uploadId, "error", err)
		}
	})
}

// process validates and builds one upload. Failures end on the upload
// record and are never returned.
func (s *Service) process(ctx context.Context, uploadId string) {
	u, err := s.uploads.Get(ctx, uploadId)
	if err != nil {
		log.Errorw("[UploadService] load upload failed", "uploadId", uploadId, "error", err)
		return
	}
	if u.Status != model.StatusValidating {
		return
	}

	m, moduleDir, err := manifest.Load(s.ws.SourceDir(uploadId))
	if err == nil {
		u.ModuleId, u.Version = m.Id, m.Version
		u.Manifest = datatypes.NewJSONType(*m)
		err = s.validator.Validate(ctx, m, u.DeclaredId, uploadId)
	}
	if err == nil {
		err = s.claim(ctx, u)
	}
	if err != nil {
		if !isSchemaError(err) {
			log.Errorw("[UploadService] validation could not complete", "uploadId", uploadId, "error", err)
		}
		s.reject(ctx, u, EventSchemaFailed, err.Error(), model.ValidationResults{Schema: failed(err)})
		return
	}
	results := model.ValidationResults{Schema: passed()}

	res, err := s.builder.Run(ctx, build.Request{UploadId: uploadId, SourceDir: moduleDir, Manifest: m})
	if res != nil {
		u.BuildLog = res.Log
	}
	if err != nil {
		reason := err.Error()
		var be *errs.BuildError
		if errors.As(err, &be) {
			reason = be.Reason()
		}
		results.Build = failed(err)
		s.reject(ctx, u, EventBuildFailed, reason, results)
		return
	}

	results.Build = passed()
	from := u.Status
	if u.Status, err = Transition(from, EventBuildSucceeded); err != nil {
		log.Errorw("[UploadService] unexpected state", "uploadId", uploadId, "error", err)
		return
	}
	u.SetResults(results)
	if err := s.uploads.Transition(ctx, u, from); err != nil {
		log.Errorw("[UploadService] persist validation result failed", "uploadId", uploadId, "error", err)
		return
	}
	s.metrics.ObserveUpload(string(u.Status))
	log.Infow("[UploadService] upload awaiting review",
		"uploadId", uploadId,
		"moduleId", u.ModuleId,
		"version", u.Version,
	)

	if s.policy != nil && s.approver != nil && s.policy.AutoApprove(u) {
		if _, err := s.approver.Approve(ctx, model.SystemPrincipal, uploadId); err != nil {
			log.Errorw("[UploadService] automatic approval failed", "uploadId", uploadId, "error", err)
		}
	}
}

func (s *Service) claim(ctx context.Context, u *model.Upload) error {
	err := s.uploads.ClaimVersion(ctx, u.UploadId, u.ModuleId, u.Version)
	if errors.Is(err, errs.ErrConflict) {
		return &errs.SchemaError{Field: "version", Message: fmt.Sprintf("%s@%s was already uploaded", u.ModuleId, u.Version)}
	}
	return err
}

func (s *Service) reject(ctx context.Context, u *model.Upload, event statemachine.Event, reason string, results model.ValidationResults) {
	defer func() {
		if err := s.ws.Remove(u.UploadId); err != nil {
			log.Warnw("[UploadService] remove work dir failed", "uploadId", u.UploadId, "error", err)
		}
	}()
	from := u.Status
	to, err := Transition(from, event)
	if err != nil {
		log.Errorw("[UploadService] unexpected state", "uploadId", u.UploadId, "error", err)
		return
	}
	u.Status = to
	u.RejectionReason = &reason
	u.SetResults(results)
	if err := s.uploads.Transition(ctx, u, from); err != nil {
		log.Errorw("[UploadService] persist rejection failed", "uploadId", u.UploadId, "error", err)
		return
	}
	s.metrics.ObserveUpload(string(to))
	log.Infow("[UploadService] upload rejected",
		"uploadId", u.UploadId,
		"moduleId", u.ModuleId,
		"event", string(event),
	)
}

// Get returns the upload. Reading never changes it.
func (s *Service) Get(ctx context.Context, principal model.Principal, uploadId string) (*model.Upload, error) {
	u, err := s.uploads.Get(ctx, uploadId)
	if err != nil {
		return nil, err
	}
	if !canRead(principal, u) {
		return nil, errors.Wrapf(errs.ErrForbidden, "upload %s", uploadId)
	}
	return u, nil
}

// ListByModule returns the uploads of moduleId the principal may read, newest first.
func (s *Service) ListByModule(ctx context.Context, principal model.Principal, moduleId string) ([]model.Upload, error) {
	all, err := s.uploads.ListByModule(ctx, moduleId)
	if err != nil {
		return nil, err
	}
	visible := make([]model.Upload, 0, len(all))
	for i := range all {
		if canRead(principal, &all[i]) {
			visible = append(visible, all[i])
		}
	}
	return visible, nil
}

// Recover resumes uploads left in flight by a previous process.
func (s *Service) Recover(ctx context.Context) error {
	for _, status := range []model.UploadStatus{model.StatusUploaded, model.StatusValidating} {
		stuck, err := s.uploads.ListByStatus(ctx, status)
		if err != nil {
			return err
		}
		for i := range stuck {
			u := &stuck[i]
			switch {
			case u.Status == model.StatusValidating && s.ws.Exists(u.UploadId):
				log.Infow("[UploadService] resuming pipeline", "uploadId", u.UploadId)
				s.enqueue(u.UploadId)
			case u.Status == model.StatusUploaded:
				if err := s.startValidation(ctx, u); err != nil {
					log.Warnw("[UploadService] resume intake failed", "uploadId", u.UploadId, "error", err)
				}
			default:
				s.reject(ctx, u, EventSchemaFailed, "working directory lost before validation", model.ValidationResults{
					Schema: &model.CheckResult{Valid: false, Errors: []string{"working directory lost before validation"}},
				})
			}
		}
	}
	return nil
}

func canRead(p model.Principal, u *model.Upload) bool {
	return p.CanReview() || (p.UserId != "" && p.UserId == u.SubmittedBy)
}

func isSchemaError(err error) bool {
	var se *errs.SchemaError
	return errors.As(err, &se)
}

func passed() *model.CheckResult {
	return &model.CheckResult{Valid: true, Errors: []string{}}
}

func failed(err error) *model.CheckResult {
	return &model.CheckResult{Valid: false, Errors: []string{err.Error()}}
}
