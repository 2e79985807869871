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

package repo

import (
	"context"
	"time"

	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/pkg/database"
	"github.com/pkg/errors"
)

type IUploadRepository interface {
	Create(ctx context.Context, u *model.Upload) error
	Get(ctx context.Context, uploadId string) (*model.Upload, error)
	ListByModule(ctx context.Context, moduleId string) ([]model.Upload, error)
	ListByStatus(ctx context.Context, status model.UploadStatus) ([]model.Upload, error)
	// Transition persists u only if the stored status still equals from.
	Transition(ctx context.Context, u *model.Upload, from model.UploadStatus) error
	// ClaimVersion reserves module@version for uploadId.
	ClaimVersion(ctx context.Context, uploadId, moduleId, version string) error
	VersionTaken(ctx context.Context, moduleId, version, excludeUploadId string) (bool, error)
}

type UploadRepo struct {
	db          database.IDatabase
	uploadModel model.Upload
}

func NewUploadRepo(db database.IDatabase) IUploadRepository {
	return &UploadRepo{db: db, uploadModel: model.Upload{}}
}

// VersionKey is the reservation key of module@version.
func VersionKey(moduleId, version string) string {
	return moduleId + "@" + version
}

func (r *UploadRepo) Create(ctx context.Context, u *model.Upload) error {
	return wrap(r.db.Database().WithContext(ctx).Table(r.uploadModel.TableName()).Create(u).Error)
}

func (r *UploadRepo) Get(ctx context.Context, uploadId string) (*model.Upload, error) {
	var u model.Upload
	// 状态机读取自己刚写入的状态，固定走主库
	err := database.WriteDB(r.db.Database().WithContext(ctx)).Table(r.uploadModel.TableName()).
		Where("upload_id = ?", uploadId).
		First(&u).Error
	if err != nil {
		return nil, wrap(err)
	}
	return &u, nil
}

// ListByModule 按提交时间倒序列出模块的全部上传
func (r *UploadRepo) ListByModule(ctx context.Context, moduleId string) ([]model.Upload, error) {
	var uploads []model.Upload
	err := r.db.Database().WithContext(ctx).Table(r.uploadModel.TableName()).
		Where("module_id = ?", moduleId).
		Order("id DESC").
		Find(&uploads).Error
	return uploads, wrap(err)
}

func (r *UploadRepo) ListByStatus(ctx context.Context, status model.UploadStatus) ([]model.Upload, error) {
	var uploads []model.Upload
	err := database.WriteDB(r.db.Database().WithContext(ctx)).Table(r.uploadModel.TableName()).
		Where("status = ?", status).
		Order("id ASC").
		Find(&uploads).Error
	return uploads, wrap(err)
}

func (r *UploadRepo) Transition(ctx context.Context, u *model.Upload, from model.UploadStatus) error {
	now := time.Now()
	res := r.db.Database().WithContext(ctx).Table(r.uploadModel.TableName()).
		Where("upload_id = ? AND status = ?", u.UploadId, from).
		Updates(map[string]any{
			"module_id":          u.ModuleId,
			"declared_id":        u.DeclaredId,
			"version":            u.Version,
			"status":             u.Status,
			"validation_results": u.ValidationResults,
			"build_log":          u.BuildLog,
			"rejection_reason":   u.RejectionReason,
			"manifest":           u.Manifest,
			"reviewed_by":        u.ReviewedBy,
			"updated_at":         now,
		})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(errs.ErrConflict, "upload %s is no longer %s", u.UploadId, from)
	}
	u.UpdatedAt = now
	return nil
}

func (r *UploadRepo) ClaimVersion(ctx context.Context, uploadId, moduleId, version string) error {
	key := VersionKey(moduleId, version)
	err := r.db.Database().WithContext(ctx).Table(r.uploadModel.TableName()).
		Where("upload_id = ?", uploadId).
		Update("version_key", key).Error
	return wrap(err)
}

// VersionTaken reports whether another upload reserved module@version.
func (r *UploadRepo) VersionTaken(ctx context.Context, moduleId, version, excludeUploadId string) (bool, error) {
	var count int64
	err := r.db.Database().WithContext(ctx).Table(r.uploadModel.TableName()).
		Where("version_key = ? AND upload_id <> ?", VersionKey(moduleId, version), excludeUploadId).
		Count(&count).Error
	if err != nil {
		return false, wrap(err)
	}
	return count > 0, nil
}
