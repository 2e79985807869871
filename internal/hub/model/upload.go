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

package model

import "gorm.io/datatypes"

// CheckResult is the outcome of one validation stage.
type CheckResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidationResults is nil for stages that never ran.
type ValidationResults struct {
	Schema *CheckResult `json:"schema"`
	Build  *CheckResult `json:"build"`
}

// Upload 上传记录，终态后不可变
type Upload struct {
	BaseModel
	UploadId          string                                `gorm:"column:upload_id;size:64;uniqueIndex" json:"uploadId"`
	ModuleId          string                                `gorm:"column:module_id;size:128;index" json:"moduleId"`
	DeclaredId        string                                `gorm:"column:declared_id;size:128" json:"declaredId"` // 表单 moduleId 或归档顶层目录名
	Version           string                                `gorm:"column:version;size:64" json:"version"`
	VersionKey        *string                               `gorm:"column:version_key;size:200;uniqueIndex" json:"-"` // module_id@version，校验通过后写入
	Status            UploadStatus                          `gorm:"column:status;size:32;index" json:"status"`
	ValidationResults datatypes.JSONType[ValidationResults] `gorm:"column:validation_results" json:"validationResults"`
	BuildLog          string                                `gorm:"column:build_log;type:text" json:"buildLog"`
	RejectionReason   *string                               `gorm:"column:rejection_reason;type:text" json:"rejectionReason"`
	Manifest          datatypes.JSONType[Manifest]          `gorm:"column:manifest" json:"manifest"`
	ArchiveName       string                                `gorm:"column:archive_name" json:"archiveName"`
	ArchiveDigest     string                                `gorm:"column:archive_digest;size:64" json:"archiveDigest"` // blake3
	SubmittedBy       string                                `gorm:"column:submitted_by;size:64" json:"submittedBy"`
	ReviewedBy        string                                `gorm:"column:reviewed_by;size:64" json:"reviewedBy"`
}

func (Upload) TableName() string {
	return "t_upload"
}

// Results returns a copy of the stored validation results.
func (u *Upload) Results() ValidationResults {
	return u.ValidationResults.Data()
}

func (u *Upload) SetResults(r ValidationResults) {
	u.ValidationResults = datatypes.NewJSONType(r)
}
