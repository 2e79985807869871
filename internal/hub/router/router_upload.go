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

package router

import (
	"time"

	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/internal/hub/service/upload"
	"github.com/go-arcade/modhub/pkg/http"
	"github.com/gofiber/fiber/v2"
)

// uploadDTO is the wire form of an upload. Upload endpoints use snake_case.
type uploadDTO struct {
	UploadId          string                  `json:"upload_id"`
	ModuleId          string                  `json:"module_id"`
	Version           string                  `json:"version"`
	Status            model.UploadStatus      `json:"status"`
	ValidationResults model.ValidationResults `json:"validation_results"`
	BuildLog          string                  `json:"build_log"`
	RejectionReason   *string                 `json:"rejection_reason"`
	ArchiveName       string                  `json:"archive_name,omitempty"`
	ArchiveDigest     string                  `json:"archive_digest,omitempty"`
	SubmittedBy       string                  `json:"submitted_by,omitempty"`
	ReviewedBy        string                  `json:"reviewed_by,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

func toUploadDTO(u *model.Upload) uploadDTO {
	return uploadDTO{
		UploadId:          u.UploadId,
		ModuleId:          u.ModuleId,
		Version:           u.Version,
		Status:            u.Status,
		ValidationResults: u.Results(),
		BuildLog:          u.BuildLog,
		RejectionReason:   u.RejectionReason,
		ArchiveName:       u.ArchiveName,
		ArchiveDigest:     u.ArchiveDigest,
		SubmittedBy:       u.SubmittedBy,
		ReviewedBy:        u.ReviewedBy,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (rt *Router) uploadRouter(r fiber.Router) {
	uploadGroup := r.Group("/uploads")
	{
		uploadGroup.Post("/", rt.submitUpload)                   // POST /uploads - submit a module archive
		uploadGroup.Get("/", rt.listUploads)                     // GET /uploads?moduleId= - uploads of a module
		uploadGroup.Get("/:uploadId", rt.getUpload)              // GET /uploads/:uploadId - upload status
		uploadGroup.Post("/:uploadId/approve", rt.approveUpload) // POST /uploads/:uploadId/approve - publish
		uploadGroup.Post("/:uploadId/reject", rt.rejectUpload)   // POST /uploads/:uploadId/reject - reject with reason
	}
}

func (rt *Router) submitUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "file cannot be read")
	}
	defer f.Close()

	u, err := rt.Uploads.Submit(c.UserContext(), upload.SubmitRequest{
		Principal: principal(c),
		FileName:  fh.Filename,
		ModuleId:  c.FormValue("moduleId"),
		Body:      f,
	})
	if err != nil {
		return respondErr(c, err)
	}

	c.Status(fiber.StatusAccepted)
	c.Locals(http.DETAIL, fiber.Map{
		"upload_id": u.UploadId,
		"status":    u.Status,
		"module_id": u.ModuleId,
		"version":   u.Version,
	})
	c.Locals(http.OPERATION, "submit upload")
	return nil
}

func (rt *Router) getUpload(c *fiber.Ctx) error {
	u, err := rt.Uploads.Get(c.UserContext(), principal(c), c.Params("uploadId"))
	if err != nil {
		return respondErr(c, err)
	}
	c.Locals(http.DETAIL, toUploadDTO(u))
	c.Locals(http.OPERATION, "get upload")
	return nil
}

func (rt *Router) listUploads(c *fiber.Ctx) error {
	moduleId := c.Query("moduleId")
	if moduleId == "" {
		return badRequest(c, "moduleId is required")
	}
	uploads, err := rt.Uploads.ListByModule(c.UserContext(), principal(c), moduleId)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]uploadDTO, len(uploads))
	for i := range uploads {
		out[i] = toUploadDTO(&uploads[i])
	}
	c.Locals(http.DETAIL, out)
	c.Locals(http.OPERATION, "list uploads")
	return nil
}

func (rt *Router) approveUpload(c *fiber.Ctx) error {
	u, err := rt.Review.Approve(c.UserContext(), principal(c), c.Params("uploadId"))
	if err != nil {
		return respondErr(c, err)
	}
	c.Locals(http.DETAIL, toUploadDTO(u))
	c.Locals(http.OPERATION, "approve upload")
	return nil
}

func (rt *Router) rejectUpload(c *fiber.Ctx) error {
	var req rejectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	u, err := rt.Review.Reject(c.UserContext(), principal(c), c.Params("uploadId"), req.Reason)
	if err != nil {
		return respondErr(c, err)
	}
	c.Locals(http.DETAIL, toUploadDTO(u))
	c.Locals(http.OPERATION, "reject upload")
	return nil
}
