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
	"errors"

	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/pkg/http"
	"github.com/go-arcade/modhub/pkg/log"
	"github.com/gofiber/fiber/v2"
)

// respondErr maps service errors to the response code table.
func respondErr(c *fiber.Ctx, err error) error {
	var (
		schema     *errs.SchemaError
		ineligible *errs.IneligibleError
	)
	switch {
	case errors.As(err, &ineligible):
		return http.WithRepErrDetail(c, http.Ineligible.Code, ineligible.Error(), fiber.Map{
			"rule":   ineligible.Rule,
			"reason": ineligible.Reason,
		})
	case errors.As(err, &schema):
		return http.WithRepErrDetail(c, http.BadRequest.Code, schema.Error(), fiber.Map{"field": schema.Field})
	case errors.Is(err, errs.ErrNotFound):
		return http.WithRepErrMsg(c, http.NotFound.Code, err.Error(), c.Path())
	case errors.Is(err, errs.ErrForbidden):
		return http.WithRepErrMsg(c, http.PermissionDenied.Code, err.Error(), c.Path())
	case errors.Is(err, errs.ErrInvalidArgument):
		return http.WithRepErrMsg(c, http.BadRequest.Code, err.Error(), c.Path())
	case errors.Is(err, errs.ErrConflict), errors.Is(err, errs.ErrInvalidTransition):
		return http.WithRepErrMsg(c, http.Conflict.Code, err.Error(), c.Path())
	default:
		log.Errorw("request failed", "path", c.Path(), "method", c.Method(), "error", err)
		return http.WithRepErrMsg(c, http.InternalError.Code, http.InternalError.Msg, c.Path())
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return http.WithRepErrMsg(c, http.BadRequest.Code, msg, c.Path())
}
