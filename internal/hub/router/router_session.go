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
	"github.com/go-arcade/modhub/internal/hub/slot"
	"github.com/go-arcade/modhub/pkg/http"
	"github.com/gofiber/fiber/v2"
)

type slotRequest struct {
	Context slot.ViewContext `json:"context"`
}

func (rt *Router) sessionRouter(r fiber.Router) {
	sessionGroup := r.Group("/sessions")
	{
		sessionGroup.Post("/", rt.openSession)                                 // POST /sessions - open a tenant session
		sessionGroup.Post("/:sessionId/slots/:slot", rt.showSlot)              // POST /sessions/:sessionId/slots/:slot - compose a visible slot
		sessionGroup.Delete("/:sessionId/modules/:moduleId", rt.disableModule) // DELETE /sessions/:sessionId/modules/:moduleId - unmount
		sessionGroup.Delete("/:sessionId", rt.closeSession)                    // DELETE /sessions/:sessionId - close
	}
}

func (rt *Router) openSession(c *fiber.Ctx) error {
	s, err := rt.Sessions.Open(c.UserContext(), principal(c))
	if err != nil {
		return respondErr(c, err)
	}
	c.Status(fiber.StatusCreated)
	c.Locals(http.DETAIL, fiber.Map{
		"sessionId": s.Id,
		"tenantId":  s.TenantId,
		"runtime":   rt.Sessions.Runtime(),
	})
	c.Locals(http.OPERATION, "open session")
	return nil
}

func (rt *Router) showSlot(c *fiber.Ctx) error {
	var req slotRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	comp, err := rt.Sessions.ShowSlot(c.UserContext(), principal(c), c.Params("sessionId"), c.Params("slot"), req.Context)
	if err != nil {
		return respondErr(c, err)
	}
	c.Locals(http.DETAIL, comp)
	c.Locals(http.OPERATION, "show slot")
	return nil
}

func (rt *Router) disableModule(c *fiber.Ctx) error {
	unmounted, err := rt.Sessions.DisableModule(c.UserContext(), principal(c), c.Params("sessionId"), c.Params("moduleId"))
	if err != nil {
		return respondErr(c, err)
	}
	c.Locals(http.DETAIL, fiber.Map{"moduleId": c.Params("moduleId"), "unmounted": unmounted})
	c.Locals(http.OPERATION, "disable session module")
	return nil
}

func (rt *Router) closeSession(c *fiber.Ctx) error {
	if err := rt.Sessions.Close(principal(c), c.Params("sessionId")); err != nil {
		return respondErr(c, err)
	}
	c.Locals(http.OPERATION, "close session")
	return nil
}
