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
	"github.com/go-arcade/modhub/internal/hub/repo"
	"github.com/go-arcade/modhub/pkg/http"
	"github.com/gofiber/fiber/v2"
)

type activationRequest struct {
	Active *bool `json:"active"`
}

func (rt *Router) marketplaceRouter(r fiber.Router) {
	moduleGroup := r.Group("/marketplace/modules")
	{
		moduleGroup.Get("/", rt.listModules)                             // GET /marketplace/modules?category=&activeOnly=
		moduleGroup.Get("/:moduleId", rt.getModule)                      // GET /marketplace/modules/:moduleId
		moduleGroup.Put("/:moduleId/activation", rt.setModuleActivation) // PUT /marketplace/modules/:moduleId/activation
		moduleGroup.Get("/:moduleId/eligibility", rt.getEligibility)     // GET /marketplace/modules/:moduleId/eligibility
	}
}

// listModules shows inactive modules to platform admins only.
func (rt *Router) listModules(c *fiber.Ctx) error {
	p := principal(c)
	filter := repo.ModuleFilter{
		Category:   c.Query("category"),
		ActiveOnly: c.QueryBool("activeOnly", true) || !p.IsPlatformAdmin(),
	}
	modules, err := rt.Marketplace.List(c.UserContext(), filter)
	if err != nil {
		return respondErr(c, err)
	}
	c.Locals(http.DETAIL, modules)
	c.Locals(http.OPERATION, "list marketplace modules")
	return nil
}

func (rt *Router) getModule(c *fiber.Ctx) error {
	m, err := rt.Marketplace.Get(c.UserContext(), c.Params("moduleId"))
	if err != nil {
		return respondErr(c, err)
	}
	if !m.IsActive && !principal(c).IsPlatformAdmin() {
		return http.WithRepErrMsg(c, http.NotFound.Code, "module "+m.ModuleId+" not found", c.Path())
	}
	c.Locals(http.DETAIL, m)
	c.Locals(http.OPERATION, "get marketplace module")
	return nil
}

func (rt *Router) setModuleActivation(c *fiber.Ctx) error {
	var req activationRequest
	if err := c.BodyParser(&req); err != nil || req.Active == nil {
		return badRequest(c, "active is required")
	}
	moduleId := c.Params("moduleId")
	if err := rt.Marketplace.SetActive(c.UserContext(), principal(c), moduleId, *req.Active); err != nil {
		return respondErr(c, err)
	}
	c.Locals(http.DETAIL, fiber.Map{"moduleId": moduleId, "active": *req.Active})
	c.Locals(http.OPERATION, "set module activation")
	return nil
}

// getEligibility answers for the caller's tenant, or ?tenantId= for platform admins.
func (rt *Router) getEligibility(c *fiber.Ctx) error {
	p := principal(c)
	tenantId := c.Query("tenantId", p.TenantId)
	if tenantId == "" {
		return badRequest(c, "tenantId is required")
	}
	decision, err := rt.Marketplace.CanInstall(c.UserContext(), p, tenantId, c.Params("moduleId"))
	if err != nil {
		return respondErr(c, err)
	}
	c.Locals(http.DETAIL, decision)
	c.Locals(http.OPERATION, "check eligibility")
	return nil
}
