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
	"github.com/go-arcade/modhub/pkg/http"
	"github.com/gofiber/fiber/v2"
)

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

func (rt *Router) tenantRouter(r fiber.Router) {
	tenantGroup := r.Group("/tenants/:tenantId/modules")
	{
		tenantGroup.Get("/", rt.listTenantModules)                 // GET /tenants/:tenantId/modules - installed modules
		tenantGroup.Post("/:moduleId", rt.installModule)           // POST /tenants/:tenantId/modules/:moduleId - install
		tenantGroup.Delete("/:moduleId", rt.uninstallModule)       // DELETE /tenants/:tenantId/modules/:moduleId - uninstall
		tenantGroup.Put("/:moduleId/enabled", rt.setModuleEnabled) // PUT /tenants/:tenantId/modules/:moduleId/enabled
	}
}

func (rt *Router) listTenantModules(c *fiber.Ctx) error {
	rows, err := rt.Installs.ListForTenant(c.UserContext(), principal(c), c.Params("tenantId"))
	if err != nil {
		return respondErr(c, err)
	}
	c.Locals(http.DETAIL, rows)
	c.Locals(http.OPERATION, "list tenant modules")
	return nil
}

func (rt *Router) installModule(c *fiber.Ctx) error {
	row, err := rt.Installs.Install(c.UserContext(), principal(c), c.Params("tenantId"), c.Params("moduleId"))
	if err != nil {
		return respondErr(c, err)
	}
	c.Locals(http.DETAIL, row)
	c.Locals(http.OPERATION, "install module")
	return nil
}

func (rt *Router) uninstallModule(c *fiber.Ctx) error {
	if err := rt.Installs.Uninstall(c.UserContext(), principal(c), c.Params("tenantId"), c.Params("moduleId")); err != nil {
		return respondErr(c, err)
	}
	c.Locals(http.OPERATION, "uninstall module")
	return nil
}

func (rt *Router) setModuleEnabled(c *fiber.Ctx) error {
	var req enabledRequest
	if err := c.BodyParser(&req); err != nil || req.Enabled == nil {
		return badRequest(c, "enabled is required")
	}
	tenantId, moduleId := c.Params("tenantId"), c.Params("moduleId")
	if err := rt.Installs.SetEnabled(c.UserContext(), principal(c), tenantId, moduleId, *req.Enabled); err != nil {
		return respondErr(c, err)
	}
	c.Locals(http.DETAIL, fiber.Map{"tenantId": tenantId, "moduleId": moduleId, "enabled": *req.Enabled})
	c.Locals(http.OPERATION, "set module enabled")
	return nil
}
