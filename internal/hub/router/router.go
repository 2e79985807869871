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

// Package router exposes the marketplace, install and loader services over HTTP.
package router

import (
	"strings"
	"time"

	"github.com/go-arcade/modhub/internal/hub/loader"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/internal/hub/service/install"
	"github.com/go-arcade/modhub/internal/hub/service/marketplace"
	"github.com/go-arcade/modhub/internal/hub/service/review"
	"github.com/go-arcade/modhub/internal/hub/service/upload"
	"github.com/go-arcade/modhub/pkg/http"
	"github.com/go-arcade/modhub/pkg/http/middleware"
	"github.com/go-arcade/modhub/pkg/storage"
	"github.com/go-arcade/modhub/pkg/trace"
	"github.com/go-arcade/modhub/pkg/version"
	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
)

type Router struct {
	Http        *http.Http
	Storage     storage.Storage
	Uploads     *upload.Service
	Review      *review.Gate
	Marketplace *marketplace.Service
	Installs    *install.Service
	Sessions    *loader.Manager
}

func NewRouter(
	httpConf *http.Http,
	storageConf storage.Storage,
	uploads *upload.Service,
	gate *review.Gate,
	catalog *marketplace.Service,
	installs *install.Service,
	sessions *loader.Manager,
) *Router {
	return &Router{
		Http:        httpConf,
		Storage:     storageConf,
		Uploads:     uploads,
		Review:      gate,
		Marketplace: catalog,
		Installs:    installs,
		Sessions:    sessions,
	}
}

func (rt *Router) Router() *fiber.App {
	bodyLimit := rt.Http.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = 64 * 1024 * 1024
	}

	app := fiber.New(fiber.Config{
		AppName:               "modhub",
		DisableStartupMessage: true,
		ReadTimeout:           time.Duration(rt.Http.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(rt.Http.WriteTimeout) * time.Second,
		IdleTimeout:           time.Duration(rt.Http.IdleTimeout) * time.Second,
		BodyLimit:             bodyLimit,
	})

	app.Use(
		fiberrecover.New(),
		middleware.RequestMiddleware(),
		middleware.AccessLogMiddleware(rt.Http),
		middleware.CorsMiddleware(),
		trace.FiberMiddleware(),
		middleware.UnifiedResponseMiddleware(),
	)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(version.GetVersion())
	})

	// 本地存储时直接提供已发布的模块资源
	if rt.Storage.Provider == "" || rt.Storage.Provider == storage.StorageLocal {
		prefix := "/" + strings.Trim(rt.Storage.PublicBase, "/")
		if prefix == "/" {
			prefix = "/modules"
		}
		app.Static(prefix, rt.Storage.LocalPath, fiber.Static{ByteRange: true})
	}

	auth := middleware.AuthorizationMiddleware(rt.Http.Auth.SecretKey)
	api := app.Group("/api/v1", auth)
	{
		rt.uploadRouter(api)
		rt.marketplaceRouter(api)
		rt.tenantRouter(api)
		rt.sessionRouter(api)
	}

	app.Use(func(c *fiber.Ctx) error {
		return http.WithRepErrMsg(c, http.NotFound.Code, "request path not found", c.Path())
	})
	return app
}

// principal reads the caller from the verified token.
func principal(c *fiber.Ctx) model.Principal {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return model.Principal{}
	}
	return model.Principal{UserId: claims.UserId, TenantId: claims.TenantId, Roles: claims.Roles}
}
