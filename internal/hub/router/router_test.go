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
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/modhub/internal/hub/build"
	"github.com/go-arcade/modhub/internal/hub/loader"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/internal/hub/repo"
	"github.com/go-arcade/modhub/internal/hub/repo/repotest"
	"github.com/go-arcade/modhub/internal/hub/service/install"
	"github.com/go-arcade/modhub/internal/hub/service/marketplace"
	"github.com/go-arcade/modhub/internal/hub/service/review"
	"github.com/go-arcade/modhub/internal/hub/service/upload"
	"github.com/go-arcade/modhub/pkg/cache"
	"github.com/go-arcade/modhub/pkg/http"
	"github.com/go-arcade/modhub/pkg/http/jwt"
	"github.com/go-arcade/modhub/pkg/metrics"
	"github.com/go-arcade/modhub/pkg/sandbox"
	"github.com/go-arcade/modhub/pkg/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

const weatherManifest = `{
	"id": "weather-lite",
	"name": "weather-lite",
	"display_name": "Weather Lite",
	"version": "1.0.0",
	"module_type": "ADDON_FREE",
	"required_plan_type": "basic",
	"route_path": "/weather",
	"build_config": {
		"remote_entry_url": "/modules/weather-lite/1.0.0/remoteEntry.json",
		"scope": "weatherLite",
		"exposed_module": "./WeatherPanel",
		"slots": ["context-panel"]
	},
	"metadata": {"category": "weather"}
}`

var (
	developer = model.Principal{UserId: "dev-1", TenantId: "acme", Roles: []string{model.RoleDeveloper}}
	reviewer  = model.Principal{UserId: "rev-1", Roles: []string{model.RoleModuleReviewer}}
	acmeAdmin = model.Principal{UserId: "ops-1", TenantId: "acme", Roles: []string{model.RoleTenantAdmin}}
	otherUser = model.Principal{UserId: "ops-2", TenantId: "globex", Roles: []string{model.RoleTenantAdmin}}
	platform  = model.Principal{UserId: "root", Roles: []string{model.RolePlatformAdmin}}
)

// distSandbox writes a federation container into dist/ like a successful build.
type distSandbox struct{}

func (distSandbox) Run(_ context.Context, opts *sandbox.CreateOptions, exec *sandbox.ExecuteOptions) (*sandbox.ExecuteResult, error) {
	_, _ = io.WriteString(exec.Stdout, "build complete\n")
	dist := filepath.Join(opts.Mounts[0].Source, "dist")
	if err := os.MkdirAll(dist, 0o755); err != nil {
		return nil, err
	}
	entry := `{"name":"weatherLite","exposes":{"./WeatherPanel":"./panel.js"},` +
		`"shared":{"react":{"singleton":true,"external":true,"requiredVersion":"^18.2.0"}},` +
		`"widgets":[{"id":"forecast","slot":"context-panel","priority":5,"when":"entity.type == 'AgriParcel'"}]}`
	if err := os.WriteFile(filepath.Join(dist, "remoteEntry.json"), []byte(entry), 0o644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dist, "panel.js"), []byte("export default {}"), 0o644); err != nil {
		return nil, err
	}
	return &sandbox.ExecuteResult{Duration: time.Millisecond}, nil
}

func (distSandbox) Close() error { return nil }

type envelope struct {
	Code   int             `json:"code"`
	Msg    string          `json:"msg"`
	Detail json.RawMessage `json:"detail"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db := repotest.NewDB(t)
	c := cache.NewFastCache(1 << 20)
	installRows := repo.NewInstallationRepo(db)
	uploads := repo.NewUploadRepo(db)
	mpConf := marketplace.Config{}
	catalog := marketplace.NewService(repo.NewMarketplaceRepo(db), installRows,
		marketplace.NewCachedPlans(repo.NewPlanRepo(db), c, mpConf), c, mpConf)
	installs := install.NewService(installRows, catalog, metrics.Nop())

	assets := t.TempDir()
	storageConf := storage.Storage{Provider: storage.StorageLocal, LocalPath: assets, PublicBase: "/modules"}
	sp, err := storage.NewStorage(&storageConf)
	require.NoError(t, err)

	upConf := upload.Config{WorkDir: t.TempDir(), MaxArchiveSize: 1 << 20, MaxUnpackedSize: 4 << 20, Workers: 2}
	ws, err := upload.NewWorkspace(upConf)
	require.NoError(t, err)
	runner := build.NewRunner(distSandbox{}, build.Config{
		Image:          "node:20-alpine",
		InstallCommand: "npm ci",
		BuildCommand:   "npm run build",
		OutputDir:      "dist",
		Timeout:        time.Minute,
		LogTailBytes:   256,
	}, metrics.Nop())
	gate := review.NewGate(uploads, upload.NewPublisher(sp, ws, runner.OutputDir, upConf), catalog, ws, metrics.Nop())
	svc := upload.NewService(upConf, uploads, runner, ws, upload.ManualReview{}, gate, metrics.Nop())
	t.Cleanup(svc.Close)

	loaderConf := loader.Config{
		SessionTTL:       time.Minute,
		FetchTimeout:     time.Second,
		BundleCacheBytes: 1 << 20,
		BundleCacheTTL:   time.Minute,
		RuntimeName:      "react",
		RuntimeVersion:   "18.3.1",
		SharedDeps:       []string{"react"},
	}
	sessions, cleanup := loader.ProvideManager(loaderConf, loader.NewFetcher(loaderConf, sp), installs, metrics.Nop())
	t.Cleanup(cleanup)

	httpConf := &http.Http{Auth: http.Auth{SecretKey: testSecret, Issuer: "modhub"}}
	return NewRouter(httpConf, storageConf, svc, gate, catalog, installs, sessions).Router()
}

func token(t *testing.T, p model.Principal) string {
	t.Helper()
	tk, err := jwt.GenToken(jwt.AuthClaims{UserId: p.UserId, TenantId: p.TenantId, Roles: p.Roles}, []byte(testSecret), "modhub", time.Hour)
	require.NoError(t, err)
	return tk
}

func call(t *testing.T, app *fiber.App, p *model.Principal, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case *multipartBody:
		reader, contentType = &b.buf, b.contentType
	default:
		raw, err := sonic.Marshal(b)
		require.NoError(t, err)
		reader, contentType = bytes.NewReader(raw), fiber.MIMEApplicationJSON
	}
	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set(fiber.HeaderContentType, contentType)
	}
	if p != nil {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token(t, *p))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, sonic.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

type multipartBody struct {
	buf         bytes.Buffer
	contentType string
}

func archiveForm(t *testing.T, files map[string]string) *multipartBody {
	t.Helper()
	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	mb := &multipartBody{}
	mw := multipart.NewWriter(&mb.buf)
	fw, err := mw.CreateFormFile("file", "weather-lite.zip")
	require.NoError(t, err)
	_, err = fw.Write(archive.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	mb.contentType = mw.FormDataContentType()
	return mb
}

func detail[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, sonic.Unmarshal(env.Detail, &out))
	return out
}

func TestRouter_RequiresToken(t *testing.T) {
	app := newTestApp(t)

	status, env := call(t, app, nil, fiber.MethodGet, "/api/v1/marketplace/modules", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, http.TokenBeEmpty.Code, env.Code)

	status, _ = call(t, app, nil, fiber.MethodGet, "/health", nil)
	assert.Equal(t, nethttp.StatusOK, status)
}

func TestRouter_UploadToSlot(t *testing.T) {
	app := newTestApp(t)

	status, env := call(t, app, &developer, fiber.MethodPost, "/api/v1/uploads", archiveForm(t, map[string]string{
		"manifest.json": weatherManifest,
	}))
	require.Equal(t, nethttp.StatusAccepted, status, env.Msg)
	accepted := detail[map[string]string](t, env)
	uploadId := accepted["upload_id"]
	require.NotEmpty(t, uploadId)
	assert.Equal(t, "weather-lite", accepted["module_id"])

	require.Eventually(t, func() bool {
		_, env := call(t, app, &reviewer, fiber.MethodGet, "/api/v1/uploads/"+uploadId, nil)
		return detail[uploadDTO](t, env).Status == model.StatusValidatedWaitingReview
	}, 5*time.Second, 20*time.Millisecond)

	status, env = call(t, app, &developer, fiber.MethodPost, "/api/v1/uploads/"+uploadId+"/approve", nil)
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, http.PermissionDenied.Code, env.Code)

	status, env = call(t, app, &reviewer, fiber.MethodPost, "/api/v1/uploads/"+uploadId+"/approve", nil)
	require.Equal(t, nethttp.StatusOK, status, env.Msg)
	assert.Equal(t, model.StatusPublished, detail[uploadDTO](t, env).Status)

	status, env = call(t, app, &reviewer, fiber.MethodPost, "/api/v1/uploads/"+uploadId+"/approve", nil)
	assert.Equal(t, nethttp.StatusConflict, status)
	assert.Equal(t, http.Conflict.Code, env.Code)

	status, _ = call(t, app, nil, fiber.MethodGet, "/modules/weather-lite/1.0.0/remoteEntry.json", nil)
	assert.Equal(t, nethttp.StatusOK, status)

	_, env = call(t, app, &acmeAdmin, fiber.MethodGet, "/api/v1/marketplace/modules?category=weather", nil)
	modules := detail[[]model.MarketplaceModule](t, env)
	require.Len(t, modules, 1)
	assert.Equal(t, "/modules/weather-lite/1.0.0/remoteEntry.json", modules[0].RemoteEntryURL)

	_, env = call(t, app, &acmeAdmin, fiber.MethodGet, "/api/v1/marketplace/modules/weather-lite/eligibility", nil)
	assert.True(t, detail[marketplace.Decision](t, env).Allowed)

	status, env = call(t, app, &otherUser, fiber.MethodPost, "/api/v1/tenants/acme/modules/weather-lite", nil)
	assert.Equal(t, nethttp.StatusForbidden, status, env.Msg)

	status, env = call(t, app, &acmeAdmin, fiber.MethodPost, "/api/v1/tenants/acme/modules/weather-lite", nil)
	require.Equal(t, nethttp.StatusOK, status, env.Msg)

	status, env = call(t, app, &acmeAdmin, fiber.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, nethttp.StatusCreated, status, env.Msg)
	sessionId := detail[map[string]any](t, env)["sessionId"].(string)

	slotPath := fmt.Sprintf("/api/v1/sessions/%s/slots/context-panel", sessionId)
	_, env = call(t, app, &acmeAdmin, fiber.MethodPost, slotPath, fiber.Map{
		"context": fiber.Map{"entity": fiber.Map{"type": "AgriParcel"}},
	})
	comp := detail[loader.Composition](t, env)
	require.Len(t, comp.Widgets, 1, "%+v", comp.Failures)
	assert.Equal(t, "forecast", comp.Widgets[0].WidgetId)

	_, env = call(t, app, &acmeAdmin, fiber.MethodPost, slotPath, fiber.Map{
		"context": fiber.Map{"entity": fiber.Map{"type": "Building"}},
	})
	assert.Empty(t, detail[loader.Composition](t, env).Widgets)

	status, _ = call(t, app, &otherUser, fiber.MethodPost, slotPath, nil)
	assert.Equal(t, nethttp.StatusForbidden, status)

	status, env = call(t, app, &acmeAdmin, fiber.MethodDelete, "/api/v1/tenants/acme/modules/weather-lite", nil)
	require.Equal(t, nethttp.StatusOK, status, env.Msg)
	_, env = call(t, app, &acmeAdmin, fiber.MethodPost, slotPath, fiber.Map{
		"context": fiber.Map{"entity": fiber.Map{"type": "AgriParcel"}},
	})
	assert.Empty(t, detail[loader.Composition](t, env).Widgets)

	status, _ = call(t, app, &acmeAdmin, fiber.MethodDelete, "/api/v1/sessions/"+sessionId, nil)
	assert.Equal(t, nethttp.StatusOK, status)
	status, _ = call(t, app, &acmeAdmin, fiber.MethodPost, slotPath, nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
}

func TestRouter_Marketplace(t *testing.T) {
	app := newTestApp(t)

	status, env := call(t, app, &platform, fiber.MethodPut, "/api/v1/marketplace/modules/absent/activation", fiber.Map{"active": false})
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, http.NotFound.Code, env.Code)

	status, env = call(t, app, &platform, fiber.MethodPut, "/api/v1/marketplace/modules/absent/activation", fiber.Map{})
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, http.BadRequest.Code, env.Code)

	status, env = call(t, app, &acmeAdmin, fiber.MethodGet, "/api/v1/marketplace/modules/absent/eligibility", nil)
	assert.Equal(t, nethttp.StatusNotFound, status, env.Msg)

	status, env = call(t, app, &acmeAdmin, fiber.MethodPost, "/api/v1/tenants/acme/modules/absent", nil)
	assert.Equal(t, nethttp.StatusNotFound, status, env.Msg)

	status, _ = call(t, app, &acmeAdmin, fiber.MethodGet, "/api/v1/uploads", nil)
	assert.Equal(t, nethttp.StatusBadRequest, status)

	status, env = call(t, app, &acmeAdmin, fiber.MethodGet, "/api/v1/nowhere", nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.True(t, strings.HasSuffix(env.Msg, "not found"))
}
