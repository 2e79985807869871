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

package repo_test

import (
	"testing"

	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/internal/hub/repo"
	"github.com/go-arcade/modhub/internal/hub/repo/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestUploadRepo_Lifecycle(t *testing.T) {
	db := repotest.NewDB(t)
	r := repo.NewUploadRepo(db)
	ctx := t.Context()

	u := &model.Upload{UploadId: "up-1", ModuleId: "weather-lite", Version: "1.0.0", Status: model.StatusUploaded}
	require.NoError(t, r.Create(ctx, u))

	u.Status = model.StatusValidating
	u.SetResults(model.ValidationResults{Schema: &model.CheckResult{Valid: true, Errors: []string{}}})
	u.Manifest = datatypes.NewJSONType(model.Manifest{Id: "weather-lite", Version: "1.0.0"})
	require.NoError(t, r.Transition(ctx, u, model.StatusUploaded))

	got, err := r.Get(ctx, "up-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusValidating, got.Status)
	assert.True(t, got.Results().Schema.Valid)
	assert.Nil(t, got.Results().Build)
	assert.Equal(t, "weather-lite", got.Manifest.Data().Id)

	// stale from-state loses
	u.Status = model.StatusRejected
	err = r.Transition(ctx, u, model.StatusUploaded)
	assert.ErrorIs(t, err, errs.ErrConflict)

	_, err = r.Get(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	validating, err := r.ListByStatus(ctx, model.StatusValidating)
	require.NoError(t, err)
	assert.Len(t, validating, 1)
}

func TestUploadRepo_TransitionKeepsDeclaredId(t *testing.T) {
	db := repotest.NewDB(t)
	r := repo.NewUploadRepo(db)
	ctx := t.Context()

	u := &model.Upload{UploadId: "up-2", Status: model.StatusUploaded}
	require.NoError(t, r.Create(ctx, u))

	// 归档顶层目录在解包后才知道
	u.DeclaredId = "soil-moisture"
	u.ModuleId = "weather-lite"
	u.Status = model.StatusValidating
	require.NoError(t, r.Transition(ctx, u, model.StatusUploaded))

	got, err := r.Get(ctx, "up-2")
	require.NoError(t, err)
	assert.Equal(t, "soil-moisture", got.DeclaredId)
	assert.Equal(t, "weather-lite", got.ModuleId)
}

func TestUploadRepo_VersionClaims(t *testing.T) {
	db := repotest.NewDB(t)
	r := repo.NewUploadRepo(db)
	ctx := t.Context()

	for _, id := range []string{"up-1", "up-2"} {
		require.NoError(t, r.Create(ctx, &model.Upload{UploadId: id, ModuleId: "weather-lite", Version: "1.0.0", Status: model.StatusValidating}))
	}

	taken, err := r.VersionTaken(ctx, "weather-lite", "1.0.0", "up-2")
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, r.ClaimVersion(ctx, "up-1", "weather-lite", "1.0.0"))
	taken, err = r.VersionTaken(ctx, "weather-lite", "1.0.0", "up-2")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = r.VersionTaken(ctx, "weather-lite", "1.0.0", "up-1")
	require.NoError(t, err)
	assert.False(t, taken)

	err = r.ClaimVersion(ctx, "up-2", "weather-lite", "1.0.0")
	assert.ErrorIs(t, err, errs.ErrConflict)

	list, err := r.ListByModule(ctx, "weather-lite")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "up-2", list[0].UploadId)
}

func TestMarketplaceRepo(t *testing.T) {
	db := repotest.NewDB(t)
	r := repo.NewMarketplaceRepo(db)
	ctx := t.Context()

	mods := []*model.MarketplaceModule{
		{ModuleId: "weather-lite", DisplayName: "Weather", Version: "1.0.0", Category: "weather", IsActive: true},
		{ModuleId: "soil-moisture", DisplayName: "Soil", Version: "2.0.0", Category: "sensors", IsActive: true},
		{ModuleId: "alpha-weather", DisplayName: "Weather", Version: "0.1.0", Category: "weather", IsActive: true},
	}
	for _, m := range mods {
		require.NoError(t, r.Upsert(ctx, m))
	}

	all, err := r.List(ctx, repo.ModuleFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"soil-moisture", "alpha-weather", "weather-lite"},
		[]string{all[0].ModuleId, all[1].ModuleId, all[2].ModuleId})

	require.NoError(t, r.SetActive(ctx, "weather-lite", false))
	active, err := r.List(ctx, repo.ModuleFilter{Category: "weather", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "alpha-weather", active[0].ModuleId)

	// a version bump keeps the activation flag
	require.NoError(t, r.Upsert(ctx, &model.MarketplaceModule{ModuleId: "weather-lite", DisplayName: "Weather", Version: "1.1.0", IsActive: true}))
	got, err := r.Get(ctx, "weather-lite")
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", got.Version)
	assert.False(t, got.IsActive)

	byIds, err := r.ListByIds(ctx, []string{"weather-lite", "soil-moisture"}, true)
	require.NoError(t, err)
	require.Len(t, byIds, 1)
	assert.Equal(t, "soil-moisture", byIds[0].ModuleId)

	assert.ErrorIs(t, r.SetActive(ctx, "missing", true), errs.ErrNotFound)
}

func TestInstallationRepo(t *testing.T) {
	db := repotest.NewDB(t)
	r := repo.NewInstallationRepo(db)
	ctx := t.Context()

	row := func() *model.TenantInstalledModule {
		return &model.TenantInstalledModule{TenantId: "t1", ModuleId: "weather-lite", Enabled: true, InstalledBy: "u1"}
	}
	require.NoError(t, r.Upsert(ctx, row()))
	require.NoError(t, r.SetEnabled(ctx, "t1", "weather-lite", false))
	require.NoError(t, r.Upsert(ctx, row()))

	rows, err := r.ListByTenant(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Enabled)

	n, err := r.Count(ctx, "t1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, r.Delete(ctx, "t1", "weather-lite"))
	require.NoError(t, r.Delete(ctx, "t1", "weather-lite"))
	_, err = r.Get(ctx, "t1", "weather-lite")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, r.SetEnabled(ctx, "t1", "weather-lite", true), errs.ErrNotFound)
}

func TestPlanRepo(t *testing.T) {
	db := repotest.NewDB(t)
	r := repo.NewPlanRepo(db)
	ctx := t.Context()

	_, err := r.Get(ctx, "t1")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, r.Upsert(ctx, &model.TenantPlan{TenantId: "t1", PlanType: model.PlanBasic}))
	require.NoError(t, r.Upsert(ctx, &model.TenantPlan{TenantId: "t1", PlanType: model.PlanPremium, ModuleCap: 3}))

	plan, err := r.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.PlanPremium, plan.PlanType)
	assert.Equal(t, 3, plan.ModuleCap)
}
