//go:build wireinject
// +build wireinject

package main

import (
	"github.com/go-arcade/modhub/internal/bootstrap"
	"github.com/go-arcade/modhub/internal/hub/build"
	"github.com/go-arcade/modhub/internal/hub/conf"
	"github.com/go-arcade/modhub/internal/hub/loader"
	"github.com/go-arcade/modhub/internal/hub/repo"
	"github.com/go-arcade/modhub/internal/hub/router"
	"github.com/go-arcade/modhub/internal/hub/service/install"
	"github.com/go-arcade/modhub/internal/hub/service/marketplace"
	"github.com/go-arcade/modhub/internal/hub/service/review"
	"github.com/go-arcade/modhub/internal/hub/service/upload"
	"github.com/go-arcade/modhub/pkg/cache"
	"github.com/go-arcade/modhub/pkg/database"
	"github.com/go-arcade/modhub/pkg/log"
	"github.com/go-arcade/modhub/pkg/metrics"
	"github.com/go-arcade/modhub/pkg/storage"
	"github.com/google/wire"
)

func initApp(configPath string) (*bootstrap.App, func(), error) {
	panic(wire.Build(
		// 配置层
		conf.ProviderSet,
		// 日志层（依赖 config）
		log.ProviderSet,
		// 数据层（依赖 config）
		database.ProviderSet,
		cache.ProviderSet,
		storage.ProviderSet,
		// 指标层
		metrics.ProviderSet,
		// 仓储层（依赖 database）
		repo.ProviderSet,
		// 服务层
		marketplace.ProviderSet,
		install.ProviderSet,
		build.ProviderSet,
		upload.ProviderSet,
		review.ProviderSet,
		loader.ProviderSet,
		// 路由层
		router.ProviderSet,
		// 应用层
		bootstrap.NewApp,
	))
}
