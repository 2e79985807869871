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

package conf

import (
	"github.com/go-arcade/modhub/internal/hub/build"
	"github.com/go-arcade/modhub/internal/hub/loader"
	"github.com/go-arcade/modhub/internal/hub/service/marketplace"
	"github.com/go-arcade/modhub/internal/hub/service/upload"
	"github.com/go-arcade/modhub/pkg/cache"
	"github.com/go-arcade/modhub/pkg/database"
	"github.com/go-arcade/modhub/pkg/http"
	"github.com/go-arcade/modhub/pkg/log"
	"github.com/go-arcade/modhub/pkg/metrics"
	"github.com/go-arcade/modhub/pkg/sandbox"
	"github.com/go-arcade/modhub/pkg/storage"
	"github.com/go-arcade/modhub/pkg/trace"
	"github.com/google/wire"
)

// ProviderSet 提供配置层相关的依赖
var ProviderSet = wire.NewSet(
	ProvideConf,
	ProvideLogConfig,
	ProvideHttpConfig,
	ProvideDatabaseConfig,
	ProvideCacheConfig,
	ProvideStorageConfig,
	ProvideSandboxConfig,
	ProvideBuildConfig,
	ProvideUploadConfig,
	ProvideMarketplaceConfig,
	ProvideLoaderConfig,
	ProvideMetricsConfig,
	ProvideTraceConfig,
)

// ProvideConf 提供应用配置
func ProvideConf(configPath string) (*AppConfig, error) {
	return NewConf(configPath)
}

// ProvideLogConfig 提供日志配置
func ProvideLogConfig(appConf *AppConfig) *log.Conf {
	return &appConf.Log
}

// ProvideHttpConfig 提供 HTTP 配置
func ProvideHttpConfig(appConf *AppConfig) *http.Http {
	return &appConf.Http
}

// ProvideDatabaseConfig 提供数据库配置
func ProvideDatabaseConfig(appConf *AppConfig) database.Database {
	return appConf.Database
}

// ProvideCacheConfig 提供缓存配置
func ProvideCacheConfig(appConf *AppConfig) cache.Config {
	return appConf.Cache
}

// ProvideStorageConfig 提供对象存储配置
func ProvideStorageConfig(appConf *AppConfig) storage.Storage {
	return appConf.Storage
}

func ProvideSandboxConfig(appConf *AppConfig) sandbox.ContainerdConfig {
	return appConf.Sandbox
}

func ProvideBuildConfig(appConf *AppConfig) build.Config {
	return appConf.Build
}

func ProvideUploadConfig(appConf *AppConfig) upload.Config {
	return appConf.Upload
}

func ProvideMarketplaceConfig(appConf *AppConfig) marketplace.Config {
	return appConf.Marketplace
}

func ProvideLoaderConfig(appConf *AppConfig) loader.Config {
	return appConf.Loader
}

// ProvideMetricsConfig 提供 Metrics 配置
func ProvideMetricsConfig(appConf *AppConfig) metrics.MetricsConfig {
	return appConf.Metrics
}

func ProvideTraceConfig(appConf *AppConfig) trace.Config {
	return appConf.Trace
}
