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
	"fmt"
	"sync"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
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
	"github.com/spf13/viper"
)

// AppConfig holds all configuration settings
type AppConfig struct {
	Log         log.Conf                 `mapstructure:"log"`
	Http        http.Http                `mapstructure:"http"`
	Database    database.Database        `mapstructure:"database"`
	Cache       cache.Config             `mapstructure:"cache"`
	Storage     storage.Storage          `mapstructure:"storage"`
	Sandbox     sandbox.ContainerdConfig `mapstructure:"sandbox"`
	Build       build.Config             `mapstructure:"build"`
	Upload      upload.Config            `mapstructure:"upload"`
	Marketplace marketplace.Config       `mapstructure:"marketplace"`
	Loader      loader.Config            `mapstructure:"loader"`
	Metrics     metrics.MetricsConfig    `mapstructure:"metrics"`
	Trace       trace.Config             `mapstructure:"trace"`
}

var (
	cfg     *AppConfig
	loadErr error
	once    sync.Once
)

// NewConf loads the config file once per process.
func NewConf(confDir string) (*AppConfig, error) {
	once.Do(func() {
		cfg, loadErr = LoadConfigFile(confDir)
	})
	return cfg, loadErr
}

// LoadConfigFile reads a toml file over the struct defaults. Later edits of
// the file are validated and logged.
func LoadConfigFile(confDir string) (*AppConfig, error) {
	c := new(AppConfig)
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	config := viper.New()
	config.SetConfigFile(confDir) //文件名
	config.SetConfigType("toml")
	config.SetEnvPrefix("MODHUB")
	config.AutomaticEnv()

	if err := config.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}
	if err := config.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration file: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	config.WatchConfig()
	config.OnConfigChange(func(e fsnotify.Event) {
		log.Infow("The configuration changes, re-analyze the configuration file", "file", e.Name)
		next := new(AppConfig)
		if err := defaults.Set(next); err != nil {
			return
		}
		if err := config.Unmarshal(next); err != nil {
			log.Errorw("failed to unmarshal configuration file", "file", e.Name, "error", err)
			return
		}
		if err := next.Validate(); err != nil {
			log.Errorw("changed configuration is invalid", "file", e.Name, "error", err)
			return
		}
		// 已注入的组件持有启动时的副本，变更在重启后生效
		log.Warnw("configuration changed, restart to apply", "file", e.Name)
	})

	log.Infow("config file loaded",
		"path", confDir,
		"database.driver", c.Database.Driver,
		"storage.provider", c.Storage.Provider,
	)
	return c, nil
}

// Validate rejects settings the hub cannot start with.
func (c *AppConfig) Validate() error {
	if c.Http.Auth.SecretKey == "" {
		return fmt.Errorf("http.auth.secretKey is required")
	}
	if c.Http.BodyLimit > 0 && int64(c.Http.BodyLimit) < c.Upload.MaxArchiveSize {
		return fmt.Errorf("http.bodyLimit (%d) is smaller than upload.maxArchiveSize (%d)", c.Http.BodyLimit, c.Upload.MaxArchiveSize)
	}
	if c.Upload.Workers <= 0 {
		return fmt.Errorf("upload.workers must be positive")
	}
	if c.Loader.RuntimeName == "" || c.Loader.RuntimeVersion == "" {
		return fmt.Errorf("loader.runtimeName and loader.runtimeVersion are required")
	}
	return c.Log.Validate()
}
