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

package repo

import (
	"fmt"

	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/pkg/database"
	"github.com/go-arcade/modhub/pkg/log"
)

// Migrate creates or updates the hub tables.
func Migrate(manager database.Manager) error {
	if err := manager.DB().AutoMigrate(model.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// ProvideDatabase migrates when configured and hands the repositories their database.
func ProvideDatabase(manager database.Manager, conf database.Database) (database.IDatabase, error) {
	if conf.AutoMigrate {
		if err := Migrate(manager); err != nil {
			return nil, err
		}
		log.Infow("[Repo] schema migrated", "driver", conf.Driver, "tables", len(model.AllModels()))
	}
	return database.NewDatabaseAdapter(manager), nil
}
