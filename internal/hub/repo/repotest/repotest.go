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

// Package repotest opens migrated in-memory databases for tests.
package repotest

import (
	"testing"

	"github.com/go-arcade/modhub/internal/hub/repo"
	"github.com/go-arcade/modhub/pkg/database"
	"github.com/stretchr/testify/require"
)

// NewDB returns a migrated in-memory SQLite database closed with t.
func NewDB(t testing.TB) database.IDatabase {
	t.Helper()
	manager, err := database.NewManager(database.Database{
		Driver: "sqlite",
		SQLite: database.SQLiteConfig{Path: ":memory:"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })
	db, err := repo.ProvideDatabase(manager, database.Database{Driver: "sqlite", AutoMigrate: true})
	require.NoError(t, err)
	return db
}
