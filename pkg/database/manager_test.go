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

package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   uint64 `gorm:"primaryKey"`
	Name string
}

func TestNewManager_SQLite(t *testing.T) {
	m, err := NewManager(Database{
		Driver: "sqlite",
		SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	require.NoError(t, err)
	defer m.Close()

	db := NewDatabaseAdapter(m).Database()
	require.NoError(t, db.AutoMigrate(&widget{}))
	assert.True(t, db.Migrator().HasTable("t_widget"))

	require.NoError(t, WriteDB(db).Create(&widget{Name: "a"}).Error)
	var got widget
	require.NoError(t, ReadDB(db).First(&got).Error)
	assert.Equal(t, "a", got.Name)
}

func TestNewManager_UnsupportedDriver(t *testing.T) {
	_, err := NewManager(Database{Driver: "oracle"})
	assert.Error(t, err)
}

func TestBuildDialectors(t *testing.T) {
	d, err := buildDialectors(nil)
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = buildDialectors([]DatabaseSourceConfig{{Host: "db"}})
	assert.Error(t, err)

	d, err = buildDialectors([]DatabaseSourceConfig{{Host: "db", User: "u", DBName: "hub"}})
	require.NoError(t, err)
	assert.Len(t, d, 1)
}

func TestBuildMySQLDSN(t *testing.T) {
	assert.Equal(t,
		"u:p@tcp(db:3306)/hub?charset=utf8mb4&parseTime=True&loc=Local",
		buildMySQLDSN("u", "p", "db", "", "hub"))
}
