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

// Package repo persists marketplace entities through gorm.
package repo

import (
	"strings"

	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/google/wire"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var ProviderSet = wire.NewSet(
	ProvideDatabase,
	NewUploadRepo,
	NewMarketplaceRepo,
	NewInstallationRepo,
	NewPlanRepo,
)

// wrap maps gorm errors onto the shared taxonomy and records a stack.
func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.WithStack(errs.ErrNotFound)
	case isDuplicate(err):
		return errors.WithStack(errs.ErrConflict)
	default:
		return errors.WithStack(err)
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}
