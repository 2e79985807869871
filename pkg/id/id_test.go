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

package id_test

import (
	"strings"
	"testing"

	"github.com/go-arcade/modhub/pkg/id"
	"github.com/stretchr/testify/assert"
)

func TestGetXid(t *testing.T) {
	got := id.GetXid()
	assert.Len(t, got, 20)
	assert.NotEqual(t, got, id.GetXid())
}

func TestGetUUIDWithoutDashes(t *testing.T) {
	got := id.GetUUIDWithoutDashes()
	assert.Len(t, got, 32)
	assert.False(t, strings.Contains(got, "-"))
}

func TestGetUlid_Monotonic(t *testing.T) {
	prev := id.GetUlid()
	for range 100 {
		next := id.GetUlid()
		assert.Len(t, next, 26)
		assert.Greater(t, next, prev)
		prev = next
	}
}
