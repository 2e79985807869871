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

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFastCache_GetSet(t *testing.T) {
	ctx := context.Background()
	fc := NewFastCache(0)

	_, err := fc.Get(ctx, "missing").Result()
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, fc.Set(ctx, "k", "v", 0).Err())
	v, err := fc.Get(ctx, "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	n, err := fc.Del(ctx, "k", "missing").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = fc.Get(ctx, "k").Result()
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestFastCache_Expiry(t *testing.T) {
	ctx := context.Background()
	fc := NewFastCache(0)
	now := time.Now()
	fc.now = func() time.Time { return now }

	fc.Set(ctx, "k", []byte("v"), time.Minute)
	_, ok := fc.GetBytes("k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = fc.GetBytes("k")
	assert.False(t, ok)

	fc.Set(ctx, "k2", "v", time.Minute)
	ok, err := fc.Expire(ctx, "k2", time.Hour).Result()
	require.NoError(t, err)
	assert.True(t, ok)
	now = now.Add(30 * time.Minute)
	v, ok := fc.GetBytes("k2")
	assert.True(t, ok)
	assert.Equal(t, "v", string(v))

	ok, _ = fc.Expire(ctx, "missing", time.Hour).Result()
	assert.False(t, ok)
}

func TestFastCache_Reset(t *testing.T) {
	fc := NewFastCache(0)
	fc.SetBytes("a", []byte("1"), 0)
	fc.SetBytes("b", []byte("2"), 0)
	assert.Equal(t, uint64(2), fc.EntriesCount())
	fc.Reset()
	assert.Equal(t, uint64(0), fc.EntriesCount())
}
