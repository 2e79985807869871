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
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss indicates that the key was not found in cache
var ErrCacheMiss = redis.Nil

// ICache 定义缓存接口
type ICache interface {
	// Get 获取缓存值，不存在时返回 ErrCacheMiss
	Get(ctx context.Context, key string) *redis.StringCmd
	// Set 设置缓存值，expiration 为 0 表示不过期
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	// Del 删除缓存
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	// Expire 设置过期时间
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Config selects the cache backend.
type Config struct {
	// Mode is "local" (in-process fastcache) or "redis"
	Mode  string `default:"local"`
	Redis Redis
	// LocalMaxBytes bounds the in-process cache
	LocalMaxBytes int `default:"33554432"`
}
