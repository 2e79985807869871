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
	"encoding/binary"
	"fmt"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/redis/go-redis/v9"
)

const expiryHeaderLen = 8

// FastCache is an in-process ICache backed by fastcache. Each entry is
// prefixed with its expiry as unix nanoseconds, 0 meaning no expiry.
type FastCache struct {
	cache *fastcache.Cache
	now   func() time.Time
}

func NewFastCache(maxBytes int) *FastCache {
	if maxBytes <= 0 {
		maxBytes = 32 * 1024 * 1024
	}
	return &FastCache{cache: fastcache.New(maxBytes), now: time.Now}
}

// GetBytes returns the raw value and whether it was present and unexpired.
func (fc *FastCache) GetBytes(key string) ([]byte, bool) {
	raw, ok := fc.cache.HasGet(nil, []byte(key))
	if !ok || len(raw) < expiryHeaderLen {
		return nil, false
	}
	exp := int64(binary.BigEndian.Uint64(raw[:expiryHeaderLen]))
	if exp != 0 && fc.now().UnixNano() > exp {
		fc.cache.Del([]byte(key))
		return nil, false
	}
	return raw[expiryHeaderLen:], true
}

// SetBytes stores value under key. Values larger than 64KB are not stored by
// fastcache and silently dropped.
func (fc *FastCache) SetBytes(key string, value []byte, ttl time.Duration) {
	buf := make([]byte, expiryHeaderLen+len(value))
	var exp int64
	if ttl > 0 {
		exp = fc.now().Add(ttl).UnixNano()
	}
	binary.BigEndian.PutUint64(buf, uint64(exp))
	copy(buf[expiryHeaderLen:], value)
	fc.cache.Set([]byte(key), buf)
}

func (fc *FastCache) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	v, ok := fc.GetBytes(key)
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(string(v))
	return cmd
}

func (fc *FastCache) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key)
	switch v := value.(type) {
	case string:
		fc.SetBytes(key, []byte(v), expiration)
	case []byte:
		fc.SetBytes(key, v, expiration)
	default:
		fc.SetBytes(key, []byte(fmt.Sprint(v)), expiration)
	}
	cmd.SetVal("OK")
	return cmd
}

func (fc *FastCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "del")
	var n int64
	for _, key := range keys {
		if fc.cache.Has([]byte(key)) {
			fc.cache.Del([]byte(key))
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (fc *FastCache) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx, "expire", key)
	v, ok := fc.GetBytes(key)
	if !ok {
		cmd.SetVal(false)
		return cmd
	}
	fc.SetBytes(key, append([]byte(nil), v...), expiration)
	cmd.SetVal(true)
	return cmd
}

// Reset drops every entry.
func (fc *FastCache) Reset() {
	fc.cache.Reset()
}

// EntriesCount returns the number of stored entries, expired ones included.
func (fc *FastCache) EntriesCount() uint64 {
	var s fastcache.Stats
	fc.cache.UpdateStats(&s)
	return s.EntriesCount
}
