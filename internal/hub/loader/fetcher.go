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

package loader

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/pkg/cache"
	"github.com/go-arcade/modhub/pkg/storage"
	"github.com/go-resty/resty/v2"
)

// BundleSource returns the entry bundle of a published module.
type BundleSource interface {
	Fetch(ctx context.Context, m *model.MarketplaceModule) ([]byte, error)
}

// Fetcher reads entry bundles over HTTP when the entry URL is absolute and
// from object storage otherwise. Bundles are cached by id, version and URL.
type Fetcher struct {
	client  *resty.Client
	storage storage.StorageProvider
	bundles *cache.FastCache
	ttl     time.Duration
}

func NewFetcher(conf Config, sp storage.StorageProvider) *Fetcher {
	client := resty.New().
		SetTimeout(conf.FetchTimeout).
		SetRetryCount(conf.FetchRetries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return &Fetcher{
		client:  client,
		storage: sp,
		bundles: cache.NewFastCache(conf.BundleCacheBytes),
		ttl:     conf.BundleCacheTTL,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, m *model.MarketplaceModule) ([]byte, error) {
	key := "bundle:" + m.ModuleId + "@" + m.Version + ":" + m.RemoteEntryURL
	if b, ok := f.bundles.GetBytes(key); ok {
		return b, nil
	}

	var (
		body []byte
		err  error
	)
	if isAbsoluteURL(m.RemoteEntryURL) {
		body, err = f.fetchHTTP(ctx, m.RemoteEntryURL)
	} else {
		body, err = f.fetchObject(ctx, m.RemoteEntryURL)
	}
	if err != nil {
		return nil, err
	}
	f.bundles.SetBytes(key, body, f.ttl)
	return body, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}

// fetchObject maps a public asset URL back to its object name.
func (f *Fetcher) fetchObject(ctx context.Context, url string) ([]byte, error) {
	if f.storage == nil {
		return nil, fmt.Errorf("fetch %s: no object storage configured", url)
	}
	base := strings.TrimSuffix(f.storage.URL(""), "/")
	name := strings.TrimPrefix(strings.TrimPrefix(url, base), "/")
	b, err := f.storage.GetObject(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return b, nil
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
