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

package upload

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-arcade/modhub/internal/hub/manifest"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/pkg/log"
	"github.com/go-arcade/modhub/pkg/storage"
)

// OutputDirFunc resolves the bundle directory of a manifest.
type OutputDirFunc func(m *model.Manifest) string

// Publisher copies a validated bundle to the static serving path
// <id>/<version>/ of the configured storage.
type Publisher struct {
	storage   storage.StorageProvider
	ws        *Workspace
	outputDir OutputDirFunc
	retries   uint64
}

func NewPublisher(sp storage.StorageProvider, ws *Workspace, outputDir OutputDirFunc, conf Config) *Publisher {
	return &Publisher{storage: sp, ws: ws, outputDir: outputDir, retries: conf.PublishRetries}
}

// Publish uploads the bundle of u and returns the catalog row describing it.
func (p *Publisher) Publish(ctx context.Context, u *model.Upload) (*model.MarketplaceModule, error) {
	m := u.Manifest.Data()
	_, moduleDir, err := manifest.Find(p.ws.SourceDir(u.UploadId))
	if err != nil {
		return nil, fmt.Errorf("locate module of upload %s: %w", u.UploadId, err)
	}
	bundleDir := filepath.Join(moduleDir, filepath.FromSlash(p.outputDir(&m)))
	prefix := path.Join(m.Id, m.Version) + "/"

	var files int
	err = filepath.WalkDir(bundleDir, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(bundleDir, file)
		if err != nil {
			return err
		}
		files++
		return p.put(ctx, prefix+filepath.ToSlash(rel), file)
	})
	if err != nil {
		return nil, fmt.Errorf("publish %s@%s: %w", m.Id, m.Version, err)
	}

	entryURL := m.BuildConfig.RemoteEntryURL
	if !isAbsoluteURL(entryURL) {
		entryURL = p.storage.URL(prefix + m.BuildConfig.EntryFile())
	}
	log.Infow("[Publisher] bundle published",
		"moduleId", m.Id,
		"version", m.Version,
		"files", files,
		"entry", entryURL,
	)
	return model.NewMarketplaceModule(m, u.UploadId, entryURL, p.storage.URL(prefix)), nil
}

func (p *Publisher) put(ctx context.Context, objectName, file string) error {
	contentType := contentTypeOf(file)
	b := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), p.retries), ctx)
	return backoff.RetryNotify(func() error {
		f, err := os.Open(file)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer f.Close()
		st, err := f.Stat()
		if err != nil {
			return backoff.Permanent(err)
		}
		_, err = p.storage.PutObject(ctx, objectName, f, st.Size(), contentType)
		return err
	}, b, func(err error, wait time.Duration) {
		log.Warnw("[Publisher] put object failed, retrying",
			"object", objectName,
			"wait", wait,
			"error", err,
		)
	})
}

func newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	return b
}

func contentTypeOf(file string) string {
	if ct := mime.TypeByExtension(filepath.Ext(file)); ct != "" {
		return ct
	}
	if mt, err := mimetype.DetectFile(file); err == nil {
		return mt.String()
	}
	return "application/octet-stream"
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
