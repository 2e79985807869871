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

package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/pkg/metrics"
	"github.com/go-arcade/modhub/pkg/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSandbox struct {
	calls    int
	opts     *sandbox.CreateOptions
	output   string
	exitCode int32
	timedOut bool
	err      error
	// emit writes these files relative to the mounted source on success.
	emit []string
}

func (f *fakeSandbox) Run(_ context.Context, opts *sandbox.CreateOptions, exec *sandbox.ExecuteOptions) (*sandbox.ExecuteResult, error) {
	f.calls++
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	_, _ = fmt.Fprint(exec.Stdout, f.output)
	if f.exitCode == 0 && !f.timedOut {
		for _, name := range f.emit {
			p := filepath.Join(opts.Mounts[0].Source, name)
			if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
				return nil, err
			}
			if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
				return nil, err
			}
		}
	}
	return &sandbox.ExecuteResult{ExitCode: f.exitCode, TimedOut: f.timedOut, Duration: time.Second}, nil
}

func (f *fakeSandbox) Close() error { return nil }

func testConfig() Config {
	return Config{
		Image:          "node:20-alpine",
		InstallCommand: "npm ci",
		BuildCommand:   "npm run build",
		OutputDir:      "dist",
		Timeout:        time.Minute,
		Network:        "none",
		LogTailBytes:   64,
	}
}

func weatherLite() *model.Manifest {
	return &model.Manifest{
		Id:      "weather-lite",
		Version: "1.0.0",
		BuildConfig: model.BuildConfig{
			RemoteEntryURL: "/modules/weather-lite/1.0.0/remoteEntry.json",
			Scope:          "weatherLite",
			ExposedModule:  "./WeatherPanel",
		},
	}
}

func TestRunner_Success(t *testing.T) {
	sb := &fakeSandbox{output: "added 12 packages\nbuilt in 2s\n", emit: []string{"dist/remoteEntry.json"}}
	r := NewRunner(sb, testConfig(), metrics.Nop())
	src := t.TempDir()

	res, err := r.Run(t.Context(), Request{UploadId: "up-1", SourceDir: src, Manifest: weatherLite()})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(src, "dist", "remoteEntry.json"), res.EntryPath)
	assert.Contains(t, res.Log, "built in 2s")

	require.Equal(t, 1, sb.calls)
	assert.Equal(t, []string{"/bin/sh", "-c", "set -e\nnpm ci\nnpm run build"}, sb.opts.Command)
	assert.Equal(t, "none", sb.opts.NetworkMode)
	assert.Equal(t, src, sb.opts.Mounts[0].Source)
	assert.Equal(t, "weather-lite", sb.opts.Env["MODHUB_MODULE_ID"])
}

func TestRunner_ManifestOverrides(t *testing.T) {
	sb := &fakeSandbox{emit: []string{"build/out/remoteEntry.json"}}
	conf := testConfig()
	conf.AllowedRegistries = []string{"https://registry.npmjs.org"}
	r := NewRunner(sb, conf, nil)

	m := weatherLite()
	m.BuildConfig.InstallCommand = "pnpm install --frozen-lockfile"
	m.BuildConfig.BuildCommand = "pnpm build"
	m.BuildConfig.OutputDir = "build/out"

	_, err := r.Run(t.Context(), Request{UploadId: "up-2", SourceDir: t.TempDir(), Manifest: m})
	require.NoError(t, err)
	assert.Equal(t, "set -e\npnpm install --frozen-lockfile\npnpm build", sb.opts.Command[2])
	assert.Equal(t, "https://registry.npmjs.org", sb.opts.Env["NPM_CONFIG_REGISTRY"])
	assert.Equal(t, "build/out", r.OutputDir(m))
}

func TestRunner_Failures(t *testing.T) {
	longLog := strings.Repeat("npm WARN deprecated\n", 20) + "npm ERR! missing script: build\n"

	tests := []struct {
		name  string
		sb    *fakeSandbox
		check func(t *testing.T, be *errs.BuildError)
	}{
		{
			name: "non-zero exit",
			sb:   &fakeSandbox{output: longLog, exitCode: 1},
			check: func(t *testing.T, be *errs.BuildError) {
				assert.Equal(t, int32(1), be.ExitCode)
				assert.Contains(t, be.LogTail, "npm ERR! missing script: build")
				assert.LessOrEqual(t, len(be.LogTail), 64+len("...\n"))
			},
		},
		{
			name: "timeout",
			sb:   &fakeSandbox{output: "installing\n", exitCode: -1, timedOut: true},
			check: func(t *testing.T, be *errs.BuildError) {
				assert.True(t, be.TimedOut)
			},
		},
		{
			name: "missing entry bundle",
			sb:   &fakeSandbox{output: "done\n", emit: []string{"dist/main.js"}},
			check: func(t *testing.T, be *errs.BuildError) {
				assert.Equal(t, "dist/remoteEntry.json", be.MissingEntry)
			},
		},
		{
			name: "sandbox error",
			sb:   &fakeSandbox{err: errors.New("image pull failed")},
			check: func(t *testing.T, be *errs.BuildError) {
				assert.EqualError(t, be.Cause, "image pull failed")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(tt.sb, testConfig(), metrics.Nop())
			res, err := r.Run(t.Context(), Request{UploadId: "up-3", SourceDir: t.TempDir(), Manifest: weatherLite()})
			require.NotNil(t, res)
			assert.True(t, IsBuildError(err))
			var be *errs.BuildError
			require.ErrorAs(t, err, &be)
			tt.check(t, be)
			assert.Empty(t, res.EntryPath)
		})
	}
}

func TestRunner_NoCommandsChecksPrebuiltBundle(t *testing.T) {
	sb := &fakeSandbox{}
	conf := testConfig()
	conf.InstallCommand = ""
	conf.BuildCommand = ""
	r := NewRunner(sb, conf, nil)

	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "dist"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "dist", "remoteEntry.json"), []byte("{}"), 0o644))

	_, err := r.Run(t.Context(), Request{UploadId: "up-4", SourceDir: src, Manifest: weatherLite()})
	require.NoError(t, err)
	assert.Zero(t, sb.calls)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "short", Tail("short\n", 100))
	assert.Equal(t, "...\nline3", Tail("line1\nline2\nline3\n", 8))
	assert.Equal(t, "...\nxyz", Tail("abcxyz", 3))
	assert.Equal(t, "...\né", Tail("aé", 2))
}

func TestLogBuffer_KeepsTail(t *testing.T) {
	b := newLogBuffer(10)
	_, _ = b.Write([]byte("0123456789"))
	_, _ = b.Write([]byte("abc"))
	assert.Equal(t, truncatedMarker+"3456789abc", b.String())
}
