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

// Package build runs a module's install and build commands inside a disposable sandbox.
package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/pkg/log"
	"github.com/go-arcade/modhub/pkg/metrics"
	"github.com/go-arcade/modhub/pkg/sandbox"
)

const workspaceDir = "/workspace"

// Config holds sandbox limits and the default commands used when a
// manifest does not declare its own.
type Config struct {
	Image             string        `mapstructure:"image" default:"docker.io/library/node:20-alpine"`
	InstallCommand    string        `mapstructure:"installCommand" default:"npm ci"`
	BuildCommand      string        `mapstructure:"buildCommand" default:"npm run build"`
	OutputDir         string        `mapstructure:"outputDir" default:"dist"`
	Timeout           time.Duration `mapstructure:"timeout" default:"10m"`
	CPU               string        `mapstructure:"cpu" default:"1"`
	Memory            string        `mapstructure:"memory" default:"2G"`
	PidsLimit         int64         `mapstructure:"pidsLimit" default:"512"`
	Network           string        `mapstructure:"network" default:"none"` // none, host, or a netns path limited to AllowedRegistries
	AllowedRegistries []string      `mapstructure:"allowedRegistries"`
	LogTailBytes      int           `mapstructure:"logTailBytes" default:"4096"`
	MaxLogBytes       int           `mapstructure:"maxLogBytes" default:"4194304"`
}

type Request struct {
	UploadId string
	// SourceDir is the module root on the host, mounted read-write.
	SourceDir string
	Manifest  *model.Manifest
}

type Result struct {
	Log       string
	ExitCode  int32
	TimedOut  bool
	Duration  time.Duration
	EntryPath string
}

type Runner struct {
	sandbox sandbox.Sandbox
	conf    Config
	metrics *metrics.HubMetrics
}

func NewRunner(sb sandbox.Sandbox, conf Config, m *metrics.HubMetrics) *Runner {
	return &Runner{sandbox: sb, conf: conf, metrics: m}
}

// Run builds req.SourceDir. The returned Result is never nil and always
// carries the captured log; a failed build returns *errs.BuildError.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	bc := req.Manifest.BuildConfig
	installCmd := firstNonEmpty(bc.InstallCommand, r.conf.InstallCommand)
	buildCmd := firstNonEmpty(bc.BuildCommand, r.conf.BuildCommand)
	outputDir := firstNonEmpty(bc.OutputDir, r.conf.OutputDir)

	out := newLogBuffer(r.conf.MaxLogBytes)
	res := &Result{}
	start := time.Now()
	defer func() {
		res.Log = out.String()
		r.metrics.ObserveBuild(res.EntryPath != "", time.Since(start))
	}()

	if script := buildScript(installCmd, buildCmd); script != "" {
		log.Infow("[BuildRunner] starting build",
			"uploadId", req.UploadId,
			"moduleId", req.Manifest.Id,
			"image", r.conf.Image,
		)
		execRes, err := r.sandbox.Run(ctx, r.createOptions(req, script), &sandbox.ExecuteOptions{
			Stdout:  out,
			Stderr:  out,
			Timeout: r.conf.Timeout,
		})
		if err != nil {
			return res, r.fail(out, &errs.BuildError{ExitCode: -1, Cause: err})
		}
		res.ExitCode = execRes.ExitCode
		res.TimedOut = execRes.TimedOut
		res.Duration = execRes.Duration
		if execRes.TimedOut {
			return res, r.fail(out, &errs.BuildError{ExitCode: execRes.ExitCode, TimedOut: true})
		}
		if execRes.ExitCode != 0 {
			return res, r.fail(out, &errs.BuildError{ExitCode: execRes.ExitCode})
		}
	}

	entry := bc.EntryFile()
	entryPath := filepath.Join(req.SourceDir, filepath.FromSlash(outputDir), entry)
	if st, err := os.Stat(entryPath); err != nil || st.IsDir() {
		return res, r.fail(out, &errs.BuildError{MissingEntry: filepath.ToSlash(filepath.Join(outputDir, entry))})
	}
	res.EntryPath = entryPath
	log.Infow("[BuildRunner] build succeeded",
		"uploadId", req.UploadId,
		"duration", res.Duration,
	)
	return res, nil
}

// OutputDir returns the bundle directory for m, relative to the module root.
func (r *Runner) OutputDir(m *model.Manifest) string {
	return firstNonEmpty(m.BuildConfig.OutputDir, r.conf.OutputDir)
}

func (r *Runner) fail(out *logBuffer, be *errs.BuildError) error {
	be.LogTail = Tail(out.String(), r.conf.LogTailBytes)
	log.Warnw("[BuildRunner] build failed", "error", be.Error())
	return be
}

func (r *Runner) createOptions(req Request, script string) *sandbox.CreateOptions {
	env := map[string]string{
		"CI":                    "true",
		"HOME":                  "/tmp",
		"NPM_CONFIG_AUDIT":      "false",
		"NPM_CONFIG_FUND":       "false",
		"MODHUB_MODULE_ID":      req.Manifest.Id,
		"MODHUB_MODULE_VERSION": req.Manifest.Version,
	}
	if len(r.conf.AllowedRegistries) > 0 {
		env["NPM_CONFIG_REGISTRY"] = r.conf.AllowedRegistries[0]
	}
	return &sandbox.CreateOptions{
		Image:       r.conf.Image,
		Command:     []string{"/bin/sh", "-c", script},
		Env:         env,
		WorkingDir:  workspaceDir,
		NetworkMode: r.conf.Network,
		Resources: &sandbox.Resources{
			CPU:       r.conf.CPU,
			Memory:    r.conf.Memory,
			PidsLimit: r.conf.PidsLimit,
		},
		Mounts: []sandbox.Mount{{Source: req.SourceDir, Target: workspaceDir}},
		Labels: map[string]string{
			"modhub.upload": req.UploadId,
			"modhub.module": req.Manifest.Id,
		},
		Hostname: "build-" + req.UploadId,
	}
}

func buildScript(install, build string) string {
	var lines []string
	for _, cmd := range []string{install, build} {
		if cmd = strings.TrimSpace(cmd); cmd != "" {
			lines = append(lines, cmd)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "set -e\n" + strings.Join(lines, "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// IsBuildError reports whether err is a build failure rather than an
// infrastructure error.
func IsBuildError(err error) bool {
	var be *errs.BuildError
	return errors.As(err, &be)
}
