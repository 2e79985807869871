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

// Package sandbox runs short-lived commands in disposable, resource bounded containers.
package sandbox

import (
	"context"
	"io"
	"time"
)

// Sandbox runs one command per disposable container.
type Sandbox interface {
	// Run creates a container from opts, runs its process to completion and
	// removes the container. Output is streamed to the writers in execOpts.
	Run(ctx context.Context, opts *CreateOptions, execOpts *ExecuteOptions) (*ExecuteResult, error)

	// Close releases every container still tracked and the client connection.
	Close() error
}

type CreateOptions struct {
	// Image is the container image to use
	Image string

	// Command is the process to run
	Command []string

	// Env are environment variables
	Env map[string]string

	// WorkingDir is the working directory in the container
	WorkingDir string

	// NetworkMode is "none", "host", or an absolute path to a network namespace
	NetworkMode string

	// Resources are resource limits
	Resources *Resources

	// Mounts are bind mounts
	Mounts []Mount

	// Labels are container labels
	Labels map[string]string

	// Hostname is the container hostname
	Hostname string
}

type Resources struct {
	// CPU is CPU limit (e.g., "1", "0.5", "500m")
	CPU string

	// Memory is memory limit (e.g., "1G", "512M", "512Mi")
	Memory string

	// PidsLimit caps the number of processes, 0 means unlimited
	PidsLimit int64
}

type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

type ExecuteOptions struct {
	// Stdout is the stdout writer
	Stdout io.Writer

	// Stderr is the stderr writer
	Stderr io.Writer

	// Timeout bounds the wall-clock time of the process, 0 means unbounded
	Timeout time.Duration
}

type ExecuteResult struct {
	ExitCode  int32
	TimedOut  bool
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

func (r *ExecuteResult) finish() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}
