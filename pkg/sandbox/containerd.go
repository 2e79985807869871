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

package sandbox

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/cio"
	"github.com/containerd/containerd/containers"
	"github.com/containerd/containerd/namespaces"
	"github.com/containerd/containerd/oci"
	"github.com/go-arcade/modhub/pkg/id"
	"github.com/go-arcade/modhub/pkg/log"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

const killGracePeriod = 10 * time.Second

type ContainerdConfig struct {
	// UnixSocket is the containerd unix socket path
	UnixSocket string `default:"/run/containerd/containerd.sock"`

	// Namespace is the containerd namespace
	Namespace string `default:"modhub"`
}

// ContainerdSandbox runs commands in containerd containers.
type ContainerdSandbox struct {
	client *containerd.Client
	config ContainerdConfig

	mu         sync.Mutex
	containers map[string]containerd.Container
}

func NewContainerdSandbox(config ContainerdConfig) (*ContainerdSandbox, error) {
	if config.UnixSocket == "" {
		config.UnixSocket = "/run/containerd/containerd.sock"
	}
	if config.Namespace == "" {
		config.Namespace = "modhub"
	}

	client, err := containerd.New(config.UnixSocket)
	if err != nil {
		return nil, fmt.Errorf("connect to containerd: %w", err)
	}

	log.Infow("containerd sandbox initialized",
		"socket", config.UnixSocket,
		"namespace", config.Namespace)

	return &ContainerdSandbox{
		client:     client,
		config:     config,
		containers: make(map[string]containerd.Container),
	}, nil
}

func (s *ContainerdSandbox) Run(ctx context.Context, opts *CreateOptions, execOpts *ExecuteOptions) (*ExecuteResult, error) {
	if opts == nil || len(opts.Command) == 0 {
		return nil, fmt.Errorf("command is required")
	}
	if execOpts == nil {
		execOpts = &ExecuteOptions{}
	}
	ctx = namespaces.WithNamespace(ctx, s.config.Namespace)
	// cleanup must survive a cancelled caller context
	cleanupCtx := context.WithoutCancel(ctx)

	container, err := s.create(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer s.remove(cleanupCtx, container)

	stdout, stderr := execOpts.Stdout, execOpts.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	result := &ExecuteResult{StartTime: time.Now()}

	task, err := container.NewTask(ctx, cio.NewCreator(cio.WithStreams(nil, stdout, stderr)))
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	defer func() {
		if _, err := task.Delete(cleanupCtx, containerd.WithProcessKill); err != nil {
			log.Debugw("delete task", "container_id", container.ID(), "error", err)
		}
	}()

	// Wait must be registered before Start to not miss a fast exit.
	statusC, err := task.Wait(cleanupCtx)
	if err != nil {
		return nil, fmt.Errorf("wait task: %w", err)
	}
	if err := task.Start(ctx); err != nil {
		return nil, fmt.Errorf("start task: %w", err)
	}

	runCtx := ctx
	if execOpts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, execOpts.Timeout)
		defer cancel()
	}

	select {
	case status := <-statusC:
		code, _, err := status.Result()
		if err != nil {
			return nil, fmt.Errorf("task exit status: %w", err)
		}
		result.ExitCode = int32(code)
	case <-runCtx.Done():
		if err := task.Kill(cleanupCtx, syscall.SIGKILL); err != nil {
			log.Warnw("kill timed out task", "container_id", container.ID(), "error", err)
		}
		select {
		case <-statusC:
		case <-time.After(killGracePeriod):
		}
		result.ExitCode = -1
		result.TimedOut = true
	}
	result.finish()

	log.Debugw("sandbox command finished",
		"container_id", container.ID(),
		"exit_code", result.ExitCode,
		"timed_out", result.TimedOut,
		"duration", result.Duration)

	return result, nil
}

func (s *ContainerdSandbox) create(ctx context.Context, opts *CreateOptions) (containerd.Container, error) {
	if opts.Image == "" {
		return nil, fmt.Errorf("image is required")
	}

	img, err := s.client.GetImage(ctx, opts.Image)
	if err != nil {
		log.Debugw("pulling image", "image", opts.Image)
		img, err = s.client.Pull(ctx, opts.Image, containerd.WithPullUnpack)
		if err != nil {
			return nil, fmt.Errorf("pull image %s: %w", opts.Image, err)
		}
	}

	specOpts := []oci.SpecOpts{
		oci.WithImageConfig(img),
		oci.WithProcessArgs(opts.Command...),
		oci.WithNoNewPrivileges,
	}
	if len(opts.Env) > 0 {
		env := make([]string, 0, len(opts.Env))
		for k, v := range opts.Env {
			env = append(env, k+"="+v)
		}
		specOpts = append(specOpts, oci.WithEnv(env))
	}
	if opts.WorkingDir != "" {
		specOpts = append(specOpts, oci.WithProcessCwd(opts.WorkingDir))
	}
	if opts.Hostname != "" {
		specOpts = append(specOpts, oci.WithHostname(opts.Hostname))
	}

	netOpts, err := networkOpts(opts.NetworkMode)
	if err != nil {
		return nil, err
	}
	specOpts = append(specOpts, netOpts...)

	if opts.Resources != nil {
		resOpt, err := withResources(opts.Resources)
		if err != nil {
			return nil, err
		}
		specOpts = append(specOpts, resOpt)
	}

	if len(opts.Mounts) > 0 {
		mounts := make([]specs.Mount, 0, len(opts.Mounts))
		for _, m := range opts.Mounts {
			mode := "rw"
			if m.ReadOnly {
				mode = "ro"
			}
			mounts = append(mounts, specs.Mount{
				Source:      m.Source,
				Destination: m.Target,
				Type:        "bind",
				Options:     []string{"rbind", mode},
			})
		}
		specOpts = append(specOpts, oci.WithMounts(mounts))
	}

	containerID := "modhub-" + id.GetXid()
	container, err := s.client.NewContainer(ctx, containerID,
		containerd.WithImage(img),
		containerd.WithNewSnapshot(containerID+"-snapshot", img),
		containerd.WithNewSpec(specOpts...),
		containerd.WithContainerLabels(opts.Labels),
	)
	if err != nil {
		return nil, fmt.Errorf("create container: %w", err)
	}

	s.mu.Lock()
	s.containers[containerID] = container
	s.mu.Unlock()

	log.Debugw("container created", "container_id", containerID, "image", opts.Image)
	return container, nil
}

func (s *ContainerdSandbox) remove(ctx context.Context, container containerd.Container) {
	s.mu.Lock()
	delete(s.containers, container.ID())
	s.mu.Unlock()

	if err := container.Delete(ctx, containerd.WithSnapshotCleanup); err != nil {
		log.Warnw("delete container", "container_id", container.ID(), "error", err)
	}
}

func (s *ContainerdSandbox) Close() error {
	ctx := namespaces.WithNamespace(context.Background(), s.config.Namespace)

	s.mu.Lock()
	leftover := make([]containerd.Container, 0, len(s.containers))
	for _, c := range s.containers {
		leftover = append(leftover, c)
	}
	s.mu.Unlock()

	for _, c := range leftover {
		if task, err := c.Task(ctx, nil); err == nil {
			_, _ = task.Delete(ctx, containerd.WithProcessKill)
		}
		s.remove(ctx, c)
	}
	return s.client.Close()
}

// networkOpts maps a network mode onto namespace spec options. The default
// spec already creates a fresh, empty network namespace.
func networkOpts(mode string) ([]oci.SpecOpts, error) {
	switch {
	case mode == "" || mode == "none":
		return []oci.SpecOpts{oci.WithLinuxNamespace(specs.LinuxNamespace{Type: specs.NetworkNamespace})}, nil
	case mode == "host":
		return []oci.SpecOpts{oci.WithHostNamespace(specs.NetworkNamespace), oci.WithHostHostsFile, oci.WithHostResolvconf}, nil
	case filepath.IsAbs(mode):
		// pre-provisioned namespace whose egress is restricted to allowed registries
		return []oci.SpecOpts{
			oci.WithLinuxNamespace(specs.LinuxNamespace{Type: specs.NetworkNamespace, Path: mode}),
			oci.WithHostResolvconf,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported network mode: %s", mode)
	}
}

func withResources(res *Resources) (oci.SpecOpts, error) {
	quota, period, err := parseCPU(res.CPU)
	if err != nil {
		return nil, err
	}
	memory, err := parseMemory(res.Memory)
	if err != nil {
		return nil, err
	}

	return func(_ context.Context, _ oci.Client, _ *containers.Container, spec *specs.Spec) error {
		if spec.Linux == nil {
			spec.Linux = &specs.Linux{}
		}
		if spec.Linux.Resources == nil {
			spec.Linux.Resources = &specs.LinuxResources{}
		}
		if quota > 0 {
			spec.Linux.Resources.CPU = &specs.LinuxCPU{Quota: &quota, Period: &period}
		}
		if memory > 0 {
			swap := memory
			spec.Linux.Resources.Memory = &specs.LinuxMemory{Limit: &memory, Swap: &swap}
		}
		if res.PidsLimit > 0 {
			spec.Linux.Resources.Pids = &specs.LinuxPids{Limit: res.PidsLimit}
		}
		return nil
	}, nil
}
