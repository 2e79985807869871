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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/internal/hub/manifest"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/go-arcade/modhub/internal/hub/service/upload"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

type validateOptions struct {
	moduleId string
	output   string
	maxSize  int64
}

func newValidateCmd() *cobra.Command {
	opts := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate <dir|archive>",
		Short: "Validate the manifest of a module directory or archive",
		Args:  cobra.ExactArgs(1),
		// 校验失败时只输出原因，不打印用法
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.moduleId, "module-id", "", "module id the upload will be declared for")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "print the parsed manifest as json or yaml")
	cmd.Flags().Int64Var(&opts.maxSize, "max-unpacked-size", 512<<20, "bytes an archive may expand to")
	return cmd
}

func runValidate(ctx context.Context, out io.Writer, target string, opts *validateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	root, cleanup, err := sourceRoot(ctx, target, opts.maxSize)
	if err != nil {
		return err
	}
	defer cleanup()

	m, _, err := manifest.Load(root)
	if err == nil {
		err = manifest.Check(m, opts.moduleId)
	}
	var schemaErr *errs.SchemaError
	if errors.As(err, &schemaErr) {
		return fmt.Errorf("invalid manifest: %s", schemaErr.Error())
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s@%s is valid (kind %s, slots %v)\n", m.Id, m.Version, m.BuildConfig.ResolvedKind(), m.BuildConfig.Slots)
	return printManifest(out, m, opts.output)
}

// sourceRoot returns target itself for a directory, otherwise the archive
// unpacked into a temporary directory.
func sourceRoot(ctx context.Context, target string, limit int64) (string, func(), error) {
	info, err := os.Stat(target)
	if err != nil {
		return "", nil, err
	}
	if info.IsDir() {
		return target, func() {}, nil
	}
	dir, err := os.MkdirTemp("", "modhub-validate-")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }
	if err := upload.Extract(ctx, target, filepath.Join(dir, "src"), limit); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("unpack %s: %w", target, err)
	}
	return filepath.Join(dir, "src"), cleanup, nil
}

func printManifest(out io.Writer, m *model.Manifest, format string) error {
	var (
		b   []byte
		err error
	)
	switch format {
	case "":
		return nil
	case "json":
		b, err = sonic.ConfigStd.MarshalIndent(m, "", "  ")
	case "yaml":
		b, err = yaml.Marshal(m)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}
