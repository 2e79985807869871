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
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	WorkDir         string `mapstructure:"workDir" default:"/tmp/modhub/uploads"`
	MaxArchiveSize  int64  `mapstructure:"maxArchiveSize" default:"67108864"`
	MaxUnpackedSize int64  `mapstructure:"maxUnpackedSize" default:"536870912"`
	Workers         int    `mapstructure:"workers" default:"4"`
	AutoApprove     bool   `mapstructure:"autoApprove"`
	PublishRetries  uint64 `mapstructure:"publishRetries" default:"3"`
}

// Workspace hands out one working directory per upload. Nothing in it
// outlives the upload's terminal state.
type Workspace struct {
	root string
}

func NewWorkspace(conf Config) (*Workspace, error) {
	root := conf.WorkDir
	if root == "" {
		root = filepath.Join(os.TempDir(), "modhub", "uploads")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload work dir: %w", err)
	}
	return &Workspace{root: root}, nil
}

func (w *Workspace) Dir(uploadId string) string {
	return filepath.Join(w.root, uploadId)
}

func (w *Workspace) ArchivePath(uploadId string) string {
	return filepath.Join(w.Dir(uploadId), "archive")
}

// SourceDir is where the archive is unpacked.
func (w *Workspace) SourceDir(uploadId string) string {
	return filepath.Join(w.Dir(uploadId), "src")
}

func (w *Workspace) Exists(uploadId string) bool {
	st, err := os.Stat(w.SourceDir(uploadId))
	return err == nil && st.IsDir()
}

func (w *Workspace) Remove(uploadId string) error {
	return os.RemoveAll(w.Dir(uploadId))
}
