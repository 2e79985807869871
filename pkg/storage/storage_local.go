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

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps objects on the local filesystem.
type LocalStorage struct {
	root string
	s    *Storage
}

func newLocal(s *Storage) (*LocalStorage, error) {
	root := s.LocalPath
	if root == "" {
		root = "./data/modules"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStorage{root: abs, s: s}, nil
}

// Root returns the directory objects are stored under.
func (l *LocalStorage) Root() string {
	return l.root
}

func (l *LocalStorage) resolve(objectName string) (string, error) {
	full := filepath.Join(l.root, filepath.FromSlash(getFullPath(l.s.BasePath, objectName)))
	if full != l.root && !strings.HasPrefix(full, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("object name escapes storage root: %s", objectName)
	}
	return full, nil
}

func (l *LocalStorage) PutObject(ctx context.Context, objectName string, r io.Reader, _ int64, _ string) (string, error) {
	full, err := l.resolve(objectName)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", err
	}
	return getFullPath(l.s.BasePath, objectName), nil
}

func (l *LocalStorage) GetObject(_ context.Context, objectName string) ([]byte, error) {
	full, err := l.resolve(objectName)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	return data, err
}

func (l *LocalStorage) Delete(_ context.Context, objectName string) error {
	full, err := l.resolve(objectName)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (l *LocalStorage) URL(objectName string) string {
	return publicURL(l.s.PublicBase, getFullPath(l.s.BasePath, objectName))
}
