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
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/mholt/archives"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
)

var archiveMimeTypes = []string{"application/zip", "application/gzip", "application/x-tar"}

// receive stores r at dst and returns its blake3 digest and size. Archives
// larger than limit are refused.
func receive(dst string, r io.Reader, limit int64) (string, int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", 0, err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := blake3.New()
	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(io.MultiWriter(f, h), src)
	if err != nil {
		return "", n, fmt.Errorf("store archive: %w", err)
	}
	if limit > 0 && n > limit {
		return "", n, errors.Wrapf(errs.ErrInvalidArgument, "archive exceeds %d bytes", limit)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// sniff checks the stored file is a supported archive by content.
func sniff(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	for m := mt; m != nil; m = m.Parent() {
		for _, allowed := range archiveMimeTypes {
			if m.Is(allowed) {
				return mt.String(), nil
			}
		}
	}
	return "", errors.Wrapf(errs.ErrInvalidArgument, "unsupported archive type %s", mt.String())
}

// unpack extracts archivePath into dst. Entries escaping dst fail the
// unpack; links and special files are skipped.
func unpack(ctx context.Context, archivePath, dst string, limit int64) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	format, input, err := archives.Identify(ctx, filepath.Base(archivePath), f)
	if err != nil {
		return &errs.SchemaError{Message: fmt.Sprintf("unrecognized archive: %v", err)}
	}
	ex, ok := format.(archives.Extractor)
	if !ok {
		return &errs.SchemaError{Message: "archive format cannot be extracted"}
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	if limit <= 0 {
		limit = 1 << 40
	}

	var total int64
	err = ex.Extract(ctx, input, func(ctx context.Context, fi archives.FileInfo) error {
		target, err := safeJoin(dst, fi.NameInArchive)
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if fi.LinkTarget != "" || !fi.Mode().IsRegular() {
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		n, err := writeEntry(fi, target, limit-total)
		total += n
		return err
	})
	if err != nil {
		var se *errs.SchemaError
		if errors.As(err, &se) {
			return se
		}
		return &errs.SchemaError{Message: fmt.Sprintf("archive could not be unpacked: %v", err)}
	}
	return nil
}

func writeEntry(fi archives.FileInfo, target string, remaining int64) (int64, error) {
	rc, err := fi.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(rc, remaining+1))
	if err != nil {
		return n, err
	}
	if n > remaining {
		return n, &errs.SchemaError{Message: "archive expands beyond the unpacked size limit"}
	}
	return n, nil
}

func safeJoin(root, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", &errs.SchemaError{Message: fmt.Sprintf("archive entry %q escapes the package", name)}
	}
	return filepath.Join(root, clean), nil
}

// Extract checks archivePath is a supported archive and unpacks it into dst.
func Extract(ctx context.Context, archivePath, dst string, limit int64) error {
	if _, err := sniff(archivePath); err != nil {
		return err
	}
	return unpack(ctx, archivePath, dst, limit)
}
