// Copyright 2025 MonoFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mfs

import (
	"fmt"
	"os"
	"path/filepath"

	"monofs/internal/common"
)

// MaxRootSearchDepthError reports an upward search that hit its depth bound
// before reaching the filesystem root.
type MaxRootSearchDepthError struct {
	MaxDepth int
	Path     string
}

func (e *MaxRootSearchDepthError) Error() string {
	return fmt.Sprintf("mfs root not found within %d levels above %s", e.MaxDepth, e.Path)
}

// FindMfsRoot walks upward from startDir looking for the directory holding
// the mount marker symlink. Returns the mount directory (the mfs root).
// Hitting the filesystem root without a marker fails ErrNoMfsRootFound;
// exceeding the depth bound fails with MaxRootSearchDepthError.
func FindMfsRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}

	for depth := 0; ; depth++ {
		if depth > MaxRootSearchDepth {
			return "", &MaxRootSearchDepthError{MaxDepth: MaxRootSearchDepth, Path: startDir}
		}
		marker := filepath.Join(dir, MarkerLinkName)
		if fi, err := os.Lstat(marker); err == nil && fi.Mode()&os.ModeSymlink != 0 {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: searched from %s", common.ErrNoMfsRootFound, startDir)
		}
		dir = parent
	}
}

// ReadMetaDirLink reads the marker symlink inside mountDir and returns the
// metadata directory it names.
func ReadMetaDirLink(mountDir string) (string, error) {
	target, err := os.Readlink(filepath.Join(mountDir, MarkerLinkName))
	if err != nil {
		return "", fmt.Errorf("failed to read mount marker in %s: %w", mountDir, err)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(mountDir, target)
	}
	return filepath.Clean(target), nil
}
