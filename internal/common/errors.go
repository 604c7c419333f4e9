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

package common

import "errors"

// Validation errors. Detected before any I/O; always local and recoverable.
var (
	ErrPathIsEmpty          = errors.New("path is empty")
	ErrPathHasRoot          = errors.New("path has root")
	ErrEmptySearchPath      = errors.New("search path is empty")
	ErrInvalidPathComponent = errors.New("invalid path component")
)

// Resolution errors. Arise from walking the entity graph; returned to the
// caller verbatim, never retried.
var (
	ErrPathNotFound          = errors.New("path not found")
	ErrPathExists            = errors.New("path already exists")
	ErrNotAFile              = errors.New("not a file")
	ErrNotADirectory         = errors.New("not a directory")
	ErrNotASymCidLink        = errors.New("not a symbolic cid link")
	ErrNotASymPathLink       = errors.New("not a symbolic path link")
	ErrSourceIsNotADir       = errors.New("source is not a directory")
	ErrTargetIsNotADir       = errors.New("target is not a directory")
	ErrBrokenSymCidLink      = errors.New("broken symbolic cid link")
	ErrSymCidLinkUnsupported = errors.New("symbolic cid link traversal not supported yet")
	ErrMaxFollowDepth        = errors.New("maximum symlink follow depth reached")
	ErrUnableToLoadEntity    = errors.New("unable to load entity")
)

// Orchestration errors. Fatal to the init/detach call in progress.
var (
	ErrMountPointNotEmpty = errors.New("mount point is not empty")
	ErrMountFailed        = errors.New("mount operation failed")
	ErrUnmountFailed      = errors.New("unmount operation failed")
	ErrNoMfsRootFound     = errors.New("no mfs root found in path hierarchy")
	ErrInitInProgress     = errors.New("filesystem is already being initialized")
)
