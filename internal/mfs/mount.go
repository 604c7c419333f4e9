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
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"monofs/internal/common"
)

// mountNFS mounts the NFS export at host:port onto mountDir. Options pin a
// single transport, disable locking and use soft timeout semantics so a dead
// server fails I/O instead of hanging the client forever.
func mountNFS(ctx context.Context, host string, port int, mountDir string) error {
	opts := fmt.Sprintf("nolocks,vers=3,tcp,port=%d,mountport=%d,soft", port, port)
	cmd := exec.CommandContext(ctx, "mount", "-t", "nfs", "-o", opts, host+":/", mountDir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: mount %s:%d at %s: %v: %s",
			common.ErrMountFailed, host, port, mountDir, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// unmountNFS unmounts mountDir, optionally forcing.
func unmountNFS(ctx context.Context, mountDir string, force bool) error {
	args := []string{}
	if force {
		args = append(args, "-f")
	}
	args = append(args, mountDir)
	cmd := exec.CommandContext(ctx, "umount", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: umount %s: %v: %s",
			common.ErrUnmountFailed, mountDir, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// checkMountPointEmpty verifies mountDir exists and holds no entries.
func checkMountPointEmpty(mountDir string) error {
	entries, err := os.ReadDir(mountDir)
	if err != nil {
		return fmt.Errorf("failed to read mount dir %s: %w", mountDir, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("%w: %s has %d entries", common.ErrMountPointNotEmpty, mountDir, len(entries))
	}
	return nil
}
