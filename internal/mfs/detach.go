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

	log "github.com/sirupsen/logrus"

	"monofs/internal/registry"
	"monofs/internal/util"
)

// Detach unmounts the filesystem instance whose root is at or above
// startDir (current directory when empty) and terminates its supervisor.
// Unmounting must succeed; supervisor reaping is best-effort, so registry
// lookup and signalling failures are logged and swallowed.
func Detach(ctx context.Context, startDir string, force bool) error {
	if startDir == "" {
		startDir = "."
	}

	// Step 1: locate the mfs root via upward search.
	mountDir, err := FindMfsRoot(startDir)
	if err != nil {
		return err
	}

	// Step 2: recover the metadata directory from the marker symlink.
	metaDir, err := ReadMetaDirLink(mountDir)
	if err != nil {
		return err
	}
	dbPath := DBPathFor(metaDir)

	// Step 3: unmount the host filesystem.
	if _, err := os.Stat(mountDir); err != nil {
		return fmt.Errorf("mount point %s: %w", mountDir, err)
	}
	if err := unmountNFS(ctx, mountDir, force); err != nil {
		return err
	}
	log.WithField("mount_dir", mountDir).Info("filesystem unmounted")

	// Steps 4-7: look up the supervisor PID and signal it.
	terminateSupervisor(ctx, dbPath, mountDir)
	return nil
}

// terminateSupervisor sends SIGTERM to the supervisor recorded for mountDir.
// Every failure here is non-fatal: the unmount already happened, and a
// supervisor that is gone or unreachable does not undo it.
func terminateSupervisor(ctx context.Context, dbPath, mountDir string) {
	reg, err := registry.Open(dbPath)
	if err != nil {
		log.WithError(err).Warn("could not open registry, skipping supervisor termination")
		return
	}
	defer reg.Close()

	pid, found, err := reg.GetSupervisorPID(ctx, mountDir)
	if err != nil {
		log.WithError(err).Warn("supervisor PID lookup failed, skipping termination")
		return
	}
	if !found {
		log.WithField("mount_dir", mountDir).Warn("no supervisor PID recorded, nothing to terminate")
		return
	}

	if !util.IsProcessRunning(int(pid)) {
		log.WithField("pid", pid).Info("supervisor already exited")
		return
	}
	if err := util.SignalTerm(int(pid)); err != nil {
		log.WithError(err).WithField("pid", pid).Warn("failed to signal supervisor")
		return
	}
	log.WithField("pid", pid).Info("supervisor terminated")
}
