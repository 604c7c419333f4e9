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
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"

	"monofs/internal/common"
	"monofs/internal/registry"
	"monofs/internal/util"
)

// InitConfig carries the resolved configuration for one Init call. All
// lookups (settings file, environment) happen at the CLI boundary; Init
// itself only consumes explicit values.
type InitConfig struct {
	Host      string
	StartPort int
	PortRange int
	RunnerExe string // resolved path to the mfsrun binary
}

// Init brings a filesystem instance up at mountDir (current directory when
// empty) and returns the allocated NFS port. Steps run strictly in order;
// the first failure aborts the rest. A supervisor already spawned when a
// later step fails is left running and will be reaped by a future detach.
func Init(ctx context.Context, mountDir string, cfg InitConfig) (int, error) {
	// Step 1: canonicalize the mount directory, creating it if absent.
	if mountDir == "" {
		mountDir = "."
	}
	mountDir, err := filepath.Abs(mountDir)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve mount dir: %w", err)
	}
	if err := os.MkdirAll(mountDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create mount dir %s: %w", mountDir, err)
	}

	// Step 2: derive and create the adjacent metadata directory.
	metaDir := MetaDirFor(mountDir)
	if err := os.MkdirAll(metaDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create metadata dir %s: %w", metaDir, err)
	}

	// Concurrent init on the same mount dir races on everything below; fail
	// fast instead.
	lock := flock.New(filepath.Join(metaDir, InitLockName))
	locked, err := lock.TryLock()
	if err != nil {
		return 0, fmt.Errorf("failed to acquire init lock: %w", err)
	}
	if !locked {
		return 0, fmt.Errorf("%w: %s", common.ErrInitInProgress, mountDir)
	}
	defer lock.Unlock()

	// Step 3: allocate a port for the NFS server.
	port, err := FindAvailablePort(cfg.Host, cfg.StartPort, cfg.PortRange)
	if err != nil {
		return 0, err
	}
	log.WithFields(log.Fields{"mount_dir": mountDir, "port": port}).Debug("allocated NFS port")

	// Step 4: create the log and block store subdirectories.
	logDir := LogDirFor(metaDir)
	blocksDir := BlocksDirFor(metaDir)
	for _, dir := range []string{logDir, blocksDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	// Step 5: create the database and apply migrations.
	dbPath := DBPathFor(metaDir)
	reg, err := registry.Open(dbPath)
	if err != nil {
		return 0, err
	}
	reg.Close()

	// Step 6: the runner binary is resolved by the caller; require it here.
	if cfg.RunnerExe == "" {
		return 0, &RunnerNotFoundError{Path: DefaultRunnerExe, Source: "default path"}
	}

	// Step 7: spawn the supervisor.
	childName := filepath.Base(mountDir)
	args := []string{
		"supervisor",
		"--log-dir", logDir,
		"--child-name", childName,
		"--host", cfg.Host,
		"--port", strconv.Itoa(port),
		"--store-dir", blocksDir,
		"--fs-db-path", dbPath,
		"--mount-dir", mountDir,
	}
	proc, err := util.StartBackgroundProcess(cfg.RunnerExe, args, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to spawn supervisor: %w", err)
	}
	log.WithFields(log.Fields{"pid": proc.Pid, "port": port}).Debug("supervisor spawned")

	// Step 8: wait for the server to accept connections. 50ms polling with
	// no overall timeout; the mount client's own retry backoff is measured
	// in seconds, so waiting here is the cheaper side. Callers bound the
	// wait through ctx.
	if err := util.WaitForPort(ctx, cfg.Host, port); err != nil {
		return 0, fmt.Errorf("supervisor never became reachable on %s:%d: %w", cfg.Host, port, err)
	}

	// Step 9: mount. The mount point must exist and be empty.
	if err := checkMountPointEmpty(mountDir); err != nil {
		return 0, err
	}
	if err := mountNFS(ctx, cfg.Host, port, mountDir); err != nil {
		return 0, err
	}

	// Step 10: drop the marker symlink so detach can find the metadata dir.
	if err := os.Symlink(metaDir, filepath.Join(mountDir, MarkerLinkName)); err != nil {
		return 0, fmt.Errorf("failed to create mount marker: %w", err)
	}

	log.WithFields(log.Fields{"mount_dir": mountDir, "port": port}).Info("filesystem mounted")
	return port, nil
}
