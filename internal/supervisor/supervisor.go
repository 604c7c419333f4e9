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

// Package supervisor runs the serving subprocess lifecycle: it records its
// own PID in the mount registry so a later detach can find it, runs the
// NFS server as a child with per-run log files, and forwards termination
// signals to the child.
package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"monofs/internal/registry"
	"monofs/internal/util"
)

// Config carries the supervisor's invocation arguments.
type Config struct {
	LogDir    string
	ChildName string
	Host      string
	Port      int
	StoreDir  string
	FsDBPath  string
	MountDir  string
}

// Run records this process in the registry, starts the NFS server child
// and blocks until the child exits or a termination signal arrives. The
// registry PID column is cleared on the way out.
func Run(ctx context.Context, cfg Config) error {
	runID := uuid.New().String()

	reg, err := registry.Open(cfg.FsDBPath)
	if err != nil {
		return err
	}
	defer reg.Close()

	if err := reg.UpsertFilesystem(ctx, cfg.MountDir, int64(os.Getpid()), runID); err != nil {
		return fmt.Errorf("failed to record supervisor PID: %w", err)
	}
	defer func() {
		if err := reg.ClearSupervisorPID(context.Background(), cfg.MountDir); err != nil {
			log.WithError(err).Warn("failed to clear supervisor PID")
		}
	}()

	stdout, stderr, err := openLogFiles(cfg.LogDir, cfg.ChildName, runID)
	if err != nil {
		return err
	}
	defer stdout.Close()
	defer stderr.Close()

	exe, err := util.GetExecutablePath()
	if err != nil {
		return fmt.Errorf("failed to resolve own executable: %w", err)
	}
	child := exec.Command(exe, "nfsserver",
		"--host", cfg.Host,
		"--port", strconv.Itoa(cfg.Port),
		"--store-dir", cfg.StoreDir,
		"--fs-db-path", cfg.FsDBPath,
	)
	child.Stdout = stdout
	child.Stderr = stderr
	if err := child.Start(); err != nil {
		return fmt.Errorf("failed to start nfsserver child: %w", err)
	}
	log.WithFields(log.Fields{"pid": child.Process.Pid, "run_id": runID}).Info("nfsserver started")

	// Forward termination signals so unmount-then-SIGTERM tears the whole
	// tree down.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigs)

	waitErr := make(chan error, 1)
	go func() { waitErr <- child.Wait() }()

	for {
		select {
		case sig := <-sigs:
			log.WithField("signal", sig).Info("forwarding signal to nfsserver")
			_ = child.Process.Signal(sig)
		case <-ctx.Done():
			_ = child.Process.Signal(syscall.SIGTERM)
			return <-waitErr
		case err := <-waitErr:
			if err != nil {
				return fmt.Errorf("nfsserver exited: %w", err)
			}
			return nil
		}
	}
}

// openLogFiles creates the per-run stdout and stderr log files.
func openLogFiles(logDir, childName, runID string) (*os.File, *os.File, error) {
	stdout, err := os.Create(filepath.Join(logDir, fmt.Sprintf("%s-%s.out.log", childName, runID)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create stdout log: %w", err)
	}
	stderr, err := os.Create(filepath.Join(logDir, fmt.Sprintf("%s-%s.err.log", childName, runID)))
	if err != nil {
		stdout.Close()
		return nil, nil, fmt.Errorf("failed to create stderr log: %w", err)
	}
	return stdout, stderr, nil
}
