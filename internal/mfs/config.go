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

// Package mfs implements mount lifecycle orchestration: bringing a
// filesystem instance up (init) and tearing it down (detach), plus the
// port allocator and root finder they depend on.
package mfs

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// MetaDirSuffix is appended to the mount directory path to derive the
	// adjacent metadata directory.
	MetaDirSuffix = ".mfs"

	// LogDirName is the log subdirectory inside the metadata directory.
	LogDirName = "log"

	// BlocksDirName is the block store subdirectory inside the metadata
	// directory.
	BlocksDirName = "blocks"

	// DBFileName is the registry database file inside the metadata directory.
	DBFileName = "fs.db"

	// MarkerLinkName is the symlink created inside the mount directory
	// pointing at the metadata directory. Detach locates the root by it.
	MarkerLinkName = ".mfs_link"

	// InitLockName is the flock file serializing concurrent init calls on
	// the same mount directory.
	InitLockName = "init.lock"

	// DefaultHost is the address the NFS server binds and the mount client
	// connects to.
	DefaultHost = "127.0.0.1"

	// DefaultStartPort is the first port the allocator tries.
	DefaultStartPort = 6543

	// DefaultPortRange is how many ports past the start the allocator scans.
	DefaultPortRange = 100

	// MaxRootSearchDepth bounds the upward walk of the root finder.
	MaxRootSearchDepth = 32

	// EnvRunnerExe overrides the serving-subprocess binary path.
	EnvRunnerExe = "MFSRUN_EXE"

	// DefaultRunnerExe is the compiled-in fallback for the serving
	// subprocess binary.
	DefaultRunnerExe = "mfsrun"
)

// getConfigDir returns the config directory path.
// Uses MONOFS_CONFIG_DIR env var if set, otherwise defaults to ~/.monofs.
// This is computed dynamically to support test isolation.
func getConfigDir() string {
	if dir := os.Getenv("MONOFS_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".monofs")
}

// ConfigDir returns the configuration directory path
func ConfigDir() string {
	return getConfigDir()
}

// SettingsPath returns the global settings file path
func SettingsPath() string {
	return filepath.Join(getConfigDir(), "settings.yaml")
}

// Settings holds global user configuration.
type Settings struct {
	Host      string `yaml:"host"`       // NFS bind host (default: 127.0.0.1)
	StartPort int    `yaml:"start_port"` // First port to try (default: 6543)
	PortRange int    `yaml:"port_range"` // Ports to scan past start (default: 100)
	RunnerExe string `yaml:"runner_exe"` // Path to the mfsrun binary, "" = resolve normally
	LogLevel  string `yaml:"log_level"`  // trace, debug, info, warn, error (default: info)
}

// ApplyDefaults fills zero-value fields with their defaults.
func (s *Settings) ApplyDefaults() {
	if s.Host == "" {
		s.Host = DefaultHost
	}
	if s.StartPort == 0 {
		s.StartPort = DefaultStartPort
	}
	if s.PortRange == 0 {
		s.PortRange = DefaultPortRange
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
}

// LoadSettings loads settings from ~/.monofs/settings.yaml.
// A missing file yields defaults.
func LoadSettings() (*Settings, error) {
	var settings Settings
	data, err := os.ReadFile(SettingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			settings.ApplyDefaults()
			return &settings, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", SettingsPath(), err)
	}
	settings.ApplyDefaults()
	return &settings, nil
}

// RunnerNotFoundError reports a missing serving-subprocess binary together
// with how its path was chosen.
type RunnerNotFoundError struct {
	Path   string
	Source string // "environment variable", "settings", or "default path"
}

func (e *RunnerNotFoundError) Error() string {
	return fmt.Sprintf("mfsrun binary not found at %s (from %s)", e.Path, e.Source)
}

// ResolveRunnerExe determines the serving-subprocess binary path. The
// environment variable wins over settings, settings over the compiled-in
// default. A bare default name is searched on PATH; explicit paths are
// stat'd directly. Environment lookup happens here, at the boundary, so
// the orchestrator only ever sees the resolved value.
func ResolveRunnerExe(settings *Settings) (string, error) {
	if path := os.Getenv(EnvRunnerExe); path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", &RunnerNotFoundError{Path: path, Source: "environment variable"}
		}
		return path, nil
	}
	if settings != nil && settings.RunnerExe != "" {
		if _, err := os.Stat(settings.RunnerExe); err != nil {
			return "", &RunnerNotFoundError{Path: settings.RunnerExe, Source: "settings"}
		}
		return settings.RunnerExe, nil
	}
	path, err := exec.LookPath(DefaultRunnerExe)
	if err != nil {
		return "", &RunnerNotFoundError{Path: DefaultRunnerExe, Source: "default path"}
	}
	return path, nil
}

// MetaDirFor derives the metadata directory path for a mount directory.
func MetaDirFor(mountDir string) string {
	return mountDir + MetaDirSuffix
}

// LogDirFor returns the log directory under the metadata directory.
func LogDirFor(metaDir string) string {
	return filepath.Join(metaDir, LogDirName)
}

// BlocksDirFor returns the block store directory under the metadata directory.
func BlocksDirFor(metaDir string) string {
	return filepath.Join(metaDir, BlocksDirName)
}

// DBPathFor returns the registry database path under the metadata directory.
func DBPathFor(metaDir string) string {
	return filepath.Join(metaDir, DBFileName)
}
