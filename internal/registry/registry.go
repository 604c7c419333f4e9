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

// Package registry persists mount bookkeeping and the current tree head in
// a SQLite database inside the filesystem's data directory. Both the CLI
// and the supervisor open the same file; WAL mode plus lock retries keep
// concurrent access safe.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/tursodatabase/go-libsql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"monofs/internal/util"
)

// Registry wraps a Bun database instance for type-safe queries against the
// mount registry.
type Registry struct {
	*bun.DB
	sqlDB *sql.DB
}

// Open opens (creating and migrating if needed) the registry database at
// path.
func Open(path string) (*Registry, error) {
	db, err := sql.Open("libsql", BuildDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}
	// Must be explicit; libsql ignores DSN-based _pragma=value parameters.
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	// Create schema (execute statements individually for libsql compatibility)
	if err := execStatements(db, dbSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create registry schema: %w", err)
	}
	if err := execStatements(db, initSchemaInfo, SchemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize registry schema info: %w", err)
	}

	return &Registry{
		DB:    bun.NewDB(db, sqlitedialect.New()),
		sqlDB: db,
	}, nil
}

// Close closes the underlying database.
func (r *Registry) Close() error {
	return r.sqlDB.Close()
}

// --- Filesystem Operations ---

// GetFilesystem retrieves the row for mountDir, or nil if absent.
func (r *Registry) GetFilesystem(ctx context.Context, mountDir string) (*FilesystemModel, error) {
	var fs FilesystemModel
	err := r.NewSelect().
		Model(&fs).
		Where("mount_dir = ?", mountDir).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fs, nil
}

// UpsertFilesystem records (or replaces) the supervisor serving mountDir.
// Uses retry logic to handle transient "database is locked" errors that can
// occur when the supervisor and CLI both have the database open.
func (r *Registry) UpsertFilesystem(ctx context.Context, mountDir string, pid int64, runID string) error {
	return util.Retry(ctx,
		func() error {
			_, err := r.NewInsert().
				Model(&FilesystemModel{
					MountDir:      mountDir,
					SupervisorPID: &pid,
					RunID:         runID,
					CreatedAt:     time.Now().Unix(),
				}).
				On("CONFLICT (mount_dir) DO UPDATE").
				Set("supervisor_pid = EXCLUDED.supervisor_pid").
				Set("run_id = EXCLUDED.run_id").
				Exec(ctx)
			return err
		},
		util.DatabaseRetryOptions(ctx)...)
}

// GetSupervisorPID returns the recorded supervisor PID for mountDir.
// Returns (0, false, nil) when no row exists or the PID column is NULL.
func (r *Registry) GetSupervisorPID(ctx context.Context, mountDir string) (int64, bool, error) {
	fs, err := r.GetFilesystem(ctx, mountDir)
	if err != nil {
		return 0, false, err
	}
	if fs == nil || fs.SupervisorPID == nil {
		return 0, false, nil
	}
	return *fs.SupervisorPID, true, nil
}

// ClearSupervisorPID nulls out the supervisor PID for mountDir, marking the
// filesystem as having no live server.
func (r *Registry) ClearSupervisorPID(ctx context.Context, mountDir string) error {
	return util.Retry(ctx,
		func() error {
			_, err := r.NewUpdate().
				Model((*FilesystemModel)(nil)).
				Set("supervisor_pid = NULL").
				Where("mount_dir = ?", mountDir).
				Exec(ctx)
			return err
		},
		util.DatabaseRetryOptions(ctx)...)
}

// DeleteFilesystem removes the row for mountDir.
func (r *Registry) DeleteFilesystem(ctx context.Context, mountDir string) error {
	_, err := r.NewDelete().
		Model((*FilesystemModel)(nil)).
		Where("mount_dir = ?", mountDir).
		Exec(ctx)
	return err
}

// --- Head Operations ---

// GetHead returns the current root CID, or "" when no head has been set.
func (r *Registry) GetHead(ctx context.Context) (string, error) {
	var head HeadModel
	err := r.NewSelect().
		Model(&head).
		Where("id = 1").
		Scan(ctx)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return head.RootCID, nil
}

// SetHead atomically replaces the current root CID.
func (r *Registry) SetHead(ctx context.Context, rootCID string) error {
	return util.Retry(ctx,
		func() error {
			_, err := r.NewInsert().
				Model(&HeadModel{ID: 1, RootCID: rootCID}).
				On("CONFLICT (id) DO UPDATE").
				Set("root_cid = EXCLUDED.root_cid").
				Exec(ctx)
			return err
		},
		util.DatabaseRetryOptions(ctx)...)
}

// --- Schema Info Operations ---

// GetSchemaInfo retrieves a schema info value by key.
func (r *Registry) GetSchemaInfo(ctx context.Context, key string) (string, error) {
	var info SchemaInfoModel
	err := r.NewSelect().
		Model(&info).
		Where("key = ?", key).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return info.Value, nil
}
