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

package registry

import "github.com/uptrace/bun"

// FilesystemModel is one row in the filesystems table: a mount directory
// together with the supervisor process serving it. SupervisorPID is NULL
// when no supervisor has been recorded yet or after a clean shutdown.
type FilesystemModel struct {
	bun.BaseModel `bun:"table:filesystems"`

	MountDir      string `bun:"mount_dir,pk"`
	SupervisorPID *int64 `bun:"supervisor_pid"`
	RunID         string `bun:"run_id"`
	CreatedAt     int64  `bun:"created_at"`
}

// HeadModel is the single row in the heads table holding the current root
// CID of the filesystem tree.
type HeadModel struct {
	bun.BaseModel `bun:"table:heads"`

	ID      int64  `bun:"id,pk"`
	RootCID string `bun:"root_cid"`
}

// SchemaInfoModel is one row in the schema_info table.
type SchemaInfoModel struct {
	bun.BaseModel `bun:"table:schema_info"`

	Key   string `bun:"key,pk"`
	Value string `bun:"value"`
}
