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

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one file per block under a root directory, sharded by the
// first two hex characters of the digest (blocks/ab/b3ab12...). Writes go
// through a temp file and rename so a crashed write never leaves a partial
// block under its final name.
type FileStore struct {
	root string
}

// NewFileStore opens (creating if needed) a block store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create block store at %s: %w", dir, err)
	}
	return &FileStore{root: dir}, nil
}

// Root returns the store's root directory.
func (s *FileStore) Root() string { return s.root }

func (s *FileStore) blockPath(cid CID) string {
	name := cid.String()
	// name is "b3<hex>"; shard on the first digest byte
	return filepath.Join(s.root, name[len(cidPrefix):len(cidPrefix)+2], name)
}

func (s *FileStore) PutBytes(_ context.Context, data []byte) (CID, error) {
	cid := ComputeCID(data)
	path := s.blockPath(cid)
	if _, err := os.Stat(path); err == nil {
		return cid, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create shard dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp block: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write block %s: %w", cid, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to commit block %s: %w", cid, err)
	}
	return cid, nil
}

func (s *FileStore) Get(_ context.Context, cid CID) ([]byte, error) {
	data, err := os.ReadFile(s.blockPath(cid))
	if os.IsNotExist(err) {
		return nil, ErrBlockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read block %s: %w", cid, err)
	}
	return data, nil
}

func (s *FileStore) Has(_ context.Context, cid CID) (bool, error) {
	_, err := os.Stat(s.blockPath(cid))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

var _ Store = (*FileStore)(nil)
