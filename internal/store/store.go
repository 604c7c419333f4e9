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

// Package store provides the content-addressed block store backing the
// entity graph. Blocks are immutable and keyed by the blake3 digest of
// their bytes; a block, once written, is never modified.
package store

import (
	"context"
	"errors"
	"sync"
)

// ErrBlockNotFound is returned when no block exists for a CID.
var ErrBlockNotFound = errors.New("block not found")

// Store is a content-addressed block store.
type Store interface {
	// PutBytes writes data and returns its CID. Writing the same bytes
	// twice is a no-op returning the same CID.
	PutBytes(ctx context.Context, data []byte) (CID, error)

	// Get returns the block for cid, or ErrBlockNotFound.
	Get(ctx context.Context, cid CID) ([]byte, error)

	// Has reports whether a block exists for cid.
	Has(ctx context.Context, cid CID) (bool, error)
}

// MemoryStore is an in-memory Store, used by tests and by ephemeral trees.
type MemoryStore struct {
	mu     sync.RWMutex
	blocks map[CID][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blocks: make(map[CID][]byte)}
}

func (s *MemoryStore) PutBytes(_ context.Context, data []byte) (CID, error) {
	cid := ComputeCID(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blocks[cid]; !ok {
		buf := make([]byte, len(data))
		copy(buf, data)
		s.blocks[cid] = buf
	}
	return cid, nil
}

func (s *MemoryStore) Get(_ context.Context, cid CID) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blocks[cid]
	if !ok {
		return nil, ErrBlockNotFound
	}
	return data, nil
}

func (s *MemoryStore) Has(_ context.Context, cid CID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blocks[cid]
	return ok, nil
}

// Len returns the number of stored blocks.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}

var _ Store = (*MemoryStore)(nil)
