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

// Package server exposes the entity graph over NFS. The only mutable state
// is the head: the CID of the current root directory. Every write rebuilds
// the touched spine bottom-up, persists the new head and swaps it in under
// a lock; readers always see a complete tree.
package server

import (
	"context"
	"fmt"
	"sync"

	"monofs/internal/fs"
	"monofs/internal/registry"
	"monofs/internal/store"
)

// State couples the block store with the persisted head.
type State struct {
	store store.Store
	reg   *registry.Registry

	mu   sync.Mutex
	root store.CID
}

// OpenState opens the block store at storeDir and the registry at dbPath,
// loading the persisted head or initializing an empty root on first run.
func OpenState(ctx context.Context, storeDir, dbPath string) (*State, error) {
	st, err := store.NewFileStore(storeDir)
	if err != nil {
		return nil, err
	}
	reg, err := registry.Open(dbPath)
	if err != nil {
		return nil, err
	}

	head, err := reg.GetHead(ctx)
	if err != nil {
		reg.Close()
		return nil, fmt.Errorf("failed to load head: %w", err)
	}

	var root store.CID
	if head == "" {
		root, err = fs.InitRoot(ctx, st)
		if err == nil {
			err = reg.SetHead(ctx, root.String())
		}
		if err != nil {
			reg.Close()
			return nil, fmt.Errorf("failed to initialize root: %w", err)
		}
	} else {
		root, err = store.ParseCID(head)
		if err != nil {
			reg.Close()
			return nil, fmt.Errorf("corrupt head %q: %w", head, err)
		}
	}

	return &State{store: st, reg: reg, root: root}, nil
}

// Close releases the registry connection.
func (s *State) Close() error {
	return s.reg.Close()
}

// Store returns the underlying block store.
func (s *State) Store() store.Store {
	return s.store
}

// Root returns the current head CID.
func (s *State) Root() store.CID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Mutate applies fn to the current root under the write lock, persists the
// returned root and swaps it in. fn failing leaves the head untouched.
func (s *State) Mutate(ctx context.Context, fn func(root store.CID) (store.CID, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	newRoot, err := fn(s.root)
	if err != nil {
		return err
	}
	if newRoot == s.root {
		return nil
	}
	if err := s.reg.SetHead(ctx, newRoot.String()); err != nil {
		return fmt.Errorf("failed to persist head: %w", err)
	}
	s.root = newRoot
	return nil
}

// Resolver returns a resolver over the current head.
func (s *State) Resolver() *fs.Resolver {
	return fs.NewResolver(s.store, s.Root())
}
