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

package fs

import (
	"context"
	"fmt"

	"monofs/internal/store"
)

// ChunkSize is the maximum size of a single content block.
const ChunkSize = 256 * 1024

// NewFile chunks content into the store and returns the File entity
// referencing it. The File itself is not saved.
func NewFile(ctx context.Context, st store.Store, content []byte) (*File, error) {
	f := &File{Size: int64(len(content))}
	for off := 0; off < len(content); off += ChunkSize {
		end := off + ChunkSize
		if end > len(content) {
			end = len(content)
		}
		cid, err := st.PutBytes(ctx, content[off:end])
		if err != nil {
			return nil, fmt.Errorf("failed to store file chunk: %w", err)
		}
		f.Chunks = append(f.Chunks, cid)
	}
	return f, nil
}

// Content reads the full file content back from the store.
func (f *File) Content(ctx context.Context, st store.Store) ([]byte, error) {
	out := make([]byte, 0, f.Size)
	for i, cid := range f.Chunks {
		data, err := st.Get(ctx, cid)
		if err != nil {
			return nil, fmt.Errorf("failed to load chunk %d (%s): %w", i, cid, err)
		}
		out = append(out, data...)
	}
	return out, nil
}
