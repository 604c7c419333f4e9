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
	"monofs/internal/common"
	"monofs/internal/store"
)

// DirEntry maps one path segment to the CID of a child entity.
type DirEntry struct {
	Name   common.Segment
	Target store.CID
}

// Directory is an insertion-ordered mapping from segment to child CID.
// Directories are immutable snapshots; Put and Delete return new values.
type Directory struct {
	entries []DirEntry
}

func (*Directory) Kind() Kind { return KindDirectory }

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{}
}

// Get returns the child CID for name.
func (d *Directory) Get(name common.Segment) (store.CID, bool) {
	for _, e := range d.entries {
		if e.Name == name {
			return e.Target, true
		}
	}
	return "", false
}

// Has reports whether name is present.
func (d *Directory) Has(name common.Segment) bool {
	_, ok := d.Get(name)
	return ok
}

// Len returns the number of entries.
func (d *Directory) Len() int { return len(d.entries) }

// Entries returns a copy of the entries in insertion order.
func (d *Directory) Entries() []DirEntry {
	out := make([]DirEntry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Put returns a new snapshot with name mapped to target. An existing entry
// is replaced in place, keeping its position; replacing an entry with the
// CID it already holds yields a snapshot serializing to the same bytes, and
// therefore the same CID.
func (d *Directory) Put(name common.Segment, target store.CID) *Directory {
	next := &Directory{entries: make([]DirEntry, len(d.entries))}
	copy(next.entries, d.entries)
	for i, e := range next.entries {
		if e.Name == name {
			next.entries[i].Target = target
			return next
		}
	}
	next.entries = append(next.entries, DirEntry{Name: name, Target: target})
	return next
}

// Delete returns a new snapshot without name, and whether it was present.
func (d *Directory) Delete(name common.Segment) (*Directory, bool) {
	for i, e := range d.entries {
		if e.Name == name {
			next := &Directory{entries: make([]DirEntry, 0, len(d.entries)-1)}
			next.entries = append(next.entries, d.entries[:i]...)
			next.entries = append(next.entries, d.entries[i+1:]...)
			return next, true
		}
	}
	return d, false
}
