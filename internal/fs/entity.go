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

// Package fs implements the content-addressed entity model: files,
// directories and the two symbolic link kinds, plus path resolution over
// them. Entities are immutable; every edit builds new nodes bottom-up and
// yields a new root CID.
package fs

import (
	"context"
	"fmt"

	"monofs/internal/common"
	"monofs/internal/store"
)

// Kind is the discriminant tag carried by every serialized entity.
type Kind uint8

const (
	KindFile Kind = iota + 1
	KindDirectory
	KindCidLink
	KindPathLink
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindCidLink:
		return "cidlink"
	case KindPathLink:
		return "pathlink"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Entity is one of File, Directory, CidLink or PathLink.
type Entity interface {
	Kind() Kind
}

// File references opaque byte content as an ordered list of chunk CIDs.
type File struct {
	Chunks []store.CID
	Size   int64
}

func (*File) Kind() Kind { return KindFile }

// CidLink is a symbolic link whose target is a CID, independent of any
// path hierarchy. The target may be absent from the store (a broken link).
type CidLink struct {
	Target store.CID
}

func (*CidLink) Kind() Kind { return KindCidLink }

// PathLink is a symbolic link whose target is a path, re-resolved against
// the filesystem root when followed.
type PathLink struct {
	Segments []common.Segment
	Rooted   bool
}

func (*PathLink) Kind() Kind { return KindPathLink }

// TargetPath renders the link target as a slash-separated path.
func (l *PathLink) TargetPath() string {
	p := common.JoinSegments(l.Segments)
	if l.Rooted {
		return "/" + p
	}
	return p
}

// envelope is the serialized form of every entity: a kind tag plus the
// variant payload. Unknown tags are rejected at decode time.
type envelope struct {
	Kind Kind             `cbor:"k"`
	Data store.RawMessage `cbor:"d"`
}

type fileWire struct {
	Chunks []string `cbor:"c"`
	Size   int64    `cbor:"s"`
}

type dirEntryWire struct {
	Name   string `cbor:"n"`
	Target string `cbor:"t"`
}

type dirWire struct {
	Entries []dirEntryWire `cbor:"e"`
}

type cidLinkWire struct {
	Target string `cbor:"t"`
}

type pathLinkWire struct {
	Segments []string `cbor:"p"`
	Rooted   bool     `cbor:"r"`
}

// MarshalEntity serializes e deterministically; the resulting bytes define
// the entity's CID.
func MarshalEntity(e Entity) ([]byte, error) {
	var payload any
	switch v := e.(type) {
	case *File:
		w := fileWire{Size: v.Size, Chunks: make([]string, len(v.Chunks))}
		for i, c := range v.Chunks {
			w.Chunks[i] = c.String()
		}
		payload = w
	case *Directory:
		w := dirWire{Entries: make([]dirEntryWire, len(v.entries))}
		for i, ent := range v.entries {
			w.Entries[i] = dirEntryWire{Name: ent.Name.String(), Target: ent.Target.String()}
		}
		payload = w
	case *CidLink:
		payload = cidLinkWire{Target: v.Target.String()}
	case *PathLink:
		w := pathLinkWire{Rooted: v.Rooted, Segments: make([]string, len(v.Segments))}
		for i, s := range v.Segments {
			w.Segments[i] = s.String()
		}
		payload = w
	default:
		return nil, fmt.Errorf("cannot marshal entity of kind %s", e.Kind())
	}

	data, err := store.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", e.Kind(), err)
	}
	return store.Marshal(envelope{Kind: e.Kind(), Data: data})
}

// UnmarshalEntity decodes serialized entity bytes into the correct variant.
// A malformed layout or an unknown kind tag fails with a decode error.
func UnmarshalEntity(data []byte) (Entity, error) {
	var env envelope
	if err := store.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode entity envelope: %w", err)
	}
	switch env.Kind {
	case KindFile:
		var w fileWire
		if err := store.Unmarshal(env.Data, &w); err != nil {
			return nil, fmt.Errorf("failed to decode file payload: %w", err)
		}
		f := &File{Size: w.Size, Chunks: make([]store.CID, len(w.Chunks))}
		for i, s := range w.Chunks {
			cid, err := store.ParseCID(s)
			if err != nil {
				return nil, fmt.Errorf("file chunk %d: %w", i, err)
			}
			f.Chunks[i] = cid
		}
		return f, nil
	case KindDirectory:
		var w dirWire
		if err := store.Unmarshal(env.Data, &w); err != nil {
			return nil, fmt.Errorf("failed to decode directory payload: %w", err)
		}
		d := &Directory{entries: make([]DirEntry, 0, len(w.Entries))}
		for _, ew := range w.Entries {
			seg, err := common.NewSegment(ew.Name)
			if err != nil {
				return nil, fmt.Errorf("directory entry %q: %w", ew.Name, err)
			}
			cid, err := store.ParseCID(ew.Target)
			if err != nil {
				return nil, fmt.Errorf("directory entry %q: %w", ew.Name, err)
			}
			d.entries = append(d.entries, DirEntry{Name: seg, Target: cid})
		}
		return d, nil
	case KindCidLink:
		var w cidLinkWire
		if err := store.Unmarshal(env.Data, &w); err != nil {
			return nil, fmt.Errorf("failed to decode cidlink payload: %w", err)
		}
		cid, err := store.ParseCID(w.Target)
		if err != nil {
			return nil, fmt.Errorf("cidlink target: %w", err)
		}
		return &CidLink{Target: cid}, nil
	case KindPathLink:
		var w pathLinkWire
		if err := store.Unmarshal(env.Data, &w); err != nil {
			return nil, fmt.Errorf("failed to decode pathlink payload: %w", err)
		}
		l := &PathLink{Rooted: w.Rooted, Segments: make([]common.Segment, len(w.Segments))}
		for i, s := range w.Segments {
			seg, err := common.NewSegment(s)
			if err != nil {
				return nil, fmt.Errorf("pathlink segment %d: %w", i, err)
			}
			l.Segments[i] = seg
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unknown entity kind tag %d", env.Kind)
	}
}

// SaveEntity serializes e into st and returns its CID.
func SaveEntity(ctx context.Context, st store.Store, e Entity) (store.CID, error) {
	data, err := MarshalEntity(e)
	if err != nil {
		return "", err
	}
	return st.PutBytes(ctx, data)
}

// LoadEntity loads and decodes the entity stored at cid.
func LoadEntity(ctx context.Context, st store.Store, cid store.CID) (Entity, error) {
	data, err := st.Get(ctx, cid)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", common.ErrUnableToLoadEntity, cid, err)
	}
	return UnmarshalEntity(data)
}

// LoadFile loads cid and requires it to be a File.
func LoadFile(ctx context.Context, st store.Store, cid store.CID) (*File, error) {
	e, err := LoadEntity(ctx, st, cid)
	if err != nil {
		return nil, err
	}
	f, ok := e.(*File)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s", common.ErrNotAFile, cid, e.Kind())
	}
	return f, nil
}

// LoadDirectory loads cid and requires it to be a Directory.
func LoadDirectory(ctx context.Context, st store.Store, cid store.CID) (*Directory, error) {
	e, err := LoadEntity(ctx, st, cid)
	if err != nil {
		return nil, err
	}
	d, ok := e.(*Directory)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s", common.ErrNotADirectory, cid, e.Kind())
	}
	return d, nil
}

// LoadCidLink loads cid and requires it to be a CidLink.
func LoadCidLink(ctx context.Context, st store.Store, cid store.CID) (*CidLink, error) {
	e, err := LoadEntity(ctx, st, cid)
	if err != nil {
		return nil, err
	}
	l, ok := e.(*CidLink)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s", common.ErrNotASymCidLink, cid, e.Kind())
	}
	return l, nil
}

// LoadPathLink loads cid and requires it to be a PathLink.
func LoadPathLink(ctx context.Context, st store.Store, cid store.CID) (*PathLink, error) {
	e, err := LoadEntity(ctx, st, cid)
	if err != nil {
		return nil, err
	}
	l, ok := e.(*PathLink)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s", common.ErrNotASymPathLink, cid, e.Kind())
	}
	return l, nil
}

func isLink(e Entity) bool {
	switch e.(type) {
	case *CidLink, *PathLink:
		return true
	}
	return false
}
