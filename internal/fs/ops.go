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

	"monofs/internal/common"
	"monofs/internal/store"
)

// InitRoot stores an empty root directory and returns its CID.
func InitRoot(ctx context.Context, st store.Store) (store.CID, error) {
	return SaveEntity(ctx, st, NewDirectory())
}

// updateAt walks down from dirCID along segments, applies fn to the directory
// holding the final segment, then rebuilds every directory on the way back up.
// Only the spine from root to the touched entry changes; untouched siblings
// keep their CIDs.
func updateAt(ctx context.Context, st store.Store, dirCID store.CID, segments []common.Segment, fn func(*Directory, common.Segment) (*Directory, error)) (store.CID, error) {
	dir, err := LoadDirectory(ctx, st, dirCID)
	if err != nil {
		return "", err
	}

	if len(segments) == 1 {
		next, err := fn(dir, segments[0])
		if err != nil {
			return "", err
		}
		return SaveEntity(ctx, st, next)
	}

	childCID, ok := dir.Get(segments[0])
	if !ok {
		return "", fmt.Errorf("%w: %q", common.ErrPathNotFound, segments[0])
	}
	newChildCID, err := updateAt(ctx, st, childCID, segments[1:], fn)
	if err != nil {
		return "", err
	}
	return SaveEntity(ctx, st, dir.Put(segments[0], newChildCID))
}

// splitEditPath validates an edit path: relative, at least one segment.
func splitEditPath(path string) ([]common.Segment, error) {
	segments, rooted, err := common.SplitSegments(path)
	if err != nil {
		return nil, err
	}
	if rooted {
		return nil, fmt.Errorf("%w: %q", common.ErrPathHasRoot, path)
	}
	if len(segments) == 0 {
		return nil, common.ErrPathIsEmpty
	}
	return segments, nil
}

// Mkdir creates an empty directory at path under rootCID and returns the new
// root CID. Every parent must already exist. Creating over an existing entry
// fails with ErrPathExists.
func Mkdir(ctx context.Context, st store.Store, rootCID store.CID, path string) (store.CID, error) {
	segments, err := splitEditPath(path)
	if err != nil {
		return "", err
	}
	childCID, err := SaveEntity(ctx, st, NewDirectory())
	if err != nil {
		return "", err
	}
	return putNew(ctx, st, rootCID, segments, childCID)
}

// WriteFile stores content as a File entity at path and returns the new root
// CID. With overwrite false an existing entry fails with ErrPathExists; with
// overwrite true any existing entry is replaced.
func WriteFile(ctx context.Context, st store.Store, rootCID store.CID, path string, content []byte, overwrite bool) (store.CID, error) {
	segments, err := splitEditPath(path)
	if err != nil {
		return "", err
	}
	f, err := NewFile(ctx, st, content)
	if err != nil {
		return "", err
	}
	fileCID, err := SaveEntity(ctx, st, f)
	if err != nil {
		return "", err
	}
	if overwrite {
		return updateAt(ctx, st, rootCID, segments, func(d *Directory, name common.Segment) (*Directory, error) {
			return d.Put(name, fileCID), nil
		})
	}
	return putNew(ctx, st, rootCID, segments, fileCID)
}

// AddCidLink creates a symbolic cid link at path pointing at target. The
// target is not checked for existence; broken links are representable.
func AddCidLink(ctx context.Context, st store.Store, rootCID store.CID, path string, target store.CID) (store.CID, error) {
	segments, err := splitEditPath(path)
	if err != nil {
		return "", err
	}
	linkCID, err := SaveEntity(ctx, st, &CidLink{Target: target})
	if err != nil {
		return "", err
	}
	return putNew(ctx, st, rootCID, segments, linkCID)
}

// AddPathLink creates a symbolic path link at path whose search path is
// targetPath. The search path is validated for shape but not resolved.
func AddPathLink(ctx context.Context, st store.Store, rootCID store.CID, path, targetPath string) (store.CID, error) {
	segments, err := splitEditPath(path)
	if err != nil {
		return "", err
	}
	targetSegs, rooted, err := common.SplitSegments(targetPath)
	if err != nil {
		return "", err
	}
	linkCID, err := SaveEntity(ctx, st, &PathLink{Segments: targetSegs, Rooted: rooted})
	if err != nil {
		return "", err
	}
	return putNew(ctx, st, rootCID, segments, linkCID)
}

// putNew inserts childCID at segments, failing if the final name exists.
func putNew(ctx context.Context, st store.Store, rootCID store.CID, segments []common.Segment, childCID store.CID) (store.CID, error) {
	return updateAt(ctx, st, rootCID, segments, func(d *Directory, name common.Segment) (*Directory, error) {
		if d.Has(name) {
			return nil, fmt.Errorf("%w: %q", common.ErrPathExists, name)
		}
		return d.Put(name, childCID), nil
	})
}

// Remove deletes the entry at path and returns the new root CID. A missing
// entry fails with ErrPathNotFound. Removed entities stay in the store;
// nothing references them from the new root.
func Remove(ctx context.Context, st store.Store, rootCID store.CID, path string) (store.CID, error) {
	segments, err := splitEditPath(path)
	if err != nil {
		return "", err
	}
	return updateAt(ctx, st, rootCID, segments, func(d *Directory, name common.Segment) (*Directory, error) {
		next, ok := d.Delete(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", common.ErrPathNotFound, name)
		}
		return next, nil
	})
}

// Rename moves the entry at oldPath to newPath and returns the new root CID.
// The moved entity keeps its CID; only the directories on both spines are
// rebuilt. The parent of oldPath must be a directory (ErrSourceIsNotADir),
// the parent of newPath must be a directory (ErrTargetIsNotADir), and
// newPath must not exist (ErrPathExists).
func Rename(ctx context.Context, st store.Store, rootCID store.CID, oldPath, newPath string) (store.CID, error) {
	oldSegs, err := splitEditPath(oldPath)
	if err != nil {
		return "", err
	}
	newSegs, err := splitEditPath(newPath)
	if err != nil {
		return "", err
	}

	srcParent, err := lookupDir(ctx, st, rootCID, oldSegs[:len(oldSegs)-1], common.ErrSourceIsNotADir)
	if err != nil {
		return "", err
	}
	movedCID, ok := srcParent.Get(oldSegs[len(oldSegs)-1])
	if !ok {
		return "", fmt.Errorf("%w: %q", common.ErrPathNotFound, oldPath)
	}

	dstParent, err := lookupDir(ctx, st, rootCID, newSegs[:len(newSegs)-1], common.ErrTargetIsNotADir)
	if err != nil {
		return "", err
	}
	if dstParent.Has(newSegs[len(newSegs)-1]) {
		return "", fmt.Errorf("%w: %q", common.ErrPathExists, newPath)
	}

	// Remove first, then insert into the intermediate tree. Insert into the
	// original tree would resurrect the source entry when the spines overlap.
	midCID, err := updateAt(ctx, st, rootCID, oldSegs, func(d *Directory, name common.Segment) (*Directory, error) {
		next, _ := d.Delete(name)
		return next, nil
	})
	if err != nil {
		return "", err
	}
	return updateAt(ctx, st, midCID, newSegs, func(d *Directory, name common.Segment) (*Directory, error) {
		if d.Has(name) {
			return nil, fmt.Errorf("%w: %q", common.ErrPathExists, name)
		}
		return d.Put(name, movedCID), nil
	})
}

// lookupDir resolves segments to a Directory without following terminal
// links, substituting notADir when the result is some other entity kind.
func lookupDir(ctx context.Context, st store.Store, rootCID store.CID, segments []common.Segment, notADir error) (*Directory, error) {
	if len(segments) == 0 {
		return LoadDirectory(ctx, st, rootCID)
	}
	r := NewResolver(st, rootCID)
	e, _, err := r.Resolve(ctx, segments, ResolveOptions{})
	if err != nil {
		return nil, err
	}
	d, ok := e.(*Directory)
	if !ok {
		return nil, fmt.Errorf("%w: %q is a %s", notADir, common.JoinSegments(segments), e.Kind())
	}
	return d, nil
}

// ReadFile resolves path to a File, following terminal links, and returns
// its content.
func ReadFile(ctx context.Context, st store.Store, rootCID store.CID, path string) ([]byte, error) {
	r := NewResolver(st, rootCID)
	e, cid, err := r.ResolvePath(ctx, path, ResolveOptions{FollowTerminal: true})
	if err != nil {
		return nil, err
	}
	f, ok := e.(*File)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s", common.ErrNotAFile, cid, e.Kind())
	}
	return f.Content(ctx, st)
}
