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
	"errors"
	"fmt"

	"monofs/internal/common"
	"monofs/internal/store"
)

// DefaultMaxFollowDepth bounds symlink dereference chains, accidental or
// adversarial.
const DefaultMaxFollowDepth = 40

// ResolveOptions controls one resolution pass.
type ResolveOptions struct {
	// FollowTerminal dereferences a link found at the final segment. When
	// false the link entity itself is returned.
	FollowTerminal bool

	// MaxFollowDepth is the total link-dereference budget for the walk,
	// shared across PathLink re-entry. Zero means DefaultMaxFollowDepth.
	MaxFollowDepth int
}

// Resolver walks paths over the entity graph. Resolution only reads; the
// graph is never mutated.
type Resolver struct {
	store store.Store
	root  store.CID // filesystem root; PathLink targets re-resolve against it
}

// NewResolver returns a resolver rooted at rootCID (a Directory).
func NewResolver(st store.Store, rootCID store.CID) *Resolver {
	return &Resolver{store: st, root: rootCID}
}

// ResolvePath splits path into segments and resolves it. The path must be
// relative; a leading root marker fails with ErrPathHasRoot.
func (r *Resolver) ResolvePath(ctx context.Context, path string, opts ResolveOptions) (Entity, store.CID, error) {
	segments, rooted, err := common.SplitSegments(path)
	if err != nil {
		return nil, "", err
	}
	if rooted {
		return nil, "", fmt.Errorf("%w: %q", common.ErrPathHasRoot, path)
	}
	return r.Resolve(ctx, segments, opts)
}

// Resolve consumes segments left to right starting at the root, returning
// the terminal entity and its CID or a classified failure.
func (r *Resolver) Resolve(ctx context.Context, segments []common.Segment, opts ResolveOptions) (Entity, store.CID, error) {
	if len(segments) == 0 {
		return nil, "", common.ErrPathIsEmpty
	}
	budget := opts.MaxFollowDepth
	if budget <= 0 {
		budget = DefaultMaxFollowDepth
	}
	return r.walk(ctx, r.root, segments, &budget, opts.FollowTerminal)
}

// walk descends from dirCID through segments. budget is shared across all
// link dereferences in the walk, including PathLink re-entry.
func (r *Resolver) walk(ctx context.Context, dirCID store.CID, segments []common.Segment, budget *int, followTerminal bool) (Entity, store.CID, error) {
	curCID := dirCID
	cur, err := LoadEntity(ctx, r.store, curCID)
	if err != nil {
		return nil, "", err
	}

	for i, seg := range segments {
		dir, ok := cur.(*Directory)
		if !ok {
			return nil, "", fmt.Errorf("%w: %q", common.ErrNotADirectory,
				common.JoinSegments(segments[:i]))
		}

		childCID, ok := dir.Get(seg)
		if !ok {
			return nil, "", fmt.Errorf("%w: %q", common.ErrPathNotFound,
				common.JoinSegments(segments[:i+1]))
		}
		child, err := LoadEntity(ctx, r.store, childCID)
		if err != nil {
			return nil, "", err
		}

		last := i == len(segments)-1
		if !last && isLink(child) {
			// Traversing through a link: dereference before continuing.
			switch link := child.(type) {
			case *CidLink:
				// Following a cid link through intermediate path segments is
				// an explicit capability gap, not a generic failure.
				return nil, "", fmt.Errorf("%w: path %q", common.ErrSymCidLinkUnsupported,
					common.JoinSegments(segments[i+1:]))
			case *PathLink:
				child, childCID, err = r.followPathLink(ctx, link, budget)
				if err != nil {
					return nil, "", err
				}
			}
		} else if last && followTerminal && isLink(child) {
			child, childCID, err = r.followChain(ctx, child, childCID, budget)
			if err != nil {
				return nil, "", err
			}
		}

		cur, curCID = child, childCID
	}

	return cur, curCID, nil
}

// followChain dereferences e until it is not a link, charging one budget
// unit per hop.
func (r *Resolver) followChain(ctx context.Context, e Entity, cid store.CID, budget *int) (Entity, store.CID, error) {
	for isLink(e) {
		var err error
		switch link := e.(type) {
		case *CidLink:
			e, cid, err = r.followCidLink(ctx, link, budget)
		case *PathLink:
			e, cid, err = r.followPathLink(ctx, link, budget)
		}
		if err != nil {
			return nil, "", err
		}
	}
	return e, cid, nil
}

func (r *Resolver) charge(budget *int) error {
	if *budget <= 0 {
		return common.ErrMaxFollowDepth
	}
	*budget--
	return nil
}

// followCidLink loads the link target directly from the store. A target
// that cannot be loaded is a broken link, never a silent default.
func (r *Resolver) followCidLink(ctx context.Context, link *CidLink, budget *int) (Entity, store.CID, error) {
	if err := r.charge(budget); err != nil {
		return nil, "", err
	}
	e, err := LoadEntity(ctx, r.store, link.Target)
	if err != nil {
		if errors.Is(err, common.ErrUnableToLoadEntity) {
			return nil, "", fmt.Errorf("%w: %s", common.ErrBrokenSymCidLink, link.Target)
		}
		return nil, "", err
	}
	return e, link.Target, nil
}

// followPathLink re-enters resolution with the link's stored search path,
// interpreted relative to the filesystem root (not the link's directory).
func (r *Resolver) followPathLink(ctx context.Context, link *PathLink, budget *int) (Entity, store.CID, error) {
	if err := r.charge(budget); err != nil {
		return nil, "", err
	}
	if len(link.Segments) == 0 {
		return nil, "", common.ErrEmptySearchPath
	}
	if link.Rooted {
		return nil, "", fmt.Errorf("%w: %q", common.ErrPathHasRoot, link.TargetPath())
	}
	return r.walk(ctx, r.root, link.Segments, budget, true)
}
