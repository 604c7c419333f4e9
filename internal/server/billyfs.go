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

package server

import (
	"context"
	"errors"
	"hash/fnv"
	"io"
	"os"
	"path"
	"time"

	billy "github.com/go-git/go-billy/v5"
	nfsfile "github.com/willscott/go-nfs/file"

	"monofs/internal/common"
	"monofs/internal/fs"
	"monofs/internal/store"
)

// BillyAdapter exposes the entity graph as a billy filesystem for go-nfs.
// Billy paths are rooted at the export root, which maps to the head
// directory.
type BillyAdapter struct {
	state *State
	uid   uint32 // cached os.Getuid(), read on every BillyFileInfo.Sys()
	gid   uint32 // cached os.Getgid(), read on every BillyFileInfo.Sys()
}

// NewBillyAdapter creates a billy adapter over state.
func NewBillyAdapter(state *State) *BillyAdapter {
	return &BillyAdapter{
		state: state,
		uid:   uint32(os.Getuid()),
		gid:   uint32(os.Getgid()),
	}
}

// toOSError maps entity-model errors onto the os sentinel errors go-nfs
// understands.
func toOSError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrPathNotFound),
		errors.Is(err, common.ErrBrokenSymCidLink),
		errors.Is(err, store.ErrBlockNotFound):
		return os.ErrNotExist
	case errors.Is(err, common.ErrPathExists):
		return os.ErrExist
	case errors.Is(err, common.ErrInvalidPathComponent),
		errors.Is(err, common.ErrPathIsEmpty):
		return os.ErrInvalid
	default:
		return err
	}
}

// resolve returns the entity at p without dereferencing a terminal link.
// An empty or "/" path yields the root directory.
func (b *BillyAdapter) resolve(p string) (fs.Entity, store.CID, error) {
	ctx := context.Background()
	segments, _, err := common.SplitSegments(p)
	if err != nil {
		return nil, "", toOSError(err)
	}
	root := b.state.Root()
	if len(segments) == 0 {
		e, err := fs.LoadDirectory(ctx, b.state.Store(), root)
		if err != nil {
			return nil, "", toOSError(err)
		}
		return e, root, nil
	}
	e, cid, err := fs.NewResolver(b.state.Store(), root).Resolve(ctx, segments, fs.ResolveOptions{})
	if err != nil {
		return nil, "", toOSError(err)
	}
	return e, cid, nil
}

func (b *BillyAdapter) Create(filename string) (billy.File, error) {
	return b.OpenFile(filename, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
}

func (b *BillyAdapter) Open(filename string) (billy.File, error) {
	return b.OpenFile(filename, os.O_RDONLY, 0)
}

func (b *BillyAdapter) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	ctx := context.Background()
	writable := flag&(os.O_WRONLY|os.O_RDWR) != 0

	e, _, err := b.resolve(filename)
	switch {
	case err == nil:
		if _, ok := e.(*fs.Directory); ok {
			return nil, os.ErrInvalid
		}
		if flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0 {
			return nil, os.ErrExist
		}
	case errors.Is(err, os.ErrNotExist) && flag&os.O_CREATE != 0:
		// Created on first flush below.
	default:
		if err != nil {
			return nil, err
		}
	}

	var content []byte
	if err == nil && flag&os.O_TRUNC == 0 {
		f, ok := e.(*fs.File)
		if !ok {
			return nil, os.ErrInvalid
		}
		content, err = f.Content(ctx, b.state.Store())
		if err != nil {
			return nil, toOSError(err)
		}
	}

	h := &billyFile{adapter: b, path: filename, buf: content, writable: writable}
	if flag&os.O_CREATE != 0 && e == nil {
		// Materialize the entry immediately so a following GETATTR sees it.
		if err := h.flush(); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (b *BillyAdapter) Stat(filename string) (os.FileInfo, error) {
	return b.Lstat(filename)
}

func (b *BillyAdapter) Lstat(filename string) (os.FileInfo, error) {
	e, _, err := b.resolve(filename)
	if err != nil {
		return nil, err
	}
	return b.fileInfo(path.Base(path.Clean("/"+filename)), filename, e), nil
}

func (b *BillyAdapter) fileInfo(name, fullPath string, e fs.Entity) *BillyFileInfo {
	fi := &BillyFileInfo{name: name, kind: e.Kind(), uid: b.uid, gid: b.gid, fileid: pathFileID(fullPath)}
	if f, ok := e.(*fs.File); ok {
		fi.size = f.Size
	}
	return fi
}

func (b *BillyAdapter) Rename(oldpath, newpath string) error {
	return toOSError(b.state.Mutate(context.Background(), func(root store.CID) (store.CID, error) {
		return fs.Rename(context.Background(), b.state.Store(), root, trimPath(oldpath), trimPath(newpath))
	}))
}

func (b *BillyAdapter) Remove(filename string) error {
	return toOSError(b.state.Mutate(context.Background(), func(root store.CID) (store.CID, error) {
		return fs.Remove(context.Background(), b.state.Store(), root, trimPath(filename))
	}))
}

func (b *BillyAdapter) Join(elem ...string) string {
	return path.Join(elem...)
}

func (b *BillyAdapter) TempFile(dir, prefix string) (billy.File, error) {
	return nil, os.ErrInvalid
}

func (b *BillyAdapter) ReadDir(dirname string) ([]os.FileInfo, error) {
	ctx := context.Background()
	e, _, err := b.resolve(dirname)
	if err != nil {
		return nil, err
	}
	dir, ok := e.(*fs.Directory)
	if !ok {
		return nil, os.ErrInvalid
	}

	var result []os.FileInfo
	for _, ent := range dir.Entries() {
		child, err := fs.LoadEntity(ctx, b.state.Store(), ent.Target)
		if err != nil {
			return nil, toOSError(err)
		}
		full := path.Join(trimPath(dirname), ent.Name.String())
		result = append(result, b.fileInfo(ent.Name.String(), full, child))
	}
	return result, nil
}

func (b *BillyAdapter) MkdirAll(filename string, perm os.FileMode) error {
	segments, _, err := common.SplitSegments(filename)
	if err != nil {
		return toOSError(err)
	}
	for i := range segments {
		p := common.JoinSegments(segments[:i+1])
		e, _, err := b.resolve(p)
		if err == nil {
			if _, ok := e.(*fs.Directory); !ok {
				return os.ErrInvalid
			}
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		err = b.state.Mutate(context.Background(), func(root store.CID) (store.CID, error) {
			return fs.Mkdir(context.Background(), b.state.Store(), root, p)
		})
		if err != nil && !errors.Is(toOSError(err), os.ErrExist) {
			return toOSError(err)
		}
	}
	return nil
}

// Symlink stores a CID link when target parses as a CID, a path link
// otherwise.
func (b *BillyAdapter) Symlink(target, link string) error {
	ctx := context.Background()
	return toOSError(b.state.Mutate(ctx, func(root store.CID) (store.CID, error) {
		if cid, err := store.ParseCID(target); err == nil {
			return fs.AddCidLink(ctx, b.state.Store(), root, trimPath(link), cid)
		}
		return fs.AddPathLink(ctx, b.state.Store(), root, trimPath(link), target)
	}))
}

func (b *BillyAdapter) Readlink(link string) (string, error) {
	e, _, err := b.resolve(link)
	if err != nil {
		return "", err
	}
	switch l := e.(type) {
	case *fs.PathLink:
		return l.TargetPath(), nil
	case *fs.CidLink:
		return l.Target.String(), nil
	default:
		return "", os.ErrInvalid
	}
}

func (b *BillyAdapter) Chroot(path string) (billy.Filesystem, error) {
	return nil, os.ErrInvalid
}

func (b *BillyAdapter) Root() string {
	return "/"
}

// billy.Change interface. Modes and ownership are not part of the entity
// model; accept and discard so clients like tar and cp don't fail.
func (b *BillyAdapter) Chmod(name string, mode os.FileMode) error         { return nil }
func (b *BillyAdapter) Lchown(name string, uid, gid int) error            { return nil }
func (b *BillyAdapter) Chown(name string, uid, gid int) error             { return nil }
func (b *BillyAdapter) Chtimes(name string, atime, mtime time.Time) error { return nil }

func (b *BillyAdapter) Capabilities() billy.Capability {
	return billy.WriteCapability | billy.ReadCapability |
		billy.ReadAndWriteCapability | billy.SeekCapability | billy.TruncateCapability
}

// trimPath normalizes a billy path to a relative entity path.
func trimPath(p string) string {
	clean := path.Clean("/" + p)
	if clean == "/" {
		return ""
	}
	return clean[1:]
}

// pathFileID derives a stable inode number for a path.
func pathFileID(p string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(trimPath(p)))
	return h.Sum64()
}

// billyFile buffers file content in memory; writable handles rebuild the
// file entity and swap the head on flush. go-nfs opens and closes a handle
// per request, so Close is a reliable flush point.
type billyFile struct {
	adapter  *BillyAdapter
	path     string
	buf      []byte
	offset   int64
	writable bool
	dirty    bool
}

func (f *billyFile) Name() string {
	return f.path
}

func (f *billyFile) Write(p []byte) (int, error) {
	if !f.writable {
		return 0, os.ErrPermission
	}
	end := f.offset + int64(len(p))
	if end > int64(len(f.buf)) {
		grown := make([]byte, end)
		copy(grown, f.buf)
		f.buf = grown
	}
	copy(f.buf[f.offset:end], p)
	f.offset = end
	f.dirty = true
	return len(p), nil
}

func (f *billyFile) Read(p []byte) (int, error) {
	if f.offset >= int64(len(f.buf)) {
		return 0, io.EOF
	}
	n := copy(p, f.buf[f.offset:])
	f.offset += int64(n)
	return n, nil
}

func (f *billyFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(f.buf)) {
		return 0, io.EOF
	}
	n := copy(p, f.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *billyFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		f.offset = offset
	case io.SeekCurrent:
		f.offset += offset
	case io.SeekEnd:
		f.offset = int64(len(f.buf)) + offset
	}
	return f.offset, nil
}

func (f *billyFile) Truncate(size int64) error {
	if !f.writable {
		return os.ErrPermission
	}
	if size <= int64(len(f.buf)) {
		f.buf = f.buf[:size]
	} else {
		grown := make([]byte, size)
		copy(grown, f.buf)
		f.buf = grown
	}
	f.dirty = true
	return nil
}

func (f *billyFile) Close() error {
	if f.dirty {
		return f.flush()
	}
	return nil
}

func (f *billyFile) flush() error {
	ctx := context.Background()
	err := f.adapter.state.Mutate(ctx, func(root store.CID) (store.CID, error) {
		return fs.WriteFile(ctx, f.adapter.state.Store(), root, trimPath(f.path), f.buf, true)
	})
	if err != nil {
		return toOSError(err)
	}
	f.dirty = false
	return nil
}

func (f *billyFile) Lock() error   { return nil }
func (f *billyFile) Unlock() error { return nil }

// BillyFileInfo reports entity metadata in os.FileInfo form. The entity
// model carries no modes or timestamps; defaults are reported.
type BillyFileInfo struct {
	name   string
	kind   fs.Kind
	size   int64
	fileid uint64
	uid    uint32
	gid    uint32
}

func (fi *BillyFileInfo) Name() string { return fi.name }

func (fi *BillyFileInfo) Size() int64 { return fi.size }

func (fi *BillyFileInfo) Mode() os.FileMode {
	switch fi.kind {
	case fs.KindDirectory:
		return os.ModeDir | 0755
	case fs.KindCidLink, fs.KindPathLink:
		return os.ModeSymlink | 0777
	default:
		return 0644
	}
}

func (fi *BillyFileInfo) ModTime() time.Time { return time.Now() }

func (fi *BillyFileInfo) IsDir() bool { return fi.kind == fs.KindDirectory }

func (fi *BillyFileInfo) Sys() interface{} {
	// go-nfs's GetInfo() only recognizes file.FileInfo or *file.FileInfo.
	return &nfsfile.FileInfo{
		Nlink:  1,
		UID:    fi.uid,
		GID:    fi.gid,
		Fileid: fi.fileid,
	}
}
