package server

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monofs/internal/fs"
	"monofs/internal/store"
)

func openTestState(t *testing.T) *State {
	t.Helper()
	tmp := t.TempDir()
	state, err := OpenState(context.Background(),
		filepath.Join(tmp, "blocks"), filepath.Join(tmp, "fs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { state.Close() })
	return state
}

func writeTestFile(t *testing.T, b *BillyAdapter, name string, content []byte) {
	t.Helper()
	f, err := b.Create(name)
	require.NoError(t, err)
	_, err = f.Write(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func readTestFile(t *testing.T, b *BillyAdapter, name string) []byte {
	t.Helper()
	f, err := b.Open(name)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return data
}

func TestAdapterCreateWriteRead(t *testing.T) {
	b := NewBillyAdapter(openTestState(t))

	writeTestFile(t, b, "hello.txt", []byte("hello nfs"))
	assert.Equal(t, []byte("hello nfs"), readTestFile(t, b, "hello.txt"))

	fi, err := b.Stat("hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", fi.Name())
	assert.Equal(t, int64(9), fi.Size())
	assert.False(t, fi.IsDir())

	_, err = b.Open("missing.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAdapterCreateMaterializesImmediately(t *testing.T) {
	b := NewBillyAdapter(openTestState(t))

	f, err := b.Create("empty.txt")
	require.NoError(t, err)

	// Visible before the handle closes, the way NFS clients probe.
	fi, err := b.Stat("empty.txt")
	require.NoError(t, err)
	assert.Zero(t, fi.Size())
	require.NoError(t, f.Close())
}

func TestAdapterOpenFileFlags(t *testing.T) {
	b := NewBillyAdapter(openTestState(t))
	writeTestFile(t, b, "f", []byte("original"))

	// O_EXCL on an existing file fails.
	_, err := b.OpenFile("f", os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	assert.ErrorIs(t, err, os.ErrExist)

	// O_TRUNC discards previous content.
	h, err := b.OpenFile("f", os.O_WRONLY|os.O_TRUNC, 0o644)
	require.NoError(t, err)
	_, err = h.Write([]byte("new"))
	require.NoError(t, err)
	require.NoError(t, h.Close())
	assert.Equal(t, []byte("new"), readTestFile(t, b, "f"))

	// Writing through a read-only handle is refused.
	h, err = b.Open("f")
	require.NoError(t, err)
	_, err = h.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrPermission)
	require.NoError(t, h.Close())
}

func TestAdapterMkdirAllAndReadDir(t *testing.T) {
	b := NewBillyAdapter(openTestState(t))

	require.NoError(t, b.MkdirAll("a/b/c", 0o755))
	// Idempotent over existing directories.
	require.NoError(t, b.MkdirAll("a/b", 0o755))

	writeTestFile(t, b, "a/b/one", []byte("1"))
	writeTestFile(t, b, "a/b/two", []byte("22"))

	infos, err := b.ReadDir("a/b")
	require.NoError(t, err)
	require.Len(t, infos, 3)

	byName := map[string]os.FileInfo{}
	for _, fi := range infos {
		byName[fi.Name()] = fi
	}
	assert.True(t, byName["c"].IsDir())
	assert.Equal(t, int64(1), byName["one"].Size())
	assert.Equal(t, int64(2), byName["two"].Size())

	// A file in the middle of the path is a mismatch, not a directory.
	assert.ErrorIs(t, b.MkdirAll("a/b/one/x", 0o755), os.ErrInvalid)
}

func TestAdapterRenameRemove(t *testing.T) {
	b := NewBillyAdapter(openTestState(t))

	require.NoError(t, b.MkdirAll("src", 0o755))
	require.NoError(t, b.MkdirAll("dst", 0o755))
	writeTestFile(t, b, "src/f", []byte("payload"))

	require.NoError(t, b.Rename("src/f", "dst/f"))
	assert.Equal(t, []byte("payload"), readTestFile(t, b, "dst/f"))
	_, err := b.Stat("src/f")
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, b.Remove("dst/f"))
	_, err = b.Stat("dst/f")
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.ErrorIs(t, b.Remove("dst/f"), os.ErrNotExist)
}

func TestAdapterSymlinks(t *testing.T) {
	state := openTestState(t)
	b := NewBillyAdapter(state)

	writeTestFile(t, b, "target", []byte("linked"))

	// A plain path target becomes a path link.
	require.NoError(t, b.Symlink("target", "bypath"))
	got, err := b.Readlink("bypath")
	require.NoError(t, err)
	assert.Equal(t, "target", got)

	// A CID-shaped target becomes a cid link.
	_, cid, err := state.Resolver().ResolvePath(context.Background(), "target", fs.ResolveOptions{})
	require.NoError(t, err)
	require.NoError(t, b.Symlink(cid.String(), "bycid"))
	got, err = b.Readlink("bycid")
	require.NoError(t, err)
	assert.Equal(t, cid.String(), got)

	fi, err := b.Lstat("bypath")
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode()&os.ModeSymlink)

	_, err = b.Readlink("target")
	assert.ErrorIs(t, err, os.ErrInvalid)
}

func TestAdapterRootListing(t *testing.T) {
	b := NewBillyAdapter(openTestState(t))

	infos, err := b.ReadDir("")
	require.NoError(t, err)
	assert.Empty(t, infos)

	writeTestFile(t, b, "top", []byte("t"))
	infos, err = b.ReadDir("/")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "top", infos[0].Name())
}

func TestStatePersistsHeadAcrossReopen(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()
	storeDir := filepath.Join(tmp, "blocks")
	dbPath := filepath.Join(tmp, "fs.db")

	state, err := OpenState(ctx, storeDir, dbPath)
	require.NoError(t, err)
	b := NewBillyAdapter(state)
	writeTestFile(t, b, "persisted", []byte("still here"))
	head := state.Root()
	require.NoError(t, state.Close())

	state, err = OpenState(ctx, storeDir, dbPath)
	require.NoError(t, err)
	defer state.Close()
	assert.Equal(t, head, state.Root())
	assert.Equal(t, []byte("still here"), readTestFile(t, NewBillyAdapter(state), "persisted"))
}

func TestMutateFailureLeavesHead(t *testing.T) {
	state := openTestState(t)
	before := state.Root()

	err := state.Mutate(context.Background(), func(root store.CID) (store.CID, error) {
		return "", os.ErrInvalid
	})
	require.Error(t, err)
	assert.Equal(t, before, state.Root())
}

func TestPathFileIDStable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, pathFileID("a/b"), pathFileID("/a/b"))
	assert.NotEqual(t, pathFileID("a/b"), pathFileID("a/c"))
}
