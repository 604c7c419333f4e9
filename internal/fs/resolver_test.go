package fs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monofs/internal/common"
	"monofs/internal/store"
)

// buildTree stores a small fixture:
//
//	docs/
//	  readme.txt   (file "readme")
//	  nested/
//	    note.txt   (file "note")
func buildTree(t *testing.T, st store.Store) store.CID {
	t.Helper()
	ctx := context.Background()

	root, err := InitRoot(ctx, st)
	require.NoError(t, err)
	root, err = Mkdir(ctx, st, root, "docs")
	require.NoError(t, err)
	root, err = WriteFile(ctx, st, root, "docs/readme.txt", []byte("readme"), false)
	require.NoError(t, err)
	root, err = Mkdir(ctx, st, root, "docs/nested")
	require.NoError(t, err)
	root, err = WriteFile(ctx, st, root, "docs/nested/note.txt", []byte("note"), false)
	require.NoError(t, err)
	return root
}

// cidChain stores a chain of n cid links ending at base and returns the CID
// of the outermost link.
func cidChain(t *testing.T, st store.Store, base store.CID, n int) store.CID {
	t.Helper()
	cur := base
	for i := 0; i < n; i++ {
		cur = mustSave(t, st, &CidLink{Target: cur})
	}
	return cur
}

func TestResolvePlainTree(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()
	root := buildTree(t, st)
	r := NewResolver(st, root)

	e, _, err := r.ResolvePath(ctx, "docs/nested/note.txt", ResolveOptions{})
	require.NoError(t, err)
	f, ok := e.(*File)
	require.True(t, ok)
	content, err := f.Content(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, []byte("note"), content)

	e, _, err = r.ResolvePath(ctx, "docs", ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, KindDirectory, e.Kind())
}

func TestResolveFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()
	root := buildTree(t, st)
	r := NewResolver(st, root)

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"missing_entry", "docs/gone.txt", common.ErrPathNotFound},
		{"missing_parent", "nowhere/file", common.ErrPathNotFound},
		{"file_as_directory", "docs/readme.txt/x", common.ErrNotADirectory},
		{"rooted_path", "/docs", common.ErrPathHasRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := r.ResolvePath(ctx, tt.path, ResolveOptions{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, _, err := r.Resolve(ctx, nil, ResolveOptions{})
	assert.ErrorIs(t, err, common.ErrPathIsEmpty)
}

func TestResolveTerminalLink(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()
	root := buildTree(t, st)

	r := NewResolver(st, root)
	fileEntity, fileCID, err := r.ResolvePath(ctx, "docs/readme.txt", ResolveOptions{})
	require.NoError(t, err)

	root, err = AddCidLink(ctx, st, root, "ln", fileCID)
	require.NoError(t, err)
	r = NewResolver(st, root)

	// Without FollowTerminal the link entity itself comes back.
	e, _, err := r.ResolvePath(ctx, "ln", ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, KindCidLink, e.Kind())

	// With FollowTerminal the target comes back, at the target's CID.
	e, cid, err := r.ResolvePath(ctx, "ln", ResolveOptions{FollowTerminal: true})
	require.NoError(t, err)
	assert.Equal(t, fileEntity.Kind(), e.Kind())
	assert.Equal(t, fileCID, cid)
}

func TestResolveFollowDepth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()

	root, err := InitRoot(ctx, st)
	require.NoError(t, err)
	root, err = WriteFile(ctx, st, root, "base.txt", []byte("base"), false)
	require.NoError(t, err)

	r := NewResolver(st, root)
	_, baseCID, err := r.ResolvePath(ctx, "base.txt", ResolveOptions{})
	require.NoError(t, err)

	const max = 5
	withinCID := cidChain(t, st, baseCID, max)
	beyondCID := cidChain(t, st, baseCID, max+1)

	root, err = AddCidLink(ctx, st, root, "within", withinCID)
	require.NoError(t, err)
	root, err = AddCidLink(ctx, st, root, "beyond", beyondCID)
	require.NoError(t, err)
	r = NewResolver(st, root)

	// A chain exactly at the budget resolves; the outer entry makes the
	// chain max+1 and max+2 hops respectively, so give one extra unit.
	e, _, err := r.ResolvePath(ctx, "within", ResolveOptions{FollowTerminal: true, MaxFollowDepth: max + 1})
	require.NoError(t, err)
	assert.Equal(t, KindFile, e.Kind())

	_, _, err = r.ResolvePath(ctx, "beyond", ResolveOptions{FollowTerminal: true, MaxFollowDepth: max + 1})
	assert.ErrorIs(t, err, common.ErrMaxFollowDepth)
}

func TestResolveBrokenCidLink(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()

	root, err := InitRoot(ctx, st)
	require.NoError(t, err)
	root, err = AddCidLink(ctx, st, root, "dangling", store.ComputeCID([]byte("never stored")))
	require.NoError(t, err)

	r := NewResolver(st, root)
	_, _, err = r.ResolvePath(ctx, "dangling", ResolveOptions{FollowTerminal: true})
	assert.ErrorIs(t, err, common.ErrBrokenSymCidLink)
}

func TestResolveMidPathCidLink(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()
	root := buildTree(t, st)

	r := NewResolver(st, root)
	_, docsCID, err := r.ResolvePath(ctx, "docs", ResolveOptions{})
	require.NoError(t, err)

	root, err = AddCidLink(ctx, st, root, "docslink", docsCID)
	require.NoError(t, err)
	r = NewResolver(st, root)

	_, _, err = r.ResolvePath(ctx, "docslink/readme.txt", ResolveOptions{})
	assert.ErrorIs(t, err, common.ErrSymCidLinkUnsupported)
}

func TestResolveMidPathPathLink(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()
	root := buildTree(t, st)

	// The search path is interpreted from the filesystem root, not the
	// directory holding the link.
	root, err := AddPathLink(ctx, st, root, "docs/shortcut", "docs/nested")
	require.NoError(t, err)
	r := NewResolver(st, root)

	e, _, err := r.ResolvePath(ctx, "docs/shortcut/note.txt", ResolveOptions{})
	require.NoError(t, err)
	require.Equal(t, KindFile, e.Kind())
	content, err := e.(*File).Content(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, []byte("note"), content)
}

func TestResolvePathLinkFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()
	root := buildTree(t, st)

	emptyCID := mustSave(t, st, &PathLink{})
	rootedCID := mustSave(t, st, &PathLink{Segments: []common.Segment{"docs"}, Rooted: true})

	dir, err := LoadDirectory(ctx, st, root)
	require.NoError(t, err)
	root = mustSave(t, st, dir.Put("empty", emptyCID).Put("rooted", rootedCID))
	r := NewResolver(st, root)

	_, _, err = r.ResolvePath(ctx, "empty", ResolveOptions{FollowTerminal: true})
	assert.ErrorIs(t, err, common.ErrEmptySearchPath)

	_, _, err = r.ResolvePath(ctx, "rooted", ResolveOptions{FollowTerminal: true})
	assert.ErrorIs(t, err, common.ErrPathHasRoot)
}

func TestResolvePathLinkCycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()

	root, err := InitRoot(ctx, st)
	require.NoError(t, err)
	root, err = AddPathLink(ctx, st, root, "a", "b")
	require.NoError(t, err)
	root, err = AddPathLink(ctx, st, root, "b", "a")
	require.NoError(t, err)

	r := NewResolver(st, root)
	_, _, err = r.ResolvePath(ctx, "a", ResolveOptions{FollowTerminal: true})
	assert.ErrorIs(t, err, common.ErrMaxFollowDepth)
}
