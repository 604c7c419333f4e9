package fs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monofs/internal/common"
	"monofs/internal/store"
)

func mustSave(t *testing.T, st store.Store, e Entity) store.CID {
	t.Helper()
	cid, err := SaveEntity(context.Background(), st, e)
	require.NoError(t, err)
	return cid
}

func TestEntityRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()

	target := mustSave(t, st, NewDirectory())
	file, err := NewFile(ctx, st, []byte("file content"))
	require.NoError(t, err)

	entities := []Entity{
		file,
		NewDirectory().Put("child", target),
		&CidLink{Target: target},
		&PathLink{Segments: []common.Segment{"a", "b"}, Rooted: false},
	}

	for _, e := range entities {
		t.Run(e.Kind().String(), func(t *testing.T) {
			t.Parallel()
			data, err := MarshalEntity(e)
			require.NoError(t, err)

			decoded, err := UnmarshalEntity(data)
			require.NoError(t, err)
			assert.Equal(t, e.Kind(), decoded.Kind())

			// Round trip preserves the serialized bytes, hence the CID.
			again, err := MarshalEntity(decoded)
			require.NoError(t, err)
			assert.Equal(t, store.ComputeCID(data), store.ComputeCID(again))
		})
	}
}

func TestUnmarshalEntityRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	payload, err := store.Marshal(map[string]string{})
	require.NoError(t, err)
	data, err := store.Marshal(struct {
		Kind Kind             `cbor:"k"`
		Data store.RawMessage `cbor:"d"`
	}{Kind: 99, Data: payload})
	require.NoError(t, err)

	_, err = UnmarshalEntity(data)
	assert.ErrorContains(t, err, "unknown entity kind")
}

func TestLoadWrongVariant(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()

	file, err := NewFile(ctx, st, []byte("x"))
	require.NoError(t, err)
	fileCID := mustSave(t, st, file)
	dirCID := mustSave(t, st, NewDirectory())
	cidLinkCID := mustSave(t, st, &CidLink{Target: dirCID})
	pathLinkCID := mustSave(t, st, &PathLink{Segments: []common.Segment{"x"}})

	_, err = LoadFile(ctx, st, dirCID)
	assert.ErrorIs(t, err, common.ErrNotAFile)

	_, err = LoadDirectory(ctx, st, fileCID)
	assert.ErrorIs(t, err, common.ErrNotADirectory)

	_, err = LoadCidLink(ctx, st, pathLinkCID)
	assert.ErrorIs(t, err, common.ErrNotASymCidLink)

	_, err = LoadPathLink(ctx, st, cidLinkCID)
	assert.ErrorIs(t, err, common.ErrNotASymPathLink)

	// The right variants still load.
	_, err = LoadFile(ctx, st, fileCID)
	assert.NoError(t, err)
	_, err = LoadCidLink(ctx, st, cidLinkCID)
	assert.NoError(t, err)
	_, err = LoadPathLink(ctx, st, pathLinkCID)
	assert.NoError(t, err)
}

func TestLoadEntityMissingBlock(t *testing.T) {
	t.Parallel()
	st := store.NewMemoryStore()

	_, err := LoadEntity(context.Background(), st, store.ComputeCID([]byte("absent")))
	assert.ErrorIs(t, err, common.ErrUnableToLoadEntity)
}

func TestDirectoryPutIdempotentOnCID(t *testing.T) {
	t.Parallel()
	st := store.NewMemoryStore()

	target := mustSave(t, st, NewDirectory())
	other := mustSave(t, st, &PathLink{Segments: []common.Segment{"y"}})

	dir := NewDirectory().Put("a", target).Put("b", other)
	base := mustSave(t, st, dir)

	// Replacing an entry with the CID it already holds keeps the CID.
	same := mustSave(t, st, dir.Put("a", target))
	assert.Equal(t, base, same)

	// Replacing it with a different CID changes the CID but not the order.
	changed := dir.Put("a", other)
	changedCID := mustSave(t, st, changed)
	assert.NotEqual(t, base, changedCID)
	require.Equal(t, 2, changed.Len())
	assert.Equal(t, common.Segment("a"), changed.Entries()[0].Name)
}

func TestDirectoryDelete(t *testing.T) {
	t.Parallel()
	st := store.NewMemoryStore()
	target := mustSave(t, st, NewDirectory())

	dir := NewDirectory().Put("a", target).Put("b", target)

	next, ok := dir.Delete("a")
	assert.True(t, ok)
	assert.Equal(t, 1, next.Len())
	assert.False(t, next.Has("a"))
	assert.Equal(t, 2, dir.Len(), "original snapshot is untouched")

	_, ok = dir.Delete("missing")
	assert.False(t, ok)
}

func TestFileChunkingRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemoryStore()

	// Three chunks plus a tail.
	content := make([]byte, 3*ChunkSize+100)
	for i := range content {
		content[i] = byte(i % 251)
	}

	f, err := NewFile(ctx, st, content)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), f.Size)
	assert.Len(t, f.Chunks, 4)

	got, err := f.Content(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}
