package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCID(t *testing.T) {
	t.Parallel()

	a := ComputeCID([]byte("hello"))
	b := ComputeCID([]byte("hello"))
	c := ComputeCID([]byte("hello!"))

	assert.Equal(t, a, b, "same bytes must hash to the same CID")
	assert.NotEqual(t, a, c, "different bytes must hash to different CIDs")
	assert.True(t, strings.HasPrefix(a.String(), "b3"))
	assert.Len(t, a.String(), 2+64)
	assert.True(t, a.Defined())
}

func TestParseCID(t *testing.T) {
	t.Parallel()

	valid := ComputeCID([]byte("x")).String()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", valid, false},
		{"empty", "", true},
		{"bad_prefix", "sha" + valid[2:], true},
		{"too_short", valid[:20], true},
		{"non_hex", valid[:len(valid)-1] + "z", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cid, err := ParseCID(tt.input)
			if tt.wantErr {
				assert.Error(t, err, "ParseCID(%q)", tt.input)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, cid.String())
		})
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := NewMemoryStore()

	cid, err := st.PutBytes(ctx, []byte("block one"))
	require.NoError(t, err)
	assert.Equal(t, ComputeCID([]byte("block one")), cid)

	data, err := st.Get(ctx, cid)
	require.NoError(t, err)
	assert.Equal(t, []byte("block one"), data)

	ok, err := st.Has(ctx, cid)
	require.NoError(t, err)
	assert.True(t, ok)

	missing := ComputeCID([]byte("never stored"))
	_, err = st.Get(ctx, missing)
	assert.ErrorIs(t, err, ErrBlockNotFound)

	ok, err = st.Has(ctx, missing)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	cid, err := st.PutBytes(ctx, []byte("on disk"))
	require.NoError(t, err)

	// Re-putting identical content is a no-op yielding the same CID.
	again, err := st.PutBytes(ctx, []byte("on disk"))
	require.NoError(t, err)
	assert.Equal(t, cid, again)

	data, err := st.Get(ctx, cid)
	require.NoError(t, err)
	assert.Equal(t, []byte("on disk"), data)

	ok, err := st.Has(ctx, cid)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = st.Get(ctx, ComputeCID([]byte("absent")))
	assert.ErrorIs(t, err, ErrBlockNotFound)
}

func TestDeterministicMarshal(t *testing.T) {
	t.Parallel()

	type sample struct {
		B string `cbor:"b"`
		A int    `cbor:"a"`
	}

	one, err := Marshal(sample{B: "x", A: 7})
	require.NoError(t, err)
	two, err := Marshal(sample{B: "x", A: 7})
	require.NoError(t, err)
	assert.Equal(t, one, two, "encoding must be byte-deterministic")

	var got sample
	require.NoError(t, Unmarshal(one, &got))
	assert.Equal(t, sample{B: "x", A: 7}, got)
}
