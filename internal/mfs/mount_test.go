package mfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monofs/internal/common"
)

func TestCheckMountPointEmpty(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, checkMountPointEmpty(t.TempDir()))
	})

	t.Run("not_empty", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "leftover"), []byte("x"), 0o644))
		assert.ErrorIs(t, checkMountPointEmpty(dir), common.ErrMountPointNotEmpty)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, checkMountPointEmpty(filepath.Join(t.TempDir(), "nope")))
	})
}
