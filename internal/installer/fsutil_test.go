package installer

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/Bin/nested/premake5", []byte("elf"), 0o644))

	t.Run("keeps_source_mode", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, copyFile(fs, "/Bin/nested/premake5", "/Copy/a/premake5", 0))

		data, err := afero.ReadFile(fs, "/Copy/a/premake5")
		require.NoError(t, err)
		assert.Equal(t, "elf", string(data))

		info, err := fs.Stat("/Copy/a/premake5")
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	})

	t.Run("mode_override", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, copyFile(fs, "/Bin/nested/premake5", "/Copy/b/premake5", 0o755))

		info, err := fs.Stat("/Copy/b/premake5")
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	})

	t.Run("missing_source", func(t *testing.T) {
		t.Parallel()

		err := copyFile(fs, "/Bin/absent", "/Copy/c/absent", 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "open source failed")
	})
}

func TestMoveFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/Bin/premake-5.0.0/premake5", []byte("elf"), 0o755))

	require.NoError(t, moveFile(fs, "/Bin/premake-5.0.0/premake5", "/Bin/premake5"))

	data, err := afero.ReadFile(fs, "/Bin/premake5")
	require.NoError(t, err)
	assert.Equal(t, "elf", string(data))

	exists, err := afero.Exists(fs, "/Bin/premake-5.0.0/premake5")
	require.NoError(t, err)
	assert.False(t, exists)
}
