package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "css", "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "css", "site.css"), []byte("body{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "css", "vendor", "reset.css"), []byte("*{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "favicon.ico"), []byte("ico"), 0o644))

	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dst, "favicon.ico"), []byte("stale"), 0o644))

	n, err := CopyTree(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	data, err := os.ReadFile(filepath.Join(dst, "css", "vendor", "reset.css"))
	require.NoError(t, err)
	assert.Equal(t, "*{}", string(data))
	data, err = os.ReadFile(filepath.Join(dst, "favicon.ico"))
	require.NoError(t, err)
	assert.Equal(t, "ico", string(data))
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}
