package filestorage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileStorage_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewLocalFileStorage(dir)
	require.NoError(t, err)

	url, err := storage.Save(strings.NewReader("png-bytes"), "Avatar.PNG", "profile-photos")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/profile-photos/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	onDisk := filepath.Join(dir, strings.TrimPrefix(url, PublicPrefix))
	content, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))

	require.NoError(t, storage.Delete(url))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, storage.Delete(url), "deleting twice is not an error")
}

func TestLocalFileStorage_DeleteIgnoresEscapes(t *testing.T) {
	parent := t.TempDir()
	outside := filepath.Join(parent, "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	storage, err := NewLocalFileStorage(filepath.Join(parent, "uploads"))
	require.NoError(t, err)

	require.NoError(t, storage.Delete("/uploads/../keep.txt"))
	_, err = os.Stat(outside)
	assert.NoError(t, err)
}
