package diskstorage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/config"
)

func newTestStorage(t *testing.T) *DiskImageStorage {
	dir := t.TempDir()

	cfg := config.New()
	cfg.EnableEnv("")
	t.Setenv("DISK_MEDIA_DIR", dir)

	strg, err := NewDiskStorage(cfg)
	require.NoError(t, err)
	require.Equal(t, dir, strg.Dir())

	return strg
}

func TestDiskStorage_PutAndDelete(t *testing.T) {
	strg := newTestStorage(t)
	ctx := context.Background()

	url, err := strg.Put(ctx, "a.jpg", 3, "image/jpeg", strings.NewReader("img"))
	require.NoError(t, err)
	require.Equal(t, "/media/a.jpg", url)

	content, err := os.ReadFile(filepath.Join(strg.Dir(), "a.jpg"))
	require.NoError(t, err)
	require.Equal(t, "img", string(content))

	require.NoError(t, strg.Delete(ctx, "a.jpg"))

	_, err = os.Stat(filepath.Join(strg.Dir(), "a.jpg"))
	require.True(t, os.IsNotExist(err))
}

// DELETE - ALREADY ABSENT FILE IS NOT AN ERROR
func TestDiskStorage_DeleteIdempotent(t *testing.T) {
	strg := newTestStorage(t)

	require.NoError(t, strg.Delete(context.Background(), "never-existed.jpg"))
}

// PUT - KEYS WITH PATH SEPARATORS ARE REJECTED
func TestDiskStorage_PutBadKey(t *testing.T) {
	strg := newTestStorage(t)
	ctx := context.Background()

	_, err := strg.Put(ctx, "../escape.jpg", 3, "image/jpeg", strings.NewReader("img"))
	require.Error(t, err)

	_, err = strg.Put(ctx, "nested/escape.jpg", 3, "image/jpeg", strings.NewReader("img"))
	require.Error(t, err)

	_, err = strg.Put(ctx, "a.jpg", 0, "image/jpeg", nil)
	require.Error(t, err)
}
