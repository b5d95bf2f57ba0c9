package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worksentry/internal/record"
	"worksentry/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBulkIndex_IndexesContentIndexableFiles(t *testing.T) {
	s := openTestStore(t)
	ix := New(s, nil)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hello world"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "image.png"), []byte("binary"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden.txt"), []byte("secret"), 0o644))

	stats, err := ix.BulkIndex(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Written, "notes.txt (content) + image.png (filename-only)")
	assert.GreaterOrEqual(t, stats.Skipped, int64(1))

	var found bool
	err = s.View(func(r *store.Reader) error {
		_, found = r.Document(filepath.Join(root, "notes.txt"))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, found)
}

func TestBulkIndex_SkipsUnchangedFilesOnSecondPass(t *testing.T) {
	s := openTestStore(t)
	ix := New(s, nil)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("v1"), 0o644))

	_, err := ix.BulkIndex(context.Background(), root)
	require.NoError(t, err)

	stats, err := ix.BulkIndex(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Written)
}

func TestBulkIndex_SweepsOrphansAfterDeletion(t *testing.T) {
	s := openTestStore(t)
	ix := New(s, nil)

	root := t.TempDir()
	path := filepath.Join(root, "gone.txt")
	require.NoError(t, os.WriteFile(path, []byte("temp"), 0o644))

	_, err := ix.BulkIndex(context.Background(), root)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	stats, err := ix.BulkIndex(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Removed)
}

func TestIndexFile_ThenDeleteFile(t *testing.T) {
	s := openTestStore(t)
	ix := New(s, nil)

	path := filepath.Join(t.TempDir(), "single.txt")
	require.NoError(t, os.WriteFile(path, []byte("standalone"), 0o644))

	require.NoError(t, ix.IndexFile(path))

	var found bool
	err := s.View(func(r *store.Reader) error {
		_, found = r.Document(path)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, found)

	require.NoError(t, ix.DeleteFile(path))
	err = s.View(func(r *store.Reader) error {
		_, found = r.Document(path)
		return nil
	})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBulkIndex_RewritesChangedFileContent(t *testing.T) {
	s := openTestStore(t)
	ix := New(s, nil)

	root := t.TempDir()
	path := filepath.Join(root, "changing.txt")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0o644))

	_, err := ix.BulkIndex(context.Background(), root)
	require.NoError(t, err)

	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.WriteFile(path, []byte("second version"), 0o644))
	require.NoError(t, os.Chtimes(path, future, future))

	stats, err := ix.BulkIndex(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Written)

	var rec record.Record
	var found bool
	err = s.View(func(r *store.Reader) error {
		rec, found = r.Document(path)
		return nil
	})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(len("second version")), rec.Size)
}
