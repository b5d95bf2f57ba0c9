package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestAddFolder_IndexesAndFindsFiles(t *testing.T) {
	svc := newTestService(t)

	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "notes.txt"), []byte("project roadmap draft"), 0o644))

	require.NoError(t, svc.AddFolder(source))

	results, err := svc.Search("roadmap", false, false)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "notes.txt", results[0].Name)

	assert.Contains(t, svc.GetFolders(), source)
}

func TestAddFolder_RejectsNonDirectory(t *testing.T) {
	svc := newTestService(t)

	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	err := svc.AddFolder(file)
	assert.Error(t, err)
}

func TestRemoveFolder_PurgesRecords(t *testing.T) {
	svc := newTestService(t)

	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, svc.AddFolder(source))

	results, err := svc.Search("alpha", false, false)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	require.NoError(t, svc.RemoveFolder(source))
	assert.NotContains(t, svc.GetFolders(), source)

	results, err = svc.Search("alpha", false, false)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestReindex_ReportsStats(t *testing.T) {
	svc := newTestService(t)

	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "b.txt"), []byte("beta"), 0o644))
	require.NoError(t, svc.AddFolder(source))

	stats, err := svc.Reindex(context.Background(), source)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.Processed, int64(1))
}

func TestGetIndexStats_ReflectsAddedDocuments(t *testing.T) {
	svc := newTestService(t)

	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "c.txt"), []byte("gamma"), 0o644))
	require.NoError(t, svc.AddFolder(source))

	stats, err := svc.GetIndexStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.DocumentCount)
}

func TestSetBookmarksEnabled_IsIdempotentAboutSideEffects(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.SetBookmarksEnabled(true))
	assert.True(t, svc.GetConfig().EnableBookmarks)

	require.NoError(t, svc.SetBookmarksEnabled(true))
	assert.True(t, svc.GetConfig().EnableBookmarks)

	require.NoError(t, svc.SetBookmarksEnabled(false))
	assert.False(t, svc.GetConfig().EnableBookmarks)
}

func TestFindRelated_UnknownPathReturnsEmpty(t *testing.T) {
	svc := newTestService(t)

	related, err := svc.FindRelated("/no/such/path", 5)
	require.NoError(t, err)
	assert.Empty(t, related)
}

func TestSaveConfig_PersistsCosmeticFields(t *testing.T) {
	svc := newTestService(t)

	cfg := svc.GetConfig()
	cfg.MaxResults = 10
	cfg.Display.ShowHiddenFiles = true
	require.NoError(t, svc.SaveConfig(cfg))

	assert.Equal(t, 10, svc.GetConfig().MaxResults)
	assert.True(t, svc.GetConfig().Display.ShowHiddenFiles)
}
