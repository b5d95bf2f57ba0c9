package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_WritesDefaultOnMissing(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), s.Get())

	data, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"max_results\"")
}

func TestOpen_SelfHealsMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte("{not json"), 0o600))

	s, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), s.Get())
}

func TestOpen_LoadsExistingDocument(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	cfg := s.Get()
	cfg.Roots = []string{"/home/user/docs"}
	cfg.MaxResults = 25
	require.NoError(t, s.Save(cfg))

	reopened, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"/home/user/docs"}, reopened.Get().Roots)
	assert.Equal(t, 25, reopened.Get().MaxResults)
}

func TestAddRootAndRemoveRoot(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	added, err := s.AddRoot("/a")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddRoot("/a")
	require.NoError(t, err)
	assert.False(t, added, "adding the same root twice must be idempotent")

	_, err = s.AddRoot("/b")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, s.Get().Roots)

	removed, err := s.RemoveRoot("/a")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"/b"}, s.Get().Roots)

	removed, err = s.RemoveRoot("/nope")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSetBookmarksEnabled_ReportsPreviousValue(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	prev, err := s.SetBookmarksEnabled(true)
	require.NoError(t, err)
	assert.False(t, prev)
	assert.True(t, s.Get().EnableBookmarks)

	prev, err = s.SetBookmarksEnabled(true)
	require.NoError(t, err)
	assert.True(t, prev)
}

func TestWriteAtomicity_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(Default()))

	_, err = os.Stat(filepath.Join(dir, fileName+".tmp"))
	assert.True(t, os.IsNotExist(err), "temp file must not survive a successful write")
}
