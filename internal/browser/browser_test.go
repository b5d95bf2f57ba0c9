package browser

import (
	"os"
	"path/filepath"
	"testing"

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

const sampleBookmarksJSON = `{
  "roots": {
    "bookmark_bar": {
      "type": "folder",
      "children": [
        {"type": "url", "name": "Go Docs", "url": "https://go.dev/doc"},
        {"type": "folder", "children": [
          {"type": "url", "name": "Nested Link", "url": "https://example.com/nested"}
        ]}
      ]
    },
    "other": {"type": "folder", "children": []}
  }
}`

func TestExtractBookmarks_WalksNestedFolders(t *testing.T) {
	s := openTestStore(t)
	e := New(s)

	profileDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(profileDir, "Bookmarks"), []byte(sampleBookmarksJSON), 0o644))

	require.NoError(t, e.extractBookmarks(profileDir, "Chrome (Default)"))

	var members []record.Record
	err := s.View(func(r *store.Reader) error {
		members = r.TypeMembers(record.TypeBookmark)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, members, 2)

	names := []string{members[0].Name, members[1].Name}
	assert.Contains(t, names, "Go Docs")
	assert.Contains(t, names, "Nested Link")
}

func TestExtractBookmarks_MissingFileIsNotAnError(t *testing.T) {
	s := openTestStore(t)
	e := New(s)
	assert.NoError(t, e.extractBookmarks(t.TempDir(), "Chrome (Default)"))
}

func TestExtractBookmarks_ReExtractionReplacesStalePairs(t *testing.T) {
	s := openTestStore(t)
	e := New(s)

	profileDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(profileDir, "Bookmarks"), []byte(sampleBookmarksJSON), 0o644))
	require.NoError(t, e.extractBookmarks(profileDir, "Chrome (Default)"))

	trimmed := `{"roots":{"bookmark_bar":{"type":"folder","children":[
		{"type":"url","name":"Go Docs","url":"https://go.dev/doc"}
	]}}}`
	require.NoError(t, os.WriteFile(filepath.Join(profileDir, "Bookmarks"), []byte(trimmed), 0o644))
	require.NoError(t, e.extractBookmarks(profileDir, "Chrome (Default)"))

	var members []record.Record
	err := s.View(func(r *store.Reader) error {
		members = r.TypeMembers(record.TypeBookmark)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestPurgeByType_RemovesEveryMatchingRecord(t *testing.T) {
	s := openTestStore(t)
	e := New(s)

	profileDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(profileDir, "Bookmarks"), []byte(sampleBookmarksJSON), 0o644))
	require.NoError(t, e.extractBookmarks(profileDir, "Chrome (Default)"))

	require.NoError(t, e.PurgeByType(record.TypeBookmark))

	var members []record.Record
	err := s.View(func(r *store.Reader) error {
		members = r.TypeMembers(record.TypeBookmark)
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestProfileDirs_FindsDefaultAndNumberedProfiles(t *testing.T) {
	userData := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(userData, "Default"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(userData, "Profile 1"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(userData, "System Profile"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(userData, "Local State"), []byte("{}"), 0o644))

	dirs := profileDirs(userData)
	assert.Len(t, dirs, 2)
}
