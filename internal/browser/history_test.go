package browser

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worksentry/internal/record"
	"worksentry/internal/store"
)

func writeSampleHistoryDB(t *testing.T, profileDir string) {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(profileDir, "History"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE urls (
		id INTEGER PRIMARY KEY,
		url TEXT,
		title TEXT,
		visit_count INTEGER,
		last_visit_time INTEGER
	)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO urls (url, title, visit_count, last_visit_time) VALUES
		('https://go.dev', 'The Go Programming Language', 42, 13303161600000000),
		('https://example.com/empty-title', '', 5, 13303161600000000),
		('https://golang.org/pkg', 'Go Packages', 10, 13303161600000000)
	`)
	require.NoError(t, err)
}

func TestExtractHistory_ReadsMostVisitedRowsWithNonEmptyTitles(t *testing.T) {
	s := openTestStore(t)
	e := New(s)

	profileDir := t.TempDir()
	writeSampleHistoryDB(t, profileDir)

	require.NoError(t, e.extractHistory(profileDir, "Chrome (Default)"))

	var members []record.Record
	err := s.View(func(r *store.Reader) error {
		members = r.TypeMembers(record.TypeHistory)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, members, 2, "empty-title row must be dropped")

	var names []string
	for _, m := range members {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "The Go Programming Language")
	assert.Contains(t, names, "Go Packages")
}

func TestExtractHistory_MissingFileIsNotAnError(t *testing.T) {
	s := openTestStore(t)
	e := New(s)
	assert.NoError(t, e.extractHistory(t.TempDir(), "Chrome (Default)"))
}

func TestWebkitToUnix_ConvertsEpoch(t *testing.T) {
	assert.Equal(t, int64(0), webkitToUnix(0))
	assert.Greater(t, webkitToUnix(webkitEpochOffsetMicros+1_000_000), int64(0))
}

func TestCopyToTemp_ProducesIndependentFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "History")
	require.NoError(t, os.WriteFile(src, []byte("sqlite-bytes"), 0o644))

	tmp, err := copyToTemp(src)
	require.NoError(t, err)
	defer os.Remove(tmp)

	data, err := os.ReadFile(tmp)
	require.NoError(t, err)
	assert.Equal(t, "sqlite-bytes", string(data))
}
