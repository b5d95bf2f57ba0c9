package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worksentry/internal/record"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func doc(path, content string) record.Doc {
	return record.Doc{
		Record: record.Record{
			Path:       path,
			Name:       path,
			Extension:  "txt",
			Size:       int64(len(content)),
			MTime:      time.Now().Unix(),
			RecordType: record.TypeFile,
			Source:     "test",
		},
		Content: content,
	}
}

func TestUpsertAndDocument(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Upsert(doc("/a/report.txt", "quarterly report draft")))

	var got record.Record
	var ok bool
	err := s.View(func(r *Reader) error {
		got, ok = r.Document("/a/report.txt")
		return nil
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/a/report.txt", got.Path)
}

func TestUpsertIsIdempotentOnPath(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Upsert(doc("/a/x.txt", "one")))
	require.NoError(t, s.Upsert(doc("/a/x.txt", "two")))

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.DocumentCount)
}

func TestDeleteRemovesDocument(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Upsert(doc("/a/x.txt", "content")))
	require.NoError(t, s.Delete("/a/x.txt"))

	var ok bool
	err := s.View(func(r *Reader) error {
		_, ok = r.Document("/a/x.txt")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteByPrefixRemovesNestedDocuments(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Upsert(doc("/root/a.txt", "a")))
	require.NoError(t, s.Upsert(doc("/root/sub/b.txt", "b")))
	require.NoError(t, s.Upsert(doc("/other/c.txt", "c")))

	require.NoError(t, s.DeleteByPrefix("/root"))

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.DocumentCount)
}

func TestDeleteByTypeAndBySourceType(t *testing.T) {
	s := openTestStore(t)
	bm := doc("bookmark:1", "site")
	bm.RecordType = record.TypeBookmark
	bm.Source = "chrome"
	hist := doc("history:1", "page")
	hist.RecordType = record.TypeHistory
	hist.Source = "chrome"

	require.NoError(t, s.Upsert(bm))
	require.NoError(t, s.Upsert(hist))

	require.NoError(t, s.DeleteBySourceType("chrome", record.TypeBookmark))

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.ByType[record.TypeBookmark])
	assert.Equal(t, int64(1), stats.ByType[record.TypeHistory])

	require.NoError(t, s.DeleteByType(record.TypeHistory))
	stats, err = s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.ByType[record.TypeHistory])
}

func TestPostingsNameFindsTokenizedTerm(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Upsert(doc("/a/roadmap.txt", "future plans")))

	var results []record.Record
	err := s.View(func(r *Reader) error {
		results = r.PostingsName("roadmap")
		return nil
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/a/roadmap.txt", results[0].Path)
}

func TestBatchRepeatedUpsertOfSamePathLeavesOneDocument(t *testing.T) {
	s := openTestStore(t)
	b := s.NewBatch()
	for i := 0; i < 5; i++ {
		require.NoError(t, b.Upsert(doc("/batch/f.txt", "same path repeated")))
	}
	require.NoError(t, b.Commit())

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.DocumentCount)
}

func TestStatsReflectsSizeBytes(t *testing.T) {
	s := openTestStore(t)
	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Greater(t, stats.SizeBytes, int64(0))
}
