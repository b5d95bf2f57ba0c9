package store

import (
	bolt "go.etcd.io/bbolt"

	"worksentry/internal/record"
)

// Reader exposes read-only access to a single MVCC snapshot of the
// index. It is only valid for the lifetime of the View callback that
// received it.
type Reader struct {
	tx *bolt.Tx
}

// View runs fn against a consistent snapshot of the index, isolated
// from any writes committed after the snapshot was taken and from any
// writes still in flight through the writer goroutine.
func (s *Store) View(fn func(*Reader) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(&Reader{tx: tx})
	})
}

// Document fetches the record stored at path.
func (r *Reader) Document(path string) (record.Record, bool) {
	paths := r.tx.Bucket(bucketPaths)
	idBytes := paths.Get([]byte(path))
	if idBytes == nil {
		return record.Record{}, false
	}
	return r.documentByID(decodeDocKey(idBytes))
}

// DocumentByID fetches the record stored under an internal document ID,
// as returned by DocID or by the semantic proximity index.
func (r *Reader) DocumentByID(id uint64) (record.Record, bool) {
	return r.documentByID(id)
}

func (r *Reader) documentByID(id uint64) (record.Record, bool) {
	documents := r.tx.Bucket(bucketDocuments)
	var rec record.Record
	found, err := getJSON(documents, docKey(id), &rec)
	if err != nil || !found {
		return record.Record{}, false
	}
	return rec, true
}

// DocID returns the internal document ID assigned to path, if indexed.
// Used to key the semantic proximity index off the same identity as the
// inverted index.
func (r *Reader) DocID(path string) (uint64, bool) {
	paths := r.tx.Bucket(bucketPaths)
	idBytes := paths.Get([]byte(path))
	if idBytes == nil {
		return 0, false
	}
	return decodeDocKey(idBytes), true
}

// MTime returns the indexed mtime for path, used by the indexer to skip
// unchanged files without re-reading their content.
func (r *Reader) MTime(path string) (int64, bool) {
	rec, ok := r.Document(path)
	if !ok {
		return 0, false
	}
	return rec.MTime, true
}

// PostingsName returns every record whose Name tokenizes to include
// term exactly.
func (r *Reader) PostingsName(term string) []record.Record {
	return r.postings(bucketPostingsName, term)
}

// PostingsContent returns every record whose Content tokenized to
// include term exactly.
func (r *Reader) PostingsContent(term string) []record.Record {
	return r.postings(bucketPostingsContent, term)
}

func (r *Reader) postings(bucket []byte, term string) []record.Record {
	ids := setMembers(r.tx, bucket, term)
	out := make([]record.Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := r.documentByID(id); ok {
			out = append(out, rec)
		}
	}
	return out
}

// TermsWithPrefix returns every distinct term stored in bucket whose key
// starts with prefix, used to satisfy a query clause that requests
// prefix matching (e.g. "rep" matching "report").
func (r *Reader) TermsWithPrefix(bucket []byte, prefix string) []string {
	parent := r.tx.Bucket(bucket)
	var out []string
	c := parent.Cursor()
	p := []byte(prefix)
	for k, _ := c.Seek(p); k != nil && hasBytePrefix(k, p); k, _ = c.Next() {
		out = append(out, string(k))
	}
	return out
}

// NameBucket and ContentBucket let callers outside this package (the
// query planner) address the postings buckets by name without reaching
// into store internals directly.
func NameBucket() []byte    { return bucketPostingsName }
func ContentBucket() []byte { return bucketPostingsContent }

// AllTerms returns every distinct term stored in bucket, used by fuzzy
// matching to compute edit distance against the full vocabulary.
func (r *Reader) AllTerms(bucket []byte) []string {
	parent := r.tx.Bucket(bucket)
	var out []string
	_ = parent.ForEach(func(k, v []byte) error {
		if v == nil { // nested bucket, not a leaf key/value pair
			out = append(out, string(k))
		}
		return nil
	})
	return out
}

// TypeMembers returns every record of the given type.
func (r *Reader) TypeMembers(t record.Type) []record.Record {
	ids := setMembers(r.tx, bucketByType, string(t))
	out := make([]record.Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := r.documentByID(id); ok {
			out = append(out, rec)
		}
	}
	return out
}

// ExtMembers returns every record with the given extension.
func (r *Reader) ExtMembers(ext string) []record.Record {
	ids := setMembers(r.tx, bucketByExt, ext)
	out := make([]record.Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := r.documentByID(id); ok {
			out = append(out, rec)
		}
	}
	return out
}

// PathsUnderRoot returns every indexed path equal to or nested under
// root, without deleting anything. Used by the indexer's orphan sweep to
// find candidates for removal.
func (r *Reader) PathsUnderRoot(root string) []string {
	paths := r.tx.Bucket(bucketPaths)
	var out []string
	c := paths.Cursor()
	prefix := []byte(root)
	for k, _ := c.Seek(prefix); k != nil && hasBytePrefix(k, prefix); k, _ = c.Next() {
		if len(k) == len(prefix) || k[len(prefix)] == '/' || k[len(prefix)] == '\\' {
			out = append(out, string(k))
		}
	}
	return out
}

// Stats reports point-in-time counters for get_index_stats.
type Stats struct {
	DocumentCount int64
	SizeBytes     int64
	ByType        map[record.Type]int64
}

// Stats computes the current document count, on-disk size, and a
// per-record-type breakdown from the live snapshot, per the store
// contract that these numbers are never cached.
func (s *Store) Stats() (Stats, error) {
	out := Stats{
		SizeBytes: s.SizeBytes(),
		ByType:    map[record.Type]int64{},
	}
	err := s.View(func(r *Reader) error {
		documents := r.tx.Bucket(bucketDocuments)
		out.DocumentCount = int64(documents.Stats().KeyN)

		byType := r.tx.Bucket(bucketByType)
		_ = byType.ForEach(func(k, v []byte) error {
			if v != nil {
				return nil
			}
			sub := byType.Bucket(k)
			out.ByType[record.Type(k)] = int64(sub.Stats().KeyN)
			return nil
		})
		return nil
	})
	return out, err
}
