package store

import (
	bolt "go.etcd.io/bbolt"

	"worksentry/internal/record"
)

// Upsert replaces any existing document at doc.Path and inserts doc, all
// in one commit. Re-indexing an unchanged file is idempotent: the old
// postings are removed and identical new ones are added back.
func (s *Store) Upsert(doc record.Doc) error {
	return s.submit([]func(*bolt.Tx) error{
		removeByPathOp(doc.Path),
		insertOp(doc),
	})
}

// Delete removes the document at path, if any. It is a no-op (not an
// error) when path is not indexed.
func (s *Store) Delete(path string) error {
	return s.submit([]func(*bolt.Tx) error{removeByPathOp(path)})
}

// DeleteByPrefix removes every document whose path is root or lies
// underneath root, used when a watched folder is removed from the
// registry.
func (s *Store) DeleteByPrefix(root string) error {
	return s.submit([]func(*bolt.Tx) error{deleteByPrefixOp(root)})
}

// DeleteByType removes every document of the given record type, used
// when browser search is disabled and its bookmarks/history entries
// must be purged.
func (s *Store) DeleteByType(t record.Type) error {
	return s.submit([]func(*bolt.Tx) error{deleteByTypeOp(t)})
}

func deleteByPrefixOp(root string) func(*bolt.Tx) error {
	return func(tx *bolt.Tx) error {
		paths := tx.Bucket(bucketPaths)
		var matches []string

		c := paths.Cursor()
		prefix := []byte(root)
		for k, _ := c.Seek(prefix); k != nil && hasBytePrefix(k, prefix); k, _ = c.Next() {
			if len(k) == len(prefix) || k[len(prefix)] == '/' || k[len(prefix)] == '\\' {
				matches = append(matches, string(k))
			}
		}
		for _, p := range matches {
			if err := removeByPathOp(p)(tx); err != nil {
				return err
			}
		}
		return nil
	}
}

// DeleteBySourceType removes every record with the given source and
// record type in one commit, used by the browser extractor's
// per-profile idempotent replace (SPEC_FULL.md §4.4).
func (s *Store) DeleteBySourceType(source string, t record.Type) error {
	return s.submit([]func(*bolt.Tx) error{deleteBySourceTypeOp(source, t)})
}

func deleteBySourceTypeOp(source string, t record.Type) func(*bolt.Tx) error {
	return func(tx *bolt.Tx) error {
		ids := setMembers(tx, bucketByType, string(t))
		documents := tx.Bucket(bucketDocuments)
		for _, id := range ids {
			var rec record.Record
			found, err := getJSON(documents, docKey(id), &rec)
			if err != nil {
				return err
			}
			if !found || rec.Source != source {
				continue
			}
			if err := removeDocOp(id, rec.Path)(tx); err != nil {
				return err
			}
		}
		return nil
	}
}

func deleteByTypeOp(t record.Type) func(*bolt.Tx) error {
	return func(tx *bolt.Tx) error {
		ids := setMembers(tx, bucketByType, string(t))
		documents := tx.Bucket(bucketDocuments)
		for _, id := range ids {
			var rec record.Record
			found, err := getJSON(documents, docKey(id), &rec)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			if err := removeDocOp(id, rec.Path)(tx); err != nil {
				return err
			}
		}
		return nil
	}
}

func hasBytePrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

// approxDocSize estimates the in-memory footprint of indexing doc, used
// to enforce the writer's buffer budget across a Batch.
func approxDocSize(doc record.Doc) int {
	return len(doc.Path) + len(doc.Name) + len(doc.Content) + 64
}

// Batch accumulates upserts and deletes to be committed together. Bulk
// indexing passes use a Batch so that, for a typical folder, the entire
// pass lands in a single bbolt transaction rather than one per file. If
// the accumulated size would exceed MaxBufferBytes, the batch flushes
// itself early and continues collecting, so no single Batch ever holds
// more than the configured writer buffer budget in memory at once.
type Batch struct {
	store       *Store
	ops         []func(*bolt.Tx) error
	approxBytes int
}

// NewBatch returns an empty batch bound to s.
func (s *Store) NewBatch() *Batch {
	return &Batch{store: s}
}

// Upsert queues a document replacement, flushing first if adding it
// would exceed the buffer budget.
func (b *Batch) Upsert(doc record.Doc) error {
	size := approxDocSize(doc)
	if b.approxBytes+size > MaxBufferBytes && len(b.ops) > 0 {
		if err := b.Commit(); err != nil {
			return err
		}
	}
	b.ops = append(b.ops, removeByPathOp(doc.Path), insertOp(doc))
	b.approxBytes += size
	return nil
}

// Delete queues a removal by path.
func (b *Batch) Delete(path string) {
	b.ops = append(b.ops, removeByPathOp(path))
	b.approxBytes += len(path)
}

// DeleteBySourceType queues a removal of every record with the given
// source and record type, so a full per-profile re-extraction pass can
// purge and re-insert within one commit (SPEC_FULL.md §4.4).
func (b *Batch) DeleteBySourceType(source string, t record.Type) {
	b.ops = append(b.ops, deleteBySourceTypeOp(source, t))
	b.approxBytes += len(source)
}

// Commit applies every queued op in one transaction and resets the
// batch so it can be reused for further work.
func (b *Batch) Commit() error {
	if len(b.ops) == 0 {
		return nil
	}
	ops := b.ops
	b.ops = nil
	b.approxBytes = 0
	return b.store.submit(ops)
}
