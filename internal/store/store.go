// Package store implements the durable inverted index (schema §4.2 of
// SPEC_FULL.md): a single bbolt file holding documents, path→docID and
// term→postings mappings, and per-type/per-extension indexes.
//
// bbolt gives this package two contracts almost for free: only one
// writer transaction can be open at a time, which is exactly the
// "writer singleton" requirement, and db.View transactions are MVCC
// snapshots isolated from any concurrent writer, which is exactly the
// "reader snapshot" requirement. On top of that this package adds an
// explicit single-goroutine writer queue (rather than relying solely on
// bbolt's own transaction lock) so that batched upserts share one commit
// and the 50MB in-memory buffer budget is enforced before it ever reaches
// bbolt.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"worksentry/internal/logging"
	"worksentry/internal/wserr"
)

var (
	bucketDocuments       = []byte("documents")
	bucketPaths           = []byte("paths")
	bucketPostingsName    = []byte("postings_name")
	bucketPostingsContent = []byte("postings_content")
	bucketDocTermsName    = []byte("doc_terms_name")
	bucketDocTermsContent = []byte("doc_terms_content")
	bucketByType          = []byte("by_type")
	bucketByExt           = []byte("by_ext")
	bucketMeta            = []byte("meta")

	keySchemaVersion = []byte("schema_version")
)

// schemaVersion is bumped whenever the bucket layout changes
// incompatibly. Opening a file written by a different version rebuilds
// the index from scratch, mirroring the original implementation's
// "schema mismatch -> recreate" behavior (SPEC_FULL.md §10.4).
const schemaVersion = 1

// MaxBufferBytes is the writer's in-memory batch budget (§5 resource
// budget). A Batch auto-flushes before exceeding it.
const MaxBufferBytes = 50 * 1024 * 1024

// writeJob is one unit of work submitted to the writer goroutine.
type writeJob struct {
	ops  []func(*bolt.Tx) error
	done chan error
}

// Store is the process-wide index writer/reader singleton.
type Store struct {
	db      *bolt.DB
	path    string
	jobs    chan writeJob
	closeCh chan struct{}
	wg      sync.WaitGroup

	closeOnce sync.Once
}

// Open creates or opens the bbolt-backed index at dir/index.db. It fails
// fatally (IndexUnavailable) if the directory is locked by another
// process, if the file is corrupt beyond a schema-version mismatch, or
// if it cannot be created.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, wserr.IndexUnavailable("store.Open", err)
	}
	dbPath := filepath.Join(dir, "index.db")

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, wserr.IndexUnavailable("store.Open", err)
	}

	s := &Store{
		db:      db,
		path:    dbPath,
		jobs:    make(chan writeJob, 64),
		closeCh: make(chan struct{}),
	}

	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, wserr.IndexUnavailable("store.Open", err)
	}

	s.wg.Add(1)
	go s.run()

	return s, nil
}

// initSchema ensures every bucket exists and rebuilds the index if the
// on-disk schema version does not match this build's expectation.
func (s *Store) initSchema() error {
	rebuild := false

	err := s.db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if v := meta.Get(keySchemaVersion); v != nil {
			if binary.BigEndian.Uint32(v) != schemaVersion {
				rebuild = true
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if rebuild {
		logging.ForComponent(logging.CompStore).Warn("schema version mismatch, rebuilding index")
		if err := s.db.Update(func(tx *bolt.Tx) error {
			for _, b := range allBuckets() {
				_ = tx.DeleteBucket(b)
			}
			return nil
		}); err != nil {
			return err
		}
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets() {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		meta := tx.Bucket(bucketMeta)
		var v [4]byte
		binary.BigEndian.PutUint32(v[:], schemaVersion)
		return meta.Put(keySchemaVersion, v[:])
	})
}

func allBuckets() [][]byte {
	return [][]byte{
		bucketDocuments, bucketPaths, bucketPostingsName, bucketPostingsContent,
		bucketDocTermsName, bucketDocTermsContent, bucketByType, bucketByExt, bucketMeta,
	}
}

// run is the writer singleton goroutine: it applies jobs one at a time,
// each inside its own bbolt write transaction, so batched callers share
// exactly one commit.
func (s *Store) run() {
	defer s.wg.Done()
	log := logging.ForComponent(logging.CompStore)

	for {
		select {
		case job := <-s.jobs:
			err := s.db.Update(func(tx *bolt.Tx) error {
				for _, op := range job.ops {
					if err := op(tx); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				log.Warn("commit failed, batch dropped", "error", err)
				err = wserr.IndexTransient("store.commit", err)
			}
			job.done <- err
		case <-s.closeCh:
			// Apply any already-queued jobs before returning, so pending
			// writes are flushed and callers waiting on done channels
			// don't block forever during shutdown.
			for {
				select {
				case job := <-s.jobs:
					err := s.db.Update(func(tx *bolt.Tx) error {
						for _, op := range job.ops {
							if err := op(tx); err != nil {
								return err
							}
						}
						return nil
					})
					if err != nil {
						err = wserr.IndexTransient("store.commit", err)
					}
					job.done <- err
				default:
					return
				}
			}
		}
	}
}

// submit queues ops as a single job and blocks for its result.
func (s *Store) submit(ops []func(*bolt.Tx) error) error {
	job := writeJob{ops: ops, done: make(chan error, 1)}
	select {
	case s.jobs <- job:
	case <-s.closeCh:
		return wserr.IndexUnavailable("store.submit", errors.New("store closed"))
	}
	return <-job.done
}

// Close flushes any pending writer job and releases the file lock.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closeCh)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Path returns the on-disk index file path.
func (s *Store) Path() string { return s.path }

// SizeBytes returns the on-disk size of the index file.
func (s *Store) SizeBytes() int64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func docKey(id uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	return b[:]
}

func decodeDocKey(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

func nextDocID(tx *bolt.Tx) (uint64, error) {
	meta := tx.Bucket(bucketMeta)
	id, err := meta.NextSequence()
	if err != nil {
		return 0, fmt.Errorf("allocate doc id: %w", err)
	}
	return id, nil
}
