// Package indexer implements C3: directory walking, extraction, and
// idempotent upsert into the index store.
package indexer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"worksentry/internal/logging"
	"worksentry/internal/record"
	"worksentry/internal/semantic"
	"worksentry/internal/store"
	"worksentry/internal/tokenizer"
)

// MaxFileSize is the 1MB read cap from SPEC_FULL.md §4.3.
const MaxFileSize = 1 << 20

// Indexer walks configured roots and single files into the store,
// optionally feeding the semantic proximity index alongside it.
type Indexer struct {
	store    *store.Store
	semantic *semantic.Index
}

// New builds an Indexer over store s. sem may be nil, in which case
// semantic vectors are simply not maintained.
func New(s *store.Store, sem *semantic.Index) *Indexer {
	return &Indexer{store: s, semantic: sem}
}

// Stats reports what a bulk pass did, per SPEC_FULL.md §8 scenario 2's
// processed/written distinction.
type Stats struct {
	Processed int64
	Written   int64
	Skipped   int64
	Errors    int64
	Removed   int64
}

// BulkIndex walks root recursively, upserting new or changed files in
// one commit and sweeping orphaned FILE records at the end. It is
// cooperatively cancellable via ctx; already-committed work is kept,
// uncommitted work is discarded.
func (ix *Indexer) BulkIndex(ctx context.Context, root string) (Stats, error) {
	log := logging.ForComponent(logging.CompIndexer)

	canonicalRoot, err := canonicalize(root)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	visited := make(map[string]struct{})
	var semTasks []semTask
	batch := ix.store.NewBatch()

	walkErr := filepath.WalkDir(canonicalRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			atomic.AddInt64(&stats.Errors, 1)
			log.Debug("walk error, skipping", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		base := d.Name()
		if path != canonicalRoot && strings.HasPrefix(base, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			atomic.AddInt64(&stats.Skipped, 1)
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !underRoot(canonicalRoot, resolved) {
				atomic.AddInt64(&stats.Skipped, 1)
				return nil
			}
		}

		atomic.AddInt64(&stats.Processed, 1)

		doc, ok, err := ix.buildDoc(path, d)
		if err != nil {
			atomic.AddInt64(&stats.Errors, 1)
			log.Debug("skipping unreadable file", "path", path, "error", err)
			return nil
		}
		if !ok {
			atomic.AddInt64(&stats.Skipped, 1)
			return nil
		}

		visited[path] = struct{}{}

		wasUnchanged, err := ix.skipUnchanged(path, doc.MTime)
		if err != nil {
			atomic.AddInt64(&stats.Errors, 1)
			return nil
		}
		if wasUnchanged {
			return nil
		}

		if err := batch.Upsert(doc); err != nil {
			atomic.AddInt64(&stats.Errors, 1)
			log.Warn("batch upsert failed", "path", path, "error", err)
			return nil
		}
		atomic.AddInt64(&stats.Written, 1)
		if ix.semantic != nil {
			terms := tokenizer.Tokenize(doc.Name)
			terms = append(terms, tokenizer.Tokenize(doc.Content)...)
			semTasks = append(semTasks, semTask{path: doc.Path, terms: terms})
		}
		return nil
	})

	if walkErr == context.Canceled || walkErr == context.DeadlineExceeded {
		// Cancelled: whatever is still queued in the batch is discarded.
		return stats, walkErr
	}
	if walkErr != nil {
		log.Warn("bulk index walk aborted", "root", canonicalRoot, "error", walkErr)
	}

	if err := batch.Commit(); err != nil {
		return stats, err
	}

	if walkErr == nil {
		removed, err := ix.sweepOrphans(canonicalRoot, visited)
		if err != nil {
			log.Warn("orphan sweep failed", "root", canonicalRoot, "error", err)
		}
		stats.Removed = removed
	}

	ix.commitSemanticTasks(semTasks)

	return stats, walkErr
}

// semTask carries the tokenized terms for a document whose content was
// only available in-hand during the walk (per I5, content is discarded
// once committed and cannot be re-read back out of the store).
type semTask struct {
	path  string
	terms []string
}

func (ix *Indexer) commitSemanticTasks(tasks []semTask) {
	if ix.semantic == nil || len(tasks) == 0 {
		return
	}
	for _, t := range tasks {
		var docID uint64
		var ok bool
		_ = ix.store.View(func(r *store.Reader) error {
			docID, ok = r.DocID(t.path)
			return nil
		})
		if ok {
			_ = ix.semantic.Update(docID, t.terms)
		}
	}
}

// skipUnchanged applies invariant I4: skip when the stored mtime is
// already >= the source mtime.
func (ix *Indexer) skipUnchanged(path string, sourceMTime int64) (bool, error) {
	var skip bool
	err := ix.store.View(func(r *store.Reader) error {
		if storedMTime, ok := r.MTime(path); ok && storedMTime >= sourceMTime {
			skip = true
		}
		return nil
	})
	return skip, err
}

// sweepOrphans deletes previously indexed FILE records under root that
// were not touched by the just-completed walk.
func (ix *Indexer) sweepOrphans(root string, visited map[string]struct{}) (int64, error) {
	var toRemove []string
	err := ix.store.View(func(r *store.Reader) error {
		for _, p := range r.PathsUnderRoot(root) {
			if _, ok := visited[p]; ok {
				continue
			}
			if rec, ok := r.Document(p); ok && rec.RecordType == record.TypeFile {
				toRemove = append(toRemove, p)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(toRemove) == 0 {
		return 0, nil
	}
	batch := ix.store.NewBatch()
	for _, p := range toRemove {
		batch.Delete(p)
	}
	if err := batch.Commit(); err != nil {
		return 0, err
	}
	return int64(len(toRemove)), nil
}

// IndexFile indexes a single file and commits immediately, per §4.3's
// single-file contract used by the watcher's UPSERT dispatch.
func (ix *Indexer) IndexFile(path string) error {
	canonical, err := canonicalize(path)
	if err != nil {
		return err
	}

	info, err := os.Lstat(canonical)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(canonical)
		if err != nil {
			return err
		}
		canonical = resolved
		info, err = os.Stat(canonical)
		if err != nil {
			return err
		}
	}

	doc, ok, err := ix.buildDoc(canonical, fs.FileInfoToDirEntry(info))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := ix.store.Upsert(doc); err != nil {
		return err
	}
	ix.updateSemanticOne(doc)
	return nil
}

// DeleteFile removes a single file's record and commits immediately.
func (ix *Indexer) DeleteFile(path string) error {
	canonical, err := canonicalize(path)
	if err != nil {
		canonical = path
	}
	return ix.store.Delete(canonical)
}

// buildDoc classifies path by extension, applies the size cap, and
// reads content when the extension is content-indexable. ok is false
// when the file should not be indexed at all.
func (ix *Indexer) buildDoc(path string, d fs.DirEntry) (record.Doc, bool, error) {
	info, err := d.Info()
	if err != nil {
		return record.Doc{}, false, err
	}

	ext := extensionOf(path)
	c := classify(ext)
	if c == classExcluded {
		return record.Doc{}, false, nil
	}
	if info.Size() > MaxFileSize {
		return record.Doc{}, false, nil
	}

	var content string
	if c == classContentIndexable {
		data, err := os.ReadFile(path)
		if err != nil {
			return record.Doc{}, false, err
		}
		content = toValidUTF8(data)
	}

	doc := record.Doc{
		Record: record.Record{
			Path:       path,
			Name:       filepath.Base(path),
			Extension:  ext,
			Size:       info.Size(),
			MTime:      info.ModTime().Unix(),
			RecordType: record.TypeFile,
			Source:     "fs",
		},
		Content: content,
	}
	return doc, true, nil
}

func (ix *Indexer) updateSemanticOne(doc record.Doc) {
	if ix.semantic == nil {
		return
	}
	var docID uint64
	var ok bool
	_ = ix.store.View(func(r *store.Reader) error {
		docID, ok = r.DocID(doc.Path)
		return nil
	})
	if !ok {
		return
	}
	terms := tokenizer.Tokenize(doc.Name)
	terms = append(terms, tokenizer.Tokenize(doc.Content)...)
	_ = ix.semantic.Update(docID, terms)
}

func extensionOf(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func toValidUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, nil
	}
	return resolved, nil
}

func underRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && rel != "..")
}
