// Package record defines the data model shared by every WorkSentry
// component: the index store, the indexer, the browser extractor, the
// watcher, and the query planner all operate on Record values.
package record

import "fmt"

// Type identifies the provenance of a Record.
type Type string

const (
	TypeFile     Type = "FILE"
	TypeBookmark Type = "BOOKMARK"
	TypeHistory  Type = "HISTORY"
)

// Valid reports whether t is one of the known record types.
func (t Type) Valid() bool {
	switch t {
	case TypeFile, TypeBookmark, TypeHistory:
		return true
	default:
		return false
	}
}

// Record is one addressable item in the index, keyed by Path.
//
// Content is intentionally absent from this struct: per the schema's I5
// invariant, content is stored only as tokenized postings and is never
// retrievable. Callers that need to index content pass it separately to
// the store so it never round-trips through a Record value.
type Record struct {
	Path       string `json:"path"`
	Name       string `json:"name"`
	Extension  string `json:"extension"`
	Size       int64  `json:"size"`
	MTime      int64  `json:"mtime"`
	RecordType Type   `json:"record_type"`
	Source     string `json:"source"`
}

// Doc bundles a Record with the raw text the store tokenizes and indexes
// alongside it.
// Content is used to build postings only; it is discarded after commit.
type Doc struct {
	Record
	Content string
}

func (r Record) String() string {
	return fmt.Sprintf("%s(%s)[%s]", r.RecordType, r.Path, r.Source)
}

// Result is the shape returned to callers of search: a Record plus its
// computed score. It never includes Content per I5.
type Result struct {
	Record
	Score float64 `json:"score"`
}
