package semantic

import (
	"path/filepath"

	"worksentry/internal/logging"
)

// Index is the process-wide semantic proximity index: an append-only
// vector log backed by an in-memory ANN graph rebuilt from that log at
// startup.
//
// It is intentionally best-effort. A document that has since been
// deleted from the main store is never removed from the vector log or
// the graph and may still surface here; callers (the core service)
// filter results against a live
// document lookup before returning them, so a stale entry never reaches
// an end user, it just costs one wasted candidate.
type Index struct {
	vf    *VectorFile
	graph *graph
}

// Open loads or creates the semantic index at dir/semantic.vec and
// rebuilds its in-memory graph from every row on disk.
func Open(dir string) (*Index, error) {
	vf, err := OpenVectorFile(filepath.Join(dir, "semantic.vec"), Dim)
	if err != nil {
		return nil, err
	}

	idx := &Index{vf: vf, graph: newGraph()}
	if err := idx.rebuild(); err != nil {
		_ = vf.Close()
		return nil, err
	}
	return idx, nil
}

// rebuild reads every row in the vector log, keeping only the most
// recently appended row per docID, and repopulates the ANN graph from
// that resolved set.
func (idx *Index) rebuild() error {
	log := logging.ForComponent(logging.CompSemantic)

	latest := make(map[uint64]Vector)
	n := idx.vf.RowCount()
	for i := uint64(0); i < n; i++ {
		docID, v, err := idx.vf.Row(i)
		if err != nil {
			log.Warn("skipping unreadable semantic row", "row", i, "error", err)
			continue
		}
		latest[docID] = v
	}

	idx.graph = newGraph()
	for docID, v := range latest {
		idx.graph.add(docID, v)
	}
	log.Info("semantic index rebuilt", "documents", len(latest), "rows_on_disk", n)
	return nil
}

// Update appends a fresh vector for docID built from terms and pushes it
// into the live graph, replacing docID's prior neighborhood if it was
// already indexed.
func (idx *Index) Update(docID uint64, terms []string) error {
	v := HashTerms(terms)
	if _, err := idx.vf.Append(docID, v); err != nil {
		return err
	}
	idx.graph.add(docID, v)
	return nil
}

// Related returns up to limit doc IDs whose vectors are nearest to
// docID's, excluding docID itself. It returns an empty result if docID
// has never been indexed.
func (idx *Index) Related(docID uint64, limit int) []uint64 {
	v, ok := idx.graph.vector(docID)
	if !ok {
		return nil
	}
	return idx.graph.search(v, limit, docID)
}

// Close releases the vector log's memory mapping and file handle.
func (idx *Index) Close() error {
	return idx.vf.Close()
}
