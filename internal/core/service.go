// Package core wires C1-C8 behind the operation contracts of
// spec.md §6: it is the one type every transport (internal/api,
// cmd/worksentryctl) talks to.
package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"worksentry/internal/browser"
	"worksentry/internal/config"
	"worksentry/internal/indexer"
	"worksentry/internal/logging"
	"worksentry/internal/query"
	"worksentry/internal/record"
	"worksentry/internal/semantic"
	"worksentry/internal/store"
	"worksentry/internal/watcher"
	"worksentry/internal/wserr"
)

// Service is the process singleton that owns the store, the watcher
// registry, and the configuration document, per spec.md §9's "global
// state" design note. New/Close are its explicit init/teardown.
type Service struct {
	cfg      *config.Store
	store    *store.Store
	semantic *semantic.Index
	indexer  *indexer.Indexer
	watcher  *watcher.Watcher
	browser  *browser.Extractor
}

// New opens (or creates) every subsystem rooted at userDir
// (<user-config-dir>/worksentry), subscribes the watcher to every
// configured root, and kicks off a bulk index of each in the
// background. Browser extraction runs synchronously if enabled, since
// it is bounded by the 1,000-row history cap in SPEC_FULL.md §10.4.
func New(userDir string) (*Service, error) {
	log := logging.ForComponent(logging.CompCore)

	cfg, err := config.Open(userDir)
	if err != nil {
		return nil, err
	}

	indexDir := filepath.Join(userDir, "index")
	st, err := store.Open(indexDir)
	if err != nil {
		return nil, err
	}

	sem, err := semantic.Open(indexDir)
	if err != nil {
		_ = st.Close()
		return nil, wserr.IndexUnavailable("core.New", err)
	}

	ix := indexer.New(st, sem)

	w, err := watcher.New(ix)
	if err != nil {
		_ = sem.Close()
		_ = st.Close()
		return nil, err
	}

	svc := &Service{
		cfg:      cfg,
		store:    st,
		semantic: sem,
		indexer:  ix,
		watcher:  w,
		browser:  browser.New(st),
	}

	current := cfg.Get()
	for _, root := range current.Roots {
		if err := svc.watcher.AddRoot(root); err != nil {
			log.Warn("failed to watch configured root", "root", root, "error", err)
			continue
		}
		go func(r string) {
			if _, err := svc.indexer.BulkIndex(context.Background(), r); err != nil {
				log.Warn("startup bulk index failed", "root", r, "error", err)
			}
		}(root)
	}

	if current.EnableBookmarks || current.EnableHistory {
		if err := svc.browser.ExtractAll(current.EnableHistory, current.EnableBookmarks); err != nil {
			log.Warn("startup browser extraction failed", "error", err)
		}
	}

	return svc, nil
}

// Close flushes the writer and releases every subsystem's resources.
func (s *Service) Close() error {
	if err := s.watcher.Close(); err != nil {
		return err
	}
	if err := s.semantic.Close(); err != nil {
		return err
	}
	return s.store.Close()
}

// Search implements the search operation: parse the grammar, retrieve,
// and score, per spec.md §4.6.
func (s *Service) Search(raw string, prefix, fuzzy bool) ([]record.Result, error) {
	limit := s.cfg.Get().MaxResults
	q := query.Parse(raw, limit, prefix, fuzzy)

	var results []record.Result
	err := s.store.View(func(r *store.Reader) error {
		results = query.Search(r, q)
		return nil
	})
	if err != nil {
		return nil, wserr.IndexUnavailable("core.Search", err)
	}
	return results, nil
}

// AddFolder validates root, registers it in configuration, subscribes
// the watcher, and triggers a bulk index, per spec.md §4.5's
// "registry updates" contract.
func (s *Service) AddFolder(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return wserr.SourceRead("core.AddFolder", err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return wserr.SourceRead("core.AddFolder", fmt.Errorf("%s is not a directory", abs))
	}

	added, err := s.cfg.AddRoot(abs)
	if err != nil {
		return err
	}
	if !added {
		return nil
	}

	if err := s.watcher.AddRoot(abs); err != nil {
		return wserr.SourceRead("core.AddFolder", err)
	}

	_, err = s.indexer.BulkIndex(context.Background(), abs)
	return err
}

// RemoveFolder unsubscribes root and purges every record beneath it,
// per spec.md §4.5.
func (s *Service) RemoveFolder(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return wserr.SourceRead("core.RemoveFolder", err)
	}

	removed, err := s.cfg.RemoveRoot(abs)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}

	s.watcher.RemoveRoot(abs)
	return s.store.DeleteByPrefix(abs)
}

// GetFolders returns the configured roots.
func (s *Service) GetFolders() []string {
	return s.cfg.Roots()
}

// Reindex forces a fresh bulk pass over every configured root. Passing
// a non-empty root restricts the pass to that one root.
func (s *Service) Reindex(ctx context.Context, root string) (indexer.Stats, error) {
	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return indexer.Stats{}, wserr.SourceRead("core.Reindex", err)
		}
		return s.indexer.BulkIndex(ctx, abs)
	}

	var total indexer.Stats
	for _, r := range s.cfg.Get().Roots {
		stats, err := s.indexer.BulkIndex(ctx, r)
		total.Processed += stats.Processed
		total.Written += stats.Written
		total.Skipped += stats.Skipped
		total.Errors += stats.Errors
		total.Removed += stats.Removed
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// GetIndexStats reports live document counts and on-disk size.
func (s *Service) GetIndexStats() (store.Stats, error) {
	return s.store.Stats()
}

// GetBrowserStatus reports every installed Chromium-family browser,
// independent of whether extraction is enabled.
func (s *Service) GetBrowserStatus() []browser.Browser {
	return browser.Detect()
}

// SetBookmarksEnabled flips the flag and applies the matching side
// effect: purge on disable, immediate extraction on enable, per
// spec.md §4.7.
func (s *Service) SetBookmarksEnabled(enabled bool) error {
	previous, err := s.cfg.SetBookmarksEnabled(enabled)
	if err != nil || previous == enabled {
		return err
	}
	if !enabled {
		return s.browser.PurgeByType(record.TypeBookmark)
	}
	return s.browser.ExtractAll(false, true)
}

// SetHistoryEnabled flips the flag and applies the matching side
// effect.
func (s *Service) SetHistoryEnabled(enabled bool) error {
	previous, err := s.cfg.SetHistoryEnabled(enabled)
	if err != nil || previous == enabled {
		return err
	}
	if !enabled {
		return s.browser.PurgeByType(record.TypeHistory)
	}
	return s.browser.ExtractAll(true, false)
}

// GetConfig returns the current configuration document.
func (s *Service) GetConfig() config.Config {
	return s.cfg.Get()
}

// SaveConfig replaces the configuration document wholesale. Folder and
// browser-toggle side effects are not re-applied here: callers that
// want those effects should use AddFolder/RemoveFolder/
// SetBookmarksEnabled/SetHistoryEnabled, which is what save_config's
// UI-facing counterparts in spec.md §6 actually call for those fields.
// SaveConfig itself persists every field as given, roots and browser
// flags included, without subscribing, indexing, purging, or extracting.
func (s *Service) SaveConfig(cfg config.Config) error {
	return s.cfg.Save(cfg)
}

// FindRelated returns up to limit records whose semantic vectors are
// nearest to path's, per SPEC_FULL.md §10.3's supplemental operation.
// Stale graph entries pointing at since-deleted documents are filtered
// out here rather than trusted from the semantic index.
func (s *Service) FindRelated(path string, limit int) ([]record.Record, error) {
	var docID uint64
	var ok bool
	err := s.store.View(func(r *store.Reader) error {
		docID, ok = r.DocID(path)
		return nil
	})
	if err != nil {
		return nil, wserr.IndexUnavailable("core.FindRelated", err)
	}
	if !ok {
		return nil, nil
	}

	candidateIDs := s.semantic.Related(docID, limit*2+8)

	var out []record.Record
	err = s.store.View(func(r *store.Reader) error {
		for _, id := range candidateIDs {
			if rec, ok := r.DocumentByID(id); ok {
				out = append(out, rec)
			}
			if len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, wserr.IndexUnavailable("core.FindRelated", err)
	}
	return out, nil
}
