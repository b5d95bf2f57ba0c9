// Package watcher implements C5: debounced, coalesced filesystem event
// routing from fsnotify into the indexer.
package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"worksentry/internal/indexer"
	"worksentry/internal/logging"
)

// debounceWindow is the sliding coalescing window per path, per
// spec.md §4.5 ("300-500 ms").
const debounceWindow = 400 * time.Millisecond

// action is the coalesced outcome of one or more raw events on a path.
type action int

const (
	actionUpsert action = iota
	actionRemove
)

// Watcher subscribes to a set of roots and dispatches debounced,
// per-path CREATE/MODIFY/REMOVE/RENAME events into the indexer.
//
// Debouncing uses one *time.Timer per path (not one shared timer),
// which is what gives independent paths independent windows: a burst
// of events on path B never delays an already-elapsed path A. RENAME is
// decomposed into REMOVE-old + CREATE-new before it ever reaches the
// debounce map, per spec.md §4.5 and §9's design note.
type Watcher struct {
	fsw     *fsnotify.Watcher
	indexer *indexer.Indexer

	mu      sync.Mutex
	roots   map[string]struct{}
	pending map[string]*pendingEntry

	done chan struct{}
	wg   sync.WaitGroup
}

type pendingEntry struct {
	action action
	timer  *time.Timer
}

// New creates a Watcher dispatching into ix. Call Close when done.
func New(ix *indexer.Indexer) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:     fsw,
		indexer: ix,
		roots:   make(map[string]struct{}),
		pending: make(map[string]*pendingEntry),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// AddRoot subscribes to root recursively. Bulk indexing of the new root
// is the caller's responsibility (the indexer, not the watcher, owns
// that); AddRoot only wires up live event subscription.
func (w *Watcher) AddRoot(root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.roots[root]; ok {
		return nil
	}

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	w.roots[root] = struct{}{}
	return nil
}

// RemoveRoot unsubscribes from root. The caller is responsible for the
// accompanying bulk purge-by-prefix against the store.
func (w *Watcher) RemoveRoot(root string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.roots, root)
	// fsnotify has no recursive Remove; watches on now-orphaned
	// subdirectories are left registered and simply produce events for
	// paths no longer under any tracked root, which loop() drops.
}

// Close stops the underlying OS watcher and waits for the dispatch
// goroutine to drain.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	log := logging.ForComponent(logging.CompWatcher)

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn("fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !w.underWatchedRoot(ev.Name) {
		return
	}

	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.fsw.Add(ev.Name)
		}
		w.schedule(ev.Name, actionUpsert)
		return
	}
	if ev.Op&fsnotify.Write != 0 {
		w.schedule(ev.Name, actionUpsert)
		return
	}
	if ev.Op&fsnotify.Remove != 0 || ev.Op&fsnotify.Rename != 0 {
		// fsnotify reports a rename as a Rename event at the old path;
		// the platform backend emits a separate Create at the new path,
		// which the branch above handles. Treating Rename as a removal
		// of the old path is exactly the REMOVE-old half of spec.md
		// §4.5's REMOVE+CREATE decomposition.
		w.schedule(ev.Name, actionRemove)
		return
	}
}

func (w *Watcher) underWatchedRoot(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for root := range w.roots {
		if path == root || (len(path) > len(root) && path[:len(root)] == root &&
			(path[len(root)] == os.PathSeparator)) {
			return true
		}
	}
	return false
}

// schedule coalesces act into path's pending action and (re)starts its
// debounce timer. If REMOVE is the final action to reach the window's
// end, the composite dispatch is a remove; any other terminal state is
// an upsert.
func (w *Watcher) schedule(path string, act action) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if entry, ok := w.pending[path]; ok {
		entry.action = act
		entry.timer.Reset(debounceWindow)
		return
	}

	entry := &pendingEntry{action: act}
	entry.timer = time.AfterFunc(debounceWindow, func() {
		w.fire(path)
	})
	w.pending[path] = entry
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	entry, ok := w.pending[path]
	if ok {
		delete(w.pending, path)
	}
	w.mu.Unlock()
	if !ok {
		return
	}

	log := logging.ForComponent(logging.CompWatcher)
	var err error
	switch entry.action {
	case actionRemove:
		err = w.indexer.DeleteFile(path)
	case actionUpsert:
		err = w.indexer.IndexFile(path)
	}
	if err != nil {
		log.Debug("dispatch failed, watcher continues", "path", path, "error", err)
	}
}
