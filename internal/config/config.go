// Package config implements C7: the single persisted configuration
// document, its self-healing load path, and atomic writes.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"worksentry/internal/wserr"
)

const fileName = "config.json"

// Hotkey is the modifiers+key binding that summons the launcher UI.
// WorkSentry's own process never registers it (out of scope per
// spec.md §1); it is persisted so an external UI process can read it
// back.
type Hotkey struct {
	Modifiers []string `json:"modifiers"`
	Key       string   `json:"key"`
}

// Display holds cosmetic result-list preferences.
type Display struct {
	ShowHiddenFiles bool `json:"show_hidden_files"`
	ShowFullPath    bool `json:"show_full_path"`
	GroupByType     bool `json:"group_by_type"`
}

// Config is the full persisted configuration document, per spec.md §3
// "Configuration".
type Config struct {
	Roots           []string `json:"roots"`
	Hotkey          Hotkey   `json:"hotkey"`
	EnableBookmarks bool     `json:"enable_bookmarks"`
	EnableHistory   bool     `json:"enable_history"`
	Display         Display  `json:"display"`
	MaxResults      int      `json:"max_results"`
}

// Default returns the configuration written when no document exists yet
// or the existing one is malformed, per §7's self-healing policy.
func Default() Config {
	return Config{
		Roots:           nil,
		Hotkey:          Hotkey{Modifiers: []string{"ctrl", "alt"}, Key: "space"},
		EnableBookmarks: false,
		EnableHistory:   false,
		Display:         Display{ShowHiddenFiles: false, ShowFullPath: false, GroupByType: true},
		MaxResults:      50,
	}
}

// Store is the process-singleton holder of the configuration document.
// Mutations take the read-modify-write-atomic-replace path described in
// spec.md §4.7; a single mutex serializes writers while readers get a
// point-in-time copy, matching the "single-writer, many-reader"
// discipline of §5.
type Store struct {
	mu   sync.RWMutex
	path string
	cfg  Config
}

// Open loads the configuration document from dir (normally
// <user-config-dir>/worksentry), writing and returning a default
// document if none exists or the existing one fails to parse.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, wserr.Config("config.Open", err)
	}
	path := filepath.Join(dir, fileName)

	s := &Store{path: path}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		s.cfg = Default()
		if werr := s.writeLocked(); werr != nil {
			return nil, werr
		}
		return s, nil
	case err != nil:
		return nil, wserr.Config("config.Open", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		s.cfg = Default()
		if werr := s.writeLocked(); werr != nil {
			return nil, werr
		}
		return s, nil
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = Default().MaxResults
	}
	s.cfg = cfg
	return s, nil
}

// Get returns a point-in-time copy of the current configuration.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.cfg
	cfg.Roots = append([]string(nil), s.cfg.Roots...)
	cfg.Hotkey.Modifiers = append([]string(nil), s.cfg.Hotkey.Modifiers...)
	return cfg
}

// Save replaces the configuration wholesale and persists it atomically.
func (s *Store) Save(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = Default().MaxResults
	}
	s.cfg = cfg
	return s.writeLocked()
}

// AddRoot appends root to the configured roots if not already present,
// preserving order (spec.md §3: "ordered list of indexed roots").
// Returns true if the root was newly added.
func (s *Store) AddRoot(root string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.cfg.Roots {
		if r == root {
			return false, nil
		}
	}
	s.cfg.Roots = append(s.cfg.Roots, root)
	return true, s.writeLocked()
}

// RemoveRoot removes root from the configured roots. Returns true if it
// was present.
func (s *Store) RemoveRoot(root string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, r := range s.cfg.Roots {
		if r == root {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	s.cfg.Roots = append(s.cfg.Roots[:idx], s.cfg.Roots[idx+1:]...)
	return true, s.writeLocked()
}

// Roots returns a copy of the configured roots in their configured
// order, per spec.md §3's "ordered list of indexed roots" — the same
// order AddRoot/RemoveRoot maintain.
func (s *Store) Roots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.cfg.Roots...)
}

// SetBookmarksEnabled flips the enable_bookmarks flag and reports the
// previous value, so the caller (core.Service) knows whether to trigger
// a purge or an extraction.
func (s *Store) SetBookmarksEnabled(enabled bool) (previous bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous = s.cfg.EnableBookmarks
	s.cfg.EnableBookmarks = enabled
	return previous, s.writeLocked()
}

// SetHistoryEnabled flips the enable_history flag and reports the
// previous value.
func (s *Store) SetHistoryEnabled(enabled bool) (previous bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous = s.cfg.EnableHistory
	s.cfg.EnableHistory = enabled
	return previous, s.writeLocked()
}

// writeLocked serializes the current configuration and replaces the
// on-disk document atomically: write to a temp file in the same
// directory, then os.Rename, so a crash mid-write never leaves a
// truncated config.json behind. Caller must hold s.mu.
func (s *Store) writeLocked() error {
	data, err := json.MarshalIndent(s.cfg, "", "  ")
	if err != nil {
		return wserr.Config("config.write", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return wserr.Config("config.write", err)
	}
	if f, err := os.Open(tmp); err == nil {
		_ = f.Sync()
		f.Close()
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return wserr.Config("config.write", err)
	}
	return nil
}
