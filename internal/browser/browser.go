// Package browser implements C4: detection of installed Chromium-family
// browsers and extraction of their bookmarks and history into the
// index store.
package browser

import (
	"os"
	"path/filepath"
	"runtime"

	"worksentry/internal/record"
	"worksentry/internal/store"
)

// Browser describes one detected Chromium-family browser installation.
type Browser struct {
	// Name is the human-readable label used as the record source prefix,
	// e.g. "Chrome", "Edge".
	Name string
	// UserDataDir is the browser's top-level profile container
	// ("User Data" on Chromium browsers).
	UserDataDir string
}

// knownBrowsers returns the Chromium-family browsers this platform
// knows how to locate. The original implementation only probes the
// Windows LOCALAPPDATA layout; this generalizes the same two browsers
// to their macOS and Linux profile locations, since spec.md §6 commits
// the whole system to honoring each platform's data-directory
// convention.
func knownBrowsers() []Browser {
	home, _ := os.UserHomeDir()

	switch runtime.GOOS {
	case "windows":
		base := os.Getenv("LOCALAPPDATA")
		return []Browser{
			{Name: "Chrome", UserDataDir: filepath.Join(base, "Google", "Chrome", "User Data")},
			{Name: "Edge", UserDataDir: filepath.Join(base, "Microsoft", "Edge", "User Data")},
		}
	case "darwin":
		base := filepath.Join(home, "Library", "Application Support")
		return []Browser{
			{Name: "Chrome", UserDataDir: filepath.Join(base, "Google", "Chrome")},
			{Name: "Edge", UserDataDir: filepath.Join(base, "Microsoft Edge")},
		}
	default: // linux and other unix-likes
		base := filepath.Join(home, ".config")
		return []Browser{
			{Name: "Chrome", UserDataDir: filepath.Join(base, "google-chrome")},
			{Name: "Edge", UserDataDir: filepath.Join(base, "microsoft-edge")},
		}
	}
}

// Detect reports every browser whose user-data directory exists on this
// machine, independent of whether bookmark/history extraction is
// enabled. Backs the get_browser_status operation.
func Detect() []Browser {
	var found []Browser
	for _, b := range knownBrowsers() {
		if info, err := os.Stat(b.UserDataDir); err == nil && info.IsDir() {
			found = append(found, b)
		}
	}
	return found
}

// profileDirs lists every "Default" or "Profile N" directory under a
// browser's user-data directory.
func profileDirs(userDataDir string) []string {
	entries, err := os.ReadDir(userDataDir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if name == "Default" || len(name) > 8 && name[:8] == "Profile " {
			out = append(out, filepath.Join(userDataDir, name))
		}
	}
	return out
}

// Extractor reads bookmarks and history from every detected browser
// profile and idempotently replaces the corresponding records in the
// index store.
type Extractor struct {
	store *store.Store
}

// New builds an Extractor over store s.
func New(s *store.Store) *Extractor {
	return &Extractor{store: s}
}

// ExtractAll runs bookmark and/or history extraction across every
// detected browser and profile, per the enabled flags.
func (e *Extractor) ExtractAll(enableHistory, enableBookmarks bool) error {
	for _, b := range Detect() {
		for _, profileDir := range profileDirs(b.UserDataDir) {
			source := b.Name + " (" + filepath.Base(profileDir) + ")"

			if enableBookmarks {
				if err := e.extractBookmarks(profileDir, source); err != nil {
					return err
				}
			}
			if enableHistory {
				if err := e.extractHistory(profileDir, source); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// PurgeByType removes every record of the given browser-derived type,
// used when browser search is disabled entirely (set_bookmarks_enabled
// / set_history_enabled with enabled=false).
func (e *Extractor) PurgeByType(t record.Type) error {
	return e.store.DeleteByType(t)
}
