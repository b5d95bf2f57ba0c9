package config

import (
	"os"
	"path/filepath"
)

// UserDir returns <user-config-dir>/worksentry, honoring each
// platform's config-directory convention (spec.md §6 "Environment"):
// os.UserConfigDir already implements exactly that convention
// (%AppData% on Windows, ~/Library/Application Support on macOS,
// $XDG_CONFIG_HOME or ~/.config elsewhere), so no platform-switch is
// needed here beyond what the standard library already provides.
func UserDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "worksentry"), nil
}

// IndexDir returns <user-config-dir>/worksentry/index, the opaque
// directory the store owns.
func IndexDir() (string, error) {
	dir, err := UserDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "index"), nil
}
