package indexer

import "strings"

// class describes how a walked file is treated.
type class int

const (
	classExcluded class = iota
	classFilenameOnly
	classContentIndexable
)

// textIndexable is spec.md §6's canonical supported-extension set:
// Text, Data, and Code categories. Files in this set have their content
// read and tokenized in addition to their name.
var textIndexable = map[string]bool{
	"txt": true, "md": true, "log": true,
	"json": true, "yaml": true, "yml": true, "toml": true, "xml": true, "csv": true, "ini": true, "conf": true,
	"rs": true, "py": true, "js": true, "ts": true, "tsx": true, "html": true, "css": true,
}

// filenameOnly mirrors the original implementation's broader
// is_filename_only_indexable set (DESIGN.md / SPEC_FULL.md §10.4):
// ordinary binary file types that are worth finding by name even though
// their content is never read.
var filenameOnly = map[string]bool{
	// Documents
	"pdf": true, "doc": true, "docx": true, "xls": true, "xlsx": true,
	"ppt": true, "pptx": true, "odt": true, "ods": true, "odp": true,
	// Ebooks
	"epub": true, "mobi": true, "azw": true, "azw3": true, "fb2": true, "djvu": true,
	// Images
	"jpg": true, "jpeg": true, "png": true, "gif": true, "bmp": true, "svg": true, "webp": true, "ico": true, "tiff": true,
	// Audio/video
	"mp3": true, "wav": true, "flac": true, "ogg": true, "mp4": true, "mkv": true, "avi": true, "mov": true, "wmv": true,
	// Archives
	"zip": true, "rar": true, "7z": true, "tar": true, "gz": true, "bz2": true,
	// Executables/installers
	"exe": true, "msi": true, "dmg": true, "app": true, "apk": true, "lnk": true, "bat": true, "cmd": true,
	// Other
	"iso": true, "torrent": true,
}

// classify returns how a file with the given lowercased extension
// (without leading dot) should be treated. An empty extension is always
// excluded, matching the original implementation's requirement that a
// file have a recognized extension to be indexed at all.
func classify(ext string) class {
	ext = strings.ToLower(ext)
	if ext == "" {
		return classExcluded
	}
	if textIndexable[ext] {
		return classContentIndexable
	}
	if filenameOnly[ext] {
		return classFilenameOnly
	}
	return classExcluded
}
