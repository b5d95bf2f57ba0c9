package browser

import (
	"encoding/json"
	"os"
	"path/filepath"

	"worksentry/internal/record"
)

// extractBookmarks reads <profileDir>/Bookmarks, walks its folder tree,
// and idempotently replaces every BOOKMARK record for source in one
// commit. A missing Bookmarks file is not an error: the profile simply
// contributes nothing.
func (e *Extractor) extractBookmarks(profileDir, source string) error {
	path := filepath.Join(profileDir, "Bookmarks")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return nil // SourceRead: unreadable bookmarks file, skip this profile
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil // SourceRead: malformed JSON, skip
	}

	roots, ok := doc["roots"]
	if !ok {
		return nil
	}

	var found []record.Doc
	walkBookmarkNode(roots, source, &found)

	batch := e.store.NewBatch()
	batch.DeleteBySourceType(source, record.TypeBookmark)
	for _, d := range found {
		if err := batch.Upsert(d); err != nil {
			return err
		}
	}
	return batch.Commit()
}

// walkBookmarkNode mirrors the original implementation's recursive
// bookmark-tree walk: url leaves with a non-empty name become records;
// folder nodes recurse through "children"; the top-level "roots" object
// recurses through its named entries ("bookmark_bar", "other", "synced").
func walkBookmarkNode(node any, source string, out *[]record.Doc) {
	obj, ok := node.(map[string]any)
	if !ok {
		return
	}

	if typ, _ := obj["type"].(string); typ == "url" {
		url, _ := obj["url"].(string)
		name, _ := obj["name"].(string)
		if url != "" && name != "" {
			*out = append(*out, record.Doc{Record: record.Record{
				Path:       url,
				Name:       name,
				Extension:  "",
				Size:       0,
				MTime:      0, // date_added is not read; bookmarks always store 0
				RecordType: record.TypeBookmark,
				Source:     source,
			}})
		}
	}

	if children, ok := obj["children"].([]any); ok {
		for _, c := range children {
			walkBookmarkNode(c, source, out)
		}
	}

	for key, v := range obj {
		if key == "children" {
			continue
		}
		if _, isObj := v.(map[string]any); isObj {
			walkBookmarkNode(v, source, out)
		}
	}
}
