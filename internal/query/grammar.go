// Package query implements C6: query grammar parsing, boolean
// retrieval, and Tiered Hybrid scoring.
package query

import (
	"strings"

	"worksentry/internal/record"
)

// Query is a parsed query string: a free-text remainder plus zero or
// more structural filters, per spec.md §4.6's grammar.
type Query struct {
	FreeText   string
	Extensions map[string]struct{} // empty means "no extension filter"
	Types      map[record.Type]struct{}
	Prefix     bool
	Fuzzy      bool
	Limit      int
}

// typeTags expand `type:<tag>` into extension lists.
var typeTags = map[string][]string{
	"doc":     {"pdf", "docx", "doc", "txt", "md", "epub", "mobi", "odt"},
	"app":     {"exe", "msi", "dmg", "app", "apk", "lnk", "bat", "cmd"},
	"image":   {"jpg", "jpeg", "png", "gif", "bmp", "svg", "webp", "ico", "tiff"},
	"video":   {"mp4", "mkv", "avi", "mov", "wmv"},
	"audio":   {"mp3", "wav", "flac", "ogg"},
	"code":    {"rs", "py", "js", "ts", "tsx", "html", "css", "json", "yaml", "yml", "toml", "xml", "go", "java", "c", "cpp"},
	"archive": {"zip", "rar", "7z", "tar", "gz", "bz2", "iso"},
	"ppt":     {"ppt", "pptx", "odp"},
	"excel":   {"xls", "xlsx", "ods", "csv"},
}

// inTags expand `in:<tag>` into record-type sets.
var inTags = map[string][]record.Type{
	"files":     {record.TypeFile},
	"bookmarks": {record.TypeBookmark},
	"history":   {record.TypeHistory},
	"web":       {record.TypeBookmark, record.TypeHistory},
}

// Parse splits raw into a Query. It never fails: an unparseable or
// empty query simply yields an all-free-text Query with no filters,
// per §7's QueryInvalid policy of returning an empty result rather than
// erroring — the planner, not the parser, is what turns "no candidates"
// into an empty list.
func Parse(raw string, limit int, prefix, fuzzy bool) Query {
	q := Query{
		Extensions: map[string]struct{}{},
		Types:      map[record.Type]struct{}{},
		Prefix:     prefix,
		Fuzzy:      fuzzy,
		Limit:      limit,
	}

	var freeWords []string
	for _, tok := range strings.Fields(raw) {
		switch {
		case strings.HasPrefix(tok, "ext:"):
			for _, e := range strings.Split(strings.TrimPrefix(tok, "ext:"), ",") {
				if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
					q.Extensions[e] = struct{}{}
				}
			}
		case strings.HasPrefix(tok, "type:"):
			tag := strings.ToLower(strings.TrimPrefix(tok, "type:"))
			for _, e := range typeTags[tag] {
				q.Extensions[e] = struct{}{}
			}
		case strings.HasPrefix(tok, "in:"):
			tag := strings.ToLower(strings.TrimPrefix(tok, "in:"))
			for _, t := range inTags[tag] {
				q.Types[t] = struct{}{}
			}
		case strings.HasPrefix(tok, ".") && len(tok) > 1 && !strings.Contains(tok[1:], "."):
			q.Extensions[strings.ToLower(tok[1:])] = struct{}{}
		default:
			freeWords = append(freeWords, tok)
		}
	}

	q.FreeText = strings.Join(freeWords, " ")
	return q
}

func (q Query) matchesFilters(rec record.Record) bool {
	if len(q.Extensions) > 0 {
		if _, ok := q.Extensions[strings.ToLower(rec.Extension)]; !ok {
			return false
		}
	}
	if len(q.Types) > 0 {
		if _, ok := q.Types[rec.RecordType]; !ok {
			return false
		}
	}
	return true
}
