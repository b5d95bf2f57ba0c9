package browser

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"worksentry/internal/logging"
	"worksentry/internal/record"
)

// maxHistoryRows is spec.md §5's history extraction cap.
const maxHistoryRows = 1000

// webkitEpochOffsetMicros is the number of microseconds between the
// WebKit/Chrome epoch (1601-01-01 UTC) and the Unix epoch
// (1970-01-01 UTC), used to convert last_visit_time into Record.MTime.
const webkitEpochOffsetMicros = 11644473600000000

// extractHistory copies <profileDir>/History to a temp file (the live
// database is typically locked while the browser runs), reads the most-
// visited rows, and idempotently replaces every HISTORY record for
// source in one commit.
//
// Ordering resolves spec.md §9's open question: rows are taken
// most-visited-first (ORDER BY visit_count DESC), matching the original
// implementation's query, capped to the 1,000-row budget in
// SPEC_FULL.md §10.4 rather than the original's 2,000.
func (e *Extractor) extractHistory(profileDir, source string) error {
	log := logging.ForComponent(logging.CompBrowser)

	src := filepath.Join(profileDir, "History")
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}

	tmp, err := copyToTemp(src)
	if err != nil {
		log.Debug("could not copy history db, skipping", "profile", profileDir, "error", err)
		return nil
	}
	defer os.Remove(tmp)

	db, err := sql.Open("sqlite", tmp)
	if err != nil {
		return nil
	}
	defer db.Close()

	rows, err := db.Query(
		`SELECT url, title, last_visit_time FROM urls ORDER BY visit_count DESC LIMIT ?`,
		maxHistoryRows,
	)
	if err != nil {
		log.Debug("history query failed, skipping profile", "profile", profileDir, "error", err)
		return nil
	}
	defer rows.Close()

	var docs []record.Doc
	for rows.Next() {
		var url, title string
		var lastVisit int64
		if err := rows.Scan(&url, &title, &lastVisit); err != nil {
			continue
		}
		if title == "" {
			continue
		}
		docs = append(docs, record.Doc{Record: record.Record{
			Path:       url,
			Name:       title,
			Extension:  "",
			Size:       0,
			MTime:      webkitToUnix(lastVisit),
			RecordType: record.TypeHistory,
			Source:     source,
		}})
	}

	batch := e.store.NewBatch()
	batch.DeleteBySourceType(source, record.TypeHistory)
	for _, d := range docs {
		if err := batch.Upsert(d); err != nil {
			return err
		}
	}
	return batch.Commit()
}

func webkitToUnix(webkitMicros int64) int64 {
	if webkitMicros == 0 {
		return 0
	}
	return (webkitMicros - webkitEpochOffsetMicros) / 1_000_000
}

func copyToTemp(src string) (string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	f, err := os.CreateTemp("", "worksentry-history-*.db")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
