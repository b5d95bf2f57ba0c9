package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"worksentry/internal/record"
)

func TestParse_ExtractsExtensionFilter(t *testing.T) {
	q := Parse("ext:pdf,epub roadmap", 50, false, false)
	assert.Equal(t, "roadmap", q.FreeText)
	_, hasPDF := q.Extensions["pdf"]
	_, hasEpub := q.Extensions["epub"]
	assert.True(t, hasPDF)
	assert.True(t, hasEpub)
}

func TestParse_TypeTagExpandsToExtensions(t *testing.T) {
	q := Parse("type:image", 50, false, false)
	assert.Empty(t, q.FreeText)
	_, hasPNG := q.Extensions["png"]
	assert.True(t, hasPNG)
}

func TestParse_InTagExpandsToRecordTypes(t *testing.T) {
	q := Parse("in:web budget", 50, false, false)
	assert.Equal(t, "budget", q.FreeText)
	_, hasBookmark := q.Types[record.TypeBookmark]
	_, hasHistory := q.Types[record.TypeHistory]
	assert.True(t, hasBookmark)
	assert.True(t, hasHistory)
}

func TestParse_BareDotExtensionShorthand(t *testing.T) {
	q := Parse(".pdf", 50, false, false)
	assert.Empty(t, q.FreeText)
	_, ok := q.Extensions["pdf"]
	assert.True(t, ok)
}

func TestParse_DottedFilenameIsNotTreatedAsExtensionShorthand(t *testing.T) {
	q := Parse("report.v2.txt", 50, false, false)
	assert.Empty(t, q.Extensions)
	assert.Equal(t, "report.v2.txt", q.FreeText)
}

func TestParse_PlainFreeTextHasNoFilters(t *testing.T) {
	q := Parse("quarterly report", 50, false, false)
	assert.Equal(t, "quarterly report", q.FreeText)
	assert.Empty(t, q.Extensions)
	assert.Empty(t, q.Types)
}

func TestMatchesFilters(t *testing.T) {
	q := Parse("ext:pdf", 50, false, false)
	assert.True(t, q.matchesFilters(record.Record{Extension: "PDF"}))
	assert.False(t, q.matchesFilters(record.Record{Extension: "txt"}))
}
