package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashTerms_IsOrderIndependentAndNormalized(t *testing.T) {
	a := HashTerms([]string{"quarterly", "report", "draft"})
	b := HashTerms([]string{"draft", "report", "quarterly"})
	assert.Equal(t, a, b)

	var sumSq float64
	for _, x := range a {
		sumSq += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sumSq, 1e-4)
}

func TestHashTerms_EmptyInputYieldsZeroVector(t *testing.T) {
	v := HashTerms(nil)
	for _, x := range v {
		assert.Equal(t, float32(0), x)
	}
}

func TestUpdateAndRelated_FindsSharedVocabularyDocuments(t *testing.T) {
	idx, err := Open(t.TempDir())
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Update(1, []string{"quarterly", "report", "budget"}))
	require.NoError(t, idx.Update(2, []string{"quarterly", "report", "forecast"}))
	require.NoError(t, idx.Update(3, []string{"unrelated", "vacation", "photos"}))

	related := idx.Related(1, 2)
	require.NotEmpty(t, related)
	assert.Contains(t, related, uint64(2))
	assert.NotEqual(t, uint64(1), related[0])
}

func TestRelated_UnknownDocIDReturnsEmpty(t *testing.T) {
	idx, err := Open(t.TempDir())
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Update(1, []string{"a"}))
	assert.Empty(t, idx.Related(999, 5))
}

func TestOpen_RebuildsGraphFromExistingVectorFile(t *testing.T) {
	dir := t.TempDir()

	idx, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, idx.Update(1, []string{"alpha", "beta"}))
	require.NoError(t, idx.Update(2, []string{"alpha", "beta"}))
	require.NoError(t, idx.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	related := reopened.Related(1, 5)
	assert.Contains(t, related, uint64(2))
}
