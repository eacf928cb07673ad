package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackmatch-go-srv/internal/models"
)

func TestMatchFiltersDefaultsWhenMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	filters, err := store.MatchFilters()
	require.NoError(t, err)
	assert.Equal(t, DefaultMatchFilters(), filters)
}

func TestMatchFiltersRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	custom := []models.MatchFilter{
		{Reason: "strict", Expression: "artist:match AND title:match AND album:match"},
		{Reason: "loose", Expression: "artist:contains"},
	}
	require.NoError(t, store.SaveMatchFilters(custom))

	got, err := store.MatchFilters()
	require.NoError(t, err)
	assert.Equal(t, custom, got)
}

func TestSaveMatchFiltersRejectsEmptyList(t *testing.T) {
	store := NewStore(t.TempDir())
	require.Error(t, store.SaveMatchFilters(nil))
	require.Error(t, store.SaveMatchFilters([]models.MatchFilter{}))
}

func TestMatchFiltersRejectsSavedEmptyList(t *testing.T) {
	dir := t.TempDir()
	// An empty document can only get there by editing the file directly.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "match-filters.json"), []byte("[]"), 0644))

	_, err := NewStore(dir).MatchFilters()
	require.Error(t, err)
}

func TestMatchFiltersRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "match-filters.json"), []byte("{not json"), 0644))

	_, err := NewStore(dir).MatchFilters()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match-filters.json")
}

func TestSearchApproachesDefaultsWhenMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	approaches, err := store.SearchApproaches()
	require.NoError(t, err)
	assert.Equal(t, DefaultSearchApproaches(), approaches)
}

func TestSearchApproachesRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	custom := []models.SearchApproach{
		{ID: "only", Filtered: true, Trim: true},
	}
	require.NoError(t, store.SaveSearchApproaches(custom))

	got, err := store.SearchApproaches()
	require.NoError(t, err)
	assert.Equal(t, custom, got)
}

func TestTextProcessingDefaultsWhenMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	proc, err := store.TextProcessing()
	require.NoError(t, err)
	assert.NotEmpty(t, proc.FilterWords)
	assert.NotEmpty(t, proc.CutOffSeparators)
}

func TestTextProcessingReadsSavedDocument(t *testing.T) {
	dir := t.TempDir()
	doc := `{"filterOutWords":["live"],"filterOutQuotes":["'"],"cutOffSeparators":["("]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "text-processing.json"), []byte(doc), 0644))

	proc, err := NewStore(dir).TextProcessing()
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, proc.FilterWords)
	assert.Equal(t, []string{"'"}, proc.QuoteChars)
	assert.Equal(t, []string{"("}, proc.CutOffSeparators)
}

func TestWriteCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	store := NewStore(dir)

	require.NoError(t, store.SaveMatchFilters(DefaultMatchFilters()))
	_, err := os.Stat(filepath.Join(dir, "match-filters.json"))
	require.NoError(t, err)
}

func TestDefaultMatchFilterExpressionsAreOrdered(t *testing.T) {
	filters := DefaultMatchFilters()
	require.Len(t, filters, 8)
	assert.Equal(t, "artist:match AND title:match", filters[0].Expression)
	for _, f := range filters {
		assert.NotEmpty(t, f.Reason)
		assert.NotEmpty(t, f.Expression)
	}
}
