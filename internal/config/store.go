// Package config persists the operator-editable search configuration: the
// ordered match-filter list, the search-approach list and the text-processing
// word lists. Each lives in its own JSON document under the data directory;
// a missing document falls back to compiled-in defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"trackmatch-go-srv/internal/models"
	"trackmatch-go-srv/internal/text"
)

const (
	matchFiltersFile     = "match-filters.json"
	searchApproachesFile = "search-approaches.json"
	textProcessingFile   = "text-processing.json"
)

// DefaultMatchFilters is the stock rule cascade, strongest evidence first.
func DefaultMatchFilters() []models.MatchFilter {
	return []models.MatchFilter{
		{Reason: "Exact artist and title match", Expression: "artist:match AND title:match"},
		{Reason: "Exact artist with partial title match", Expression: "artist:match AND title:contains"},
		{Reason: "Exact artist with similar title (80%+)", Expression: "artist:match AND title:similarity>=0.8"},
		{Reason: "Partial artist with exact title match", Expression: "artist:contains AND title:match"},
		{Reason: "Both artist and title very similar (85%+)", Expression: "artist:similarity>=0.85 AND title:similarity>=0.85"},
		{Reason: "All fields partially match (artist, title, album)", Expression: "artist:contains AND title:contains AND album:contains"},
		{Reason: "Combined artist-title field very similar (90%+)", Expression: "artistWithTitle:similarity>=0.9"},
		{Reason: "Album match with good artist and title similarity", Expression: "artist:similarity>=0.7 AND album:match AND title:similarity>=0.85"},
	}
}

// DefaultSearchApproaches returns the stock approach order.
func DefaultSearchApproaches() []models.SearchApproach {
	return []models.SearchApproach{
		{ID: "normal"},
		{ID: "filtered", Filtered: true, RemoveQuotes: true},
		{ID: "trimmed", Trim: true},
		{ID: "filtered_trimmed", Filtered: true, Trim: true, RemoveQuotes: true},
		{ID: "basic_filtered", Filtered: true},
		{ID: "unfiltered"},
	}
}

// Store reads and writes configuration documents in a single directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// MatchFilters returns the configured rule list in priority order, or the
// defaults when none has been saved yet.
func (s *Store) MatchFilters() ([]models.MatchFilter, error) {
	var filters []models.MatchFilter
	ok, err := s.read(matchFiltersFile, &filters)
	if err != nil {
		return nil, err
	}
	if !ok {
		return DefaultMatchFilters(), nil
	}
	if len(filters) == 0 {
		return nil, errors.New("match filter list is empty")
	}
	return filters, nil
}

func (s *Store) SaveMatchFilters(filters []models.MatchFilter) error {
	if len(filters) == 0 {
		return errors.New("match filter list is empty")
	}
	return s.write(matchFiltersFile, filters)
}

// SearchApproaches returns the configured approach list in priority order.
func (s *Store) SearchApproaches() ([]models.SearchApproach, error) {
	var approaches []models.SearchApproach
	ok, err := s.read(searchApproachesFile, &approaches)
	if err != nil {
		return nil, err
	}
	if !ok || len(approaches) == 0 {
		return DefaultSearchApproaches(), nil
	}
	return approaches, nil
}

func (s *Store) SaveSearchApproaches(approaches []models.SearchApproach) error {
	return s.write(searchApproachesFile, approaches)
}

// TextProcessing returns the configured word lists.
func (s *Store) TextProcessing() (text.Processing, error) {
	var proc text.Processing
	ok, err := s.read(textProcessingFile, &proc)
	if err != nil || !ok {
		return text.DefaultProcessing(), err
	}
	return proc, nil
}

func (s *Store) read(name string, v any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", name, err)
	}
	return true, nil
}

// write replaces the document atomically: marshal to a temp file in the same
// directory, then rename over the target.
func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
}
