// Package search orchestrates catalog lookups for a target track: it retries
// the lookup under a sequence of text-preprocessing approaches, memoizes
// per-query results and falls back across the track's listed artists.
package search

import (
	"context"
	"log"
	"strings"

	"trackmatch-go-srv/internal/matcher"
	"trackmatch-go-srv/internal/models"
	"trackmatch-go-srv/internal/text"
)

// Provider is the external catalog lookup consumed by the orchestrator.
type Provider interface {
	Search(ctx context.Context, query string) ([]models.Track, error)
}

// Session confines the per-batch query cache to one logical search run.
// Sessions are not safe for concurrent use; independent searches get
// independent sessions so they never share cache or rate-limit bookkeeping.
type Session struct {
	provider Provider
	rules    []matcher.Rule
	proc     text.Processing
	cache    map[string][]models.Track
}

func NewSession(provider Provider, rules []matcher.Rule, proc text.Processing) *Session {
	return &Session{
		provider: provider,
		rules:    rules,
		proc:     proc,
		cache:    make(map[string][]models.Track),
	}
}

// Reset drops the memoized query results. Call it between independent
// search batches; cached results never survive a session.
func (s *Session) Reset() {
	s.cache = make(map[string][]models.Track)
}

// Search finds catalog matches for the target, retrying across every artist
// spelling associated with it. The first artist yielding any result wins; a
// failed artist attempt is logged and does not abort the others.
func (s *Session) Search(ctx context.Context, approaches []models.SearchApproach, target models.Track) ([]models.Candidate, error) {
	var lastErr error

	for _, artist := range artistVariations(target) {
		attempt := target
		attempt.Artist = artist

		result, err := s.FindTrack(ctx, approaches, attempt)
		if err != nil {
			log.Printf("search %q by %q failed: %v", target.Title, artist, err)
			lastErr = err
			continue
		}
		if len(result) > 0 {
			return result, nil
		}
	}

	return nil, lastErr
}

// FindTrack runs the approach list in order for a single artist spelling.
// Later approaches are skipped once one has produced a match, unless they are
// marked Force. Raw provider results only count after the rule cascade has
// selected true matches from them.
func (s *Session) FindTrack(ctx context.Context, approaches []models.SearchApproach, target models.Track) ([]models.Candidate, error) {
	var result []models.Candidate

	for _, approach := range approaches {
		if len(result) > 0 && !approach.Force {
			continue
		}

		strip := approach.IgnoreQuotes || approach.RemoveQuotes
		artist := text.CleanQuery(target.Artist, s.proc, approach.Filtered, approach.Trim, strip)
		title := text.CleanQuery(target.Title, s.proc, approach.Filtered, approach.Trim, strip)
		album := text.CleanQuery(target.Album, s.proc, approach.Filtered, approach.Trim, strip)

		matches, err := s.lookupAndMatch(ctx, target, artist, title, album)
		if err != nil {
			return nil, err
		}

		// Some catalogs index "and" where the source writes "&".
		if len(matches) == 0 && (strings.Contains(artist, "&") || strings.Contains(title, "&")) {
			altArtist := strings.ReplaceAll(artist, "&", "and")
			altTitle := strings.ReplaceAll(title, "&", "and")
			matches, err = s.lookupAndMatch(ctx, target, altArtist, altTitle, album)
			if err != nil {
				return nil, err
			}
		}

		if len(matches) > 0 {
			result = matches
		}
	}

	return result, nil
}

// Analyze runs every approach without short-circuiting, aggregates the raw
// candidates seen and returns the top ranked candidates annotated with
// whether any rule accepts them. Used for rule tuning, never for syncing.
func (s *Session) Analyze(ctx context.Context, approaches []models.SearchApproach, target models.Track) ([]models.Candidate, error) {
	seen := make(map[string]bool)
	var raw []models.Track

	for _, approach := range approaches {
		strip := approach.IgnoreQuotes || approach.RemoveQuotes
		artist := text.CleanQuery(target.Artist, s.proc, approach.Filtered, approach.Trim, strip)
		title := text.CleanQuery(target.Title, s.proc, approach.Filtered, approach.Trim, strip)
		album := text.CleanQuery(target.Album, s.proc, approach.Filtered, approach.Trim, strip)

		found, err := s.lookup(ctx, artist, title, album)
		if err != nil {
			return nil, err
		}
		for _, t := range found {
			if !seen[t.ID] {
				seen[t.ID] = true
				raw = append(raw, t)
			}
		}
	}

	return matcher.Analyze(target, raw, s.rules), nil
}

func (s *Session) lookupAndMatch(ctx context.Context, target models.Track, artist, title, album string) ([]models.Candidate, error) {
	raw, err := s.lookup(ctx, artist, title, album)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return matcher.Evaluate(target, raw, s.rules), nil
}

// lookup memoizes raw provider results per preprocessed query triple, so two
// approaches producing the same strings cost one network call.
func (s *Session) lookup(ctx context.Context, artist, title, album string) ([]models.Track, error) {
	key := artist + "|" + title + "|" + album
	if cached, ok := s.cache[key]; ok {
		return cached, nil
	}

	raw, err := s.provider.Search(ctx, strings.TrimSpace(artist+" "+title))
	if err != nil {
		return nil, err
	}

	s.cache[key] = raw
	return raw, nil
}

// artistVariations lists the artist spellings to try, in order: each listed
// artist, the combined "A, B" spelling when there is more than one, and a
// featuring-stripped spelling when that changes anything.
func artistVariations(t models.Track) []string {
	variations := append([]string(nil), t.ArtistNames()...)
	if len(variations) > 1 {
		variations = append(variations, strings.Join(variations, ", "))
	}

	for _, name := range t.ArtistNames() {
		if stripped := strings.TrimSpace(text.RemoveFeaturing(name)); stripped != "" && stripped != name {
			variations = append(variations, stripped)
		}
	}

	return variations
}
