// Package matcher scores catalog candidates against a target track and picks
// the matching subset via an ordered, first-match-wins rule cascade.
package matcher

import (
	"log"
	"sort"

	"trackmatch-go-srv/internal/expr"
	"trackmatch-go-srv/internal/models"
)

// analyzeLimit caps the number of ranked candidates returned in analyze mode.
const analyzeLimit = 10

// Rule pairs a compiled predicate with the reason reported for tracks it
// selects.
type Rule struct {
	Reason    string
	Predicate expr.Predicate
}

// CompileRules compiles every filter expression. Malformed expressions are
// kept as always-false rules so the configured order stays intact; the
// diagnostic is logged, never raised. Rule strings are operator-authored
// configuration, so a safe default beats a hard failure.
func CompileRules(filters []models.MatchFilter) []Rule {
	rules := make([]Rule, 0, len(filters))
	for _, f := range filters {
		pred, err := expr.Compile(f.Expression)
		if err != nil {
			log.Printf("match filter %q disabled: %v", f.Reason, err)
		}
		rules = append(rules, Rule{Reason: f.Reason, Predicate: pred})
	}
	return rules
}

// BuildMatching computes the five derived relations for one candidate.
func BuildMatching(target, candidate models.Track) *models.Matching {
	return &models.Matching{
		Album:           Compare(candidate.Album, target.Album, true),
		Title:           Compare(candidate.Title, target.Title, true),
		ArtistInTitle:   Compare(candidate.Title, target.Artist, false),
		ArtistWithTitle: Compare(candidate.Title, target.Artist+" "+target.Title, true),
		Artist:          Compare(candidate.Artist, target.Artist, true),
	}
}

// Evaluate scores every candidate against the target, ranks them and applies
// the rules in configured order. The first rule with a non-empty subset wins
// and its subset is returned, each element tagged with the rule's reason.
// An empty result is the canonical no-match outcome, not an error.
func Evaluate(target models.Track, candidates []models.Track, rules []Rule) []models.Candidate {
	ranked := rank(target, candidates)

	for _, rule := range rules {
		var subset []models.Candidate
		for _, c := range ranked {
			if rule.Predicate(c.Matching) {
				c.Reason = rule.Reason
				c.Matched = true
				subset = append(subset, c)
			}
		}
		if len(subset) > 0 {
			return subset
		}
	}

	return nil
}

// Analyze is the diagnostic variant of Evaluate: no short-circuit. Every
// ranked candidate is annotated with whether any rule accepts it, and at most
// the top 10 are returned with full attribute detail.
func Analyze(target models.Track, candidates []models.Track, rules []Rule) []models.Candidate {
	ranked := rank(target, candidates)

	for i := range ranked {
		for _, rule := range rules {
			if rule.Predicate(ranked[i].Matching) {
				ranked[i].Matched = true
				ranked[i].Reason = rule.Reason
				break
			}
		}
	}

	if len(ranked) > analyzeLimit {
		ranked = ranked[:analyzeLimit]
	}
	return ranked
}

// rank computes match attributes for each candidate and stable-sorts by
// descending combined similarity, so ties keep provider order and the
// selection stays deterministic.
func rank(target models.Track, candidates []models.Track) []models.Candidate {
	ranked := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, models.Candidate{
			Track:    c,
			Matching: BuildMatching(target, c),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return combinedSimilarity(ranked[i].Matching) > combinedSimilarity(ranked[j].Matching)
	})

	return ranked
}

func combinedSimilarity(m *models.Matching) float64 {
	return m.Artist.Similarity + m.Title.Similarity + m.Album.Similarity
}
