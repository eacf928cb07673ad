package matcher

import (
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"trackmatch-go-srv/internal/models"
	"trackmatch-go-srv/internal/text"
)

// minContainsLength guards the contains check: shorter strings produce too
// many false positives for substring semantics.
const minContainsLength = 5

var dice = func() *metrics.SorensenDice {
	m := metrics.NewSorensenDice()
	m.CaseSensitive = false
	return m
}()

// Compare normalizes and compares two strings. Match is case-insensitive
// equality of the trimmed raw strings (punctuation and diacritics still
// count). Similarity is a Sørensen–Dice bigram coefficient in [0,1].
// Contains is a substring test on the diacritic-folded forms: b inside a, or
// either way when twoWay is set.
func Compare(a, b string, twoWay bool) models.Attribute {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return models.Attribute{}
	}

	attr := models.Attribute{
		Match:      strings.EqualFold(a, b),
		Similarity: similarity(a, b),
	}

	if utf8.RuneCountInString(a) < minContainsLength || utf8.RuneCountInString(b) < minContainsLength {
		return attr
	}

	normA := text.Normalize(a)
	normB := text.Normalize(b)
	if twoWay {
		attr.Contains = strings.Contains(normA, normB) || strings.Contains(normB, normA)
	} else {
		attr.Contains = strings.Contains(normA, normB)
	}

	return attr
}

func similarity(a, b string) float64 {
	if strings.EqualFold(a, b) {
		return 1
	}
	return strutil.Similarity(a, b, dice)
}
