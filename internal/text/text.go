// Package text holds the string normalization and query preprocessing used by
// the matcher and the search orchestrator.
package text

import "strings"

// Processing configures query preprocessing. The zero value is unusable;
// callers should start from DefaultProcessing.
type Processing struct {
	FilterWords      []string `json:"filterOutWords"`
	QuoteChars       []string `json:"filterOutQuotes"`
	CutOffSeparators []string `json:"cutOffSeparators"`
}

// DefaultProcessing returns the stock word lists.
func DefaultProcessing() Processing {
	return Processing{
		FilterWords: []string{
			"original mix",
			"radio edit",
			"single edit",
			"alternate mix",
			"remastered",
			"remaster",
			"single version",
			"retail mix",
			"quartet",
		},
		QuoteChars:       []string{"'", "\"", "´", "`"},
		CutOffSeparators: []string{"(", "[", "{", "-"},
	}
}

// multi-rune replacements go first so æ/œ/þ don't collide with the
// single-letter folds below
var diacriticPairs = []string{
	"æ", "ae",
	"œ", "oe",
	"þ", "th",
	"à", "a", "á", "a", "â", "a", "ã", "a", "ä", "a", "å", "a",
	"è", "e", "é", "e", "ê", "e", "ë", "e",
	"ì", "i", "í", "i", "î", "i", "ï", "i",
	"ò", "o", "ó", "o", "ô", "o", "õ", "o", "ö", "o",
	"ù", "u", "ú", "u", "û", "u", "ü", "u",
	"ý", "y", "ÿ", "y",
	"ç", "c",
	"ñ", "n",
	"ð", "d",
}

var diacriticReplacer = strings.NewReplacer(diacriticPairs...)

// Normalize lower-cases, trims and folds known diacritics to their base Latin
// letter. Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	return diacriticReplacer.Replace(strings.TrimSpace(strings.ToLower(s)))
}

// CleanQuery lower-cases the input and applies the approach-specific
// preprocessing steps: word-list filtering, quote stripping and separator
// cut-off (keeping only the text before the last configured separator).
// Empty bracket pairs left behind by filtering are collapsed and stray
// leading/trailing dashes are trimmed.
func CleanQuery(input string, proc Processing, filtered, trim, removeQuotes bool) string {
	result := strings.ToLower(input)

	if filtered {
		for _, w := range proc.FilterWords {
			result = strings.ReplaceAll(result, w, "")
		}
	}

	if removeQuotes {
		for _, q := range proc.QuoteChars {
			result = strings.ReplaceAll(result, q, "")
		}
	}

	result = strings.ReplaceAll(result, "()", "")

	if trim {
		for _, sep := range proc.CutOffSeparators {
			if idx := strings.LastIndex(result, sep); idx > -1 {
				result = result[:idx]
			}
		}
	}

	result = strings.TrimSpace(result)
	for len(result) > 3 && strings.HasSuffix(result, "-") {
		result = strings.TrimSpace(result[:len(result)-1])
	}
	for len(result) > 3 && strings.HasPrefix(result, "-") {
		result = strings.TrimSpace(result[1:])
	}

	return result
}

// RemoveFeaturing cuts a title or artist string at the first featuring marker
// or opening parenthesis, whichever comes first.
func RemoveFeaturing(s string) string {
	cut := len(s)
	if idx := strings.Index(s, "feat"); idx > -1 && idx < cut {
		cut = idx
	}
	if idx := strings.Index(s, "("); idx > -1 && idx < cut {
		cut = idx
	}
	return s[:cut]
}
