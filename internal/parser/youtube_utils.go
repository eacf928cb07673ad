package parser

import (
	"regexp"
	"strings"
)

var (
	noiseRegex = regexp.MustCompile(`(?i)\((official video|official audio|audio|video|lyrics|HD|Remaster(ed)?)\)|\[(official video|official audio|audio|video|lyrics|HD|Remaster(ed)?)\]`)
	featRegex  = regexp.MustCompile(`(?i)\bfeat\.?\b`)
	spaceRegex = regexp.MustCompile(`\s{2,}`)
	splitRegex = regexp.MustCompile(`\s+[-|–—:]\s+`)
)

// SplitVideoTitle derives (artist, title) from a YouTube video title, falling
// back to the uploader as the artist when the title has no usable split.
func SplitVideoTitle(rawTitle, uploader string) (string, string) {
	t := rawTitle

	t = noiseRegex.ReplaceAllString(t, "")
	t = featRegex.ReplaceAllString(t, "ft.")
	t = spaceRegex.ReplaceAllString(t, " ")
	t = strings.TrimSpace(t)

	// Try "Artist - Title" style separators first.
	parts := splitRegex.Split(t, 2)
	if len(parts) == 2 {
		left, right := parts[0], parts[1]
		if looksLikeArtist(left, right) {
			return capWords(left), capWords(right)
		}
		return capWords(right), capWords(left)
	}

	if uploader != "" {
		return capWords(uploader), capWords(t)
	}

	return "", capWords(t)
}

// looksLikeArtist: the left side is the artist when it names multiple acts or
// is short next to a longer right side.
func looksLikeArtist(left, right string) bool {
	leftLower := strings.ToLower(left)
	if strings.Contains(left, ",") || strings.Contains(leftLower, "ft.") || strings.Contains(leftLower, "feat.") {
		return true
	}

	return len(strings.Fields(left)) <= 4 && len(strings.Fields(right)) >= 2
}

// capWords title-cases each word but keeps short all-caps tokens (DJ, MF) as
// they are.
func capWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == strings.ToUpper(w) && len(w) <= 4 {
			continue
		}
		lower := strings.ToLower(w)
		words[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(words, " ")
}
