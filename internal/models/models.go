package models

// Track is the unit being searched for and the unit returned as a candidate.
type Track struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Artist   string   `json:"artist"`
	Artists  []string `json:"artists,omitempty"`
	Album    string   `json:"album,omitempty"`
	SourceID string   `json:"source_id,omitempty"`
	Type     string   `json:"type,omitempty"`
}

// ArtistNames returns every artist spelling associated with the track,
// falling back to the single Artist field.
func (t Track) ArtistNames() []string {
	if len(t.Artists) > 0 {
		return t.Artists
	}
	if t.Artist != "" {
		return []string{t.Artist}
	}
	return nil
}

// Attribute is the result of comparing one pair of strings.
type Attribute struct {
	Match      bool    `json:"match"`
	Contains   bool    `json:"contains"`
	Similarity float64 `json:"similarity"`
}

// Matching holds the five derived relations computed per (target, candidate) pair.
type Matching struct {
	Artist          Attribute `json:"artist"`
	Title           Attribute `json:"title"`
	Album           Attribute `json:"album"`
	ArtistInTitle   Attribute `json:"artistInTitle"`
	ArtistWithTitle Attribute `json:"artistWithTitle"`
}

// Candidate is a catalog track annotated with its match attributes and,
// on a match, the reason of the rule that selected it.
type Candidate struct {
	Track
	Matching *Matching `json:"matching,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Matched  bool      `json:"matched"`
}

// MatchFilter is one operator-authored rule: an opaque expression string plus
// the reason reported for tracks it selects. List order is significant.
type MatchFilter struct {
	Reason     string `json:"reason"`
	Expression string `json:"expression"`
}

// SearchApproach is a named text-preprocessing policy, tried in list order.
// Force makes the approach run even when an earlier approach already matched.
type SearchApproach struct {
	ID           string `json:"id"`
	Filtered     bool   `json:"filtered"`
	Trim         bool   `json:"trim"`
	IgnoreQuotes bool   `json:"ignoreQuotes,omitempty"`
	RemoveQuotes bool   `json:"removeQuotes,omitempty"`
	Force        bool   `json:"force,omitempty"`
}
