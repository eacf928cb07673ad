package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackmatch-go-srv/internal/models"
)

func bundle(mod func(m *models.Matching)) *models.Matching {
	m := &models.Matching{}
	if mod != nil {
		mod(m)
	}
	return m
}

func TestCompileSimpleOperations(t *testing.T) {
	tests := []struct {
		name   string
		source string
		attrs  *models.Matching
		want   bool
	}{
		{
			name:   "artist match true",
			source: "artist:match",
			attrs:  bundle(func(m *models.Matching) { m.Artist.Match = true }),
			want:   true,
		},
		{
			name:   "artist match false even when contains",
			source: "artist:match",
			attrs:  bundle(func(m *models.Matching) { m.Artist.Contains = true }),
			want:   false,
		},
		{
			name:   "title contains",
			source: "title:contains",
			attrs:  bundle(func(m *models.Matching) { m.Title.Contains = true }),
			want:   true,
		},
		{
			name:   "album match",
			source: "album:match",
			attrs:  bundle(func(m *models.Matching) { m.Album.Match = true }),
			want:   true,
		},
		{
			name:   "artistWithTitle similarity",
			source: "artistWithTitle:similarity>=0.9",
			attrs:  bundle(func(m *models.Matching) { m.ArtistWithTitle.Similarity = 0.95 }),
			want:   true,
		},
		{
			name:   "artistInTitle match",
			source: "artistInTitle:match",
			attrs:  bundle(func(m *models.Matching) { m.ArtistInTitle.Match = true }),
			want:   true,
		},
		{
			name:   "is requires match and contains",
			source: "artist:is",
			attrs:  bundle(func(m *models.Matching) { m.Artist.Match = true }),
			want:   false,
		},
		{
			name:   "is true when both",
			source: "artist:is",
			attrs: bundle(func(m *models.Matching) {
				m.Artist.Match = true
				m.Artist.Contains = true
			}),
			want: true,
		},
		{
			name:   "not negates match only",
			source: "artist:not",
			attrs:  bundle(func(m *models.Matching) { m.Artist.Contains = true }),
			want:   true,
		},
		{
			name:   "not false when match",
			source: "artist:not",
			attrs:  bundle(func(m *models.Matching) { m.Artist.Match = true }),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := Compile(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pred(tt.attrs))
		})
	}
}

func TestSimilarityThresholdIsInclusive(t *testing.T) {
	pred, err := Compile("artist:similarity>=0.8")
	require.NoError(t, err)

	assert.False(t, pred(bundle(func(m *models.Matching) { m.Artist.Similarity = 0.79 })))
	assert.True(t, pred(bundle(func(m *models.Matching) { m.Artist.Similarity = 0.8 })))
	assert.True(t, pred(bundle(func(m *models.Matching) { m.Artist.Similarity = 0.81 })))
}

func TestSimilarityThresholdBounds(t *testing.T) {
	for _, source := range []string{
		"artist:similarity>=1.1",
		"artist:similarity>=2",
		"artist:similarity>=.",
	} {
		pred, err := Compile(source)
		require.Error(t, err, source)
		assert.Contains(t, err.Error(), "Invalid similarity threshold")
		assert.False(t, pred(bundle(nil)))
	}

	// both bounds are valid thresholds
	for _, source := range []string{"artist:similarity>=0", "artist:similarity>=1"} {
		_, err := Compile(source)
		assert.NoError(t, err, source)
	}
}

func TestCombinators(t *testing.T) {
	attrs := bundle(func(m *models.Matching) {
		m.Artist.Match = true
		m.Title.Match = false
		m.Album.Match = true
	})

	tests := []struct {
		source string
		want   bool
	}{
		{"artist:match AND title:match", false},
		{"artist:match AND album:match", true},
		{"artist:match OR title:match", true},
		{"title:match OR title:contains", false},
		{"artist:match AND title:match AND album:match", false},
		{"artist:match OR title:match AND album:match", true},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			pred, err := Compile(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pred(attrs))
		})
	}
}

// Combinators apply strictly left-to-right: "a AND b OR c" is "(a AND b) OR c".
// Conventional precedence would flip some of these results; published rule
// sets rely on the historical behavior.
func TestNoOperatorPrecedence(t *testing.T) {
	attrs := bundle(func(m *models.Matching) {
		m.Artist.Match = false
		m.Title.Match = true
		m.Album.Match = true
	})

	// (false AND true) OR true = true
	pred, err := Compile("artist:match AND title:match OR album:match")
	require.NoError(t, err)
	assert.True(t, pred(attrs))

	// (false OR true) AND false = false; with precedence it would be
	// false OR (true AND false) = false too, so use a case that differs:
	// (true OR true) AND false = false, precedence would give true.
	attrs2 := bundle(func(m *models.Matching) {
		m.Artist.Match = true
		m.Title.Match = true
		m.Album.Match = false
	})
	pred2, err := Compile("artist:match OR title:match AND album:match")
	require.NoError(t, err)
	assert.False(t, pred2(attrs2))
}

func TestCompileIsTotal(t *testing.T) {
	sources := []string{
		"",
		"   ",
		"artist",
		"artist:",
		":match",
		"artist:bogus",
		"bogus:match",
		"artist:match and title:match",
		"artist:match AND",
		"artist:match:contains",
		"artist : match OR",
		"similarity>=0.8",
		"artist:similarity>=abc",
		"AND OR AND",
	}

	for _, source := range sources {
		pred, _ := Compile(source)
		require.NotNil(t, pred, source)
		assert.False(t, pred(bundle(func(m *models.Matching) {
			m.Artist = models.Attribute{Match: true, Contains: true, Similarity: 1}
			m.Title = m.Artist
		})), source)
	}
}

func TestCompileDiagnostics(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"artist:bogus", "Invalid operation: bogus"},
		{"bogus:match", "Invalid field: bogus"},
		{"artist:", "Invalid condition format"},
		{"artist:match:extra", "Invalid condition format"},
		{"artist:similarity>=1.5", "Invalid similarity threshold: 1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			_, err := Compile(tt.source)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLowerCaseCombinatorRejected(t *testing.T) {
	// "and" is not a combinator, so the whole string is one condition with
	// two colons, which is a format error.
	pred, err := Compile("artist:match and title:match")
	require.Error(t, err)
	assert.False(t, pred(bundle(func(m *models.Matching) {
		m.Artist.Match = true
		m.Title.Match = true
	})))
}

func TestEmptySourceCompilesQuietly(t *testing.T) {
	pred, err := Compile("")
	require.NoError(t, err)
	assert.False(t, pred(bundle(nil)))
	assert.False(t, pred(nil))
}

func TestNilBundleIsFalse(t *testing.T) {
	pred, err := Compile("artist:match")
	require.NoError(t, err)
	assert.False(t, pred(nil))
}
