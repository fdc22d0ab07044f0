package genre

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeLowersAndTrims(t *testing.T) {
	c := NewCanonicalizer(nil)
	assert.Equal(t, []string{"jazz"}, c.Canonicalize([]string{"  Jazz  "}))
}

func TestCanonicalizeStripsAccents(t *testing.T) {
	c := NewCanonicalizer(nil)
	assert.Equal(t, []string{"electronic"}, c.Canonicalize([]string{"Électronica"}))
	assert.Equal(t, []string{"reggaeton"}, c.Canonicalize([]string{"Reggaetón"}))
}

func TestCanonicalizeMapsSynonyms(t *testing.T) {
	c := NewCanonicalizer(nil)

	tests := []struct {
		raw  string
		want string
	}{
		{"Hard Rock", "rock"},
		{"hip hop", "hip-hop"},
		{"HipHop", "hip-hop"},
		{"hip_hop", "hip-hop"},
		{"R&B", "rnb"},
		{"EDM", "electronic"},
		{"Lo-Fi", "lofi"},
	}
	for _, tt := range tests {
		assert.Equal(t, []string{tt.want}, c.Canonicalize([]string{tt.raw}), "raw=%q", tt.raw)
	}
}

func TestCanonicalizeDeduplicatesAndSorts(t *testing.T) {
	c := NewCanonicalizer(nil)
	got := c.Canonicalize([]string{"Techno", "House", "rock", "EDM", "Rock"})
	assert.Equal(t, []string{"electronic", "rock"}, got)
}

func TestCanonicalizeDropsEmptyTags(t *testing.T) {
	c := NewCanonicalizer(nil)
	assert.Empty(t, c.Canonicalize([]string{"", "   ", "\t"}))
	assert.Empty(t, c.Canonicalize(nil))
}

func TestCanonicalizeOverrides(t *testing.T) {
	c := NewCanonicalizer(map[string]string{"Chiptune": "electronic"})
	assert.Equal(t, []string{"electronic"}, c.Canonicalize([]string{"chiptune"}))
	// Built-in table still applies
	assert.Equal(t, []string{"rock"}, c.Canonicalize([]string{"classic rock"}))
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 1.0, Jaccard([]string{"rock"}, []string{"rock"}))
	assert.Equal(t, 0.0, Jaccard([]string{"rock"}, []string{"jazz"}))
	assert.Equal(t, 0.0, Jaccard(nil, []string{"jazz"}))
	assert.InDelta(t, 1.0/3.0, Jaccard([]string{"rock", "pop"}, []string{"rock", "jazz"}), 1e-12)
}
