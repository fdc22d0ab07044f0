// Package genre canonicalizes catalog genre tags and scores the
// compatibility between a query's and a candidate's tag sets. Genre is
// consumed as external metadata, never inferred from the signal.
package genre

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// defaultSynonyms maps common sub-genre spellings onto a canonical tag.
// The table is tuned, not derived from a taxonomy; operators can extend it
// through configuration.
var defaultSynonyms = map[string]string{
	"hard rock":         "rock",
	"classic rock":      "rock",
	"soft rock":         "rock",
	"rock and roll":     "rock",
	"rock n roll":       "rock",
	"alternative rock":  "alternative",
	"indie rock":        "indie",
	"hip hop":           "hip-hop",
	"hiphop":            "hip-hop",
	"rap":               "hip-hop",
	"trap":              "hip-hop",
	"r and b":           "rnb",
	"r&b":               "rnb",
	"rhythm and blues":  "rnb",
	"electronica":       "electronic",
	"edm":               "electronic",
	"house":             "electronic",
	"techno":            "electronic",
	"drum and bass":     "electronic",
	"synth pop":         "pop",
	"synthpop":          "pop",
	"dance pop":         "pop",
	"heavy metal":       "metal",
	"death metal":       "metal",
	"black metal":       "metal",
	"folk rock":         "folk",
	"singer-songwriter": "folk",
	"classical music":   "classical",
	"orchestral":        "classical",
	"lo-fi":             "lofi",
	"lo fi":             "lofi",
}

// Canonicalizer normalizes raw genre tags: lower-case, accent-stripped,
// synonym-mapped, deduplicated
type Canonicalizer struct {
	synonyms map[string]string
	strip    transform.Transformer
}

// NewCanonicalizer builds a canonicalizer with the built-in synonym table
// merged with any overrides
func NewCanonicalizer(overrides map[string]string) *Canonicalizer {
	synonyms := make(map[string]string, len(defaultSynonyms)+len(overrides))
	for k, v := range defaultSynonyms {
		synonyms[k] = v
	}
	for k, v := range overrides {
		synonyms[strings.ToLower(k)] = strings.ToLower(v)
	}
	return &Canonicalizer{
		synonyms: synonyms,
		strip:    transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
	}
}

// Canonicalize normalizes a raw tag set into a sorted, deduplicated set of
// canonical tags. Empty and whitespace-only tags are dropped; an empty
// result means genre is unknown.
func (c *Canonicalizer) Canonicalize(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string

	for _, tag := range tags {
		canon := c.canonicalizeOne(tag)
		if canon == "" || seen[canon] {
			continue
		}
		seen[canon] = true
		out = append(out, canon)
	}

	sort.Strings(out)
	return out
}

func (c *Canonicalizer) canonicalizeOne(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return ""
	}

	if stripped, _, err := transform.String(c.strip, tag); err == nil {
		tag = stripped
	}

	// Collapse separators so "hip_hop" and "hip  hop" hit the same entry
	tag = strings.NewReplacer("_", " ", "/", " ").Replace(tag)
	tag = strings.Join(strings.Fields(tag), " ")

	if canon, ok := c.synonyms[tag]; ok {
		return canon
	}
	return tag
}

// Jaccard computes set overlap between two canonical tag sets, in [0, 1]
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	intersection := 0
	union := len(a)
	for _, t := range b {
		if set[t] {
			intersection++
		} else {
			union++
		}
	}
	return float64(intersection) / float64(union)
}
