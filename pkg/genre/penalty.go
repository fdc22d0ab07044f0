package genre

import "fmt"

// PenaltyConfig holds the tunable penalty constants. These are empirical
// knobs, not a contract; operators adjust them through configuration.
type PenaltyConfig struct {
	BothUnknown   float64 `mapstructure:"both_unknown" yaml:"both_unknown"`
	OneUnknown    float64 `mapstructure:"one_unknown" yaml:"one_unknown"`
	HardMismatch  float64 `mapstructure:"hard_mismatch" yaml:"hard_mismatch"`
	OverlapWeight float64 `mapstructure:"overlap_weight" yaml:"overlap_weight"`
	MaxStrictness int     `mapstructure:"max_strictness" yaml:"max_strictness"`
}

// DefaultPenaltyConfig returns the default penalty constants
func DefaultPenaltyConfig() *PenaltyConfig {
	return &PenaltyConfig{
		BothUnknown:   0.02,
		OneUnknown:    0.05,
		HardMismatch:  0.15,
		OverlapWeight: 0.10,
		MaxStrictness: 3,
	}
}

// Penalty computes the genre-compatibility penalty between two canonical
// tag sets at the given strictness level (0 = off, MaxStrictness =
// disqualifying on hard mismatch). Returns the penalty total and
// human-readable reasons for observability.
//
// Rules:
//   - both unknown: small symmetric penalty (two unknowns are not proof of
//     similarity)
//   - one side unknown: a penalty smaller than a true mismatch
//   - both known, disjoint: hard mismatch, effectively disqualifying at the
//     strictest level
//   - both known, overlapping: proportional to 1 - Jaccard, zero when the
//     sets are identical
func Penalty(query, candidate []string, config *PenaltyConfig, strictness int) (float64, []string) {
	if config == nil {
		config = DefaultPenaltyConfig()
	}
	if strictness <= 0 {
		return 0, []string{"strictness 0: genre penalty disabled"}
	}
	if strictness > config.MaxStrictness {
		strictness = config.MaxStrictness
	}
	scale := float64(strictness)

	switch {
	case len(query) == 0 && len(candidate) == 0:
		p := config.BothUnknown * scale
		return p, []string{fmt.Sprintf("both genres unknown: penalty %.3f", p)}

	case len(query) == 0 || len(candidate) == 0:
		p := config.OneUnknown * scale
		return p, []string{fmt.Sprintf("one genre unknown: penalty %.3f", p)}
	}

	overlap := Jaccard(query, candidate)
	if overlap == 0 {
		p := config.HardMismatch * scale
		reason := fmt.Sprintf("genre mismatch %v vs %v: penalty %.3f", query, candidate, p)
		if strictness >= config.MaxStrictness {
			// Disqualifying: large enough that the score floor clamps to 0
			p = 1.0
			reason = fmt.Sprintf("genre mismatch %v vs %v at max strictness: disqualified", query, candidate)
		}
		return p, []string{reason}
	}

	if overlap == 1 {
		return 0, []string{"genres identical: no penalty"}
	}

	p := config.OverlapWeight * scale * (1 - overlap)
	return p, []string{fmt.Sprintf("partial genre overlap (jaccard %.2f): penalty %.3f", overlap, p)}
}
