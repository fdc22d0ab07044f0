package genre

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPenaltyDisabledAtStrictnessZero(t *testing.T) {
	p, _ := Penalty([]string{"rock"}, []string{"jazz"}, DefaultPenaltyConfig(), 0)
	assert.Equal(t, 0.0, p)

	p, _ = Penalty(nil, nil, DefaultPenaltyConfig(), -1)
	assert.Equal(t, 0.0, p)
}

func TestPenaltyUnknownCases(t *testing.T) {
	config := DefaultPenaltyConfig()

	both, _ := Penalty(nil, nil, config, 1)
	one, _ := Penalty([]string{"rock"}, nil, config, 1)
	mismatch, _ := Penalty([]string{"rock"}, []string{"jazz"}, config, 1)

	// Unknown is cheaper than a confirmed mismatch, and two unknowns are
	// cheaper than one
	assert.Equal(t, config.BothUnknown, both)
	assert.Equal(t, config.OneUnknown, one)
	assert.Equal(t, config.HardMismatch, mismatch)
	assert.Less(t, both, one)
	assert.Less(t, one, mismatch)
}

func TestPenaltyIdenticalSetsFree(t *testing.T) {
	p, reasons := Penalty([]string{"pop", "rock"}, []string{"pop", "rock"}, DefaultPenaltyConfig(), 3)
	assert.Equal(t, 0.0, p)
	assert.NotEmpty(t, reasons)
}

func TestPenaltyDecreasesWithOverlap(t *testing.T) {
	config := DefaultPenaltyConfig()

	disjoint, _ := Penalty([]string{"rock"}, []string{"jazz"}, config, 2)
	partial, _ := Penalty([]string{"rock", "pop"}, []string{"rock", "jazz"}, config, 2)
	identical, _ := Penalty([]string{"rock"}, []string{"rock"}, config, 2)

	assert.Greater(t, disjoint, partial)
	assert.Greater(t, partial, identical)
	assert.InDelta(t, config.OverlapWeight*2*(1-1.0/3.0), partial, 1e-12)
}

func TestPenaltyScalesWithStrictness(t *testing.T) {
	config := DefaultPenaltyConfig()

	low, _ := Penalty([]string{"rock"}, []string{"jazz"}, config, 1)
	high, _ := Penalty([]string{"rock"}, []string{"jazz"}, config, 2)
	assert.InDelta(t, 2*low, high, 1e-12)
}

func TestPenaltyDisqualifiesAtMaxStrictness(t *testing.T) {
	p, reasons := Penalty([]string{"rock"}, []string{"jazz"}, DefaultPenaltyConfig(), 3)
	assert.Equal(t, 1.0, p)
	assert.Contains(t, reasons[0], "disqualified")
}

func TestPenaltyClampsStrictnessAboveMax(t *testing.T) {
	config := DefaultPenaltyConfig()

	atMax, _ := Penalty(nil, nil, config, config.MaxStrictness)
	beyond, _ := Penalty(nil, nil, config, config.MaxStrictness+5)
	assert.Equal(t, atMax, beyond)
}

func TestPenaltyNilConfigUsesDefaults(t *testing.T) {
	p, _ := Penalty(nil, []string{"rock"}, nil, 1)
	assert.Equal(t, DefaultPenaltyConfig().OneUnknown, p)
}
