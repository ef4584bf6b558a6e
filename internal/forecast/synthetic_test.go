package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyntheticProfilesAreInternallyConsistent(t *testing.T) {
	for i, profile := range syntheticProfiles {
		p := profile
		assert.True(t, Validate(FieldWaveHeight, p.WaveHeightsM), "profile %d wave heights", i)
		assert.True(t, Validate(FieldWavePeriod, p.WavePeriodsS), "profile %d wave periods", i)
		assert.True(t, Validate(FieldWavePower, p.WavePowersKJ), "profile %d wave powers", i)
		assert.True(t, Validate(FieldWindSpeed, p.WindSpeedsMS), "profile %d wind speeds", i)
		assert.True(t, ValidateTides(p.Tides), "profile %d tides", i)
		assert.True(t, hasTidePair(p.Tides), "profile %d needs a high and a low", i)
	}
}

func TestSynthesizeTagsProvenanceAndCopies(t *testing.T) {
	s := Synthesize()
	assert.Equal(t, ProvenanceSynthetic, s.Provenance)
	assert.NotEmpty(t, s.WaveHeightsM)

	// Mutating the returned sample must not corrupt the profile table.
	s.WaveHeightsM[0] = 999
	for _, profile := range syntheticProfiles {
		assert.True(t, Validate(FieldWaveHeight, profile.WaveHeightsM))
	}
}
