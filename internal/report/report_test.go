package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tidewatch/poseidon/internal/forecast"
)

func TestPresentFullSample(t *testing.T) {
	sample := forecast.ForecastSample{
		WaveHeightsM: []float64{1.2, 1.8, 1.5},
		WavePeriodsS: []float64{9.0, 9.5},
		WavePowersKJ: []float64{120, 140},
		WindSpeedsMS: []float64{3.2, 4.0},
		Tides: []forecast.TideExtreme{
			{Time: "04:12", HeightM: 0.4, Kind: forecast.TideLow},
			{Time: "10:33", HeightM: 1.9, Kind: forecast.TideHigh},
		},
		Provenance: forecast.ProvenanceMerged,
	}

	out := NewTextRenderer().Present(sample, "pipeline", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))

	assert.Contains(t, out, "Surf report for pipeline, Mon 1 Sep 2025")
	assert.Contains(t, out, "Waves: 1.2-1.8 m")
	assert.Contains(t, out, "Period: 9.0-9.5 s")
	assert.Contains(t, out, "Power: 120.0-140.0 kJ")
	assert.Contains(t, out, "Wind: 3.2-4.0 m/s")
	assert.Contains(t, out, "04:12  0.4m low")
	assert.Contains(t, out, "10:33  1.9m high")
}

func TestPresentOmitsAbsentFields(t *testing.T) {
	sample := forecast.ForecastSample{
		WaveHeightsM: []float64{1.2},
		Provenance:   forecast.ProvenanceDirectAPI,
	}

	out := NewTextRenderer().Present(sample, "mundaka", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))

	assert.Contains(t, out, "Waves:")
	assert.NotContains(t, out, "Period:")
	assert.NotContains(t, out, "Power:")
	assert.NotContains(t, out, "Wind:")
	assert.NotContains(t, out, "Tides:")
}

func TestPresentHandlesShortSequences(t *testing.T) {
	sample := forecast.ForecastSample{WaveHeightsM: []float64{2.0}}

	out := NewTextRenderer().Present(sample, "nazare", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))

	// A singleton renders as a degenerate band.
	assert.True(t, strings.Contains(out, "Waves: 2.0-2.0 m"))
}
