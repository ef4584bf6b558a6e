package backends

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewatch/poseidon/internal/forecast"
	"github.com/tidewatch/poseidon/internal/storage"
)

const marineBody = `{
	"hourly": {
		"time": ["2025-09-01T00:00","2025-09-01T01:00","2025-09-01T02:00","2025-09-01T03:00","2025-09-01T04:00","2025-09-01T05:00"],
		"wave_height": [1.2, 1.3, 1.4, 1.4, 1.3, 1.2],
		"wave_period": [9.0, 9.5, 10.0, 10.0, 9.5, 9.0],
		"sea_level_height_msl": [-0.8, 0.2, 0.9, 0.3, -0.6, 0.1]
	}
}`

const windBody = `{
	"hourly": {
		"wind_speed_10m": [3.2, 3.5, 4.0, 4.1, 3.8, 3.6]
	}
}`

func newTestMarineBackend(t *testing.T, cache *storage.MarineCache, marine, wind http.HandlerFunc) *MarineBackend {
	t.Helper()
	marineSrv := httptest.NewServer(marine)
	windSrv := httptest.NewServer(wind)
	t.Cleanup(marineSrv.Close)
	t.Cleanup(windSrv.Close)

	b := NewMarineBackend(marineSrv.Client(), 5*time.Second, cache)
	b.SetBaseURLs(marineSrv.URL, windSrv.URL)
	return b
}

func serveJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

func TestMarineExtract(t *testing.T) {
	var marineQuery atomic.Value
	marine := func(w http.ResponseWriter, r *http.Request) {
		marineQuery.Store(r.URL.Query())
		serveJSON(marineBody)(w, r)
	}
	b := newTestMarineBackend(t, nil, marine, serveJSON(windBody))

	in := forecast.ExtractionInput{
		Coords: &forecast.Coordinates{Lat: 21.6644, Lon: -158.0522},
		Date:   time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	c := b.Extract(context.Background(), in)
	require.False(t, c.Failed(), "extract failed: %v", c.Err)

	s := c.Sample
	assert.Equal(t, []float64{1.2, 1.3, 1.4, 1.4, 1.3, 1.2}, s.WaveHeightsM)
	assert.Equal(t, []float64{9.0, 9.5, 10.0, 10.0, 9.5, 9.0}, s.WavePeriodsS)
	assert.Equal(t, []float64{3.2, 3.5, 4.0, 4.1, 3.8, 3.6}, s.WindSpeedsMS)
	assert.Empty(t, s.WavePowersKJ, "the API exposes no wave power")
	assert.Equal(t, forecast.ProvenanceDirectAPI, s.Provenance)

	q, _ := marineQuery.Load().(url.Values)
	require.NotNil(t, q)
	assert.Equal(t, "2025-09-01", q.Get("start_date"))
	assert.Equal(t, "wave_height,wave_period,sea_level_height_msl", q.Get("hourly"))
}

func TestMarineTidesAreExtremaRebasedToDatum(t *testing.T) {
	b := newTestMarineBackend(t, nil, serveJSON(marineBody), serveJSON(windBody))

	in := forecast.ExtractionInput{
		Coords: &forecast.Coordinates{Lat: 21.6644, Lon: -158.0522},
		Date:   time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	c := b.Extract(context.Background(), in)
	require.False(t, c.Failed())

	// Levels peak at 02:00 (0.9) and trough at 04:00 (-0.6); heights are
	// offsets from the day minimum of -0.8 so they stay non-negative.
	require.Len(t, c.Sample.Tides, 2)
	assert.Equal(t, "02:00", c.Sample.Tides[0].Time)
	assert.Equal(t, forecast.TideHigh, c.Sample.Tides[0].Kind)
	assert.InDelta(t, 1.7, c.Sample.Tides[0].HeightM, 1e-9)
	assert.Equal(t, "04:00", c.Sample.Tides[1].Time)
	assert.Equal(t, forecast.TideLow, c.Sample.Tides[1].Kind)
	assert.InDelta(t, 0.2, c.Sample.Tides[1].HeightM, 1e-9)
	assert.True(t, forecast.ValidateTides(c.Sample.Tides))
}

func TestMarineWindFailureOnlyCostsWindField(t *testing.T) {
	wind := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}
	b := newTestMarineBackend(t, nil, serveJSON(marineBody), wind)

	in := forecast.ExtractionInput{
		Coords: &forecast.Coordinates{Lat: 21.6644, Lon: -158.0522},
		Date:   time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	c := b.Extract(context.Background(), in)

	require.False(t, c.Failed())
	assert.NotEmpty(t, c.Sample.WaveHeightsM)
	assert.Empty(t, c.Sample.WindSpeedsMS)
}

func TestMarineExtractUsesCache(t *testing.T) {
	var marineCalls atomic.Int64
	marine := func(w http.ResponseWriter, r *http.Request) {
		marineCalls.Add(1)
		serveJSON(marineBody)(w, r)
	}
	cache := storage.NewMarineCache(time.Minute)
	b := newTestMarineBackend(t, cache, marine, serveJSON(windBody))

	in := forecast.ExtractionInput{
		Coords: &forecast.Coordinates{Lat: 21.6644, Lon: -158.0522},
		Date:   time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	}

	first := b.Extract(context.Background(), in)
	require.False(t, first.Failed())
	second := b.Extract(context.Background(), in)
	require.False(t, second.Failed())

	assert.Equal(t, int64(1), marineCalls.Load(), "second extract served from cache")
	assert.Equal(t, first.Sample.WaveHeightsM, second.Sample.WaveHeightsM)

	// Cached hits hand out copies; mutating one reply must not leak into
	// the next.
	second.Sample.Provenance = forecast.ProvenanceMerged
	third := b.Extract(context.Background(), in)
	assert.Equal(t, forecast.ProvenanceDirectAPI, third.Sample.Provenance)
}

func TestMarineExtractWithoutCoordinatesIsUnavailable(t *testing.T) {
	b := NewMarineBackend(http.DefaultClient, time.Second, nil)

	c := b.Extract(context.Background(), forecast.ExtractionInput{})
	assert.True(t, c.Failed())
	assert.Equal(t, forecast.FailureUnavailable, c.Failure)
}

func TestTideExtremesEdgeCases(t *testing.T) {
	assert.Nil(t, tideExtremes(nil, nil))
	assert.Nil(t, tideExtremes([]string{"2025-09-01T00:00"}, []float64{0.5}), "a flat singleton has no extrema")

	// Monotonic curves have no interior extrema.
	times := []string{"2025-09-01T00:00", "2025-09-01T01:00", "2025-09-01T02:00"}
	assert.Nil(t, tideExtremes(times, []float64{0.1, 0.2, 0.3}))
}

func TestTimeOfDay(t *testing.T) {
	assert.Equal(t, "14:00", timeOfDay("2025-03-01T14:00"))
	assert.Equal(t, "04:30", timeOfDay("2025-03-01T04:30:00Z"))
	assert.Equal(t, "bogus", timeOfDay("bogus"))
}
