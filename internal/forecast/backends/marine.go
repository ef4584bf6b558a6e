// marine.go - Direct numeric forecast backend over the Open-Meteo marine API

package backends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/tidewatch/poseidon/internal/forecast"
	"github.com/tidewatch/poseidon/internal/storage"
)

// slotCount is the canonical number of hourly slots in a report.
const slotCount = 10

// MarineBackend queries the marine and wind forecast APIs by spot
// coordinates and date, bypassing the image entirely. The API exposes no
// wave power, so that field always stays empty here.
type MarineBackend struct {
	marineURL string
	windURL   string
	timeout   time.Duration
	httpCfg   HTTPClientConfig
	circuit   *gobreaker.CircuitBreaker
	cache     *storage.MarineCache
}

// NewMarineBackend creates the direct API backend. The cache is optional
// and shared with the warm-up scheduler.
func NewMarineBackend(client *http.Client, timeout time.Duration, cache *storage.MarineCache) *MarineBackend {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "open-meteo-marine",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &MarineBackend{
		marineURL: "https://marine-api.open-meteo.com/v1/marine",
		windURL:   "https://api.open-meteo.com/v1/forecast",
		timeout:   timeout,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
		cache:   cache,
	}
}

func (b *MarineBackend) Name() string { return "marine" }

func (b *MarineBackend) Source() forecast.Provenance { return forecast.ProvenanceDirectAPI }

// SetBaseURLs overrides the API endpoints, for tests.
func (b *MarineBackend) SetBaseURLs(marineURL, windURL string) {
	b.marineURL = marineURL
	b.windURL = windURL
}

func (b *MarineBackend) Extract(ctx context.Context, in forecast.ExtractionInput) forecast.Candidate {
	if in.Coords == nil {
		return forecast.FailureOf(b.Source(), forecast.FailureUnavailable, errors.New("no coordinates for spot"))
	}

	date := in.Date.Format("2006-01-02")
	cacheKey := fmt.Sprintf("%.4f:%.4f:%s", in.Coords.Lat, in.Coords.Lon, date)

	if b.cache != nil {
		if sample, ok := b.cache.Get(cacheKey); ok {
			copied := *sample
			return forecast.Candidate{Source: b.Source(), Sample: &copied}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	sample, err := b.fetch(ctx, *in.Coords, date)
	if err != nil {
		return forecast.FailureOf(b.Source(), marineFailureKind(err), err)
	}

	if b.cache != nil {
		b.cache.Put(cacheKey, sample)
	}

	copied := *sample
	return forecast.Candidate{Source: b.Source(), Sample: &copied}
}

func (b *MarineBackend) fetch(ctx context.Context, coords forecast.Coordinates, date string) (*forecast.ForecastSample, error) {
	marine, err := b.fetchMarine(ctx, coords, date)
	if err != nil {
		return nil, err
	}

	sample := &forecast.ForecastSample{
		WaveHeightsM: clip(marine.Hourly.WaveHeight, slotCount),
		WavePeriodsS: clip(marine.Hourly.WavePeriod, slotCount),
		Tides:        tideExtremes(marine.Hourly.Time, marine.Hourly.SeaLevel),
		Provenance:   b.Source(),
	}

	// Wind comes from the separate forecast endpoint; its failure only
	// costs the wind field, not the whole candidate.
	if winds, windErr := b.fetchWind(ctx, coords, date); windErr == nil {
		sample.WindSpeedsMS = clip(winds, slotCount)
	}

	return sample, nil
}

type marinePayload struct {
	Hourly struct {
		Time       []string  `json:"time"`
		WaveHeight []float64 `json:"wave_height"`
		WavePeriod []float64 `json:"wave_period"`
		SeaLevel   []float64 `json:"sea_level_height_msl"`
	} `json:"hourly"`
}

func (b *MarineBackend) fetchMarine(ctx context.Context, coords forecast.Coordinates, date string) (*marinePayload, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", coords.Lat))
		values.Set("longitude", fmt.Sprintf("%f", coords.Lon))
		values.Set("hourly", "wave_height,wave_period,sea_level_height_msl")
		values.Set("start_date", date)
		values.Set("end_date", date)
		values.Set("timezone", "UTC")
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", b.marineURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, b.httpCfg, b.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload marinePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode marine response: %w", err)
	}
	return &payload, nil
}

func (b *MarineBackend) fetchWind(ctx context.Context, coords forecast.Coordinates, date string) ([]float64, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", coords.Lat))
		values.Set("longitude", fmt.Sprintf("%f", coords.Lon))
		values.Set("hourly", "wind_speed_10m")
		values.Set("wind_speed_unit", "ms")
		values.Set("start_date", date)
		values.Set("end_date", date)
		values.Set("timezone", "UTC")
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", b.windURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, b.httpCfg, b.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly struct {
			WindSpeed []float64 `json:"wind_speed_10m"`
		} `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode wind response: %w", err)
	}
	return payload.Hourly.WindSpeed, nil
}

// tideExtremes finds the high and low water marks as local extrema of
// the hourly sea level curve. The API reports levels relative to mean
// sea level, so heights are rebased to the day's minimum to keep them
// non-negative like a chart-datum tide table. Times keep only HH:MM.
func tideExtremes(times []string, levels []float64) []forecast.TideExtreme {
	n := len(levels)
	if len(times) < n {
		n = len(times)
	}
	if n == 0 {
		return nil
	}
	datum := levels[0]
	for _, v := range levels[:n] {
		if v < datum {
			datum = v
		}
	}
	var tides []forecast.TideExtreme
	for i := 1; i < n-1; i++ {
		var kind forecast.TideKind
		switch {
		case levels[i] > levels[i-1] && levels[i] >= levels[i+1]:
			kind = forecast.TideHigh
		case levels[i] < levels[i-1] && levels[i] <= levels[i+1]:
			kind = forecast.TideLow
		default:
			continue
		}
		tides = append(tides, forecast.TideExtreme{
			Time:    timeOfDay(times[i]),
			HeightM: levels[i] - datum,
			Kind:    kind,
		})
	}
	return tides
}

// timeOfDay extracts HH:MM from an ISO timestamp like 2025-03-01T14:00.
func timeOfDay(iso string) string {
	if idx := len("2006-01-02T"); len(iso) >= idx+5 {
		return iso[idx : idx+5]
	}
	return iso
}

func clip(values []float64, max int) []float64 {
	if len(values) > max {
		return values[:max]
	}
	return values
}

func marineFailureKind(err error) forecast.FailureKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return forecast.FailureTimeout
	case errors.Is(err, errCircuitOpen), errors.Is(err, errServerError), errors.Is(err, errRateLimited):
		return forecast.FailureUnavailable
	default:
		return forecast.FailureUnavailable
	}
}
