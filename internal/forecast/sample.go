// sample.go - Core data model for reconciled surf forecasts

package forecast

import (
	"context"
	"time"
)

// Provenance records which backend (or combination) produced a sample.
type Provenance string

const (
	ProvenanceVision    Provenance = "vision_model"
	ProvenanceOCR       Provenance = "optical_text"
	ProvenanceDirectAPI Provenance = "direct_api"
	ProvenanceSynthetic Provenance = "synthetic"
	ProvenanceMerged    Provenance = "merged"
)

// TideKind marks a tide extreme as a high or low water mark.
type TideKind string

const (
	TideHigh TideKind = "high"
	TideLow  TideKind = "low"
)

// TideExtreme is one high or low water event during the forecast day.
type TideExtreme struct {
	Time    string   `json:"time" bson:"time"` // time of day, "15:04"
	HeightM float64  `json:"height_m" bson:"height_m"`
	Kind    TideKind `json:"kind" bson:"kind"`
}

// Coordinates locates a surf spot for the direct forecast API.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lon float64 `json:"lon" bson:"lon"`
}

// ForecastSample is one candidate or reconciled dataset for a spot and date.
// Sequence fields are hourly slots; backends may return fewer than the
// canonical ten slots and consumers must tolerate variable lengths.
type ForecastSample struct {
	WaveHeightsM []float64     `json:"wave_heights_m" bson:"wave_heights_m"`
	WavePeriodsS []float64     `json:"wave_periods_s" bson:"wave_periods_s"`
	WavePowersKJ []float64     `json:"wave_powers_kj" bson:"wave_powers_kj"`
	WindSpeedsMS []float64     `json:"wind_speeds_ms" bson:"wind_speeds_ms"`
	Tides        []TideExtreme `json:"tides" bson:"tides"`
	Provenance   Provenance    `json:"provenance" bson:"provenance"`
}

// ExtractionInput carries everything a backend may need. Image and
// coordinates are both optional; each backend uses what it can.
type ExtractionInput struct {
	Image    []byte
	MIMEType string
	Coords   *Coordinates
	Date     time.Time
}

// FailureKind classifies why a backend produced no candidate.
type FailureKind string

const (
	FailureTimeout     FailureKind = "timeout"
	FailureMalformed   FailureKind = "malformed_output"
	FailureUnavailable FailureKind = "backend_unavailable"
)

// Candidate is the outcome of one backend invocation: either a sample
// tagged with the backend's provenance, or a classified failure. Backends
// never return both and never panic past this boundary.
type Candidate struct {
	Source  Provenance
	Sample  *ForecastSample
	Failure FailureKind
	Err     error // underlying cause, for logging only
}

// Failed reports whether this candidate carries no usable sample.
func (c Candidate) Failed() bool {
	return c.Sample == nil
}

// FailureOf builds a failed candidate for a backend.
func FailureOf(source Provenance, kind FailureKind, err error) Candidate {
	return Candidate{Source: source, Failure: kind, Err: err}
}

// Extractor is the contract every extraction backend implements.
// Extract must complete or fail within the backend's own timeout and
// must express every failure as a Candidate, never as a panic.
type Extractor interface {
	Name() string
	Source() Provenance
	Extract(ctx context.Context, in ExtractionInput) Candidate
}
