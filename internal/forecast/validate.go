// validate.go - Plausibility ranges for rejecting garbled extraction

package forecast

// FieldKind identifies one of the validated sequence fields.
type FieldKind int

const (
	FieldWaveHeight FieldKind = iota
	FieldWavePeriod
	FieldWavePower
	FieldWindSpeed
)

// Range is an inclusive plausibility bound for one field kind.
// These reject obviously corrupted reads; they are not physics.
type Range struct {
	Min float64
	Max float64
}

// PlausibleRanges holds the reference bounds per field kind. Treated as
// configuration rather than constants so deployments can tighten them.
var PlausibleRanges = map[FieldKind]Range{
	FieldWaveHeight: {Min: 0.1, Max: 6.0},
	FieldWavePeriod: {Min: 3.0, Max: 22.0},
	FieldWavePower:  {Min: 30.0, Max: 1600.0},
	FieldWindSpeed:  {Min: 0.0, Max: 15.0},
}

// Validate reports whether a sequence field is populated and every
// element lies within the field's plausibility range. An empty sequence
// is absent rather than invalid and returns false here; callers decide
// whether absence is acceptable.
func Validate(field FieldKind, values []float64) bool {
	if len(values) == 0 {
		return false
	}
	r, ok := PlausibleRanges[field]
	if !ok {
		return false
	}
	for _, v := range values {
		if v < r.Min || v > r.Max {
			return false
		}
	}
	return true
}

// ValidateTides checks tide extremes for internal consistency only:
// non-negative heights and distinct times of day. No cross-field
// plausibility is imposed.
func ValidateTides(tides []TideExtreme) bool {
	if len(tides) == 0 {
		return false
	}
	seen := make(map[string]bool, len(tides))
	for _, t := range tides {
		if t.HeightM < 0 {
			return false
		}
		if seen[t.Time] {
			return false
		}
		seen[t.Time] = true
	}
	return true
}

// sanitize clears every field of a candidate sample that fails its
// plausibility check. An out-of-range element disqualifies the whole
// field, never the whole candidate.
func sanitize(s *ForecastSample) {
	if len(s.WaveHeightsM) > 0 && !Validate(FieldWaveHeight, s.WaveHeightsM) {
		s.WaveHeightsM = nil
	}
	if len(s.WavePeriodsS) > 0 && !Validate(FieldWavePeriod, s.WavePeriodsS) {
		s.WavePeriodsS = nil
	}
	if len(s.WavePowersKJ) > 0 && !Validate(FieldWavePower, s.WavePowersKJ) {
		s.WavePowersKJ = nil
	}
	if len(s.WindSpeedsMS) > 0 && !Validate(FieldWindSpeed, s.WindSpeedsMS) {
		s.WindSpeedsMS = nil
	}
	if len(s.Tides) > 0 && !ValidateTides(s.Tides) {
		s.Tides = nil
	}
}

// populated reports whether the sample still carries at least one field
// after sanitization.
func populated(s *ForecastSample) bool {
	return len(s.WaveHeightsM) > 0 ||
		len(s.WavePeriodsS) > 0 ||
		len(s.WavePowersKJ) > 0 ||
		len(s.WindSpeedsMS) > 0 ||
		len(s.Tides) > 0
}
