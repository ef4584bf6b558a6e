// score.go - Completeness/plausibility scoring for candidate samples

package forecast

// Scoring weights. Reference values; tunable without touching the
// merge algorithm.
var (
	ScorePerField     = 20 // per populated valid field of heights/periods/winds
	ScoreTidePair     = 20 // tide set with at least one high and one low
	ScoreTypicalBonus = 10 // per typical-range field maximum
	TypicalWaveMaxM   = 5.0
	TypicalPeriodMaxS = 20.0
)

// backendPriority breaks score ties: vision beats the direct API,
// which beats optical text.
var backendPriority = map[Provenance]int{
	ProvenanceVision:    3,
	ProvenanceDirectAPI: 2,
	ProvenanceOCR:       1,
}

// Score rates a sanitized candidate sample from 0 to 100. Fields are
// assumed already cleared when implausible, so populated means valid.
func Score(s *ForecastSample) int {
	score := 0
	if len(s.WaveHeightsM) > 0 {
		score += ScorePerField
		if maxOf(s.WaveHeightsM) <= TypicalWaveMaxM {
			score += ScoreTypicalBonus
		}
	}
	if len(s.WavePeriodsS) > 0 {
		score += ScorePerField
		if maxOf(s.WavePeriodsS) <= TypicalPeriodMaxS {
			score += ScoreTypicalBonus
		}
	}
	if len(s.WindSpeedsMS) > 0 {
		score += ScorePerField
	}
	if hasTidePair(s.Tides) {
		score += ScoreTidePair
	}
	return score
}

func hasTidePair(tides []TideExtreme) bool {
	var high, low bool
	for _, t := range tides {
		switch t.Kind {
		case TideHigh:
			high = true
		case TideLow:
			low = true
		}
	}
	return high && low
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
