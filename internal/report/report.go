// report.go - Presentation of reconciled forecasts

package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidewatch/poseidon/internal/forecast"
)

// Consumer turns a finished dataset into user-facing text. The engine
// calls nothing else on its presentation collaborator.
type Consumer interface {
	Present(sample forecast.ForecastSample, spotName string, date time.Time) string
}

// TextRenderer is the bundled plain-text Consumer.
type TextRenderer struct{}

func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

// Present renders one report. Sequence fields may be any length,
// including empty; absent fields are simply omitted.
func (r *TextRenderer) Present(sample forecast.ForecastSample, spotName string, date time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Surf report for %s, %s\n", spotName, date.Format("Mon 2 Jan 2006"))

	if line := seriesLine("Waves", sample.WaveHeightsM, "m"); line != "" {
		b.WriteString(line)
	}
	if line := seriesLine("Period", sample.WavePeriodsS, "s"); line != "" {
		b.WriteString(line)
	}
	if line := seriesLine("Power", sample.WavePowersKJ, "kJ"); line != "" {
		b.WriteString(line)
	}
	if line := seriesLine("Wind", sample.WindSpeedsMS, "m/s"); line != "" {
		b.WriteString(line)
	}

	if len(sample.Tides) > 0 {
		b.WriteString("Tides:\n")
		for _, t := range sample.Tides {
			fmt.Fprintf(&b, "  %s  %.1fm %s\n", t.Time, t.HeightM, t.Kind)
		}
	}

	return b.String()
}

// seriesLine summarizes one hourly sequence as a min-max band with the
// slot values inline.
func seriesLine(label string, values []float64, unit string) string {
	if len(values) == 0 {
		return ""
	}
	min, max := values[0], values[0]
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		parts = append(parts, fmt.Sprintf("%.1f", v))
	}
	return fmt.Sprintf("%s: %.1f-%.1f %s (%s)\n", label, min, max, unit, strings.Join(parts, " "))
}
