// ocr.go - Optical text backend: enhanced image, plain-text OCR, regex recovery

package backends

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tidewatch/poseidon/internal/forecast"
	"github.com/tidewatch/poseidon/internal/processor"
	"github.com/tidewatch/poseidon/internal/ratelimit"
)

const ocrPrompt = `Extract ALL visible text from this forecast chart.
Read everything from top to bottom, left to right, keeping each chart
row on its own line. Return ONLY the extracted text, nothing else.`

// Row label patterns. Charts vary in wording, so each field accepts a
// couple of synonyms; the first matching line wins.
var (
	heightLineRe = regexp.MustCompile(`(?im)^.*(?:wave\s*height|swell|waves?)\b(.*)$`)
	periodLineRe = regexp.MustCompile(`(?im)^.*(?:period)\b(.*)$`)
	powerLineRe  = regexp.MustCompile(`(?im)^.*(?:power|energy)\b(.*)$`)
	windLineRe   = regexp.MustCompile(`(?im)^.*(?:wind)\b(.*)$`)
	numberRe     = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)
	tideRe       = regexp.MustCompile(`(?i)(\d{1,2}:\d{2})\s*[-–]?\s*(\d+(?:[.,]\d+)?)\s*m?\s*(high|low)`)
)

// OCRBackend enhances the image for legibility and runs Gemini in plain
// text mode, recovering the numeric rows with positional patterns. It is
// the fallback for when the vision backend cannot run.
type OCRBackend struct {
	apiKey       string
	model        string
	timeout      time.Duration
	preprocess   bool
	maxDimension int
	limiter      *ratelimit.Limiter
}

// NewOCRBackend creates the optical text backend. With preprocess off
// the original image bytes go to the model untouched.
func NewOCRBackend(apiKey, model string, timeout time.Duration, preprocess bool, maxDimension int, limiter *ratelimit.Limiter) *OCRBackend {
	return &OCRBackend{apiKey: apiKey, model: model, timeout: timeout, preprocess: preprocess, maxDimension: maxDimension, limiter: limiter}
}

func (b *OCRBackend) Name() string { return "ocr" }

func (b *OCRBackend) Source() forecast.Provenance { return forecast.ProvenanceOCR }

func (b *OCRBackend) Extract(ctx context.Context, in forecast.ExtractionInput) forecast.Candidate {
	if b.apiKey == "" {
		return forecast.FailureOf(b.Source(), forecast.FailureUnavailable, errors.New("no API key configured"))
	}
	if len(in.Image) == 0 {
		return forecast.FailureOf(b.Source(), forecast.FailureUnavailable, errors.New("no image provided"))
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	imageData, mimeType := in.Image, in.MIMEType
	if b.preprocess {
		if enhanced, enhancedMime, err := processor.EnhanceForOCR(in.Image, in.MIMEType, b.maxDimension); err == nil {
			imageData, mimeType = enhanced, enhancedMime
		} else {
			// Fall back to the original bytes; a readable chart usually
			// survives without enhancement.
			log.Printf("ocr: image enhancement failed, using original: %v", err)
		}
	}

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return forecast.FailureOf(b.Source(), forecast.FailureTimeout, fmt.Errorf("rate limit wait: %w", err))
		}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(b.apiKey))
	if err != nil {
		return forecast.FailureOf(b.Source(), forecast.FailureUnavailable, fmt.Errorf("failed to create Gemini client: %w", err))
	}
	defer client.Close()

	// Plain text mode, no response schema: raw OCR only.
	model := client.GenerativeModel(b.model)

	resp, err := callGeminiWithRetry(ctx, model, DefaultRetryConfig,
		genai.Text(ocrPrompt),
		genai.Blob{MIMEType: mimeType, Data: imageData},
	)
	if err != nil {
		return forecast.FailureOf(b.Source(), classifyFailure(err), err)
	}

	text := responseText(resp)
	if text == "" {
		return forecast.FailureOf(b.Source(), forecast.FailureMalformed, errors.New("empty OCR text"))
	}

	sample := parseChartText(text, b.Source())
	return forecast.Candidate{Source: b.Source(), Sample: sample}
}

// parseChartText recovers the fixed chart rows from OCR output. Rows the
// text does not contain stay empty; the engine treats absence as a gap,
// not an error.
func parseChartText(text string, source forecast.Provenance) *forecast.ForecastSample {
	s := &forecast.ForecastSample{Provenance: source}

	if m := heightLineRe.FindStringSubmatch(text); m != nil {
		s.WaveHeightsM = parseNumbers(m[1])
	}
	if m := periodLineRe.FindStringSubmatch(text); m != nil {
		s.WavePeriodsS = parseNumbers(m[1])
	}
	if m := powerLineRe.FindStringSubmatch(text); m != nil {
		s.WavePowersKJ = parseNumbers(m[1])
	}
	if m := windLineRe.FindStringSubmatch(text); m != nil {
		s.WindSpeedsMS = parseNumbers(m[1])
	}

	for _, m := range tideRe.FindAllStringSubmatch(text, -1) {
		height, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", "."), 64)
		if err != nil {
			continue
		}
		kind := forecast.TideLow
		if strings.EqualFold(m[3], "high") {
			kind = forecast.TideHigh
		}
		s.Tides = append(s.Tides, forecast.TideExtreme{Time: m[1], HeightM: height, Kind: kind})
	}

	return s
}

// parseNumbers extracts every decimal number from a chart row remainder.
func parseNumbers(row string) []float64 {
	matches := numberRe.FindAllString(row, -1)
	if len(matches) == 0 {
		return nil
	}
	values := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	return values
}
