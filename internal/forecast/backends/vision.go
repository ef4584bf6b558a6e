// vision.go - Gemini vision backend: structured extraction from chart images

package backends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tidewatch/poseidon/internal/forecast"
	"github.com/tidewatch/poseidon/internal/ratelimit"
)

const visionPrompt = `You are reading a surf forecast chart image.
Extract the numeric values for today's hourly slots (up to 10 slots):
wave heights in meters, wave periods in seconds, wave power in kilojoules,
wind speeds in meters per second, and the tide table (time of day, height
in meters, high or low). Return ONLY the JSON object matching the schema.
If a column is missing from the chart, return an empty array for it.
Do not guess values you cannot read.`

// chartPayload is the fixed schema both Gemini backends produce.
type chartPayload struct {
	WaveHeightsM []float64     `json:"wave_heights_m"`
	WavePeriodsS []float64     `json:"wave_periods_s"`
	WavePowersKJ []float64     `json:"wave_powers_kj"`
	WindSpeedsMS []float64     `json:"wind_speeds_ms"`
	Tides        []tidePayload `json:"tides"`
}

type tidePayload struct {
	Time    string  `json:"time"`
	HeightM float64 `json:"height_m"`
	Kind    string  `json:"kind"`
}

func (p *chartPayload) toSample(source forecast.Provenance) *forecast.ForecastSample {
	s := &forecast.ForecastSample{
		WaveHeightsM: p.WaveHeightsM,
		WavePeriodsS: p.WavePeriodsS,
		WavePowersKJ: p.WavePowersKJ,
		WindSpeedsMS: p.WindSpeedsMS,
		Provenance:   source,
	}
	for _, t := range p.Tides {
		kind := forecast.TideLow
		if strings.EqualFold(t.Kind, "high") {
			kind = forecast.TideHigh
		}
		s.Tides = append(s.Tides, forecast.TideExtreme{Time: t.Time, HeightM: t.HeightM, Kind: kind})
	}
	return s
}

// VisionBackend sends the chart image to a vision-capable Gemini model
// with a fixed JSON response schema.
type VisionBackend struct {
	apiKey  string
	model   string
	timeout time.Duration
	limiter *ratelimit.Limiter
}

// NewVisionBackend creates the vision backend. An empty API key makes
// the backend permanently unavailable rather than a construction error.
func NewVisionBackend(apiKey, model string, timeout time.Duration, limiter *ratelimit.Limiter) *VisionBackend {
	return &VisionBackend{apiKey: apiKey, model: model, timeout: timeout, limiter: limiter}
}

func (b *VisionBackend) Name() string { return "vision" }

func (b *VisionBackend) Source() forecast.Provenance { return forecast.ProvenanceVision }

func (b *VisionBackend) Extract(ctx context.Context, in forecast.ExtractionInput) forecast.Candidate {
	if b.apiKey == "" {
		return forecast.FailureOf(b.Source(), forecast.FailureUnavailable, errors.New("no API key configured"))
	}
	if len(in.Image) == 0 {
		return forecast.FailureOf(b.Source(), forecast.FailureUnavailable, errors.New("no image provided"))
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

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

	model := client.GenerativeModel(b.model)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = chartSchema()

	resp, err := callGeminiWithRetry(ctx, model, DefaultRetryConfig,
		genai.Text(visionPrompt),
		genai.Blob{MIMEType: in.MIMEType, Data: in.Image},
	)
	if err != nil {
		return forecast.FailureOf(b.Source(), classifyFailure(err), err)
	}

	raw := responseText(resp)
	if raw == "" {
		return forecast.FailureOf(b.Source(), forecast.FailureMalformed, errors.New("empty response from Gemini"))
	}

	payload, err := parseChartPayload(raw)
	if err != nil {
		return forecast.FailureOf(b.Source(), forecast.FailureMalformed, err)
	}

	return forecast.Candidate{Source: b.Source(), Sample: payload.toSample(b.Source())}
}

// chartSchema is the fixed response schema sent with every vision call.
func chartSchema() *genai.Schema {
	numberArray := &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeNumber},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"wave_heights_m": numberArray,
			"wave_periods_s": numberArray,
			"wave_powers_kj": numberArray,
			"wind_speeds_ms": numberArray,
			"tides": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"time":     {Type: genai.TypeString, Description: "Time of day, HH:MM"},
						"height_m": {Type: genai.TypeNumber},
						"kind":     {Type: genai.TypeString, Enum: []string{"high", "low"}},
					},
					Required: []string{"time", "height_m", "kind"},
				},
			},
		},
		Required: []string{"wave_heights_m", "wave_periods_s", "wave_powers_kj", "wind_speeds_ms", "tides"},
	}
}

// responseText pulls the first text part out of a Gemini response.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			return string(text)
		}
	}
	return ""
}

// parseChartPayload finds the first well-formed JSON object in a model
// reply and decodes it. Models occasionally wrap JSON in fences or prose.
func parseChartPayload(raw string) (*chartPayload, error) {
	obj := firstJSONObject(raw)
	if obj == "" {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	var payload chartPayload
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse chart payload: %w", err)
	}
	return &payload, nil
}

// firstJSONObject returns the first balanced {...} span in s, tracking
// string literals so braces inside values don't confuse the depth count.
func firstJSONObject(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i, ch := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

// classifyFailure maps a categorized Gemini error onto a candidate
// failure kind.
func classifyFailure(err error) forecast.FailureKind {
	var ge *GeminiError
	if errors.As(err, &ge) {
		switch ge.Category {
		case "timeout", "canceled":
			return forecast.FailureTimeout
		}
		return forecast.FailureUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return forecast.FailureTimeout
	}
	return forecast.FailureUnavailable
}
