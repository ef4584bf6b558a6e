// engine.go - Multi-source reconciliation: fan-out, scoring, merge, fallback

package forecast

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
)

// Engine fans a request out to every extraction backend, validates and
// scores the survivors, merges the best with gap-filling from the rest,
// and synthesizes a plausible sample when everything fails. Reconcile
// never returns an error.
type Engine struct {
	backends []Extractor
}

// NewEngine creates an Engine over the given backends. Order does not
// matter; ties are broken by provenance priority, not position.
func NewEngine(backends []Extractor) *Engine {
	return &Engine{backends: backends}
}

// Reconcile produces one complete, plausibility-checked sample. Every
// backend runs concurrently under its own timeout; a slow backend delays
// the result by at most its own deadline, never the sum of all of them.
// Scoring and merging start only after all backends have resolved.
func (e *Engine) Reconcile(ctx context.Context, in ExtractionInput) ForecastSample {
	results := e.fanOut(ctx, in)

	candidates := make([]Candidate, 0, len(results))
	for _, c := range results {
		if c.Failed() {
			log.Printf("reconcile: backend %s failed: %s (%v)", c.Source, c.Failure, c.Err)
			continue
		}
		sanitize(c.Sample)
		if !populated(c.Sample) {
			log.Printf("reconcile: backend %s produced no plausible fields", c.Source)
			continue
		}
		candidates = append(candidates, c)
	}

	if len(candidates) == 0 {
		log.Printf("reconcile: all sources exhausted, synthesizing")
		return Synthesize()
	}

	// Highest score first; provenance priority breaks ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := Score(candidates[i].Sample), Score(candidates[j].Sample)
		if si != sj {
			return si > sj
		}
		return backendPriority[candidates[i].Source] > backendPriority[candidates[j].Source]
	})

	return merge(candidates)
}

// fanOut launches every backend in parallel and joins once all have
// completed or individually timed out. A panic inside a backend is
// downgraded to a malformed-output failure so one bad adapter can never
// taint another's result.
func (e *Engine) fanOut(ctx context.Context, in ExtractionInput) []Candidate {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []Candidate
	)

	for _, b := range e.backends {
		b := b
		wg.Add(1)
		go func() {
			defer wg.Done()

			c := safeExtract(ctx, b, in)

			mu.Lock()
			results = append(results, c)
			mu.Unlock()
		}()
	}

	wg.Wait()
	return results
}

func safeExtract(ctx context.Context, b Extractor, in ExtractionInput) (c Candidate) {
	defer func() {
		if r := recover(); r != nil {
			c = FailureOf(b.Source(), FailureMalformed, fmt.Errorf("backend %s panicked: %v", b.Name(), r))
		}
	}()
	return b.Extract(ctx, in)
}

// merge takes candidates sorted best-first, uses the top as the base and
// copies each still-empty field from the next candidate that has it
// (first-fit by descending score). Provenance becomes merged only when a
// non-base candidate actually contributed.
func merge(candidates []Candidate) ForecastSample {
	base := *candidates[0].Sample
	base.Provenance = candidates[0].Source

	filled := false
	for _, c := range candidates[1:] {
		s := c.Sample
		if len(base.WaveHeightsM) == 0 && len(s.WaveHeightsM) > 0 {
			base.WaveHeightsM = s.WaveHeightsM
			filled = true
		}
		if len(base.WavePeriodsS) == 0 && len(s.WavePeriodsS) > 0 {
			base.WavePeriodsS = s.WavePeriodsS
			filled = true
		}
		if len(base.WavePowersKJ) == 0 && len(s.WavePowersKJ) > 0 {
			base.WavePowersKJ = s.WavePowersKJ
			filled = true
		}
		if len(base.WindSpeedsMS) == 0 && len(s.WindSpeedsMS) > 0 {
			base.WindSpeedsMS = s.WindSpeedsMS
			filled = true
		}
		if len(base.Tides) == 0 && len(s.Tides) > 0 {
			base.Tides = s.Tides
			filled = true
		}
	}

	if filled {
		base.Provenance = ProvenanceMerged
	}
	return base
}
