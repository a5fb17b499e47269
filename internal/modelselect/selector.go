package modelselect

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/genie-weather/internal/store"
)

// Selector returns the cached best model, probing all candidates the first time.
type Selector struct {
	apiKey     string
	prober     Prober
	kv         store.KV
	candidates []Candidate
	log        zerolog.Logger

	mu          sync.Mutex
	lastResults []HealthResult
}

// NewSelector builds a Selector over the static candidate list.
func NewSelector(apiKey string, prober Prober, kv store.KV, log zerolog.Logger) *Selector {
	return &Selector{
		apiKey:     apiKey,
		prober:     prober,
		kv:         kv,
		candidates: Candidates,
		log:        log,
	}
}

// SelectBest returns the cached model when present. Otherwise it probes every candidate
// concurrently, waits for all of them, picks the lowest latency among healthy ones
// (ties go to the earlier candidate) and persists the choice. It never fails: when every
// probe fails FallbackModel is returned. Without an API key it returns "" and leaves
// the choice to the proxy.
func (s *Selector) SelectBest(ctx context.Context) string {
	cached, ok, err := store.Lookup(ctx, s.kv, store.KeyBestModel)
	if err != nil {
		s.log.Warn().Err(err).Msg("read cached model")
	}
	if ok && cached != "" {
		return cached
	}
	if s.apiKey == "" {
		return ""
	}

	results := s.probeAll(ctx)
	best := pickBest(results)

	s.mu.Lock()
	s.lastResults = results
	s.mu.Unlock()

	for _, r := range results {
		ev := s.log.Debug().Str("model", r.Model)
		if r.Healthy() {
			ev = ev.Dur("latency", r.Latency)
		} else {
			ev = ev.Str("failure", r.Failure)
		}
		ev.Msg("probe result")
	}
	s.log.Info().Str("model", best).Int("candidates", len(results)).Msg("selected model")

	if err := s.kv.Set(ctx, store.KeyBestModel, best); err != nil {
		s.log.Warn().Err(err).Str("model", best).Msg("persist selected model")
	}
	return best
}

// Clear forgets the cached model so the next SelectBest probes again.
func (s *Selector) Clear(ctx context.Context) error {
	return s.kv.Clear(ctx, store.KeyBestModel)
}

// Results returns the probe results of the last selection, in candidate order.
func (s *Selector) Results() []HealthResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HealthResult, len(s.lastResults))
	copy(out, s.lastResults)
	return out
}

func (s *Selector) probeAll(ctx context.Context) []HealthResult {
	results := make([]HealthResult, len(s.candidates))

	var g errgroup.Group
	for i, c := range s.candidates {
		g.Go(func() error {
			results[i] = s.prober.Probe(ctx, s.apiKey, c)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// pickBest scans results in candidate order so the first of equal latencies wins.
func pickBest(results []HealthResult) string {
	best := -1
	for i, r := range results {
		if !r.Healthy() {
			continue
		}
		if best < 0 || r.Latency < results[best].Latency {
			best = i
		}
	}
	if best < 0 {
		return FallbackModel
	}
	return results[best].Model
}
