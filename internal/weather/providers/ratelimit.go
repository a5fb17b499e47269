package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/i474232898/genie-weather/internal/weather"
)

// RateLimitedGenerator wraps a Generator with a token bucket.
type RateLimitedGenerator struct {
	generator Generator
	limiter   *rate.Limiter
	name      string
}

// NewRateLimitedGenerator allows rps generations per second (fractional values allowed)
// with bursts of up to burst.
func NewRateLimitedGenerator(generator Generator, rps float64, burst int) *RateLimitedGenerator {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedGenerator{
		generator: generator,
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		name:      fmt.Sprintf("%s [Rate Limited]", generator.Name()),
	}
}

// Generate waits for a token or context cancellation, then forwards.
func (r *RateLimitedGenerator) Generate(ctx context.Context, model, prompt string) (weather.Result, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.generator.Generate(ctx, model, prompt)
}

func (r *RateLimitedGenerator) Name() string {
	return r.name
}
