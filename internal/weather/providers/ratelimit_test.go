package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/genie-weather/internal/weather"
)

type countingGenerator struct {
	calls int
}

func (c *countingGenerator) Name() string { return "counting" }

func (c *countingGenerator) Generate(context.Context, string, string) (weather.Result, error) {
	c.calls++
	return weather.Result{}, nil
}

func TestRateLimitedGenerator(t *testing.T) {
	inner := &countingGenerator{}
	g := NewRateLimitedGenerator(inner, 0.001, 1)
	assert.Equal(t, "counting [Rate Limited]", g.Name())

	_, err := g.Generate(context.Background(), "", "p")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Generate(ctx, "", "p")
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
