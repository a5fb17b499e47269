// Package modelselect picks the fastest healthy Gemini model by probing every candidate
// and caches the choice in a durable store.
package modelselect

import (
	"math"
	"time"

	"github.com/i474232898/genie-weather/internal/gemini"
)

// Candidate is a model eligible for selection. Rank is its static list position.
type Candidate struct {
	Name string
	Rank int
}

// Candidates is the fixed probe list. Earlier entries win latency ties.
var Candidates = []Candidate{
	{Name: gemini.ModelFlash, Rank: 1},
	{Name: gemini.ModelFlashLite, Rank: 2},
	{Name: gemini.ModelPro, Rank: 3},
}

// FallbackModel is chosen when every probe fails.
const FallbackModel = gemini.ModelPro

// Unreachable is the latency recorded for a failed probe.
const Unreachable = time.Duration(math.MaxInt64)

// HealthResult is the outcome of probing one candidate.
type HealthResult struct {
	Model   string
	Latency time.Duration
	Failure string
}

// Healthy reports whether the probe succeeded.
func (r HealthResult) Healthy() bool {
	return r.Failure == ""
}
