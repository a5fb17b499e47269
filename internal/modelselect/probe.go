package modelselect

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/i474232898/genie-weather/internal/common"
	"github.com/i474232898/genie-weather/internal/gemini"
)

const (
	probePrompt   = `Say 'OK' as JSON: {"message": "OK"}`
	probeAckToken = "OK"

	defaultProbeTimeout = 15 * time.Second
)

// Prober measures one candidate.
type Prober interface {
	Probe(ctx context.Context, apiKey string, c Candidate) HealthResult
}

// HTTPProber sends the scripted probe straight to the Gemini API. It never retries:
// a failed probe only ranks the candidate last.
type HTTPProber struct {
	client *resty.Client
	now    func() time.Time
	log    zerolog.Logger
}

// NewHTTPProber builds a prober against baseURL ("" uses the public endpoint).
func NewHTTPProber(baseURL string, timeout time.Duration, log zerolog.Logger) *HTTPProber {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = gemini.DefaultBaseURL
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")

	return &HTTPProber{client: client, now: time.Now, log: log}
}

// Probe sends the scripted request and classifies the reply.
func (p *HTTPProber) Probe(ctx context.Context, apiKey string, c Candidate) HealthResult {
	start := p.now()

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader(gemini.APIKeyHeader, apiKey).
		SetBody(gemini.NewTextRequest(probePrompt, nil)).
		Post(fmt.Sprintf("/models/%s:generateContent", c.Name))
	elapsed := p.now().Sub(start)

	if err != nil {
		p.log.Debug().Err(err).Str("model", c.Name).Msg("probe failed")
		return unreachable(c, err.Error())
	}
	if !resp.IsSuccess() {
		return unreachable(c, fmt.Sprintf("Failed: %d", resp.StatusCode()))
	}

	var payload gemini.GenerateResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return unreachable(c, "Unexpected response")
	}
	if !common.HasAny(payload.FirstText(), probeAckToken) {
		return unreachable(c, "Unexpected response")
	}

	p.log.Debug().Str("model", c.Name).Dur("latency", elapsed).Msg("probe ok")
	return HealthResult{Model: c.Name, Latency: elapsed}
}

func unreachable(c Candidate, reason string) HealthResult {
	return HealthResult{Model: c.Name, Latency: Unreachable, Failure: reason}
}
