// Package transport wraps outbound HTTP calls with a fixed-delay retry for transient failures.
package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultRetries = 2
	DefaultDelay   = 4 * time.Second
)

var errNoHTTPClient = errors.New("http client not configured")

// Policy controls how many times a call is retried and how long to wait between attempts.
type Policy struct {
	Retries int
	Delay   time.Duration
}

// DefaultPolicy returns two retries four seconds apart, enough to ride out a cold start.
func DefaultPolicy() Policy {
	return Policy{Retries: DefaultRetries, Delay: DefaultDelay}
}

// Requester issues HTTP requests and retries network failures and 502/503/504 responses.
// Any other response, including non-2xx, is returned to the caller untouched.
type Requester struct {
	client *http.Client
	policy Policy
	log    zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option customizes a Requester.
type Option func(*Requester)

// WithSleeper overrides how retry delays are waited out (useful for tests).
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Requester) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// NewRequester builds a Requester. Negative policy values are clamped to zero.
func NewRequester(client *http.Client, policy Policy, log zerolog.Logger, opts ...Option) *Requester {
	if policy.Retries < 0 {
		policy.Retries = 0
	}
	if policy.Delay < 0 {
		policy.Delay = 0
	}
	r := &Requester{
		client: client,
		policy: policy,
		log:    log,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the effective retry policy.
func (r *Requester) Policy() Policy {
	return r.policy
}

// Do executes the request built by buildRequest, rebuilding it for every attempt so that
// request bodies can be replayed. At most Retries+1 attempts are made.
func (r *Requester) Do(ctx context.Context, buildRequest func() (*http.Request, error)) (*http.Response, error) {
	if r.client == nil {
		return nil, errNoHTTPClient
	}

	attempts := r.policy.Retries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		resp, err := r.client.Do(req)
		if err != nil {
			lastErr = err
			if attempt == attempts || ctx.Err() != nil {
				return nil, lastErr
			}
			r.log.Warn().
				Err(err).
				Str("url", req.URL.Redacted()).
				Int("attempt", attempt).
				Int("attempts", attempts).
				Dur("delay", r.policy.Delay).
				Msg("request failed, retrying")
			if err := r.sleep(ctx, r.policy.Delay); err != nil {
				return nil, err
			}
			continue
		}

		if isTransientStatus(resp.StatusCode) && attempt < attempts {
			r.log.Warn().
				Str("url", req.URL.Redacted()).
				Int("status", resp.StatusCode).
				Int("attempt", attempt).
				Int("attempts", attempts).
				Dur("delay", r.policy.Delay).
				Msg("transient response, retrying")
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			if err := r.sleep(ctx, r.policy.Delay); err != nil {
				return nil, err
			}
			continue
		}

		return resp, nil
	}

	// Unreachable while attempts >= 1.
	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return nil, lastErr
}

// isTransientStatus reports the gateway statuses a sleeping backend produces while it wakes up.
func isTransientStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
