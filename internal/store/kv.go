package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no value is stored under a key.
	ErrNotFound = errors.New("no value stored for key")
)

// Keys persisted between sessions.
const (
	KeyBestModel     = "bestGeminiModel"
	KeyLastCity      = "genieWeatherLastCity"
	KeyModelOverride = "overrideGeminiModel"
)

// KV is a durable string key-value store. Clear on a missing key is not an error.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context, key string) error
}

// Lookup returns the stored value, treating ErrNotFound as an empty result.
func Lookup(ctx context.Context, kv KV, key string) (string, bool, error) {
	v, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}
