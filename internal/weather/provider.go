package weather

import (
	"context"
	"time"
)

// Forecaster fetches a forecast for a location with an optional model identifier.
type Forecaster interface {
	GetForecast(ctx context.Context, loc Location, model string) (Result, error)
}

// ModelResolver returns the model to use when the user has not chosen one.
// An empty identifier leaves the choice to the proxy.
type ModelResolver interface {
	SelectBest(ctx context.Context) string
}

// Timer schedules fn once after d. The returned cancel prevents a pending run.
type Timer interface {
	After(d time.Duration, fn func()) (cancel func())
}

// Locator supplies the user's position when no place name is known.
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}
