package weather

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/i474232898/genie-weather/internal/store"
)

const (
	// DefaultCooldown is the quiet period after each request.
	DefaultCooldown = 2 * time.Second

	// FailureMessage is shown for every failed request; details go to the log.
	FailureMessage = "Could not fetch the forecast. The Genie is busy! Please try again."
)

var (
	// ErrBusy is returned when a request arrives during Loading or Cooldown.
	ErrBusy = errors.New("forecast request rejected: busy")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("forecast orchestrator closed")
)

// State is the request lifecycle phase.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateCooldown
	StateError
	StateSuccess
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateCooldown:
		return "cooldown"
	case StateError:
		return "error"
	case StateSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the orchestrator state. Message, Err and Result describe the
// last completed request and survive Cooldown and Idle until the next request starts.
type Snapshot struct {
	State     State
	RequestID string
	Model     string
	Message   string
	Err       error
	Result    Result
	LastCity  string
}

// Orchestrator runs one forecast request at a time and enforces a cooldown after each.
//
// Idle -> Loading -> Success|Error -> Cooldown -> Idle. Success and Error are passed
// through on the way to Cooldown; requests during Loading or Cooldown get ErrBusy.
type Orchestrator struct {
	forecaster Forecaster
	models     ModelResolver
	kv         store.KV
	timer      Timer
	locator    Locator
	cooldown   time.Duration
	log        zerolog.Logger
	observer   func(Snapshot)

	mu             sync.Mutex
	snap           Snapshot
	cooldownGen    uint64
	cancelCooldown func()
	closed         bool
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithCooldown overrides DefaultCooldown.
func WithCooldown(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.cooldown = d
		}
	}
}

// WithLocator sets the position source used by InitialLocation.
func WithLocator(l Locator) Option {
	return func(o *Orchestrator) {
		o.locator = l
	}
}

// WithObserver registers fn to receive every state change. fn runs with the
// orchestrator lock held and must not call back into it.
func WithObserver(fn func(Snapshot)) Option {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

// NewOrchestrator wires a forecaster, an optional model resolver, the persistent store
// and a timer for cooldown transitions.
func NewOrchestrator(forecaster Forecaster, models ModelResolver, kv store.KV, timer Timer, log zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		forecaster: forecaster,
		models:     models,
		kv:         kv,
		timer:      timer,
		cooldown:   DefaultCooldown,
		log:        log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snap
}

// Request fetches a forecast for loc and blocks until it completes. The returned error is
// only ErrBusy or ErrClosed; forecast failures land in Snapshot.Message and Snapshot.Err.
func (o *Orchestrator) Request(ctx context.Context, loc Location) (Snapshot, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return Snapshot{}, ErrClosed
	}
	if o.snap.State == StateLoading || o.snap.State == StateCooldown {
		snap := o.snap
		o.mu.Unlock()
		return snap, ErrBusy
	}
	reqID := uuid.NewString()
	o.snap = Snapshot{State: StateLoading, RequestID: reqID, LastCity: o.snap.LastCity}
	o.emitLocked()
	o.mu.Unlock()

	model := o.effectiveModel(ctx)
	o.mu.Lock()
	o.snap.Model = model
	o.mu.Unlock()

	log := o.log.With().Str("request_id", reqID).Str("location", loc.String()).Str("model", model).Logger()
	result, err := o.forecaster.GetForecast(ctx, loc, model)

	var persist string
	o.mu.Lock()
	if err != nil {
		ev := log.Error().Err(err).Str("kind", string(KindOf(err)))
		var fe *Error
		if errors.As(err, &fe) && fe.Status != 0 {
			ev = ev.Int("status", fe.Status)
		}
		ev.Msg("forecast failed")

		o.snap.State = StateError
		o.snap.Message = FailureMessage
		o.snap.Err = err
	} else {
		log.Info().Str("city", result.City()).Msg("forecast ready")

		o.snap.State = StateSuccess
		o.snap.Result = result
		o.snap.LastCity = placeName(loc, result)
		persist = result.City()
		if persist == "" {
			persist = o.snap.LastCity
		}
	}
	o.emitLocked()

	o.snap.State = StateCooldown
	o.cooldownGen++
	gen := o.cooldownGen
	closed := o.closed
	o.emitLocked()
	snap := o.snap
	o.mu.Unlock()

	if !closed {
		o.scheduleIdle(gen)
	}

	if persist != "" {
		if err := o.kv.Set(ctx, store.KeyLastCity, persist); err != nil {
			log.Warn().Err(err).Msg("persist last city")
		}
	}
	return snap, nil
}

func (o *Orchestrator) scheduleIdle(gen uint64) {
	cancel := o.timer.After(o.cooldown, func() { o.finishCooldown(gen) })

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || gen != o.cooldownGen || o.snap.State != StateCooldown {
		if cancel != nil {
			cancel()
		}
		return
	}
	o.cancelCooldown = cancel
}

func (o *Orchestrator) finishCooldown(gen uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || gen != o.cooldownGen || o.snap.State != StateCooldown {
		return
	}
	o.snap.State = StateIdle
	o.cancelCooldown = nil
	o.emitLocked()
}

// Close cancels a pending cooldown transition. Later requests get ErrClosed.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	cancel := o.cancelCooldown
	o.cancelCooldown = nil
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// ModelOverride returns the user's persisted model choice, or "" for automatic selection.
func (o *Orchestrator) ModelOverride(ctx context.Context) (string, error) {
	v, _, err := store.Lookup(ctx, o.kv, store.KeyModelOverride)
	return v, err
}

// SetModelOverride persists model as the user's choice. "" or "auto" restores automatic selection.
func (o *Orchestrator) SetModelOverride(ctx context.Context, model string) error {
	model = strings.TrimSpace(model)
	if model == "" || strings.EqualFold(model, "auto") {
		return o.kv.Clear(ctx, store.KeyModelOverride)
	}
	return o.kv.Set(ctx, store.KeyModelOverride, model)
}

// InitialLocation returns the last resolved city when one is stored, otherwise the
// locator's position. ok is false when neither is available.
func (o *Orchestrator) InitialLocation(ctx context.Context) (loc Location, ok bool, err error) {
	city, found, err := store.Lookup(ctx, o.kv, store.KeyLastCity)
	if err != nil {
		return Location{}, false, err
	}
	if found && strings.TrimSpace(city) != "" {
		o.mu.Lock()
		o.snap.LastCity = city
		o.mu.Unlock()
		return Named(city), true, nil
	}
	if o.locator == nil {
		return Location{}, false, nil
	}
	coords, err := o.locator.Locate(ctx)
	if err != nil {
		o.log.Warn().Err(err).Msg("geolocation unavailable, waiting for manual input")
		return Location{}, false, nil
	}
	return At(coords.Latitude, coords.Longitude), true, nil
}

func (o *Orchestrator) effectiveModel(ctx context.Context) string {
	override, err := o.ModelOverride(ctx)
	if err != nil {
		o.log.Warn().Err(err).Msg("read model override")
	}
	if override != "" {
		return override
	}
	if o.models == nil {
		return ""
	}
	return o.models.SelectBest(ctx)
}

func (o *Orchestrator) emitLocked() {
	if o.observer != nil {
		o.observer(o.snap)
	}
}

// placeName prefers the typed name, falling back to the city the forecast resolved.
func placeName(loc Location, result Result) string {
	if loc.Coordinates == nil {
		if name := strings.TrimSpace(loc.Name); name != "" {
			return name
		}
	}
	return result.City()
}
