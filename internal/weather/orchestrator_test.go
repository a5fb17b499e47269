package weather

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/genie-weather/internal/store"
)

type manualTimer struct {
	mu       sync.Mutex
	pending  []func()
	delays   []time.Duration
	canceled int
}

func (m *manualTimer) After(d time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := len(m.pending)
	m.pending = append(m.pending, fn)
	m.delays = append(m.delays, d)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.pending[idx] != nil {
			m.pending[idx] = nil
			m.canceled++
		}
	}
}

func (m *manualTimer) fire() {
	m.mu.Lock()
	fns := m.pending
	m.pending = make([]func(), len(fns))
	m.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn()
		}
	}
}

type stubForecaster struct {
	mu      sync.Mutex
	calls   []string
	models  []string
	result  Result
	err     error
	started chan struct{}
	release chan struct{}
}

func (s *stubForecaster) GetForecast(ctx context.Context, loc Location, model string) (Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, loc.String())
	s.models = append(s.models, model)
	s.mu.Unlock()
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type fixedModel string

func (f fixedModel) SelectBest(context.Context) string { return string(f) }

type stubLocator struct {
	coords Coordinates
	err    error
}

func (s stubLocator) Locate(context.Context) (Coordinates, error) { return s.coords, s.err }

func cityResult(city string) Result {
	return Result{"currentWeather": map[string]any{"city": city}}
}

func newTestOrchestrator(f Forecaster, models ModelResolver, opts ...Option) (*Orchestrator, *manualTimer, *store.MemoryStore) {
	timer := &manualTimer{}
	kv := store.NewMemoryStore()
	return NewOrchestrator(f, models, kv, timer, zerolog.Nop(), opts...), timer, kv
}

func TestRequestSuccessEntersCooldown(t *testing.T) {
	f := &stubForecaster{result: cityResult("Paris")}
	o, timer, kv := newTestOrchestrator(f, fixedModel("gemini-2.5-flash"))

	snap, err := o.Request(context.Background(), Named("Paris"))
	require.NoError(t, err)
	assert.Equal(t, StateCooldown, snap.State)
	assert.Equal(t, "Paris", snap.Result.City())
	assert.Equal(t, "gemini-2.5-flash", snap.Model)
	assert.Empty(t, snap.Message)
	assert.NotEmpty(t, snap.RequestID)
	assert.Equal(t, []time.Duration{DefaultCooldown}, timer.delays)

	city, err := kv.Get(context.Background(), store.KeyLastCity)
	require.NoError(t, err)
	assert.Equal(t, "Paris", city)

	timer.fire()
	assert.Equal(t, StateIdle, o.Snapshot().State)
	assert.Equal(t, "Paris", o.Snapshot().Result.City())
}

func TestRequestRejectedDuringCooldown(t *testing.T) {
	f := &stubForecaster{result: cityResult("Paris")}
	o, timer, _ := newTestOrchestrator(f, nil)

	_, err := o.Request(context.Background(), Named("Paris"))
	require.NoError(t, err)

	snap, err := o.Request(context.Background(), Named("Rome"))
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, StateCooldown, snap.State)
	assert.Len(t, f.calls, 1)

	timer.fire()
	_, err = o.Request(context.Background(), Named("Rome"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris", "Rome"}, f.calls)
}

func TestRequestRejectedWhileLoading(t *testing.T) {
	f := &stubForecaster{
		result:  cityResult("Paris"),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	o, _, _ := newTestOrchestrator(f, nil)

	done := make(chan Snapshot)
	go func() {
		snap, err := o.Request(context.Background(), Named("Paris"))
		assert.NoError(t, err)
		done <- snap
	}()
	<-f.started

	assert.Equal(t, StateLoading, o.Snapshot().State)
	_, err := o.Request(context.Background(), Named("Paris"))
	assert.ErrorIs(t, err, ErrBusy)

	close(f.release)
	snap := <-done
	assert.Equal(t, StateCooldown, snap.State)
	assert.Len(t, f.calls, 1)
}

func TestRequestFailureShowsGenericMessage(t *testing.T) {
	cause := newError(KindServer, "quota exceeded", 500, nil)
	f := &stubForecaster{err: cause}
	o, timer, kv := newTestOrchestrator(f, nil)

	snap, err := o.Request(context.Background(), Named("Paris"))
	require.NoError(t, err)
	assert.Equal(t, StateCooldown, snap.State)
	assert.Equal(t, FailureMessage, snap.Message)
	assert.ErrorIs(t, snap.Err, ErrServer)
	assert.Nil(t, snap.Result)

	_, err = kv.Get(context.Background(), store.KeyLastCity)
	assert.ErrorIs(t, err, store.ErrNotFound)

	timer.fire()
	assert.Equal(t, StateIdle, o.Snapshot().State)
	assert.Equal(t, FailureMessage, o.Snapshot().Message)
}

func TestObserverSeesEveryTransition(t *testing.T) {
	var states []State
	f := &stubForecaster{err: errors.New("boom")}
	o, timer, _ := newTestOrchestrator(f, nil, WithObserver(func(s Snapshot) { states = append(states, s.State) }))

	_, err := o.Request(context.Background(), Named("Paris"))
	require.NoError(t, err)
	timer.fire()

	assert.Equal(t, []State{StateLoading, StateError, StateCooldown, StateIdle}, states)
}

func TestModelOverrideWinsOverSelector(t *testing.T) {
	f := &stubForecaster{result: cityResult("Paris")}
	o, timer, _ := newTestOrchestrator(f, fixedModel("gemini-2.5-flash"))
	ctx := context.Background()

	require.NoError(t, o.SetModelOverride(ctx, "gemini-2.5-pro"))
	got, err := o.ModelOverride(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", got)

	_, err = o.Request(ctx, Named("Paris"))
	require.NoError(t, err)
	timer.fire()

	require.NoError(t, o.SetModelOverride(ctx, "auto"))
	_, err = o.Request(ctx, Named("Paris"))
	require.NoError(t, err)

	assert.Equal(t, []string{"gemini-2.5-pro", "gemini-2.5-flash"}, f.models)
}

func TestNoResolverSendsNoModel(t *testing.T) {
	f := &stubForecaster{result: cityResult("Paris")}
	o, _, _ := newTestOrchestrator(f, nil)

	_, err := o.Request(context.Background(), Named("Paris"))
	require.NoError(t, err)
	assert.Equal(t, []string{""}, f.models)
}

func TestCoordinatesPersistResolvedCity(t *testing.T) {
	f := &stubForecaster{result: cityResult("Lyon")}
	o, _, kv := newTestOrchestrator(f, nil)

	snap, err := o.Request(context.Background(), At(45.76, 4.83))
	require.NoError(t, err)
	assert.Equal(t, "Lyon", snap.LastCity)

	city, err := kv.Get(context.Background(), store.KeyLastCity)
	require.NoError(t, err)
	assert.Equal(t, "Lyon", city)
}

func TestInitialLocation(t *testing.T) {
	ctx := context.Background()

	t.Run("stored city", func(t *testing.T) {
		o, _, kv := newTestOrchestrator(&stubForecaster{}, nil, WithLocator(stubLocator{coords: Coordinates{Latitude: 1, Longitude: 2}}))
		require.NoError(t, kv.Set(ctx, store.KeyLastCity, "Berlin"))

		loc, ok, err := o.InitialLocation(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, Named("Berlin"), loc)
		assert.Equal(t, "Berlin", o.Snapshot().LastCity)
	})

	t.Run("geolocation", func(t *testing.T) {
		o, _, _ := newTestOrchestrator(&stubForecaster{}, nil, WithLocator(stubLocator{coords: Coordinates{Latitude: 52.52, Longitude: 13.4}}))

		loc, ok, err := o.InitialLocation(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, At(52.52, 13.4), loc)
	})

	t.Run("geolocation denied", func(t *testing.T) {
		o, _, _ := newTestOrchestrator(&stubForecaster{}, nil, WithLocator(stubLocator{err: errors.New("denied")}))

		_, ok, err := o.InitialLocation(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("nothing available", func(t *testing.T) {
		o, _, _ := newTestOrchestrator(&stubForecaster{}, nil)

		_, ok, err := o.InitialLocation(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCloseCancelsCooldown(t *testing.T) {
	f := &stubForecaster{result: cityResult("Paris")}
	o, timer, _ := newTestOrchestrator(f, nil, WithCooldown(time.Second))

	_, err := o.Request(context.Background(), Named("Paris"))
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second}, timer.delays)

	require.NoError(t, o.Close())
	require.NoError(t, o.Close())
	assert.Equal(t, 1, timer.canceled)

	timer.fire()
	assert.Equal(t, StateCooldown, o.Snapshot().State)

	_, err = o.Request(context.Background(), Named("Paris"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "cooldown", StateCooldown.String())
	assert.Equal(t, "unknown", State(42).String())
}
