package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
	"github.com/rs/zerolog"

	"github.com/i474232898/genie-weather/internal/weather"
)

// ErrNoAddress is returned when the locator has nothing to geocode.
var ErrNoAddress = errors.New("geo: no address configured")

// geocoder keeps its credential in a package variable.
var apiKeyMu sync.Mutex

// Locator resolves a fixed free-form address to coordinates.
type Locator struct {
	apiKey  string
	address string
	log     zerolog.Logger
	geocode func(geocoder.Address) (geocoder.Location, error)
}

// NewLocator builds a Locator for address using the Google geocoding credential apiKey.
func NewLocator(apiKey, address string, log zerolog.Logger) *Locator {
	return &Locator{
		apiKey:  strings.TrimSpace(apiKey),
		address: strings.TrimSpace(address),
		log:     log,
		geocode: geocoder.Geocoding,
	}
}

// Locate geocodes the configured address.
func (l *Locator) Locate(ctx context.Context) (weather.Coordinates, error) {
	if l.address == "" {
		return weather.Coordinates{}, ErrNoAddress
	}
	if l.apiKey == "" {
		return weather.Coordinates{}, errors.New("geo: missing geocoder API key")
	}

	type result struct {
		loc geocoder.Location
		err error
	}
	ch := make(chan result, 1)
	go func() {
		apiKeyMu.Lock()
		geocoder.ApiKey = l.apiKey
		loc, err := l.geocode(ParseAddress(l.address))
		apiKeyMu.Unlock()
		ch <- result{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return weather.Coordinates{}, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return weather.Coordinates{}, fmt.Errorf("geocode %q: %w", l.address, r.err)
		}
		l.log.Debug().Str("address", l.address).Float64("lat", r.loc.Latitude).Float64("lon", r.loc.Longitude).Msg("address geocoded")
		return weather.Coordinates{Latitude: r.loc.Latitude, Longitude: r.loc.Longitude}, nil
	}
}

// ParseAddress maps "city", "city, country", "city, state, country" or a longer
// comma list onto geocoder's address fields.
func ParseAddress(s string) geocoder.Address {
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	switch len(parts) {
	case 0:
		return geocoder.Address{}
	case 1:
		return geocoder.Address{City: parts[0]}
	case 2:
		return geocoder.Address{City: parts[0], Country: parts[1]}
	case 3:
		return geocoder.Address{City: parts[0], State: parts[1], Country: parts[2]}
	default:
		n := len(parts)
		return geocoder.Address{
			Street:  strings.Join(parts[:n-3], ", "),
			City:    parts[n-3],
			State:   parts[n-2],
			Country: parts[n-1],
		}
	}
}
