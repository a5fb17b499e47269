package weather

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is either a place name or a coordinate pair, never both.
type Location struct {
	Name        string       `json:"name,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Named returns a place-name location.
func Named(name string) Location {
	return Location{Name: name}
}

// At returns a coordinate location.
func At(latitude, longitude float64) Location {
	return Location{Coordinates: &Coordinates{Latitude: latitude, Longitude: longitude}}
}

// ParseCoordinates parses decimal strings into a coordinate location.
func ParseCoordinates(latitude, longitude string) (Location, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latitude), 64)
	if err != nil {
		return Location{}, newError(KindInvalidLocation, "Invalid location provided.", 0, fmt.Errorf("latitude %q: %w", latitude, err))
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(longitude), 64)
	if err != nil {
		return Location{}, newError(KindInvalidLocation, "Invalid location provided.", 0, fmt.Errorf("longitude %q: %w", longitude, err))
	}
	return At(lat, lon), nil
}

// normalize trims the name and rejects empty names, mixed shapes and non-finite coordinates.
func (l Location) normalize() (Location, error) {
	name := strings.TrimSpace(l.Name)
	switch {
	case l.Coordinates == nil && name != "":
		return Named(name), nil
	case l.Coordinates == nil:
		return Location{}, newError(KindInvalidLocation, "Please enter a valid city name.", 0, nil)
	case name != "":
		return Location{}, newError(KindInvalidLocation, "Invalid location provided.", 0, nil)
	case !finite(l.Coordinates.Latitude) || !finite(l.Coordinates.Longitude):
		return Location{}, newError(KindInvalidLocation, "Invalid location provided.", 0, nil)
	default:
		return At(l.Coordinates.Latitude, l.Coordinates.Longitude), nil
	}
}

// String renders the location for logs.
func (l Location) String() string {
	if l.Coordinates != nil {
		return fmt.Sprintf("%s,%s", formatDegrees(l.Coordinates.Latitude), formatDegrees(l.Coordinates.Longitude))
	}
	return l.Name
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
