package domain

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// GeoPoint is a single recorded coordinate. Values are passed through as
// received; NaN or out-of-range coordinates are left for the map widget.
type GeoPoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Orb converts the point to orb's lon/lat order.
func (p GeoPoint) Orb() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// Track is an ordered, chronological sequence of points.
// An empty track means no data for the selection.
type Track []GeoPoint

// Len returns the number of points
func (t Track) Len() int { return len(t) }

// Start returns the first point, or nil for an empty track.
func (t Track) Start() *GeoPoint {
	if len(t) == 0 {
		return nil
	}
	p := t[0]
	return &p
}

// End returns the last point, or nil for an empty track.
func (t Track) End() *GeoPoint {
	if len(t) == 0 {
		return nil
	}
	p := t[len(t)-1]
	return &p
}

// LineString returns the track as an orb geometry.
func (t Track) LineString() orb.LineString {
	ls := make(orb.LineString, 0, len(t))
	for _, p := range t {
		ls = append(ls, p.Orb())
	}
	return ls
}

// Length returns the haversine length of the track in meters.
func (t Track) Length() float64 {
	if len(t) < 2 {
		return 0
	}
	return geo.LengthHaversine(t.LineString())
}

// LengthUpTo returns the length of the prefix ending at index i (inclusive).
func (t Track) LengthUpTo(i int) float64 {
	if i >= len(t) {
		i = len(t) - 1
	}
	if i < 1 {
		return 0
	}
	return t[:i+1].Length()
}

// LocationSample is the wire shape returned by the location-history endpoint.
// Fields other than latitude and longitude are ignored by the loader.
type LocationSample struct {
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

// Point converts the sample to a GeoPoint
func (s LocationSample) Point() GeoPoint {
	return GeoPoint{Latitude: s.Latitude, Longitude: s.Longitude}
}

// TrackFromSamples keeps the order returned by the backend.
func TrackFromSamples(samples []LocationSample) Track {
	track := make(Track, 0, len(samples))
	for _, s := range samples {
		track = append(track, s.Point())
	}
	return track
}

// LocationRecord is a persisted vehicle position.
type LocationRecord struct {
	VehicleID  string    `json:"vehicle_id" validate:"max=64"`
	Latitude   float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64   `json:"longitude" validate:"gte=-180,lte=180"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Sample converts the record to its wire shape.
func (r LocationRecord) Sample() LocationSample {
	ts := r.RecordedAt
	return LocationSample{Latitude: r.Latitude, Longitude: r.Longitude, RecordedAt: &ts}
}

// DefaultCenter is used when a selection has no data (Hyderabad).
var DefaultCenter = GeoPoint{Latitude: 17.385044, Longitude: 78.486671}
