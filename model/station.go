package model

import (
	"fmt"
	"math"
	"strings"
)

// DefaultSafeRadiusKm applies to station requests that do not declare a radius.
const DefaultSafeRadiusKm = 12.0

// StationID identifies the owner of a slot cell. Stations are keyed by name.
type StationID string

// StationRequest is one candidate ground station submitted for allocation.
// JSON field names follow the station list format used by the planning UI.
type StationRequest struct {
	Name          string  `json:"name"`
	StaticProfile int     `json:"Static"`
	OnboardUnits  int     `json:"onboardSlots"`
	StationCode   string  `json:"StationCode"`
	KavachID      string  `json:"KavachID"`
	Latitude      float64 `json:"Latitude"`
	Longitude     float64 `json:"Longitude"`
	SafeRadiusKm  float64 `json:"SafeRadiusKm,omitempty"`
}

// ID returns the slot-ownership identity of the station.
func (r StationRequest) ID() StationID { return StationID(r.Name) }

// Radius returns the declared safe radius, or fallback when none was given.
func (r StationRequest) Radius(fallback float64) float64 {
	if r.SafeRadiusKm > 0 {
		return r.SafeRadiusKm
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultSafeRadiusKm
}

// Validate checks the request fields the allocator depends on.
func (r StationRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return fmt.Errorf("station name is empty")
	case r.StaticProfile < 0:
		return fmt.Errorf("station %q: static profile %d is negative", r.Name, r.StaticProfile)
	case r.OnboardUnits < 0:
		return fmt.Errorf("station %q: onboard unit count %d is negative", r.Name, r.OnboardUnits)
	case r.SafeRadiusKm < 0 || math.IsNaN(r.SafeRadiusKm):
		return fmt.Errorf("station %q: safe radius %v is invalid", r.Name, r.SafeRadiusKm)
	}
	return validateCoordinates(r.Name, r.Latitude, r.Longitude)
}

// ApprovedStation is a previously approved station with a committed frequency.
// The allocator only reads these records.
type ApprovedStation struct {
	Name         string      `json:"name"`
	StationCode  string      `json:"station_code,omitempty"`
	KavachID     string      `json:"kavach_id,omitempty"`
	Latitude     float64     `json:"latitude"`
	Longitude    float64     `json:"longitude"`
	SafeRadiusKm float64     `json:"safe_radius_km"`
	Frequency    FrequencyID `json:"frequency"`
}

// Validate checks the geographic fields of an approved station.
func (a ApprovedStation) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("approved station name is empty")
	}
	if a.SafeRadiusKm < 0 || math.IsNaN(a.SafeRadiusKm) {
		return fmt.Errorf("approved station %q: safe radius %v is invalid", a.Name, a.SafeRadiusKm)
	}
	return validateCoordinates(a.Name, a.Latitude, a.Longitude)
}

func validateCoordinates(name string, lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("station %q: latitude %v out of range", name, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("station %q: longitude %v out of range", name, lon)
	}
	return nil
}
