package core

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/kavach-slot-planner/model"
)

var (
	// ErrStationaryCapacity indicates a frequency has fewer free stationary
	// slots than the station requires.
	ErrStationaryCapacity = errors.New("insufficient stationary capacity")
	// ErrOnboardShortfall indicates the stationary block fits but the
	// six-tier onboard plan cannot reach the requested count.
	ErrOnboardShortfall = errors.New("onboard shortfall")
	// ErrGeoConflict indicates an approved co-frequency station lies inside
	// the combined safe radius.
	ErrGeoConflict = errors.New("geographic conflict")
	// ErrInvalidRequest indicates a station request failed validation.
	ErrInvalidRequest = errors.New("invalid station request")
	// ErrInvalidConfig indicates engine limits are out of range.
	ErrInvalidConfig = errors.New("invalid engine config")
	// ErrCellOwned indicates a commit touched a cell that already has an owner.
	ErrCellOwned = errors.New("slot cell already owned")
	// ErrSlotOutOfRange indicates a slot index outside the board.
	ErrSlotOutOfRange = errors.New("slot index out of range")
)

// GeoConflictError reports the first co-frequency station that blocks a
// candidate frequency.
type GeoConflictError struct {
	Frequency  model.FrequencyID
	Station    string
	DistanceKm float64
	RequiredKm float64
}

func (e *GeoConflictError) Error() string {
	return fmt.Sprintf("%s on frequency %d: %q is %.2f km away, %.2f km required",
		ErrGeoConflict, e.Frequency, e.Station, e.DistanceKm, e.RequiredKm)
}

func (e *GeoConflictError) Unwrap() error { return ErrGeoConflict }

// attemptKind maps a per-frequency failure onto its attempt classification.
func attemptKind(err error) model.AttemptKind {
	switch {
	case errors.Is(err, ErrGeoConflict):
		return model.AttemptGeoConflict
	case errors.Is(err, ErrOnboardShortfall):
		return model.AttemptOnboardShortfall
	default:
		return model.AttemptStationaryCapacity
	}
}
