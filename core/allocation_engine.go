package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/signalsfoundry/kavach-slot-planner/model"
)

// maxFrequenciesLimit bounds the frequency search; boards are cheap but the
// radio network only has a handful of channels.
const maxFrequenciesLimit = 16

// EngineConfig holds the limits of one allocation run.
type EngineConfig struct {
	MaxFrequencies      int
	MaxSlots            int
	DefaultSafeRadiusKm float64
}

// DefaultEngineConfig returns 7 frequencies of 44 slots and a 12 km radius.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxFrequencies:      model.DefaultMaxFrequencies,
		MaxSlots:            model.DefaultSlotsPerFrequency,
		DefaultSafeRadiusKm: model.DefaultSafeRadiusKm,
	}
}

// Validate checks the limits. Slots are capped at 44 so every index keeps a
// P2..P45 label.
func (c EngineConfig) Validate() error {
	switch {
	case c.MaxFrequencies < 1 || c.MaxFrequencies > maxFrequenciesLimit:
		return fmt.Errorf("%w: max frequencies %d not in 1..%d", ErrInvalidConfig, c.MaxFrequencies, maxFrequenciesLimit)
	case c.MaxSlots < 1 || c.MaxSlots > model.DefaultSlotsPerFrequency:
		return fmt.Errorf("%w: max slots %d not in 1..%d", ErrInvalidConfig, c.MaxSlots, model.DefaultSlotsPerFrequency)
	case !(c.DefaultSafeRadiusKm > 0):
		return fmt.Errorf("%w: default safe radius %v must be positive", ErrInvalidConfig, c.DefaultSafeRadiusKm)
	}
	return nil
}

// Observer receives progress notifications from a run. Calls happen
// synchronously on the engine's goroutine.
type Observer interface {
	// ObserveAttempt is called for every frequency rejected for a station.
	ObserveAttempt(station model.StationRequest, attempt model.Attempt)
	// ObserveResult is called once per station, in input order.
	ObserveResult(result model.AllocationResult)
}

// EngineOption customises an AllocationEngine.
type EngineOption func(*AllocationEngine)

// WithObserver registers an observer. It may be given more than once.
func WithObserver(o Observer) EngineOption {
	return func(e *AllocationEngine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// AllocationEngine assigns frequencies and slots to stations greedily in
// input order. Committed stations are never revisited.
type AllocationEngine struct {
	cfg       EngineConfig
	observers []Observer
}

// NewAllocationEngine validates cfg and returns an engine.
func NewAllocationEngine(cfg EngineConfig, opts ...EngineOption) (*AllocationEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &AllocationEngine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine limits.
func (e *AllocationEngine) Config() EngineConfig { return e.cfg }

// NewBoards returns an empty board registry sized for this engine.
func (e *AllocationEngine) NewBoards() *BoardRegistry {
	return NewBoardRegistry(e.cfg.MaxFrequencies, e.cfg.MaxSlots)
}

// Run allocates requests against fresh boards. The approved snapshot is only
// read.
func (e *AllocationEngine) Run(requests []model.StationRequest, approved []model.ApprovedStation) []model.AllocationResult {
	results, _ := e.RunOnBoards(e.NewBoards(), requests, approved)
	return results
}

// RunOnBoards allocates requests against boards, mutating them as stations
// commit. It returns one result per request in input order. The only error
// is a registry that does not match the engine limits.
func (e *AllocationEngine) RunOnBoards(boards *BoardRegistry, requests []model.StationRequest, approved []model.ApprovedStation) ([]model.AllocationResult, error) {
	if boards == nil || boards.Len() != e.cfg.MaxFrequencies {
		return nil, fmt.Errorf("%w: board registry does not hold %d frequencies", ErrInvalidConfig, e.cfg.MaxFrequencies)
	}
	gate := NewGeoConflictGate(approved, e.cfg.DefaultSafeRadiusKm)
	results := make([]model.AllocationResult, 0, len(requests))
	for _, req := range requests {
		res := e.allocate(boards, gate, req)
		for _, o := range e.observers {
			o.ObserveResult(res)
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *AllocationEngine) allocate(boards *BoardRegistry, gate *GeoConflictGate, req model.StationRequest) model.AllocationResult {
	radius := req.Radius(e.cfg.DefaultSafeRadiusKm)
	res := model.AllocationResult{
		Station:               req.Name,
		StationCode:           req.StationCode,
		KavachID:              req.KavachID,
		Latitude:              req.Latitude,
		Longitude:             req.Longitude,
		StaticProfile:         req.StaticProfile,
		SafeRadiusKm:          radius,
		Frequency:             model.Unallocated,
		OnboardSlotsRequested: req.OnboardUnits,
	}
	if err := req.Validate(); err != nil {
		res.FailureKind = model.FailureInvalidRequest
		res.Reason = fmt.Errorf("%w: %v", ErrInvalidRequest, err).Error()
		return res
	}

	needed := RequiredStationarySlots(req.StaticProfile, req.OnboardUnits)
	res.StationarySlotsRequested = needed
	pos := LatLong{Latitude: req.Latitude, Longitude: req.Longitude}

	for _, board := range boards.Boards() {
		f := board.Frequency()
		plan, err := e.try(board, gate, pos, radius, needed, req.OnboardUnits)
		if err == nil {
			var c Commitment
			c, err = board.Commit(plan, req.ID(), req.OnboardUnits)
			if err == nil {
				gate.Add(GeoSite{Name: req.Name, Position: pos, RadiusKm: radius, Frequency: f})
				fillCommitted(&res, f, c)
				return res
			}
		}
		attempt := model.Attempt{Frequency: f, Kind: attemptKind(err), Detail: err.Error()}
		res.Attempts = append(res.Attempts, attempt)
		for _, o := range e.observers {
			o.ObserveAttempt(req, attempt)
		}
	}

	res.FailureKind, res.Reason = exhaustion(res.Attempts)
	return res
}

func (e *AllocationEngine) try(board *SlotBoard, gate *GeoConflictGate, pos LatLong, radius float64, stationary, onboard int) (Plan, error) {
	if err := gate.Check(pos, radius, board.Frequency()); err != nil {
		return Plan{}, err
	}
	return PlanSlots(board, stationary, onboard)
}

func fillCommitted(res *model.AllocationResult, f model.FrequencyID, c Commitment) {
	res.Frequency = f
	res.StationarySlots = c.Stationary.Labels()
	if idx := c.Stationary.Indices(); len(idx) > 0 {
		res.TxWindow = idx[0].Label() + "-" + idx[len(idx)-1].Label()
	}
	res.OnboardSlots = c.Onboard().Labels()
	for _, t := range model.Tiers {
		res.SetTierLabels(t, c.Tier(t).Labels())
	}
}

// exhaustion classifies an unallocated station from its rejected attempts.
func exhaustion(attempts []model.Attempt) (model.FailureKind, string) {
	if len(attempts) == 0 {
		return model.FailureCapacity, "no frequency available"
	}
	byKind := make(map[model.AttemptKind][]string)
	for _, a := range attempts {
		byKind[a.Kind] = append(byKind[a.Kind], strconv.Itoa(int(a.Frequency)))
	}

	_, geo := byKind[model.AttemptGeoConflict]
	capacity := len(byKind) > 1 || !geo
	kind := model.FailureCapacity
	switch {
	case geo && capacity:
		kind = model.FailureMixed
	case geo:
		kind = model.FailureGeoConflict
	}

	order := []model.AttemptKind{model.AttemptGeoConflict, model.AttemptStationaryCapacity, model.AttemptOnboardShortfall}
	var parts []string
	for _, k := range order {
		if fs, ok := byKind[k]; ok {
			parts = append(parts, describeKind(k)+" on "+strings.Join(fs, ","))
		}
	}
	last := attempts[len(attempts)-1]
	reason := fmt.Sprintf("no suitable slot configuration found on any frequency (%s); last blocked by %s",
		strings.Join(parts, "; "), last.Detail)
	return kind, reason
}

func describeKind(k model.AttemptKind) string {
	switch k {
	case model.AttemptGeoConflict:
		return "geographic conflict"
	case model.AttemptOnboardShortfall:
		return "onboard shortfall"
	default:
		return "stationary capacity"
	}
}

// IsRecoverable reports whether err is a per-frequency rejection that the
// next frequency may resolve.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrGeoConflict) || errors.Is(err, ErrStationaryCapacity) || errors.Is(err, ErrOnboardShortfall)
}
