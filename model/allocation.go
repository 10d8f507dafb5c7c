package model

import "strings"

// Tier is the transmission-priority class of an onboard slot.
type Tier int

const (
	// TierP1 is an alternating free slot clear of the station's stationary block.
	TierP1 Tier = iota + 1
	// TierP2 is an alternating slot that touches a continuous (P3) neighbour.
	TierP2
	// TierP3 is a continuously filled free slot outside the stationary block.
	TierP3
	// TierP4 is an alternating slot inside the stationary block.
	TierP4
	// TierP5 is an alternating stationary-block slot that touches a P6 neighbour.
	TierP5
	// TierP6 is a continuously filled slot inside the stationary block.
	TierP6
)

// Tiers lists every tier in commit order.
var Tiers = [...]Tier{TierP1, TierP2, TierP3, TierP4, TierP5, TierP6}

func (t Tier) String() string {
	switch t {
	case TierP1:
		return "P1"
	case TierP2:
		return "P2"
	case TierP3:
		return "P3"
	case TierP4:
		return "P4"
	case TierP5:
		return "P5"
	case TierP6:
		return "P6"
	default:
		return "unknown"
	}
}

// AttemptKind names the reason a single frequency was rejected.
type AttemptKind string

const (
	AttemptGeoConflict        AttemptKind = "geo_conflict"
	AttemptStationaryCapacity AttemptKind = "stationary_capacity"
	AttemptOnboardShortfall   AttemptKind = "onboard_shortfall"
)

// Attempt records one rejected frequency while searching for a station.
type Attempt struct {
	Frequency FrequencyID `json:"frequency"`
	Kind      AttemptKind `json:"kind"`
	Detail    string      `json:"detail,omitempty"`
}

// FailureKind summarises why a station ended up unallocated.
type FailureKind string

const (
	FailureNone           FailureKind = ""
	FailureGeoConflict    FailureKind = "geo_conflict"
	FailureCapacity       FailureKind = "capacity"
	FailureMixed          FailureKind = "mixed"
	FailureInvalidRequest FailureKind = "invalid_request"
)

// AllocationResult is the outcome for one station request. Slot lists hold
// external labels sorted by slot number.
type AllocationResult struct {
	Station       string      `json:"station"`
	StationCode   string      `json:"station_code"`
	KavachID      string      `json:"kavach_id"`
	Latitude      float64     `json:"latitude"`
	Longitude     float64     `json:"longitude"`
	StaticProfile int         `json:"static"`
	SafeRadiusKm  float64     `json:"safe_radius_km"`
	Frequency     FrequencyID `json:"frequency"`

	StationarySlotsRequested int      `json:"stationary_slots_requested"`
	StationarySlots          []string `json:"stationary_slots,omitempty"`
	TxWindow                 string   `json:"tx_window,omitempty"`

	OnboardSlotsRequested int      `json:"onboard_slots_requested"`
	OnboardSlots          []string `json:"onboard_slots,omitempty"`
	P1                    []string `json:"p1,omitempty"`
	P2                    []string `json:"p2,omitempty"`
	P3                    []string `json:"p3,omitempty"`
	P4                    []string `json:"p4,omitempty"`
	P5                    []string `json:"p5,omitempty"`
	P6                    []string `json:"p6,omitempty"`

	Attempts    []Attempt   `json:"attempts,omitempty"`
	FailureKind FailureKind `json:"failure_kind,omitempty"`
	Reason      string      `json:"reason,omitempty"`
}

// Allocated reports whether the station was committed to a frequency.
func (r *AllocationResult) Allocated() bool { return r.Frequency.IsAllocated() }

// NumStationary is the number of stationary slots assigned.
func (r *AllocationResult) NumStationary() int { return len(r.StationarySlots) }

// NumOnboard is the number of onboard slots assigned across all tiers.
func (r *AllocationResult) NumOnboard() int { return len(r.OnboardSlots) }

// TierLabels returns the labels assigned to tier t.
func (r *AllocationResult) TierLabels(t Tier) []string {
	switch t {
	case TierP1:
		return r.P1
	case TierP2:
		return r.P2
	case TierP3:
		return r.P3
	case TierP4:
		return r.P4
	case TierP5:
		return r.P5
	case TierP6:
		return r.P6
	default:
		return nil
	}
}

// TierOf returns the tier holding label, if the station owns it onboard.
func (r *AllocationResult) TierOf(label string) (Tier, bool) {
	for _, t := range Tiers {
		for _, l := range r.TierLabels(t) {
			if strings.EqualFold(l, label) {
				return t, true
			}
		}
	}
	return 0, false
}

// SetTierLabels stores the labels for tier t.
func (r *AllocationResult) SetTierLabels(t Tier, labels []string) {
	switch t {
	case TierP1:
		r.P1 = labels
	case TierP2:
		r.P2 = labels
	case TierP3:
		r.P3 = labels
	case TierP4:
		r.P4 = labels
	case TierP5:
		r.P5 = labels
	case TierP6:
		r.P6 = labels
	}
}
