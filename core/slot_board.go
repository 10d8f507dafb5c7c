package core

import (
	"fmt"

	"github.com/signalsfoundry/kavach-slot-planner/model"
)

// Cell is one ownership cell of a slot plane. The zero value is free.
type Cell struct {
	owner model.StationID
	owned bool
}

// Owner returns the owning station, if any.
func (c Cell) Owner() (model.StationID, bool) { return c.owner, c.owned }

// Free reports whether no station owns the cell.
func (c Cell) Free() bool { return !c.owned }

// Plane selects one of the two independent ownership arrays of a board.
type Plane int

const (
	// PlaneStationary holds cells owned by a station's ground equipment.
	PlaneStationary Plane = iota
	// PlaneOnboard holds cells owned by onboard units. The same index may be
	// owned here and in the stationary plane at the same time.
	PlaneOnboard
)

func (p Plane) String() string {
	if p == PlaneOnboard {
		return "onboard"
	}
	return "stationary"
}

// SlotBoard is the per-frequency slot state of one allocation run.
type SlotBoard struct {
	frequency  model.FrequencyID
	stationary []Cell
	onboard    []Cell
}

// NewSlotBoard returns an empty board with the given number of slots.
func NewSlotBoard(frequency model.FrequencyID, slots int) *SlotBoard {
	if slots < 0 {
		slots = 0
	}
	return &SlotBoard{
		frequency:  frequency,
		stationary: make([]Cell, slots),
		onboard:    make([]Cell, slots),
	}
}

// Frequency returns the channel this board tracks.
func (b *SlotBoard) Frequency() model.FrequencyID { return b.frequency }

// Size returns the number of slots per plane.
func (b *SlotBoard) Size() int { return len(b.stationary) }

func (b *SlotBoard) plane(p Plane) []Cell {
	if p == PlaneOnboard {
		return b.onboard
	}
	return b.stationary
}

func (b *SlotBoard) inRange(i model.SlotIndex) bool {
	return i >= 0 && int(i) < len(b.stationary)
}

// Cell returns the cell at index i of plane p. Out-of-range indices read as free.
func (b *SlotBoard) Cell(p Plane, i model.SlotIndex) Cell {
	if !b.inRange(i) {
		return Cell{}
	}
	return b.plane(p)[i]
}

// StationaryFree reports whether index i of the stationary plane is unowned.
func (b *SlotBoard) StationaryFree(i model.SlotIndex) bool {
	return b.inRange(i) && b.stationary[i].Free()
}

// OnboardFree reports whether index i of the onboard plane is unowned.
func (b *SlotBoard) OnboardFree(i model.SlotIndex) bool {
	return b.inRange(i) && b.onboard[i].Free()
}

// Assign sets the owner of index i on plane p. It refuses to overwrite an
// owned cell.
func (b *SlotBoard) Assign(p Plane, i model.SlotIndex, owner model.StationID) error {
	if !b.inRange(i) {
		return fmt.Errorf("%w: %d on frequency %d", ErrSlotOutOfRange, i, b.frequency)
	}
	cells := b.plane(p)
	if cells[i].owned {
		return fmt.Errorf("%w: %s %s on frequency %d held by %q",
			ErrCellOwned, p, i.Label(), b.frequency, cells[i].owner)
	}
	cells[i] = Cell{owner: owner, owned: true}
	return nil
}

// Used returns the number of owned cells on plane p.
func (b *SlotBoard) Used(p Plane) int {
	n := 0
	for _, c := range b.plane(p) {
		if c.owned {
			n++
		}
	}
	return n
}

// Owned returns the indices of plane p owned by station id.
func (b *SlotBoard) Owned(p Plane, id model.StationID) SlotSet {
	var s SlotSet
	for i, c := range b.plane(p) {
		if c.owned && c.owner == id {
			s.Add(model.SlotIndex(i))
		}
	}
	return s
}

// Clone returns an independent copy of the board.
func (b *SlotBoard) Clone() *SlotBoard {
	return &SlotBoard{
		frequency:  b.frequency,
		stationary: append([]Cell(nil), b.stationary...),
		onboard:    append([]Cell(nil), b.onboard...),
	}
}

// Commitment lists the cells a commit actually took.
type Commitment struct {
	Stationary SlotSet
	Tiers      [len(model.Tiers)]SlotSet
}

// Tier returns the committed onboard indices of tier t.
func (c Commitment) Tier(t model.Tier) SlotSet {
	if t < model.TierP1 || t > model.TierP6 {
		return 0
	}
	return c.Tiers[t-1]
}

// Onboard returns every committed onboard index.
func (c Commitment) Onboard() SlotSet {
	var all SlotSet
	for _, s := range c.Tiers {
		all = all.Union(s)
	}
	return all
}

// Commit writes plan into the board on behalf of owner. Stationary cells are
// checked before anything is written so a failed commit leaves the board
// untouched. Onboard cells are taken tier by tier in ascending order, each
// index at most once, skipping cells that are already owned, until
// onboardLimit cells are placed.
func (b *SlotBoard) Commit(plan Plan, owner model.StationID, onboardLimit int) (Commitment, error) {
	for _, i := range plan.Stationary.Indices() {
		if !b.inRange(i) {
			return Commitment{}, fmt.Errorf("%w: %d on frequency %d", ErrSlotOutOfRange, i, b.frequency)
		}
		if !b.stationary[i].Free() {
			return Commitment{}, fmt.Errorf("%w: stationary %s on frequency %d held by %q",
				ErrCellOwned, i.Label(), b.frequency, b.stationary[i].owner)
		}
	}

	var out Commitment
	for _, i := range plan.Stationary.Indices() {
		b.stationary[i] = Cell{owner: owner, owned: true}
		out.Stationary.Add(i)
	}

	var placed SlotSet
	for ti, tier := range model.Tiers {
		for _, i := range plan.Tier(tier).Indices() {
			if placed.Len() >= onboardLimit {
				return out, nil
			}
			if placed.Has(i) || !b.OnboardFree(i) {
				continue
			}
			b.onboard[i] = Cell{owner: owner, owned: true}
			placed.Add(i)
			out.Tiers[ti].Add(i)
		}
	}
	return out, nil
}

// BoardRegistry owns the slot boards of one allocation run, one per frequency.
type BoardRegistry struct {
	boards []*SlotBoard
}

// NewBoardRegistry creates fresh boards for frequencies 1..maxFrequencies.
func NewBoardRegistry(maxFrequencies, slots int) *BoardRegistry {
	if maxFrequencies < 0 {
		maxFrequencies = 0
	}
	r := &BoardRegistry{boards: make([]*SlotBoard, maxFrequencies)}
	for i := range r.boards {
		r.boards[i] = NewSlotBoard(model.FrequencyID(i+1), slots)
	}
	return r
}

// Len returns the number of frequencies.
func (r *BoardRegistry) Len() int { return len(r.boards) }

// Board returns the board for frequency f, or nil when f is out of range.
func (r *BoardRegistry) Board(f model.FrequencyID) *SlotBoard {
	if f < 1 || int(f) > len(r.boards) {
		return nil
	}
	return r.boards[f-1]
}

// Boards returns the boards in ascending frequency order.
func (r *BoardRegistry) Boards() []*SlotBoard {
	return append([]*SlotBoard(nil), r.boards...)
}
