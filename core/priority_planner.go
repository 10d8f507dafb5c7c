package core

import (
	"fmt"

	"github.com/signalsfoundry/kavach-slot-planner/model"
)

// FixedContinuousSlot is the index (label P45) that always transmits
// continuously. When it is planned into any other tier it is moved into P3.
const FixedContinuousSlot model.SlotIndex = 43

// Plan is a candidate reservation against one frequency's board. Building a
// plan never mutates the board.
type Plan struct {
	Frequency  model.FrequencyID
	Stationary SlotSet
	Tiers      [len(model.Tiers)]SlotSet
}

// Tier returns the planned onboard indices of tier t.
func (p Plan) Tier(t model.Tier) SlotSet {
	if t < model.TierP1 || t > model.TierP6 {
		return 0
	}
	return p.Tiers[t-1]
}

func (p *Plan) setTier(t model.Tier, s SlotSet) { p.Tiers[t-1] = s }

// OnboardTotal returns |P1|+...+|P6|.
func (p Plan) OnboardTotal() int {
	n := 0
	for _, s := range p.Tiers {
		n += s.Len()
	}
	return n
}

// Onboard returns the union of every tier.
func (p Plan) Onboard() SlotSet {
	var all SlotSet
	for _, s := range p.Tiers {
		all = all.Union(s)
	}
	return all
}

// PlanSlots builds a candidate plan for one station on board. It returns
// ErrStationaryCapacity when the stationary block does not fit and
// ErrOnboardShortfall when the six tiers cannot reach onboardNeeded.
func PlanSlots(board *SlotBoard, stationaryNeeded, onboardNeeded int) (Plan, error) {
	plan := Plan{Frequency: board.Frequency()}
	size := model.SlotIndex(board.Size())

	// Stationary first-fit.
	for i := model.SlotIndex(0); i < size && plan.Stationary.Len() < stationaryNeeded; i++ {
		if board.StationaryFree(i) {
			plan.Stationary.Add(i)
		}
	}
	if plan.Stationary.Len() < stationaryNeeded {
		return Plan{}, fmt.Errorf("%w: frequency %d has %d of %d stationary slots free",
			ErrStationaryCapacity, board.Frequency(), plan.Stationary.Len(), stationaryNeeded)
	}
	if onboardNeeded <= 0 {
		return plan, nil
	}
	stationary := plan.Stationary

	// Proto-P1: alternating pass clear of the station's own stationary block.
	var protoP1 SlotSet
	for i := model.SlotIndex(0); i < size && protoP1.Len() < onboardNeeded; {
		if board.OnboardFree(i) && !stationary.Has(i) && !stationary.Adjacent(i) {
			protoP1.Add(i)
			i += 2
			continue
		}
		i++
	}

	// P3: continuous fill of the remaining non-stationary gaps.
	var p3 SlotSet
	for i := model.SlotIndex(0); i < size && protoP1.Len()+p3.Len() < onboardNeeded; i++ {
		if board.OnboardFree(i) && !stationary.Has(i) && !protoP1.Has(i) {
			p3.Add(i)
		}
	}

	var p1, p2 SlotSet
	for _, i := range protoP1.Indices() {
		if p3.Adjacent(i) {
			p2.Add(i)
		} else {
			p1.Add(i)
		}
	}

	// On-stationary region: P4 alternates over the block, P6 fills it.
	var protoP4, p6 SlotSet
	claimed := p1.Len() + p2.Len() + p3.Len()
	var candidates []model.SlotIndex
	for _, i := range stationary.Indices() {
		if board.OnboardFree(i) && !p1.Has(i) && !p2.Has(i) && !p3.Has(i) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) > 0 {
		bottom, rest := candidates[0], candidates[1:]
		for k := 0; k < len(rest); k += 2 {
			if claimed+protoP4.Len() >= onboardNeeded {
				break
			}
			protoP4.Add(rest[k])
		}
		if claimed+protoP4.Len() < onboardNeeded && !protoP4.Has(bottom) {
			protoP4.Add(bottom)
		}
		for _, i := range candidates {
			if claimed+protoP4.Len()+p6.Len() >= onboardNeeded {
				break
			}
			if !protoP4.Has(i) {
				p6.Add(i)
			}
		}
	}

	var p4, p5 SlotSet
	for _, i := range protoP4.Indices() {
		if p6.Adjacent(i) {
			p5.Add(i)
		} else {
			p4.Add(i)
		}
	}

	for _, s := range []*SlotSet{&p1, &p2, &p4, &p5, &p6} {
		if s.Has(FixedContinuousSlot) {
			s.Remove(FixedContinuousSlot)
			p3.Add(FixedContinuousSlot)
		}
	}

	plan.setTier(model.TierP1, p1)
	plan.setTier(model.TierP2, p2)
	plan.setTier(model.TierP3, p3)
	plan.setTier(model.TierP4, p4)
	plan.setTier(model.TierP5, p5)
	plan.setTier(model.TierP6, p6)

	if total := plan.OnboardTotal(); total < onboardNeeded {
		return Plan{}, fmt.Errorf("%w: frequency %d can place %d of %d onboard slots",
			ErrOnboardShortfall, board.Frequency(), total, onboardNeeded)
	}
	return plan, nil
}
