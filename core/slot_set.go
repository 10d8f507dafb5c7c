package core

import (
	"math/bits"

	"github.com/signalsfoundry/kavach-slot-planner/model"
)

// maxSlotSetSize is the number of indices a SlotSet can hold.
const maxSlotSetSize = 64

// SlotSet is an ordered set of slot indices backed by a bitset.
// The zero value is an empty set.
type SlotSet uint64

// NewSlotSet builds a set from the given indices.
func NewSlotSet(indices ...model.SlotIndex) SlotSet {
	var s SlotSet
	for _, i := range indices {
		s.Add(i)
	}
	return s
}

func inSetRange(i model.SlotIndex) bool { return i >= 0 && i < maxSlotSetSize }

// Has reports whether i is a member.
func (s SlotSet) Has(i model.SlotIndex) bool {
	return inSetRange(i) && s&(1<<uint(i)) != 0
}

// Add inserts i. Out-of-range indices are ignored.
func (s *SlotSet) Add(i model.SlotIndex) {
	if inSetRange(i) {
		*s |= 1 << uint(i)
	}
}

// Remove deletes i.
func (s *SlotSet) Remove(i model.SlotIndex) {
	if inSetRange(i) {
		*s &^= 1 << uint(i)
	}
}

// Len returns the number of members.
func (s SlotSet) Len() int { return bits.OnesCount64(uint64(s)) }

// Empty reports whether the set has no members.
func (s SlotSet) Empty() bool { return s == 0 }

// Union returns s ∪ o.
func (s SlotSet) Union(o SlotSet) SlotSet { return s | o }

// Intersect returns s ∩ o.
func (s SlotSet) Intersect(o SlotSet) SlotSet { return s & o }

// Adjacent reports whether i-1 or i+1 is a member.
func (s SlotSet) Adjacent(i model.SlotIndex) bool {
	return s.Has(i-1) || s.Has(i+1)
}

// Min returns the lowest member.
func (s SlotSet) Min() (model.SlotIndex, bool) {
	if s == 0 {
		return 0, false
	}
	return model.SlotIndex(bits.TrailingZeros64(uint64(s))), true
}

// Indices returns the members in ascending order.
func (s SlotSet) Indices() []model.SlotIndex {
	if s == 0 {
		return nil
	}
	out := make([]model.SlotIndex, 0, s.Len())
	for rest := uint64(s); rest != 0; rest &= rest - 1 {
		out = append(out, model.SlotIndex(bits.TrailingZeros64(rest)))
	}
	return out
}

// Labels returns the members as external labels in ascending slot order.
func (s SlotSet) Labels() []string {
	return model.Labels(s.Indices())
}
