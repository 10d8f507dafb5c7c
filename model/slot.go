package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// DefaultSlotsPerFrequency is the number of time slots in one frame.
	DefaultSlotsPerFrequency = 44
	// DefaultMaxFrequencies is the number of radio channels searched per station.
	DefaultMaxFrequencies = 7

	// slotLabelOffset maps index 0 onto the first transmit slot, P2.
	slotLabelOffset = 2
)

// SlotIndex is a 0-based position within a frequency's frame. Index i is
// published to downstream consumers as the label "P{i+2}".
type SlotIndex int

// Label returns the external slot label, e.g. index 0 -> "P2".
func (i SlotIndex) Label() string {
	return "P" + strconv.Itoa(int(i)+slotLabelOffset)
}

// ParseSlotLabel converts an external label such as "P17" back into its index.
func ParseSlotLabel(label string) (SlotIndex, error) {
	label = strings.TrimSpace(label)
	if len(label) < 2 || (label[0] != 'P' && label[0] != 'p') {
		return 0, fmt.Errorf("invalid slot label %q", label)
	}
	n, err := strconv.Atoi(label[1:])
	if err != nil {
		return 0, fmt.Errorf("invalid slot label %q: %w", label, err)
	}
	idx := n - slotLabelOffset
	if idx < 0 || idx >= DefaultSlotsPerFrequency {
		return 0, fmt.Errorf("slot label %q outside P2..P45", label)
	}
	return SlotIndex(idx), nil
}

// Labels renders indices as labels sorted ascending by slot number.
func Labels(indices []SlotIndex) []string {
	if len(indices) == 0 {
		return nil
	}
	sorted := append([]SlotIndex(nil), indices...)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a] < sorted[b] })
	out := make([]string, len(sorted))
	for i, idx := range sorted {
		out[i] = idx.Label()
	}
	return out
}

// FrequencyID identifies one radio channel, numbered from 1.
// The zero value means no frequency was assigned.
type FrequencyID int

// Unallocated marks a station for which no frequency satisfied all constraints.
const Unallocated FrequencyID = 0

// IsAllocated reports whether f names a real channel.
func (f FrequencyID) IsAllocated() bool { return f > 0 }

func (f FrequencyID) String() string {
	if !f.IsAllocated() {
		return "N/A"
	}
	return strconv.Itoa(int(f))
}
