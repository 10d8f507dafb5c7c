package runner

import (
	"fmt"
	"strconv"

	"github.com/zeebo/xxh3"

	"github.com/signalsfoundry/kavach-slot-planner/model"
)

// Fingerprint hashes the allocation-relevant fields of results in order.
// Identical inputs always produce the same fingerprint, so two runs can be
// compared without diffing the full result lists.
func Fingerprint(results []model.AllocationResult) string {
	h := xxh3.New()
	field := func(s string) {
		_, _ = h.WriteString(s)
		_, _ = h.Write([]byte{0})
	}
	for _, r := range results {
		field(r.Station)
		field(strconv.Itoa(int(r.Frequency)))
		for _, l := range r.StationarySlots {
			field(l)
		}
		for _, t := range model.Tiers {
			field(t.String())
			for _, l := range r.TierLabels(t) {
				field(l)
			}
		}
		field(string(r.FailureKind))
		_, _ = h.Write([]byte{0xff})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
