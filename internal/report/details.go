package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/signalsfoundry/kavach-slot-planner/model"
)

// DetailColumns are the CSV headings of the allocation details sheet.
var DetailColumns = []string{
	"Station",
	"Frequency",
	"Stationary Kavach ID",
	"Station Code",
	"Latitude",
	"Longitude",
	"Static",
	"Safe Radius Km",
	"Stationary Kavach Slots Requested",
	"Stationary Kavach Slots Allocated",
	"Num Stationary Allocated",
	"Tx Window",
	"Onboard Kavach Slots Requested",
	"Onboard Kavach Slots Allocated",
	"Num Onboard Allocated",
	"Onboard Slots P1 Allocated",
	"Onboard Slots P2 Allocated",
	"Onboard Slots P3 Allocated",
	"Onboard Slots P4 Allocated",
	"Onboard Slots P5 Allocated",
	"Onboard Slots P6 Allocated",
	"Failure Kind",
	"Error",
}

// WriteDetails writes one CSV row per result in input order.
func WriteDetails(w io.Writer, results []model.AllocationResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(DetailColumns); err != nil {
		return fmt.Errorf("write details header: %w", err)
	}
	for i := range results {
		if err := cw.Write(detailRow(&results[i])); err != nil {
			return fmt.Errorf("write details row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func detailRow(r *model.AllocationResult) []string {
	row := []string{
		r.Station,
		frequencyText(r),
		r.KavachID,
		r.StationCode,
		formatCoord(r.Latitude),
		formatCoord(r.Longitude),
		strconv.Itoa(r.StaticProfile),
		formatCoord(r.SafeRadiusKm),
		strconv.Itoa(r.StationarySlotsRequested),
		strings.Join(r.StationarySlots, ", "),
		strconv.Itoa(r.NumStationary()),
		r.TxWindow,
		strconv.Itoa(r.OnboardSlotsRequested),
		strings.Join(r.OnboardSlots, ", "),
		strconv.Itoa(r.NumOnboard()),
	}
	for _, t := range model.Tiers {
		row = append(row, strings.Join(r.TierLabels(t), ", "))
	}
	return append(row, string(r.FailureKind), r.Reason)
}
