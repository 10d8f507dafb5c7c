package core

// Transfer-time budget used to size a station's stationary block. A frame
// slot carries slotTransferUnits; each static profile costs
// staticProfileUnits, every other onboard unit onboardUnitUnits, and each
// frame carries a fixed frameOverheadUnits.
const (
	staticProfileUnits = 120
	onboardUnitUnits   = 40
	frameOverheadUnits = 100
	slotTransferUnits  = 66
)

// RequiredStationarySlots returns the number of stationary slots a station
// needs: ceil((static*120 + (onboard-static)*40 + 100) / 66), at least 1.
func RequiredStationarySlots(staticProfile, onboardUnits int) int {
	units := staticProfile*staticProfileUnits +
		(onboardUnits-staticProfile)*onboardUnitUnits +
		frameOverheadUnits
	if units <= 0 {
		return 1
	}
	n := (units + slotTransferUnits - 1) / slotTransferUnits
	if n < 1 {
		return 1
	}
	return n
}
