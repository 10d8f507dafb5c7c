package core

import "github.com/signalsfoundry/kavach-slot-planner/model"

// GeoSite is a station position already bound to a frequency.
type GeoSite struct {
	Name      string
	Position  LatLong
	RadiusKm  float64
	Frequency model.FrequencyID
}

// GeoConflictGate rejects frequencies whose co-frequency neighbours lie
// inside the combined safe radius of a candidate.
//
// Sites are kept per frequency in insertion order, so the first reported
// conflict is the earliest approved or committed station.
type GeoConflictGate struct {
	defaultRadiusKm float64
	sites           map[model.FrequencyID][]GeoSite
}

// NewGeoConflictGate seeds the gate with the approved snapshot. Approved
// stations without a frequency are ignored, and a non-positive radius falls
// back to defaultRadiusKm.
func NewGeoConflictGate(approved []model.ApprovedStation, defaultRadiusKm float64) *GeoConflictGate {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = model.DefaultSafeRadiusKm
	}
	g := &GeoConflictGate{
		defaultRadiusKm: defaultRadiusKm,
		sites:           make(map[model.FrequencyID][]GeoSite),
	}
	for _, a := range approved {
		g.Add(GeoSite{
			Name:      a.Name,
			Position:  LatLong{Latitude: a.Latitude, Longitude: a.Longitude},
			RadiusKm:  a.SafeRadiusKm,
			Frequency: a.Frequency,
		})
	}
	return g
}

// Add registers a site. Unallocated sites are dropped.
func (g *GeoConflictGate) Add(site GeoSite) {
	if !site.Frequency.IsAllocated() {
		return
	}
	if site.RadiusKm <= 0 {
		site.RadiusKm = g.defaultRadiusKm
	}
	g.sites[site.Frequency] = append(g.sites[site.Frequency], site)
}

// Sites returns the number of sites registered on frequency f.
func (g *GeoConflictGate) Sites(f model.FrequencyID) int { return len(g.sites[f]) }

// Check returns a *GeoConflictError for the first site on frequency f closer
// than radiusKm plus its own radius, or nil when f is clear.
func (g *GeoConflictGate) Check(pos LatLong, radiusKm float64, f model.FrequencyID) error {
	if radiusKm <= 0 {
		radiusKm = g.defaultRadiusKm
	}
	for _, s := range g.sites[f] {
		required := radiusKm + s.RadiusKm
		if d := HaversineKm(pos, s.Position); d < required {
			return &GeoConflictError{
				Frequency:  f,
				Station:    s.Name,
				DistanceKm: d,
				RequiredKm: required,
			}
		}
	}
	return nil
}
