// Package report renders allocation results: a styled slot matrix for the
// terminal, a CSV details sheet and a JSON document.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/signalsfoundry/kavach-slot-planner/model"
)

// FrequencyColors maps a frequency to its matrix fill colour.
var FrequencyColors = map[model.FrequencyID]string{
	1: "#F0F005",
	2: "#8FCA1D",
	3: "#F39D1B",
	4: "#3197EA",
	5: "#90918F",
	6: "#F53B3D",
	7: "#CC6CE7",
}

// onboardFill backs P4..P6 cells that have no stationary fill so white and
// black text stay readable.
const onboardFill = "#A7A7A7"

type tierFont struct {
	name      string
	color     string
	bold      bool
	underline bool
	example   string
}

var tierFonts = [...]tierFont{
	model.TierP1: {"Priority 1 Green", "#007220", false, false, "P2, P4, P6"},
	model.TierP2: {"Priority 2 Blue Bold", "#0000FF", true, false, "P8, P10, P12"},
	model.TierP3: {"Priority 3 Red", "#E4080A", false, false, "P9, P11, P13"},
	model.TierP4: {"Priority 4 Black Bold", "#000000", true, false, "P20, P22, P24"},
	model.TierP5: {"Priority 5 Black Underlined Bold", "#000000", true, true, "P26, P28, P30"},
	model.TierP6: {"Priority 6 White Bold", "#FFFFFF", true, false, "P27, P29, P31"},
}

// MatrixOptions tune the matrix layout.
type MatrixOptions struct {
	// HideLegend drops the tier legend below the matrix.
	HideLegend bool
	// Slots is the number of slot rows. Zero means model.DefaultSlotsPerFrequency.
	Slots int
}

var headerRows = []struct {
	title string
	value func(r *model.AllocationResult) string
}{
	{"Stationary Kavach ID", func(r *model.AllocationResult) string { return r.KavachID }},
	{"Station Name", func(r *model.AllocationResult) string { return r.Station }},
	{"Station code", func(r *model.AllocationResult) string { return r.StationCode }},
	{"Stationary Unit Tower Latitude", func(r *model.AllocationResult) string { return formatCoord(r.Latitude) }},
	{"Stationary Unit Tower Longitude", func(r *model.AllocationResult) string { return formatCoord(r.Longitude) }},
	{"Optimum no. of Simultaneous Exclusive Static Profile Transfer", func(r *model.AllocationResult) string { return strconv.Itoa(r.StaticProfile) }},
	{"Proposed Frequency Pair", func(r *model.AllocationResult) string { return frequencyText(r) }},
	{"Number of Stationary Kavach Tx slots", func(r *model.AllocationResult) string { return strconv.Itoa(r.NumStationary()) }},
	{"Stationary Kavach (TCAS) Tx Window Commence - End", func(r *model.AllocationResult) string { return r.TxWindow }},
	{"Peak nos. of Onboard Kavach Units in Stn Unit Jurisdiction", func(r *model.AllocationResult) string { return strconv.Itoa(r.OnboardSlotsRequested) }},
}

// Matrix renders one column per station and one row per slot label. Colour
// is emitted only when w is a terminal that supports it.
func Matrix(w io.Writer, results []model.AllocationResult, opts MatrixOptions) error {
	slots := opts.Slots
	if slots <= 0 {
		slots = model.DefaultSlotsPerFrequency
	}
	re := lipgloss.NewRenderer(w)
	m := matrix{re: re, results: results}
	m.layout()

	var b strings.Builder
	for _, h := range headerRows {
		cells := make([]string, len(results))
		for i := range results {
			r := &results[i]
			style := m.cell(i)
			if h.title == "Proposed Frequency Pair" && r.Allocated() {
				style = m.fill(style, r.Frequency)
			}
			cells[i] = style.Render(h.value(r))
		}
		m.row(&b, h.title, cells)
	}
	for idx := 0; idx < slots; idx++ {
		label := model.SlotIndex(idx).Label()
		cells := make([]string, len(results))
		for i := range results {
			cells[i] = m.slotCell(i, label)
		}
		m.row(&b, label, cells)
	}
	if !opts.HideLegend {
		b.WriteString("\n")
		m.legend(&b)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type matrix struct {
	re      *lipgloss.Renderer
	results []model.AllocationResult
	tiers   []map[string]model.Tier
	statics []map[string]bool
	title   int
	widths  []int
}

func (m *matrix) layout() {
	for _, h := range headerRows {
		m.title = max(m.title, lipgloss.Width(h.title))
	}
	m.widths = make([]int, len(m.results))
	m.tiers = make([]map[string]model.Tier, len(m.results))
	m.statics = make([]map[string]bool, len(m.results))
	for i := range m.results {
		r := &m.results[i]
		w := 5
		for _, h := range headerRows {
			w = max(w, lipgloss.Width(h.value(r)))
		}
		m.widths[i] = w + 2

		m.tiers[i] = make(map[string]model.Tier)
		for _, t := range model.Tiers {
			for _, l := range r.TierLabels(t) {
				m.tiers[i][l] = t
			}
		}
		m.statics[i] = make(map[string]bool, len(r.StationarySlots))
		for _, l := range r.StationarySlots {
			m.statics[i][l] = true
		}
	}
}

func (m *matrix) cell(i int) lipgloss.Style {
	return m.re.NewStyle().Width(m.widths[i]).Align(lipgloss.Center)
}

func (m *matrix) fill(s lipgloss.Style, f model.FrequencyID) lipgloss.Style {
	if c, ok := FrequencyColors[f]; ok {
		return s.Background(lipgloss.Color(c)).Foreground(lipgloss.Color("#000000"))
	}
	return s
}

// slotCell prints the onboard label in its tier font over the stationary
// fill. A stationary-only cell shows the frequency number.
func (m *matrix) slotCell(i int, label string) string {
	r := &m.results[i]
	style := m.cell(i)
	stationary := m.statics[i][label]
	if stationary {
		style = m.fill(style, r.Frequency)
	}
	t, onboard := m.tiers[i][label]
	switch {
	case onboard:
		font := tierFonts[t]
		style = style.Foreground(lipgloss.Color(font.color)).Bold(font.bold).Underline(font.underline)
		if !stationary && t >= model.TierP4 {
			style = style.Background(lipgloss.Color(onboardFill))
		}
		return style.Render(label)
	case stationary:
		return style.Render("F" + strconv.Itoa(int(r.Frequency)))
	}
	return style.Render("")
}

func (m *matrix) row(b *strings.Builder, title string, cells []string) {
	b.WriteString(m.re.NewStyle().Width(m.title + 1).Render(title))
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(c)
		b.WriteString("|")
	}
	b.WriteString("\n")
}

func (m *matrix) legend(b *strings.Builder) {
	heading := m.re.NewStyle().Bold(true)
	fmt.Fprintf(b, "%s\n", heading.Render("Legend: Onboard Tx Slot Priorities"))
	width := 0
	for _, f := range tierFonts {
		width = max(width, lipgloss.Width(f.name))
	}
	for _, t := range model.Tiers {
		f := tierFonts[t]
		style := m.re.NewStyle().Foreground(lipgloss.Color(f.color)).Bold(f.bold).Underline(f.underline)
		if t >= model.TierP4 {
			style = style.Background(lipgloss.Color(onboardFill))
		}
		fmt.Fprintf(b, "%s  %s\n", style.Width(width).Render(f.name), style.Render(f.example))
	}
}

func frequencyText(r *model.AllocationResult) string {
	if !r.Allocated() {
		return "N/A"
	}
	return strconv.Itoa(int(r.Frequency))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
