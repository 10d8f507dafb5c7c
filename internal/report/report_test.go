package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/kavach-slot-planner/core"
	"github.com/signalsfoundry/kavach-slot-planner/internal/runner"
	"github.com/signalsfoundry/kavach-slot-planner/model"
)

func sampleResults(t *testing.T) []model.AllocationResult {
	t.Helper()
	engine, err := core.NewAllocationEngine(core.DefaultEngineConfig())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return engine.Run([]model.StationRequest{
		{Name: "LC.563", StaticProfile: 4, OnboardUnits: 10, StationCode: "LC563", KavachID: "37023", Latitude: 28.7041, Longitude: 77.1025},
		{Name: "Rundhi", StaticProfile: 4, OnboardUnits: 14, StationCode: "RUND", KavachID: "37024", Latitude: 28.7100, Longitude: 77.1100},
		{Name: "Hodal", StaticProfile: 60, OnboardUnits: 0, StationCode: "HODAL", KavachID: "37028", Latitude: 41.3041, Longitude: 76.6647},
	}, nil)
}

func sampleReport(t *testing.T) *runner.Report {
	results := sampleResults(t)
	return &runner.Report{
		RunID:       "run-1",
		Results:     results,
		Allocated:   2,
		Unallocated: 1,
		Fingerprint: runner.Fingerprint(results),
		Duration:    1500 * time.Microsecond,
	}
}

func TestMatrixLayout(t *testing.T) {
	results := sampleResults(t)
	var buf bytes.Buffer
	if err := Matrix(&buf, results, MatrixOptions{}); err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	wantRows := len(headerRows) + model.DefaultSlotsPerFrequency
	if !strings.HasPrefix(lines[wantRows-1], "P45") {
		t.Fatalf("last slot row = %q", lines[wantRows-1])
	}
	if !strings.HasPrefix(lines[len(headerRows)], "P2 ") {
		t.Fatalf("first slot row = %q", lines[len(headerRows)])
	}
	if !strings.Contains(lines[1], "LC.563") || !strings.Contains(lines[1], "Rundhi") {
		t.Fatalf("station name row = %q", lines[1])
	}
	freq := lines[6]
	if !strings.HasPrefix(freq, "Proposed Frequency Pair") || !strings.Contains(freq, "N/A") {
		t.Fatalf("frequency row = %q", freq)
	}
	if !strings.Contains(buf.String(), "Legend: Onboard Tx Slot Priorities") {
		t.Fatalf("legend missing")
	}
}

func TestMatrixSlotCells(t *testing.T) {
	results := sampleResults(t)
	var buf bytes.Buffer
	if err := Matrix(&buf, results[:1], MatrixOptions{HideLegend: true}); err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	rows := map[string]string{}
	for _, line := range strings.Split(buf.String(), "\n") {
		parts := strings.Split(line, "|")
		if len(parts) < 2 {
			continue
		}
		rows[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	for _, l := range results[0].StationarySlots {
		if _, onboard := results[0].TierOf(l); onboard {
			continue
		}
		if rows[l] != "F1" {
			t.Fatalf("stationary cell %s = %q, want F1", l, rows[l])
		}
	}
	for _, l := range results[0].OnboardSlots {
		if rows[l] != l {
			t.Fatalf("onboard cell %s = %q", l, rows[l])
		}
	}
	if strings.Contains(buf.String(), "Legend") {
		t.Fatalf("legend should be hidden")
	}
}

func TestWriteDetails(t *testing.T) {
	results := sampleResults(t)
	var buf bytes.Buffer
	if err := WriteDetails(&buf, results); err != nil {
		t.Fatalf("WriteDetails: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want header + 3", len(records))
	}
	col := map[string]int{}
	for i, h := range records[0] {
		col[h] = i
	}
	first := records[1]
	if first[col["Frequency"]] != "1" || first[col["Tx Window"]] != results[0].TxWindow {
		t.Fatalf("first row = %v", first)
	}
	if first[col["Onboard Slots P1 Allocated"]] != strings.Join(results[0].P1, ", ") {
		t.Fatalf("P1 column = %q", first[col["Onboard Slots P1 Allocated"]])
	}
	last := records[3]
	if last[col["Frequency"]] != "N/A" || last[col["Num Stationary Allocated"]] != "0" {
		t.Fatalf("unallocated row = %v", last)
	}
	if !strings.Contains(last[col["Error"]], "no suitable slot configuration") {
		t.Fatalf("error column = %q", last[col["Error"]])
	}
}

func TestWriteJSON(t *testing.T) {
	rep := sampleReport(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	if err := WriteJSON(&buf, NewDocument(rep, now)); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var got Document
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RunID != "run-1" || got.Fingerprint != rep.Fingerprint || got.Stations != 3 {
		t.Fatalf("document = %+v", got)
	}
	if got.DurationMs != 1.5 || !got.GeneratedAt.Equal(now) {
		t.Fatalf("duration/time = %v %v", got.DurationMs, got.GeneratedAt)
	}
	if got.Results[1].Frequency != 2 {
		t.Fatalf("second station frequency = %d", got.Results[1].Frequency)
	}
}

func TestNewDocumentEmptyResults(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, NewDocument(&runner.Report{}, time.Now())); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"results": []`) {
		t.Fatalf("expected an empty results array, got %s", buf.String())
	}
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteFiles(dir, sampleReport(t), Formats{Matrix: true, CSV: true, JSON: true}, time.Now())
	if err != nil {
		t.Fatalf("WriteFiles: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("wrote %v", paths)
	}
	for _, name := range []string{MatrixFile, DetailsFile, DocumentFile} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || info.Size() == 0 {
			t.Fatalf("%s: %v", name, err)
		}
	}

	only, err := WriteFiles(t.TempDir(), sampleReport(t), Formats{CSV: true}, time.Now())
	if err != nil || len(only) != 1 || filepath.Base(only[0]) != DetailsFile {
		t.Fatalf("csv only = %v, %v", only, err)
	}
}
