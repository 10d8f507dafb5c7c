package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/signalsfoundry/kavach-slot-planner/model"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "approved_stations.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func secunderabad() Station {
	return Station{
		Name: "SECUNDERABAD_TWR", Latitude: 17.44, Longitude: 78.50, SafeRadiusKm: 50,
		Status: StatusApproved, Frequency: 1, Timeslot: "Day", AreaType: "Urban",
		KavachID: "SK001", StationCode: "SC-TWR",
	}
}

func TestAddGetAndDuplicate(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	if err := s.Add(ctx, secunderabad()); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := s.Get(ctx, "SECUNDERABAD_TWR")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := secunderabad()
	want.ID = got.ID
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Get = %+v, want %+v", got, want)
	}
	if err := s.Add(ctx, secunderabad()); !errors.Is(err, ErrStationExists) {
		t.Fatalf("expected ErrStationExists, got %v", err)
	}
	if _, err := s.Get(ctx, "nowhere"); !errors.Is(err, ErrStationNotFound) {
		t.Fatalf("expected ErrStationNotFound, got %v", err)
	}
	bad := secunderabad()
	bad.Name = "bad"
	bad.Status = "maybe"
	if err := s.Add(ctx, bad); !errors.Is(err, ErrInvalidStation) {
		t.Fatalf("expected ErrInvalidStation, got %v", err)
	}
}

func TestListApprovedFiltersPendingAndUnassigned(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	_ = s.Add(ctx, secunderabad())
	_ = s.Add(ctx, Station{Name: "PENDING", Latitude: 17, Longitude: 78, SafeRadiusKm: 12, Status: StatusPending, Frequency: 2})
	_ = s.Add(ctx, Station{Name: "NOFREQ", Latitude: 17, Longitude: 78, SafeRadiusKm: 12, Status: StatusApproved})

	approved, err := s.ListApproved(ctx)
	if err != nil {
		t.Fatalf("ListApproved: %v", err)
	}
	if len(approved) != 1 || approved[0].Name != "SECUNDERABAD_TWR" || approved[0].Frequency != 1 {
		t.Fatalf("ListApproved = %+v", approved)
	}
	all, _ := s.List(ctx)
	if len(all) != 3 {
		t.Fatalf("List returned %d rows, want 3", len(all))
	}
}

func TestUpsertReplacesRow(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	st := secunderabad()
	if err := s.Upsert(ctx, st); err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}
	st.Frequency = 4
	st.SafeRadiusKm = 30
	if err := s.Upsert(ctx, st); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	got, _ := s.Get(ctx, st.Name)
	if got.Frequency != 4 || got.SafeRadiusKm != 30 {
		t.Fatalf("Upsert did not update: %+v", got)
	}
	if all, _ := s.List(ctx); len(all) != 1 {
		t.Fatalf("Upsert duplicated the row")
	}
}

func TestOpenMigratesLegacyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE stations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    safe_radius_km REAL NOT NULL,
    status TEXT NOT NULL,
    allocated_frequency INTEGER,
    static_slots_req INTEGER,
    onboard_slots_req INTEGER,
    allocated_p1 TEXT, allocated_p2 TEXT, allocated_p3 TEXT,
    allocated_p4 TEXT, allocated_p5 TEXT, allocated_p6 TEXT,
    Area_type TEXT)`); err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO stations (name, latitude, longitude, safe_radius_km, status, allocated_frequency)
VALUES ('HYDERABAD_TWR', 17.23, 78.43, 60.0, 'approved', 2)`); err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}
	db.Close()

	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open legacy: %v", err)
	}
	defer s.Close()
	cols, err := columns(context.Background(), s.db)
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	for _, c := range lateColumns {
		if !cols[c] {
			t.Fatalf("column %s missing after migration: %v", c, cols)
		}
	}
	got, err := s.Get(context.Background(), "HYDERABAD_TWR")
	if err != nil || got.Frequency != 2 || got.KavachID != "" {
		t.Fatalf("legacy row = %+v, %v", got, err)
	}
}

const lookup = `{
  "37023": {"name": "LC.563", "latitude": "28.7041", "longitude": 77.1025, "zone": "NR", "code": "LC563"},
  "37024": {"name": "Rundhi", "latitude": 29.0461, "longitude": "76.90725", "code": "RUND"}
}`

func TestImportLookupIsIdempotent(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	res, err := s.ImportLookup(ctx, strings.NewReader(lookup), 25)
	if err != nil {
		t.Fatalf("ImportLookup: %v", err)
	}
	if res.Inserted != 2 || res.Skipped != 0 {
		t.Fatalf("first import = %+v", res)
	}
	res, err = s.ImportLookup(ctx, strings.NewReader(lookup), 25)
	if err != nil {
		t.Fatalf("second ImportLookup: %v", err)
	}
	if res.Inserted != 0 || res.Skipped != 2 {
		t.Fatalf("second import = %+v", res)
	}

	got, err := s.Get(ctx, "Rundhi")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.KavachID != "37024" || got.AreaType != "Unknown" || got.SafeRadiusKm != 25 ||
		got.Timeslot != DefaultTimeslot || got.Longitude != 76.90725 || got.Frequency != model.Unallocated {
		t.Fatalf("imported row = %+v", got)
	}
}

func TestImportLookupRejectsBadCoordinates(t *testing.T) {
	s, _ := openTemp(t)
	_, err := s.ImportLookup(context.Background(), strings.NewReader(`{"1": {"name": "x", "latitude": "north"}}`), 25)
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if all, _ := s.List(context.Background()); len(all) != 0 {
		t.Fatalf("failed import left rows behind")
	}
}

func TestExport(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	var buf bytes.Buffer
	if err := s.Export(ctx, &buf); err != nil {
		t.Fatalf("Export empty: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("empty export = %q", buf.String())
	}

	_ = s.Add(ctx, secunderabad())
	buf.Reset()
	if err := s.Export(ctx, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	var rows []Station
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if len(rows) != 1 || rows[0].StationCode != "SC-TWR" {
		t.Fatalf("export rows = %+v", rows)
	}
}

func TestRecordAllocations(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	results := []model.AllocationResult{
		{
			Station: "LC.563", StationCode: "LC563", KavachID: "37023", Latitude: 28.7041, Longitude: 77.1025,
			StaticProfile: 4, SafeRadiusKm: 12, Frequency: 1, TxWindow: "P2-P14",
			OnboardSlotsRequested: 10, P1: []string{"P16", "P18"}, P3: []string{"P20"},
		},
		{Station: "left out", FailureKind: model.FailureCapacity},
	}
	n, err := s.RecordAllocations(ctx, results)
	if err != nil {
		t.Fatalf("RecordAllocations: %v", err)
	}
	if n != 1 {
		t.Fatalf("recorded %d rows, want 1", n)
	}
	got, err := s.Get(ctx, "LC.563")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusApproved || got.Frequency != 1 || got.Tiers[0] != "P16, P18" || got.Tiers[2] != "P20" || got.Timeslot != "P2-P14" {
		t.Fatalf("recorded row = %+v", got)
	}
	approved, _ := s.ListApproved(ctx)
	if len(approved) != 1 || approved[0].KavachID != "37023" {
		t.Fatalf("ListApproved = %+v", approved)
	}
}

func TestSuggest(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	for _, name := range []string{"Rundhi", "Hodal", "Mathura Jn", "Sholanka"} {
		_ = s.Add(ctx, Station{Name: name, Latitude: 28, Longitude: 77, SafeRadiusKm: 12, Status: StatusApproved})
	}
	got, err := s.Suggest(ctx, "rundi")
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Rundhi"}) {
		t.Fatalf("Suggest(rundi) = %v", got)
	}
	if got := closestNames("", []string{"a"}); got != nil {
		t.Fatalf("empty subject should yield nil, got %v", got)
	}
	if got := closestNames("zzzzzz", []string{"Hodal"}); len(got) != 0 {
		t.Fatalf("distant names should not be suggested, got %v", got)
	}
}
