// Package store persists approved stations to SQLite. The schema mirrors the
// planning tool's legacy stations table so existing databases open in place.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/signalsfoundry/kavach-slot-planner/kb"
	"github.com/signalsfoundry/kavach-slot-planner/model"
)

// Errors shared with the in-memory knowledge base.
var (
	ErrStationExists   = kb.ErrStationExists
	ErrStationNotFound = kb.ErrStationNotFound
	ErrInvalidStation  = kb.ErrInvalidStation
)

// Station statuses.
const (
	StatusApproved = "approved"
	StatusPending  = "pending"
)

// DefaultTimeslot is written for imported stations that have no stationary
// block yet.
const DefaultTimeslot = "2-45"

// Station is one row of the stations table.
type Station struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	Latitude        float64           `json:"latitude"`
	Longitude       float64           `json:"longitude"`
	SafeRadiusKm    float64           `json:"safe_radius_km"`
	Status          string            `json:"status"`
	Frequency       model.FrequencyID `json:"allocated_frequency,omitempty"`
	StaticSlotsReq  int               `json:"static_slots_req,omitempty"`
	OnboardSlotsReq int               `json:"onboard_slots_req,omitempty"`
	// Tiers holds the comma-separated P1..P6 labels.
	Tiers       [6]string `json:"allocated_tiers"`
	Timeslot    string    `json:"timeslot,omitempty"`
	AreaType    string    `json:"area_type,omitempty"`
	KavachID    string    `json:"skac_id,omitempty"`
	StationCode string    `json:"station_code,omitempty"`
}

// Approved converts the row into the allocator's read-only record.
func (s Station) Approved() model.ApprovedStation {
	return model.ApprovedStation{
		Name:         s.Name,
		StationCode:  s.StationCode,
		KavachID:     s.KavachID,
		Latitude:     s.Latitude,
		Longitude:    s.Longitude,
		SafeRadiusKm: s.SafeRadiusKm,
		Frequency:    s.Frequency,
	}
}

func (s Station) validate() error {
	if err := s.Approved().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStation, err)
	}
	switch s.Status {
	case StatusApproved, StatusPending:
	default:
		return fmt.Errorf("%w: station %q has unknown status %q", ErrInvalidStation, s.Name, s.Status)
	}
	return nil
}

// Store wraps the SQLite database of approved stations.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path, creating the stations table
// and adding any columns a legacy table lacks.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS stations (
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
    timeslot TEXT,
    area_type TEXT,
    skac_id TEXT,
    station_code TEXT
);`

// lateColumns were added after the first schema; older databases lack them.
var lateColumns = []string{"timeslot", "area_type", "skac_id", "station_code"}

func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}
	existing, err := columns(ctx, db)
	if err != nil {
		return err
	}
	for _, col := range lateColumns {
		if existing[col] {
			continue
		}
		if _, err := db.ExecContext(ctx, "ALTER TABLE stations ADD COLUMN "+col+" TEXT"); err != nil {
			return fmt.Errorf("store: add column %s: %w", col, err)
		}
	}
	return nil
}

// columns returns the lower-cased column names of the stations table.
func columns(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info(stations)")
	if err != nil {
		return nil, fmt.Errorf("store: table info: %w", err)
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("store: scan table info: %w", err)
		}
		out[strings.ToLower(name)] = true
	}
	return out, rows.Err()
}

const selectColumns = `id, name, latitude, longitude, safe_radius_km, status,
    allocated_frequency, static_slots_req, onboard_slots_req,
    allocated_p1, allocated_p2, allocated_p3, allocated_p4, allocated_p5, allocated_p6,
    timeslot, area_type, skac_id, station_code`

type scanner interface {
	Scan(dest ...any) error
}

func scanStation(row scanner) (Station, error) {
	var (
		s                  Station
		freq, static, onb  sql.NullInt64
		tiers              [6]sql.NullString
		slot, area, id, sc sql.NullString
	)
	err := row.Scan(&s.ID, &s.Name, &s.Latitude, &s.Longitude, &s.SafeRadiusKm, &s.Status,
		&freq, &static, &onb,
		&tiers[0], &tiers[1], &tiers[2], &tiers[3], &tiers[4], &tiers[5],
		&slot, &area, &id, &sc)
	if err != nil {
		return Station{}, err
	}
	s.Frequency = model.FrequencyID(freq.Int64)
	s.StaticSlotsReq = int(static.Int64)
	s.OnboardSlotsReq = int(onb.Int64)
	for i, t := range tiers {
		s.Tiers[i] = t.String
	}
	s.Timeslot, s.AreaType, s.KavachID, s.StationCode = slot.String, area.String, id.String, sc.String
	return s, nil
}

func (s *Store) query(ctx context.Context, where string, args ...any) ([]Station, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+selectColumns+" FROM stations "+where+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("store: query stations: %w", err)
	}
	defer rows.Close()
	var out []Station
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan station: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// List returns every station in insertion order.
func (s *Store) List(ctx context.Context) ([]Station, error) {
	return s.query(ctx, "")
}

// ListApproved returns approved stations that hold a frequency, in insertion
// order. This is the snapshot an allocation run checks against.
func (s *Store) ListApproved(ctx context.Context) ([]model.ApprovedStation, error) {
	rows, err := s.query(ctx, "WHERE status = ? AND allocated_frequency > 0", StatusApproved)
	if err != nil {
		return nil, err
	}
	out := make([]model.ApprovedStation, 0, len(rows))
	for _, st := range rows {
		out = append(out, st.Approved())
	}
	return out, nil
}

// Get returns the station with the given name.
func (s *Store) Get(ctx context.Context, name string) (Station, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM stations WHERE name = ?", strings.TrimSpace(name))
	st, err := scanStation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Station{}, fmt.Errorf("%w: %q", ErrStationNotFound, name)
	}
	if err != nil {
		return Station{}, fmt.Errorf("store: get %q: %w", name, err)
	}
	return st, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func stationArgs(st Station) []any {
	return []any{
		st.Name, st.Latitude, st.Longitude, st.SafeRadiusKm, st.Status,
		nullFrequency(st.Frequency), st.StaticSlotsReq, st.OnboardSlotsReq,
		st.Tiers[0], st.Tiers[1], st.Tiers[2], st.Tiers[3], st.Tiers[4], st.Tiers[5],
		st.Timeslot, st.AreaType, st.KavachID, st.StationCode,
	}
}

const insertColumns = `name, latitude, longitude, safe_radius_km, status,
    allocated_frequency, static_slots_req, onboard_slots_req,
    allocated_p1, allocated_p2, allocated_p3, allocated_p4, allocated_p5, allocated_p6,
    timeslot, area_type, skac_id, station_code`

const placeholders = `?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?`

// Add inserts a new station.
func (s *Store) Add(ctx context.Context, st Station) error {
	st.Name = strings.TrimSpace(st.Name)
	if err := st.validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO stations ("+insertColumns+") VALUES ("+placeholders+") ON CONFLICT(name) DO NOTHING",
		stationArgs(st)...)
	if err != nil {
		return fmt.Errorf("store: add %q: %w", st.Name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrStationExists, st.Name)
	}
	return nil
}

// Upsert inserts st or replaces the row with the same name.
func (s *Store) Upsert(ctx context.Context, st Station) error {
	st.Name = strings.TrimSpace(st.Name)
	if err := st.validate(); err != nil {
		return err
	}
	return upsert(ctx, s.db, st)
}

func upsert(ctx context.Context, db execer, st Station) error {
	_, err := db.ExecContext(ctx, "INSERT INTO stations ("+insertColumns+") VALUES ("+placeholders+`)
ON CONFLICT(name) DO UPDATE SET
    latitude = excluded.latitude,
    longitude = excluded.longitude,
    safe_radius_km = excluded.safe_radius_km,
    status = excluded.status,
    allocated_frequency = excluded.allocated_frequency,
    static_slots_req = excluded.static_slots_req,
    onboard_slots_req = excluded.onboard_slots_req,
    allocated_p1 = excluded.allocated_p1,
    allocated_p2 = excluded.allocated_p2,
    allocated_p3 = excluded.allocated_p3,
    allocated_p4 = excluded.allocated_p4,
    allocated_p5 = excluded.allocated_p5,
    allocated_p6 = excluded.allocated_p6,
    timeslot = excluded.timeslot,
    area_type = excluded.area_type,
    skac_id = excluded.skac_id,
    station_code = excluded.station_code`, stationArgs(st)...)
	if err != nil {
		return fmt.Errorf("store: upsert %q: %w", st.Name, err)
	}
	return nil
}

// RecordAllocations stores every allocated result as an approved station so
// later runs treat it as an existing co-frequency neighbour. Unallocated
// results are skipped. It returns the number of rows written.
func (s *Store) RecordAllocations(ctx context.Context, results []model.AllocationResult) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	n := 0
	for _, r := range results {
		if !r.Allocated() {
			continue
		}
		st := Station{
			Name:            strings.TrimSpace(r.Station),
			Latitude:        r.Latitude,
			Longitude:       r.Longitude,
			SafeRadiusKm:    r.SafeRadiusKm,
			Status:          StatusApproved,
			Frequency:       r.Frequency,
			StaticSlotsReq:  r.StaticProfile,
			OnboardSlotsReq: r.OnboardSlotsRequested,
			Timeslot:        r.TxWindow,
			KavachID:        r.KavachID,
			StationCode:     r.StationCode,
		}
		for i, t := range model.Tiers {
			st.Tiers[i] = strings.Join(r.TierLabels(t), ", ")
		}
		if err := st.validate(); err != nil {
			return 0, err
		}
		if err := upsert(ctx, tx, st); err != nil {
			return 0, err
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return n, nil
}

func nullFrequency(f model.FrequencyID) any {
	if !f.IsAllocated() {
		return nil
	}
	return int64(f)
}
