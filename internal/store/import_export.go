package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// lookupEntry is one value of the Kavach ID keyed lookup file.
type lookupEntry struct {
	Name      string    `json:"name"`
	Latitude  flexFloat `json:"latitude"`
	Longitude flexFloat `json:"longitude"`
	Zone      string    `json:"zone"`
	Code      string    `json:"code"`
}

// flexFloat accepts both JSON numbers and numeric strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid coordinate %q: %w", s, err)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// ImportResult counts the outcome of an import.
type ImportResult struct {
	Inserted int
	Skipped  int
}

// ImportLookup reads a JSON object keyed by Kavach ID and inserts each entry
// as an approved station without a frequency. Names already present are
// skipped, so importing the same file twice inserts nothing the second time.
func (s *Store) ImportLookup(ctx context.Context, r io.Reader, defaultRadiusKm float64) (ImportResult, error) {
	var entries map[string]lookupEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return ImportResult{}, fmt.Errorf("store: decode lookup: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	var res ImportResult
	for _, id := range ids {
		e := entries[id]
		zone := e.Zone
		if zone == "" {
			zone = "Unknown"
		}
		st := Station{
			Name:         strings.TrimSpace(e.Name),
			Latitude:     float64(e.Latitude),
			Longitude:    float64(e.Longitude),
			SafeRadiusKm: defaultRadiusKm,
			Status:       StatusApproved,
			Timeslot:     DefaultTimeslot,
			AreaType:     zone,
			KavachID:     id,
			StationCode:  e.Code,
		}
		if err := st.validate(); err != nil {
			return ImportResult{}, fmt.Errorf("store: import %s: %w", id, err)
		}
		out, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO stations ("+insertColumns+") VALUES ("+placeholders+")",
			stationArgs(st)...)
		if err != nil {
			return ImportResult{}, fmt.Errorf("store: import %s: %w", id, err)
		}
		if n, _ := out.RowsAffected(); n > 0 {
			res.Inserted++
		} else {
			res.Skipped++
		}
	}
	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("store: commit: %w", err)
	}
	return res, nil
}

// Export writes every station as an indented JSON array.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	stations, err := s.List(ctx)
	if err != nil {
		return err
	}
	if stations == nil {
		stations = []Station{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stations); err != nil {
		return fmt.Errorf("store: encode export: %w", err)
	}
	return nil
}
