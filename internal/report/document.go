package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/signalsfoundry/kavach-slot-planner/internal/runner"
	"github.com/signalsfoundry/kavach-slot-planner/model"
)

// Output file names inside the report directory.
const (
	DetailsFile  = "slot_allocation.csv"
	DocumentFile = "slot_allocation.json"
	MatrixFile   = "slot_matrix.txt"
)

// Document is the JSON form of a run.
type Document struct {
	RunID       string                   `json:"run_id"`
	GeneratedAt time.Time                `json:"generated_at"`
	Fingerprint string                   `json:"fingerprint"`
	Stations    int                      `json:"stations"`
	Approved    int                      `json:"approved"`
	Allocated   int                      `json:"allocated"`
	Unallocated int                      `json:"unallocated"`
	Invalid     int                      `json:"invalid"`
	DurationMs  float64                  `json:"duration_ms"`
	Results     []model.AllocationResult `json:"results"`
}

// NewDocument captures rep at time now.
func NewDocument(rep *runner.Report, now time.Time) Document {
	results := rep.Results
	if results == nil {
		results = []model.AllocationResult{}
	}
	return Document{
		RunID:       rep.RunID,
		GeneratedAt: now.UTC(),
		Fingerprint: rep.Fingerprint,
		Stations:    len(rep.Results),
		Approved:    rep.Approved,
		Allocated:   rep.Allocated,
		Unallocated: rep.Unallocated,
		Invalid:     rep.Invalid,
		DurationMs:  float64(rep.Duration.Microseconds()) / 1000,
		Results:     results,
	}
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// Formats selects which files WriteFiles produces.
type Formats struct {
	Matrix bool
	CSV    bool
	JSON   bool
}

// WriteFiles writes the selected outputs of rep into dir, creating it if
// needed, and returns the paths written.
func WriteFiles(dir string, rep *runner.Report, formats Formats, now time.Time) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	var written []string
	write := func(name string, fn func(io.Writer) error) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}
	if formats.Matrix {
		if err := write(MatrixFile, func(w io.Writer) error {
			return Matrix(w, rep.Results, MatrixOptions{})
		}); err != nil {
			return written, err
		}
	}
	if formats.CSV {
		if err := write(DetailsFile, func(w io.Writer) error {
			return WriteDetails(w, rep.Results)
		}); err != nil {
			return written, err
		}
	}
	if formats.JSON {
		if err := write(DocumentFile, func(w io.Writer) error {
			return WriteJSON(w, NewDocument(rep, now))
		}); err != nil {
			return written, err
		}
	}
	return written, nil
}
