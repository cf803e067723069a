package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/dpsim/internal/analysis"
	"github.com/san-kum/dpsim/internal/series"
)

const (
	metadataFile = "metadata.json"
	historyFile  = "history.csv"
	poincareFile = "poincare.csv"
)

var historyHeader = []string{"time", "theta1", "omega1", "theta2", "omega2", "kinetic", "potential", "total"}

// historyColumns maps CSV columns after "time" to series.
var historyColumns = []analysis.SeriesType{
	analysis.Theta1, analysis.Omega1, analysis.Theta2, analysis.Omega2,
	analysis.KineticEnergy, analysis.PotentialEnergy, analysis.TotalEnergy,
}

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID            string             `json:"id"`
	Preset        string             `json:"preset"`
	Timestamp     time.Time          `json:"timestamp"`
	Duration      float64            `json:"duration"`
	FPS           int                `json:"fps"`
	Speed         float64            `json:"speed"`
	Deterministic bool               `json:"deterministic"`
	Params        map[string]float64 `json:"params"`
	InitState     []float64          `json:"init_state"`
	Steps         int                `json:"steps"`
	SimTime       float64            `json:"sim_time"`
	Failed        bool               `json:"failed"`
	Error         string             `json:"error,omitempty"`
	Crossings     int                `json:"crossings"`
	Metrics       map[string]float64 `json:"metrics"`
}

// Run is everything persisted for one simulation.
type Run struct {
	Meta     RunMetadata
	History  analysis.Source
	Poincare []series.Vec2
}

// Save writes the run under a new directory and returns its ID.
func (s *Store) Save(run Run) (string, error) {
	meta := run.Meta
	meta.Timestamp = s.now()
	name := meta.Preset
	if name == "" {
		name = "run"
	}
	meta.ID = fmt.Sprintf("%s_%d", name, meta.Timestamp.UnixMilli())
	meta.Crossings = len(run.Poincare)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := SaveText(filepath.Join(runDir, metadataFile), string(data)+"\n"); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := WriteHistoryCSV(&buf, run.History); err != nil {
		return "", err
	}
	if err := SaveText(filepath.Join(runDir, historyFile), buf.String()); err != nil {
		return "", err
	}

	buf.Reset()
	if err := WritePoincareCSV(&buf, run.Poincare); err != nil {
		return "", err
	}
	if err := SaveText(filepath.Join(runDir, poincareFile), buf.String()); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadHistory reads the recorded channels of a run.
func (s *Store) LoadHistory(runID string) (analysis.Table, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, historyFile))
	if err != nil {
		return nil, err
	}

	table := analysis.Table{}
	for _, st := range historyColumns {
		table[st] = make([]series.Point, 0, len(records))
	}
	for line, record := range records {
		if len(record) != len(historyHeader) {
			return nil, fmt.Errorf("%s line %d: want %d fields, got %d", historyFile, line+2, len(historyHeader), len(record))
		}
		vals, err := parseFloats(record)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", historyFile, line+2, err)
		}
		for i, st := range historyColumns {
			table[st] = append(table[st], series.Point{T: vals[0], V: vals[i+1]})
		}
	}
	return table, nil
}

func (s *Store) LoadPoincare(runID string) ([]series.Vec2, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, poincareFile))
	if err != nil {
		return nil, err
	}

	pts := make([]series.Vec2, 0, len(records))
	for line, record := range records {
		vals, err := parseFloats(record)
		if err != nil || len(vals) != 2 {
			return nil, fmt.Errorf("%s line %d: malformed sample", poincareFile, line+2)
		}
		pts = append(pts, series.Vec2{X: vals[0], Y: vals[1]})
	}
	return pts, nil
}

// readCSV returns the records after the header.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}

func parseFloats(record []string) ([]float64, error) {
	vals := make([]float64, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
