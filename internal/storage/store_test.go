package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/dpsim/internal/analysis"
	"github.com/san-kum/dpsim/internal/series"
)

func sampleRun() Run {
	return Run{
		Meta: RunMetadata{
			Preset:    "test",
			Duration:  0.02,
			Params:    map[string]float64{"m1": 1.5},
			InitState: []float64{0.1, 0, 0.2, 0},
			Metrics:   map[string]float64{"energy_drift": 1e-12},
		},
		History: analysis.Table{
			analysis.Theta1:          {{T: 0, V: 0.1}, {T: 0.01, V: 0.1 + 1e-17}},
			analysis.Omega1:          {{T: 0, V: 0}, {T: 0.01, V: -0.05}},
			analysis.Theta2:          {{T: 0, V: 0.2}, {T: 0.01, V: 0.19}},
			analysis.Omega2:          {{T: 0, V: 0}, {T: 0.01, V: 0.3}},
			analysis.KineticEnergy:   {{T: 0, V: 0}, {T: 0.01, V: 0.001}},
			analysis.PotentialEnergy: {{T: 0, V: -40}, {T: 0.01, V: -40.001}},
			analysis.TotalEnergy:     {{T: 0, V: -40}, {T: 0.01, V: -40}},
		},
		Poincare: []series.Vec2{{X: 0.2, Y: -1.25}},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	run := sampleRun()
	runID, err := st.Save(run)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Preset != "test" {
		t.Errorf("expected preset 'test', got '%s'", meta.Preset)
	}

	if meta.Params["m1"] != 1.5 {
		t.Errorf("expected m1 1.5, got %f", meta.Params["m1"])
	}

	if meta.Crossings != 1 {
		t.Errorf("expected 1 crossing, got %d", meta.Crossings)
	}

	table, err := st.LoadHistory(runID)
	if err != nil {
		t.Fatalf("load history failed: %v", err)
	}

	for _, s := range analysis.AllSeries {
		want := analysis.Raw(run.History, s)
		got := table[s]
		if len(got) != len(want) {
			t.Fatalf("%s: expected %d samples, got %d", s, len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s[%d]: expected %v, got %v", s, i, want[i], got[i])
			}
		}
	}

	pts, err := st.LoadPoincare(runID)
	if err != nil {
		t.Fatalf("load poincare failed: %v", err)
	}
	if len(pts) != 1 || pts[0] != run.Poincare[0] {
		t.Errorf("unexpected poincare samples %v", pts)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	clock := time.Unix(1700000000, 0)
	st.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	first, err := st.Save(sampleRun())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := st.Save(sampleRun())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first || runs[1].ID != second {
		t.Errorf("expected runs in save order, got %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(sampleRun())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "history.csv", "poincare.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestStoreLoadMissing(t *testing.T) {
	st := New(t.TempDir())

	if _, err := st.Load("nope"); err == nil {
		t.Error("expected error for missing run")
	}
	if _, err := st.LoadHistory("nope"); err == nil {
		t.Error("expected error for missing history")
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, sampleRun()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}

	if len(data.Times) != 2 {
		t.Errorf("expected 2 times, got %d", len(data.Times))
	}
	if len(data.Series) != 7 {
		t.Errorf("expected 7 series, got %d", len(data.Series))
	}
	if data.Series["omega2"][1] != 0.3 {
		t.Errorf("expected omega2 0.3, got %v", data.Series["omega2"])
	}
	if len(data.Poincare) != 1 {
		t.Errorf("expected 1 poincare sample, got %d", len(data.Poincare))
	}
}
