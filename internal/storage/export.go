package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/san-kum/dpsim/internal/analysis"
	"github.com/san-kum/dpsim/internal/series"
)

// WriteHistoryCSV writes one row per sample index. Every channel of a
// recorded history has the same length; shorter channels end the table.
func WriteHistoryCSV(w io.Writer, h analysis.Source) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(historyHeader); err != nil {
		return err
	}

	if h != nil {
		cols := make([][]series.Point, len(historyColumns))
		n := -1
		for i, st := range historyColumns {
			cols[i] = analysis.Raw(h, st)
			if n < 0 || len(cols[i]) < n {
				n = len(cols[i])
			}
		}

		row := make([]string, len(historyHeader))
		for i := 0; i < n; i++ {
			row[0] = formatFloat(cols[0][i].T)
			for j, col := range cols {
				row[j+1] = formatFloat(col[i].V)
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func WritePoincareCSV(w io.Writer, pts []series.Vec2) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"theta2", "omega2"}); err != nil {
		return err
	}
	for _, p := range pts {
		if err := cw.Write([]string{formatFloat(p.X), formatFloat(p.Y)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type ExportData struct {
	Meta     RunMetadata          `json:"meta"`
	Series   map[string][]float64 `json:"series"`
	Times    []float64            `json:"times"`
	Poincare [][2]float64         `json:"poincare"`
}

// ExportJSON writes a run as a single JSON document with raw (radian,
// relative theta2) channels.
func ExportJSON(w io.Writer, run Run) error {
	data := ExportData{
		Meta:     run.Meta,
		Series:   make(map[string][]float64, len(historyColumns)),
		Poincare: make([][2]float64, len(run.Poincare)),
	}

	if run.History != nil {
		for _, st := range historyColumns {
			pts := analysis.Raw(run.History, st)
			vals := make([]float64, len(pts))
			for i, p := range pts {
				vals[i] = p.V
			}
			data.Series[st.String()] = vals
			if data.Times == nil {
				data.Times = make([]float64, len(pts))
				for i, p := range pts {
					data.Times[i] = p.T
				}
			}
		}
	}
	for i, p := range run.Poincare {
		data.Poincare[i] = [2]float64{p.X, p.Y}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
