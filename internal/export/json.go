package export

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/san-kum/odefit/internal/experiment"
	"github.com/san-kum/odefit/internal/metrics"
)

type SchemeData struct {
	Scheme     string     `json:"scheme"`
	K          float64    `json:"k"`
	Final      *float64   `json:"final"`
	SSE        *float64   `json:"sse,omitempty"`
	RMSE       *float64   `json:"rmse,omitempty"`
	MaxAbs     *float64   `json:"max_abs,omitempty"`
	Iterations int        `json:"iterations,omitempty"`
	Status     string     `json:"status,omitempty"`
	Converged  *bool      `json:"converged,omitempty"`
	Trajectory []*float64 `json:"trajectory"`
}

type ReferenceData struct {
	Step   float64    `json:"step"`
	Count  int        `json:"count"`
	Times  []float64  `json:"times"`
	Values []*float64 `json:"values"`
}

type ExportData struct {
	Title     string         `json:"title,omitempty"`
	Mode      string         `json:"mode"`
	YInitial  float64        `json:"y_initial"`
	KInitial  float64        `json:"k_initial"`
	StepSize  float64        `json:"step_size"`
	StepCount int            `json:"step_count"`
	Times     []float64      `json:"times"`
	Schemes   []SchemeData   `json:"schemes"`
	Reference *ReferenceData `json:"reference,omitempty"`
}

// NewExportData flattens a report. Non-finite samples become null because
// JSON has no representation for them.
func NewExportData(r *experiment.Report) ExportData {
	data := ExportData{
		Title:     r.Meta.Title,
		Mode:      r.Mode,
		YInitial:  r.YInitial,
		KInitial:  r.KInitial,
		StepSize:  r.Grid.Step,
		StepCount: r.Grid.Count,
		Times:     r.Times,
		Schemes:   make([]SchemeData, len(r.Schemes)),
	}

	if r.Reference != nil {
		data.Reference = &ReferenceData{
			Step:   r.Reference.Grid.Step,
			Count:  r.Reference.Grid.Count,
			Times:  r.Reference.Times,
			Values: nullable(r.Reference.Values),
		}
	}

	for i, s := range r.Schemes {
		sd := SchemeData{
			Scheme:     s.Scheme,
			K:          s.K,
			Final:      finite(s.Trajectory.Last()),
			Trajectory: nullable(s.Trajectory),
		}
		if s.HasSSE {
			sd.SSE = finite(s.SSE)
		}
		if r.Target != nil {
			sd.RMSE = finite(metrics.RMSE(s.Trajectory, r.Target))
			sd.MaxAbs = finite(metrics.MaxAbs(s.Trajectory, r.Target))
		}
		if s.Fit != nil {
			converged := s.Fit.Converged
			sd.Iterations = s.Fit.Iterations
			sd.Status = s.Fit.Status
			sd.Converged = &converged
		}
		data.Schemes[i] = sd
	}

	return data
}

func WriteJSON(w io.Writer, r *experiment.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(r))
}

func SaveJSON(path string, r *experiment.Report) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, r)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nullable(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = finite(v)
	}
	return out
}
