package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/odefit/internal/experiment"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Red,
	asciigraph.DodgerBlue,
	asciigraph.Gold,
	asciigraph.LimeGreen,
	asciigraph.Orchid,
}

type PlotOptions struct {
	Width  int
	Height int
	// Schemes restricts the chart to the named schemes; empty means all.
	Schemes []string
}

// Plot charts the selected scheme trajectories and, when present, the dense
// reference. The reference is always drawn first in white.
func Plot(r *experiment.Report, opts PlotOptions) string {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Height <= 0 {
		opts.Height = 15
	}

	var (
		data    [][]float64
		legends []string
		colors  []asciigraph.AnsiColor
	)

	if r.Reference != nil {
		data = append(data, plottable(r.Reference.Values))
		legends = append(legends, "reference")
		colors = append(colors, asciigraph.White)
	}

	for i, s := range r.Schemes {
		if !selected(s.Scheme, opts.Schemes) {
			continue
		}
		data = append(data, plottable(s.Trajectory))
		legends = append(legends, Legend(s))
		colors = append(colors, seriesColors[i%len(seriesColors)])
	}

	if len(data) == 0 {
		return ""
	}

	caption := r.Meta.Title
	if r.Meta.YLabel != "" || r.Meta.XLabel != "" {
		caption += " (" + r.Meta.YLabel + " vs " + r.Meta.XLabel + ")"
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
	)
}

func selected(name string, names []string) bool {
	if len(names) == 0 {
		return true
	}
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// plottable copies values, replacing infinities with NaN so the chart
// leaves a gap instead of collapsing its scale.
func plottable(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsInf(v, 0) {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}
