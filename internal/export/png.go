package export

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/odefit/internal/experiment"
	"github.com/san-kum/odefit/internal/viz"
)

// Figure sizes in inches.
type FigureOptions struct {
	Width  float64
	Height float64
	DPI    int
}

func DefaultFigureOptions() FigureOptions {
	return FigureOptions{Width: 8, Height: 5, DPI: 150}
}

// Figure builds a plot of every scheme trajectory over the coarse grid and
// the dense reference, when present, as a dashed line.
func Figure(r *experiment.Report) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = r.Meta.Title
	p.X.Label.Text = r.Meta.XLabel
	p.Y.Label.Text = r.Meta.YLabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = true

	if r.Reference != nil {
		line, err := plotter.NewLine(points(r.Reference.Times, r.Reference.Values))
		if err != nil {
			return nil, fmt.Errorf("reference line: %w", err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		line.LineStyle.Color = plotutil.Color(len(r.Schemes))
		p.Add(line)
		p.Legend.Add("reference", line)
	}

	for i, s := range r.Schemes {
		line, scatter, err := plotter.NewLinePoints(points(r.Times, s.Trajectory))
		if err != nil {
			return nil, fmt.Errorf("%s line: %w", s.Scheme, err)
		}
		line.LineStyle.Width = vg.Points(1)
		line.LineStyle.Color = plotutil.Color(i)
		scatter.Shape = plotutil.Shape(i)
		scatter.Color = plotutil.Color(i)
		scatter.Radius = vg.Points(2)
		p.Add(line, scatter)
		p.Legend.Add(viz.Legend(s), line, scatter)
	}

	return p, nil
}

// WritePNG renders the report figure as PNG to w.
func WritePNG(w io.Writer, r *experiment.Report, opts FigureOptions) error {
	p, err := Figure(r)
	if err != nil {
		return err
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opts.Width)*vg.Inch, vg.Length(opts.Height)*vg.Inch),
		vgimg.UseDPI(opts.DPI),
	)
	p.Draw(draw.New(c))

	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// SavePNG writes the report figure to path, creating parent directories.
func SavePNG(path string, r *experiment.Report, opts FigureOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := WritePNG(bw, r, opts); err != nil {
		return err
	}
	return bw.Flush()
}

// points pairs xs with ys, dropping samples plotter cannot draw. A diverged
// trajectory keeps its finite prefix.
func points(xs, ys []float64) plotter.XYs {
	n := min(len(xs), len(ys))
	pts := make(plotter.XYs, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	return pts
}
