package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/odefit/internal/experiment"
)

var schemeLabels = map[string]string{
	experiment.SchemeEuler: "Euler",
	experiment.SchemeRK2:   "RK2 (Heun)",
	"heun":                 "RK2 (Heun)",
	experiment.SchemeRK4:   "RK4",
}

// SchemeLabel is the display name of a scheme.
func SchemeLabel(name string) string {
	if l, ok := schemeLabels[name]; ok {
		return l
	}
	return name
}

// Legend formats a scheme result as "Euler, k = 0.5127, SSE = 1.2e-09".
func Legend(s experiment.SchemeResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, k = %.4f", SchemeLabel(s.Scheme), s.K)
	if s.HasSSE {
		fmt.Fprintf(&b, ", SSE = %.3g", s.SSE)
	}
	return b.String()
}

// Summary renders one row per scheme inside a panel.
func Summary(r *experiment.Report) string {
	var b strings.Builder

	title := r.Meta.Title
	if title == "" {
		title = "fit"
	}
	b.WriteString(GradientTitle.Render(title))
	b.WriteString(Subtle.Render(fmt.Sprintf("  (%s, h=%g, n=%d)", r.Mode, r.Grid.Step, r.Grid.Count)))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s  %s  %s  %s\n",
		MetricLabel.Render(fmt.Sprintf("%-12s", "scheme")),
		MetricLabel.Render(fmt.Sprintf("%12s", "k")),
		MetricLabel.Render(fmt.Sprintf("%12s", "sse")),
		MetricLabel.Render(fmt.Sprintf("%12s", "y(end)")),
	)

	for _, s := range r.Schemes {
		sse := "-"
		if s.HasSSE {
			sse = fmt.Sprintf("%.4e", s.SSE)
		}
		fmt.Fprintf(&b, "%-12s  %s  %s  %s",
			SchemeLabel(s.Scheme),
			MetricValue.Render(fmt.Sprintf("%12.6f", s.K)),
			MetricValue.Render(fmt.Sprintf("%12s", sse)),
			MetricValue.Render(fmt.Sprintf("%12.6f", s.Trajectory.Last())),
		)
		if s.Fit != nil && !s.Fit.Converged {
			b.WriteString("  " + Warning.Render(s.Fit.Status))
		}
		b.WriteString("\n")
	}

	return GlassPanel.Render(strings.TrimRight(b.String(), "\n"))
}
