package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/odefit/internal/experiment"
)

// Viewer is a Bubble Tea model that shows one scheme at a time against the
// reference.
type Viewer struct {
	report        *experiment.Report
	cursor        int
	showAll       bool
	width, height int
}

func NewViewer(r *experiment.Report) Viewer {
	return Viewer{report: r, width: 80, height: 24}
}

func (v Viewer) Init() tea.Cmd { return nil }

func (v Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
	}
	return v, nil
}

func (v Viewer) handleKey(msg tea.KeyMsg) (Viewer, tea.Cmd) {
	n := len(v.report.Schemes)
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return v, tea.Quit
	case "tab", "right", "l":
		if n > 0 {
			v.cursor = (v.cursor + 1) % n
		}
	case "shift+tab", "left", "h":
		if n > 0 {
			v.cursor = (v.cursor - 1 + n) % n
		}
	case "a":
		v.showAll = !v.showAll
	}
	return v, nil
}

// Selected is the scheme currently in focus.
func (v Viewer) Selected() string {
	if len(v.report.Schemes) == 0 {
		return ""
	}
	return v.report.Schemes[v.cursor].Scheme
}

func (v Viewer) View() string {
	var b strings.Builder

	tabs := make([]string, 0, len(v.report.Schemes))
	for i, s := range v.report.Schemes {
		label := SchemeLabel(s.Scheme)
		if i == v.cursor && !v.showAll {
			tabs = append(tabs, NeonGlow.Render("▸ "+label))
		} else {
			tabs = append(tabs, Subtle.Render("  "+label))
		}
	}
	b.WriteString(HeaderStyle.Render(strings.Join(tabs, "   ")))
	b.WriteString("\n\n")

	opts := PlotOptions{
		Width:  max(v.width-12, 20),
		Height: max(v.height-16, 5),
	}
	if !v.showAll {
		opts.Schemes = []string{v.Selected()}
	}
	b.WriteString(Plot(v.report, opts))
	b.WriteString("\n")
	b.WriteString(Separator(max(v.width-4, 8)))
	b.WriteString("\n")
	b.WriteString(Summary(v.report))
	b.WriteString("\n")
	b.WriteString(KeyHint.Render(fmt.Sprintf("tab next  shift+tab prev  a %s  q quit", v.allLabel())))
	b.WriteString("\n")
	return b.String()
}

func (v Viewer) allLabel() string {
	if v.showAll {
		return "single"
	}
	return "all"
}

// RunViewer blocks until the user quits the viewer.
func RunViewer(r *experiment.Report) error {
	_, err := tea.NewProgram(NewViewer(r), tea.WithAltScreen()).Run()
	return err
}
