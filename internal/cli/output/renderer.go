package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/fzdarsky/portalpass/internal/orchestrator"
)

// Renderer prints orchestrator events, colored by severity.
type Renderer struct {
	out    io.Writer
	colors map[orchestrator.Severity]*color.Color
	// lastStatus suppresses repeated identical status lines.
	lastStatus string
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer, noColor bool) *Renderer {
	colors := map[orchestrator.Severity]*color.Color{
		orchestrator.SeverityInfo:    color.New(color.FgCyan),
		orchestrator.SeveritySuccess: color.New(color.FgGreen, color.Bold),
		orchestrator.SeverityWarning: color.New(color.FgYellow),
		orchestrator.SeverityError:   color.New(color.FgRed, color.Bold),
	}
	// Without --no-color, fatih/color decides from NO_COLOR and the terminal.
	if noColor {
		for _, c := range colors {
			c.DisableColor()
		}
	}

	return &Renderer{out: out, colors: colors}
}

// Render prints one event. Done events are not printed; callers read their
// outcome instead.
func (r *Renderer) Render(e orchestrator.Event) {
	switch e.Kind {
	case orchestrator.EventStatus:
		if e.Text == r.lastStatus {
			return
		}
		r.lastStatus = e.Text
		r.line(e.Severity, "status", e.Text)
	case orchestrator.EventNotification:
		r.line(e.Severity, string(e.Severity), e.Text)
	case orchestrator.EventOpenNetworkSettings:
		r.line(orchestrator.SeverityWarning, "network", "open your network settings and connect to the right network")
	case orchestrator.EventDone:
	}
}

func (r *Renderer) line(severity orchestrator.Severity, label, text string) {
	c, ok := r.colors[severity]
	if !ok {
		c = r.colors[orchestrator.SeverityInfo]
	}
	fmt.Fprintf(r.out, "%s %s\n", c.Sprintf("[%s]", label), text)
}
