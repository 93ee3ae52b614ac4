// Package tui renders the event feed for terminals.
package tui

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/tether/pkg/domain"
)

// Renderer formats registry events as single lines, colored when stdout is
// a terminal.
type Renderer struct {
	profile termenv.Profile
	color   bool
}

func NewRenderer() *Renderer {
	return &Renderer{
		profile: termenv.ColorProfile(),
		color:   term.IsTerminal(int(os.Stdout.Fd())),
	}
}

var eventColors = map[domain.RegistryEventType]string{
	domain.EventTracked:    "#38bdf8",
	domain.EventSubscribed: "#a78bfa",
	domain.EventObserved:   "#60a5fa",
	domain.EventReleased:   "#fbbf24",
	domain.EventCollected:  "#f87171",
}

// Line renders one event.
func (r *Renderer) Line(ev domain.RegistryEvent) string {
	label := string(ev.Type)
	if r.color {
		if hex, ok := eventColors[ev.Type]; ok {
			label = termenv.String(label).Foreground(r.profile.Color(hex)).Bold().String()
		}
	}

	name := ev.Name
	if name == "" {
		name = fmt.Sprintf("object-%d", ev.ObjectID)
	}

	line := fmt.Sprintf("%s  %-12s %s", ev.At.Format("15:04:05.000"), label, name)
	if ev.Strategy != "" {
		line += fmt.Sprintf("  [%s]", ev.Strategy)
	}
	if path, ok := ev.Fields["path"]; ok {
		line += fmt.Sprintf("  path=%v", path)
	}
	return line
}
