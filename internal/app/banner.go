package app

import (
	"io"
	"runtime"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/san-kum/dynsm/internal/config"
	"github.com/san-kum/dynsm/internal/mesh"
)

var Version = "dev"

// WriteBanner prints the run header. Counts come from the serial view of
// the mesh so they do not depend on the number of participants.
func WriteBanner(w io.Writer, cfg *config.Config, m *mesh.Mesh) error {
	p := message.NewPrinter(language.English)
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	lines := []struct {
		format string
		args   []any
	}{
		{"dynsm %s\n", []any{Version}},
		{"  run:            %s\n", []any{cfg.Name}},
		{"  participants:   %d\n", []any{cfg.Ranks}},
		{"  workers:        %d per participant\n", []any{workers}},
		{"  blocks:         %d\n", []any{m.NumGlobalBlocks()}},
		{"  nodes:          %d\n", []any{m.GlobalNodeCount()}},
		{"  elements:       %d\n", []any{m.NumElements()}},
		{"  load steps:     %d to t = %g\n", []any{cfg.NumLoadSteps, cfg.FinalTime}},
	}
	for _, l := range lines {
		if _, err := p.Fprintf(w, l.format, l.args...); err != nil {
			return err
		}
	}
	if cfg.Contact != "" {
		if _, err := p.Fprintf(w, "  contact:        %s\n", cfg.Contact); err != nil {
			return err
		}
	}
	_, err := p.Fprintln(w)
	return err
}
