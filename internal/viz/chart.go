package viz

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dynsm/internal/storage"
)

// EnergyChart plots kinetic energy against output index. It returns an
// empty string for fewer than two samples.
func EnergyChart(history []storage.HistoryPoint, width, height int) string {
	if len(history) < 2 {
		return ""
	}
	ke := make([]float64, len(history))
	for i, p := range history {
		ke[i] = p.KineticEnergy
	}
	caption := fmt.Sprintf("kinetic energy, t = %.4g .. %.4g", history[0].Time, history[len(history)-1].Time)
	return asciigraph.Plot(ke,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(caption),
	)
}

// DisplacementChart plots the largest nodal displacement per output.
func DisplacementChart(history []storage.HistoryPoint, width, height int) string {
	if len(history) < 2 {
		return ""
	}
	d := make([]float64, len(history))
	for i, p := range history {
		d[i] = p.MaxDisplacement
	}
	return asciigraph.Plot(d,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption("max displacement"),
	)
}

// WriteRuns writes one aligned row per run.
func WriteRuns(w io.Writer, runs []storage.RunMetadata) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRANKS\tNODES\tSTEPS\tFORMAT\tCONTACT\tSTATUS\tCREATED")
	for _, r := range runs {
		status := "incomplete"
		if r.Completed {
			status = "done"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%t\t%s\t%s\n",
			r.ID, r.NumRanks, r.NumNodes, r.NumLoadSteps, r.Format, r.Contact, status,
			r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}
