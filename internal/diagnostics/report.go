package diagnostics

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Report is the end-of-run view of one participant's diagnostics.
type Report struct {
	Rank           int
	NumRanks       int
	NumSteps       int
	ContactEnabled bool
	Activity       *ActivityLog
	Timers         *Timers
	CouplerTimers  []Timing
}

// WriteContactActivity prints how many steps had active contact. Nothing is
// written for a participant without contact activity.
func (r Report) WriteContactActivity(w io.Writer) error {
	if r.Activity == nil || r.Activity.Empty() {
		return nil
	}
	p := message.NewPrinter(language.English)
	_, err := p.Fprintf(w, " Rank %d has %d contact entries (out of %d time steps).\n",
		r.Rank, r.Activity.Len(), r.NumSteps)
	return err
}

type summaryLine struct {
	label   string
	seconds float64
}

// WriteTimingSummary prints the accumulator totals in seconds.
func (r Report) WriteTimingSummary(w io.Writer) error {
	t := r.Timers
	lines := []summaryLine{
		{" Total Time Loop", t.Seconds(TotalLoop)},
		{" --- Internal Forces", t.Seconds(InternalForce)},
	}
	if r.ContactEnabled {
		lines = append(lines, summaryLine{" --- Contact", t.Seconds(Contact)})
		for _, ct := range r.CouplerTimers {
			lines = append(lines, summaryLine{" --- >>> >>> " + ct.Label, ct.Duration.Seconds()})
		}
		lines = append(lines, summaryLine{" --- >>> Get Forces", t.Seconds(ContactForceRetrieval)})
	}
	lines = append(lines,
		summaryLine{" --- Output Write", t.Seconds(OutputWrite)},
		summaryLine{" --- Update AVU", t.Seconds(FieldUpdate)},
		summaryLine{" --- Vector Reduction", t.Seconds(VectorReduction)},
	)

	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s = %.6f\n", l.label, l.seconds); err != nil {
			return err
		}
	}
	return nil
}

// Record builds the persisted timing record at the given wall-clock time.
func (r Report) Record(at time.Time) TimingRecord {
	return NewTimingRecord(r.NumRanks, at, r.Timers)
}
