package analysis

import (
	"github.com/san-kum/dynsm/internal/storage"
)

// Summary describes the merged history of one run.
type Summary struct {
	Samples           int
	Duration          float64
	PeakKineticEnergy float64
	PeakTime          float64
	MaxDisplacement   float64
	// DominantFrequency is the strongest oscillation of the kinetic energy,
	// which runs at twice the structural frequency.
	DominantFrequency float64
}

// Summarize assumes samples are evenly spaced in time, which holds for
// output every output_frequency steps except the forced last one.
func Summarize(history []storage.HistoryPoint) Summary {
	s := Summary{Samples: len(history)}
	if len(history) == 0 {
		return s
	}
	s.Duration = history[len(history)-1].Time - history[0].Time

	ke := make([]float64, len(history))
	for i, p := range history {
		ke[i] = p.KineticEnergy
		if p.KineticEnergy > s.PeakKineticEnergy {
			s.PeakKineticEnergy = p.KineticEnergy
			s.PeakTime = p.Time
		}
		s.MaxDisplacement = max(s.MaxDisplacement, p.MaxDisplacement)
	}

	if len(history) > 2 {
		dt := history[1].Time - history[0].Time
		s.DominantFrequency, _ = DominantFrequency(ke, dt)
	}
	return s
}
