package metrics

import (
	"math"

	"github.com/san-kum/dynsm/internal/storage"
)

// Metric folds the run history into one number.
type Metric interface {
	Name() string
	Observe(p storage.HistoryPoint)
	Value() float64
	Reset()
}

type PeakKineticEnergy struct {
	peak float64
}

func NewPeakKineticEnergy() *PeakKineticEnergy { return &PeakKineticEnergy{} }

func (e *PeakKineticEnergy) Name() string { return "peak_kinetic_energy" }

func (e *PeakKineticEnergy) Observe(p storage.HistoryPoint) {
	e.peak = math.Max(e.peak, p.KineticEnergy)
}

func (e *PeakKineticEnergy) Value() float64 { return e.peak }
func (e *PeakKineticEnergy) Reset()         { e.peak = 0 }

type FinalKineticEnergy struct {
	last float64
}

func NewFinalKineticEnergy() *FinalKineticEnergy { return &FinalKineticEnergy{} }

func (e *FinalKineticEnergy) Name() string                   { return "final_kinetic_energy" }
func (e *FinalKineticEnergy) Observe(p storage.HistoryPoint) { e.last = p.KineticEnergy }
func (e *FinalKineticEnergy) Value() float64                 { return e.last }
func (e *FinalKineticEnergy) Reset()                         { e.last = 0 }

// KineticEnergyLoss is the fraction of the initial kinetic energy gone by
// the last sample. It is zero when the body starts at rest.
type KineticEnergyLoss struct {
	initial float64
	current float64
	samples int
}

func NewKineticEnergyLoss() *KineticEnergyLoss { return &KineticEnergyLoss{} }

func (e *KineticEnergyLoss) Name() string { return "kinetic_energy_loss" }

func (e *KineticEnergyLoss) Observe(p storage.HistoryPoint) {
	if e.samples == 0 {
		e.initial = p.KineticEnergy
	}
	e.current = p.KineticEnergy
	e.samples++
}

func (e *KineticEnergyLoss) Value() float64 {
	if e.initial == 0 {
		return 0
	}
	return (e.initial - e.current) / e.initial
}

func (e *KineticEnergyLoss) Reset() {
	e.initial = 0
	e.current = 0
	e.samples = 0
}

type MaxDisplacement struct {
	max float64
}

func NewMaxDisplacement() *MaxDisplacement { return &MaxDisplacement{} }

func (m *MaxDisplacement) Name() string { return "max_displacement" }

func (m *MaxDisplacement) Observe(p storage.HistoryPoint) {
	m.max = math.Max(m.max, p.MaxDisplacement)
}

func (m *MaxDisplacement) Value() float64 { return m.max }
func (m *MaxDisplacement) Reset()         { m.max = 0 }

// Standard returns the metrics recorded for every run.
func Standard() []Metric {
	return []Metric{
		NewPeakKineticEnergy(),
		NewFinalKineticEnergy(),
		NewKineticEnergyLoss(),
		NewMaxDisplacement(),
	}
}

// Evaluate resets ms, feeds them history and collects their values by name.
func Evaluate(ms []Metric, history []storage.HistoryPoint) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for _, p := range history {
			m.Observe(p)
		}
		out[m.Name()] = m.Value()
	}
	return out
}
