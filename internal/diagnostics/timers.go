package diagnostics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/san-kum/dynsm/internal/diagnostics"

// Phase names one timing accumulator.
type Phase int

const (
	InternalForce Phase = iota
	Contact
	ContactForceRetrieval
	OutputWrite
	FieldUpdate
	VectorReduction
	TotalLoop
	numPhases
)

var phaseNames = [numPhases]string{
	InternalForce:         "internal force",
	Contact:               "contact",
	ContactForceRetrieval: "contact force retrieval",
	OutputWrite:           "output write",
	FieldUpdate:           "field update",
	VectorReduction:       "vector reduction",
	TotalLoop:             "time stepping loop",
}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// Phases lists every accumulator in declaration order.
func Phases() []Phase {
	ps := make([]Phase, numPhases)
	for i := range ps {
		ps[i] = Phase(i)
	}
	return ps
}

// Timing is a labelled duration reported by a collaborator.
type Timing struct {
	Label    string
	Duration time.Duration
}

// Timers accumulates wall-clock time per phase for one participant. Totals
// only grow. Not safe for concurrent use.
type Timers struct {
	totals [numPhases]time.Duration
	tracer trace.Tracer
	now    func() time.Time
}

func NewTimers() *Timers {
	return &Timers{
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
}

// Start opens a phase. The returned timer records into the accumulator when
// stopped; stopping twice records once.
func (t *Timers) Start(ctx context.Context, p Phase) *PhaseTimer {
	ctx, span := t.tracer.Start(ctx, p.String())
	return &PhaseTimer{
		ctx:    ctx,
		timers: t,
		phase:  p,
		start:  t.now(),
		span:   span,
	}
}

// Measure runs fn inside phase p. The elapsed time is recorded on every exit
// path, including a panic unwinding through fn.
func (t *Timers) Measure(ctx context.Context, p Phase, fn func(ctx context.Context) error) error {
	pt := t.Start(ctx, p)
	defer pt.Stop()
	return fn(pt.Context())
}

// Add records a duration measured elsewhere. Negative durations are dropped.
func (t *Timers) Add(p Phase, d time.Duration) {
	if d > 0 {
		t.totals[p] += d
	}
}

func (t *Timers) Total(p Phase) time.Duration {
	return t.totals[p]
}

func (t *Timers) Seconds(p Phase) float64 {
	return t.totals[p].Seconds()
}

// PhaseTimer is an open phase returned by Timers.Start.
type PhaseTimer struct {
	ctx     context.Context
	timers  *Timers
	phase   Phase
	start   time.Time
	span    trace.Span
	stopped bool
}

// Context carries the phase span for calls made inside the phase.
func (pt *PhaseTimer) Context() context.Context {
	return pt.ctx
}

// Stop records the elapsed time and returns it. Later calls return zero.
func (pt *PhaseTimer) Stop() time.Duration {
	if pt.stopped {
		return 0
	}
	pt.stopped = true
	elapsed := pt.timers.now().Sub(pt.start)
	pt.timers.Add(pt.phase, elapsed)
	pt.span.End()
	return elapsed
}
