package explicit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/san-kum/dynsm/internal/comm"
	"github.com/san-kum/dynsm/internal/diagnostics"
	"github.com/san-kum/dynsm/internal/dynamo"
	"github.com/san-kum/dynsm/internal/field"
)

// Scheme is the only time integration scheme the driver implements.
const Scheme = "explicit"

// ContactConfig enables penalty contact between two sets of blocks.
type ContactConfig struct {
	PrimaryBlocks    []string
	SecondaryBlocks  []string
	PenaltyParameter float64
	// VisualizationPath enables contact visualization output when set.
	VisualizationPath string
}

type Config struct {
	Scheme   string
	Schedule dynamo.Schedule
	// Contact is nil when contact is disabled.
	Contact *ContactConfig

	WriteTimingData bool
	TimingPath      string
}

// Collaborators are the parts of a run the driver calls but does not own.
type Collaborators struct {
	Model      ModelData
	Conditions KinematicConditionApplier
	Output     OutputSink
	Contact    ContactCoupler
	Mesh       MeshProvider
	Comm       comm.Communicator
}

// Result summarizes a completed run of one participant.
type Result struct {
	StepsTaken  int
	FinalTime   float64
	CriticalDt  float64
	OutputTimes []float64
	Report      diagnostics.Report
}

type Driver struct {
	cfg    Config
	fields *field.Set
	c      Collaborators

	logger   *slog.Logger
	summary  io.Writer
	progress func(percent int)
	now      func() time.Time

	timers   *diagnostics.Timers
	activity *diagnostics.ActivityLog
}

func New(cfg Config, fields *field.Set, c Collaborators) *Driver {
	if c.Comm == nil {
		c.Comm = comm.Serial{}
	}
	d := &Driver{
		cfg:      cfg,
		fields:   fields,
		c:        c,
		logger:   slog.Default(),
		summary:  os.Stdout,
		now:      time.Now,
		timers:   diagnostics.NewTimers(),
		activity: diagnostics.NewActivityLog(),
	}
	d.progress = d.logProgress
	return d
}

func (d *Driver) SetLogger(l *slog.Logger)        { d.logger = l }
func (d *Driver) SetSummaryWriter(w io.Writer)    { d.summary = w }
func (d *Driver) OnProgress(fn func(percent int)) { d.progress = fn }

func (d *Driver) Timers() *diagnostics.Timers        { return d.timers }
func (d *Driver) Activity() *diagnostics.ActivityLog { return d.activity }

func (d *Driver) contactEnabled() bool {
	return d.cfg.Contact != nil && d.c.Contact != nil
}

func (d *Driver) isReporter() bool {
	return d.c.Comm.Rank() == 0
}

func (d *Driver) logProgress(percent int) {
	d.logger.Info("progress", "percent", percent)
}

// Run executes the whole simulation: setup, the step loop and the end-of-run
// reports.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	model, err := d.setup(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{CriticalDt: model.CriticalTimeStep()}
	result.OutputTimes = append(result.OutputTimes, 0)

	loop := d.timers.Start(ctx, diagnostics.TotalLoop)
	var ts dynamo.TimeState
	sched := d.cfg.Schedule
	for step := 0; step < sched.NumLoadSteps; step++ {
		if err := ctx.Err(); err != nil {
			loop.Stop()
			return result, err
		}
		wrote, err := d.step(loop.Context(), model, step, &ts)
		if err != nil {
			loop.Stop()
			return result, err
		}
		if wrote {
			result.OutputTimes = append(result.OutputTimes, ts.Current)
		}
		result.StepsTaken++

		if d.isReporter() {
			if percent, ok := sched.Progress(step); ok {
				d.progress(percent)
			}
		}
	}
	loop.Stop()
	result.FinalTime = ts.Current

	result.Report = d.report()
	if err := d.finish(ctx, result.Report); err != nil {
		return result, err
	}
	return result, nil
}

func (d *Driver) setup(ctx context.Context) (ForceModel, error) {
	if d.cfg.Scheme != Scheme {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnsupportedScheme, d.cfg.Scheme)
	}
	model, ok := d.c.Model.(ForceModel)
	if !ok {
		name := "<nil>"
		if d.c.Model != nil {
			name = d.c.Model.ModelName()
		}
		return nil, fmt.Errorf("%w: %s does not support explicit dynamics", dynamo.ErrIncompatibleModel, name)
	}
	if err := d.cfg.Schedule.Validate(); err != nil {
		return nil, err
	}
	if err := d.fields.Validate(); err != nil {
		return nil, err
	}
	if d.c.Conditions == nil || d.c.Output == nil {
		return nil, fmt.Errorf("%w: kinematic conditions and output sink are required", dynamo.ErrInvalidConfig)
	}
	if d.cfg.Contact != nil && (d.c.Contact == nil || d.c.Mesh == nil) {
		return nil, fmt.Errorf("%w: contact requested without a coupler and mesh", dynamo.ErrInvalidConfig)
	}

	d.fields.ZeroKinematics()

	if err := model.ComputeLumpedMass(d.fields.LumpedMass); err != nil {
		return nil, fmt.Errorf("compute lumped mass: %w", err)
	}
	if err := d.reduceShared(ctx, d.fields.LumpedMass, 1); err != nil {
		return nil, fmt.Errorf("reduce lumped mass: %w", err)
	}
	if err := d.fields.LumpedMass.CheckPositive(); err != nil {
		return nil, err
	}

	critical := model.CriticalTimeStep()
	dt := d.cfg.Schedule.Increment()
	if d.isReporter() {
		d.logger.Info("time step", "delta_time", dt, "critical_time_step", critical)
		if critical > 0 && dt > critical {
			d.logger.Warn("time step exceeds critical time step", "delta_time", dt, "critical_time_step", critical)
		}
	}

	if d.contactEnabled() {
		if err := d.setupContact(); err != nil {
			return nil, err
		}
	}

	if err := d.c.Conditions.ApplyInitialConditions(d.fields); err != nil {
		return nil, fmt.Errorf("apply initial conditions: %w", err)
	}
	if err := d.c.Conditions.ApplyKinematicConditions(0, 0, d.fields); err != nil {
		return nil, fmt.Errorf("apply kinematic conditions: %w", err)
	}
	if err := d.c.Output.WriteOutput(0); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}
	if d.contactEnabled() && d.cfg.Contact.VisualizationPath != "" {
		if err := d.c.Contact.ContactVisualizationWriteStep(0); err != nil {
			return nil, fmt.Errorf("write contact visualization: %w", err)
		}
	}
	return model, nil
}

func (d *Driver) setupContact() error {
	cc := d.cfg.Contact
	d.c.Contact.SetPenaltyParameter(cc.PenaltyParameter)

	primary, err := d.c.Mesh.BlockNamesToOnProcessorBlockIDs(cc.PrimaryBlocks)
	if err != nil {
		return fmt.Errorf("contact primary blocks: %w", err)
	}
	secondary, err := d.c.Mesh.BlockNamesToOnProcessorBlockIDs(cc.SecondaryBlocks)
	if err != nil {
		return fmt.Errorf("contact secondary blocks: %w", err)
	}
	if err := d.c.Contact.CreateContactEntities(primary, secondary); err != nil {
		return fmt.Errorf("create contact entities: %w", err)
	}
	if cc.VisualizationPath != "" {
		if err := d.c.Contact.InitializeContactVisualization(cc.VisualizationPath); err != nil {
			return fmt.Errorf("initialize contact visualization: %w", err)
		}
	}
	return nil
}

// step advances the fields by one increment and reports whether output was
// written.
func (d *Driver) step(ctx context.Context, model ForceModel, step int, ts *dynamo.TimeState) (bool, error) {
	f := d.fields
	sched := d.cfg.Schedule
	isOutput := sched.IsOutputStep(step)

	dt, half := ts.Advance(sched.Increment())
	fail := func(phase string, err error) error {
		return &dynamo.SimulationError{Step: step, Time: ts.Current, Phase: phase, Wrapped: err}
	}

	d.timed(ctx, diagnostics.FieldUpdate, func() { f.Velocity.AddScaled(half, f.Acceleration) })

	if err := d.c.Conditions.ApplyKinematicConditions(ts.Current, ts.Previous, f); err != nil {
		return false, fail("kinematic conditions", err)
	}

	d.timed(ctx, diagnostics.FieldUpdate, func() { f.Displacement.AddScaled(dt, f.Velocity) })

	err := d.timers.Measure(ctx, diagnostics.InternalForce, func(ctx context.Context) error {
		if err := model.ComputeInternalForce(ctx, ts.Previous, ts.Current, isOutput, f.Displacement, f.InternalForce); err != nil {
			return err
		}
		return d.timers.Measure(ctx, diagnostics.VectorReduction, func(ctx context.Context) error {
			return d.reduceShared(ctx, f.InternalForce, field.Dim)
		})
	})
	if err != nil {
		return false, fail("internal force", err)
	}

	if d.contactEnabled() {
		if err := d.contact(ctx, step, isOutput); err != nil {
			return false, fail("contact", err)
		}
	}

	var accErr error
	d.timed(ctx, diagnostics.FieldUpdate, func() {
		accErr = field.ComputeAcceleration(f, d.contactEnabled())
		if accErr == nil {
			f.Velocity.AddScaled(half, f.Acceleration)
		}
	})
	if accErr != nil {
		return false, fail("acceleration", accErr)
	}

	if isOutput {
		if err := d.c.Conditions.ApplyKinematicConditions(ts.Current, ts.Previous, f); err != nil {
			return false, fail("kinematic conditions", err)
		}
		err := d.timers.Measure(ctx, diagnostics.OutputWrite, func(context.Context) error {
			if err := d.c.Output.WriteOutput(ts.Current); err != nil {
				return err
			}
			if d.contactEnabled() && d.cfg.Contact.VisualizationPath != "" {
				return d.c.Contact.ContactVisualizationWriteStep(ts.Current)
			}
			return nil
		})
		if err != nil {
			return false, fail("output", err)
		}
	}

	model.UpdateStates()
	return isOutput, nil
}

func (d *Driver) contact(ctx context.Context, step int, isOutput bool) error {
	err := d.timers.Measure(ctx, diagnostics.Contact, func(ctx context.Context) error {
		return d.c.Contact.ComputeContactForce(ctx, step+1, isOutput)
	})
	if err != nil {
		return err
	}
	if n := d.c.Contact.NumActiveContactFaces(); n > 0 {
		d.activity.Record(step, n)
	}

	return d.timers.Measure(ctx, diagnostics.ContactForceRetrieval, func(ctx context.Context) error {
		src := d.c.Contact.ContactForce()
		if len(src) != len(d.fields.ContactForce) {
			return fmt.Errorf("%w: contact force has %d values, want %d",
				dynamo.ErrDimensionMismatch, len(src), len(d.fields.ContactForce))
		}
		d.fields.ContactForce.CopyFrom(src)
		return d.reduceShared(ctx, d.fields.ContactForce, field.Dim)
	})
}

func (d *Driver) timed(ctx context.Context, p diagnostics.Phase, fn func()) {
	pt := d.timers.Start(ctx, p)
	fn()
	pt.Stop()
}

// reduceShared sums values of nodes shared with other participants. Every
// participant calls it the same number of times, even without shared nodes.
func (d *Driver) reduceShared(ctx context.Context, values []float64, dim int) error {
	if d.c.Comm.Size() == 1 || d.c.Mesh == nil {
		return nil
	}
	local, global := d.c.Mesh.SharedNodeIDs()
	buf := make([]float64, len(local)*dim)
	for i, n := range local {
		copy(buf[i*dim:(i+1)*dim], values[n*dim:(n+1)*dim])
	}
	if err := d.c.Comm.SumShared(ctx, global, buf, dim); err != nil {
		return err
	}
	for i, n := range local {
		copy(values[n*dim:(n+1)*dim], buf[i*dim:(i+1)*dim])
	}
	return nil
}

func (d *Driver) report() diagnostics.Report {
	r := diagnostics.Report{
		Rank:           d.c.Comm.Rank(),
		NumRanks:       d.c.Comm.Size(),
		NumSteps:       d.cfg.Schedule.NumLoadSteps,
		ContactEnabled: d.contactEnabled(),
		Activity:       d.activity,
		Timers:         d.timers,
	}
	if r.ContactEnabled {
		r.CouplerTimers = d.c.Contact.Timers()
	}
	return r
}

// finish prints the per-participant contact activity in rank order, then the
// timing summary and the optional timing record from rank 0.
func (d *Driver) finish(ctx context.Context, r diagnostics.Report) error {
	if r.ContactEnabled {
		err := comm.InTurn(ctx, d.c.Comm, func() error {
			return r.WriteContactActivity(d.summary)
		})
		if err != nil {
			return err
		}
	}
	if !d.isReporter() {
		return nil
	}

	if err := r.WriteTimingSummary(d.summary); err != nil {
		return err
	}
	if d.cfg.WriteTimingData {
		rec := r.Record(d.now())
		if err := diagnostics.WriteTimingRecord(d.cfg.TimingPath, rec); err != nil {
			return fmt.Errorf("write timing record: %w", err)
		}
		d.logger.Info("timing record written", "path", d.cfg.TimingPath)
	}
	return nil
}
