package explicit_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dynsm/internal/diagnostics"
	"github.com/san-kum/dynsm/internal/dynamo"
	"github.com/san-kum/dynsm/internal/explicit"
	"github.com/san-kum/dynsm/internal/field"
)

var _ = Describe("Driver", func() {
	var (
		ctx        context.Context
		rec        *recorder
		fields     *field.Set
		model      *constantForceModel
		conditions *recordingConditions
		sink       *recordingSink
		summary    *bytes.Buffer
		cfg        explicit.Config
		collab     explicit.Collaborators
	)

	newDriver := func() *explicit.Driver {
		d := explicit.New(cfg, fields, collab)
		d.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
		d.SetSummaryWriter(summary)
		return d
	}

	BeforeEach(func() {
		ctx = context.Background()
		rec = &recorder{}
		fields = field.NewSet(1)
		model = &constantForceModel{rec: rec, mass: 1}
		conditions = &recordingConditions{rec: rec}
		sink = &recordingSink{rec: rec}
		summary = &bytes.Buffer{}
		cfg = explicit.Config{
			Scheme:   explicit.Scheme,
			Schedule: dynamo.Schedule{FinalTime: 1, NumLoadSteps: 4, OutputFrequency: 1},
		}
		collab = explicit.Collaborators{Model: model, Conditions: conditions, Output: sink}
	})

	Describe("setup", func() {
		It("rejects schemes other than explicit", func() {
			cfg.Scheme = "implicit"
			_, err := newDriver().Run(ctx)
			Expect(err).To(MatchError(dynamo.ErrUnsupportedScheme))
			Expect(rec.events).To(BeEmpty())
		})

		It("rejects model data without the explicit operations", func() {
			collab.Model = plainModel{}
			_, err := newDriver().Run(ctx)
			Expect(err).To(MatchError(dynamo.ErrIncompatibleModel))
			Expect(err.Error()).To(ContainSubstring("plain"))
		})

		It("surfaces a zero lumped mass before the loop", func() {
			model.mass = 0
			model.force = [3]float64{1, 0, 0}
			_, err := newDriver().Run(ctx)
			Expect(err).To(MatchError(dynamo.ErrZeroMass))

			var massErr *dynamo.MassError
			Expect(err).To(BeAssignableToTypeOf(massErr))
			Expect(sink.times).To(BeEmpty())
		})

		It("rejects an invalid schedule", func() {
			cfg.Schedule.OutputFrequency = 0
			_, err := newDriver().Run(ctx)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("requires a coupler when contact is configured", func() {
			cfg.Contact = &explicit.ContactConfig{PrimaryBlocks: []string{"a"}, SecondaryBlocks: []string{"b"}}
			_, err := newDriver().Run(ctx)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("reports unknown contact blocks", func() {
			cfg.Contact = &explicit.ContactConfig{PrimaryBlocks: []string{"missing"}, SecondaryBlocks: []string{"b"}}
			collab.Contact = &scriptedCoupler{rec: rec, force: field.NewVectorField(1)}
			collab.Mesh = blockMesh{nodes: 1, blocks: map[string]int{"a": 1, "b": 2}}
			_, err := newDriver().Run(ctx)
			Expect(err).To(MatchError(dynamo.ErrUnknownBlock))
		})
	})

	Describe("step order", func() {
		It("calls collaborators in the leapfrog order", func() {
			cfg.Schedule = dynamo.Schedule{FinalTime: 1, NumLoadSteps: 1, OutputFrequency: 1}
			cfg.Contact = &explicit.ContactConfig{
				PrimaryBlocks:     []string{"a"},
				SecondaryBlocks:   []string{"b"},
				PenaltyParameter:  10,
				VisualizationPath: "vis.csv",
			}
			collab.Contact = &scriptedCoupler{rec: rec, force: field.NewVectorField(1)}
			collab.Mesh = blockMesh{nodes: 1, blocks: map[string]int{"a": 1, "b": 2}}

			_, err := newDriver().Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.events).To(Equal([]string{
				"mass",
				"penalty 10",
				"entities [1] [2]",
				"visualization vis.csv",
				"initial",
				"bc 0.00 0.00",
				"output 0.00",
				"contact output 0.00",
				"bc 1.00 0.00",
				"force 0.00 1.00 true",
				"contact 1 true",
				"active",
				"bc 1.00 0.00",
				"output 1.00",
				"contact output 1.00",
				"update",
			}))
		})

		It("stops before the next step once ctx is cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := newDriver().Run(cancelled)
			Expect(err).To(MatchError(context.Canceled))
			Expect(model.updates).To(BeZero())
		})

		It("commits model state once per step", func() {
			_, err := newDriver().Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(model.updates).To(Equal(4))
		})
	})

	Describe("time stepping", func() {
		It("uses a uniform increment", func() {
			cfg.Schedule = dynamo.Schedule{FinalTime: 0.3, NumLoadSteps: 7, OutputFrequency: 100}
			res, err := newDriver().Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StepsTaken).To(Equal(7))
			Expect(res.FinalTime).To(BeNumerically("~", 0.3, 1e-12))

			// the first call is the setup application at (0, 0)
			for _, c := range conditions.calls[1:] {
				Expect(c.current - c.previous).To(BeNumerically("~", 0.3/7, 1e-12))
			}
		})

		It("keeps a force-free body at rest", func() {
			_, err := newDriver().Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.Displacement.IsZero()).To(BeTrue())
			Expect(fields.Velocity.IsZero()).To(BeTrue())
			Expect(fields.Acceleration.IsZero()).To(BeTrue())
		})

		It("advances velocity in two half steps around the force", func() {
			model.force = [3]float64{2, 0, -4}
			_, err := newDriver().Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			// a = (2, 0, -4), dt = 0.25, starting from rest with zero
			// initial acceleration: v_k = (k - 1/2) dt a, u_k = dt^2 a k(k-1)/2.
			Expect(fields.Acceleration.Node(0)).To(Equal([3]float64{2, 0, -4}))
			Expect(fields.Velocity.At(0, 0)).To(BeNumerically("~", 1.75, 1e-12))
			Expect(fields.Velocity.At(0, 2)).To(BeNumerically("~", -3.5, 1e-12))
			Expect(fields.Displacement.At(0, 0)).To(BeNumerically("~", 0.75, 1e-12))
			Expect(fields.Displacement.At(0, 2)).To(BeNumerically("~", -1.5, 1e-12))
		})
	})

	Describe("output cadence", func() {
		It("writes at the initial time, every output_frequency steps and the last step", func() {
			cfg.Schedule = dynamo.Schedule{FinalTime: 1, NumLoadSteps: 10, OutputFrequency: 4}
			res, err := newDriver().Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			want := []float64{0, 0.1, 0.5, 0.9, 1.0}
			Expect(sink.times).To(HaveLen(len(want)))
			for i := range want {
				Expect(sink.times[i]).To(BeNumerically("~", want[i], 1e-12))
			}
			Expect(res.OutputTimes).To(HaveLen(len(want)))
		})

		It("reports progress by decile on rank zero", func() {
			cfg.Schedule = dynamo.Schedule{FinalTime: 1, NumLoadSteps: 20, OutputFrequency: 5}
			d := newDriver()
			var got []int
			d.OnProgress(func(p int) { got = append(got, p) })

			_, err := d.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal([]int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}))
		})
	})

	Describe("contact", func() {
		var coupler *scriptedCoupler

		BeforeEach(func() {
			coupler = &scriptedCoupler{rec: rec, force: field.NewVectorField(1), counts: []int{0, 3, 0, 2}}
			collab.Contact = coupler
			collab.Mesh = blockMesh{nodes: 1, blocks: map[string]int{"a": 1, "b": 2}}
		})

		It("leaves contact force at zero when disabled", func() {
			coupler.force.Set(0, 0, 5)
			d := newDriver()
			_, err := d.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(coupler.calls).To(BeZero())
			Expect(fields.ContactForce.IsZero()).To(BeTrue())
			Expect(d.Activity().Empty()).To(BeTrue())
			Expect(summary.String()).NotTo(ContainSubstring("contact entries"))
		})

		It("records only steps with active contact", func() {
			cfg.Contact = &explicit.ContactConfig{PrimaryBlocks: []string{"a"}, SecondaryBlocks: []string{"b"}, PenaltyParameter: 1}
			d := newDriver()
			res, err := d.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(coupler.calls).To(Equal(4))
			Expect(d.Activity().Steps()).To(Equal([]int{1, 3}))
			Expect(d.Activity().Count(1)).To(Equal(3))
			Expect(res.Report.CouplerTimers).To(HaveLen(1))
			Expect(summary.String()).To(ContainSubstring(" Rank 0 has 2 contact entries (out of 4 time steps).\n"))
			Expect(summary.String()).To(ContainSubstring(" --- >>> >>> Search = 0.001000\n"))
		})

		It("adds the retrieved contact force to the acceleration", func() {
			cfg.Contact = &explicit.ContactConfig{PrimaryBlocks: []string{"a"}, SecondaryBlocks: []string{"b"}}
			model.force = [3]float64{1, 0, 0}
			coupler.force.SetNode(0, [3]float64{1, 2, 0})

			_, err := newDriver().Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.ContactForce.Node(0)).To(Equal([3]float64{1, 2, 0}))
			Expect(fields.Acceleration.Node(0)).To(Equal([3]float64{2, 2, 0}))
		})
	})

	Describe("diagnostics", func() {
		It("prints the timing summary", func() {
			_, err := newDriver().Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.String()).To(HavePrefix(" Total Time Loop = "))
			Expect(summary.String()).To(ContainSubstring(" --- Update AVU = "))
			Expect(summary.String()).NotTo(ContainSubstring(" --- Contact"))
		})

		It("writes one timing record when requested", func() {
			path := filepath.Join(GinkgoT().TempDir(), "timing.bin")
			cfg.WriteTimingData = true
			cfg.TimingPath = path

			d := newDriver()
			_, err := d.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			got, err := diagnostics.ReadTimingRecord(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.NumRanks).To(Equal(int32(1)))
			Expect(got.TotalSimulation).To(Equal(d.Timers().Seconds(diagnostics.TotalLoop)))
		})
	})
})
