// Package app assembles the collaborators of a run from an input deck and
// executes one driver per participant.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/dynsm/internal/bc"
	"github.com/san-kum/dynsm/internal/comm"
	"github.com/san-kum/dynsm/internal/compute"
	"github.com/san-kum/dynsm/internal/config"
	"github.com/san-kum/dynsm/internal/contact"
	"github.com/san-kum/dynsm/internal/dynamo"
	"github.com/san-kum/dynsm/internal/explicit"
	"github.com/san-kum/dynsm/internal/field"
	"github.com/san-kum/dynsm/internal/mesh"
	"github.com/san-kum/dynsm/internal/metrics"
	"github.com/san-kum/dynsm/internal/model"
	"github.com/san-kum/dynsm/internal/storage"
)

const TimingFile = "timing.bin"

type Options struct {
	Store  *storage.Store
	Logger *slog.Logger
	// Summary receives the end-of-run reports; nil means stdout.
	Summary io.Writer
	// Progress replaces the default progress log of rank 0.
	Progress func(percent int)
}

// Outcome is a finished run.
type Outcome struct {
	Meta    *storage.RunMetadata
	Results []*explicit.Result
}

// Run validates cfg, creates a run directory in the store and runs every
// participant to completion. The metadata is marked completed only when all
// participants succeed.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cmd, err := cfg.ContactCommand()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	summary := opts.Summary
	if summary == nil {
		summary = os.Stdout
	}

	serial, err := mesh.Build(cfg.Blocks, 0, 1)
	if err != nil {
		return nil, err
	}

	if err := opts.Store.Init(); err != nil {
		return nil, err
	}
	meta, err := opts.Store.Create(storage.RunMetadata{
		Name:            cfg.Name,
		Format:          cfg.Output.Format,
		NumRanks:        cfg.Ranks,
		NumNodes:        serial.GlobalNodeCount(),
		NumElements:     serial.NumElements(),
		FinalTime:       cfg.FinalTime,
		NumLoadSteps:    cfg.NumLoadSteps,
		OutputFrequency: cfg.OutputFrequency,
		Contact:         cmd != nil,
	})
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	runDir := opts.Store.RunDir(meta.ID)
	logger.Info("run created", "id", meta.ID, "dir", runDir)

	if cfg.Workers > 0 {
		dynamo.Workers = cfg.Workers
	}

	group := comm.NewGroup(cfg.Ranks)
	results := make([]*explicit.Result, cfg.Ranks)
	g, gctx := errgroup.WithContext(ctx)
	for rank := 0; rank < cfg.Ranks; rank++ {
		c, err := group.Member(rank)
		if err != nil {
			return nil, err
		}
		p := participant{
			cfg:      cfg,
			contact:  cmd,
			comm:     c,
			dir:      runDir,
			logger:   logger.With("rank", rank),
			summary:  summary,
			progress: opts.Progress,
		}
		g.Go(func() error {
			res, err := p.run(gctx)
			results[rank] = res
			if err != nil {
				return fmt.Errorf("rank %d: %w", rank, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return &Outcome{Meta: meta, Results: results}, err
	}

	meta.Completed = true
	meta.CriticalDt = results[0].CriticalDt
	if cfg.WriteTimingData {
		meta.TimingFile = TimingFile
	}

	history, err := opts.Store.LoadHistory(meta.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	meta.Metrics = metrics.Evaluate(metrics.Standard(), history)
	if err := opts.Store.SaveMetadata(meta); err != nil {
		return nil, err
	}
	return &Outcome{Meta: meta, Results: results}, nil
}

type participant struct {
	cfg      *config.Config
	contact  *contact.Command
	comm     comm.Communicator
	dir      string
	logger   *slog.Logger
	summary  io.Writer
	progress func(int)
}

func (p participant) run(ctx context.Context) (*explicit.Result, error) {
	rank, size := p.comm.Rank(), p.comm.Size()

	m, err := mesh.Build(p.cfg.Blocks, rank, size)
	if err != nil {
		return nil, err
	}
	fields := field.NewSet(m.NumNodes())
	m.FillCoordinates(fields.ReferenceCoordinate)

	backend := compute.NewCPUBackend()
	if p.cfg.Workers > 0 {
		backend = compute.NewCPUBackendWorkers(p.cfg.Workers)
	}
	defer backend.Cleanup()

	lattice, err := model.NewLattice(m, p.cfg.Materials, backend)
	if err != nil {
		return nil, err
	}
	conditions, err := bc.New(m, p.cfg.BoundaryConditions, p.cfg.InitialVelocities)
	if err != nil {
		return nil, err
	}
	sink, err := storage.OpenSink(p.cfg.Output.Format, p.dir, m, fields)
	if err != nil {
		return nil, err
	}

	dcfg := explicit.Config{
		Scheme:          p.cfg.Scheme,
		Schedule:        p.cfg.Schedule(),
		WriteTimingData: p.cfg.WriteTimingData,
		TimingPath:      filepath.Join(p.dir, TimingFile),
	}
	collab := explicit.Collaborators{
		Model:      lattice,
		Conditions: conditions,
		Output:     sink,
		Mesh:       m,
		Comm:       p.comm,
	}
	if p.contact != nil {
		coupler := contact.NewCoupler(m, fields)
		defer coupler.Close()
		collab.Contact = coupler

		dcfg.Contact = &explicit.ContactConfig{
			PrimaryBlocks:    p.contact.PrimaryBlocks,
			SecondaryBlocks:  p.contact.SecondaryBlocks,
			PenaltyParameter: p.contact.PenaltyParameter,
		}
		if p.cfg.ContactVisualization {
			dcfg.Contact.VisualizationPath = filepath.Join(p.dir, storage.IOFileName("contact", "csv", "", rank, size))
		}
	}

	p.logger.Debug("participant ready",
		"nodes", m.NumNodes(),
		"elements", m.NumElements(),
		"springs", lattice.NumSprings(),
		"constrained_nodes", conditions.NumConstrainedNodes(),
		"backend", backend.Name(),
	)

	d := explicit.New(dcfg, fields, collab)
	d.SetLogger(p.logger)
	d.SetSummaryWriter(p.summary)
	if p.progress != nil {
		d.OnProgress(p.progress)
	}
	res, err := d.Run(ctx)
	if cerr := sink.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close output: %w", cerr)
	}
	return res, err
}
