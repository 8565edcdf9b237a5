package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/san-kum/dynsm/internal/analysis"
	"github.com/san-kum/dynsm/internal/app"
	"github.com/san-kum/dynsm/internal/config"
	"github.com/san-kum/dynsm/internal/diagnostics"
	"github.com/san-kum/dynsm/internal/mesh"
	"github.com/san-kum/dynsm/internal/storage"
	"github.com/san-kum/dynsm/internal/telemetry"
	"github.com/san-kum/dynsm/internal/tui"
	"github.com/san-kum/dynsm/internal/viz"
)

var (
	dataDir string
	theme   string
	// run flags
	deckFile string
	preset   string
	ranks    int
	workers  int
	format   string
	timing   bool
	verbose  bool
	liveView bool
	// plot flags
	plotWidth  int
	plotHeight int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dynsm",
		Short:         "explicit dynamics of deformable bodies with contact",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			viz.SetTheme(theme)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultOutputDir, "run directory")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "ocean", "color theme")

	runCmd := &cobra.Command{
		Use:   "run [deck.yaml]",
		Short: "run a simulation from an input deck or preset",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset deck")
	runCmd.Flags().IntVar(&ranks, "ranks", 0, "participants (overrides deck)")
	runCmd.Flags().IntVar(&workers, "workers", 0, "element workers per participant (overrides deck)")
	runCmd.Flags().StringVar(&format, "format", "", "output format: csv or sqlite (overrides deck)")
	runCmd.Flags().BoolVar(&timing, "timing", false, "write the timing record")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	runCmd.Flags().BoolVar(&liveView, "tui", false, "show a live progress view")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot kinetic energy and displacement of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summarize the history of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	timingCmd := &cobra.Command{
		Use:   "timing [run_id]",
		Short: "print the timing record of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  showTiming,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset decks",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Printf("  %-10s %d blocks, %d steps to t = %g\n", name, len(cfg.Blocks), cfg.NumLoadSteps, cfg.FinalTime)
			}
			return nil
		},
	}

	deckCmd := &cobra.Command{
		Use:   "deck [preset] [path]",
		Short: "write a preset as an editable deck",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetPreset(args[0])
			if cfg == nil {
				return fmt.Errorf("unknown preset %q (have %v)", args[0], config.ListPresets())
			}
			return config.Save(args[1], cfg)
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and history to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, timingCmd, presetsCmd, deckCmd, exportJSONCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.StatusFail.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func loadDeck(cmd *cobra.Command, args []string) (*config.Config, config.Env, error) {
	var cfg *config.Config
	switch {
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, config.Env{}, fmt.Errorf("unknown preset %q (have %v)", preset, config.ListPresets())
		}
	case len(args) == 1:
		var err error
		if cfg, err = config.Load(args[0]); err != nil {
			return nil, config.Env{}, err
		}
	default:
		return nil, config.Env{}, fmt.Errorf("need a deck file or --preset")
	}

	env, err := config.ParseEnv()
	if err != nil {
		return nil, env, err
	}
	if err := cfg.ApplyEnv(env); err != nil {
		return nil, env, err
	}

	if cmd.Flags().Changed("data") {
		cfg.Output.Dir = dataDir
	}
	if ranks > 0 {
		cfg.Ranks = ranks
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if format != "" {
		cfg.Output.Format = format
	}
	if timing {
		cfg.WriteTimingData = true
	}
	return cfg, env, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, env, err := loadDeck(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := env.LogLevel
	if verbose {
		level = "debug"
	}
	var logOut io.Writer = os.Stderr
	if liveView && !verbose {
		logOut = io.Discard
	}
	logger, err := app.NewLogger(logOut, level, env.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName:  "dynsm",
		Version:      app.Version,
		Endpoint:     env.OTelEndpoint,
		Enabled:      env.OTelEnabled,
		RunName:      cfg.Name,
		Participants: cfg.Ranks,
	})
	if err != nil {
		logger.Warn("telemetry disabled", "error", err)
	}
	defer shutdown(context.Background())

	serial, err := mesh.Build(cfg.Blocks, 0, 1)
	if err != nil {
		return err
	}
	if err := app.WriteBanner(os.Stdout, cfg, serial); err != nil {
		return err
	}

	opts := app.Options{Store: storage.New(cfg.Output.Dir), Logger: logger}
	var out *app.Outcome
	if liveView {
		// the end-of-run reports would tear the view, so hold them back
		var summary bytes.Buffer
		opts.Summary = &summary
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		err = tui.Run(cfg.Name, cancel, func(progress func(int)) error {
			opts.Progress = progress
			var runErr error
			out, runErr = app.Run(ctx, cfg, opts)
			return runErr
		})
		os.Stdout.Write(summary.Bytes())
	} else {
		out, err = app.Run(ctx, cfg, opts)
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(viz.HeaderStyle.Render("run " + out.Meta.ID))
	fmt.Println(viz.Field("directory", opts.Store.RunDir(out.Meta.ID)))
	fmt.Println(viz.Field("critical time step", fmt.Sprintf("%.4g", out.Meta.CriticalDt)))
	printMetrics(out.Meta.Metrics)
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Println(viz.Field(name, fmt.Sprintf("%.6g", m[name])))
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	return viz.WriteRuns(os.Stdout, runs)
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	history, err := st.LoadHistory(meta.ID)
	if err != nil {
		return err
	}
	if len(history) < 2 {
		return fmt.Errorf("run %s has %d output times, nothing to plot", meta.ID, len(history))
	}

	fmt.Println(viz.HeaderStyle.Render("run " + meta.ID))
	fmt.Printf("samples: %d\n\n", len(history))
	fmt.Println(viz.EnergyChart(history, plotWidth, plotHeight))
	fmt.Println()
	fmt.Println(viz.DisplacementChart(history, plotWidth, plotHeight))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	history, err := st.LoadHistory(meta.ID)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return fmt.Errorf("run %s has no history", meta.ID)
	}

	s := analysis.Summarize(history)
	ke := make([]float64, len(history))
	for i, p := range history {
		ke[i] = p.KineticEnergy
	}

	fmt.Println(viz.HeaderStyle.Render("analysis " + meta.ID))
	fmt.Println(viz.Field("samples", fmt.Sprint(s.Samples)))
	fmt.Println(viz.Field("duration", fmt.Sprintf("%.4g", s.Duration)))
	fmt.Println(viz.Field("peak kinetic energy", fmt.Sprintf("%.6g at t = %.4g", s.PeakKineticEnergy, s.PeakTime)))
	fmt.Println(viz.Field("max displacement", fmt.Sprintf("%.6g", s.MaxDisplacement)))
	fmt.Println(viz.Field("kinetic energy", viz.Sparkline(ke, 40)))
	if s.DominantFrequency > 0 {
		fmt.Println(viz.Field("dominant frequency", fmt.Sprintf("%.4g hz", s.DominantFrequency)))
		fmt.Println(viz.Field("structural period", fmt.Sprintf("%.4g s", 2/s.DominantFrequency)))
	}
	return nil
}

func showTiming(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	if meta.TimingFile == "" {
		return fmt.Errorf("run %s has no timing record; rerun with --timing", meta.ID)
	}
	r, err := diagnostics.ReadTimingRecord(filepath.Join(st.RunDir(meta.ID), meta.TimingFile))
	if err != nil {
		return err
	}

	fmt.Println(viz.HeaderStyle.Render("timing " + meta.ID))
	fmt.Println(viz.Field("written", r.Time().Format("2006-01-02 15:04:05")))
	fmt.Println(viz.Field("participants", fmt.Sprint(r.NumRanks)))
	rows := []struct {
		label   string
		seconds float64
	}{
		{"total loop", r.TotalSimulation},
		{"internal force", r.InternalForce},
		{"contact", r.Contact},
		{"output", r.OutputWrite},
		{"vector reduction", r.VectorReduction},
	}
	for _, row := range rows {
		bar := ""
		if r.TotalSimulation > 0 {
			bar = viz.ProgressBar(row.seconds/r.TotalSimulation, 20) + " "
		}
		fmt.Println(viz.Field(row.label, bar+fmt.Sprintf("%.6f s", row.seconds)))
	}
	return nil
}
