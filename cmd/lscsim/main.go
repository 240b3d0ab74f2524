package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/lscsim/internal/analysis"
	"github.com/san-kum/lscsim/internal/automation"
	"github.com/san-kum/lscsim/internal/config"
	"github.com/san-kum/lscsim/internal/dynamo"
	"github.com/san-kum/lscsim/internal/experiment"
	"github.com/san-kum/lscsim/internal/export"
	"github.com/san-kum/lscsim/internal/optim"
	"github.com/san-kum/lscsim/internal/physics"
	"github.com/san-kum/lscsim/internal/storage"
	"github.com/san-kum/lscsim/internal/tui"
	"github.com/san-kum/lscsim/internal/viz"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// cli holds the flag values and shared state of one invocation.
type cli struct {
	dataDir string
	verbose bool
	logger  *zap.Logger
	reg     *experiment.Registry

	// drift configuration
	configFile  string
	preset      string
	solver      string
	integrator  string
	loading     string
	seed        int64
	particles   int
	points      int
	length      float64
	modulation  float64
	compression float64
	current     float64

	name  string
	watch bool
	fps   int

	// diagnostics
	harmonics int
	snapshots bool
	outFile   string
	svgFile   string
	imageFile string
	bins      int

	// sweeps
	param     string
	paramMin  float64
	paramMax  float64
	steps     int
	workers   int
	trials    int
	seedStart int64

	// grid search
	axes     []string
	metric   string
	minimize bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := &cli{reg: experiment.NewRegistry()}
	if err := c.rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lscsim",
		Short: "longitudinal space-charge drift simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.logger != nil {
				return nil
			}
			zcfg := zap.NewProductionConfig()
			if c.verbose {
				zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
			}
			logger, err := zcfg.Build()
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
		RunE: c.interactive,
	}
	rootCmd.PersistentFlags().StringVar(&c.dataDir, "data", ".lscsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a drift and save it",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.addConfigFlags(runCmd)
	runCmd.Flags().StringVar(&c.name, "name", "", "run id (default: generated)")
	runCmd.Flags().BoolVar(&c.watch, "watch", false, "redraw phase space as snapshots arrive")
	runCmd.Flags().IntVar(&c.fps, "fps", 10, "frame rate for --watch")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a drift in the live terminal view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			return c.live(cmd, cfg)
		},
	}
	c.addConfigFlags(liveCmd)
	liveCmd.Flags().StringVar(&c.name, "name", "", "run id (default: generated)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  c.list,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot spread and bunching history",
		Args:  cobra.ExactArgs(1),
		RunE:  c.plot,
	}
	plotCmd.Flags().StringVar(&c.imageFile, "image", "", "also write the curves to an image file (.svg, .png, .pdf)")

	profileCmd := &cobra.Command{
		Use:   "profile [run_id]",
		Short: "density and field profile of the final snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  c.profile,
	}
	profileCmd.Flags().IntVar(&c.bins, "bins", 128, "number of bins over one period")
	profileCmd.Flags().StringVar(&c.svgFile, "svg", "", "also write the final phase space as SVG")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "recompute a saved run from its config and seed and export it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  c.exportJSON,
	}
	exportJSONCmd.Flags().IntVar(&c.harmonics, "harmonics", 3, "bunching harmonics to export")
	exportJSONCmd.Flags().BoolVar(&c.snapshots, "snapshots", false, "include every snapshot")
	exportJSONCmd.Flags().StringVarP(&c.outFile, "out", "o", "", "output file (default: stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets, field solvers and integrators",
		Args:  cobra.NoArgs,
		RunE:  c.presets,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario.yaml]",
		Short: "run a scenario file or a single parameter sweep",
		Args:  cobra.MaximumNArgs(1),
		RunE:  c.sweep,
	}
	c.addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&c.param, "param", "laser.compression", "parameter to sweep (dotted yaml path)")
	sweepCmd.Flags().Float64Var(&c.paramMin, "min", 0.2, "first value")
	sweepCmd.Flags().Float64Var(&c.paramMax, "max", 1.2, "last value")
	sweepCmd.Flags().IntVar(&c.steps, "steps", 6, "number of values")
	sweepCmd.Flags().IntVar(&c.workers, "workers", dynamo.DefaultWorkers, "concurrent runs")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "repeat a drift over consecutive seeds",
		Args:  cobra.NoArgs,
		RunE:  c.monteCarlo,
	}
	c.addConfigFlags(mcCmd)
	mcCmd.Flags().IntVar(&c.trials, "trials", 8, "number of seeds")
	mcCmd.Flags().Int64Var(&c.seedStart, "seed-start", 1, "first seed (0: from the clock)")
	mcCmd.Flags().IntVar(&c.workers, "workers", dynamo.DefaultWorkers, "concurrent runs")

	optCmd := &cobra.Command{
		Use:   "optimize",
		Short: "grid-search parameters for the best value of a metric",
		Example: `  lscsim optimize --axis laser.modulation=1:4:4 --axis laser.compression=0.2:1:5
  lscsim optimize --axis beam.current=50:200:4 --metric spread_growth --minimize`,
		Args: cobra.NoArgs,
		RunE: c.optimize,
	}
	c.addConfigFlags(optCmd)
	optCmd.Flags().StringArrayVar(&c.axes, "axis", nil, "searched parameter as name=min:max:steps (repeatable)")
	optCmd.Flags().StringVar(&c.metric, "metric", "peak_bunching", "metric to rank runs by")
	optCmd.Flags().BoolVar(&c.minimize, "minimize", false, "look for the smallest value instead of the largest")
	optCmd.Flags().IntVar(&c.workers, "workers", dynamo.DefaultWorkers, "concurrent runs")
	_ = optCmd.MarkFlagRequired("axis")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, profileCmd, exportJSONCmd, presetsCmd, sweepCmd, mcCmd, optCmd)
	return rootCmd
}

func (c *cli) addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&c.configFile, "config", "", "config file path (yaml)")
	f.StringVar(&c.preset, "preset", "", "use preset configuration")
	f.StringVar(&c.solver, "solver", config.SolverHarmonic, "field solver (harmonic|grid)")
	f.StringVar(&c.integrator, "integrator", "rk45", "integrator")
	f.StringVar(&c.loading, "loading", config.LoadingRandom, "initial loading (random|quiet)")
	f.Int64Var(&c.seed, "seed", 1, "random seed (0: from the clock)")
	f.IntVar(&c.particles, "particles", config.DefaultParticles, "macro-particles")
	f.IntVar(&c.points, "points", config.DefaultEvalPoints, "evaluation points")
	f.Float64Var(&c.length, "length", config.DefaultDriftLength, "drift length (m)")
	f.Float64Var(&c.modulation, "modulation", config.DefaultModulation, "modulation amplitude A/σ_η0")
	f.Float64Var(&c.compression, "compression", config.DefaultCompression, "compression k·R56·σ_η0")
	f.Float64Var(&c.current, "current", config.DefaultCurrent, "beam current (A)")
}

// loadConfig starts from the defaults, a preset or a config file (the file
// wins over the preset) and applies the flags the user set explicitly.
func (c *cli) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if c.preset != "" {
		cfg = config.GetPreset(c.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", c.preset, config.ListPresets())
		}
	}
	if c.configFile != "" {
		loaded, err := config.Load(c.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("solver") {
		cfg.Solver = c.solver
	}
	if f.Changed("integrator") {
		cfg.Integrator = c.integrator
	}
	if f.Changed("loading") {
		cfg.Loading = c.loading
	}
	if f.Changed("seed") {
		cfg.Seed = c.seed
	}
	if f.Changed("particles") {
		cfg.Beam.Particles = c.particles
	}
	if f.Changed("points") {
		cfg.Drift.EvalPoints = c.points
	}
	if f.Changed("length") {
		cfg.Drift.Length = c.length
	}
	if f.Changed("modulation") {
		cfg.Laser.Modulation = c.modulation
	}
	if f.Changed("compression") {
		cfg.Laser.Compression = c.compression
	}
	if f.Changed("current") {
		cfg.Beam.Current = c.current
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *cli) store() (*storage.Store, error) {
	st := storage.New(c.dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := c.store()
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, c.reg, experiment.WithLogger(c.logger))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var res *experiment.Result
	if c.watch {
		r := tui.NewLiveRenderer(out, viz.InfoFor(exp), c.fps)
		exp.GetSimulator().AddObserver(r)
		r.Start()
		res, err = exp.RunWithCallback(cmd.Context(), func(int, float64, *dynamo.Ensemble) bool { return true })
		r.Stop()
	} else {
		fmt.Fprintf(out, "drifting %d particles over %.4g m (%s, %s)...\n",
			cfg.Beam.Particles, cfg.Drift.Length, cfg.Solver, cfg.Integrator)
		res, err = exp.Run(cmd.Context())
	}
	if err != nil {
		return err
	}

	runID, err := st.Save(c.name, res)
	if err != nil {
		return err
	}
	printSummary(out, runID, res)
	return nil
}

func (c *cli) live(cmd *cobra.Command, cfg *config.Config) error {
	exp, err := experiment.New(cfg, c.reg)
	if err != nil {
		return err
	}

	res, err := viz.RunLive(cmd.Context(), exp)
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}

	st, err := c.store()
	if err != nil {
		return err
	}
	runID, err := st.Save(c.name, res)
	if err != nil {
		return err
	}
	c.logger.Info("Live run saved", zap.String("run", runID), zap.Int("snapshots", res.Trajectory.Len()))
	printSummary(cmd.OutOrStdout(), runID, res)
	return nil
}

func (c *cli) interactive(cmd *cobra.Command, args []string) error {
	cfg, err := tui.RunInteractive(c.reg.ListIntegrators())
	if err != nil || cfg == nil {
		return err
	}
	return c.live(cmd, cfg)
}

func printSummary(w io.Writer, runID string, res *experiment.Result) {
	fmt.Fprintln(w, titleStyle.Render("drift complete"))
	row := func(label, value string) {
		fmt.Fprintln(w, labelStyle.Render(label)+valueStyle.Render(value))
	}
	row("run id", runID)
	row("solver", fmt.Sprintf("%s / %s", res.Solver, res.Engine))
	row("seed", fmt.Sprintf("%d", res.Seed))
	row("elapsed", res.Elapsed.String())
	row("steps", fmt.Sprintf("%d (%d evaluations)", res.Trajectory.Steps, res.Trajectory.Evaluations))
	row("report", res.Report.String())

	names := make([]string, 0, len(res.Trajectory.Metrics))
	for name := range res.Trajectory.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		row(name, fmt.Sprintf("%.6g", res.Trajectory.Metrics[name]))
	}

	if len(res.Spread) > 1 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, asciigraph.Plot(res.Spread,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption("σ_η/σ_η0 vs z"),
		))
	}
}

func (c *cli) list(cmd *cobra.Command, args []string) error {
	st := storage.New(c.dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOLVER\tINTEG\tTIME\tN\tLENGTH\tGROWTH\tPEAK_B1")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4gm\t%.4f\t%.4f\n",
			run.ID,
			run.Solver,
			run.Integrator,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.Length,
			run.Growth,
			run.PeakBunching,
		)
	}
	return w.Flush()
}

func (c *cli) plot(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(c.dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	h, err := st.LoadSpread(runID)
	if err != nil {
		return err
	}
	if len(h.Z) == 0 {
		return fmt.Errorf("no data to plot")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "solver: %s / %s\n", meta.Solver, meta.Integrator)
	fmt.Fprintf(out, "snapshots: %d over %.4g m\n\n", len(h.Z), meta.Length)

	for _, series := range []struct {
		caption string
		data    []float64
	}{
		{"σ_η/σ_η0 vs z", h.Spread},
		{"|b1| vs z", h.Bunching},
	} {
		fmt.Fprintln(out, asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		))
		fmt.Fprintln(out)
	}

	if c.imageFile != "" {
		p, err := export.SpreadPlot(fmt.Sprintf("%s: %s / %s", meta.ID, meta.Solver, meta.Integrator), h.Z, h.Spread, h.Bunching)
		if err != nil {
			return err
		}
		if err := export.SavePlot(p, c.imageFile); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", c.imageFile)
	}
	return nil
}

// profile bins the stored final snapshot and recomputes its field with the
// solver the run was made with.
func (c *cli) profile(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(c.dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	if meta.Config == nil {
		return fmt.Errorf("run %s has no stored config", runID)
	}
	pos, eta, err := st.LoadFinal(runID)
	if err != nil {
		return err
	}

	params, err := physics.NewParams(meta.Config)
	if err != nil {
		return err
	}
	solver, err := c.reg.GetSolver(meta.Config.Solver, params, meta.Config)
	if err != nil {
		return err
	}
	ens := &dynamo.Ensemble{Pos: pos, Eta: eta}
	traj := &dynamo.Trajectory{
		Z:      []float64{meta.Length},
		States: []dynamo.State{ens.State()},
		Coord:  params.Coord,
		Period: params.Period(),
	}

	prof, err := analysis.Profile(traj, 0, solver, c.bins)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s  z=%.4g m  %d bins over one period\n\n", meta.ID, prof.Z, c.bins)
	fmt.Fprintln(out, asciigraph.Plot(prof.Density,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("density vs %s (mean 1)", params.Coord)),
	))
	fmt.Fprintln(out)
	fmt.Fprintln(out, asciigraph.Plot(prof.Field,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("E (V/m)"),
	))
	fmt.Fprintln(out)

	ps := analysis.PowerSpectrum(prof.Density)
	fmt.Fprintf(out, "dominant density mode: %d\n", analysis.DominantMode(ps))

	if c.svgFile != "" {
		portrait := analysis.EnsemblePortrait(ens.Wrapped(traj.Period), meta.Length, 20000)
		svg := export.PortraitToSVG(portrait, traj.Period, 100, 30, "#ff79c6")
		if err := os.WriteFile(c.svgFile, []byte(svg), 0644); err != nil {
			return fmt.Errorf("failed to write svg: %w", err)
		}
		fmt.Fprintf(out, "wrote %s\n", c.svgFile)
	}
	return nil
}

func (c *cli) exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(c.dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	if meta.Config == nil {
		return fmt.Errorf("run %s has no stored config", runID)
	}

	cfg := meta.Config.Clone()
	cfg.Seed = meta.Seed
	exp, err := experiment.New(cfg, c.reg, experiment.WithLogger(c.logger))
	if err != nil {
		return err
	}
	res, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}

	data, err := storage.NewExportData(res, c.harmonics, c.snapshots)
	if err != nil {
		return err
	}
	if c.outFile == "" {
		return storage.ExportJSONTo(cmd.OutOrStdout(), data)
	}
	if err := storage.ExportJSON(c.outFile, data); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", runID, c.outFile)
	return nil
}

func (c *cli) presets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("presets"))
	for _, p := range config.ListPresets() {
		cfg := config.GetPreset(p)
		fmt.Fprintf(out, "  %-12s %s, %d particles, A=%.2g, B=%.2g, L=%.3g m\n",
			p, cfg.Solver, cfg.Beam.Particles, cfg.Laser.Modulation, cfg.Laser.Compression, cfg.Drift.Length)
	}
	fmt.Fprintln(out, titleStyle.Render("solvers"))
	for _, s := range c.reg.ListSolvers() {
		fmt.Fprintf(out, "  %s\n", s)
	}
	fmt.Fprintln(out, titleStyle.Render("integrators"))
	for _, s := range c.reg.ListIntegrators() {
		fmt.Fprintf(out, "  %s\n", s)
	}
	return nil
}

func (c *cli) sweep(cmd *cobra.Command, args []string) error {
	runner := automation.NewRunner(c.reg, c.logger, c.workers)
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		cfg, err := c.loadConfig(cmd)
		if err != nil {
			return err
		}
		return c.runSweep(cmd, runner, &automation.ParameterSweep{
			Base:      cfg,
			ParamName: c.param,
			ParamMin:  c.paramMin,
			ParamMax:  c.paramMax,
			NumSteps:  c.steps,
		})
	}

	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s  %s\n", titleStyle.Render(scenario.Name), scenario.Description)

	results, err := runner.RunScenario(cmd.Context(), scenario)
	if err != nil {
		return err
	}
	if len(results) > 0 {
		st, err := c.store()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STEP\tSOLVER\tINTEG\tGROWTH\tPEAK_B1\tSAVED")
		for _, r := range results {
			saved := "-"
			if r.Step.SaveAs != "" {
				if saved, err = st.Save(r.Step.SaveAs, r.Result); err != nil {
					return err
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.4f\t%s\n",
				r.Step.Name, r.Result.Solver, r.Result.Engine, r.Result.Report.Growth, r.Result.Report.PeakBunching, saved)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	sweeps, err := scenario.ParameterSweeps()
	if err != nil {
		return err
	}
	for _, sw := range sweeps {
		if err := c.runSweep(cmd, runner, sw); err != nil {
			return err
		}
	}
	return nil
}

func (c *cli) runSweep(cmd *cobra.Command, runner *automation.Runner, sw *automation.ParameterSweep) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nsweep %s over [%g, %g] in %d steps\n", sw.ParamName, sw.ParamMin, sw.ParamMax, sw.NumSteps)

	results, err := runner.RunSweep(cmd.Context(), sw)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VALUE\tINITIAL\tFINAL\tGROWTH\tPEAK_B1\tSTEPS\tTIME")
	growth := make([]float64, len(results))
	for i, r := range results {
		growth[i] = r.Growth
		fmt.Fprintf(w, "%.4g\t%.5f\t%.5f\t%.4f\t%.4f\t%d\t%v\n",
			r.ParamValue, r.Initial, r.Final, r.Growth, r.PeakBunching, r.Steps, r.Elapsed)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(growth) > 1 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, asciigraph.Plot(growth,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption("growth vs "+sw.ParamName),
		))
	}
	return nil
}

func (c *cli) monteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}

	runner := automation.NewRunner(c.reg, c.logger, c.workers)
	results, err := runner.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:      cfg,
		NumTrials: c.trials,
		SeedStart: c.seedStart,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSEED\tGROWTH\tPEAK_B1\tSTABLE")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%.4f\t%.4f\t%t\n", r.TrialID, r.Seed, r.Growth, r.PeakBunching, r.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	mean, std, stable, unstable := automation.MonteCarloStats(results)
	fmt.Fprintf(out, "\ngrowth %.4f ± %.4f over %d seeds\n", mean, std, len(results))
	if unstable > 0 {
		fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("%d of %d trials left the stability bound", unstable, stable+unstable)))
	}
	return nil
}

func (c *cli) optimize(cmd *cobra.Command, args []string) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}

	axes := make([]optim.Axis, 0, len(c.axes))
	for _, spec := range c.axes {
		a, err := optim.ParseAxis(spec)
		if err != nil {
			return err
		}
		axes = append(axes, a)
	}

	g := optim.NewGridSearch(c.metric, !c.minimize, axes...)
	g.Workers = c.workers
	g.Logger = c.logger
	best, points, err := g.Search(cmd.Context(), c.reg, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := ""
	for _, a := range axes {
		header += strings.ToUpper(a.Param) + "\t"
	}
	fmt.Fprintln(w, header+strings.ToUpper(c.metric))
	for _, p := range points {
		for _, a := range axes {
			fmt.Fprintf(w, "%.4g\t", p.Params[a.Param])
		}
		fmt.Fprintf(w, "%.5g\n", p.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("best %s = %.5g", c.metric, best.Value)))
	for _, a := range axes {
		fmt.Fprintln(out, labelStyle.Width(20).Render(a.Param)+valueStyle.Render(fmt.Sprintf("%.4g", best.Params[a.Param])))
	}
	return nil
}
