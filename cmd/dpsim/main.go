package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/dpsim/internal/analysis"
	"github.com/san-kum/dpsim/internal/config"
	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/experiment"
	"github.com/san-kum/dpsim/internal/export"
	"github.com/san-kum/dpsim/internal/integrators"
	"github.com/san-kum/dpsim/internal/logging"
	"github.com/san-kum/dpsim/internal/physics"
	"github.com/san-kum/dpsim/internal/series"
	"github.com/san-kum/dpsim/internal/storage"
	"github.com/san-kum/dpsim/internal/viz"
)

var (
	configFile string
	preset     string
	dataDir    string

	// run overrides
	duration      float64
	speed         float64
	theta1        float64
	omega1        float64
	theta2        float64
	omega2        float64
	deterministic bool
	svgOut        string

	// plot
	seriesName string
	viewMin    float64
	viewMax    float64
	rdp        bool
	epsilon    float64
	limit      int

	// phase
	xSeries string
	ySeries string

	// export
	outFile string
	svgKind string
	svgW    int
	svgH    int

	// compare / lyapunov
	fixedDt  float64
	sampleDt float64
	lyapDt   float64
	lyapD0   float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dpsim",
		Short:         "double pendulum simulation lab",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (overrides config)")
	rootCmd.MarkFlagsMutuallyExclusive("config", "preset")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addStateFlags(runCmd)
	runCmd.Flags().BoolVar(&deterministic, "deterministic", true, "ignore the wall-clock frame budget")
	runCmd.Flags().StringVar(&svgOut, "svg", "", "also write the bob traces as SVG to this file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot one series of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&seriesName, "series", "theta1", "series: theta1, theta2, omega1, omega2, kinetic, potential, total")
	plotCmd.Flags().Float64Var(&viewMin, "min", math.Inf(-1), "start of the time window")
	plotCmd.Flags().Float64Var(&viewMax, "max", math.Inf(1), "end of the time window")
	plotCmd.Flags().BoolVar(&rdp, "rdp", false, "simplify with Ramer-Douglas-Peucker")
	plotCmd.Flags().Float64Var(&epsilon, "eps", 0.01, "RDP tolerance")
	plotCmd.Flags().IntVar(&limit, "limit", 0, "cap the number of points (0 = no cap)")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&xSeries, "x", "theta1", "series for the x-axis")
	phaseCmd.Flags().StringVar(&ySeries, "y", "omega1", "series for the y-axis")

	poincareCmd := &cobra.Command{
		Use:   "poincare [run_id]",
		Short: "plot the Poincaré section (theta2, omega2 at theta1 = 0)",
		Args:  cobra.ExactArgs(1),
		RunE:  poincarePlot,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run history to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().StringVar(&svgKind, "kind", "traces", "traces, phase or poincare")
	exportSVGCmd.Flags().StringVar(&xSeries, "x", "theta1", "phase x-axis series")
	exportSVGCmd.Flags().StringVar(&ySeries, "y", "omega1", "phase y-axis series")
	exportSVGCmd.Flags().IntVar(&svgW, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgH, "height", 800, "image height")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDURATION\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				p := config.Presets[name]
				fmt.Fprintf(w, "%s\t%.0fs\t%s\n", name, p.Duration, p.Description)
			}
			return w.Flush()
		},
	}

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "compare energy drift of the adaptive stepper against fixed-step RK4",
		Args:  cobra.NoArgs,
		RunE:  compareIntegrators,
	}
	addStateFlags(compareCmd)
	compareCmd.Flags().Float64Var(&fixedDt, "dt", 0.005, "RK4 timestep")
	compareCmd.Flags().Float64Var(&sampleDt, "sample", 0.05, "drift sampling interval")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov",
		Short: "estimate the largest Lyapunov exponent",
		Args:  cobra.NoArgs,
		RunE:  lyapunovExponent,
	}
	addStateFlags(lyapunovCmd)
	lyapunovCmd.Flags().Float64Var(&lyapDt, "dt", 0.001, "timestep")
	lyapunovCmd.Flags().Float64Var(&lyapD0, "d0", 1e-8, "initial separation")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the simulation with a live terminal dashboard",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addStateFlags(liveCmd)

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, phaseCmd, poincareCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, compareCmd, lyapunovCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addStateFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "simulated seconds")
	cmd.Flags().Float64Var(&speed, "speed", config.DefaultSpeed, "simulation speed multiplier")
	cmd.Flags().Float64Var(&theta1, "theta1", 0, "initial angle of the first rod (rad)")
	cmd.Flags().Float64Var(&omega1, "omega1", 0, "initial angular velocity of the first rod")
	cmd.Flags().Float64Var(&theta2, "theta2", 0, "initial angle of the second rod relative to the first (rad)")
	cmd.Flags().Float64Var(&omega2, "omega2", 0, "initial relative angular velocity of the second rod")
}

// loadConfig resolves the preset or config file, the environment (including
// an optional .env file) and any flags the user set explicitly, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	var cfg *config.Config
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		if err := config.ApplyEnv(cfg); err != nil {
			return nil, err
		}
	} else {
		var err error
		if cfg, err = config.Resolve(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("speed") {
		cfg.Speed = speed
	}
	if flags.Changed("theta1") {
		cfg.InitState.Theta1 = theta1
	}
	if flags.Changed("omega1") {
		cfg.InitState.Omega1 = omega1
	}
	if flags.Changed("theta2") {
		cfg.InitState.Theta2 = theta2
	}
	if flags.Changed("omega2") {
		cfg.InitState.Omega2 = omega2
	}
	if flags.Lookup("deterministic") != nil {
		cfg.Deterministic = deterministic
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore resolves the data directory without requiring a full config.
func openStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.DataDir), nil
}

func loadRun(cmd *cobra.Command, runID string) (*storage.RunMetadata, analysis.Table, error) {
	st, err := openStore(cmd)
	if err != nil {
		return nil, nil, err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	table, err := st.LoadHistory(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, table, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	name := cfg.Preset
	if name == "" {
		name = "custom"
	}
	fmt.Printf("running %s simulation (%.1fs)...\n", name, cfg.Duration)

	exp := experiment.New(cfg, log)
	result, err := exp.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	runID, err := st.Save(exp.Record(result))
	if err != nil {
		return err
	}

	d := result.Driver
	fmt.Printf("completed in %v\n", result.Elapsed.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d  frames: %d  t: %.3fs\n", d.Steps(), result.Frames, d.Time())
	if d.Failed() {
		fmt.Printf("halted: %v\n", d.Err())
	}
	if t := result.Flips.FirstFlip; t >= 0 {
		fmt.Printf("first flip: %.3fs\n", t)
	}
	fmt.Println("\nmetrics:")
	metrics := d.Metrics()
	for _, name := range sortedKeys(metrics) {
		fmt.Printf("  %s: %.6g\n", name, metrics[name])
	}

	if svgOut != "" {
		svg := export.TracesToSVG(d.Trace1(), d.Trace2(), 800, 800)
		if !d.SaveTextToFile(svgOut, svg) {
			return fmt.Errorf("could not write %s", svgOut)
		}
		fmt.Printf("traces: %s\n", svgOut)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintf(out, "no runs found in %s\n", st.Dir())
		return nil
	}

	fmt.Fprintf(out, "runs in %s\n", st.Dir())
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tSTEPS\tDRIFT\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if run.Failed {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%d\t%.2e\t%s\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.SimTime,
			run.Steps,
			run.Metrics["energy_drift"],
			status,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := analysis.ParseSeriesType(seriesName)
	if err != nil {
		return err
	}
	meta, table, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}

	pts := analysis.Process(table, analysis.Query{
		Series:    st,
		Min:       viewMin,
		Max:       viewMax,
		Simplify:  rdp,
		Epsilon:   epsilon,
		Limit:     limit > 0,
		MaxPoints: limit,
	})
	if len(pts) == 0 {
		return fmt.Errorf("no data to plot")
	}

	data := make([]float64, len(pts))
	for i, p := range pts {
		data[i] = p.V
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d of %d\n", len(pts), len(table[st]))
	fmt.Printf("window: %.3fs .. %.3fs\n\n", pts[0].T, pts[len(pts)-1].T)

	caption := fmt.Sprintf("%s (%s) vs time", st, st.Unit())
	fmt.Println(asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	))
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	xs, err := analysis.ParseSeriesType(xSeries)
	if err != nil {
		return err
	}
	ys, err := analysis.ParseSeriesType(ySeries)
	if err != nil {
		return err
	}
	meta, table, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}

	points := analysis.PhasePortrait(table, xs, ys)
	if len(points) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("x-axis: %s (%s), y-axis: %s (%s)\n\n", xs, xs.Unit(), ys, ys.Unit())
	fmt.Println(analysis.PhasePortraitToASCII(points, 70, 20))
	return nil
}

func poincarePlot(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	points, err := st.LoadPoincare(args[0])
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Println("no section crossings recorded")
		return nil
	}

	fmt.Printf("poincaré section: %s\n", meta.ID)
	fmt.Printf("crossings: %d\n\n", len(points))
	fmt.Println(analysis.PoincareToASCII(points, 70, 20))
	return nil
}

// writeOutput writes content to outFile, or stdout when no file was given.
func writeOutput(content string) error {
	if outFile == "" {
		_, err := fmt.Fprint(os.Stdout, content)
		return err
	}
	if err := storage.SaveText(outFile, content); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "exported to %s\n", outFile)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, table, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	var sb strings.Builder
	if err := storage.WriteHistoryCSV(&sb, table); err != nil {
		return err
	}
	return writeOutput(sb.String())
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	table, err := st.LoadHistory(args[0])
	if err != nil {
		return err
	}
	poincare, err := st.LoadPoincare(args[0])
	if err != nil {
		return err
	}

	var sb strings.Builder
	if err := storage.ExportJSON(&sb, storage.Run{Meta: *meta, History: table, Poincare: poincare}); err != nil {
		return err
	}
	return writeOutput(sb.String())
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	var svg string
	switch svgKind {
	case "traces":
		table, err := st.LoadHistory(args[0])
		if err != nil {
			return err
		}
		t1, t2 := bobTraces(meta.Params, table)
		svg = export.TracesToSVG(t1, t2, svgW, svgH)
	case "phase":
		xs, err := analysis.ParseSeriesType(xSeries)
		if err != nil {
			return err
		}
		ys, err := analysis.ParseSeriesType(ySeries)
		if err != nil {
			return err
		}
		table, err := st.LoadHistory(args[0])
		if err != nil {
			return err
		}
		svg = export.TrajectoryToSVG(analysis.PhasePortrait(table, xs, ys), svgW, svgH, export.Trace1Color)
	case "poincare":
		points, err := st.LoadPoincare(args[0])
		if err != nil {
			return err
		}
		svg = export.ScatterToSVG(points, svgW, svgH, export.Trace2Color)
	default:
		return fmt.Errorf("unknown svg kind: %s (available: traces, phase, poincare)", svgKind)
	}
	return writeOutput(svg)
}

// bobTraces rebuilds both bob paths from the recorded angles.
func bobTraces(params map[string]float64, table analysis.Table) ([]series.Vec2, []series.Vec2) {
	model := physics.NewDoublePendulum(physics.DefaultParams())
	for name, v := range params {
		_, _ = model.SetParam(name, v)
	}

	th1, th2 := table.Theta1(), table.Theta2()
	n := min(len(th1), len(th2))
	t1 := make([]series.Vec2, n)
	t2 := make([]series.Vec2, n)
	for i := 0; i < n; i++ {
		x1, y1, x2, y2 := model.Positions(dynamo.State{th1[i].V, 0, th2[i].V, 0})
		t1[i] = series.Vec2{X: x1, Y: y1}
		t2[i] = series.Vec2{X: x2, Y: y2}
	}
	return t1, t2
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("comparing integrators over %.1fs\n\n", cfg.Duration)
	cmp, err := experiment.Compare(ctx, cfg, fixedDt, sampleDt)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tFINAL DRIFT\tMAX DRIFT\tEVALUATIONS")
	for _, row := range []struct {
		name  string
		pts   []series.Point
		evals int
	}{
		{"dopri5", cmp.Adaptive, cmp.Evals},
		{fmt.Sprintf("rk4 (dt=%g)", fixedDt), cmp.Fixed, cmp.FixedEvals},
	} {
		final, peak := 0.0, 0.0
		for _, p := range row.pts {
			peak = max(peak, p.V)
		}
		if len(row.pts) > 0 {
			final = row.pts[len(row.pts)-1].V
		}
		fmt.Fprintf(w, "%s\t%.3e\t%.3e\t%d\n", row.name, final, peak, row.evals)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(cmp.Fixed) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.PlotMany([][]float64{values(cmp.Adaptive), values(cmp.Fixed)},
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Red),
			asciigraph.Caption("relative energy drift: dopri5 (cyan), rk4 (red)"),
		))
	}
	return nil
}

func lyapunovExponent(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	model := physics.NewDoublePendulum(cfg.Params.PhysicsParams())
	x0 := cfg.InitState.State()
	start := time.Now()
	lambda := analysis.Lyapunov(model, integrators.NewRK4(), x0, lyapDt, cfg.Duration, lyapD0)

	fmt.Printf("initial state: %v\n", []float64(x0))
	fmt.Printf("largest lyapunov exponent: %.4f (%.1fs simulated in %v)\n",
		lambda, cfg.Duration, time.Since(start).Round(time.Millisecond))
	if lambda > 0.1 {
		fmt.Println("trajectory is chaotic")
	} else {
		fmt.Println("trajectory is regular")
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// the dashboard owns the terminal, so engine logs are discarded
	return viz.Run(cfg, zap.NewNop())
}

func values(pts []series.Point) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.V
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
