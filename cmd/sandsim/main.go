package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/san-kum/sandsim/internal/config"
	"github.com/san-kum/sandsim/internal/ctxlog"
	"github.com/san-kum/sandsim/internal/scene"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string
	dt         float64
	duration   float64
	seed       int64
	cellSize   float64
	fallSpeed  float64
	tieBreak   string
	floor      string
	brush      string
	sleepAfter int
	width      float64
	height     float64

	trials     int
	saveConfig string
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	outFile    string
	svgScale   float64
	series     bool
	withFinal  bool
	plotHeight int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "sandsim",
		Short:         "falling sand simulation lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctxlog.New(os.Stderr, logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".sandsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a headless simulation and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the resolved configuration to this file")

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "run a simulation in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	guiCmd := &cobra.Command{
		Use:   "gui [scene]",
		Short: "run a simulation in a window",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGUI,
	}
	addSimFlags(guiCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot particle counts of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height in rows")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run frames to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().BoolVar(&withFinal, "final", false, "export the final particles instead of frames")
	exportCSVCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render the final particles of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().Float64Var(&svgScale, "scale", 1, "pixels per world unit")
	exportSVGCmd.Flags().BoolVar(&series, "series", false, "plot the particle count over time instead")
	exportSVGCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "run a scene over several seeds in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScene,
	}
	addSimFlags(benchCmd)
	benchCmd.Flags().IntVar(&trials, "trials", 8, "number of seeds")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scene]",
		Short: "sweep one engine parameter over a range",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "fall_speed", "parameter (cell_size, fall_speed, sleep_after)")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 60, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 480, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-10s scene=%s cell=%g speed=%g\n", name, p.Scene, p.Grid.CellSize, p.Grid.FallSpeed)
			}
		},
	}

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "list scenes",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range scene.List() {
				sc, _ := scene.Get(name)
				fmt.Printf("  %-10s %s\n", name, sc.Description())
			}
		},
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	rootCmd.AddCommand(runCmd, liveCmd, guiCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportSVGCmd, benchCmd, sweepCmd, presetsCmd, scenesCmd, scenarioCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep in seconds")
	f.Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	f.Int64Var(&seed, "seed", 0, "random seed")
	f.Float64Var(&cellSize, "cell", config.DefaultCellSize, "cell size in world units")
	f.Float64Var(&fallSpeed, "speed", config.DefaultFallSpeed, "fall speed in units per second")
	f.StringVar(&tieBreak, "tie-break", "left", "slide preference (left, right, alternate)")
	f.StringVar(&floor, "floor", "clamp", "floor behaviour (clamp, despawn)")
	f.StringVar(&brush, "brush", "single", "brush pattern (single, plus)")
	f.IntVar(&sleepAfter, "sleep-after", config.DefaultSleep, "idle ticks before a grain sleeps (0 disables)")
	f.Float64Var(&width, "width", 0, "viewport width (0 for unbounded)")
	f.Float64Var(&height, "height", config.DefaultHeight, "viewport height")
}

// resolveConfig layers the configuration: preset, then config file, then
// explicitly set flags. The scene argument wins over all of them.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("cell") {
		cfg.Grid.CellSize = cellSize
	}
	if flags.Changed("speed") {
		cfg.Grid.FallSpeed = fallSpeed
	}
	if flags.Changed("tie-break") {
		cfg.TieBreak = tieBreak
	}
	if flags.Changed("floor") {
		cfg.Floor = floor
	}
	if flags.Changed("brush") {
		cfg.Brush.Pattern = brush
	}
	if flags.Changed("sleep-after") {
		cfg.SleepAfter = sleepAfter
	}
	if flags.Changed("width") {
		cfg.Viewport.Width = width
	}
	if flags.Changed("height") {
		cfg.Viewport.Height = height
	}
	if len(args) > 0 {
		cfg.Scene = args[0]
	}

	return cfg, cfg.Validate()
}
