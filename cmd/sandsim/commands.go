package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/sandsim/internal/automation"
	"github.com/san-kum/sandsim/internal/config"
	"github.com/san-kum/sandsim/internal/ctxlog"
	"github.com/san-kum/sandsim/internal/experiment"
	"github.com/san-kum/sandsim/internal/export"
	"github.com/san-kum/sandsim/internal/gui"
	"github.com/san-kum/sandsim/internal/storage"
	"github.com/san-kum/sandsim/internal/viz"
)

func setupExperiment(cmd *cobra.Command, args []string) (*experiment.Experiment, error) {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return nil, err
	}
	exp := experiment.New(cfg, ctxlog.FromContext(cmd.Context()))
	if err := exp.Setup(); err != nil {
		return nil, err
	}
	return exp, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	exp, err := setupExperiment(cmd, args)
	if err != nil {
		return err
	}
	if saveConfig != "" {
		if err := config.Save(saveConfig, exp.Config()); err != nil {
			return err
		}
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running %s simulation...\n", exp.Config().Scene)
	start := time.Now()

	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(exp.Metadata(preset), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("particles: %d (spawned %d)\n", len(result.Final), result.Spawned)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	exp, err := setupExperiment(cmd, args)
	if err != nil {
		return err
	}
	return viz.Run(exp)
}

func runGUI(cmd *cobra.Command, args []string) error {
	exp, err := setupExperiment(cmd, args)
	if err != nil {
		return err
	}
	gui.Run(exp)
	return nil
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

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tPRESET\tTIME\tDURATION\tCELL\tPARTICLES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%g\t%.0f\n",
			run.ID,
			run.Scene,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.CellSize,
			run.Metrics["particles"],
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("frames: %d\n\n", len(frames))

	particles := make([]float64, len(frames))
	moving := make([]float64, len(frames))
	for i, f := range frames {
		particles[i] = float64(f.Particles)
		moving[i] = float64(f.Moving)
	}

	for _, s := range []struct {
		caption string
		data    []float64
	}{
		{"particles", particles},
		{"moving", moving},
	} {
		fmt.Println(asciigraph.Plot(s.data,
			asciigraph.Height(plotHeight),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		))
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
}

// output returns the writer for -o, closing it through the returned func.
func output() (io.Writer, func() error, error) {
	if outFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	var rows [][]string
	if withFinal {
		final, err := st.LoadFinal(runID)
		if err != nil {
			return err
		}
		rows = append(rows, []string{"id", "kind", "x", "y"})
		for _, p := range final {
			rows = append(rows, []string{
				strconv.FormatUint(uint64(p.ID), 10),
				p.Kind.String(),
				strconv.FormatFloat(float64(p.Pos.X), 'g', -1, 32),
				strconv.FormatFloat(float64(p.Pos.Y), 'g', -1, 32),
			})
		}
	} else {
		frames, err := st.LoadFrames(runID)
		if err != nil {
			return err
		}
		rows = append(rows, []string{"time", "particles", "moving", "sleeping", "spawned", "despawned"})
		for _, f := range frames {
			rows = append(rows, []string{
				strconv.FormatFloat(f.Time, 'f', 6, 64),
				strconv.Itoa(f.Particles),
				strconv.Itoa(f.Moving),
				strconv.Itoa(f.Sleeping),
				strconv.Itoa(f.Spawned),
				strconv.Itoa(f.Despawned),
			})
		}
	}

	w, closeFn, err := output()
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	var svg string
	if series {
		frames, err := st.LoadFrames(runID)
		if err != nil {
			return err
		}
		counts := make([]float64, len(frames))
		for i, f := range frames {
			counts[i] = float64(f.Particles)
		}
		svg = export.SeriesToSVG(counts, 800, 300, "#e8c170")
		if svg == "" {
			return fmt.Errorf("run %s has too few frames to plot", runID)
		}
	} else {
		final, err := st.LoadFinal(runID)
		if err != nil {
			return err
		}
		view := export.View{
			CellSize: float32(meta.CellSize),
			Width:    float32(meta.Width),
			Height:   float32(meta.Height),
		}
		svg = export.ParticlesToSVG(final, view, float32(svgScale))
	}

	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, svg+"\n"); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func benchScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %s: %d seeds x %.1fs...\n", cfg.Scene, trials, cfg.Duration)
	start := time.Now()
	stats, err := automation.RunTrials(cmd.Context(), cfg, trials)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	steps := float64(stats.Runs) * cfg.Duration / cfg.Dt
	fmt.Printf("completed in %v (%.0f steps/s)\n", elapsed, steps/elapsed.Seconds())
	fmt.Printf("  mean particles:   %.1f\n", stats.MeanParticles)
	fmt.Printf("  mean pile height: %.2f cells\n", stats.MeanPile)
	fmt.Printf("  mean settle time: %.3fs\n", stats.MeanSettle)
	fmt.Printf("  still moving:     %d/%d\n", stats.StillMoving, stats.Runs)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Base:      cfg,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tPARTICLES\tPILE\tSETTLE\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		settle := "moving"
		if r.SettleTime >= 0 {
			settle = fmt.Sprintf("%.3fs", r.SettleTime)
		}
		fmt.Fprintf(w, "%g\t%d\t%.2f\t%s\n", r.ParamValue, r.Particles, r.PileHeight, settle)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("scenario: %s (%d steps)\n", sc.Name, len(sc.Steps))
	results, err := automation.RunScenario(cmd.Context(), sc, st)
	for _, r := range results {
		saved := "-"
		if r.RunID != "" {
			saved = r.RunID
		}
		fmt.Printf("  step %d: %d particles, %d steps, saved %s\n", r.Step, len(r.Result.Final), r.Result.StepsTaken, saved)
	}
	return err
}
