package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/twinvector/internal/automation"
	"github.com/san-kum/twinvector/internal/config"
	"github.com/san-kum/twinvector/internal/mount"
	"github.com/san-kum/twinvector/internal/sim"
	"github.com/san-kum/twinvector/internal/storage"
	"github.com/san-kum/twinvector/internal/viz"
)

func presetName(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Preset
}

func runSimulation(cmd *cobra.Command, args []string) error {
	name := presetName(args)
	p, ok := config.GetPreset(name)
	if !ok {
		return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}

	simCfg := cfg.Sim
	simCfg.Duration = p.Duration
	if cmd.Flags().Changed("dt") {
		simCfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		simCfg.Duration = duration
	}

	dec, err := decoupler()
	if err != nil {
		return err
	}

	s := sim.New(dec, &p.Profile, cfg.Plant)
	s.SetLogger(log)
	for _, m := range sim.DefaultMetrics() {
		s.AddMetric(m)
	}

	if sqlitePath == "" {
		sqlitePath = cfg.Storage.SQLitePath
	}
	var rec *storage.SQLRecorder
	if sqlitePath != "" {
		db, err := storage.OpenSQLite(sqlitePath, log)
		if err != nil {
			return err
		}
		runID := fmt.Sprintf("%s_%d", name, time.Now().Unix())
		rec = storage.NewSQLRecorder(db, runID, cfg.Storage.BatchSize, log)
		defer rec.Close()
		s.AddTickObserver(rec)
	}

	log.Info().Str("preset", name).Float64("dt", simCfg.Dt).Float64("duration", simCfg.Duration).Msg("simulation started")
	start := time.Now()
	result, err := s.Run(cmd.Context(), simCfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Println(headerStyle.Render("run " + name))
	fmt.Printf("steps: %d  ticks: %d  skipped: %d  (%v)\n",
		result.StepsTaken, result.Ticks, result.Skipped, elapsed.Round(time.Millisecond))
	printMetrics(result.Metrics)
	if rec != nil {
		if err := rec.Flush(); err != nil {
			return err
		}
		fmt.Printf("sqlite: %d ticks -> %s\n", rec.Written(), sqlitePath)
	}

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunInfo{
		Name:       name,
		Integrator: "rk4",
		Config:     simCfg,
		Plant:      cfg.Plant,
		Geometry:   storage.GeometryInfoOf(dec.Geometry()),
	}, result)
	if err != nil {
		return err
	}
	fmt.Printf("saved: %s\n", runID)
	return nil
}

func printMetrics(m map[string]float64) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range metricNames(m) {
		fmt.Fprintf(w, "  %s\t%.5f\n", name, m[name])
	}
	w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	dec, err := decoupler()
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	results, err := automation.RunScenario(cmd.Context(), sc, automation.Runner{
		Decoupler: dec,
		Plant:     cfg.Plant,
		Base:      cfg.Sim,
		Store:     st,
		Log:       log,
	})
	for _, r := range results {
		line := fmt.Sprintf("%-16s ticks %-5d", r.Name, r.Result.Ticks)
		if r.RunID != "" {
			line += "  saved " + r.RunID
		}
		fmt.Println(line)
		printMetrics(r.Result.Metrics)
	}
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tDURATION\tDT\tTICKS\tPOINTING")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%.3f\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Config.Duration,
			run.Config.Dt,
			run.Ticks,
			run.Metrics["pointing_error"],
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
	rows, err := st.LoadTicks(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("samples: %d\n\n", len(rows))

	if plotSeries == "input" {
		captions := []string{"pitch", "yaw", "roll", "throttle"}
		for i, caption := range captions {
			data := make([]float64, len(rows))
			for j, r := range rows {
				data[j] = [4]float64{r.Input.Pitch, r.Input.Yaw, r.Input.Roll, r.Input.Throttle}[i]
			}
			plot(data, caption)
		}
		return nil
	}

	pick := func(r storage.TickRow) mount.Angles { return r.Joints }
	switch plotSeries {
	case "joints":
	case "commanded":
		pick = func(r storage.TickRow) mount.Angles { return r.Commanded }
	default:
		return fmt.Errorf("unknown series %q (joints, commanded, input)", plotSeries)
	}

	captions := []string{"hinge left", "servo left", "hinge right", "servo right"}
	for i, caption := range captions {
		data := make([]float64, len(rows))
		for j, r := range rows {
			data[j] = pick(r).Array()[i]
		}
		plot(data, fmt.Sprintf("%s %s (deg)", plotSeries, caption))
	}
	return nil
}

func plot(data []float64, caption string) {
	fmt.Println(asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(70),
		asciigraph.Caption(caption)))
	fmt.Println()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	rows, err := storage.New(dataDir).LoadTicks(runID)
	if err != nil {
		return err
	}
	if len(rows) < 2 {
		return fmt.Errorf("run %s has too few samples", runID)
	}

	commanded := plotSeries == "commanded"
	if !commanded && plotSeries != "joints" {
		return fmt.Errorf("unknown series %q (joints, commanded)", plotSeries)
	}

	th := viz.GetTheme(theme)
	colors := []string{string(th.Primary), string(th.Accent), string(th.Success), string(th.Warning)}
	names := []string{"hinge left", "servo left", "hinge right", "servo right"}
	times := make([]float64, len(rows))
	traces := make([]viz.Trace, len(names))
	for i := range traces {
		traces[i] = viz.Trace{Name: names[i], Color: colors[i], Values: make([]float64, len(rows))}
	}
	for j, r := range rows {
		times[j] = r.Time
		a := r.Joints
		if commanded {
			a = r.Commanded
		}
		for i, v := range a.Array() {
			traces[i].Values[j] = v
		}
	}

	path := svgPath
	if path == "" {
		path = runID + ".svg"
	}
	if err := os.WriteFile(path, []byte(viz.TracesSVG(times, traces, 900, 360)), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
