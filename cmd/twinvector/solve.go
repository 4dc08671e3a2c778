package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/twinvector/internal/automation"
	"github.com/san-kum/twinvector/internal/mount"
)

func solve(cmd *cobra.Command, args []string) error {
	dec, err := decoupler()
	if err != nil {
		return err
	}
	s := dec.Decouple(stickInput())

	fmt.Println(headerStyle.Render("twinvector solve"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "input\tpitch %.3f\tyaw %.3f\troll %.3f\tthrottle %.3f\n",
		s.Input.Pitch, s.Input.Yaw, s.Input.Roll, s.Input.Throttle)
	fmt.Fprintf(w, "bias limit\t%.4f\tclamped %v\n", s.BiasLimit, s.Clamped)
	fmt.Fprintf(w, "thrust\t%.4f\t%.4f\t%.4f\n", s.Thrust.X(), s.Thrust.Y(), s.Thrust.Z())
	fmt.Fprintf(w, "left arm\t%.4f\t%.4f\t%.4f\n", s.Left.X(), s.Left.Y(), s.Left.Z())
	fmt.Fprintf(w, "right arm\t%.4f\t%.4f\t%.4f\n", s.Right.X(), s.Right.Y(), s.Right.Z())
	if s.Degenerate {
		fmt.Fprintln(w, "split\tzero-thrust branch\t\t")
	}
	fmt.Fprintln(w, "\t\t\t")
	fmt.Fprintln(w, "\thinge\tservo\t")
	fmt.Fprintf(w, "left\t%.3f\t%.3f\t\n", s.Angles.HingeLeft, s.Angles.ServoLeft)
	fmt.Fprintf(w, "right\t%.3f\t%.3f\t\n", s.Angles.HingeRight, s.Angles.ServoRight)
	return w.Flush()
}

func sweep(cmd *cobra.Command, args []string) error {
	axis, err := automation.ParseAxis(args[0])
	if err != nil {
		return err
	}
	dec, err := decoupler()
	if err != nil {
		return err
	}
	sw := automation.AxisSweep{
		Axis:     axis,
		Min:      sweepMin,
		Max:      sweepMax,
		NumSteps: sweepSteps,
		Base:     stickInput(),
	}

	if sweepSim {
		return sweepSimulated(cmd.Context(), sw, dec)
	}

	sols := sw.Solve(dec)
	series := map[string][]float64{
		"hinge left":  make([]float64, len(sols)),
		"servo left":  make([]float64, len(sols)),
		"hinge right": make([]float64, len(sols)),
		"servo right": make([]float64, len(sols)),
	}
	for i, s := range sols {
		series["hinge left"][i] = s.Angles.HingeLeft
		series["servo left"][i] = s.Angles.ServoLeft
		series["hinge right"][i] = s.Angles.HingeRight
		series["servo right"][i] = s.Angles.ServoRight
	}

	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		caption := fmt.Sprintf("%s (deg) vs %s %.2f..%.2f", name, args[0], sweepMin, sweepMax)
		fmt.Println(asciigraph.Plot(series[name],
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption(caption)))
		fmt.Println()
	}
	return nil
}

func sweepSimulated(ctx context.Context, sw automation.AxisSweep, dec *mount.Decoupler) error {
	base := cfg.Sim
	if duration > 0 {
		base.Duration = duration
	}
	r := automation.Runner{Decoupler: dec, Plant: cfg.Plant, Base: base, Log: log}

	log.Info().Str("axis", string(sw.Axis)).Int("points", sw.NumSteps).Msg("sweep started")
	results, err := automation.RunSweep(ctx, sw, r, workers)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		return fmt.Errorf("sweep produced no points")
	}
	names := metricNames(results[0].Metrics)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "value\thinge L\tservo L\thinge R\tservo R")
	for _, n := range names {
		fmt.Fprintf(w, "\t%s", n)
	}
	fmt.Fprintln(w)
	for _, res := range results {
		fmt.Fprintf(w, "%.3f\t%.2f\t%.2f\t%.2f\t%.2f", res.Value,
			res.Final.HingeLeft, res.Final.ServoLeft, res.Final.HingeRight, res.Final.ServoRight)
		for _, n := range names {
			fmt.Fprintf(w, "\t%.4f", res.Metrics[n])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func metricNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
