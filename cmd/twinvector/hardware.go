package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/twinvector/internal/actuator"
	"github.com/san-kum/twinvector/internal/config"
	"github.com/san-kum/twinvector/internal/control"
	"github.com/san-kum/twinvector/internal/harness"
	"github.com/san-kum/twinvector/internal/storage"
	"github.com/san-kum/twinvector/internal/viz"
)

func runLive(cmd *cobra.Command, args []string) error {
	dec, err := decoupler()
	if err != nil {
		return err
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
		rec = storage.NewSQLRecorder(db, fmt.Sprintf("live_%d", time.Now().Unix()), cfg.Storage.BatchSize, log)
		defer rec.Close()
	}

	lc := viz.LiveConfig{
		Decoupler: dec,
		Plant:     cfg.Plant,
		Harness:   cfg.Sim.Harness,
		Dt:        cfg.Sim.Dt,
		Frame:     cfg.TickPeriod,
		Theme:     theme,
		Log:       log,
	}
	if rec != nil {
		lc.Recorder = rec
	}
	m, err := viz.NewModel(lc)
	if err != nil {
		return err
	}
	return viz.RunLive(m)
}

// runSerial drives real actuators from a preset profile, or holds the
// mount parked at zero throttle when no preset is given.
func runSerial(cmd *cobra.Command, args []string) error {
	var src harness.Source = control.NewNeutral(0)
	name := "park"
	if len(args) > 0 {
		p, ok := config.GetPreset(args[0])
		if !ok {
			return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		src, name = &p.Profile, args[0]
	}

	sc := cfg.Serial
	if device != "" {
		sc.Device = device
	}
	if baud > 0 {
		sc.Baud = baud
	}

	dec, err := decoupler()
	if err != nil {
		return err
	}
	link, err := actuator.Open(sc)
	if err != nil {
		return err
	}
	defer link.Close()

	opts := []harness.Option{
		harness.WithClock(harness.NewWallClock()),
		harness.WithConfig(cfg.Sim.Harness),
		harness.WithLogger(log),
	}
	if sqlitePath == "" {
		sqlitePath = cfg.Storage.SQLitePath
	}
	if sqlitePath != "" {
		db, err := storage.OpenSQLite(sqlitePath, log)
		if err != nil {
			return err
		}
		rec := storage.NewSQLRecorder(db, fmt.Sprintf("serial_%s_%d", name, time.Now().Unix()), cfg.Storage.BatchSize, log)
		defer rec.Close()
		opts = append(opts, harness.WithObserver(rec))
	}

	h, err := harness.New(dec, src, link.Ports(), opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(duration*float64(time.Second)))
		defer cancel()
	}

	log.Info().Str("device", sc.Device).Int("baud", sc.Baud).Str("source", name).
		Dur("period", cfg.TickPeriod).Msg("driving mount")
	err = h.Run(ctx, harness.NewTicker(cfg.TickPeriod))
	fmt.Printf("ticks: %d  lines: %d\n", h.Seq(), link.Lines())
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
