package harness

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/san-kum/twinvector/internal/harness"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type instruments struct {
	ticks      metric.Int64Counter
	skipped    metric.Int64Counter
	clamped    metric.Int64Counter
	portErrors metric.Int64Counter
	solve      metric.Float64Histogram
}

func newInstruments(m metric.Meter) (*instruments, error) {
	var (
		inst instruments
		err  error
	)
	if inst.ticks, err = m.Int64Counter("harness.ticks",
		metric.WithDescription("Ticks that produced actuator setpoints"),
		metric.WithUnit("{tick}")); err != nil {
		return nil, err
	}
	if inst.skipped, err = m.Int64Counter("harness.ticks.skipped",
		metric.WithDescription("Wakeups skipped because no physics tick had elapsed"),
		metric.WithUnit("{tick}")); err != nil {
		return nil, err
	}
	if inst.clamped, err = m.Int64Counter("harness.ticks.clamped",
		metric.WithDescription("Ticks where pitch or yaw hit the bias limit"),
		metric.WithUnit("{tick}")); err != nil {
		return nil, err
	}
	if inst.portErrors, err = m.Int64Counter("harness.port.errors",
		metric.WithDescription("Failed actuator writes"),
		metric.WithUnit("{error}")); err != nil {
		return nil, err
	}
	if inst.solve, err = m.Float64Histogram("harness.solve.duration",
		metric.WithDescription("Time spent decoupling one tick"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return &inst, nil
}
