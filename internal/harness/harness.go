// Package harness drives the mount solver once per physics tick: it reads
// stick input, decouples it and pushes the four setpoints to the actuators.
package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/san-kum/twinvector/internal/mount"
)

const (
	// DefaultMinInterval is the shortest host-time step treated as a new
	// physics tick.
	DefaultMinInterval       = 0.019
	DefaultMaxConsecutiveErr = 10
)

var (
	ErrNilDecoupler = errors.New("harness: nil decoupler")
	ErrNilSource    = errors.New("harness: nil input source")
	ErrMissingPort  = errors.New("harness: missing actuator port")
	ErrPortFailures = errors.New("harness: too many consecutive port failures")
)

// Source supplies stick input for host time t.
type Source interface {
	Compute(t float64) mount.Input
}

// Tick is one completed control cycle.
type Tick struct {
	Seq      uint64
	HostTime float64
	Solution mount.Solution
}

type TickObserver interface {
	OnTick(tick Tick)
}

type TickFunc func(tick Tick)

func (f TickFunc) OnTick(tick Tick) { f(tick) }

type Config struct {
	MinInterval          float64 `yaml:"min_interval"`
	MaxConsecutiveErrors int     `yaml:"max_consecutive_errors"`
}

func DefaultConfig() Config {
	return Config{
		MinInterval:          DefaultMinInterval,
		MaxConsecutiveErrors: DefaultMaxConsecutiveErr,
	}
}

type Harness struct {
	dec       *mount.Decoupler
	src       Source
	ports     Ports
	clock     Clock
	cfg       Config
	log       zerolog.Logger
	meter     metric.Meter
	inst      *instruments
	observers []TickObserver

	mu      sync.Mutex
	seq     uint64
	prev    float64
	started bool
}

type Option func(*Harness)

func WithClock(c Clock) Option           { return func(h *Harness) { h.clock = c } }
func WithConfig(cfg Config) Option       { return func(h *Harness) { h.cfg = cfg } }
func WithLogger(l zerolog.Logger) Option { return func(h *Harness) { h.log = l } }
func WithMeter(m metric.Meter) Option    { return func(h *Harness) { h.meter = m } }
func WithObserver(o TickObserver) Option {
	return func(h *Harness) { h.observers = append(h.observers, o) }
}
func WithSource(src Source) Option { return func(h *Harness) { h.src = src } }

// New wires a harness. Missing collaborators are configuration errors and
// are reported here rather than on the first tick.
func New(dec *mount.Decoupler, src Source, ports Ports, opts ...Option) (*Harness, error) {
	h := &Harness{
		dec:   dec,
		src:   src,
		ports: ports,
		cfg:   DefaultConfig(),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.dec == nil {
		return nil, ErrNilDecoupler
	}
	if h.src == nil {
		return nil, ErrNilSource
	}
	if err := h.ports.validate(); err != nil {
		return nil, err
	}
	if h.clock == nil {
		h.clock = NewWallClock()
	}
	if h.meter == nil {
		h.meter = meter()
	}
	if h.cfg.MinInterval < 0 {
		return nil, fmt.Errorf("harness: min interval must not be negative, got %f", h.cfg.MinInterval)
	}
	if h.cfg.MaxConsecutiveErrors <= 0 {
		h.cfg.MaxConsecutiveErrors = DefaultMaxConsecutiveErr
	}

	inst, err := newInstruments(h.meter)
	if err != nil {
		return nil, fmt.Errorf("harness: instruments: %w", err)
	}
	h.inst = inst
	return h, nil
}

func (h *Harness) AddObserver(o TickObserver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers = append(h.observers, o)
}

func (h *Harness) Decoupler() *mount.Decoupler { return h.dec }

// Tick runs one control cycle if host time has advanced by at least the
// minimum interval since the last one. It reports whether a cycle ran. A
// port failure still completes the cycle and is returned as the error.
func (h *Harness) Tick(ctx context.Context) (Tick, bool, error) {
	if err := ctx.Err(); err != nil {
		return Tick{}, false, err
	}

	h.mu.Lock()
	now := h.clock.Now()
	if h.started && now-h.prev < h.cfg.MinInterval {
		h.mu.Unlock()
		h.inst.skipped.Add(ctx, 1)
		return Tick{}, false, nil
	}

	start := time.Now()
	in := h.src.Compute(now)
	sol := h.dec.Decouple(in)
	h.inst.solve.Record(ctx, time.Since(start).Seconds())

	err := h.ports.apply(sol.Angles)
	if err != nil {
		h.countPortErrors(ctx, err)
	}

	h.prev, h.started = now, true
	h.seq++
	tick := Tick{Seq: h.seq, HostTime: now, Solution: sol}

	h.inst.ticks.Add(ctx, 1)
	if sol.Clamped {
		h.inst.clamped.Add(ctx, 1)
	}
	if sol.Degenerate {
		h.log.Trace().Uint64("seq", tick.Seq).Msg("zero throttle, roll-only split")
	}

	observers := append([]TickObserver(nil), h.observers...)
	h.mu.Unlock()

	// observers run unlocked and may call back into the harness
	for _, o := range observers {
		o.OnTick(tick)
	}
	return tick, true, err
}

func (h *Harness) countPortErrors(ctx context.Context, err error) {
	var joined interface{ Unwrap() []error }
	errs := []error{err}
	if errors.As(err, &joined) {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		var pe *PortError
		if errors.As(e, &pe) {
			h.inst.portErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("port", pe.Tag)))
		}
	}
}

// Run calls Tick on every wakeup from ts until ctx is done. Port failures
// are logged; Run gives up after MaxConsecutiveErrors of them in a row.
func (h *Harness) Run(ctx context.Context, ts TickSource) error {
	defer ts.Stop()

	h.log.Info().
		Float64("min_interval", h.cfg.MinInterval).
		Msg("harness started")

	failures := 0
	for {
		select {
		case <-ctx.Done():
			h.log.Info().Uint64("ticks", h.Seq()).Msg("harness stopped")
			return ctx.Err()
		case <-ts.C():
			tick, ran, err := h.Tick(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failures++
				h.log.Warn().Err(err).Uint64("seq", tick.Seq).Int("consecutive", failures).Msg("actuator write failed")
				if failures >= h.cfg.MaxConsecutiveErrors {
					return fmt.Errorf("%w (%d): %w", ErrPortFailures, failures, err)
				}
				continue
			}
			if ran {
				failures = 0
				h.log.Debug().
					Uint64("seq", tick.Seq).
					Float64("t", tick.HostTime).
					Floats64("angles", anglesSlice(tick.Solution.Angles)).
					Msg("tick")
			}
		}
	}
}

func (h *Harness) Seq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

func anglesSlice(a mount.Angles) []float64 {
	arr := a.Array()
	return arr[:]
}
