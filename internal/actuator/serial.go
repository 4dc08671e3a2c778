// Package actuator drives a physical mount over a serial line. Each
// setpoint is one text line, "<tag> <degrees>\n", with the tags the
// harness uses for the four joints.
package actuator

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/san-kum/twinvector/internal/harness"
)

var ErrClosed = errors.New("actuator: link closed")

// SerialConfig holds serial port settings.
type SerialConfig struct {
	// Device path, e.g. /dev/ttyUSB0 or COM3.
	Device string `yaml:"device" json:"device"`
	Baud   int    `yaml:"baud" json:"baud"`
	// ReadTimeout in milliseconds; 0 blocks.
	ReadTimeout int `yaml:"read_timeout_ms" json:"read_timeout_ms"`
}

func DefaultSerialConfig(device string) SerialConfig {
	return SerialConfig{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}

// Open opens the serial device and returns a link writing to it.
func Open(cfg SerialConfig) (*Link, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("actuator: no serial device configured")
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("actuator: open %s: %w", cfg.Device, err)
	}
	return NewLink(port), nil
}

// Link serializes setpoint lines onto a shared writer.
type Link struct {
	mu     sync.Mutex
	w      io.Writer
	buf    []byte
	lines  uint64
	closed bool
}

func NewLink(w io.Writer) *Link {
	return &Link{w: w, buf: make([]byte, 0, 32)}
}

// Send writes one setpoint line.
func (l *Link) Send(tag string, deg float64) error {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return fmt.Errorf("actuator: %s: non-finite angle %v", tag, deg)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}

	l.buf = append(l.buf[:0], tag...)
	l.buf = append(l.buf, ' ')
	l.buf = strconv.AppendFloat(l.buf, deg, 'f', 3, 64)
	l.buf = append(l.buf, '\n')

	if _, err := l.w.Write(l.buf); err != nil {
		return fmt.Errorf("actuator: write %s: %w", tag, err)
	}
	l.lines++
	return nil
}

// Lines reports how many setpoints were written.
func (l *Link) Lines() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lines
}

func (l *Link) port(tag string) harness.Port {
	return harness.PortFunc(func(deg float64) error { return l.Send(tag, deg) })
}

// Ports exposes the link as the four harness actuators.
func (l *Link) Ports() harness.Ports {
	return harness.Ports{
		HingeLeft:  l.port(harness.TagHingeLeft),
		ServoLeft:  l.port(harness.TagServoLeft),
		HingeRight: l.port(harness.TagHingeRight),
		ServoRight: l.port(harness.TagServoRight),
	}
}

// Close closes the underlying writer if it is closable. Later sends fail
// with ErrClosed.
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if c, ok := l.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
