package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"

	"github.com/san-kum/twinvector/internal/control"
	"github.com/san-kum/twinvector/internal/harness"
	"github.com/san-kum/twinvector/internal/mount"
	"github.com/san-kum/twinvector/internal/sim"
)

const (
	canvasWidth     = 60
	canvasHeight    = 24
	historyCapacity = 120
	graphWidth      = 36
)

type TickMsg time.Time

// LiveConfig wires the live view. Recorder, when set, also sees every
// harness tick.
type LiveConfig struct {
	Decoupler *mount.Decoupler
	Plant     sim.PlantConfig
	Harness   harness.Config
	Dt        float64
	Frame     time.Duration
	Theme     string
	Log       zerolog.Logger
	Recorder  harness.TickObserver
}

// Model flies a simulated mount from the keyboard.
type Model struct {
	cfg     LiveConfig
	stick   *control.Manual
	clock   *harness.ManualClock
	harness *harness.Harness
	plant   *sim.Plant
	last    *harness.Tick
	t       float64

	canvas *Canvas
	camera *Camera
	theme  Theme
	styles Styles

	hingeHistory []float64
	servoHistory []float64
	portErrors   int
	running      bool
	showHelp     bool
}

func NewModel(cfg LiveConfig) (Model, error) {
	if cfg.Dt <= 0 {
		cfg.Dt = 0.01
	}
	if cfg.Frame <= 0 {
		cfg.Frame = 20 * time.Millisecond
	}
	theme := GetTheme(cfg.Theme)
	m := Model{
		cfg:          cfg,
		stick:        control.NewManual(),
		canvas:       NewCanvas(canvasWidth, canvasHeight),
		camera:       NewCamera(),
		theme:        theme,
		styles:       NewStyles(theme),
		hingeHistory: make([]float64, 0, historyCapacity),
		servoHistory: make([]float64, 0, historyCapacity),
		running:      true,
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// reset builds a fresh plant and harness, keeping the stick and camera.
func (m *Model) reset() error {
	plant, err := sim.NewPlant(m.cfg.Plant, sim.NewRK4())
	if err != nil {
		return err
	}
	clock := &harness.ManualClock{}
	last := &harness.Tick{}
	opts := []harness.Option{
		harness.WithClock(clock),
		harness.WithConfig(m.cfg.Harness),
		harness.WithLogger(m.cfg.Log),
		harness.WithObserver(harness.TickFunc(func(t harness.Tick) { *last = t })),
	}
	if m.cfg.Recorder != nil {
		opts = append(opts, harness.WithObserver(m.cfg.Recorder))
	}
	h, err := harness.New(m.cfg.Decoupler, m.stick, plant.Ports(), opts...)
	if err != nil {
		return err
	}

	m.plant, m.clock, m.harness, m.last = plant, clock, h, last
	m.t = 0
	m.portErrors = 0
	m.hingeHistory = m.hingeHistory[:0]
	m.servoHistory = m.servoHistory[:0]
	return nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.cfg.Frame, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.reset(); err != nil {
				m.cfg.Log.Error().Err(err).Msg("reset failed")
			}
			m.stick.Press("c")
		case "t":
			m.theme = NextTheme(m.theme.Name)
			m.styles = NewStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		case "left":
			m.camera.Orbit(-0.1, 0)
		case "right":
			m.camera.Orbit(0.1, 0)
		case "up":
			m.camera.Orbit(0, 0.1)
		case "down":
			m.camera.Orbit(0, -0.1)
		case "<", ",":
			m.camera.ZoomOut()
		case ">", ".":
			m.camera.ZoomIn()
		default:
			m.stick.Press(msg.String())
		}
	case TickMsg:
		if m.running {
			m.advance(m.cfg.Frame.Seconds())
		}
		return m, m.tick()
	}
	return m, nil
}

// advance runs physics steps covering span seconds of simulated time.
func (m *Model) advance(span float64) {
	steps := max(1, int(span/m.cfg.Dt+0.5))
	for i := 0; i < steps; i++ {
		m.clock.Set(m.t)
		_, ran, err := m.harness.Tick(context.Background())
		if err != nil {
			m.portErrors++
		}
		m.plant.Step(m.t, m.cfg.Dt)
		m.t += m.cfg.Dt
		if ran {
			m.record()
		}
	}
}

func (m *Model) record() {
	a := m.last.Solution.Angles
	m.hingeHistory = appendCapped(m.hingeHistory, a.HingeLeft)
	m.servoHistory = appendCapped(m.servoHistory, a.ServoLeft)
}

func appendCapped(h []float64, v float64) []float64 {
	if len(h) >= historyCapacity {
		copy(h, h[1:])
		h = h[:len(h)-1]
	}
	return append(h, v)
}

func (m *Model) draw() {
	m.canvas.Clear()
	sol := m.last.Solution
	scale := m.cfg.Decoupler.Geometry().DebugScale
	lines := mount.DebugLines{
		Left:   sol.Left.Mul(scale),
		Right:  sol.Right.Mul(scale),
		Thrust: sol.Thrust.Mul(scale),
	}
	left, right := m.plant.Arms(m.cfg.Decoupler.Solver(), m.cfg.Decoupler.Geometry())
	Render3D(m.canvas, MountWireframe(lines, left, right, scale), m.camera)
}

func (m Model) View() string {
	m.draw()
	st := m.styles
	sol := m.last.Solution
	in := m.stick.Snapshot()
	joints := m.plant.Joints()

	var s strings.Builder
	s.WriteString(st.Header.Render("TWINVECTOR LIVE") + "\n")
	if m.running {
		s.WriteString(st.Running.Render("RUNNING"))
	} else {
		s.WriteString(st.Paused.Render("PAUSED"))
	}
	s.WriteString(fmt.Sprintf("  t=%.2fs  tick %d\n\n", m.t, m.last.Seq))

	row := func(label, value string) {
		s.WriteString(st.Label.Render(label) + st.Value.Render(value) + "\n")
	}
	row("Pitch", CenterBar(in.Pitch, 16))
	row("Yaw", CenterBar(in.Yaw, 16))
	row("Roll", CenterBar(in.Roll, 16))
	row("Throttle", ProgressBar(in.Throttle, 17)+fmt.Sprintf(" %3.0f%%", in.Throttle*100))
	s.WriteString("\n")

	s.WriteString(st.Label.Render("") + st.Value.Render("   command    actual") + "\n")
	cmd := sol.Angles.Array()
	act := joints.Array()
	for i, name := range []string{"Hinge L", "Servo L", "Hinge R", "Servo R"} {
		row(name, FormatAngle(cmd[i])+"  "+FormatAngle(act[i]))
	}
	if sol.Clamped {
		s.WriteString(st.Warn.Render(fmt.Sprintf("bias limited to ±%.2f", sol.BiasLimit)) + "\n")
	}
	if m.portErrors > 0 {
		s.WriteString(st.Warn.Render(fmt.Sprintf("%d port errors", m.portErrors)) + "\n")
	}

	if len(m.hingeHistory) > 1 {
		s.WriteString("\n" + st.Graph.Render(asciigraph.Plot(m.hingeHistory,
			asciigraph.Height(4), asciigraph.Width(graphWidth), asciigraph.Caption("hinge L (deg)"))) + "\n")
		s.WriteString(st.Graph.Render(asciigraph.Plot(m.servoHistory,
			asciigraph.Height(4), asciigraph.Width(graphWidth), asciigraph.Caption("servo L (deg)"))) + "\n")
	}

	s.WriteString(st.Hint.Render("WASD/QE stick  +/- throttle  ?:help  esc:quit"))

	main := lipgloss.JoinHorizontal(lipgloss.Top,
		st.Canvas.Render(m.canvas.String()),
		st.Panel.Render(s.String()),
	)
	if m.showHelp {
		return helpText + "\n" + main
	}
	return main
}

const helpText = `  W/S  pitch        Arrows  orbit camera
  A/D  yaw          < >     zoom
  Q/E  roll         Space   pause
  +/-  throttle     R       reset
  Z    full         T       theme
  X    cut          Esc     quit
  C    centre stick`

// Arms exposes the achieved arm directions for tests and recorders.
func (m Model) Arms() (mgl64.Vec3, mgl64.Vec3) {
	return m.plant.Arms(m.cfg.Decoupler.Solver(), m.cfg.Decoupler.Geometry())
}

func RunLive(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
