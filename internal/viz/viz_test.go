package viz

import (
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/twinvector/internal/harness"
	"github.com/san-kum/twinvector/internal/mount"
	"github.com/san-kum/twinvector/internal/sim"
)

func TestCanvasSetUnset(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)

	if c.Grid[0][0] != brailleBlank|0x1 {
		t.Errorf("expected dot 1 set, got %U", c.Grid[0][0])
	}
	if c.Grid[0][1] != brailleBlank|0x80 {
		t.Errorf("expected dot 8 set, got %U", c.Grid[0][1])
	}
	if !c.IsSet(3, 3) {
		t.Error("expected (3,3) set")
	}

	c.Unset(3, 3)
	if c.Grid[0][1] != brailleBlank {
		t.Errorf("expected blank cell after unset, got %U", c.Grid[0][1])
	}

	c.Set(-1, 0)
	c.Set(100, 100)
	c.Clear()
	if c.String() != string([]rune{brailleBlank, brailleBlank})+"\n" {
		t.Errorf("unexpected canvas %q", c.String())
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(0, 0, 19, 19)
	for i := 0; i < 20; i++ {
		if !c.IsSet(i, i) {
			t.Errorf("expected diagonal dot at %d", i)
		}
	}
}

func TestCanvasDrawDashed(t *testing.T) {
	c := NewCanvas(10, 1)
	c.DrawDashed(0, 0, 15, 0)
	if !c.IsSet(0, 0) || c.IsSet(4, 0) || !c.IsSet(8, 0) {
		t.Error("expected alternating runs of four dots")
	}
}

func TestCameraProjectsOriginToCentre(t *testing.T) {
	cam := NewCamera()
	x, y, _, ok := cam.Project(mgl64.Vec3{}, 120, 96)
	if !ok || x != 60 || y != 48 {
		t.Errorf("expected centre (60,48), got (%d,%d) visible=%v", x, y, ok)
	}
}

func TestCameraUpIsUp(t *testing.T) {
	cam := &Camera{Distance: 40, Zoom: 1}
	_, y, _, ok := cam.Project(mgl64.Vec3{0, 10, 0}, 120, 96)
	if !ok || y >= 48 {
		t.Errorf("expected +Y above centre, got y=%d visible=%v", y, ok)
	}
}

func TestCameraBehind(t *testing.T) {
	cam := &Camera{Distance: 40, Zoom: 1}
	if _, _, _, ok := cam.Project(mgl64.Vec3{0, 0, 50}, 120, 96); ok {
		t.Error("expected point behind the camera to be hidden")
	}
}

func TestRenderMountWireframe(t *testing.T) {
	c := NewCanvas(40, 20)
	lines := mount.DebugLines{Left: mgl64.Vec3{5, 8, 0}, Right: mgl64.Vec3{-5, 8, 0}, Thrust: mgl64.Vec3{0, 8, 0}}
	Render3D(c, MountWireframe(lines, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{-1, 0, 0}, 10), NewCamera())

	if !strings.ContainsFunc(c.String(), func(r rune) bool { return r > brailleBlank }) {
		t.Error("expected something drawn")
	}
}

func TestBars(t *testing.T) {
	tests := []struct {
		got, expected string
	}{
		{ProgressBar(0.5, 4), "██░░"},
		{ProgressBar(2, 3), "███"},
		{CenterBar(0, 4), "░░│░░"},
		{CenterBar(1, 4), "░░│██"},
		{CenterBar(-0.5, 4), "░█│░░"},
	}
	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("expected %q, got %q", tt.expected, tt.got)
		}
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("nope").Name != Themes[0].Name {
		t.Error("expected fallback to first theme")
	}
	if NextTheme(Themes[len(Themes)-1].Name).Name != Themes[0].Name {
		t.Error("expected theme cycling to wrap")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("expected a name per theme")
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	m, err := NewModel(LiveConfig{
		Decoupler: mount.MustNew(mount.DefaultGeometry()),
		Plant:     sim.DefaultPlantConfig(),
		Harness:   harness.DefaultConfig(),
		Dt:        0.01,
		Frame:     20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	return m
}

func send(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModelFullThrottle(t *testing.T) {
	m := newTestModel(t)
	m = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'z'}})
	for i := 0; i < 100; i++ {
		m = send(m, TickMsg(time.Now()))
	}

	if m.last.Seq == 0 {
		t.Fatal("expected harness ticks")
	}
	left, right := m.Arms()
	if left.Sub(geomUp).Len() > 1e-3 || right.Sub(geomUp).Len() > 1e-3 {
		t.Errorf("expected both arms up at full throttle, got %v %v", left, right)
	}
	if len(m.hingeHistory) == 0 {
		t.Error("expected angle history")
	}
	if !strings.Contains(m.View(), "TWINVECTOR LIVE") {
		t.Error("expected header in view")
	}
}

var geomUp = mgl64.Vec3{0, 1, 0}

func TestModelPauseAndReset(t *testing.T) {
	m := newTestModel(t)
	m = send(m, TickMsg(time.Now()))
	seq := m.last.Seq

	m = send(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = send(m, TickMsg(time.Now()))
	if m.last.Seq != seq {
		t.Errorf("expected no ticks while paused, %d then %d", seq, m.last.Seq)
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if m.t != 0 || m.last.Seq != 0 {
		t.Errorf("expected reset to clear time and ticks, got t=%f seq=%d", m.t, m.last.Seq)
	}
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestAppendCapped(t *testing.T) {
	var h []float64
	for i := 0; i < historyCapacity+5; i++ {
		h = appendCapped(h, float64(i))
	}
	if len(h) != historyCapacity {
		t.Fatalf("expected %d entries, got %d", historyCapacity, len(h))
	}
	if h[0] != 5 || math.Abs(h[len(h)-1]-float64(historyCapacity+4)) > 0 {
		t.Errorf("expected oldest entries dropped, got first=%f last=%f", h[0], h[len(h)-1])
	}
}

func TestCanvasSVG(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasSVG(c, 2, "#00ff00")
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected 2 circles, got %d", n)
	}
	if !strings.Contains(svg, `cx="7.0" cy="7.0"`) {
		t.Errorf("expected dot (3,3) at 7,7:\n%s", svg)
	}
	if CanvasSVG(nil, 1, "#fff") != "" {
		t.Error("expected empty output for nil canvas")
	}
}

func TestTracesSVG(t *testing.T) {
	times := []float64{0, 1, 2}
	svg := TracesSVG(times, []Trace{
		{Name: "hinge", Color: "#f00", Values: []float64{90, 120, 180}},
		{Name: "servo", Color: "#0f0", Values: []float64{0, 0, 0}},
	}, 200, 100)
	if n := strings.Count(svg, "<path"); n != 2 {
		t.Errorf("expected 2 paths, got %d", n)
	}
	if !strings.Contains(svg, "M0.0,") || !strings.Contains(svg, " L200.0,") {
		t.Errorf("expected traces to span the width:\n%s", svg)
	}
	if TracesSVG(times[:1], nil, 10, 10) != "" {
		t.Error("expected empty output for a single sample")
	}
}
