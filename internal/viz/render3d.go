package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/twinvector/internal/mount"
)

// Camera orbits the origin and projects with a simple perspective divide.
type Camera struct {
	Distance   float64
	Yaw, Pitch float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 40, Yaw: 0.6, Pitch: 0.35, Zoom: 1}
}

func (c *Camera) Orbit(dyaw, dpitch float64) {
	c.Yaw += dyaw
	c.Pitch = math.Max(-math.Pi/2, math.Min(math.Pi/2, c.Pitch+dpitch))
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) view() mgl64.Mat3 {
	return mgl64.Rotate3DX(c.Pitch).Mul3(mgl64.Rotate3DY(c.Yaw))
}

// Project maps a world point to dot coordinates on a sw x sh surface. It
// reports the view depth and whether the point lands on the surface.
func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	rot := c.view().Mul3x1(p).Mul(c.Zoom)
	if rot.Z() >= c.Distance-0.1 {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot.Z())
	pScale := float64(min(sw, sh)) / 30
	sx := int(rot.X()*scale*pScale) + sw/2
	sy := int(-rot.Y()*scale*pScale) + sh/2
	return sx, sy, rot.Z(), sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

type Edge struct {
	Start, End mgl64.Vec3
	Dashed     bool
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe { return &Wireframe{Edges: make([]Edge, 0, 16)} }

func (w *Wireframe) AddEdge(s, e mgl64.Vec3)   { w.Edges = append(w.Edges, Edge{Start: s, End: e}) }
func (w *Wireframe) AddDashed(s, e mgl64.Vec3) { w.Edges = append(w.Edges, Edge{s, e, true}) }
func (w *Wireframe) Clear()                    { w.Edges = w.Edges[:0] }

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
	dashed         bool
}

// Render3D draws the wireframe far-to-near.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	dw, dh := c.Dots()
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, dw, dh)
		x2, y2, d2, v2 := cam.Project(e.End, dw, dh)
		if v1 || v2 {
			proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2, e.Dashed})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		if e.dashed {
			c.DrawDashed(e.x1, e.y1, e.x2, e.y2)
		} else {
			c.DrawLine(e.x1, e.y1, e.x2, e.y2)
		}
	}
}

// MountWireframe draws the commanded arms and thrust from the origin, the
// achieved arms dashed, and a ground cross in the XZ plane.
func MountWireframe(cmd mount.DebugLines, achievedLeft, achievedRight mgl64.Vec3, scale float64) *Wireframe {
	w := NewWireframe()
	o := mgl64.Vec3{}
	g := scale * 0.6
	w.AddDashed(mgl64.Vec3{-g, 0, 0}, mgl64.Vec3{g, 0, 0})
	w.AddDashed(mgl64.Vec3{0, 0, -g}, mgl64.Vec3{0, 0, g})

	w.AddEdge(o, cmd.Left)
	w.AddEdge(o, cmd.Right)
	w.AddEdge(o, cmd.Thrust)
	w.AddEdge(cmd.Left, cmd.Right)

	w.AddDashed(o, achievedLeft.Mul(scale))
	w.AddDashed(o, achievedRight.Mul(scale))
	return w
}
