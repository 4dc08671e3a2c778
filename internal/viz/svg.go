package viz

import (
	"fmt"
	"math"
	"strings"
)

const svgBackground = "#0a0a0a"

// CanvasSVG draws every set dot of c as a circle, scale pixels apart.
func CanvasSVG(c *Canvas, scale float64, color string) string {
	if c == nil {
		return ""
	}
	dw, dh := c.Dots()
	width, height := float64(dw)*scale, float64(dh)*scale

	var sb strings.Builder
	writeSVGHeader(&sb, width, height)
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", color)
	r := scale * 0.4
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			if c.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
			}
		}
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// Trace is one named series for TracesSVG.
type Trace struct {
	Name   string
	Color  string
	Values []float64
}

// TracesSVG plots traces against times on shared axes, padded by 10% of
// the data range. Traces shorter than times are drawn up to their length.
func TracesSVG(times []float64, traces []Trace, width, height int) string {
	if len(times) < 2 || len(traces) == 0 {
		return ""
	}

	minX, maxX := times[0], times[len(times)-1]
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, tr := range traces {
		for _, v := range tr.Values {
			minY = min(minY, v)
			maxY = max(maxY, v)
		}
	}
	if math.IsInf(minY, 1) {
		return ""
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	w, h := float64(width), float64(height)
	px := func(t float64) float64 { return (t - minX) / rangeX * w }
	py := func(v float64) float64 { return h - (v-minY)/rangeY*h }

	var sb strings.Builder
	writeSVGHeader(&sb, w, h)
	for i, tr := range traces {
		n := min(len(tr.Values), len(times))
		if n < 2 {
			continue
		}
		fmt.Fprintf(&sb, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" d=\"M%.1f,%.1f",
			tr.Color, px(times[0]), py(tr.Values[0]))
		for j := 1; j < n; j++ {
			fmt.Fprintf(&sb, " L%.1f,%.1f", px(times[j]), py(tr.Values[j]))
		}
		sb.WriteString("\"/>\n")
		fmt.Fprintf(&sb, "<text x=\"8\" y=\"%d\" fill=\"%s\" font-family=\"monospace\" font-size=\"12\">%s</text>\n",
			16*(i+1), tr.Color, tr.Name)
	}
	sb.WriteString("</svg>\n")
	return sb.String()
}

func writeSVGHeader(sb *strings.Builder, w, h float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, w, h, w, h, svgBackground)
}
