package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/dpsim/internal/series"
)

const (
	Trace1Color = "#00bfff"
	Trace2Color = "#ff4f81"
	background  = "#0a0a0a"
)

// bounds is a padded bounding box shared by every layer of a drawing.
type bounds struct {
	minX, minY     float64
	rangeX, rangeY float64
}

func boundsOf(layers ...[]series.Vec2) (bounds, bool) {
	first := true
	var minX, maxX, minY, maxY float64
	for _, pts := range layers {
		for _, p := range pts {
			if first {
				minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
				first = false
				continue
			}
			minX, maxX = min(minX, p.X), max(maxX, p.X)
			minY, maxY = min(minY, p.Y), max(maxY, p.Y)
		}
	}
	if first {
		return bounds{}, false
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	return bounds{minX: minX, minY: minY, rangeX: maxX - minX, rangeY: maxY - minY}, true
}

// project maps p into a width x height viewport. With yUp the y axis is
// flipped so larger values are drawn higher.
func (b bounds) project(p series.Vec2, width, height int, yUp bool) (float64, float64) {
	x := (p.X - b.minX) / b.rangeX * float64(width)
	y := (p.Y - b.minY) / b.rangeY * float64(height)
	if yUp {
		y = float64(height) - y
	}
	return x, y
}

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

func writePath(sb *strings.Builder, b bounds, pts []series.Vec2, width, height int, yUp bool, color string) {
	if len(pts) < 2 {
		return
	}
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color)
	for i, p := range pts {
		x, y := b.project(p, width, height, yUp)
		if i == 0 {
			fmt.Fprintf(sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")
}

// TracesToSVG draws both bob traces in pendulum coordinates (y down) on a
// shared scale. Traces with fewer than two points are skipped.
func TracesToSVG(trace1, trace2 []series.Vec2, width, height int) string {
	b, ok := boundsOf(trace1, trace2)
	if !ok {
		return ""
	}

	var sb strings.Builder
	header(&sb, width, height)
	writePath(&sb, b, trace1, width, height, false, Trace1Color)
	writePath(&sb, b, trace2, width, height, false, Trace2Color)
	sb.WriteString("</svg>")
	return sb.String()
}

// TrajectoryToSVG draws a single curve, such as a phase portrait, with the y
// axis pointing up.
func TrajectoryToSVG(points []series.Vec2, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}
	b, _ := boundsOf(points)

	var sb strings.Builder
	header(&sb, width, height)
	writePath(&sb, b, points, width, height, true, strokeColor)
	sb.WriteString("</svg>")
	return sb.String()
}

// ScatterToSVG draws points as dots with the y axis pointing up. It suits
// Poincaré sections, where consecutive samples are not connected.
func ScatterToSVG(points []series.Vec2, width, height int, color string) string {
	b, ok := boundsOf(points)
	if !ok {
		return ""
	}

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", color)
	for _, p := range points {
		x, y := b.project(p, width, height, true)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"1.5\"/>\n", x, y)
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
