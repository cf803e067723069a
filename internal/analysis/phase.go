package analysis

import (
	"strings"

	"github.com/san-kum/dpsim/internal/series"
)

// PhasePortrait pairs the x and y series sample by sample. Angles are in
// degrees and theta2 is absolute. Samples are matched by index, so the
// result has min(len x, len y) points.
func PhasePortrait(src Source, x, y SeriesType) []series.Vec2 {
	xs := portraitAxis(src, x)
	ys := portraitAxis(src, y)

	n := min(len(xs), len(ys))
	out := make([]series.Vec2, n)
	for i := 0; i < n; i++ {
		out[i] = series.Vec2{X: xs[i], Y: ys[i]}
	}
	return out
}

func portraitAxis(src Source, s SeriesType) []float64 {
	raw := Raw(src, s)
	vals := make([]float64, len(raw))
	for i, p := range raw {
		vals[i] = p.V
	}
	if s == Theta2 {
		theta1 := src.Theta1()
		for i := 0; i < len(vals) && i < len(theta1); i++ {
			vals[i] += theta1[i].V
		}
	}
	if s.isAngle() {
		for i := range vals {
			vals[i] = degrees(vals[i])
		}
	}
	return vals
}

// PhasePortraitToASCII plots points on a width x height character grid with
// 10% padding and axes where they cross the visible area.
func PhasePortraitToASCII(points []series.Vec2, width, height int) string {
	if len(points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
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
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// PoincareToASCII renders (theta2_rel, omega2_rel) section samples.
func PoincareToASCII(points []series.Vec2, width, height int) string {
	if len(points) == 0 {
		return "No crossings detected"
	}
	return PhasePortraitToASCII(points, width, height)
}
