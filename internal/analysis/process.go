package analysis

import (
	"math"

	"github.com/san-kum/dpsim/internal/series"
)

// Query describes one chart request.
type Query struct {
	Series SeriesType
	// Min and Max bound the time window, inclusive.
	Min, Max float64
	// Simplify enables Ramer-Douglas-Peucker with Epsilon as the tolerance.
	Simplify bool
	Epsilon  float64
	// Limit caps the result at MaxPoints by even subsampling. A non-positive
	// MaxPoints yields no points.
	Limit     bool
	MaxPoints int
}

// FullRange returns a query for the whole of s with no reduction.
func FullRange(s SeriesType) Query {
	return Query{Series: s, Min: math.Inf(-1), Max: math.Inf(1)}
}

// Process runs selection, viewport filtering, simplification and limiting
// in that order.
func Process(src Source, q Query) []series.Point {
	pts := Viewport(Select(src, q.Series), q.Min, q.Max)
	if q.Simplify && len(pts) > 2 && q.Epsilon > 0 {
		pts = SimplifyRDP(pts, q.Epsilon)
	}
	if q.Limit && len(pts) > q.MaxPoints {
		pts = Downsample(pts, q.MaxPoints)
	}
	return pts
}

// Viewport keeps the points with lo <= T <= hi.
func Viewport(pts []series.Point, lo, hi float64) []series.Point {
	out := make([]series.Point, 0, len(pts))
	for _, p := range pts {
		if p.T >= lo && p.T <= hi {
			out = append(out, p)
		}
	}
	return out
}

// SimplifyRDP drops points that lie within epsilon of the polyline through
// the points that are kept. Endpoints are always kept.
func SimplifyRDP(pts []series.Point, epsilon float64) []series.Point {
	if len(pts) <= 2 {
		out := make([]series.Point, len(pts))
		copy(out, pts)
		return out
	}

	keep := make([]bool, len(pts))
	keep[0], keep[len(pts)-1] = true, true
	rdp(pts, 0, len(pts)-1, epsilon, keep)

	out := make([]series.Point, 0, len(pts))
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

func rdp(pts []series.Point, first, last int, epsilon float64, keep []bool) {
	if last-first < 2 {
		return
	}

	dmax, index := 0.0, first
	for i := first + 1; i < last; i++ {
		if d := perpendicularDistance(pts[i], pts[first], pts[last]); d > dmax {
			dmax, index = d, i
		}
	}
	if dmax <= epsilon {
		return
	}

	keep[index] = true
	rdp(pts, first, index, epsilon, keep)
	rdp(pts, index, last, epsilon, keep)
}

// perpendicularDistance from p to the line through a and b. When a and b
// coincide it is the cross product with the raw offset.
func perpendicularDistance(p, a, b series.Point) float64 {
	dx, dy := b.T-a.T, b.V-a.V
	if mag := math.Hypot(dx, dy); mag > 0 {
		dx /= mag
		dy /= mag
	}
	px, py := p.T-a.T, p.V-a.V
	return math.Abs(px*dy - py*dx)
}

// Downsample picks exactly limit points at a fractional stride. A
// non-positive limit returns no points.
func Downsample(pts []series.Point, limit int) []series.Point {
	if limit <= 0 {
		return []series.Point{}
	}
	if len(pts) <= limit {
		out := make([]series.Point, len(pts))
		copy(out, pts)
		return out
	}

	stride := float64(len(pts)) / float64(limit)
	out := make([]series.Point, limit)
	for i := range out {
		out[i] = pts[int(float64(i)*stride)]
	}
	return out
}
