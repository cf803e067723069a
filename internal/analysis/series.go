package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/dpsim/internal/series"
)

type SeriesType int

const (
	Theta1 SeriesType = iota
	Theta2
	Omega1
	Omega2
	KineticEnergy
	PotentialEnergy
	TotalEnergy
)

// AllSeries lists every series in display order.
var AllSeries = []SeriesType{Theta1, Theta2, Omega1, Omega2, KineticEnergy, PotentialEnergy, TotalEnergy}

var seriesNames = map[SeriesType]string{
	Theta1:          "theta1",
	Theta2:          "theta2",
	Omega1:          "omega1",
	Omega2:          "omega2",
	KineticEnergy:   "kinetic",
	PotentialEnergy: "potential",
	TotalEnergy:     "total",
}

var seriesAliases = map[string]SeriesType{
	"ke":     KineticEnergy,
	"pe":     PotentialEnergy,
	"energy": TotalEnergy,
}

func (s SeriesType) String() string {
	if name, ok := seriesNames[s]; ok {
		return name
	}
	return fmt.Sprintf("series(%d)", int(s))
}

// Unit is the unit of the selected (not stored) values.
func (s SeriesType) Unit() string {
	switch s {
	case Theta1, Theta2:
		return "deg"
	case Omega1, Omega2:
		return "rad/s"
	default:
		return "J"
	}
}

func (s SeriesType) isAngle() bool { return s == Theta1 || s == Theta2 }

func ParseSeriesType(name string) (SeriesType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range seriesNames {
		if n == name {
			return s, nil
		}
	}
	if s, ok := seriesAliases[name]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("unknown series %q", name)
}

// Source is a recorded history. Angles are in radians and Theta2 is the
// angle relative to the first rod.
type Source interface {
	Theta1() []series.Point
	Theta2() []series.Point
	Omega1() []series.Point
	Omega2() []series.Point
	Kinetic() []series.Point
	Potential() []series.Point
	Total() []series.Point
}

// Table is an in-memory Source, used for histories loaded from disk.
type Table map[SeriesType][]series.Point

func (t Table) Theta1() []series.Point    { return t[Theta1] }
func (t Table) Theta2() []series.Point    { return t[Theta2] }
func (t Table) Omega1() []series.Point    { return t[Omega1] }
func (t Table) Omega2() []series.Point    { return t[Omega2] }
func (t Table) Kinetic() []series.Point   { return t[KineticEnergy] }
func (t Table) Potential() []series.Point { return t[PotentialEnergy] }
func (t Table) Total() []series.Point     { return t[TotalEnergy] }

// Raw returns the stored series without unit conversion.
func Raw(src Source, s SeriesType) []series.Point {
	switch s {
	case Theta1:
		return src.Theta1()
	case Theta2:
		return src.Theta2()
	case Omega1:
		return src.Omega1()
	case Omega2:
		return src.Omega2()
	case KineticEnergy:
		return src.Kinetic()
	case PotentialEnergy:
		return src.Potential()
	case TotalEnergy:
		return src.Total()
	}
	return nil
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// Select returns a fresh copy of the series in display units. Theta2 is the
// absolute angle; samples whose timestamps differ between the theta1 and
// theta2 channels are dropped.
func Select(src Source, s SeriesType) []series.Point {
	if s == Theta2 {
		theta1, theta2 := src.Theta1(), src.Theta2()
		n := min(len(theta1), len(theta2))
		out := make([]series.Point, 0, n)
		for i := 0; i < n; i++ {
			if theta1[i].T == theta2[i].T {
				out = append(out, series.Point{T: theta1[i].T, V: degrees(theta1[i].V + theta2[i].V)})
			}
		}
		return out
	}

	raw := Raw(src, s)
	out := make([]series.Point, len(raw))
	copy(out, raw)
	if s.isAngle() {
		for i := range out {
			out[i].V = degrees(out[i].V)
		}
	}
	return out
}
