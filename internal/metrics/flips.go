package metrics

import (
	"math"

	"github.com/san-kum/dpsim/internal/dynamo"
)

// Flips counts how often the lower rod swings over the top, i.e. its absolute
// angle crosses an odd multiple of pi. FirstFlip is the time of the first
// one, or -1.
type Flips struct {
	name      string
	count     int
	lastTurn  float64
	started   bool
	FirstFlip float64
}

func NewFlips() *Flips {
	return &Flips{name: "flips", FirstFlip: -1}
}

func (f *Flips) Name() string { return f.name }

// turn maps an angle to the index of the 2pi band centred on 0, so the band
// boundaries sit at odd multiples of pi.
func turn(theta float64) float64 {
	return math.Floor((theta + math.Pi) / (2 * math.Pi))
}

func (f *Flips) Observe(s dynamo.Sample) {
	if len(s.State) < 3 {
		return
	}
	k := turn(s.State[0] + s.State[2])
	if f.started && k != f.lastTurn {
		f.count++
		if f.FirstFlip < 0 {
			f.FirstFlip = s.Time
		}
	}
	f.lastTurn = k
	f.started = true
}

func (f *Flips) Reject(t, h float64) {}

func (f *Flips) Value() float64 { return float64(f.count) }

func (f *Flips) Reset() {
	f.count = 0
	f.lastTurn = 0
	f.started = false
	f.FirstFlip = -1
}
