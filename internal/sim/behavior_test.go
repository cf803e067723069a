package sim_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/physics"
	"github.com/san-kum/dpsim/internal/series"
	"github.com/san-kum/dpsim/internal/sim"
)

type eventLog []sim.Event

func (l *eventLog) OnEvent(e sim.Event) { *l = append(*l, e) }

func (l eventLog) count(kind sim.EventKind) int {
	n := 0
	for _, e := range l {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

var _ = Describe("Driver", func() {
	var (
		d      *sim.Driver
		events *eventLog
	)

	start := func(x0 dynamo.State, opts ...sim.Option) {
		d = sim.New(physics.DefaultParams(), x0, opts...)
		events = &eventLog{}
		d.AddObserver(events)
	}

	Context("released from 45 degrees", func() {
		BeforeEach(func() {
			start(dynamo.State{math.Pi / 4, 0, math.Pi / 4, 0})
		})

		It("records history without failing over one second", func() {
			d.Advance(1.0)

			Expect(d.Failed()).To(BeFalse())
			Expect(len(d.History().Theta1())).To(BeNumerically(">", 1))
			Expect(events.count(sim.HistoryUpdated)).To(Equal(1))
		})
	})

	Context("without drag in deterministic mode", func() {
		BeforeEach(func() {
			start(dynamo.State{math.Pi / 2, 0, math.Pi / 3, 0}, sim.WithDeterministic())
		})

		It("conserves total energy", func() {
			e0 := d.Energies().Total
			for i := 0; i < 60; i++ {
				d.Advance(1.0 / 60)
			}

			Expect(d.Time()).To(BeNumerically("~", 1.0, 1e-9))
			drift := math.Abs(d.Energies().Total-e0) / math.Abs(e0)
			Expect(drift).To(BeNumerically("<", 1e-6))
		})

		It("keeps every recorded energy sample on the initial level", func() {
			d.Advance(0.5)

			e0 := d.History().Total()[0].V
			for _, p := range d.History().Total() {
				Expect(math.Abs(p.V-e0) / math.Abs(e0)).To(BeNumerically("<", 1e-6))
			}
		})
	})

	Context("with drag", func() {
		It("loses energy", func() {
			p := physics.DefaultParams()
			p.B1, p.B2, p.C1, p.C2 = 0.5, 0.5, 0.2, 0.2
			d = sim.New(p, dynamo.State{1, 0, 1, 0}, sim.WithDeterministic())
			e0 := d.Energies().Total

			d.Advance(2.0)

			Expect(d.Energies().Total).To(BeNumerically("<", e0))
		})
	})

	Describe("parameter edits", func() {
		BeforeEach(func() {
			start(dynamo.State{0, 0, 0, 0})
		})

		It("clamps m1 and notifies once", func() {
			Expect(d.SetM1(50)).To(BeTrue())
			Expect(d.Params().M1).To(Equal(30.0))
			Expect(d.SetM1(50)).To(BeFalse())
			Expect(d.SetM1(31)).To(BeFalse())

			Expect(*events).To(ConsistOf(sim.Event{Kind: sim.ParamChanged, Name: "m1"}))
		})
	})

	Describe("Reset", func() {
		BeforeEach(func() {
			start(dynamo.State{1, 2, 0.5, -1}, sim.WithDeterministic())
			d.Advance(0.5)
		})

		It("seeds a single zero sample at t=0 on every channel", func() {
			*events = nil
			d.Reset(0, 0, 0, 0)

			h := d.History()
			for _, ch := range [][]series.Point{h.Theta1(), h.Theta2(), h.Omega1(), h.Omega2()} {
				Expect(ch).To(Equal([]series.Point{{T: 0, V: 0}}))
			}
			for _, ch := range [][]series.Point{h.Kinetic(), h.Potential(), h.Total()} {
				Expect(ch).To(HaveLen(1))
				Expect(ch[0].T).To(BeZero())
			}
			Expect(h.Kinetic()[0].V).To(BeZero())
			Expect(d.Time()).To(BeZero())
			Expect(d.LastStep()).To(Equal(sim.InitialStep))
			Expect(d.Trace1()).To(BeEmpty())
			Expect(d.Trace2()).To(BeEmpty())
			Expect(d.Poincare()).To(BeEmpty())
			Expect(events.count(sim.HistoryUpdated)).To(Equal(1))
		})
	})

	Describe("capacity", func() {
		It("never grows a series past its bound", func() {
			start(dynamo.State{2, 0, -2, 0}, sim.WithDeterministic(), sim.WithCapacity(40))

			for i := 0; i < 20; i++ {
				d.Advance(0.05)
				h := d.History()
				Expect(len(h.Theta1())).To(BeNumerically("<=", 40))
				Expect(len(h.Total())).To(BeNumerically("<=", 40))
				Expect(len(d.Trace2())).To(BeNumerically("<=", 40))
			}
			Expect(d.History().Theta1()).To(HaveLen(40))
			Expect(d.Capacity()).To(Equal(40))
		})
	})

	Describe("traces", func() {
		It("keeps stored points more than the minimum spacing apart", func() {
			start(dynamo.State{1.5, 0, 0.5, 2}, sim.WithDeterministic())
			d.Advance(1.0)

			for _, tr := range [][]series.Vec2{d.Trace1(), d.Trace2()} {
				Expect(len(tr)).To(BeNumerically(">", 1))
				for i := 1; i < len(tr); i++ {
					dist := math.Hypot(tr[i].X-tr[i-1].X, tr[i].Y-tr[i-1].Y)
					Expect(dist).To(BeNumerically(">", sim.MinTraceSpacing))
				}
			}
		})
	})

	Describe("Poincaré section", func() {
		var now time.Time

		BeforeEach(func() {
			now = time.Unix(1000, 0)
			clock := func() time.Time { return now }
			start(dynamo.State{-0.05, 1.0, 0.2, 0}, sim.WithDeterministic(), sim.WithClock(clock))
		})

		It("records one sample and raises the flag once per crossing", func() {
			d.Advance(0.1)

			Expect(d.Poincare()).To(HaveLen(1))
			Expect(d.Flash()).To(BeTrue())
			Expect(events.count(sim.FlashChanged)).To(Equal(1))

			now = now.Add(300 * time.Millisecond)
			d.Advance(0)

			Expect(d.Flash()).To(BeFalse())
			Expect(events.count(sim.FlashChanged)).To(Equal(2))
			Expect(d.Poincare()).To(HaveLen(1))
		})

		It("lowers the flag on reset", func() {
			d.Advance(0.1)
			d.Reset(0, 0, 0, 0)

			Expect(d.Flash()).To(BeFalse())
			Expect(events.count(sim.FlashChanged)).To(Equal(2))
		})
	})
})
