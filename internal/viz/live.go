package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"go.uber.org/zap"

	"github.com/san-kum/dpsim/internal/config"
	"github.com/san-kum/dpsim/internal/experiment"
	"github.com/san-kum/dpsim/internal/metrics"
	"github.com/san-kum/dpsim/internal/series"
	"github.com/san-kum/dpsim/internal/sim"
)

const (
	width         = 60
	height        = 24
	energyWindow  = 240
	speedStep     = 2.0
	minParamDelta = 0.05
)

const (
	layerTrace1 = iota
	layerTrace2
	layerFrame
	layerCount
)

type TickMsg time.Time

// tunables are the parameters the dashboard can adjust, in display order.
var tunables = []struct {
	name string
	set  func(*sim.Driver, float64) bool
}{
	{"m1", (*sim.Driver).SetM1},
	{"m2", (*sim.Driver).SetM2},
	{"rod_mass1", (*sim.Driver).SetRodMass1},
	{"rod_mass2", (*sim.Driver).SetRodMass2},
	{"l1", (*sim.Driver).SetL1},
	{"l2", (*sim.Driver).SetL2},
	{"b1", (*sim.Driver).SetB1},
	{"b2", (*sim.Driver).SetB2},
	{"c1", (*sim.Driver).SetC1},
	{"c2", (*sim.Driver).SetC2},
	{"g", (*sim.Driver).SetG},
}

// Model is the bubbletea model of the live dashboard. Each tick advances the
// driver by one frame of wall time and paints the newly drained trace points.
type Model struct {
	cfg      *config.Config
	driver   *sim.Driver
	drift    *metrics.EnergyDrift
	canvas   *Canvas
	energy   *series.Bounded[float64]
	angle    *series.Bounded[float64]
	reach    float64
	fps      int
	selected int
	showHelp bool
}

// NewModel builds the dashboard and its driver from cfg.
func NewModel(cfg *config.Config, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}
	d, drift, _, _ := experiment.NewDriver(cfg, log)
	fps := cfg.FPS
	if fps <= 0 {
		fps = config.DefaultFPS
	}
	m := Model{
		cfg:    cfg,
		driver: d,
		drift:  drift,
		canvas: NewCanvas(width, height, layerCount),
		energy: series.NewBounded[float64](energyWindow),
		angle:  series.NewBounded[float64](energyWindow),
		fps:    fps,
	}
	m.reach = m.currentReach()
	m.energy.Push(d.Energies().Total)
	return m
}

// Driver exposes the underlying simulation.
func (m Model) Driver() *sim.Driver { return m.driver }

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.driver.SetManualControl(!m.driver.ManualControl())
		case "r":
			m.reset()
		case "c":
			m.driver.ClearHistory()
			m.driver.ClearTraces()
			m.energy.Clear()
			m.angle.Clear()
			m.redrawTraces()
		case "p":
			m.driver.ClearPoincare()
		case "1":
			m.driver.SetShowTrace1(!m.driver.ShowTrace1())
			m.redrawTraces()
		case "2":
			m.driver.SetShowTrace2(!m.driver.ShowTrace2())
			m.redrawTraces()
		case "+", "=":
			m.driver.SetSpeed(m.driver.Speed() * speedStep)
		case "-", "_":
			m.driver.SetSpeed(m.driver.Speed() / speedStep)
		case "tab":
			m.selected = (m.selected + 1) % len(tunables)
		case "up", "k":
			m.adjustParam(1)
		case "down", "j":
			m.adjustParam(-1)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		m.step()
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) step() {
	m.driver.Advance(1 / float64(m.fps))
	p1, p2 := m.driver.DrainTrace1(), m.driver.DrainTrace2()

	if r := m.currentReach(); r != m.reach {
		m.reach = r
		m.redrawTraces()
	} else {
		m.plotTrace(layerTrace1, p1)
		m.plotTrace(layerTrace2, p2)
	}

	if !m.driver.ManualControl() && !m.driver.Failed() {
		m.energy.Push(m.driver.Energies().Total)
		m.angle.Push(m.driver.State()[0])
	}
}

// adjustParam scales the selected parameter by 5% in direction dir. A zero
// value moves by a fixed amount so it can leave zero.
func (m *Model) adjustParam(dir float64) {
	p := tunables[m.selected]
	v := m.driver.Model().Params()[p.name]
	next := v * (1 + 0.05*dir)
	if v == 0 {
		next = minParamDelta * dir
	}
	p.set(m.driver, next)
}

func (m *Model) reset() {
	s := m.cfg.InitState
	m.driver.Reset(s.Theta1, s.Omega1, s.Theta2, s.Omega2)
	m.energy.Clear()
	m.angle.Clear()
	m.energy.Push(m.driver.Energies().Total)
	m.redrawTraces()
}

func (m *Model) currentReach() float64 {
	p := m.driver.Params()
	return p.L1 + p.L2
}

// project maps model coordinates (metres, y down) to canvas sub-pixels with
// the pivot in the centre.
func (m *Model) project(x, y float64) (int, int) {
	cw, ch := m.canvas.Width*2, m.canvas.Height*4
	scale := 0.48 * float64(min(cw, ch)) / m.reach
	return cw/2 + int(math.Round(x*scale)), ch/2 + int(math.Round(y*scale))
}

func (m *Model) plotTrace(layer int, pts []series.Vec2) {
	for _, p := range pts {
		x, y := m.project(p.X, p.Y)
		m.canvas.Set(layer, x, y)
	}
}

// redrawTraces rebuilds both trace layers from the stored traces.
func (m *Model) redrawTraces() {
	m.canvas.ClearLayer(layerTrace1)
	m.canvas.ClearLayer(layerTrace2)
	if m.driver.ShowTrace1() {
		m.plotTrace(layerTrace1, m.driver.Trace1())
	}
	if m.driver.ShowTrace2() {
		m.plotTrace(layerTrace2, m.driver.Trace2())
	}
}

func (m *Model) drawPendulum() {
	m.canvas.ClearLayer(layerFrame)
	x1, y1, x2, y2 := m.driver.Positions()
	cx, cy := m.project(0, 0)
	b1x, b1y := m.project(x1, y1)
	b2x, b2y := m.project(x2, y2)

	m.canvas.Dot(layerFrame, cx, cy)
	m.canvas.DrawLine(layerFrame, cx, cy, b1x, b1y)
	m.canvas.Dot(layerFrame, b1x, b1y)
	m.canvas.DrawLine(layerFrame, b1x, b1y, b2x, b2y)
	m.canvas.Dot(layerFrame, b2x, b2y)
}

func (m Model) status() string {
	switch {
	case m.driver.Failed():
		return StatusFailed.Render("FAILED")
	case m.driver.ManualControl():
		return StatusPaused.Render("PAUSED")
	default:
		return StatusRunning.Render("RUNNING")
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	m.drawPendulum()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render("DOUBLE PENDULUM") + "\n")
	s.WriteString(m.status())
	if m.driver.Flash() {
		s.WriteString("  " + FlashStyle.Render(" SECTION "))
	}
	s.WriteString("\n")
	if err := m.driver.Err(); err != nil {
		s.WriteString(labelStyle.Render("Error") + valueStyle.Render(err.Error()) + "\n")
	}

	energy := m.energy.Snapshot()
	if len(energy) > 1 {
		chart := asciigraph.Plot(energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Total energy"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	e := m.driver.Energies()
	x := m.driver.State()
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.driver.Time()))
	row("Speed", fmt.Sprintf("%.3gx", m.driver.Speed()))
	row("Step", fmt.Sprintf("%.2e", m.driver.LastStep()))
	row("θ1 / θ2", fmt.Sprintf("%.3f / %.3f", x[0], x[2]))
	row("θ1 trend", Sparkline(m.angle.Snapshot(), 30))
	row("ω1 / ω2", fmt.Sprintf("%.3f / %.3f", x[1], x[3]))
	row("Energy", fmt.Sprintf("KE %.3f  PE %.3f", e.Kinetic, e.Potential))
	row("Drift", fmt.Sprintf("%.2e", m.drift.Current()))
	row("Crossings", fmt.Sprintf("%d", len(m.driver.Poincare())))
	h := m.driver.History()
	row("History", ProgressBar(float64(h.Len())/float64(m.driver.Capacity()), 16))
	row("Traces", fmt.Sprintf("1:%s 2:%s", onOff(m.driver.ShowTrace1()), onOff(m.driver.ShowTrace2())))

	s.WriteString("\nPARAMETERS\n")
	params := m.driver.Model().Params()
	for i, p := range tunables {
		line := fmt.Sprintf("%-10s %.3f", p.name, params[p.name])
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}
	s.WriteString(helpStyle.Render("─────────────────────\nSP:Pause R:Reset C:Clear Q:Quit\n1/2:Traces +/-:Speed ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Reset to initial state   ║
║  C        - Clear history & traces   ║
║  P        - Clear Poincaré section   ║
║  1 / 2    - Toggle bob traces        ║
║  + / -    - Double / halve speed     ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter (+5%) ║
║  Down/J   - Decrease parameter (-5%) ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Run starts the dashboard on the terminal and blocks until it exits.
func Run(cfg *config.Config, log *zap.Logger) error {
	_, err := tea.NewProgram(NewModel(cfg, log), tea.WithAltScreen()).Run()
	return err
}
