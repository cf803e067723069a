package sim

// EventKind identifies what changed on the driver.
type EventKind int

const (
	HistoryUpdated EventKind = iota
	ParamChanged
	FailureChanged
	FlashChanged
	SpeedChanged
	TraceVisibilityChanged
	TimeChanged
	StateChanged
)

var eventNames = [...]string{
	HistoryUpdated:         "history_updated",
	ParamChanged:           "param_changed",
	FailureChanged:         "failure_changed",
	FlashChanged:           "flash_changed",
	SpeedChanged:           "speed_changed",
	TraceVisibilityChanged: "trace_visibility_changed",
	TimeChanged:            "time_changed",
	StateChanged:           "state_changed",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[k]
}

// Event is delivered synchronously to every observer. Name carries the
// parameter name for ParamChanged and the trace ("trace1", "trace2") for
// TraceVisibilityChanged.
type Event struct {
	Kind EventKind
	Name string
}

type Observer interface {
	OnEvent(e Event)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(e Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

func (d *Driver) AddObserver(o Observer) { d.observers = append(d.observers, o) }

func (d *Driver) emit(kind EventKind, name string) {
	e := Event{Kind: kind, Name: name}
	for _, o := range d.observers {
		o.OnEvent(e)
	}
}
