// Package progress carries per-item progress events from the pipeline stages
// to whoever is rendering them (a console line, a log, a test recorder).
package progress

import (
	"log/slog"
	"sync"
)

// Event reports that one more item of a stage has been handled.
type Event struct {
	Stage string // e.g. "tokenize", "import", "generate"
	Done  int    // items handled so far, monotonic within a stage
	Total int    // expected items; 0 when unknown
	Item  string // the sentence or expression just handled
}

// Observer receives progress events. Implementations must be safe for
// concurrent use when the emitting stage runs workers.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

type nop struct{}

func (nop) Observe(Event) {}

// Nop discards every event.
var Nop Observer = nop{}

// OrNop returns o, or Nop when o is nil.
func OrNop(o Observer) Observer {
	if o == nil {
		return Nop
	}
	return o
}

// Logger logs an info line every Every events and on the final event of a
// stage.
type Logger struct {
	Log   *slog.Logger
	Every int
}

func (l Logger) Observe(e Event) {
	every := l.Every
	if every <= 0 {
		every = 100
	}
	if e.Done%every != 0 && e.Done != e.Total {
		return
	}
	l.Log.Info("progress",
		slog.String("stage", e.Stage),
		slog.Int("done", e.Done),
		slog.Int("total", e.Total),
	)
}

// Recorder keeps every event it sees. Useful in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Observe(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
