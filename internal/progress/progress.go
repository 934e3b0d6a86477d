// Package progress carries discrete progress events out of the core.
package progress

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// Phases emitted by the pipeline and its producers.
const (
	PhaseScrape  = "scrape"
	PhaseCluster = "cluster"
	PhaseImages  = "images"
)

// Event is one progress report.
type Event struct {
	Phase     string `json:"phase"`
	Message   string `json:"message"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
}

// Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Report(Event)
}

// Emit reports e on s, tolerating a nil sink.
func Emit(s Sink, e Event) {
	if s != nil {
		s.Report(e)
	}
}

// JSONLines writes each event as one JSON object per line, the form the
// desktop front end reads from the process output.
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

func (j *JSONLines) Report(e Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	_ = j.enc.Encode(struct {
		Status string `json:"status"`
		Event
	}{Status: "progress", Event: e})
}

// Logger forwards events to a slog logger at debug level.
type Logger struct {
	L *slog.Logger
}

func (l Logger) Report(e Event) {
	l.L.Debug(e.Message, "phase", e.Phase, "processed", e.Processed, "total", e.Total)
}

// Multi fans an event out to several sinks.
type Multi []Sink

func (m Multi) Report(e Event) {
	for _, s := range m {
		Emit(s, e)
	}
}

// Recorder keeps every event; useful in tests.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
}

// Phase returns the recorded events for one phase.
func (r *Recorder) Phase(phase string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.Events {
		if e.Phase == phase {
			out = append(out, e)
		}
	}
	return out
}
