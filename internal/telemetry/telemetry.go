// Package telemetry records a JSONL event stream of analysis runs: when a
// batch starts and ends, every stage transition of every chart, and every
// failure. The stream makes a run auditable without touching the reports
// themselves.
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/papapumpkin/graha/internal/report"
)

// Event kinds identify the type of telemetry event.
const (
	KindRunStart  = "run_start"
	KindRunDone   = "run_done"
	KindStage     = "stage"
	KindFailed    = "analysis_failed"
	KindReload    = "reload"
	KindChartDone = "chart_done"
)

// Event represents a single telemetry record. Each event carries a
// timestamp, a kind tag, and optional context identifiers (run, chart)
// along with arbitrary structured data.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	RunID     string    `json:"run,omitempty"`
	Chart     string    `json:"chart,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Emitter writes telemetry events as JSON lines. It is safe for concurrent
// use by multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	closer io.Closer
	enc    *json.Encoder
	mu     sync.Mutex
	now    func() time.Time
}

// NewEmitter creates a new Emitter that writes JSONL events to the file at
// path. The file is created if it does not exist, or appended to if it does.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{closer: f, enc: json.NewEncoder(f), now: time.Now}, nil
}

// NewWriterEmitter creates an Emitter writing to w. Close does not close w.
func NewWriterEmitter(w io.Writer) *Emitter {
	return &Emitter{enc: json.NewEncoder(w), now: time.Now}
}

// Emit writes a single event. A zero Timestamp is filled with the current
// time. Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if evt.Timestamp.IsZero() {
		evt.Timestamp = e.now().UTC()
	}
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file. Calling Close on a nil
// Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil || e.closer == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.closer.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}

// StageData is the payload of a KindStage event.
type StageData struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	ElapsedMS float64 `json:"elapsed_ms"`
}

// FailureData is the payload of a KindFailed event.
type FailureData struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// Observer forwards analysis stage transitions of one chart to an Emitter.
// It satisfies report.Observer. Emission errors are dropped: telemetry
// never fails an analysis.
type Observer struct {
	Emitter *Emitter
	RunID   string
	Chart   string
}

// StageEntered emits a KindStage event.
func (o Observer) StageEntered(from, to report.Stage, elapsed time.Duration) {
	_ = o.Emitter.Emit(Event{
		Kind:  KindStage,
		RunID: o.RunID,
		Chart: o.Chart,
		Data: StageData{
			From:      from.String(),
			To:        to.String(),
			ElapsedMS: float64(elapsed.Microseconds()) / 1000,
		},
	})
}

// Failed emits a KindFailed event.
func (o Observer) Failed(stage report.Stage, err error) {
	_ = o.Emitter.Emit(Event{
		Kind:  KindFailed,
		RunID: o.RunID,
		Chart: o.Chart,
		Data:  FailureData{Stage: stage.String(), Error: err.Error()},
	})
}
