package cast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/termscript/termscript/internal/clock"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

// ErrConflict is returned when the destination already exists and overwrite
// was not requested. The existing file is left untouched.
var ErrConflict = errors.New("cast: recording already exists")

// Recorder accumulates timed terminal events and writes them out exactly
// once. Writers returned by OutputWriter and InputWriter are safe for
// concurrent use.
type Recorder struct {
	mu        sync.Mutex
	header    *Header
	events    []Event
	started   time.Time
	now       func() time.Time
	trim      int
	capture   bool
	finalized bool
	outcome   error
	fs        afs.Service
}

type Option func(*Recorder)

// WithClock overrides the recorder time source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithTrimLines sets how many trailing events Finalize drops before writing.
func WithTrimLines(n int) Option {
	return func(r *Recorder) {
		r.trim = n
	}
}

// WithCaptureInput records input chunks alongside output.
func WithCaptureInput() Option {
	return func(r *Recorder) {
		r.capture = true
	}
}

// NewRecorder creates a recorder; the recording start instant is taken at
// creation time.
func NewRecorder(header *Header, opts ...Option) *Recorder {
	ret := &Recorder{
		header: header,
		now:    func() time.Time { return clock.NowFunc() },
		fs:     afs.New(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.started = ret.now()
	return ret
}

// Header returns the recording header.
func (r *Recorder) Header() *Header {
	return r.header
}

// OutputWriter returns a sink that appends every written chunk as a
// timestamped output event.
func (r *Recorder) OutputWriter() io.Writer {
	return &eventWriter{recorder: r, kind: Output}
}

// InputWriter returns a sink that appends every written chunk as a
// timestamped input event. Chunks are dropped unless input capture is on.
func (r *Recorder) InputWriter() io.Writer {
	return &eventWriter{recorder: r, kind: Input}
}

// Events returns a copy of the events accumulated so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]Event, len(r.events))
	copy(events, r.events)
	return events
}

// Trim drops the last n events.
func (r *Recorder) Trim(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropLast(n)
}

// Finalize applies the configured trim and writes the recording to URL as
// asciicast v2, one JSON document per line. Finalize is idempotent: the
// second and later calls return the first outcome without touching storage.
// When the destination exists and overwrite is false the outcome is
// ErrConflict and the existing file stays byte-identical.
func (r *Recorder) Finalize(ctx context.Context, URL string, overwrite bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return r.outcome
	}
	r.finalized = true
	r.outcome = r.write(ctx, URL, overwrite)
	return r.outcome
}

func (r *Recorder) write(ctx context.Context, URL string, overwrite bool) error {
	exists, err := r.fs.Exists(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to check if recording exists: %w", err)
	}
	if exists && !overwrite {
		return fmt.Errorf("%w: %s", ErrConflict, URL)
	}
	if r.trim > 0 {
		r.dropLast(r.trim)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(r.header); err != nil {
		return fmt.Errorf("failed to encode recording header: %w", err)
	}
	for i := range r.events {
		if err := encoder.Encode(&r.events[i]); err != nil {
			return fmt.Errorf("failed to encode recording event %v: %w", i, err)
		}
	}

	if err := r.fs.Upload(ctx, URL, file.DefaultFileOsMode, &buf); err != nil {
		return fmt.Errorf("failed to write recording to %s: %w", URL, err)
	}
	return nil
}

// append records one chunk; timestamps never decrease even if the clock does.
func (r *Recorder) append(kind string, chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return
	}
	if kind == Input && !r.capture {
		return
	}
	elapsed := r.now().Sub(r.started).Seconds()
	if n := len(r.events); n > 0 && elapsed < r.events[n-1].Time {
		elapsed = r.events[n-1].Time
	}
	r.events = append(r.events, Event{Time: elapsed, Kind: kind, Data: string(chunk)})
}

func (r *Recorder) dropLast(n int) {
	if n <= 0 {
		return
	}
	if n >= len(r.events) {
		r.events = nil
		return
	}
	r.events = r.events[:len(r.events)-n]
}

type eventWriter struct {
	recorder *Recorder
	kind     string
}

func (w *eventWriter) Write(p []byte) (int, error) {
	w.recorder.append(w.kind, p)
	return len(p), nil
}
