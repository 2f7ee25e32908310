package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event is one session lifecycle audit record. Sequence is stamped by the [Dispatcher];
// a gap between consecutive delivered events means the missing ones were dropped.
type Event struct {
	Sequence  uint64            `json:"seq,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Identity  string            `json:"identity,omitempty"`
	Source    string            `json:"source,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink consumes events. The dispatcher calls Emit from a single goroutine.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(ctx context.Context, event Event)

func (f SinkFunc) Emit(ctx context.Context, event Event) { f(ctx, event) }

// NoOpSink discards everything.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink hands events to a reader through a buffered channel. Emit blocks while the
// buffer is full unless ctx ends.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{events: make(chan Event, max(buffer, 1))}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events is the read side.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes JSON lines. Write failures are kept and reported by Err; later
// events are still attempted.
type JSONWriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	if w == nil {
		w = io.Discard
	}
	return &JSONWriterSink{enc: json.NewEncoder(w)}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(event); err != nil {
		s.err = err
	}
}

// Err returns the last write error.
func (s *JSONWriterSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
