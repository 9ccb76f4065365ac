package events

import (
	"sync"

	"crosstrade/core/types"
)

// Event represents a structured state change emitted by the protocol.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Payload is implemented by events that can render a broadcastable payload.
type Payload interface {
	Event() *types.Event
}

// Buffer holds events raised during a call until the call commits. Events of a
// rolled back call are dropped so observers never see effects that did not
// happen.
type Buffer struct {
	mu      sync.Mutex
	pending []Event
}

// Emit implements the Emitter interface.
func (b *Buffer) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	b.mu.Lock()
	b.pending = append(b.pending, evt)
	b.mu.Unlock()
}

// Flush delivers the buffered events to the downstream emitter in order.
func (b *Buffer) Flush(to Emitter) []Event {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	flushed := b.pending
	b.pending = nil
	b.mu.Unlock()
	if to != nil {
		for _, evt := range flushed {
			to.Emit(evt)
		}
	}
	return flushed
}

// Discard drops the buffered events and reports how many were dropped.
func (b *Buffer) Discard() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	n := len(b.pending)
	b.pending = nil
	b.mu.Unlock()
	return n
}

// Recorder keeps every emitted event in memory. Tests use it to assert on the
// event stream.
type Recorder struct {
	mu     sync.Mutex
	events []*types.Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	payload, ok := evt.(Payload)
	if !ok {
		return
	}
	rendered := payload.Event()
	if rendered == nil {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, rendered)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []*types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*types.Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events with the supplied type.
func (r *Recorder) OfType(eventType string) []*types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Event
	for _, evt := range r.events {
		if evt.Type == eventType {
			out = append(out, evt)
		}
	}
	return out
}

// Fanout forwards each event to every configured emitter.
type Fanout []Emitter

// Emit implements the Emitter interface.
func (f Fanout) Emit(evt Event) {
	for _, em := range f {
		if em != nil {
			em.Emit(evt)
		}
	}
}
