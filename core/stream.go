package core

import (
	"context"
	"sync"

	"crosstrade/core/events"
	"crosstrade/observability"
)

const (
	streamHistorySize = 512
	streamBufferSize  = 64
)

// StreamEvent is a committed protocol event numbered in commit order.
type StreamEvent struct {
	Sequence   uint64            `json:"sequence"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// eventStream fans committed events out to live subscribers and keeps a short
// history so reconnecting clients can resume from a cursor.
type eventStream struct {
	mu      sync.Mutex
	seq     uint64
	history []StreamEvent
	subs    map[uint64]chan StreamEvent
	nextID  uint64
}

func newEventStream() *eventStream {
	return &eventStream{subs: make(map[uint64]chan StreamEvent)}
}

// publish never blocks. A subscriber whose buffer is full is closed; it
// resumes from the last sequence it saw.
func (s *eventStream) publish(evt events.Event) {
	entry := StreamEvent{Type: evt.EventType()}
	if payload, ok := evt.(events.Payload); ok {
		if rendered := payload.Event(); rendered != nil {
			entry.Attributes = make(map[string]string, len(rendered.Attributes))
			for k, v := range rendered.Attributes {
				entry.Attributes[k] = v
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	entry.Sequence = s.seq
	s.history = append(s.history, entry)
	if len(s.history) > streamHistorySize {
		s.history = s.history[len(s.history)-streamHistorySize:]
	}
	for id, ch := range s.subs {
		select {
		case ch <- entry:
		default:
			delete(s.subs, id)
			close(ch)
			observability.API().RecordStreamDrop()
		}
	}
}

func (s *eventStream) subscribe(ctx context.Context, since uint64) (<-chan StreamEvent, func(), []StreamEvent) {
	updates := make(chan StreamEvent, streamBufferSize)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = updates
	backlog := make([]StreamEvent, 0, len(s.history))
	for _, entry := range s.history {
		if entry.Sequence > since {
			backlog = append(backlog, entry)
		}
	}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
			s.mu.Unlock()
		})
	}
	if ctx != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}
	return updates, cancel, backlog
}

// SubscribeEvents streams events committed after the sequence number since;
// zero starts from the retained history. The backlog holds retained events
// newer than since and the channel carries what commits next. The channel
// closes when ctx ends, cancel is called, or the subscriber falls too far
// behind.
func (c *Chain) SubscribeEvents(ctx context.Context, since uint64) (<-chan StreamEvent, func(), []StreamEvent) {
	return c.stream.subscribe(ctx, since)
}
