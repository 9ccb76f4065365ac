package core

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"crosstrade/core/events"
	"crosstrade/native/collateral"
	"crosstrade/storage"
)

func emitStaked(t *testing.T, c *Chain, n int) {
	t.Helper()
	err := c.Exec(context.Background(), "test", func() error {
		for i := 0; i < n; i++ {
			c.buffer.Emit(events.Wrap(collateral.NewStakedEvent(offerer, 0, big.NewInt(1), big.NewInt(int64(i+1)))))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
}

func TestSubscribeEventsResumesFromCursor(t *testing.T) {
	c, _ := newTestChain(t, storage.NewMemDB(), testConfig())
	emitStaked(t, c, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, stop, backlog := c.SubscribeEvents(ctx, 0)
	stop()
	if len(backlog) != 2 || backlog[0].Sequence != 1 || backlog[1].Sequence != 2 {
		t.Fatalf("unexpected backlog %+v", backlog)
	}
	if backlog[1].Type != collateral.EventTypeStaked || backlog[1].Attributes["stake"] != "2" {
		t.Fatalf("unexpected event %+v", backlog[1])
	}

	updates, stop, backlog := c.SubscribeEvents(ctx, 2)
	defer stop()
	if len(backlog) != 0 {
		t.Fatalf("cursor at head must not replay, got %+v", backlog)
	}
	_ = c.Exec(context.Background(), "test", func() error {
		c.buffer.Emit(events.Wrap(collateral.NewStakedEvent(offerer, 0, big.NewInt(1), big.NewInt(9))))
		return errors.New("rejected")
	})
	emitStaked(t, c, 1)
	evt, ok := <-updates
	if !ok || evt.Sequence != 3 {
		t.Fatalf("expected sequence 3 from the committed call, got %+v ok=%v", evt, ok)
	}
}

func TestSlowSubscriberIsDisconnected(t *testing.T) {
	c, _ := newTestChain(t, storage.NewMemDB(), testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates, stop, _ := c.SubscribeEvents(ctx, 0)
	defer stop()

	emitStaked(t, c, streamBufferSize+1)
	received := 0
	for range updates {
		received++
	}
	if received != streamBufferSize {
		t.Fatalf("expected %d buffered events before disconnect, got %d", streamBufferSize, received)
	}
}
