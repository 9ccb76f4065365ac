package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"crosstrade/core"
	"crosstrade/observability"
)

const wsWriteTimeout = 10 * time.Second

// handleEventStream upgrades to a websocket and streams committed protocol
// events as JSON text frames. Query parameters: cursor, the last sequence the
// client saw; type, an optional event type prefix such as "escrow.offer.".
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if raw := strings.TrimSpace(r.URL.Query().Get("cursor")); raw != "" {
		parsed, apiErr := parseUint("cursor", raw)
		if apiErr != nil {
			s.writeError(w, r, apiErr)
			return
		}
		since = parsed
	}
	prefix := strings.TrimSpace(r.URL.Query().Get("type"))

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")
	observability.API().StreamOpened()
	defer observability.API().StreamClosed()

	// The stream is write-only; CloseRead ends ctx when the client goes away.
	ctx := conn.CloseRead(r.Context())
	if err := s.streamEvents(ctx, conn, since, prefix); err != nil {
		if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (s *Server) streamEvents(ctx context.Context, conn *websocket.Conn, since uint64, prefix string) error {
	updates, cancel, backlog := s.chain.SubscribeEvents(ctx, since)
	defer cancel()

	for _, evt := range backlog {
		if err := writeStreamEvent(ctx, conn, evt, prefix); err != nil {
			return err
		}
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.closing:
			_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
			return nil
		case evt, ok := <-updates:
			if !ok {
				_ = conn.Close(websocket.StatusTryAgainLater, "subscriber fell behind; resume from cursor")
				return nil
			}
			if err := writeStreamEvent(ctx, conn, evt, prefix); err != nil {
				return err
			}
		}
	}
}

func writeStreamEvent(ctx context.Context, conn *websocket.Conn, evt core.StreamEvent, prefix string) error {
	if prefix != "" && !strings.HasPrefix(evt.Type, prefix) {
		return nil
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
