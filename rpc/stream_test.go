package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"crosstrade/core"
)

func readStreamEvent(t *testing.T, conn *websocket.Conn) core.StreamEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	msgType, data, err := conn.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, websocket.MessageText, msgType)
	var evt core.StreamEvent
	require.NoError(t, json.Unmarshal(data, &evt))
	return evt
}

func TestEventStreamReplaysAndFollows(t *testing.T) {
	h := newHarness(t)
	id := h.openAccepted(t)

	srv := httptest.NewServer(h.server.Handler())
	defer srv.Close()
	addr := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/events?type=escrow.offer."

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, addr, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "test complete")

	created := readStreamEvent(t, conn)
	require.Equal(t, "escrow.offer.created", created.Type)
	require.Equal(t, id, created.Attributes["requestId"])
	accepted := readStreamEvent(t, conn)
	require.Equal(t, "escrow.offer.accepted", accepted.Type)
	require.Greater(t, accepted.Sequence, created.Sequence)

	res := h.do(t, http.MethodPost, "/v1/requests/"+id+"/offers/0/claim", &offerer, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	paid := readStreamEvent(t, conn)
	require.Equal(t, "escrow.offer.paid_crosschain", paid.Type)
	require.Greater(t, paid.Sequence, accepted.Sequence)

	resumeCtx, resumeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer resumeCancel()
	resume, _, err := websocket.Dial(resumeCtx, strings.Replace(addr, "?", "?cursor="+strconv.FormatUint(accepted.Sequence, 10)+"&", 1), nil)
	require.NoError(t, err)
	defer resume.Close(websocket.StatusNormalClosure, "test complete")
	require.Equal(t, paid.Sequence, readStreamEvent(t, resume).Sequence)
}

func TestEventStreamRejectsBadCursor(t *testing.T) {
	h := newHarness(t)
	res := h.do(t, http.MethodGet, "/v1/events?cursor=latest", nil, nil)
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Equal(t, "InvalidParams", decode[APIError](t, res).Code)
}
