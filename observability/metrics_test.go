package observability

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusClass(t *testing.T) {
	cases := map[int]string{
		http.StatusOK:                  "ok",
		http.StatusNotFound:            "client_error",
		http.StatusTooManyRequests:     "client_error",
		http.StatusServiceUnavailable:  "server_error",
		http.StatusInternalServerError: "server_error",
	}
	for status, want := range cases {
		if got := StatusClass(status); got != want {
			t.Fatalf("status %d: expected %s, got %s", status, want, got)
		}
	}
}

func TestAPIMetricsLabels(t *testing.T) {
	m := API()

	before := testutil.ToFloat64(m.requests.WithLabelValues("escrow", "offer.claim_dispute", "client_error"))
	m.ObserveRequest("escrow", "offer.claim_dispute", http.StatusConflict, 3*time.Millisecond)
	if diff := testutil.ToFloat64(m.requests.WithLabelValues("escrow", "offer.claim_dispute", "client_error")) - before; diff != 1 {
		t.Fatalf("expected one client error, got %f", diff)
	}

	before = testutil.ToFloat64(m.rejections.WithLabelValues("unknown", "NotFinalized"))
	m.RecordRejection("", "NotFinalized")
	if diff := testutil.ToFloat64(m.rejections.WithLabelValues("unknown", "NotFinalized")) - before; diff != 1 {
		t.Fatalf("expected empty group to be labelled unknown, got %f", diff)
	}

	before = testutil.ToFloat64(m.refusals.WithLabelValues("relay", RefusalRateLimit))
	m.RecordRefusal("relay", RefusalRateLimit)
	if diff := testutil.ToFloat64(m.refusals.WithLabelValues("relay", RefusalRateLimit)) - before; diff != 1 {
		t.Fatalf("expected one refusal, got %f", diff)
	}

	open := testutil.ToFloat64(m.subscribers)
	m.StreamOpened()
	m.StreamOpened()
	m.StreamClosed()
	if got := testutil.ToFloat64(m.subscribers) - open; got != 1 {
		t.Fatalf("expected one open subscriber, got %f", got)
	}
	m.StreamClosed()
}
