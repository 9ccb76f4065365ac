package otel

import (
	"context"
	"testing"

	"crosstrade/config"
)

func TestParseHeaders(t *testing.T) {
	headers := ParseHeaders(" api-key = secret ,broken, =empty,tenant=a")
	if len(headers) != 2 || headers["api-key"] != "secret" || headers["tenant"] != "a" {
		t.Fatalf("unexpected headers %v", headers)
	}
}

func TestInitWithoutExporters(t *testing.T) {
	if _, err := Init(context.Background(), Config{}); err == nil {
		t.Fatalf("expected service name error")
	}
	shutdown, err := Init(context.Background(), Config{ServiceName: "crosstraded"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestFromTelemetryDisabled(t *testing.T) {
	cfg := FromTelemetry("crosstraded", "dev", config.Telemetry{Traces: true, Metrics: true})
	if cfg.Traces || cfg.Metrics {
		t.Fatalf("disabled telemetry must not enable exporters: %+v", cfg)
	}
	cfg = FromTelemetry("crosstraded", "dev", config.Telemetry{Enabled: true, Traces: true, Endpoint: " otel:4318 "})
	if !cfg.Traces || cfg.Endpoint != "otel:4318" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
