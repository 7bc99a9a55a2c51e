package exporters

import (
	"bytes"
	"context"
	"errors"
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"
)

func TestNewTracingExporter(t *testing.T) {
	tests := []struct {
		name    string
		wantErr error
	}{
		{Stdout, nil},
		{None, nil},
		{"", nil},
		{"zipkin", ErrUnknownExporter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := NewTracingExporter(context.Background(), tt.name, WithWriter(&bytes.Buffer{}))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewTracingExporter(%q) error = %v, want %v", tt.name, err, tt.wantErr)
			}
			if tt.wantErr == nil && exp == nil {
				t.Errorf("NewTracingExporter(%q) returned nil exporter", tt.name)
			}
		})
	}
}

func TestNewMetricsReader(t *testing.T) {
	tests := []struct {
		name    string
		wantErr error
	}{
		{Stdout, nil},
		{None, nil},
		{"", nil},
		{"statsd", ErrUnknownExporter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := NewMetricsReader(context.Background(), tt.name)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewMetricsReader(%q) error = %v, want %v", tt.name, err, tt.wantErr)
			}
			if tt.wantErr == nil && reader == nil {
				t.Errorf("NewMetricsReader(%q) returned nil reader", tt.name)
			}
		})
	}
}

func TestOTLPRequiresEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_JAEGER_ENDPOINT", "")

	if _, err := NewTracingExporter(context.Background(), OTLP); !errors.Is(err, ErrEndpointNotConfigured) {
		t.Errorf("otlp tracing error = %v, want ErrEndpointNotConfigured", err)
	}
	if _, err := NewTracingExporter(context.Background(), Jaeger); !errors.Is(err, ErrEndpointNotConfigured) {
		t.Errorf("jaeger tracing error = %v, want ErrEndpointNotConfigured", err)
	}
	if _, err := NewMetricsReader(context.Background(), OTLP); !errors.Is(err, ErrEndpointNotConfigured) {
		t.Errorf("otlp metrics error = %v, want ErrEndpointNotConfigured", err)
	}
}

func TestPrometheusReaderUsesRegisterer(t *testing.T) {
	reg := promclient.NewRegistry()

	reader, err := NewMetricsReader(context.Background(), Prometheus, WithRegisterer(reg))
	if err != nil {
		t.Fatalf("NewMetricsReader(prometheus) error = %v", err)
	}
	if reader == nil {
		t.Fatal("expected non-nil reader")
	}

	if _, err := reg.Gather(); err != nil {
		t.Errorf("Gather() error = %v", err)
	}
}
