package instrumentation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
)

func newTestProvider(t *testing.T, reg promclient.Registerer) (context.Context, *Provider) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	provider, err := NewProvider(ctx, Config{
		ServiceName:       "test-service",
		ServiceVersion:    "1.0.0",
		Enabled:           true,
		MetricsExporter:   ExporterPrometheus,
		TracingExporter:   ExporterNone,
		TraceSamplingRate: 1,
	}, WithPrometheusRegisterer(reg))
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	return ctx, provider
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}

	// nil recorder must be safe to use
	provider.Metrics().RecordGraphAPIOperation(context.Background(), "list_inbox", StatusSuccess, time.Second)
	provider.Metrics().RecordOAuthAuth(context.Background(), FlowSilent, OAuthResultSuccess)

	if provider.Tracer("test") == nil {
		t.Error("expected a no-op tracer when disabled")
	}

	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
}

func TestNewProvider_PrometheusExporter(t *testing.T) {
	_, provider := newTestProvider(t, promclient.NewRegistry())

	if !provider.Enabled() {
		t.Error("expected provider to be enabled")
	}
	if provider.Metrics() == nil {
		t.Error("expected metrics to be non-nil")
	}
	if provider.Tracer("test") == nil {
		t.Error("expected tracer to be non-nil")
	}
}

func TestNewProvider_StdoutExporter(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{
		ServiceName:       "test-service",
		Enabled:           true,
		MetricsExporter:   ExporterStdout,
		TracingExporter:   ExporterStdout,
		TraceSamplingRate: 1,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
}

func TestNewProvider_InvalidExporters(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"invalid metrics exporter", Config{Enabled: true, MetricsExporter: "invalid", TracingExporter: ExporterNone}},
		{"invalid tracing exporter", Config{Enabled: true, MetricsExporter: ExporterStdout, TracingExporter: "invalid"}},
		{"otlp tracing without endpoint", Config{Enabled: true, MetricsExporter: ExporterStdout, TracingExporter: ExporterOTLP}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProvider(context.Background(), tt.config); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestProvider_ShutdownWritesTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphmail.prom")
	reg := promclient.NewRegistry()

	provider, err := NewProvider(context.Background(), Config{
		ServiceName:       "test-service",
		Enabled:           true,
		MetricsExporter:   ExporterPrometheus,
		TracingExporter:   ExporterNone,
		TraceSamplingRate: 1,
		TextfilePath:      path,
	}, WithPrometheusRegisterer(reg))
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	provider.Metrics().RecordCommand(context.Background(), "inbox", StatusSuccess)

	if err := provider.Shutdown(context.Background()); err != nil {
		t.Fatalf("expected no error on shutdown, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected textfile to be written: %v", err)
	}
	if !strings.Contains(string(data), "cli_command_invocations") {
		t.Errorf("textfile does not contain the command counter:\n%s", data)
	}
}
