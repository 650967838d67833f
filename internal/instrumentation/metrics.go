package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrStatus    = "status"
	attrOperation = "operation"
	attrResult    = "result"
	attrFlow      = "flow"
	attrCommand   = "command"
)

// Metrics provides methods for recording observability metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Graph API metrics
	graphAPIOperationsTotal   metric.Int64Counter
	graphAPIOperationDuration metric.Float64Histogram

	// OAuth metrics
	oauthAuthTotal         metric.Int64Counter
	oauthTokenRefreshTotal metric.Int64Counter

	// CLI metrics
	commandInvocationsTotal metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.graphAPIOperationsTotal, err = meter.Int64Counter(
		"graph_api_operations_total",
		metric.WithDescription("Total number of Microsoft Graph API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph_api_operations_total counter: %w", err)
	}

	m.graphAPIOperationDuration, err = meter.Float64Histogram(
		"graph_api_operation_duration_seconds",
		metric.WithDescription("Microsoft Graph API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph_api_operation_duration_seconds histogram: %w", err)
	}

	m.oauthAuthTotal, err = meter.Int64Counter(
		"oauth_auth_total",
		metric.WithDescription("Total number of OAuth token acquisitions"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_auth_total counter: %w", err)
	}

	m.oauthTokenRefreshTotal, err = meter.Int64Counter(
		"oauth_token_refresh_total",
		metric.WithDescription("Total number of OAuth refresh token redemptions"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_token_refresh_total counter: %w", err)
	}

	m.commandInvocationsTotal, err = meter.Int64Counter(
		"cli_command_invocations_total",
		metric.WithDescription("Total number of CLI command invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cli_command_invocations_total counter: %w", err)
	}

	return m, nil
}

// RecordGraphAPIOperation records a Graph API call with operation, status and duration.
//
// Parameters:
//   - operation: Operation name (list_inbox, send_mail, move_message, ...)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the call
func (m *Metrics) RecordGraphAPIOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.graphAPIOperationsTotal == nil || m.graphAPIOperationDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.graphAPIOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.graphAPIOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordOAuthAuth records a token acquisition with the flow that produced it.
// Flow is "silent" or "interactive"; result is "success" or "failure".
func (m *Metrics) RecordOAuthAuth(ctx context.Context, flow, result string) {
	if m == nil || m.oauthAuthTotal == nil {
		return
	}

	m.oauthAuthTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrFlow, flow),
		attribute.String(attrResult, result),
	))
}

// RecordOAuthTokenRefresh records a refresh token redemption.
// Result should be one of: "success", "failure", "expired"
func (m *Metrics) RecordOAuthTokenRefresh(ctx context.Context, result string) {
	if m == nil || m.oauthTokenRefreshTotal == nil {
		return
	}

	m.oauthTokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrResult, result),
	))
}

// RecordCommand records a CLI command invocation.
func (m *Metrics) RecordCommand(ctx context.Context, command, status string) {
	if m == nil || m.commandInvocationsTotal == nil {
		return
	}

	m.commandInvocationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrCommand, command),
		attribute.String(attrStatus, status),
	))
}
