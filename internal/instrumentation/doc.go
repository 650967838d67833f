// Package instrumentation provides OpenTelemetry metrics and tracing for graphmail.
//
// Instrumentation is opt-in for the CLI. When enabled, every Microsoft Graph
// call gets a client span and a duration sample, and every token acquisition
// is counted by flow and result.
//
// # Metrics
//
//   - graph_api_operations_total: Graph calls by operation and status
//   - graph_api_operation_duration_seconds: Graph call durations
//   - oauth_auth_total: token acquisitions by flow (silent, interactive) and result
//   - oauth_token_refresh_total: refresh token redemptions by result
//   - cli_command_invocations_total: commands by name and status
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: Enable instrumentation (default: false)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: otlp)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 1.0)
//   - OTEL_SERVICE_NAME: Service name (default: graphmail)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordGraphAPIOperation(ctx, "send_mail", "success", time.Since(start))
package instrumentation
