// Package logging provides structured logging utilities for graphmail.
//
// All output meant for the user goes to stdout through the commands; log
// records go to stderr through slog. The helpers here keep attribute names
// consistent across the auth, graph and cmd packages.
//
// # Usage Patterns
//
//	logger := logging.WithOperation(slog.Default(), "graph.send_mail")
//	logger.Info("message sent", logging.Status(logging.StatusSuccess))
//
// # Security Considerations
//
//   - Tokens are never logged directly, only SanitizeToken output
//   - Mailbox owners are logged as UserHash values
package logging
