// Package logger provides structured logging functionality for the application.
//
// It configures a log/slog JSON handler at the level named in the server
// configuration and carries request-scoped loggers (tagged with the request's
// trace ID) through context.Context.
package logger
