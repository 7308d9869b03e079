// Package observability wires the process-wide logging stack: plain slog
// handlers for terminals, or the OpenTelemetry log pipeline when an OTLP
// exporter is configured through the standard OTEL_* environment variables.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// scopeName identifies this module in exported log records.
const scopeName = "github.com/connectkit/gotoauth"

// shutdownFunc flushes the exporter pipeline, set when OTel export is active.
var shutdownFunc func(context.Context) error

// Instrument installs the default slog logger. Format selects between
// "text" and "json" stderr handlers. When OTEL_LOGS_EXPORTER is set to
// "otlp" or "console", log records are instead routed through the
// OpenTelemetry SDK with a minimum-severity filter matching level.
func Instrument(level slog.Level, format string) error {
	if exporterName := strings.ToLower(os.Getenv("OTEL_LOGS_EXPORTER")); exporterName != "" && exporterName != "none" {
		return instrumentOTel(level, exporterName)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// instrumentOTel builds the OTel log pipeline: exporter → batch processor
// → severity filter → provider → slog bridge.
func instrumentOTel(level slog.Level, exporterName string) error {
	ctx := context.Background()

	var (
		exporter sdklog.Exporter
		err      error
	)
	switch exporterName {
	case "console":
		exporter, err = stdoutlog.New()
	case "otlp":
		// Endpoint, headers, and TLS come from the standard OTEL_EXPORTER_OTLP_* variables
		if strings.HasPrefix(strings.ToLower(os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL")), "grpc") {
			exporter, err = otlploggrpc.New(ctx)
		} else {
			exporter, err = otlploghttp.New(ctx)
		}
	default:
		return fmt.Errorf("unsupported OTEL_LOGS_EXPORTER value: %s", exporterName)
	}
	if err != nil {
		return fmt.Errorf("failed to create log exporter: %w", err)
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(
			minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severity(level)),
		),
	)
	shutdownFunc = provider.Shutdown

	slog.SetDefault(otelslog.NewLogger(scopeName, otelslog.WithLoggerProvider(provider)))
	return nil
}

// Shutdown flushes any pending log records. Safe to call when no OTel
// pipeline is active.
func Shutdown(ctx context.Context) error {
	if shutdownFunc == nil {
		return nil
	}
	return shutdownFunc(ctx)
}

// severity maps an slog level onto the minimum OTel severity to export.
func severity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
