package infra

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pixvault/pix-image-service/config"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// LoggerClient is the service-wide structured logger. When telemetry is
// configured, records are shipped through the OTel slog bridge; otherwise
// they go to stdout as JSON.
type LoggerClient struct {
	logger *slog.Logger
}

func InitLoggerClient(cfg *config.EnvConfig, telemetry *TelemetryClient) *LoggerClient {
	if telemetry != nil {
		return &LoggerClient{
			logger: otelslog.NewLogger(cfg.Grafana.ServiceName,
				otelslog.WithLoggerProvider(telemetry.LoggerProvider)),
		}
	}
	return &LoggerClient{
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
}

// NewLoggerClient wraps an existing slog.Logger; used by tests and tools.
func NewLoggerClient(logger *slog.Logger) *LoggerClient {
	return &LoggerClient{logger: logger}
}

func (l *LoggerClient) InfoWithContextf(ctx context.Context, format string, args ...interface{}) {
	l.logger.InfoContext(ctx, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) WarningWithContextf(ctx context.Context, format string, args ...interface{}) {
	l.logger.WarnContext(ctx, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) ErrorWithContextf(ctx context.Context, err error, format string, args ...interface{}) {
	if err != nil {
		l.logger.ErrorContext(ctx, fmt.Sprintf(format, args...), slog.Any("error", err))
		return
	}
	l.logger.ErrorContext(ctx, fmt.Sprintf(format, args...))
}
