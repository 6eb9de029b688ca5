package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Log is the global logger instance
var Log *slog.Logger

// Init initializes the global logger based on environment
// Development: Text format with Debug level
// Production: JSON format with Info level
// Optionally sends errors to Sentry for error tracking
func Init(isDev bool, sentryDSN string) {
	var extra []slog.Handler

	// Optional Sentry handler (sends errors only)
	if sentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              sentryDSN,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			extra = append(extra, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		}
	}

	Log = New(os.Stdout, isDev, extra...)
	slog.SetDefault(Log)
}

// New builds the stdout handler for the environment and fans out to any
// extra handlers.
func New(w io.Writer, isDev bool, extra ...slog.Handler) *slog.Logger {
	var base slog.Handler
	if isDev {
		base = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		base = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	if len(extra) == 0 {
		return slog.New(base)
	}

	handlers := append([]slog.Handler{base}, extra...)
	return slog.New(slogmulti.Fanout(handlers...))
}
