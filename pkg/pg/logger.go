package pg

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pressly/goose/v3"
)

// gooseLogger routes goose output through slog instead of stdout.
type gooseLogger struct {
	log *slog.Logger
}

func newGooseLogger(log *slog.Logger) goose.Logger {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &gooseLogger{log: log.With(slog.String("component", "migrations"))}
}

func (l *gooseLogger) Fatalf(format string, v ...any) {
	l.log.ErrorContext(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *gooseLogger) Printf(format string, v ...any) {
	l.log.InfoContext(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}
