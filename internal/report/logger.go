package report

import (
	"context"
	"log/slog"

	"github.com/san-kum/odesolve/internal/multistep"
	"golang.org/x/text/message"
)

// Logger is a multistep.Reporter that writes to a slog.Logger. Recoverable
// failures are logged at warn level, the rest at error level. Status
// reports go to debug.
type Logger struct {
	log     *slog.Logger
	printer *message.Printer
}

func NewLogger(log *slog.Logger, lang string) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{log: log, printer: Printer(lang)}
}

func (l *Logger) ReportError(kind multistep.Kind, ctx multistep.ErrorContext) {
	level := slog.LevelError
	if kind.Recoverable() {
		level = slog.LevelWarn
	}
	l.log.LogAttrs(context.Background(), level, Describe(l.printer, kind, ctx),
		slog.String("kind", kind.String()),
		slog.String("name", ctx.Name),
		slog.Float64("t", ctx.T),
		slog.Float64("h", ctx.H),
		slog.Int("q", ctx.Q),
		slog.Int("step", ctx.Step),
		slog.String("detail", ctx.Msg),
	)
}

func (l *Logger) ReportStatus(t float64) {
	l.log.LogAttrs(context.Background(), slog.LevelDebug, "step", slog.Float64("t", t))
}
