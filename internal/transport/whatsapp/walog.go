package whatsapp

import (
	"fmt"

	waLog "go.mau.fi/whatsmeow/util/log"

	"carteira/internal/log"
)

// waLogger sends whatsmeow's printf-style logging through slog.
type waLogger struct {
	l *log.Logger
}

func newWALogger(l *log.Logger, module string) waLog.Logger {
	return waLogger{l: l.With("module", module)}
}

func (w waLogger) Errorf(msg string, args ...any) { w.l.Error(fmt.Sprintf(msg, args...)) }
func (w waLogger) Warnf(msg string, args ...any)  { w.l.Warn(fmt.Sprintf(msg, args...)) }
func (w waLogger) Infof(msg string, args ...any)  { w.l.Info(fmt.Sprintf(msg, args...)) }
func (w waLogger) Debugf(msg string, args ...any) { w.l.Debug(fmt.Sprintf(msg, args...)) }

func (w waLogger) Sub(module string) waLog.Logger {
	return waLogger{l: w.l.With("module", module)}
}
