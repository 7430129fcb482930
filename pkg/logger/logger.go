package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Printf adapts a slog.Logger to printf-style callbacks used by third-party
// libraries that only accept a format function.
func Printf(l *slog.Logger, level slog.Level, component string) func(string, ...any) {
	if l == nil {
		return func(string, ...any) {}
	}
	l = l.With("component", component)
	return func(format string, args ...any) {
		msg := strings.TrimSpace(fmt.Sprintf(format, args...))
		l.Log(context.Background(), level, msg)
	}
}
