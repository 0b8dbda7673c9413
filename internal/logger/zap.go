package logger

import (
	"go.uber.org/zap"
)

// zapLogger implementation of Logger interface based on zap sugared logger
// args are loosely typed key-value pairs the same way as for slog
type zapLogger struct {
	logger *zap.SugaredLogger
	group  string
}

func (l *zapLogger) Debug(msg string, args ...any) {
	l.logger.Debugw(msg, l.grouped(args)...)
}

func (l *zapLogger) Info(msg string, args ...any) {
	l.logger.Infow(msg, l.grouped(args)...)
}

func (l *zapLogger) Warn(msg string, args ...any) {
	l.logger.Warnw(msg, l.grouped(args)...)
}

func (l *zapLogger) Error(msg string, args ...any) {
	l.logger.Errorw(msg, l.grouped(args)...)
}

// With returns a logger with additional key-value pairs
func (l *zapLogger) With(args ...any) Logger {
	return &zapLogger{logger: l.logger.With(l.grouped(args)...), group: l.group}
}

// WithGroup returns a logger with keys prefixed by the group name
func (l *zapLogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	if l.group != "" {
		name = l.group + "." + name
	}
	return &zapLogger{logger: l.logger, group: name}
}

func (l *zapLogger) grouped(args []any) []any {
	if l.group == "" || len(args) == 0 {
		return args
	}

	out := make([]any, len(args))
	copy(out, args)
	for i := 0; i < len(out)-1; i += 2 {
		if key, ok := out[i].(string); ok {
			out[i] = l.group + "." + key
		}
	}
	return out
}
