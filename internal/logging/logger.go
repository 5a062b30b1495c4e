// Package logging provides structured, level-filtered logging for tagbus,
// backed by go.uber.org/zap.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the available log levels.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Config holds logging configuration.
type Config struct {
	Level LogLevel
	// Format selects the zap encoder: "text" (console, default) or "json".
	Format string
	Output io.Writer
	// Sync forces a flush after every log call. Tests that assert on a
	// bytes.Buffer immediately after logging should set this.
	Sync bool
	// NoColor disables ANSI level coloring in the console encoder.
	NoColor bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Format: "text",
		Output: os.Stderr,
	}
}

// Logger wraps a zap.SugaredLogger with tagbus's level-filtered,
// key=value-argument API and chainable With* context builders.
type Logger struct {
	sugar  *zap.SugaredLogger
	fields []any
	sync   bool
}

// NewLogger creates a new logger from config. A nil config uses DefaultConfig.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	output := config.Output
	if output == nil {
		output = os.Stderr
	}
	format := config.Format
	if format == "" {
		format = "text"
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if config.NoColor {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var encoder zapcore.Encoder
	if format == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(output), config.Level.zapLevel())
	return &Logger{sugar: zap.New(core).Sugar(), sync: config.Sync}
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// Default returns the default logger, creating it if necessary.
func Default() *Logger {
	mu.RLock()
	if defaultLogger != nil {
		defer mu.RUnlock()
		return defaultLogger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

// formatArgs renders key-value pairs as a " key=value key2=value2" suffix.
func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%v=%v", args[i], args[i+1])
	}
	if b.Len() == 0 {
		return ""
	}
	return " " + b.String()
}

func (l *Logger) withChild(kv ...any) *Logger {
	fields := make([]any, 0, len(l.fields)+len(kv))
	fields = append(fields, l.fields...)
	fields = append(fields, kv...)
	return &Logger{sugar: l.sugar, fields: fields, sync: l.sync}
}

// WithTag returns a child logger annotated with the tag descriptor.
func (l *Logger) WithTag(desc int32) *Logger {
	return l.withChild("desc", desc)
}

// WithLevel returns a child logger annotated with the level number.
func (l *Logger) WithLevel(level int32) *Logger {
	return l.withChild("level", level)
}

// WithOp returns a child logger annotated with a tag descriptor and the
// facade operation being performed on it.
func (l *Logger) WithOp(desc int32, op string) *Logger {
	return l.withChild("desc", desc, "op", op)
}

// WithError returns a child logger annotated with an error value.
func (l *Logger) WithError(err error) *Logger {
	return l.withChild("error", err)
}

func (l *Logger) message(msg string, args []any) string {
	all := make([]any, 0, len(l.fields)+len(args))
	all = append(all, l.fields...)
	all = append(all, args...)
	return msg + formatArgs(all)
}

func (l *Logger) flush() {
	if l.sync {
		_ = l.sugar.Sync()
	}
}

func (l *Logger) Debug(msg string, args ...any) {
	l.sugar.Debug(l.message(msg, args))
	l.flush()
}

func (l *Logger) Info(msg string, args ...any) {
	l.sugar.Info(l.message(msg, args))
	l.flush()
}

func (l *Logger) Warn(msg string, args ...any) {
	l.sugar.Warn(l.message(msg, args))
	l.flush()
}

func (l *Logger) Error(msg string, args ...any) {
	l.sugar.Error(l.message(msg, args))
	l.flush()
}

func (l *Logger) Debugf(format string, args ...any) {
	l.Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

// Printf satisfies interfaces.Logger for call sites that only need an info line.
func (l *Logger) Printf(format string, args ...any) {
	l.Infof(format, args...)
}

// Global convenience functions operating on the default logger.

func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }
