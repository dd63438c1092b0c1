package nlog

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// BasicLogger is the logging interface used throughout nctl.  The
// registry, the router, and nserve all take one as an option
// rather than reaching for a package-level logger.
type BasicLogger interface {
	Debug(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
}

// StdLogger is implemented by the base library log.Logger
type StdLogger interface {
	Print(v ...interface{})
}

type wrappedStdLogger struct {
	log StdLogger
}

var _ BasicLogger = wrappedStdLogger{}

// FromStd wraps a log.Logger (or anything with Print) as a BasicLogger.
// Fields are rendered as sorted key=value pairs after the message.
func FromStd(log StdLogger) BasicLogger {
	return wrappedStdLogger{log: log}
}

func (std wrappedStdLogger) print(level string, msg string, fields []map[string]interface{}) {
	if len(fields) == 0 {
		std.log.Print(level + " " + msg)
		return
	}
	var kv []string
	for _, m := range fields {
		for k, v := range m {
			kv = append(kv, k+"="+fmt.Sprint(v))
		}
	}
	sort.Strings(kv)
	std.log.Print(level + " " + msg + " " + strings.Join(kv, " "))
}

func (std wrappedStdLogger) Error(msg string, fields ...map[string]interface{}) {
	std.print("ERROR", msg, fields)
}

func (std wrappedStdLogger) Warn(msg string, fields ...map[string]interface{}) {
	std.print("WARN", msg, fields)
}

func (std wrappedStdLogger) Debug(msg string, fields ...map[string]interface{}) {
	std.print("DEBUG", msg, fields)
}

// NoLogger returns a BasicLogger that discards all inputs
func NoLogger() BasicLogger {
	return nilLogger{}
}

type nilLogger struct{}

var _ BasicLogger = nilLogger{}

func (nilLogger) Error(msg string, fields ...map[string]interface{}) {}
func (nilLogger) Warn(msg string, fields ...map[string]interface{})  {}
func (nilLogger) Debug(msg string, fields ...map[string]interface{}) {}

type zapLogger struct {
	log *zap.Logger
}

var _ BasicLogger = zapLogger{}

// FromZap adapts a *zap.Logger.  A nil logger becomes NoLogger.
func FromZap(log *zap.Logger) BasicLogger {
	if log == nil {
		return NoLogger()
	}
	return zapLogger{log: log.WithOptions(zap.AddCallerSkip(1))}
}

func zapFields(fields []map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	var zf []zap.Field
	for _, m := range fields {
		for k, v := range m {
			zf = append(zf, zap.Any(k, v))
		}
	}
	return zf
}

func (z zapLogger) Debug(msg string, fields ...map[string]interface{}) {
	z.log.Debug(msg, zapFields(fields)...)
}

func (z zapLogger) Warn(msg string, fields ...map[string]interface{}) {
	z.log.Warn(msg, zapFields(fields)...)
}

func (z zapLogger) Error(msg string, fields ...map[string]interface{}) {
	z.log.Error(msg, zapFields(fields)...)
}

// Zap returns the underlying *zap.Logger if log was created by FromZap
// or NewZap.
func Zap(log BasicLogger) (*zap.Logger, bool) {
	if z, ok := log.(zapLogger); ok {
		return z.log, true
	}
	return nil, false
}

// ParseLevel maps "debug", "info", "warn", and "error" to zap levels.
// Anything else is info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewZap creates a JSON zap logger writing to stdout at the given level.
func NewZap(level string) (BasicLogger, error) {
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(ParseLevel(level)),
		Encoding:         "json",
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
	}
	log, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, err
	}
	return FromZap(log), nil
}
