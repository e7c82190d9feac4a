package logger

import (
	"io"
	"os"
	"runtime"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap with the service's logging conventions: JSON output,
// caller metadata, and free-form field maps.
type Logger struct {
	appZone string
	appName string
	l       *zap.Logger
}

// NewZapLogger builds a JSON logger writing to the given sinks (stdout when
// none are passed).
func NewZapLogger(appName, appZone string, writers ...io.Writer) *Logger {
	var sinks []zapcore.WriteSyncer

	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if len(writers) == 0 {
		sinks = append(sinks, os.Stdout)
	} else {
		for _, w := range writers {
			sinks = append(sinks, zapcore.AddSync(w))
		}
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg),
		zapcore.NewMultiWriteSyncer(sinks...),
		zapcore.DebugLevel,
	)

	return &Logger{
		appZone: appZone,
		appName: appName,
		l:       zap.New(core),
	}
}

func (l *Logger) Stop() error {
	return l.l.Sync()
}

func (l *Logger) Error(err error, fields ...map[string]any) {
	file, line, funcName := getRuntimeParams(2)
	l.l.WithOptions(zap.Fields(collectFields(fields)...)).Error(
		err.Error(),
		zap.String("app_zone", l.appZone),
		zap.String("app_name", l.appName),
		zap.String("error", err.Error()),
		zap.String("caller_file", file),
		zap.Int("caller_line", line),
		zap.String("caller_func", funcName),
		zap.Stack("stack"),
	)
}

func (l *Logger) Info(msg string, fields ...map[string]any) {
	l.log(zapcore.InfoLevel, msg, fields)
}

func (l *Logger) Warning(msg string, fields ...map[string]any) {
	l.log(zapcore.WarnLevel, msg, fields)
}

func (l *Logger) Debug(msg string, fields ...map[string]any) {
	l.log(zapcore.DebugLevel, msg, fields)
}

func (l *Logger) Fatal(msg string, fields ...map[string]any) {
	l.log(zapcore.FatalLevel, msg, fields)
}

func (l *Logger) log(level zapcore.Level, msg string, fields []map[string]any) {
	file, line, funcName := getRuntimeParams(3)
	l.l.WithOptions(zap.Fields(collectFields(fields)...)).Log(
		level,
		msg,
		zap.String("app_zone", l.appZone),
		zap.String("app_name", l.appName),
		zap.String("caller_file", file),
		zap.Int("caller_line", line),
		zap.String("caller_func", funcName),
	)
}

func collectFields(fields []map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	zapFields := make([]zap.Field, 0, len(fields[0]))
	for k, v := range fields[0] {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return zapFields
}

func getRuntimeParams(skip int) (file string, line int, funcName string) {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "not_defined", 0, "not_defined"
	}
	return file, line, runtime.FuncForPC(pc).Name()
}
