package observe

import (
	"encoding/json"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

const (
	_sentryMaxErrorDepth int           = 9
	_sentryTimeout       time.Duration = 5 * time.Second
	_logTimestampLayout                = "2006-01-02T15:04:05.000Z0700"
)

// SentryHook is an io.Writer log sink that forwards error-level records to
// Sentry. Attach it as an extra writer of the zap logger.
type SentryHook struct {
	appZone string
	appName string
}

func NewSentryHook(appZone, appName, dsn string, isDebug bool) *SentryHook {
	if dsn == "" {
		log.Println("sentry init skipped: no DSN")
		return &SentryHook{appZone: appZone, appName: appName}
	}

	transport := sentry.NewHTTPTransport()
	transport.Timeout = _sentryTimeout
	if err := sentry.Init(sentry.ClientOptions{
		AttachStacktrace: true,
		Debug:            isDebug,
		Dsn:              dsn,
		Environment:      appZone,
		MaxErrorDepth:    _sentryMaxErrorDepth,
		ServerName:       appName,
		Transport:        transport,
	}); err != nil {
		log.Println("sentry init error:", err.Error())
	}

	return &SentryHook{
		appZone: appZone,
		appName: appName,
	}
}

type logRecord struct {
	Level      string `json:"level"`
	AppName    string `json:"app_name"`
	AppZone    string `json:"app_zone"`
	CallerFile string `json:"caller_file"`
	CallerLine int    `json:"caller_line"`
	CallerFunc string `json:"caller_func"`
	Stack      string `json:"stack"`
	Message    string `json:"msg"`
	Error      string `json:"error"`
	Timestamp  string `json:"timestamp"`
}

func (h *SentryHook) Write(p []byte) (int, error) {
	var rec logRecord
	if err := json.Unmarshal(p, &rec); err != nil {
		log.Println(errors.Wrap(err, "sentry hook: decode log record").Error())
		return len(p), nil
	}

	level, err := zapcore.ParseLevel(rec.Level)
	if err != nil || rec.Message == "" {
		return len(p), nil
	}

	switch level {
	case zapcore.ErrorLevel, zapcore.FatalLevel, zapcore.PanicLevel:
		timestamp, _ := time.Parse(_logTimestampLayout, rec.Timestamp)

		event := sentry.NewEvent()
		event.Environment = h.appZone
		event.Level = mapLevel(level)
		event.Timestamp = timestamp
		event.Message = rec.Message
		event.Extra["AppName"] = h.appName
		event.Extra["Error"] = rec.Error
		event.Extra["CallerFile"] = rec.CallerFile
		event.Extra["CallerLine"] = rec.CallerLine
		event.Extra["CallerFunc"] = rec.CallerFunc
		event.Extra["Stack"] = rec.Stack
		event.Exception = append(event.Exception, sentry.Exception{
			Type:       rec.Message,
			Value:      rec.Error,
			Stacktrace: sentry.NewStacktrace(),
		})
		sentry.CaptureEvent(event)
	}

	return len(p), nil
}

func mapLevel(zl zapcore.Level) sentry.Level {
	switch zl {
	case zapcore.DebugLevel, zapcore.InvalidLevel:
		return sentry.LevelDebug
	case zapcore.InfoLevel:
		return sentry.LevelInfo
	case zapcore.WarnLevel:
		return sentry.LevelWarning
	case zapcore.ErrorLevel:
		return sentry.LevelError
	case zapcore.FatalLevel, zapcore.PanicLevel:
		return sentry.LevelFatal
	}
	return sentry.LevelDebug
}
