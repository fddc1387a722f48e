package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Error(action, message, requestID string, details map[string]interface{}, err error)
}

type zapLogger struct {
	l *zap.Logger
}

// New builds a JSON logger on stdout tagged with the service name and host.
// LOG_LEVEL=debug enables debug entries.
func New(service string) Logger {
	return build(service, "stdout")
}

// NewStderr is New writing to stderr, for modes that own stdout.
func NewStderr(service string) Logger {
	return build(service, "stderr")
}

func build(service, output string) Logger {
	hostname, _ := os.Hostname()

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{output}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig = encoderConfig()
	cfg.DisableStacktrace = true
	if os.Getenv("LOG_LEVEL") == "debug" {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.InitialFields = map[string]interface{}{
		KeyService:  service,
		KeyHostname: hostname,
	}

	l, err := cfg.Build()
	if err != nil {
		l = zap.NewExample()
	}
	return &zapLogger{l: l}
}

// FromZap wraps an existing zap logger.
func FromZap(l *zap.Logger) Logger {
	return &zapLogger{l: l}
}

// NewNop returns a logger that drops everything.
func NewNop() Logger {
	return &zapLogger{l: zap.NewNop()}
}

// Sync flushes buffered entries of loggers created by this package.
func Sync(l Logger) error {
	if z, ok := l.(*zapLogger); ok {
		return z.l.Sync()
	}
	return nil
}

func (z *zapLogger) Info(action, message, requestID string, details map[string]interface{}) {
	z.l.Info(message, fields(action, requestID, details, nil)...)
}

func (z *zapLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	z.l.Debug(message, fields(action, requestID, details, nil)...)
}

func (z *zapLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	z.l.Error(message, fields(action, requestID, details, err)...)
}

func fields(action, requestID string, details map[string]interface{}, err error) []zap.Field {
	out := make([]zap.Field, 0, 4)
	out = append(out, zap.String(KeyAction, action))
	if requestID != "" {
		out = append(out, zap.String(KeyRequestID, requestID))
	}
	if len(details) > 0 {
		out = append(out, zap.Any(KeyDetails, details))
	}
	if err != nil {
		out = append(out, zap.Error(err))
	}
	return out
}

func encoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = KeyTimestamp
	ec.MessageKey = KeyMessage
	ec.LevelKey = KeyLevel
	ec.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	return ec
}
