package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.Mutex
	root *zap.Logger
)

// Init builds the process-wide root logger. level is one of
// debug/info/warn/error; format is "json" or "console". Safe to call
// more than once; the last call wins.
func Init(level, format string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	var encoder zapcore.Encoder
	if format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), lvl)

	mu.Lock()
	root = zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
	mu.Unlock()
	return nil
}

// New returns a sugared logger tagged with a component name. Components
// created before Init pick up a development logger so tests log sanely
// without any setup.
func New(component string) *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		root, _ = zap.NewDevelopment()
	}
	return root.Named(component).Sugar()
}

// Sync flushes buffered log entries; call on shutdown.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if root != nil {
		_ = root.Sync()
	}
}
