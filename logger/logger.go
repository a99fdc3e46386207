package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It discards everything until Init runs,
// so packages can log from tests without setup.
var Log *zap.SugaredLogger = zap.NewNop().Sugar()

// Init builds the production logger at the given level ("debug", "info",
// "warn", "error"). An empty or unknown level falls back to info.
func Init(level string) {
	cfg := zap.NewProductionConfig()
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			lvl = zapcore.InfoLevel
		}
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Log.Sync()
}
