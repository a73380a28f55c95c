// Package logging provides structured logging using zap
package logging

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger *zap.Logger
	sugar  *zap.SugaredLogger
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Config holds logging configuration
type Config struct {
	Level       string // debug, info, warn, error
	Development bool
	JSON        bool
}

// DefaultConfig returns console logging at info level
func DefaultConfig() Config {
	return Config{Level: "info"}
}

// Init (re)builds the global logger. Later calls replace the logger so the
// CLI can apply config-file settings after flag parsing.
func Init(cfg Config) error {
	built, err := build(cfg)
	if err != nil {
		return err
	}

	mu.Lock()
	old := logger
	logger = built
	sugar = built.Sugar()
	mu.Unlock()

	if old != nil {
		_ = old.Sync()
	}
	return nil
}

func build(cfg Config) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
		lvl = zapcore.InfoLevel
	}
	level.SetLevel(lvl)

	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.Sampling = nil
		if !cfg.JSON {
			zapCfg.Encoding = "console"
			zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
			zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
	}
	zapCfg.Level = level

	return zapCfg.Build(zap.AddCallerSkip(1))
}

// SetLevel changes the level of the running logger
func SetLevel(name string) {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(strings.ToLower(name))); err == nil {
		level.SetLevel(lvl)
	}
}

// InitDefault initializes with default configuration if nothing was set up yet
func InitDefault() {
	mu.RLock()
	ready := logger != nil
	mu.RUnlock()
	if !ready {
		_ = Init(DefaultConfig())
	}
}

// L returns the global logger
func L() *zap.Logger {
	InitDefault()
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// S returns the global sugared logger
func S() *zap.SugaredLogger {
	InitDefault()
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Named returns a component logger. Callers that receive a nil *zap.Logger
// through options use OrNop instead.
func Named(component string) *zap.Logger {
	return L().WithOptions(zap.AddCallerSkip(-1)).Named(component)
}

// OrNop returns l, or a no-op logger when l is nil
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// Sync flushes any buffered log entries
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if logger != nil {
		return logger.Sync()
	}
	return nil
}

// --- Convenience functions ---

func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field) { L().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field) { L().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }

// Infof logs a formatted info message
func Infof(template string, args ...interface{}) {
	S().Infof(template, args...)
}

// Warnf logs a formatted warning message
func Warnf(template string, args ...interface{}) {
	S().Warnf(template, args...)
}

// Debugf logs a formatted debug message
func Debugf(template string, args ...interface{}) {
	S().Debugf(template, args...)
}

// --- Field constructors ---

func String(key, val string) zap.Field { return zap.String(key, val) }
func Int(key string, val int) zap.Field { return zap.Int(key, val) }
func Int64(key string, val int64) zap.Field { return zap.Int64(key, val) }
func Bool(key string, val bool) zap.Field { return zap.Bool(key, val) }
func Float64(key string, val float64) zap.Field { return zap.Float64(key, val) }
func Err(err error) zap.Field { return zap.Error(err) }
func Any(key string, val interface{}) zap.Field { return zap.Any(key, val) }
func Duration(key string, d time.Duration) zap.Field { return zap.Duration(key, d) }

// WriterAdapter routes http.Server.ErrorLog output into zap
type WriterAdapter struct{}

func (WriterAdapter) Write(p []byte) (int, error) {
	Error(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
