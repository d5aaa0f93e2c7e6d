package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Level       string
	ServiceName string
	Development bool
}

// Logger wraps zap.Logger with a small convenience surface
type Logger struct {
	zl *zap.Logger
}

var (
	mu     sync.RWMutex
	global *Logger
)

// Init initializes the global logger. Must be called once at process start.
func Init(cfg *Config) error {
	if cfg == nil {
		cfg = &Config{Level: "info", ServiceName: "eventnest"}
	}

	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if lvl, err := zapcore.ParseLevel(cfg.Level); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	zl, err := zapCfg.Build(
		zap.AddCallerSkip(1),
		zap.Fields(zap.String("service", cfg.ServiceName)),
	)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	global = &Logger{zl: zl}
	mu.Unlock()
	return nil
}

// Get returns the global logger, initializing a default one if needed
func Get() *Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		zl, _ := zap.NewProduction(zap.AddCallerSkip(1))
		global = &Logger{zl: zl}
	}
	return global
}

// Sync flushes buffered log entries
func Sync() {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		_ = l.zl.Sync()
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) { l.zl.Debug(msg) }

// Info logs an info message
func (l *Logger) Info(msg string) { l.zl.Info(msg) }

// Warn logs a warning message
func (l *Logger) Warn(msg string) { l.zl.Warn(msg) }

// Error logs an error message
func (l *Logger) Error(msg string) { l.zl.Error(msg) }

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string) { l.zl.Fatal(msg) }

// With returns a logger with extra structured fields
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zl: l.zl.With(fields...)}
}

// Zap returns the underlying zap.Logger
func (l *Logger) Zap() *zap.Logger { return l.zl }
