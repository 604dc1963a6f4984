// Package logger provides basic logging functionalities.
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger defines a simple interface for logging.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
}

// Config controls where log output goes. An empty File logs to the console only.
type Config struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	// NoConsole drops the stdout output, e.g. while a terminal UI owns the screen.
	NoConsole bool
}

// sugared adapts a zap SugaredLogger to Logger.
type sugared struct {
	s *zap.SugaredLogger
}

func (l *sugared) Debug(args ...interface{})                 { l.s.Debug(args...) }
func (l *sugared) Debugf(format string, args ...interface{}) { l.s.Debugf(format, args...) }
func (l *sugared) Info(args ...interface{})                  { l.s.Info(args...) }
func (l *sugared) Infof(format string, args ...interface{})  { l.s.Infof(format, args...) }
func (l *sugared) Warn(args ...interface{})                  { l.s.Warn(args...) }
func (l *sugared) Warnf(format string, args ...interface{})  { l.s.Warnf(format, args...) }
func (l *sugared) Error(args ...interface{})                 { l.s.Error(args...) }
func (l *sugared) Errorf(format string, args ...interface{}) { l.s.Errorf(format, args...) }
func (l *sugared) Fatal(args ...interface{})                 { l.s.Fatal(args...) }
func (l *sugared) Fatalf(format string, args ...interface{}) { l.s.Fatalf(format, args...) }

var (
	mu    sync.RWMutex
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	base  = zap.New(newCore(level, nil, false), zap.AddCaller())
	// std backs the package-level helpers; the extra caller skip points
	// the caller field at the code calling logger.Info rather than at this file.
	std Logger = &sugared{s: base.WithOptions(zap.AddCallerSkip(2)).Sugar()}
)

// ParseLevel maps "debug", "info", "warn", "error" and "fatal" to a zap level.
// Unknown values fall back to info.
func ParseLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func newCore(lvl zap.AtomicLevel, file *lumberjack.Logger, noConsole bool) zapcore.Core {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var cores []zapcore.Core
	if !noConsole {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), lvl))
	}
	if file != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), lvl))
	}
	return zapcore.NewTee(cores...)
}

// NewLogger creates a standalone Logger at the given level writing to stdout.
// logLevel could be "debug", "info", "warn", "error", "fatal".
func NewLogger(logLevel string) Logger {
	lvl := zap.NewAtomicLevelAt(ParseLevel(logLevel))
	z := zap.New(newCore(lvl, nil, false), zap.AddCaller(), zap.AddCallerSkip(1))
	return &sugared{s: z.Sugar()}
}

// Init reconfigures the global logger, adding a rotating log file when cfg.File is set.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	level.SetLevel(ParseLevel(cfg.Level))

	var file *lumberjack.Logger
	if cfg.File != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
	}
	base = zap.New(newCore(level, file, cfg.NoConsole), zap.AddCaller())
	std = &sugared{s: base.WithOptions(zap.AddCallerSkip(2)).Sugar()}
}

// SetGlobalLogLevel reconfigures the global std logger's level.
func SetGlobalLogLevel(logLevel string) {
	level.SetLevel(ParseLevel(logLevel))
}

// Zap returns the structured logger behind the global helpers, named for a component.
func Zap(name string) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.Named(name)
}

// Sync flushes buffered log entries.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sync()
}

func global() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

// Debug logs a debug message using the global std logger.
func Debug(args ...interface{}) {
	global().Debug(args...)
}

// Debugf logs a debug message with formatting.
func Debugf(format string, args ...interface{}) {
	global().Debugf(format, args...)
}

// Info logs an informational message using the global std logger.
func Info(args ...interface{}) {
	global().Info(args...)
}

// Infof logs an informational message with formatting.
func Infof(format string, args ...interface{}) {
	global().Infof(format, args...)
}

// Warn logs a warning.
func Warn(args ...interface{}) {
	global().Warn(args...)
}

// Warnf logs a warning with formatting.
func Warnf(format string, args ...interface{}) {
	global().Warnf(format, args...)
}

// Error logs an error message.
func Error(args ...interface{}) {
	global().Error(args...)
}

// Errorf logs an error message with formatting.
func Errorf(format string, args ...interface{}) {
	global().Errorf(format, args...)
}

// Fatal logs a fatal error message and exits.
func Fatal(args ...interface{}) {
	global().Fatal(args...)
}

// Fatalf logs a fatal error message with formatting and exits.
func Fatalf(format string, args ...interface{}) {
	global().Fatalf(format, args...)
}
