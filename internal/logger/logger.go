// Package logger wraps logrus as a package-level singleton, with a text
// formatter that includes file:line caller info and a multi-writer that
// tees to stdout and a log file.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

type Config struct {
	Level   string
	LogFile string
	LogDir  string
}

func DefaultConfig() *Config {
	return &Config{
		Level: "info",
	}
}

// Init configures the package-level logger. A nil cfg or empty LogFile
// logs to stdout only, used by tests and one-shot CLI invocations that
// shouldn't scatter log files around the filesystem.
func Init(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	Log = logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			filename := filepath.Base(f.File)
			return "", fmt.Sprintf("%s:%d %s()", filename, f.Line, f.Function)
		},
	})
	Log.SetReportCaller(true)

	writers := []io.Writer{os.Stdout}

	if cfg.LogFile != "" {
		if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
			return fmt.Errorf("creating log directory %s: %w", cfg.LogDir, err)
		}

		logFilePath := filepath.Join(cfg.LogDir, cfg.LogFile)
		logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("opening log file %s: %w", logFilePath, err)
		}

		writers = append(writers, logFile)
	}

	Log.SetOutput(io.MultiWriter(writers...))
	Log.WithFields(logrus.Fields{
		"level":   cfg.Level,
		"logFile": cfg.LogFile,
		"logDir":  cfg.LogDir,
	}).Debug("logger initialized")

	return nil
}

func GetLogger() *logrus.Logger {
	if Log == nil {
		Init(DefaultConfig())
	}
	return Log
}

func Debug(args ...any) {
	GetLogger().Debug(args...)
}

func Debugf(format string, args ...any) {
	GetLogger().Debugf(format, args...)
}

func Info(args ...any) {
	GetLogger().Info(args...)
}

func Infof(format string, args ...any) {
	GetLogger().Infof(format, args...)
}

func Warn(args ...any) {
	GetLogger().Warn(args...)
}

func Warnf(format string, args ...any) {
	GetLogger().Warnf(format, args...)
}

func Error(args ...any) {
	GetLogger().Error(args...)
}

func Errorf(format string, args ...any) {
	GetLogger().Errorf(format, args...)
}

func Fatal(args ...any) {
	GetLogger().Fatal(args...)
}

func Fatalf(format string, args ...any) {
	GetLogger().Fatalf(format, args...)
}

func WithField(key string, value any) *logrus.Entry {
	return GetLogger().WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return GetLogger().WithFields(fields)
}

func WithError(err error) *logrus.Entry {
	return GetLogger().WithError(err)
}
