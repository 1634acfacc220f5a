package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"trashshred/internal/config"
)

// EnterpriseLogger is a levelled key/value logger. The console only receives
// errors unless verbose output was requested; the optional log file receives
// everything at or above the configured level as JSON.
type EnterpriseLogger struct {
	zl    *zap.Logger
	sugar *zap.SugaredLogger
	file  *os.File
}

func NewEnterpriseLogger(cfg *config.Config, verbose bool) (*EnterpriseLogger, error) {
	level, err := ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	consoleLevel := zapcore.ErrorLevel
	if verbose {
		consoleLevel = level
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), consoleLevel),
	}

	l := &EnterpriseLogger{}

	if cfg.Logging.File != "" {
		logDir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] cannot create log directory %s: %v\n", logDir, err)
		} else if f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] cannot open log file %s: %v\n", cfg.Logging.File, err)
		} else {
			l.file = f
			cores = append(cores, zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(f),
				level,
			))
		}
	}

	l.zl = zap.New(zapcore.NewTee(cores...))
	l.sugar = l.zl.Sugar()
	return l, nil
}

// New wraps an existing zap logger, e.g. zaptest.NewLogger in tests.
func New(zl *zap.Logger) *EnterpriseLogger {
	return &EnterpriseLogger{zl: zl, sugar: zl.Sugar()}
}

// NewNop returns a logger that discards everything.
func NewNop() *EnterpriseLogger {
	return New(zap.NewNop())
}

// ParseLevel maps DEBUG/INFO/WARN/ERROR/FATAL onto zap levels.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel, nil
	case "INFO", "":
		return zapcore.InfoLevel, nil
	case "WARN", "WARNING":
		return zapcore.WarnLevel, nil
	case "ERROR", "FATAL":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}

func (l *EnterpriseLogger) Log(level, message string, fields ...interface{}) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		l.sugar.Debugw(message, fields...)
	case "WARN", "WARNING":
		l.sugar.Warnw(message, fields...)
	case "ERROR", "FATAL":
		l.sugar.Errorw(message, fields...)
	default:
		l.sugar.Infow(message, fields...)
	}
}

// Named returns a child logger scoped to a component.
func (l *EnterpriseLogger) Named(name string) *EnterpriseLogger {
	return &EnterpriseLogger{zl: l.zl.Named(name), sugar: l.sugar.Named(name), file: l.file}
}

// Zap exposes the underlying logger.
func (l *EnterpriseLogger) Zap() *zap.Logger {
	return l.zl
}

// Sync flushes buffered entries.
func (l *EnterpriseLogger) Sync() error {
	return l.zl.Sync()
}

func (l *EnterpriseLogger) Close() error {
	_ = l.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
