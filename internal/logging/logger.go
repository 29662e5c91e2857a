package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kingrea/planner/internal/config"
)

// Logger writes structured JSON lines to .planner/logs/planner.log so users
// can inspect failures after the viewer has exited.
type Logger struct {
	*zap.Logger
	path  string
	close func()
}

// New creates (or appends to) the log file for the project directory.
func New(projectDir, level string) (*Logger, error) {
	logDir := filepath.Join(projectDir, config.PlannerDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	path := filepath.Join(logDir, "planner.log")

	sink, closeSink, err := zap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, zap.NewAtomicLevelAt(lvl))
	zl := zap.New(core,
		zap.ErrorOutput(sink),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel))
	return &Logger{Logger: zl, path: path, close: closeSink}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Path returns the log file location, or "" for a Nop logger.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Zap returns the underlying logger, never nil.
func (l *Logger) Zap() *zap.Logger {
	if l == nil || l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

// Close flushes buffered entries and releases the log file. Later calls do
// nothing.
func (l *Logger) Close() error {
	if l == nil || l.Logger == nil {
		return nil
	}
	err := l.Logger.Sync()
	if l.close != nil {
		l.close()
		l.close = nil
		l.Logger = zap.NewNop()
	}
	return err
}
