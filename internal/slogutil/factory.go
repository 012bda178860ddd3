package slogutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"filoc/internal/config"
)

// LoggerFactory creates loggers for the CLI.
// It respects the configuration precedence: CLI flags > config file > defaults.
type LoggerFactory struct {
	config    *config.Config
	cliLevel  *slog.Level // nil when no CLI flag was given
	cliFormat string      // empty when no CLI flag was given
	closers   []io.Closer
}

// NewLoggerFactory creates a new logger factory.
func NewLoggerFactory(cfg *config.Config, cliLevel *slog.Level, cliFormat string) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &LoggerFactory{
		config:    cfg,
		cliLevel:  cliLevel,
		cliFormat: cliFormat,
	}
}

// Logger creates the process logger writing to w. When logging.file is
// configured, records are also appended to that file as JSON.
func (f *LoggerFactory) Logger(w io.Writer) (*slog.Logger, error) {
	level := f.EffectiveLevel()
	console := NewHandler(w, level, f.EffectiveFormat())

	if f.config.Logging.File == "" {
		return slog.New(console), nil
	}

	if err := os.MkdirAll(filepath.Dir(f.config.Logging.File), 0755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(f.config.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	f.closers = append(f.closers, file)

	// The file keeps everything at the configured level even when the console is quiet.
	fileLevel := LevelFromString(f.config.Logging.Level)
	if level < fileLevel {
		fileLevel = level
	}
	return slog.New(NewTeeHandler(console, NewHandler(file, fileLevel, FormatJSON))), nil
}

// EffectiveLevel returns the console log level.
func (f *LoggerFactory) EffectiveLevel() slog.Level {
	if f.cliLevel != nil {
		return *f.cliLevel
	}
	if f.config.Logging.Level != "" {
		return LevelFromString(f.config.Logging.Level)
	}
	return slog.LevelInfo
}

// EffectiveFormat returns the console log format.
func (f *LoggerFactory) EffectiveFormat() Format {
	if f.cliFormat != "" {
		return ParseFormat(f.cliFormat)
	}
	return ParseFormat(f.config.Logging.Format)
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
