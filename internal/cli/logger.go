package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrz1836/taskflow/internal/config"
	"github.com/mrz1836/taskflow/internal/logging"
)

// Rotation settings of the CLI log file.
const (
	logMaxSizeMB   = 10
	logMaxBackups  = 3
	logMaxAgeDays  = 30
	logCompress    = true
	logDirPerm     = 0o750
	homeEnvVarName = "TASKFLOW_HOME"
)

// logFileWriter holds the log file writer for cleanup during shutdown.
var (
	logFileWriter   io.WriteCloser //nolint:gochecknoglobals // Needed for cleanup
	logFileWriterMu sync.Mutex     //nolint:gochecknoglobals // Protects logFileWriter
)

// zerologGlobalMu protects writes to the zerolog global logger.
// It is separate from globalLoggerMu to avoid deadlocks.
var zerologGlobalMu sync.Mutex //nolint:gochecknoglobals // Protects zerolog global

// InitLogger creates a zerolog.Logger based on verbosity flags and the log
// config.
//
// Log levels are set as follows:
//   - verbose=true: Debug level (most detailed)
//   - quiet=true: Warn level (errors and warnings only)
//   - default: cfg.Level, or Info when it does not parse
//
// Output goes to stderr: a console writer on a TTY without NO_COLOR, JSON
// otherwise. With cfg.FileEnabled the logger also writes JSON to
// ~/.taskflow/logs/taskflow.log with rotation, filtered for secrets. A log
// file that cannot be created is skipped.
func InitLogger(verbose, quiet bool, cfg config.LogConfig) zerolog.Logger {
	var writer io.Writer = selectOutput()

	if cfg.FileEnabled {
		if fw, err := createLogFileWriter(); err == nil {
			logFileWriterMu.Lock()
			logFileWriter = fw
			logFileWriterMu.Unlock()
			writer = zerolog.MultiLevelWriter(writer, fw)
		}
	}

	return buildLogger(selectLevel(verbose, quiet, cfg.Level), writer)
}

// InitLoggerWithWriter creates a logger writing to w.
// This is primarily intended for testing purposes.
func InitLoggerWithWriter(verbose, quiet bool, w io.Writer) zerolog.Logger {
	return buildLogger(selectLevel(verbose, quiet, ""), w)
}

func buildLogger(level zerolog.Level, w io.Writer) zerolog.Logger {
	logger := zerolog.New(w).
		Level(level).
		Hook(logging.NewSensitiveDataHook()).
		With().Timestamp().Logger()
	setGlobalLogger(logger)
	return logger
}

// setGlobalLogger points the zerolog/log package at the CLI logger so code
// using log.Info() and friends shares its configuration.
func setGlobalLogger(cliLogger zerolog.Logger) {
	zerologGlobalMu.Lock()
	defer zerologGlobalMu.Unlock()
	log.Logger = cliLogger
}

// CloseLogFile closes the log file writer if it was opened.
func CloseLogFile() {
	logFileWriterMu.Lock()
	defer logFileWriterMu.Unlock()
	if logFileWriter != nil {
		_ = logFileWriter.Close()
		logFileWriter = nil
	}
}

// selectLevel determines the log level from flags, then the configured level.
func selectLevel(verbose, quiet bool, configured string) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	}
	if lvl, err := zerolog.ParseLevel(configured); err == nil && configured != "" {
		return lvl
	}
	return zerolog.InfoLevel
}

// selectOutput chooses a console writer for a color TTY and JSON otherwise.
func selectOutput() io.Writer {
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		}
	}
	return os.Stderr
}

// filteringWriteCloser wraps a WriteCloser with sensitive data filtering.
type filteringWriteCloser struct {
	filter *logging.FilteringWriter
	closer io.Closer
}

// Write implements io.Writer by delegating to the filtering writer.
func (fwc *filteringWriteCloser) Write(p []byte) (n int, err error) {
	return fwc.filter.Write(p)
}

// Close implements io.Closer by delegating to the underlying closer.
func (fwc *filteringWriteCloser) Close() error {
	return fwc.closer.Close()
}

// createLogFileWriter creates the rotating log file writer. Every line is
// filtered so DSNs and API keys never reach disk.
func createLogFileWriter() (io.WriteCloser, error) {
	logPath, err := LogFilePath()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(logPath), logDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	lj := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
		Compress:   logCompress,
	}

	return &filteringWriteCloser{
		filter: logging.NewFilteringWriter(lj),
		closer: lj,
	}, nil
}

// LogFilePath returns the path of the CLI log file. TASKFLOW_HOME replaces
// ~/.taskflow when set.
func LogFilePath() (string, error) {
	if home := os.Getenv(homeEnvVarName); home != "" {
		return filepath.Join(home, "logs", "taskflow.log"), nil
	}
	return config.LogFilePath()
}
