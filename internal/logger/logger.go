package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultMaxLen caps the message column unless SetMaxLogLen says otherwise.
	DefaultMaxLen = 80

	// TimeLayout renders entry timestamps, always in UTC.
	TimeLayout = "02 Jan, 2006 15:04:05 UTC"

	DirPerm  os.FileMode = 0755
	FilePerm os.FileMode = 0666
)

// Level classifies a log entry.
type Level int8

const (
	Verbose Level = iota
	Info
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Verbose:
		return "VERBOSE"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case Verbose:
		return zapcore.DebugLevel
	case Warning:
		return zapcore.WarnLevel
	case Error:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger writes the boot notification run log to the console and/or a file.
type Logger struct {
	consoleLogging bool
	fileLogging    bool
	verbose        bool
	maxLen         int
	logsDir        string
	logFile        string

	out   io.Writer
	clock zapcore.Clock
	zl    *zap.Logger
}

// Option customises a Logger.
type Option func(*Logger)

// WithOutput sends console output to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) {
		l.out = w
	}
}

// WithClock overrides the time source used for entry timestamps.
func WithClock(clock zapcore.Clock) Option {
	return func(l *Logger) {
		l.clock = clock
	}
}

// New returns a logger with console logging on, file logging off, verbose
// off and a DefaultMaxLen message limit.
func New(opts ...Option) *Logger {
	l := &Logger{
		consoleLogging: true,
		maxLen:         DefaultMaxLen,
		out:            os.Stdout,
		clock:          zapcore.DefaultClock,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.rebuild()
	return l
}

func (l *Logger) SetConsoleLogging(val bool) {
	l.consoleLogging = val
	l.rebuild()
}

func (l *Logger) SetFileLogging(val bool) {
	l.fileLogging = val
	l.rebuild()
}

func (l *Logger) SetVerbose(val bool) {
	l.verbose = val
	l.rebuild()
}

// SetMaxLogLen sets the message length limit. Negative values are rejected.
func (l *Logger) SetMaxLogLen(val int) error {
	if val < 0 {
		return fmt.Errorf("invalid max log length: %d", val)
	}
	l.maxLen = val
	return nil
}

// SetLogFile points file logging at dir/name, creating dir if it does not
// exist. The directory is only created here, never at write time.
func (l *Logger) SetLogFile(dir, name string) error {
	if name == "" {
		return errors.New("log file name is empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve log folder %s: %w", dir, err)
	}
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		if err := os.Mkdir(abs, DirPerm); err != nil {
			return fmt.Errorf("failed to create log folder: %w", err)
		}
		if err := os.Chmod(abs, DirPerm); err != nil {
			return fmt.Errorf("failed to set log folder permissions: %w", err)
		}
	}
	l.logsDir = abs
	l.logFile = filepath.Join(abs, name)
	l.rebuild()
	return nil
}

// LogFile returns the configured log file path, or "" when unset.
func (l *Logger) LogFile() string {
	return l.logFile
}

// RemoveLogs deletes the log file. Failures are ignored.
func (l *Logger) RemoveLogs() {
	if l.logFile == "" {
		return
	}
	_ = os.Remove(l.logFile)
}

// Log writes msg at the given level according to the current settings.
func (l *Logger) Log(msg string, level Level) {
	if level == Verbose && !l.verbose {
		return
	}
	l.zl.Log(level.zapLevel(), truncate(msg, l.maxLen))
}

func (l *Logger) Verbosef(format string, args ...interface{}) {
	l.Log(fmt.Sprintf(format, args...), Verbose)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.Log(fmt.Sprintf(format, args...), Info)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Log(fmt.Sprintf(format, args...), Warning)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Log(fmt.Sprintf(format, args...), Error)
}

// rebuild assembles the zap core tree for the current settings.
func (l *Logger) rebuild() {
	enabler := zapcore.InfoLevel
	if l.verbose {
		enabler = zapcore.DebugLevel
	}

	var cores []zapcore.Core
	if l.consoleLogging {
		cores = append(cores, zapcore.NewCore(newLineEncoder(), zapcore.AddSync(l.out), enabler))
	}
	if l.fileLogging && l.logFile != "" {
		sink := &fileSink{dir: l.logsDir, path: l.logFile, console: l.out}
		cores = append(cores, zapcore.NewCore(newLineEncoder(), sink, enabler))
	}

	l.zl = zap.New(zapcore.NewTee(cores...), zap.WithClock(l.clock))
}

// truncate keeps the first n characters of msg. An invalid byte counts as one
// character and is kept as is.
func truncate(msg string, n int) string {
	i := 0
	for count := 0; i < len(msg); count++ {
		if count == n {
			return msg[:i]
		}
		_, size := utf8.DecodeRuneInString(msg[i:])
		i += size
	}
	return msg
}
