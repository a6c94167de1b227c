package logging

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"os"
	"sync"
	"time"
)

// Output names accepted by Config.Output.
const (
	CONSOLE = "console"
	JOURNAL = "journald"
)

// Logger wraps a *zap.SugaredLogger, additionally carrying the interval components should use for
// periodic (rate-limited) logging, e.g. via periodic.Start.
type Logger struct {
	*zap.SugaredLogger

	interval time.Duration
}

// NewLogger returns a new Logger backed by the given *zap.SugaredLogger, using interval for periodic logging.
func NewLogger(logger *zap.SugaredLogger, interval time.Duration) *Logger {
	return &Logger{SugaredLogger: logger, interval: interval}
}

// Interval returns the duration components should wait between periodic log messages.
func (l *Logger) Interval() time.Duration {
	return l.interval
}

// Logging creates and coordinates loggers for different components, sharing a common core and
// allowing per-component log levels to be overridden via Config.Options.
type Logging struct {
	coreLogger *zap.Logger
	interval   time.Duration
	options    Options

	mu      sync.Mutex
	loggers map[string]*Logger
}

// NewLoggingFromConfig creates a new Logging from the given Config.
//
// The name is used as the zap logger name and, for JOURNAL output, as the SYSLOG_IDENTIFIER.
func NewLoggingFromConfig(name string, c Config) (*Logging, error) {
	if err := AssertOutput(c.Output); err != nil {
		return nil, err
	}

	var core zapcore.Core
	switch c.Output {
	case JOURNAL:
		core = NewJournaldCore(name, c.Level)
	case CONSOLE:
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), c.Level)
	}

	return &Logging{
		coreLogger: zap.New(core).Named(name),
		interval:   c.Interval,
		options:    c.Options,
		loggers:    make(map[string]*Logger),
	}, nil
}

// GetLogger returns the root Logger.
func (l *Logging) GetLogger() *Logger {
	return NewLogger(l.coreLogger.Sugar(), l.interval)
}

// GetChildLogger returns a named child Logger, reusing the same instance for repeated calls with
// the same name, applying any log level override configured for name in Config.Options.
func (l *Logging) GetChildLogger(name string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	if logger, ok := l.loggers[name]; ok {
		return logger
	}

	core := l.coreLogger.Named(name)
	if level, ok := l.options[name]; ok {
		core = core.WithOptions(zap.IncreaseLevel(level))
	}

	logger := NewLogger(core.Sugar(), l.interval)
	l.loggers[name] = logger

	return logger
}

// NewLoggerFromConfig is a convenience shortcut that builds a Logging and returns only its root Logger.
func NewLoggerFromConfig(name string, c Config) (*Logger, error) {
	logging, err := NewLoggingFromConfig(name, c)
	if err != nil {
		return nil, errors.Wrapf(err, "can't create logger %q", name)
	}

	return logging.GetLogger(), nil
}
