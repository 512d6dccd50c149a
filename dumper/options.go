package dumper

import "time"

// Progress describes an in-flight transfer. Passed to ProgressCallback
// after every completed window.
type Progress struct {
	// Phase is PhaseReading or PhaseWriting
	Phase string

	// BytesDone is the number of payload bytes transferred so far
	BytesDone int

	// TotalBytes is the size of the whole transfer
	TotalBytes int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time elapsed since the command was sent
	ElapsedTime time.Duration
}

// Transfer phases reported in Progress.
const (
	PhaseReading = "reading"
	PhaseWriting = "writing"
)

// ProgressCallback is called after every transferred window.
// Implementations should return quickly; the transfer blocks on them.
type ProgressCallback func(Progress)

// Logger is an optional logging interface matching any structured
// key/value logger.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// Config holds the dumper configuration.
type Config struct {
	// ProgressCallback is called during transfers to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for operation tracing (optional)
	Logger Logger
}

func defaultConfig() Config {
	return Config{}
}

// Option is a functional option for configuring the Dumper.
type Option func(*Config)

// WithProgressCallback sets a callback to track transfer progress.
//
// Example:
//
//	d := dumper.New(port,
//	    dumper.WithProgressCallback(func(p dumper.Progress) {
//	        fmt.Printf("[%s] %.1f%%\n", p.Phase, p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for transfer operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
