package firmware

// Config holds the interpreter configuration.
type Config struct {
	// Logger is used for command tracing (optional)
	Logger Logger
}

func defaultConfig() Config {
	return Config{}
}

// Option is a functional option for configuring the Interpreter.
type Option func(*Config)

// WithLogger sets a logger for command tracing.
//
// Example:
//
//	interp := firmware.New(port, bus, firmware.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// Logger is an optional logging interface. It matches any structured
// key/value logger; wrap your framework of choice.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
