package process

import "fmt"

// ConfigError reports a caller mistake in how processes, measures or batch
// covariates were put together. It is never retriable.
type ConfigError struct {
	// Process is the offending process id, empty when the error is not
	// specific to one process.
	Process string
	Msg     string
}

func (e *ConfigError) Error() string {
	if e.Process == "" {
		return "config: " + e.Msg
	}
	return fmt.Sprintf("config: process %q: %s", e.Process, e.Msg)
}

func configErrorf(id, format string, args ...any) error {
	return &ConfigError{Process: id, Msg: fmt.Sprintf(format, args...)}
}
