package burst

import (
	"errors"
	"fmt"
)

var (
	// ErrRequestOverflow is returned by Enqueue when the port is not
	// accepting items. The item is dropped.
	ErrRequestOverflow = errors.New("request overflow: port is not accepting")

	// ErrFifoOverflow is returned by Enqueue when the port queue is full.
	// The item is dropped.
	ErrFifoOverflow = errors.New("fifo overflow: port queue is full")

	// ErrInvalidPort is returned when a port index is out of range.
	ErrInvalidPort = errors.New("invalid port")

	// ErrPortActive is returned by Open when the port is still running a
	// frame.
	ErrPortActive = errors.New("port is active")
)

// ConfigError reports an invalid scheduler configuration. It is detected
// before the first tick and never at run time.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}
