package burst

import (
	"errors"
	"fmt"

	"github.com/sarchlab/portsched/arbitration"
)

// MaxPostBurstGap is the largest number of idle ticks allowed after a burst.
const MaxPostBurstGap = 3

// Config holds the construction-time parameters of a Scheduler.
type Config struct {
	// NumPorts is the number of clients sharing the resource.
	NumPorts int

	// BurstSize is the number of items in a full burst.
	BurstSize int

	// FIFODepth is the capacity of every port queue and every completion
	// queue.
	FIFODepth int

	// MaxCompletionDelay is the worst-case number of ticks between the
	// resource accepting a request and returning its completion. It sizes
	// the sequence tracker.
	MaxCompletionDelay int

	// BurstArbiter picks among ports that have a full burst queued.
	BurstArbiter arbitration.Strategy

	// FlushArbiter picks among closing ports that have a partial burst
	// left.
	FlushArbiter arbitration.Strategy

	// PostBurstGap is the number of idle ticks inserted after every burst.
	PostBurstGap int

	// SkipCompletionCredit grants bursts without checking that the port's
	// completion queue can take all of them. Clients that do not poll can
	// then overflow their completion queue.
	SkipCompletionCredit bool
}

// DefaultConfig returns a small valid configuration.
func DefaultConfig() Config {
	return Config{
		NumPorts:           4,
		BurstSize:          4,
		FIFODepth:          8,
		MaxCompletionDelay: 8,
		BurstArbiter:       arbitration.StrategyRoundRobin,
		FlushArbiter:       arbitration.StrategyPriority,
		PostBurstGap:       0,
	}
}

// Validate checks the configuration. The returned error is a *ConfigError,
// or several of them joined.
func (c Config) Validate() error {
	var errs []error

	check := func(ok bool, field, format string, args ...any) {
		if !ok {
			errs = append(errs, &ConfigError{
				Field:  field,
				Reason: fmt.Sprintf(format, args...),
			})
		}
	}

	check(c.NumPorts >= 1, "NumPorts",
		"must be at least 1, got %d", c.NumPorts)
	check(c.BurstSize >= 2, "BurstSize",
		"must be at least 2, got %d", c.BurstSize)
	check(c.FIFODepth >= 2*c.BurstSize, "FIFODepth",
		"must be at least 2*BurstSize (%d), got %d",
		2*c.BurstSize, c.FIFODepth)
	check(c.MaxCompletionDelay >= 1, "MaxCompletionDelay",
		"must be at least 1, got %d", c.MaxCompletionDelay)
	check(c.PostBurstGap >= 0 && c.PostBurstGap <= MaxPostBurstGap,
		"PostBurstGap", "must be within [0, %d], got %d",
		MaxPostBurstGap, c.PostBurstGap)
	check(validStrategy(c.BurstArbiter), "BurstArbiter",
		"is not supported: %s", c.BurstArbiter)
	check(validStrategy(c.FlushArbiter), "FlushArbiter",
		"is not supported: %s", c.FlushArbiter)

	return errors.Join(errs...)
}

func validStrategy(s arbitration.Strategy) bool {
	_, err := arbitration.ParseStrategy(s.String())
	return err == nil
}
