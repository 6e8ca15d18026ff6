package burst

import (
	"github.com/sarchlab/portsched/arbitration"
	"github.com/sarchlab/portsched/resource"
	"github.com/sarchlab/portsched/sequencing"
	"github.com/sarchlab/portsched/sim/naming"
	"github.com/sarchlab/portsched/sim/queueing"
)

// Builder creates Schedulers.
type Builder struct {
	cfg          Config
	resource     resource.SharedResource
	burstArbiter arbitration.Arbiter
	flushArbiter arbitration.Arbiter
}

// MakeBuilder returns a Builder with DefaultConfig.
func MakeBuilder() Builder {
	return Builder{cfg: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b Builder) WithConfig(cfg Config) Builder {
	b.cfg = cfg
	return b
}

// WithNumPorts sets the number of ports.
func (b Builder) WithNumPorts(n int) Builder {
	b.cfg.NumPorts = n
	return b
}

// WithBurstSize sets the number of items in a full burst.
func (b Builder) WithBurstSize(n int) Builder {
	b.cfg.BurstSize = n
	return b
}

// WithFIFODepth sets the capacity of the port and completion queues.
func (b Builder) WithFIFODepth(n int) Builder {
	b.cfg.FIFODepth = n
	return b
}

// WithMaxCompletionDelay sets the worst-case resource round trip in ticks.
func (b Builder) WithMaxCompletionDelay(n int) Builder {
	b.cfg.MaxCompletionDelay = n
	return b
}

// WithBurstArbitration sets the strategy used to grant full bursts.
func (b Builder) WithBurstArbitration(s arbitration.Strategy) Builder {
	b.cfg.BurstArbiter = s
	return b
}

// WithFlushArbitration sets the strategy used to grant flush bursts.
func (b Builder) WithFlushArbitration(s arbitration.Strategy) Builder {
	b.cfg.FlushArbiter = s
	return b
}

// WithBurstArbiter injects a ready-made arbiter for full bursts, overriding
// the configured strategy.
func (b Builder) WithBurstArbiter(a arbitration.Arbiter) Builder {
	b.burstArbiter = a
	return b
}

// WithFlushArbiter injects a ready-made arbiter for flush bursts, overriding
// the configured strategy.
func (b Builder) WithFlushArbiter(a arbitration.Arbiter) Builder {
	b.flushArbiter = a
	return b
}

// WithPostBurstGap sets the idle ticks inserted after every burst.
func (b Builder) WithPostBurstGap(n int) Builder {
	b.cfg.PostBurstGap = n
	return b
}

// WithoutCompletionCredit grants bursts without reserving completion queue
// space.
func (b Builder) WithoutCompletionCredit() Builder {
	b.cfg.SkipCompletionCredit = true
	return b
}

// WithResource sets the shared resource the scheduler issues to.
func (b Builder) WithResource(r resource.SharedResource) Builder {
	b.resource = r
	return b
}

// Build creates the Scheduler. It panics with a *ConfigError if the
// configuration is invalid.
func (b Builder) Build(name string) *Scheduler {
	naming.MustBeValid(name)

	if err := b.cfg.Validate(); err != nil {
		panic(err)
	}

	if b.resource == nil {
		panic(&ConfigError{Field: "Resource", Reason: "must be given"})
	}

	s := &Scheduler{
		NamedBase: naming.MakeNamedBase(name),
		cfg:       b.cfg,
		resource:  b.resource,
	}

	s.burstArbiter = b.burstArbiter
	if s.burstArbiter == nil {
		s.burstArbiter = arbitration.New(b.cfg.BurstArbiter, b.cfg.NumPorts)
	}

	s.flushArbiter = b.flushArbiter
	if s.flushArbiter == nil {
		s.flushArbiter = arbitration.New(b.cfg.FlushArbiter, b.cfg.NumPorts)
	}

	b.buildPorts(s)

	return s
}

func (b Builder) buildPorts(s *Scheduler) {
	name := s.Name()
	completionQueues := make(
		[]queueing.Buffer[sequencing.Completion], b.cfg.NumPorts)

	s.ports = make([]*port, b.cfg.NumPorts)
	for i := range s.ports {
		portName := naming.Indexed(name, "Port", i)

		p := &port{
			id:   i,
			name: portName,
			queue: queueing.NewBuffer[uint64](
				naming.Child(portName, "Queue"), b.cfg.FIFODepth),
			completions: queueing.NewBuffer[sequencing.Completion](
				naming.Child(portName, "Completions"), b.cfg.FIFODepth),
		}

		s.ports[i] = p
		completionQueues[i] = p.completions
	}

	s.tracker = sequencing.NewTracker(
		naming.Child(name, "Sequence"), b.cfg.MaxCompletionDelay)
	s.router = sequencing.NewRouter(s.tracker, completionQueues)
}
