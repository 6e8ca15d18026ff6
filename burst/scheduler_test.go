package burst

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/portsched/addressing"
	"github.com/sarchlab/portsched/arbitration"
)

func priorityBuilder(numPorts int) Builder {
	return MakeBuilder().
		WithNumPorts(numPorts).
		WithBurstSize(4).
		WithFIFODepth(8).
		WithMaxCompletionDelay(4).
		WithBurstArbitration(arbitration.StrategyPriority).
		WithFlushArbitration(arbitration.StrategyPriority)
}

var _ = Describe("Scheduler", func() {
	var h *harness

	Context("with a single port", func() {
		BeforeEach(func() {
			h = newHarness(priorityBuilder(1), 2)
			Expect(h.sched.Open(0, 0, 99, false)).To(Succeed())
		})

		It("should emit one full burst and no flush for a full queue", func() {
			h.enqueueAll(0, seq(100, 4)...)
			Expect(h.sched.Close(0)).To(Succeed())

			h.runUntilIdle(50)

			Expect(h.log.plainBursts()).To(Equal([]Burst{
				{PortID: 0, Length: 4},
			}))
			Expect(h.payloads(0)).To(Equal(seq(100, 4)))
			Expect(h.eofs(0)).To(Equal([]bool{false, false, false, true}))
			Expect(h.sched.PortState(0)).To(Equal(PortClosed))
		})

		It("should flush the remainder after the full burst", func() {
			h.enqueueAll(0, seq(100, 6)...)
			Expect(h.sched.Close(0)).To(Succeed())

			h.runUntilIdle(50)

			Expect(h.log.plainBursts()).To(Equal([]Burst{
				{PortID: 0, Length: 4},
				{PortID: 0, Length: 2, IsFlush: true},
			}))
			Expect(h.payloads(0)).To(Equal(seq(100, 6)))
			Expect(h.eofs(0)).To(Equal(
				[]bool{false, false, false, false, false, true}))
		})

		It("should wait one idle tick before flushing", func() {
			h.enqueueAll(0, 1, 2)
			Expect(h.sched.Close(0)).To(Succeed())

			h.step()
			Expect(h.log.bursts).To(BeEmpty())

			h.step()
			Expect(h.log.bursts).To(HaveLen(1))
			Expect(h.log.bursts[0].IsFlush).To(BeTrue())
			Expect(h.log.bursts[0].tick).To(Equal(uint64(2)))
		})

		It("should keep a partial burst while the port is open", func() {
			h.enqueueAll(0, 1, 2, 3)

			h.run(20)

			Expect(h.log.bursts).To(BeEmpty())
			Expect(h.sched.QueueLen(0)).To(Equal(3))
		})

		It("should report the port state transitions", func() {
			h.enqueueAll(0, 1)
			Expect(h.sched.Close(0)).To(Succeed())
			h.runUntilIdle(50)

			Expect(h.log.states).To(Equal([]StateChange{
				{PortID: 0, From: PortClosed, To: PortOpen},
				{PortID: 0, From: PortOpen, To: PortFlushing},
				{PortID: 0, From: PortFlushing, To: PortClosed},
			}))
		})

		It("should drop the item beyond the fifo depth", func() {
			h.enqueueAll(0, seq(0, 8)...)

			err := h.sched.Enqueue(0, 8)
			Expect(errors.Is(err, ErrFifoOverflow)).To(BeTrue())
			Expect(h.sched.Flags(0).FifoOverflow).To(BeFalse())

			h.step()
			Expect(h.sched.Flags(0).FifoOverflow).To(BeTrue())

			h.step()
			Expect(h.sched.Flags(0).FifoOverflow).To(BeFalse())

			Expect(h.sched.Close(0)).To(Succeed())
			h.runUntilIdle(100)

			Expect(h.payloads(0)).To(Equal(seq(0, 8)))
			Expect(h.flagPulses(0, func(f Flags) bool {
				return f.FifoOverflow
			})).To(Equal(1))
		})

		It("should reject items on a port that is not open", func() {
			Expect(h.sched.Close(0)).To(Succeed())

			err := h.sched.Enqueue(0, 1)
			Expect(errors.Is(err, ErrRequestOverflow)).To(BeTrue())

			h.step()
			Expect(h.sched.Flags(0).RequestOverflow).To(BeTrue())
			Expect(h.sched.Flags(0).Any()).To(BeTrue())

			h.step()
			Expect(h.sched.Flags(0).Any()).To(BeFalse())
			Expect(h.log.overflows).To(Equal([]Overflow{
				{PortID: 0, Kind: OverflowRequest},
			}))
		})

		It("should insert the configured gap after every burst", func() {
			gapped := newHarness(priorityBuilder(1).WithPostBurstGap(2), 2)
			Expect(gapped.sched.Open(0, 0, 99, false)).To(Succeed())
			gapped.enqueueAll(0, seq(0, 8)...)

			gapped.run(20)

			Expect(gapped.log.bursts).To(HaveLen(2))
			Expect(gapped.log.bursts[0].tick).To(Equal(uint64(1)))
			Expect(gapped.log.bursts[1].tick).To(Equal(uint64(8)))

			h.enqueueAll(0, seq(0, 8)...)
			h.run(20)

			Expect(h.log.bursts[1].tick).To(Equal(uint64(6)))
		})

		It("should wrap a continuous address range", func() {
			wrap := newHarness(priorityBuilder(1), 1)
			Expect(wrap.sched.Open(0, 10, 12, false)).To(Succeed())
			wrap.enqueueAll(0, seq(0, 4)...)

			wrap.run(10)

			addrs := make([]uint64, 0)
			for _, c := range wrap.completions[0] {
				addrs = append(addrs, c.Address)
			}
			Expect(addrs).To(Equal([]uint64{10, 11, 12, 10}))
			Expect(wrap.log.issues[2].Wrapped).To(BeTrue())
		})
	})

	Context("with single-shot addressing", func() {
		BeforeEach(func() {
			h = newHarness(priorityBuilder(1), 2)
		})

		It("should end the frame on the last address and stop", func() {
			Expect(h.sched.Open(0, 0, 3, true)).To(Succeed())
			h.enqueueAll(0, seq(0, 4)...)

			h.run(10)

			Expect(h.eofs(0)).To(Equal([]bool{false, false, false, true}))

			h.enqueueAll(0, seq(4, 4)...)
			h.run(20)

			Expect(h.log.bursts).To(HaveLen(1))
			Expect(h.sched.QueueLen(0)).To(Equal(4))

			Expect(h.sched.Open(0, 0, 3, true)).To(Succeed())
			h.run(10)

			Expect(h.log.bursts).To(HaveLen(2))
			Expect(h.payloads(0)).To(Equal(seq(0, 8)))
			Expect(h.completions[0][4].Address).To(Equal(uint64(0)))
		})

		It("should run a burst on a range covering every address", func() {
			Expect(h.sched.Open(0, 0, math.MaxUint64, true)).To(Succeed())
			h.enqueueAll(0, seq(0, 4)...)

			Expect(h.step).NotTo(Panic())
			h.run(10)

			Expect(h.log.plainBursts()).To(Equal([]Burst{{PortID: 0, Length: 4}}))
			Expect(h.payloads(0)).To(Equal(seq(0, 4)))
			Expect(h.eofs(0)).To(Equal([]bool{false, false, false, false}))
		})

		It("should clamp a burst to the addresses left", func() {
			Expect(h.sched.Open(0, 10, 15, true)).To(Succeed())
			h.enqueueAll(0, seq(0, 8)...)

			h.run(20)

			Expect(h.log.plainBursts()).To(Equal([]Burst{
				{PortID: 0, Length: 4},
				{PortID: 0, Length: 2},
			}))
			Expect(h.eofs(0)).To(Equal(
				[]bool{false, false, false, false, false, true}))
			Expect(h.sched.QueueLen(0)).To(Equal(2))
		})
	})

	Context("with two ports and priority arbitration", func() {
		BeforeEach(func() {
			h = newHarness(priorityBuilder(2), 2)
			Expect(h.sched.Open(0, 0, 99, false)).To(Succeed())
			Expect(h.sched.Open(1, 100, 199, false)).To(Succeed())
		})

		It("should serve full bursts before flushes", func() {
			h.enqueueAll(0, seq(0, 4)...)
			h.enqueueAll(1, seq(10, 6)...)
			Expect(h.sched.Close(0)).To(Succeed())
			Expect(h.sched.Close(1)).To(Succeed())

			h.runUntilIdle(100)

			Expect(h.log.plainBursts()).To(Equal([]Burst{
				{PortID: 0, Length: 4},
				{PortID: 1, Length: 4},
				{PortID: 1, Length: 2, IsFlush: true},
			}))
			Expect(h.payloads(0)).To(Equal(seq(0, 4)))
			Expect(h.payloads(1)).To(Equal(seq(10, 6)))
		})

		It("should grant port 1 only when port 0 has no burst ready", func() {
			h.enqueueAll(0, seq(0, 8)...)
			h.enqueueAll(1, seq(10, 4)...)

			h.run(40)

			Expect(h.log.plainBursts()).To(Equal([]Burst{
				{PortID: 0, Length: 4},
				{PortID: 0, Length: 4},
				{PortID: 1, Length: 4},
			}))
		})
	})

	Context("with round-robin arbitration", func() {
		It("should rotate among continuously ready ports", func() {
			b := MakeBuilder().
				WithNumPorts(3).
				WithBurstSize(4).
				WithFIFODepth(16).
				WithMaxCompletionDelay(4).
				WithBurstArbitration(arbitration.StrategyRoundRobin)
			h = newHarness(b, 2)

			for p := 0; p < 3; p++ {
				Expect(h.sched.Open(p, 0, 99, false)).To(Succeed())
				h.enqueueAll(p, seq(uint64(p*100), 12)...)
			}

			h.run(60)

			order := make([]int, 0)
			for _, b := range h.log.bursts {
				order = append(order, b.PortID)
			}
			Expect(order).To(Equal([]int{0, 1, 2, 0, 1, 2, 0, 1, 2}))
		})
	})

	Context("with a port that does not poll", func() {
		BeforeEach(func() {
			b := priorityBuilder(2).WithBurstSize(2).WithFIFODepth(4)
			h = newHarness(b, 1)
			h.noPoll[0] = true

			Expect(h.sched.Open(0, 0, 99, false)).To(Succeed())
			Expect(h.sched.Open(1, 100, 199, false)).To(Succeed())
		})

		It("should hold bursts until the completion queue has room", func() {
			h.enqueueAll(0, seq(0, 4)...)
			h.run(20)
			h.enqueueAll(0, 4, 5)
			h.run(20)

			Expect(h.log.bursts).To(HaveLen(2))
			Expect(h.sched.QueueLen(0)).To(Equal(2))
			Expect(h.sched.Faulted(0)).To(BeFalse())

			h.sched.Poll(0)
			h.sched.Poll(0)
			h.run(20)

			Expect(h.log.bursts).To(HaveLen(3))
		})
	})

	Context("without completion credit", func() {
		BeforeEach(func() {
			b := priorityBuilder(2).
				WithBurstSize(2).
				WithFIFODepth(4).
				WithoutCompletionCredit()
			h = newHarness(b, 1)
			h.noPoll[0] = true

			Expect(h.sched.Open(0, 0, 99, false)).To(Succeed())
			Expect(h.sched.Open(1, 100, 199, false)).To(Succeed())
		})

		It("should fault only the port whose completion queue overflows", func() {
			h.enqueueAll(0, seq(0, 4)...)
			h.run(20)
			h.enqueueAll(0, 4, 5)
			h.run(20)

			Expect(h.flagPulses(0, func(f Flags) bool {
				return f.RouterOverflow
			})).To(Equal(1))
			Expect(h.sched.Faulted(0)).To(BeTrue())
			Expect(h.sched.PortState(0)).To(Equal(PortClosed))
			Expect(h.sched.Enqueue(0, 6)).To(MatchError(ErrRequestOverflow))

			h.enqueueAll(1, 10, 11)
			h.run(20)
			Expect(h.payloads(1)).To(Equal([]uint64{10, 11}))

			Expect(h.sched.Open(0, 0, 99, false)).To(Succeed())
			Expect(h.sched.Faulted(0)).To(BeFalse())
			h.noPoll[0] = false
			h.enqueueAll(0, 20, 21)
			h.run(20)
			Expect(h.payloads(0)).To(Equal([]uint64{20, 21}))
		})
	})

	Describe("Open", func() {
		BeforeEach(func() {
			h = newHarness(priorityBuilder(2), 2)
		})

		It("should reject misuse", func() {
			Expect(h.sched.Open(2, 0, 1, false)).To(MatchError(ErrInvalidPort))
			Expect(h.sched.Open(0, 5, 1, false)).
				To(MatchError(addressing.ErrInvalidRange))
			Expect(h.sched.Enqueue(-1, 0)).To(MatchError(ErrInvalidPort))
			Expect(h.sched.Close(7)).To(MatchError(ErrInvalidPort))

			_, ok := h.sched.Poll(9)
			Expect(ok).To(BeFalse())

			Expect(h.sched.PortState(9)).To(Equal(PortClosed))
			Expect(h.sched.QueueLen(-1)).To(BeZero())
			Expect(h.sched.Faulted(2)).To(BeFalse())
			Expect(h.sched.Flags(2)).To(Equal(Flags{}))

			Expect(h.sched.Open(0, 0, 1, false)).To(Succeed())
			Expect(h.sched.Open(0, 0, 1, false)).To(MatchError(ErrPortActive))
		})

		It("should allow reopening after the frame closed", func() {
			Expect(h.sched.Open(0, 0, 9, false)).To(Succeed())
			h.enqueueAll(0, 1)
			Expect(h.sched.Close(0)).To(Succeed())
			h.runUntilIdle(20)

			Expect(h.sched.Open(0, 0, 9, false)).To(Succeed())
			Expect(h.sched.PortState(0)).To(Equal(PortOpen))
		})
	})
})
