package sequencing

import (
	"errors"
	"fmt"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/portsched/sim/queueing"
)

var _ = ginkgo.Describe("Tracker", func() {
	var tracker *Tracker

	ginkgo.BeforeEach(func() {
		tracker = NewTracker("Seq", 3)
	})

	ginkgo.It("should pop owners in push order", func() {
		Expect(tracker.Push(2, false)).To(Succeed())
		Expect(tracker.Push(0, false)).To(Succeed())
		Expect(tracker.Push(2, true)).To(Succeed())
		Expect(tracker.Len()).To(Equal(3))

		var got []Entry
		for tracker.Len() > 0 {
			e, err := tracker.Pop()
			Expect(err).NotTo(HaveOccurred())
			got = append(got, e)
		}

		Expect(got).To(Equal([]Entry{
			{PortID: 2}, {PortID: 0}, {PortID: 2, EndOfFrame: true},
		}))
	})

	ginkgo.It("should refuse to record beyond its depth", func() {
		for i := 0; i < 3; i++ {
			Expect(tracker.Push(i, false)).To(Succeed())
		}

		Expect(tracker.CanPush()).To(BeFalse())
		Expect(errors.Is(tracker.Push(0, false), ErrTrackerFull)).To(BeTrue())
	})

	ginkgo.It("should underflow when empty", func() {
		_, err := tracker.Pop()
		Expect(err).To(MatchError(ErrSequenceUnderflow))
	})
})

var _ = ginkgo.Describe("Router", func() {
	var (
		tracker *Tracker
		queues  []queueing.Buffer[Completion]
		router  *Router
	)

	ginkgo.BeforeEach(func() {
		tracker = NewTracker("Seq", 8)
		queues = make([]queueing.Buffer[Completion], 2)
		for i := range queues {
			queues[i] = queueing.NewBuffer[Completion](
				fmt.Sprintf("Cpl[%d]", i), 2)
		}
		router = NewRouter(tracker, queues)
	})

	ginkgo.It("should deliver completions to the recorded owners", func() {
		Expect(tracker.Push(1, false)).To(Succeed())
		Expect(tracker.Push(0, true)).To(Succeed())

		c, err := router.Route(0x10, 100)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.PortID).To(Equal(1))

		c, err = router.Route(0x20, 200)
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(Equal(Completion{
			PortID: 0, Address: 0x20, Payload: 200, EndOfFrame: true,
		}))

		got, ok := router.Queue(1).Pop()
		Expect(ok).To(BeTrue())
		Expect(got.Payload).To(Equal(uint64(100)))
		Expect(router.Queue(0).Size()).To(Equal(1))
	})

	ginkgo.It("should report a sequence underflow", func() {
		_, err := router.Route(0, 1)
		Expect(err).To(MatchError(ErrSequenceUnderflow))
	})

	ginkgo.It("should report a full completion queue without delivering", func() {
		for i := 0; i < 3; i++ {
			Expect(tracker.Push(0, false)).To(Succeed())
		}

		_, err := router.Route(0, 1)
		Expect(err).NotTo(HaveOccurred())
		_, err = router.Route(1, 2)
		Expect(err).NotTo(HaveOccurred())

		_, err = router.Route(2, 3)

		var overflow *RouterOverflowError
		Expect(errors.As(err, &overflow)).To(BeTrue())
		Expect(overflow.PortID).To(Equal(0))
		Expect(overflow.Completion.Payload).To(Equal(uint64(3)))
		Expect(queues[0].Size()).To(Equal(2))
		Expect(tracker.Len()).To(Equal(0))
	})

	ginkgo.It("should drop completions of a muted port", func() {
		Expect(tracker.Push(0, false)).To(Succeed())
		Expect(tracker.Push(0, false)).To(Succeed())

		router.Mute(0)
		c, err := router.Route(1, 2)
		Expect(err).To(MatchError(ErrDiscarded))
		Expect(c.PortID).To(Equal(0))
		Expect(queues[0].Size()).To(Equal(0))

		router.Unmute(0)
		_, err = router.Route(1, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(queues[0].Size()).To(Equal(1))
	})
})
