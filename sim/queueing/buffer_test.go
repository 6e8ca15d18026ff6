package queueing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/portsched/sim/hooking"
)

var _ = Describe("Buffer", func() {
	var buf Buffer[int]

	BeforeEach(func() {
		buf = NewBuffer[int]("Buf", 2)
	})

	It("should allow push and pop", func() {
		Expect(buf.Capacity()).To(Equal(2))
		Expect(buf.CanPush()).To(BeTrue())

		buf.Push(1)
		Expect(buf.CanPush()).To(BeTrue())
		Expect(buf.Size()).To(Equal(1))

		buf.Push(2)
		Expect(buf.CanPush()).To(BeFalse())
		Expect(buf.Size()).To(Equal(2))
		Expect(func() { buf.Push(3) }).To(Panic())

		e, ok := buf.Peek()
		Expect(ok).To(BeTrue())
		Expect(e).To(Equal(1))

		e, ok = buf.Pop()
		Expect(ok).To(BeTrue())
		Expect(e).To(Equal(1))
		Expect(buf.Size()).To(Equal(1))

		e, _ = buf.Pop()
		Expect(e).To(Equal(2))

		_, ok = buf.Peek()
		Expect(ok).To(BeFalse())
		_, ok = buf.Pop()
		Expect(ok).To(BeFalse())
	})

	It("should keep order across the ring boundary", func() {
		var out []int

		for i := 0; i < 10; i++ {
			buf.Push(i)
			e, _ := buf.Pop()
			out = append(out, e)
		}

		Expect(out).To(Equal([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}))
	})

	It("should clear", func() {
		buf.Push(2)
		buf.Clear()

		Expect(buf.Size()).To(Equal(0))
		Expect(buf.CanPush()).To(BeTrue())
	})

	It("should invoke push and pop hooks", func() {
		counter := hooking.NewPosCounter()
		buf.AcceptHook(counter)

		buf.Push(1)
		buf.Push(2)
		buf.Pop()

		Expect(counter.Count(HookPosBufPush)).To(Equal(uint64(2)))
		Expect(counter.Count(HookPosBufPop)).To(Equal(uint64(1)))
	})

	It("should panic on invalid construction", func() {
		Expect(func() { NewBuffer[int]("Buf", 0) }).To(Panic())
		Expect(func() { NewBuffer[int]("buf", 1) }).To(Panic())
	})
})
