package scenario

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/portsched/arbitration"
	"github.com/sarchlab/portsched/burst"
	"github.com/sarchlab/portsched/datarecording"
	"github.com/sarchlab/portsched/sim/hooking"
)

func smallConfig(numPorts int) burst.Config {
	cfg := burst.DefaultConfig()
	cfg.NumPorts = numPorts

	return cfg
}

func mustBuild(s Scenario) *Runner {
	r, err := MakeBuilder().WithScenario(s).Build("Sim")
	Expect(err).NotTo(HaveOccurred())

	return r
}

var _ = ginkgo.Describe("Runner", func() {
	ctx := context.Background()

	ginkgo.It("should deliver every item of every port in order", func() {
		s := Uniform(smallConfig(4), 3, 10)

		rep, err := mustBuild(s).Run(ctx, 1000)

		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Finished).To(BeTrue())
		Expect(rep.VerifyFIFO()).To(Succeed())
		Expect(rep.NumCompletions()).To(Equal(40))
		Expect(rep.NumFlushes()).To(Equal(4))
		Expect(rep.Flags.Total()).To(Equal(0))
		Expect(rep.Name).To(Equal("Uniform"))
	})

	ginkgo.It("should survive a memory that accepts every other tick", func() {
		s := Uniform(smallConfig(2), 4, 9)
		s.AcceptEvery = 2

		r := mustBuild(s)
		counter := hooking.NewPosCounter()
		r.Scheduler().AcceptHook(counter)

		rep, err := r.Run(ctx, 1000)

		Expect(err).NotTo(HaveOccurred())
		Expect(rep.VerifyFIFO()).To(Succeed())
		Expect(counter.Count(burst.HookPosStall)).To(BeNumerically(">", 0))
		Expect(r.Memory().NumAccepted()).To(Equal(uint64(18)))
	})

	ginkgo.It("should re-arm a single-shot port on every frame end", func() {
		s := Scenario{
			Name:    "Rearm",
			Config:  smallConfig(1),
			Latency: 2,
			Ports: []PortTraffic{{
				First:      0x100,
				Last:       0x105,
				SingleShot: true,
				Rearm:      true,
				Items:      Sequential(0, 16),
			}},
		}

		rep, err := mustBuild(s).Run(ctx, 1000)

		Expect(err).NotTo(HaveOccurred())
		Expect(rep.VerifyFIFO()).To(Succeed())

		var frameEnds []int
		for i, c := range rep.Completions[0] {
			Expect(c.Address).To(Equal(0x100 + uint64(i%6)))
			if c.EndOfFrame {
				frameEnds = append(frameEnds, i)
			}
		}
		Expect(frameEnds).To(Equal([]int{5, 11, 15}))
	})

	ginkgo.It("should time out on a stopped port that is never re-armed", func() {
		s := Scenario{
			Config:  smallConfig(1),
			Latency: 1,
			Ports: []PortTraffic{{
				Last:       3,
				SingleShot: true,
				Items:      Sequential(0, 8),
			}},
		}

		rep, err := mustBuild(s).Run(ctx, 200)

		Expect(err).To(MatchError(ErrMaxTicks))
		Expect(rep.Finished).To(BeFalse())
		Expect(rep.Ticks).To(Equal(uint64(200)))
		Expect(rep.Completions[0]).To(HaveLen(4))
	})

	ginkgo.It("should honour start and close ticks and skip idle ports", func() {
		s := Uniform(smallConfig(2), 2, 4)
		s.Ports[0].StartTick = 10
		s.Ports[0].CloseTick = 50
		s.Ports[1].Idle = true

		rep, err := mustBuild(s).Run(ctx, 1000)

		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Ticks).To(BeNumerically(">", 50))
		Expect(rep.Bursts).To(Equal([]burst.Burst{{PortID: 0, Length: 4}}))
		Expect(rep.Sent[1]).To(BeEmpty())
	})

	ginkgo.It("should stop when the context is cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		rep, err := mustBuild(Uniform(smallConfig(1), 1, 4)).Run(cancelled, 100)

		Expect(err).To(MatchError(context.Canceled))
		Expect(rep.Ticks).To(BeZero())
	})

	ginkgo.It("should record the run", func() {
		db, err := sql.Open("sqlite3", ":memory:")
		Expect(err).NotTo(HaveOccurred())
		db.SetMaxOpenConns(1)

		recorder := datarecording.NewWithDB(db)
		r, err := MakeBuilder().
			WithScenario(Uniform(smallConfig(2), 2, 6)).
			WithRecorder(recorder).
			Build("Sim")
		Expect(err).NotTo(HaveOccurred())

		rep, err := r.Run(ctx, 1000)
		Expect(err).NotTo(HaveOccurred())
		recorder.Flush()

		var n int
		Expect(db.QueryRow("SELECT COUNT(*) FROM completion WHERE RunID = ?",
			rep.RunID).Scan(&n)).To(Succeed())
		Expect(n).To(Equal(12))
		Expect(recorder.Close()).To(Succeed())
	})
})

var _ = ginkgo.Describe("Scenario", func() {
	ginkgo.It("should reject inconsistent scenarios", func() {
		s := Uniform(smallConfig(2), 2, 4)
		s.Ports = s.Ports[:1]
		Expect(s.Validate()).To(HaveOccurred())

		s = Uniform(smallConfig(2), 9, 4)
		Expect(s.Validate()).To(HaveOccurred())

		s = Uniform(smallConfig(2), 2, 4)
		s.Ports[1].First = 10
		s.Ports[1].Last = 1
		Expect(s.Validate()).To(HaveOccurred())

		cfg := smallConfig(2)
		cfg.BurstSize = 1
		_, err := MakeBuilder().WithScenario(Uniform(cfg, 2, 4)).Build("Sim")
		Expect(err).To(HaveOccurred())
	})

	ginkgo.It("should give every port its own window", func() {
		s := Uniform(smallConfig(3), 2, 2)

		Expect(s.Ports[2].First).To(Equal(uint64(0x2000)))
		Expect(s.Ports[2].Last).To(Equal(uint64(0x2fff)))
		Expect(s.Ports[2].Items).To(Equal([]uint64{2 << 32, 2<<32 + 1}))
	})
})

var _ = ginkgo.Describe("Sweep", func() {
	ginkgo.It("should run every scenario", func() {
		var scenarios []Scenario
		for _, strategy := range []arbitration.Strategy{
			arbitration.StrategyPriority,
			arbitration.StrategyRoundRobin,
			arbitration.StrategyFCFS,
		} {
			cfg := smallConfig(3)
			cfg.BurstArbiter = strategy
			s := Uniform(cfg, 3, 12)
			s.Name = strategy.String()
			scenarios = append(scenarios, s)
		}

		reports, err := Sweep(context.Background(), scenarios, 1000, 2)

		Expect(err).NotTo(HaveOccurred())
		Expect(reports).To(HaveLen(3))
		for i, rep := range reports {
			Expect(rep.Name).To(Equal(scenarios[i].Name))
			Expect(rep.VerifyFIFO()).To(Succeed())
		}
	})

	ginkgo.It("should report the first failing scenario", func() {
		bad := Uniform(smallConfig(1), 1, 4)
		bad.Latency = 0

		_, err := Sweep(context.Background(),
			[]Scenario{Uniform(smallConfig(1), 1, 4), bad}, 1000, 0)

		Expect(err).To(MatchError(ContainSubstring("scenario 1")))
	})
})
