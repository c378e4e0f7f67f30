package monitor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jpalmerr/pulsewatch/internal/monitor"
)

func failureAt(n int64) monitor.Event {
	return monitor.Event{
		Outcome:             monitor.OutcomeBadStatus,
		Message:             "down",
		ConsecutiveFailures: n,
	}
}

var _ = Describe("Policy", func() {
	Describe("Validate", func() {
		It("accepts the smallest valid policy", func() {
			Expect(monitor.Policy{NotifyAfter: 1, RereportEvery: 1}.Validate()).To(Succeed())
		})

		It("rejects a zero re-report interval", func() {
			err := monitor.Policy{NotifyAfter: 3, RereportEvery: 0}.Validate()
			Expect(err).To(MatchError(ContainSubstring("re-report")))
		})

		It("rejects a zero threshold", func() {
			err := monitor.Policy{NotifyAfter: 0, RereportEvery: 5}.Validate()
			Expect(err).To(MatchError(ContainSubstring("notify-after")))
		})
	})

	Describe("ShouldNotify", func() {
		policy := monitor.Policy{NotifyAfter: 3, RereportEvery: 5}

		DescribeTable("failure episodes with threshold 3 and re-report 5",
			func(n int64, want bool) {
				Expect(policy.ShouldNotify(failureAt(n))).To(Equal(want))
			},
			Entry("1st failure", int64(1), false),
			Entry("2nd failure", int64(2), false),
			Entry("threshold edge", int64(3), true),
			Entry("4th failure", int64(4), false),
			Entry("re-report at 5", int64(5), true),
			Entry("6th failure", int64(6), false),
			Entry("re-report at 10", int64(10), true),
			Entry("re-report at 15", int64(15), true),
			Entry("13th failure", int64(13), false),
		)

		It("matches the threshold-or-modulo rule for every count", func() {
			for _, p := range []monitor.Policy{
				{NotifyAfter: 1, RereportEvery: 1},
				{NotifyAfter: 2, RereportEvery: 3},
				{NotifyAfter: 4, RereportEvery: 2},
				{NotifyAfter: 7, RereportEvery: 10},
			} {
				for n := int64(1); n <= 100; n++ {
					want := n == p.NotifyAfter || n%p.RereportEvery == 0
					Expect(p.ShouldNotify(failureAt(n))).To(Equal(want), "policy %+v count %d", p, n)
				}
			}
		})

		It("never notifies for a plain success", func() {
			ev := monitor.Event{Outcome: monitor.OutcomeSuccess}
			Expect(policy.ShouldNotify(ev)).To(BeFalse())
		})

		It("always notifies a recovery by default", func() {
			ev := monitor.Event{Outcome: monitor.OutcomeSuccess, Recovered: true, Message: "up"}
			Expect(policy.ShouldNotify(ev)).To(BeTrue())
		})

		Context("with quiet recovery", func() {
			quiet := monitor.Policy{NotifyAfter: 3, RereportEvery: 5, QuietRecovery: true}

			It("suppresses recoveries of episodes that were never alerted", func() {
				ev := monitor.Event{Outcome: monitor.OutcomeSuccess, Recovered: true, Message: "up"}
				Expect(quiet.ShouldNotify(ev)).To(BeFalse())
			})

			It("announces recoveries of alerted episodes", func() {
				ev := monitor.Event{Outcome: monitor.OutcomeSuccess, Recovered: true, EpisodeAlerted: true, Message: "up"}
				Expect(quiet.ShouldNotify(ev)).To(BeTrue())
			})
		})
	})
})
