package monitor_test

import (
	"errors"
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jpalmerr/pulsewatch/internal/monitor"
)

var _ = Describe("State", func() {
	var (
		state monitor.State
		now   time.Time
	)

	BeforeEach(func() {
		state = monitor.State{URL: "https://example.com/health"}
		now = time.Now()
	})

	Describe("Observe", func() {
		It("produces no message for a plain success", func() {
			ev := state.Observe(200, nil, now)

			Expect(ev.Outcome).To(Equal(monitor.OutcomeSuccess))
			Expect(ev.Reportable()).To(BeFalse())
			Expect(ev.Recovered).To(BeFalse())
			Expect(state.TotalSuccesses).To(Equal(int64(1)))
			Expect(state.ConsecutiveFailures).To(BeZero())
		})

		It("classifies any other status code as a bad status", func() {
			ev := state.Observe(503, nil, now)

			Expect(ev.Outcome).To(Equal(monitor.OutcomeBadStatus))
			Expect(ev.StatusCode).To(Equal(503))
			Expect(ev.Message).To(Equal("https://example.com/health: status 503 Service Unavailable, failures: 1, successes: 0"))
			Expect(state.ConsecutiveFailures).To(Equal(int64(1)))
			Expect(state.TotalFailures).To(Equal(int64(1)))
		})

		It("treats redirects and 204 as failures since only 200 is OK", func() {
			Expect(state.Observe(204, nil, now).Outcome).To(Equal(monitor.OutcomeBadStatus))
			Expect(state.Observe(301, nil, now).Outcome).To(Equal(monitor.OutcomeBadStatus))
			Expect(state.ConsecutiveFailures).To(Equal(int64(2)))
		})

		It("renders unknown status codes without a reason phrase", func() {
			ev := state.Observe(599, nil, now)
			Expect(ev.Message).To(ContainSubstring("status 599, failures: 1"))
		})

		It("classifies a transport error and embeds its description", func() {
			ev := state.Observe(0, errors.New("dial tcp: connection refused"), now)

			Expect(ev.Outcome).To(Equal(monitor.OutcomeTransportError))
			Expect(ev.Err).To(MatchError("dial tcp: connection refused"))
			Expect(ev.Message).To(Equal("https://example.com/health: dial tcp: connection refused, failures: 1, successes: 0"))
		})

		It("feeds transport errors and bad statuses into the same counter", func() {
			state.Observe(500, nil, now)
			state.Observe(0, errors.New("timeout"), now)
			ev := state.Observe(502, nil, now)

			Expect(ev.ConsecutiveFailures).To(Equal(int64(3)))
			Expect(ev.TotalFailures).To(Equal(int64(3)))
		})

		It("emits exactly one recovery and resets the consecutive count", func() {
			state.Observe(500, nil, now)
			state.Observe(500, nil, now)

			ev := state.Observe(200, nil, now)
			Expect(ev.Recovered).To(BeTrue())
			Expect(ev.Message).To(Equal("https://example.com/health recovered"))
			Expect(ev.ConsecutiveFailures).To(BeZero())
			Expect(ev.TotalSuccesses).To(Equal(int64(1)))
			Expect(ev.TotalFailures).To(Equal(int64(2)))

			again := state.Observe(200, nil, now)
			Expect(again.Recovered).To(BeFalse())
			Expect(again.Reportable()).To(BeFalse())
		})

		It("keeps one incident ID per failure episode", func() {
			first := state.Observe(500, nil, now)
			second := state.Observe(500, nil, now)
			Expect(first.IncidentID).NotTo(BeEmpty())
			Expect(second.IncidentID).To(Equal(first.IncidentID))

			recovery := state.Observe(200, nil, now)
			Expect(recovery.IncidentID).To(Equal(first.IncidentID))
			Expect(state.IncidentID).To(BeEmpty())

			next := state.Observe(500, nil, now)
			Expect(next.IncidentID).NotTo(Equal(first.IncidentID))
		})

		It("reports whether the closed episode was alerted", func() {
			state.Observe(500, nil, now)
			state.Alerted = true

			ev := state.Observe(200, nil, now)
			Expect(ev.EpisodeAlerted).To(BeTrue())
			Expect(state.Alerted).To(BeFalse())
		})
	})

	Describe("invariants over random outcome sequences", func() {
		It("holds the consecutive-failure and total-count invariants", func() {
			rng := rand.New(rand.NewSource(42))

			for i := 1; i <= 500; i++ {
				var ev monitor.Event
				switch rng.Intn(3) {
				case 0:
					ev = state.Observe(200, nil, now)
					Expect(state.ConsecutiveFailures).To(BeZero())
				case 1:
					ev = state.Observe(500+rng.Intn(5), nil, now)
					Expect(state.ConsecutiveFailures).To(BeNumerically(">", 0))
				default:
					ev = state.Observe(0, errors.New("reset by peer"), now)
					Expect(state.ConsecutiveFailures).To(BeNumerically(">", 0))
				}

				Expect(state.TotalFailures + state.TotalSuccesses).To(Equal(int64(i)))
				Expect(ev.ConsecutiveFailures).To(Equal(state.ConsecutiveFailures))
			}
		})
	})
})
