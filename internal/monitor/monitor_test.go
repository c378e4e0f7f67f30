package monitor_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jpalmerr/pulsewatch/internal/monitor"
)

func settings(notifyAfter, rereport int64) monitor.Settings {
	return monitor.Settings{
		SuccessInterval: time.Millisecond,
		FailInterval:    time.Millisecond,
		Policy:          monitor.Policy{NotifyAfter: notifyAfter, RereportEvery: rereport},
	}
}

// stepN runs n iterations and returns the classified events.
func stepN(m *monitor.Monitor, n int) []monitor.Event {
	events := make([]monitor.Event, 0, n)
	for i := 0; i < n; i++ {
		ev, err := m.Step(context.Background())
		Expect(err).NotTo(HaveOccurred())
		events = append(events, ev)
	}
	return events
}

var _ = Describe("Monitor", func() {
	var (
		log      *slog.Logger
		prober   *scriptedProber
		notifier *recordingNotifier
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
		prober = &scriptedProber{}
		notifier = &recordingNotifier{}
	})

	Describe("New", func() {
		It("rejects an address that is not a URL", func() {
			_, err := monitor.New("not a url", settings(3, 5), prober, notifier, log)
			Expect(errors.Is(err, monitor.ErrInvalidURL)).To(BeTrue())
		})

		It("rejects a zero re-report interval at startup", func() {
			_, err := monitor.New("https://example.com", settings(3, 0), prober, notifier, log)
			Expect(err).To(HaveOccurred())
		})

		It("rejects non-positive intervals", func() {
			s := settings(1, 1)
			s.FailInterval = 0
			_, err := monitor.New("https://example.com", s, prober, notifier, log)
			Expect(err).To(MatchError(ContainSubstring("fail interval")))
		})

		It("requires a notifier", func() {
			_, err := monitor.New("https://example.com", settings(1, 1), prober, nil, log)
			Expect(err).To(MatchError(ContainSubstring("notifier")))
		})

		It("starts with zeroed counters", func() {
			m, err := monitor.New("https://example.com", settings(1, 1), prober, notifier, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.URL()).To(Equal("https://example.com"))
			Expect(m.State()).To(Equal(monitor.State{URL: "https://example.com"}))
		})
	})

	Describe("Step", func() {
		It("alerts at the threshold and every re-report, then on recovery", func() {
			prober.results = []probeResult{
				status(500), status(500), status(500), status(500),
				status(500), status(500), status(500), ok(),
			}
			m, err := monitor.New("https://a.example.com", settings(3, 5), prober, notifier, log)
			Expect(err).NotTo(HaveOccurred())

			events := stepN(m, 8)

			var notified []int64
			for _, ev := range events[:7] {
				if ev.Notified {
					notified = append(notified, ev.ConsecutiveFailures)
				}
			}
			Expect(notified).To(Equal([]int64{3, 5}))
			Expect(events[7].Recovered).To(BeTrue())
			Expect(events[7].Notified).To(BeTrue())

			Expect(notifier.Messages()).To(Equal([]string{
				"https://a.example.com: status 500 Internal Server Error, failures: 3, successes: 0",
				"https://a.example.com: status 500 Internal Server Error, failures: 5, successes: 0",
				"https://a.example.com recovered",
			}))
			Expect(m.State().ConsecutiveFailures).To(BeZero())
		})

		It("alerts on the very first failure when the threshold is 1", func() {
			prober.results = []probeResult{status(502)}
			m, err := monitor.New("https://b.example.com", settings(1, 10), prober, notifier, log)
			Expect(err).NotTo(HaveOccurred())

			ev := stepN(m, 1)[0]
			Expect(ev.Notified).To(BeTrue())
			Expect(ev.ConsecutiveFailures).To(Equal(int64(1)))
			Expect(notifier.Messages()).To(HaveLen(1))
		})

		It("sends exactly one alert and one recovery after two transport errors", func() {
			prober.results = []probeResult{transport("connection refused"), transport("connection refused"), ok()}
			m, err := monitor.New("https://c.example.com", settings(2, 5), prober, notifier, log)
			Expect(err).NotTo(HaveOccurred())

			stepN(m, 3)

			Expect(notifier.Messages()).To(Equal([]string{
				"https://c.example.com: connection refused, failures: 2, successes: 0",
				"https://c.example.com recovered",
			}))
		})

		It("keeps counting when delivery fails", func() {
			notifier.err = errors.New("telegram unavailable")
			prober.results = []probeResult{status(500), status(500), ok()}
			m, err := monitor.New("https://d.example.com", settings(1, 1), prober, notifier, log)
			Expect(err).NotTo(HaveOccurred())

			events := stepN(m, 3)

			Expect(events[0].Notified).To(BeTrue())
			Expect(events[0].Delivered).To(BeFalse())
			Expect(events[1].ConsecutiveFailures).To(Equal(int64(2)))
			Expect(events[2].Recovered).To(BeTrue())
			Expect(prober.Calls()).To(Equal(3))
			Expect(notifier.Messages()).To(HaveLen(3))
		})

		It("recovers a panicking notifier and logs a correlation ID", func() {
			var buf bytes.Buffer
			log = slog.New(slog.NewTextHandler(&buf, nil))
			notifier.panicMsg = "bot exploded"
			prober.results = []probeResult{status(500)}
			m, err := monitor.New("https://e.example.com", settings(1, 1), prober, notifier, log)
			Expect(err).NotTo(HaveOccurred())

			ev := stepN(m, 1)[0]
			Expect(ev.Notified).To(BeTrue())
			Expect(ev.Delivered).To(BeFalse())
			Expect(buf.String()).To(ContainSubstring("correlation_id"))
			Expect(buf.String()).To(ContainSubstring("bot exploded"))
		})

		It("only announces alerted recoveries in quiet mode", func() {
			s := settings(3, 5)
			s.Policy.QuietRecovery = true
			prober.results = []probeResult{status(500), ok(), status(500), status(500), status(500), ok()}
			m, err := monitor.New("https://f.example.com", s, prober, notifier, log)
			Expect(err).NotTo(HaveOccurred())

			events := stepN(m, 6)

			Expect(events[1].Recovered).To(BeTrue())
			Expect(events[1].Notified).To(BeFalse())
			Expect(events[5].Notified).To(BeTrue())
			Expect(notifier.Messages()).To(HaveLen(2))
		})

		It("keeps quiet about recoveries whose failure alert was never delivered", func() {
			s := settings(1, 5)
			s.Policy.QuietRecovery = true
			notifier.err = errors.New("chat not found")
			prober.results = []probeResult{status(502), ok()}
			m, err := monitor.New("https://f2.example.com", s, prober, notifier, log)
			Expect(err).NotTo(HaveOccurred())

			events := stepN(m, 2)

			Expect(events[0].Notified).To(BeTrue())
			Expect(events[0].Delivered).To(BeFalse())
			Expect(events[1].Recovered).To(BeTrue())
			Expect(events[1].EpisodeAlerted).To(BeFalse())
			Expect(events[1].Notified).To(BeFalse())
		})

		It("passes every event to the hook", func() {
			var seen []monitor.Outcome
			s := settings(1, 1)
			s.OnEvent = func(ev monitor.Event) { seen = append(seen, ev.Outcome) }
			prober.results = []probeResult{ok(), status(404), transport("tls: handshake failure")}
			m, err := monitor.New("https://g.example.com", s, prober, notifier, log)
			Expect(err).NotTo(HaveOccurred())

			stepN(m, 3)
			Expect(seen).To(Equal([]monitor.Outcome{
				monitor.OutcomeSuccess,
				monitor.OutcomeBadStatus,
				monitor.OutcomeTransportError,
			}))
		})

		It("survives a panicking hook", func() {
			s := settings(1, 1)
			s.OnEvent = func(monitor.Event) { panic("hook") }
			m, err := monitor.New("https://h.example.com", s, prober, notifier, log)
			Expect(err).NotTo(HaveOccurred())

			Expect(func() { stepN(m, 2) }).NotTo(Panic())
		})
	})

	Describe("Run", func() {
		It("polls quickly while failing and slowly while healthy", func() {
			failing := &scriptedProber{}
			for i := 0; i < 1000; i++ {
				failing.results = append(failing.results, status(503))
			}
			healthy := &scriptedProber{}

			s := monitor.Settings{
				SuccessInterval: time.Hour,
				FailInterval:    5 * time.Millisecond,
				Policy:          monitor.Policy{NotifyAfter: 1, RereportEvery: 100},
			}
			fm, err := monitor.New("https://failing.example.com", s, failing, notifier, log)
			Expect(err).NotTo(HaveOccurred())
			hm, err := monitor.New("https://healthy.example.com", s, healthy, notifier, log)
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var wg sync.WaitGroup
			wg.Add(2)
			go func() { defer wg.Done(); _ = fm.Run(ctx) }()
			go func() { defer wg.Done(); _ = hm.Run(ctx) }()

			Eventually(failing.Calls).WithTimeout(2 * time.Second).Should(BeNumerically(">=", 5))
			Consistently(healthy.Calls).WithTimeout(100 * time.Millisecond).Should(Equal(1))

			cancel()
			wg.Wait()
		})

		It("stops promptly when the context is cancelled mid-sleep", func() {
			s := settings(1, 1)
			s.SuccessInterval = time.Hour
			m, err := monitor.New("https://example.com", s, prober, notifier, log)
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- m.Run(ctx) }()

			Eventually(prober.Calls).Should(Equal(1))
			cancel()
			Eventually(done).WithTimeout(time.Second).Should(Receive(BeNil()))
		})

		It("does not count a probe interrupted by shutdown as a failure", func() {
			var events []monitor.Event
			var mu sync.Mutex
			s := settings(1, 1)
			s.OnEvent = func(ev monitor.Event) {
				mu.Lock()
				events = append(events, ev)
				mu.Unlock()
			}
			m, err := monitor.New("https://slow.example.com", s, blockingProber{}, notifier, log)
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()
			Expect(m.Run(ctx)).To(Succeed())

			mu.Lock()
			defer mu.Unlock()
			Expect(events).To(BeEmpty())
			Expect(notifier.Messages()).To(BeEmpty())
		})
	})
})

// blockingProber waits for cancellation, like a request to a host that never answers.
type blockingProber struct{}

func (blockingProber) Probe(ctx context.Context, url string) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}
