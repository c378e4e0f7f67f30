package main

import (
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// mockState tracks the current HTTP status and next flip time for one service.
type mockState struct {
	statusIdx    int
	nextChangeAt time.Time
}

// StartMockHealthServer runs a mock health endpoint whose services flap
// between 200, 503 and a response slower than the probe timeout.
// Each service changes every 10-30 seconds.
func StartMockHealthServer(addr string) {
	var (
		states = make(map[string]*mockState)
		mu     sync.Mutex
	)
	statuses := []int{http.StatusOK, http.StatusServiceUnavailable, http.StatusOK, 0}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		svc := r.URL.Query().Get("svc")

		mu.Lock()
		state, exists := states[svc]
		if !exists {
			state = &mockState{
				nextChangeAt: time.Now().Add(time.Duration(10+rand.Intn(21)) * time.Second),
			}
			states[svc] = state
		}

		if time.Now().After(state.nextChangeAt) {
			old := statuses[state.statusIdx]
			state.statusIdx = (state.statusIdx + 1) % len(statuses)
			state.nextChangeAt = time.Now().Add(time.Duration(10+rand.Intn(21)) * time.Second)
			slog.Info("status change", "svc", svc, "from", old, "to", statuses[state.statusIdx])
		}
		status := statuses[state.statusIdx]
		mu.Unlock()

		if status == 0 {
			// hang past the probe timeout to produce a transport error
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			return
		}
		w.WriteHeader(status)
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
