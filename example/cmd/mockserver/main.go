// Standalone mock server for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/pulsewatch run --dry-run -c example/pulsewatch.toml
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
)

func main() {
	fmt.Println("Mock health server starting on :9999")
	fmt.Println("  GET  /health?svc=NAME          current status of NAME (200 unless set)")
	fmt.Println("  POST /status?svc=NAME&code=503 set the status NAME answers with")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var (
		codes = make(map[string]int)
		mu    sync.Mutex
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		code, ok := codes[r.URL.Query().Get("svc")]
		mu.Unlock()
		if !ok {
			code = http.StatusOK
		}
		w.WriteHeader(code)
	})
	mux.HandleFunc("POST /status", func(w http.ResponseWriter, r *http.Request) {
		svc := r.URL.Query().Get("svc")
		code, err := strconv.Atoi(r.URL.Query().Get("code"))
		if err != nil || code < 100 || code > 599 {
			http.Error(w, "code must be an HTTP status between 100 and 599", http.StatusBadRequest)
			return
		}

		mu.Lock()
		codes[svc] = code
		mu.Unlock()

		slog.Info("status set", "svc", svc, "code", code)
		w.WriteHeader(http.StatusNoContent)
	})

	if err := http.ListenAndServe(":9999", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
