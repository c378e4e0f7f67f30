package probe

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Prober is anything that can probe a URL. It matches monitor.Prober.
type Prober interface {
	Probe(ctx context.Context, url string) (int, error)
}

// Limited caps the number of concurrent probes issued through it.
type Limited struct {
	next Prober
	sem  *semaphore.Weighted
}

// Limit wraps p so that at most n probes are in flight at once.
// If n is not positive, p is returned unchanged.
func Limit(p Prober, n int) Prober {
	if n <= 0 {
		return p
	}
	return &Limited{
		next: p,
		sem:  semaphore.NewWeighted(int64(n)),
	}
}

// Probe waits for a free slot, then delegates. Waiting observes ctx: a
// cancelled context returns its error without issuing a request.
func (l *Limited) Probe(ctx context.Context, url string) (int, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer l.sem.Release(1)

	return l.next.Probe(ctx, url)
}
