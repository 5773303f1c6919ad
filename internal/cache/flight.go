package cache

import (
	"context"
	"sync"
)

// Loader resolves a cache miss. It runs on its own context so that one
// waiter's cancellation does not abort a fetch other waiters still want.
type Loader func(ctx context.Context) (Entry, error)

// flight is the shared completion handle for one in-flight key. All
// callers that arrive during its lifetime observe the same outcome.
type flight struct {
	done    chan struct{}
	entry   Entry
	err     error
	waiters int
	cancel  context.CancelFunc
}

// flightGroup enforces at most one outbound request per key at any
// instant. Entries are removed on completion, success or failure, so
// failures are never sticky. The mutex is held only across map and
// counter operations, never across I/O.
type flightGroup struct {
	mu      sync.Mutex
	flights map[string]*flight
}

func newFlightGroup() *flightGroup {
	return &flightGroup{flights: make(map[string]*flight)}
}

// do coalesces concurrent calls per key. The first caller installs the
// flight and runs the loader; later callers wait on the shared handle.
// A waiter whose ctx is cancelled drops its interest immediately; when
// the last waiter leaves, the loader's context is cancelled and the key
// cleared without caching.
func (g *flightGroup) do(ctx context.Context, key string, loader Loader) (Entry, error) {
	g.mu.Lock()
	fl, ok := g.flights[key]
	if ok {
		fl.waiters++
		g.mu.Unlock()
		return g.wait(ctx, key, fl)
	}

	loadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	fl = &flight{done: make(chan struct{}), waiters: 1, cancel: cancel}
	g.flights[key] = fl
	g.mu.Unlock()

	go func() {
		entry, err := loader(loadCtx)

		g.mu.Lock()
		fl.entry, fl.err = entry, err
		// Guard against a newer flight installed after every waiter of
		// this one abandoned it.
		if g.flights[key] == fl {
			delete(g.flights, key)
		}
		g.mu.Unlock()

		close(fl.done)
		cancel()
	}()

	return g.wait(ctx, key, fl)
}

func (g *flightGroup) wait(ctx context.Context, key string, fl *flight) (Entry, error) {
	select {
	case <-fl.done:
		return fl.entry, fl.err
	case <-ctx.Done():
		g.mu.Lock()
		fl.waiters--
		abandoned := fl.waiters == 0
		if abandoned {
			// Last interested caller left: stop the loader and clear the
			// key so the next call starts fresh. The key may already hold
			// a successor flight if completion raced this cancellation;
			// that one must survive.
			if g.flights[key] == fl {
				delete(g.flights, key)
			}
		}
		g.mu.Unlock()
		if abandoned {
			fl.cancel()
		}
		return Entry{}, ctx.Err()
	}
}
