package async

import (
	"context"
	"io"
	"log"
	"sync"
	"time"
)

// Dispatcher runs best-effort side effects off the request path. A dispatched
// task can never fail its parent operation: errors are logged and dropped.
// Drain waits for in-flight tasks during shutdown.
type Dispatcher struct {
	logger  *log.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// New creates a Dispatcher. Each task gets its own context with the given
// timeout, detached from the caller's request context.
func New(logger *log.Logger, timeout time.Duration) *Dispatcher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{logger: logger, timeout: timeout}
}

// Go schedules fn on its own goroutine. The caller never observes fn's error.
func (d *Dispatcher) Go(name string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			d.logger.Printf("side effect %s failed: %v", name, err)
		}
	}()
}

// Drain blocks until all in-flight tasks finish or ctx expires.
func (d *Dispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
