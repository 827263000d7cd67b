package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/logging"
)

// Dispatcher runs best-effort sends in the background. Tasks outlive the
// request that started them but are bounded by their own timeout.
// Wait drains outstanding tasks at shutdown.
type Dispatcher struct {
	timeout time.Duration
	logger  *logging.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher giving each task timeout to finish.
func NewDispatcher(timeout time.Duration, logger *logging.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Dispatcher{timeout: timeout, logger: logger}
}

// Go runs fn on a tracked goroutine. Request-scoped values in ctx are kept,
// its cancellation is not. After Wait has been called, fn runs inline.
func (d *Dispatcher) Go(ctx context.Context, name string, fn func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		defer cancel()
		d.run(ctx, name, fn)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer cancel()
		d.run(ctx, name, fn)
	}()
}

func (d *Dispatcher) run(ctx context.Context, name string, fn func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error(ctx, "notification task panicked",
				zap.String("task", name),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	fn(ctx)
}

// Wait stops accepting background tasks and blocks until outstanding ones
// finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for notifications: %w", ctx.Err())
	}
}
