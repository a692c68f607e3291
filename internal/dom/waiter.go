package dom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	DefaultTimeout  = 15 * time.Second
	DefaultInterval = 500 * time.Millisecond
)

var ErrNotFound = errors.New("element not found")

type NotFoundError struct {
	Selector string
	Timeout  time.Duration
	// Err is the last error a check returned, if any.
	Err error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("element not found: %s (waited %s)", e.Selector, e.Timeout)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NotFoundError) Unwrap() error { return e.Err }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Check tests a readiness condition once.
type Check func(ctx context.Context) (Element, bool, error)

type Waiter struct {
	page     Page
	timeout  time.Duration
	interval time.Duration
	clock    clockwork.Clock
}

type Option func(*Waiter)

func WithTimeout(d time.Duration) Option {
	return func(w *Waiter) { w.timeout = d }
}

func WithInterval(d time.Duration) Option {
	return func(w *Waiter) { w.interval = d }
}

func WithClock(c clockwork.Clock) Option {
	return func(w *Waiter) { w.clock = c }
}

func NewWaiter(page Page, opts ...Option) *Waiter {
	w := &Waiter{
		page:     page,
		timeout:  DefaultTimeout,
		interval: DefaultInterval,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WaitFor resolves the first element matching loc, polling until the
// waiter's default timeout.
func (w *Waiter) WaitFor(ctx context.Context, loc Locator) (Element, error) {
	return w.WaitForWithin(ctx, loc, w.timeout)
}

func (w *Waiter) WaitForWithin(ctx context.Context, loc Locator, timeout time.Duration) (Element, error) {
	return w.Poll(ctx, loc.Expr, timeout, func(ctx context.Context) (Element, bool, error) {
		return First(ctx, w.page, loc)
	})
}

// Poll runs check immediately and then once per interval until it reports
// a match or the accumulated polling time reaches timeout. A timeout <= 0
// uses the waiter's default.
func (w *Waiter) Poll(ctx context.Context, selector string, timeout time.Duration, check Check) (Element, error) {
	if timeout <= 0 {
		timeout = w.timeout
	}

	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	var lastErr error
	attempt := func() (Element, bool) {
		el, ok, err := check(ctx)
		if err != nil {
			lastErr = err
			slog.Debug("Check failed, retrying", "selector", selector, "error", err)
			return Element{}, false
		}
		return el, ok
	}

	if el, ok := attempt(); ok {
		return el, nil
	}

	var elapsed time.Duration
	for {
		select {
		case <-ctx.Done():
			return Element{}, ctx.Err()
		case <-ticker.Chan():
			if el, ok := attempt(); ok {
				return el, nil
			}
			elapsed += w.interval
			if elapsed >= timeout {
				return Element{}, &NotFoundError{Selector: selector, Timeout: timeout, Err: lastErr}
			}
		}
	}
}
