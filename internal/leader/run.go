package leader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
)

// ErrLeaseLost is returned by Run when the lease could not be renewed
// within the renew deadline.
var ErrLeaseLost = errors.New("leader lease lost")

// Timing controls the election loop.
type Timing struct {
	// RenewDeadline is how long renewals may keep failing before leadership
	// is given up.
	RenewDeadline time.Duration
	// RetryPeriod is the interval between acquire and renew attempts.
	RetryPeriod time.Duration
}

// Run blocks until e acquires leadership, then calls lead with a context
// that is cancelled when leadership is lost or ctx ends. The lease is
// released after lead returns.
//
// Run returns lead's error, ErrLeaseLost, or nil after ctx ends.
func Run(ctx context.Context, e Elector, timing Timing, lead func(context.Context) error) error {
	logger := logr.FromContextOrDiscard(ctx).WithValues("identity", e.Identity())

	if err := waitForLease(ctx, e, timing.RetryPeriod, logger); err != nil {
		return err
	}
	logger.Info("acquired leadership")

	leadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- lead(leadCtx)
		cancel()
	}()

	lost := renewLoop(leadCtx, e, timing, logger)
	if lost {
		cancel()
	}
	leadErr := <-done

	releaseCtx, releaseCancel := context.WithTimeout(context.WithoutCancel(ctx), timing.RetryPeriod)
	defer releaseCancel()
	if err := e.Release(releaseCtx); err != nil {
		logger.Error(err, "failed to release leadership")
	} else {
		logger.Info("released leadership")
	}

	switch {
	case leadErr != nil:
		return leadErr
	case lost:
		return ErrLeaseLost
	default:
		return nil
	}
}

func waitForLease(ctx context.Context, e Elector, period time.Duration, logger logr.Logger) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		ok, err := e.Acquire(ctx)
		switch {
		case err != nil:
			logger.Error(err, "failed to acquire leadership, retrying")
		case ok:
			return nil
		default:
			logger.V(1).Info("lease held by another replica, waiting")
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("stopped waiting for leadership: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// renewLoop renews until ctx ends or renewals fail for longer than the
// renew deadline. Each attempt is bounded by what is left of the deadline,
// so a hung API call also ends leadership. It reports whether leadership
// was lost.
func renewLoop(ctx context.Context, e Elector, timing Timing, logger logr.Logger) bool {
	ticker := time.NewTicker(timing.RetryPeriod)
	defer ticker.Stop()

	lastRenew := time.Now()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}

		remaining := timing.RenewDeadline - time.Since(lastRenew)
		if remaining <= 0 {
			logger.Error(nil, "renew deadline exceeded")
			return true
		}
		attemptCtx, cancel := context.WithTimeout(ctx, remaining)
		err := e.Renew(attemptCtx)
		timedOut := attemptCtx.Err() != nil
		cancel()

		if err == nil && !timedOut {
			lastRenew = time.Now()
			continue
		}
		if ctx.Err() != nil {
			return false
		}
		if errors.Is(err, ErrNotLeader) {
			logger.Error(err, "lease taken over by another replica")
			return true
		}
		if timedOut {
			logger.Error(err, "renewal did not finish within the renew deadline")
			return true
		}
		logger.Error(err, "failed to renew leadership")
		if time.Since(lastRenew) > timing.RenewDeadline {
			return true
		}
	}
}
