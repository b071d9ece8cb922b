package health

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"grabarr/internal/logging"
)

// Check probes a single upstream service.
type Check func(ctx context.Context) error

// UnavailableError reports a service that stayed unreachable for the whole
// wait window.
type UnavailableError struct {
	Service string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("service %s unavailable: %v", e.Service, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// AwaitReady runs check until it succeeds, retrying every interval. Once the
// elapsed time reaches deadline the last error is returned wrapped in an
// UnavailableError. Cancellation of ctx aborts the wait.
func AwaitReady(ctx context.Context, check Check, service string, interval, deadline time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	start := time.Now()
	for {
		err := check(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return &UnavailableError{Service: service, Err: ctx.Err()}
		}
		elapsed := time.Since(start)
		if elapsed >= deadline {
			return &UnavailableError{Service: service, Err: err}
		}
		logger.Warn("service not ready, retrying",
			logging.String("service", service),
			logging.Duration("elapsed", elapsed.Round(time.Second)),
			logging.Duration("retry_in", interval),
			logging.Error(err))
		select {
		case <-ctx.Done():
			return &UnavailableError{Service: service, Err: ctx.Err()}
		case <-time.After(interval):
		}
	}
}
