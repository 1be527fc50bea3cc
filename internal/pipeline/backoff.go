package pipeline

import (
	"context"
	"time"
)

// Backoff describes the poll schedule for the extraction job as plain data:
// the delay grows by Factor each iteration, is capped at Max per iteration,
// and the whole wait is bounded by Deadline of wall-clock time.
type Backoff struct {
	Initial  time.Duration
	Factor   float64
	Max      time.Duration
	Deadline time.Duration
}

// Next returns the delay following cur.
func (b Backoff) Next(cur time.Duration) time.Duration {
	next := time.Duration(float64(cur) * b.Factor)
	if next > b.Max {
		next = b.Max
	}
	return next
}

// DefaultBackoff matches the extraction service's expected completion times:
// most statements finish within a minute, stragglers get four.
var DefaultBackoff = Backoff{
	Initial:  1500 * time.Millisecond,
	Factor:   1.5,
	Max:      8 * time.Second,
	Deadline: 4 * time.Minute,
}

// Clock abstracts time for the poll loop so the schedule can be tested with
// a fake clock.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SystemClock is the real wall clock.
var SystemClock Clock = systemClock{}
