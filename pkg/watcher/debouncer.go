package watcher

import (
	"context"
	"time"

	"github.com/tandberg/decycle/pkg/logging"
)

// Debouncer batches rapid file system events to avoid re-running analysis on
// every intermediate write of the snapshot
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

// run accumulates events until the input has been quiet for quietPeriod, or
// maxWait has elapsed since the first pending event
func (d *Debouncer) run(ctx context.Context) {
	var (
		timer        *time.Timer
		maxWaitTimer *time.Timer
		pending      []string
	)

	flush := func() {
		if len(pending) == 0 {
			return
		}

		logging.Debug("flushing accumulated events", "count", len(pending))
		d.output <- ChangeEvent{
			Paths:     pending,
			Timestamp: time.Now(),
		}
		pending = nil

		if timer != nil {
			timer.Stop()
		}
		if maxWaitTimer != nil {
			maxWaitTimer.Stop()
			maxWaitTimer = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}

			pending = append(pending, event.Paths...)

			// Reset quiet period timer
			if timer == nil {
				timer = time.NewTimer(d.quietPeriod)
			} else {
				timer.Reset(d.quietPeriod)
			}

			// Start max wait timer on first event
			if maxWaitTimer == nil {
				maxWaitTimer = time.NewTimer(d.maxWait)
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			flush()

		case <-func() <-chan time.Time {
			if maxWaitTimer != nil {
				return maxWaitTimer.C
			}
			return nil
		}():
			flush()
		}
	}
}
