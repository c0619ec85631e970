package metrics

import (
	"context"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Counter names used across the pipeline.
const (
	PushSent             = "push_sent"
	PushTransient        = "push_transient"
	PushCleaned          = "push_cleaned"
	NotificationsWritten = "notifications_written"
	DeliveryDropped      = "delivery_dropped"
)

// Accumulator is a process-owned counter set. It is injected into the
// components that report activity; there is deliberately no package-level
// instance.
type Accumulator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{counters: make(map[string]int64)}
}

// Add increments a named counter. Safe for concurrent use. A nil receiver is
// a no-op so components can run without metrics wired (tests).
func (a *Accumulator) Add(name string, n int64) {
	if a == nil {
		return
	}
	a.mu.Lock()
	a.counters[name] += n
	a.mu.Unlock()
}

// Flush returns the current counters and resets them to zero.
func (a *Accumulator) Flush() map[string]int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.counters
	a.counters = make(map[string]int64)
	return out
}

// Get returns the current value of one counter without resetting.
func (a *Accumulator) Get(name string) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counters[name]
}

// RunFlusher periodically flushes the accumulator to the log until ctx is
// cancelled. A final flush happens on shutdown.
func (a *Accumulator) RunFlusher(ctx context.Context, interval time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.logFlush(logger)
		case <-ctx.Done():
			a.logFlush(logger)
			return
		}
	}
}

func (a *Accumulator) logFlush(logger *log.Logger) {
	counters := a.Flush()
	if len(counters) == 0 {
		return
	}
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(name)
		b.WriteString("=")
		b.WriteString(strconv.FormatInt(counters[name], 10))
	}
	logger.Printf("metrics: %s", b.String())
}
