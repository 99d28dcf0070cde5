package sink

import (
	"sync"

	v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"
	"github.com/ChrisCarter22/Cataloger/pkg/log"
)

// EventLogger is a thread-safe append-only log of cache events that can
// render a running summary and an error count.
type EventLogger struct {
	mu     sync.Mutex
	events []v1.CacheEvent
	log    log.PluggableLoggerInterface
}

// NewEventLogger builds an EventLogger writing through logger.
func NewEventLogger(logger log.PluggableLoggerInterface) *EventLogger {
	if logger == nil {
		logger = log.Noop()
	}
	return &EventLogger{log: logger}
}

func (e *EventLogger) Handle(event v1.CacheEvent) {
	e.mu.Lock()
	e.events = append(e.events, event)
	e.mu.Unlock()

	switch {
	case event.Error:
		e.log.Error("preview event error root=%d path=%s backend=%s msg=%s", event.RootID, event.RelativePath, event.Backend, event.ErrorMessage)
	case event.Hit:
		e.log.Info("preview cache hit root=%d path=%s tier=%s", event.RootID, event.RelativePath, event.Tier)
	default:
		e.log.Warn("preview cache miss root=%d path=%s backend=%s", event.RootID, event.RelativePath, event.Backend)
	}
}

// Summary is the rendered (hits, misses, errors, avg_gpu_ms) tuple.
type Summary struct {
	Hits      int
	Misses    int
	Errors    int
	AvgGpuMs  float64
}

// Summarize renders the current running summary.
func (e *EventLogger) Summarize() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()

	var s Summary
	var gpuTotal float64
	var gpuCount int
	for _, ev := range e.events {
		switch {
		case ev.Error:
			s.Errors++
		case ev.Hit:
			s.Hits++
		default:
			s.Misses++
		}
		if ev.GpuUploadMs > 0 {
			gpuTotal += ev.GpuUploadMs
			gpuCount++
		}
	}
	if gpuCount > 0 {
		s.AvgGpuMs = gpuTotal / float64(gpuCount)
	}
	return s
}

// ErrorCount returns the number of events recorded with Error = true.
func (e *EventLogger) ErrorCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := 0
	for _, ev := range e.events {
		if ev.Error {
			count++
		}
	}
	return count
}

// Events returns a copy of every event recorded so far.
func (e *EventLogger) Events() []v1.CacheEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]v1.CacheEvent, len(e.events))
	copy(out, e.events)
	return out
}
