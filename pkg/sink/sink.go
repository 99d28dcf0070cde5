// Package sink implements the CacheEvent subscriber contract (C10) and
// its reference observers: a logger, a mock UI subscriber/navigator, a
// Prometheus recorder, and a Redis pub/sub relay.
package sink

import v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"

// EventSink is any consumer of preview pipeline cache events. Sinks must
// tolerate concurrent invocation from multiple workers.
type EventSink interface {
	Handle(event v1.CacheEvent)
}

// Multicast fans one event out to every registered sink, so the Preview
// Service can hold a single list instead of knowing about any sink
// concretely.
type Multicast struct {
	sinks []EventSink
}

// NewMulticast builds a multicast sink over the given sinks.
func NewMulticast(sinks ...EventSink) *Multicast {
	return &Multicast{sinks: sinks}
}

// Add registers another sink.
func (m *Multicast) Add(s EventSink) {
	m.sinks = append(m.sinks, s)
}

func (m *Multicast) Handle(event v1.CacheEvent) {
	for _, s := range m.sinks {
		s.Handle(event)
	}
}
