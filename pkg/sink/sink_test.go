package sink

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"
	"github.com/ChrisCarter22/Cataloger/pkg/log"
)

func TestEventLoggerSummary(t *testing.T) {
	l := NewEventLogger(log.Noop())
	l.Handle(v1.CacheEvent{Hit: true, Tier: v1.TierRam})
	l.Handle(v1.CacheEvent{Hit: false, Error: false, GpuUploadMs: 10})
	l.Handle(v1.CacheEvent{Hit: false, Error: true, ErrorMessage: "boom", GpuUploadMs: 30})

	s := l.Summarize()
	assert.Equal(t, 1, s.Hits)
	assert.Equal(t, 1, s.Misses)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 20.0, s.AvgGpuMs)
	assert.Equal(t, 1, l.ErrorCount())
}

func TestMockUISubscriberRecentWindow(t *testing.T) {
	m := NewMockUISubscriber(2)
	m.Handle(v1.CacheEvent{RelativePath: "a.jpg"})
	m.Handle(v1.CacheEvent{RelativePath: "b.jpg"})
	m.Handle(v1.CacheEvent{RelativePath: "c.jpg", Error: true})

	assert.Equal(t, 3, m.TotalEvents())
	assert.Equal(t, 1, m.ErrorEvents())
	assert.Equal(t, []string{"b.jpg", "c.jpg"}, m.RecentItems())
}

func TestNavigatorForwards(t *testing.T) {
	sub := NewMockUISubscriber(5)
	nav := NewNavigator(sub)
	nav.Handle(v1.CacheEvent{RelativePath: "a.jpg"})
	assert.Equal(t, 1, nav.Bound().TotalEvents())
}

func TestMulticastFansOutToAllSinks(t *testing.T) {
	l := NewEventLogger(log.Noop())
	m := NewMockUISubscriber(5)
	mc := NewMulticast(l, m)

	mc.Handle(v1.CacheEvent{RelativePath: "a.jpg", Hit: true})

	assert.Equal(t, 1, len(l.Events()))
	assert.Equal(t, 1, m.TotalEvents())
}

func TestMetricsRecorderHandlesEvent(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsRecorder(reg)

	m.Handle(v1.CacheEvent{Tier: v1.TierRam, Hit: true})
	m.Handle(v1.CacheEvent{Tier: v1.TierRam, Error: true, GpuUploadMs: 12})

	metricFamilies, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, metricFamilies)
}
