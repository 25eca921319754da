// Package metrics registers named instruments on an OpenTelemetry meter and
// serves them to prometheus.
package metrics

import (
	"context"
	"sync"

	"github.com/hilthontt/townhall/infrastructure/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Manager creates instruments once and then updates them by name. Labels
// are given as alternating key, value pairs.
type Manager interface {
	NewCounter(name, desc string)
	NewUpDownCounter(name, desc string)
	NewHistogram(name, desc string, buckets ...float64)
	NewGauge(name, desc string)

	IncrementCounter(ctx context.Context, name string, labels ...string)
	DeltaUpDownCounter(ctx context.Context, name string, value float64, labels ...string)
	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
	SetGauge(name string, value float64, labels ...string)
}

type metricsManager struct {
	meter  metric.Meter
	logger *logger.Logger

	mu         sync.RWMutex
	counters   map[string]metric.Int64Counter
	upDowns    map[string]metric.Float64UpDownCounter
	histograms map[string]metric.Float64Histogram
	gauges     map[string]metric.Float64Gauge
}

func NewMetricsManager(meter metric.Meter, log *logger.Logger) Manager {
	return &metricsManager{
		meter:      meter,
		logger:     log,
		counters:   make(map[string]metric.Int64Counter),
		upDowns:    make(map[string]metric.Float64UpDownCounter),
		histograms: make(map[string]metric.Float64Histogram),
		gauges:     make(map[string]metric.Float64Gauge),
	}
}

func (m *metricsManager) NewCounter(name, desc string) {
	c, err := m.meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		m.logger.Error("failed to register counter", zap.String("name", name), zap.Error(err))
		return
	}
	m.mu.Lock()
	m.counters[name] = c
	m.mu.Unlock()
}

func (m *metricsManager) NewUpDownCounter(name, desc string) {
	c, err := m.meter.Float64UpDownCounter(name, metric.WithDescription(desc))
	if err != nil {
		m.logger.Error("failed to register up-down counter", zap.String("name", name), zap.Error(err))
		return
	}
	m.mu.Lock()
	m.upDowns[name] = c
	m.mu.Unlock()
}

func (m *metricsManager) NewHistogram(name, desc string, buckets ...float64) {
	opts := []metric.Float64HistogramOption{metric.WithDescription(desc)}
	if len(buckets) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(buckets...))
	}
	h, err := m.meter.Float64Histogram(name, opts...)
	if err != nil {
		m.logger.Error("failed to register histogram", zap.String("name", name), zap.Error(err))
		return
	}
	m.mu.Lock()
	m.histograms[name] = h
	m.mu.Unlock()
}

func (m *metricsManager) NewGauge(name, desc string) {
	g, err := m.meter.Float64Gauge(name, metric.WithDescription(desc))
	if err != nil {
		m.logger.Error("failed to register gauge", zap.String("name", name), zap.Error(err))
		return
	}
	m.mu.Lock()
	m.gauges[name] = g
	m.mu.Unlock()
}

func (m *metricsManager) IncrementCounter(ctx context.Context, name string, labels ...string) {
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("counter not registered", zap.String("name", name))
		return
	}
	c.Add(ctx, 1, metric.WithAttributes(attributes(labels)...))
}

func (m *metricsManager) DeltaUpDownCounter(ctx context.Context, name string, value float64, labels ...string) {
	m.mu.RLock()
	c, ok := m.upDowns[name]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("up-down counter not registered", zap.String("name", name))
		return
	}
	c.Add(ctx, value, metric.WithAttributes(attributes(labels)...))
}

func (m *metricsManager) RecordHistogram(ctx context.Context, name string, value float64, labels ...string) {
	m.mu.RLock()
	h, ok := m.histograms[name]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("histogram not registered", zap.String("name", name))
		return
	}
	h.Record(ctx, value, metric.WithAttributes(attributes(labels)...))
}

func (m *metricsManager) SetGauge(name string, value float64, labels ...string) {
	m.mu.RLock()
	g, ok := m.gauges[name]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("gauge not registered", zap.String("name", name))
		return
	}
	g.Record(context.Background(), value, metric.WithAttributes(attributes(labels)...))
}

// attributes pairs up labels; a trailing key without a value is dropped.
func attributes(labels []string) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(labels)/2)
	for i := 0; i+1 < len(labels); i += 2 {
		out = append(out, attribute.String(labels[i], labels[i+1]))
	}
	return out
}
