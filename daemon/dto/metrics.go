// Package dto holds the data transfer types collectors emit and the
// scheduler, store and correlation engine all share.
package dto

import (
	"fmt"
	"time"
)

// ValueKind tags which field of MetricValue is populated.
type ValueKind int

const (
	KindGauge ValueKind = iota
	KindCounter
	KindHistogram
	KindText
)

func (k ValueKind) String() string {
	switch k {
	case KindGauge:
		return "gauge"
	case KindCounter:
		return "counter"
	case KindHistogram:
		return "histogram"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// MetricValue is a tagged union over the four shapes a collected value can
// take. Exactly one of Gauge/Counter/Histogram/Text is meaningful,
// selected by Kind.
type MetricValue struct {
	Kind      ValueKind
	Gauge     float64
	Counter   uint64
	Histogram []float64
	Text      string
}

// NewGauge builds a gauge-kind value.
func NewGauge(v float64) MetricValue { return MetricValue{Kind: KindGauge, Gauge: v} }

// NewCounter builds a counter-kind value.
func NewCounter(v uint64) MetricValue { return MetricValue{Kind: KindCounter, Counter: v} }

// NewHistogram builds a histogram-kind value.
func NewHistogram(buckets []float64) MetricValue {
	return MetricValue{Kind: KindHistogram, Histogram: buckets}
}

// NewText builds a text-kind value.
func NewText(v string) MetricValue { return MetricValue{Kind: KindText, Text: v} }

// AsFloat returns the value coerced to float64 for gauge and counter kinds.
// It returns false for histogram and text kinds.
func (m MetricValue) AsFloat() (float64, bool) {
	switch m.Kind {
	case KindGauge:
		return m.Gauge, true
	case KindCounter:
		return float64(m.Counter), true
	default:
		return 0, false
	}
}

func (m MetricValue) String() string {
	switch m.Kind {
	case KindGauge:
		return fmt.Sprintf("%g", m.Gauge)
	case KindCounter:
		return fmt.Sprintf("%d", m.Counter)
	case KindHistogram:
		return fmt.Sprintf("histogram(%d buckets)", len(m.Histogram))
	case KindText:
		return m.Text
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler so MetricValue can be
// embedded in JSON/YAML output without a custom MarshalJSON.
func (m MetricValue) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Metrics is one collector's sample: a timestamp plus the named values it
// produced in that cycle.
type Metrics struct {
	CollectorID string
	Timestamp   time.Time
	Values      map[string]MetricValue
}

// NewMetrics creates an empty Metrics sample stamped with the given time.
func NewMetrics(collectorID string, ts time.Time) Metrics {
	return Metrics{
		CollectorID: collectorID,
		Timestamp:   ts,
		Values:      make(map[string]MetricValue),
	}
}

// Set records a value under the given name.
func (m *Metrics) Set(name string, v MetricValue) {
	m.Values[name] = v
}

// Float returns the named value coerced to float64, and whether it existed
// and was coercible.
func (m Metrics) Float(name string) (float64, bool) {
	v, ok := m.Values[name]
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}
