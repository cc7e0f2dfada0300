// Package collectors implements the concrete metric sources the scheduler
// drives: one Collector per OS subsystem (CPU, memory, network, disk,
// sensors, battery, pressure, GPU, containers, GPU processes, network
// connections, the large-file treemap, and Apple Silicon accelerators).
package collectors

import (
	"context"
	"time"

	"github.com/domalab/ttop/daemon/dto"
)

// Collector is the contract every metric source implements. While
// IsAvailable() reports false the scheduler does not collect from it; it
// re-probes IsAvailable() on a slower cadence and resumes collection once
// the source appears.
type Collector interface {
	ID() string
	DisplayName() string
	Collect(ctx context.Context) (dto.Metrics, error)
	IsAvailable() bool
	IntervalHint() time.Duration
}

// Priority buckets a collector's default cadence by how expensive its
// source is to sample.
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityMedium
	PriorityLow
)

// Interval returns the default cadence for a priority tier.
func (p Priority) Interval() time.Duration {
	switch p {
	case PriorityHigh:
		return time.Second
	case PriorityMedium:
		return 5 * time.Second
	case PriorityLow:
		return 30 * time.Second
	default:
		return 5 * time.Second
	}
}
