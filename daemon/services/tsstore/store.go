// Package tsstore implements the tiered time-series store: a live ring
// buffer of recent raw samples, plus delta-encoded, fixed-point-scaled
// compressed blocks that every sample is flushed into once a block's worth
// has accumulated.
package tsstore

import (
	"math"
	"sort"
	"time"

	"github.com/domalab/ttop/daemon/services/ringbuffer"
)

// scale is the fixed-point multiplier compressed blocks store values at,
// trading float precision below 1/1000 of a unit for a uint-friendly
// delta encoding.
const scale = 1000

// Sample is one timestamped reading.
type Sample struct {
	Timestamp time.Time
	Value     float64
}

// Block is a closed, delta-encoded run of samples. First holds the
// anchor value scaled to fixed point; Deltas holds each subsequent sample
// minus its predecessor, also scaled, so a flat signal compresses to a
// run of zeroes.
type Block struct {
	StartTime time.Time
	Interval  time.Duration
	First     int64
	Deltas    []int64
}

// Encode builds a Block from a contiguous run of raw samples, assumed to
// be evenly spaced at the given interval.
func Encode(samples []Sample, interval time.Duration) Block {
	if len(samples) == 0 {
		return Block{Interval: interval}
	}
	b := Block{
		StartTime: samples[0].Timestamp,
		Interval:  interval,
		First:     toFixed(samples[0].Value),
	}
	prev := b.First
	for _, s := range samples[1:] {
		v := toFixed(s.Value)
		b.Deltas = append(b.Deltas, v-prev)
		prev = v
	}
	return b
}

// Decode expands a Block back into samples.
func (b Block) Decode() []Sample {
	if b.StartTime.IsZero() && b.First == 0 && len(b.Deltas) == 0 {
		return nil
	}
	out := make([]Sample, 0, len(b.Deltas)+1)
	cur := b.First
	out = append(out, Sample{Timestamp: b.StartTime, Value: fromFixed(cur)})
	ts := b.StartTime
	for _, d := range b.Deltas {
		cur += d
		ts = ts.Add(b.Interval)
		out = append(out, Sample{Timestamp: ts, Value: fromFixed(cur)})
	}
	return out
}

// EndTime returns the timestamp of the block's last sample.
func (b Block) EndTime() time.Time {
	if len(b.Deltas) == 0 {
		return b.StartTime
	}
	return b.StartTime.Add(time.Duration(len(b.Deltas)) * b.Interval)
}

// toFixed rounds to the nearest fixed-point step; truncating here would
// double the worst-case reconstruction error from half a step to a full
// step.
func toFixed(v float64) int64   { return int64(math.Round(v * scale)) }
func fromFixed(v int64) float64 { return float64(v) / scale }

// Store holds one series' two tiers: a live ring buffer of the most
// recent raw samples, and delta-encoded compressed blocks holding every
// sample in runs of BlockSize (samples not yet in a block wait in
// pending). The oldest compressed block is evicted once MaxBlocks is exceeded
// (the retention policy this store applies in lieu of a size- or age-based
// policy: simplest to reason about, and bounds memory deterministically
// regardless of sample cadence).
type Store struct {
	MaxBlocks int
	BlockSize int
	Interval  time.Duration
	live      *ringbuffer.RingBuffer[Sample]
	pending   []Sample
	blocks    []Block
}

// NewStore creates a Store with the given live-window size (in samples),
// per-block sample count, sample interval, and retained-block cap.
func NewStore(liveWindow, blockSize int, interval time.Duration, maxBlocks int) *Store {
	if maxBlocks <= 0 {
		maxBlocks = 64
	}
	if liveWindow <= 0 {
		liveWindow = 300
	}
	return &Store{
		MaxBlocks: maxBlocks,
		BlockSize: blockSize,
		Interval:  interval,
		live:      ringbuffer.New[Sample](liveWindow),
	}
}

// Push appends a new sample to the live ring and the pending buffer,
// flushing a compressed block once BlockSize raw samples have accumulated.
func (s *Store) Push(ts time.Time, value float64) {
	sample := Sample{Timestamp: ts, Value: value}
	s.live.Push(sample)
	s.pending = append(s.pending, sample)

	if len(s.pending) >= s.BlockSize {
		s.flush()
	}
}

func (s *Store) flush() {
	block := Encode(s.pending, s.Interval)
	s.blocks = append(s.blocks, block)
	if len(s.blocks) > s.MaxBlocks {
		s.blocks = s.blocks[len(s.blocks)-s.MaxBlocks:]
	}

	s.pending = s.pending[:0]
}

// Query returns every sample (compressed and pending) whose timestamp
// falls within [from, to], merged in chronological order.
func (s *Store) Query(from, to time.Time) []Sample {
	var out []Sample

	for _, b := range s.blocks {
		if b.EndTime().Before(from) || b.StartTime.After(to) {
			continue
		}
		for _, sample := range b.Decode() {
			if !sample.Timestamp.Before(from) && !sample.Timestamp.After(to) {
				out = append(out, sample)
			}
		}
	}

	for _, sample := range s.pending {
		if sample.Timestamp.Before(from) || sample.Timestamp.After(to) {
			continue
		}
		out = append(out, sample)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// BlockCount returns the number of retained compressed blocks, mainly for
// tests asserting the eviction policy.
func (s *Store) BlockCount() int { return len(s.blocks) }

// Live returns the live-tier samples oldest-first as one contiguous slice.
func (s *Store) Live() []Sample { return s.live.MakeContiguous() }

// LiveValues returns just the live-tier values oldest-first, the shape the
// correlation engine and sparkline renderers consume.
func (s *Store) LiveValues() []float64 {
	samples := s.live.MakeContiguous()
	out := make([]float64, len(samples))
	for i, sample := range samples {
		out[i] = sample.Value
	}
	return out
}

// LiveLen returns how many samples the live tier currently holds.
func (s *Store) LiveLen() int { return s.live.Len() }

// ResizeLive replaces the live ring with one of the given capacity,
// carrying over the most recent min(n, LiveLen) samples in order.
func (s *Store) ResizeLive(n int) {
	if n <= 0 || n == s.live.Capacity() {
		return
	}
	resized := ringbuffer.New[Sample](n)
	samples := s.live.MakeContiguous()
	if len(samples) > n {
		samples = samples[len(samples)-n:]
	}
	for _, sample := range samples {
		resized.Push(sample)
	}
	s.live = resized
}
