package ringbuffer

import (
	"math"
	"testing"
)

func TestRingBuffer_PushAndOverwrite(t *testing.T) {
	rb := New[int](3)
	rb.Push(1)
	rb.Push(2)
	rb.Push(3)
	rb.Push(4) // evicts 1

	if rb.Len() != 3 {
		t.Fatalf("expected len 3, got %d", rb.Len())
	}

	got := rb.MakeContiguous()
	want := []int{2, 3, 4}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("index %d: expected %d, got %d", i, v, got[i])
		}
	}
}

func TestRingBuffer_LatestOldest(t *testing.T) {
	rb := New[int](2)
	if _, ok := rb.Latest(); ok {
		t.Error("expected no latest on empty buffer")
	}

	rb.Push(10)
	rb.Push(20)

	oldest, _ := rb.Oldest()
	latest, _ := rb.Latest()
	if oldest != 10 || latest != 20 {
		t.Errorf("expected oldest=10 latest=20, got oldest=%d latest=%d", oldest, latest)
	}

	rb.Push(30)
	oldest, _ = rb.Oldest()
	if oldest != 20 {
		t.Errorf("expected oldest to advance to 20, got %d", oldest)
	}
}

func TestStats(t *testing.T) {
	rb := New[float64](5)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		rb.Push(v)
	}

	stats := Stats(rb)
	if stats.Sum != 15 {
		t.Errorf("expected sum 15, got %v", stats.Sum)
	}
	if stats.Mean != 3 {
		t.Errorf("expected mean 3, got %v", stats.Mean)
	}
	if stats.Min != 1 || stats.Max != 5 {
		t.Errorf("expected min=1 max=5, got min=%v max=%v", stats.Min, stats.Max)
	}
}

func TestHandleCounterWrap_NoWrap(t *testing.T) {
	delta := HandleCounterWrap(100, 150)
	if delta != 50 {
		t.Errorf("expected delta 50, got %d", delta)
	}
}

func TestHandleCounterWrap_Wrapped(t *testing.T) {
	prev := uint64(math.MaxUint64 - 5)
	curr := uint64(10)
	delta := HandleCounterWrap(prev, curr)
	// distance from prev to max (5) + curr (10) + 1 = 16
	if delta != 16 {
		t.Errorf("expected delta 16, got %d", delta)
	}
}

func TestRatePerSec(t *testing.T) {
	rb := New[float64](10)
	rb.Push(100)
	rb.Push(150)

	rate, ok := RatePerSec(rb, 5)
	if !ok {
		t.Fatal("expected a rate")
	}
	if rate != 10 {
		t.Errorf("expected rate 10/s, got %v", rate)
	}
}
