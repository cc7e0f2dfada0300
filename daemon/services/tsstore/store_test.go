package tsstore

import (
	"testing"
	"time"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	base := time.Now()
	interval := time.Second
	samples := []Sample{
		{Timestamp: base, Value: 1.234},
		{Timestamp: base.Add(interval), Value: 1.5},
		{Timestamp: base.Add(2 * interval), Value: 1.1},
	}

	block := Encode(samples, interval)
	decoded := block.Decode()

	if len(decoded) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(decoded))
	}
	// Round-to-nearest fixed point bounds the error at half a step.
	for i, s := range samples {
		if diff := decoded[i].Value - s.Value; diff > 0.0005 || diff < -0.0005 {
			t.Errorf("index %d: expected %v, got %v", i, s.Value, decoded[i].Value)
		}
	}
}

func TestStore_PushAndQuery(t *testing.T) {
	base := time.Now()
	store := NewStore(10, 4, time.Second, 8)

	for i := 0; i < 12; i++ {
		store.Push(base.Add(time.Duration(i)*time.Second), float64(i))
	}

	results := store.Query(base, base.Add(20*time.Second))
	if len(results) != 12 {
		t.Fatalf("expected 12 samples across live+blocks, got %d", len(results))
	}
	for i, s := range results {
		if s.Value != float64(i) {
			t.Errorf("index %d: expected value %d, got %v", i, i, s.Value)
		}
	}
}

// TestStore_CompressedRoundTrip pushes 100 trending samples through
// block_size 32 and checks every queried value comes back within the
// fixed-point tolerance.
func TestStore_CompressedRoundTrip(t *testing.T) {
	base := time.Unix(0, 0)
	store := NewStore(300, 32, time.Millisecond, 64)

	for i := 0; i < 100; i++ {
		store.Push(base.Add(time.Duration(i)*time.Millisecond), 50.0+0.1*float64(i))
	}

	if store.BlockCount() < 3 {
		t.Errorf("block count = %d, want >= 3", store.BlockCount())
	}

	results := store.Query(base, base.Add(100*time.Millisecond))
	if len(results) != 100 {
		t.Fatalf("query returned %d samples, want 100", len(results))
	}
	for i, s := range results {
		want := 50.0 + 0.1*float64(i)
		if diff := s.Value - want; diff > 0.001 || diff < -0.001 {
			t.Errorf("sample %d = %v, want within 0.001 of %v", i, s.Value, want)
		}
	}
}

func TestStore_LiveTier(t *testing.T) {
	base := time.Now()
	store := NewStore(4, 2, time.Second, 8)

	for i := 0; i < 6; i++ {
		store.Push(base.Add(time.Duration(i)*time.Second), float64(i))
	}

	// The live ring keeps the latest 4 samples even though blocks flushed.
	if store.LiveLen() != 4 {
		t.Fatalf("live len = %d, want 4", store.LiveLen())
	}
	values := store.LiveValues()
	want := []float64{2, 3, 4, 5}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("live[%d] = %v, want %v", i, values[i], want[i])
		}
	}
}

func TestStore_ResizeLive(t *testing.T) {
	base := time.Now()
	store := NewStore(8, 100, time.Second, 8)

	for i := 0; i < 8; i++ {
		store.Push(base.Add(time.Duration(i)*time.Second), float64(i))
	}

	store.ResizeLive(3)
	values := store.LiveValues()
	want := []float64{5, 6, 7}
	if len(values) != 3 {
		t.Fatalf("live len after shrink = %d, want 3", len(values))
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("live[%d] = %v, want %v", i, values[i], want[i])
		}
	}

	// Growing keeps everything already retained.
	store.ResizeLive(10)
	if got := store.LiveLen(); got != 3 {
		t.Errorf("live len after grow = %d, want 3", got)
	}
}

func TestStore_EvictByCount(t *testing.T) {
	base := time.Now()
	store := NewStore(4, 2, time.Second, 3)

	for i := 0; i < 20; i++ {
		store.Push(base.Add(time.Duration(i)*time.Second), float64(i))
	}

	if store.BlockCount() > 3 {
		t.Errorf("expected at most 3 retained blocks, got %d", store.BlockCount())
	}
}
