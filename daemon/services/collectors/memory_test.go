package collectors

import "testing"

const meminfoFixture = "MemTotal:       16000000 kB\nMemFree:         4000000 kB\nMemAvailable:    8000000 kB\n"

func TestParseMeminfo(t *testing.T) {
	fields := parseMeminfo([]byte(meminfoFixture))

	if got, want := fields["MemTotal"], uint64(16000000); got != want {
		t.Errorf("MemTotal = %d, want %d", got, want)
	}
	if got, want := fields["MemFree"], uint64(4000000); got != want {
		t.Errorf("MemFree = %d, want %d", got, want)
	}
	if got, want := fields["MemAvailable"], uint64(8000000); got != want {
		t.Errorf("MemAvailable = %d, want %d", got, want)
	}
}

// TestParseMeminfo_CachedNotSwapCached guards the multi-key scan against
// matching "Cached:" inside the "SwapCached:" line that precedes it in a
// real /proc/meminfo.
func TestParseMeminfo_CachedNotSwapCached(t *testing.T) {
	fixture := "SwapCached:          100 kB\nCached:          2000000 kB\n"
	fields := parseMeminfo([]byte(fixture))

	if got, want := fields["Cached"], uint64(2000000); got != want {
		t.Errorf("Cached = %d, want %d", got, want)
	}
}

// TestMemoryScenario checks the byte totals and used.percent derived
// from a fixed meminfo fixture.
func TestMemoryScenario(t *testing.T) {
	fields := parseMeminfo([]byte(meminfoFixture))

	totalKB := fields["MemTotal"]
	availKB := fields["MemAvailable"]
	usedKB := totalKB - availKB

	if got, want := totalKB*1024, uint64(16_384_000_000); got != want {
		t.Errorf("total bytes = %d, want %d", got, want)
	}
	if got, want := availKB*1024, uint64(8_192_000_000); got != want {
		t.Errorf("available bytes = %d, want %d", got, want)
	}
	if got, want := usedKB*1024, uint64(8_192_000_000); got != want {
		t.Errorf("used bytes = %d, want %d", got, want)
	}

	pct := 100 * float64(usedKB) / float64(totalKB)
	if pct != 50.0 {
		t.Errorf("used.percent = %v, want 50.0", pct)
	}
}
