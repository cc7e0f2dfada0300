package simd

import (
	"reflect"
	"testing"
)

func TestFindNewlines(t *testing.T) {
	buf := []byte("abc\ndef\nghij\n")
	offsets := FindNewlines(buf)
	want := []int{3, 7, 12}
	if !reflect.DeepEqual(offsets, want) {
		t.Errorf("expected %v, got %v", want, offsets)
	}
}

func TestFindNewlines_ScalarAndSWARAgree(t *testing.T) {
	buf := []byte("cpu  1234 0 5678 91011 0 0 12 0 0 0\ncpu0 100 0 200 300 0 0 1 0 0 0\n")
	scalar := findNewlinesScalar(buf)
	swar := findNewlinesSWAR(buf)
	if !reflect.DeepEqual(scalar, swar) {
		t.Errorf("scalar and SWAR disagree: scalar=%v swar=%v", scalar, swar)
	}
}

func TestParseIntegers(t *testing.T) {
	buf := []byte("cpu  1234 0 5678 91011")
	got := ParseIntegers(buf, 0, len(buf))
	want := []uint64{1234, 0, 5678, 91011}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDelta_NoWrap(t *testing.T) {
	prev := []uint64{10, 20, 30, 40, 50}
	curr := []uint64{15, 25, 35, 45, 60}
	got := Delta(prev, curr)
	want := []uint64{5, 5, 5, 5, 10}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestPercent(t *testing.T) {
	if p := Percent(50, 200); p != 25 {
		t.Errorf("expected 25, got %v", p)
	}
	if p := Percent(10, 0); p != 0 {
		t.Errorf("expected 0 for zero total, got %v", p)
	}
	if p := Percent(300, 100); p != 100 {
		t.Errorf("expected clamp to 100, got %v", p)
	}
}

func TestComputeStatistics(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	stats := ComputeStatistics(values)
	if stats.Sum != 45 {
		t.Errorf("expected sum 45, got %v", stats.Sum)
	}
	if stats.Min != 1 || stats.Max != 9 {
		t.Errorf("expected min=1 max=9, got min=%v max=%v", stats.Min, stats.Max)
	}
	if stats.Count != 9 {
		t.Errorf("expected count 9, got %d", stats.Count)
	}
	if stats.SumSq != 285 {
		t.Errorf("expected sum of squares 285, got %v", stats.SumSq)
	}
}

func TestComputeStatistics_Empty(t *testing.T) {
	stats := ComputeStatistics(nil)
	if stats.Sum != 0 || stats.Min != 0 || stats.Max != 0 || stats.Mean != 0 || stats.Count != 0 {
		t.Errorf("empty input should produce all-zero statistics, got %+v", stats)
	}
}

func TestStatistics_ScalarAndUnrolledAgree(t *testing.T) {
	values := []float64{3.5, -1.25, 8, 0, 2.75, 9.5, -4, 6, 1}
	scalar := statisticsScalar(values)
	unrolled := statisticsUnrolled(values)
	if scalar != unrolled {
		t.Errorf("scalar and unrolled disagree: %+v vs %+v", scalar, unrolled)
	}
}

func TestNormalize(t *testing.T) {
	values := []float64{0, 5, 10}
	got := Normalize(values)
	want := []float64{0, 0.5, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestNormalize_ConstantInput(t *testing.T) {
	values := []float64{7, 7, 7}
	got := Normalize(values)
	for _, v := range got {
		if v != 0 {
			t.Errorf("expected 0 for constant input, got %v", v)
		}
	}
}

func TestMultiKeySearch(t *testing.T) {
	buf := []byte("eth0: 123 456\nlo: 0 0\n")
	result := MultiKeySearch(buf, []string{"eth0", "lo", "missing"})
	if len(result["eth0"]) != 1 {
		t.Errorf("expected one eth0 match, got %v", result["eth0"])
	}
	if len(result["lo"]) != 1 {
		t.Errorf("expected one lo match, got %v", result["lo"])
	}
	if len(result["missing"]) != 0 {
		t.Errorf("expected no matches for missing key, got %v", result["missing"])
	}
}
