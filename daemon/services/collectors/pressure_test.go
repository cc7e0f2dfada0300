package collectors

import "testing"

func TestClassifyPressure(t *testing.T) {
	cases := map[float64]PressureLevel{
		0:   PressureNone,
		4.9: PressureNone,
		5:   PressureLow,
		14:  PressureLow,
		15:  PressureMedium,
		39:  PressureMedium,
		40:  PressureHigh,
		69:  PressureHigh,
		70:  PressureCritical,
		100: PressureCritical,
	}
	for avg10, want := range cases {
		if got := ClassifyPressure(avg10); got != want {
			t.Errorf("ClassifyPressure(%v) = %v, want %v", avg10, got, want)
		}
	}
}

func TestParsePSILine(t *testing.T) {
	fields := []string{"avg10=1.50", "avg60=2.25", "avg300=0.10", "total=123456"}
	avgs := parsePSILine(fields)
	if avgs.avg10 != 1.50 {
		t.Errorf("expected avg10 1.50, got %v", avgs.avg10)
	}
	if avgs.avg60 != 2.25 {
		t.Errorf("expected avg60 2.25, got %v", avgs.avg60)
	}
	if avgs.total != 123456 {
		t.Errorf("expected total 123456, got %v", avgs.total)
	}
}
