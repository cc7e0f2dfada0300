package collectors

import "testing"

func TestParseANEPower(t *testing.T) {
	output := "Machine model: Mac14,2\n\n*** Power ***\nCPU Power: 450 mW\nANE Power: 123 mW\nGPU Power: 890 mW\n"
	if got := parseANEPower(output); got != 123 {
		t.Errorf("parseANEPower = %v, want 123", got)
	}
}

func TestParseANEPower_Absent(t *testing.T) {
	if got := parseANEPower("CPU Power: 450 mW\n"); got != 0 {
		t.Errorf("parseANEPower = %v, want 0 when the line is absent", got)
	}
}

func TestEstimateANEUtilization_Bounded(t *testing.T) {
	cases := map[float64]float64{
		0:     0,
		-5:    0,
		4000:  50,
		8000:  100,
		20000: 100, // clamped
	}
	for mw, want := range cases {
		if got := estimateANEUtilization(mw); got != want {
			t.Errorf("estimateANEUtilization(%v) = %v, want %v", mw, got, want)
		}
	}
}
