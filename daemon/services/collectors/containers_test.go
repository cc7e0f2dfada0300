package collectors

import "testing"

func TestParsePercentField(t *testing.T) {
	if got := parsePercentField("12.34%"); got != 12.34 {
		t.Errorf("parsePercentField(12.34%%) = %v, want 12.34", got)
	}
	if got := parsePercentField("garbage"); got != 0 {
		t.Errorf("parsePercentField(garbage) = %v, want 0", got)
	}
}

func TestParseMemUsage(t *testing.T) {
	used, limit := parseMemUsage("123.4MiB / 1.953GiB")
	if used != 123.4*1024*1024 {
		t.Errorf("used = %v, want %v", used, 123.4*1024*1024)
	}
	if limit != 1.953*1024*1024*1024 {
		t.Errorf("limit = %v, want %v", limit, 1.953*1024*1024*1024)
	}

	if used, limit := parseMemUsage("malformed"); used != 0 || limit != 0 {
		t.Errorf("malformed usage = %v/%v, want 0/0", used, limit)
	}
}

func TestSanitizeMetricKey(t *testing.T) {
	if got := sanitizeMetricKey(" my-container.v2 "); got != "my_container_v2" {
		t.Errorf("sanitizeMetricKey = %q, want my_container_v2", got)
	}
}
