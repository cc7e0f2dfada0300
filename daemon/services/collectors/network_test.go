package collectors

import (
	"testing"

	"github.com/domalab/ttop/daemon/services/simd"
)

const netDevFixture = `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo:   12345     100    0    0    0     0          0         0    12345     100    0    0    0     0       0          0
  eth0: 5000000    4000    2    1    0     0          0         0  3000000    2500    1    0    0     0       0          0
`

func TestParseNetDev(t *testing.T) {
	soa := simd.NewNetworkMetricsSoA(4)
	lanes := parseNetDev([]byte(netDevFixture), soa)

	if lanes != 2 {
		t.Fatalf("lanes = %d, want 2", lanes)
	}

	eth := -1
	for lane := 0; lane < lanes; lane++ {
		if soa.Names[lane] == "eth0" {
			eth = lane
		}
	}
	if eth < 0 {
		t.Fatal("eth0 not parsed")
	}

	if soa.RxBytes[eth] != 5000000 {
		t.Errorf("eth0 rx_bytes = %d, want 5000000", soa.RxBytes[eth])
	}
	if soa.TxBytes[eth] != 3000000 {
		t.Errorf("eth0 tx_bytes = %d, want 3000000", soa.TxBytes[eth])
	}
	if soa.RxErrors[eth] != 2 || soa.TxErrors[eth] != 1 {
		t.Errorf("eth0 errors = rx %d tx %d, want 2/1", soa.RxErrors[eth], soa.TxErrors[eth])
	}
	if soa.RxDropped[eth] != 1 {
		t.Errorf("eth0 rx_dropped = %d, want 1", soa.RxDropped[eth])
	}
}

func TestSaturatingSub(t *testing.T) {
	if got := saturatingSub(100, 150); got != 50 {
		t.Errorf("saturatingSub(100, 150) = %d, want 50", got)
	}
	// A counter going backwards clamps to zero, it does not reconstruct a
	// wraparound.
	if got := saturatingSub(150, 100); got != 0 {
		t.Errorf("saturatingSub(150, 100) = %d, want 0", got)
	}
}

func TestFindPrevLane(t *testing.T) {
	c := NewNetworkCollector()
	c.prev = simd.NewNetworkMetricsSoA(2)
	c.prev.Names[0] = "lo"
	c.prev.Names[1] = "eth0"
	c.prevLanes = 2

	if got := c.findPrevLane("eth0"); got != 1 {
		t.Errorf("findPrevLane(eth0) = %d, want 1", got)
	}
	if got := c.findPrevLane("wlan0"); got != -1 {
		t.Errorf("findPrevLane(wlan0) = %d, want -1", got)
	}
}
