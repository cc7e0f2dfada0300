package collectors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/domalab/ttop/daemon/common"
	"github.com/domalab/ttop/daemon/dto"
	"github.com/domalab/ttop/daemon/services/cache"
)

// ConnState mirrors /proc/net/tcp's st column, a hex-encoded TCP state.
type ConnState int

const (
	ConnEstablished ConnState = 0x01
	ConnSynSent     ConnState = 0x02
	ConnSynRecv     ConnState = 0x03
	ConnFinWait1    ConnState = 0x04
	ConnFinWait2    ConnState = 0x05
	ConnTimeWait    ConnState = 0x06
	ConnClose       ConnState = 0x07
	ConnCloseWait   ConnState = 0x08
	ConnLastAck     ConnState = 0x09
	ConnListen      ConnState = 0x0A
	ConnClosing     ConnState = 0x0B
)

func (s ConnState) String() string {
	switch s {
	case ConnEstablished:
		return "established"
	case ConnSynSent:
		return "syn_sent"
	case ConnSynRecv:
		return "syn_recv"
	case ConnFinWait1:
		return "fin_wait1"
	case ConnFinWait2:
		return "fin_wait2"
	case ConnTimeWait:
		return "time_wait"
	case ConnClose:
		return "close"
	case ConnCloseWait:
		return "close_wait"
	case ConnLastAck:
		return "last_ack"
	case ConnListen:
		return "listen"
	case ConnClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// connStateFromHex parses /proc/net/tcp's 2-digit hex state column.
func connStateFromHex(hex string) (ConnState, bool) {
	v, err := strconv.ParseInt(hex, 16, 32)
	if err != nil {
		return 0, false
	}
	return ConnState(v), true
}

// parseHexAddr decodes /proc/net/tcp's "AABBCCDD:PPPP" address column:
// the IPv4 address is hex in little-endian byte order (0100007F is
// 127.0.0.1), the port is hex in network order.
func parseHexAddr(s string) (ip string, port uint16, ok bool) {
	colon := strings.IndexByte(s, ':')
	if colon != 8 || len(s) < 13 {
		return "", 0, false
	}
	addr, err := strconv.ParseUint(s[:8], 16, 32)
	if err != nil {
		return "", 0, false
	}
	p, err := strconv.ParseUint(s[colon+1:], 16, 16)
	if err != nil {
		return "", 0, false
	}
	ip = fmt.Sprintf("%d.%d.%d.%d",
		byte(addr), byte(addr>>8), byte(addr>>16), byte(addr>>24))
	return ip, uint16(p), true
}

// procEntry is one process in the socket-owner arena.
type procEntry struct {
	pid  int
	name string
}

// inodeMap resolves a socket inode to its owning process. Entries live in
// a flat arena; the index maps inode to a position in it, so repeated
// inodes of one process share an entry instead of pointing back at each
// other.
type inodeMap struct {
	arena []procEntry
	index map[uint64]int
}

// lookup returns the process owning a socket inode.
func (m *inodeMap) lookup(inode uint64) (procEntry, bool) {
	i, ok := m.index[inode]
	if !ok {
		return procEntry{}, false
	}
	return m.arena[i], true
}

// buildInodeMap walks /proc/<pid>/fd/* resolving "socket:[inode]" links
// to their owning process. Processes that vanish mid-walk or deny fd
// access (other users' processes without CAP_SYS_PTRACE) are skipped.
func buildInodeMap(procRoot string) *inodeMap {
	m := &inodeMap{index: make(map[uint64]int)}

	procs, err := os.ReadDir(procRoot)
	if err != nil {
		return m
	}

	for _, p := range procs {
		pid, err := strconv.Atoi(p.Name())
		if err != nil {
			continue
		}
		fdDir := filepath.Join(procRoot, p.Name(), "fd")
		fds, err := os.ReadDir(fdDir)
		if err != nil {
			continue
		}

		arenaIdx := -1
		for _, fd := range fds {
			target, err := os.Readlink(filepath.Join(fdDir, fd.Name()))
			if err != nil {
				continue
			}
			if !strings.HasPrefix(target, "socket:[") || !strings.HasSuffix(target, "]") {
				continue
			}
			inode, err := strconv.ParseUint(target[8:len(target)-1], 10, 64)
			if err != nil {
				continue
			}
			if arenaIdx < 0 {
				name, _ := os.ReadFile(filepath.Join(procRoot, p.Name(), "comm"))
				m.arena = append(m.arena, procEntry{pid: pid, name: strings.TrimSpace(string(name))})
				arenaIdx = len(m.arena) - 1
			}
			m.index[inode] = arenaIdx
		}
	}
	return m
}

// ConnectionsCollector counts active TCP/UDP connections by state from
// /proc/net/tcp(6) and /proc/net/udp(6), the same source `ss`/`netstat`
// read from before the procfs format was considered legacy, and
// attributes sockets to processes via a /proc/*/fd walk.
type ConnectionsCollector struct {
	procRoot string
	paths    map[string]string
}

// NewConnectionsCollector constructs a ConnectionsCollector.
func NewConnectionsCollector() *ConnectionsCollector {
	return &ConnectionsCollector{
		procRoot: common.ProcDir,
		paths: map[string]string{
			"tcp":  common.ProcNetTCP,
			"tcp6": common.ProcNetTCP6,
			"udp":  common.ProcNetUDP,
			"udp6": common.ProcNetUDP6,
		},
	}
}

func (c *ConnectionsCollector) ID() string                  { return "connections" }
func (c *ConnectionsCollector) DisplayName() string         { return "Connections" }
func (c *ConnectionsCollector) IntervalHint() time.Duration { return PriorityMedium.Interval() }

func (c *ConnectionsCollector) IsAvailable() bool {
	_, err := os.Stat(c.paths["tcp"])
	return err == nil
}

func (c *ConnectionsCollector) Collect(ctx context.Context) (dto.Metrics, error) {
	now := time.Now()
	metrics := dto.NewMetrics(c.ID(), now)

	connCache := cache.GetConnectionsCache()
	if cached, ok := connCache.Get("counts"); ok {
		for name, v := range cached.(map[string]dto.MetricValue) {
			metrics.Set(name, v)
		}
		return metrics, nil
	}

	owners := buildInodeMap(c.procRoot)

	values := make(map[string]dto.MetricValue)
	totalEstablished := 0
	totalListen := 0
	owned := 0
	total := 0
	processes := make(map[int]struct{})

	for proto, path := range c.paths {
		conns := parseConnTable(path)
		counts := make(map[ConnState]int)
		for _, conn := range conns {
			counts[conn.state]++
			total++
			if owner, ok := owners.lookup(conn.inode); ok {
				owned++
				processes[owner.pid] = struct{}{}
			}
		}
		for state, n := range counts {
			values[proto+"_"+state.String()] = dto.NewCounter(uint64(n))
		}
		totalEstablished += counts[ConnEstablished]
		totalListen += counts[ConnListen]
	}

	values["established_total"] = dto.NewCounter(uint64(totalEstablished))
	values["listen_total"] = dto.NewCounter(uint64(totalListen))
	values["total"] = dto.NewCounter(uint64(total))
	values["with_process"] = dto.NewCounter(uint64(owned))
	values["process_count"] = dto.NewCounter(uint64(len(processes)))

	for name, v := range values {
		metrics.Set(name, v)
	}
	connCache.Set("counts", values)

	return metrics, nil
}

// connEntry is one parsed row of a /proc/net/{tcp,udp} table.
type connEntry struct {
	localIP   string
	localPort uint16
	state     ConnState
	inode     uint64
}

func parseConnTable(path string) []connEntry {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var out []connEntry
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if i == 0 {
			continue // header
		}
		fields := strings.Fields(line)
		if len(fields) < 10 {
			continue
		}
		// Columns: sl, local_address, rem_address, st, tx:rx, tr:tm, retrnsmt, uid, timeout, inode
		state, ok := connStateFromHex(fields[3])
		if !ok {
			continue
		}
		entry := connEntry{state: state}
		if ip, port, ok := parseHexAddr(fields[1]); ok {
			entry.localIP = ip
			entry.localPort = port
		}
		if inode, err := strconv.ParseUint(fields[9], 10, 64); err == nil {
			entry.inode = inode
		}
		out = append(out, entry)
	}
	return out
}
