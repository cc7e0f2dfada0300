// Package scheduler drives every registered collector on its own cadence:
// one goroutine per collector, each ticking at the collector's hinted
// interval, feeding the shared latest-sample map and the per-series
// tiered stores. Collectors that fail repeatedly or lose their source are
// degraded onto a slower re-probe cadence instead of being retried hot.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/domalab/ttop/daemon/domain"
	"github.com/domalab/ttop/daemon/dto"
	"github.com/domalab/ttop/daemon/logger"
	"github.com/domalab/ttop/daemon/services/collecterr"
	"github.com/domalab/ttop/daemon/services/collectors"
	"github.com/domalab/ttop/daemon/services/correlate"
	"github.com/domalab/ttop/daemon/services/eventhub"
	"github.com/domalab/ttop/daemon/services/instrumentation"
	"github.com/domalab/ttop/daemon/services/tsstore"
)

// collectTimeout bounds a single collector run so a stuck subprocess
// never wedges that collector's tick loop indefinitely.
const collectTimeout = 10 * time.Second

// liveBlockSize is how many live samples a tiered store accumulates
// before compressing them into a Block.
const liveBlockSize = 64

// maxConsecutiveFailures is how many collect errors in a row flip a
// collector to unavailable, moving it onto the slower re-probe cadence.
const maxConsecutiveFailures = 5

// reprobeInterval is how often an unavailable collector's source is
// probed again. A source that reappears (a battery plugged in, a docker
// daemon started) resumes its normal cadence on the next probe.
const reprobeInterval = 30 * time.Second

// state tracks one registered collector's run history.
type state struct {
	collector    collectors.Collector
	lastRun      time.Time
	lastErr      error
	failureCount int
	available    bool
}

// Scheduler owns the registry of collectors, their most recent samples,
// and the tiered time-series store each metric feeds.
type Scheduler struct {
	mu     sync.RWMutex
	states []*state
	latest map[string]dto.Metrics

	storesMu sync.Mutex
	stores   map[string]*tsstore.Store

	hub   *eventhub.Hub
	instr *instrumentation.Registry

	historySize int
	maxBlocks   int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Scheduler sized from cfg.Global.HistorySize, publishing
// run events on hub and recording durations/failures in instr.
func New(cfg domain.Config, hub *eventhub.Hub, instr *instrumentation.Registry) *Scheduler {
	historySize := cfg.Global.HistorySize
	if historySize <= 0 {
		historySize = 300
	}
	return &Scheduler{
		latest:      make(map[string]dto.Metrics),
		stores:      make(map[string]*tsstore.Store),
		hub:         hub,
		instr:       instr,
		historySize: historySize,
		maxBlocks:   64,
	}
}

// Register adds a collector to the scheduler. Must be called before Start.
func (s *Scheduler) Register(c collectors.Collector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, &state{collector: c})
}

// Start launches one tick goroutine per registered collector. A collector
// whose initial availability probe fails still gets a loop, running on the
// slower re-probe cadence until its source appears.
func (s *Scheduler) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, st := range s.states {
		st.available = st.collector.IsAvailable()
		if !st.available {
			logger.LogCollectorUnavailable(st.collector.ID(), "IsAvailable returned false")
		}
		s.wg.Add(1)
		go s.runLoop(runCtx, st)
	}
}

// Stop cancels every tick loop and waits for them to exit, with a grace
// period so an in-flight subprocess-backed collector isn't torn down
// mid-run.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(collectTimeout + time.Second):
		logger.Warn("scheduler shutdown grace period exceeded, proceeding anyway")
	}
}

func (s *Scheduler) runLoop(ctx context.Context, st *state) {
	defer s.wg.Done()

	interval := st.collector.IntervalHint()
	if interval <= 0 {
		interval = collectors.PriorityMedium.Interval()
	}

	if s.availableNow(st) {
		s.runOnce(ctx, st)
	}

	timer := time.NewTimer(s.nextDelay(st, interval))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if s.availableNow(st) {
				s.runOnce(ctx, st)
			} else if st.collector.IsAvailable() {
				s.markAvailable(st)
				s.runOnce(ctx, st)
			}
			timer.Reset(s.nextDelay(st, interval))
		}
	}
}

// availableNow reads the collector's availability flag under the lock.
func (s *Scheduler) availableNow(st *state) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return st.available
}

// markAvailable transitions a degraded collector back to its normal
// cadence after a successful re-probe.
func (s *Scheduler) markAvailable(st *state) {
	s.mu.Lock()
	st.available = true
	st.failureCount = 0
	s.mu.Unlock()
	logger.Blue("collector %s became available, resuming normal cadence", st.collector.ID())
}

// nextDelay picks the sleep before the collector's next run: its own
// cadence while healthy, the slower re-probe interval while degraded.
func (s *Scheduler) nextDelay(st *state, interval time.Duration) time.Duration {
	if s.availableNow(st) {
		return interval
	}
	return reprobeInterval
}

func (s *Scheduler) runOnce(ctx context.Context, st *state) {
	runCtx, cancel := context.WithTimeout(ctx, collectTimeout)
	defer cancel()

	start := time.Now()
	metrics, err := st.collector.Collect(runCtx)
	duration := time.Since(start)

	s.mu.Lock()
	st.lastRun = start
	st.lastErr = err
	if err != nil {
		st.failureCount++
		var unavail *collecterr.CollectorUnavailableError
		if st.failureCount >= maxConsecutiveFailures || errors.As(err, &unavail) {
			st.available = false
		}
	} else {
		st.failureCount = 0
	}
	degraded := err != nil && !st.available
	s.mu.Unlock()

	if degraded {
		logger.LogCollectorUnavailable(st.collector.ID(),
			"too many consecutive failures, degrading to re-probe cadence")
	}

	if s.instr != nil {
		s.instr.ObserveRun(st.collector.ID(), duration, err)
	}

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
		logger.LogCollectorRun(st.collector.ID(), false, duration, errMsg)
	} else {
		logger.Trace("collector %s produced %d metrics in %s", st.collector.ID(), len(metrics.Values), duration)
		s.store(st.collector.ID(), metrics)
	}

	if s.hub != nil {
		s.hub.Publish(eventhub.Update{
			CollectorID: st.collector.ID(),
			Timestamp:   start,
			Err:         err,
		})
	}
}

func (s *Scheduler) store(collectorID string, metrics dto.Metrics) {
	s.mu.Lock()
	s.latest[collectorID] = metrics
	s.mu.Unlock()

	for name, v := range metrics.Values {
		f, ok := v.AsFloat()
		if !ok {
			continue
		}
		s.seriesStore(collectorID, name).Push(metrics.Timestamp, f)
	}
}

func (s *Scheduler) seriesStore(collectorID, metricName string) *tsstore.Store {
	key := collectorID + "." + metricName

	s.storesMu.Lock()
	defer s.storesMu.Unlock()

	if store, ok := s.stores[key]; ok {
		return store
	}
	store := tsstore.NewStore(s.historySize, liveBlockSize, time.Second, s.maxBlocks)
	s.stores[key] = store
	return store
}

// SetHistorySize resizes every existing series' live ring to n samples
// (keeping the most recent ones) and applies n to series created later.
// Called on config hot-reload when global.history_size changes.
func (s *Scheduler) SetHistorySize(n int) {
	if n <= 0 {
		return
	}

	s.storesMu.Lock()
	defer s.storesMu.Unlock()

	if n == s.historySize {
		return
	}
	s.historySize = n
	for _, store := range s.stores {
		store.ResizeLive(n)
	}
}

// Snapshot returns the most recent Metrics batch for every collector that
// has produced one, copied so the caller can iterate without holding the
// scheduler's lock.
func (s *Scheduler) Snapshot() map[string]dto.Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]dto.Metrics, len(s.latest))
	for id, m := range s.latest {
		out[id] = m
	}
	return out
}

// Latest returns the most recent sample a collector produced.
func (s *Scheduler) Latest(collectorID string) (dto.Metrics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.latest[collectorID]
	return m, ok
}

// Query returns the stored samples for one collector's metric between
// from and to, spanning the compressed blocks and the samples still
// pending compression.
func (s *Scheduler) Query(collectorID, metricName string, from, to time.Time) []tsstore.Sample {
	key := collectorID + "." + metricName

	s.storesMu.Lock()
	store, ok := s.stores[key]
	s.storesMu.Unlock()
	if !ok {
		return nil
	}
	return store.Query(from, to)
}

// History returns the live-tier values for one collector's metric,
// oldest-first, as one contiguous slice. Returns nil for a series that has
// never been stored.
func (s *Scheduler) History(collectorID, metricName string) []float64 {
	key := collectorID + "." + metricName

	s.storesMu.Lock()
	store, ok := s.stores[key]
	s.storesMu.Unlock()
	if !ok {
		return nil
	}
	return store.LiveValues()
}

// Correlations computes the Pearson coefficient across every stored series
// with at least minLen live samples and returns the k strongest pairs.
// Series are trimmed to the shortest participant's length, keeping the
// most recent samples, so one freshly-registered metric doesn't zero out
// every pair it appears in.
func (s *Scheduler) Correlations(k, minLen int) []correlate.Pair {
	if minLen < 2 {
		minLen = 2
	}

	s.storesMu.Lock()
	series := make(map[string][]float64, len(s.stores))
	shortest := 0
	for name, store := range s.stores {
		values := store.LiveValues()
		if len(values) < minLen {
			continue
		}
		series[name] = values
		if shortest == 0 || len(values) < shortest {
			shortest = len(values)
		}
	}
	s.storesMu.Unlock()

	for name, values := range series {
		if len(values) > shortest {
			series[name] = values[len(values)-shortest:]
		}
	}

	start := time.Now()
	pairs := correlate.Matrix(series)
	logger.LogCorrelation(len(series), time.Since(start))
	return correlate.TopCorrelations(pairs, k)
}

// Status reports a collector's last-run bookkeeping, for a diagnostics
// command or health check to surface.
type Status struct {
	CollectorID  string
	DisplayName  string
	Available    bool
	LastRun      time.Time
	LastErr      error
	FailureCount int
}

// Statuses returns the current bookkeeping for every registered collector.
func (s *Scheduler) Statuses() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Status, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, Status{
			CollectorID:  st.collector.ID(),
			DisplayName:  st.collector.DisplayName(),
			Available:    st.available,
			LastRun:      st.lastRun,
			LastErr:      st.lastErr,
			FailureCount: st.failureCount,
		})
	}
	return out
}
