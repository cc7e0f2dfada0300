// Package services wires the config loader, event hub, instrumentation
// registry, scheduler and collector set into the running daemon.
package services

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/domalab/ttop/daemon/domain"
	"github.com/domalab/ttop/daemon/dto"
	"github.com/domalab/ttop/daemon/logger"
	"github.com/domalab/ttop/daemon/services/collecterr"
	"github.com/domalab/ttop/daemon/services/collectors"
	"github.com/domalab/ttop/daemon/services/config"
	"github.com/domalab/ttop/daemon/services/eventhub"
	"github.com/domalab/ttop/daemon/services/instrumentation"
	"github.com/domalab/ttop/daemon/services/scheduler"
)

// Orchestrator owns the process-lifetime services: the config loader, the
// scheduler and its registered collectors, and the signal-driven shutdown
// sequence.
type Orchestrator struct {
	ctx       *domain.Context
	cfgSvc    *config.Service
	hub       *eventhub.Hub
	instr     *instrumentation.Registry
	scheduler *scheduler.Scheduler
}

// CreateOrchestrator builds an Orchestrator from the parsed CLI/config
// context. Collectors are registered but not started until Run.
func CreateOrchestrator(ctx *domain.Context) *Orchestrator {
	cfgSvc := config.NewService()
	if ctx.ConfigPath != "" {
		cfgSvc.UseFile(ctx.ConfigPath)
	}
	cfgSvc.ApplyOverrides(ctx.CLIOverrides)

	instr := instrumentation.NewRegistry()

	o := &Orchestrator{
		ctx:       ctx,
		cfgSvc:    cfgSvc,
		hub:       ctx.Hub,
		instr:     instr,
		scheduler: scheduler.New(ctx.Config, ctx.Hub, instr),
	}

	for _, c := range o.defaultCollectors() {
		o.scheduler.Register(c)
	}

	return o
}

// defaultCollectors returns one instance of every collector this daemon
// ships. A collector whose IsAvailable() probe fails is still registered;
// the scheduler keeps its loop on the slow re-probe cadence until the
// source shows up.
func (o *Orchestrator) defaultCollectors() []collectors.Collector {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "/"
	}
	return []collectors.Collector{
		collectors.NewCPUCollector(),
		collectors.NewMemoryCollector(),
		collectors.NewNetworkCollector(),
		collectors.NewDiskCollector(),
		collectors.NewSensorsCollector(),
		collectors.NewBatteryCollector(),
		collectors.NewPressureCollector(),
		collectors.NewGPUCollector(),
		collectors.NewGPUProcessesCollector(),
		collectors.NewContainersCollector(),
		collectors.NewConnectionsCollector(),
		collectors.NewTreemapCollector(home, 25, 6),
		collectors.NewAppleAcceleratorsCollector(),
	}
}

// Run loads the config (once; Watch takes over hot-reload afterward),
// starts the scheduler, and blocks until a shutdown signal arrives.
func (o *Orchestrator) Run() error {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		return &collecterr.PlatformUnsupportedError{Feature: "telemetry sources on " + runtime.GOOS}
	}

	logger.Blue("starting ttop %s (config schema v%d) ...", o.ctx.BuildVersion, o.ctx.Config.Version)

	cfg, err := o.cfgSvc.Load()
	if err != nil {
		return err
	}
	o.ctx.Config = cfg
	o.scheduler.SetHistorySize(cfg.Global.HistorySize)
	o.cfgSvc.Watch(func(updated domain.Config) {
		o.ctx.Config = updated
		o.scheduler.SetHistorySize(updated.Global.HistorySize)
	})

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.scheduler.Start(runCtx)

	w := make(chan os.Signal, 1)
	signal.Notify(w, syscall.SIGTERM, syscall.SIGINT)
	sig := <-w
	logger.Blue("received %s signal. shutting down ttop ...", sig)

	o.scheduler.Stop()

	logger.Blue("ttop shutdown complete")
	return nil
}

// Scheduler exposes the running scheduler to other commands (e.g. a
// future diagnostics command) that need snapshot/history access.
func (o *Orchestrator) Scheduler() *scheduler.Scheduler {
	return o.scheduler
}

// Snapshot returns every collector's most recent Metrics batch.
func (o *Orchestrator) Snapshot() map[string]dto.Metrics {
	return o.scheduler.Snapshot()
}

// History returns the live-tier history for one collector's metric as a
// contiguous oldest-first slice.
func (o *Orchestrator) History(collectorID, metricName string) []float64 {
	return o.scheduler.History(collectorID, metricName)
}

// Subscribe returns a channel that receives a collector's Metrics batch
// every time it completes a tick, the in-process push path an embedding
// renderer uses instead of polling Scheduler().Latest. The channel is
// unbuffered: while the caller is not reading, updates queue in the
// eventhub's per-topic buffer (see daemon/services/eventhub), and once
// that buffer is full the scheduler tick publishing the next update
// blocks until the caller reads.
func (o *Orchestrator) Subscribe(collectorID string) <-chan dto.Metrics {
	raw := o.hub.Subscribe(collectorID)
	out := make(chan dto.Metrics)
	go func() {
		defer close(out)
		for ev := range raw {
			upd, ok := ev.(eventhub.Update)
			if !ok || upd.Err != nil {
				continue
			}
			m, ok := o.scheduler.Latest(upd.CollectorID)
			if !ok {
				continue
			}
			out <- m
		}
	}()
	return out
}

// Instrumentation exposes the internal Prometheus registry (C13) for a
// caller that wants to inspect collector latency/failure counters
// in-process. This repository never registers an HTTP handler for it.
func (o *Orchestrator) Instrumentation() prometheus.Gatherer {
	return o.instr.Gatherer()
}
