package cmd

import (
	"github.com/domalab/ttop/daemon/domain"
	"github.com/domalab/ttop/daemon/services"
)

// Boot is the default kong command: build the orchestrator and run it
// until a shutdown signal arrives.
type Boot struct{}

func (b *Boot) Run(ctx *domain.Context) error {
	return services.CreateOrchestrator(ctx).Run()
}
