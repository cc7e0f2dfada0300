package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/domalab/ttop/daemon/domain"
	"github.com/domalab/ttop/daemon/services/config"
)

// ConfigCmd groups configuration inspection subcommands. Configuration is
// read-only: there is no Set/Generate subcommand, since nothing in this
// daemon persists config changes back to disk.
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" default:"1" help:"Show the resolved configuration"`
	Validate ConfigValidateCmd `cmd:"" help:"Load the configuration and report any errors without starting the scheduler"`
}

// ConfigShowCmd prints the configuration that would be used to start the
// daemon: defaults, overridden by file, overridden by TTOP_ environment
// variables, in that precedence order.
type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(ctx *domain.Context) error {
	svc := config.NewService()
	if ctx.ConfigPath != "" {
		svc.UseFile(ctx.ConfigPath)
	}
	svc.ApplyOverrides(ctx.CLIOverrides)
	cfg, err := svc.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if f := svc.ConfigFileUsed(); f != "" {
		fmt.Printf("# resolved from %s\n", f)
	} else {
		fmt.Printf("# no config file found, defaults/environment apply\n")
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}

// ConfigValidateCmd loads the configuration and reports success or the
// ConfigNotFound/ConfigParse error, without starting the scheduler.
type ConfigValidateCmd struct{}

func (c *ConfigValidateCmd) Run(ctx *domain.Context) error {
	svc := config.NewService()
	if ctx.ConfigPath != "" {
		svc.UseFile(ctx.ConfigPath)
	}
	svc.ApplyOverrides(ctx.CLIOverrides)
	if _, err := svc.Load(); err != nil {
		return err
	}
	if f := svc.ConfigFileUsed(); f != "" {
		fmt.Printf("ok: %s\n", f)
	} else {
		fmt.Printf("ok: no config file found, defaults/environment apply\n")
	}
	return nil
}
