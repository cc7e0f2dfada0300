// Command ttop is a terminal-resident monitor that samples OS, GPU,
// container and network telemetry at sub-second cadence. This binary
// wires the CLI, configuration and collector scheduler together; the
// TUI renderer that consumes daemon/dto.Metrics and the ring-buffer
// history plugs in as a separate component.
package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/domalab/ttop/daemon/cmd"
	"github.com/domalab/ttop/daemon/domain"
	"github.com/domalab/ttop/daemon/logger"
	"github.com/domalab/ttop/daemon/services/collecterr"
	"github.com/domalab/ttop/daemon/services/eventhub"
)

// Version is set at build time via -ldflags "-X main.Version=...".
var Version = "dev"

var cli struct {
	LogsDir    string `default:"/var/log/ttop" help:"directory to store rotated logs"`
	ConfigPath string `default:"" help:"path to ttop.yaml configuration file"`
	Debug      bool   `help:"enable debug trace output"`

	// Config overrides: when given, a flag beats the TTOP_ environment and
	// the config file (nil means "not given", so env/file/default apply).
	UpdateMS    *int    `name:"update-ms" help:"global.update_ms in milliseconds (loaded and validated; collectors run at their own interval hints)"`
	HistorySize *int    `name:"history-size" help:"live history window in samples (overrides global.history_size)"`
	TempScale   *string `name:"temp-scale" help:"celsius, fahrenheit or kelvin (overrides global.temp_scale)"`
	VimKeys     *bool   `name:"vim-keys" help:"enable vim-style key bindings (overrides global.vim_keys)"`
	Mouse       *bool   `help:"enable mouse support (overrides global.mouse)"`
	Theme       *string `help:"color theme name (overrides theme)"`

	Run    cmd.Boot      `cmd:"" default:"1" help:"start sampling and run until interrupted"`
	Config cmd.ConfigCmd `cmd:"" help:"inspect the resolved configuration"`
}

// cliOverrides maps every config flag the user actually passed to its
// config key.
func cliOverrides() map[string]interface{} {
	overrides := make(map[string]interface{})
	if cli.UpdateMS != nil {
		overrides["global.update_ms"] = *cli.UpdateMS
	}
	if cli.HistorySize != nil {
		overrides["global.history_size"] = *cli.HistorySize
	}
	if cli.TempScale != nil {
		overrides["global.temp_scale"] = *cli.TempScale
	}
	if cli.VimKeys != nil {
		overrides["global.vim_keys"] = *cli.VimKeys
	}
	if cli.Mouse != nil {
		overrides["global.mouse"] = *cli.Mouse
	}
	if cli.Theme != nil {
		overrides["theme"] = *cli.Theme
	}
	return overrides
}

func main() {
	os.Exit(run())
}

// run parses the CLI, wires logging, and dispatches to the selected
// command, translating the error taxonomy into exit codes: 0 normal,
// 1 fatal config/I-O error, 2 platform unsupported.
func run() int {
	parser, err := kong.New(&cli, kong.Name("ttop"),
		kong.Description("Sub-second terminal telemetry monitor"))
	if err != nil {
		logger.Red("failed to build CLI parser: %v", err)
		return 1
	}

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		parser.FatalIfErrorf(err)
		return 1
	}

	if cli.Debug {
		logger.EnableDebugTrace()
	}

	if err := logger.SetupFileLogger(logger.FileLoggerConfig{
		Filename:   filepath.Join(cli.LogsDir, "ttop.log"),
		MaxSize:    5,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	}); err != nil {
		logger.Yellow("file logging disabled: %v", err)
	}

	runErr := kctx.Run(&domain.Context{
		Config:       domain.DefaultConfig(),
		ConfigPath:   cli.ConfigPath,
		CLIOverrides: cliOverrides(),
		Hub:          eventhub.New(),
		BuildVersion: Version,
	})
	if runErr == nil {
		return 0
	}

	logger.Red("ttop exiting: %v", runErr)

	var unsupported *collecterr.PlatformUnsupportedError
	if errors.As(runErr, &unsupported) {
		return 2
	}
	return 1
}
