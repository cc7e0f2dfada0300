// Package config loads domain.Config from defaults, a YAML file and
// TTOP_-prefixed environment variables, in that precedence order, and
// watches the file for changes via fsnotify.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/domalab/ttop/daemon/domain"
	"github.com/domalab/ttop/daemon/logger"
	"github.com/domalab/ttop/daemon/services/collecterr"
)

// Service loads and hot-reloads the application config.
type Service struct {
	viper        *viper.Viper
	configName   string
	explicitFile string
	onChange     func(domain.Config)
}

// NewService creates a config service that searches the current
// directory, /etc/ttop and $HOME/.ttop, then the given directories, for a
// file named ttop.yaml (or .yml/.json).
func NewService(searchPaths ...string) *Service {
	v := viper.New()

	s := &Service{
		viper:      v,
		configName: "ttop",
	}

	v.SetConfigName(s.configName)
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/ttop")
	v.AddConfigPath("$HOME/.ttop")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("TTOP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	defaults := domain.DefaultConfig()
	v.SetDefault("version", defaults.Version)
	v.SetDefault("global.update_ms", defaults.Global.UpdateMS)
	v.SetDefault("global.history_size", defaults.Global.HistorySize)
	v.SetDefault("global.temp_scale", defaults.Global.TempScale)
	v.SetDefault("global.vim_keys", defaults.Global.VimKeys)
	v.SetDefault("global.mouse", defaults.Global.Mouse)
	v.SetDefault("theme", defaults.Theme)

	return s
}

// UseFile pins the loader to one explicit file instead of the search
// paths. Unlike the searched case, a pinned file that is missing is an
// error: the user named it, so silently running on defaults would hide a
// typo.
func (s *Service) UseFile(path string) {
	s.explicitFile = path
	s.viper.SetConfigFile(path)
}

// SetOverride records a CLI-supplied value for a config key. viper ranks
// explicitly Set values above environment, file and defaults, which is
// exactly the CLI > env > file > defaults precedence this loader
// implements.
func (s *Service) SetOverride(key string, value interface{}) {
	s.viper.Set(key, value)
}

// ApplyOverrides records every entry of a CLI override map.
func (s *Service) ApplyOverrides(overrides map[string]interface{}) {
	for key, value := range overrides {
		s.SetOverride(key, value)
	}
}

// Load reads the config file (if any), applies environment overrides, and
// returns the resolved domain.Config. A missing file is not an error
// unless it was pinned with UseFile: the defaults and environment apply
// on their own.
func (s *Service) Load() (domain.Config, error) {
	if s.explicitFile != "" {
		if _, err := os.Stat(s.explicitFile); err != nil {
			return domain.Config{}, &collecterr.ConfigNotFoundError{Path: s.explicitFile}
		}
	}

	if err := s.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.LogConfigLoad("", true, "")
		} else {
			return domain.Config{}, &collecterr.ConfigParseError{
				Path:    s.viper.ConfigFileUsed(),
				Message: err.Error(),
			}
		}
	} else {
		logger.LogConfigLoad(s.viper.ConfigFileUsed(), true, "")
	}

	return s.decode()
}

// Watch starts watching the config file for changes, invoking fn with the
// freshly decoded config on every write. Safe to call once; subsequent
// calls replace the previous callback.
func (s *Service) Watch(fn func(domain.Config)) {
	s.onChange = fn
	s.viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := s.decode()
		if err != nil {
			logger.Warn("config reload failed: %v", err)
			return
		}
		logger.LogConfigLoad(e.Name, true, "")
		if s.onChange != nil {
			s.onChange(cfg)
		}
	})
	s.viper.WatchConfig()
}

func (s *Service) decode() (domain.Config, error) {
	var cfg domain.Config
	cfg.Version = s.viper.GetInt("version")
	cfg.Global.UpdateMS = s.viper.GetInt("global.update_ms")
	cfg.Global.HistorySize = s.viper.GetInt("global.history_size")
	cfg.Global.TempScale = s.viper.GetString("global.temp_scale")
	cfg.Global.VimKeys = s.viper.GetBool("global.vim_keys")
	cfg.Global.Mouse = s.viper.GetBool("global.mouse")
	cfg.Theme = s.viper.GetString("theme")

	if err := s.validate(cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

func (s *Service) validate(cfg domain.Config) error {
	switch cfg.Global.TempScale {
	case domain.TempScaleCelsius, domain.TempScaleFahrenheit, domain.TempScaleKelvin:
	default:
		return &collecterr.ConfigParseError{
			Path:    s.viper.ConfigFileUsed(),
			Message: fmt.Sprintf("invalid global.temp_scale: %q", cfg.Global.TempScale),
		}
	}
	if cfg.Global.UpdateMS <= 0 {
		return &collecterr.ConfigParseError{
			Path:    s.viper.ConfigFileUsed(),
			Message: fmt.Sprintf("global.update_ms must be positive, got %d", cfg.Global.UpdateMS),
		}
	}
	if cfg.Global.HistorySize <= 0 {
		return &collecterr.ConfigParseError{
			Path:    s.viper.ConfigFileUsed(),
			Message: fmt.Sprintf("global.history_size must be positive, got %d", cfg.Global.HistorySize),
		}
	}
	return nil
}

// ConfigFileUsed returns the path of the config file that was loaded, or
// empty if none was found.
func (s *Service) ConfigFileUsed() string {
	return s.viper.ConfigFileUsed()
}
