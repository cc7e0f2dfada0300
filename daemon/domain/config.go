package domain

// Config holds the application configuration loaded from ttop.yaml:
// version, global.*, theme. Version is the config-schema version
// (default 1), not the binary's build version (domain.Context.BuildVersion).
type Config struct {
	Version int          `yaml:"version" json:"version"`
	Global  GlobalConfig `yaml:"global" json:"global"`
	Theme   string       `yaml:"theme" json:"theme"`
}

// GlobalConfig holds the settings shared by the scheduler and the ring
// buffers every collector feeds.
type GlobalConfig struct {
	UpdateMS    int    `yaml:"update_ms" json:"update_ms"`
	HistorySize int    `yaml:"history_size" json:"history_size"`
	TempScale   string `yaml:"temp_scale" json:"temp_scale"`
	VimKeys     bool   `yaml:"vim_keys" json:"vim_keys"`
	Mouse       bool   `yaml:"mouse" json:"mouse"`
}

// Accepted values of GlobalConfig.TempScale.
const (
	TempScaleCelsius    = "celsius"
	TempScaleFahrenheit = "fahrenheit"
	TempScaleKelvin     = "kelvin"
)

// DefaultConfig returns the configuration used when no file or
// environment override is present.
func DefaultConfig() Config {
	return Config{
		Version: 1,
		Global: GlobalConfig{
			UpdateMS:    1000,
			HistorySize: 300,
			TempScale:   TempScaleCelsius,
			VimKeys:     true,
			Mouse:       true,
		},
		Theme: "default",
	}
}
