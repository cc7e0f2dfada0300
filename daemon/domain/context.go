package domain

import "github.com/domalab/ttop/daemon/services/eventhub"

// Context carries process-wide dependencies down into kong's command
// tree.
type Context struct {
	Config       Config
	ConfigPath   string
	CLIOverrides map[string]interface{} // config keys set via CLI flags, highest precedence
	Hub          *eventhub.Hub
	BuildVersion string // binary build version (main.Version), distinct from Config.Version's config-schema version
}
