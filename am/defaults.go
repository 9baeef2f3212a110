package am

import (
	"fmt"

	"github.com/spf13/viper"
)

// Defaults for settings read outside a loaded Config
const (
	DefaultStorePath = "ldcs.db"
	DefaultLogTheme  = "everforest"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("compiler.proofs", true)
	v.SetDefault("compiler.persist_counters", true) // One program per session

	v.SetDefault("library.macros", []string{})
	v.SetDefault("library.preludes", []string{})

	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", DefaultStorePath)

	v.SetDefault("log.theme", DefaultLogTheme)
	v.SetDefault("log.json", false)
}

// BindEnvVars binds settings whose environment names do not follow the
// LDCS_SECTION_KEY pattern
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("store.path", "LDCS_STORE_PATH", "LDCS_DB")
}

// GetStorePath returns the macro store path (default: ldcs.db)
func (c *Config) GetStorePath() string {
	if c.Store.Path == "" {
		return DefaultStorePath
	}
	return c.Store.Path
}

// GetLogTheme returns the log theme (default: everforest)
func (c *Config) GetLogTheme() string {
	if c.Log.Theme == "" {
		return DefaultLogTheme
	}
	return c.Log.Theme
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Compiler: {Proofs: %t, PersistCounters: %t}, Store: %s, Macros: %d, Preludes: %d}",
		c.Compiler.Proofs, c.Compiler.PersistCounters, c.GetStorePath(), len(c.Library.Macros), len(c.Library.Preludes))
}
