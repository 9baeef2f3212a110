// Package am loads the ldcs configuration ("am" is the config file name, am.toml).
//
// Sources merge in precedence order: built-in defaults, /etc/ldcs/am.toml,
// ~/.ldcs/am.toml, the nearest project am.toml, then LDCS_* environment
// variables.
package am

// Config is the ldcs configuration
type Config struct {
	Compiler CompilerConfig `mapstructure:"compiler" toml:"compiler" yaml:"compiler" json:"compiler"`
	Library  LibraryConfig  `mapstructure:"library" toml:"library" yaml:"library" json:"library"`
	Store    StoreConfig    `mapstructure:"store" toml:"store" yaml:"store" json:"store"`
	Log      LogConfig      `mapstructure:"log" toml:"log" yaml:"log" json:"log"`
}

// CompilerConfig configures compilation
type CompilerConfig struct {
	Proofs          bool `mapstructure:"proofs" toml:"proofs" yaml:"proofs" json:"proofs"`                                         // Emit proof companion rules
	PersistCounters bool `mapstructure:"persist_counters" toml:"persist_counters" yaml:"persist_counters" json:"persist_counters"` // Keep predicate indices across commands of one session
}

// LibraryConfig lists .ldcs files loaded before any input
type LibraryConfig struct {
	Macros   []string `mapstructure:"macros" toml:"macros" yaml:"macros" json:"macros"`         // Each define registers a macro
	Preludes []string `mapstructure:"preludes" toml:"preludes" yaml:"preludes" json:"preludes"` // Compiled and prepended to output
}

// StoreConfig configures the persistent macro store
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled" yaml:"enabled" json:"enabled"`
	Path    string `mapstructure:"path" toml:"path" yaml:"path" json:"path"`
}

// LogConfig configures console logging
type LogConfig struct {
	Theme string `mapstructure:"theme" toml:"theme" yaml:"theme" json:"theme"` // gruvbox, everforest
	JSON  bool   `mapstructure:"json" toml:"json" yaml:"json" json:"json"`
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// Config file and directory names
const (
	ConfigFileName = "am.toml"
	UserDirName    = ".ldcs"
	SystemConfig   = "/etc/ldcs/am.toml"
	EnvPrefix      = "LDCS"
)
