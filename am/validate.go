package am

import "github.com/teranos/ldcs/errors"

var validThemes = map[string]bool{
	"":           true,
	"everforest": true,
	"gruvbox":    true,
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Store.Enabled && c.Store.Path == "" {
		return errors.NewConfigError("store.path cannot be empty when the store is enabled")
	}

	if !validThemes[c.Log.Theme] {
		return errors.WithHint(
			errors.NewConfigError("log.theme %q is not a known theme", c.Log.Theme),
			"use everforest or gruvbox")
	}

	for _, path := range append(append([]string{}, c.Library.Macros...), c.Library.Preludes...) {
		if path == "" {
			return errors.NewConfigError("library entries cannot be empty paths")
		}
	}

	return nil
}
