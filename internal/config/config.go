package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (MUGO_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: MUGO_ADMIN_PASS -> admin_pass,
	// MUGO_REMOTE_TOKEN -> remote.token.
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps an environment variable name to a config key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range []string{"remote_", "webhooks_", "log_"} {
		if strings.HasPrefix(key, section) {
			return strings.TrimSuffix(section, "_") + "." + strings.TrimPrefix(key, section)
		}
	}
	return key
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	// The file holds the admin password.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.SiteDir == "" {
		return fmt.Errorf("site_dir is required")
	}
	if c.MenuFile == "" {
		return fmt.Errorf("menu_file is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.AdminUser == "" || c.AdminPass == "" {
		return fmt.Errorf("admin_user and admin_pass are required")
	}
	if strings.Contains(c.AdminUser, ":") {
		return fmt.Errorf("admin_user must not contain ':'")
	}
	if strings.ContainsAny(c.Realm, "\"\r\n") {
		return fmt.Errorf("realm must not contain quotes or newlines")
	}
	if len([]rune(c.Currency)) > 3 {
		return fmt.Errorf("currency should be a symbol such as € or $, got %q", c.Currency)
	}
	if (c.Remote.Owner == "") != (c.Remote.Repo == "") {
		return fmt.Errorf("remote.owner and remote.repo must be set together")
	}
	if c.Remote.Enabled() && c.Remote.Path == "" {
		return fmt.Errorf("remote.path is required")
	}
	for _, raw := range c.Webhooks.URLs {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("webhooks.urls: %q is not an http(s) URL", raw)
		}
	}
	return nil
}

// MenuPath returns the menu file path, resolving menu_file against site_dir.
func (c *Config) MenuPath() string {
	if filepath.IsAbs(c.MenuFile) {
		return c.MenuFile
	}
	return filepath.Join(c.SiteDir, c.MenuFile)
}

// DatabasePath returns the path of the SQLite database in data_dir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "mugo.db")
}

// UsesDefaultPassword reports whether the admin password was never changed.
func (c *Config) UsesDefaultPassword() bool {
	return c.AdminPass == DefaultAdminPass
}
