// Package config loads and persists ora's TOML configuration documents:
// the global config (registries, install defaults, aliases) and the
// security policy file.
package config

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/logging"
)

var log = logging.GetLogger("config")

// Trust levels for registries.
const (
	TrustPublic  = "public"
	TrustPrivate = "private"
)

// GlobalConfig is the top-level user configuration document.
type GlobalConfig struct {
	ConfigVersion            string            `toml:"config_version"`
	Registries               []RegistryEntry   `toml:"registries"`
	Install                  InstallDefaults   `toml:"install"`
	Security                 SecuritySettings  `toml:"security"`
	SuppressInsecureWarnings []string          `toml:"suppress_insecure_warnings"`
	Scraper                  ScraperSettings   `toml:"scraper"`
	Aliases                  map[string]string `toml:"aliases"`
}

// RegistryEntry describes one configured recipe registry.
type RegistryEntry struct {
	Name           string `toml:"name"`
	URL            string `toml:"url"`
	TrustLevel     string `toml:"trust_level"`
	Enabled        bool   `toml:"enabled"`
	TLSFingerprint string `toml:"tls_fingerprint,omitempty"`
	GPGKey         string `toml:"gpg_key,omitempty"`
	Branch         string `toml:"branch,omitempty"`
	RegistryDir    string `toml:"registry_dir,omitempty"`
	Priority       int    `toml:"priority,omitempty"`
}

// InstallDefaults holds defaults applied when flags are absent.
type InstallDefaults struct {
	DefaultMode string `toml:"default_mode"`
}

// SecuritySettings holds the global (non-policy-file) security switches.
type SecuritySettings struct {
	RequireChecksums  bool  `toml:"require_checksums"`
	RequireSignatures bool  `toml:"require_signatures"`
	MaxGitSizeMB      int64 `toml:"max_git_size_mb"`
}

// ScraperSettings configures the webpage scraper cache.
type ScraperSettings struct {
	TTLSeconds int64 `toml:"ttl_seconds"`
}

// DefaultGlobalConfig returns a fresh configuration at the current version.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		ConfigVersion: CurrentConfigVersion,
		Install:       InstallDefaults{DefaultMode: "userland"},
		Security: SecuritySettings{
			RequireChecksums: true,
			MaxGitSizeMB:     1024,
		},
		Scraper: ScraperSettings{TTLSeconds: 3600},
		Aliases: map[string]string{},
	}
}

// LoadGlobalConfig reads the global config at path. A missing file yields
// the defaults. A present file is migrated forward on load and rewritten
// if its version was stale; a file from a newer release is refused.
func LoadGlobalConfig(path string) (GlobalConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultGlobalConfig(), nil
	}
	if err != nil {
		return GlobalConfig{}, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read config %s", path)
	}

	var cfg GlobalConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return GlobalConfig{}, errors.Wrapf(err, errors.ErrConfigParse, "malformed config %s", path)
	}
	if cfg.Aliases == nil {
		cfg.Aliases = map[string]string{}
	}

	migrated, err := migrateConfigVersion(&cfg)
	if err != nil {
		return GlobalConfig{}, err
	}
	if migrated {
		log.Info().Str("path", path).Str("version", cfg.ConfigVersion).Msg("Migrated global config")
		if err := SaveGlobalConfig(path, cfg); err != nil {
			return GlobalConfig{}, err
		}
	}

	return cfg, nil
}

// SaveGlobalConfig serializes cfg and replaces the file at path.
func SaveGlobalConfig(path string, cfg GlobalConfig) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to serialize config")
	}
	if err := ensureParentDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to write config %s", path)
	}
	return nil
}

// FindRegistry returns the entry with the given name.
func (c *GlobalConfig) FindRegistry(name string) (*RegistryEntry, bool) {
	for i := range c.Registries {
		if c.Registries[i].Name == name {
			return &c.Registries[i], true
		}
	}
	return nil, false
}

// EnabledRegistries returns enabled entries in configured order.
func (c *GlobalConfig) EnabledRegistries() []RegistryEntry {
	var out []RegistryEntry
	for _, r := range c.Registries {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// Validate checks the config for structural problems: duplicate registry
// names, empty URLs, unknown trust levels.
func (c *GlobalConfig) Validate() []error {
	var problems []error
	seen := map[string]bool{}
	for _, r := range c.Registries {
		if r.Name == "" {
			problems = append(problems, errors.New(errors.ErrConfigValid, "registry with empty name"))
			continue
		}
		if seen[r.Name] {
			problems = append(problems, errors.Newf(errors.ErrConfigValid, "duplicate registry %q", r.Name))
		}
		seen[r.Name] = true
		if r.URL == "" {
			problems = append(problems, errors.Newf(errors.ErrConfigValid, "registry %q has no URL", r.Name))
		}
		if r.TrustLevel != "" && r.TrustLevel != TrustPublic && r.TrustLevel != TrustPrivate {
			problems = append(problems, errors.Newf(errors.ErrConfigValid,
				"registry %q has unknown trust level %q", r.Name, r.TrustLevel))
		}
	}
	return problems
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create directory %s", dir)
	}
	return nil
}
