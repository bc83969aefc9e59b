package config

import (
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/oradev/ora/pkg/errors"
)

// SecurityConfig holds every policy knob consulted by the hardened code
// paths. A missing file means defaults; a malformed file is a hard error,
// never a silent fallback, because it could hide a tampered policy.
type SecurityConfig struct {
	Network    NetworkPolicy    `toml:"network"`
	Extraction ExtractionPolicy `toml:"extraction"`
	Scripts    ScriptPolicy     `toml:"scripts"`
	Registries RegistryPolicy   `toml:"registries"`
	Validation ValidationPolicy `toml:"validation"`
	Resources  ResourcePolicy   `toml:"resources"`
}

// NetworkPolicy bounds outbound HTTP. Redirects are off by default; when
// enabled, every hop is re-validated against the same policy.
type NetworkPolicy struct {
	AllowedSchemes       []string `toml:"allowed_schemes"`
	BlockPrivateNetworks bool     `toml:"block_private_networks"`
	ValidateDNS          bool     `toml:"validate_dns"`
	AllowRedirects       bool     `toml:"allow_redirects"`
	MaxRedirects         int      `toml:"max_redirects"`
	MaxDownloadSize      int64    `toml:"max_download_size"`
	TimeoutSeconds       int      `toml:"timeout_seconds"`
}

// ExtractionPolicy bounds archive expansion.
type ExtractionPolicy struct {
	MaxFileSize       int64 `toml:"max_file_size"`
	MaxTotalSize      int64 `toml:"max_total_size"`
	MaxFileCount      int   `toml:"max_file_count"`
	MaxDirectoryDepth int   `toml:"max_directory_depth"`
	MaxPathLength     int   `toml:"max_path_length"`
}

// ScriptPolicy bounds post-install script execution.
type ScriptPolicy struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Shell          string `toml:"shell"`
}

// RegistryPolicy bounds registry git operations.
type RegistryPolicy struct {
	HTTPSOnly         bool     `toml:"https_only"`
	AllowedGitSchemes []string `toml:"allowed_git_schemes"`
	MaxGitSizeMB      int64    `toml:"max_git_size_mb"`
	GitTimeoutSeconds int      `toml:"git_timeout_seconds"`
}

// ValidationPolicy bounds template and pattern inputs.
type ValidationPolicy struct {
	MaxTemplateValueLength int `toml:"max_template_value_length"`
}

// ResourcePolicy bounds local resource consumption.
type ResourcePolicy struct {
	MaxCacheSizeMB int64 `toml:"max_cache_size_mb"`
}

// DefaultSecurityConfig returns the built-in conservative policy.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		Network: NetworkPolicy{
			AllowedSchemes:       []string{"http", "https"},
			BlockPrivateNetworks: true,
			ValidateDNS:          true,
			AllowRedirects:       false,
			MaxRedirects:         3,
			MaxDownloadSize:      2 << 30,
			TimeoutSeconds:       300,
		},
		Extraction: ExtractionPolicy{
			MaxFileSize:       1 << 30,
			MaxTotalSize:      5 << 30,
			MaxFileCount:      100000,
			MaxDirectoryDepth: 50,
			MaxPathLength:     4096,
		},
		Scripts: ScriptPolicy{
			TimeoutSeconds: 300,
			Shell:          "sh",
		},
		Registries: RegistryPolicy{
			HTTPSOnly:         true,
			AllowedGitSchemes: []string{"https"},
			MaxGitSizeMB:      1024,
			GitTimeoutSeconds: 300,
		},
		Validation: ValidationPolicy{
			MaxTemplateValueLength: 1024,
		},
		Resources: ResourcePolicy{
			MaxCacheSizeMB: 2048,
		},
	}
}

// LoadSecurityConfig reads the policy file at path. A missing file yields
// the defaults without writing anything.
func LoadSecurityConfig(path string) (SecurityConfig, error) {
	cfg := DefaultSecurityConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read security config %s", path)
	}

	// Unmarshal over the defaults so absent keys keep their default value.
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return DefaultSecurityConfig(), errors.Wrapf(err, errors.ErrConfigParse,
			"malformed security config %s", path)
	}

	log.Debug().Str("path", path).Msg("Loaded security config")
	return cfg, nil
}

// SaveSecurityConfig writes cfg to path, creating parent directories.
func SaveSecurityConfig(path string, cfg SecurityConfig) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to serialize security config")
	}
	if err := ensureParentDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to write security config %s", path)
	}
	return nil
}
