// Package paths provides centralized path handling for ora.
// It implements XDG Base Directory specification compliance and
// provides a consistent API for all path operations in the codebase.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/oradev/ora/pkg/errors"
)

// Environment variable names
const (
	// EnvConfigDir overrides the XDG config directory for ora
	EnvConfigDir = "ORA_CONFIG_DIR"

	// EnvDataDir overrides the XDG data directory for ora
	EnvDataDir = "ORA_DATA_DIR"

	// EnvCacheDir overrides the XDG cache directory for ora
	EnvCacheDir = "ORA_CACHE_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Default directories and files
// IMPORTANT: These constants define ora's on-disk layout and are NOT
// user-configurable. They must remain consistent across installations so
// that existing state keeps resolving.
const (
	// OraDirName is the directory name for ora-specific files
	OraDirName = "ora"

	// GlobalConfigFile is the name of the global configuration file
	GlobalConfigFile = "config.toml"

	// SecurityConfigFile is the name of the security policy file
	SecurityConfigFile = "security.toml"

	// InstalledDBFile is the name of the installed package database
	InstalledDBFile = "installed.toml"

	// AuditLogFile is the name of the append-only audit log
	AuditLogFile = "audit.log"

	// PackagesDirName is the subdirectory for deployed package trees
	PackagesDirName = "packages"

	// DownloadsDirName is the cache subdirectory for downloaded artifacts
	DownloadsDirName = "downloads"

	// RegistriesDirName is the cache subdirectory for registry clones
	RegistriesDirName = "registries"

	// ScrapersDirName is the cache subdirectory for webpage scraper results
	ScrapersDirName = "scrapers"

	// SystemRoot is the root for system-scoped installs
	SystemRoot = "/opt/ora"

	// SystemBinDir is the shim directory for system-scoped installs
	SystemBinDir = "/usr/local/bin"
)

// InstallMode selects between user- and system-scoped layouts.
type InstallMode string

const (
	ModeUserland InstallMode = "userland"
	ModeSystem   InstallMode = "system"
)

// Paths provides centralized path management for ora
type Paths interface {
	ConfigDir() string
	DataDir() string
	CacheDir() string

	GlobalConfigPath() string
	SecurityConfigPath() string
	InstalledDBPath() string
	AuditLogPath() string

	PackagesDir(mode InstallMode) string
	PackageDir(mode InstallMode, name, version string) string
	BinDir(mode InstallMode) string

	DownloadsDir() string
	RegistriesDir() string
	RegistryCloneDir(name string) string
	ScrapersDir() string
	ScraperCachePath(key string) string

	NormalizePath(path string) (string, error)
}

// paths provides centralized path management for ora
type paths struct {
	xdgConfig string
	xdgData   string
	xdgCache  string
}

// New creates a new Paths instance, respecting environment overrides
// and falling back to XDG defaults.
func New() (Paths, error) {
	p := &paths{}

	if configDir := os.Getenv(EnvConfigDir); configDir != "" {
		p.xdgConfig = expandHome(configDir)
	} else {
		p.xdgConfig = filepath.Join(xdg.ConfigHome, OraDirName)
	}

	if dataDir := os.Getenv(EnvDataDir); dataDir != "" {
		p.xdgData = expandHome(dataDir)
	} else {
		p.xdgData = filepath.Join(xdg.DataHome, OraDirName)
	}

	if cacheDir := os.Getenv(EnvCacheDir); cacheDir != "" {
		p.xdgCache = expandHome(cacheDir)
	} else {
		p.xdgCache = filepath.Join(xdg.CacheHome, OraDirName)
	}

	return p, nil
}

// expandHome expands ~ to the home directory
func expandHome(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			// Fallback to HOME env var
			homeDir = os.Getenv(EnvHome)
			if homeDir == "" {
				// Can't expand, return as-is
				return path
			}
		}

		if len(path) == 1 {
			return homeDir
		}

		// Handle both ~/ and ~
		if path[1] == '/' || path[1] == filepath.Separator {
			return filepath.Join(homeDir, path[2:])
		}

		// ~something (not the user's home)
		return path
	}

	return path
}

// ExpandHome is a utility function that expands ~ in paths
func ExpandHome(path string) string {
	return expandHome(path)
}

// ConfigDir returns the XDG config directory for ora
func (p *paths) ConfigDir() string {
	return p.xdgConfig
}

// DataDir returns the XDG data directory for ora
func (p *paths) DataDir() string {
	return p.xdgData
}

// CacheDir returns the XDG cache directory for ora
func (p *paths) CacheDir() string {
	return p.xdgCache
}

// GlobalConfigPath returns the path to the global configuration file
func (p *paths) GlobalConfigPath() string {
	return filepath.Join(p.xdgConfig, GlobalConfigFile)
}

// SecurityConfigPath returns the path to the security policy file
func (p *paths) SecurityConfigPath() string {
	return filepath.Join(p.xdgConfig, SecurityConfigFile)
}

// InstalledDBPath returns the path to the installed package database
func (p *paths) InstalledDBPath() string {
	return filepath.Join(p.xdgConfig, InstalledDBFile)
}

// AuditLogPath returns the path to the append-only audit log
func (p *paths) AuditLogPath() string {
	return filepath.Join(p.xdgData, AuditLogFile)
}

// PackagesDir returns the root of deployed package trees for a mode
func (p *paths) PackagesDir(mode InstallMode) string {
	if mode == ModeSystem {
		return filepath.Join(SystemRoot, PackagesDirName)
	}
	return filepath.Join(p.xdgData, PackagesDirName)
}

// PackageDir returns the versioned install directory for one package
func (p *paths) PackageDir(mode InstallMode, name, version string) string {
	return filepath.Join(p.PackagesDir(mode), name, version)
}

// BinDir returns the binary shim directory for a mode
func (p *paths) BinDir(mode InstallMode) string {
	if mode == ModeSystem {
		return SystemBinDir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
	}
	return filepath.Join(homeDir, ".local", "bin")
}

// DownloadsDir returns the cache directory for downloaded artifacts
func (p *paths) DownloadsDir() string {
	return filepath.Join(p.xdgCache, DownloadsDirName)
}

// RegistriesDir returns the cache directory for registry clones
func (p *paths) RegistriesDir() string {
	return filepath.Join(p.xdgCache, RegistriesDirName)
}

// RegistryCloneDir returns the clone directory for one registry
func (p *paths) RegistryCloneDir(name string) string {
	return filepath.Join(p.RegistriesDir(), name)
}

// ScrapersDir returns the cache directory for scraper results
func (p *paths) ScrapersDir() string {
	return filepath.Join(p.xdgCache, ScrapersDirName)
}

// ScraperCachePath returns the cache file for one discovery URL key
func (p *paths) ScraperCachePath(key string) string {
	return filepath.Join(p.ScrapersDir(), key+".json")
}

// NormalizePath normalizes a path by expanding home, making it absolute,
// and cleaning it
func (p *paths) NormalizePath(path string) (string, error) {
	if path == "" {
		return "", errors.New(errors.ErrInvalidInput, "empty path")
	}

	expanded := expandHome(path)

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrIO, "failed to get absolute path")
	}

	return filepath.Clean(abs), nil
}

// GetHomeDirectory returns the user's home directory with proper error handling
func GetHomeDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		if home := os.Getenv(EnvHome); home != "" {
			return home, nil
		}
		return "", errors.Wrapf(err, errors.ErrIO, "failed to get home directory")
	}
	return homeDir, nil
}

// IsWithin reports whether path is lexically contained in root. Both
// arguments must already be absolute and cleaned.
func IsWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..")
}
