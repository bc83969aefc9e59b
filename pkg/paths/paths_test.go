package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	cfg := t.TempDir()
	data := t.TempDir()
	cache := t.TempDir()
	t.Setenv(EnvConfigDir, cfg)
	t.Setenv(EnvDataDir, data)
	t.Setenv(EnvCacheDir, cache)

	p, err := New()
	require.NoError(t, err)

	assert.Equal(t, cfg, p.ConfigDir())
	assert.Equal(t, data, p.DataDir())
	assert.Equal(t, cache, p.CacheDir())

	assert.Equal(t, filepath.Join(cfg, "config.toml"), p.GlobalConfigPath())
	assert.Equal(t, filepath.Join(cfg, "security.toml"), p.SecurityConfigPath())
	assert.Equal(t, filepath.Join(cfg, "installed.toml"), p.InstalledDBPath())
	assert.Equal(t, filepath.Join(data, "audit.log"), p.AuditLogPath())
	assert.Equal(t, filepath.Join(data, "packages", "jq", "1.7"), p.PackageDir(ModeUserland, "jq", "1.7"))
	assert.Equal(t, filepath.Join(cache, "downloads"), p.DownloadsDir())
	assert.Equal(t, filepath.Join(cache, "registries", "main"), p.RegistryCloneDir("main"))
}

func TestSystemModeLayout(t *testing.T) {
	t.Setenv(EnvDataDir, t.TempDir())
	p, err := New()
	require.NoError(t, err)

	assert.Equal(t, "/opt/ora/packages", p.PackagesDir(ModeSystem))
	assert.Equal(t, "/usr/local/bin", p.BinDir(ModeSystem))
}

func TestUserlandBinDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)
	t.Setenv(EnvDataDir, t.TempDir())
	p, err := New()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".local", "bin"), p.BinDir(ModeUserland))
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)

	assert.Equal(t, filepath.Join(home, "x"), ExpandHome("~/x"))
	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "~other", ExpandHome("~other"))
}

func TestIsWithin(t *testing.T) {
	assert.True(t, IsWithin("/a/b", "/a/b"))
	assert.True(t, IsWithin("/a/b", "/a/b/c"))
	assert.False(t, IsWithin("/a/b", "/a/bc"))
	assert.False(t, IsWithin("/a/b", "/a"))
	assert.False(t, IsWithin("/a/b", "/a/b/../c"))
}
