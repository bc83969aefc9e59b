package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oradev/ora/pkg/config"
	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/httpclient"
	"github.com/oradev/ora/pkg/paths"
)

func testManager(t *testing.T, cfg *config.GlobalConfig) (*Manager, paths.Paths) {
	t.Helper()
	t.Setenv(paths.EnvCacheDir, t.TempDir())
	t.Setenv(paths.EnvConfigDir, t.TempDir())
	p, err := paths.New()
	require.NoError(t, err)

	netPolicy := config.DefaultSecurityConfig().Network
	netPolicy.BlockPrivateNetworks = false
	netPolicy.ValidateDNS = false

	m := NewManager(cfg, p.GlobalConfigPath(), p, httpclient.New(netPolicy),
		config.DefaultSecurityConfig().Registries)
	return m, p
}

// seedRecipe writes a recipe into a fake synced clone for a registry.
func seedRecipe(t *testing.T, p paths.Paths, registryName, dir, pkgName string) {
	t.Helper()
	recipeDir := filepath.Join(p.RegistryCloneDir(registryName), dir)
	require.NoError(t, os.MkdirAll(recipeDir, 0755))
	content := fmt.Sprintf(`name = %q
description = "tool %s"

[source]
provider_type = "direct-url"

[source.download]
url = "https://example.com/%s.tar.gz"

[security]
allow_insecure = true
`, pkgName, pkgName, pkgName)
	require.NoError(t, os.WriteFile(filepath.Join(recipeDir, pkgName+RecipeExtension), []byte(content), 0644))
}

func gitEntry(name string) config.RegistryEntry {
	return config.RegistryEntry{
		Name:       name,
		URL:        "https://example.com/" + name + ".git",
		TrustLevel: config.TrustPublic,
		Enabled:    true,
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, kindGit, kindOf("https://example.com/recipes.git"))
	assert.Equal(t, kindDirectURL, kindOf("https://example.com/hello.repo"))
}

func TestValidateGitURL(t *testing.T) {
	cfg := config.DefaultGlobalConfig()
	m, _ := testManager(t, &cfg)

	assert.NoError(t, m.validateGitURL("https://example.com/r.git"))

	for _, bad := range []string{"git://example.com/r.git", "ssh://git@example.com/r.git", "file:///tmp/r.git"} {
		err := m.validateGitURL(bad)
		assert.True(t, errors.IsErrorCode(err, errors.ErrGitScheme), "expected scheme block for %s", bad)
	}
}

func TestValidateGitURLExplicitAllow(t *testing.T) {
	cfg := config.DefaultGlobalConfig()
	m, _ := testManager(t, &cfg)
	m.policy.HTTPSOnly = false
	m.policy.AllowedGitSchemes = []string{"https", "ssh"}

	assert.NoError(t, m.validateGitURL("ssh://git@example.com/r.git"))
}

func TestAddRemoveList(t *testing.T) {
	cfg := config.DefaultGlobalConfig()
	m, p := testManager(t, &cfg)

	require.NoError(t, m.Add(gitEntry("main")))
	assert.Len(t, m.List(), 1)
	assert.Equal(t, config.TrustPublic, m.List()[0].TrustLevel)

	// Duplicate name rejected.
	err := m.Add(gitEntry("main"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrRegistryExists))

	// Persisted to disk.
	loaded, err := config.LoadGlobalConfig(p.GlobalConfigPath())
	require.NoError(t, err)
	assert.Len(t, loaded.Registries, 1)

	require.NoError(t, m.Remove("main"))
	assert.Empty(t, m.List())

	err = m.Remove("main")
	assert.True(t, errors.IsErrorCode(err, errors.ErrRegistryNotFound))
}

func TestAddRejectsBadGitScheme(t *testing.T) {
	cfg := config.DefaultGlobalConfig()
	m, _ := testManager(t, &cfg)

	entry := gitEntry("bad")
	entry.URL = "git://example.com/r.git"
	err := m.Add(entry)
	assert.True(t, errors.IsErrorCode(err, errors.ErrGitScheme))
}

func TestLookupFirstEnabledWins(t *testing.T) {
	cfg := config.DefaultGlobalConfig()
	cfg.Registries = []config.RegistryEntry{gitEntry("first"), gitEntry("second")}
	m, p := testManager(t, &cfg)

	seedRecipe(t, p, "first", DefaultRegistryDir, "hello")
	seedRecipe(t, p, "second", DefaultRegistryDir, "hello")

	rec, source, err := m.Lookup(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", rec.Name)
	assert.Equal(t, "first", source)
}

func TestLookupSkipsDisabled(t *testing.T) {
	cfg := config.DefaultGlobalConfig()
	disabled := gitEntry("off")
	disabled.Enabled = false
	cfg.Registries = []config.RegistryEntry{disabled, gitEntry("on")}
	m, p := testManager(t, &cfg)

	seedRecipe(t, p, "off", DefaultRegistryDir, "hello")
	seedRecipe(t, p, "on", DefaultRegistryDir, "hello")

	_, source, err := m.Lookup(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "on", source)
}

func TestLookupCustomRegistryDir(t *testing.T) {
	cfg := config.DefaultGlobalConfig()
	entry := gitEntry("custom")
	entry.RegistryDir = "recipes"
	cfg.Registries = []config.RegistryEntry{entry}
	m, p := testManager(t, &cfg)

	seedRecipe(t, p, "custom", "recipes", "hello")

	rec, _, err := m.Lookup(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", rec.Name)
}

func TestLookupNotFound(t *testing.T) {
	cfg := config.DefaultGlobalConfig()
	cfg.Registries = []config.RegistryEntry{gitEntry("main")}
	m, _ := testManager(t, &cfg)

	_, _, err := m.Lookup(context.Background(), "missing")
	assert.True(t, errors.IsErrorCode(err, errors.ErrPackageNotFound))
}

func TestLookupDirectURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`name = "hello"

[source]
provider_type = "direct-url"

[source.download]
url = "https://example.com/hello.tar.gz"

[security]
allow_insecure = true
`))
	}))
	defer srv.Close()

	cfg := config.DefaultGlobalConfig()
	cfg.Registries = []config.RegistryEntry{{
		Name: "direct", URL: srv.URL + "/hello.repo", Enabled: true, TrustLevel: config.TrustPublic,
	}}
	m, _ := testManager(t, &cfg)

	rec, source, err := m.Lookup(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", rec.Name)
	assert.Equal(t, "direct", source)
}

func TestSearch(t *testing.T) {
	cfg := config.DefaultGlobalConfig()
	cfg.Registries = []config.RegistryEntry{gitEntry("main")}
	m, p := testManager(t, &cfg)

	seedRecipe(t, p, "main", DefaultRegistryDir, "ripgrep")
	seedRecipe(t, p, "main", DefaultRegistryDir, "jq")

	results := m.Search("rip")
	require.Len(t, results, 1)
	assert.Equal(t, "ripgrep", results[0].Name)
	assert.Equal(t, "main", results[0].Registry)

	assert.Len(t, m.Search("tool"), 2)
	assert.Empty(t, m.Search("nomatch"))
}

func TestVerify(t *testing.T) {
	cfg := config.DefaultGlobalConfig()
	cfg.Registries = []config.RegistryEntry{gitEntry("synced"), gitEntry("unsynced")}
	m, p := testManager(t, &cfg)

	seedRecipe(t, p, "synced", DefaultRegistryDir, "a")
	seedRecipe(t, p, "synced", DefaultRegistryDir, "b")

	results := m.Verify()
	require.Len(t, results, 2)
	assert.True(t, results[0].Synced)
	assert.Equal(t, 2, results[0].RecipeCount)
	assert.False(t, results[1].Synced)
}

func TestUpdatePin(t *testing.T) {
	cfg := config.DefaultGlobalConfig()
	cfg.Registries = []config.RegistryEntry{gitEntry("main")}
	m, p := testManager(t, &cfg)

	require.NoError(t, m.UpdatePin("main", "sha256:abcdef"))

	loaded, err := config.LoadGlobalConfig(p.GlobalConfigPath())
	require.NoError(t, err)
	assert.Equal(t, "sha256:abcdef", loaded.Registries[0].TLSFingerprint)

	err = m.UpdatePin("ghost", "x")
	assert.True(t, errors.IsErrorCode(err, errors.ErrRegistryNotFound))
}
