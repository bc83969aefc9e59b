package installdb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oradev/ora/pkg/config"
	"github.com/oradev/ora/pkg/errors"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	db, err := Load(filepath.Join(t.TempDir(), "installed.toml"))
	require.NoError(t, err)
	assert.Empty(t, db.Packages)
}

func TestAddSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "installed.toml")
	db, err := Load(path)
	require.NoError(t, err)

	db.Add(InstalledPackage{
		Name:           "hello",
		Version:        "v1.2.3",
		InstalledAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		InstallMode:    "userland",
		InstallDir:     "/data/packages/hello/v1.2.3",
		Files:          []string{"/data/packages/hello/v1.2.3/hello"},
		Symlinks:       []string{"/home/u/.local/bin/hello"},
		RegistrySource: "registry:main",
		Checksums:      map[string]string{"sha256": "abc"},
	})
	require.NoError(t, db.Save())

	loaded, err := Load(path)
	require.NoError(t, err)
	pkg, ok := loaded.Get("hello")
	require.True(t, ok)
	assert.Equal(t, config.CurrentConfigVersion, pkg.SchemaVersion)
	assert.Equal(t, "v1.2.3", pkg.Version)
	assert.Equal(t, "registry:main", pkg.RegistrySource)
	assert.Equal(t, []string{"/home/u/.local/bin/hello"}, pkg.Symlinks)
}

func TestLoadMigratesStaleSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "installed.toml")
	content := `[packages.hello]
schema_version = "0.0"
name = "hello"
version = "v1.0.0"
installed_at = 2026-01-01T00:00:00Z
install_mode = "userland"
install_dir = "/data/packages/hello/v1.0.0"
files = []
symlinks = []
registry_source = "file:/tmp/hello.repo"
allow_insecure = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	db, err := Load(path)
	require.NoError(t, err)
	pkg, ok := db.Get("hello")
	require.True(t, ok)
	assert.Equal(t, config.CurrentConfigVersion, pkg.SchemaVersion)
	// Other fields preserved.
	assert.Equal(t, "v1.0.0", pkg.Version)
	assert.Equal(t, "file:/tmp/hello.repo", pkg.RegistrySource)

	// The migration was written back.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "schema_version = '0.1'")
}

func TestLoadRefusesNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "installed.toml")
	content := `[packages.hello]
schema_version = "9.0"
name = "hello"
version = "v1.0.0"
installed_at = 2026-01-01T00:00:00Z
install_mode = "userland"
install_dir = "/x"
files = []
symlinks = []
registry_source = "file:/x"
allow_insecure = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigNewer))
}

func TestRemove(t *testing.T) {
	db := &Database{Packages: map[string]InstalledPackage{}}
	db.Add(InstalledPackage{Name: "a"})

	assert.True(t, db.Remove("a"))
	assert.False(t, db.Remove("a"))
	assert.Empty(t, db.Names())
}
