// Package installdb persists the mapping of installed package name to its
// state record. The database is a single TOML document, rewritten whole on
// every change; a single CLI invocation owns it for its lifetime.
package installdb

import (
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/oradev/ora/pkg/config"
	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/logging"
)

var log = logging.GetLogger("installdb")

// InstalledPackage is the state recorded at the end of a successful
// install. Entries are never mutated in place; updates are
// uninstall+install.
type InstalledPackage struct {
	SchemaVersion  string            `toml:"schema_version"`
	Name           string            `toml:"name"`
	Version        string            `toml:"version"`
	InstalledAt    time.Time         `toml:"installed_at"`
	InstallMode    string            `toml:"install_mode"`
	InstallDir     string            `toml:"install_dir"`
	Files          []string          `toml:"files"`
	Symlinks       []string          `toml:"symlinks"`
	RegistrySource string            `toml:"registry_source"`
	Checksums      map[string]string `toml:"checksums,omitempty"`
	AllowInsecure  bool              `toml:"allow_insecure"`
	Metadata       map[string]string `toml:"metadata,omitempty"`
}

// Database is the on-disk document plus its location.
type Database struct {
	path     string
	Packages map[string]InstalledPackage `toml:"packages"`
}

type dbDocument struct {
	Packages map[string]InstalledPackage `toml:"packages"`
}

// Load reads the database at path. A missing file is an empty database.
// Stale schema versions are migrated forward and the file rewritten;
// entries from a newer release refuse the load.
func Load(path string) (*Database, error) {
	db := &Database{path: path, Packages: map[string]InstalledPackage{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return db, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read installed database %s", path)
	}

	var doc dbDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "malformed installed database %s", path)
	}
	if doc.Packages != nil {
		db.Packages = doc.Packages
	}

	migrated, err := db.migrate()
	if err != nil {
		return nil, err
	}
	if migrated {
		log.Info().Str("path", path).Msg("Migrated installed database schema")
		if err := db.Save(); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// migrate brings every entry forward to the current schema version.
func (db *Database) migrate() (bool, error) {
	migrated := false
	for name, pkg := range db.Packages {
		switch {
		case pkg.SchemaVersion == config.CurrentConfigVersion:
			continue
		case config.CompareVersions(pkg.SchemaVersion, config.CurrentConfigVersion) > 0:
			return false, errors.Newf(errors.ErrConfigNewer,
				"package %s has schema version %s, newer than supported %s, upgrade ora to proceed",
				name, pkg.SchemaVersion, config.CurrentConfigVersion)
		default:
			pkg.SchemaVersion = config.CurrentConfigVersion
			db.Packages[name] = pkg
			migrated = true
		}
	}
	return migrated, nil
}

// Save serializes the database and replaces the file whole.
func (db *Database) Save() error {
	doc := dbDocument{Packages: db.Packages}
	data, err := toml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to serialize installed database")
	}
	if err := os.MkdirAll(filepath.Dir(db.path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create directory for %s", db.path)
	}
	if err := os.WriteFile(db.path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to write installed database %s", db.path)
	}
	return nil
}

// Get returns the entry for name.
func (db *Database) Get(name string) (InstalledPackage, bool) {
	pkg, ok := db.Packages[name]
	return pkg, ok
}

// Add records a package. The entry's schema version is stamped here.
func (db *Database) Add(pkg InstalledPackage) {
	pkg.SchemaVersion = config.CurrentConfigVersion
	db.Packages[pkg.Name] = pkg
}

// Remove deletes the entry for name. Returns false if absent.
func (db *Database) Remove(name string) bool {
	if _, ok := db.Packages[name]; !ok {
		return false
	}
	delete(db.Packages, name)
	return true
}

// Names returns installed package names in no particular order.
func (db *Database) Names() []string {
	names := make([]string, 0, len(db.Packages))
	for name := range db.Packages {
		names = append(names, name)
	}
	return names
}
