package install

import (
	"os"
	"path/filepath"

	"github.com/oradev/ora/pkg/audit"
	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/ui"
)

// Uninstall removes a package: its bin symlinks, its install directory,
// and its database entry, in that order. version, when non-empty, must
// match the installed version. purge also removes every other version
// left under the package root.
func (i *Installer) Uninstall(name, version string, purge bool) error {
	pkg, ok := i.db.Get(name)
	if !ok {
		return errors.Newf(errors.ErrPackageNotFound, "package %s is not installed", name)
	}
	if version != "" && pkg.Version != version {
		return errors.Newf(errors.ErrVersionNotFound,
			"package %s is installed at %s, not %s", name, pkg.Version, version)
	}

	for _, link := range pkg.Symlinks {
		if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("symlink", link).Msg("Failed to remove symlink")
		}
	}

	if err := os.RemoveAll(pkg.InstallDir); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to remove %s", pkg.InstallDir)
	}

	// The parent is <packages>/<name>; drop it when no other version
	// remains. Best-effort, a non-empty directory is left alone.
	parent := filepath.Dir(pkg.InstallDir)
	if purge {
		if err := os.RemoveAll(parent); err != nil {
			log.Warn().Err(err).Str("dir", parent).Msg("Failed to purge package directory")
		}
	} else {
		_ = os.Remove(parent)
	}

	i.db.Remove(name)
	if err := i.db.Save(); err != nil {
		return err
	}

	if err := i.audit.Append(audit.EventUninstall, map[string]string{
		"package": name,
		"version": pkg.Version,
		"success": "true",
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to append audit record")
	}

	ui.Success("Uninstalled %s %s", name, pkg.Version)
	return nil
}
