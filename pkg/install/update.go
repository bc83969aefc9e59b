package install

import (
	"context"
	"sort"

	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/paths"
	"github.com/oradev/ora/pkg/provider"
	"github.com/oradev/ora/pkg/recipe"
	"github.com/oradev/ora/pkg/ui"
)

// Update reinstalls a package at its latest stable version. An update is
// uninstall plus install; nothing is mutated in place. A package that
// was installed with verification disabled stays that way without the
// flag being passed again.
func (i *Installer) Update(ctx context.Context, name string, opts Options) error {
	pkg, ok := i.db.Get(name)
	if !ok {
		return errors.Newf(errors.ErrPackageNotFound, "package %s is not installed", name)
	}

	spec, rec, err := i.recipeForUpdate(ctx, name, pkg.RegistrySource, &opts)
	if err != nil {
		return err
	}

	opts.AllowInsecure = opts.AllowInsecure || pkg.AllowInsecure
	opts.Mode = paths.InstallMode(pkg.InstallMode)
	opts.Version = ""

	prov, err := provider.New(rec, i.client, i.cache, i.cfg.Scraper.TTLSeconds)
	if err != nil {
		return err
	}
	latest, err := i.chooseVersion(ctx, prov, name, opts)
	if err != nil {
		return err
	}
	if latest == pkg.Version {
		ui.Info("%s is already at %s", name, pkg.Version)
		return nil
	}

	ui.Info("Updating %s %s to %s", name, pkg.Version, latest)
	if err := i.Uninstall(name, "", false); err != nil {
		return err
	}
	return i.Install(ctx, spec, opts)
}

// UpdateAll updates every installed package, continuing past individual
// failures. The first failure is returned after all packages were tried.
func (i *Installer) UpdateAll(ctx context.Context, opts Options) error {
	names := i.db.Names()
	sort.Strings(names)

	var firstErr error
	for _, name := range names {
		if err := i.Update(ctx, name, opts); err != nil {
			ui.Warning("Failed to update %s: %v", name, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// recipeForUpdate re-resolves the recipe from the recorded source tag and
// returns the package argument to reinstall with.
func (i *Installer) recipeForUpdate(ctx context.Context, name, sourceTag string, opts *Options) (string, *recipe.RepoConfig, error) {
	if registryName, ok := registryFromSource(sourceTag); ok {
		rec, err := i.registries.LookupIn(ctx, registryName, name)
		if err != nil {
			return "", nil, err
		}
		return name + "@" + registryName, rec, nil
	}
	if path, ok := fileFromSource(sourceTag); ok {
		rec, err := recipe.Load(path)
		if err != nil {
			return "", nil, err
		}
		opts.RepoFile = path
		return name, rec, nil
	}
	return "", nil, errors.Newf(errors.ErrInvalidInput,
		"package %s was installed from a local archive and cannot be updated", name)
}
