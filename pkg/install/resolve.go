package install

import (
	"context"
	"strings"

	"github.com/oradev/ora/pkg/recipe"
)

// Source tag prefixes recorded in the installed database.
const (
	sourceFile     = "file:"
	sourceRegistry = "registry:"
	sourceLocal    = "local:"
)

// resolveRecipe turns a package spec into a parsed recipe and the source
// tag to record. Resolution order: explicit --repo file, then alias
// expansion, then "name@registry", then the first enabled registry that
// knows the name.
func (i *Installer) resolveRecipe(ctx context.Context, spec string, opts Options) (*recipe.RepoConfig, string, error) {
	if opts.RepoFile != "" {
		path, err := i.paths.NormalizePath(opts.RepoFile)
		if err != nil {
			return nil, "", err
		}
		rec, err := recipe.Load(path)
		if err != nil {
			return nil, "", err
		}
		return rec, sourceFile + path, nil
	}

	if target, ok := i.cfg.Aliases[spec]; ok {
		log.Debug().Str("alias", spec).Str("target", target).Msg("Resolved alias")
		spec = target
	}

	if name, registryName, ok := strings.Cut(spec, "@"); ok && registryName != "" {
		rec, err := i.registries.LookupIn(ctx, registryName, name)
		if err != nil {
			return nil, "", err
		}
		return rec, sourceRegistry + registryName, nil
	}

	rec, registryName, err := i.registries.Lookup(ctx, spec)
	if err != nil {
		return nil, "", err
	}
	return rec, sourceRegistry + registryName, nil
}

// registryFromSource recovers the registry name from a recorded source
// tag, or "" when the package did not come from a registry.
func registryFromSource(tag string) (string, bool) {
	if strings.HasPrefix(tag, sourceRegistry) {
		return strings.TrimPrefix(tag, sourceRegistry), true
	}
	return "", false
}

// fileFromSource recovers the recipe path from a recorded source tag.
func fileFromSource(tag string) (string, bool) {
	if strings.HasPrefix(tag, sourceFile) {
		return strings.TrimPrefix(tag, sourceFile), true
	}
	return "", false
}
