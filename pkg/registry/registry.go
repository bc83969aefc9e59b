// Package registry manages recipe registries: adding and removing
// entries, syncing their contents to the local cache, and looking up
// recipes across them. Two registry kinds exist, inferred from the URL:
// a Git repository holding a recipe directory, or a direct HTTP endpoint
// serving a single recipe document.
package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/oradev/ora/pkg/config"
	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/httpclient"
	"github.com/oradev/ora/pkg/logging"
	"github.com/oradev/ora/pkg/paths"
	"github.com/oradev/ora/pkg/recipe"
)

var log = logging.GetLogger("registry")

// DefaultRegistryDir is the recipe subdirectory inside a Git registry
// when the entry doesn't override it.
const DefaultRegistryDir = "ora-registry"

// RecipeExtension is the recipe file suffix inside registries.
const RecipeExtension = ".repo"

// Manager operates on the registries configured in the global config.
type Manager struct {
	cfg     *config.GlobalConfig
	cfgPath string
	paths   paths.Paths
	client  *httpclient.Client
	policy  config.RegistryPolicy
}

// NewManager wires a manager over the loaded global config.
func NewManager(cfg *config.GlobalConfig, cfgPath string, p paths.Paths, client *httpclient.Client, policy config.RegistryPolicy) *Manager {
	return &Manager{cfg: cfg, cfgPath: cfgPath, paths: p, client: client, policy: policy}
}

// Add registers a new registry and persists the config.
func (m *Manager) Add(entry config.RegistryEntry) error {
	if entry.Name == "" || entry.URL == "" {
		return errors.New(errors.ErrInvalidInput, "registry needs a name and a URL")
	}
	if _, exists := m.cfg.FindRegistry(entry.Name); exists {
		return errors.Newf(errors.ErrRegistryExists, "registry %q already exists", entry.Name)
	}
	if entry.TrustLevel == "" {
		entry.TrustLevel = config.TrustPublic
	}
	if kindOf(entry.URL) == kindGit {
		if err := m.validateGitURL(entry.URL); err != nil {
			return err
		}
	} else {
		if _, err := m.client.ValidateURL(entry.URL); err != nil {
			return err
		}
	}

	m.cfg.Registries = append(m.cfg.Registries, entry)
	if err := config.SaveGlobalConfig(m.cfgPath, *m.cfg); err != nil {
		return err
	}
	log.Info().Str("registry", entry.Name).Str("url", entry.URL).Msg("Registry added")
	return nil
}

// Remove deletes a registry entry and its cached clone.
func (m *Manager) Remove(name string) error {
	idx := -1
	for i, r := range m.cfg.Registries {
		if r.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.Newf(errors.ErrRegistryNotFound, "registry %q is not configured", name)
	}

	m.cfg.Registries = append(m.cfg.Registries[:idx], m.cfg.Registries[idx+1:]...)
	if err := config.SaveGlobalConfig(m.cfgPath, *m.cfg); err != nil {
		return err
	}

	cloneDir := m.paths.RegistryCloneDir(name)
	if err := os.RemoveAll(cloneDir); err != nil {
		log.Warn().Err(err).Str("dir", cloneDir).Msg("Failed to remove registry clone")
	}
	log.Info().Str("registry", name).Msg("Registry removed")
	return nil
}

// List returns the configured registries in order.
func (m *Manager) List() []config.RegistryEntry {
	return m.cfg.Registries
}

// UpdatePin records the current TLS certificate fingerprint for a
// registry so later syncs can detect a swap.
func (m *Manager) UpdatePin(name, fingerprint string) error {
	entry, ok := m.cfg.FindRegistry(name)
	if !ok {
		return errors.Newf(errors.ErrRegistryNotFound, "registry %q is not configured", name)
	}
	entry.TLSFingerprint = fingerprint
	return config.SaveGlobalConfig(m.cfgPath, *m.cfg)
}

// Lookup finds a recipe by package name across enabled registries in
// configured order. The first match wins; additional matches log a
// shadowing warning.
func (m *Manager) Lookup(ctx context.Context, name string) (*recipe.RepoConfig, string, error) {
	type match struct {
		rec      *recipe.RepoConfig
		registry string
	}
	var matches []match

	for _, entry := range m.cfg.EnabledRegistries() {
		rec, err := m.lookupIn(ctx, entry, name)
		if err != nil {
			log.Debug().Err(err).Str("registry", entry.Name).Str("package", name).Msg("Lookup miss")
			continue
		}
		if rec != nil {
			matches = append(matches, match{rec: rec, registry: entry.Name})
		}
	}

	if len(matches) == 0 {
		return nil, "", errors.Newf(errors.ErrPackageNotFound,
			"package %q not found in any enabled registry", name)
	}
	if len(matches) > 1 {
		var others []string
		for _, m := range matches[1:] {
			others = append(others, m.registry)
		}
		log.Warn().Str("package", name).Str("using", matches[0].registry).
			Strs("shadowed", others).Msg("Package found in multiple registries")
	}
	return matches[0].rec, matches[0].registry, nil
}

// LookupIn finds a recipe in one named registry.
func (m *Manager) LookupIn(ctx context.Context, registryName, name string) (*recipe.RepoConfig, error) {
	entry, ok := m.cfg.FindRegistry(registryName)
	if !ok {
		return nil, errors.Newf(errors.ErrRegistryNotFound, "registry %q is not configured", registryName)
	}
	rec, err := m.lookupIn(ctx, *entry, name)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.Newf(errors.ErrPackageNotFound,
			"package %q not found in registry %q", name, registryName)
	}
	return rec, nil
}

func (m *Manager) lookupIn(ctx context.Context, entry config.RegistryEntry, name string) (*recipe.RepoConfig, error) {
	switch kindOf(entry.URL) {
	case kindGit:
		path := filepath.Join(m.paths.RegistryCloneDir(entry.Name), registryDir(entry), name+RecipeExtension)
		if _, err := os.Stat(path); err != nil {
			return nil, nil
		}
		return recipe.Load(path)

	default:
		body, err := m.client.GetText(ctx, entry.URL)
		if err != nil {
			return nil, err
		}
		rec, err := recipe.Parse([]byte(body), entry.URL)
		if err != nil {
			return nil, err
		}
		if rec.Name != name {
			log.Warn().Str("registry", entry.Name).Str("requested", name).
				Str("served", rec.Name).Msg("Direct registry served a differently named recipe")
		}
		return rec, nil
	}
}

// SearchResult is one recipe matched by Search.
type SearchResult struct {
	Name        string
	Description string
	Registry    string
}

// Search scans the synced recipe directories of enabled Git registries
// for a case-insensitive substring of name or description.
func (m *Manager) Search(query string) []SearchResult {
	q := strings.ToLower(query)
	var results []SearchResult

	for _, entry := range m.cfg.EnabledRegistries() {
		if kindOf(entry.URL) != kindGit {
			continue
		}
		dir := filepath.Join(m.paths.RegistryCloneDir(entry.Name), registryDir(entry))
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), RecipeExtension) {
				continue
			}
			rec, err := recipe.Load(filepath.Join(dir, f.Name()))
			if err != nil {
				continue
			}
			if strings.Contains(strings.ToLower(rec.Name), q) ||
				strings.Contains(strings.ToLower(rec.Description), q) {
				results = append(results, SearchResult{
					Name:        rec.Name,
					Description: rec.Description,
					Registry:    entry.Name,
				})
			}
		}
	}
	return results
}

// VerifyResult reports the health of one registry.
type VerifyResult struct {
	Name        string
	URL         string
	TrustLevel  string
	Enabled     bool
	Synced      bool
	RecipeCount int
}

// Verify reports per-registry status: synced clone presence and recipe
// count for Git registries, configuration presence for direct ones.
func (m *Manager) Verify() []VerifyResult {
	var results []VerifyResult
	for _, entry := range m.cfg.Registries {
		res := VerifyResult{
			Name:       entry.Name,
			URL:        entry.URL,
			TrustLevel: entry.TrustLevel,
			Enabled:    entry.Enabled,
		}
		if kindOf(entry.URL) == kindGit {
			dir := filepath.Join(m.paths.RegistryCloneDir(entry.Name), registryDir(entry))
			if files, err := os.ReadDir(dir); err == nil {
				res.Synced = true
				for _, f := range files {
					if !f.IsDir() && strings.HasSuffix(f.Name(), RecipeExtension) {
						res.RecipeCount++
					}
				}
			}
		} else {
			res.Synced = true
			res.RecipeCount = 1
		}
		results = append(results, res)
	}
	return results
}

// registryDir returns the recipe subdirectory for an entry.
func registryDir(entry config.RegistryEntry) string {
	if entry.RegistryDir != "" {
		return entry.RegistryDir
	}
	return DefaultRegistryDir
}
