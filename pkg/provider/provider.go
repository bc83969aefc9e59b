// Package provider turns a recipe into concrete (version, download-URL)
// pairs. Five strategies exist: the two git-forge APIs, a generic
// HTTP+JSONPath/regex discoverer, a direct-URL passthrough, and a webpage
// scraper with an on-disk cache.
package provider

import (
	"context"
	"time"

	"github.com/oradev/ora/pkg/cache"
	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/httpclient"
	"github.com/oradev/ora/pkg/logging"
	"github.com/oradev/ora/pkg/recipe"
	"github.com/oradev/ora/pkg/template"
)

var log = logging.GetLogger("provider")

// Version is one discoverable release.
type Version struct {
	Tag         string
	Name        string
	PublishedAt time.Time
	Prerelease  bool
}

// Provider is the sealed operation set shared by all strategies.
type Provider interface {
	// ListVersions returns the releases the source knows about.
	ListVersions(ctx context.Context) ([]Version, error)

	// DownloadURL resolves the artifact URL for a chosen version on the
	// mapped platform.
	DownloadURL(ctx context.Context, version, mappedOS, mappedArch string) (string, error)
}

// New builds the provider for a recipe.
func New(rec *recipe.RepoConfig, client *httpclient.Client, c *cache.Cache, scraperTTL int64) (Provider, error) {
	switch rec.Source.ProviderType {
	case recipe.ProviderGitHub:
		return &gitHubProvider{rec: rec, client: client}, nil
	case recipe.ProviderGitLab:
		return &gitLabProvider{rec: rec, client: client}, nil
	case recipe.ProviderCustomAPI:
		return &customAPIProvider{rec: rec, client: client}, nil
	case recipe.ProviderDirectURL:
		return &directURLProvider{rec: rec}, nil
	case recipe.ProviderWebScrape:
		return &scrapeProvider{rec: rec, client: client, cache: c, ttl: scraperTTL}, nil
	default:
		return nil, errors.Newf(errors.ErrRepoFormat, "unknown provider type %q", rec.Source.ProviderType)
	}
}

// resolveDownloadURL implements the shared download-URL contract: a
// templated source.download.url wins, else the per-platform URL table is
// consulted under the "<os>_<arch>" key.
func resolveDownloadURL(rec *recipe.RepoConfig, version, mappedOS, mappedArch string) (string, error) {
	vars := map[string]string{"version": version, "os": mappedOS, "arch": mappedArch}

	if rec.Source.Download.URL != "" {
		return template.Resolve(rec.Source.Download.URL, vars)
	}

	key := mappedOS + "_" + mappedArch
	if raw, ok := rec.Source.Download.URLs[key]; ok {
		return template.Resolve(raw, vars)
	}

	return "", errors.Newf(errors.ErrPlatformSupport,
		"package %s has no download URL for platform %s", rec.Name, key)
}
