package provider

import (
	"context"

	"github.com/oradev/ora/pkg/httpclient"
	"github.com/oradev/ora/pkg/recipe"
	"github.com/oradev/ora/pkg/saferegex"
)

// customAPIProvider discovers versions from an arbitrary HTTP endpoint.
// The discovery block selects the decoding strategy: forge-compatible
// JSON, a JSONPath walk, or a regex over text/HTML.
type customAPIProvider struct {
	rec    *recipe.RepoConfig
	client *httpclient.Client
}

func (p *customAPIProvider) ListVersions(ctx context.Context) ([]Version, error) {
	disc := p.rec.Source.Version
	if disc == nil {
		// The caller treats an empty list as version-not-found.
		return nil, nil
	}

	switch disc.DiscoveryType {
	case recipe.DiscoveryGitHubAPI:
		var releases []githubRelease
		if err := p.client.GetJSON(ctx, disc.DiscoveryURL, &releases); err != nil {
			return nil, err
		}
		return decodeGitHubReleases(releases), nil

	case recipe.DiscoveryGitLabAPI:
		var releases []gitlabRelease
		if err := p.client.GetJSON(ctx, disc.DiscoveryURL, &releases); err != nil {
			return nil, err
		}
		return decodeGitLabReleases(releases), nil

	case recipe.DiscoveryJSON:
		var doc interface{}
		if err := p.client.GetJSON(ctx, disc.DiscoveryURL, &doc); err != nil {
			return nil, err
		}
		tags, err := EvaluateJSONPath(disc.JSONPath, doc)
		if err != nil {
			return nil, err
		}
		return tagsToVersions(tags), nil

	case recipe.DiscoveryText, recipe.DiscoveryHTML:
		body, err := p.client.GetText(ctx, disc.DiscoveryURL)
		if err != nil {
			return nil, err
		}
		re, err := saferegex.Compile(disc.Regex)
		if err != nil {
			return nil, err
		}
		var tags []string
		for _, match := range re.FindAllStringSubmatch(body, -1) {
			if len(match) > 1 {
				tags = append(tags, match[1])
			}
		}
		return tagsToVersions(tags), nil

	default:
		return nil, nil
	}
}

func tagsToVersions(tags []string) []Version {
	seen := map[string]bool{}
	var versions []Version
	for _, tag := range tags {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		versions = append(versions, Version{
			Tag:        tag,
			Name:       tag,
			Prerelease: InferPrerelease(tag),
		})
	}
	return versions
}

func (p *customAPIProvider) DownloadURL(ctx context.Context, version, mappedOS, mappedArch string) (string, error) {
	return resolveDownloadURL(p.rec, version, mappedOS, mappedArch)
}
