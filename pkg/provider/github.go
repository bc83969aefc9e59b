package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/oradev/ora/pkg/httpclient"
	"github.com/oradev/ora/pkg/recipe"
)

const defaultGitHubAPI = "https://api.github.com"

// githubRelease is the subset of the GitHub Releases payload we consume.
type githubRelease struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	PublishedAt time.Time `json:"published_at"`
	Prerelease  bool      `json:"prerelease"`
}

type gitHubProvider struct {
	rec    *recipe.RepoConfig
	client *httpclient.Client
}

func (p *gitHubProvider) ListVersions(ctx context.Context) ([]Version, error) {
	apiBase := p.rec.Source.APIURL
	if apiBase == "" {
		apiBase = defaultGitHubAPI
	}
	url := fmt.Sprintf("%s/repos/%s/releases", apiBase, p.rec.Source.Repo)

	var releases []githubRelease
	if err := p.client.GetJSON(ctx, url, &releases); err != nil {
		return nil, err
	}
	return decodeGitHubReleases(releases), nil
}

func decodeGitHubReleases(releases []githubRelease) []Version {
	versions := make([]Version, 0, len(releases))
	for _, r := range releases {
		versions = append(versions, Version{
			Tag:         r.TagName,
			Name:        r.Name,
			PublishedAt: r.PublishedAt,
			Prerelease:  r.Prerelease,
		})
	}
	return versions
}

func (p *gitHubProvider) DownloadURL(ctx context.Context, version, mappedOS, mappedArch string) (string, error) {
	return resolveDownloadURL(p.rec, version, mappedOS, mappedArch)
}
