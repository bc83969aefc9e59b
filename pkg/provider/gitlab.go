package provider

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/oradev/ora/pkg/httpclient"
	"github.com/oradev/ora/pkg/recipe"
)

const defaultGitLabInstance = "https://gitlab.com"

// gitlabRelease is the subset of the GitLab Releases payload we consume.
// GitLab carries no prerelease flag; it is inferred from the tag.
type gitlabRelease struct {
	TagName    string    `json:"tag_name"`
	Name       string    `json:"name"`
	ReleasedAt time.Time `json:"released_at"`
}

type gitLabProvider struct {
	rec    *recipe.RepoConfig
	client *httpclient.Client
}

func (p *gitLabProvider) ListVersions(ctx context.Context) ([]Version, error) {
	instance := p.rec.Source.Instance
	if instance == "" {
		instance = defaultGitLabInstance
	}
	apiURL := fmt.Sprintf("%s/api/v4/projects/%s/releases",
		instance, url.PathEscape(p.rec.Source.Repo))

	var releases []gitlabRelease
	if err := p.client.GetJSON(ctx, apiURL, &releases); err != nil {
		return nil, err
	}
	return decodeGitLabReleases(releases), nil
}

func decodeGitLabReleases(releases []gitlabRelease) []Version {
	versions := make([]Version, 0, len(releases))
	for _, r := range releases {
		versions = append(versions, Version{
			Tag:         r.TagName,
			Name:        r.Name,
			PublishedAt: r.ReleasedAt,
			Prerelease:  InferPrerelease(r.TagName),
		})
	}
	return versions
}

func (p *gitLabProvider) DownloadURL(ctx context.Context, version, mappedOS, mappedArch string) (string, error) {
	return resolveDownloadURL(p.rec, version, mappedOS, mappedArch)
}
