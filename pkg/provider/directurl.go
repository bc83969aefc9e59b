package provider

import (
	"context"

	"github.com/oradev/ora/pkg/recipe"
)

// directURLProvider serves recipes whose artifact lives at a fixed URL
// with no version discovery at all. The synthetic version "latest" keeps
// the rest of the pipeline uniform.
type directURLProvider struct {
	rec *recipe.RepoConfig
}

func (p *directURLProvider) ListVersions(ctx context.Context) ([]Version, error) {
	return []Version{{Tag: "latest", Name: "latest"}}, nil
}

func (p *directURLProvider) DownloadURL(ctx context.Context, version, mappedOS, mappedArch string) (string, error) {
	return resolveDownloadURL(p.rec, version, mappedOS, mappedArch)
}
