package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oradev/ora/pkg/errors"
)

const validRecipe = `
name = "hello"
description = "Example tool"
homepage = "https://example.com"

[source]
provider_type = "github"
repo = "acme/hello"

[source.download]
url = "https://github.com/acme/hello/releases/download/{version}/hello-{os}-{arch}.tar.gz"

[install]
binaries = ["hello"]

[security]
allow_insecure = false

[security.checksum]
url = "https://github.com/acme/hello/releases/download/{version}/checksums.txt"
algorithm = "sha256"
format = "multi-hash"
`

func TestParseValidRecipe(t *testing.T) {
	cfg, err := Parse([]byte(validRecipe), "hello.repo")
	require.NoError(t, err)
	assert.Equal(t, "hello", cfg.Name)
	assert.Equal(t, ProviderGitHub, cfg.Source.ProviderType)
	assert.Equal(t, "acme/hello", cfg.Source.Repo)
	assert.Equal(t, []string{"hello"}, cfg.Install.Binaries)
	require.NotNil(t, cfg.Security.Checksum)
	assert.Equal(t, FormatMultiHash, cfg.Security.Checksum.Format)
}

func TestParseMalformedTOML(t *testing.T) {
	_, err := Parse([]byte("name = [unclosed"), "bad.repo")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrRepoFormat))
}

func TestValidate(t *testing.T) {
	base := func() RepoConfig {
		return RepoConfig{
			Name: "x",
			Source: Source{
				ProviderType: ProviderGitHub,
				Repo:         "a/b",
				Download:     Download{URL: "https://example.com/{version}.tar.gz"},
			},
			Security: Security{
				Checksum: &Checksum{URL: "https://example.com/sums", Algorithm: "sha256", Format: FormatSingleHash},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*RepoConfig)
		wantLen int
	}{
		{"valid", func(c *RepoConfig) {}, 0},
		{"missing name", func(c *RepoConfig) { c.Name = "" }, 1},
		{"missing provider", func(c *RepoConfig) { c.Source.ProviderType = "" }, 1},
		{"unknown provider", func(c *RepoConfig) { c.Source.ProviderType = "ftp" }, 1},
		{"github without repo", func(c *RepoConfig) { c.Source.Repo = "" }, 1},
		{"no download source", func(c *RepoConfig) { c.Source.Download = Download{} }, 1},
		{"insecure without checksum", func(c *RepoConfig) { c.Security.Checksum = nil }, 1},
		{"insecure allowed without checksum", func(c *RepoConfig) {
			c.Security.Checksum = nil
			c.Security.AllowInsecure = true
		}, 0},
		{"bad checksum algorithm", func(c *RepoConfig) { c.Security.Checksum.Algorithm = "md5" }, 1},
		{"bad checksum format", func(c *RepoConfig) { c.Security.Checksum.Format = "weird" }, 1},
		{"custom-api without version block", func(c *RepoConfig) {
			c.Source.ProviderType = ProviderCustomAPI
		}, 1},
		{"custom-api with bad discovery type", func(c *RepoConfig) {
			c.Source.ProviderType = ProviderCustomAPI
			c.Source.Version = &Version{DiscoveryURL: "https://x", DiscoveryType: "yaml"}
		}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			assert.Len(t, cfg.Validate(), tt.wantLen)
		})
	}
}

func TestURLFilter(t *testing.T) {
	cfg := RepoConfig{Platform: &PlatformBlock{URLFilters: map[string]string{"linux_amd64": "linux-x64"}}}

	v, ok := cfg.URLFilter("linux_amd64")
	assert.True(t, ok)
	assert.Equal(t, "linux-x64", v)

	_, ok = cfg.URLFilter("darwin_arm64")
	assert.False(t, ok)

	var empty RepoConfig
	_, ok = empty.URLFilter("linux_amd64")
	assert.False(t, ok)
}
