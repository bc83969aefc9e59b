// Package recipe models the .repo document: a declarative description of
// how to discover, download, verify, and install one upstream project.
package recipe

import (
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/logging"
)

var log = logging.GetLogger("recipe")

// Provider types.
const (
	ProviderGitHub    = "github"
	ProviderGitLab    = "gitlab"
	ProviderCustomAPI = "custom-api"
	ProviderDirectURL = "direct-url"
	ProviderWebScrape = "webpage-scraping"
)

// Discovery types for the custom-api provider.
const (
	DiscoveryGitHubAPI = "github-api"
	DiscoveryGitLabAPI = "gitlab-api"
	DiscoveryJSON      = "json"
	DiscoveryText      = "text"
	DiscoveryHTML      = "html-scraping"
)

// Checksum manifest formats.
const (
	FormatSingleHash = "single-hash"
	FormatMultiHash  = "multi-hash"
)

// RepoConfig is one parsed recipe. Immutable for the duration of an
// operation.
type RepoConfig struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Homepage    string `toml:"homepage,omitempty"`

	Source   Source         `toml:"source"`
	Platform *PlatformBlock `toml:"platform,omitempty"`
	Install  Install        `toml:"install"`
	Security Security       `toml:"security"`
}

// Source describes where releases come from.
type Source struct {
	ProviderType string    `toml:"provider_type"`
	Repo         string    `toml:"repo,omitempty"`
	Instance     string    `toml:"instance,omitempty"`
	APIURL       string    `toml:"api_url,omitempty"`
	Download     Download  `toml:"download"`
	Version      *Version  `toml:"version,omitempty"`
}

// Download holds either a single templated URL or a per-platform table.
type Download struct {
	URL  string            `toml:"url,omitempty"`
	URLs map[string]string `toml:"urls,omitempty"`
}

// Version configures discovery for the custom-api provider.
type Version struct {
	DiscoveryURL   string `toml:"discovery_url"`
	DiscoveryType  string `toml:"discovery_type"`
	JSONPath       string `toml:"json_path,omitempty"`
	Regex          string `toml:"regex,omitempty"`
	URLPattern     string `toml:"url_pattern,omitempty"`
	VersionPattern string `toml:"version_pattern,omitempty"`
}

// PlatformBlock maps runtime platform names to the tokens the upstream
// release artifacts use.
type PlatformBlock struct {
	OSMap      map[string]string `toml:"os_map,omitempty"`
	ArchMap    map[string]string `toml:"arch_map,omitempty"`
	URLFilters map[string]string `toml:"url_filters,omitempty"`
}

// Install describes what to deploy out of the extracted archive.
type Install struct {
	Binaries    []string          `toml:"binaries,omitempty"`
	Files       []FileMapping     `toml:"files,omitempty"`
	PostInstall string            `toml:"post_install,omitempty"`
	Env         map[string]string `toml:"env,omitempty"`
}

// FileMapping copies one additional file into the install dir.
type FileMapping struct {
	Src string `toml:"src"`
	Dst string `toml:"dst"`
}

// Security declares the recipe's integrity posture.
type Security struct {
	AllowInsecure bool      `toml:"allow_insecure"`
	Checksum      *Checksum `toml:"checksum,omitempty"`
	GPG           *GPG      `toml:"gpg,omitempty"`
	Warnings      []string  `toml:"warnings,omitempty"`
}

// Checksum points at the published digest for a release artifact.
type Checksum struct {
	URL             string `toml:"url"`
	Algorithm       string `toml:"algorithm"`
	FilenamePattern string `toml:"filename_pattern,omitempty"`
	Format          string `toml:"format"`
}

// GPG points at a detached signature for a release artifact.
type GPG struct {
	SignatureURL string `toml:"signature_url"`
	KeyURL       string `toml:"key_url,omitempty"`
	Fingerprint  string `toml:"fingerprint,omitempty"`
}

// Load reads and validates a recipe file.
func Load(path string) (*RepoConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to read recipe %s", path)
	}
	return Parse(data, path)
}

// Parse decodes recipe bytes and validates them. origin is used in error
// messages only.
func Parse(data []byte, origin string) (*RepoConfig, error) {
	var cfg RepoConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, errors.ErrRepoFormat, "malformed recipe %s", origin)
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, errors.Wrapf(problems[0], errors.ErrRepoFormat, "invalid recipe %s", origin)
	}
	log.Debug().Str("recipe", cfg.Name).Str("provider", cfg.Source.ProviderType).Msg("Parsed recipe")
	return &cfg, nil
}

// Lint loads a recipe without rejecting it, returning every structural
// problem found. A document that is not even parseable TOML still fails.
func Lint(path string) (*RepoConfig, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.ErrIO, "failed to read recipe %s", path)
	}
	var cfg RepoConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, errors.Wrapf(err, errors.ErrRepoFormat, "malformed recipe %s", path)
	}
	return &cfg, cfg.Validate(), nil
}

// Validate returns every structural problem in the recipe.
func (c *RepoConfig) Validate() []error {
	var problems []error

	if c.Name == "" {
		problems = append(problems, errors.New(errors.ErrRepoFormat, "recipe has no name"))
	}

	switch c.Source.ProviderType {
	case ProviderGitHub, ProviderGitLab:
		if c.Source.Repo == "" {
			problems = append(problems, errors.Newf(errors.ErrRepoFormat,
				"provider %s requires source.repo", c.Source.ProviderType))
		}
	case ProviderCustomAPI:
		if c.Source.Version == nil {
			problems = append(problems, errors.New(errors.ErrRepoFormat,
				"provider custom-api requires a source.version block"))
		} else if !validDiscoveryType(c.Source.Version.DiscoveryType) {
			problems = append(problems, errors.Newf(errors.ErrRepoFormat,
				"unknown discovery type %q", c.Source.Version.DiscoveryType))
		}
	case ProviderDirectURL, ProviderWebScrape:
		// No extra requirements beyond a download source.
	case "":
		problems = append(problems, errors.New(errors.ErrRepoFormat, "recipe has no provider type"))
	default:
		problems = append(problems, errors.Newf(errors.ErrRepoFormat,
			"unknown provider type %q", c.Source.ProviderType))
	}

	if c.Source.Download.URL == "" && len(c.Source.Download.URLs) == 0 &&
		c.Source.ProviderType != ProviderWebScrape {
		problems = append(problems, errors.New(errors.ErrRepoFormat,
			"recipe has no download URL or URL table"))
	}

	if !c.Security.AllowInsecure && c.Security.Checksum == nil {
		problems = append(problems, errors.New(errors.ErrRepoFormat,
			"recipe requires a checksum block unless allow_insecure is set"))
	}

	if cs := c.Security.Checksum; cs != nil {
		if cs.Algorithm != "sha256" && cs.Algorithm != "sha512" {
			problems = append(problems, errors.Newf(errors.ErrRepoFormat,
				"unsupported checksum algorithm %q", cs.Algorithm))
		}
		if cs.Format != FormatSingleHash && cs.Format != FormatMultiHash {
			problems = append(problems, errors.Newf(errors.ErrRepoFormat,
				"unsupported checksum format %q", cs.Format))
		}
		if cs.URL == "" {
			problems = append(problems, errors.New(errors.ErrRepoFormat, "checksum block has no URL"))
		}
	}

	return problems
}

func validDiscoveryType(t string) bool {
	switch t {
	case DiscoveryGitHubAPI, DiscoveryGitLabAPI, DiscoveryJSON, DiscoveryText, DiscoveryHTML:
		return true
	}
	return false
}

// OSMap returns the recipe's OS mapping table, or nil when absent.
func (c *RepoConfig) OSMap() map[string]string {
	if c.Platform == nil {
		return nil
	}
	return c.Platform.OSMap
}

// ArchMap returns the recipe's arch mapping table, or nil when absent.
func (c *RepoConfig) ArchMap() map[string]string {
	if c.Platform == nil {
		return nil
	}
	return c.Platform.ArchMap
}

// URLFilter returns the scraped-URL filter for a mapped platform key.
func (c *RepoConfig) URLFilter(key string) (string, bool) {
	if c.Platform == nil || c.Platform.URLFilters == nil {
		return "", false
	}
	v, ok := c.Platform.URLFilters[key]
	return v, ok
}
